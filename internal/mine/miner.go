// Package mine ingests a repository's history into the store: commits,
// parent edges, bug links and line edits.
package mine

import (
	"database/sql"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/Jeffail/tunny"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/pkg/errors"
	progress "gopkg.in/cheggaaa/pb.v1"

	"github.com/cyraxred/grinder/internal/core"
	"github.com/cyraxred/grinder/internal/match"
	"github.com/cyraxred/grinder/internal/plumbing"
	"github.com/cyraxred/grinder/internal/storage"
	"github.com/cyraxred/grinder/internal/tagger"
)

// DefaultExtensions is the allow-list of old-side file extensions whose
// hunks produce edits.
var DefaultExtensions = []string{".c", ".h"}

// Miner drives ingestion. Each commit is persisted as one transaction;
// re-running over already ingested history produces no new rows.
type Miner struct {
	Repository *git.Repository
	Store      *storage.Store
	// Extensions restricts hunk processing to files whose old path carries
	// one of these extensions. Empty means DefaultExtensions.
	Extensions []string
	// Workers sizes the per-hunk matching pool. Zero means GOMAXPROCS.
	Workers int
	// ShowProgress renders a commit-count progress bar on stderr.
	ShowProgress bool

	l core.Logger
}

// NewMiner wires a miner over an opened repository and store.
func NewMiner(repository *git.Repository, store *storage.Store, logger core.Logger) *Miner {
	return &Miner{
		Repository: repository,
		Store:      store,
		Extensions: DefaultExtensions,
		l:          logger,
	}
}

// Run walks the history oldest-first and ingests every commit. A diff
// failure against a single parent is logged and skipped; a store failure
// aborts the run with the current commit rolled back.
func (m *Miner) Run() error {
	commits, err := m.commits()
	if err != nil {
		return err
	}
	workers := m.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	pool := tunny.NewFunc(workers, func(payload interface{}) interface{} {
		return match.Edits(payload.(plumbing.Hunk))
	})
	defer pool.Close()

	var bar *progress.ProgressBar
	if m.ShowProgress {
		bar = progress.New(len(commits))
		bar.Output = os.Stderr
		bar.Start()
		defer bar.Finish()
	}
	for _, commit := range commits {
		m.l.Infof("commit %s", commit.Hash)
		if err = m.ingest(pool, commit); err != nil {
			return err
		}
		if bar != nil {
			bar.Increment()
		}
	}
	return nil
}

// commits returns every commit reachable from HEAD in chronological
// (oldest-first) order. Ties on committer time break by hash to keep the
// walk deterministic.
func (m *Miner) commits() ([]*object.Commit, error) {
	head, err := m.Repository.Head()
	if err != nil {
		return nil, errors.Wrap(err, "resolving HEAD")
	}
	iter, err := m.Repository.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, errors.Wrap(err, "walking history")
	}
	defer iter.Close()
	var commits []*object.Commit
	err = iter.ForEach(func(commit *object.Commit) error {
		commits = append(commits, commit)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "walking history")
	}
	sort.SliceStable(commits, func(i, j int) bool {
		ti, tj := commits[i].Committer.When, commits[j].Committer.When
		if ti.Equal(tj) {
			return commits[i].Hash.String() < commits[j].Hash.String()
		}
		return ti.Before(tj)
	})
	return commits, nil
}

// ingest persists one commit and everything derived from it as a single
// transaction.
func (m *Miner) ingest(pool *tunny.Pool, commit *object.Commit) error {
	tx, err := m.Store.Begin()
	if err != nil {
		return err
	}
	if err = m.ingestInto(tx, pool, commit); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			m.l.Errorf("rollback of %s failed: %v", commit.Hash, rollbackErr)
		}
		return err
	}
	return errors.Wrapf(tx.Commit(), "committing transaction of %s", commit.Hash)
}

func (m *Miner) ingestInto(tx *sql.Tx, pool *tunny.Pool, commit *object.Commit) error {
	row, err := m.Store.FindOrCreateCommit(tx, commit.Hash.String(), commit.Committer.When.Unix())
	if err != nil {
		return err
	}

	for _, no := range tagger.Tag(commit.Message) {
		bug, err := m.Store.FindOrCreateBug(tx, int64(no))
		if err != nil {
			return err
		}
		if err = m.Store.LinkBugCommit(tx, bug.ID, row.ID); err != nil {
			return err
		}
		m.l.Debugf("bug %d", no)
	}

	// A commit that already carries edits was fully ingested by a previous
	// run; re-diffing it would duplicate them.
	ingested, err := m.Store.EditCount(tx, row.ID)
	if err != nil {
		return err
	}

	for i := 0; i < commit.NumParents(); i++ {
		parent, err := commit.Parent(i)
		if err != nil {
			return errors.Wrapf(err, "resolving parent %d of %s", i, commit.Hash)
		}
		parentRow, err := m.Store.FindOrCreateCommit(
			tx, parent.Hash.String(), parent.Committer.When.Unix())
		if err != nil {
			return err
		}
		if err = m.Store.LinkParent(tx, parentRow.ID, row.ID); err != nil {
			return err
		}
		m.l.Debugf("parent %s", parent.Hash)
		if ingested > 0 {
			continue
		}

		hunks, err := plumbing.CommitHunks(parent, commit)
		if err != nil {
			m.l.Warnf("skipping parent %s of %s: %v", parent.Hash, commit.Hash, err)
			continue
		}
		if err = m.persistHunks(tx, pool, row.ID, m.filter(hunks)); err != nil {
			return err
		}
	}
	return nil
}

// filter keeps the hunks whose old path extension is on the allow-list. The
// new path deliberately does not participate, mirroring the established
// behavior for renames.
func (m *Miner) filter(hunks []plumbing.Hunk) []plumbing.Hunk {
	extensions := m.Extensions
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	allowed := hunks[:0:0]
	for _, hunk := range hunks {
		ext := filepath.Ext(hunk.OldPath)
		for _, candidate := range extensions {
			if ext == candidate {
				allowed = append(allowed, hunk)
				break
			}
		}
	}
	return allowed
}

// persistHunks matches hunks on the worker pool, buffering the results, and
// inserts all produced edits in hunk order within the commit's transaction.
func (m *Miner) persistHunks(
	tx *sql.Tx, pool *tunny.Pool, commitID int64, hunks []plumbing.Hunk) error {
	matched := make([][]match.Edit, len(hunks))
	var wg sync.WaitGroup
	for i, hunk := range hunks {
		wg.Add(1)
		go func(i int, hunk plumbing.Hunk) {
			defer wg.Done()
			matched[i] = pool.Process(hunk).([]match.Edit)
		}(i, hunk)
	}
	wg.Wait()

	for i, hunk := range hunks {
		oldFile, err := m.Store.FindOrCreateFile(tx, hunk.OldPath)
		if err != nil {
			return err
		}
		newFile, err := m.Store.FindOrCreateFile(tx, hunk.NewPath)
		if err != nil {
			return err
		}
		m.l.Debugf("hunk %s old:%d new:%d edits:%d",
			hunk.OldPath, hunk.OldStart, hunk.NewStart, len(matched[i]))
		for _, edit := range matched[i] {
			row := storage.Edit{
				OldFileID: sql.NullInt64{Int64: oldFile.ID, Valid: true},
				NewFileID: sql.NullInt64{Int64: newFile.ID, Valid: true},
				CommitID:  commitID,
			}
			if edit.OldLine != 0 {
				row.OldLine = sql.NullInt64{Int64: int64(edit.OldLine), Valid: true}
			}
			if edit.NewLine != 0 {
				row.NewLine = sql.NullInt64{Int64: int64(edit.NewLine), Valid: true}
			}
			if err = m.Store.InsertEdit(tx, row); err != nil {
				return err
			}
		}
	}
	return nil
}
