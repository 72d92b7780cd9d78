package resolve

import (
	"bytes"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyraxred/grinder/internal/core"
	"github.com/cyraxred/grinder/internal/mine"
	"github.com/cyraxred/grinder/internal/storage"
	"github.com/cyraxred/grinder/internal/test"
)

func openTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

func val(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: true}
}

// seed populates the store by hand: commit "cccc" (date 1000) introduces
// lines 10 and 20 of f.c; fixes "f1f1" (5000) and "f2f2" (6000) later touch
// them and reference bug 7.
func seed(t *testing.T, store *storage.Store) (origin storage.Commit) {
	t.Helper()
	tx, err := store.Begin()
	require.NoError(t, err)

	file, err := store.FindOrCreateFile(tx, "f.c")
	require.NoError(t, err)
	origin, err = store.FindOrCreateCommit(tx, "cccc", 1000)
	require.NoError(t, err)
	for _, line := range []int64{10, 20} {
		require.NoError(t, store.InsertEdit(tx, storage.Edit{
			NewFileID: val(file.ID), NewLine: val(line), CommitID: origin.ID,
		}))
	}

	bug, err := store.FindOrCreateBug(tx, 7)
	require.NoError(t, err)
	fix1, err := store.FindOrCreateCommit(tx, "f1f1", 5000)
	require.NoError(t, err)
	fix2, err := store.FindOrCreateCommit(tx, "f2f2", 6000)
	require.NoError(t, err)
	require.NoError(t, store.LinkBugCommit(tx, bug.ID, fix1.ID))
	require.NoError(t, store.LinkBugCommit(tx, bug.ID, fix2.ID))
	require.NoError(t, store.InsertEdit(tx, storage.Edit{
		OldFileID: val(file.ID), NewFileID: val(file.ID),
		OldLine: val(10), NewLine: val(10), CommitID: fix1.ID,
	}))
	require.NoError(t, store.InsertEdit(tx, storage.Edit{
		OldFileID: val(file.ID), NewFileID: val(file.ID),
		OldLine: val(20), NewLine: val(20), CommitID: fix2.ID,
	}))

	require.NoError(t, tx.Commit())
	return origin
}

func TestReportSingleOrigin(t *testing.T) {
	store := openTestStore(t)
	seed(t, store)

	var buf bytes.Buffer
	resolver := NewResolver(store, core.NewLogger(core.Quiet))
	require.NoError(t, resolver.Report(&buf))
	assert.Equal(t, "#7 [cccc]\n\n", buf.String())
}

func TestReportLatestIntroductionWins(t *testing.T) {
	store := openTestStore(t)
	origin := seed(t, store)

	// a later commit (still before the fixes) re-introduces line 20
	tx, err := store.Begin()
	require.NoError(t, err)
	file, err := store.FindOrCreateFile(tx, "f.c")
	require.NoError(t, err)
	later, err := store.FindOrCreateCommit(tx, "dddd", 2000)
	require.NoError(t, err)
	require.NoError(t, store.InsertEdit(tx, storage.Edit{
		NewFileID: val(file.ID), NewLine: val(20), CommitID: later.ID,
	}))
	require.NoError(t, tx.Commit())

	var buf bytes.Buffer
	resolver := NewResolver(store, core.NewLogger(core.Quiet))
	require.NoError(t, resolver.Report(&buf))
	// line 10 still points at the first commit, line 20 at the newer one
	assert.Equal(t,
		fmt.Sprintf("#7 [%s, %s]\n\n", origin.Hex, later.Hex),
		buf.String())
}

func TestReportDateWindow(t *testing.T) {
	store := openTestStore(t)
	seed(t, store)

	resolver := NewResolver(store, core.NewLogger(core.Quiet))
	from := int64(5500)
	resolver.From = &from

	// only the second fix (line 20) falls into the window
	var buf bytes.Buffer
	require.NoError(t, resolver.Report(&buf))
	assert.Equal(t, "#7 [cccc]\n\n", buf.String())

	to := int64(4000)
	resolver.From = nil
	resolver.To = &to
	buf.Reset()
	require.NoError(t, resolver.Report(&buf))
	assert.Empty(t, buf.String())
}

func TestReportSkipsBugsWithoutOrigins(t *testing.T) {
	store := openTestStore(t)
	tx, err := store.Begin()
	require.NoError(t, err)
	bug, err := store.FindOrCreateBug(tx, 99)
	require.NoError(t, err)
	fix, err := store.FindOrCreateCommit(tx, "eeee", 4000)
	require.NoError(t, err)
	require.NoError(t, store.LinkBugCommit(tx, bug.ID, fix.ID))
	require.NoError(t, tx.Commit())

	var buf bytes.Buffer
	resolver := NewResolver(store, core.NewLogger(core.Quiet))
	require.NoError(t, resolver.Report(&buf))
	assert.Empty(t, buf.String())
}

func TestParseDate(t *testing.T) {
	stamp, err := ParseDate("02/03/2015")
	require.NoError(t, err)
	assert.Equal(t,
		time.Date(2015, time.March, 2, 0, 0, 0, 0, time.Local).Unix(), stamp)

	_, err = ParseDate("2015-03-02")
	assert.Error(t, err)
	_, err = ParseDate("31/13/2015")
	assert.Error(t, err)
}

// The full pipeline: ingest a fixture repository, then resolve. The commit
// which introduced the buggy line must be reported as the origin of the
// bug its fix references.
func TestPipelineEndToEnd(t *testing.T) {
	builder, err := test.NewRepositoryBuilder()
	require.NoError(t, err)
	_, err = builder.Commit("initial import", map[string]string{
		"README.md": "scratch\n",
	})
	require.NoError(t, err)
	introducing, err := builder.Commit("add the parser", map[string]string{
		"parser.c": "alpha\nbravo\ncharlie\n",
	})
	require.NoError(t, err)
	_, err = builder.Commit("Fix bug 42 in parser", map[string]string{
		"parser.c": "alpha\nbravo fixed\ncharlie\n",
	})
	require.NoError(t, err)

	store := openTestStore(t)
	miner := mine.NewMiner(builder.Repository, store, core.NewLogger(core.Quiet))
	require.NoError(t, miner.Run())

	var buf bytes.Buffer
	resolver := NewResolver(store, core.NewLogger(core.Quiet))
	require.NoError(t, resolver.Report(&buf))
	assert.Equal(t, fmt.Sprintf("#42 [%s]\n\n", introducing), buf.String())
}
