// Package test provides in-memory fixture repositories for miner and
// resolver tests.
package test

import (
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
)

// RepositoryBuilder accumulates commits in an in-memory repository. Commit
// times advance by one hour per commit so the chronological order matches
// the build order.
type RepositoryBuilder struct {
	Repository *git.Repository

	worktree *git.Worktree
	when     time.Time
}

// NewRepositoryBuilder initializes an empty in-memory repository.
func NewRepositoryBuilder() (*RepositoryBuilder, error) {
	repository, err := git.Init(memory.NewStorage(), memfs.New())
	if err != nil {
		return nil, err
	}
	worktree, err := repository.Worktree()
	if err != nil {
		return nil, err
	}
	return &RepositoryBuilder{
		Repository: repository,
		worktree:   worktree,
		when:       time.Date(2010, time.January, 1, 0, 0, 0, 0, time.UTC),
	}, nil
}

// Commit writes the given files, stages them and commits with the given
// message. Files from earlier commits stay in place unless overwritten.
func (b *RepositoryBuilder) Commit(message string, files map[string]string) (plumbing.Hash, error) {
	for name, content := range files {
		if err := util.WriteFile(b.worktree.Filesystem, name, []byte(content), 0666); err != nil {
			return plumbing.ZeroHash, err
		}
		if _, err := b.worktree.Add(name); err != nil {
			return plumbing.ZeroHash, err
		}
	}
	signature := &object.Signature{
		Name:  "tester",
		Email: "tester@example.com",
		When:  b.when,
	}
	b.when = b.when.Add(time.Hour)
	return b.worktree.Commit(message, &git.CommitOptions{
		Author:    signature,
		Committer: signature,
	})
}

// CommitObject resolves a commit created by Commit.
func (b *RepositoryBuilder) CommitObject(hash plumbing.Hash) (*object.Commit, error) {
	return b.Repository.CommitObject(hash)
}
