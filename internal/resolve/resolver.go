// Package resolve answers the origin question: for each bug, which earlier
// commits introduced the lines its fix commits later touched.
package resolve

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/cyraxred/grinder/internal/core"
	"github.com/cyraxred/grinder/internal/storage"
)

// DateFormat is the accepted layout of the --from / --to bounds.
const DateFormat = "02/01/2006"

// ParseDate converts a DD/MM/YYYY string into Unix seconds in local time.
func ParseDate(value string) (int64, error) {
	t, err := time.ParseInLocation(DateFormat, value, time.Local)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing date %q", value)
	}
	return t.Unix(), nil
}

// Resolver reads a built store and reports origin commits per bug. It never
// writes; the store is its consistent snapshot for the whole report.
type Resolver struct {
	Store *storage.Store
	// From and To optionally bound the fix commits' dates (inclusive).
	// Origin commits themselves are not filtered.
	From *int64
	To   *int64

	l core.Logger
}

// NewResolver wires a resolver over an opened store.
func NewResolver(store *storage.Store, logger core.Logger) *Resolver {
	return &Resolver{Store: store, l: logger}
}

// Report writes one line per bug having at least one origin:
//
//	#<bug_no> [<hex>, <hex>, ...]
//
// followed by a blank line. Bugs appear in bug-id order and hashes in
// commit-id order, so the output is stable across runs.
func (r *Resolver) Report(w io.Writer) error {
	bugs, err := r.Store.Bugs()
	if err != nil {
		return err
	}
	for _, bug := range bugs {
		origins, err := r.origins(bug)
		if err != nil {
			return err
		}
		if len(origins) == 0 {
			continue
		}
		hexes := make([]string, len(origins))
		for i, origin := range origins {
			hexes[i] = origin.Hex
		}
		if _, err = fmt.Fprintf(w, "#%d [%s]\n\n", bug.No, strings.Join(hexes, ", ")); err != nil {
			return errors.Wrap(err, "writing report")
		}
	}
	return nil
}

// origins collects the union of origin commits over all fix commits of a
// bug, ordered by commit id.
func (r *Resolver) origins(bug storage.Bug) ([]storage.Commit, error) {
	fixes, err := r.Store.FixCommits(bug.ID, r.From, r.To)
	if err != nil {
		return nil, err
	}
	found := map[int64]storage.Commit{}
	for _, fix := range fixes {
		r.l.Debugf("bug %d fix %s", bug.No, fix.Hex)
		edits, err := r.Store.EditsOfCommit(fix.ID)
		if err != nil {
			return nil, err
		}
		for _, edit := range edits {
			// only edits touching an old side can point back in history
			if !edit.OldFileID.Valid || !edit.OldLine.Valid {
				continue
			}
			origin, err := r.Store.LatestOriginBefore(
				edit.OldFileID.Int64, edit.OldLine.Int64, fix.Date)
			if err != nil {
				return nil, err
			}
			if origin != nil {
				found[origin.ID] = *origin
			}
		}
	}
	origins := make([]storage.Commit, 0, len(found))
	for _, origin := range found {
		origins = append(origins, origin)
	}
	sort.Slice(origins, func(i, j int) bool { return origins[i].ID < origins[j].ID })
	return origins, nil
}
