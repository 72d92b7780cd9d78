// Package match identifies changed, deleted and added lines within a hunk by
// pairing deletions to additions through optimal assignment over normalized
// Levenshtein distances.
package match

import (
	"github.com/cyraxred/grinder/internal/hungarian"
	"github.com/cyraxred/grinder/internal/levenshtein"
	"github.com/cyraxred/grinder/internal/plumbing"
)

// similarityThreshold is the normalized distance below which a deletion and
// an addition are judged to be the same line, modified. The bound is
// exclusive on both ends: a distance of exactly 0 means the line did not
// change at all and must not be coded as an edit.
const similarityThreshold = 0.4

// IndexedLine is a deletion or addition line together with its position in
// the hunk's old-side or new-side view.
type IndexedLine struct {
	Body  string
	Index int
}

// Change pairs an old-side view index with the new-side view index of the
// line it became.
type Change struct {
	OldIndex int
	NewIndex int
}

// Edit is one line-level change in absolute line numbers. Line numbers are
// 1-based; zero marks the absent side, so exactly one of the three shapes
// holds: deletion (NewLine == 0), addition (OldLine == 0), or change (both
// set).
type Edit struct {
	OldLine int
	NewLine int
}

// Decompose projects a hunk's line stream onto its two sides. Deletions are
// indexed by their position among the old-side lines (context + deletions),
// additions by their position among the new-side lines (context +
// additions).
func Decompose(h plumbing.Hunk) (deletions, additions []IndexedLine) {
	oldIndex, newIndex := 0, 0
	for _, line := range h.Lines {
		switch line.Kind {
		case plumbing.LineContext:
			oldIndex++
			newIndex++
		case plumbing.LineDeletion:
			deletions = append(deletions, IndexedLine{Body: line.Body, Index: oldIndex})
			oldIndex++
		case plumbing.LineAddition:
			additions = append(additions, IndexedLine{Body: line.Body, Index: newIndex})
			newIndex++
		}
	}
	return deletions, additions
}

// Pair matches deletions to additions by minimum-cost assignment and keeps
// the pairs whose normalized distance falls in the open (0, 0.4) interval.
// The result is a deterministic function of the inputs, ordered by the
// deletions' view indexes.
func Pair(deletions, additions []IndexedLine) []Change {
	if len(deletions) == 0 || len(additions) == 0 {
		return nil
	}
	lev := &levenshtein.Context{}
	costs := make([][]float64, len(deletions))
	for i, del := range deletions {
		costs[i] = make([]float64, len(additions))
		for j, add := range additions {
			costs[i][j] = lev.Normalized(del.Body, add.Body)
		}
	}
	var changes []Change
	for _, p := range hungarian.Solve(costs) {
		cost := costs[p.Row][p.Col]
		if cost > 0.0 && cost < similarityThreshold {
			changes = append(changes, Change{
				OldIndex: deletions[p.Row].Index,
				NewIndex: additions[p.Col].Index,
			})
		}
	}
	return changes
}

// Edits decomposes and pairs a hunk, then emits one Edit per line: changed
// pairs first, then pure deletions, then pure additions, each translated to
// absolute line numbers off the hunk's start anchors.
func Edits(h plumbing.Hunk) []Edit {
	deletions, additions := Decompose(h)
	changes := Pair(deletions, additions)

	changedOld := make(map[int]bool, len(changes))
	changedNew := make(map[int]bool, len(changes))
	edits := make([]Edit, 0, len(deletions)+len(additions))
	for _, c := range changes {
		changedOld[c.OldIndex] = true
		changedNew[c.NewIndex] = true
		edits = append(edits, Edit{
			OldLine: h.OldStart + c.OldIndex,
			NewLine: h.NewStart + c.NewIndex,
		})
	}
	for _, del := range deletions {
		if !changedOld[del.Index] {
			edits = append(edits, Edit{OldLine: h.OldStart + del.Index})
		}
	}
	for _, add := range additions {
		if !changedNew[add.Index] {
			edits = append(edits, Edit{NewLine: h.NewStart + add.Index})
		}
	}
	return edits
}
