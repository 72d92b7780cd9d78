// Package plumbing turns pairwise commit diffs into hunk descriptors
// consumable by the line matcher.
package plumbing

import (
	"bytes"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/pkg/errors"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineKind classifies one line of a hunk's stream.
type LineKind int

const (
	// LineContext is a line present on both sides of the hunk.
	LineContext LineKind = iota
	// LineAddition is a line present only on the new side.
	LineAddition
	// LineDeletion is a line present only on the old side.
	LineDeletion
)

// Line is a single entry of a hunk's line stream.
type Line struct {
	Body string
	Kind LineKind
}

// Hunk is a contiguous region of a diff between two versions of a file.
// OldStart and NewStart are the 1-based line numbers of the first old-side
// and new-side lines covered by the hunk.
type Hunk struct {
	OldPath  string
	NewPath  string
	OldStart int
	NewStart int
	Lines    []Line
}

// CommitHunks diffs the trees of parent and child and returns the hunks of
// every changed file. Renames are not detected: a rename arrives as a
// deletion plus an addition. Paths absent on one side fall back to the other
// side's path, which matches what libgit2 reports for additions and removals.
func CommitHunks(parent, child *object.Commit) ([]Hunk, error) {
	oldTree, err := parent.Tree()
	if err != nil {
		return nil, errors.Wrapf(err, "resolving tree of %s", parent.Hash)
	}
	newTree, err := child.Tree()
	if err != nil {
		return nil, errors.Wrapf(err, "resolving tree of %s", child.Hash)
	}
	changes, err := object.DiffTree(oldTree, newTree)
	if err != nil {
		return nil, errors.Wrapf(err, "diffing %s against %s", parent.Hash, child.Hash)
	}

	var hunks []Hunk
	for _, change := range changes {
		from, to, err := change.Files()
		if err != nil {
			return nil, errors.Wrapf(err, "loading blobs of %s", change)
		}
		oldText, err := fileToString(from)
		if err != nil {
			return nil, err
		}
		newText, err := fileToString(to)
		if err != nil {
			return nil, err
		}
		oldPath, newPath := sanitizePath(change.From.Name), sanitizePath(change.To.Name)
		if oldPath == "" {
			oldPath = newPath
		}
		if newPath == "" {
			newPath = oldPath
		}
		hunks = append(hunks, TextHunks(oldPath, newPath, oldText, newText)...)
	}
	return hunks, nil
}

// TextHunks computes the line-level diff of two file versions and folds it
// into hunks. Each maximal run of non-equal lines becomes one hunk; context
// lines are not carried.
func TextHunks(oldPath, newPath, oldText, newText string) []Hunk {
	dmp := diffmatchpatch.New()
	src, dst, lineArray := dmp.DiffLinesToRunes(oldText, newText)
	diffs := dmp.DiffMainRunes(src, dst, false)
	diffs = dmp.DiffCleanupMerge(diffs)

	var hunks []Hunk
	var current *Hunk
	oldLine, newLine := 1, 1
	for _, edit := range diffs {
		length := utf8.RuneCountInString(edit.Text)
		switch edit.Type {
		case diffmatchpatch.DiffEqual:
			if current != nil {
				hunks = append(hunks, *current)
				current = nil
			}
			oldLine += length
			newLine += length
		case diffmatchpatch.DiffDelete:
			if current == nil {
				current = &Hunk{
					OldPath: oldPath, NewPath: newPath,
					OldStart: oldLine, NewStart: newLine,
				}
			}
			for _, r := range edit.Text {
				current.Lines = append(current.Lines,
					Line{Body: lineArray[r], Kind: LineDeletion})
			}
			oldLine += length
		case diffmatchpatch.DiffInsert:
			if current == nil {
				current = &Hunk{
					OldPath: oldPath, NewPath: newPath,
					OldStart: oldLine, NewStart: newLine,
				}
			}
			for _, r := range edit.Text {
				current.Lines = append(current.Lines,
					Line{Body: lineArray[r], Kind: LineAddition})
			}
			newLine += length
		}
	}
	if current != nil {
		hunks = append(hunks, *current)
	}
	return hunks
}

// fileToString reads a changed file's blob. A nil file (the absent side of an
// addition or removal) reads as empty. Invalid UTF-8 byte sequences are
// substituted with the replacement character so downstream rune arithmetic
// stays sound.
func fileToString(file *object.File) (string, error) {
	if file == nil {
		return "", nil
	}
	reader, err := file.Blob.Reader()
	if err != nil {
		return "", errors.Wrapf(err, "opening blob %s", file.Hash)
	}
	defer checkClose(reader)
	buf := new(bytes.Buffer)
	if _, err = io.Copy(buf, reader); err != nil {
		return "", errors.Wrapf(err, "reading blob %s", file.Hash)
	}
	text := buf.String()
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, string(utf8.RuneError))
	}
	return text, nil
}

// sanitizePath substitutes invalid byte sequences so the path can live in a
// TEXT column.
func sanitizePath(path string) string {
	if utf8.ValidString(path) {
		return path
	}
	return strings.ToValidUTF8(path, string(utf8.RuneError))
}

func checkClose(c io.Closer) {
	if err := c.Close(); err != nil {
		panic(err)
	}
}
