package plumbing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextHunksUnchanged(t *testing.T) {
	assert.Empty(t, TextHunks("a.c", "a.c", "int x;\n", "int x;\n"))
	assert.Empty(t, TextHunks("a.c", "a.c", "", ""))
}

func TestTextHunksModifiedLine(t *testing.T) {
	hunks := TextHunks("a.c", "a.c",
		"alpha\nbravo\ncharlie\n",
		"alpha\nxray\ncharlie\n")
	assert.Len(t, hunks, 1)
	h := hunks[0]
	assert.Equal(t, "a.c", h.OldPath)
	assert.Equal(t, "a.c", h.NewPath)
	assert.Equal(t, 2, h.OldStart)
	assert.Equal(t, 2, h.NewStart)
	assert.Equal(t, []Line{
		{Body: "bravo\n", Kind: LineDeletion},
		{Body: "xray\n", Kind: LineAddition},
	}, h.Lines)
}

func TestTextHunksPureAddition(t *testing.T) {
	hunks := TextHunks("a.c", "a.c", "alpha\n", "alpha\nbravo\n")
	assert.Len(t, hunks, 1)
	h := hunks[0]
	assert.Equal(t, 2, h.OldStart)
	assert.Equal(t, 2, h.NewStart)
	assert.Equal(t, []Line{{Body: "bravo\n", Kind: LineAddition}}, h.Lines)
}

func TestTextHunksPureDeletion(t *testing.T) {
	hunks := TextHunks("a.c", "a.c", "alpha\nbravo\n", "alpha\n")
	assert.Len(t, hunks, 1)
	h := hunks[0]
	assert.Equal(t, 2, h.OldStart)
	assert.Equal(t, 2, h.NewStart)
	assert.Equal(t, []Line{{Body: "bravo\n", Kind: LineDeletion}}, h.Lines)
}

func TestTextHunksSeparateRegions(t *testing.T) {
	hunks := TextHunks("a.c", "a.c",
		"one\ntwo\nthree\nfour\nfive\n",
		"one\nTWO\nthree\nfour\nFIVE\n")
	assert.Len(t, hunks, 2)
	assert.Equal(t, 2, hunks[0].OldStart)
	assert.Equal(t, 2, hunks[0].NewStart)
	assert.Equal(t, 5, hunks[1].OldStart)
	assert.Equal(t, 5, hunks[1].NewStart)
}

func TestTextHunksNewFile(t *testing.T) {
	hunks := TextHunks("a.c", "a.c", "", "alpha\nbravo\n")
	assert.Len(t, hunks, 1)
	h := hunks[0]
	assert.Equal(t, 1, h.OldStart)
	assert.Equal(t, 1, h.NewStart)
	assert.Equal(t, []Line{
		{Body: "alpha\n", Kind: LineAddition},
		{Body: "bravo\n", Kind: LineAddition},
	}, h.Lines)
}

func TestTextHunksNoTrailingNewline(t *testing.T) {
	hunks := TextHunks("a.c", "a.c", "alpha", "bravo")
	assert.Len(t, hunks, 1)
	assert.Equal(t, []Line{
		{Body: "alpha", Kind: LineDeletion},
		{Body: "bravo", Kind: LineAddition},
	}, hunks[0].Lines)
}
