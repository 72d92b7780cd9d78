// Copyright (c) 2015, Arbo von Monkiewitsch All rights reserved.
// Use of this source code is governed by a BSD-style
// license.

package levenshtein

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var distanceTests = []struct {
	first  string
	second string
	wanted int
}{
	{"a", "a", 0},
	{"ab", "ab", 0},
	{"ab", "aa", 1},
	{"ab", "aaa", 2},
	{"bbb", "a", 3},
	{"kitten", "sitting", 3},
	{"a", "", 1},
	{"", "a", 1},
	{"aa", "aü", 1},
	{"Fön", "Föm", 1},
}

func TestDistance(t *testing.T) {
	lev := &Context{}

	for index, tt := range distanceTests {
		result := lev.Distance(tt.first, tt.second)
		assert.Equalf(t, tt.wanted, result,
			"%v \t distance of %v and %v should be %v but was %v.",
			index, tt.first, tt.second, tt.wanted, result)
	}
}

var normalizedTests = []struct {
	first  string
	second string
	wanted float64
}{
	{"", "", 0},
	{"a", "a", 0},
	{"a", "", 1},
	{"kitten", "sitting", 3.0 / 7.0},
	{"int x = 1;", "int x = 2;", 0.1},
	{"abcd", "wxyz", 1},
}

func TestNormalized(t *testing.T) {
	lev := &Context{}

	for index, tt := range normalizedTests {
		result := lev.Normalized(tt.first, tt.second)
		assert.InDeltaf(t, tt.wanted, result, 1e-9,
			"%v \t normalized distance of %v and %v should be %v but was %v.",
			index, tt.first, tt.second, tt.wanted, result)
		assert.GreaterOrEqual(t, result, 0.0)
		assert.LessOrEqual(t, result, 1.0)
	}
}

func BenchmarkDistance(b *testing.B) {
	s1 := "frederick"
	s2 := "fredelstick"
	total := 0

	b.ReportAllocs()
	b.ResetTimer()

	c := &Context{}

	for i := 0; i < b.N; i++ {
		total += c.Distance(s1, s2)
	}

	if total == 0 {
		b.Logf("total is %d", total)
	}
}
