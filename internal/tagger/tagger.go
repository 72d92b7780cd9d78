// Package tagger extracts referenced bug numbers from commit messages.
package tagger

import (
	"regexp"
	"strconv"
)

// patterns are tried in order; the first one that matches wins and all of its
// captured integer groups are reported.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`bug[# \t]*(\d+)`),
	regexp.MustCompile(`\[(\d+)\]`),
	regexp.MustCompile(`#(\d+)`),
	regexp.MustCompile(`(?i)(?:fixes|closes|resolves) issue #?(\d+)`),
}

// Tag returns the bug numbers referenced by a commit message. Only the first
// match of the first matching pattern counts; an empty result means the
// message links no bugs.
func Tag(message string) []int {
	for _, pattern := range patterns {
		match := pattern.FindStringSubmatch(message)
		if match == nil {
			continue
		}
		var numbers []int
		for _, group := range match[1:] {
			n, err := strconv.Atoi(group)
			if err != nil {
				// \d+ overflowing int; such a reference cannot be a
				// real issue number
				continue
			}
			numbers = append(numbers, n)
		}
		return numbers
	}
	return nil
}
