// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"sort"
	"strings"
)

// ReconstructAbstract inverts an abstract inverted index (word → positions)
// into plain text ordered by position. An empty or absent index yields nil,
// which downstream readers treat as "unknown" rather than "empty".
func ReconstructAbstract(invertedIndex map[string][]int) *string {
	if len(invertedIndex) == 0 {
		return nil
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}
	if len(pairs) == 0 {
		return nil
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].pos != pairs[j].pos {
			return pairs[i].pos < pairs[j].pos
		}
		return pairs[i].word < pairs[j].word
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	text := strings.Join(words, " ")
	return &text
}

// optString returns nil for a blank string.
func optString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// optPositive returns nil for a missing or non-positive value.
func optPositive(n *int) *int {
	if n == nil || *n <= 0 {
		return nil
	}
	v := *n
	return &v
}

// optCount returns nil only for a missing value; zero is a real count.
func optCount(n *int) *int {
	if n == nil {
		return nil
	}
	v := *n
	return &v
}

// appendUnique appends the non-blank values not already in dst.
func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		dup := false
		for _, d := range dst {
			if d == v {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, v)
		}
	}
	return dst
}
