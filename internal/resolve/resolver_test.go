// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("P%d", n)
	}
}

func strPtr(s string) *string { return &s }

// --- normalization ---

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Graph Nets", "graph nets"},
		{"  graph   NETS \n", "graph nets"},
		{"Graph Nets!", "graph nets!"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTitle(tt.in))
		})
	}
}

func TestNormalizeDOI(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"10.1/ABC", "10.1/abc"},
		{"https://doi.org/10.1/abc", "10.1/abc"},
		{"HTTPS://DOI.ORG/10.1/ABC", "10.1/abc"},
		{"http://dx.doi.org/10.1/abc", "10.1/abc"},
		{"doi:10.1/abc", "10.1/abc"},
		{"  10.1/abc  ", "10.1/abc"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDOI(tt.in))
		})
	}
}

func TestKeysFor_SkipsAbsentValues(t *testing.T) {
	keys := KeysFor("openalex", "W1", "  ", nil)
	require.Len(t, keys, 1)
	assert.Equal(t, Key{Kind: KindProviderID, Value: "openalex:W1"}, keys[0])

	keys = KeysFor("openalex", "", "Graph Nets", strPtr(""))
	require.Len(t, keys, 1)
	assert.Equal(t, KindTitle, keys[0].Kind)

	keys = KeysFor("s2", "abc", "Graph Nets", strPtr("https://doi.org/10.1/X"))
	assert.Len(t, keys, 3)
}

func TestKeyKindsDoNotCollide(t *testing.T) {
	r := New(WithIDGenerator(seqIDs()))
	a, err := r.Resolve(Key{Kind: KindTitle, Value: "10.1/abc"})
	require.NoError(t, err)
	b, err := r.Resolve(Key{Kind: KindDOI, Value: "10.1/abc"})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

// --- Resolve ---

func TestResolve_NoKeys(t *testing.T) {
	r := New()
	_, err := r.Resolve()
	assert.ErrorIs(t, err, ErrNoKeys)

	_, err = r.Resolve(KeysFor("openalex", "", "", nil)...)
	assert.ErrorIs(t, err, ErrNoKeys)
	assert.Equal(t, 0, r.Clusters())
}

func TestResolve_SameTitleNoDOI(t *testing.T) {
	r := New(WithIDGenerator(seqIDs()))

	a, err := r.Resolve(KeysFor("openalex", "W1", "Graph Nets", nil)...)
	require.NoError(t, err)
	b, err := r.Resolve(KeysFor("s2", "abc", "  graph NETS", nil)...)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, 1, r.Clusters())
	assert.Len(t, r.Keys(a), 3)
}

func TestResolve_SharedDOIDifferentTitles(t *testing.T) {
	r := New(WithIDGenerator(seqIDs()))

	a, err := r.Resolve(KeysFor("openalex", "W1", "Graph Networks", strPtr("10.1/abc"))...)
	require.NoError(t, err)
	b, err := r.Resolve(KeysFor("s2", "abc", "Relational inductive biases", strPtr("https://doi.org/10.1/ABC"))...)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	// Re-resolving either original key set still returns the surviving id.
	again, err := r.Resolve(KeysFor("s2", "abc", "Relational inductive biases", nil)...)
	require.NoError(t, err)
	assert.Equal(t, a, again)
}

func TestResolve_MergeKeepsOldestCluster(t *testing.T) {
	var merged [][2]string
	r := New(WithIDGenerator(seqIDs()), WithMergeHook(func(s, a string) {
		merged = append(merged, [2]string{s, a})
	}))

	byTitle, err := r.Resolve(KeysFor("openalex", "W1", "Graph Nets", nil)...)
	require.NoError(t, err)
	byDOI, err := r.Resolve(KeysFor("s2", "abc", "Other title", strPtr("10.1/abc"))...)
	require.NoError(t, err)
	require.NotEqual(t, byTitle, byDOI)

	// Title matches cluster P1, DOI matches cluster P2.
	got, err := r.Resolve(KeysFor("arxiv", "2401.0001", "graph nets", strPtr("10.1/abc"))...)
	require.NoError(t, err)

	assert.Equal(t, "P1", got)
	assert.Equal(t, byTitle, got)
	assert.Equal(t, 1, r.Clusters())
	assert.Equal(t, 1, r.Merges())
	assert.Equal(t, [][2]string{{"P1", "P2"}}, merged)

	// The absorbed id is an alias of the survivor and never resurfaces.
	assert.Equal(t, "P1", r.Canonical("P2"))
	again, err := r.Resolve(KeysFor("s2", "abc", "", nil)...)
	require.NoError(t, err)
	assert.Equal(t, "P1", again)
	assert.Len(t, r.Keys("P2"), 6)
}

func TestResolve_ChainedMergesCompressPaths(t *testing.T) {
	r := New(WithIDGenerator(seqIDs()))
	for i := 1; i <= 5; i++ {
		_, err := r.Resolve(KeysFor("p", fmt.Sprintf("id%d", i), "", nil)...)
		require.NoError(t, err)
	}
	// Merge 5 into 4, then 4 into 3, ... so the forest starts as a chain.
	for i := 5; i > 1; i-- {
		got, err := r.Resolve(
			Key{Kind: KindProviderID, Value: fmt.Sprintf("p:id%d", i-1)},
			Key{Kind: KindProviderID, Value: fmt.Sprintf("p:id%d", i)},
		)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("P%d", i-1), got)
	}
	for i := 1; i <= 5; i++ {
		assert.Equal(t, "P1", r.Canonical(fmt.Sprintf("P%d", i)))
	}
	assert.Equal(t, 1, r.Clusters())
	assert.Equal(t, 4, r.Merges())
}

func TestLookupDoesNotRegister(t *testing.T) {
	r := New(WithIDGenerator(seqIDs()))
	_, ok := r.Lookup(KeysFor("openalex", "W1", "", nil)...)
	assert.False(t, ok)
	assert.Equal(t, 0, r.Clusters())

	id, err := r.Resolve(KeysFor("openalex", "W1", "", nil)...)
	require.NoError(t, err)
	got, ok := r.Lookup(KeysFor("openalex", "W1", "Unseen title", nil)...)
	assert.True(t, ok)
	assert.Equal(t, id, got)
	assert.Len(t, r.Keys(id), 1)
}

func TestCanonicalUnknownID(t *testing.T) {
	assert.Equal(t, "nope", New().Canonical("nope"))
}

func TestResolve_ConcurrentSameEntityAllocatesOnce(t *testing.T) {
	r := New()
	ids := make([]string, 50)
	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := r.Resolve(KeysFor("openalex", "W42", "Graph Nets", nil)...)
			if err == nil {
				ids[i] = id
			}
		}(i)
	}
	wg.Wait()
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.Equal(t, 1, r.Clusters())
}
