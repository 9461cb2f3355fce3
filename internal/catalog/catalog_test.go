package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeUniqueSlugs(t *testing.T) {
	merged := Merge([]Mutation{
		{Slug: "RZ", Description: "repeat to zero", Severity: Low},
	})
	assert.Len(t, merged, len(Common)+1)

	seen := map[string]bool{}
	for _, m := range merged {
		require.False(t, seen[m.Slug], "duplicate slug %s", m.Slug)
		seen[m.Slug] = true
	}
}

func TestMergeDuplicatePanics(t *testing.T) {
	assert.Panics(t, func() {
		Merge([]Mutation{{Slug: "ER", Description: "dup", Severity: High}})
	})
}

func TestBySlug(t *testing.T) {
	m, ok := BySlug(Common, "ER")
	require.True(t, ok)
	assert.Equal(t, High, m.Severity)

	_, ok = BySlug(Common, "NOPE")
	assert.False(t, ok)
}
