package tolk

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trailofbits/muton/internal/target"
)

func TestNoDuplicateSlugsInCombinedMutations(t *testing.T) {
	e := New()
	seen := map[string]bool{}
	for _, m := range e.Mutations() {
		require.False(t, seen[m.Slug], "duplicate slug %s", m.Slug)
		seen[m.Slug] = true
	}
}

func TestAllDefinedSlugsHaveDispatchArms(t *testing.T) {
	e := New()
	text := "fun main() { return 0; }"
	tgt := target.Target{
		ID:       0,
		Path:     "test.tolk",
		FileHash: target.Digest([]byte(text)),
		Text:     text,
		Language: target.Tolk,
	}
	require.NotPanics(t, func() {
		_ = e.ApplyAll(tgt)
	})
}
