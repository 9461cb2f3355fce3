package func_

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
	text := "() main() { return (); }"
	tgt := target.Target{
		ID:       0,
		Path:     "test.fc",
		FileHash: target.Digest([]byte(text)),
		Text:     text,
		Language: target.FunC,
	}
	require.NotPanics(t, func() {
		_ = e.ApplyAll(tgt)
	})
}
