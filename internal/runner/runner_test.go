package runner_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trailofbits/muton/internal/catalog"
	"github.com/trailofbits/muton/internal/lang"
	"github.com/trailofbits/muton/internal/runner"
	"github.com/trailofbits/muton/internal/store"
	"github.com/trailofbits/muton/internal/target"
)

type fakeEngine struct {
	mutations []catalog.Mutation
}

func (f *fakeEngine) Name() string                             { return "FunC" }
func (f *fakeEngine) Extensions() []string                     { return []string{"fc"} }
func (f *fakeEngine) Mutations() []catalog.Mutation             { return f.mutations }
func (f *fakeEngine) ApplyAll(t target.Target) []target.Mutant { return nil }

func newTestRunner(t *testing.T) (*runner.Runner, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "muton.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	reg := lang.NewRegistry()
	reg.Register(target.FunC, &fakeEngine{mutations: []catalog.Mutation{
		{Slug: "ER", Description: "expression removal", Severity: catalog.High},
		{Slug: "BL", Description: "boolean literal swap", Severity: catalog.Low},
	}})

	return runner.New(s, reg), s
}

func writeTarget(t *testing.T, s *store.Store, dir, name, text string) target.Target {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))

	tg := target.Target{
		Path:     path,
		FileHash: target.Digest([]byte(text)),
		Text:     text,
		Language: target.FunC,
	}
	id, err := s.AddTarget(tg)
	require.NoError(t, err)
	tg.ID = id
	return tg
}

func TestBaselineTooShortIsInvalidInput(t *testing.T) {
	r, s := newTestRunner(t)
	dir := t.TempDir()
	tg := writeTarget(t, s, dir, "a.fc", "() main() { return (); }")

	err := r.RunGroup(context.Background(), runner.Group{
		Command:     "sleep 1",
		UserTimeout: 1 * time.Millisecond,
		Targets:     []target.Target{tg},
	}, runner.Options{})
	require.Error(t, err)
}

func TestSeverityPruningSkipsLowOnSameLineAsUncaughtHigh(t *testing.T) {
	r, s := newTestRunner(t)
	dir := t.TempDir()
	text := "main line\n"
	tg := writeTarget(t, s, dir, "a.fc", text)

	highID, _, err := s.AddMutant(target.Mutant{TargetID: tg.ID, ByteOffset: 0, LineOffset: 0, OldText: "main", NewText: "alt", Slug: "ER"})
	require.NoError(t, err)
	lowID, _, err := s.AddMutant(target.Mutant{TargetID: tg.ID, ByteOffset: 5, LineOffset: 0, OldText: "line", NewText: "ln", Slug: "BL"})
	require.NoError(t, err)

	// "true" always exits 0 regardless of mutated content: every mutant is Uncaught.
	err = r.RunGroup(context.Background(), runner.Group{
		Command: "true",
		Targets: []target.Target{tg},
	}, runner.Options{})
	require.NoError(t, err)

	highOutcome, found, err := s.GetOutcome(highID)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, store.Uncaught, highOutcome.Status)

	lowOutcome, found, err := s.GetOutcome(lowID)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, store.Skipped, lowOutcome.Status)

	restored, err := os.ReadFile(filepath.Join(dir, "a.fc"))
	require.NoError(t, err)
	require.Equal(t, text, string(restored))
}

func TestCaughtMutantRestoresFileAndRecordsTestFail(t *testing.T) {
	r, s := newTestRunner(t)
	dir := t.TempDir()
	text := "() main() { return (); }"
	tg := writeTarget(t, s, dir, "a.fc", text)

	mid, _, err := s.AddMutant(target.Mutant{TargetID: tg.ID, ByteOffset: 3, LineOffset: 0, OldText: "main", NewText: "alt", Slug: "ER"})
	require.NoError(t, err)

	// Passes on the original source (baseline) and fails once "main" is mutated away.
	err = r.RunGroup(context.Background(), runner.Group{
		Command: "grep -q main '" + tg.Path + "'",
		Targets: []target.Target{tg},
	}, runner.Options{})
	require.NoError(t, err)

	o, found, err := s.GetOutcome(mid)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, store.TestFail, o.Status)

	restored, err := os.ReadFile(filepath.Join(dir, "a.fc"))
	require.NoError(t, err)
	require.Equal(t, text, string(restored))
}

func TestCancellationProducesNoOutcomeAndRestoresFile(t *testing.T) {
	r, s := newTestRunner(t)
	dir := t.TempDir()
	text := "() main() { return (); }"
	tg := writeTarget(t, s, dir, "a.fc", text)

	mid, _, err := s.AddMutant(target.Mutant{TargetID: tg.ID, ByteOffset: 3, LineOffset: 0, OldText: "main", NewText: "alt", Slug: "ER"})
	require.NoError(t, err)

	go func() {
		time.Sleep(50 * time.Millisecond)
		r.Cancelled.Store(true)
	}()

	err = r.RunGroup(context.Background(), runner.Group{
		Command:     "sleep 1",
		UserTimeout: 10 * time.Second,
		Targets:     []target.Target{tg},
	}, runner.Options{})
	require.NoError(t, err)

	_, found, err := s.GetOutcome(mid)
	require.NoError(t, err)
	require.False(t, found)

	restored, err := os.ReadFile(filepath.Join(dir, "a.fc"))
	require.NoError(t, err)
	require.Equal(t, text, string(restored))
}
