package store_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trailofbits/muton/internal/catalog"
	"github.com/trailofbits/muton/internal/store"
	"github.com/trailofbits/muton/internal/target"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "muton.sqlite")
	s, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleTarget() target.Target {
	text := "() main() { return (); }"
	return target.Target{
		Path:     "a.fc",
		FileHash: target.Digest([]byte(text)),
		Text:     text,
		Language: target.FunC,
	}
}

func TestAddTargetUpsertsByHash(t *testing.T) {
	s := openTestStore(t)
	tg := sampleTarget()

	id1, err := s.AddTarget(tg)
	require.NoError(t, err)

	tg.Path = "moved/a.fc"
	id2, err := s.AddTarget(tg)
	require.NoError(t, err)
	require.Equal(t, id1, id2)

	got, err := s.GetTarget(id1)
	require.NoError(t, err)
	require.Equal(t, "moved/a.fc", got.Path)
}

func TestGetTargetNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetTarget(999)
	require.Error(t, err)
}

func TestAddMutantDedup(t *testing.T) {
	s := openTestStore(t)
	tid, err := s.AddTarget(sampleTarget())
	require.NoError(t, err)

	m := target.Mutant{TargetID: tid, ByteOffset: 3, LineOffset: 0, OldText: "main", NewText: "alt", Slug: "ER"}
	id1, inserted1, err := s.AddMutant(m)
	require.NoError(t, err)
	require.True(t, inserted1)
	require.NotZero(t, id1)

	_, inserted2, err := s.AddMutant(m)
	require.NoError(t, err)
	require.False(t, inserted2)
}

func TestRemoveTargetCascades(t *testing.T) {
	s := openTestStore(t)
	tid, err := s.AddTarget(sampleTarget())
	require.NoError(t, err)

	m := target.Mutant{TargetID: tid, ByteOffset: 3, LineOffset: 0, OldText: "main", NewText: "alt", Slug: "ER"}
	mid, _, err := s.AddMutant(m)
	require.NoError(t, err)
	require.NoError(t, s.AddOutcome(store.Outcome{MutantID: mid, Status: store.Uncaught, RecordedAt: time.Now()}))

	require.NoError(t, s.RemoveTarget(tid))

	mutants, err := s.GetMutants(tid)
	require.NoError(t, err)
	require.Empty(t, mutants)

	_, found, err := s.GetOutcome(mid)
	require.NoError(t, err)
	require.False(t, found)
}

func TestAddOutcomeReplacesByMutantID(t *testing.T) {
	s := openTestStore(t)
	tid, err := s.AddTarget(sampleTarget())
	require.NoError(t, err)
	mid, _, err := s.AddMutant(target.Mutant{TargetID: tid, ByteOffset: 3, LineOffset: 0, OldText: "main", NewText: "alt", Slug: "ER"})
	require.NoError(t, err)

	require.NoError(t, s.AddOutcome(store.Outcome{MutantID: mid, Status: store.Timeout, RecordedAt: time.Now(), DurationMS: 500}))
	o, found, err := s.GetOutcome(mid)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, store.Timeout, o.Status)

	require.NoError(t, s.AddOutcome(store.Outcome{MutantID: mid, Status: store.TestFail, RecordedAt: time.Now(), DurationMS: 42}))
	o, found, err = s.GetOutcome(mid)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, store.TestFail, o.Status)
	require.Equal(t, int64(42), o.DurationMS)
}

func TestGetMutantsToTestUnionsUntestedAndTimeouts(t *testing.T) {
	s := openTestStore(t)
	tid, err := s.AddTarget(sampleTarget())
	require.NoError(t, err)

	m1, _, err := s.AddMutant(target.Mutant{TargetID: tid, ByteOffset: 3, LineOffset: 0, OldText: "main", NewText: "a", Slug: "ER"})
	require.NoError(t, err)
	m2, _, err := s.AddMutant(target.Mutant{TargetID: tid, ByteOffset: 4, LineOffset: 0, OldText: "ain", NewText: "b", Slug: "ER"})
	require.NoError(t, err)
	m3, _, err := s.AddMutant(target.Mutant{TargetID: tid, ByteOffset: 5, LineOffset: 0, OldText: "in", NewText: "c", Slug: "ER"})
	require.NoError(t, err)

	require.NoError(t, s.AddOutcome(store.Outcome{MutantID: m2, Status: store.Timeout, RecordedAt: time.Now()}))
	require.NoError(t, s.AddOutcome(store.Outcome{MutantID: m3, Status: store.TestFail, RecordedAt: time.Now()}))

	mutants, untestedCount, timeoutRetryCount, err := s.GetMutantsToTest(tid)
	require.NoError(t, err)
	require.Equal(t, 1, untestedCount)
	require.Equal(t, 1, timeoutRetryCount)
	require.Len(t, mutants, 2)

	var ids []int64
	for _, m := range mutants {
		ids = append(ids, m.ID)
	}
	require.Contains(t, ids, m1)
	require.Contains(t, ids, m2)
	require.NotContains(t, ids, m3)
}

func TestGetMutantsSortedBySeverity(t *testing.T) {
	s := openTestStore(t)
	tid, err := s.AddTarget(sampleTarget())
	require.NoError(t, err)

	_, _, err = s.AddMutant(target.Mutant{TargetID: tid, ByteOffset: 0, LineOffset: 0, OldText: "a", NewText: "x", Slug: "BL"})
	require.NoError(t, err)
	_, _, err = s.AddMutant(target.Mutant{TargetID: tid, ByteOffset: 1, LineOffset: 0, OldText: "b", NewText: "y", Slug: "ER"})
	require.NoError(t, err)

	severityOf := func(slug string) (catalog.Severity, bool) {
		if slug == "ER" {
			return catalog.High, true
		}
		return catalog.Low, true
	}

	mutants, err := s.GetMutantsSortedBySeverity(tid, severityOf)
	require.NoError(t, err)
	require.Len(t, mutants, 2)
	require.Equal(t, "ER", mutants[0].Slug)
	require.Equal(t, "BL", mutants[1].Slug)
}
