package target_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trailofbits/muton/internal/target"
)

type fakeStore struct {
	next    int64
	byHash  map[target.Hash]int64
	targets []target.Target
}

func newFakeStore() *fakeStore {
	return &fakeStore{byHash: map[target.Hash]int64{}}
}

func (s *fakeStore) AddTarget(t target.Target) (int64, error) {
	if id, ok := s.byHash[t.FileHash]; ok {
		return id, nil
	}
	s.next++
	s.byHash[t.FileHash] = s.next
	s.targets = append(s.targets, t)
	return s.next, nil
}

func TestIsExcludedSubstringPattern(t *testing.T) {
	require.True(t, target.IsExcluded("/repo/vendor/foo.fc", []string{"vendor"}))
	require.False(t, target.IsExcluded("/repo/src/foo.fc", []string{"vendor"}))
}

func TestIsExcludedGlobPattern(t *testing.T) {
	require.True(t, target.IsExcluded("/repo/build/out.tact", []string{"*/build/*"}))
	require.False(t, target.IsExcluded("/repo/src/out.tact", []string{"*/build/*"}))
}

func TestLoadSingleFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.fc")
	require.NoError(t, os.WriteFile(p, []byte("() main() { return (); }"), 0o644))

	store := newFakeStore()
	loader := target.NewLoader(store, nil)
	targets, err := loader.Load(p)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	require.Equal(t, target.FunC, targets[0].Language)
	require.NotEmpty(t, targets[0].FileHash)
}

func TestLoadDirectorySkipsUnrecognizedAndIgnored(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.fc"), []byte("() main() {}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.tact"), []byte("contract C {}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("docs"), 0o644))

	ignored := filepath.Join(dir, "vendor")
	require.NoError(t, os.MkdirAll(ignored, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(ignored, "c.tolk"), []byte("fun main() {}"), 0o644))

	store := newFakeStore()
	loader := target.NewLoader(store, []string{"vendor"})
	targets, err := loader.Load(dir)
	require.NoError(t, err)
	require.Len(t, targets, 2)
}

func TestLoadDedupesByContentHash(t *testing.T) {
	dir := t.TempDir()
	content := []byte("() main() { return (); }")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.fc"), content, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.fc"), content, 0o644))

	store := newFakeStore()
	loader := target.NewLoader(store, nil)
	targets, err := loader.Load(dir)
	require.NoError(t, err)
	require.Len(t, targets, 2)
	require.Equal(t, targets[0].ID, targets[1].ID)
}

func TestLoadMissingPathErrors(t *testing.T) {
	store := newFakeStore()
	loader := target.NewLoader(store, nil)
	_, err := loader.Load(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
}
