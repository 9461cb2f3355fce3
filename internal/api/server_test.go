package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trailofbits/muton/internal/api"
	"github.com/trailofbits/muton/internal/store"
	"github.com/trailofbits/muton/internal/target"
)

func newTestServer(t *testing.T) (*api.Server, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "muton.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return api.New(s), s
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestTargetsListsLoaded(t *testing.T) {
	srv, s := newTestServer(t)
	_, err := s.AddTarget(target.Target{Path: "a.fc", FileHash: "h1", Text: "x", Language: target.FunC})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/targets", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var targets []target.Target
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &targets))
	require.Len(t, targets, 1)
	require.Equal(t, "a.fc", targets[0].Path)
}

func TestMutantsRequiresValidTargetID(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mutants?target_id=not-a-number", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOutcomesRequiresTargetID(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/outcomes", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMutantsScopedByTargetID(t *testing.T) {
	srv, s := newTestServer(t)
	id, err := s.AddTarget(target.Target{Path: "a.fc", FileHash: "h1", Text: "x", Language: target.FunC})
	require.NoError(t, err)
	_, _, err = s.AddMutant(target.Mutant{TargetID: id, ByteOffset: 0, LineOffset: 0, OldText: "x", NewText: "y", Slug: "ER"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mutants?target_id="+strconv.FormatInt(id, 10), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var mutants []target.Mutant
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mutants))
	require.Len(t, mutants, 1)
}
