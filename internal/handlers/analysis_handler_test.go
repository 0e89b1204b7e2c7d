package handlers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mordilloSan/go-logger/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damacus/drivescope/internal/cache"
	"github.com/damacus/drivescope/internal/models"
)

func TestMain(m *testing.M) {
	logger.Init(logger.Config{Levels: logger.AllLevels()})
	os.Exit(m.Run())
}

func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	c, err := cache.New(cache.Options{
		Enabled:      true,
		TTL:          time.Hour,
		DatabasePath: filepath.Join(t.TempDir(), "cache.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func testStructure() *models.Structure {
	s := models.NewStructure()
	s.AddItem(&models.Item{ID: "root", Name: "My Drive", Type: models.TypeFolder})
	s.AddItem(&models.Item{ID: "f1", Name: "a.bin", Type: models.TypeFile, Size: 10, ParentIDs: []string{"root"}})
	s.BuildHierarchy()
	s.ScanComplete = true
	return s
}

func get(h echo.HandlerFunc, target string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	_ = h(e.NewContext(req, rec))
	return rec
}

func TestLargestRejectsBadLimit(t *testing.T) {
	snapshot := NewSnapshot(newTestCache(t))
	snapshot.Set(testStructure())
	h := NewAnalysisHandler(snapshot)

	assert.Equal(t, http.StatusBadRequest, get(h.Largest, "/api/analysis/largest?limit=abc").Code)
	assert.Equal(t, http.StatusBadRequest, get(h.Largest, "/api/analysis/largest?limit=-1").Code)
	assert.Equal(t, http.StatusOK, get(h.Largest, "/api/analysis/largest?limit=5").Code)
}

func TestAnalysisWithoutSnapshotIs404(t *testing.T) {
	h := NewAnalysisHandler(NewSnapshot(newTestCache(t)))

	assert.Equal(t, http.StatusNotFound, get(h.StructureStats, "/api/structure/stats").Code)
	assert.Equal(t, http.StatusNotFound, get(h.Distribution, "/api/analysis/distribution").Code)
}

func TestSnapshotFallsBackToCachedStructure(t *testing.T) {
	c := newTestCache(t)
	c.PutStructure(cache.DefaultStructureName, testStructure())

	// A fresh process with an empty in-memory snapshot still serves the
	// persisted structure.
	h := NewAnalysisHandler(NewSnapshot(c))
	rec := get(h.StructureStats, "/api/structure/stats")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_files":1`)
}
