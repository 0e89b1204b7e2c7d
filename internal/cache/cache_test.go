package cache

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mordilloSan/go-logger/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damacus/drivescope/internal/models"
)

func TestMain(m *testing.M) {
	logger.Init(logger.Config{Levels: logger.AllLevels()})
	os.Exit(m.Run())
}

func newTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	c, err := New(Options{
		Enabled:      true,
		TTL:          ttl,
		MaxSizeMB:    100,
		DatabasePath: filepath.Join(t.TempDir(), "cache.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestItemRoundTrip(t *testing.T) {
	c := newTestCache(t, time.Hour)

	item := &models.Item{
		ID:        "folder-1",
		Name:      "Projects",
		Type:      models.TypeFolder,
		MimeType:  models.MimeTypeFolder,
		ParentIDs: []string{"root"},
	}
	item.SetCalculatedSize(123456)
	item.ScanComplete = true
	item.FileCount = 10
	item.FolderCount = 2

	assert.True(t, c.PutItem(item))

	got := c.GetItem("folder-1")
	require.NotNil(t, got)
	assert.Equal(t, item.Name, got.Name)
	assert.Equal(t, item.Type, got.Type)
	require.NotNil(t, got.CalculatedSize)
	assert.Equal(t, int64(123456), *got.CalculatedSize)
	assert.True(t, got.ScanComplete)
	assert.Equal(t, 10, got.FileCount)

	assert.Nil(t, c.GetItem("no-such-item"))
}

func TestExpiredItemIsEvictedOnRead(t *testing.T) {
	c := newTestCache(t, time.Nanosecond)

	c.PutItem(&models.Item{ID: "old", Name: "old.bin", Type: models.TypeFile})
	time.Sleep(time.Millisecond)

	assert.Nil(t, c.GetItem("old"))

	var count int
	require.NoError(t, c.db.QueryRow(`SELECT COUNT(*) FROM drive_items`).Scan(&count))
	assert.Zero(t, count, "expired row should be deleted on read")
}

func TestStructureRoundTripRebuildsHierarchy(t *testing.T) {
	c := newTestCache(t, time.Hour)

	s := models.NewStructure()
	root := &models.Item{ID: "root", Name: "My Drive", Type: models.TypeFolder}
	child := &models.Item{ID: "f1", Name: "a.bin", Type: models.TypeFile, Size: 100, ParentIDs: []string{"root"}}
	s.AddItem(root)
	s.AddItem(child)
	s.BuildHierarchy()
	s.ScanComplete = true
	s.ScanTimestamp = time.Now().UTC()

	c.PutStructure(DefaultStructureName, s)

	got := c.GetStructure(DefaultStructureName)
	require.NotNil(t, got)
	assert.True(t, got.ScanComplete)
	assert.Equal(t, 1, got.TotalFiles)
	require.Len(t, got.RootFolders, 1)
	require.Len(t, got.RootFolders[0].Children, 1)
	assert.Equal(t, "My Drive/a.bin", got.RootFolders[0].Children[0].Path)

	assert.Nil(t, c.GetStructure("other"))
}

func TestInvalidateAndClear(t *testing.T) {
	c := newTestCache(t, time.Hour)

	c.PutItem(&models.Item{ID: "a", Type: models.TypeFile})
	c.PutItem(&models.Item{ID: "b", Type: models.TypeFile})

	assert.True(t, c.InvalidateItem("a"), "a row was deleted")
	assert.False(t, c.InvalidateItem("a"), "nothing left to delete")
	assert.Nil(t, c.GetItem("a"))
	assert.NotNil(t, c.GetItem("b"))

	c.ClearAll()
	assert.Nil(t, c.GetItem("b"))
	assert.Zero(t, c.Stats().ItemCount)
}

func TestClearExpiredCountsRows(t *testing.T) {
	c := newTestCache(t, time.Nanosecond)

	c.PutItem(&models.Item{ID: "a", Type: models.TypeFile})
	c.PutItem(&models.Item{ID: "b", Type: models.TypeFile})
	time.Sleep(time.Millisecond)

	assert.Equal(t, int64(2), c.ClearExpired())
	assert.Zero(t, c.ClearExpired())
}

func TestDisabledCacheIsNoOp(t *testing.T) {
	c, err := New(Options{Enabled: false})
	require.NoError(t, err)
	defer c.Close()

	assert.False(t, c.Enabled())
	assert.False(t, c.PutItem(&models.Item{ID: "x", Type: models.TypeFile}))
	assert.Nil(t, c.GetItem("x"))
	c.PutStructure(DefaultStructureName, models.NewStructure())
	assert.Nil(t, c.GetStructure(DefaultStructureName))
	assert.False(t, c.InvalidateItem("x"))
	c.ClearAll()
	c.Optimize()
	assert.Zero(t, c.ClearExpired())
	assert.False(t, c.Stats().Enabled)
}

func TestStatsAndOptimize(t *testing.T) {
	c := newTestCache(t, time.Hour)

	c.PutItem(&models.Item{ID: "a", Type: models.TypeFile})
	c.PutStructure(DefaultStructureName, models.NewStructure())

	s := c.Stats()
	assert.True(t, s.Enabled)
	assert.Equal(t, int64(1), s.ItemCount)
	assert.Equal(t, int64(1), s.StructCount)
	assert.Zero(t, s.ExpiredCount)
	assert.Positive(t, s.TotalBytes, "payload bytes are tracked per row")
	assert.Equal(t, SchemaVersion, s.SchemaVersion)
	assert.Positive(t, s.DatabaseBytes)

	c.Optimize()
	assert.NotNil(t, c.GetItem("a"), "optimize keeps fresh rows")
}

func TestStatsCountExpiredRows(t *testing.T) {
	c := newTestCache(t, time.Nanosecond)

	c.PutItem(&models.Item{ID: "a", Type: models.TypeFile})
	time.Sleep(time.Millisecond)

	s := c.Stats()
	assert.Equal(t, int64(1), s.ItemCount)
	assert.Equal(t, int64(1), s.ExpiredCount)
}

func TestExpiryIsFixedAtWriteTime(t *testing.T) {
	c := newTestCache(t, time.Hour)

	c.PutItem(&models.Item{ID: "a", Type: models.TypeFile})

	// Shrinking the TTL afterwards must not re-age the stored row; its
	// expiry was stamped when it was written.
	c.ttl = time.Nanosecond
	assert.NotNil(t, c.GetItem("a"))
}

func TestMigrationFromV1PreservesRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	// Lay down a version 1 database by hand.
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	stmts := []string{
		`CREATE TABLE drive_items (
			item_id TEXT PRIMARY KEY,
			item_data TEXT NOT NULL,
			calculated_size INTEGER,
			last_updated TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE drive_structures (
			structure_name TEXT PRIMARY KEY,
			structure_data TEXT NOT NULL,
			last_updated TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE cache_metadata (key TEXT PRIMARY KEY, value TEXT NOT NULL)`,
		`INSERT INTO cache_metadata (key, value) VALUES ('schema_version', '1')`,
	}
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	_, err = db.Exec(
		`INSERT INTO drive_items (item_id, item_data, last_updated) VALUES (?, ?, ?)`,
		"kept", `{"id":"kept","name":"kept.bin","type":"file","size":7}`, time.Now().UTC(),
	)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	c, err := New(Options{Enabled: true, TTL: time.Hour, DatabasePath: path})
	require.NoError(t, err)
	defer c.Close()

	got := c.GetItem("kept")
	require.NotNil(t, got, "migration must preserve existing rows")
	assert.Equal(t, "kept.bin", got.Name)

	var version string
	require.NoError(t, c.db.QueryRow(
		`SELECT value FROM cache_metadata WHERE key = 'schema_version'`).Scan(&version))
	assert.Equal(t, "3", version)

	// Migrated rows get backfilled lifecycle columns: a fresh expiry
	// window and the payload size.
	stats := c.Stats()
	assert.Zero(t, stats.ExpiredCount, "migration must not expire existing rows")
	assert.Positive(t, stats.TotalBytes)

	// New columns are usable after migration.
	s := models.NewStructure()
	s.ScanComplete = true
	c.PutStructure(DefaultStructureName, s)
	got2 := c.GetStructure(DefaultStructureName)
	require.NotNil(t, got2)
	assert.True(t, got2.ScanComplete)
}
