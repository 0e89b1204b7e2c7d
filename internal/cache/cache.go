// Package cache persists scan results in a local SQLite database so repeat
// runs can skip remote traffic for items that have not changed.
package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mordilloSan/go-logger/logger"
	_ "modernc.org/sqlite"

	"github.com/damacus/drivescope/internal/models"
)

// SchemaVersion is the current on-disk schema. Older databases are
// migrated in place on open: version 2 added the scan summary columns,
// version 3 added per-row lifecycle columns (created_at, expires_at,
// size_bytes).
const SchemaVersion = 3

// DefaultStructureName keys the whole-account snapshot.
const DefaultStructureName = "full_drive"

// Options configures a cache instance.
type Options struct {
	Enabled      bool
	TTL          time.Duration
	MaxSizeMB    int64
	DatabasePath string
}

// Cache stores items and structures in SQLite. A disabled cache is a
// valid value whose methods all no-op. Safe for concurrent use; every
// operation runs as its own statement or transaction on one *sql.DB pool.
//
// Each row carries its own expires_at, computed from the TTL at write
// time, so changing the TTL configuration never re-ages existing rows.
type Cache struct {
	db      *sql.DB
	enabled bool
	ttl     time.Duration
	maxMB   int64
	path    string
}

// New opens (or creates) the cache database and runs schema migration.
// With Enabled false it returns immediately without touching the disk.
func New(opts Options) (*Cache, error) {
	if !opts.Enabled {
		logger.Debugf("cache disabled, operating without persistence")
		return &Cache{enabled: false}, nil
	}

	if dir := filepath.Dir(opts.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", opts.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	c := &Cache{
		db:      db,
		enabled: true,
		ttl:     opts.TTL,
		maxMB:   opts.MaxSizeMB,
		path:    opts.DatabasePath,
	}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	logger.Infof("cache ready at %s (ttl %s)", opts.DatabasePath, opts.TTL)
	return c, nil
}

// Enabled reports whether the cache persists anything.
func (c *Cache) Enabled() bool {
	return c.enabled
}

// Close releases the database handle.
func (c *Cache) Close() error {
	if !c.enabled {
		return nil
	}
	return c.db.Close()
}

func (c *Cache) migrate() error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS drive_items (
			item_id TEXT PRIMARY KEY,
			item_data TEXT NOT NULL,
			calculated_size INTEGER,
			created_at TIMESTAMP NOT NULL,
			last_updated TIMESTAMP NOT NULL,
			expires_at TIMESTAMP NOT NULL,
			size_bytes INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS drive_structures (
			structure_name TEXT PRIMARY KEY,
			structure_data TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			last_updated TIMESTAMP NOT NULL,
			expires_at TIMESTAMP NOT NULL,
			size_bytes INTEGER NOT NULL DEFAULT 0,
			scan_complete INTEGER NOT NULL DEFAULT 0,
			total_files INTEGER NOT NULL DEFAULT 0,
			total_folders INTEGER NOT NULL DEFAULT 0,
			scan_errors INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS cache_metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	version, err := schemaVersion(tx)
	if err != nil {
		return err
	}
	if version < 2 {
		if err := migrateV1toV2(tx); err != nil {
			return err
		}
	}
	if version < 3 {
		if err := migrateV2toV3(tx, c.ttl); err != nil {
			return err
		}
	}
	if version < SchemaVersion {
		logger.Infof("cache schema migrated from version %d to %d", version, SchemaVersion)
	}

	// The expiry indexes can only be created once every path has the
	// expires_at column.
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_drive_items_expires ON drive_items(expires_at)`,
		`CREATE INDEX IF NOT EXISTS idx_drive_structures_expires ON drive_structures(expires_at)`,
	}
	for _, stmt := range indexes {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	if _, err := tx.Exec(
		`INSERT INTO cache_metadata (key, value) VALUES ('schema_version', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		fmt.Sprintf("%d", SchemaVersion),
	); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

func schemaVersion(tx *sql.Tx) (int, error) {
	var raw string
	err := tx.QueryRow(`SELECT value FROM cache_metadata WHERE key = 'schema_version'`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		// Fresh database; tables were just created at the current version.
		return SchemaVersion, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	var version int
	if _, err := fmt.Sscanf(raw, "%d", &version); err != nil {
		return 0, fmt.Errorf("parse schema version %q: %w", raw, err)
	}
	return version, nil
}

func tableColumns(tx *sql.Tx, table string) (map[string]bool, error) {
	existing := map[string]bool{}
	rows, err := tx.Query(fmt.Sprintf(`SELECT name FROM pragma_table_info('%s')`, table))
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("inspect %s: %w", table, err)
		}
		existing[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("inspect %s: %w", table, err)
	}
	return existing, nil
}

// migrateV1toV2 adds the scan summary columns to drive_structures. Columns
// that already exist are skipped so a partially applied migration can be
// rerun safely.
func migrateV1toV2(tx *sql.Tx) error {
	existing, err := tableColumns(tx, "drive_structures")
	if err != nil {
		return err
	}

	additions := map[string]string{
		"scan_complete": "INTEGER NOT NULL DEFAULT 0",
		"total_files":   "INTEGER NOT NULL DEFAULT 0",
		"total_folders": "INTEGER NOT NULL DEFAULT 0",
		"scan_errors":   "INTEGER NOT NULL DEFAULT 0",
	}
	for column, definition := range additions {
		if existing[column] {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE drive_structures ADD COLUMN %s %s", column, definition)
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("add column %s: %w", column, err)
		}
	}
	return nil
}

// migrateV2toV3 adds the per-row lifecycle columns to both payload tables.
// Pre-existing rows get created_at from last_updated, size_bytes from the
// stored payload, and a fresh expiry window so the migration itself never
// invalidates anything.
func migrateV2toV3(tx *sql.Tx, ttl time.Duration) error {
	tables := []struct {
		name    string
		payload string
	}{
		{"drive_items", "item_data"},
		{"drive_structures", "structure_data"},
	}
	expires := time.Now().UTC().Add(ttl)

	for _, table := range tables {
		existing, err := tableColumns(tx, table.name)
		if err != nil {
			return err
		}
		for _, column := range []string{"created_at", "expires_at", "size_bytes"} {
			if existing[column] {
				continue
			}
			definition := "TIMESTAMP"
			if column == "size_bytes" {
				definition = "INTEGER"
			}
			stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table.name, column, definition)
			if _, err := tx.Exec(stmt); err != nil {
				return fmt.Errorf("add column %s: %w", column, err)
			}
		}

		backfills := []struct {
			stmt string
			args []any
		}{
			{fmt.Sprintf(`UPDATE %s SET created_at = last_updated WHERE created_at IS NULL`, table.name), nil},
			{fmt.Sprintf(`UPDATE %s SET expires_at = ? WHERE expires_at IS NULL`, table.name), []any{expires}},
			{fmt.Sprintf(`UPDATE %s SET size_bytes = length(%s) WHERE size_bytes IS NULL`, table.name, table.payload), nil},
		}
		for _, b := range backfills {
			if _, err := tx.Exec(b.stmt, b.args...); err != nil {
				return fmt.Errorf("backfill %s: %w", table.name, err)
			}
		}
	}
	return nil
}

// PutItem stores one item and reports whether the write landed. Write
// failures are logged and swallowed; a broken cache must not fail a scan.
func (c *Cache) PutItem(item *models.Item) bool {
	if !c.enabled {
		return false
	}
	payload, err := json.Marshal(item)
	if err != nil {
		logger.Warnf("cache: marshal item %s: %v", item.ID, err)
		return false
	}
	var calcSize any
	if item.CalculatedSize != nil {
		calcSize = *item.CalculatedSize
	}
	now := time.Now().UTC()
	_, err = c.db.Exec(
		`INSERT INTO drive_items (item_id, item_data, calculated_size, created_at, last_updated, expires_at, size_bytes)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(item_id) DO UPDATE SET
			item_data = excluded.item_data,
			calculated_size = excluded.calculated_size,
			last_updated = excluded.last_updated,
			expires_at = excluded.expires_at,
			size_bytes = excluded.size_bytes`,
		item.ID, string(payload), calcSize, now, now, now.Add(c.ttl), len(payload),
	)
	if err != nil {
		logger.Warnf("cache: store item %s: %v", item.ID, err)
		return false
	}
	return true
}

// GetItem returns the cached item, or nil on a miss. Rows past their
// expiry are deleted on read and reported as misses.
func (c *Cache) GetItem(id string) *models.Item {
	if !c.enabled {
		return nil
	}
	var payload string
	var expires time.Time
	err := c.db.QueryRow(
		`SELECT item_data, expires_at FROM drive_items WHERE item_id = ?`, id,
	).Scan(&payload, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		logger.Warnf("cache: read item %s: %v", id, err)
		return nil
	}
	if c.expired(expires) {
		if _, err := c.db.Exec(`DELETE FROM drive_items WHERE item_id = ?`, id); err != nil {
			logger.Warnf("cache: evict item %s: %v", id, err)
		}
		return nil
	}
	var item models.Item
	if err := json.Unmarshal([]byte(payload), &item); err != nil {
		logger.Warnf("cache: decode item %s: %v", id, err)
		return nil
	}
	return &item
}

// PutStructure stores a named snapshot with its queryable scan summary.
func (c *Cache) PutStructure(name string, structure *models.Structure) {
	if !c.enabled {
		return
	}
	payload, err := json.Marshal(structure)
	if err != nil {
		logger.Warnf("cache: marshal structure %s: %v", name, err)
		return
	}
	now := time.Now().UTC()
	_, err = c.db.Exec(
		`INSERT INTO drive_structures
			(structure_name, structure_data, created_at, last_updated, expires_at, size_bytes,
			 scan_complete, total_files, total_folders, scan_errors)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(structure_name) DO UPDATE SET
			structure_data = excluded.structure_data,
			last_updated = excluded.last_updated,
			expires_at = excluded.expires_at,
			size_bytes = excluded.size_bytes,
			scan_complete = excluded.scan_complete,
			total_files = excluded.total_files,
			total_folders = excluded.total_folders,
			scan_errors = excluded.scan_errors`,
		name, string(payload), now, now, now.Add(c.ttl), len(payload),
		boolToInt(structure.ScanComplete), structure.TotalFiles, structure.TotalFolders, structure.ScanErrors,
	)
	if err != nil {
		logger.Warnf("cache: store structure %s: %v", name, err)
	}
}

// GetStructure returns the named snapshot with its hierarchy rebuilt, or
// nil on a miss. Expired snapshots are deleted on read.
func (c *Cache) GetStructure(name string) *models.Structure {
	if !c.enabled {
		return nil
	}
	var payload string
	var expires time.Time
	err := c.db.QueryRow(
		`SELECT structure_data, expires_at FROM drive_structures WHERE structure_name = ?`, name,
	).Scan(&payload, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		logger.Warnf("cache: read structure %s: %v", name, err)
		return nil
	}
	if c.expired(expires) {
		if _, err := c.db.Exec(`DELETE FROM drive_structures WHERE structure_name = ?`, name); err != nil {
			logger.Warnf("cache: evict structure %s: %v", name, err)
		}
		return nil
	}
	var structure models.Structure
	if err := json.Unmarshal([]byte(payload), &structure); err != nil {
		logger.Warnf("cache: decode structure %s: %v", name, err)
		return nil
	}
	structure.BuildHierarchy()
	return &structure
}

// InvalidateItem removes one item so the next aggregation recomputes it,
// and reports whether a row was actually deleted.
func (c *Cache) InvalidateItem(id string) bool {
	if !c.enabled {
		return false
	}
	res, err := c.db.Exec(`DELETE FROM drive_items WHERE item_id = ?`, id)
	if err != nil {
		logger.Warnf("cache: invalidate item %s: %v", id, err)
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}

// ClearExpired deletes all rows past their expiry and returns how many
// were removed.
func (c *Cache) ClearExpired() int64 {
	if !c.enabled {
		return 0
	}
	now := time.Now().UTC()
	var removed int64
	for _, table := range []string{"drive_items", "drive_structures"} {
		res, err := c.db.Exec(fmt.Sprintf("DELETE FROM %s WHERE expires_at < ?", table), now)
		if err != nil {
			logger.Warnf("cache: clear expired from %s: %v", table, err)
			continue
		}
		n, _ := res.RowsAffected()
		removed += n
	}
	if removed > 0 {
		logger.Infof("cache: cleared %d expired entries", removed)
	}
	return removed
}

// ClearAll empties every table.
func (c *Cache) ClearAll() {
	if !c.enabled {
		return
	}
	for _, table := range []string{"drive_items", "drive_structures"} {
		if _, err := c.db.Exec("DELETE FROM " + table); err != nil {
			logger.Warnf("cache: clear %s: %v", table, err)
		}
	}
	logger.Infof("cache: cleared all entries")
}

// Stats reports row counts, expiry state, payload and database sizes, and
// the stored schema version.
type Stats struct {
	Enabled       bool    `json:"enabled"`
	ItemCount     int64   `json:"item_count"`
	StructCount   int64   `json:"structure_count"`
	ExpiredCount  int64   `json:"expired_count"`
	TotalBytes    int64   `json:"total_bytes"`
	DatabaseBytes int64   `json:"database_bytes"`
	DatabasePath  string  `json:"database_path,omitempty"`
	SchemaVersion int     `json:"schema_version"`
	TTLHours      float64 `json:"ttl_hours"`
}

// Stats returns current cache statistics.
func (c *Cache) Stats() Stats {
	if !c.enabled {
		return Stats{Enabled: false}
	}
	s := Stats{
		Enabled:       true,
		DatabasePath:  c.path,
		SchemaVersion: SchemaVersion,
		TTLHours:      c.ttl.Hours(),
	}
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM drive_items`).Scan(&s.ItemCount); err != nil {
		logger.Warnf("cache: count items: %v", err)
	}
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM drive_structures`).Scan(&s.StructCount); err != nil {
		logger.Warnf("cache: count structures: %v", err)
	}
	now := time.Now().UTC()
	for _, table := range []string{"drive_items", "drive_structures"} {
		var expired, bytes int64
		query := fmt.Sprintf(
			`SELECT COUNT(CASE WHEN expires_at < ? THEN 1 END), COALESCE(SUM(size_bytes), 0) FROM %s`, table)
		if err := c.db.QueryRow(query, now).Scan(&expired, &bytes); err != nil {
			logger.Warnf("cache: summarize %s: %v", table, err)
			continue
		}
		s.ExpiredCount += expired
		s.TotalBytes += bytes
	}
	if info, err := os.Stat(c.path); err == nil {
		s.DatabaseBytes = info.Size()
	}
	return s
}

// Optimize clears expired rows and compacts the database file. The size
// limit is advisory: exceeding it only produces a warning.
func (c *Cache) Optimize() {
	if !c.enabled {
		return
	}
	c.ClearExpired()
	if _, err := c.db.Exec("VACUUM"); err != nil {
		logger.Warnf("cache: vacuum: %v", err)
		return
	}
	if info, err := os.Stat(c.path); err == nil {
		sizeMB := info.Size() / (1024 * 1024)
		if c.maxMB > 0 && sizeMB > c.maxMB {
			logger.Warnf("cache: database is %d MB, above the configured %d MB limit", sizeMB, c.maxMB)
		}
	}
	logger.Infof("cache: optimized")
}

// expired treats a zero TTL as "never expires".
func (c *Cache) expired(expires time.Time) bool {
	return c.ttl > 0 && time.Now().After(expires)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
