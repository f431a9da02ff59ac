package db

import (
	"database/sql"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// setupMigrationTestDB creates a test database without running migrations
func setupMigrationTestDB(t *testing.T) *DB {
	t.Helper()
	fname := filepath.Join(t.TempDir(), "migration_test.db")

	// Open database directly without applying the embedded schema
	sqlDB, err := sql.Open("sqlite", fname)
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	return &DB{sqlDB}
}

// setupTestMigrations creates a temporary directory with test migration files
// and returns it as an fs.FS
func setupTestMigrations(t *testing.T) fs.FS {
	t.Helper()
	tmpDir := filepath.Join(t.TempDir(), "migrations")
	if err := os.MkdirAll(tmpDir, 0755); err != nil {
		t.Fatalf("failed to create temp migrations dir: %v", err)
	}

	// Create test migration files
	migrations := map[string]string{
		"000001_create_fixture_laps.up.sql": `
			CREATE TABLE IF NOT EXISTS fixture_laps (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				driver TEXT NOT NULL
			);
		`,
		"000001_create_fixture_laps.down.sql": `
			DROP TABLE IF EXISTS fixture_laps;
		`,
		"000002_add_lap_time.up.sql": `
			ALTER TABLE fixture_laps ADD COLUMN lap_time_ms INTEGER;
		`,
		"000002_add_lap_time.down.sql": `
			-- SQLite doesn't support DROP COLUMN directly, so we need to recreate the table
			CREATE TABLE fixture_laps_new (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				driver TEXT NOT NULL
			);
			INSERT INTO fixture_laps_new (id, driver) SELECT id, driver FROM fixture_laps;
			DROP TABLE fixture_laps;
			ALTER TABLE fixture_laps_new RENAME TO fixture_laps;
		`,
	}

	for filename, content := range migrations {
		path := filepath.Join(tmpDir, filename)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write migration file %s: %v", filename, err)
		}
	}

	return os.DirFS(tmpDir)
}

func TestMigrateUp(t *testing.T) {
	db := setupMigrationTestDB(t)
	migrationsFS := setupTestMigrations(t)

	// Run migrations up
	err := db.MigrateUp(migrationsFS)
	if err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}

	// Verify migration version
	version, dirty, err := db.MigrateVersion(migrationsFS)
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}

	if version != 2 {
		t.Errorf("expected version 2, got %d", version)
	}

	if dirty {
		t.Error("database should not be dirty after successful migration")
	}

	// Verify fixture_laps exists and has correct schema
	var tableExists bool
	err = db.QueryRow(`
		SELECT COUNT(*) > 0
		FROM sqlite_master
		WHERE type='table' AND name='fixture_laps'
	`).Scan(&tableExists)
	if err != nil {
		t.Fatalf("failed to check fixture_laps: %v", err)
	}

	if !tableExists {
		t.Error("fixture_laps should exist after migration")
	}

	// Verify lap_time_ms column exists (from second migration)
	var hasLapTime bool
	err = db.QueryRow(`
		SELECT COUNT(*) > 0
		FROM pragma_table_info('fixture_laps')
		WHERE name='lap_time_ms'
	`).Scan(&hasLapTime)
	if err != nil {
		t.Fatalf("failed to check lap_time_ms column: %v", err)
	}

	if !hasLapTime {
		t.Error("lap_time_ms column should exist after second migration")
	}
}

func TestMigrateUp_Idempotency(t *testing.T) {
	db := setupMigrationTestDB(t)
	migrationsFS := setupTestMigrations(t)

	// Run migrations up twice
	err := db.MigrateUp(migrationsFS)
	if err != nil {
		t.Fatalf("first MigrateUp failed: %v", err)
	}

	err = db.MigrateUp(migrationsFS)
	if err != nil {
		t.Fatalf("second MigrateUp failed: %v", err)
	}

	version, _, err := db.MigrateVersion(migrationsFS)
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 2 {
		t.Errorf("expected version 2 after repeated up, got %d", version)
	}
}

func TestMigrateDown(t *testing.T) {
	db := setupMigrationTestDB(t)
	migrationsFS := setupTestMigrations(t)

	if err := db.MigrateUp(migrationsFS); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}

	// Roll back the second migration
	if err := db.MigrateDown(migrationsFS); err != nil {
		t.Fatalf("MigrateDown failed: %v", err)
	}

	version, dirty, err := db.MigrateVersion(migrationsFS)
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 1 {
		t.Errorf("expected version 1 after down, got %d", version)
	}
	if dirty {
		t.Error("database should not be dirty after rollback")
	}

	// The lap_time_ms column should be gone again
	var hasLapTime bool
	err = db.QueryRow(`
		SELECT COUNT(*) > 0
		FROM pragma_table_info('fixture_laps')
		WHERE name='lap_time_ms'
	`).Scan(&hasLapTime)
	if err != nil {
		t.Fatalf("failed to check lap_time_ms column: %v", err)
	}
	if hasLapTime {
		t.Error("lap_time_ms column should be removed by rollback")
	}
}

func TestMigrateVersionFreshDatabase(t *testing.T) {
	db := setupMigrationTestDB(t)
	migrationsFS := setupTestMigrations(t)

	// No migrations applied yet: version 0, not dirty, no error
	version, dirty, err := db.MigrateVersion(migrationsFS)
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 0 {
		t.Errorf("expected version 0 on fresh database, got %d", version)
	}
	if dirty {
		t.Error("fresh database should not be dirty")
	}
}

// TestEmbeddedMigrationsFS verifies the embedded migrations filesystem structure
func TestEmbeddedMigrationsFS(t *testing.T) {
	// Test with DevMode off (embedded FS)
	origDevMode := DevMode
	DevMode = false
	defer func() { DevMode = origDevMode }()

	// The embedded tree is rooted one level above the migration files
	entries, err := fs.ReadDir(migrationsFiles, "migrations")
	if err != nil {
		t.Fatalf("Failed to read migrations/ subdirectory: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("embedded migrations directory is empty")
	}

	// getMigrationsFS must be rooted at the migration files themselves
	migFS, err := getMigrationsFS()
	if err != nil {
		t.Fatalf("getMigrationsFS() failed: %v", err)
	}

	rootEntries, err := fs.ReadDir(migFS, ".")
	if err != nil {
		t.Fatalf("Failed to read getMigrationsFS result: %v", err)
	}
	if len(rootEntries) != len(entries) {
		t.Errorf("getMigrationsFS() returned %d entries, want %d", len(rootEntries), len(entries))
	}

	// Every file must be an up/down pair member
	var ups, downs int
	for _, entry := range rootEntries {
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups++
		case strings.HasSuffix(name, ".down.sql"):
			downs++
		default:
			t.Errorf("unexpected file in migrations: %s", name)
		}
	}
	if ups == 0 || ups != downs {
		t.Errorf("expected matching up/down pairs, got %d up and %d down", ups, downs)
	}
}
