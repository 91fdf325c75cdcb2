package database

import (
	"path/filepath"
	"testing"

	"github.com/feldgrau-labs/chesstrack/backend/internal/activities"
	"go.uber.org/zap"
)

func TestOpenSQLiteInitializesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chesstrack.db")

	db, err := OpenSQLite(path, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	for _, table := range []string{"activities", "mistakes", "db_migrations"} {
		if !db.Migrator().HasTable(table) {
			t.Fatalf("expected table %q to exist", table)
		}
	}

	var applied []migrationRecord
	if err := db.Find(&applied).Error; err != nil {
		t.Fatalf("failed to load migration records: %v", err)
	}
	if len(applied) != 1 || applied[0].Name != migrationTrimActivityCategories {
		t.Fatalf("unexpected migration records: %#v", applied)
	}
}

func TestTrimMigrationAppliesOnceAndCleansCategories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chesstrack.db")

	db, err := OpenSQLite(path, nil)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	// Simulate a pre-migration import with stray whitespace, then re-run.
	padded := activities.Activity{Date: "2026-01-05", Week: 2, Category: "  Tactics ", Minutes: 30}
	if err := db.Create(&padded).Error; err != nil {
		t.Fatalf("failed to seed padded row: %v", err)
	}
	if err := db.Where("name = ?", migrationTrimActivityCategories).Delete(&migrationRecord{}).Error; err != nil {
		t.Fatalf("failed to reset migration record: %v", err)
	}

	if err := applyMigrations(db, nil); err != nil {
		t.Fatalf("failed to apply migrations: %v", err)
	}

	var row activities.Activity
	if err := db.First(&row, padded.ID).Error; err != nil {
		t.Fatalf("failed to reload row: %v", err)
	}
	if row.Category != "Tactics" {
		t.Fatalf("expected trimmed category, got %q", row.Category)
	}

	// Re-running must be a no-op and must not duplicate the record.
	if err := applyMigrations(db, nil); err != nil {
		t.Fatalf("second apply failed: %v", err)
	}
	var count int64
	if err := db.Model(&migrationRecord{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count records: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single migration record, got %d", count)
	}
}
