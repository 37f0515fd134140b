package services

import (
	"context"
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"github.com/tbourn/go-wrapped-backend/internal/repo"
)

// newTestDB opens a migrated, file-backed SQLite database private to t.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.Open(filepath.Join(t.TempDir(), "svc.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = repo.Closer(db)(context.Background()) })
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
