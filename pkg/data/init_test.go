package data

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitDuckDB(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := InitDuckDB(dbPath)
	if err != nil {
		t.Fatalf("Failed to initialize DB: %v", err)
	}
	defer db.Close()

	var tableCount int
	err = db.QueryRow(`SELECT COUNT(*) FROM information_schema.tables WHERE table_name = 'runs'`).Scan(&tableCount)
	if err != nil {
		t.Fatalf("Failed to query tables: %v", err)
	}

	if tableCount != 1 {
		t.Errorf("Expected 1 table, got %d", tableCount)
	}
}

func TestInitDuckDBCreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()

	// Use nested directory that doesn't exist
	dbPath := filepath.Join(tmpDir, "nested", "dir", "test.db")

	db, err := InitDuckDB(dbPath)
	if err != nil {
		t.Fatalf("Failed to initialize DB with nested path: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("DB file was not created")
	}
}
