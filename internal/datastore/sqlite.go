package datastore

import (
	"fmt"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hqnguyen/wastenet-go/internal/conf"
)

// SQLiteStore implements the datastore interface for SQLite
type SQLiteStore struct {
	DataStore
	Settings *conf.Settings
}

// Open sets up the SQLite database connection
func (store *SQLiteStore) Open() error {
	dir, fileName := filepath.Split(store.Settings.Output.SQLite.Path)
	basePath := conf.GetBasePath(dir)
	absoluteFilePath := filepath.Join(basePath, fileName)

	// foreign_keys pragma enforces the type -> record cascade constraint
	dsn := absoluteFilePath + "?_foreign_keys=on"

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: createGormLogger()})
	if err != nil {
		return fmt.Errorf("failed to open SQLite database: %w", err)
	}

	store.DB = db
	return performAutoMigration(db, store.Settings.Debug, "SQLite", absoluteFilePath)
}

// Close is a no-op for SQLite, the handle is released with the process.
func (store *SQLiteStore) Close() error {
	return nil
}
