package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open initialises the SQLite database and runs migrations.
func Open(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		dsn = "data/catalog.db"
	}
	if dir := filepath.Dir(dsn); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the table schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&User{}, &Item{}); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
