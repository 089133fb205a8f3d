package database

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// ConnectSQLite opens a SQLite database for local runs. SQLite serialises writers,
// so the pool is pinned to a single connection.
func ConnectSQLite(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("sqlite dsn must not be empty")
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sqlite pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("failed to configure sqlite: %w", err)
	}

	return db, nil
}

// Connect opens the configured driver.
func Connect(driver, dsn string, maxOpenConns int) (*gorm.DB, error) {
	switch driver {
	case "sqlite":
		return ConnectSQLite(dsn)
	case "postgres", "":
		return ConnectPostgres(dsn, maxOpenConns)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}
