package database

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"rbac/internal/platform/config"
)

// New opens the identity store. Foreign keys are enforced so the
// role/organization references on users cannot dangle.
func New(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", cfg.Path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}
