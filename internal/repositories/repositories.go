// package repositories provides SQLite persistence for the local catalog cache.
//
// Each repository implements models.Repository[T] for a cached entity type.
// Cached rows mirror backend state and are replaced wholesale on re-fetch.
package repositories

import (
	"database/sql"
	"fmt"

	"github.com/ewhitmore/spotcollect/internal/shared"
)

// Open opens the SQLite database named by the config, applies connection
// limits, and runs pending migrations.
func Open(cfg shared.DatabaseConfig) (*sql.DB, error) {
	db, err := shared.NewDatabase(shared.ExpandPath(cfg.Path))
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		shared.ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}
