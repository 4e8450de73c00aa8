// Package database provides SQLite connectivity for the status and
// credential caches.
//
// This package manages:
//   - Database file creation with restrictive permissions
//   - WAL mode and busy-timeout pragmas
//   - Schema bootstrap for the key/value cache table
//   - Connection health checks
//
// The schema is a single versioned key/value table. Cache keys embed a
// schema version prefix ("1:<serial>"), so incompatible snapshot format
// changes are handled by bumping the version rather than migrating rows.
//
// # Usage
//
//	db, err := database.Open(ctx, database.Config{
//	    Path:        cfg.Cache.Path,
//	    WALMode:     cfg.Cache.WALMode,
//	    BusyTimeout: cfg.Cache.BusyTimeout,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
package database
