// Package db provides the SQLite connection and migration runner backing
// the audit log.
//
// It manages:
//   - a single-writer SQLite connection with WAL mode for concurrent reads
//   - schema migrations, applied in the order of a caller-supplied set
//   - connection lifecycle and health checks
//
// Migrate takes no filename-convention scanner of its own; the caller
// passes its own ordered []Migration (see migrations.All for this
// module's set).
//
// Usage:
//
//	conn, err := db.Open(cfg.Audit)
//	if err != nil {
//	    return err
//	}
//	defer conn.Close()
//
//	if err := conn.Migrate(ctx, migrations.All); err != nil {
//	    return err
//	}
package db
