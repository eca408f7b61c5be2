package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"github.com/graylogic-labs/knxnetip/config"
)

const (
	dirPermissions  = 0750
	filePermissions = 0600

	msPerSecond       = 1000
	connectionTimeout = 5 * time.Second
	connMaxIdleTime   = 30 * time.Minute
)

// DB wraps a sql.DB connection to the audit-log database.
type DB struct {
	*sql.DB
	path string
}

// Open creates the audit database's directory if needed, opens the
// SQLite file with WAL mode and a busy timeout per cfg, and verifies
// connectivity with a ping.
func Open(cfg config.AuditConfig) (*DB, error) {
	dir := filepath.Dir(cfg.Path)
	if dir != "." {
		if err := os.MkdirAll(dir, dirPermissions); err != nil {
			return nil, fmt.Errorf("creating audit database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite3", buildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("opening audit database: %w", err)
	}

	// SQLite only supports one writer; keep a single connection.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	conn := &DB{DB: sqlDB, path: cfg.Path}

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		sqlDB.Close() //nolint:errcheck // best-effort cleanup on error path
		return nil, fmt.Errorf("verifying audit database connection: %w", err)
	}

	_ = os.Chmod(cfg.Path, filePermissions) //nolint:errcheck // file may not exist yet on first run

	return conn, nil
}

const defaultBusyTimeoutSeconds = 5

// buildDSN builds the go-sqlite3 connection string for cfg: a busy
// timeout (defaulting to defaultBusyTimeoutSeconds when unset),
// foreign keys on, and WAL mode plus relaxed fsync when cfg.WALMode
// asks for concurrent-read-friendly durability over strict sync.
func buildDSN(cfg config.AuditConfig) string {
	busyTimeout := cfg.BusyTimeout
	if busyTimeout <= 0 {
		busyTimeout = defaultBusyTimeoutSeconds
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on", cfg.Path, busyTimeout*msPerSecond)
	if cfg.WALMode {
		dsn += "&_journal_mode=WAL&_synchronous=NORMAL"
	}
	return dsn
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	if db == nil || db.DB == nil {
		return nil
	}
	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("closing audit database: %w", err)
	}
	return nil
}

// Path returns the filesystem path to the database file.
func (db *DB) Path() string {
	return db.path
}

// HealthCheck verifies the connection is alive.
func (db *DB) HealthCheck(ctx context.Context) error {
	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("audit database health check failed: %w", err)
	}
	return nil
}

// Stats returns connection pool statistics.
func (db *DB) Stats() sql.DBStats {
	return db.DB.Stats()
}
