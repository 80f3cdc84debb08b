package sqlstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"github.com/wso2/policy-authz/internal/config"
	"github.com/wso2/policy-authz/internal/domainerr"
)

// DB wraps a *sql.DB with the driver name, so callers can Rebind queries
// written with `?` placeholders for whichever backend is configured.
type DB struct {
	*sql.DB
	driver string
}

// Driver returns the underlying database driver name (sqlite3, postgres).
func (db *DB) Driver() string { return db.driver }

// NewConnection opens a pooled connection for the configured provider and
// verifies it with a ping. "surreal" is accepted at config-parse time but
// has no driver in this build; it fails here with ErrRepository.
func NewConnection(cfg config.Database) (*DB, error) {
	var sqlDB *sql.DB
	var driver string
	var err error

	switch cfg.Provider {
	case "sqlite", "sqlite3":
		driver = "sqlite3"
		if dir := filepath.Dir(cfg.URL); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("%w: create sqlite data directory: %v", domainerr.ErrRepository, err)
			}
		}
		sqlDB, err = sql.Open("sqlite3", cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("%w: open sqlite database: %v", domainerr.ErrRepository, err)
		}
		if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return nil, fmt.Errorf("%w: enable sqlite foreign keys: %v", domainerr.ErrRepository, err)
		}
	case "postgres", "postgresql":
		driver = "postgres"
		sqlDB, err = sql.Open("postgres", cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("%w: open postgres database: %v", domainerr.ErrRepository, err)
		}
	case "surreal":
		return nil, fmt.Errorf("%w: DATABASE_PROVIDER=surreal has no driver wired in this build", domainerr.ErrRepository)
	default:
		return nil, fmt.Errorf("%w: unsupported database provider %q", domainerr.ErrRepository, cfg.Provider)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxConnections)
	sqlDB.SetMaxIdleConns(cfg.MaxConnections)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("%w: ping database: %v", domainerr.ErrRepository, err)
	}
	return &DB{DB: sqlDB, driver: driver}, nil
}

// Rebind rewrites `?` placeholders for the current driver: postgres wants
// `$1, $2, ...`; sqlite3 takes `?` as-is.
func (db *DB) Rebind(query string) string {
	if db.driver != "postgres" {
		return query
	}
	parts := strings.Split(query, "?")
	if len(parts) == 1 {
		return query
	}
	var b strings.Builder
	for i, part := range parts {
		if i > 0 {
			fmt.Fprintf(&b, "$%d", i)
		}
		b.WriteString(part)
	}
	return b.String()
}

// InitSchema creates every table for the current driver if it does not
// already exist, using the embedded driver-specific DDL.
func (db *DB) InitSchema() error {
	var ddl string
	switch db.driver {
	case "sqlite3":
		ddl = schemaSQLite
	case "postgres":
		ddl = schemaPostgres
	default:
		return fmt.Errorf("%w: unsupported driver for schema initialization: %s", domainerr.ErrRepository, db.driver)
	}

	if db.driver == "postgres" {
		return db.execStatementsInTx(ddl)
	}
	_, err := db.Exec(ddl)
	if err != nil {
		return fmt.Errorf("%w: initialize schema: %v", domainerr.ErrRepository, err)
	}
	return nil
}

// execStatementsInTx runs each `;`-separated statement individually inside
// one transaction. lib/pq does not reliably support multi-statement Exec.
func (db *DB) execStatementsInTx(ddl string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin schema transaction: %v", domainerr.ErrRepository, err)
	}
	defer tx.Rollback()

	for _, stmt := range strings.Split(ddl, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("%w: execute schema statement: %v\n%s", domainerr.ErrRepository, err, stmt)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit schema transaction: %v", domainerr.ErrRepository, err)
	}
	return nil
}
