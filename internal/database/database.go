// Package database opens the destination database and loads record sets
// into it with replace semantics.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "modernc.org/sqlite"             // SQLite driver, registered as "sqlite"

	"github.com/dbsmedya/wikietl/internal/config"
	"github.com/dbsmedya/wikietl/internal/sqlutil"
)

// DB is an open destination database and the SQL dialect it speaks.
type DB struct {
	SQL     *sql.DB
	Dialect sqlutil.Dialect
	Target  string // file path or host:port/database, for logs
}

// Open connects to the configured driver. For sqlite, path is the database
// file and is created if absent; for mysql it is ignored.
func Open(ctx context.Context, cfg *config.DatabaseConfig, path string) (*DB, error) {
	var (
		db  *DB
		err error
	)
	switch cfg.Driver {
	case config.DriverSQLite, "":
		db, err = openSQLite(path)
	case config.DriverMySQL:
		db, err = openMySQL(&cfg.MySQL)
	default:
		return nil, &PersistenceError{Op: "open", Err: fmt.Errorf("unsupported driver %q", cfg.Driver)}
	}
	if err != nil {
		return nil, &PersistenceError{Op: "open", Err: err}
	}

	if err := db.SQL.PingContext(ctx); err != nil {
		db.SQL.Close()
		return nil, &PersistenceError{Op: "open", Err: fmt.Errorf("ping %s: %w", db.Target, err)}
	}
	return db, nil
}

func openSQLite(path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite database path is empty")
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer; a second connection would see SQLITE_BUSY mid-transaction.
	conn.SetMaxOpenConns(1)
	return &DB{SQL: conn, Dialect: sqlutil.SQLite, Target: path}, nil
}

func openMySQL(cfg *config.MySQLConfig) (*DB, error) {
	conn, err := sql.Open("mysql", BuildDSN(cfg))
	if err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(2)
	conn.SetConnMaxLifetime(10 * time.Minute)
	return &DB{
		SQL:     conn,
		Dialect: sqlutil.MySQL,
		Target:  fmt.Sprintf("%s:%d/%s", cfg.Host, cfg.Port, cfg.Database),
	}, nil
}

// BuildDSN constructs a MySQL DSN from configuration.
func BuildDSN(cfg *config.MySQLConfig) string {
	// Format: user:password@tcp(host:port)/database?params
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
	)

	if cfg.Database != "" {
		dsn += cfg.Database
	}

	params := "?parseTime=true"
	switch cfg.TLS {
	case "disable":
		params += "&tls=false"
	case "required":
		params += "&tls=true"
	case "preferred", "":
		params += "&tls=preferred"
	}

	return dsn + params
}

// Close closes the connection pool.
func (db *DB) Close() error {
	if db == nil || db.SQL == nil {
		return nil
	}
	return db.SQL.Close()
}
