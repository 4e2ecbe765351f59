package runstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"vfsbot/lib/runstore/db"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// OpenDB opens the run-history database and applies the schema. Remote
// DSNs (libsql://, wss://, https://) go to the libsql driver, everything
// else is treated as a local sqlite path.
func OpenDB(dsn string) (*sql.DB, error) {
	var database *sql.DB
	var err error
	if isRemote(dsn) {
		database, err = sql.Open("libsql", dsn)
	} else {
		database, err = openLocal(dsn)
	}
	if err != nil {
		return nil, fmt.Errorf("open run history db: %w", err)
	}

	_, err = database.Exec(db.Schema)
	if err != nil {
		return nil, fmt.Errorf("apply run history schema: %w", err)
	}
	return database, nil
}

func isRemote(dsn string) bool {
	return strings.HasPrefix(dsn, "libsql://") ||
		strings.HasPrefix(dsn, "wss://") ||
		strings.HasPrefix(dsn, "https://")
}

func openLocal(path string) (*sql.DB, error) {
	if path != ":memory:" {
		os.MkdirAll(filepath.Dir(path), 0777)
	}

	database, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// see this stackoverflow post for information on why the following
	// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	database.SetMaxOpenConns(1)
	_, err = database.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	return database, nil
}
