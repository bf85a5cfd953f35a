package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // postgres driver
)

// Open connects to Postgres and verifies the connection.
func Open(dsn string) (*sql.DB, error) {
	database, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := database.Ping(); err != nil {
		database.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return database, nil
}

// openDB opens a connection without pinging, for the migration runner.
func openDB(dsn string) (*sql.DB, error) {
	return sql.Open("postgres", dsn)
}
