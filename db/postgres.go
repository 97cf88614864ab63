package db

import (
	"database/sql"
	"fmt"

	"profile-service/config"

	_ "github.com/lib/pq" // Postgres driver
)

var openDB = sql.Open

// Connect opens and pings the Postgres pool described by cfg.
func Connect(cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.Engine != "postgres" {
		return nil, fmt.Errorf("unsupported database engine: %s", cfg.Engine)
	}

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Name, cfg.SSLMode)

	conn, err := openDB("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err = conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	return conn, nil
}
