package database

import (
	"database/sql"

	"github.com/pharmacart/pharmacy-api/internal/config"

	_ "github.com/go-sql-driver/mysql"
)

// Open creates and configures the MySQL connection pool from config, and
// pings it to verify the connection before returning.
func Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
