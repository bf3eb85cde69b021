package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func NewConnectionPool(databaseURL string) (*pgxpool.Pool, error) {
	log.Println("Connecting to database...")
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database URL: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnIdleTime = time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	log.Println("Database connection pool established.")
	return pool, nil
}

// Open returns a gorm handle backed by a pgx pool. Each query checks a
// connection out of the pool for its duration, so concurrent requests never
// share a connection. The caller owns the pool and must close it.
func Open(databaseURL string) (*gorm.DB, *pgxpool.Pool, error) {
	pool, err := NewConnectionPool(databaseURL)
	if err != nil {
		return nil, nil, err
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: stdlib.OpenDBFromPool(pool)}), &gorm.Config{})
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("unable to open gorm connection: %w", err)
	}

	return db, pool, nil
}
