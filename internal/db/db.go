package db

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect initializes the PostgreSQL connection pool. When requireTLS is set
// and the connection string does not already configure TLS, connections are
// encrypted without verifying the server certificate.
func Connect(ctx context.Context, connString string, requireTLS bool) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	if requireTLS && config.ConnConfig.TLSConfig == nil {
		config.ConnConfig.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}
	if !requireTLS {
		config.ConnConfig.TLSConfig = nil
		config.ConnConfig.Fallbacks = nil
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	var now time.Time
	if err := pool.QueryRow(ctx, "SELECT NOW()").Scan(&now); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to query database time: %w", err)
	}

	log.Infow("connected to PostgreSQL", "server_time", now, "tls", requireTLS)
	return pool, nil
}
