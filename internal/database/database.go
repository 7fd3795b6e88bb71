// Package database opens the SQL pool backing the durable replay nonce store.
package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"

	defaultPingTimeout = 5 * time.Second
)

// Config holds pool settings for the replay nonce store.
type Config struct {
	Driver             string
	ConnectionString   string
	MaxOpenConnections int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
	// PingTimeout bounds the initial reachability check. Zero uses five seconds.
	PingTimeout time.Duration
}

// Connect builds a connector for cfg.Driver, applies the pool limits and checks that the
// database answers before returning.
func Connect(ctx context.Context, cfg Config) (*sql.DB, error) {
	connector, err := newConnector(cfg.Driver, cfg.ConnectionString)
	if err != nil {
		return nil, err
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(cfg.MaxOpenConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConnections)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", cfg.Driver, err)
	}

	return db, nil
}

func newConnector(driverName, dsn string) (driver.Connector, error) {
	switch driverName {
	case DriverPostgres:
		connector, err := pq.NewConnector(dsn)
		if err != nil {
			return nil, fmt.Errorf("invalid postgres connection string: %w", err)
		}
		return connector, nil
	case DriverMySQL:
		mysqlCfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("invalid mysql connection string: %w", err)
		}
		// expires_at is compared against UTC instants.
		mysqlCfg.ParseTime = true
		mysqlCfg.Loc = time.UTC
		connector, err := mysql.NewConnector(mysqlCfg)
		if err != nil {
			return nil, fmt.Errorf("invalid mysql configuration: %w", err)
		}
		return connector, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driverName)
	}
}
