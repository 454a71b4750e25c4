package db

import (
	"context"
	"fmt"
	"time"
)

// ProbeResult is the diagnostic payload of a connectivity check.
type ProbeResult struct {
	ServerVersion      string `json:"postgres_version"`
	DatabaseName       string `json:"database_name"`
	CurrentUser        string `json:"current_user"`
	ServerTime         string `json:"server_time"`
	ObjectsTableExists bool   `json:"objects_table_exists"`
	ConnectionStatus   string `json:"connection_status"`
	Timestamp          string `json:"timestamp"`
}

var probeQueries = map[Dialect][2]string{
	DialectPostgres: {
		`SELECT version() AS postgres_version,
			current_database() AS database_name,
			current_user AS current_user,
			now() AS server_time`,
		`SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = 'objects'
		) AS objects_table_exists`,
	},
	DialectSQLite: {
		`SELECT sqlite_version(), 'main', 'sqlite', strftime('%Y-%m-%dT%H:%M:%SZ', 'now')`,
		`SELECT EXISTS (
			SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = 'objects'
		)`,
	},
}

// Probe opens one connection, runs the introspection queries and reports
// what the server says. It makes a single attempt.
func (d *DB) Probe(ctx context.Context) (*ProbeResult, error) {
	conn, err := d.conn.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	queries := probeQueries[d.dialect]

	var res ProbeResult
	if err := conn.QueryRowContext(ctx, queries[0]).Scan(
		&res.ServerVersion, &res.DatabaseName, &res.CurrentUser, &res.ServerTime,
	); err != nil {
		return nil, fmt.Errorf("server info query failed: %w", err)
	}

	if err := conn.QueryRowContext(ctx, queries[1]).Scan(&res.ObjectsTableExists); err != nil {
		return nil, fmt.Errorf("table check failed: %w", err)
	}

	res.ConnectionStatus = "success"
	res.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)

	if d.logger != nil {
		d.logger.Debug("connectivity probe succeeded",
			"dialect", d.dialect.String(),
			"database", res.DatabaseName,
			"objects_table_exists", res.ObjectsTableExists,
		)
	}
	return &res, nil
}
