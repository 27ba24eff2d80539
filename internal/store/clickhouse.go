// Package store keeps inventory snapshots in ClickHouse so runs can be
// compared over time.
package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/config"
	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/models"
)

// batch is the part of driver.Batch used to insert rows.
type batch interface {
	Append(v ...any) error
	Send() error
}

// conn is the part of the ClickHouse connection used by Store.
type conn interface {
	Exec(ctx context.Context, query string, args ...any) error
	PrepareBatch(ctx context.Context, query string) (batch, error)
	Close() error
}

// driverConn adapts driver.Conn to conn.
type driverConn struct {
	c driver.Conn
}

func (d driverConn) Exec(ctx context.Context, query string, args ...any) error {
	return d.c.Exec(ctx, query, args...)
}

func (d driverConn) PrepareBatch(ctx context.Context, query string) (batch, error) {
	return d.c.PrepareBatch(ctx, query)
}

func (d driverConn) Close() error { return d.c.Close() }

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store writes inventory snapshots to one ClickHouse table.
type Store struct {
	conn  conn
	table string
}

// NewClickHouseStore connects to the server in cfg and checks it is
// reachable.
func NewClickHouseStore(ctx context.Context, cfg config.ClickHouseConfig) (*Store, error) {
	table, err := qualifiedTable(cfg.Database, cfg.Table)
	if err != nil {
		return nil, err
	}

	c, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("connect to ClickHouse %s: %w", cfg.Addr, err)
	}
	if err := c.Ping(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("ping ClickHouse %s: %w", cfg.Addr, err)
	}
	return &Store{conn: driverConn{c: c}, table: table}, nil
}

// Close closes the connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// EnsureSchema creates the snapshot table when it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if err := s.conn.Exec(ctx, createTableSQL(s.table)); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// SaveInventory inserts every record of inv in one batch, keyed by run id
// and position. Unset fields are stored as NULL.
func (s *Store) SaveInventory(ctx context.Context, inv *models.Inventory) error {
	if len(inv.Records) == 0 {
		return nil
	}

	b, err := s.conn.PrepareBatch(ctx, insertSQL(s.table))
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	for i, rec := range inv.Records {
		if err := b.Append(rowValues(inv.RunID, inv.GeneratedAt, i, rec)...); err != nil {
			return fmt.Errorf("append record %d: %w", i, err)
		}
	}
	if err := b.Send(); err != nil {
		return fmt.Errorf("send batch of %d records: %w", len(inv.Records), err)
	}
	return nil
}

// =============================================================================
// SQL
// =============================================================================

func qualifiedTable(database, table string) (string, error) {
	if !identifier.MatchString(table) {
		return "", fmt.Errorf("invalid ClickHouse table name %q", table)
	}
	if database == "" {
		return table, nil
	}
	if !identifier.MatchString(database) {
		return "", fmt.Errorf("invalid ClickHouse database name %q", database)
	}
	return database + "." + table, nil
}

func createTableSQL(table string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", table)
	b.WriteString("\trun_id String,\n")
	b.WriteString("\tgenerated_at DateTime64(3, 'UTC'),\n")
	b.WriteString("\tordinal UInt32")
	for _, name := range models.FieldNames() {
		fmt.Fprintf(&b, ",\n\t%s Nullable(String)", name)
	}
	b.WriteString("\n) ENGINE = MergeTree\nORDER BY (generated_at, run_id, ordinal)")
	return b.String()
}

func insertSQL(table string) string {
	cols := append([]string{"run_id", "generated_at", "ordinal"}, models.FieldNames()...)
	return fmt.Sprintf("INSERT INTO %s (%s)", table, strings.Join(cols, ", "))
}

// rowValues returns the column values for one record in insertSQL order.
func rowValues(runID string, generatedAt time.Time, ordinal int, rec models.InventoryRecord) []any {
	names := models.FieldNames()
	values := make([]any, 0, 3+len(names))
	values = append(values, runID, generatedAt, uint32(ordinal))
	for _, name := range names {
		if v, ok := rec.Field(name); ok {
			values = append(values, &v)
		} else {
			values = append(values, (*string)(nil))
		}
	}
	return values
}
