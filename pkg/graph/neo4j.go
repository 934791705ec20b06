package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Package-level instance
var driverInstance *Driver

// Init initializes the graph package with config.
func Init(cfg Neo4jConfig) error {
	if !cfg.Enabled {
		return nil
	}

	d, err := newDriver(cfg)
	if err != nil {
		return err
	}

	driverInstance = d
	return nil
}

// NewDriver returns the Driver instance, or nil when Neo4j is not enabled.
func NewDriver() *Driver {
	return driverInstance
}

// Close closes the Driver connection.
func Close(ctx context.Context) error {
	if driverInstance != nil {
		return driverInstance.Close(ctx)
	}
	return nil
}

// Neo4jConfig holds Neo4j connection configuration
type Neo4jConfig struct {
	Enabled  bool   `toml:"enabled"`
	URI      string `toml:"uri"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	Database string `toml:"database"`
}

// Validate checks Neo4j configuration.
func (c *Neo4jConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.URI == "" {
		return fmt.Errorf("uri is required")
	}
	if c.Database == "" {
		return fmt.Errorf("database is required")
	}
	return nil
}

// Driver wraps a Neo4j driver bound to one database.
type Driver struct {
	driver   neo4j.DriverWithContext
	database string
}

// newDriver connects and verifies connectivity.
func newDriver(cfg Neo4jConfig) (*Driver, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("failed to verify Neo4j connectivity: %w", err)
	}

	return &Driver{
		driver:   driver,
		database: cfg.Database,
	}, nil
}

// ============================================================================
// Transactions
// ============================================================================

// Work is a unit of work run inside a managed transaction.
type Work func(tx neo4j.ManagedTransaction) (any, error)

// ExecuteWrite runs work in a write transaction. The driver retries transient
// failures; an error returned by work rolls the transaction back.
func (d *Driver) ExecuteWrite(ctx context.Context, work Work) (any, error) {
	session := d.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: d.database})
	defer session.Close(ctx)

	return session.ExecuteWrite(ctx, neo4j.ManagedTransactionWork(work))
}

// ExecuteRead runs work in a read transaction, so every query in it sees the
// same committed state.
func (d *Driver) ExecuteRead(ctx context.Context, work Work) (any, error) {
	session := d.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: d.database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	return session.ExecuteRead(ctx, neo4j.ManagedTransactionWork(work))
}

// Run executes a read Cypher query and returns results as []map[string]any
func (d *Driver) Run(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	rows, err := d.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return Query(ctx, tx, cypher, params)
	})
	if err != nil {
		return nil, err
	}
	return rows.([]map[string]any), nil
}

// RunWrite executes a write Cypher query in a transaction
func (d *Driver) RunWrite(ctx context.Context, cypher string, params map[string]any) error {
	_, err := d.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, cypher, params)
		return nil, err
	})
	return err
}

// Query runs cypher inside tx and collects every record as a map keyed by the
// returned column names. Nodes and relationships are flattened to their props.
func Query(ctx context.Context, tx neo4j.ManagedTransaction, cypher string, params map[string]any) ([]map[string]any, error) {
	result, err := tx.Run(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("cypher execution failed: %w", err)
	}

	records, err := result.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to collect results: %w", err)
	}

	rows := make([]map[string]any, 0, len(records))
	for _, record := range records {
		row := make(map[string]any, len(record.Keys))
		for _, key := range record.Keys {
			val, _ := record.Get(key)
			row[key] = convertValue(val)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// ============================================================================
// Utility Methods
// ============================================================================

// Health checks Neo4j connection
func (d *Driver) Health(ctx context.Context) error {
	return d.driver.VerifyConnectivity(ctx)
}

// Close closes the Neo4j connection
func (d *Driver) Close(ctx context.Context) error {
	return d.driver.Close(ctx)
}

// convertValue converts Neo4j types to Go types
func convertValue(val any) any {
	switch v := val.(type) {
	case neo4j.Node:
		return v.Props
	case neo4j.Relationship:
		return v.Props
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = convertValue(item)
		}
		return out
	default:
		return val
	}
}
