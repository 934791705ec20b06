package store

import (
	"context"
	"fmt"

	"github.com/Zereker/skyroute/internal/domain"
	"github.com/Zereker/skyroute/pkg/graph"
	"github.com/Zereker/skyroute/pkg/relation"
)

const (
	BackendMemory   = "memory"
	BackendNeo4j    = "neo4j"
	BackendPostgres = "postgres"
)

// Store owns locations, hubs and connections and enforces their invariants.
//
// Every mutation is an atomic insert-if-absent on its unique key. Reads may run
// concurrently with each other and with mutations.
type Store interface {
	// RegisterLocation inserts a location and returns its name.
	RegisterLocation(ctx context.Context, in domain.LocationInput) (string, error)

	// RegisterHub inserts a hub hosted by an existing location and returns its code.
	RegisterHub(ctx context.Context, in domain.HubInput) (string, error)

	// RegisterConnection inserts a directed connection and returns its generated id.
	RegisterConnection(ctx context.Context, in domain.ConnectionInput) (string, error)

	GetLocation(ctx context.Context, name string) (domain.Location, error)

	// ListLocations returns all locations, filtered by country when it is not empty.
	ListLocations(ctx context.Context, country string) ([]domain.Location, error)

	GetHub(ctx context.Context, code string) (domain.Hub, error)

	// ListHubs returns the hubs hosted by a location. The location must exist.
	ListHubs(ctx context.Context, location string) ([]domain.Hub, error)

	GetConnection(ctx context.Context, identifier string) (domain.Connection, error)

	// Snapshot returns the hubs of both locations and every connection reachable
	// from the origin hubs within maxHops edges, read as one consistent view.
	Snapshot(ctx context.Context, from, to string, maxHops int) (*domain.Snapshot, error)

	// Reset removes everything. It is idempotent.
	Reset(ctx context.Context) error

	// Health reports whether the backend can serve requests.
	Health(ctx context.Context) error

	Close(ctx context.Context) error
}

// Config selects the storage backend.
type Config struct {
	Backend string `toml:"backend"` // memory, neo4j or postgres
}

// Validate checks store configuration.
func (c *Config) Validate() error {
	if c.Backend == "" {
		c.Backend = BackendMemory
	}
	switch c.Backend {
	case BackendMemory, BackendNeo4j, BackendPostgres:
		return nil
	default:
		return fmt.Errorf("invalid backend: %s, must be memory, neo4j or postgres", c.Backend)
	}
}

// New opens the configured backend. Database backends use the package-level
// clients, which must be initialised first.
func New(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendNeo4j:
		client := graph.NewDriver()
		if client == nil {
			return nil, fmt.Errorf("neo4j backend selected but neo4j is not enabled")
		}
		return NewNeo4jStore(ctx, client)
	case BackendPostgres:
		pool := relation.NewPool()
		if pool == nil {
			return nil, fmt.Errorf("postgres backend selected but postgres is not enabled")
		}
		return NewPostgresStore(ctx, pool)
	default:
		return nil, fmt.Errorf("unknown backend: %s", cfg.Backend)
	}
}
