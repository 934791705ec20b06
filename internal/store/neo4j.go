package store

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/pkg/errors"

	"github.com/Zereker/skyroute/internal/domain"
	"github.com/Zereker/skyroute/pkg/graph"
	"github.com/Zereker/skyroute/pkg/log"
)

// Graph layout:
//
//	(:Location {name, country})<-[:HOSTED_BY]-(:Hub {code, name, capacity, address})
//	(:Hub)-[:CONNECTION {id, identifier, cost, duration_minutes, operator}]->(:Hub)
//
// Uniqueness is enforced by property uniqueness constraints, so two concurrent
// creates of the same key cannot both commit.
var neo4jSchema = []string{
	`CREATE CONSTRAINT location_name IF NOT EXISTS FOR (l:Location) REQUIRE l.name IS UNIQUE`,
	`CREATE CONSTRAINT hub_code IF NOT EXISTS FOR (h:Hub) REQUIRE h.code IS UNIQUE`,
	`CREATE CONSTRAINT connection_id IF NOT EXISTS FOR ()-[r:CONNECTION]-() REQUIRE r.id IS UNIQUE`,
	`CREATE CONSTRAINT connection_identifier IF NOT EXISTS FOR ()-[r:CONNECTION]-() REQUIRE r.identifier IS UNIQUE`,
}

const constraintViolation = "Neo.ClientError.Schema.ConstraintValidationFailed"

const connectionColumns = `r.id AS id, a.code AS from_hub, b.code AS to_hub, coalesce(r.identifier, '') AS identifier,
	r.cost AS cost, r.duration_minutes AS duration_minutes, r.operator AS operator`

const hubColumns = `h.code AS code, h.name AS name, h.capacity AS capacity, h.address AS address, l.name AS location`

// Neo4jStore keeps the graph in Neo4j.
type Neo4jStore struct {
	logger *slog.Logger
	driver *graph.Driver
}

var _ Store = (*Neo4jStore)(nil)

// NewNeo4jStore creates the schema constraints and returns the store.
func NewNeo4jStore(ctx context.Context, driver *graph.Driver) (*Neo4jStore, error) {
	s := &Neo4jStore{
		logger: log.Logger("store.neo4j"),
		driver: driver,
	}

	for _, ddl := range neo4jSchema {
		if err := driver.RunWrite(ctx, ddl, nil); err != nil {
			return nil, errors.Wrap(err, "ensure neo4j schema")
		}
	}

	return s, nil
}

// ============================================================================
// Mutations
// ============================================================================

func (s *Neo4jStore) RegisterLocation(ctx context.Context, in domain.LocationInput) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}

	_, err := s.driver.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		rows, err := graph.Query(ctx, tx, `MATCH (l:Location {name: $name}) RETURN l.name AS name`,
			map[string]any{"name": in.Name})
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			return nil, domain.AlreadyExists("location %q", in.Name)
		}

		_, err = tx.Run(ctx, `CREATE (:Location {name: $name, country: $country})`, map[string]any{
			"name":    in.Name,
			"country": in.Country,
		})
		return nil, err
	})
	if err != nil {
		return "", s.mapError(err, "location %q", in.Name)
	}

	return in.Name, nil
}

func (s *Neo4jStore) RegisterHub(ctx context.Context, in domain.HubInput) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}

	_, err := s.driver.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		rows, err := graph.Query(ctx, tx, `
			OPTIONAL MATCH (l:Location {name: $location})
			OPTIONAL MATCH (h:Hub {code: $code})
			RETURN l IS NOT NULL AS location_found, h IS NOT NULL AS hub_found
		`, map[string]any{"location": in.Location, "code": in.Code})
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 || rows[0]["location_found"] != true {
			return nil, domain.NotFound("location %q", in.Location)
		}
		if rows[0]["hub_found"] == true {
			return nil, domain.AlreadyExists("hub %q", in.Code)
		}

		_, err = tx.Run(ctx, `
			MATCH (l:Location {name: $location})
			CREATE (:Hub {code: $code, name: $name, capacity: $capacity, address: $address})-[:HOSTED_BY]->(l)
		`, map[string]any{
			"location": in.Location,
			"code":     in.Code,
			"name":     in.Name,
			"capacity": in.Capacity,
			"address":  in.Address,
		})
		return nil, err
	})
	if err != nil {
		return "", s.mapError(err, "hub %q", in.Code)
	}

	return in.Code, nil
}

func (s *Neo4jStore) RegisterConnection(ctx context.Context, in domain.ConnectionInput) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}

	id := uuid.NewString()
	_, err := s.driver.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		rows, err := graph.Query(ctx, tx, `
			OPTIONAL MATCH (a:Hub {code: $from})
			OPTIONAL MATCH (b:Hub {code: $to})
			OPTIONAL MATCH ()-[r:CONNECTION {identifier: $identifier}]->()
			RETURN a IS NOT NULL AS from_found, b IS NOT NULL AS to_found, count(r) AS taken
		`, map[string]any{"from": in.FromHub, "to": in.ToHub, "identifier": in.Identifier})
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 || rows[0]["from_found"] != true {
			return nil, domain.NotFound("hub %q", in.FromHub)
		}
		if rows[0]["to_found"] != true {
			return nil, domain.NotFound("hub %q", in.ToHub)
		}
		if taken, _ := rows[0]["taken"].(int64); taken > 0 {
			return nil, domain.AlreadyExists("connection %q", in.Identifier)
		}

		// Absent values are passed as null, which Neo4j does not store.
		props := map[string]any{
			"id":               id,
			"identifier":       nil,
			"cost":             nil,
			"duration_minutes": nil,
			"operator":         in.Operator,
		}
		if in.Identifier != "" {
			props["identifier"] = in.Identifier
		}
		if in.Cost != nil {
			props["cost"] = *in.Cost
		}
		if in.DurationMinutes != nil {
			props["duration_minutes"] = *in.DurationMinutes
		}

		_, err = tx.Run(ctx, `
			MATCH (a:Hub {code: $from}), (b:Hub {code: $to})
			CREATE (a)-[r:CONNECTION]->(b)
			SET r = $props
		`, map[string]any{"from": in.FromHub, "to": in.ToHub, "props": props})
		return nil, err
	})
	if err != nil {
		return "", s.mapError(err, "connection %q", in.Identifier)
	}

	return id, nil
}

func (s *Neo4jStore) Reset(ctx context.Context) error {
	err := s.driver.RunWrite(ctx, `MATCH (n) WHERE n:Location OR n:Hub DETACH DELETE n`, nil)
	if err != nil {
		return domain.Unavailable(err, "neo4j reset")
	}
	return nil
}

// ============================================================================
// Lookups
// ============================================================================

func (s *Neo4jStore) GetLocation(ctx context.Context, name string) (domain.Location, error) {
	rows, err := s.driver.Run(ctx, `MATCH (l:Location {name: $name}) RETURN l.name AS name, l.country AS country`,
		map[string]any{"name": name})
	if err != nil {
		return domain.Location{}, domain.Unavailable(err, "neo4j get location")
	}
	if len(rows) == 0 {
		return domain.Location{}, domain.NotFound("location %q", name)
	}

	var loc domain.Location
	if err := mapstructure.Decode(rows[0], &loc); err != nil {
		return domain.Location{}, errors.Wrap(err, "decode location")
	}
	return loc, nil
}

func (s *Neo4jStore) ListLocations(ctx context.Context, country string) ([]domain.Location, error) {
	rows, err := s.driver.Run(ctx, `
		MATCH (l:Location)
		WHERE $country = '' OR l.country = $country
		RETURN l.name AS name, l.country AS country
		ORDER BY l.name
	`, map[string]any{"country": country})
	if err != nil {
		return nil, domain.Unavailable(err, "neo4j list locations")
	}

	locations := make([]domain.Location, 0, len(rows))
	if err := mapstructure.Decode(rows, &locations); err != nil {
		return nil, errors.Wrap(err, "decode locations")
	}
	return locations, nil
}

func (s *Neo4jStore) GetHub(ctx context.Context, code string) (domain.Hub, error) {
	rows, err := s.driver.Run(ctx, `
		MATCH (h:Hub {code: $code})-[:HOSTED_BY]->(l:Location)
		RETURN `+hubColumns, map[string]any{"code": code})
	if err != nil {
		return domain.Hub{}, domain.Unavailable(err, "neo4j get hub")
	}
	if len(rows) == 0 {
		return domain.Hub{}, domain.NotFound("hub %q", code)
	}

	var hub domain.Hub
	if err := mapstructure.Decode(rows[0], &hub); err != nil {
		return domain.Hub{}, errors.Wrap(err, "decode hub")
	}
	return hub, nil
}

func (s *Neo4jStore) ListHubs(ctx context.Context, location string) ([]domain.Hub, error) {
	result, err := s.driver.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		found, err := locationExists(ctx, tx, location)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, domain.NotFound("location %q", location)
		}
		return hubsAt(ctx, tx, location)
	})
	if err != nil {
		return nil, s.mapError(err, "location %q", location)
	}
	return result.([]domain.Hub), nil
}

func (s *Neo4jStore) GetConnection(ctx context.Context, identifier string) (domain.Connection, error) {
	rows, err := s.driver.Run(ctx, `
		MATCH (a:Hub)-[r:CONNECTION {identifier: $identifier}]->(b:Hub)
		RETURN `+connectionColumns, map[string]any{"identifier": identifier})
	if err != nil {
		return domain.Connection{}, domain.Unavailable(err, "neo4j get connection")
	}
	if len(rows) == 0 {
		return domain.Connection{}, domain.NotFound("connection %q", identifier)
	}

	var conn domain.Connection
	if err := mapstructure.Decode(rows[0], &conn); err != nil {
		return domain.Connection{}, errors.Wrap(err, "decode connection")
	}
	return conn, nil
}

// Snapshot reads every layer of the expansion inside one read transaction.
func (s *Neo4jStore) Snapshot(ctx context.Context, from, to string, maxHops int) (*domain.Snapshot, error) {
	result, err := s.driver.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, name := range []string{from, to} {
			found, err := locationExists(ctx, tx, name)
			if err != nil {
				return nil, err
			}
			if !found {
				return nil, domain.NotFound("location %q", name)
			}
		}

		snap := domain.NewSnapshot()

		origins, err := hubsAt(ctx, tx, from)
		if err != nil {
			return nil, err
		}
		snap.Origins = origins

		targets, err := hubsAt(ctx, tx, to)
		if err != nil {
			return nil, err
		}
		for _, hub := range targets {
			snap.Targets[hub.Code] = struct{}{}
		}

		err = expand(ctx, snap, maxHops, func(ctx context.Context, codes []string) (map[string][]domain.Connection, error) {
			return departuresOf(ctx, tx, codes)
		})
		if err != nil {
			return nil, err
		}
		return snap, nil
	})
	if err != nil {
		return nil, s.mapError(err, "snapshot %q -> %q", from, to)
	}
	return result.(*domain.Snapshot), nil
}

func (s *Neo4jStore) Health(ctx context.Context) error {
	if err := s.driver.Health(ctx); err != nil {
		return domain.Unavailable(err, "neo4j health")
	}
	return nil
}

// Close is a no-op; the driver is owned by the graph package.
func (s *Neo4jStore) Close(context.Context) error { return nil }

// mapError turns uniqueness violations into AlreadyExists and leaves domain
// errors untouched. Anything else is a backend fault.
func (s *Neo4jStore) mapError(err error, format string, args ...any) error {
	if domain.KindOf(err) != domain.KindUnknown {
		return err
	}

	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) && neoErr.Code == constraintViolation {
		return domain.AlreadyExists(format, args...)
	}

	s.logger.Error("neo4j operation failed", "error", err)
	return domain.Unavailable(err, "neo4j")
}

// ============================================================================
// Transaction helpers
// ============================================================================

func locationExists(ctx context.Context, tx neo4j.ManagedTransaction, name string) (bool, error) {
	rows, err := graph.Query(ctx, tx, `MATCH (l:Location {name: $name}) RETURN l.name AS name`,
		map[string]any{"name": name})
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

func hubsAt(ctx context.Context, tx neo4j.ManagedTransaction, location string) ([]domain.Hub, error) {
	rows, err := graph.Query(ctx, tx, `
		MATCH (h:Hub)-[:HOSTED_BY]->(l:Location {name: $location})
		RETURN `+hubColumns+`
		ORDER BY h.code
	`, map[string]any{"location": location})
	if err != nil {
		return nil, err
	}

	hubs := make([]domain.Hub, 0, len(rows))
	if err := mapstructure.Decode(rows, &hubs); err != nil {
		return nil, errors.Wrap(err, "decode hubs")
	}
	return hubs, nil
}

func departuresOf(ctx context.Context, tx neo4j.ManagedTransaction, codes []string) (map[string][]domain.Connection, error) {
	rows, err := graph.Query(ctx, tx, `
		MATCH (a:Hub)-[r:CONNECTION]->(b:Hub)
		WHERE a.code IN $codes
		RETURN `+connectionColumns, map[string]any{"codes": codes})
	if err != nil {
		return nil, err
	}

	loaded := make(map[string][]domain.Connection, len(codes))
	for _, row := range rows {
		var conn domain.Connection
		if err := mapstructure.Decode(row, &conn); err != nil {
			return nil, errors.Wrap(err, "decode connection")
		}
		loaded[conn.FromHub] = append(loaded[conn.FromHub], conn)
	}
	return loaded, nil
}
