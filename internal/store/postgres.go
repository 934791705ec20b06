package store

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/Zereker/skyroute/internal/domain"
	"github.com/Zereker/skyroute/pkg/log"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS locations (
    name     TEXT PRIMARY KEY,
    country  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_locations_country ON locations (country);

CREATE TABLE IF NOT EXISTS hubs (
    code      TEXT    PRIMARY KEY,
    name      TEXT    NOT NULL,
    location  TEXT    NOT NULL REFERENCES locations (name) ON DELETE CASCADE,
    capacity  INTEGER NOT NULL DEFAULT 0,
    address   TEXT    NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_hubs_location ON hubs (location);

CREATE TABLE IF NOT EXISTS connections (
    id                TEXT             PRIMARY KEY,
    from_hub          TEXT             NOT NULL REFERENCES hubs (code) ON DELETE CASCADE,
    to_hub            TEXT             NOT NULL REFERENCES hubs (code) ON DELETE CASCADE,
    identifier        TEXT             NOT NULL DEFAULT '',
    cost              DOUBLE PRECISION,
    duration_minutes  INTEGER,
    operator          TEXT             NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_connections_from ON connections (from_hub);
CREATE UNIQUE INDEX IF NOT EXISTS idx_connections_identifier ON connections (identifier) WHERE identifier <> '';
`

// Reachable departures: hubs are expanded while depth < $2, starting from the
// hubs of location $1 at depth 0.
const reachableConnections = `
WITH RECURSIVE reach (code, depth) AS (
    SELECT h.code, 0 FROM hubs h WHERE h.location = $1
  UNION
    SELECT c.to_hub, r.depth + 1
    FROM reach r
    JOIN connections c ON c.from_hub = r.code
    WHERE r.depth + 1 < $2
)
SELECT c.id, c.from_hub, c.to_hub, c.identifier, c.cost, c.duration_minutes, c.operator
FROM connections c
WHERE c.from_hub IN (SELECT code FROM reach)
`

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// PostgresStore keeps the graph in PostgreSQL tables.
type PostgresStore struct {
	logger *slog.Logger
	pool   *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore ensures the schema and returns the store.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, errors.Wrap(err, "ensure postgres schema")
	}

	return &PostgresStore{
		logger: log.Logger("store.postgres"),
		pool:   pool,
	}, nil
}

// ============================================================================
// Mutations
// ============================================================================

func (s *PostgresStore) RegisterLocation(ctx context.Context, in domain.LocationInput) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO locations (name, country) VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING
	`, in.Name, in.Country)
	if err != nil {
		return "", s.mapError(err, "location %q", in.Name)
	}
	if tag.RowsAffected() == 0 {
		return "", domain.AlreadyExists("location %q", in.Name)
	}

	return in.Name, nil
}

func (s *PostgresStore) RegisterHub(ctx context.Context, in domain.HubInput) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		// FOR KEY SHARE keeps the location from being removed until commit.
		var name string
		err := tx.QueryRow(ctx, `SELECT name FROM locations WHERE name = $1 FOR KEY SHARE`, in.Location).Scan(&name)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.NotFound("location %q", in.Location)
		}
		if err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `
			INSERT INTO hubs (code, name, location, capacity, address) VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (code) DO NOTHING
		`, in.Code, in.Name, in.Location, in.Capacity, in.Address)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.AlreadyExists("hub %q", in.Code)
		}
		return nil
	})
	if err != nil {
		return "", s.mapError(err, "hub %q", in.Code)
	}

	return in.Code, nil
}

func (s *PostgresStore) RegisterConnection(ctx context.Context, in domain.ConnectionInput) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}

	id := uuid.NewString()
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT code FROM hubs WHERE code = ANY($1) FOR KEY SHARE`,
			[]string{in.FromHub, in.ToHub})
		if err != nil {
			return err
		}
		codes, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return err
		}

		found := make(map[string]bool, len(codes))
		for _, code := range codes {
			found[code] = true
		}
		if !found[in.FromHub] {
			return domain.NotFound("hub %q", in.FromHub)
		}
		if !found[in.ToHub] {
			return domain.NotFound("hub %q", in.ToHub)
		}

		tag, err := tx.Exec(ctx, `
			INSERT INTO connections (id, from_hub, to_hub, identifier, cost, duration_minutes, operator)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (identifier) WHERE identifier <> '' DO NOTHING
		`, id, in.FromHub, in.ToHub, in.Identifier, in.Cost, in.DurationMinutes, in.Operator)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.AlreadyExists("connection %q", in.Identifier)
		}
		return nil
	})
	if err != nil {
		return "", s.mapError(err, "connection %q", in.Identifier)
	}

	return id, nil
}

func (s *PostgresStore) Reset(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `TRUNCATE connections, hubs, locations`); err != nil {
		return domain.Unavailable(err, "postgres reset")
	}
	return nil
}

// ============================================================================
// Lookups
// ============================================================================

func (s *PostgresStore) GetLocation(ctx context.Context, name string) (domain.Location, error) {
	var loc domain.Location
	err := s.pool.QueryRow(ctx, `SELECT name, country FROM locations WHERE name = $1`, name).
		Scan(&loc.Name, &loc.Country)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Location{}, domain.NotFound("location %q", name)
	}
	if err != nil {
		return domain.Location{}, s.mapError(err, "location %q", name)
	}
	return loc, nil
}

func (s *PostgresStore) ListLocations(ctx context.Context, country string) ([]domain.Location, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT name, country FROM locations
		WHERE $1::text = '' OR country = $1
		ORDER BY name
	`, country)
	if err != nil {
		return nil, s.mapError(err, "locations")
	}

	locations, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Location, error) {
		var loc domain.Location
		err := row.Scan(&loc.Name, &loc.Country)
		return loc, err
	})
	if err != nil {
		return nil, s.mapError(err, "locations")
	}
	return locations, nil
}

func (s *PostgresStore) GetHub(ctx context.Context, code string) (domain.Hub, error) {
	var hub domain.Hub
	err := s.pool.QueryRow(ctx, `SELECT code, name, location, capacity, address FROM hubs WHERE code = $1`, code).
		Scan(&hub.Code, &hub.Name, &hub.Location, &hub.Capacity, &hub.Address)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Hub{}, domain.NotFound("hub %q", code)
	}
	if err != nil {
		return domain.Hub{}, s.mapError(err, "hub %q", code)
	}
	return hub, nil
}

func (s *PostgresStore) ListHubs(ctx context.Context, location string) ([]domain.Hub, error) {
	var hubs []domain.Hub
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{AccessMode: pgx.ReadOnly}, func(tx pgx.Tx) error {
		found, err := pgLocationExists(ctx, tx, location)
		if err != nil {
			return err
		}
		if !found {
			return domain.NotFound("location %q", location)
		}

		hubs, err = pgHubsAt(ctx, tx, location)
		return err
	})
	if err != nil {
		return nil, s.mapError(err, "location %q", location)
	}
	return hubs, nil
}

func (s *PostgresStore) GetConnection(ctx context.Context, identifier string) (domain.Connection, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, from_hub, to_hub, identifier, cost, duration_minutes, operator
		FROM connections WHERE identifier = $1 AND identifier <> ''
	`, identifier)

	conn, err := scanConnection(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Connection{}, domain.NotFound("connection %q", identifier)
	}
	if err != nil {
		return domain.Connection{}, s.mapError(err, "connection %q", identifier)
	}
	return conn, nil
}

// Snapshot reads inside one REPEATABLE READ transaction so every statement
// sees the same committed state.
func (s *PostgresStore) Snapshot(ctx context.Context, from, to string, maxHops int) (*domain.Snapshot, error) {
	snap := domain.NewSnapshot()
	opts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

	err := pgx.BeginTxFunc(ctx, s.pool, opts, func(tx pgx.Tx) error {
		for _, name := range []string{from, to} {
			found, err := pgLocationExists(ctx, tx, name)
			if err != nil {
				return err
			}
			if !found {
				return domain.NotFound("location %q", name)
			}
		}

		origins, err := pgHubsAt(ctx, tx, from)
		if err != nil {
			return err
		}
		snap.Origins = origins

		targets, err := pgHubsAt(ctx, tx, to)
		if err != nil {
			return err
		}
		for _, hub := range targets {
			snap.Targets[hub.Code] = struct{}{}
		}

		rows, err := tx.Query(ctx, reachableConnections, from, maxHops)
		if err != nil {
			return err
		}
		conns, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Connection, error) {
			return scanConnection(row)
		})
		if err != nil {
			return err
		}
		for _, c := range conns {
			snap.Departures[c.FromHub] = append(snap.Departures[c.FromHub], c)
		}
		return nil
	})
	if err != nil {
		return nil, s.mapError(err, "snapshot %q -> %q", from, to)
	}
	return snap, nil
}

func (s *PostgresStore) Health(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return domain.Unavailable(err, "postgres health")
	}
	return nil
}

// Close is a no-op; the pool is owned by the relation package.
func (s *PostgresStore) Close(context.Context) error { return nil }

// mapError turns constraint violations into domain errors. A unique violation
// can still surface when two transactions insert the same key concurrently.
func (s *PostgresStore) mapError(err error, format string, args ...any) error {
	if domain.KindOf(err) != domain.KindUnknown {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return domain.AlreadyExists(format, args...)
		case pgForeignKeyViolation:
			return domain.NotFound(format, args...)
		}
	}

	s.logger.Error("postgres operation failed", "error", err)
	return domain.Unavailable(err, "postgres")
}

// ============================================================================
// Query helpers
// ============================================================================

func pgLocationExists(ctx context.Context, tx pgx.Tx, name string) (bool, error) {
	var found bool
	err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM locations WHERE name = $1)`, name).Scan(&found)
	return found, err
}

func pgHubsAt(ctx context.Context, tx pgx.Tx, location string) ([]domain.Hub, error) {
	rows, err := tx.Query(ctx, `
		SELECT code, name, location, capacity, address FROM hubs
		WHERE location = $1
		ORDER BY code
	`, location)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Hub, error) {
		var hub domain.Hub
		err := row.Scan(&hub.Code, &hub.Name, &hub.Location, &hub.Capacity, &hub.Address)
		return hub, err
	})
}

func scanConnection(row pgx.Row) (domain.Connection, error) {
	var c domain.Connection
	err := row.Scan(&c.ID, &c.FromHub, &c.ToHub, &c.Identifier, &c.Cost, &c.DurationMinutes, &c.Operator)
	return c, err
}
