package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Zereker/skyroute/internal/domain"
)

// MemoryStore keeps the graph in process memory.
//
// Collections are keyed by their stable identifiers and relationships are index
// maps, never pointers. One RWMutex serialises writers; each mutation performs
// its existence check and insert under the same write lock.
type MemoryStore struct {
	mu sync.RWMutex

	locations   map[string]domain.Location   // name -> location
	hubs        map[string]domain.Hub        // code -> hub
	connections map[string]domain.Connection // id -> connection

	hubsByLocation map[string][]string // location name -> hub codes
	departures     map[string][]string // hub code -> connection ids
	byIdentifier   map[string]string   // identifier -> connection id
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	s.clear()
	return s
}

func (s *MemoryStore) clear() {
	s.locations = make(map[string]domain.Location)
	s.hubs = make(map[string]domain.Hub)
	s.connections = make(map[string]domain.Connection)
	s.hubsByLocation = make(map[string][]string)
	s.departures = make(map[string][]string)
	s.byIdentifier = make(map[string]string)
}

// ============================================================================
// Mutations
// ============================================================================

func (s *MemoryStore) RegisterLocation(_ context.Context, in domain.LocationInput) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.locations[in.Name]; ok {
		return "", domain.AlreadyExists("location %q", in.Name)
	}

	s.locations[in.Name] = domain.Location{Name: in.Name, Country: in.Country}
	return in.Name, nil
}

func (s *MemoryStore) RegisterHub(_ context.Context, in domain.HubInput) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.locations[in.Location]; !ok {
		return "", domain.NotFound("location %q", in.Location)
	}
	if _, ok := s.hubs[in.Code]; ok {
		return "", domain.AlreadyExists("hub %q", in.Code)
	}

	s.hubs[in.Code] = in.Hub()
	s.hubsByLocation[in.Location] = append(s.hubsByLocation[in.Location], in.Code)
	return in.Code, nil
}

func (s *MemoryStore) RegisterConnection(_ context.Context, in domain.ConnectionInput) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.hubs[in.FromHub]; !ok {
		return "", domain.NotFound("hub %q", in.FromHub)
	}
	if _, ok := s.hubs[in.ToHub]; !ok {
		return "", domain.NotFound("hub %q", in.ToHub)
	}
	if _, ok := s.byIdentifier[in.Identifier]; ok && in.Identifier != "" {
		return "", domain.AlreadyExists("connection %q", in.Identifier)
	}

	id := uuid.NewString()
	s.connections[id] = in.Connection(id)
	if in.Identifier != "" {
		s.byIdentifier[in.Identifier] = id
	}
	s.departures[in.FromHub] = append(s.departures[in.FromHub], id)
	return id, nil
}

func (s *MemoryStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clear()
	return nil
}

// ============================================================================
// Lookups
// ============================================================================

func (s *MemoryStore) GetLocation(_ context.Context, name string) (domain.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loc, ok := s.locations[name]
	if !ok {
		return domain.Location{}, domain.NotFound("location %q", name)
	}
	return loc, nil
}

func (s *MemoryStore) ListLocations(_ context.Context, country string) ([]domain.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Location, 0, len(s.locations))
	for _, loc := range s.locations {
		if country != "" && loc.Country != country {
			continue
		}
		result = append(result, loc)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (s *MemoryStore) GetHub(_ context.Context, code string) (domain.Hub, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hub, ok := s.hubs[code]
	if !ok {
		return domain.Hub{}, domain.NotFound("hub %q", code)
	}
	return hub, nil
}

func (s *MemoryStore) ListHubs(_ context.Context, location string) ([]domain.Hub, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.locations[location]; !ok {
		return nil, domain.NotFound("location %q", location)
	}
	return s.hubsAt(location), nil
}

func (s *MemoryStore) GetConnection(_ context.Context, identifier string) (domain.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byIdentifier[identifier]
	if !ok {
		return domain.Connection{}, domain.NotFound("connection %q", identifier)
	}
	return s.connections[id].Clone(), nil
}

// Snapshot copies the reachable part of the graph under the read lock. The
// caller walks the copy after the lock is released.
func (s *MemoryStore) Snapshot(ctx context.Context, from, to string, maxHops int) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.locations[from]; !ok {
		return nil, domain.NotFound("location %q", from)
	}
	if _, ok := s.locations[to]; !ok {
		return nil, domain.NotFound("location %q", to)
	}

	snap := domain.NewSnapshot()
	snap.Origins = s.hubsAt(from)
	for _, code := range s.hubsByLocation[to] {
		snap.Targets[code] = struct{}{}
	}

	err := expand(ctx, snap, maxHops, func(_ context.Context, codes []string) (map[string][]domain.Connection, error) {
		loaded := make(map[string][]domain.Connection, len(codes))
		for _, code := range codes {
			ids := s.departures[code]
			conns := make([]domain.Connection, 0, len(ids))
			for _, id := range ids {
				conns = append(conns, s.connections[id].Clone())
			}
			loaded[code] = conns
		}
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}

	return snap, nil
}

func (s *MemoryStore) Health(context.Context) error { return nil }

func (s *MemoryStore) Close(context.Context) error { return nil }

// hubsAt returns the hubs of a location sorted by code. Callers hold the lock.
func (s *MemoryStore) hubsAt(location string) []domain.Hub {
	codes := s.hubsByLocation[location]
	hubs := make([]domain.Hub, 0, len(codes))
	for _, code := range codes {
		hubs = append(hubs, s.hubs[code])
	}

	sort.Slice(hubs, func(i, j int) bool { return hubs[i].Code < hubs[j].Code })
	return hubs
}
