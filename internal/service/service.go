// Package service applies registrations and route searches against a store,
// keeping the route cache and the change-event stream in step with mutations.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Zereker/skyroute/internal/domain"
	"github.com/Zereker/skyroute/internal/route"
	"github.com/Zereker/skyroute/internal/store"
	"github.com/Zereker/skyroute/pkg/log"
	"github.com/Zereker/skyroute/pkg/mq"
)

// Event is published after every successful mutation.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Key        string    `json:"key,omitempty"`
}

// Service is the single entry point used by every transport.
type Service struct {
	logger *slog.Logger
	store  store.Store
	engine *route.Engine
	config SearchConfig

	cache  route.Cache
	events mq.MessageQueue
	topic  string
	now    func() time.Time
}

// Option configures optional collaborators.
type Option func(*Service)

// WithCache enables route result caching.
func WithCache(cache route.Cache) Option {
	return func(s *Service) { s.cache = cache }
}

// WithEvents publishes change events to topic.
func WithEvents(queue mq.MessageQueue, topic string) Option {
	return func(s *Service) {
		s.events = queue
		s.topic = topic
	}
}

// New creates a service. cfg must already be validated.
func New(st store.Store, cfg SearchConfig, opts ...Option) *Service {
	s := &Service{
		logger: log.Logger("service"),
		store:  st,
		engine: route.NewEngine(cfg.MaxPaths),
		config: cfg,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ============================================================================
// Registrations
// ============================================================================

func (s *Service) RegisterLocation(ctx context.Context, in domain.LocationInput) (string, error) {
	id, err := s.store.RegisterLocation(ctx, in)
	s.afterMutation(ctx, "register_location", domain.EventLocationRegistered, id, err)
	return id, err
}

func (s *Service) RegisterHub(ctx context.Context, in domain.HubInput) (string, error) {
	id, err := s.store.RegisterHub(ctx, in)
	s.afterMutation(ctx, "register_hub", domain.EventHubRegistered, id, err)
	return id, err
}

func (s *Service) RegisterConnection(ctx context.Context, in domain.ConnectionInput) (string, error) {
	id, err := s.store.RegisterConnection(ctx, in)
	s.afterMutation(ctx, "register_connection", domain.EventConnectionRegistered, id, err)
	return id, err
}

// Reset clears the whole network.
func (s *Service) Reset(ctx context.Context) error {
	err := s.store.Reset(ctx)
	s.afterMutation(ctx, "reset", domain.EventNetworkReset, "", err)
	return err
}

// afterMutation records the outcome and, on success, invalidates cached
// routes and publishes the change. Neither step can fail the mutation.
func (s *Service) afterMutation(ctx context.Context, op, eventType, key string, err error) {
	mutationTotal.WithLabelValues(op, resultLabel(err)).Inc()

	if err != nil {
		if domain.KindOf(err) == domain.KindUnavailable {
			s.logger.Error("mutation failed", "operation", op, "error", err)
		} else {
			s.logger.Debug("mutation rejected", "operation", op, "error", err)
		}
		return
	}

	s.logger.Info("mutation applied", "operation", op, "key", key)

	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Error("failed to invalidate route cache", "operation", op, "error", err)
		}
	}

	s.publish(eventType, key)
}

func (s *Service) publish(eventType, key string) {
	if s.events == nil || s.topic == "" {
		return
	}

	data, err := json.Marshal(Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: s.now().UTC(),
		Key:        key,
	})
	if err != nil {
		s.logger.Error("failed to encode event", "type", eventType, "error", err)
		return
	}

	if err := s.events.Publish(s.topic, data); err != nil {
		s.logger.Error("failed to publish event", "type", eventType, "topic", s.topic, "error", err)
	}
}

// ============================================================================
// Lookups
// ============================================================================

func (s *Service) GetLocation(ctx context.Context, name string) (domain.Location, error) {
	s.logger.Debug("get location", "name", name)
	return s.store.GetLocation(ctx, name)
}

func (s *Service) ListLocations(ctx context.Context, country string) ([]domain.Location, error) {
	s.logger.Debug("list locations", "country", country)
	return s.store.ListLocations(ctx, country)
}

func (s *Service) GetHub(ctx context.Context, code string) (domain.Hub, error) {
	s.logger.Debug("get hub", "code", code)
	return s.store.GetHub(ctx, code)
}

func (s *Service) ListHubs(ctx context.Context, location string) ([]domain.Hub, error) {
	s.logger.Debug("list hubs", "location", location)
	return s.store.ListHubs(ctx, location)
}

func (s *Service) GetConnection(ctx context.Context, identifier string) (domain.Connection, error) {
	s.logger.Debug("get connection", "identifier", identifier)
	return s.store.GetConnection(ctx, identifier)
}

func (s *Service) Health(ctx context.Context) error {
	return s.store.Health(ctx)
}

// ============================================================================
// Route search
// ============================================================================

// SearchRoutes returns the routes between two locations ranked by total cost.
// An unknown location is NotFound; no route within the hop bound is an empty
// result.
func (s *Service) SearchRoutes(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	start := time.Now()

	resp, err := s.searchRoutes(ctx, req)

	searchDuration.WithLabelValues(resultLabel(err)).Observe(time.Since(start).Seconds())
	if err != nil {
		if domain.KindOf(err) == domain.KindUnavailable {
			s.logger.Error("search failed", "from", req.From, "to", req.To, "error", err)
		}
		return nil, err
	}

	searchRoutes.Observe(float64(len(resp.Routes)))
	s.logger.Debug("search done",
		"from", resp.From,
		"to", resp.To,
		"max_hops", resp.MaxHops,
		"routes", len(resp.Routes),
		"cached", resp.Cached,
		"duration", time.Since(start).Milliseconds(),
	)
	return resp, nil
}

func (s *Service) searchRoutes(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	if err := req.Validate(s.config.MaxHopsLimit); err != nil {
		return nil, err
	}
	if req.MaxHops == 0 {
		req.MaxHops = s.config.DefaultMaxHops
	}

	resp := &domain.SearchResponse{From: req.From, To: req.To, MaxHops: req.MaxHops}

	// The generation is read before the snapshot so an entry is never keyed
	// newer than the data it was computed from.
	key, cacheable := s.cacheKey(ctx, req)
	if cacheable {
		routes, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			cacheLookups.WithLabelValues("error").Inc()
			s.logger.Warn("route cache read failed", "error", err)
		case ok:
			cacheLookups.WithLabelValues("hit").Inc()
			resp.Routes = routes
			resp.Cached = true
			return resp, nil
		default:
			cacheLookups.WithLabelValues("miss").Inc()
		}
	}

	snap, err := s.store.Snapshot(ctx, req.From, req.To, req.MaxHops)
	if err != nil {
		return nil, err
	}

	routes, err := s.engine.Search(ctx, snap, req.MaxHops)
	if err != nil {
		return nil, err
	}
	resp.Routes = routes

	if cacheable {
		if err := s.cache.Set(ctx, key, routes); err != nil {
			s.logger.Warn("route cache write failed", "error", err)
		}
	}
	return resp, nil
}

func (s *Service) cacheKey(ctx context.Context, req domain.SearchRequest) (string, bool) {
	if s.cache == nil {
		return "", false
	}

	gen, err := s.cache.Generation(ctx)
	if err != nil {
		cacheLookups.WithLabelValues("error").Inc()
		s.logger.Warn("route cache generation unavailable", "error", err)
		return "", false
	}
	return route.Key(gen, req.From, req.To, req.MaxHops), true
}
