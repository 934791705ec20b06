package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zereker/skyroute/internal/domain"
	"github.com/Zereker/skyroute/internal/route"
	"github.com/Zereker/skyroute/internal/store"
	"github.com/Zereker/skyroute/pkg/mq"
)

const eventsTopic = "skyroute.events"

func ptrFloat(v float64) *float64 { return &v }
func ptrInt(v int) *int           { return &v }

func newTestService(t *testing.T, opts ...Option) (*Service, *mq.InMemoryQueue) {
	t.Helper()

	cfg := SearchConfig{}
	require.NoError(t, cfg.Validate())

	queue := mq.NewInMemoryQueue()
	opts = append([]Option{WithEvents(queue, eventsTopic)}, opts...)
	return New(store.NewMemoryStore(), cfg, opts...), queue
}

// seedNetwork registers A -> B -> C with a1->b1 (100, 60) and b1->c1 (50, 30).
func seedNetwork(t *testing.T, s *Service) {
	t.Helper()
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		_, err := s.RegisterLocation(ctx, domain.LocationInput{Name: name, Country: "X"})
		require.NoError(t, err)
	}
	for _, hub := range []domain.HubInput{
		{Location: "A", Code: "a1", Name: "a1"},
		{Location: "B", Code: "b1", Name: "b1"},
		{Location: "C", Code: "c1", Name: "c1"},
	} {
		_, err := s.RegisterHub(ctx, hub)
		require.NoError(t, err)
	}
	for _, c := range []domain.ConnectionInput{
		{FromHub: "a1", ToHub: "b1", Identifier: "AB100", Cost: ptrFloat(100), DurationMinutes: ptrInt(60)},
		{FromHub: "b1", ToHub: "c1", Identifier: "BC200", Cost: ptrFloat(50), DurationMinutes: ptrInt(30)},
	} {
		_, err := s.RegisterConnection(ctx, c)
		require.NoError(t, err)
	}
}

func decodeEvents(t *testing.T, queue *mq.InMemoryQueue) []Event {
	t.Helper()

	var events []Event
	for _, raw := range queue.GetMessages(eventsTopic) {
		var e Event
		require.NoError(t, json.Unmarshal(raw, &e))
		events = append(events, e)
	}
	return events
}

func TestSearchRoutes(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	seedNetwork(t, s)

	resp, err := s.SearchRoutes(ctx, domain.SearchRequest{From: "A", To: "C"})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.MaxHops, "zero selects the default")
	require.Len(t, resp.Routes, 1)
	assert.Equal(t, 150.0, resp.Routes[0].TotalCost)
	assert.Equal(t, 90, resp.Routes[0].TotalDurationMinutes)
	assert.Equal(t, []string{"AB100", "BC200"}, resp.Routes[0].Connections)

	_, err = s.RegisterConnection(ctx, domain.ConnectionInput{FromHub: "a1", ToHub: "c1", Identifier: "AC300", Cost: ptrFloat(200)})
	require.NoError(t, err)

	resp, err = s.SearchRoutes(ctx, domain.SearchRequest{From: "A", To: "C"})
	require.NoError(t, err)
	require.Len(t, resp.Routes, 2)
	assert.Equal(t, 150.0, resp.Routes[0].TotalCost)
	assert.Equal(t, 200.0, resp.Routes[1].TotalCost)
}

func TestSearchRoutesErrors(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	seedNetwork(t, s)

	tests := []struct {
		name string
		req  domain.SearchRequest
		kind domain.Kind
	}{
		{"unknown origin", domain.SearchRequest{From: "Z", To: "C"}, domain.KindNotFound},
		{"unknown destination", domain.SearchRequest{From: "A", To: "Z"}, domain.KindNotFound},
		{"missing from", domain.SearchRequest{To: "C"}, domain.KindInvalidInput},
		{"negative hops", domain.SearchRequest{From: "A", To: "C", MaxHops: -1}, domain.KindInvalidInput},
		{"hops over limit", domain.SearchRequest{From: "A", To: "C", MaxHops: 5}, domain.KindInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.SearchRoutes(ctx, tt.req)
			assert.Equal(t, tt.kind, domain.KindOf(err))
		})
	}

	t.Run("no path is empty", func(t *testing.T) {
		resp, err := s.SearchRoutes(ctx, domain.SearchRequest{From: "C", To: "A"})
		require.NoError(t, err)
		assert.Empty(t, resp.Routes)
	})

	t.Run("hop bound excludes longer routes", func(t *testing.T) {
		resp, err := s.SearchRoutes(ctx, domain.SearchRequest{From: "A", To: "C", MaxHops: 1})
		require.NoError(t, err)
		assert.Empty(t, resp.Routes)
	})
}

func TestSearchRoutesCache(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t, WithCache(route.NewMemoryCache(0)))
	seedNetwork(t, s)

	first, err := s.SearchRoutes(ctx, domain.SearchRequest{From: "A", To: "C"})
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := s.SearchRoutes(ctx, domain.SearchRequest{From: "A", To: "C", MaxHops: 3})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Routes, second.Routes)

	_, err = s.RegisterConnection(ctx, domain.ConnectionInput{FromHub: "a1", ToHub: "c1", Identifier: "AC300", Cost: ptrFloat(10)})
	require.NoError(t, err)

	third, err := s.SearchRoutes(ctx, domain.SearchRequest{From: "A", To: "C"})
	require.NoError(t, err)
	assert.False(t, third.Cached, "a mutation invalidates cached routes")
	require.Len(t, third.Routes, 2)
	assert.Equal(t, []string{"AC300"}, third.Routes[0].Connections)

	require.NoError(t, s.Reset(ctx))
	_, err = s.SearchRoutes(ctx, domain.SearchRequest{From: "A", To: "C"})
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err), "reset invalidates cached routes")
}

type brokenCache struct{}

var errBroken = errors.New("cache down")

func (brokenCache) Generation(context.Context) (int64, error) { return 0, errBroken }
func (brokenCache) Bump(context.Context) error                { return errBroken }
func (brokenCache) Get(context.Context, string) ([]domain.RouteResult, bool, error) {
	return nil, false, errBroken
}
func (brokenCache) Set(context.Context, string, []domain.RouteResult) error { return errBroken }

func TestCacheFailuresDoNotFailRequests(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t, WithCache(brokenCache{}))
	seedNetwork(t, s)

	resp, err := s.SearchRoutes(ctx, domain.SearchRequest{From: "A", To: "C"})
	require.NoError(t, err)
	assert.False(t, resp.Cached)
	assert.Len(t, resp.Routes, 1)
}

func TestEvents(t *testing.T) {
	ctx := context.Background()
	s, queue := newTestService(t)
	seedNetwork(t, s)

	events := decodeEvents(t, queue)
	require.Len(t, events, 8)

	assert.Equal(t, domain.EventLocationRegistered, events[0].Type)
	assert.Equal(t, "A", events[0].Key)
	assert.Equal(t, domain.EventHubRegistered, events[3].Type)
	assert.Equal(t, "a1", events[3].Key)
	assert.Equal(t, domain.EventConnectionRegistered, events[6].Type)
	assert.NotEmpty(t, events[6].Key)
	for _, e := range events {
		assert.NotEmpty(t, e.ID)
		assert.False(t, e.OccurredAt.IsZero())
	}

	t.Run("rejected mutation publishes nothing", func(t *testing.T) {
		_, err := s.RegisterLocation(ctx, domain.LocationInput{Name: "A", Country: "X"})
		assert.Equal(t, domain.KindAlreadyExists, domain.KindOf(err))
		assert.Len(t, queue.GetMessages(eventsTopic), 8)
	})

	t.Run("reset", func(t *testing.T) {
		require.NoError(t, s.Reset(ctx))
		events := decodeEvents(t, queue)
		assert.Equal(t, domain.EventNetworkReset, events[len(events)-1].Type)
	})

	t.Run("publish failure does not fail mutation", func(t *testing.T) {
		require.NoError(t, queue.Close())
		_, err := s.RegisterLocation(ctx, domain.LocationInput{Name: "D", Country: "X"})
		assert.NoError(t, err)
	})
}

func TestLookups(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	seedNetwork(t, s)

	loc, err := s.GetLocation(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, "X", loc.Country)

	locs, err := s.ListLocations(ctx, "X")
	require.NoError(t, err)
	assert.Len(t, locs, 3)

	hub, err := s.GetHub(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "B", hub.Location)

	hubs, err := s.ListHubs(ctx, "C")
	require.NoError(t, err)
	assert.Len(t, hubs, 1)

	c, err := s.GetConnection(ctx, "AB100")
	require.NoError(t, err)
	assert.Equal(t, "b1", c.ToHub)

	assert.NoError(t, s.Health(ctx))
}

func TestSearchConfigValidate(t *testing.T) {
	cfg := SearchConfig{}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultSearchConfig(), cfg)

	bad := []SearchConfig{
		{DefaultMaxHops: -1},
		{DefaultMaxHops: 4, MaxHopsLimit: 3},
		{CacheTTL: "soon"},
		{CacheTTL: "-1s"},
	}
	for _, c := range bad {
		assert.Error(t, c.Validate(), "%+v", c)
	}

	ttl := SearchConfig{CacheTTL: "30s"}
	require.NoError(t, ttl.Validate())
	d, err := ttl.TTL()
	require.NoError(t, err)
	assert.Equal(t, "30s", d.String())
}
