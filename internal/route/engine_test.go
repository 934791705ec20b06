package route

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zereker/skyroute/internal/domain"
)

func ptrFloat(v float64) *float64 { return &v }
func ptrInt(v int) *int           { return &v }

// graph builds a snapshot from origin codes, target codes and connections.
func graph(origins, targets []string, conns ...domain.Connection) *domain.Snapshot {
	snap := domain.NewSnapshot()
	for _, code := range origins {
		snap.Origins = append(snap.Origins, domain.Hub{Code: code})
	}
	for _, code := range targets {
		snap.Targets[code] = struct{}{}
	}
	for i, c := range conns {
		if c.ID == "" {
			c.ID = fmt.Sprintf("id-%02d", i)
		}
		snap.Departures[c.FromHub] = append(snap.Departures[c.FromHub], c)
	}
	return snap
}

func conn(from, to, identifier string, cost float64, minutes int) domain.Connection {
	return domain.Connection{FromHub: from, ToHub: to, Identifier: identifier, Cost: ptrFloat(cost), DurationMinutes: ptrInt(minutes)}
}

func TestSearchTwoHop(t *testing.T) {
	snap := graph([]string{"a1"}, []string{"c1"},
		conn("a1", "b1", "AB100", 100, 60),
		conn("b1", "c1", "BC200", 50, 30),
	)

	routes, err := NewEngine(0).Search(context.Background(), snap, 3)
	require.NoError(t, err)
	require.Len(t, routes, 1)

	assert.Equal(t, domain.RouteResult{
		FromHub:              "a1",
		ToHub:                "c1",
		Connections:          []string{"AB100", "BC200"},
		Hops:                 2,
		TotalCost:            150,
		TotalDurationMinutes: 90,
	}, routes[0])
}

func TestSearchOrdersByCost(t *testing.T) {
	snap := graph([]string{"a1"}, []string{"c1"},
		conn("a1", "c1", "DIRECT", 200, 45),
		conn("a1", "b1", "AB100", 100, 60),
		conn("b1", "c1", "BC200", 50, 30),
	)

	routes, err := NewEngine(0).Search(context.Background(), snap, 3)
	require.NoError(t, err)
	require.Len(t, routes, 2)

	assert.Equal(t, 150.0, routes[0].TotalCost)
	assert.Equal(t, 200.0, routes[1].TotalCost)
	assert.Equal(t, []string{"DIRECT"}, routes[1].Connections)
}

func TestSearchNoPath(t *testing.T) {
	snap := graph([]string{"a1"}, []string{"c1"}, conn("c1", "a1", "CA", 10, 10))

	routes, err := NewEngine(0).Search(context.Background(), snap, 3)
	require.NoError(t, err)
	assert.NotNil(t, routes)
	assert.Empty(t, routes)
}

func TestSearchEmptyInputs(t *testing.T) {
	e := NewEngine(0)

	routes, err := e.Search(context.Background(), nil, 3)
	require.NoError(t, err)
	assert.Empty(t, routes)

	routes, err = e.Search(context.Background(), graph(nil, []string{"c1"}), 3)
	require.NoError(t, err)
	assert.Empty(t, routes)

	routes, err = e.Search(context.Background(), graph([]string{"a1"}, nil, conn("a1", "c1", "AC", 1, 1)), 3)
	require.NoError(t, err)
	assert.Empty(t, routes)
}

func TestSearchMissingNumericsCountAsZero(t *testing.T) {
	snap := graph([]string{"a1"}, []string{"c1"},
		domain.Connection{FromHub: "a1", ToHub: "b1", Identifier: "AB", DurationMinutes: ptrInt(40)},
		domain.Connection{FromHub: "b1", ToHub: "c1", Identifier: "BC", Cost: ptrFloat(70)},
	)

	routes, err := NewEngine(0).Search(context.Background(), snap, 3)
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, 70.0, routes[0].TotalCost)
	assert.Equal(t, 40, routes[0].TotalDurationMinutes)
}

func TestSearchHopBound(t *testing.T) {
	snap := graph([]string{"a1"}, []string{"e1"},
		conn("a1", "b1", "1", 1, 1),
		conn("b1", "c1", "2", 1, 1),
		conn("c1", "d1", "3", 1, 1),
		conn("d1", "e1", "4", 1, 1),
	)
	e := NewEngine(0)

	routes, err := e.Search(context.Background(), snap, 3)
	require.NoError(t, err)
	assert.Empty(t, routes, "four connections exceed three hops")

	routes, err = e.Search(context.Background(), snap, 4)
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, 4, routes[0].Hops)
	assert.Equal(t, []string{"1", "2", "3", "4"}, routes[0].Connections)
}

func TestSearchCyclesAllowed(t *testing.T) {
	// a1 <-> b1, target b1. Walks may revisit hubs within the hop bound.
	snap := graph([]string{"a1"}, []string{"b1"},
		conn("a1", "b1", "AB", 10, 10),
		conn("b1", "a1", "BA", 5, 5),
	)

	routes, err := NewEngine(0).Search(context.Background(), snap, 3)
	require.NoError(t, err)
	require.Len(t, routes, 2)

	assert.Equal(t, []string{"AB"}, routes[0].Connections)
	assert.Equal(t, []string{"AB", "BA", "AB"}, routes[1].Connections)
	assert.Equal(t, 25.0, routes[1].TotalCost)
	assert.Equal(t, 3, routes[1].Hops)
}

func TestSearchSelfLoopCycleTerminates(t *testing.T) {
	snap := graph([]string{"a1"}, []string{"c1"},
		conn("a1", "a1", "LOOP", 0, 0),
		conn("a1", "c1", "AC", 10, 10),
	)

	routes, err := NewEngine(0).Search(context.Background(), snap, 3)
	require.NoError(t, err)
	require.Len(t, routes, 3)
	for i, r := range routes {
		assert.Equal(t, 10.0, r.TotalCost)
		assert.Equal(t, i+1, r.Hops, "equal cost keeps shorter routes first")
	}
}

func TestSearchIdentifiers(t *testing.T) {
	t.Run("blank identifiers omitted", func(t *testing.T) {
		snap := graph([]string{"a1"}, []string{"c1"},
			conn("a1", "b1", "", 1, 1),
			conn("b1", "c1", "BC", 1, 1),
		)
		routes, err := NewEngine(0).Search(context.Background(), snap, 3)
		require.NoError(t, err)
		require.Len(t, routes, 1)
		assert.Equal(t, []string{"BC"}, routes[0].Connections)
		assert.Equal(t, 2, routes[0].Hops)
	})

	t.Run("all blank reports sentinel", func(t *testing.T) {
		snap := graph([]string{"a1"}, []string{"c1"},
			conn("a1", "b1", "", 1, 1),
			conn("b1", "c1", "", 1, 1),
		)
		routes, err := NewEngine(0).Search(context.Background(), snap, 3)
		require.NoError(t, err)
		require.Len(t, routes, 1)
		assert.Equal(t, []string{domain.UnidentifiedSegment}, routes[0].Connections)
	})
}

func TestSearchTiebreak(t *testing.T) {
	snap := graph([]string{"a2", "a1"}, []string{"c1"},
		conn("a2", "c1", "Z9", 100, 10),
		conn("a1", "c1", "Y2", 100, 10),
		conn("a1", "c1", "Y1", 100, 10),
	)

	routes, err := NewEngine(0).Search(context.Background(), snap, 1)
	require.NoError(t, err)
	require.Len(t, routes, 3)

	assert.Equal(t, []string{"Y1"}, routes[0].Connections)
	assert.Equal(t, []string{"Y2"}, routes[1].Connections)
	assert.Equal(t, "a2", routes[2].FromHub)
}

func TestSearchMaxPaths(t *testing.T) {
	var conns []domain.Connection
	for i := 0; i < 5; i++ {
		conns = append(conns, conn("a1", "b1", fmt.Sprintf("AB%d", i), 1, 1))
	}
	conns = append(conns, conn("b1", "c1", "BC", 1, 1))
	snap := graph([]string{"a1"}, []string{"c1"}, conns...)

	routes, err := NewEngine(2).Search(context.Background(), snap, 2)
	require.NoError(t, err)
	assert.Len(t, routes, 2, "only two partial walks survive the first depth")

	routes, err = NewEngine(0).Search(context.Background(), snap, 2)
	require.NoError(t, err)
	assert.Len(t, routes, 5)
}

func TestSearchCanceled(t *testing.T) {
	snap := graph([]string{"a1"}, []string{"b1"}, conn("a1", "b1", "AB", 1, 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngine(0).Search(ctx, snap, 3)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSearchDoesNotMutateSnapshot(t *testing.T) {
	snap := graph([]string{"a1"}, []string{"c1"},
		conn("a1", "c1", "Z", 1, 1),
		conn("a1", "c1", "A", 1, 1),
	)

	_, err := NewEngine(0).Search(context.Background(), snap, 1)
	require.NoError(t, err)
	assert.Equal(t, "Z", snap.Departures["a1"][0].Identifier)
}
