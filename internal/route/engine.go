package route

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sort"

	"github.com/Zereker/skyroute/internal/domain"
	"github.com/Zereker/skyroute/pkg/log"
)

// DefaultMaxPaths bounds the number of partial walks kept per depth.
const DefaultMaxPaths = 10000

// Engine enumerates bounded-depth walks over a snapshot. It holds no graph
// state and is safe for concurrent use.
type Engine struct {
	logger   *slog.Logger
	maxPaths int
}

// NewEngine creates an engine. maxPaths <= 0 disables the frontier cap.
func NewEngine(maxPaths int) *Engine {
	return &Engine{
		logger:   log.Logger("route"),
		maxPaths: maxPaths,
	}
}

// walk is a partial path ending at hub.
type walk struct {
	origin   string
	hub      string
	conns    []domain.Connection
	cost     float64
	duration int
}

func (w walk) extend(c domain.Connection) walk {
	conns := make([]domain.Connection, len(w.conns), len(w.conns)+1)
	copy(conns, w.conns)

	return walk{
		origin:   w.origin,
		hub:      c.ToHub,
		conns:    append(conns, c),
		cost:     w.cost + c.CostOrZero(),
		duration: w.duration + c.DurationOrZero(),
	}
}

func (w walk) result() domain.RouteResult {
	ids := make([]string, 0, len(w.conns))
	for _, c := range w.conns {
		if c.Identifier != "" {
			ids = append(ids, c.Identifier)
		}
	}
	if len(ids) == 0 {
		ids = append(ids, domain.UnidentifiedSegment)
	}

	return domain.RouteResult{
		FromHub:              w.origin,
		ToHub:                w.hub,
		Connections:          ids,
		Hops:                 len(w.conns),
		TotalCost:            w.cost,
		TotalDurationMinutes: w.duration,
	}
}

// Search returns every walk of 1..maxHops connections that starts at an origin
// hub and ends at a target hub, ordered by ascending total cost.
//
// Walks are discovered breadth first, origins by code and departures by
// (to hub, identifier, id). Ties in cost keep that order, so shorter routes
// come first.
func (e *Engine) Search(ctx context.Context, snap *domain.Snapshot, maxHops int) ([]domain.RouteResult, error) {
	results := make([]domain.RouteResult, 0)
	if snap == nil || maxHops <= 0 || len(snap.Origins) == 0 || len(snap.Targets) == 0 {
		return results, nil
	}

	departures := sortedDepartures(snap.Departures)

	origins := slices.Clone(snap.Origins)
	slices.SortFunc(origins, func(a, b domain.Hub) int { return cmp.Compare(a.Code, b.Code) })

	frontier := make([]walk, 0, len(origins))
	for _, hub := range origins {
		frontier = append(frontier, walk{origin: hub.Code, hub: hub.Code})
	}

	truncated := false
	for depth := 1; depth <= maxHops && len(frontier) > 0; depth++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		last := depth == maxHops
		var next []walk
		for _, w := range frontier {
			for _, c := range departures[w.hub] {
				extended := w.extend(c)
				if snap.IsTarget(extended.hub) {
					results = append(results, extended.result())
				}
				if last {
					continue
				}
				if e.maxPaths > 0 && len(next) >= e.maxPaths {
					truncated = true
					continue
				}
				next = append(next, extended)
			}
		}
		frontier = next
	}

	if truncated {
		e.logger.Warn("frontier truncated", "max_paths", e.maxPaths, "max_hops", maxHops, "routes", len(results))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].TotalCost < results[j].TotalCost
	})
	return results, nil
}

func sortedDepartures(in map[string][]domain.Connection) map[string][]domain.Connection {
	out := make(map[string][]domain.Connection, len(in))
	for code, conns := range in {
		sorted := slices.Clone(conns)
		slices.SortFunc(sorted, func(a, b domain.Connection) int {
			return cmp.Or(
				cmp.Compare(a.ToHub, b.ToHub),
				cmp.Compare(a.Identifier, b.Identifier),
				cmp.Compare(a.ID, b.ID),
			)
		})
		out[code] = sorted
	}
	return out
}
