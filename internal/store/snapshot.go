package store

import (
	"context"

	"github.com/Zereker/skyroute/internal/domain"
)

// departuresFunc loads the outgoing connections of the given hubs. Hubs with
// no departures may be absent from the returned map.
type departuresFunc func(ctx context.Context, codes []string) (map[string][]domain.Connection, error)

// expand fills snap.Departures breadth-first from the origin hubs.
//
// An edge leaving a hub first reached at depth d can sit at position d+1 of a
// walk, so hubs are expanded up to depth maxHops-1 and each hub only once.
func expand(ctx context.Context, snap *domain.Snapshot, maxHops int, load departuresFunc) error {
	frontier := make([]string, 0, len(snap.Origins))
	for _, hub := range snap.Origins {
		frontier = append(frontier, hub.Code)
	}

	for depth := 0; depth < maxHops && len(frontier) > 0; depth++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		pending := make([]string, 0, len(frontier))
		queued := make(map[string]struct{}, len(frontier))
		for _, code := range frontier {
			if _, seen := snap.Departures[code]; seen {
				continue
			}
			if _, ok := queued[code]; ok {
				continue
			}
			queued[code] = struct{}{}
			pending = append(pending, code)
		}
		if len(pending) == 0 {
			break
		}

		loaded, err := load(ctx, pending)
		if err != nil {
			return err
		}

		var next []string
		for _, code := range pending {
			conns := loaded[code]
			if conns == nil {
				conns = []domain.Connection{}
			}
			snap.Departures[code] = conns
			for _, c := range conns {
				next = append(next, c.ToHub)
			}
		}
		frontier = next
	}

	return nil
}
