// README: Read-only projections: lookup, per-agent orders, daily stats.
package order

import (
	"context"
	"sort"
	"time"

	"statusbot/internal/modules/vocab"
	"statusbot/internal/types"
)

// ListedOrder pairs an id with a copy of its record for rendering.
type ListedOrder struct {
	ID     types.ID
	Record Record
}

// Stats is the daily aggregate. InProgress counts statuses that are
// neither terminal nor escalation.
type Stats struct {
	Total      int
	Completed  int
	InProgress int
	Escalated  int
	PerActor   map[string]int
}

// Lookup returns a copy of one record or ErrNotFound.
func (s *Service) Lookup(ctx context.Context, id types.ID) (*Record, error) {
	var out *Record
	err := s.store.View(ctx, func(snap Snapshot) error {
		rec, ok := snap[id]
		if !ok {
			return ErrNotFound
		}
		out = rec.clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// OrdersByActor lists orders the actor currently owns or has ever
// touched, id-ordered. The store is small enough to materialize fully.
func (s *Service) OrdersByActor(ctx context.Context, actorID string) ([]ListedOrder, error) {
	var out []ListedOrder
	err := s.store.View(ctx, func(snap Snapshot) error {
		for id, rec := range snap {
			if rec.ActorID == actorID || historyHasActor(rec, actorID) {
				out = append(out, ListedOrder{ID: id, Record: *rec.clone()})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Recent returns the n most recently updated records, newest first.
func (s *Service) Recent(ctx context.Context, n int) ([]ListedOrder, error) {
	var out []ListedOrder
	err := s.store.View(ctx, func(snap Snapshot) error {
		for id, rec := range snap {
			out = append(out, ListedOrder{ID: id, Record: *rec.clone()})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Record.Timestamp.Equal(out[j].Record.Timestamp) {
			return out[i].ID < out[j].ID
		}
		return out[i].Record.Timestamp.After(out[j].Record.Timestamp)
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// DailyStats aggregates over each record's most recent history entry on
// the given calendar day (business clock). Records without an entry on
// that day are excluded.
func (s *Service) DailyStats(ctx context.Context, day time.Time) (Stats, error) {
	stats := Stats{PerActor: map[string]int{}}
	y, m, d := day.In(BusinessZone).Date()

	err := s.store.View(ctx, func(snap Snapshot) error {
		for _, rec := range snap {
			entry, ok := lastEntryOn(rec, y, m, d)
			if !ok {
				continue
			}
			stats.Total++
			switch {
			case vocab.IsTerminal(entry.Status):
				stats.Completed++
			case vocab.IsEscalation(entry.Status):
				stats.Escalated++
			default:
				stats.InProgress++
			}
			stats.PerActor[entry.ActorName]++
		}
		return nil
	})
	if err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func lastEntryOn(rec *Record, y int, m time.Month, d int) (Entry, bool) {
	for i := len(rec.History) - 1; i >= 0; i-- {
		ey, em, ed := rec.History[i].Timestamp.In(BusinessZone).Date()
		if ey == y && em == m && ed == d {
			return rec.History[i], true
		}
	}
	return Entry{}, false
}

func historyHasActor(rec *Record, actorID string) bool {
	for _, e := range rec.History {
		if e.ActorID == actorID {
			return true
		}
	}
	return false
}

func sortIDs(ids []types.ID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
