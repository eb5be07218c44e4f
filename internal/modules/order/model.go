// README: Order record, history entries and the persisted snapshot shape.
package order

import (
	"time"

	"statusbot/internal/modules/vocab"
	"statusbot/internal/types"
)

// BusinessZone is the fixed local clock the delivery operation runs on.
// All stored timestamps carry this offset explicitly so daily stats can
// tell days apart.
var BusinessZone = time.FixedZone("MVT", 5*60*60)

// Entry is one history line: who set which status, when. History is
// append-only; entries are never mutated or removed.
type Entry struct {
	Status    vocab.Status `json:"status"`
	ActorID   string       `json:"agent_id,omitempty"`
	ActorName string       `json:"agent"`
	Timestamp time.Time    `json:"timestamp"`
}

// Record is the persisted state of one order. Status, Timestamp and the
// actor fields mirror the latest relevant history entry; the assigned
// actor is the most recent non-escalation updater and owns the order for
// bulk-close purposes.
type Record struct {
	Status    vocab.Status `json:"status"`
	ActorID   string       `json:"agent_id,omitempty"`
	ActorName string       `json:"agent"`
	Timestamp time.Time    `json:"timestamp"`
	History   []Entry      `json:"history"`
}

// Latest returns the most recent history entry. A record always has at
// least one entry once it exists.
func (r *Record) Latest() Entry {
	if len(r.History) == 0 {
		return Entry{Status: r.Status, ActorID: r.ActorID, ActorName: r.ActorName, Timestamp: r.Timestamp}
	}
	return r.History[len(r.History)-1]
}

func (r *Record) append(e Entry) {
	r.History = append(r.History, e)
	r.Status = e.Status
	r.Timestamp = e.Timestamp
	if !vocab.IsEscalation(e.Status) {
		r.ActorID = e.ActorID
		r.ActorName = e.ActorName
	}
}

// clone returns a deep copy so views never alias store-owned memory.
func (r *Record) clone() *Record {
	cp := *r
	cp.History = make([]Entry, len(r.History))
	copy(cp.History, r.History)
	return &cp
}

// Snapshot is the full store state: order id to record. Ids are unique by
// construction of the map.
type Snapshot map[types.ID]*Record

// normalize upgrades flat legacy records (status-only, no history) to the
// canonical history-bearing shape so the rest of the code can assume a
// non-empty history.
func (s Snapshot) normalize() {
	for _, rec := range s {
		if len(rec.History) == 0 {
			rec.History = []Entry{{
				Status:    rec.Status,
				ActorID:   rec.ActorID,
				ActorName: rec.ActorName,
				Timestamp: rec.Timestamp,
			}}
		}
	}
}
