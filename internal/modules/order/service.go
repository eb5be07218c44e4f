// README: Update processor; applies parsed status updates to the store.
package order

import (
	"context"
	"errors"
	"time"

	"statusbot/internal/modules/vocab"
	"statusbot/internal/types"
)

var (
	ErrNotFound   = errors.New("order not found")
	ErrBadRequest = errors.New("bad request")
)

// Rejection reasons carried in ApplyResult.
const ReasonAlreadyCompleted = "already_completed"

type Rejection struct {
	ID     types.ID
	Reason string
	// CompletedBy names the actor who closed the order, for user-facing
	// "already completed by X" messaging.
	CompletedBy string
}

// ApplyResult summarizes one batch. Notify lists ids whose new status is
// the escalation status; sending the actual admin alert is the caller's
// job, the store performs no I/O side effects of its own.
type ApplyResult struct {
	Updated  []types.ID
	Rejected []Rejection
	Notify   []types.ID
}

type ApplyCommand struct {
	IDs    []types.ID
	Status vocab.Status
	Actor  types.Actor
}

type BulkDoneCommand struct {
	Actor types.Actor
}

type UndoCommand struct {
	ID types.ID
}

// Service orchestrates parse results against the store. All multi-record
// mutations run inside a single Store.Update, atomically with respect to
// concurrent single-order updates.
type Service struct {
	store *Store
	now   func() time.Time
}

func NewService(store *Store) *Service {
	return &Service{
		store: store,
		now:   func() time.Time { return time.Now().In(BusinessZone) },
	}
}

// WithClock substitutes the business clock. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Apply processes each id in the batch independently: unknown ids create
// a record, terminal records reject, everything else appends. A rejected
// id never aborts the rest of the batch.
func (s *Service) Apply(ctx context.Context, cmd ApplyCommand) (ApplyResult, error) {
	if len(cmd.IDs) == 0 || cmd.Status == "" {
		return ApplyResult{}, ErrBadRequest
	}

	var res ApplyResult
	err := s.store.Update(ctx, func(snap Snapshot) error {
		now := s.now()
		for _, id := range cmd.IDs {
			rec, ok := snap[id]
			if ok && vocab.IsTerminal(rec.Status) {
				res.Rejected = append(res.Rejected, Rejection{
					ID:          id,
					Reason:      ReasonAlreadyCompleted,
					CompletedBy: rec.Latest().ActorName,
				})
				continue
			}
			entry := Entry{
				Status:    cmd.Status,
				ActorID:   cmd.Actor.ID,
				ActorName: cmd.Actor.Name,
				Timestamp: now,
			}
			if !ok {
				rec = &Record{}
				snap[id] = rec
			}
			rec.append(entry)
			res.Updated = append(res.Updated, id)
			if vocab.IsEscalation(cmd.Status) {
				res.Notify = append(res.Notify, id)
			}
		}
		if len(res.Updated) == 0 {
			// Nothing changed; skip the save but still report rejections.
			return errNoChange
		}
		return nil
	})
	if errors.Is(err, errNoChange) {
		err = nil
	}
	if err != nil {
		return ApplyResult{}, err
	}
	return res, nil
}

// errNoChange short-circuits the save when a batch rejected every id.
var errNoChange = errors.New("no change")

// BulkDone closes every order assigned to the actor that is neither
// terminal nor escalated. Escalated ("no answer") orders need a human
// decision and an explicit "<id> done"; they are deliberately left open.
func (s *Service) BulkDone(ctx context.Context, cmd BulkDoneCommand) (ApplyResult, error) {
	if cmd.Actor.ID == "" {
		return ApplyResult{}, ErrBadRequest
	}

	var res ApplyResult
	err := s.store.Update(ctx, func(snap Snapshot) error {
		now := s.now()
		for id, rec := range snap {
			if rec.ActorID != cmd.Actor.ID {
				continue
			}
			if vocab.IsTerminal(rec.Status) || vocab.IsEscalation(rec.Status) {
				continue
			}
			rec.append(Entry{
				Status:    vocab.StatusDone,
				ActorID:   cmd.Actor.ID,
				ActorName: cmd.Actor.Name,
				Timestamp: now,
			})
			res.Updated = append(res.Updated, id)
		}
		if len(res.Updated) == 0 {
			return errNoChange
		}
		return nil
	})
	if errors.Is(err, errNoChange) {
		err = nil
	}
	if err != nil {
		return ApplyResult{}, err
	}
	sortIDs(res.Updated)
	return res, nil
}

// Undo reverts a completed order to the last non-terminal state in its
// history, or to the Pending sentinel when none exists. History is not
// truncated; the revert is recorded as a fresh entry so the log stays
// append-only and auditable.
func (s *Service) Undo(ctx context.Context, cmd UndoCommand) (vocab.Status, error) {
	if cmd.ID == "" {
		return "", ErrBadRequest
	}

	var restored vocab.Status
	err := s.store.Update(ctx, func(snap Snapshot) error {
		rec, ok := snap[cmd.ID]
		if !ok {
			return ErrNotFound
		}

		entry := Entry{Status: vocab.StatusPending, Timestamp: s.now()}
		for i := len(rec.History) - 1; i >= 0; i-- {
			if !vocab.IsTerminal(rec.History[i].Status) {
				prev := rec.History[i]
				entry.Status = prev.Status
				entry.ActorID = prev.ActorID
				entry.ActorName = prev.ActorName
				break
			}
		}
		restored = entry.Status

		rec.History = append(rec.History, entry)
		rec.Status = entry.Status
		rec.Timestamp = entry.Timestamp
		rec.ActorID = entry.ActorID
		rec.ActorName = entry.ActorName
		return nil
	})
	if err != nil {
		return "", err
	}
	return restored, nil
}

// Reset clears the whole store. Irreversible. The privilege check belongs
// to the caller; the store trusts it.
func (s *Service) Reset(ctx context.Context) error {
	return s.store.Update(ctx, func(snap Snapshot) error {
		for id := range snap {
			delete(snap, id)
		}
		return nil
	})
}
