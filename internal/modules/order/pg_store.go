// README: Postgres backend; one row per order, history as JSONB.
package order

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"statusbot/internal/modules/vocab"
	"statusbot/internal/types"
)

// PgBackend persists the snapshot in a single table. Save rewrites the
// table inside one transaction, which keeps the backend contract (full
// snapshot in, full snapshot out) while staying atomic; the store is a
// few hundred orders a day, not a warehouse.
type PgBackend struct {
	db *pgxpool.Pool
}

func NewPgBackend(db *pgxpool.Pool) *PgBackend {
	return &PgBackend{db: db}
}

// EnsureSchema creates the orders table if it does not exist. Called once
// at startup.
func (p *PgBackend) EnsureSchema(ctx context.Context) error {
	_, err := p.db.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS orders (
            id         TEXT PRIMARY KEY,
            status     TEXT NOT NULL,
            agent_id   TEXT NOT NULL DEFAULT '',
            agent      TEXT NOT NULL DEFAULT '',
            updated_at TIMESTAMPTZ NOT NULL,
            history    JSONB NOT NULL
        )`)
	return err
}

func (p *PgBackend) Load(ctx context.Context) (Snapshot, error) {
	rows, err := p.db.Query(ctx, `
        SELECT id, status, agent_id, agent, updated_at, history
        FROM orders`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snap := Snapshot{}
	for rows.Next() {
		var (
			id      string
			rec     Record
			status  string
			updated time.Time
			history []byte
		)
		if err := rows.Scan(&id, &status, &rec.ActorID, &rec.ActorName, &updated, &history); err != nil {
			return nil, err
		}
		rec.Status = vocab.Status(status)
		rec.Timestamp = updated.In(BusinessZone)
		if err := json.Unmarshal(history, &rec.History); err != nil {
			return nil, fmt.Errorf("decode history for order %s: %w", id, err)
		}
		snap[types.ID(id)] = &rec
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	snap.normalize()
	return snap, nil
}

func (p *PgBackend) Save(ctx context.Context, snap Snapshot) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM orders`); err != nil {
		return err
	}
	for id, rec := range snap {
		history, err := json.Marshal(rec.History)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
            INSERT INTO orders (id, status, agent_id, agent, updated_at, history)
            VALUES ($1, $2, $3, $4, $5, $6)`,
			string(id),
			string(rec.Status),
			rec.ActorID,
			rec.ActorName,
			rec.Timestamp,
			history,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
