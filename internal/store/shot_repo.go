package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Johnjr1/BallPoint/internal/domain"
)

// ShotRepo handles persistence for archived ShotEvent records.
type ShotRepo struct{}

// AppendTx inserts one shot within an existing transaction. seqNo is the
// shot's position in the session log, starting at 1.
func (r *ShotRepo) AppendTx(ctx context.Context, tx *sql.Tx, sessionID string, seqNo int64, shot domain.ShotEvent) error {
	const q = `INSERT INTO shots (shot_id, session_id, seq_no, zone, outcome, created_at)
VALUES (?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q,
		shot.ID,
		sessionID,
		seqNo,
		string(shot.Zone),
		string(shot.Outcome),
		shot.CreatedAtUnix,
	)
	if err != nil {
		return fmt.Errorf("append shot: %w", err)
	}
	return nil
}

// ListBySession returns a session's shots in log order.
func (r *ShotRepo) ListBySession(ctx context.Context, db *sql.DB, sessionID string) ([]domain.ShotEvent, error) {
	const q = `SELECT shot_id, zone, outcome, created_at
FROM shots WHERE session_id = ? ORDER BY seq_no ASC`

	rows, err := db.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list shots: %w", err)
	}
	defer rows.Close()

	var shots []domain.ShotEvent
	for rows.Next() {
		var s domain.ShotEvent
		var zone, outcome string
		if err := rows.Scan(&s.ID, &zone, &outcome, &s.CreatedAtUnix); err != nil {
			return nil, fmt.Errorf("scan shot: %w", err)
		}
		s.Zone = domain.Zone(zone)
		s.Outcome = domain.ShotOutcome(outcome)
		shots = append(shots, s)
	}
	return shots, rows.Err()
}

// DeleteAllTx removes every archived shot within a transaction.
func (r *ShotRepo) DeleteAllTx(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM shots`); err != nil {
		return fmt.Errorf("delete shots: %w", err)
	}
	return nil
}
