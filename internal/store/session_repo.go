package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Johnjr1/BallPoint/internal/domain"
)

// SessionRepo handles persistence for archived DrillSession rows.
type SessionRepo struct{}

// stepRow is the JSON shape of one program step in program_json.
type stepRow struct {
	Zone           string `json:"zone"`
	AttemptsTarget int    `json:"attempts_target,omitempty"`
	MakesTarget    int    `json:"makes_target,omitempty"`
}

// SaveTx inserts an archived session within an existing transaction.
func (r *SessionRepo) SaveTx(ctx context.Context, tx *sql.Tx, s *domain.DrillSession) error {
	programJSON, err := marshalSteps(s.Program.Steps)
	if err != nil {
		return fmt.Errorf("marshal program: %w", err)
	}

	const q = `INSERT INTO sessions (session_id, program_name, program_json, status, current_step, started_at_unix, completed_at_unix)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, q,
		s.ID,
		s.Program.Name,
		programJSON,
		string(s.Status),
		s.CurrentStepIndex,
		s.StartedAtUnix,
		s.CompletedAtUnix,
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// GetByID retrieves an archived session by its ID, without its shot log.
func (r *SessionRepo) GetByID(ctx context.Context, db *sql.DB, sessionID string) (*domain.DrillSession, error) {
	const q = `SELECT session_id, program_name, program_json, status, current_step, started_at_unix, completed_at_unix
FROM sessions WHERE session_id = ?`

	row := db.QueryRowContext(ctx, q, sessionID)
	s, err := scanSession(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return s, nil
}

// ListAll returns every archived session ordered by start time descending,
// without shot logs.
func (r *SessionRepo) ListAll(ctx context.Context, db *sql.DB) ([]*domain.DrillSession, error) {
	const q = `SELECT session_id, program_name, program_json, status, current_step, started_at_unix, completed_at_unix
FROM sessions ORDER BY started_at_unix DESC`

	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*domain.DrillSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// DeleteAllTx removes every archived session within a transaction.
func (r *SessionRepo) DeleteAllTx(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.DrillSession, error) {
	var s domain.DrillSession
	var programJSON, status string
	err := row.Scan(&s.ID, &s.Program.Name, &programJSON, &status,
		&s.CurrentStepIndex, &s.StartedAtUnix, &s.CompletedAtUnix)
	if err != nil {
		return nil, err
	}
	s.Status = domain.SessionStatus(status)

	steps, err := unmarshalSteps(programJSON)
	if err != nil {
		return nil, fmt.Errorf("unmarshal program: %w", err)
	}
	s.Program.Steps = steps
	return &s, nil
}

func marshalSteps(steps []domain.Step) (string, error) {
	rows := make([]stepRow, len(steps))
	for i, step := range steps {
		rows[i] = stepRow{
			Zone:           string(step.Zone),
			AttemptsTarget: step.AttemptsTarget,
			MakesTarget:    step.MakesTarget,
		}
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalSteps(raw string) ([]domain.Step, error) {
	var rows []stepRow
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		return nil, err
	}
	steps := make([]domain.Step, len(rows))
	for i, row := range rows {
		steps[i] = domain.Step{
			Zone:           domain.Zone(row.Zone),
			AttemptsTarget: row.AttemptsTarget,
			MakesTarget:    row.MakesTarget,
		}
	}
	return steps, nil
}
