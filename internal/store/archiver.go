package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Johnjr1/BallPoint/internal/domain"
)

// Archiver receives finished shot logs for persistence. The engine never
// touches it directly; the runner forwards the completed session exactly once.
type Archiver interface {
	Save(ctx context.Context, session *domain.DrillSession) error
	ListAll(ctx context.Context) ([]*domain.DrillSession, error)
	Clear(ctx context.Context) error
}

// SQLiteArchiver persists sessions and their shot logs to SQLite.
type SQLiteArchiver struct {
	DB       *sql.DB
	Sessions *SessionRepo
	Shots    *ShotRepo
}

// NewArchiver creates an archiver backed by the given database.
func NewArchiver(db *sql.DB) *SQLiteArchiver {
	return &SQLiteArchiver{
		DB:       db,
		Sessions: &SessionRepo{},
		Shots:    &ShotRepo{},
	}
}

// Save writes the session row and its full shot log in one transaction.
func (a *SQLiteArchiver) Save(ctx context.Context, session *domain.DrillSession) error {
	tx, err := a.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := a.Sessions.SaveTx(ctx, tx, session); err != nil {
		return err
	}
	for i, shot := range session.Shots {
		if err := a.Shots.AppendTx(ctx, tx, session.ID, int64(i+1), shot); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListAll returns every archived session with its shot log, newest first.
func (a *SQLiteArchiver) ListAll(ctx context.Context) ([]*domain.DrillSession, error) {
	sessions, err := a.Sessions.ListAll(ctx, a.DB)
	if err != nil {
		return nil, err
	}
	for _, s := range sessions {
		shots, err := a.Shots.ListBySession(ctx, a.DB, s.ID)
		if err != nil {
			return nil, err
		}
		s.Shots = shots
	}
	return sessions, nil
}

// Clear removes all archived sessions and shots.
func (a *SQLiteArchiver) Clear(ctx context.Context) error {
	tx, err := a.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := a.Shots.DeleteAllTx(ctx, tx); err != nil {
		return err
	}
	if err := a.Sessions.DeleteAllTx(ctx, tx); err != nil {
		return err
	}

	return tx.Commit()
}
