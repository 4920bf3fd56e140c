// Package stats aggregates shooting statistics from archived sessions.
package stats

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Johnjr1/BallPoint/internal/domain"
	"github.com/Johnjr1/BallPoint/internal/drill"
)

// ZoneLine is the attempt/make totals for one zone.
type ZoneLine struct {
	Zone     domain.Zone
	Attempts int
	Makes    int
	MakePct  float64
}

// Summary is the historical roll-up across all archived sessions.
type Summary struct {
	Sessions          int
	CompletedSessions int
	Shots             int
	Makes             int
	MakePct           float64
	Zones             []ZoneLine
}

// Aggregator computes statistics from the archive database.
type Aggregator struct {
	DB *sql.DB
}

// NewAggregator creates an aggregator over the given database.
func NewAggregator(db *sql.DB) *Aggregator {
	return &Aggregator{DB: db}
}

// Summary computes the all-time roll-up.
func (a *Aggregator) Summary(ctx context.Context) (*Summary, error) {
	s := &Summary{}

	const sessionsQ = `SELECT COUNT(*), COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0) FROM sessions`
	if err := a.DB.QueryRowContext(ctx, sessionsQ).Scan(&s.Sessions, &s.CompletedSessions); err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}

	const zonesQ = `SELECT zone,
	COUNT(*),
	COALESCE(SUM(CASE WHEN outcome = 'MAKE' THEN 1 ELSE 0 END), 0)
FROM shots GROUP BY zone`

	rows, err := a.DB.QueryContext(ctx, zonesQ)
	if err != nil {
		return nil, fmt.Errorf("aggregate zones: %w", err)
	}
	defer rows.Close()

	byZone := make(map[domain.Zone]ZoneLine)
	for rows.Next() {
		var zone string
		var line ZoneLine
		if err := rows.Scan(&zone, &line.Attempts, &line.Makes); err != nil {
			return nil, fmt.Errorf("scan zone line: %w", err)
		}
		line.Zone = domain.Zone(zone)
		line.MakePct = pct(line.Makes, line.Attempts)
		byZone[line.Zone] = line
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Emit all three zones in court order even when a zone has no shots.
	for _, zone := range domain.Zones {
		line, ok := byZone[zone]
		if !ok {
			line = ZoneLine{Zone: zone}
		}
		s.Shots += line.Attempts
		s.Makes += line.Makes
		s.Zones = append(s.Zones, line)
	}
	s.MakePct = pct(s.Makes, s.Shots)

	return s, nil
}

// SessionLines computes per-zone totals for one session's shot log in memory.
func SessionLines(session *domain.DrillSession) []ZoneLine {
	lines := make([]ZoneLine, 0, len(domain.Zones))
	for _, zone := range domain.Zones {
		attempts, makes := drill.ZoneCounts(session.Shots, zone)
		lines = append(lines, ZoneLine{
			Zone:     zone,
			Attempts: attempts,
			Makes:    makes,
			MakePct:  pct(makes, attempts),
		})
	}
	return lines
}

func pct(makes, attempts int) float64 {
	if attempts == 0 {
		return 0
	}
	return float64(makes) / float64(attempts) * 100
}
