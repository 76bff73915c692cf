package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"rehearse/internal/geo"
	"rehearse/internal/playback"
	"rehearse/internal/scoring"
	"rehearse/internal/selection"
)

// Session is one recorded playback run.
type Session struct {
	ID                string    `json:"id"`
	RouteLabel        string    `json:"routeLabel"`
	TotalMeters       float64   `json:"totalMeters"`
	PointCount        int       `json:"pointCount"`
	TotalDwellSeconds float64   `json:"totalDwellSeconds"`
	Completed         bool      `json:"completed"`
	StartedAt         time.Time `json:"startedAt"`
	EndedAt           time.Time `json:"endedAt"`

	// Points is only filled by Get.
	Points []SessionPoint `json:"points,omitempty"`
}

// SessionPoint is a decision point with the dwell recorded for it.
type SessionPoint struct {
	Index           int                  `json:"index"`
	OrderIndex      int                  `json:"orderIndex"`
	Location        geo.LatLng           `json:"location"`
	Heading         float64              `json:"heading"`
	Instruction     string               `json:"instruction"`
	JunctionType    scoring.JunctionType `json:"junctionType"`
	Commitment      scoring.Commitment   `json:"commitment"`
	Score           int                  `json:"score"`
	IsDecisionPoint bool                 `json:"isDecisionPoint"`
	IsLeadIn        bool                 `json:"isLeadIn"`
	Reasons         []scoring.Reason     `json:"reasons"`
	DwellSeconds    float64              `json:"dwellSeconds"`
	Visits          int                  `json:"visits"`
	WeightedDwell   float64              `json:"weightedDwell"`
}

// LingeredJunction aggregates dwell for one instruction across sessions.
type LingeredJunction struct {
	Instruction       string               `json:"instruction"`
	JunctionType      scoring.JunctionType `json:"junctionType"`
	Sessions          int                  `json:"sessions"`
	DwellSeconds      float64              `json:"dwellSeconds"`
	WeightedDwell     float64              `json:"weightedDwell"`
	MaxCommitment     scoring.Commitment   `json:"maxCommitment"`
	LastSeenSessionID string               `json:"lastSeenSessionId"`
}

// NewSessionID returns a fresh random session ID.
func NewSessionID() string {
	return uuid.NewString()
}

// NewSession builds a session from a finished playback. records are matched
// to points by index; missing records mean zero dwell.
func NewSession(label string, totalMeters float64, points []selection.DecisionPoint, records []playback.DwellRecord, completed bool, started, ended time.Time) *Session {
	byIndex := make(map[int]playback.DwellRecord, len(records))
	for _, r := range records {
		byIndex[r.Index] = r
	}

	s := &Session{
		ID:          NewSessionID(),
		RouteLabel:  label,
		TotalMeters: totalMeters,
		PointCount:  len(points),
		Completed:   completed,
		StartedAt:   started.UTC(),
		EndedAt:     ended.UTC(),
		Points:      make([]SessionPoint, len(points)),
	}
	for i, p := range points {
		rec := byIndex[p.Index]
		s.Points[i] = SessionPoint{
			Index:           p.Index,
			OrderIndex:      p.OrderIndex,
			Location:        p.Location,
			Heading:         p.Heading,
			Instruction:     p.Instruction,
			JunctionType:    p.JunctionType,
			Commitment:      p.Commitment,
			Score:           p.Score,
			IsDecisionPoint: p.IsDecisionPoint,
			IsLeadIn:        p.IsLeadIn,
			Reasons:         p.Reasons,
			DwellSeconds:    rec.Seconds,
			Visits:          rec.Visits,
			WeightedDwell:   rec.Seconds * p.Commitment.Weight(),
		}
		s.TotalDwellSeconds += rec.Seconds
	}
	return s
}

// Stress ranks the session's points by weighted dwell, the same way a live
// playback does, and returns the top n. Points without dwell are left out.
func (s *Session) Stress(n int) []playback.StressEntry {
	entries := make([]playback.StressEntry, 0, len(s.Points))
	for _, p := range s.Points {
		if p.DwellSeconds <= 0 {
			continue
		}
		entries = append(entries, playback.StressEntry{
			Point: selection.DecisionPoint{
				Index:           p.Index,
				OrderIndex:      p.OrderIndex,
				Location:        p.Location,
				Heading:         p.Heading,
				Instruction:     p.Instruction,
				JunctionType:    p.JunctionType,
				JunctionLabel:   p.JunctionType.Label(),
				IsLeadIn:        p.IsLeadIn,
				IsDecisionPoint: p.IsDecisionPoint,
				Commitment:      p.Commitment,
				Score:           p.Score,
				Reasons:         p.Reasons,
			},
			DwellSeconds:  p.DwellSeconds,
			Weight:        p.Commitment.Weight(),
			WeightedDwell: p.WeightedDwell,
		})
	}
	return playback.RankStress(entries, n)
}

// Save inserts a session and its points.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	if sess.ID == "" {
		sess.ID = NewSessionID()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, route_label, total_meters, point_count, total_dwell, completed, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, sess.ID, sess.RouteLabel, sess.TotalMeters, sess.PointCount, sess.TotalDwellSeconds,
		sess.Completed, sess.StartedAt.UTC(), sess.EndedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	for _, p := range sess.Points {
		reasons, err := json.Marshal(p.Reasons)
		if err != nil {
			return fmt.Errorf("failed to encode reasons: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO session_points (session_id, idx, order_index, lat, lng, heading, instruction,
				junction_type, commitment, score, is_decision, is_lead_in, reasons,
				dwell_seconds, visits, weighted_dwell)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, sess.ID, p.Index, p.OrderIndex, p.Location.Lat, p.Location.Lng, p.Heading, p.Instruction,
			string(p.JunctionType), string(p.Commitment), p.Score, p.IsDecisionPoint, p.IsLeadIn,
			string(reasons), p.DwellSeconds, p.Visits, p.WeightedDwell)
		if err != nil {
			return fmt.Errorf("failed to insert session point %d: %w", p.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session: %w", err)
	}
	return nil
}

// List returns session summaries, newest first. A limit of zero or less
// returns every session.
func (s *Store) List(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, route_label, total_meters, point_count, total_dwell, completed, started_at, ended_at
		FROM sessions
		ORDER BY started_at DESC, id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	sessions := []Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

// Get returns a session with its points. id may be a unique prefix.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrSessionNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, route_label, total_meters, point_count, total_dwell, completed, started_at, ended_at
		FROM sessions
		WHERE id = ? OR id LIKE ? ESCAPE '\'
		ORDER BY (id = ?) DESC
		LIMIT 2
	`, id, escapeLike(id)+"%", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	var matches []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		matches = append(matches, sess)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	switch {
	case len(matches) == 0:
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	case matches[0].ID != id && len(matches) > 1:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousID, id)
	}

	sess := matches[0]
	points, err := s.points(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	sess.Points = points
	return sess, nil
}

// Delete removes a session and its points.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}

// MostLingered ranks instructions by total weighted dwell across all
// sessions and returns the top n.
func (s *Store) MostLingered(ctx context.Context, n int) ([]LingeredJunction, error) {
	if n <= 0 {
		n = 3
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.instruction, p.junction_type,
			COUNT(DISTINCT p.session_id),
			SUM(p.dwell_seconds),
			SUM(p.weighted_dwell),
			MAX(CASE p.commitment WHEN 'high' THEN 3 WHEN 'medium' THEN 2 ELSE 1 END),
			(SELECT p2.session_id FROM session_points p2 JOIN sessions s2 ON s2.id = p2.session_id
				WHERE p2.instruction = p.instruction AND p2.junction_type = p.junction_type
				ORDER BY s2.started_at DESC LIMIT 1)
		FROM session_points p
		WHERE p.dwell_seconds > 0
		GROUP BY p.instruction, p.junction_type
		ORDER BY SUM(p.weighted_dwell) DESC, p.instruction ASC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to rank lingered junctions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []LingeredJunction{}
	for rows.Next() {
		var (
			j     LingeredJunction
			typ   string
			level int
		)
		if err := rows.Scan(&j.Instruction, &typ, &j.Sessions, &j.DwellSeconds, &j.WeightedDwell, &level, &j.LastSeenSessionID); err != nil {
			return nil, fmt.Errorf("failed to scan lingered junction: %w", err)
		}
		j.JunctionType = scoring.JunctionType(typ)
		j.MaxCommitment = commitmentFromLevel(level)
		out = append(out, j)
	}
	return out, rows.Err()
}

func (s *Store) points(ctx context.Context, sessionID string) ([]SessionPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT idx, order_index, lat, lng, heading, instruction, junction_type, commitment, score,
			is_decision, is_lead_in, reasons, dwell_seconds, visits, weighted_dwell
		FROM session_points
		WHERE session_id = ?
		ORDER BY idx ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query session points: %w", err)
	}
	defer func() { _ = rows.Close() }()

	points := []SessionPoint{}
	for rows.Next() {
		var (
			p           SessionPoint
			typ, commit string
			reasonsJSON sql.NullString
		)
		err := rows.Scan(&p.Index, &p.OrderIndex, &p.Location.Lat, &p.Location.Lng, &p.Heading,
			&p.Instruction, &typ, &commit, &p.Score, &p.IsDecisionPoint, &p.IsLeadIn,
			&reasonsJSON, &p.DwellSeconds, &p.Visits, &p.WeightedDwell)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session point: %w", err)
		}
		p.JunctionType = scoring.JunctionType(typ)
		p.Commitment = scoring.Commitment(commit)
		p.Reasons = []scoring.Reason{}
		if reasonsJSON.Valid && reasonsJSON.String != "" {
			if err := json.Unmarshal([]byte(reasonsJSON.String), &p.Reasons); err != nil {
				p.Reasons = []scoring.Reason{}
			}
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	var sess Session
	err := row.Scan(&sess.ID, &sess.RouteLabel, &sess.TotalMeters, &sess.PointCount,
		&sess.TotalDwellSeconds, &sess.Completed, &sess.StartedAt, &sess.EndedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}
	return &sess, nil
}

func commitmentFromLevel(level int) scoring.Commitment {
	switch level {
	case 3:
		return scoring.CommitmentHigh
	case 2:
		return scoring.CommitmentMedium
	default:
		return scoring.CommitmentLow
	}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
