// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/tuitrace/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for attempt data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS attempts (
			id INTEGER PRIMARY KEY,
			uuid TEXT NOT NULL UNIQUE,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			glyph TEXT NOT NULL,
			typeface TEXT NOT NULL,
			strokes INTEGER NOT NULL,
			glyph_ink INTEGER NOT NULL,
			covered_ink INTEGER NOT NULL,
			coverage REAL NOT NULL,
			completed INTEGER NOT NULL,
			threshold REAL NOT NULL,
			brush_size REAL NOT NULL,
			duration_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS attempt_progress (
			attempt_id INTEGER NOT NULL,
			stroke INTEGER NOT NULL,
			coverage REAL NOT NULL,
			PRIMARY KEY (attempt_id, stroke)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_ended_at ON attempts(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_glyph ON attempts(glyph);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertAttempt stores an attempt and its per-stroke progress.
func (s *Store) InsertAttempt(ctx context.Context, a model.Attempt) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO attempts (uuid, started_at, ended_at, glyph, typeface, strokes, glyph_ink, covered_ink, coverage, completed, threshold, brush_size, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.UUID,
		a.StartedAt.Format(time.RFC3339Nano),
		a.EndedAt.Format(time.RFC3339Nano),
		a.Glyph,
		a.Typeface,
		a.Strokes,
		a.GlyphInk,
		a.CoveredInk,
		a.Coverage,
		boolToInt(a.Completed),
		a.Threshold,
		a.BrushSize,
		a.DurationMs,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(a.Progress) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO attempt_progress (attempt_id, stroke, coverage) VALUES (?, ?, ?)`)
		if perr != nil {
			err = perr
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for i, v := range a.Progress {
			if _, err = stmt.ExecContext(ctx, id, i+1, v); err != nil {
				return 0, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// GetWeakGlyphs aggregates glyph stats over the most recent attempts.
func (s *Store) GetWeakGlyphs(ctx context.Context, window int) ([]model.GlyphAggregate, error) {
	if window <= 0 {
		return nil, nil
	}
	query := `WITH recent_attempts AS (
		SELECT id FROM attempts
		ORDER BY ended_at DESC
		LIMIT ?
	)
	SELECT a.glyph, COUNT(*), SUM(a.completed), SUM(a.coverage), SUM(a.strokes),
		SUM(a.duration_ms), MAX(a.ended_at)
	FROM attempts a
	JOIN recent_attempts r ON r.id = a.id
	GROUP BY a.glyph`

	rows, err := s.db.QueryContext(ctx, query, window)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	return scanGlyphAggregates(rows)
}

// ListAttempts returns attempt aggregates filtered by stats config, oldest first.
func (s *Store) ListAttempts(ctx context.Context, cfg model.StatsConfig) ([]model.AttemptAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Glyph != "" {
		clauses = append(clauses, "glyph = ?")
		args = append(args, cfg.Glyph)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, cfg.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, ended_at, glyph, coverage, completed, strokes, duration_ms
		FROM attempts
		WHERE %s
		ORDER BY ended_at ASC, id ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	return scanAttemptAggregates(rows)
}

// RecentCoverage returns the coverage of the latest n attempts on glyph,
// oldest first.
func (s *Store) RecentCoverage(ctx context.Context, glyph string, n int) ([]float64, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT coverage FROM (
			SELECT id, ended_at, coverage FROM attempts
			WHERE glyph = ?
			ORDER BY ended_at DESC, id DESC
			LIMIT ?
		) ORDER BY ended_at ASC, id ASC`, glyph, n)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var out []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListGlyphAggregatesForAttempts aggregates per-glyph stats across attempts.
func (s *Store) ListGlyphAggregatesForAttempts(ctx context.Context, attemptIDs []int64) ([]model.GlyphAggregate, error) {
	if len(attemptIDs) == 0 {
		return nil, nil
	}
	placeholders, args := inList(attemptIDs)
	query := fmt.Sprintf(`SELECT glyph, COUNT(*), SUM(completed), SUM(coverage), SUM(strokes),
		SUM(duration_ms), MAX(ended_at)
		FROM attempts
		WHERE id IN (%s)
		GROUP BY glyph`, placeholders)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	return scanGlyphAggregates(rows)
}

// ListGlyphAttempts returns the attempts on selected glyphs among
// attemptIDs, grouped by glyph and oldest first.
func (s *Store) ListGlyphAttempts(ctx context.Context, attemptIDs []int64, glyphs []string) (map[string][]model.AttemptAggregate, error) {
	if len(attemptIDs) == 0 || len(glyphs) == 0 {
		return map[string][]model.AttemptAggregate{}, nil
	}
	idPlaceholders, args := inList(attemptIDs)
	glyphPlaceholders := make([]string, len(glyphs))
	for i, g := range glyphs {
		glyphPlaceholders[i] = "?"
		args = append(args, g)
	}

	query := fmt.Sprintf(`SELECT id, ended_at, glyph, coverage, completed, strokes, duration_ms
		FROM attempts
		WHERE id IN (%s) AND glyph IN (%s)
		ORDER BY ended_at ASC, id ASC`, idPlaceholders, strings.Join(glyphPlaceholders, ","))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	attempts, err := scanAttemptAggregates(rows)
	if err != nil {
		return nil, err
	}
	result := map[string][]model.AttemptAggregate{}
	for _, a := range attempts {
		result[a.Glyph] = append(result[a.Glyph], a)
	}
	return result, nil
}

// AttemptProgress returns the per-stroke coverage recorded for an attempt.
func (s *Store) AttemptProgress(ctx context.Context, attemptID int64) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT coverage FROM attempt_progress WHERE attempt_id = ? ORDER BY stroke ASC`, attemptID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var out []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanAttemptAggregates(rows *sql.Rows) ([]model.AttemptAggregate, error) {
	var attempts []model.AttemptAggregate
	for rows.Next() {
		var agg model.AttemptAggregate
		var endedAt string
		var completed int
		if err := rows.Scan(&agg.AttemptID, &endedAt, &agg.Glyph, &agg.Coverage, &completed, &agg.Strokes, &agg.DurationMs); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, err
		}
		agg.EndedAt = parsed
		agg.Completed = completed != 0
		attempts = append(attempts, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return attempts, nil
}

func scanGlyphAggregates(rows *sql.Rows) ([]model.GlyphAggregate, error) {
	var result []model.GlyphAggregate
	for rows.Next() {
		var agg model.GlyphAggregate
		var lastAt string
		if err := rows.Scan(&agg.Glyph, &agg.Attempts, &agg.Completions, &agg.CoverageSum, &agg.StrokeSum, &agg.DurationSumMs, &lastAt); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, lastAt)
		if err != nil {
			return nil, err
		}
		agg.LastAt = parsed
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func inList(ids []int64) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return strings.Join(placeholders, ","), args
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
