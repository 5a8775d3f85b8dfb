// Package store handles SQLite persistence of render history.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/TheThirdRail/green-code-fx/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for render history.
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
		_ = db.Close()
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
		`CREATE TABLE IF NOT EXISTS renders (
			id INTEGER PRIMARY KEY,
			job_id TEXT NOT NULL,
			effect TEXT NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			fps INTEGER NOT NULL,
			frames INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			output_path TEXT NOT NULL,
			success INTEGER NOT NULL,
			error TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_renders_ended_at ON renders(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_renders_effect ON renders(effect);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertRender stores one completed or failed generation.
func (s *Store) InsertRender(ctx context.Context, rec model.RenderRecord) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO renders (job_id, effect, width, height, fps, frames, started_at, ended_at, duration_ms, output_path, success, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.JobID,
		rec.Effect,
		rec.Width,
		rec.Height,
		rec.FPS,
		rec.Frames,
		rec.StartedAt.Format(time.RFC3339Nano),
		rec.EndedAt.Format(time.RFC3339Nano),
		rec.DurationMs,
		rec.OutputPath,
		boolToInt(rec.Success),
		rec.Error,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListRenders returns render records filtered by the history filter, oldest
// first.
func (s *Store) ListRenders(ctx context.Context, filter model.HistoryFilter) ([]model.RenderRecord, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Effect != "" {
		clauses = append(clauses, "effect = ?")
		args = append(args, filter.Effect)
	}
	if filter.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, filter.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT job_id, effect, width, height, fps, frames, started_at, ended_at, duration_ms, output_path, success, error
		FROM renders
		WHERE %s
		ORDER BY ended_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.RenderRecord
	for rows.Next() {
		var rec model.RenderRecord
		var startedAt, endedAt string
		var success int
		if err := rows.Scan(&rec.JobID, &rec.Effect, &rec.Width, &rec.Height, &rec.FPS, &rec.Frames,
			&startedAt, &endedAt, &rec.DurationMs, &rec.OutputPath, &success, &rec.Error); err != nil {
			return nil, err
		}
		if rec.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("failed to parse started_at: %w", err)
		}
		if rec.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
			return nil, fmt.Errorf("failed to parse ended_at: %w", err)
		}
		rec.Success = success != 0
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if filter.Last > 0 && len(result) > filter.Last {
		result = result[len(result)-filter.Last:]
	}
	return result, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
