package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"traffic-worker-go/internal/models"
)

var ErrClosed = errors.New("violation store is closed")

// Store is the durable violation log. Records come back newest first.
type Store interface {
	Append(ctx context.Context, v models.Violation) error
	List(ctx context.Context) ([]models.Violation, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// SQLiteStore keeps violations in a SQLite file, trimmed to the newest
// retention records after every append.
type SQLiteStore struct {
	db        *sql.DB
	mu        sync.RWMutex
	retention int
	closed    bool
}

func Open(path string, retention int) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStore{db: db, retention: retention}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}

	log.Info().Str("path", path).Int("retention", retention).Msg("Violation store ready")
	return s, nil
}

func (s *SQLiteStore) Append(ctx context.Context, v models.Violation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO violations
			(track_id, plate, timestamp, speed, speed_limit, lane, violation_type, snapshot_path, challan_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.Plate, v.Timestamp, v.Speed, v.Limit, v.Lane, string(v.ViolationType), v.SnapshotPath, v.ChallanPath,
	)
	if err != nil {
		return fmt.Errorf("failed to insert violation: %w", err)
	}

	if s.retention > 0 {
		_, err = tx.ExecContext(ctx, `
			DELETE FROM violations
			WHERE seq NOT IN (SELECT seq FROM violations ORDER BY seq DESC LIMIT ?)`,
			s.retention,
		)
		if err != nil {
			return fmt.Errorf("failed to trim violations: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit violation: %w", err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]models.Violation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT track_id, plate, timestamp, speed, speed_limit, lane, violation_type, snapshot_path, challan_path
		FROM violations
		ORDER BY seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query violations: %w", err)
	}
	defer rows.Close()

	out := make([]models.Violation, 0)
	for rows.Next() {
		var (
			v    models.Violation
			kind string
		)
		if err := rows.Scan(&v.ID, &v.Plate, &v.Timestamp, &v.Speed, &v.Limit, &v.Lane, &kind, &v.SnapshotPath, &v.ChallanPath); err != nil {
			return nil, fmt.Errorf("failed to scan violation: %w", err)
		}
		v.ViolationType = models.ViolationKind(kind)
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrClosed
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM violations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count violations: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM violations`); err != nil {
		return fmt.Errorf("failed to clear violations: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
