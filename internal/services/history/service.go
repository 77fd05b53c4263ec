package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"traffic-worker-go/internal/metrics"
	"traffic-worker-go/internal/services/store"
)

// Epoch is advanced on every reset so detectors drop their track state.
type Epoch interface {
	Advance() int64
}

// Resetter is any in-memory view that must be emptied on reset.
type Resetter interface {
	Reset()
}

// Service wipes violation history: records, evidence files, live stats and
// detector state. Every step runs even when an earlier one fails.
type Service struct {
	store     store.Store
	dirs      []string
	epoch     Epoch
	resetters []Resetter
	metrics   *metrics.Metrics
}

func NewService(st store.Store, epoch Epoch, m *metrics.Metrics, dirs []string, resetters ...Resetter) *Service {
	return &Service{
		store:     st,
		dirs:      dirs,
		epoch:     epoch,
		resetters: resetters,
		metrics:   m,
	}
}

// Clear performs the reset and returns the joined errors of the steps that
// failed.
func (s *Service) Clear(ctx context.Context) error {
	var errs []error

	if s.store != nil {
		if err := s.store.Clear(ctx); err != nil {
			errs = append(errs, fmt.Errorf("clear store: %w", err))
		}
	}

	removed := 0
	for _, dir := range s.dirs {
		n, err := removeFiles(dir)
		removed += n
		if err != nil {
			errs = append(errs, err)
		}
	}

	for _, r := range s.resetters {
		r.Reset()
	}

	epoch := s.epoch.Advance()
	if s.metrics != nil {
		s.metrics.HistoryResets.Add(1)
	}

	err := errors.Join(errs...)
	event := log.Info()
	if err != nil {
		event = log.Warn().Err(err)
	}
	event.Int("files_removed", removed).Int64("epoch", epoch).Msg("History cleared")
	return err
}

// removeFiles deletes the regular files directly inside dir. A missing
// directory is not an error.
func removeFiles(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read %s: %w", dir, err)
	}

	var errs []error
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := os.Remove(path); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", path, err))
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
