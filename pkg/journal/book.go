package journal

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/pashagolub/chessclub/pkg/tournament"
)

// Book keeps one audit trail per tournament in a directory and satisfies
// tournament.Journal
type Book struct {
	dir    string
	logger *slog.Logger
	mutex  sync.Mutex
	trails map[string]*AuditTrail
}

var _ tournament.Journal = (*Book)(nil)

// NewBook returns a book writing its logs to dir
func NewBook(dir string, logger *slog.Logger) *Book {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Book{
		dir:    dir,
		logger: logger,
		trails: make(map[string]*AuditTrail),
	}
}

// Dir returns the directory holding the logs
func (b *Book) Dir() string {
	return b.dir
}

// Record appends an event to the tournament's trail, opening it on first use
func (b *Book) Record(tournamentID string, event tournament.EventType, payload map[string]any) error {
	trail, err := b.Trail(tournamentID)
	if err != nil {
		return err
	}
	if err := trail.Log(event, payload); err != nil {
		return fmt.Errorf("tournament %s: %w", tournamentID, err)
	}
	b.logger.Debug("journal entry written",
		slog.String("tournament_id", tournamentID),
		slog.String("event", string(event)),
		slog.Uint64("sequence", trail.GetSequence()-1))
	return nil
}

// Trail returns the open trail of a tournament
func (b *Book) Trail(tournamentID string) (*AuditTrail, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if trail, ok := b.trails[tournamentID]; ok {
		return trail, nil
	}
	trail, err := NewAuditTrail(tournamentID, b.dir)
	if err != nil {
		return nil, err
	}
	b.trails[tournamentID] = trail
	return trail, nil
}

// Remove closes and deletes the trail of a removed tournament
func (b *Book) Remove(tournamentID string) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if trail, ok := b.trails[tournamentID]; ok {
		if err := trail.Close(); err != nil {
			return err
		}
		delete(b.trails, tournamentID)
	}
	err := os.Remove(LogPath(b.dir, tournamentID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove audit log: %w", err)
	}
	return nil
}

// Close closes every open trail
func (b *Book) Close() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	var errs []error
	for id, trail := range b.trails {
		if err := trail.Close(); err != nil {
			errs = append(errs, fmt.Errorf("tournament %s: %w", id, err))
		}
		delete(b.trails, id)
	}
	return errors.Join(errs...)
}
