package data

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Error types for tournament validation
var (
	ErrMissingTournamentName = errors.New("tournament name is required")
	ErrMissingLocation       = errors.New("tournament location is required")
	ErrInvalidDateRange      = errors.New("tournament end date is before its start date")
	ErrInvalidRoundCount     = errors.New("number of rounds cannot be negative")
	ErrTournamentFinished    = errors.New("finished tournaments cannot be edited")
)

// TournamentSpec holds the operator supplied fields of a new tournament
type TournamentSpec struct {
	Name           string
	Location       string
	StartDate      string // Any parseable date, defaults to today
	EndDate        string // Optional
	Description    string
	NumberOfRounds int // 0 means player count minus one
}

// NewTournament creates an upcoming tournament with an empty registry
func NewTournament(spec TournamentSpec, now time.Time) (*Tournament, error) {
	t := &Tournament{
		TournamentID:   uuid.NewString(),
		Name:           strings.TrimSpace(spec.Name),
		Location:       strings.TrimSpace(spec.Location),
		Description:    strings.TrimSpace(spec.Description),
		Players:        Registry{},
		Rounds:         []Round{},
		PairingHistory: PairingHistory{},
		NumberOfRounds: spec.NumberOfRounds,
		Status:         StatusUpcoming,
	}

	t.StartDate = now.Format(DateLayout)
	if spec.StartDate != "" {
		start, err := NormalizeDate(spec.StartDate)
		if err != nil {
			return nil, fmt.Errorf("start date: %w", err)
		}
		t.StartDate = start
	}
	if spec.EndDate != "" {
		end, err := NormalizeDate(spec.EndDate)
		if err != nil {
			return nil, fmt.Errorf("end date: %w", err)
		}
		t.EndDate = end
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks the descriptive fields of the tournament
func (t *Tournament) Validate() error {
	if t.Name == "" {
		return ErrMissingTournamentName
	}
	if t.Location == "" {
		return ErrMissingLocation
	}
	if t.NumberOfRounds < 0 {
		return ErrInvalidRoundCount
	}
	// DateLayout sorts lexically
	if t.EndDate != "" && t.EndDate < t.StartDate {
		return fmt.Errorf("%w: %s < %s", ErrInvalidDateRange, t.EndDate, t.StartDate)
	}
	return nil
}

// TournamentPatch carries optional updates; nil fields are left untouched
type TournamentPatch struct {
	Name           *string
	Location       *string
	StartDate      *string
	EndDate        *string
	Description    *string
	NumberOfRounds *int
}

// Apply returns a patched copy of t. Round count changes are only accepted
// before the tournament starts.
func (tp TournamentPatch) Apply(t *Tournament) (*Tournament, error) {
	if t.Status == StatusFinished {
		return nil, ErrTournamentFinished
	}

	out := t.Clone()
	if tp.Name != nil {
		out.Name = strings.TrimSpace(*tp.Name)
	}
	if tp.Location != nil {
		out.Location = strings.TrimSpace(*tp.Location)
	}
	if tp.Description != nil {
		out.Description = strings.TrimSpace(*tp.Description)
	}
	if tp.StartDate != nil {
		start, err := NormalizeDate(*tp.StartDate)
		if err != nil {
			return nil, fmt.Errorf("start date: %w", err)
		}
		out.StartDate = start
	}
	if tp.EndDate != nil {
		out.EndDate = ""
		if strings.TrimSpace(*tp.EndDate) != "" {
			end, err := NormalizeDate(*tp.EndDate)
			if err != nil {
				return nil, fmt.Errorf("end date: %w", err)
			}
			out.EndDate = end
		}
	}
	if tp.NumberOfRounds != nil {
		if t.Status != StatusUpcoming {
			return nil, fmt.Errorf("number of rounds is fixed once the tournament has started")
		}
		out.NumberOfRounds = *tp.NumberOfRounds
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}
