// Package data provides the record types of the chess club application:
// players, tournaments, rounds, matches and pairing history, together with
// their validation, JSON representation, file persistence and configuration.
package data

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Date and time layouts used in persisted records
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// TournamentStatus represents the lifecycle state of a tournament
type TournamentStatus string

const (
	StatusUpcoming   TournamentStatus = "upcoming"
	StatusInProgress TournamentStatus = "in_progress"
	StatusFinished   TournamentStatus = "finished"
)

// String returns a human readable status
func (s TournamentStatus) String() string {
	switch s {
	case StatusUpcoming:
		return "upcoming"
	case StatusInProgress:
		return "in progress"
	case StatusFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// RoundStatus represents whether a round still accepts results
type RoundStatus string

const (
	RoundOpen   RoundStatus = "open"
	RoundClosed RoundStatus = "closed"
)

// Registry maps a player federation id to accumulated tournament points
type Registry map[string]float64

// IDs returns the registered player ids in ascending order
func (r Registry) IDs() []string {
	ids := make([]string, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns an independent copy of the registry
func (r Registry) Clone() Registry {
	out := make(Registry, len(r))
	for id, points := range r {
		out[id] = points
	}
	return out
}

// TotalPoints returns the sum of all points in the registry
func (r Registry) TotalPoints() float64 {
	total := 0.0
	for _, points := range r {
		total += points
	}
	return total
}

// Pair records that two players met. Order carries no meaning.
type Pair [2]string

// Has reports whether id is one of the two players
func (p Pair) Has(id string) bool {
	return p[0] == id || p[1] == id
}

// PairingHistory is the append-only list of pairs already played
type PairingHistory []Pair

// Contains reports whether a and b already met, in either order
func (h PairingHistory) Contains(a, b string) bool {
	for _, p := range h {
		if (p[0] == a && p[1] == b) || (p[0] == b && p[1] == a) {
			return true
		}
	}
	return false
}

// With returns a new history made of h followed by pairs. h is left untouched.
func (h PairingHistory) With(pairs ...Pair) PairingHistory {
	out := make(PairingHistory, 0, len(h)+len(pairs))
	out = append(out, h...)
	return append(out, pairs...)
}

// Side is one player's half of a match. A nil Score means no result yet.
type Side struct {
	PlayerID string
	Score    *float64
}

// IsSet reports whether the side has a recorded score
func (s Side) IsSet() bool {
	return s.Score != nil
}

// Points returns the recorded score, or zero when unset
func (s Side) Points() float64 {
	if s.Score == nil {
		return 0
	}
	return *s.Score
}

// MarshalJSON encodes a side as [player_id, score] with "" for an unset score
func (s Side) MarshalJSON() ([]byte, error) {
	if s.Score == nil {
		return json.Marshal([2]any{s.PlayerID, ""})
	}
	return json.Marshal([2]any{s.PlayerID, *s.Score})
}

// UnmarshalJSON decodes [player_id, score] accepting numbers, numeric strings and "".
// Scores other than 0, 0.5 and 1 are rejected.
func (s *Side) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("match side must be a two element array: %w", err)
	}
	if len(raw) != 2 {
		return fmt.Errorf("match side must have 2 elements, got %d", len(raw))
	}

	var id string
	if err := json.Unmarshal(raw[0], &id); err != nil {
		return fmt.Errorf("match side player id: %w", err)
	}

	side := Side{PlayerID: id}
	value := bytes.TrimSpace(raw[1])
	switch {
	case bytes.Equal(value, []byte("null")), bytes.Equal(value, []byte(`""`)):
	case len(value) > 0 && value[0] == '"':
		var text string
		if err := json.Unmarshal(value, &text); err != nil {
			return fmt.Errorf("match side score: %w", err)
		}
		score, err := ParseResult(text)
		if err != nil {
			return fmt.Errorf("match side %s score: %w", id, err)
		}
		side.Score = &score
	default:
		var number float64
		if err := json.Unmarshal(value, &number); err != nil {
			return fmt.Errorf("match side score: %w", err)
		}
		score, err := ParseResult(number)
		if err != nil {
			return fmt.Errorf("match side %s score: %w", id, err)
		}
		side.Score = &score
	}

	*s = side
	return nil
}

// Match is a game between side A (index 0) and side B (index 1)
type Match [2]Side

// NewMatch creates a match between a and b with no result yet
func NewMatch(a, b string) Match {
	return Match{{PlayerID: a}, {PlayerID: b}}
}

// IsSet reports whether both sides carry a score
func (m Match) IsSet() bool {
	return m[0].IsSet() && m[1].IsSet()
}

// PlayerIDs returns the ids of side A and side B
func (m Match) PlayerIDs() (string, string) {
	return m[0].PlayerID, m[1].PlayerID
}

// Pair returns the match as a pairing history entry
func (m Match) Pair() Pair {
	return Pair{m[0].PlayerID, m[1].PlayerID}
}

// String renders the match for logs and reports
func (m Match) String() string {
	format := func(s Side) string {
		if !s.IsSet() {
			return "-"
		}
		return strconv.FormatFloat(*s.Score, 'f', -1, 64)
	}
	return fmt.Sprintf("%s (%s) vs %s (%s)", m[0].PlayerID, format(m[0]), m[1].PlayerID, format(m[1]))
}

// Round is one round of a tournament
type Round struct {
	Number         int         `json:"number"`
	Name           string      `json:"name"`
	RoundID        string      `json:"round_id"`
	StartDate      string      `json:"start_date"`
	StartTime      string      `json:"start_time"`
	EndDate        string      `json:"end_date"`
	EndTime        string      `json:"end_time"`
	Matches        []Match     `json:"matches"`
	Status         RoundStatus `json:"status"`
	RatingsApplied bool        `json:"ratings_applied"`
}

// NewRound creates an open round stamped with its start date and time
func NewRound(number int, matches []Match, now time.Time) Round {
	if matches == nil {
		matches = []Match{}
	}
	return Round{
		Number:    number,
		Name:      "Round " + strconv.Itoa(number),
		RoundID:   uuid.NewString(),
		StartDate: now.Format(DateLayout),
		StartTime: now.Format(TimeLayout),
		Matches:   matches,
		Status:    RoundOpen,
	}
}

// Complete reports whether every match of the round has a result.
// A round without matches is complete.
func (r Round) Complete() bool {
	for _, m := range r.Matches {
		if !m.IsSet() {
			return false
		}
	}
	return true
}

// IsOpen reports whether the round still accepts results
func (r Round) IsOpen() bool {
	return r.Status == RoundOpen
}

// Tournament is the aggregate persisted as one unit
type Tournament struct {
	TournamentID   string           `json:"tournament_id"`
	Name           string           `json:"name"`
	Location       string           `json:"location"`
	StartDate      string           `json:"start_date"`
	EndDate        string           `json:"end_date"`
	Description    string           `json:"description"`
	Players        Registry         `json:"players"`
	Rounds         []Round          `json:"rounds"`
	PairingHistory PairingHistory   `json:"pairing_history"`
	CurrentRound   int              `json:"current_round"`
	NumberOfRounds int              `json:"number_of_rounds"`
	Status         TournamentStatus `json:"status"`
}

// Round returns the round at index, if any
func (t *Tournament) Round(index int) (*Round, bool) {
	if index < 0 || index >= len(t.Rounds) {
		return nil, false
	}
	return &t.Rounds[index], true
}

// LastRound returns the most recent round, if any
func (t *Tournament) LastRound() (*Round, bool) {
	return t.Round(len(t.Rounds) - 1)
}

// Clone returns a deep copy of the tournament
func (t *Tournament) Clone() *Tournament {
	out := *t
	out.Players = t.Players.Clone()
	out.PairingHistory = t.PairingHistory.With()
	out.Rounds = make([]Round, len(t.Rounds))
	for i, r := range t.Rounds {
		r.Matches = cloneMatches(r.Matches)
		out.Rounds[i] = r
	}
	return &out
}

func cloneMatches(matches []Match) []Match {
	out := make([]Match, len(matches))
	for i, m := range matches {
		for side := range m {
			if m[side].Score != nil {
				score := *m[side].Score
				m[side].Score = &score
			}
		}
		out[i] = m
	}
	return out
}
