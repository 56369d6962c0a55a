// Package tournament drives a tournament through its lifecycle:
// registration, start, result entry, round closing, advancing to the next
// round and finishing. Every operation validates first and only changes the
// tournament when it succeeds.
package tournament

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/pashagolub/chessclub/pkg/data"
	"github.com/pashagolub/chessclub/pkg/pairing"
)

// EventType names a tournament event written to the journal
type EventType string

const (
	EventTournamentCreated  EventType = "tournament_created"
	EventPlayersSubscribed  EventType = "players_subscribed"
	EventPlayersRemoved     EventType = "players_unsubscribed"
	EventTournamentStarted  EventType = "tournament_started"
	EventResultRecorded     EventType = "result_recorded"
	EventRoundClosed        EventType = "round_closed"
	EventRoundGenerated     EventType = "round_generated"
	EventTournamentFinished EventType = "tournament_finished"
	EventRatingUpdated      EventType = "rating_updated"
)

// Journal receives tournament events. Implementations must not modify data.
type Journal interface {
	Record(tournamentID string, event EventType, payload map[string]any) error
}

// Director applies lifecycle operations to tournaments
type Director struct {
	engine  *pairing.Engine
	logger  *slog.Logger
	journal Journal
	now     func() time.Time
}

// NewDirector creates a director. logger and journal may be nil.
func NewDirector(engine *pairing.Engine, logger *slog.Logger, journal Journal) *Director {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Director{
		engine:  engine,
		logger:  logger,
		journal: journal,
		now:     time.Now,
	}
}

// SetClock replaces the clock used for date and time stamps
func (d *Director) SetClock(now func() time.Time) {
	d.now = now
}

// Create builds a new upcoming tournament
func (d *Director) Create(spec data.TournamentSpec) (*data.Tournament, error) {
	t, err := data.NewTournament(spec, d.now())
	if err != nil {
		return nil, err
	}
	d.logger.Info("tournament created",
		slog.String("tournament_id", t.TournamentID),
		slog.String("name", t.Name))
	d.record(t, EventTournamentCreated, map[string]any{
		"name":       t.Name,
		"location":   t.Location,
		"start_date": t.StartDate,
	})
	return t, nil
}

// Subscribe adds players with zero points. Ids already registered are
// returned and left untouched.
func (d *Director) Subscribe(t *data.Tournament, ids ...string) ([]string, error) {
	if t.Status != data.StatusUpcoming {
		return nil, transitionError("subscribe players", t.Status)
	}

	var added, already []string
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := t.Players[id]; ok {
			already = append(already, id)
			continue
		}
		if t.Players == nil {
			t.Players = data.Registry{}
		}
		t.Players[id] = 0
		added = append(added, id)
	}

	if len(added) > 0 {
		d.logger.Info("players subscribed",
			slog.String("tournament_id", t.TournamentID),
			slog.Any("players", added))
		d.record(t, EventPlayersSubscribed, map[string]any{"players": added})
	}
	return already, nil
}

// Unsubscribe removes players before the tournament starts
func (d *Director) Unsubscribe(t *data.Tournament, ids ...string) error {
	if t.Status != data.StatusUpcoming {
		return transitionError("unsubscribe players", t.Status)
	}
	for _, id := range ids {
		if _, ok := t.Players[id]; !ok {
			return &LookupError{PlayerID: id, Where: "registry"}
		}
	}

	for _, id := range ids {
		delete(t.Players, id)
	}
	d.logger.Info("players unsubscribed",
		slog.String("tournament_id", t.TournamentID),
		slog.Any("players", ids))
	d.record(t, EventPlayersRemoved, map[string]any{"players": ids})
	return nil
}

// Start fixes the number of rounds, pairs round one at random and opens it.
// Without a configured count the tournament plays player count minus one rounds.
func (d *Director) Start(t *data.Tournament) (pairing.Result, error) {
	if t.Status != data.StatusUpcoming {
		return pairing.Result{}, transitionError("start tournament", t.Status)
	}
	if len(t.Players) < 2 {
		return pairing.Result{}, fmt.Errorf("%w: %d registered", ErrNotEnoughPlayers, len(t.Players))
	}

	result := d.engine.FirstRound(t.Players)
	now := d.now()

	if t.NumberOfRounds <= 0 {
		t.NumberOfRounds = len(t.Players) - 1
	}
	t.Rounds = append(t.Rounds, data.NewRound(1, result.Matches, now))
	t.PairingHistory = t.PairingHistory.With(result.Pairs()...)
	t.CurrentRound = 1
	t.Status = data.StatusInProgress

	d.logger.Info("tournament started",
		slog.String("tournament_id", t.TournamentID),
		slog.Int("players", len(t.Players)),
		slog.Int("rounds", t.NumberOfRounds))
	d.warnUnpaired(t, 1, result)
	d.record(t, EventTournamentStarted, map[string]any{
		"players":          t.Players.IDs(),
		"number_of_rounds": t.NumberOfRounds,
	})
	d.recordRound(t, 1, result)
	return result, nil
}

// RecordMatch stores a result for side A of a match in an open round.
// Indices are zero based.
func (d *Director) RecordMatch(t *data.Tournament, roundIndex, matchIndex int, raw any) error {
	round, err := lookupRound(t, roundIndex)
	if err != nil {
		return err
	}
	if !round.IsOpen() {
		return &InvalidStateTransitionError{Op: "record result", State: round.Name + " is closed"}
	}
	if matchIndex < 0 || matchIndex >= len(round.Matches) {
		return fmt.Errorf("%w: %d (%s has %d matches)", ErrMatchIndex, matchIndex, round.Name, len(round.Matches))
	}

	match, err := data.RecordResult(round.Matches[matchIndex], raw)
	if err != nil {
		return err
	}
	round.Matches[matchIndex] = match

	d.logger.Debug("result recorded",
		slog.String("tournament_id", t.TournamentID),
		slog.Int("round", round.Number),
		slog.String("match", match.String()))
	d.record(t, EventResultRecorded, map[string]any{
		"round":    round.Number,
		"match":    matchIndex,
		"player_a": match[0].PlayerID,
		"player_b": match[1].PlayerID,
		"score_a":  match[0].Points(),
		"score_b":  match[1].Points(),
	})
	return nil
}

// Closeable reports whether r is open and every match has a result.
// An open round without matches is closeable.
func Closeable(r data.Round) bool {
	return r.IsOpen() && r.Complete()
}

// CloseRound stamps the round end, closes it and adds every match score to
// the players' tournament points.
func (d *Director) CloseRound(t *data.Tournament, roundIndex int) error {
	round, err := lookupRound(t, roundIndex)
	if err != nil {
		return err
	}
	if !round.IsOpen() {
		return &InvalidStateTransitionError{Op: "close round", State: round.Name + " is already closed"}
	}
	if !round.Complete() {
		missing := 0
		for _, m := range round.Matches {
			if !m.IsSet() {
				missing++
			}
		}
		return &InvalidStateTransitionError{
			Op:     "close round",
			State:  round.Name + " is open",
			Reason: fmt.Sprintf("%d match(es) without a result", missing),
		}
	}
	for _, m := range round.Matches {
		for _, side := range m {
			if _, ok := t.Players[side.PlayerID]; !ok {
				return &LookupError{PlayerID: side.PlayerID, Where: "registry"}
			}
		}
	}

	now := d.now()
	round.EndDate = now.Format(data.DateLayout)
	round.EndTime = now.Format(data.TimeLayout)
	round.Status = data.RoundClosed
	for _, m := range round.Matches {
		for _, side := range m {
			t.Players[side.PlayerID] += side.Points()
		}
	}

	d.logger.Info("round closed",
		slog.String("tournament_id", t.TournamentID),
		slog.Int("round", round.Number),
		slog.Int("matches", len(round.Matches)))
	d.record(t, EventRoundClosed, map[string]any{
		"round":  round.Number,
		"points": t.Players.Clone(),
	})
	return nil
}

// Advance finishes the tournament after its last round, or pairs and opens
// the next round. The current round must be closed. The returned result is
// empty when the tournament finished.
func (d *Director) Advance(t *data.Tournament) (pairing.Result, error) {
	if t.Status != data.StatusInProgress {
		return pairing.Result{}, transitionError("advance", t.Status)
	}
	current, err := lookupRound(t, t.CurrentRound-1)
	if err != nil {
		return pairing.Result{}, err
	}
	if current.IsOpen() {
		return pairing.Result{}, &InvalidStateTransitionError{
			Op:     "advance",
			State:  current.Name + " is open",
			Reason: "close it first",
		}
	}

	now := d.now()
	if t.CurrentRound >= t.NumberOfRounds {
		t.Status = data.StatusFinished
		if t.EndDate == "" {
			t.EndDate = now.Format(data.DateLayout)
		}
		d.logger.Info("tournament finished",
			slog.String("tournament_id", t.TournamentID),
			slog.Int("rounds", len(t.Rounds)))
		d.record(t, EventTournamentFinished, map[string]any{
			"points":   t.Players.Clone(),
			"end_date": t.EndDate,
		})
		return pairing.Result{}, nil
	}

	result := d.engine.NextRound(t.Players, t.PairingHistory)
	number := t.CurrentRound + 1
	t.Rounds = append(t.Rounds, data.NewRound(number, result.Matches, now))
	t.PairingHistory = result.History
	t.CurrentRound = number

	d.logger.Info("round generated",
		slog.String("tournament_id", t.TournamentID),
		slog.Int("round", number),
		slog.Int("matches", len(result.Matches)))
	d.warnUnpaired(t, number, result)
	d.recordRound(t, number, result)
	return result, nil
}

func lookupRound(t *data.Tournament, index int) (*data.Round, error) {
	round, ok := t.Round(index)
	if !ok {
		return nil, fmt.Errorf("%w: %d (tournament has %d rounds)", ErrRoundIndex, index, len(t.Rounds))
	}
	return round, nil
}

func (d *Director) warnUnpaired(t *data.Tournament, number int, result pairing.Result) {
	if w := result.Warning(); w != nil {
		d.logger.Warn("players left unpaired",
			slog.String("tournament_id", t.TournamentID),
			slog.Int("round", number),
			slog.Any("players", w.PlayerIDs))
	}
}

func (d *Director) recordRound(t *data.Tournament, number int, result pairing.Result) {
	matches := make([]string, len(result.Matches))
	for i, m := range result.Matches {
		matches[i] = m[0].PlayerID + "-" + m[1].PlayerID
	}
	d.record(t, EventRoundGenerated, map[string]any{
		"round":    number,
		"matches":  matches,
		"unpaired": result.Unpaired,
	})
}

// record forwards an event to the journal. Journal failures are logged and
// never undo a successful operation.
func (d *Director) record(t *data.Tournament, event EventType, payload map[string]any) {
	if d.journal == nil {
		return
	}
	if err := d.journal.Record(t.TournamentID, event, payload); err != nil {
		d.logger.Error("failed to write journal entry",
			slog.String("tournament_id", t.TournamentID),
			slog.String("event", string(event)),
			slog.Any("error", err))
	}
}
