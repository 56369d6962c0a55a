package tournament

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/pashagolub/chessclub/pkg/data"
	"github.com/pashagolub/chessclub/pkg/elo"
)

// PlayerStore is the part of the player store needed to rate games.
// UpdatePlayers replaces existing players in one write, or none of them.
type PlayerStore interface {
	GetPlayer(id string) (*data.Player, error)
	UpdatePlayers(players []data.Player) error
}

// RatingCommitter is implemented by stores that persist the rated players
// and the tournament carrying the applied marks together
type RatingCommitter interface {
	CommitRatings(t *data.Tournament, players []data.Player) error
}

// ApplyTournamentRatings rates every match with a result in every round.
// Each side is rated against the opponent's rating before the game, its
// game count is incremented and its K-factor recomputed, then all rated
// players are saved in one write.
//
// It keeps no record of what was applied: calling it twice rates every game
// twice. ApplyPendingRatings is the guarded variant.
func (d *Director) ApplyTournamentRatings(t *data.Tournament, store PlayerStore) ([]elo.Update, error) {
	indices := make([]int, len(t.Rounds))
	for i := range t.Rounds {
		indices[i] = i
	}
	players, updates, err := d.rateRounds(t, store, indices)
	if err != nil {
		return nil, err
	}
	if len(players) > 0 {
		if err := store.UpdatePlayers(players); err != nil {
			return nil, fmt.Errorf("save ratings: %w", err)
		}
	}
	d.ratingsApplied(t, indices, updates)
	return updates, nil
}

// ApplyPendingRatings rates the games of closed rounds whose ratings were not
// applied yet and marks those rounds. Repeated calls are harmless.
//
// The rounds are marked only after the rated players are stored. When the
// store is a RatingCommitter the players and the marked tournament are
// written together. On failure neither the store nor t changes.
func (d *Director) ApplyPendingRatings(t *data.Tournament, store PlayerStore) ([]elo.Update, error) {
	var indices []int
	for i, r := range t.Rounds {
		if r.Status == data.RoundClosed && !r.RatingsApplied {
			indices = append(indices, i)
		}
	}
	if len(indices) == 0 {
		return nil, nil
	}

	players, updates, err := d.rateRounds(t, store, indices)
	if err != nil {
		return nil, err
	}

	marked := t.Clone()
	for _, i := range indices {
		marked.Rounds[i].RatingsApplied = true
	}
	if committer, ok := store.(RatingCommitter); ok {
		err = committer.CommitRatings(marked, players)
	} else if len(players) > 0 {
		err = store.UpdatePlayers(players)
	}
	if err != nil {
		return nil, fmt.Errorf("save ratings: %w", err)
	}

	for _, i := range indices {
		t.Rounds[i].RatingsApplied = true
	}
	d.ratingsApplied(t, indices, updates)
	return updates, nil
}

// rateRounds computes the ratings of every set match of the given rounds on
// copies of the stored players. Nothing is written. A player playing several
// rounds is rated from the result of the previous one.
func (d *Director) rateRounds(t *data.Tournament, store PlayerStore, indices []int) ([]data.Player, []elo.Update, error) {
	rated := make(map[string]*data.Player)
	var order []string
	load := func(id string) (*data.Player, error) {
		if p, ok := rated[id]; ok {
			return p, nil
		}
		p, err := store.GetPlayer(id)
		if err != nil {
			return nil, lookupFailure(id, err)
		}
		player := *p
		rated[id] = &player
		order = append(order, id)
		return &player, nil
	}

	// All players must exist before anything is rated
	for _, i := range indices {
		for _, m := range t.Rounds[i].Matches {
			if !m.IsSet() {
				continue
			}
			for _, side := range m {
				if _, err := load(side.PlayerID); err != nil {
					return nil, nil, err
				}
			}
		}
	}

	var updates []elo.Update
	for _, i := range indices {
		for _, m := range t.Rounds[i].Matches {
			if !m.IsSet() {
				continue
			}
			a, b := rated[m[0].PlayerID], rated[m[1].PlayerID]
			newA, newB, pair := elo.RateGame(a.Rating(), b.Rating(), m[0].Points())
			a.SetRating(newA)
			b.SetRating(newB)
			updates = append(updates, pair[0], pair[1])
		}
	}

	players := make([]data.Player, 0, len(order))
	for _, id := range order {
		players = append(players, *rated[id])
	}
	return players, updates, nil
}

func (d *Director) ratingsApplied(t *data.Tournament, indices []int, updates []elo.Update) {
	for _, u := range updates {
		d.logger.Debug("rating updated",
			slog.String("tournament_id", t.TournamentID),
			slog.String("player_id", u.PlayerID),
			slog.Int("old", u.OldRating),
			slog.Int("new", u.NewRating))
		d.record(t, EventRatingUpdated, map[string]any{
			"player_id":   u.PlayerID,
			"opponent_id": u.OpponentID,
			"outcome":     u.Outcome,
			"old_rating":  u.OldRating,
			"new_rating":  u.NewRating,
			"k_factor":    u.KFactor,
		})
	}
	d.logger.Info("ratings applied",
		slog.String("tournament_id", t.TournamentID),
		slog.Int("rounds", len(indices)),
		slog.Int("updates", len(updates)))
}

func lookupFailure(id string, err error) error {
	if errors.Is(err, data.ErrPlayerNotFound) {
		return &LookupError{PlayerID: id, Where: "player store"}
	}
	return &LookupError{PlayerID: id, Where: "player store", Err: err}
}
