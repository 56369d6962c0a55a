// Package elo provides Elo rating calculations for chess club play.
// It implements the standard logistic expected-score formula with the
// FIDE-style dynamic K-factor (40/20/10) driven by games played and rating.
package elo

import (
	"math"
)

// K-factor tiers and thresholds
const (
	KNewPlayer   = 40 // Until the player has completed ProvisionalGames games
	KEstablished = 20 // Established players rated below MasterRating
	KMaster      = 10 // Established players rated at or above MasterRating

	ProvisionalGames = 30
	MasterRating     = 2400
)

// Outcomes from the player's point of view
const (
	Loss = 0.0
	Draw = 0.5
	Win  = 1.0
)

// Rating is the rating-relevant slice of a player record
type Rating struct {
	ID          string // Federation identifier
	Elo         int    // Current rating
	KFactor     int    // K-factor currently in force
	GamesPlayed int    // Rated games completed
}

// Update records a single rating change
type Update struct {
	PlayerID   string  `json:"player_id"`
	OpponentID string  `json:"opponent_id,omitempty"`
	Outcome    float64 `json:"outcome"`
	OldRating  int     `json:"old_rating"`
	NewRating  int     `json:"new_rating"`
	Delta      int     `json:"delta"`
	KFactor    int     `json:"k_factor"` // K used for this game, before recomputation
}

// ExpectedScore returns the expected score of a player rated ratingPlayer
// against an opponent rated ratingOpponent.
func ExpectedScore(ratingPlayer, ratingOpponent int) float64 {
	return 1.0 / (1.0 + math.Pow(10.0, -float64(ratingPlayer-ratingOpponent)/400.0))
}

// ComputeRating returns the new rating of a player after one game.
// outcome is 1 for a win, 0.5 for a draw and 0 for a loss.
//
// The result is rounded half to even, so 1500.5 becomes 1500 and 1501.5 becomes 1502.
func ComputeRating(ratingPlayer, ratingOpponent, kPlayer int, outcome float64) int {
	expected := ExpectedScore(ratingPlayer, ratingOpponent)
	updated := float64(ratingPlayer) + float64(kPlayer)*(outcome-expected)
	return int(math.RoundToEven(updated))
}

// KFactor derives the K-factor from the number of games played and the rating.
func KFactor(gamesPlayed, rating int) int {
	switch {
	case gamesPlayed < ProvisionalGames:
		return KNewPlayer
	case rating < MasterRating:
		return KEstablished
	default:
		return KMaster
	}
}

// ApplyGame rates a single game for r against an opponent rated opponentElo.
// The rating moves with the K-factor currently in force; afterwards the game
// counter is incremented and the K-factor recomputed from the new counter
// and the new rating.
func ApplyGame(r Rating, opponentID string, opponentElo int, outcome float64) (Rating, Update) {
	newElo := ComputeRating(r.Elo, opponentElo, r.KFactor, outcome)
	update := Update{
		PlayerID:   r.ID,
		OpponentID: opponentID,
		Outcome:    outcome,
		OldRating:  r.Elo,
		NewRating:  newElo,
		Delta:      newElo - r.Elo,
		KFactor:    r.KFactor,
	}

	r.Elo = newElo
	r.GamesPlayed++
	r.KFactor = KFactor(r.GamesPlayed, r.Elo)

	return r, update
}

// RateGame rates both sides of a finished game. Each side is computed against
// the other's rating before the game.
func RateGame(a, b Rating, scoreA float64) (Rating, Rating, [2]Update) {
	newA, updA := ApplyGame(a, b.ID, b.Elo, scoreA)
	newB, updB := ApplyGame(b, a.ID, a.Elo, 1.0-scoreA)
	return newA, newB, [2]Update{updA, updB}
}
