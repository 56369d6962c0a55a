// Package pairing generates round pairings for a tournament.
//
// The first round is a random permutation of the registered players. Later
// rounds follow a simplified Swiss scheme: players are grouped by their
// current points, groups are taken from the highest score down, and each
// player is matched with the next player in that order they have not met yet.
// No colour allocation, floaters or bye rotation are attempted.
package pairing

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/pashagolub/chessclub/pkg/data"
)

// Engine produces pairings from an injected random source
type Engine struct {
	rng *rand.Rand
}

// New creates an engine drawing from src
func New(src rand.Source) *Engine {
	return &Engine{rng: rand.New(src)}
}

// NewSeeded creates an engine with a fixed seed. A zero seed uses the clock.
func NewSeeded(seed int64) *Engine {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return New(rand.NewSource(seed))
}

// Result is the outcome of one pairing run
type Result struct {
	Matches  []data.Match        // Unset matches in pairing order
	History  data.PairingHistory // Full pairing history including the new pairs
	Unpaired []string            // Players left without an opponent this round
}

// Pairs returns the pairs created by this run
func (r Result) Pairs() []data.Pair {
	pairs := make([]data.Pair, len(r.Matches))
	for i, m := range r.Matches {
		pairs[i] = m.Pair()
	}
	return pairs
}

// Warning returns a warning describing unpaired players, or nil
func (r Result) Warning() *UnpairedPlayerWarning {
	if len(r.Unpaired) == 0 {
		return nil
	}
	return &UnpairedPlayerWarning{PlayerIDs: append([]string(nil), r.Unpaired...)}
}

// UnpairedPlayerWarning reports players that received no match. The round
// still goes ahead with fewer matches.
type UnpairedPlayerWarning struct {
	PlayerIDs []string
}

func (w *UnpairedPlayerWarning) Error() string {
	return fmt.Sprintf("unpaired this round: %s", strings.Join(w.PlayerIDs, ", "))
}

// FirstRound pairs a random permutation of the registered players two by
// two. Points are ignored. With an odd count the last player is unpaired.
func (e *Engine) FirstRound(players data.Registry) Result {
	ids := players.IDs()
	e.shuffle(ids)

	result := Result{Matches: make([]data.Match, 0, len(ids)/2)}
	for i := 0; i+1 < len(ids); i += 2 {
		result.Matches = append(result.Matches, data.NewMatch(ids[i], ids[i+1]))
	}
	if len(ids)%2 == 1 {
		result.Unpaired = []string{ids[len(ids)-1]}
	}
	result.History = data.PairingHistory{}.With(result.Pairs()...)
	return result
}

// NextRound pairs players by score group, highest first, never repeating a
// pair found in history. history is not modified; Result.History holds the
// cumulative history for the caller to store.
func (e *Engine) NextRound(players data.Registry, history data.PairingHistory) Result {
	order := e.candidateOrder(players)

	used := make(map[string]bool, len(order))
	result := Result{Matches: make([]data.Match, 0, len(order)/2)}
	played := history.With()

	for i, p1 := range order {
		if used[p1] {
			continue
		}
		used[p1] = true

		paired := false
		for _, p2 := range order[i+1:] {
			if used[p2] || played.Contains(p1, p2) {
				continue
			}
			used[p2] = true
			result.Matches = append(result.Matches, data.NewMatch(p1, p2))
			played = append(played, data.Pair{p1, p2})
			paired = true
			break
		}
		if !paired {
			result.Unpaired = append(result.Unpaired, p1)
		}
	}

	result.History = played
	return result
}

// ScoreGroups returns player ids grouped by points, highest group first.
// Ids inside a group are sorted.
func ScoreGroups(players data.Registry) [][]string {
	byPoints := make(map[float64][]string)
	for _, id := range players.IDs() {
		points := players[id]
		byPoints[points] = append(byPoints[points], id)
	}

	scores := make([]float64, 0, len(byPoints))
	for points := range byPoints {
		scores = append(scores, points)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(scores)))

	groups := make([][]string, len(scores))
	for i, points := range scores {
		groups[i] = byPoints[points]
	}
	return groups
}

// candidateOrder concatenates the shuffled score groups
func (e *Engine) candidateOrder(players data.Registry) []string {
	order := make([]string, 0, len(players))
	for _, group := range ScoreGroups(players) {
		e.shuffle(group)
		order = append(order, group...)
	}
	return order
}

func (e *Engine) shuffle(ids []string) {
	e.rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
}
