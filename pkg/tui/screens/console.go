// Package screens provides the screens of the tournament director console.
// Screens receive the application as any and assert the small interfaces
// below, so they can be driven by a fake in tests.
package screens

import (
	"errors"

	"github.com/pashagolub/chessclub/pkg/data"
	"github.com/pashagolub/chessclub/pkg/elo"
	"github.com/pashagolub/chessclub/pkg/pairing"
)

// ErrNoConsole is returned when a screen is entered with an unsupported app
var ErrNoConsole = errors.New("application does not support this screen")

// TournamentView gives read access to the selected tournament
type TournamentView interface {
	Tournament() *data.Tournament
	Roster() ([]data.Player, error)
}

// RoundDirector runs the selected tournament from the round screen.
// Every call persists the tournament when it succeeds.
type RoundDirector interface {
	TournamentView
	RecordResult(roundIndex, matchIndex int, score float64) error
	CloseRound(roundIndex int) error
	Advance() (pairing.Result, error)
	ApplyRatings() ([]elo.Update, error)
}

// StandingsConsole backs the standings screen
type StandingsConsole interface {
	TournamentView
	ExportStandings() (string, error)
	GoBack() error
}

// TournamentPicker backs the tournament selection screen
type TournamentPicker interface {
	Tournaments() ([]*data.Tournament, error)
	SelectTournament(id string) error
	ShowRound() error
}

// playerNames maps federation ids to full names
func playerNames(roster []data.Player) map[string]string {
	names := make(map[string]string, len(roster))
	for _, p := range roster {
		names[p.FederationID] = p.FullName()
	}
	return names
}
