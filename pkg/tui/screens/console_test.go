package screens

import (
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/rivo/tview"
	"github.com/stretchr/testify/require"

	"github.com/pashagolub/chessclub/pkg/data"
	"github.com/pashagolub/chessclub/pkg/elo"
	"github.com/pashagolub/chessclub/pkg/pairing"
	"github.com/pashagolub/chessclub/pkg/tournament"
)

var consoleTime = time.Date(2024, 3, 9, 19, 0, 0, 0, time.UTC)

// mockConsole drives a real director over in-memory players and records calls
type mockConsole struct {
	director    *tournament.Director
	tournaments []*data.Tournament
	current     *data.Tournament
	players     map[string]data.Player

	rosterErr  error
	exportPath string
	exportErr  error
	backErr    error

	calls   []string
	focused tview.Primitive
}

func newMockConsole(t *testing.T) *mockConsole {
	t.Helper()
	d := tournament.NewDirector(pairing.NewSeeded(7), nil, nil)
	d.SetClock(func() time.Time { return consoleTime })

	m := &mockConsole{director: d, players: map[string]data.Player{}}
	for _, r := range []struct {
		id, surname, name string
		elo               int
	}{
		{"FR1", "Anderssen", "Adolf", 1900},
		{"FR2", "Morphy", "Paul", 2450},
		{"FR3", "Zukertort", "Johannes", 2100},
		{"FR4", "Blackburne", "Joseph", 2000},
	} {
		p, err := data.NewPlayer(r.id, r.surname, r.name, "", r.elo, data.DefaultValidationConfig())
		require.NoError(t, err)
		m.players[p.FederationID] = *p
	}

	tour, err := d.Create(data.TournamentSpec{Name: "Club Championship", Location: "Club", StartDate: "2024-03-09"})
	require.NoError(t, err)
	_, err = d.Subscribe(tour, "FR1", "FR2", "FR3", "FR4")
	require.NoError(t, err)
	m.tournaments = []*data.Tournament{tour}
	m.current = tour
	return m
}

func (m *mockConsole) Tournament() *data.Tournament {
	return m.current
}

func (m *mockConsole) Roster() ([]data.Player, error) {
	m.calls = append(m.calls, "Roster")
	if m.rosterErr != nil {
		return nil, m.rosterErr
	}
	roster := make([]data.Player, 0, len(m.players))
	for _, p := range m.players {
		roster = append(roster, p)
	}
	sort.Slice(roster, func(i, j int) bool { return roster[i].FederationID < roster[j].FederationID })
	return roster, nil
}

func (m *mockConsole) RecordResult(roundIndex, matchIndex int, score float64) error {
	m.calls = append(m.calls, "RecordResult")
	return m.director.RecordMatch(m.current, roundIndex, matchIndex, score)
}

func (m *mockConsole) CloseRound(roundIndex int) error {
	m.calls = append(m.calls, "CloseRound")
	return m.director.CloseRound(m.current, roundIndex)
}

func (m *mockConsole) Advance() (pairing.Result, error) {
	m.calls = append(m.calls, "Advance")
	if m.current.Status == data.StatusUpcoming {
		return m.director.Start(m.current)
	}
	return m.director.Advance(m.current)
}

func (m *mockConsole) ApplyRatings() ([]elo.Update, error) {
	m.calls = append(m.calls, "ApplyRatings")
	return m.director.ApplyPendingRatings(m.current, m)
}

func (m *mockConsole) GetPlayer(id string) (*data.Player, error) {
	p, ok := m.players[id]
	if !ok {
		return nil, data.ErrPlayerNotFound
	}
	return &p, nil
}

func (m *mockConsole) UpdatePlayers(players []data.Player) error {
	for _, p := range players {
		m.players[p.FederationID] = p
	}
	return nil
}

func (m *mockConsole) ExportStandings() (string, error) {
	m.calls = append(m.calls, "ExportStandings")
	return m.exportPath, m.exportErr
}

func (m *mockConsole) GoBack() error {
	m.calls = append(m.calls, "GoBack")
	return m.backErr
}

func (m *mockConsole) Tournaments() ([]*data.Tournament, error) {
	m.calls = append(m.calls, "Tournaments")
	return m.tournaments, nil
}

func (m *mockConsole) SelectTournament(id string) error {
	m.calls = append(m.calls, "SelectTournament")
	for _, t := range m.tournaments {
		if t.TournamentID == id {
			m.current = t
			return nil
		}
	}
	return errors.New("tournament not found")
}

func (m *mockConsole) ShowRound() error {
	m.calls = append(m.calls, "ShowRound")
	return nil
}

func (m *mockConsole) SetFocus(p tview.Primitive) {
	m.focused = p
}

func (m *mockConsole) called(name string) int {
	n := 0
	for _, c := range m.calls {
		if c == name {
			n++
		}
	}
	return n
}
