package journal

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pashagolub/chessclub/pkg/data"
	"github.com/pashagolub/chessclub/pkg/tournament"
)

// ReportKind names one of the club reports
type ReportKind string

const (
	ReportPlayers           ReportKind = "players"
	ReportTournaments       ReportKind = "tournaments"
	ReportTournamentPlayers ReportKind = "tournament-players"
	ReportRounds            ReportKind = "rounds"
	ReportStandings         ReportKind = "standings"
)

// ReportKinds lists every report in menu order
var ReportKinds = []ReportKind{
	ReportPlayers,
	ReportTournaments,
	ReportTournamentPlayers,
	ReportRounds,
	ReportStandings,
}

// NeedsTournament reports whether the report is about a single tournament
func (k ReportKind) NeedsTournament() bool {
	return k == ReportTournamentPlayers || k == ReportRounds || k == ReportStandings
}

// Report is a titled table ready for export. Cells hold strings, ints or
// float64 values.
type Report struct {
	Kind    ReportKind
	Title   string
	Columns []string
	Rows    [][]any

	// Chart settings for PNG export; a negative ValueColumn means the report
	// has nothing to plot
	LabelColumn int
	ValueColumn int
}

func newReport(kind ReportKind, title string, columns ...string) *Report {
	return &Report{
		Kind:        kind,
		Title:       title,
		Columns:     columns,
		Rows:        [][]any{},
		ValueColumn: -1,
	}
}

// PlayersReport lists the roster alphabetically
func PlayersReport(players []data.Player) *Report {
	sorted := make([]data.Player, len(players))
	copy(sorted, players)
	data.SortPlayers(sorted)

	r := newReport(ReportPlayers, "Players",
		"federation_id", "surname", "name", "date_of_birth", "elo", "k_factor", "games_played")
	for _, p := range sorted {
		r.Rows = append(r.Rows, []any{p.FederationID, p.Surname, p.Name, p.DateOfBirth, p.Elo, p.KFactor, p.GamesPlayed})
	}
	r.LabelColumn, r.ValueColumn = 1, 4
	return r
}

// TournamentsReport lists tournaments by start date
func TournamentsReport(tournaments []*data.Tournament) *Report {
	sorted := make([]*data.Tournament, len(tournaments))
	copy(sorted, tournaments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartDate < sorted[j].StartDate
	})

	r := newReport(ReportTournaments, "Tournaments",
		"tournament_id", "name", "location", "start_date", "end_date", "status", "round", "players")
	for _, t := range sorted {
		r.Rows = append(r.Rows, []any{
			t.TournamentID, t.Name, t.Location, t.StartDate, t.EndDate, t.Status.String(),
			fmt.Sprintf("%d/%d", t.CurrentRound, t.NumberOfRounds), len(t.Players),
		})
	}
	return r
}

// TournamentPlayersReport lists the registered players of a tournament
// alphabetically. Ids missing from the roster follow, ordered by id.
func TournamentPlayersReport(t *data.Tournament, roster []data.Player) *Report {
	known, unknown := splitRegistered(t, roster)

	r := newReport(ReportTournamentPlayers, "Players of "+t.Name,
		"federation_id", "surname", "name", "elo", "points")
	for _, p := range known {
		r.Rows = append(r.Rows, []any{p.FederationID, p.Surname, p.Name, p.Elo, t.Players[p.FederationID]})
	}
	for _, id := range unknown {
		r.Rows = append(r.Rows, []any{id, "", "", "", t.Players[id]})
	}
	r.LabelColumn, r.ValueColumn = 1, 3
	return r
}

func splitRegistered(t *data.Tournament, roster []data.Player) ([]data.Player, []string) {
	byID := make(map[string]data.Player, len(roster))
	for _, p := range roster {
		byID[p.FederationID] = p
	}
	var known []data.Player
	var unknown []string
	for _, id := range t.Players.IDs() {
		if p, ok := byID[id]; ok {
			known = append(known, p)
		} else {
			unknown = append(unknown, id)
		}
	}
	data.SortPlayers(known)
	return known, unknown
}

// RoundsReport lists every match of every round
func RoundsReport(t *data.Tournament) *Report {
	r := newReport(ReportRounds, "Rounds of "+t.Name,
		"round", "status", "start", "end", "board", "player_a", "score_a", "player_b", "score_b")
	for _, round := range t.Rounds {
		start := strings.TrimSpace(round.StartDate + " " + round.StartTime)
		end := strings.TrimSpace(round.EndDate + " " + round.EndTime)
		if len(round.Matches) == 0 {
			r.Rows = append(r.Rows, []any{round.Name, string(round.Status), start, end, "", "", "", "", ""})
			continue
		}
		for i, m := range round.Matches {
			r.Rows = append(r.Rows, []any{
				round.Name, string(round.Status), start, end, i + 1,
				m[0].PlayerID, scoreCell(m[0]), m[1].PlayerID, scoreCell(m[1]),
			})
		}
	}
	return r
}

func scoreCell(s data.Side) any {
	if !s.IsSet() {
		return ""
	}
	return s.Points()
}

// StandingsReport ranks the players of a tournament by points
func StandingsReport(t *data.Tournament, roster []data.Player) *Report {
	byID := make(map[string]data.Player, len(roster))
	for _, p := range roster {
		byID[p.FederationID] = p
	}

	r := newReport(ReportStandings, "Standings of "+t.Name,
		"rank", "federation_id", "player", "elo", "points", "played", "wins", "draws", "losses")
	for _, s := range tournament.Standings(t) {
		name, rating := "", any("")
		if p, ok := byID[s.PlayerID]; ok {
			name, rating = p.FullName(), p.Elo
		}
		r.Rows = append(r.Rows, []any{s.Rank, s.PlayerID, name, rating, s.Points, s.Played, s.Wins, s.Draws, s.Losses})
	}
	r.LabelColumn, r.ValueColumn = 1, 4
	return r
}
