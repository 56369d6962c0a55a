package journal

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pashagolub/chessclub/pkg/data"
	"github.com/pashagolub/chessclub/pkg/pairing"
	"github.com/pashagolub/chessclub/pkg/tournament"
)

var exportTime = time.Date(2024, 5, 4, 18, 30, 0, 0, time.UTC)

func testRoster(t *testing.T) []data.Player {
	t.Helper()
	rows := []struct {
		id, surname, name string
		elo               int
	}{
		{"FR3", "Zukertort", "Johannes", 2100},
		{"FR1", "anderssen", "Adolf", 1900},
		{"FR2", "Morphy", "Paul", 2450},
		{"FR4", "Blackburne", "Joseph", 2000},
	}
	players := make([]data.Player, 0, len(rows))
	for _, r := range rows {
		p, err := data.NewPlayer(r.id, r.surname, r.name, "", r.elo, data.DefaultValidationConfig())
		require.NoError(t, err)
		players = append(players, *p)
	}
	return players
}

// playedTournament returns a tournament with one closed round and one open round
func playedTournament(t *testing.T) *data.Tournament {
	t.Helper()
	d := tournament.NewDirector(pairing.NewSeeded(21), nil, nil)
	d.SetClock(func() time.Time { return exportTime })

	tour, err := d.Create(data.TournamentSpec{Name: "Spring Open", Location: "Club"})
	require.NoError(t, err)
	_, err = d.Subscribe(tour, "FR1", "FR2", "FR3", "FR4", "FR9")
	require.NoError(t, err)
	_, err = d.Start(tour)
	require.NoError(t, err)
	require.NoError(t, d.RecordMatch(tour, 0, 0, 1))
	require.NoError(t, d.RecordMatch(tour, 0, 1, 0.5))
	require.NoError(t, d.CloseRound(tour, 0))
	_, err = d.Advance(tour)
	require.NoError(t, err)
	return tour
}

func newTestExporter() *Exporter {
	e := NewExporter()
	e.SetClock(func() time.Time { return exportTime })
	return e
}

func TestReports(t *testing.T) {
	roster := testRoster(t)
	tour := playedTournament(t)

	t.Run("players are alphabetical", func(t *testing.T) {
		r := PlayersReport(roster)
		require.Len(t, r.Rows, 4)
		var surnames []any
		for _, row := range r.Rows {
			surnames = append(surnames, row[1])
		}
		assert.Equal(t, []any{"anderssen", "Blackburne", "Morphy", "Zukertort"}, surnames)
		assert.Equal(t, "FR3", roster[0].FederationID, "input is not reordered")
	})

	t.Run("tournament players", func(t *testing.T) {
		r := TournamentPlayersReport(tour, roster)
		require.Len(t, r.Rows, 5)
		assert.Equal(t, "FR1", r.Rows[0][0])
		assert.Equal(t, "FR9", r.Rows[4][0], "unknown ids come last")
		assert.Equal(t, "", r.Rows[4][1])
	})

	t.Run("tournaments", func(t *testing.T) {
		older, err := data.NewTournament(data.TournamentSpec{Name: "Winter Cup", Location: "Club", StartDate: "2023-12-01"}, exportTime)
		require.NoError(t, err)
		r := TournamentsReport([]*data.Tournament{tour, older})
		require.Len(t, r.Rows, 2)
		assert.Equal(t, "Winter Cup", r.Rows[0][1])
		assert.Equal(t, "2/4", r.Rows[1][6])
		assert.Equal(t, 5, r.Rows[1][7])
	})

	t.Run("rounds", func(t *testing.T) {
		r := RoundsReport(tour)
		require.Len(t, r.Rows, 4, "two matches in each round")
		assert.Equal(t, "Round 1", r.Rows[0][0])
		assert.Equal(t, "closed", r.Rows[0][1])
		assert.Equal(t, 1, r.Rows[0][4])
		assert.Equal(t, "", r.Rows[2][6], "open round has no scores")
	})

	t.Run("standings", func(t *testing.T) {
		r := StandingsReport(tour, roster)
		require.Len(t, r.Rows, 5)
		assert.Equal(t, 1, r.Rows[0][0])
		assert.Equal(t, 1.0, r.Rows[0][4])
		last := r.Rows[4]
		assert.Equal(t, 0.0, last[4])
		for _, row := range r.Rows {
			if row[1] == "FR9" {
				assert.Equal(t, "", row[2])
				assert.Equal(t, "", row[3])
			}
		}
	})

	t.Run("kinds", func(t *testing.T) {
		assert.False(t, ReportPlayers.NeedsTournament())
		assert.False(t, ReportTournaments.NeedsTournament())
		assert.True(t, ReportStandings.NeedsTournament())
		assert.Len(t, ReportKinds, 5)
	})
}

func TestExporter_CSV(t *testing.T) {
	r := PlayersReport(testRoster(t))

	var buf bytes.Buffer
	require.NoError(t, newTestExporter().Export(r, FormatCSV, &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, r.Columns, records[0])
	assert.Equal(t, []string{"FR1", "anderssen", "Adolf", "", "1900", "40", "0"}, records[1])
}

func TestExporter_JSON(t *testing.T) {
	r := StandingsReport(playedTournament(t), testRoster(t))

	var buf bytes.Buffer
	require.NoError(t, newTestExporter().Export(r, FormatJSON, &buf))

	var doc ReportExport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, ReportStandings, doc.Kind)
	assert.Equal(t, "Standings of Spring Open", doc.Title)
	assert.True(t, doc.ExportedAt.Equal(exportTime))
	require.Len(t, doc.Rows, 5)
	assert.Equal(t, float64(1), doc.Rows[0]["rank"])
	assert.Contains(t, doc.Rows[0], "points")
}

func TestExporter_Text(t *testing.T) {
	e := newTestExporter()

	var buf bytes.Buffer
	require.NoError(t, e.Export(PlayersReport(testRoster(t)), FormatText, &buf))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Players\n=======\n"))
	assert.Contains(t, out, "Generated: 2024-05-04 18:30:00")
	assert.Contains(t, out, "federation_id")
	assert.Less(t, strings.Index(out, "anderssen"), strings.Index(out, "Zukertort"))

	buf.Reset()
	require.NoError(t, e.Export(PlayersReport(nil), FormatText, &buf))
	assert.Contains(t, buf.String(), "(no entries)")
}

func TestExporter_XLSX(t *testing.T) {
	r := RoundsReport(playedTournament(t))

	var buf bytes.Buffer
	require.NoError(t, newTestExporter().Export(r, FormatXLSX, &buf))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	require.Len(t, sheets, 1)
	assert.Equal(t, "Rounds of Spring Open", sheets[0])

	rows, err := f.GetRows(sheets[0])
	require.NoError(t, err)
	require.Len(t, rows, len(r.Rows)+1)
	assert.Equal(t, r.Columns, rows[0])
	assert.Equal(t, "Round 1", rows[1][0])
}

func TestExporter_PNG(t *testing.T) {
	e := newTestExporter()

	var buf bytes.Buffer
	require.NoError(t, e.Export(StandingsReport(playedTournament(t), testRoster(t)), FormatPNG, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))

	err := e.Export(TournamentsReport(nil), FormatPNG, &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrNothingToChart)

	err = e.Export(PlayersReport(nil), FormatPNG, &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrNothingToChart)
}

func TestExporter_FileOperations(t *testing.T) {
	dir := t.TempDir()
	e := newTestExporter()
	r := PlayersReport(testRoster(t))

	path := filepath.Join(dir, "reports", FileName(ReportPlayers, FormatText))
	require.NoError(t, e.ExportToFile(r, path, FormatText))
	assert.FileExists(t, path)
	assert.NoFileExists(t, path+".tmp")
	assert.Equal(t, "players.txt", filepath.Base(path))

	bad := filepath.Join(dir, "bad.out")
	err := e.ExportToFile(r, bad, ExportFormat("pdf"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.NoFileExists(t, bad)
	assert.NoFileExists(t, bad+".tmp")
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    ExportFormat
		wantErr bool
	}{
		{in: "csv", want: FormatCSV},
		{in: " XLSX ", want: FormatXLSX},
		{in: "text", want: FormatText},
		{in: "png", want: FormatPNG},
		{in: "pdf", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "txt", FormatText.Extension())
	assert.Equal(t, "standings.xlsx", FileName(ReportStandings, FormatXLSX))
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Report", sheetName("  "))
	assert.Equal(t, "a b", sheetName("a/b"))
	assert.Len(t, []rune(sheetName(strings.Repeat("x", 40))), 31)
}
