package tui

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pashagolub/chessclub/pkg/data"
	"github.com/pashagolub/chessclub/pkg/journal"
	"github.com/pashagolub/chessclub/pkg/pairing"
	"github.com/pashagolub/chessclub/pkg/tournament"
)

// mockScreen is a mock implementation of Screen interface for testing
type mockScreen struct {
	title       string
	primitive   *tview.Box
	onEnterFunc func(app any) error
	onExitFunc  func(app any) error
}

func newMockScreen(title string) *mockScreen {
	return &mockScreen{title: title, primitive: tview.NewBox()}
}

func (ms *mockScreen) GetPrimitive() tview.Primitive {
	return ms.primitive
}

func (ms *mockScreen) OnEnter(app any) error {
	if ms.onEnterFunc != nil {
		return ms.onEnterFunc(app)
	}
	return nil
}

func (ms *mockScreen) OnExit(app any) error {
	if ms.onExitFunc != nil {
		return ms.onExitFunc(app)
	}
	return nil
}

func (ms *mockScreen) GetTitle() string {
	return ms.title
}

type testEnv struct {
	store      *data.FileStore
	director   *tournament.Director
	tournament *data.Tournament
	exportDir  string
}

// newTestEnv stores four players and an upcoming tournament with all of them
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	store := data.NewFileStore(data.StorageConfig{
		DataDir:         dir,
		PlayersFile:     "players.json",
		TournamentsFile: "tournaments.json",
		AtomicWrites:    true,
	}, nil)

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
		require.NoError(t, store.AddPlayer(*p))
	}

	director := tournament.NewDirector(pairing.NewSeeded(3), nil, nil)
	director.SetClock(func() time.Time { return time.Date(2024, 3, 9, 19, 0, 0, 0, time.UTC) })
	tour, err := director.Create(data.TournamentSpec{Name: "Club Championship", Location: "Club"})
	require.NoError(t, err)
	_, err = director.Subscribe(tour, "FR1", "FR2", "FR3", "FR4")
	require.NoError(t, err)
	require.NoError(t, store.SaveTournament(tour))

	return &testEnv{
		store:      store,
		director:   director,
		tournament: tour,
		exportDir:  filepath.Join(dir, "reports"),
	}
}

func (e *testEnv) newApp(t *testing.T) *App {
	t.Helper()
	app, err := NewApp(Options{
		Storage:      e.store,
		Director:     e.director,
		ExportDir:    e.exportDir,
		ExportFormat: journal.FormatCSV,
	})
	require.NoError(t, err)
	return app
}

func TestNewApp(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name        string
		options     Options
		expectError bool
	}{
		{
			name:    "valid options",
			options: Options{Storage: env.store, Director: env.director},
		},
		{
			name:        "nil storage",
			options:     Options{Director: env.director},
			expectError: true,
		},
		{
			name:        "nil director",
			options:     Options{Storage: env.store},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, err := NewApp(tt.options)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, app)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, app.tviewApp)
			assert.NotNil(t, app.pages)
			assert.Equal(t, ScreenSetup, app.GetCurrentScreen())
			assert.Equal(t, journal.FormatText, app.options.ExportFormat, "text is the default format")
			assert.NotNil(t, app.options.Exporter)
			assert.Nil(t, app.Tournament())
		})
	}
}

func TestAppScreenRegistration(t *testing.T) {
	app := newTestEnv(t).newApp(t)

	assert.NoError(t, app.RegisterScreen(ScreenRound, newMockScreen("Round")))
	assert.Contains(t, app.screens, ScreenRound)
	assert.True(t, app.pages.HasPage("round"))

	assert.Error(t, app.RegisterScreen(ScreenStandings, nil))

	require.NoError(t, app.RegisterDefaultScreens())
	assert.Len(t, app.screens, 4)
}

func TestAppNavigation(t *testing.T) {
	app := newTestEnv(t).newApp(t)

	require.NoError(t, app.RegisterScreen(ScreenSetup, newMockScreen("Setup")))
	require.NoError(t, app.RegisterScreen(ScreenHelp, newMockScreen("Help")))

	require.NoError(t, app.NavigateTo(ScreenSetup))
	assert.Equal(t, ScreenSetup, app.GetCurrentScreen())

	assert.Error(t, app.NavigateTo(ScreenStandings), "unregistered screen")

	require.NoError(t, app.ShowHelp())
	assert.Equal(t, ScreenHelp, app.GetCurrentScreen())
	assert.Contains(t, app.header.GetText(true), "Screen: Help")

	require.NoError(t, app.GoBack())
	assert.Equal(t, ScreenSetup, app.GetCurrentScreen())

	assert.ErrorIs(t, app.ShowRound(), ErrNoTournament)
	assert.ErrorIs(t, app.ShowStandings(), ErrNoTournament)
}

func TestAppScreenCallbacks(t *testing.T) {
	app := newTestEnv(t).newApp(t)

	enterCalled, exitCalled := false, false
	setup := newMockScreen("Setup")
	setup.onEnterFunc = func(a any) error {
		enterCalled = true
		_, ok := a.(*App)
		assert.True(t, ok)
		return nil
	}
	setup.onExitFunc = func(any) error {
		exitCalled = true
		return nil
	}
	require.NoError(t, app.RegisterScreen(ScreenSetup, setup))
	require.NoError(t, app.RegisterScreen(ScreenHelp, newMockScreen("Help")))

	require.NoError(t, app.NavigateTo(ScreenSetup))
	assert.True(t, enterCalled)
	assert.False(t, exitCalled, "re-entering the current screen does not leave it")

	require.NoError(t, app.NavigateTo(ScreenHelp))
	assert.True(t, exitCalled)
}

func TestAppErrorHandling(t *testing.T) {
	app := newTestEnv(t).newApp(t)

	broken := newMockScreen("Broken")
	broken.onEnterFunc = func(any) error { return assert.AnError }
	require.NoError(t, app.RegisterScreen(ScreenHelp, broken))

	original := app.GetCurrentScreen()
	err := app.NavigateTo(ScreenHelp)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, original, app.GetCurrentScreen())
}

func TestAppKeyBindings(t *testing.T) {
	app := newTestEnv(t).newApp(t)
	require.NoError(t, app.RegisterDefaultScreens())
	require.NoError(t, app.NavigateTo(ScreenSetup))

	result := app.handleGlobalInput(tcell.NewEventKey(tcell.KeyRune, '?', tcell.ModNone))
	assert.Nil(t, result)
	assert.Equal(t, ScreenHelp, app.GetCurrentScreen())

	// standings need a tournament, the failure shows a dialog
	result = app.handleGlobalInput(tcell.NewEventKey(tcell.KeyRune, 's', tcell.ModNone))
	assert.Nil(t, result)
	assert.Equal(t, ScreenHelp, app.GetCurrentScreen())
	assert.True(t, app.pages.HasPage("error-dialog"))

	event := tcell.NewEventKey(tcell.KeyRune, 'z', tcell.ModNone)
	assert.Equal(t, event, app.handleGlobalInput(event))

	// letters go to a focused input field
	input := tview.NewInputField()
	app.SetFocus(input)
	event = tcell.NewEventKey(tcell.KeyRune, 's', tcell.ModNone)
	assert.Equal(t, event, app.handleGlobalInput(event))

	app.state.isRunning = true
	result = app.handleGlobalInput(tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl))
	assert.Nil(t, result)
	assert.False(t, app.IsRunning())
	assert.Error(t, app.Context().Err())
}

func TestAppTournamentFlow(t *testing.T) {
	env := newTestEnv(t)
	app := env.newApp(t)

	_, err := app.Advance()
	assert.ErrorIs(t, err, ErrNoTournament)
	assert.Error(t, app.SelectTournament("missing"))

	require.NoError(t, app.SelectTournament(env.tournament.TournamentID[:8]))
	require.NotNil(t, app.Tournament())

	result, err := app.Advance()
	require.NoError(t, err)
	assert.Len(t, result.Matches, 2)

	stored, err := env.store.GetTournament(env.tournament.TournamentID)
	require.NoError(t, err)
	assert.Equal(t, data.StatusInProgress, stored.Status, "start is saved")
	assert.Equal(t, 3, stored.NumberOfRounds)

	require.NoError(t, app.RecordResult(0, 0, 1))
	require.NoError(t, app.RecordResult(0, 1, 0.5))
	assert.Error(t, app.RecordResult(0, 5, 1))
	assert.ErrorIs(t, app.RecordResult(0, 0, 0.25), data.ErrInvalidResult)
	require.NoError(t, app.CloseRound(0))

	updates, err := app.ApplyRatings()
	require.NoError(t, err)
	assert.Len(t, updates, 4)

	stored, err = env.store.GetTournament(env.tournament.TournamentID)
	require.NoError(t, err)
	assert.Equal(t, data.RoundClosed, stored.Rounds[0].Status)
	assert.True(t, stored.Rounds[0].RatingsApplied)
	assert.Equal(t, 2.0, stored.Players.TotalPoints())

	winner := stored.Rounds[0].Matches[0][0].PlayerID
	player, err := env.store.GetPlayer(winner)
	require.NoError(t, err)
	assert.Equal(t, 1, player.GamesPlayed)

	updates, err = app.ApplyRatings()
	require.NoError(t, err)
	assert.Empty(t, updates, "rounds are rated once")

	_, err = app.Advance()
	require.NoError(t, err)
	assert.Equal(t, 2, app.Tournament().CurrentRound)
}

func TestAppExportStandings(t *testing.T) {
	env := newTestEnv(t)
	app := env.newApp(t)

	_, err := app.ExportStandings()
	assert.ErrorIs(t, err, ErrNoTournament)
	assert.True(t, app.pages.HasPage("error-dialog"))
	app.pages.RemovePage("error-dialog")

	require.NoError(t, app.SelectTournament(env.tournament.TournamentID))
	path, err := app.ExportStandings()
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, env.exportDir, filepath.Dir(path))
	assert.True(t, strings.HasSuffix(path, "_standings.csv"))
	assert.True(t, strings.HasPrefix(filepath.Base(path), env.tournament.TournamentID[:8]))
	assert.False(t, app.pages.HasPage("error-dialog"))

	require.NoError(t, app.RegisterScreen(ScreenSetup, newMockScreen("Setup")))
	app.updateHeader()
	assert.Contains(t, app.header.GetText(true), "Last exported")
	assert.Contains(t, app.header.GetText(true), "Club Championship")
}

func TestAppDefaultScreens(t *testing.T) {
	env := newTestEnv(t)
	app := env.newApp(t)
	require.NoError(t, app.RegisterDefaultScreens())

	require.NoError(t, app.ShowSetup())
	require.NoError(t, app.SelectTournament(env.tournament.TournamentID))
	require.NoError(t, app.ShowRound())
	assert.Equal(t, ScreenRound, app.GetCurrentScreen())
	assert.Contains(t, app.header.GetText(true), "Rounds of Club Championship")

	require.NoError(t, app.ShowStandings())
	assert.Equal(t, ScreenStandings, app.GetCurrentScreen())

	require.NoError(t, app.GoBack())
	assert.Equal(t, ScreenRound, app.GetCurrentScreen())
}

func TestHelpScreen(t *testing.T) {
	app := newTestEnv(t).newApp(t)
	require.NoError(t, app.RegisterScreen(ScreenSetup, newMockScreen("Setup")))
	help := NewHelpScreen()
	require.NoError(t, app.RegisterScreen(ScreenHelp, help))

	require.NoError(t, app.NavigateTo(ScreenSetup))
	require.NoError(t, app.ShowHelp())

	text := help.textView.GetText(true)
	assert.Contains(t, text, "Global Keyboard Shortcuts")
	assert.Contains(t, text, "Export standings")
	assert.Equal(t, "Help", help.GetTitle())

	assert.Nil(t, help.handleInput(tcell.NewEventKey(tcell.KeyEsc, 0, tcell.ModNone)))
	assert.Equal(t, ScreenSetup, app.GetCurrentScreen())

	event := tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone)
	assert.Equal(t, event, help.handleInput(event))
}

func TestScreenTypeString(t *testing.T) {
	tests := []struct {
		screen   ScreenType
		expected string
	}{
		{ScreenSetup, "setup"},
		{ScreenRound, "round"},
		{ScreenStandings, "standings"},
		{ScreenHelp, "help"},
		{ScreenType(999), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.screen.String())
		})
	}
}

func TestAppCleanup(t *testing.T) {
	app := newTestEnv(t).newApp(t)

	app.state.isRunning = true
	app.Stop()
	assert.False(t, app.IsRunning())

	// Multiple stops should be safe
	app.Stop()
	assert.False(t, app.IsRunning())
}

func BenchmarkAppNavigation(b *testing.B) {
	app, err := NewApp(Options{
		Storage:  data.NewFileStore(data.StorageConfig{DataDir: b.TempDir(), PlayersFile: "p.json", TournamentsFile: "t.json"}, nil),
		Director: tournament.NewDirector(pairing.NewSeeded(1), nil, nil),
	})
	require.NoError(b, err)

	_ = app.RegisterScreen(ScreenSetup, newMockScreen("Setup"))
	_ = app.RegisterScreen(ScreenHelp, newMockScreen("Help"))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = app.NavigateTo(ScreenSetup)
		_ = app.NavigateTo(ScreenHelp)
	}
}
