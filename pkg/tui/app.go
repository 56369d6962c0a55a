// Package tui provides the terminal console a tournament director uses on
// club nights. It implements the application shell with screen management,
// global keyboard shortcuts and the help screen.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/pashagolub/chessclub/pkg/data"
	"github.com/pashagolub/chessclub/pkg/elo"
	"github.com/pashagolub/chessclub/pkg/journal"
	"github.com/pashagolub/chessclub/pkg/pairing"
	"github.com/pashagolub/chessclub/pkg/tournament"
	"github.com/pashagolub/chessclub/pkg/tui/screens"
)

// ErrNoTournament is returned by operations that need a selected tournament
var ErrNoTournament = errors.New("no tournament selected")

// ScreenType represents different screens in the TUI application
type ScreenType int

const (
	ScreenSetup ScreenType = iota
	ScreenRound
	ScreenStandings
	ScreenHelp
)

// String returns the string representation of ScreenType
func (s ScreenType) String() string {
	switch s {
	case ScreenSetup:
		return "setup"
	case ScreenRound:
		return "round"
	case ScreenStandings:
		return "standings"
	case ScreenHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Screen interface defines the contract for all TUI screens
type Screen interface {
	// GetPrimitive returns the tview.Primitive for this screen
	GetPrimitive() tview.Primitive

	// OnEnter is called when the screen becomes active
	OnEnter(app any) error

	// OnExit is called when leaving the screen
	OnExit(app any) error

	// GetTitle returns the screen title for display
	GetTitle() string
}

// Options wires the console to the club's stores
type Options struct {
	Storage      data.Storage
	Director     *tournament.Director
	Exporter     *journal.Exporter
	ExportDir    string
	ExportFormat journal.ExportFormat
	Logger       *slog.Logger
}

// AppState represents the current application state
type AppState struct {
	mu             sync.RWMutex
	tournament     *data.Tournament
	currentScreen  ScreenType
	previousScreen ScreenType
	isRunning      bool
	lastExportTime *time.Time
}

// App represents the main TUI application
type App struct {
	tviewApp *tview.Application
	pages    *tview.Pages
	header   *tview.TextView
	footer   *tview.TextView
	state    *AppState
	screens  map[ScreenType]Screen
	options  Options
	logger   *slog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.RWMutex
}

var (
	_ screens.RoundDirector    = (*App)(nil)
	_ screens.StandingsConsole = (*App)(nil)
	_ screens.TournamentPicker = (*App)(nil)
)

// KeyBinding represents a keyboard shortcut
type KeyBinding struct {
	Key         tcell.Key
	Rune        rune
	Description string
	Handler     func(app *App) error
}

// Global key bindings available across all screens
var globalKeyBindings = []KeyBinding{
	{Key: tcell.KeyCtrlC, Description: "Exit", Handler: (*App).Exit},
	{Key: tcell.KeyRune, Rune: '?', Description: "Help", Handler: (*App).ShowHelp},
	{Key: tcell.KeyRune, Rune: 't', Description: "Tournaments", Handler: (*App).ShowSetup},
	{Key: tcell.KeyRune, Rune: 'r', Description: "Round", Handler: (*App).ShowRound},
	{Key: tcell.KeyRune, Rune: 's', Description: "Standings", Handler: (*App).ShowStandings},
	{Key: tcell.KeyRune, Rune: 'e', Description: "Export standings", Handler: func(a *App) error {
		_, err := a.ExportStandings()
		return err
	}},
}

// NewApp creates a new TUI application instance
func NewApp(options Options) (*App, error) {
	if options.Storage == nil {
		return nil, fmt.Errorf("storage cannot be nil")
	}
	if options.Director == nil {
		return nil, fmt.Errorf("director cannot be nil")
	}
	if options.Exporter == nil {
		options.Exporter = journal.NewExporter()
	}
	if options.ExportFormat == "" {
		options.ExportFormat = journal.FormatText
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		tviewApp: tview.NewApplication(),
		pages:    tview.NewPages(),
		header:   tview.NewTextView(),
		footer:   tview.NewTextView(),
		state: &AppState{
			currentScreen:  ScreenSetup,
			previousScreen: ScreenSetup,
		},
		screens: make(map[ScreenType]Screen),
		options: options,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}

	if err := app.setupUI(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to setup UI: %w", err)
	}

	return app, nil
}

// setupUI initializes the UI components and layout
func (a *App) setupUI() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.header.SetBorder(true).
		SetTitle("Chess Club Tournament Director").
		SetTitleAlign(tview.AlignCenter).
		SetBackgroundColor(tcell.ColorDarkBlue)
	a.header.SetTextColor(tcell.ColorWhite)

	a.footer.SetBorder(true).
		SetTitle("Keyboard Shortcuts").
		SetTitleAlign(tview.AlignCenter).
		SetBackgroundColor(tcell.ColorDarkGreen)
	a.footer.SetTextColor(tcell.ColorWhite)

	a.updateFooter()

	mainLayout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.header, 3, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.footer, 3, 0, false)
	mainLayout.SetInputCapture(a.handleGlobalInput)

	a.tviewApp.SetRoot(mainLayout, true)
	a.tviewApp.EnableMouse(true)
	a.tviewApp.SetBeforeDrawFunc(func(screen tcell.Screen) bool {
		a.updateHeader()
		return false
	})

	return nil
}

// RegisterDefaultScreens registers the tournament picker, round, standings
// and help screens
func (a *App) RegisterDefaultScreens() error {
	for screenType, screen := range map[ScreenType]Screen{
		ScreenSetup:     screens.NewSetupScreen(),
		ScreenRound:     screens.NewRoundScreen(),
		ScreenStandings: screens.NewStandingsScreen(),
		ScreenHelp:      NewHelpScreen(),
	} {
		if err := a.RegisterScreen(screenType, screen); err != nil {
			return err
		}
	}
	return nil
}

// RegisterScreen registers a screen with the application
func (a *App) RegisterScreen(screenType ScreenType, screen Screen) error {
	if screen == nil {
		return fmt.Errorf("screen cannot be nil")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.screens[screenType] = screen
	a.pages.AddPage(screenType.String(), screen.GetPrimitive(), true, false)

	return nil
}

// NavigateTo switches to the specified screen
func (a *App) NavigateTo(screenType ScreenType) error {
	a.mu.RLock()
	screen, exists := a.screens[screenType]
	a.mu.RUnlock()
	if !exists {
		return fmt.Errorf("screen %s not registered", screenType.String())
	}

	a.state.mu.RLock()
	previousScreen := a.state.currentScreen
	a.state.mu.RUnlock()

	a.mu.RLock()
	currentScreen, hasCurrentScreen := a.screens[previousScreen]
	a.mu.RUnlock()

	// Screens are entered and left without holding locks, they call back
	// into the app
	if hasCurrentScreen && previousScreen != screenType {
		if err := currentScreen.OnExit(a); err != nil {
			return fmt.Errorf("failed to exit screen %s: %w", previousScreen.String(), err)
		}
	}

	if err := screen.OnEnter(a); err != nil {
		return fmt.Errorf("failed to enter screen %s: %w", screenType.String(), err)
	}

	a.state.mu.Lock()
	if previousScreen != screenType {
		a.state.previousScreen = previousScreen
	}
	a.state.currentScreen = screenType
	a.state.mu.Unlock()

	a.pages.SwitchToPage(screenType.String())
	a.updateHeader()
	a.logger.Debug("screen changed",
		slog.String("from", previousScreen.String()),
		slog.String("to", screenType.String()))
	return nil
}

// GoBack returns to the previous screen
func (a *App) GoBack() error {
	a.state.mu.RLock()
	previous := a.state.previousScreen
	a.state.mu.RUnlock()
	return a.NavigateTo(previous)
}

// ShowSetup displays the tournament picker
func (a *App) ShowSetup() error {
	return a.NavigateTo(ScreenSetup)
}

// ShowRound displays the round screen of the selected tournament
func (a *App) ShowRound() error {
	if a.Tournament() == nil {
		return ErrNoTournament
	}
	return a.NavigateTo(ScreenRound)
}

// ShowStandings displays the standings of the selected tournament
func (a *App) ShowStandings() error {
	if a.Tournament() == nil {
		return ErrNoTournament
	}
	return a.NavigateTo(ScreenStandings)
}

// ShowHelp displays the help screen
func (a *App) ShowHelp() error {
	return a.NavigateTo(ScreenHelp)
}

// SetFocus moves keyboard focus to p
func (a *App) SetFocus(p tview.Primitive) {
	a.tviewApp.SetFocus(p)
}

// Exit stops the application
func (a *App) Exit() error {
	a.state.mu.Lock()
	defer a.state.mu.Unlock()

	a.state.isRunning = false
	a.cancel()
	a.tviewApp.Stop()

	return nil
}

// Run starts the TUI application. With a tournament id the round screen of
// that tournament is shown first, otherwise the tournament picker.
func (a *App) Run(tournamentID string) error {
	a.state.mu.Lock()
	a.state.isRunning = true
	a.state.mu.Unlock()

	start := ScreenSetup
	if tournamentID != "" {
		if err := a.SelectTournament(tournamentID); err != nil {
			return err
		}
		start = ScreenRound
	}
	if err := a.NavigateTo(start); err != nil {
		return fmt.Errorf("failed to navigate to %s screen: %w", start, err)
	}

	return a.tviewApp.Run()
}

// Stop gracefully stops the application
func (a *App) Stop() {
	if a.IsRunning() {
		a.Exit()
	}
}

// Tournament returns the selected tournament, or nil
func (a *App) Tournament() *data.Tournament {
	a.state.mu.RLock()
	defer a.state.mu.RUnlock()
	return a.state.tournament
}

// Tournaments returns every stored tournament
func (a *App) Tournaments() ([]*data.Tournament, error) {
	return a.options.Storage.LoadTournaments()
}

// SelectTournament loads the tournament with id, or a unique id prefix
func (a *App) SelectTournament(id string) error {
	t, err := a.options.Storage.GetTournament(id)
	if err != nil {
		return err
	}
	a.state.mu.Lock()
	a.state.tournament = t
	a.state.mu.Unlock()

	a.logger.Info("tournament selected",
		slog.String("tournament_id", t.TournamentID),
		slog.String("name", t.Name))
	return nil
}

// Roster returns every stored player
func (a *App) Roster() ([]data.Player, error) {
	return a.options.Storage.LoadPlayers()
}

// RecordResult stores the score of side A of a match and saves the tournament
func (a *App) RecordResult(roundIndex, matchIndex int, score float64) error {
	return a.update(func(t *data.Tournament) error {
		return a.options.Director.RecordMatch(t, roundIndex, matchIndex, score)
	})
}

// CloseRound closes a round and saves the tournament
func (a *App) CloseRound(roundIndex int) error {
	return a.update(func(t *data.Tournament) error {
		return a.options.Director.CloseRound(t, roundIndex)
	})
}

// Advance starts an upcoming tournament, or pairs the next round of a running
// one, and saves it
func (a *App) Advance() (pairing.Result, error) {
	var result pairing.Result
	err := a.update(func(t *data.Tournament) error {
		var err error
		if t.Status == data.StatusUpcoming {
			result, err = a.options.Director.Start(t)
		} else {
			result, err = a.options.Director.Advance(t)
		}
		return err
	})
	return result, err
}

// ApplyRatings rates the games of closed rounds not rated yet. The rated
// players and the marked rounds are stored together.
func (a *App) ApplyRatings() ([]elo.Update, error) {
	var updates []elo.Update
	err := a.update(func(t *data.Tournament) error {
		var err error
		updates, err = a.options.Director.ApplyPendingRatings(t, a.options.Storage)
		return err
	})
	return updates, err
}

// update runs op on the selected tournament and saves it when op succeeds
func (a *App) update(op func(t *data.Tournament) error) error {
	t := a.Tournament()
	if t == nil {
		return ErrNoTournament
	}
	if err := op(t); err != nil {
		return err
	}
	if err := a.options.Storage.SaveTournament(t); err != nil {
		a.logger.Error("failed to save tournament",
			slog.String("tournament_id", t.TournamentID),
			slog.Any("error", err))
		return fmt.Errorf("failed to save tournament: %w", err)
	}
	return nil
}

// ExportStandings writes the standings of the selected tournament to the
// export directory and returns the file path
func (a *App) ExportStandings() (string, error) {
	t := a.Tournament()
	if t == nil {
		a.showErrorDialog("Export Error", "No tournament selected")
		return "", ErrNoTournament
	}
	roster, err := a.Roster()
	if err != nil {
		a.showErrorDialog("Export Error", fmt.Sprintf("Failed to load players:\n\n%v", err))
		return "", fmt.Errorf("failed to load players: %w", err)
	}

	format := a.options.ExportFormat
	name := fmt.Sprintf("%s_%s", shortID(t.TournamentID), journal.FileName(journal.ReportStandings, format))
	path := filepath.Join(a.options.ExportDir, name)
	if err := a.options.Exporter.ExportToFile(journal.StandingsReport(t, roster), path, format); err != nil {
		a.showErrorDialog("Export Failed", fmt.Sprintf("Failed to export standings:\n\n%v", err))
		return "", err
	}

	now := time.Now()
	a.state.mu.Lock()
	a.state.lastExportTime = &now
	a.state.mu.Unlock()

	a.logger.Info("standings exported",
		slog.String("tournament_id", t.TournamentID),
		slog.String("path", path))
	a.updateHeader()
	return path, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// handleGlobalInput handles global keyboard shortcuts. Letter shortcuts are
// left to input fields while one has focus.
func (a *App) handleGlobalInput(event *tcell.EventKey) *tcell.EventKey {
	if event.Key() == tcell.KeyRune {
		if _, typing := a.tviewApp.GetFocus().(*tview.InputField); typing {
			return event
		}
	}

	for _, binding := range globalKeyBindings {
		if (binding.Key != tcell.KeyRune && event.Key() == binding.Key) ||
			(binding.Key == tcell.KeyRune && event.Key() == tcell.KeyRune && event.Rune() == binding.Rune) {
			if err := binding.Handler(a); err != nil {
				a.logger.Warn("shortcut failed",
					slog.String("shortcut", binding.Description),
					slog.Any("error", err))
				if !a.pages.HasPage("error-dialog") {
					a.showErrorDialog(binding.Description, err.Error())
				}
			}
			return nil
		}
	}

	return event
}

// updateHeader updates the header text with current screen information
func (a *App) updateHeader() {
	a.state.mu.RLock()
	currentScreen := a.state.currentScreen
	t := a.state.tournament
	lastExport := a.state.lastExportTime
	a.state.mu.RUnlock()

	a.mu.RLock()
	screen, exists := a.screens[currentScreen]
	a.mu.RUnlock()
	if !exists {
		return
	}

	tournamentInfo := ""
	if t != nil {
		tournamentInfo = fmt.Sprintf(" | Tournament: %s (%s, round %d/%d)",
			t.Name, t.Status.String(), t.CurrentRound, t.NumberOfRounds)
	}

	exportStatus := " | Not exported yet"
	if lastExport != nil {
		elapsed := time.Since(*lastExport)
		switch {
		case elapsed < time.Minute:
			exportStatus = fmt.Sprintf(" | Last exported: %ds ago", int(elapsed.Seconds()))
		case elapsed < time.Hour:
			exportStatus = fmt.Sprintf(" | Last exported: %dm ago", int(elapsed.Minutes()))
		default:
			exportStatus = fmt.Sprintf(" | Last exported: %s", lastExport.Format("15:04"))
		}
	}

	a.header.SetText(fmt.Sprintf("Screen: %s%s%s", screen.GetTitle(), tournamentInfo, exportStatus))
}

// showErrorDialog displays an error message in a modal dialog
func (a *App) showErrorDialog(title, message string) {
	modal := tview.NewModal().
		SetText(message).
		AddButtons([]string{"OK"}).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			a.pages.RemovePage("error-dialog")
		})

	modal.SetTitle(title).
		SetBorder(true).
		SetBackgroundColor(tcell.ColorDarkRed)

	a.pages.AddPage("error-dialog", modal, true, true)
}

// updateFooter updates the footer with current key bindings
func (a *App) updateFooter() {
	helpText := ""
	for i, binding := range globalKeyBindings {
		if i > 0 {
			helpText += " | "
		}
		helpText += fmt.Sprintf("%s: %s", keyName(binding), binding.Description)
	}
	a.footer.SetText(helpText)
}

func keyName(binding KeyBinding) string {
	if binding.Key != tcell.KeyRune {
		return tcell.KeyNames[binding.Key]
	}
	return string(binding.Rune)
}

// IsRunning returns whether the application is currently running
func (a *App) IsRunning() bool {
	a.state.mu.RLock()
	defer a.state.mu.RUnlock()
	return a.state.isRunning
}

// GetCurrentScreen returns the current screen type
func (a *App) GetCurrentScreen() ScreenType {
	a.state.mu.RLock()
	defer a.state.mu.RUnlock()
	return a.state.currentScreen
}

// Context is cancelled when the application exits
func (a *App) Context() context.Context {
	return a.ctx
}
