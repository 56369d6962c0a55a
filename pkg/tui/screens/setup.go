// This file implements the setup screen where the director picks the
// tournament to run.
package screens

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/pashagolub/chessclub/pkg/data"
)

// SetupScreen lists the stored tournaments
type SetupScreen struct {
	container    *tview.Flex
	list         *tview.List
	previewPanel *tview.TextView
	statusBar    *tview.TextView

	tournaments []*data.Tournament
	picker      TournamentPicker
}

// NewSetupScreen creates a new setup screen instance
func NewSetupScreen() *SetupScreen {
	ss := &SetupScreen{
		container:    tview.NewFlex(),
		list:         tview.NewList(),
		previewPanel: tview.NewTextView(),
		statusBar:    tview.NewTextView(),
	}

	ss.setupUI()
	return ss
}

func (ss *SetupScreen) setupUI() {
	ss.list.SetBorder(true).
		SetTitle(" Tournaments ").
		SetBorderColor(tcell.ColorBlue)
	ss.list.SetChangedFunc(func(index int, _, _ string, _ rune) {
		ss.updatePreview(index)
	})
	ss.list.SetSelectedFunc(func(index int, _, _ string, _ rune) {
		ss.selectTournament(index)
	})

	ss.previewPanel.SetBorder(true).
		SetTitle(" Details ").
		SetBorderColor(tcell.ColorGreen)
	ss.previewPanel.SetDynamicColors(true).
		SetWordWrap(true)

	ss.statusBar.SetDynamicColors(true)

	body := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(ss.list, 0, 1, true).
		AddItem(ss.previewPanel, 0, 1, false)

	ss.container.SetDirection(tview.FlexRow).
		AddItem(body, 0, 1, true).
		AddItem(ss.statusBar, 1, 0, false)
}

// GetPrimitive returns the main primitive for the setup screen
func (ss *SetupScreen) GetPrimitive() tview.Primitive {
	return ss.container
}

// OnEnter is called when the setup screen becomes active
func (ss *SetupScreen) OnEnter(app any) error {
	picker, ok := app.(TournamentPicker)
	if !ok {
		return ErrNoConsole
	}
	ss.picker = picker
	return ss.reload()
}

// OnExit is called when leaving the setup screen
func (ss *SetupScreen) OnExit(app any) error {
	return nil
}

// GetTitle returns the screen title
func (ss *SetupScreen) GetTitle() string {
	return "Select Tournament"
}

// GetHelpText returns help text for the setup screen
func (ss *SetupScreen) GetHelpText() []string {
	return []string{
		"Up/Down: Browse tournaments",
		"Enter: Run the selected tournament",
	}
}

// reload lists tournaments that are not finished first, newest start first
func (ss *SetupScreen) reload() error {
	tournaments, err := ss.picker.Tournaments()
	if err != nil {
		ss.setStatus("red", err.Error())
		return fmt.Errorf("failed to load tournaments: %w", err)
	}
	sort.SliceStable(tournaments, func(i, j int) bool {
		fi := tournaments[i].Status == data.StatusFinished
		fj := tournaments[j].Status == data.StatusFinished
		if fi != fj {
			return fj
		}
		return tournaments[i].StartDate > tournaments[j].StartDate
	})
	ss.tournaments = tournaments

	ss.list.Clear()
	for _, t := range tournaments {
		secondary := fmt.Sprintf("%s, %s, %s", t.StartDate, t.Location, t.Status.String())
		ss.list.AddItem(t.Name, secondary, 0, nil)
	}

	if len(tournaments) == 0 {
		ss.previewPanel.SetText("[gray]No tournaments yet. Create one with\n\n  chessclub tournament create[white]")
		ss.setStatus("yellow", "Nothing to run")
		return nil
	}
	ss.list.SetCurrentItem(0)
	ss.updatePreview(0)
	ss.setStatus("blue", fmt.Sprintf("%d tournaments, Enter to select", len(tournaments)))
	return nil
}

func (ss *SetupScreen) updatePreview(index int) {
	if index < 0 || index >= len(ss.tournaments) {
		return
	}
	t := ss.tournaments[index]

	var b strings.Builder
	fmt.Fprintf(&b, "[yellow]%s[white]\n\n", tview.Escape(t.Name))
	fmt.Fprintf(&b, "ID:       %s\n", t.TournamentID)
	fmt.Fprintf(&b, "Location: %s\n", tview.Escape(t.Location))
	fmt.Fprintf(&b, "Dates:    %s", t.StartDate)
	if t.EndDate != "" {
		fmt.Fprintf(&b, " to %s", t.EndDate)
	}
	fmt.Fprintf(&b, "\nStatus:   %s\n", t.Status.String())
	fmt.Fprintf(&b, "Players:  %d\n", len(t.Players))
	fmt.Fprintf(&b, "Round:    %d/%d\n", t.CurrentRound, t.NumberOfRounds)
	if t.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", tview.Escape(t.Description))
	}
	ss.previewPanel.SetText(b.String())
}

func (ss *SetupScreen) selectTournament(index int) {
	if index < 0 || index >= len(ss.tournaments) {
		return
	}
	t := ss.tournaments[index]
	if err := ss.picker.SelectTournament(t.TournamentID); err != nil {
		ss.setStatus("red", err.Error())
		return
	}
	if err := ss.picker.ShowRound(); err != nil {
		ss.setStatus("red", err.Error())
	}
}

func (ss *SetupScreen) setStatus(color, message string) {
	ss.statusBar.SetText(fmt.Sprintf("[%s]%s[white]", color, tview.Escape(message)))
}
