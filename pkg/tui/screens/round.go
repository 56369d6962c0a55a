// This file implements the round screen where the director enters results,
// closes rounds, pairs the next round and applies ratings.
package screens

import (
	"fmt"
	"strconv"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/pashagolub/chessclub/pkg/data"
	"github.com/pashagolub/chessclub/pkg/tui/components"
)

// RoundScreen shows the matches of one round and accepts results
type RoundScreen struct {
	container  *tview.Flex
	mainLayout *tview.Flex
	sidebar    *tview.Flex

	matchTable *tview.Table
	carousel   *components.Carousel
	progress   *components.Progress

	statusBar *tview.TextView
	helpBar   *tview.TextView

	names   map[string]string
	console RoundDirector
}

// NewRoundScreen creates a new round screen instance
func NewRoundScreen() *RoundScreen {
	rs := &RoundScreen{
		container:  tview.NewFlex(),
		mainLayout: tview.NewFlex(),
		sidebar:    tview.NewFlex(),
		matchTable: tview.NewTable(),
		progress:   components.NewProgress(components.DefaultProgressConfig()),
		statusBar:  tview.NewTextView(),
		helpBar:    tview.NewTextView(),
		names:      map[string]string{},
	}
	rs.carousel = components.NewCarouselWithConfig(components.CarouselConfig{
		ShowNavigation: true,
		OnNavigate: func(int, data.Round) {
			rs.updateTable()
		},
	})

	rs.setupUI()
	return rs
}

func (rs *RoundScreen) setupUI() {
	rs.matchTable.SetBorder(true).
		SetTitle(" Matches ").
		SetTitleAlign(tview.AlignLeft)
	rs.matchTable.SetSelectable(true, false)
	rs.matchTable.SetFixed(1, 0)
	rs.matchTable.SetInputCapture(rs.handleInput)
	rs.setupTableHeaders()

	rs.statusBar.SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	rs.helpBar.SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter).
		SetText("[gray]1:A wins  0:B wins  =:Draw  c:Close round  n:Next round  a:Apply ratings  ←/→:Rounds[white]")

	rs.sidebar.SetDirection(tview.FlexRow).
		AddItem(rs.progress.GetPrimitive(), 7, 0, false).
		AddItem(rs.carousel.GetPrimitive(), 0, 1, false)

	rs.mainLayout.SetDirection(tview.FlexColumn).
		AddItem(rs.matchTable, 0, 3, true).
		AddItem(rs.sidebar, 50, 1, false)

	rs.container.SetDirection(tview.FlexRow).
		AddItem(rs.mainLayout, 0, 1, true).
		AddItem(rs.statusBar, 1, 0, false).
		AddItem(rs.helpBar, 1, 0, false)
}

func (rs *RoundScreen) setupTableHeaders() {
	headers := []string{"Board", "Side A", "Score", "Score", "Side B"}
	for col, header := range headers {
		cell := tview.NewTableCell(header).
			SetTextColor(tcell.ColorYellow).
			SetAlign(tview.AlignCenter).
			SetSelectable(false).
			SetExpansion(1)
		if col == 1 || col == 4 {
			cell.SetExpansion(3)
		}
		rs.matchTable.SetCell(0, col, cell)
	}
}

// GetPrimitive returns the main primitive for the round screen
func (rs *RoundScreen) GetPrimitive() tview.Primitive {
	return rs.container
}

// OnEnter is called when the round screen becomes active
func (rs *RoundScreen) OnEnter(app any) error {
	console, ok := app.(RoundDirector)
	if !ok {
		return ErrNoConsole
	}
	rs.console = console

	roster, err := console.Roster()
	if err != nil {
		rs.setStatus("yellow", fmt.Sprintf("Player names unavailable: %v", err))
	} else {
		rs.setStatus("blue", "Select a match and enter its result")
	}
	rs.names = playerNames(roster)
	rs.carousel.SetPlayerNames(rs.names)

	rs.refresh()
	rs.carousel.Last()
	return nil
}

// OnExit is called when leaving the round screen
func (rs *RoundScreen) OnExit(app any) error {
	return nil
}

// GetTitle returns the screen title
func (rs *RoundScreen) GetTitle() string {
	if rs.console == nil || rs.console.Tournament() == nil {
		return "Rounds"
	}
	t := rs.console.Tournament()
	return fmt.Sprintf("Rounds of %s (%d/%d)", t.Name, t.CurrentRound, t.NumberOfRounds)
}

// GetHelpText returns help text for the round screen
func (rs *RoundScreen) GetHelpText() []string {
	return []string{
		"Up/Down or j/k: Select a match",
		"1: Side A wins",
		"0: Side B wins",
		"= or d: Draw",
		"c: Close the displayed round",
		"n: Start the tournament or pair the next round",
		"a: Apply ratings of closed rounds",
		"Left/Right: Browse rounds",
	}
}

func (rs *RoundScreen) handleInput(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyLeft:
		rs.carousel.Previous()
		return nil
	case tcell.KeyRight:
		rs.carousel.Next()
		return nil
	}

	switch event.Rune() {
	case 'j':
		return tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone)
	case 'k':
		return tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone)
	case '1':
		rs.recordResult(1)
		return nil
	case '0':
		rs.recordResult(0)
		return nil
	case '=', 'd':
		rs.recordResult(0.5)
		return nil
	case 'c':
		rs.closeRound()
		return nil
	case 'n':
		rs.advance()
		return nil
	case 'a':
		rs.applyRatings()
		return nil
	}
	return event
}

// selectedMatch returns the zero based index of the selected match, or -1
func (rs *RoundScreen) selectedMatch() int {
	round, ok := rs.carousel.GetCurrentRound()
	if !ok {
		return -1
	}
	row, _ := rs.matchTable.GetSelection()
	if row < 1 || row > len(round.Matches) {
		return -1
	}
	return row - 1
}

func (rs *RoundScreen) recordResult(score float64) {
	if rs.console == nil {
		return
	}
	match := rs.selectedMatch()
	if match < 0 {
		rs.setStatus("red", "No match selected")
		return
	}
	roundIndex := rs.carousel.GetCurrentIndex()
	if err := rs.console.RecordResult(roundIndex, match, score); err != nil {
		rs.setStatus("red", err.Error())
		return
	}
	rs.refresh()

	round, _ := rs.carousel.GetCurrentRound()
	rs.setStatus("green", fmt.Sprintf("Board %d: %s", match+1, rs.describe(round.Matches[match])))
	if match+1 < len(round.Matches) {
		rs.matchTable.Select(match+2, 0)
	}
}

func (rs *RoundScreen) closeRound() {
	if rs.console == nil {
		return
	}
	round, ok := rs.carousel.GetCurrentRound()
	if !ok {
		rs.setStatus("red", "No round to close")
		return
	}
	if err := rs.console.CloseRound(rs.carousel.GetCurrentIndex()); err != nil {
		rs.setStatus("red", err.Error())
		return
	}
	rs.refresh()
	rs.setStatus("green", round.Name+" closed, press n to continue")
}

func (rs *RoundScreen) advance() {
	if rs.console == nil {
		return
	}
	result, err := rs.console.Advance()
	if err != nil {
		rs.setStatus("red", err.Error())
		return
	}
	rs.refresh()
	rs.carousel.Last()

	t := rs.console.Tournament()
	switch {
	case t.Status == data.StatusFinished:
		rs.setStatus("green", "Tournament finished")
	case result.Warning() != nil:
		rs.setStatus("yellow", fmt.Sprintf("Round %d paired, %v", t.CurrentRound, result.Warning()))
	default:
		rs.setStatus("green", fmt.Sprintf("Round %d paired: %d matches", t.CurrentRound, len(result.Matches)))
	}
}

func (rs *RoundScreen) applyRatings() {
	if rs.console == nil {
		return
	}
	updates, err := rs.console.ApplyRatings()
	if err != nil {
		rs.setStatus("red", err.Error())
		return
	}
	rs.refresh()
	if len(updates) == 0 {
		rs.setStatus("yellow", "No closed rounds waiting for ratings")
		return
	}
	rs.setStatus("green", fmt.Sprintf("Ratings applied: %d updates", len(updates)))
}

// refresh reloads rounds, table and progress from the console
func (rs *RoundScreen) refresh() {
	t := rs.console.Tournament()
	if t == nil {
		rs.carousel.SetRounds(nil)
		rs.progress.Update(nil)
		rs.updateTable()
		rs.setStatus("yellow", "No tournament selected")
		return
	}
	rs.carousel.SetRounds(t.Rounds)
	rs.progress.Update(t)
	rs.updateTable()
}

func (rs *RoundScreen) updateTable() {
	selected, _ := rs.matchTable.GetSelection()

	rs.matchTable.Clear()
	rs.setupTableHeaders()

	round, ok := rs.carousel.GetCurrentRound()
	if !ok {
		rs.matchTable.SetTitle(" Matches ")
		return
	}
	rs.matchTable.SetTitle(fmt.Sprintf(" %s matches ", round.Name))

	for i, m := range round.Matches {
		row := i + 1
		color := tcell.ColorWhite
		if m.IsSet() {
			color = tcell.ColorGreen
		}
		cells := []string{
			strconv.Itoa(row),
			rs.name(m[0].PlayerID),
			formatScore(m[0]),
			formatScore(m[1]),
			rs.name(m[1].PlayerID),
		}
		for col, text := range cells {
			align := tview.AlignLeft
			if col == 0 || col == 2 || col == 3 {
				align = tview.AlignCenter
			}
			rs.matchTable.SetCell(row, col, tview.NewTableCell(text).
				SetAlign(align).
				SetTextColor(color))
		}
	}

	switch {
	case len(round.Matches) == 0:
	case selected < 1:
		rs.matchTable.Select(1, 0)
	case selected > len(round.Matches):
		rs.matchTable.Select(len(round.Matches), 0)
	default:
		rs.matchTable.Select(selected, 0)
	}
}

func (rs *RoundScreen) name(id string) string {
	if name, ok := rs.names[id]; ok && name != "" {
		return name
	}
	return id
}

func (rs *RoundScreen) describe(m data.Match) string {
	switch {
	case !m.IsSet():
		return "no result"
	case m[0].Points() > m[1].Points():
		return rs.name(m[0].PlayerID) + " wins"
	case m[1].Points() > m[0].Points():
		return rs.name(m[1].PlayerID) + " wins"
	}
	return "draw"
}

func (rs *RoundScreen) setStatus(color, message string) {
	rs.statusBar.SetText(fmt.Sprintf("[%s]%s[white]", color, tview.Escape(message)))
}

// StatusText returns the current status line without color tags
func (rs *RoundScreen) StatusText() string {
	return rs.statusBar.GetText(true)
}

func formatScore(s data.Side) string {
	if !s.IsSet() {
		return "-"
	}
	if s.Points() == 0.5 {
		return "½"
	}
	return strconv.FormatFloat(s.Points(), 'f', -1, 64)
}

