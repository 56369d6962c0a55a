// This file implements the standings screen: the live ranking of the selected
// tournament with a player filter and report export.
package screens

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/pashagolub/chessclub/pkg/data"
	"github.com/pashagolub/chessclub/pkg/tournament"
)

// SortField represents the column standings are ordered by
type SortField int

const (
	SortByRank SortField = iota
	SortByElo
	SortByName
)

func (f SortField) String() string {
	switch f {
	case SortByElo:
		return "elo"
	case SortByName:
		return "name"
	default:
		return "rank"
	}
}

// StandingRow is one displayed line of the standings
type StandingRow struct {
	tournament.Standing
	Name string
	Elo  int // 0 when the player is missing from the roster
}

// FilterCriteria holds the current filtering settings
type FilterCriteria struct {
	SearchText string  // Matched against id and name
	MinPoints  float64 // Lowest tournament score shown
}

// StandingsScreen displays the standings of the selected tournament
type StandingsScreen struct {
	container     *tview.Flex
	mainLayout    *tview.Flex
	sidebarLayout *tview.Flex

	standingsTable  *tview.Table
	filterForm      *tview.Form
	statisticsPanel *tview.TextView
	exportPanel     *tview.TextView
	statusBar       *tview.TextView
	helpBar         *tview.TextView

	rows     []StandingRow
	filtered []StandingRow
	sortBy   SortField
	filter   FilterCriteria

	console StandingsConsole
	focus   func(p tview.Primitive)
}

// NewStandingsScreen creates a new standings screen instance
func NewStandingsScreen() *StandingsScreen {
	ss := &StandingsScreen{
		container:       tview.NewFlex(),
		mainLayout:      tview.NewFlex(),
		sidebarLayout:   tview.NewFlex(),
		standingsTable:  tview.NewTable(),
		filterForm:      tview.NewForm(),
		statisticsPanel: tview.NewTextView(),
		exportPanel:     tview.NewTextView(),
		statusBar:       tview.NewTextView(),
		helpBar:         tview.NewTextView(),
		sortBy:          SortByRank,
	}

	ss.setupUI()
	ss.setupKeyBindings()
	return ss
}

func (ss *StandingsScreen) setupUI() {
	ss.standingsTable.SetBorder(true).
		SetTitle(" Standings ").
		SetTitleAlign(tview.AlignLeft)
	ss.standingsTable.SetSelectable(true, false)
	ss.standingsTable.SetFixed(1, 0)
	ss.setupTableHeaders()

	ss.setupFilterForm()

	ss.statisticsPanel.SetBorder(true).
		SetTitle(" Statistics ").
		SetTitleAlign(tview.AlignLeft)
	ss.statisticsPanel.SetDynamicColors(true)

	ss.exportPanel.SetBorder(true).
		SetTitle(" Export ").
		SetTitleAlign(tview.AlignLeft)
	ss.exportPanel.SetDynamicColors(true).
		SetText("[yellow]Press 'x' to export standings[white]")

	ss.statusBar.SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	ss.helpBar.SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter).
		SetText("[gray]o:Order  Tab:Filter  c:Clear  x:Export  q:Back[white]")

	ss.sidebarLayout.SetDirection(tview.FlexRow).
		AddItem(ss.filterForm, 0, 2, false).
		AddItem(ss.statisticsPanel, 0, 2, false).
		AddItem(ss.exportPanel, 0, 1, false)

	ss.mainLayout.SetDirection(tview.FlexColumn).
		AddItem(ss.standingsTable, 0, 3, true).
		AddItem(ss.sidebarLayout, 40, 1, false)

	ss.container.SetDirection(tview.FlexRow).
		AddItem(ss.mainLayout, 0, 1, true).
		AddItem(ss.statusBar, 1, 0, false).
		AddItem(ss.helpBar, 1, 0, false)
}

func (ss *StandingsScreen) setupTableHeaders() {
	headers := []string{"Rank", "Player", "Elo", "Points", "Played", "W", "D", "L"}
	for col, header := range headers {
		cell := tview.NewTableCell(header).
			SetTextColor(tcell.ColorYellow).
			SetAlign(tview.AlignCenter).
			SetSelectable(false).
			SetExpansion(1)
		if col == 1 {
			cell.SetExpansion(4)
		}
		ss.standingsTable.SetCell(0, col, cell)
	}
}

func (ss *StandingsScreen) setupFilterForm() {
	ss.filterForm.SetBorder(true).
		SetTitle(" Filters ").
		SetTitleAlign(tview.AlignLeft)

	ss.filterForm.AddInputField("Search:", "", 24, nil, func(text string) {
		ss.filter.SearchText = text
		ss.applyFilterAndSort()
		ss.updateDisplay()
	})
	ss.filterForm.AddInputField("Min Points:", "0", 6, tview.InputFieldFloat, func(text string) {
		if points, err := strconv.ParseFloat(text, 64); err == nil {
			ss.filter.MinPoints = points
		} else if text == "" {
			ss.filter.MinPoints = 0
		}
		ss.applyFilterAndSort()
		ss.updateDisplay()
	})
	ss.filterForm.AddButton("Clear All", ss.clearFilters)
	ss.filterForm.SetCancelFunc(func() {
		if ss.focus != nil {
			ss.focus(ss.standingsTable)
		}
	})
}

func (ss *StandingsScreen) setupKeyBindings() {
	ss.standingsTable.SetInputCapture(ss.handleInput)
}

func (ss *StandingsScreen) handleInput(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyTab:
		if ss.focus != nil {
			ss.focus(ss.filterForm)
		}
		return nil
	case tcell.KeyEsc:
		ss.goBack()
		return nil
	}

	switch event.Rune() {
	case 'o':
		ss.cycleSortField()
		return nil
	case 'c':
		ss.clearFilters()
		return nil
	case 'x':
		ss.export()
		return nil
	case 'q':
		ss.goBack()
		return nil
	}
	return event
}

// GetPrimitive returns the main primitive for the standings screen
func (ss *StandingsScreen) GetPrimitive() tview.Primitive {
	return ss.container
}

// OnEnter is called when the standings screen becomes active
func (ss *StandingsScreen) OnEnter(app any) error {
	console, ok := app.(StandingsConsole)
	if !ok {
		return ErrNoConsole
	}
	ss.console = console
	ss.focus = nil
	if f, ok := app.(interface{ SetFocus(p tview.Primitive) }); ok {
		ss.focus = f.SetFocus
	}

	if err := ss.load(); err != nil {
		ss.setStatus("yellow", err.Error())
	} else {
		ss.setStatus("blue", "Ready")
	}
	ss.applyFilterAndSort()
	ss.updateDisplay()
	return nil
}

// OnExit is called when leaving the standings screen
func (ss *StandingsScreen) OnExit(app any) error {
	return nil
}

// GetTitle returns the screen title
func (ss *StandingsScreen) GetTitle() string {
	if len(ss.filtered) != len(ss.rows) {
		return fmt.Sprintf("Standings (%d/%d players)", len(ss.filtered), len(ss.rows))
	}
	return fmt.Sprintf("Standings (%d players)", len(ss.rows))
}

// GetHelpText returns help text for the standings screen
func (ss *StandingsScreen) GetHelpText() []string {
	return []string{
		"Arrow Keys: Navigate standings",
		"Tab: Focus the filter panel, Esc returns",
		"o: Cycle ordering (rank, elo, name)",
		"c: Clear all filters",
		"x: Export standings",
		"q/Esc: Back",
	}
}

// load builds the rows from the tournament and the roster. Standings are
// shown even when the roster cannot be read.
func (ss *StandingsScreen) load() error {
	ss.rows = nil
	t := ss.console.Tournament()
	if t == nil {
		return fmt.Errorf("no tournament selected")
	}

	roster, rosterErr := ss.console.Roster()
	byID := make(map[string]data.Player, len(roster))
	for _, p := range roster {
		byID[p.FederationID] = p
	}

	for _, s := range tournament.Standings(t) {
		row := StandingRow{Standing: s, Name: s.PlayerID}
		if p, ok := byID[s.PlayerID]; ok {
			row.Name = p.FullName()
			row.Elo = p.Elo
		}
		ss.rows = append(ss.rows, row)
	}
	if rosterErr != nil {
		return fmt.Errorf("player names unavailable: %w", rosterErr)
	}
	return nil
}

func (ss *StandingsScreen) applyFilterAndSort() {
	ss.filtered = make([]StandingRow, 0, len(ss.rows))
	for _, row := range ss.rows {
		if ss.matchesFilter(row) {
			ss.filtered = append(ss.filtered, row)
		}
	}

	sort.SliceStable(ss.filtered, func(i, j int) bool {
		a, b := ss.filtered[i], ss.filtered[j]
		switch ss.sortBy {
		case SortByElo:
			return a.Elo > b.Elo
		case SortByName:
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		default:
			return a.Rank < b.Rank
		}
	})
}

func (ss *StandingsScreen) matchesFilter(row StandingRow) bool {
	if row.Points < ss.filter.MinPoints {
		return false
	}
	search := strings.ToLower(strings.TrimSpace(ss.filter.SearchText))
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(row.Name), search) ||
		strings.Contains(strings.ToLower(row.PlayerID), search)
}

func (ss *StandingsScreen) updateDisplay() {
	ss.standingsTable.Clear()
	ss.setupTableHeaders()

	for i, row := range ss.filtered {
		elo := "-"
		if row.Elo > 0 {
			elo = strconv.Itoa(row.Elo)
		}
		color := tcell.ColorWhite
		if row.Rank == 1 && row.Played > 0 {
			color = tcell.ColorGold
		}
		cells := []string{
			strconv.Itoa(row.Rank),
			row.Name,
			elo,
			strconv.FormatFloat(row.Points, 'f', -1, 64),
			strconv.Itoa(row.Played),
			strconv.Itoa(row.Wins),
			strconv.Itoa(row.Draws),
			strconv.Itoa(row.Losses),
		}
		for col, text := range cells {
			align := tview.AlignCenter
			if col == 1 {
				align = tview.AlignLeft
			}
			ss.standingsTable.SetCell(i+1, col, tview.NewTableCell(text).
				SetAlign(align).
				SetTextColor(color))
		}
	}
	if len(ss.filtered) > 0 {
		ss.standingsTable.Select(1, 0)
	}
	ss.standingsTable.SetTitle(fmt.Sprintf(" Standings by %s ", ss.sortBy))
	ss.updateStatistics()
}

func (ss *StandingsScreen) updateStatistics() {
	t := ss.console.Tournament()
	if t == nil || len(ss.rows) == 0 {
		ss.statisticsPanel.SetText("[gray]No players to show[white]")
		return
	}

	var games, decisive, draws int
	for _, r := range t.Rounds {
		for _, m := range r.Matches {
			if !m.IsSet() {
				continue
			}
			games++
			if m[0].Points() == m[1].Points() {
				draws++
			} else {
				decisive++
			}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[yellow]%s[white]\n", tview.Escape(t.Name))
	fmt.Fprintf(&b, "Status: %s\n", t.Status.String())
	fmt.Fprintf(&b, "Round: %d/%d\n", t.CurrentRound, t.NumberOfRounds)
	fmt.Fprintf(&b, "Players: %d\n", len(ss.rows))
	fmt.Fprintf(&b, "Games: %d (%d decisive, %d drawn)\n", games, decisive, draws)
	fmt.Fprintf(&b, "Points awarded: %g\n", t.Players.TotalPoints())
	ss.statisticsPanel.SetText(b.String())
}

func (ss *StandingsScreen) cycleSortField() {
	ss.sortBy = (ss.sortBy + 1) % 3
	ss.applyFilterAndSort()
	ss.updateDisplay()
}

func (ss *StandingsScreen) clearFilters() {
	ss.filter = FilterCriteria{}
	ss.filterForm.GetFormItemByLabel("Search:").(*tview.InputField).SetText("")
	ss.filterForm.GetFormItemByLabel("Min Points:").(*tview.InputField).SetText("0")
	ss.applyFilterAndSort()
	ss.updateDisplay()
}

func (ss *StandingsScreen) export() {
	if ss.console == nil {
		return
	}
	path, err := ss.console.ExportStandings()
	if err != nil {
		ss.exportPanel.SetText(fmt.Sprintf("[red]Export failed:[white]\n%s", tview.Escape(err.Error())))
		ss.setStatus("red", "Export failed")
		return
	}
	ss.exportPanel.SetText(fmt.Sprintf("[green]Exported to[white]\n%s", tview.Escape(path)))
	ss.setStatus("green", "Standings exported")
}

func (ss *StandingsScreen) goBack() {
	if ss.console == nil {
		return
	}
	if err := ss.console.GoBack(); err != nil {
		ss.setStatus("red", err.Error())
	}
}

func (ss *StandingsScreen) setStatus(color, message string) {
	ss.statusBar.SetText(fmt.Sprintf("[%s]%s[white]", color, tview.Escape(message)))
}

// Rows returns the displayed rows in display order
func (ss *StandingsScreen) Rows() []StandingRow {
	return ss.filtered
}
