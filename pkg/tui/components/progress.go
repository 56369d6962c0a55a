// Package components provides reusable widgets for the tournament console.
// This file implements the progress panel showing how far the current round
// and the whole tournament have come.
package components

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/pashagolub/chessclub/pkg/data"
)

// RoundProgress summarizes result entry of a tournament
type RoundProgress struct {
	Round        int // Number of the current round, 0 before the start
	Recorded     int // Matches of the current round with a result
	Matches      int // Matches of the current round
	RoundsClosed int
	RoundsTotal  int
}

// ComputeProgress counts results and closed rounds of t
func ComputeProgress(t *data.Tournament) RoundProgress {
	if t == nil {
		return RoundProgress{}
	}
	p := RoundProgress{Round: t.CurrentRound, RoundsTotal: t.NumberOfRounds}
	for _, r := range t.Rounds {
		if r.Status == data.RoundClosed {
			p.RoundsClosed++
		}
	}
	if current, ok := t.Round(t.CurrentRound - 1); ok {
		p.Matches = len(current.Matches)
		for _, m := range current.Matches {
			if m.IsSet() {
				p.Recorded++
			}
		}
	}
	return p
}

// ResultsRatio returns the share of recorded results in the current round
func (p RoundProgress) ResultsRatio() float64 {
	if p.Matches == 0 {
		return 0
	}
	return float64(p.Recorded) / float64(p.Matches)
}

// RoundsRatio returns the share of closed rounds
func (p RoundProgress) RoundsRatio() float64 {
	if p.RoundsTotal == 0 {
		return 0
	}
	return min(1, float64(p.RoundsClosed)/float64(p.RoundsTotal))
}

// Progress displays result entry and round progress bars
type Progress struct {
	container  *tview.Flex
	resultsBar *tview.TextView
	roundsBar  *tview.TextView
	statusText *tview.TextView

	current RoundProgress
	status  data.TournamentStatus

	progressColor tcell.Color
	completeColor tcell.Color
	textColor     tcell.Color
	borderColor   tcell.Color

	onUpdate func(p RoundProgress)
}

// ProgressConfig holds configuration options for the progress panel
type ProgressConfig struct {
	ProgressColor tcell.Color
	CompleteColor tcell.Color
	TextColor     tcell.Color
	BorderColor   tcell.Color
	OnUpdate      func(p RoundProgress)
}

// DefaultProgressConfig returns sensible defaults for the progress panel
func DefaultProgressConfig() ProgressConfig {
	return ProgressConfig{
		ProgressColor: tcell.ColorBlue,
		CompleteColor: tcell.ColorGreen,
		TextColor:     tcell.ColorWhite,
		BorderColor:   tcell.ColorDarkGray,
	}
}

// NewProgress creates a new progress panel
func NewProgress(config ProgressConfig) *Progress {
	p := &Progress{
		container:     tview.NewFlex(),
		resultsBar:    tview.NewTextView(),
		roundsBar:     tview.NewTextView(),
		statusText:    tview.NewTextView(),
		progressColor: config.ProgressColor,
		completeColor: config.CompleteColor,
		textColor:     config.TextColor,
		borderColor:   config.BorderColor,
		onUpdate:      config.OnUpdate,
	}

	if p.progressColor == 0 {
		p.progressColor = tcell.ColorBlue
	}
	if p.completeColor == 0 {
		p.completeColor = tcell.ColorGreen
	}
	if p.textColor == 0 {
		p.textColor = tcell.ColorWhite
	}
	if p.borderColor == 0 {
		p.borderColor = tcell.ColorDarkGray
	}

	p.initializeUI()
	return p
}

func (p *Progress) initializeUI() {
	for _, bar := range []*tview.TextView{p.resultsBar, p.roundsBar} {
		bar.SetBorderColor(p.borderColor)
		bar.SetTextColor(p.textColor)
		bar.SetDynamicColors(true)
		bar.SetTextAlign(tview.AlignCenter)
		bar.SetBorder(true)
	}
	p.resultsBar.SetTitle("Results")
	p.roundsBar.SetTitle("Rounds")

	p.statusText.SetDynamicColors(true)
	p.statusText.SetTextAlign(tview.AlignCenter)

	p.container.SetDirection(tview.FlexRow).
		AddItem(p.resultsBar, 3, 0, false).
		AddItem(p.roundsBar, 3, 0, false).
		AddItem(p.statusText, 1, 0, false)

	p.refresh()
}

// GetPrimitive returns the panel for layout embedding
func (p *Progress) GetPrimitive() tview.Primitive {
	return p.container
}

// Update recomputes the panel from t
func (p *Progress) Update(t *data.Tournament) {
	p.current = ComputeProgress(t)
	p.status = ""
	if t != nil {
		p.status = t.Status
	}
	p.refresh()
	if p.onUpdate != nil {
		p.onUpdate(p.current)
	}
}

// Current returns the last computed progress
func (p *Progress) Current() RoundProgress {
	return p.current
}

func (p *Progress) refresh() {
	c := p.current
	resultsDone := c.Matches > 0 && c.Recorded == c.Matches
	p.resultsBar.SetText(fmt.Sprintf("%s %d/%d",
		p.createProgressBar(c.ResultsRatio(), resultsDone), c.Recorded, c.Matches))

	roundsDone := c.RoundsTotal > 0 && c.RoundsClosed >= c.RoundsTotal
	p.roundsBar.SetText(fmt.Sprintf("%s %d/%d",
		p.createProgressBar(c.RoundsRatio(), roundsDone), c.RoundsClosed, c.RoundsTotal))

	switch {
	case p.status == "":
		p.statusText.SetText("[gray]No tournament selected[white]")
	case p.status == data.StatusFinished:
		p.statusText.SetText("[green]Tournament finished[white]")
	case resultsDone:
		p.statusText.SetText(fmt.Sprintf("[green]Round %d complete, press c to close[white]", c.Round))
	default:
		p.statusText.SetText(fmt.Sprintf("[yellow]%s[white]", p.status.String()))
	}
}

// createProgressBar creates a visual progress bar using text characters
func (p *Progress) createProgressBar(progress float64, isComplete bool) string {
	const barWidth = 30
	filledWidth := int(progress * barWidth)
	filledWidth = max(0, min(barWidth, filledWidth))

	color := "[blue]"
	if isComplete {
		color = "[green]"
	}
	return color + strings.Repeat("█", filledWidth) + "[gray]" + strings.Repeat("░", barWidth-filledWidth) + "[white]"
}
