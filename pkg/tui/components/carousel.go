// This file implements a round carousel for stepping through the rounds of a
// tournament and reading their pairings.
package components

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/pashagolub/chessclub/pkg/data"
)

// Carousel displays one round of a tournament at a time
type Carousel struct {
	container    *tview.Flex
	currentCard  *tview.TextView
	navIndicator *tview.TextView

	rounds       []data.Round
	names        map[string]string
	currentIndex int

	highlightColor tcell.Color
	showNavigation bool

	onNavigate  func(index int, round data.Round)
	keyHandlers map[tcell.Key]func() bool
}

// CarouselConfig holds configuration options for the carousel
type CarouselConfig struct {
	HighlightColor tcell.Color
	ShowNavigation bool
	OnNavigate     func(index int, round data.Round)
}

// NewCarousel creates a round carousel with default configuration
func NewCarousel() *Carousel {
	return NewCarouselWithConfig(CarouselConfig{
		HighlightColor: tcell.ColorYellow,
		ShowNavigation: true,
	})
}

// NewCarouselWithConfig creates a carousel with custom configuration
func NewCarouselWithConfig(config CarouselConfig) *Carousel {
	c := &Carousel{
		container:      tview.NewFlex(),
		currentCard:    tview.NewTextView(),
		navIndicator:   tview.NewTextView(),
		names:          map[string]string{},
		currentIndex:   -1,
		highlightColor: config.HighlightColor,
		showNavigation: config.ShowNavigation,
		onNavigate:     config.OnNavigate,
		keyHandlers:    make(map[tcell.Key]func() bool),
	}
	if c.highlightColor == 0 {
		c.highlightColor = tcell.ColorYellow
	}

	c.setupUI()
	c.setupKeyHandlers()
	return c
}

func (c *Carousel) setupUI() {
	c.container.SetDirection(tview.FlexRow)

	c.currentCard.SetBorder(true)
	c.currentCard.SetDynamicColors(true)
	c.currentCard.SetScrollable(true)
	c.currentCard.SetTitleColor(c.highlightColor)

	c.navIndicator.
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true)

	c.container.AddItem(c.currentCard, 0, 1, true)
	if c.showNavigation {
		c.container.AddItem(c.navIndicator, 1, 0, false)
	}
	c.container.SetInputCapture(c.handleInput)
}

func (c *Carousel) setupKeyHandlers() {
	c.keyHandlers[tcell.KeyLeft] = c.Previous
	c.keyHandlers[tcell.KeyRight] = c.Next
	c.keyHandlers[tcell.KeyHome] = c.First
	c.keyHandlers[tcell.KeyEnd] = c.Last
}

// GetPrimitive returns the carousel for layout embedding
func (c *Carousel) GetPrimitive() tview.Primitive {
	return c.container
}

// SetRounds replaces the rounds shown. The current position is kept when it
// is still valid, otherwise the last round is selected.
func (c *Carousel) SetRounds(rounds []data.Round) {
	c.rounds = rounds
	switch {
	case len(rounds) == 0:
		c.currentIndex = -1
	case c.currentIndex < 0 || c.currentIndex >= len(rounds):
		c.currentIndex = len(rounds) - 1
	}
	c.updateDisplay()
}

// SetPlayerNames sets the display names used for player ids
func (c *Carousel) SetPlayerNames(names map[string]string) {
	c.names = names
	if c.names == nil {
		c.names = map[string]string{}
	}
	c.updateDisplay()
}

// GetCurrentRound returns the displayed round
func (c *Carousel) GetCurrentRound() (data.Round, bool) {
	if !c.HasRounds() {
		return data.Round{}, false
	}
	return c.rounds[c.currentIndex], true
}

// GetCurrentIndex returns the zero based index of the displayed round
func (c *Carousel) GetCurrentIndex() int {
	return c.currentIndex
}

// HasRounds reports whether a round is displayed
func (c *Carousel) HasRounds() bool {
	return c.currentIndex >= 0 && c.currentIndex < len(c.rounds)
}

// Next moves to the following round
func (c *Carousel) Next() bool {
	return c.NavigateTo(c.currentIndex + 1)
}

// Previous moves to the preceding round
func (c *Carousel) Previous() bool {
	return c.NavigateTo(c.currentIndex - 1)
}

// First moves to round one
func (c *Carousel) First() bool {
	return c.NavigateTo(0)
}

// Last moves to the most recent round
func (c *Carousel) Last() bool {
	return c.NavigateTo(len(c.rounds) - 1)
}

// NavigateTo shows the round at index. It returns false when index is out of
// range or already displayed.
func (c *Carousel) NavigateTo(index int) bool {
	if index < 0 || index >= len(c.rounds) || index == c.currentIndex {
		return false
	}
	c.currentIndex = index
	c.updateDisplay()
	if c.onNavigate != nil {
		c.onNavigate(index, c.rounds[index])
	}
	return true
}

func (c *Carousel) handleInput(event *tcell.EventKey) *tcell.EventKey {
	if handler, ok := c.keyHandlers[event.Key()]; ok {
		handler()
		return nil
	}
	return event
}

// playerName returns the display name of id, or id itself
func (c *Carousel) playerName(id string) string {
	if name, ok := c.names[id]; ok && name != "" {
		return name
	}
	return id
}

func (c *Carousel) updateDisplay() {
	round, ok := c.GetCurrentRound()
	if !ok {
		c.currentCard.SetTitle(" No rounds ")
		c.currentCard.SetText("[gray]The tournament has not started yet[white]")
		c.navIndicator.SetText("")
		return
	}

	c.currentCard.SetTitle(fmt.Sprintf(" %s (%s) ", round.Name, round.Status))
	c.currentCard.SetText(c.formatRound(round))
	c.navIndicator.SetText(c.formatNavigation())
}

func (c *Carousel) formatRound(round data.Round) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Started %s %s", round.StartDate, round.StartTime)
	if round.EndDate != "" {
		fmt.Fprintf(&b, ", closed %s %s", round.EndDate, round.EndTime)
	}
	if round.RatingsApplied {
		b.WriteString(", ratings applied")
	}
	b.WriteString("\n\n")

	if len(round.Matches) == 0 {
		b.WriteString("[gray]No matches[white]\n")
		return b.String()
	}
	for i, m := range round.Matches {
		fmt.Fprintf(&b, "%2d. %s %s - %s %s\n", i+1,
			c.playerName(m[0].PlayerID), scoreText(m[0]),
			scoreText(m[1]), c.playerName(m[1].PlayerID))
	}
	return b.String()
}

func (c *Carousel) formatNavigation() string {
	parts := make([]string, len(c.rounds))
	for i := range c.rounds {
		if i == c.currentIndex {
			parts[i] = "[yellow]●[white]"
		} else {
			parts[i] = "○"
		}
	}
	return fmt.Sprintf("◀ %s ▶  %d/%d", strings.Join(parts, " "), c.currentIndex+1, len(c.rounds))
}

func scoreText(s data.Side) string {
	switch {
	case !s.IsSet():
		return "[gray]·[white]"
	case s.Points() == 0.5:
		return "½"
	}
	return fmt.Sprintf("%g", s.Points())
}
