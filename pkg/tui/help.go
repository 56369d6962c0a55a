// This file implements the help screen that displays keyboard shortcuts and
// the club night workflow.
package tui

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// HelpScreen provides help and keyboard shortcut information
type HelpScreen struct {
	root     *tview.Flex
	textView *tview.TextView
	back     func() error
}

// NewHelpScreen creates a new help screen
func NewHelpScreen() *HelpScreen {
	hs := &HelpScreen{
		root:     tview.NewFlex(),
		textView: tview.NewTextView(),
	}

	hs.setupLayout()
	return hs
}

// GetPrimitive returns the root primitive for this screen
func (hs *HelpScreen) GetPrimitive() tview.Primitive {
	return hs.root
}

// OnEnter is called when the help screen becomes active
func (hs *HelpScreen) OnEnter(app any) error {
	hs.back = nil
	if nav, ok := app.(interface{ GoBack() error }); ok {
		hs.back = nav.GoBack
	}
	hs.updateContent()
	return nil
}

// OnExit is called when leaving the help screen
func (hs *HelpScreen) OnExit(app any) error {
	return nil
}

// GetTitle returns the screen title
func (hs *HelpScreen) GetTitle() string {
	return "Help"
}

// GetHelpText returns help text for this screen
func (hs *HelpScreen) GetHelpText() []string {
	return []string{
		"Press ESC or q to go back",
		"Use arrow keys to scroll",
	}
}

func (hs *HelpScreen) setupLayout() {
	hs.textView.
		SetBorder(true).
		SetTitle("Help - Chess Club Tournament Director").
		SetTitleAlign(tview.AlignCenter)

	hs.textView.SetWrap(true).
		SetDynamicColors(true).
		SetScrollable(true)

	hs.textView.SetInputCapture(hs.handleInput)
	hs.root.AddItem(hs.textView, 0, 1, true)
}

func (hs *HelpScreen) handleInput(event *tcell.EventKey) *tcell.EventKey {
	if event.Key() == tcell.KeyEsc || event.Rune() == 'q' || event.Rune() == 'Q' {
		if hs.back != nil {
			hs.back()
		}
		return nil
	}
	return event
}

func (hs *HelpScreen) updateContent() {
	var content strings.Builder

	content.WriteString("[yellow]Chess Club Tournament Director[-]\n\n")
	content.WriteString("Runs Swiss tournaments for the club: pairs rounds, collects results,\n")
	content.WriteString("keeps the standings and updates player Elo ratings.\n\n")

	content.WriteString("[green]Global Keyboard Shortcuts[-]\n")
	content.WriteString("═════════════════════════════\n")
	for _, binding := range globalKeyBindings {
		content.WriteString("[white]")
		content.WriteString(tview.Escape(keyName(binding)))
		content.WriteString("[-]  - ")
		content.WriteString(binding.Description)
		content.WriteString("\n")
	}

	content.WriteString("\n[green]Round Screen[-]\n")
	content.WriteString("════════════\n")
	content.WriteString("[white]1[-] side A wins, [white]0[-] side B wins, [white]=[-] draw\n")
	content.WriteString("[white]c[-] close the round once every board has a result\n")
	content.WriteString("[white]n[-] start the tournament, pair the next round or finish after the last one\n")
	content.WriteString("[white]a[-] apply ratings of closed rounds, each round is rated once\n")
	content.WriteString("[white]←/→[-] browse earlier rounds\n")

	content.WriteString("\n[green]A Club Night[-]\n")
	content.WriteString("════════════\n")
	content.WriteString("1. Pick the tournament with [white]t[-]\n")
	content.WriteString("2. Press [white]n[-] to pair the round and announce the boards\n")
	content.WriteString("3. Enter results as games finish\n")
	content.WriteString("4. Close the round, apply ratings and check the [white]s[-]tandings\n")
	content.WriteString("5. Export the standings with [white]e[-] for the club notice board\n")

	content.WriteString("\n[green]Tips[-]\n")
	content.WriteString("════\n")
	content.WriteString("• Every change is saved immediately\n")
	content.WriteString("• Players never meet twice, a player left without a new opponent sits the round out\n")
	content.WriteString("• Sitting out scores no points\n")

	hs.textView.SetText(content.String())
}
