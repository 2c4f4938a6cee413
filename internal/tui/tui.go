// Package tui is the terminal control panel: pick a file, a display and an
// idle image, then toggle playback.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/junsooki/vitrine/internal/display"
	"github.com/junsooki/vitrine/internal/playback"
)

// Player is the part of the playback controller the panel drives.
type Player interface {
	Start(req playback.Request) error
	Stop()
	Active() bool
	Status() playback.Status
	Subscribe() (<-chan playback.Status, func())
	Displays() []display.Descriptor
}

// Options configures the panel.
type Options struct {
	Player Player
	// File and Fallback prefill the inputs.
	File     string
	Fallback string
	// Remote is shown in the header when the control server is listening.
	Remote string
}

// Run executes the panel until the user quits.
func Run(options *Options) error {
	b := newBubble(options)
	defer b.cancel()

	_, err := tea.NewProgram(b, tea.WithAltScreen()).Run()
	return err
}
