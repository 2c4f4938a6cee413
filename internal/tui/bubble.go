package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/mo"

	"github.com/junsooki/vitrine/internal/display"
	"github.com/junsooki/vitrine/internal/mediainfo"
	"github.com/junsooki/vitrine/internal/playback"
)

// bubble holds the panel state. The toggle mirrors the last published
// status, so a window closed by the user flips it back to idle.
type bubble struct {
	player  Player
	remote  string
	keymap  *keymap
	focus   focus
	updates <-chan playback.Status
	cancel  func()

	fileC     textinput.Model
	fallbackC textinput.Model
	helpC     help.Model

	displays []display.Descriptor
	selected int

	status     playback.Status
	playing    bool
	stopping   bool
	nowPlaying mo.Option[mediainfo.Info]
	lastError  error

	width, height int
}

func newBubble(options *Options) *bubble {
	updates, cancel := options.Player.Subscribe()

	fileC := textinput.New()
	fileC.Placeholder = "/path/to/video.mp4"
	fileC.Prompt = ""
	fileC.CharLimit = 4096
	fileC.SetValue(options.File)
	fileC.Focus()

	fallbackC := textinput.New()
	fallbackC.Placeholder = "optional idle image"
	fallbackC.Prompt = ""
	fallbackC.CharLimit = 4096
	fallbackC.SetValue(options.Fallback)

	status := options.Player.Status()
	return &bubble{
		player:    options.Player,
		remote:    options.Remote,
		keymap:    newKeymap(),
		updates:   updates,
		cancel:    cancel,
		fileC:     fileC,
		fallbackC: fallbackC,
		helpC:     help.New(),
		displays:  options.Player.Displays(),
		status:    status,
		playing:   status.Active,
	}
}

func (b *bubble) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, b.waitForStatus())
}

type statusMsg playback.Status

type statusClosedMsg struct{}

type stoppedMsg struct{}

type mediaInfoMsg struct {
	file string
	info mediainfo.Info
}

// waitForStatus delivers the next controller status to Update.
func (b *bubble) waitForStatus() tea.Cmd {
	return func() tea.Msg {
		st, ok := <-b.updates
		if !ok {
			return statusClosedMsg{}
		}
		return statusMsg(st)
	}
}

func (b *bubble) stopPlayback() tea.Cmd {
	return func() tea.Msg {
		b.player.Stop()
		return stoppedMsg{}
	}
}

func probe(file string) tea.Cmd {
	return func() tea.Msg {
		info, err := mediainfo.Probe(file)
		if err != nil {
			return nil
		}
		return mediaInfoMsg{file: file, info: info}
	}
}
