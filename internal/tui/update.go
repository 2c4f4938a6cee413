package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/mo"

	"github.com/junsooki/vitrine/internal/mediainfo"
	"github.com/junsooki/vitrine/internal/playback"
)

func (b *bubble) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.width, b.height = msg.Width, msg.Height
		b.helpC.Width = msg.Width
		return b, nil
	case statusMsg:
		b.applyStatus(playback.Status(msg))
		return b, b.waitForStatus()
	case statusClosedMsg:
		return b, nil
	case stoppedMsg:
		b.stopping = false
		return b, nil
	case mediaInfoMsg:
		if msg.file == b.status.Request.File {
			b.nowPlaying = mo.Some(msg.info)
		}
		return b, nil
	case tea.KeyMsg:
		return b.handleKey(msg)
	}

	return b, b.updateFocused(msg)
}

func (b *bubble) applyStatus(st playback.Status) {
	b.status = st
	b.playing = st.Active
	if !st.Active {
		b.stopping = false
	}
	if st.Err != nil {
		b.lastError = st.Err
	}
}

func (b *bubble) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, b.keymap.quit):
		return b, tea.Quit
	case key.Matches(msg, b.keymap.toggle):
		return b, b.toggle()
	case key.Matches(msg, b.keymap.stop):
		if b.playing && !b.stopping {
			b.stopping = true
			return b, b.stopPlayback()
		}
		return b, nil
	case key.Matches(msg, b.keymap.next):
		return b, b.setFocus((b.focus + 1) % focusCount)
	case key.Matches(msg, b.keymap.prev):
		return b, b.setFocus((b.focus + focusCount - 1) % focusCount)
	case key.Matches(msg, b.keymap.showHelp):
		b.helpC.ShowAll = !b.helpC.ShowAll
		return b, nil
	}

	if b.focus == displayFocus {
		switch {
		case key.Matches(msg, b.keymap.up):
			if b.selected > 0 {
				b.selected--
			}
		case key.Matches(msg, b.keymap.down):
			if b.selected < len(b.displays)-1 {
				b.selected++
			}
		}
		return b, nil
	}

	if b.playing {
		return b, nil
	}
	return b, b.updateFocused(msg)
}

// toggle starts a session from the inputs, or stops the running one.
func (b *bubble) toggle() tea.Cmd {
	if b.playing {
		if b.stopping {
			return nil
		}
		b.stopping = true
		return b.stopPlayback()
	}

	req := playback.Request{
		File:     strings.TrimSpace(b.fileC.Value()),
		Display:  b.selected,
		Fallback: strings.TrimSpace(b.fallbackC.Value()),
	}
	if err := b.player.Start(req); err != nil {
		b.lastError = err
		return nil
	}

	b.lastError = nil
	b.playing = true
	b.status = b.player.Status()
	b.nowPlaying = mo.None[mediainfo.Info]()
	return probe(req.File)
}

func (b *bubble) setFocus(f focus) tea.Cmd {
	b.focus = f
	b.fileC.Blur()
	b.fallbackC.Blur()
	switch f {
	case fileFocus:
		return b.fileC.Focus()
	case fallbackFocus:
		return b.fallbackC.Focus()
	}
	return nil
}

func (b *bubble) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch b.focus {
	case fileFocus:
		b.fileC, cmd = b.fileC.Update(msg)
	case fallbackFocus:
		b.fallbackC, cmd = b.fallbackC.Update(msg)
	}
	return cmd
}
