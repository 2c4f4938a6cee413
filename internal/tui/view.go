package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/junsooki/vitrine/internal/mediainfo"
	"github.com/junsooki/vitrine/internal/pump"
)

func (b *bubble) View() string {
	header := titleStyle.Render("Vitrine")
	if b.remote != "" {
		header += " " + faintStyle.Render("remote "+b.remote)
	}

	lines := []string{
		header,
		"",
		b.viewField("File", b.fileC.View(), fileFocus),
		b.viewField("Idle", b.fallbackC.View(), fallbackFocus),
		"",
		b.viewField("Display", "", displayFocus),
	}
	lines = append(lines, b.viewDisplays()...)
	lines = append(lines, "", b.viewStatus())
	if b.lastError != nil {
		lines = append(lines, errorStyle.Render(b.lastError.Error()))
	}
	lines = append(lines, "", b.helpC.View(b.keymap))

	return paddingStyle.Render(strings.Join(lines, "\n"))
}

func (b *bubble) viewField(name, value string, f focus) string {
	marker := "  "
	if b.focus == f {
		marker = cursorStyle.Render("> ")
	}
	return marker + labelStyle.Render(name) + value
}

func (b *bubble) viewDisplays() []string {
	if len(b.displays) == 0 {
		return []string{faintStyle.Render("    no displays found")}
	}
	lines := make([]string, 0, len(b.displays))
	for i, d := range b.displays {
		if i == b.selected {
			lines = append(lines, cursorStyle.Render("    ● "+d.Label()))
		} else {
			lines = append(lines, "    ○ "+d.Label())
		}
	}
	return lines
}

func (b *bubble) viewStatus() string {
	if b.playing {
		name := b.nowPlaying.OrElse(mediainfo.Info{Title: filepath.Base(b.status.Request.File)}).Label()
		state := "Playing"
		if b.stopping {
			state = "Stopping"
		}
		return playingStyle.Render("■ "+state) + " " + name
	}

	line := idleStyle.Render("▶ Idle")
	if b.status.SessionID == "" {
		return line
	}
	switch b.status.Reason {
	case pump.EndOfStream:
		line += faintStyle.Render(fmt.Sprintf("  finished after %d frames", b.status.Frames))
	case pump.StopQuit:
		line += faintStyle.Render("  window closed")
	case pump.StopRequested:
		line += faintStyle.Render("  stopped")
	}
	return line
}
