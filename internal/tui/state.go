package tui

type focus int

const (
	fileFocus focus = iota
	fallbackFocus
	displayFocus
	focusCount
)
