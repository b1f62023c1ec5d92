package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF5F87", "#FFA500", "#626262")

// Palette is the remote's stylesheet.
type Palette struct {
	title   lipgloss.Style
	playing lipgloss.Style
	err     lipgloss.Style
	warn    lipgloss.Style
	help    lipgloss.Style
	verse   lipgloss.Style
}

// NewPalette builds a Palette from title, playing, error, warning and muted colors.
func NewPalette(title, playing, errColor, warn, muted string) *Palette {
	return &Palette{
		title:   NewBold(title).MarginBottom(1),
		playing: NewBold(playing),
		err:     NewBold(errColor),
		warn:    NewStyle(warn),
		help:    NewEm(muted),
		verse:   NewStyle(muted).PaddingLeft(2),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
