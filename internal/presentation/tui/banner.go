package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner for Spindle.
func PrintBanner(w io.Writer, p termenv.Profile) {
	// Using a subtle gradient-like color scheme (Indigo/Violet)
	lines := []struct{ text, color string }{
		{"             _           _ _      ", "#818cf8"},
		{"  ___ _ __  (_)_ __   __| | | ___ ", "#a78bfa"},
		{" / __| '_ \\ | | '_ \\ / _` | |/ _ \\", "#c084fc"},
		{" \\__ \\ |_) || | | | | (_| | |  __/", "#e879f9"},
		{" |___/ .__/ |_|_| |_|\\__,_|_|\\___|", "#f472b6"},
		{"     |_|                          ", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, p.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
