package cli

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the podium logo to w.
func PrintBanner(w io.Writer) {
	o := termenv.NewOutput(w)
	lines := []struct{ text, color string }{
		{"                 _ _", "#818cf8"},
		{" _ __   ___   __| (_)_   _ _ __ ___", "#a78bfa"},
		{"| '_ \\ / _ \\ / _` | | | | | '_ ` _ \\", "#c084fc"},
		{"| |_) | (_) | (_| | | |_| | | | | | |", "#e879f9"},
		{"| .__/ \\___/ \\__,_|_|\\__,_|_| |_| |_|", "#f472b6"},
		{"|_|", "#fb7185"},
	}
	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, o.String(l.text).Foreground(o.Color(l.color)))
	}
	fmt.Fprintln(w)
}
