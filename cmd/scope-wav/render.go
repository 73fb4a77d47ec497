package main

import (
	"fmt"
	"io"
	"math"
	"strings"

	scope "github.com/tphakala/go-audio-scope"
)

const (
	barFull   = '#'
	barEmpty  = '-'
	barHeld   = '|'
	clearLine = "\r\033[K"
)

// sparkLevels are the glyphs used for waveform points, quietest first.
var sparkLevels = []rune(" ▁▂▃▄▅▆▇█")

// renderer draws one status line per display frame.
type renderer struct {
	w     io.Writer
	width int
	floor float64
	clips int
	line  strings.Builder
}

func newRenderer(w io.Writer, width int, floor float64) *renderer {
	return &renderer{w: w, width: max(1, width), floor: floor}
}

func (r *renderer) draw(d scope.Display) {
	if !d.Changed && d.Audible {
		return
	}
	r.clips += d.Clips

	r.line.Reset()
	r.line.WriteString(clearLine)
	fmt.Fprintf(&r.line, "%8s ", formatPTS(d))
	r.line.WriteString(bar(d.RMSDB, d.HeldPeakDB, r.floor, r.width))
	fmt.Fprintf(&r.line, " %6.1f/%6.1f dB ", d.PeakDB, d.RMSDB)
	r.line.WriteString(sparkline(d.Waveform))
	_, _ = io.WriteString(r.w, r.line.String())
}

func (r *renderer) finish() {
	_, _ = io.WriteString(r.w, "\n")
}

func formatPTS(d scope.Display) string {
	if !d.Audible {
		return "--:--.-"
	}
	s := d.PTS.Seconds()
	m := int(s) / 60
	return fmt.Sprintf("%02d:%04.1f", m, s-float64(m*60))
}

// bar draws level as a filled bar and marks the held peak.
func bar(levelDB, heldDB, floor float64, width int) string {
	fill := position(levelDB, floor, width)
	held := position(heldDB, floor, width)

	b := make([]rune, width)
	for i := range b {
		if i < fill {
			b[i] = barFull
		} else {
			b[i] = barEmpty
		}
	}
	if held > 0 {
		b[held-1] = barHeld
	}
	return string(b)
}

// position maps a dB value in [floor, 0] to a cell count in [0, width].
func position(db, floor float64, width int) int {
	if math.IsNaN(db) || db <= floor {
		return 0
	}
	frac := min(1, (db-floor)/-floor)
	return int(math.Round(frac * float64(width)))
}

// sparkline maps amplitude points in [0, 1] to block glyphs.
func sparkline(points []float64) string {
	top := len(sparkLevels) - 1
	b := make([]rune, len(points))
	for i, v := range points {
		v = math.Abs(v)
		idx := int(math.Round(min(1, v) * float64(top)))
		b[i] = sparkLevels[idx]
	}
	return string(b)
}
