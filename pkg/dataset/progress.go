package dataset

import (
	"fmt"
	"io"
	"strings"
)

// Progress receives per-key events during a bulk save.
//
// Start is called once with the precomputed total before the first key,
// Advance once per key written, Finish once after the last. None of the
// methods are called when there is nothing to save.
type Progress interface {
	// Message emits a human-readable status line before work begins.
	Message(msg string)

	// Start announces the number of keys about to be written.
	Start(total int)

	// Advance reports one key as written.
	Advance(key string)

	// Finish marks the operation complete.
	Finish()
}

// NopProgress discards all events.
type NopProgress struct{}

func (NopProgress) Message(string) {}
func (NopProgress) Start(int)      {}
func (NopProgress) Advance(string) {}
func (NopProgress) Finish()        {}

// Bar renders a textual progress bar to a writer, one carriage-returned line
// updated per key:
//
//	[#######################.........................]  12/25 prices/2020-01-12
type Bar struct {
	w     io.Writer
	total int
	done  int
}

const barWidth = 48

// NewBar returns a Progress rendering to w.
func NewBar(w io.Writer) *Bar {
	return &Bar{w: w}
}

// Message prints msg on its own line.
func (b *Bar) Message(msg string) {
	fmt.Fprintln(b.w, msg)
}

// Start records the total and draws the empty bar.
func (b *Bar) Start(total int) {
	b.total = total
	b.done = 0
	b.draw("")
}

// Advance redraws the bar with one more key done.
func (b *Bar) Advance(key string) {
	b.done++
	b.draw(key)
}

// Finish terminates the bar line.
func (b *Bar) Finish() {
	fmt.Fprintln(b.w)
}

func (b *Bar) draw(key string) {
	filled := 0
	if b.total > 0 {
		filled = b.done * barWidth / b.total
	}

	fmt.Fprintf(b.w, "\r[%s%s] %3d/%d %s",
		strings.Repeat("#", filled),
		strings.Repeat(".", barWidth-filled),
		b.done, b.total, key)
}
