package recorder

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/ja7ad/ecosched/pkg/system/util"
)

// Text writes one free-form line per entry:
//
//	[2026-03-01T12:00:00Z] A: deferred (high, 20)
//	[2026-03-01T12:00:20Z] C: executed (medium, 20) in 20.01s, measured 300 J
type Text struct {
	name string
	w    io.Writer
	c    io.Closer
}

// NewText writes to w. Close is a no-op unless w is an io.Closer.
func NewText(w io.Writer) *Text {
	t := &Text{name: "text", w: w}
	if c, ok := w.(io.Closer); ok {
		t.c = c
	}
	return t
}

// OpenText appends to the file at path, creating it if needed.
func OpenText(path string) (*Text, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, &SinkError{Sink: path, Op: "open", Err: err}
	}
	return &Text{name: path, w: f, c: f}, nil
}

// FormatLine renders e without a trailing newline.
func FormatLine(e Entry) string {
	d := e.Decision
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s: %s (%s, %s)",
		d.At.Format(TimeLayout), d.Task.Name, d.Action, d.Label, util.FmtFloat(d.Energy))

	if !d.Deferred() {
		fmt.Fprintf(&b, " in %.2fs", e.Elapsed.Seconds())
		if e.MeasuredJ > 0 {
			fmt.Fprintf(&b, ", measured %s", humanize.SIWithDigits(e.MeasuredJ, 2, "J"))
		}
	} else {
		fmt.Fprintf(&b, " battery %s", d.Power)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, " failed: %v", e.Err)
	}
	return b.String()
}

func (t *Text) Record(_ context.Context, e Entry) error {
	if _, err := io.WriteString(t.w, FormatLine(e)+"\n"); err != nil {
		return &SinkError{Sink: t.name, Op: "write", Err: err}
	}
	return nil
}

func (t *Text) Close() error {
	if t.c == nil {
		return nil
	}
	if err := t.c.Close(); err != nil {
		return &SinkError{Sink: t.name, Op: "close", Err: err}
	}
	return nil
}
