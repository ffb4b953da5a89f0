package fasta

import (
	"io"
	"strings"
)

// DefaultLineWidth is the number of bases per line used when no width is
// given.
const DefaultLineWidth = 60

var newline = []byte{'\n'}

// Wrap breaks seq into lines of exactly width bytes, except for the last
// line, which holds the remainder.  Lines are joined by '\n' and there is no
// trailing newline.  A width <= 0 selects DefaultLineWidth.
func Wrap(seq string, width int) string {
	if width <= 0 {
		width = DefaultLineWidth
	}
	if len(seq) <= width {
		return seq
	}
	var b strings.Builder
	b.Grow(len(seq) + len(seq)/width)
	for i := 0; i < len(seq); i += width {
		if i > 0 {
			b.WriteByte('\n')
		}
		end := i + width
		if end > len(seq) {
			end = len(seq)
		}
		b.WriteString(seq[i:end])
	}
	return b.String()
}

// Writer is a FASTA writer.
type Writer struct {
	w     io.Writer
	width int
	err   error
}

// NewWriter constructs a new FASTA writer that wraps sequences at width
// bases.  A width <= 0 selects DefaultLineWidth.
func NewWriter(w io.Writer, width int) *Writer {
	if width <= 0 {
		width = DefaultLineWidth
	}
	return &Writer{w: w, width: width}
}

// Write writes one record.  name must not include the leading '>'.  An empty
// seq produces a header line only.  Errors are sticky: once a write fails,
// later calls return the same error.
func (w *Writer) Write(name, seq string) error {
	w.writeln(">" + name)
	for i := 0; i < len(seq); i += w.width {
		end := i + w.width
		if end > len(seq) {
			end = len(seq)
		}
		w.writeln(seq[i:end])
	}
	return w.err
}

func (w *Writer) writeln(line string) {
	if w.err != nil {
		return
	}
	_, w.err = io.WriteString(w.w, line)
	if w.err == nil {
		_, w.err = w.w.Write(newline)
	}
}
