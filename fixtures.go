package tabletok

import (
	"bufio"
	"errors"
	"io"
)

const defaultFixtureBufferSize = 1 << 10

var (
	errNilFixtureWriter      = errors.New("tabletok: fixture writer is nil")
	errFixtureWriterNoTarget = errors.New("tabletok: fixture writer destination cannot be nil")
)

// FixtureWriter emits RFC-4180-ish tabular text with the same
// delimiter/quote configuration a Tokenizer would be given,
// so tests and benchmarks can generate input that round-trips through
// Tokenize instead of hand-assembling byte slices. It is test-support
// tooling, not a production counterpart to Tokenizer: the tokenizer's
// own non-goals (no output-side quote-escaping) apply to the
// tokenizer, not to this fixture generator.
type FixtureWriter struct {
	dst *bufio.Writer

	// Comma is the field delimiter. Default is ','.
	Comma byte
	// Quote is the quote character written around fields that need
	// it. Default is '"'. Zero disables quoting entirely, emitting
	// fields as-is even when they contain the delimiter or a newline.
	Quote byte
	// AlwaysQuote forces quoting for every field when Quote is set.
	AlwaysQuote bool

	err error
}

// NewFixtureWriter wraps w with buffering tuned for bulk fixture
// generation.
func NewFixtureWriter(w io.Writer) *FixtureWriter {
	if w == nil {
		panic(errFixtureWriterNoTarget.Error())
	}
	return &FixtureWriter{
		dst:   bufio.NewWriterSize(w, defaultFixtureBufferSize),
		Comma: ',',
		Quote: '"',
	}
}

// WriteRow emits one record terminated by a single 0x0A byte, per the
// tokenizer's source-attachment convention.
func (w *FixtureWriter) WriteRow(record []string) error {
	if w == nil {
		return errNilFixtureWriter
	}
	if w.dst == nil {
		return errFixtureWriterNoTarget
	}
	if w.err != nil {
		return w.err
	}

	comma := w.Comma
	if comma == 0 {
		comma = ','
	}

	for i, field := range record {
		if i > 0 {
			if err := w.dst.WriteByte(comma); err != nil {
				w.err = err
				return err
			}
		}
		if err := w.writeField(field, comma); err != nil {
			w.err = err
			return err
		}
	}
	if err := w.dst.WriteByte('\n'); err != nil {
		w.err = err
		return err
	}
	return nil
}

// WriteRows emits multiple records, stopping at the first error.
func (w *FixtureWriter) WriteRows(records [][]string) error {
	if w == nil {
		return errNilFixtureWriter
	}
	for _, record := range records {
		if err := w.WriteRow(record); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes any buffered bytes to the underlying writer.
func (w *FixtureWriter) Flush() error {
	if w == nil {
		return errNilFixtureWriter
	}
	if w.dst == nil {
		return errFixtureWriterNoTarget
	}
	if w.err != nil {
		return w.err
	}
	if err := w.dst.Flush(); err != nil {
		w.err = err
		return err
	}
	return nil
}

// writeField wraps field in quotes when needed. It does not escape an
// embedded quote character by doubling it; fixtures that need a
// literal quote inside a field should set Quote to 0 for that record
// or avoid the character, since this is test-support tooling and not
// a general-purpose encoder.
func (w *FixtureWriter) writeField(field string, comma byte) error {
	if w.Quote == 0 {
		_, err := w.dst.WriteString(field)
		return err
	}
	needsQuote := w.AlwaysQuote || fixtureFieldNeedsQuote(field, comma, w.Quote)
	if !needsQuote {
		_, err := w.dst.WriteString(field)
		return err
	}
	if err := w.dst.WriteByte(w.Quote); err != nil {
		return err
	}
	if _, err := w.dst.WriteString(field); err != nil {
		return err
	}
	return w.dst.WriteByte(w.Quote)
}

func fixtureFieldNeedsQuote(field string, comma, quote byte) bool {
	for i := 0; i < len(field); i++ {
		switch field[i] {
		case quote, comma, '\n', '\r':
			return true
		}
	}
	return false
}
