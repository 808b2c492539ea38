package tabletok

// fieldIterator is a cursor-based reader over one column buffer (or
// the header buffer) that yields successive null-terminated field
// slices. Two call sites share this one implementation: header
// iteration and per-column iteration.
type fieldIterator struct {
	buf    []byte
	cursor int
	// empty is the tokenizer's shared two-byte zero sentinel; a
	// zero-length slice of it is handed back in place of any field
	// whose payload is the 0x01 empty marker.
	empty []byte
}

func newFieldIterator(buf []byte, empty []byte) *fieldIterator {
	return &fieldIterator{buf: buf, empty: empty}
}

// reset repositions the cursor to the start of the buffer.
func (it *fieldIterator) reset() {
	it.cursor = 0
}

// finished reports whether iteration has reached the end of written
// data. Because the unused tail of a column buffer is always
// zero-filled, reaching the buffer's capacity and reading a 0x00 byte
// are equivalent end-of-data signals; both are checked so iteration
// behaves correctly even if the cursor sits exactly at capacity.
func (it *fieldIterator) finished() bool {
	if it.cursor >= len(it.buf) {
		return true
	}
	return it.buf[it.cursor] == 0
}

// next decodes code points forward until a 0x00 terminator, returning
// the slice that started at the call-time cursor (exclusive of the
// terminator) and advancing the cursor one byte past it. A field
// whose first byte is the 0x01 empty marker yields a zero-length
// slice of the shared two-byte empty sentinel instead of its raw
// one-byte payload, so downstream converters always see a canonical
// empty input.
func (it *fieldIterator) next() []byte {
	start := it.cursor
	for it.cursor < len(it.buf) && it.buf[it.cursor] != 0 {
		_, n := decodeRune(it.buf, it.cursor)
		if n <= 0 {
			n = 1
		}
		it.cursor += n
	}
	end := it.cursor
	if it.cursor < len(it.buf) {
		it.cursor++ // step past the 0x00 terminator
	}
	if end > start && it.buf[start] == 1 {
		return it.empty[:0]
	}
	return it.buf[start:end]
}

// ColumnView bundles the field-iteration contract for one output
// column (or the header row) behind a single handle, making the "two
// surfaces share one implementation" relationship from the core's
// iterator explicit in the Go API.
type ColumnView struct {
	it *fieldIterator
}

// StartIteration repositions the view's cursor to the first field.
func (v ColumnView) StartIteration() { v.it.reset() }

// FinishedIteration reports whether every field has been consumed.
func (v ColumnView) FinishedIteration() bool { return v.it.finished() }

// NextField returns the next field's bytes and advances the cursor.
// The returned slice must not be retained across a subsequent
// tokenize pass: buffer growth on the next pass may relocate the
// backing array.
func (v ColumnView) NextField() []byte { return v.it.next() }
