package tabletok

import (
	"bytes"
	"fmt"
	"math"

	multierror "github.com/hashicorp/go-multierror"
	"github.com/google/uuid"
)

// tokenizerState is one of the seven states the state machine drives
// the source through for each code point.
type tokenizerState int

const (
	stateStartLine tokenizerState = iota
	stateStartField
	stateStartQuotedField
	stateField
	stateQuotedField
	stateQuotedFieldNewline
	stateComment
)

// Tokenizer consumes a borrowed UTF-8 source buffer and produces, for
// each selected column, a compact concatenated byte buffer of
// null-terminated field values. A Tokenizer may be reused for
// multiple passes; each pass releases any buffers from the previous
// one before allocating new ones. A Tokenizer is not safe to share
// across goroutines, but independent instances may run concurrently.
type Tokenizer struct {
	id uuid.UUID

	src []byte
	pos int

	delimiter uint32
	comment   uint32
	quote     uint32

	fillExtraCols         bool
	stripWhitespaceLines  bool
	stripWhitespaceFields bool

	state     tokenizerState
	lastError ErrorCode
	lastLen   int

	store   *columnStore
	numCols int
	numRows int

	// per-pass bookkeeping, valid only while a Tokenize call is
	// driving the state machine (or after it returns successfully).
	headerMode          bool
	useCols             []bool
	col                 int
	realCol             int
	fieldStart          int
	whitespaceOnly      bool
	pendingQuoteNewline bool
	fieldWasQuoted      bool
	done                bool

	// emptySentinel is the shared two-byte zero buffer; the field
	// iterator hands back a zero-length slice of it in place of the
	// one-byte empty marker. It is owned for the whole lifetime of the
	// tokenizer.
	emptySentinel [2]byte

	closed bool
}

// NewTokenizer attaches src (the borrowed source buffer, which by
// convention ends with a single 0x0A byte) and applies opts. The
// default delimiter is ',', with no comment or quote character and
// both whitespace-stripping policies off.
func NewTokenizer(src []byte, opts ...Option) (*Tokenizer, error) {
	if src == nil {
		return nil, ErrNoSource
	}
	t := &Tokenizer{
		id:        uuid.New(),
		src:       src,
		delimiter: ',',
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// ID identifies this tokenizer instance, so errors raised by
// concurrently running tokenizers can be told apart in logs.
func (t *Tokenizer) ID() uuid.UUID { return t.id }

// NumCols returns the declared number of output columns for data-mode
// passes.
func (t *Tokenizer) NumCols() int { return t.numCols }

// SetNumCols declares the number of output columns a subsequent
// data-mode pass should produce. Callers that skip the header pass
// must call this before running Tokenize in data mode.
func (t *Tokenizer) SetNumCols(n int) { t.numCols = n }

// NumRows reports the number of completed data rows from the most
// recent pass.
func (t *Tokenizer) NumRows() int { return t.numRows }

// LastError reports the error code recorded by the most recent
// Tokenize, ToLong, or ToDouble call that touched this instance.
func (t *Tokenizer) LastError() ErrorCode { return t.lastError }

// ClearError resets the shared error slot. Callers that attempt
// speculative conversions (int, then float, then string) should call
// this between attempts.
func (t *Tokenizer) ClearError() { t.lastError = NoError }

// Close releases the header and column buffers. It is idempotent:
// calling it again after the buffers are already released reports
// ErrClosed rather than panicking, and any column found already
// released during a single Close call is reported alongside it
// instead of aborting the rest of the release.
func (t *Tokenizer) Close() error {
	var result *multierror.Error
	if t.closed {
		result = multierror.Append(result, fmt.Errorf("%w: instance %s", ErrClosed, t.id))
		return result.ErrorOrNil()
	}
	for _, releaseErr := range t.releaseStore() {
		result = multierror.Append(result, releaseErr)
	}
	t.closed = true
	return result.ErrorOrNil()
}

func (t *Tokenizer) releaseStore() []error {
	if t.store == nil {
		return nil
	}
	var errs []error
	t.store.header = nil
	for i, col := range t.store.columns {
		if col == nil {
			errs = append(errs, fmt.Errorf("tabletok: column %d already released", i))
			continue
		}
		t.store.columns[i] = nil
	}
	t.store = nil
	return errs
}

// Tokenize drives the state machine over the source buffer. In
// header mode it stops after one data line and the header names can
// be read via Header/HeaderNames. In data mode it requires NumCols to
// already be set (typically from a prior header pass) and produces
// NumCols column buffers, each holding exactly NumRows terminated
// fields. useCols, when non-nil, is a per-real-column include mask;
// a nil mask includes every real column, and a row carrying more than
// NumCols fields then fails TooManyCols. skipRows counts newline-terminated lines to skip
// before parsing starts.
func (t *Tokenizer) Tokenize(headerMode bool, useCols []bool, skipRows int) (ErrorCode, error) {
	if t.closed {
		return NoError, ErrClosed
	}
	if !headerMode && t.numCols <= 0 {
		return NoError, ErrColsNotSet
	}

	// 1. Free any buffers from a prior pass.
	t.releaseStore()

	t.headerMode = headerMode
	t.useCols = useCols
	t.col = 0
	t.realCol = 0
	t.numRows = 0
	t.done = false
	t.lastError = NoError
	t.whitespaceOnly = true
	t.pendingQuoteNewline = false
	t.state = stateStartLine

	// 2. Advance the source cursor past skipRows complete lines.
	t.pos = 0
	for skipped := 0; skipped < skipRows; skipped++ {
		idx := bytes.IndexByte(t.src[t.pos:], '\n')
		if idx < 0 {
			if headerMode {
				return t.fail(InvalidLine, nil)
			}
			return NoError, nil
		}
		t.pos += idx + 1
	}

	// 3. Allocate buffers for this pass.
	if headerMode {
		t.store = newHeaderStore()
	} else {
		t.store = newDataStore(t.numCols)
	}

	// 4. Drive the state machine.
	for t.pos < len(t.src) {
		if headerMode && t.done {
			break
		}
		if n := t.bulkScan(); n > 0 {
			t.pos += n
			continue
		}
		cp, length := decodeRune(t.src, t.pos)
		t.lastLen = length
		if t.lastLen <= 0 {
			t.lastLen = 1
		}
		for {
			repeat, code := t.step(cp)
			if code != NoError {
				return t.fail(code, nil)
			}
			if !repeat {
				break
			}
		}
		t.pos += t.lastLen
	}

	if headerMode && !t.done {
		return t.fail(InvalidLine, nil)
	}

	return NoError, nil
}

func (t *Tokenizer) fail(code ErrorCode, cause error) (ErrorCode, error) {
	t.lastError = code
	return code, &TokenizeError{Code: code, Row: t.numRows, Col: t.realCol, InstanceID: t.id, Err: cause}
}

// step processes one decoded code point under the current state and
// reports whether the same code point must be re-examined (without
// advancing the source cursor) after the state change.
func (t *Tokenizer) step(cp uint32) (repeat bool, code ErrorCode) {
	switch t.state {
	case stateStartLine:
		return t.stepStartLine(cp)
	case stateStartField:
		return t.stepStartField(cp)
	case stateStartQuotedField:
		return t.stepStartQuotedField(cp)
	case stateField:
		return t.stepField(cp)
	case stateQuotedField:
		return t.stepQuotedField(cp)
	case stateQuotedFieldNewline:
		return t.stepQuotedFieldNewline(cp)
	case stateComment:
		return t.stepComment(cp)
	default:
		return false, NoError
	}
}

func isNewline(cp uint32) bool    { return cp == 0x0A }
func isSpaceOrTab(cp uint32) bool { return cp == 0x20 || cp == 0x09 }

func (t *Tokenizer) stepStartLine(cp uint32) (bool, ErrorCode) {
	switch {
	case isNewline(cp):
		return false, NoError
	case isSpaceOrTab(cp) && t.stripWhitespaceLines:
		return false, NoError
	case t.comment != 0 && cp == t.comment:
		t.state = stateComment
		return false, NoError
	default:
		t.beginLine()
		return true, NoError
	}
}

func (t *Tokenizer) stepStartField(cp uint32) (bool, ErrorCode) {
	switch {
	case isSpaceOrTab(cp) && t.stripWhitespaceFields:
		return false, NoError
	case t.comment != 0 && cp == t.comment && !t.stripWhitespaceLines:
		t.state = stateComment
		return false, NoError
	case cp == t.delimiter:
		if code := t.endField(); code != NoError {
			return false, code
		}
		t.beginFieldCursor()
		return false, NoError
	case isNewline(cp):
		if t.stripWhitespaceLines && !isSpaceOrTab(t.delimiter) {
			if code := t.endField(); code != NoError {
				return false, code
			}
		}
		if code := t.endLine(); code != NoError {
			return false, code
		}
		t.state = stateStartLine
		return false, NoError
	case t.quote != 0 && cp == t.quote:
		t.fieldWasQuoted = true
		t.state = stateStartQuotedField
		return false, NoError
	default:
		t.state = stateField
		return true, NoError
	}
}

func (t *Tokenizer) stepStartQuotedField(cp uint32) (bool, ErrorCode) {
	switch {
	case t.quote != 0 && cp == t.quote:
		// Closing quote with nothing read yet: resume in FIELD and
		// let the eventual delimiter/newline terminate this field.
		// endField's own empty-payload check emits the marker.
		t.state = stateField
		return false, NoError
	default:
		// Quote-interior content is never whitespace-stripped, leading
		// or trailing: stripWhitespaceFields applies only outside of
		// quotes, so even a leading space/tab is pushed unconditionally.
		t.state = stateQuotedField
		return true, NoError
	}
}

func (t *Tokenizer) stepField(cp uint32) (bool, ErrorCode) {
	switch {
	case t.comment != 0 && cp == t.comment && t.col == 0 && t.whitespaceOnly:
		t.state = stateComment
		return false, NoError
	case cp == t.delimiter:
		if code := t.endField(); code != NoError {
			return false, code
		}
		t.beginFieldCursor()
		return false, NoError
	case isNewline(cp):
		if code := t.endField(); code != NoError {
			return false, code
		}
		if code := t.endLine(); code != NoError {
			return false, code
		}
		t.state = stateStartLine
		return false, NoError
	default:
		t.push()
		if !isSpaceOrTab(cp) {
			t.whitespaceOnly = false
		}
		return false, NoError
	}
}

func (t *Tokenizer) stepQuotedField(cp uint32) (bool, ErrorCode) {
	switch {
	case t.quote != 0 && cp == t.quote:
		t.state = stateField
		return false, NoError
	case isNewline(cp):
		t.state = stateQuotedFieldNewline
		t.pendingQuoteNewline = true
		return false, NoError
	default:
		t.push()
		return false, NoError
	}
}

func (t *Tokenizer) stepQuotedFieldNewline(cp uint32) (bool, ErrorCode) {
	switch {
	case isSpaceOrTab(cp) && t.stripWhitespaceLines:
		return false, NoError
	case isNewline(cp):
		return false, NoError
	case t.quote != 0 && cp == t.quote:
		t.pendingQuoteNewline = false
		t.state = stateField
		return false, NoError
	default:
		if t.pendingQuoteNewline {
			if tgt := t.currentTarget(); tgt != nil {
				tgt.pushBytes([]byte{0x0A})
			}
			t.pendingQuoteNewline = false
		}
		t.state = stateQuotedField
		return true, NoError
	}
}

func (t *Tokenizer) stepComment(cp uint32) (bool, ErrorCode) {
	if isNewline(cp) {
		t.state = stateStartLine
	}
	return false, NoError
}

// beginLine resets the column counters at the true start of a row and
// positions the field cursor for the row's first field.
func (t *Tokenizer) beginLine() {
	t.col = 0
	t.realCol = 0
	t.beginFieldCursor()
}

// beginFieldCursor starts a fresh field within the current row.
func (t *Tokenizer) beginFieldCursor() {
	t.whitespaceOnly = true
	t.fieldWasQuoted = false
	if tgt := t.currentTarget(); tgt != nil {
		t.fieldStart = tgt.cursor
	} else {
		t.fieldStart = 0
	}
	t.state = stateStartField
}

// currentTarget resolves the buffer the field presently being
// assembled should be written to, or nil if this real column is
// excluded by useCols, or out of bounds (the caller raises
// TooManyCols via endField in that case).
func (t *Tokenizer) currentTarget() *columnBuffer {
	if t.headerMode {
		return t.store.header
	}
	if t.useCols != nil {
		if t.realCol >= len(t.useCols) || !t.useCols[t.realCol] {
			return nil
		}
	}
	if t.col >= len(t.store.columns) {
		return nil
	}
	return t.store.columns[t.col]
}

// push appends the raw bytes of the most recently decoded code point
// to the current field.
func (t *Tokenizer) push() {
	if tgt := t.currentTarget(); tgt != nil {
		tgt.pushBytes(t.src[t.pos : t.pos+t.lastLen])
	}
}

// bulkScan is the decode.go-backed fast path: in stateField and
// stateQuotedField, the only code points that change the state
// machine's behavior are a handful of single-byte structural ones
// (delimiter, newline, quote, and conditionally comment), so rather
// than decoding and re-entering step() one code point at a time, it
// scans ahead for the nearest structural byte with scanAhead and
// pushes the whole intervening run in one copy. It returns the number
// of source bytes consumed, or 0 when the fast path does not apply
// (a configured structural code point outside the ASCII range, or the
// very next byte is already structural), in which case the caller
// falls back to the normal per-code-point loop.
func (t *Tokenizer) bulkScan() int {
	switch t.state {
	case stateField:
		return t.bulkPushField()
	case stateQuotedField:
		return t.bulkPushQuotedField()
	default:
		return 0
	}
}

// bulkPushField implements bulkScan for stateField: the run ends at
// the delimiter, a newline, or (only while the field is still
// col==0 and whitespace-only so far) the comment character.
func (t *Tokenizer) bulkPushField() int {
	if t.delimiter >= 0x80 {
		return 0
	}
	needles := make([]byte, 0, 3)
	needles = append(needles, byte(t.delimiter), '\n')
	if t.comment != 0 && t.col == 0 && t.whitespaceOnly {
		if t.comment >= 0x80 {
			return 0
		}
		needles = append(needles, byte(t.comment))
	}
	return t.bulkPush(needles)
}

// bulkPushQuotedField implements bulkScan for stateQuotedField: inside
// an open quote, only the closing quote character and a literal
// newline (which defers to stateQuotedFieldNewline) end a run.
func (t *Tokenizer) bulkPushQuotedField() int {
	if t.quote == 0 || t.quote >= 0x80 {
		return 0
	}
	return t.bulkPush([]byte{byte(t.quote), '\n'})
}

// bulkPush pushes the raw bytes from t.pos up to (excluding) the
// nearest byte in needles, updating whitespaceOnly the same way
// push() would have across that many calls. It returns 0 (declining
// the fast path) when the very next byte is already a needle, leaving
// that byte to the normal per-code-point loop.
func (t *Tokenizer) bulkPush(needles []byte) int {
	idx := scanAhead(t.src, t.pos, needles)
	end := len(t.src)
	if idx >= 0 {
		end = idx
	}
	if end <= t.pos {
		return 0
	}
	chunk := t.src[t.pos:end]
	if tgt := t.currentTarget(); tgt != nil {
		tgt.pushBytes(chunk)
	}
	if t.whitespaceOnly {
		for _, b := range chunk {
			if b != ' ' && b != '\t' {
				t.whitespaceOnly = false
				break
			}
		}
	}
	return len(chunk)
}

func effectiveUseColsLen(useCols []bool) int {
	if useCols == nil {
		return math.MaxInt32
	}
	return len(useCols)
}

// endField terminates the field currently being assembled, applying
// trailing-whitespace trimming, the use_cols include/exclude mask,
// and the column-count bound.
func (t *Tokenizer) endField() ErrorCode {
	// Whitespace stripping never touches bytes inside a quoted region:
	// a field that began with a quote skips the trailing trim so its
	// payload survives byte-for-byte regardless of strip settings.
	if t.headerMode {
		tgt := t.store.header
		if t.stripWhitespaceFields && !t.fieldWasQuoted {
			tgt.trimTrailingWhitespace()
		}
		tgt.endField(t.fieldStart)
		return NoError
	}

	if t.realCol >= effectiveUseColsLen(t.useCols) {
		return TooManyCols
	}
	included := t.useCols == nil || t.useCols[t.realCol]
	if included {
		if t.col >= len(t.store.columns) {
			return TooManyCols
		}
		tgt := t.store.columns[t.col]
		if t.stripWhitespaceFields && !t.fieldWasQuoted {
			tgt.trimTrailingWhitespace()
		}
		tgt.endField(t.fieldStart)
		t.col++
	}
	t.realCol++
	return NoError
}

// endLine closes out the current row: in header mode it marks the
// pass done after one line; in data mode it pads short rows when
// fill_extra_cols is enabled, fails NotEnoughCols otherwise, and
// counts the completed row.
func (t *Tokenizer) endLine() ErrorCode {
	if t.headerMode {
		t.done = true
		return NoError
	}
	if t.col < t.numCols {
		if !t.fillExtraCols {
			return NotEnoughCols
		}
		for t.col < t.numCols {
			t.store.columns[t.col].appendEmptyMarker()
			t.col++
		}
	}
	t.numRows++
	return NoError
}

// Header returns a ColumnView over the header buffer produced by a
// header-mode pass.
func (t *Tokenizer) Header() (ColumnView, error) {
	if t.store == nil || t.store.header == nil {
		return ColumnView{}, fmt.Errorf("tabletok: no header buffer for this instance")
	}
	return ColumnView{it: newFieldIterator(t.store.header.buf, t.emptySentinel[:])}, nil
}

// HeaderNames drains the header iterator into a slice, for callers
// that don't want to drive the cursor API directly.
func (t *Tokenizer) HeaderNames() ([]string, error) {
	view, err := t.Header()
	if err != nil {
		return nil, err
	}
	view.StartIteration()
	var names []string
	for !view.FinishedIteration() {
		names = append(names, string(view.NextField()))
	}
	return names, nil
}

// Column returns a ColumnView over output column i from a data-mode
// pass.
func (t *Tokenizer) Column(i int) (ColumnView, error) {
	if t.store == nil || i < 0 || i >= len(t.store.columns) {
		return ColumnView{}, fmt.Errorf("tabletok: column index %d out of range", i)
	}
	return ColumnView{it: newFieldIterator(t.store.columns[i].buf, t.emptySentinel[:])}, nil
}
