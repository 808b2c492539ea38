package tabletok

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readAllFields drains a ColumnView into a []string, failing the test
// if the view cannot be opened.
func readAllFields(t *testing.T, tok *Tokenizer, col int) []string {
	t.Helper()
	view, err := tok.Column(col)
	require.NoError(t, err)
	view.StartIteration()
	var got []string
	for !view.FinishedIteration() {
		got = append(got, string(view.NextField()))
	}
	return got
}

func newTok(t *testing.T, src string, opts ...Option) *Tokenizer {
	t.Helper()
	tok, err := NewTokenizer([]byte(src), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tok.Close() })
	return tok
}

// Scenario 1 from the testable-properties section: a plain
// comma-separated file with a header row and two data rows.
func TestScenarioHeaderAndDataRoundTrip(t *testing.T) {
	t.Parallel()

	src := "A,B,C\n10,5.,6\n1,2,3\n"

	header := newTok(t, src)
	_, err := header.Tokenize(true, nil, 0)
	require.NoError(t, err)
	names, err := header.HeaderNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, names)

	data := newTok(t, src)
	data.SetNumCols(3)
	_, err = data.Tokenize(false, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, data.NumRows())
	assert.Equal(t, []string{"10", "1"}, readAllFields(t, data, 0))
	assert.Equal(t, []string{"5.", "2"}, readAllFields(t, data, 1))
	assert.Equal(t, []string{"6", "3"}, readAllFields(t, data, 2))
}

// Scenario 2: whitespace-only fields collapse to the empty sentinel
// when field stripping is enabled.
func TestScenarioStrippedWhitespaceFieldsBecomeEmpty(t *testing.T) {
	t.Parallel()

	src := "x,y\n1, \n ,2\n"
	data := newTok(t, src,
		WithStripWhitespaceFields(true),
		WithStripWhitespaceLines(true),
	)
	data.SetNumCols(2)
	_, err := data.Tokenize(false, nil, 1)
	require.NoError(t, err, spew.Sdump(data))

	assert.Equal(t, []string{"1", ""}, readAllFields(t, data, 0))
	assert.Equal(t, []string{"", "2"}, readAllFields(t, data, 1))
}

// Scenario 3/4: short rows either fail NotEnoughCols or get padded
// with empty fields, depending on fill_extra_cols.
func TestScenarioShortRowWithoutFill(t *testing.T) {
	t.Parallel()

	data := newTok(t, "a,b,c\n1,2\n")
	data.SetNumCols(3)
	code, err := data.Tokenize(false, nil, 1)
	require.Error(t, err)
	assert.Equal(t, NotEnoughCols, code)
}

func TestScenarioShortRowWithFill(t *testing.T) {
	t.Parallel()

	data := newTok(t, "a,b,c\n1,2\n", WithFillExtraCols(true))
	data.SetNumCols(3)
	_, err := data.Tokenize(false, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, data.NumRows())
	assert.Equal(t, []string{""}, readAllFields(t, data, 2))
}

// Scenario 5: a quoted field carrying an embedded newline is
// preserved byte-for-byte.
func TestScenarioQuotedFieldWithEmbeddedNewline(t *testing.T) {
	t.Parallel()

	src := "a,b\n\"hel\nlo\",2\n"
	data := newTok(t, src, WithQuote('"'))
	data.SetNumCols(2)
	_, err := data.Tokenize(false, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"hel\nlo"}, readAllFields(t, data, 0))
	assert.Equal(t, []string{"2"}, readAllFields(t, data, 1))
}

// Scenario 6: a comment line contributes neither a row nor an error.
func TestScenarioCommentLineIsSkipped(t *testing.T) {
	t.Parallel()

	src := "# comment\na,b\n1,2\n"
	header := newTok(t, src, WithComment('#'))
	_, err := header.Tokenize(true, nil, 0)
	require.NoError(t, err)
	names, err := header.HeaderNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	data := newTok(t, src, WithComment('#'))
	data.SetNumCols(2)
	_, err = data.Tokenize(false, nil, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, data.NumRows())
	assert.Equal(t, []string{"1"}, readAllFields(t, data, 0))
	assert.Equal(t, []string{"2"}, readAllFields(t, data, 1))
}

func TestTokenizeRequiresNumColsInDataMode(t *testing.T) {
	t.Parallel()

	data := newTok(t, "1,2\n")
	_, err := data.Tokenize(false, nil, 0)
	assert.ErrorIs(t, err, ErrColsNotSet)
}

func TestTokenizeInvalidLineWhenSkipRowsExceedsSourceInHeaderMode(t *testing.T) {
	t.Parallel()

	header := newTok(t, "a,b\n")
	code, err := header.Tokenize(true, nil, 5)
	require.Error(t, err)
	assert.Equal(t, InvalidLine, code)
}

func TestTokenizeSkipRowsPastEndInDataModeIsNotAnError(t *testing.T) {
	t.Parallel()

	data := newTok(t, "a,b\n1,2\n")
	data.SetNumCols(2)
	code, err := data.Tokenize(false, nil, 5)
	require.NoError(t, err)
	assert.Equal(t, NoError, code)
	assert.Equal(t, 0, data.NumRows())
}

func TestTooManyColsFromUseColsBounds(t *testing.T) {
	t.Parallel()

	data := newTok(t, "1,2,3\n")
	data.SetNumCols(1)
	code, err := data.Tokenize(false, []bool{true}, 0)
	require.Error(t, err)
	assert.Equal(t, TooManyCols, code)
}

// Exclusion equivalence: excluding a real column via useCols produces
// the same remaining output as simply never including that column.
func TestExclusionEquivalence(t *testing.T) {
	t.Parallel()

	src := "1,skip,3\n4,skip,6\n"

	excluding := newTok(t, src)
	excluding.SetNumCols(2)
	_, err := excluding.Tokenize(false, []bool{true, false, true}, 0)
	require.NoError(t, err)

	removed := newTok(t, "1,3\n4,6\n")
	removed.SetNumCols(2)
	_, err = removed.Tokenize(false, nil, 0)
	require.NoError(t, err)

	assert.Equal(t, readAllFields(t, removed, 0), readAllFields(t, excluding, 0))
	assert.Equal(t, readAllFields(t, removed, 1), readAllFields(t, excluding, 1))
}

// Whitespace-strip idempotence: wrapping a field in extra spaces or
// tabs, outside of quotes, does not change the emitted payload.
func TestWhitespaceStripIdempotence(t *testing.T) {
	t.Parallel()

	plain := newTok(t, "a,b\n", WithStripWhitespaceFields(true))
	plain.SetNumCols(2)
	_, err := plain.Tokenize(false, nil, 0)
	require.NoError(t, err)

	padded := newTok(t, " a ,\tb\t\n", WithStripWhitespaceFields(true))
	padded.SetNumCols(2)
	_, err = padded.Tokenize(false, nil, 0)
	require.NoError(t, err)

	assert.Equal(t, readAllFields(t, plain, 0), readAllFields(t, padded, 0))
	assert.Equal(t, readAllFields(t, plain, 1), readAllFields(t, padded, 1))
}

// Quote transparency: the payload between matched quotes is preserved
// regardless of whitespace-stripping settings.
func TestQuoteTransparency(t *testing.T) {
	t.Parallel()

	src := "\"  padded  \",b\n"
	data := newTok(t, src, WithQuote('"'), WithStripWhitespaceFields(true))
	data.SetNumCols(2)
	_, err := data.Tokenize(false, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"  padded  "}, readAllFields(t, data, 0))
}

// Field-count conservation: every output column holds exactly
// NumRows terminated fields, with and without fill_extra_cols.
func TestFieldCountConservation(t *testing.T) {
	t.Parallel()

	t.Run("fill off, well-formed rows", func(t *testing.T) {
		t.Parallel()
		data := newTok(t, "1,2,3\n4,5,6\n7,8,9\n")
		data.SetNumCols(3)
		_, err := data.Tokenize(false, nil, 0)
		require.NoError(t, err)
		for col := 0; col < 3; col++ {
			assert.Len(t, readAllFields(t, data, col), data.NumRows())
		}
	})

	t.Run("fill on, short rows", func(t *testing.T) {
		t.Parallel()
		data := newTok(t, "1,2\n3\n", WithFillExtraCols(true))
		data.SetNumCols(3)
		_, err := data.Tokenize(false, nil, 0)
		require.NoError(t, err)
		for col := 0; col < 3; col++ {
			assert.Len(t, readAllFields(t, data, col), data.NumRows())
		}
	})
}

// Round-trip on ASCII single-byte fields: the concatenation of
// next_field results across columns equals the original sequence.
func TestRoundTripASCIISingleByteFields(t *testing.T) {
	t.Parallel()

	data := newTok(t, "alpha,beta,gamma\n")
	data.SetNumCols(3)
	_, err := data.Tokenize(false, nil, 0)
	require.NoError(t, err)

	var rebuilt []string
	for col := 0; col < 3; col++ {
		rebuilt = append(rebuilt, readAllFields(t, data, col)...)
	}
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, rebuilt)
}

func TestCloseIsIdempotentAndReportsDoubleClose(t *testing.T) {
	t.Parallel()

	data, err := NewTokenizer([]byte("1,2\n"))
	require.NoError(t, err)
	data.SetNumCols(2)
	_, err = data.Tokenize(false, nil, 0)
	require.NoError(t, err)

	require.NoError(t, data.Close())
	err = data.Close()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestReuseAcrossPassesReleasesPriorBuffers(t *testing.T) {
	t.Parallel()

	data := newTok(t, "1,2\n3,4\n")
	data.SetNumCols(2)
	_, err := data.Tokenize(false, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, data.NumRows())

	// A second pass with a larger skip must not see stale state
	// from the first pass.
	_, err = data.Tokenize(false, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, data.NumRows())
	assert.Equal(t, []string{"3"}, readAllFields(t, data, 0))
}
