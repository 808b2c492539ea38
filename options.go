package tabletok

// Option configures a Tokenizer at construction time.
type Option func(*Tokenizer)

// WithDelimiter sets the code point that separates fields on a row.
// The default is ','.
func WithDelimiter(cp rune) Option {
	return func(t *Tokenizer) { t.delimiter = uint32(cp) }
}

// WithComment sets the code point that, when it opens a line
// (possibly after whitespace), causes the rest of the line to be
// discarded. Zero (the default) means "no comment character".
func WithComment(cp rune) Option {
	return func(t *Tokenizer) { t.comment = uint32(cp) }
}

// WithQuote sets the code point that toggles literal-inclusion mode
// for the delimiter and newline. Zero (the default) means "no quote
// character".
func WithQuote(cp rune) Option {
	return func(t *Tokenizer) { t.quote = uint32(cp) }
}

// WithFillExtraCols pads short data rows with empty fields instead of
// raising NotEnoughCols.
func WithFillExtraCols(fill bool) Option {
	return func(t *Tokenizer) { t.fillExtraCols = fill }
}

// WithStripWhitespaceLines strips leading space/tab bytes from a line
// before it is classified, and absorbs whitespace-only lines.
func WithStripWhitespaceLines(strip bool) Option {
	return func(t *Tokenizer) { t.stripWhitespaceLines = strip }
}

// WithStripWhitespaceFields strips leading and trailing space/tab
// bytes from each field outside of quotes.
func WithStripWhitespaceFields(strip bool) Option {
	return func(t *Tokenizer) { t.stripWhitespaceFields = strip }
}
