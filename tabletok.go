// # tabletok: a byte-buffer table-text tokenizer for Go
//
// tabletok turns a UTF-8 byte slice describing a delimited tabular
// file (header plus rows of optionally quoted, optionally commented
// fields) into per-column byte buffers of null-terminated field
// values, ready for a downstream typed-conversion layer to walk
// without copying.
//
// # Features
//
// - A seven-state tokenizer over a borrowed source buffer, with
// configurable delimiter, comment, and quote code points and
// independent whitespace-stripping policies for lines and fields.
// - Growing per-column output buffers sharing one in-buffer sentinel
// scheme (0x00 terminator, 0x01 empty marker) so a field iterator can
// walk them without knowing where one field ends until it gets there.
// - A cursor-based field iterator shared between header and data
// columns, plus ToLong/ToDouble numeric conversion helpers with a
// conversion/overflow error split.
// - FixtureWriter, a small test-support CSV emitter for building
// round-trip fixtures and benchmark corpora.
//
// # Getting Started
//
// The module path is `github.com/oleg578/tabletok`. Import it
// directly when working inside this repository, or adjust the module
// path to match your fork or remote.
package tabletok
