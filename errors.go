package tabletok

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrorCode mirrors the core's shared error slot: tokenize failures and
// conversion failures both land in one of these buckets.
type ErrorCode int

const (
	// NoError indicates success.
	NoError ErrorCode = iota
	// InvalidLine is returned when header mode is requested but the
	// source is shorter than skip_rows lines.
	InvalidLine
	// TooManyCols is returned when a data row produces more
	// non-excluded fields than NumCols, or references a real column
	// index beyond the use-cols mask.
	TooManyCols
	// NotEnoughCols is returned when a data row finishes short of
	// NumCols and fill-extra-cols is disabled.
	NotEnoughCols
	// ConversionError is returned by ToLong/ToDouble when the input
	// could not be parsed in full.
	ConversionError
	// OverflowError is returned by ToLong/ToDouble when the parsed
	// value is out of range.
	OverflowError
)

// String renders the error code the way the core's callers expect to
// see it in logs and test failures.
func (c ErrorCode) String() string {
	switch c {
	case NoError:
		return "NO_ERROR"
	case InvalidLine:
		return "INVALID_LINE"
	case TooManyCols:
		return "TOO_MANY_COLS"
	case NotEnoughCols:
		return "NOT_ENOUGH_COLS"
	case ConversionError:
		return "CONVERSION_ERROR"
	case OverflowError:
		return "OVERFLOW_ERROR"
	default:
		return "UNKNOWN_ERROR"
	}
}

var (
	// ErrClosed is returned when an operation is attempted on a
	// tokenizer whose buffers have already been released.
	ErrClosed = errors.New("tabletok: tokenizer is closed")
	// ErrNoSource is returned when a tokenizer is constructed without
	// a source byte slice.
	ErrNoSource = errors.New("tabletok: source cannot be nil")
	// ErrColsNotSet is returned when a data-mode pass is requested
	// before NumCols has been established by a header pass or by
	// SetNumCols.
	ErrColsNotSet = errors.New("tabletok: NumCols is not set for data mode")
)

// TokenizeError reports a tokenize-phase or conversion-phase failure
// with enough location context for a caller's own logger.
type TokenizeError struct {
	Code ErrorCode
	// Row is the zero-based data row being assembled when the error
	// was raised (the number of rows completed so far; 0 for
	// InvalidLine).
	Row int
	// Col is the zero-based real column index (pre-use_cols
	// filtering) being assembled when the error was raised.
	Col int
	// InstanceID identifies the Tokenizer that raised the error, so
	// errors from concurrently running instances can be told apart.
	InstanceID uuid.UUID
	// Err is the underlying cause, if any. Only Tokenize populates
	// this; ToLong/ToDouble report failures as a plain ErrorCode on
	// the caller's shared error slot (Tokenizer.LastError), not as a
	// *TokenizeError.
	Err error
}

// Error formats the code, location, and instance for the reader the
// way the teacher's ParseError formats line/column.
func (e *TokenizeError) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("tabletok[%s]: %s at row %d, col %d", e.InstanceID, e.Code, e.Row, e.Col)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause so errors.Is/As can match it.
func (e *TokenizeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
