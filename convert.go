package tabletok

import (
	"errors"
	"strconv"
)

// ToLong parses a field's bytes as a base-0 integer, so "0x" and
// leading-"0" prefixes are honored the same way strconv's base-0 mode
// honors them. It reports ConversionError if the input is empty or
// was not consumed in full, and OverflowError if the value is outside
// the platform's 64-bit integer range. On failure the error code is
// also recorded on t's shared error slot, per the core's "conversion
// helpers write into the shared error code" design; the caller is
// expected to clear it (ClearError) before reattempting, since a
// type-inference policy typically tries ToLong, then ToDouble, then
// falls back to string.
func (t *Tokenizer) ToLong(field []byte) (int64, ErrorCode) {
	if len(field) == 0 {
		t.lastError = ConversionError
		return 0, ConversionError
	}
	v, err := strconv.ParseInt(string(field), 0, 64)
	if err == nil {
		return v, NoError
	}
	var numErr *strconv.NumError
	if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
		t.lastError = OverflowError
		return v, OverflowError
	}
	t.lastError = ConversionError
	return 0, ConversionError
}

// ToDouble parses a field's bytes as a float64, with the same
// error-classification discipline as ToLong: a syntax failure or
// partial consumption is ConversionError, an out-of-range magnitude
// is OverflowError, and either failure is also recorded on t's shared
// error slot.
func (t *Tokenizer) ToDouble(field []byte) (float64, ErrorCode) {
	if len(field) == 0 {
		t.lastError = ConversionError
		return 0, ConversionError
	}
	v, err := strconv.ParseFloat(string(field), 64)
	if err == nil {
		return v, NoError
	}
	var numErr *strconv.NumError
	if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
		t.lastError = OverflowError
		return v, OverflowError
	}
	t.lastError = ConversionError
	return 0, ConversionError
}
