package tabletok

import (
	"bytes"

	"github.com/klauspost/cpuid/v2"
)

// hasFastASCIIScan is resolved once at package init. On CPUs with
// SSE4.2 the standard library's bytes.IndexByte already dispatches to
// a vectorized implementation, so the decoder's scan-ahead helper
// below can lean on it instead of a manual byte loop; on CPUs without
// it the manual loop avoids the call overhead of a routine that
// wouldn't vectorize anyway.
var hasFastASCIIScan = cpuid.CPU.Supports(cpuid.SSE42)

// decodeRune reads one UTF-8 code point starting at src[pos] and
// reports its scalar value and its encoded length in bytes, per the
// leading-bits classification table: 0xxxxxxx -> 1, 110xxxxx -> 2,
// 1110xxxx -> 3, otherwise -> 4. Continuation bytes contribute their
// low six bits. Malformed input is not rejected: a short read at the
// end of src is handled conservatively by clamping the decoded length
// to the bytes actually available.
func decodeRune(src []byte, pos int) (cp uint32, length int) {
	b0 := src[pos]
	switch {
	case b0&0x80 == 0:
		return uint32(b0 & 0x7F), 1
	case b0&0xE0 == 0xC0:
		length = 2
		cp = uint32(b0 & 0x1F)
	case b0&0xF0 == 0xE0:
		length = 3
		cp = uint32(b0 & 0x0F)
	default:
		length = 4
		cp = uint32(b0 & 0x07)
	}

	avail := len(src) - pos
	if avail < length {
		length = avail
	}
	for i := 1; i < length; i++ {
		cp = cp<<6 | uint32(src[pos+i]&0x3F)
	}
	return cp, length
}

// scanAhead returns the offset of the next occurrence of any of the
// structural bytes (delimiter, newline, comment, quote — whichever of
// the four the caller cares about) starting at src[pos], or -1 if
// none occurs before the end of src. It is used by the FIELD and
// QUOTED_FIELD states to push runs of plain bytes without decoding
// one code point at a time when the source is single-byte ASCII
// content, which is the overwhelmingly common case for tabular text.
func scanAhead(src []byte, pos int, needles []byte) int {
	if !hasFastASCIIScan || len(needles) == 0 {
		return scanAheadScalar(src, pos, needles)
	}
	best := -1
	for _, n := range needles {
		if idx := bytes.IndexByte(src[pos:], n); idx >= 0 {
			if best == -1 || idx < best {
				best = idx
			}
		}
	}
	if best == -1 {
		return -1
	}
	return pos + best
}

func scanAheadScalar(src []byte, pos int, needles []byte) int {
	for i := pos; i < len(src); i++ {
		for _, n := range needles {
			if src[i] == n {
				return i
			}
		}
	}
	return -1
}
