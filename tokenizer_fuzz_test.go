package tabletok

import (
	"bytes"
	"testing"
)

func FuzzTokenizeDataMode(f *testing.F) {
	seeds := []string{
		"a,b,c\n1,2,3\n",
		"x,y\n1, \n ,2\n",
		"\"hel\nlo\",2\n",
		"# comment\na,b\n",
		",,,\n",
		"\n\n\n",
		"a\n",
	}
	for _, s := range seeds {
		f.Add([]byte(s), 3)
	}

	f.Fuzz(func(t *testing.T, src []byte, numCols int) {
		if numCols <= 0 || numCols > 64 {
			t.Skip()
		}
		// The source contract requires a trailing newline.
		if len(src) == 0 || src[len(src)-1] != '\n' {
			src = append(bytes.Clone(src), '\n')
		}

		tok, err := NewTokenizer(src, WithQuote('"'), WithComment('#'), WithFillExtraCols(true))
		if err != nil {
			return
		}
		defer tok.Close()
		tok.SetNumCols(numCols)

		code, tokenizeErr := tok.Tokenize(false, nil, 0)
		if tokenizeErr != nil {
			// A reported error must carry a matching non-zero code.
			if code == NoError {
				t.Fatalf("error %v returned with NoError code", tokenizeErr)
			}
			return
		}

		// Field-count conservation: every column holds exactly NumRows
		// fields once a pass completes without error.
		rows := tok.NumRows()
		for i := 0; i < numCols; i++ {
			view, err := tok.Column(i)
			if err != nil {
				t.Fatalf("Column(%d): %v", i, err)
			}
			view.StartIteration()
			count := 0
			for !view.FinishedIteration() {
				view.NextField()
				count++
			}
			if count != rows {
				t.Fatalf("column %d: got %d fields, want %d rows", i, count, rows)
			}
		}
	})
}

func FuzzDecodeRuneNeverPanics(f *testing.F) {
	f.Add([]byte{0x41})
	f.Add([]byte{0xC3, 0xA9})
	f.Add([]byte{0xE2, 0x98, 0x83})
	f.Add([]byte{0xF0, 0x9F, 0x98, 0x80})
	f.Add([]byte{0xFF})
	f.Add([]byte{0xE2, 0x98})

	f.Fuzz(func(t *testing.T, src []byte) {
		if len(src) == 0 {
			t.Skip()
		}
		cp, n := decodeRune(src, 0)
		_ = cp
		if n <= 0 || n > len(src) {
			t.Fatalf("decodeRune returned length %d for %d available bytes", n, len(src))
		}
	})
}
