package fileio

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

const sniffBytes = 4096

// readCSV reads a storefront export, converting legacy single-byte encodings
// to UTF-8 and guessing the delimiter from the header line.
func readCSV(r io.Reader, headerRow int) ([]map[string]string, error) {
	br := bufio.NewReaderSize(r, sniffBytes)
	peek, err := br.Peek(sniffBytes)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	var dec io.Reader = br
	if enc := detectEncoding(peek); enc != nil {
		dec = transform.NewReader(br, enc.NewDecoder())
	}

	cr := csv.NewReader(dec)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.Comma = sniffDelimiter(peek)

	var rows [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, rec)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	h := pickHeader(rows, headerRow)
	return rowsToMaps(rows, h, headerRow), nil
}

// detectEncoding returns nil for UTF-8 input. Anything else is cp1251 when
// chardet says so and cp1252 otherwise.
func detectEncoding(peek []byte) encoding.Encoding {
	if len(peek) == 0 {
		return nil
	}
	// a multi-byte rune may be cut at the end of the sniffed window
	trimmed := peek
	for i := 0; i < utf8.UTFMax && len(trimmed) > 0 && !utf8.Valid(trimmed); i++ {
		trimmed = trimmed[:len(trimmed)-1]
	}
	if utf8.Valid(trimmed) {
		return nil
	}
	det, err := chardet.NewTextDetector().DetectBest(peek)
	if err == nil && det != nil {
		switch strings.ToLower(det.Charset) {
		case "windows-1251", "cp1251":
			return charmap.Windows1251
		case "koi8-r":
			return charmap.KOI8R
		}
	}
	return charmap.Windows1252
}

func sniffDelimiter(peek []byte) rune {
	line := peek
	if i := bytes.IndexByte(peek, '\n'); i >= 0 {
		line = peek[:i]
	}
	best, n := ',', bytes.Count(line, []byte{','})
	for _, d := range []rune{';', '\t'} {
		if c := bytes.Count(line, []byte(string(d))); c > n {
			best, n = d, c
		}
	}
	return best
}
