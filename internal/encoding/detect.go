package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// charsets maps the names chardet reports (lowercased) to decoders. Ledger
// exports from Arabic-locale spreadsheets arrive as windows-1256 or ISO-8859-6.
var charsets = map[string]encoding.Encoding{
	"windows-1256": charmap.Windows1256,
	"iso-8859-6":   charmap.ISO8859_6,
	"windows-1252": charmap.Windows1252,
	"iso-8859-1":   charmap.Windows1252,
	"iso-8859-9":   charmap.ISO8859_9,
}

// Lookup returns the decoder for a charset name, or nil if it is not supported.
func Lookup(name string) encoding.Encoding {
	return charsets[strings.ToLower(strings.TrimSpace(name))]
}

// NewUTF8Reader detects the encoding of the input and returns a reader
// that decodes the content to UTF-8.
//
// Detection order:
//  1. BOM (UTF-8 BOM is stripped; UTF-16 LE/BE is decoded)
//  2. Valid UTF-8 is returned as-is
//  3. The caller's hint, when it names a supported charset
//  4. Heuristic detection via chardet
//  5. Fallback to windows-1256
func NewUTF8Reader(r io.Reader, hint string) (io.Reader, error) {
	br := bufio.NewReader(r)

	buf, err := br.Peek(4096)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("peek: %w", err)
	}

	switch {
	case bytes.HasPrefix(buf, bomUTF8):
		_, _ = br.Discard(len(bomUTF8))
		return br, nil
	case bytes.HasPrefix(buf, bomUTF16LE):
		return transform.NewReader(br, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()), nil
	case bytes.HasPrefix(buf, bomUTF16BE):
		return transform.NewReader(br, unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()), nil
	case utf8.Valid(trimPartialRune(buf)):
		return br, nil
	}

	if enc := Lookup(hint); enc != nil {
		return transform.NewReader(br, enc.NewDecoder()), nil
	}

	result, detectErr := chardet.NewTextDetector().DetectBest(buf)
	if detectErr == nil {
		if result.Charset == "UTF-8" {
			return br, nil
		}

		if enc := Lookup(result.Charset); enc != nil {
			return transform.NewReader(br, enc.NewDecoder()), nil
		}
	}

	return transform.NewReader(br, charmap.Windows1256.NewDecoder()), nil
}

// trimPartialRune drops a multi-byte sequence cut off by the peek window.
func trimPartialRune(buf []byte) []byte {
	for i := 1; i < utf8.UTFMax && i <= len(buf); i++ {
		b := buf[len(buf)-i]
		if !utf8.RuneStart(b) {
			continue
		}

		if !utf8.FullRune(buf[len(buf)-i:]) {
			return buf[:len(buf)-i]
		}

		break
	}

	return buf
}
