// Package textcodec decodes file bytes of unknown encoding into usable
// UTF-8 text.
//
// Files in the monitored directory routinely arrive in GBK or GB18030
// rather than UTF-8. The decoder tries a fixed ladder of encodings and
// keeps the first that produces plausible text.
package textcodec

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// candidate pairs an encoding with its name for diagnostics.
type candidate struct {
	name string
	enc  encoding.Encoding
}

// decodeLadder is tried in order. UTF-8 is handled before the ladder.
var decodeLadder = []candidate{
	{"gbk", simplifiedchinese.GBK},
	{"gb18030", simplifiedchinese.GB18030},
	{"windows-1252", charmap.Windows1252},
	{"latin-1", charmap.ISO8859_1},
}

// Decode converts raw bytes to a UTF-8 string, trying UTF-8 first and
// then the encoding ladder. The returned name identifies the encoding
// that was used.
func Decode(data []byte) (text, encodingName string, err error) {
	data = stripBOM(data)

	if utf8.Valid(data) {
		return string(data), "utf-8", nil
	}

	for _, c := range decodeLadder {
		decoded, decErr := c.enc.NewDecoder().Bytes(data)
		if decErr != nil {
			continue
		}
		if utf8.Valid(decoded) {
			return string(decoded), c.name, nil
		}
	}
	return "", "", fmt.Errorf("no encoding in the ladder decodes the content")
}

// stripBOM removes a leading UTF-8 byte order mark.
func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
}

// CleanText filters decoded text down to printable content. Control
// characters other than newline and tab are dropped, runs of blank
// lines are collapsed and surrounding whitespace is trimmed.
func CleanText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\t':
			b.WriteRune(r)
		case r == '\r':
			// Normalised away with the blank-line collapse below.
		case unicode.IsControl(r):
		case r == utf8.RuneError:
		default:
			b.WriteRune(r)
		}
	}

	lines := strings.Split(b.String(), "\n")
	var kept []string
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			if !blank && len(kept) > 0 {
				kept = append(kept, "")
			}
			blank = true
			continue
		}
		blank = false
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// PrintableRatio reports the share of runes in s that are printable
// text. Used to judge whether a best-effort decode produced real
// content or binary noise.
func PrintableRatio(s string) float64 {
	if s == "" {
		return 0
	}
	total, printable := 0, 0
	for _, r := range s {
		total++
		if r == '\n' || r == '\t' || r == ' ' || unicode.IsGraphic(r) {
			printable++
		}
	}
	return float64(printable) / float64(total)
}
