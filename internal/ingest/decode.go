package ingest

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// fallbackEncodings are tried in order once the payload is known not to be
// valid UTF-8.
var fallbackEncodings = []struct {
	name string
	enc  encoding.Encoding
}{
	{"latin-1", charmap.ISO8859_1},
	{"cp1252", charmap.Windows1252},
}

var utf8BOM = []byte("\xef\xbb\xbf")

// hasBOM reports whether b starts with a UTF-8 byte order mark.
func hasBOM(b []byte) bool {
	return bytes.HasPrefix(b, utf8BOM)
}

// decodeText turns raw export bytes into text. UTF-8 is preferred and a
// leading byte order mark is dropped. It reports the encoding that was used,
// or ok=false when none applied.
func decodeText(b []byte) (text, used string, ok bool) {
	if utf8.Valid(b) {
		if hasBOM(b) {
			b = b[len(utf8BOM):]
		}
		return string(b), "utf-8", true
	}
	for _, fe := range fallbackEncodings {
		out, err := fe.enc.NewDecoder().Bytes(b)
		if err != nil {
			continue
		}
		return string(out), fe.name, true
	}
	return "", "", false
}
