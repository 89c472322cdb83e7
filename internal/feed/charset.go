package feed

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

var charsets = map[string]encoding.Encoding{
	"iso-8859-1":   charmap.ISO8859_1,
	"iso8859-1":    charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
	"iso-8859-15":  charmap.ISO8859_15,
	"latin9":       charmap.ISO8859_15,
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
}

// LookupCharset resolves a single-byte source charset by name.
func LookupCharset(name string) (encoding.Encoding, error) {
	enc, ok := charsets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("feed: unsupported charset %q", name)
	}
	return enc, nil
}

// Transcode wraps r so that reads yield UTF-8. The conversion is streaming.
func Transcode(r io.Reader, enc encoding.Encoding) io.Reader {
	if enc == nil {
		enc = charmap.ISO8859_1
	}
	return enc.NewDecoder().Reader(r)
}
