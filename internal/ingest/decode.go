package ingest

import (
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultCharset is assumed when no source charset is configured.
const DefaultCharset = "utf-8"

// Decode reads r fully and returns NFC-normalized UTF-8 text. A UTF-8 BOM is
// stripped. Any charset other than utf-8 is resolved through the WHATWG
// encoding index (e.g. "windows-1252", "iso-8859-1").
func Decode(r io.Reader, charset string) (string, error) {
	var dec transform.Transformer
	switch cs := strings.ToLower(strings.TrimSpace(charset)); cs {
	case "", "utf-8", "utf8":
		dec = unicode.UTF8BOM.NewDecoder()
	default:
		enc, err := htmlindex.Get(cs)
		if err != nil {
			return "", eris.Wrapf(err, "decode: unsupported charset %q", charset)
		}
		dec = enc.NewDecoder()
	}

	data, err := io.ReadAll(transform.NewReader(r, transform.Chain(dec, norm.NFC)))
	if err != nil {
		return "", eris.Wrap(err, "decode: read source")
	}
	return string(data), nil
}

// ReadSource opens and decodes the extract at path.
func ReadSource(path, charset string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", eris.Wrapf(err, "decode: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	return Decode(f, charset)
}
