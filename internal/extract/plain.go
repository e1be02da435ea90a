package extract

import (
	"strings"

	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// decodePlainText honours a UTF-16 or UTF-8 byte order mark and otherwise
// reads UTF-8, replacing invalid sequences.
func decodePlainText(data []byte) (string, error) {
	dec := xunicode.BOMOverride(xunicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(out), "\uFFFD"), nil
}
