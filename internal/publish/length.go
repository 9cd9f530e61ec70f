package publish

import (
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxPostLength is the platform length ceiling in NFC code points.
const MaxPostLength = 280

// Length counts s the way the length ceiling is enforced: NFC code points.
func Length(s string) int {
	return utf8.RuneCountInString(norm.NFC.String(s))
}
