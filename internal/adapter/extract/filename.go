package extract

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// SecureFilename reduces an uploaded filename to a safe base name made of
// ASCII letters, digits, '_', '-' and '.'. Directory components are dropped
// and whitespace runs become '_'. Accented letters are decomposed (NFKD) so
// they keep their ASCII base. It returns "" when nothing usable remains.
func SecureFilename(name string) string {
	name = norm.NFKD.String(name)
	name = strings.ReplaceAll(name, "\\", "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}

	var b strings.Builder
	pendingSpace := false
	for _, r := range name {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = b.Len() > 0
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '.'):
			if pendingSpace {
				b.WriteByte('_')
				pendingSpace = false
			}
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "._")
}
