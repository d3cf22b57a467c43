package validators

import (
	"strings"
	"unicode"
)

// SanitizeSearch folds runs of whitespace into single spaces, drops control
// characters and cuts the result to maxRunes without splitting a character.
func SanitizeSearch(input string, maxRunes int) string {
	var b strings.Builder
	n := 0
	pendingSpace := false
	for _, r := range input {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = b.Len() > 0
			continue
		case unicode.IsControl(r):
			continue
		}
		if maxRunes > 0 && n >= maxRunes {
			break
		}
		if pendingSpace {
			if maxRunes > 0 && n+1 >= maxRunes {
				break
			}
			b.WriteByte(' ')
			n++
			pendingSpace = false
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}
