package catalog

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// fallbackLabel is shown for clips with no usable name.
const fallbackLabel = "Animation"

var (
	rigNoise    = regexp.MustCompile(`(?i)mixamorig|character|_`)
	capital     = regexp.MustCompile(`([A-Z])`)
	extraSpaces = regexp.MustCompile(`\s+`)
)

// FormatAnimationName turns an authored clip name such as "mixamorig_IdleBreathing" into a
// display label ("Idle Breathing").
//
// Parameters:
//   - name: the clip name from the asset
//
// Returns:
//   - string: the display label, "Animation" when nothing readable remains
func FormatAnimationName(name string) string {
	s := rigNoise.ReplaceAllString(name, " ")
	s = capital.ReplaceAllString(s, " $1")
	s = strings.TrimSpace(extraSpaces.ReplaceAllString(s, " "))
	if s == "" {
		return fallbackLabel
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
