package product

import (
	"regexp"
	"strings"
)

// The site does not specify color anywhere except the name/description text,
// so the best guess is a vocabulary scan over the description.
var colorWords = []string{
	"black", "blue", "multicolor",
	"white", "gray", "grey",
	"pink", "red", "beige",
	"green", "gold", "brown",
	"purple", "silver", "animal",
	"yellow", "floral", "orange",
	"khaki", "transparent", "teal",
	"ivory",
}

var colorPattern = regexp.MustCompile(`\b(` + strings.Join(colorWords, "|") + `)\b`)

// DetectColor returns the first color word appearing in the description,
// scanning left to right; ties between vocabulary entries are decided by
// text position, not vocabulary order. Returns "" when nothing matches.
func DetectColor(description string) string {
	match := colorPattern.FindStringSubmatch(strings.ToLower(description))
	if match == nil {
		return ""
	}
	return match[1]
}
