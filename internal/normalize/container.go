package normalize

import (
	"regexp"
	"strings"
)

var (
	labeledContainer = regexp.MustCompile(`(?i)contenedor\s*:\s*(\S+(?:\s+\S+)*)`)
	containerShape   = regexp.MustCompile(`(?i)([A-Z]{2,4}\s*\d{4,})`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
)

// ExtractContainer finds a shipping-container code in free text.
//
// An explicit "Contenedor: <code>" label wins and everything after the colon
// is taken as the code. Otherwise the first token shaped like a container
// code (2-4 letters followed by at least 4 digits) is used. Codes are
// upper-cased; ok is false when the text carries no code.
func ExtractContainer(text string) (code string, ok bool) {
	if text == "" {
		return "", false
	}
	if m := labeledContainer.FindStringSubmatch(text); m != nil && m[1] != "" {
		return strings.ToUpper(strings.TrimSpace(m[1])), true
	}
	if m := containerShape.FindStringSubmatch(text); m != nil && m[1] != "" {
		code = strings.ToUpper(strings.TrimSpace(m[1]))
		return whitespaceRun.ReplaceAllString(code, " "), true
	}
	return "", false
}

// ContainerNotes renders the notes field trips carry for a container.
func ContainerNotes(code string) string {
	return "Contenedor: " + code
}
