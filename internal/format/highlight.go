package format

import (
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/fatih/color"
)

const (
	highlightFormatter = "terminal256"
	highlightStyle     = "monokai"
)

// highlightJSON colours a JSON document for the terminal. When colour is off,
// or the highlighter fails, the text comes back unchanged.
func highlightJSON(s string) string {
	if color.NoColor {
		return s
	}

	var out strings.Builder
	if err := quick.Highlight(&out, s, "json", highlightFormatter, highlightStyle); err != nil {
		return s
	}
	return out.String()
}
