package format

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/tidwall/jsonc"
)

var (
	punctuationRe = regexp.MustCompile(`([{}\[\],])`)
	blankLineRe   = regexp.MustCompile(`\n\s*\n`)
	edgeSpaceRe   = regexp.MustCompile(`(?m)^ +| +$`)
	newlineRunRe  = regexp.MustCompile(`\n{2,}`)
)

// Beautify pretty prints a request body. Comments and trailing commas are
// tolerated; the result is strict JSON indented by two spaces. Text that still
// is not JSON is split on braces, brackets and commas instead.
func Beautify(body string) string {
	clean := jsonc.ToJSON([]byte(body))
	if json.Valid(clean) {
		var out bytes.Buffer
		if err := json.Indent(&out, clean, "", "  "); err == nil {
			return strings.TrimSpace(out.String())
		}
	}
	return prettifyByLines(body)
}

// prettifyByLines puts every brace, bracket and comma at the end of its own
// line and trims the spaces around each line.
func prettifyByLines(raw string) string {
	s := punctuationRe.ReplaceAllString(raw, "$1\n")
	s = blankLineRe.ReplaceAllString(s, "\n")
	s = edgeSpaceRe.ReplaceAllString(s, "")
	return newlineRunRe.ReplaceAllString(s, "\n")
}
