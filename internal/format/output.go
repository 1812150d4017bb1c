// Package format renders requests, collections, responses and history for the
// terminal.
package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"

	"blitztest/internal/model"

	"github.com/fatih/color"
)

// out is where every printer writes.
var out io.Writer = color.Output

// SetOutput redirects the printers, mainly for tests.
func SetOutput(w io.Writer) {
	out = w
}

// sanitizeOutput removes or escapes potentially dangerous control characters
// that could manipulate terminal display or execute commands
func sanitizeOutput(s string) string {
	var result strings.Builder
	result.Grow(len(s))

	for _, r := range s {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			// Allow common whitespace characters
			result.WriteRune(r)
		case r == '\x1b':
			// Escape ANSI escape sequences - replace ESC with visible representation
			result.WriteString("\\x1b")
		case unicode.IsControl(r) && r < 0x20:
			// Replace other control characters (0x00-0x1F except allowed whitespace)
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		case r == 0x7F:
			// DEL character
			result.WriteString("\\x7f")
		default:
			result.WriteRune(r)
		}
	}

	return result.String()
}

var (
	successColor   = color.New(color.FgGreen, color.Bold)
	redirectColor  = color.New(color.FgYellow, color.Bold)
	clientErrColor = color.New(color.FgRed, color.Bold)
	serverErrColor = color.New(color.FgRed, color.Bold, color.BgWhite)
	headerKeyColor = color.New(color.FgCyan)
	methodColor    = color.New(color.FgMagenta, color.Bold)
	urlColor       = color.New(color.FgBlue)
	dimColor       = color.New(color.Faint)
	activeColor    = color.New(color.FgGreen)
)

// PrintResponse prints a formatted HTTP response
func PrintResponse(resp *model.Response, showHeaders bool) {
	printStatusLine(resp.Status, resp.StatusCode)
	dimColor.Fprintf(out, "  Time: %dms  Size: %s\n\n", resp.DurationMs, humanBytes(resp.SizeBytes))

	if showHeaders {
		printHeaders(resp.Headers)
	}

	printBody(resp.Body)
}

func printStatusLine(status string, code int) {
	getStatusColor(code).Fprintf(out, "%s\n", sanitizeOutput(status))
}

func getStatusColor(code int) *color.Color {
	switch {
	case code >= 200 && code < 300:
		return successColor
	case code >= 300 && code < 400:
		return redirectColor
	case code >= 400 && code < 500:
		return clientErrColor
	default:
		return serverErrColor
	}
}

func printHeaders(headers map[string]string) {
	if len(headers) == 0 {
		return
	}

	fmt.Fprintln(out, "Headers:")

	// Sort headers for consistent output
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		headerKeyColor.Fprintf(out, "  %s: ", sanitizeOutput(key))
		fmt.Fprintln(out, sanitizeOutput(headers[key]))
	}
	fmt.Fprintln(out)
}

func printBody(body string) {
	if body == "" {
		dimColor.Fprintln(out, "(empty body)")
		return
	}

	pretty, isJSON := prettyJSON(body)
	clean := sanitizeOutput(pretty)
	if isJSON {
		clean = highlightJSON(clean)
	}
	fmt.Fprintln(out, clean)
}

func prettyJSON(s string) (string, bool) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(s), "", "  "); err != nil {
		// Not valid JSON, return as-is
		return s, false
	}
	return buf.String(), true
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%cB", float64(n)/float64(div), "KMGTPE"[exp])
}

// PrintRequestList prints one line per request, marking the active one.
func PrintRequestList(requests []model.Request, activeID string) {
	if len(requests) == 0 {
		dimColor.Fprintln(out, "No requests found")
		return
	}

	for _, req := range requests {
		marker := "  "
		if req.ID == activeID {
			marker = activeColor.Sprint("* ")
		}
		fmt.Fprint(out, marker)
		methodColor.Fprintf(out, "%-7s ", req.Method)
		fmt.Fprintf(out, "%s ", sanitizeOutput(req.Name))
		dimColor.Fprintf(out, "%s\n", req.ID)
	}
}

// PrintRequestDetail prints every field of a request
func PrintRequestDetail(req model.Request) {
	headerKeyColor.Fprintf(out, "%s\n", sanitizeOutput(req.Name))
	fmt.Fprintln(out, strings.Repeat("-", 40))
	methodColor.Fprintf(out, "%s ", req.Method)
	urlColor.Fprintln(out, sanitizeOutput(req.URL))
	dimColor.Fprintf(out, "ID: %s\n", req.ID)
	if req.CollectionID != "" {
		dimColor.Fprintf(out, "Collection: %s\n", req.CollectionID)
	}
	fmt.Fprintln(out)

	printRows("Params", paramRows(req.Params))
	printRows("Headers", headerRows(req.Headers))

	if req.AuthType == model.AuthBearer {
		fmt.Fprintln(out, "Auth:")
		headerKeyColor.Fprint(out, "  Bearer ")
		fmt.Fprintln(out, maskToken(req.AuthToken))
		fmt.Fprintln(out)
	}

	if req.BodyType != model.BodyNone {
		fmt.Fprintf(out, "Body (%s):\n", req.BodyType)
		if req.Body == "" {
			dimColor.Fprintln(out, "(empty body)")
		} else {
			pretty, _ := prettyJSON(req.Body)
			fmt.Fprintln(out, sanitizeOutput(pretty))
		}
	}
}

type row struct {
	key     string
	value   string
	enabled bool
}

func headerRows(headers []model.Header) []row {
	rows := make([]row, 0, len(headers))
	for _, h := range headers {
		if h.Key == "" && h.Value == "" {
			continue
		}
		rows = append(rows, row{key: h.Key, value: h.Value, enabled: h.Enabled})
	}
	return rows
}

func paramRows(params []model.QueryParam) []row {
	rows := make([]row, 0, len(params))
	for _, p := range params {
		if p.Key == "" && p.Value == "" {
			continue
		}
		rows = append(rows, row{key: p.Key, value: p.Value, enabled: p.Enabled})
	}
	return rows
}

// printRows prints non-placeholder rows; disabled ones are dimmed.
func printRows(title string, rows []row) {
	if len(rows) == 0 {
		return
	}

	fmt.Fprintf(out, "%s:\n", title)
	for _, r := range rows {
		if !r.enabled {
			dimColor.Fprintf(out, "  %s: %s (disabled)\n", sanitizeOutput(r.key), sanitizeOutput(r.value))
			continue
		}
		headerKeyColor.Fprintf(out, "  %s: ", sanitizeOutput(r.key))
		fmt.Fprintln(out, sanitizeOutput(r.value))
	}
	fmt.Fprintln(out)
}

// maskToken keeps the last four characters of a token visible.
func maskToken(token string) string {
	if len(token) <= 4 {
		return strings.Repeat("*", len(token))
	}
	return strings.Repeat("*", len(token)-4) + token[len(token)-4:]
}

// PrintHistoryList prints history entries in a compact format
func PrintHistoryList(entries []model.HistoryEntry, limit int) {
	if len(entries) == 0 {
		dimColor.Fprintln(out, "No requests in history")
		return
	}

	count := len(entries)
	if limit > 0 && limit < count {
		count = limit
	}

	for i := 0; i < count; i++ {
		entry := entries[i]
		dimColor.Fprintf(out, "[%d] ", i+1)
		methodColor.Fprintf(out, "%-7s ", entry.Method)

		// Truncate URL if too long, then sanitize
		url := entry.URL
		if len(url) > 60 {
			url = url[:57] + "..."
		}
		urlColor.Fprintf(out, "%-60s ", sanitizeOutput(url))

		if entry.Response != nil {
			getStatusColor(entry.Response.StatusCode).Fprintf(out, "%d ", entry.Response.StatusCode)
			dimColor.Fprintf(out, "(%dms) ", entry.Response.DurationMs)
		} else {
			clientErrColor.Fprint(out, "failed ")
		}
		dimColor.Fprintf(out, "%s\n", entry.ID)
	}

	if limit > 0 && len(entries) > limit {
		dimColor.Fprintf(out, "\n... and %d more requests\n", len(entries)-limit)
	}
}

// PrintHistoryDetail prints full request/response details of a history entry
func PrintHistoryDetail(entry model.HistoryEntry) {
	fmt.Fprintln(out, "Request:")
	fmt.Fprintln(out, strings.Repeat("-", 40))
	methodColor.Fprintf(out, "%s ", entry.Method)
	urlColor.Fprintln(out, sanitizeOutput(entry.URL))
	dimColor.Fprintf(out, "ID: %s\n", entry.ID)
	if entry.RequestID != "" {
		dimColor.Fprintf(out, "Request ID: %s\n", entry.RequestID)
	}
	dimColor.Fprintf(out, "Time: %s\n\n", entry.Timestamp.Format("2006-01-02 15:04:05"))

	printHeaders(entry.Headers)

	if entry.Body != "" {
		fmt.Fprintln(out, "Body:")
		pretty, _ := prettyJSON(entry.Body)
		fmt.Fprintln(out, sanitizeOutput(pretty))
		fmt.Fprintln(out)
	}

	if entry.Response != nil {
		fmt.Fprintln(out, "\nResponse:")
		fmt.Fprintln(out, strings.Repeat("-", 40))
		PrintResponse(entry.Response, true)
	}
}

// PrintCollectionList prints a list of collections
func PrintCollectionList(collections []model.Collection, activeID string) {
	if len(collections) == 0 {
		dimColor.Fprintln(out, "No collections found")
		return
	}

	fmt.Fprintln(out, "Collections:")
	for _, col := range collections {
		marker := "  "
		if col.ID == activeID {
			marker = activeColor.Sprint("* ")
		}
		fmt.Fprint(out, marker)
		headerKeyColor.Fprintf(out, "%s ", sanitizeOutput(col.Name))
		dimColor.Fprintf(out, "(%d requests) %s\n", len(col.Requests), col.ID)
	}
}

// PrintCollectionRequests prints requests in a collection
func PrintCollectionRequests(col model.Collection, requests []model.Request) {
	headerKeyColor.Fprintf(out, "Collection: %s\n", sanitizeOutput(col.Name))
	if col.Description != "" {
		dimColor.Fprintln(out, sanitizeOutput(col.Description))
	}
	fmt.Fprintln(out, strings.Repeat("-", 40))

	if len(requests) == 0 {
		dimColor.Fprintf(out, "Collection '%s' is empty\n", sanitizeOutput(col.Name))
		return
	}

	for i, req := range requests {
		dimColor.Fprintf(out, "[%d] ", i+1)
		if req.Name != "" {
			fmt.Fprintf(out, "%s: ", sanitizeOutput(req.Name))
		}
		methodColor.Fprintf(out, "%s ", req.Method)
		urlColor.Fprintln(out, sanitizeOutput(req.URL))
	}
}

// PrintSuccess prints a success message
func PrintSuccess(msg string) {
	successColor.Fprintf(out, "✓ %s\n", sanitizeOutput(msg))
}

// PrintError prints an error message
func PrintError(msg string) {
	clientErrColor.Fprintf(out, "✗ %s\n", sanitizeOutput(msg))
}
