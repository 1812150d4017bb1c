package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"blitztest/internal/model"
)

// Pair is a key/value extracted from a command line or query string.
type Pair struct {
	Key   string
	Value string
}

var (
	continuationRe = regexp.MustCompile(`\\\s*\n\s*`)
	whitespaceRe   = regexp.MustCompile(`\s+`)

	longMethodRe  = regexp.MustCompile(`(?i)--request\s+([a-z]+)`)
	shortMethodRe = regexp.MustCompile(`(?i)-X\s+([a-z]+)`)

	quotedURLRe = regexp.MustCompile(`curl\s+['"]([^'"]+)['"]`)
	bareURLRe   = regexp.MustCompile(`curl\s+([^\s'"-][^\s'"]*)`)
	anyURLRe    = regexp.MustCompile(`(https?://[^\s'"]+)`)

	headerRe = regexp.MustCompile(`--header\s+["']([^"']+)["']|-H\s+["']([^"']+)["']`)
	cookieRe = regexp.MustCompile(`--cookie\s+["']([^"']+)["']`)

	// Tried in order, the first flag that yields a bounded value wins.
	bodyFlagRes = []*regexp.Regexp{
		regexp.MustCompile(`--data\s+['"]`),
		regexp.MustCompile(`-d\s+['"]`),
		regexp.MustCompile(`--data-raw\s+['"]`),
		regexp.MustCompile(`--data-binary\s+['"]`),
	}
	nextFlagRe = regexp.MustCompile(`^\s+--`)
)

// ParseCurl turns a pasted curl command into a canonical request. at is the
// creation time the request and row ids are stamped with.
//
// The only hard failure is a command with no URL; everything else falls back
// to a default.
func ParseCurl(command string, at time.Time) (model.Request, error) {
	normalized := NormalizeCurl(command)

	method := "GET"
	if m, ok := ExtractMethod(normalized); ok {
		method = model.NormalizeMethod(m)
	}

	rawURL, ok := ExtractURL(normalized)
	if !ok {
		return model.Request{}, &ParseError{Reason: ErrNoURL}
	}

	base, query := SplitQuery(rawURL)
	if base == "" {
		return model.Request{}, &ParseError{Reason: ErrNoURL}
	}

	ms := at.UnixMilli()
	req := model.Request{
		ID:       model.StampID("curl", at, 0),
		Method:   method,
		URL:      base,
		BodyType: model.BodyNone,
		AuthType: model.AuthNone,
	}

	for i, p := range query {
		req.Params = append(req.Params, model.QueryParam{
			ID:      fmt.Sprintf("p%d-%d", ms, i),
			Key:     p.Key,
			Value:   p.Value,
			Enabled: true,
		})
	}

	headers := ExtractHeaders(normalized)
	if cookies := ExtractCookies(normalized); len(cookies) > 0 {
		headers = append(headers, Pair{Key: "Cookie", Value: strings.Join(cookies, "; ")})
	}
	for i, h := range headers {
		req.Headers = append(req.Headers, model.Header{
			ID:      fmt.Sprintf("h%d-%d", ms, i),
			Key:     h.Key,
			Value:   h.Value,
			Enabled: true,
		})
	}

	if raw, ok := ExtractBody(normalized); ok {
		req.BodyType, req.Body = ClassifyBody(raw)
	}

	req.FillDefaults()
	return req, nil
}

// NormalizeCurl strips comments, joins line continuations and collapses
// whitespace so later stages see a single clean line.
//
// A '#' inside a quoted value is stripped like any other comment.
func NormalizeCurl(command string) string {
	return CollapseWhitespace(JoinContinuations(StripComments(command)))
}

// StripComments drops everything from the first '#' on each line.
func StripComments(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if idx := strings.Index(line, "#"); idx != -1 {
			lines[i] = line[:idx]
		}
	}
	return strings.Join(lines, "\n")
}

// JoinContinuations replaces a backslash-newline continuation with a single space.
func JoinContinuations(text string) string {
	return continuationRe.ReplaceAllString(text, " ")
}

// CollapseWhitespace squashes runs of whitespace to one space and trims the ends.
func CollapseWhitespace(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// ExtractMethod finds the value of --request or -X, upper-cased.
func ExtractMethod(normalized string) (string, bool) {
	for _, re := range []*regexp.Regexp{longMethodRe, shortMethodRe} {
		if m := re.FindStringSubmatch(normalized); m != nil {
			return strings.ToUpper(m[1]), true
		}
	}
	return "", false
}

// ExtractURL locates the request URL: a quoted argument right after curl, then
// a bare non-flag argument right after curl, then any http(s) URL in the text.
func ExtractURL(normalized string) (string, bool) {
	for _, re := range []*regexp.Regexp{quotedURLRe, bareURLRe, anyURLRe} {
		if m := re.FindStringSubmatch(normalized); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// SplitQuery splits rawURL on its first '?' and decodes the query pairs.
// Pairs with an empty key are dropped. Values that fail to decode are kept verbatim.
func SplitQuery(rawURL string) (string, []Pair) {
	base, query, found := strings.Cut(rawURL, "?")
	if !found || query == "" {
		return base, nil
	}

	var pairs []Pair
	for _, part := range strings.Split(query, "&") {
		key, value, _ := strings.Cut(part, "=")
		if key == "" {
			continue
		}
		pairs = append(pairs, Pair{Key: unescape(key), Value: unescape(value)})
	}
	return base, pairs
}

// ExtractHeaders returns every quoted --header / -H value in order of appearance.
// Values without a ':' are skipped.
func ExtractHeaders(normalized string) []Pair {
	var headers []Pair
	for _, m := range headerRe.FindAllStringSubmatch(normalized, -1) {
		text := m[1]
		if text == "" {
			text = m[2]
		}
		key, value, found := strings.Cut(text, ":")
		if !found {
			continue
		}
		headers = append(headers, Pair{Key: strings.TrimSpace(key), Value: strings.TrimSpace(value)})
	}
	return headers
}

// ExtractCookies returns every quoted --cookie value in order of appearance.
func ExtractCookies(normalized string) []string {
	var cookies []string
	for _, m := range cookieRe.FindAllStringSubmatch(normalized, -1) {
		cookies = append(cookies, m[1])
	}
	return cookies
}

// ExtractBody returns the value of the first data flag present. The value runs
// from the opening quote to the first quote that is followed by another
// "--" flag or by the end of the text.
func ExtractBody(normalized string) (string, bool) {
	for _, re := range bodyFlagRes {
		for _, loc := range re.FindAllStringIndex(normalized, -1) {
			if body, ok := boundedValue(normalized, loc[1]); ok {
				return body, true
			}
		}
	}
	return "", false
}

// boundedValue scans from start for a closing quote that ends the flag value.
// The value is at least one character long.
func boundedValue(s string, start int) (string, bool) {
	for j := start + 1; j < len(s); j++ {
		if s[j] != '\'' && s[j] != '"' {
			continue
		}
		if j == len(s)-1 || nextFlagRe.MatchString(s[j+1:]) {
			return s[start:j], true
		}
	}
	return "", false
}

// ClassifyBody decides between a json and a raw body. JSON is pretty printed
// with two space indentation; anything else is returned untouched.
func ClassifyBody(raw string) (string, string) {
	clean := CollapseWhitespace(raw)
	if !json.Valid([]byte(clean)) {
		return model.BodyRaw, raw
	}

	var out bytes.Buffer
	if err := json.Indent(&out, []byte(clean), "", "  "); err != nil {
		return model.BodyRaw, raw
	}
	return model.BodyJSON, out.String()
}

func unescape(s string) string {
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}
