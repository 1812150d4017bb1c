package importer

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"blitztest/internal/model"
)

// Kind is the format a blob of text was classified as.
type Kind int

const (
	KindCurl    Kind = iota // A curl command line
	KindPostman             // A Postman collection
	KindNative              // The native {requests, collections} bundle
	KindURL                 // Plain text that is a URL
	KindText                // Anything else
)

// String implements fmt.Stringer for Kind.
func (k Kind) String() string {
	switch k {
	case KindCurl:
		return "curl"
	case KindPostman:
		return "postman"
	case KindNative:
		return "json"
	case KindURL:
		return "url"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// textImportLayout renders the creation time in the name of a text import.
const textImportLayout = "1/2/2006, 3:04:05 PM"

// Sniffed is the result of classifying text. Exactly one payload is
// meaningful, selected by Kind.
type Sniffed struct {
	Kind    Kind
	Text    string            // Original text, for KindCurl, KindURL and KindText
	Postman PostmanCollection // Decoded collection, for KindPostman
	Native  model.Bundle      // Decoded bundle, for KindNative
}

// Sniff classifies text. The first rule that matches wins:
//
//  1. text starting with "curl" (after trimming) is a curl command
//  2. a JSON object with both info and item is a Postman collection
//  3. a JSON object with requests or collections is a native bundle
//  4. anything else, including JSON of neither shape, is plain text
//
// Sniff only fails when a JSON object matched rule 2 or 3 but could not be
// decoded into that shape.
func Sniff(text string) (Sniffed, error) {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "curl") {
		return Sniffed{Kind: KindCurl, Text: text}, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &raw); err == nil && raw != nil {
		switch {
		case truthy(raw["info"]) && truthy(raw["item"]):
			col, err := DecodePostman([]byte(text))
			if err != nil {
				return Sniffed{}, err
			}
			return Sniffed{Kind: KindPostman, Postman: col}, nil
		case truthy(raw["requests"]) || truthy(raw["collections"]):
			bundle, err := DecodeNative([]byte(text))
			if err != nil {
				return Sniffed{}, err
			}
			return Sniffed{Kind: KindNative, Native: bundle}, nil
		}
	}

	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return Sniffed{Kind: KindURL, Text: text}, nil
	}
	return Sniffed{Kind: KindText, Text: text}, nil
}

// PlainRequest builds the fallback request for text that is not in any known
// format: a GET to the text when it is a URL, otherwise a GET with the text
// as a raw body.
func PlainRequest(text string, at time.Time) model.Request {
	req := model.Request{
		ID:       model.StampID("text", at, 0),
		Name:     "Text Import " + at.Format(textImportLayout),
		Method:   "GET",
		BodyType: model.BodyRaw,
		Body:     text,
	}

	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		req.URL = trimmed
		req.BodyType = model.BodyNone
		req.Body = ""
	}

	req.FillDefaults()
	return req
}

// truthy mirrors a loose presence check: a missing key, null, false, 0 and ""
// all count as absent.
func truthy(value json.RawMessage) bool {
	value = bytes.TrimSpace(value)
	if len(value) == 0 {
		return false
	}
	switch string(value) {
	case "null", "false", "0", `""`:
		return false
	}
	return true
}
