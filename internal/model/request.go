package model

import (
	"fmt"
	"strings"
	"time"
)

// Body types understood by the request editor.
const (
	BodyNone = "none"
	BodyJSON = "json"
	BodyRaw  = "raw"
	BodyForm = "form"
)

// Auth types carried on a request. The token is never interpreted on import.
const (
	AuthNone   = "none"
	AuthBearer = "bearer"
)

// DefaultRequestName is the name given to requests created with the "new request" action.
const DefaultRequestName = "New Request"

// methods is the set of HTTP methods a Request may carry.
var methods = map[string]bool{
	"GET":     true,
	"POST":    true,
	"PUT":     true,
	"PATCH":   true,
	"DELETE":  true,
	"HEAD":    true,
	"OPTIONS": true,
}

// Header is a single request header row
type Header struct {
	ID      string `json:"id" yaml:"id" toml:"id"`
	Key     string `json:"key" yaml:"key" toml:"key"`
	Value   string `json:"value" yaml:"value" toml:"value"`
	Enabled bool   `json:"enabled" yaml:"enabled" toml:"enabled"`
}

// QueryParam is a single query string row
type QueryParam struct {
	ID      string `json:"id" yaml:"id" toml:"id"`
	Key     string `json:"key" yaml:"key" toml:"key"`
	Value   string `json:"value" yaml:"value" toml:"value"`
	Enabled bool   `json:"enabled" yaml:"enabled" toml:"enabled"`
}

// Request is the canonical request every importer produces
type Request struct {
	ID           string       `json:"id" yaml:"id" toml:"id"`
	Name         string       `json:"name" yaml:"name" toml:"name"`
	Method       string       `json:"method" yaml:"method" toml:"method"`
	URL          string       `json:"url" yaml:"url" toml:"url"`
	Headers      []Header     `json:"headers" yaml:"headers" toml:"headers"`
	Params       []QueryParam `json:"params" yaml:"params" toml:"params"`
	BodyType     string       `json:"bodyType" yaml:"bodyType" toml:"bodyType"`
	Body         string       `json:"body" yaml:"body" toml:"body"`
	AuthType     string       `json:"authType" yaml:"authType" toml:"authType"`
	AuthToken    string       `json:"authToken" yaml:"authToken" toml:"authToken"`
	CollectionID string       `json:"collectionId,omitempty" yaml:"collectionId,omitempty" toml:"collectionId,omitempty"`
}

// Collection is a named, ordered index of request ids
type Collection struct {
	ID          string   `json:"id" yaml:"id" toml:"id"`
	Name        string   `json:"name" yaml:"name" toml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Requests    []string `json:"requests" yaml:"requests" toml:"requests"`
	CreatedAt   string   `json:"createdAt" yaml:"createdAt" toml:"createdAt"`
}

// Bundle is the native export/import schema. Both fields are optional on import.
type Bundle struct {
	Requests    []Request    `json:"requests" yaml:"requests" toml:"requests"`
	Collections []Collection `json:"collections" yaml:"collections" toml:"collections"`
}

// Workspace is the full persisted state of a store
type Workspace struct {
	Requests         []Request    `json:"requests"`
	Collections      []Collection `json:"collections"`
	ActiveRequest    string       `json:"activeRequest"`
	ActiveCollection string       `json:"activeCollection,omitempty"`
}

// PlaceholderHeader returns the empty header row that keeps header lists non-empty.
func PlaceholderHeader() Header {
	return Header{ID: "h1", Enabled: true}
}

// PlaceholderParam returns the empty param row that keeps param lists non-empty.
func PlaceholderParam() QueryParam {
	return QueryParam{ID: "p1", Enabled: true}
}

// NormalizeMethod upper-cases method and falls back to GET when it is empty or unknown.
func NormalizeMethod(method string) string {
	m := strings.ToUpper(strings.TrimSpace(method))
	if methods[m] {
		return m
	}
	return "GET"
}

// IsMethod reports whether method is one of the supported HTTP methods.
func IsMethod(method string) bool {
	return methods[strings.ToUpper(method)]
}

// SynthesizeName builds "<METHOD> <last path segment>" falling back to "Request"
// when the URL has no trailing segment.
func SynthesizeName(method, url string) string {
	segment := url
	if idx := strings.LastIndex(url, "/"); idx != -1 {
		segment = url[idx+1:]
	}
	if segment == "" {
		segment = "Request"
	}
	return method + " " + segment
}

// StampID builds an id from a creation timestamp and a batch index.
func StampID(prefix string, at time.Time, index int) string {
	return fmt.Sprintf("%s-%d-%d", prefix, at.UnixMilli(), index)
}

// FillDefaults applies the canonical defaults to a partially built request.
func (r *Request) FillDefaults() {
	r.Method = NormalizeMethod(r.Method)
	if len(r.Headers) == 0 {
		r.Headers = []Header{PlaceholderHeader()}
	}
	if len(r.Params) == 0 {
		r.Params = []QueryParam{PlaceholderParam()}
	}
	if r.BodyType == "" {
		r.BodyType = BodyNone
	}
	if r.BodyType == BodyNone {
		r.Body = ""
	}
	if r.AuthType == "" {
		r.AuthType = AuthNone
	}
	if r.Name == "" {
		r.Name = SynthesizeName(r.Method, r.URL)
	}
}

// NewRequest returns an empty request as created by the "new request" action.
func NewRequest(id string) Request {
	req := Request{
		ID:   id,
		Name: DefaultRequestName,
		URL:  "",
	}
	req.FillDefaults()
	return req
}

// EnabledHeaders returns header rows that are enabled and have a key.
func (r Request) EnabledHeaders() []Header {
	var out []Header
	for _, h := range r.Headers {
		if h.Enabled && h.Key != "" {
			out = append(out, h)
		}
	}
	return out
}

// EnabledParams returns param rows that are enabled and have a key.
func (r Request) EnabledParams() []QueryParam {
	var out []QueryParam
	for _, p := range r.Params {
		if p.Enabled && p.Key != "" {
			out = append(out, p)
		}
	}
	return out
}

// Clone returns a deep copy of the request.
func (r Request) Clone() Request {
	c := r
	c.Headers = append([]Header(nil), r.Headers...)
	c.Params = append([]QueryParam(nil), r.Params...)
	return c
}

// Clone returns a deep copy of the collection.
func (c Collection) Clone() Collection {
	out := c
	out.Requests = append([]string(nil), c.Requests...)
	return out
}

// Contains reports whether the collection index lists requestID.
func (c Collection) Contains(requestID string) bool {
	for _, id := range c.Requests {
		if id == requestID {
			return true
		}
	}
	return false
}
