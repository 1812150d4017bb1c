package model

import (
	"net/url"
	"strings"
)

// WireHeaders returns the headers a request goes out with: enabled rows in
// order, then the bearer Authorization header and the JSON Content-Type
// header when they apply. A later header replaces an earlier one with the
// same name.
func (r Request) WireHeaders() []Header {
	var out []Header
	set := func(h Header) {
		for i := range out {
			if strings.EqualFold(out[i].Key, h.Key) {
				out[i].Value = h.Value
				return
			}
		}
		out = append(out, h)
	}

	for _, h := range r.EnabledHeaders() {
		set(h)
	}
	if r.AuthType == AuthBearer && r.AuthToken != "" {
		set(Header{ID: "auth", Key: "Authorization", Value: "Bearer " + r.AuthToken, Enabled: true})
	}
	if r.BodyType == BodyJSON && r.Body != "" {
		set(Header{ID: "content-type", Key: "Content-Type", Value: "application/json", Enabled: true})
	}
	return out
}

// FullURL returns the URL with enabled params appended as a form encoded
// query string, joined with "&" when the URL already has a query.
func (r Request) FullURL() string {
	params := r.EnabledParams()
	if len(params) == 0 {
		return r.URL
	}

	pairs := make([]string, 0, len(params))
	for _, p := range params {
		pairs = append(pairs, url.QueryEscape(p.Key)+"="+url.QueryEscape(p.Value))
	}

	separator := "?"
	if strings.Contains(r.URL, "?") {
		separator = "&"
	}
	return r.URL + separator + strings.Join(pairs, "&")
}

// HasBody reports whether the request sends a body.
func (r Request) HasBody() bool {
	return r.BodyType != BodyNone && r.Body != ""
}
