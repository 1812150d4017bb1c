package model_test

import (
	"testing"
	"time"

	"blitztest/internal/model"
	"go.followtheprocess.codes/test"
)

func TestSynthesizeName(t *testing.T) {
	tests := []struct {
		name   string // Name of the test case
		method string // Request method
		url    string // Request URL
		want   string // Expected synthesized name
	}{
		{name: "last segment", method: "GET", url: "https://a.b/users/42", want: "GET 42"},
		{name: "trailing slash", method: "POST", url: "https://a.b/", want: "POST Request"},
		{name: "host only", method: "GET", url: "https://a.b", want: "GET a.b"},
		{name: "empty url", method: "DELETE", url: "", want: "DELETE Request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			test.Equal(t, model.SynthesizeName(tt.method, tt.url), tt.want)
		})
	}
}

func TestNormalizeMethod(t *testing.T) {
	test.Equal(t, model.NormalizeMethod("post"), "POST")
	test.Equal(t, model.NormalizeMethod(" patch "), "PATCH")
	test.Equal(t, model.NormalizeMethod(""), "GET")
	test.Equal(t, model.NormalizeMethod("FETCH"), "GET")
}

func TestNewRequestDefaults(t *testing.T) {
	req := model.NewRequest("abc")

	test.Equal(t, req.ID, "abc")
	test.Equal(t, req.Name, model.DefaultRequestName)
	test.Equal(t, req.Method, "GET")
	test.Equal(t, req.BodyType, model.BodyNone)
	test.Equal(t, req.AuthType, model.AuthNone)
	test.Equal(t, len(req.Headers), 1)
	test.Equal(t, req.Headers[0], model.PlaceholderHeader())
	test.Equal(t, len(req.Params), 1)
	test.Equal(t, req.Params[0], model.PlaceholderParam())
}

func TestFillDefaultsClearsBodyForNone(t *testing.T) {
	req := model.Request{URL: "https://a.b/c", Body: "leftover", BodyType: model.BodyNone}
	req.FillDefaults()

	test.Equal(t, req.Body, "")
	test.Equal(t, req.Name, "GET c")
}

func TestEnabledRows(t *testing.T) {
	req := model.Request{
		Headers: []model.Header{
			{ID: "1", Key: "A", Value: "1", Enabled: true},
			{ID: "2", Key: "B", Value: "2", Enabled: false},
			{ID: "3", Key: "", Value: "3", Enabled: true},
		},
		Params: []model.QueryParam{
			{ID: "1", Key: "x", Value: "1", Enabled: true},
			{ID: "2", Key: "y", Value: "2", Enabled: false},
		},
	}

	headers := req.EnabledHeaders()
	test.Equal(t, len(headers), 1)
	test.Equal(t, headers[0].Key, "A")

	params := req.EnabledParams()
	test.Equal(t, len(params), 1)
	test.Equal(t, params[0].Key, "x")
}

func TestStampID(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	test.Equal(t, model.StampID("curl", at, 0), "curl-1700000000123-0")
	test.Equal(t, model.StampID("imported", at, 7), "imported-1700000000123-7")
}

func TestCloneIsDeep(t *testing.T) {
	orig := model.NewRequest("r1")
	clone := orig.Clone()
	clone.Headers[0].Key = "changed"

	test.Equal(t, orig.Headers[0].Key, "")

	col := model.Collection{ID: "c1", Requests: []string{"r1"}}
	colClone := col.Clone()
	colClone.Requests[0] = "r2"

	test.Equal(t, col.Requests[0], "r1")
	test.True(t, col.Contains("r1"))
	test.True(t, !col.Contains("r2"))
}
