package model_test

import (
	"testing"

	"blitztest/internal/model"
	"go.followtheprocess.codes/test"
)

func TestWireHeaders(t *testing.T) {
	req := model.NewRequest("r")
	req.Headers = []model.Header{
		{ID: "1", Key: "Accept", Value: "text/plain", Enabled: true},
		{ID: "2", Key: "X-Off", Value: "1", Enabled: false},
		{ID: "3", Key: "", Value: "orphan", Enabled: true},
		{ID: "4", Key: "authorization", Value: "Basic abc", Enabled: true},
	}
	req.AuthType = model.AuthBearer
	req.AuthToken = "tok"
	req.BodyType = model.BodyJSON
	req.Body = "{}"

	got := req.WireHeaders()
	test.Equal(t, len(got), 3)
	test.Equal(t, got[0].Key, "Accept")
	test.Equal(t, got[1].Key, "authorization")
	test.Equal(t, got[1].Value, "Bearer tok")
	test.Equal(t, got[2].Key, "Content-Type")
	test.Equal(t, got[2].Value, "application/json")
}

func TestWireHeadersSkipsEmptyAuthAndBody(t *testing.T) {
	req := model.NewRequest("r")
	req.AuthType = model.AuthBearer
	req.BodyType = model.BodyJSON

	test.Equal(t, len(req.WireHeaders()), 0)
}

func TestFullURL(t *testing.T) {
	tests := []struct {
		name   string             // Name of the test case
		url    string             // Base URL
		params []model.QueryParam // Param rows
		want   string             // Expected URL
	}{
		{name: "placeholder only", url: "https://a.b", params: []model.QueryParam{model.PlaceholderParam()}, want: "https://a.b"},
		{
			name: "appended in order",
			url:  "https://a.b/s",
			params: []model.QueryParam{
				{Key: "q", Value: "hello world", Enabled: true},
				{Key: "off", Value: "x", Enabled: false},
				{Key: "a&b", Value: "1", Enabled: true},
			},
			want: "https://a.b/s?q=hello+world&a%26b=1",
		},
		{
			name:   "existing query",
			url:    "https://a.b/s?x=1",
			params: []model.QueryParam{{Key: "y", Value: "2", Enabled: true}},
			want:   "https://a.b/s?x=1&y=2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := model.Request{URL: tt.url, Params: tt.params}
			test.Equal(t, req.FullURL(), tt.want)
		})
	}
}

func TestHasBody(t *testing.T) {
	test.True(t, !model.Request{BodyType: model.BodyNone, Body: "x"}.HasBody())
	test.True(t, !model.Request{BodyType: model.BodyRaw}.HasBody())
	test.True(t, model.Request{BodyType: model.BodyRaw, Body: "x"}.HasBody())
}
