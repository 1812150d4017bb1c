package importer_test

import (
	"errors"
	"testing"
	"time"

	"blitztest/internal/importer"
	"blitztest/internal/model"
	"go.followtheprocess.codes/test"
)

func TestSniff(t *testing.T) {
	tests := []struct {
		name string        // Name of the test case
		text string        // Input text
		want importer.Kind // Expected classification
	}{
		{name: "curl", text: "  curl https://a.b", want: importer.KindCurl},
		{name: "postman", text: `{"info": {"name": "x"}, "item": []}`, want: importer.KindPostman},
		{name: "native requests", text: `{"requests": []}`, want: importer.KindNative},
		{name: "native collections", text: `{"collections": [{"id": "c", "name": "n", "requests": []}]}`, want: importer.KindNative},
		{name: "info without item", text: `{"info": {"name": "x"}}`, want: importer.KindText},
		{name: "unknown object", text: `{"foo": 1}`, want: importer.KindText},
		{name: "null requests", text: `{"requests": null}`, want: importer.KindText},
		{name: "array", text: `[1, 2, 3]`, want: importer.KindText},
		{name: "url", text: " https://a.b/c\n", want: importer.KindURL},
		{name: "text", text: "hello world", want: importer.KindText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := importer.Sniff(tt.text)
			test.Ok(t, err)
			test.Equal(t, got.Kind, tt.want)
		})
	}
}

func TestSniffDecodes(t *testing.T) {
	got, err := importer.Sniff(`{"info": {"name": "Demo"}, "item": [{"name": "a", "request": "https://a.b"}]}`)
	test.Ok(t, err)
	test.Equal(t, got.Postman.Info.Name, "Demo")
	test.Equal(t, len(got.Postman.Item), 1)

	got, err = importer.Sniff(`{"requests": [{"id": "r1", "name": "one", "method": "GET", "url": "https://a.b"}]}`)
	test.Ok(t, err)
	test.Equal(t, len(got.Native.Requests), 1)
	test.Equal(t, got.Native.Requests[0].ID, "r1")
}

func TestSniffShapeMismatch(t *testing.T) {
	tests := []struct {
		name   string // Name of the test case
		text   string // Input text
		format string // Expected FormatError format
	}{
		{name: "postman item not array", text: `{"info": {"name": "x"}, "item": 5}`, format: "postman"},
		{name: "requests not array", text: `{"requests": "nope"}`, format: "json"},
		{name: "collections not array", text: `{"collections": {"a": 1}}`, format: "json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := importer.Sniff(tt.text)
			test.Err(t, err)

			var formatErr *importer.FormatError
			test.True(t, errors.As(err, &formatErr))
			test.Equal(t, formatErr.Format, tt.format)
		})
	}
}

func TestKindString(t *testing.T) {
	test.Equal(t, importer.KindCurl.String(), "curl")
	test.Equal(t, importer.KindPostman.String(), "postman")
	test.Equal(t, importer.KindNative.String(), "json")
	test.Equal(t, importer.KindURL.String(), "url")
	test.Equal(t, importer.KindText.String(), "text")
}

func TestPlainRequest(t *testing.T) {
	at := time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC)

	req := importer.PlainRequest("some notes\nmore", at)
	test.Equal(t, req.ID, model.StampID("text", at, 0))
	test.Equal(t, req.Name, "Text Import 3/5/2024, 2:07:09 PM")
	test.Equal(t, req.Method, "GET")
	test.Equal(t, req.URL, "")
	test.Equal(t, req.BodyType, model.BodyRaw)
	test.Equal(t, req.Body, "some notes\nmore")
	test.Equal(t, req.Headers[0], model.PlaceholderHeader())

	req = importer.PlainRequest("  https://a.b/x \n", at)
	test.Equal(t, req.URL, "https://a.b/x")
	test.Equal(t, req.BodyType, model.BodyNone)
	test.Equal(t, req.Body, "")
}
