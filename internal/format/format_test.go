package format

import (
	"bytes"
	"testing"

	"blitztest/internal/model"

	"github.com/fatih/color"
	"go.followtheprocess.codes/test"
)

// capture sends printer output to a buffer with colour disabled.
func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	noColor := color.NoColor
	color.NoColor = true
	SetOutput(buf)
	t.Cleanup(func() {
		color.NoColor = noColor
		SetOutput(color.Output)
	})
	return buf
}

func TestSanitizeOutput(t *testing.T) {
	tests := []struct {
		name string // Name of the test case
		in   string // Raw text
		want string // Expected terminal-safe text
	}{
		{name: "plain", in: "hello", want: "hello"},
		{name: "whitespace kept", in: "a\tb\nc\r", want: "a\tb\nc\r"},
		{name: "escape", in: "\x1b[31mred", want: "\\x1b[31mred"},
		{name: "bell", in: "\x07", want: "\\x07"},
		{name: "delete", in: "\x7f", want: "\\x7f"},
		{name: "unicode", in: "héllo ✓", want: "héllo ✓"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			test.Equal(t, sanitizeOutput(tt.in), tt.want)
		})
	}
}

func TestBeautify(t *testing.T) {
	tests := []struct {
		name string // Name of the test case
		in   string // Body as typed
		want string // Beautified body
	}{
		{
			name: "strict json",
			in:   `{"a":1,"b":[1,2]}`,
			want: "{\n  \"a\": 1,\n  \"b\": [\n    1,\n    2\n  ]\n}",
		},
		{
			name: "comments and trailing commas",
			in:   "{\"a\": 1, // one\n /* list */ \"b\": [1, 2,],}",
			want: "{\n  \"a\": 1,\n  \"b\": [\n    1,\n    2\n  ]\n}",
		},
		{
			name: "broken object",
			in:   "{a:1, b",
			want: "{\na:1,\nb",
		},
		{
			name: "broken array",
			in:   "[1,  2",
			want: "[\n1,\n2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			test.Equal(t, Beautify(tt.in), tt.want)
		})
	}
}

func TestHighlightJSONWithoutColor(t *testing.T) {
	capture(t)
	test.Equal(t, highlightJSON(`{"a": 1}`), `{"a": 1}`)
}

func TestHumanBytes(t *testing.T) {
	test.Equal(t, humanBytes(0), "0B")
	test.Equal(t, humanBytes(1023), "1023B")
	test.Equal(t, humanBytes(1536), "1.5KB")
	test.Equal(t, humanBytes(50*1024*1024), "50.0MB")
}

func TestMaskToken(t *testing.T) {
	test.Equal(t, maskToken(""), "")
	test.Equal(t, maskToken("abc"), "***")
	test.Equal(t, maskToken("secret-token"), "********oken")
}

func TestPrintRequestList(t *testing.T) {
	buf := capture(t)

	PrintRequestList([]model.Request{
		{ID: "r1", Name: "A", Method: "GET"},
		{ID: "r2", Name: "B", Method: "POST"},
	}, "r2")

	test.Equal(t, buf.String(), "  GET     A r1\n* POST    B r2\n")
}

func TestPrintRequestListEmpty(t *testing.T) {
	buf := capture(t)
	PrintRequestList(nil, "")
	test.Equal(t, buf.String(), "No requests found\n")
}

func TestPrintRequestDetail(t *testing.T) {
	buf := capture(t)

	req := model.NewRequest("r1")
	req.Name = "Login"
	req.Method = "POST"
	req.URL = "https://a.b/login"
	req.Headers = append(req.Headers,
		model.Header{Key: "Accept", Value: "*/*", Enabled: true},
		model.Header{Key: "X-Off", Value: "1", Enabled: false},
	)
	req.AuthType = model.AuthBearer
	req.AuthToken = "secret-token"
	req.BodyType = model.BodyJSON
	req.Body = `{"user":"x"}`

	PrintRequestDetail(req)

	want := "Login\n" +
		"----------------------------------------\n" +
		"POST https://a.b/login\n" +
		"ID: r1\n" +
		"\n" +
		"Headers:\n" +
		"  Accept: */*\n" +
		"  X-Off: 1 (disabled)\n" +
		"\n" +
		"Auth:\n" +
		"  Bearer ********oken\n" +
		"\n" +
		"Body (json):\n" +
		"{\n  \"user\": \"x\"\n}\n"
	test.Equal(t, buf.String(), want)
}

func TestPrintResponse(t *testing.T) {
	buf := capture(t)

	PrintResponse(&model.Response{
		StatusCode: 200,
		Status:     "200 OK",
		Headers:    map[string]string{"Server": "x", "Content-Type": "application/json"},
		Body:       `{"ok":true}`,
		DurationMs: 12,
		SizeBytes:  11,
	}, true)

	want := "200 OK\n" +
		"  Time: 12ms  Size: 11B\n\n" +
		"Headers:\n" +
		"  Content-Type: application/json\n" +
		"  Server: x\n" +
		"\n" +
		"{\n  \"ok\": true\n}\n"
	test.Equal(t, buf.String(), want)
}

func TestPrintResponseEmptyBody(t *testing.T) {
	buf := capture(t)
	PrintResponse(&model.Response{StatusCode: 204, Status: "204 No Content"}, false)
	test.Equal(t, buf.String(), "204 No Content\n  Time: 0ms  Size: 0B\n\n(empty body)\n")
}

func TestPrintCollectionList(t *testing.T) {
	buf := capture(t)

	PrintCollectionList([]model.Collection{
		{ID: "c1", Name: "Users", Requests: []string{"r1", "r2"}},
		{ID: "c2", Name: "Empty"},
	}, "c1")

	want := "Collections:\n" +
		"* Users (2 requests) c1\n" +
		"  Empty (0 requests) c2\n"
	test.Equal(t, buf.String(), want)
}

func TestPrintCollectionRequests(t *testing.T) {
	buf := capture(t)

	PrintCollectionRequests(model.Collection{Name: "Users"}, nil)
	test.Equal(t, buf.String(), "Collection: Users\n"+
		"----------------------------------------\n"+
		"Collection 'Users' is empty\n")
}

func TestPrintHistoryList(t *testing.T) {
	buf := capture(t)

	entries := []model.HistoryEntry{
		{ID: "h1", Method: "GET", URL: "https://a.b", Response: &model.Response{StatusCode: 200, DurationMs: 5}},
		{ID: "h2", Method: "POST", URL: "https://a.b"},
		{ID: "h3", Method: "GET", URL: "https://a.b"},
	}
	PrintHistoryList(entries, 2)

	got := buf.String()
	test.True(t, bytes.Contains(buf.Bytes(), []byte("[1] GET     https://a.b")))
	test.True(t, bytes.Contains(buf.Bytes(), []byte("200 (5ms) h1\n")))
	test.True(t, bytes.Contains(buf.Bytes(), []byte("failed h2\n")))
	test.True(t, !bytes.Contains(buf.Bytes(), []byte("h3")), test.Context("%s", got))
	test.True(t, bytes.Contains(buf.Bytes(), []byte("... and 1 more requests")))
}

func TestPrintErrorSanitizes(t *testing.T) {
	buf := capture(t)
	PrintError("bad\x1b[2J")
	test.Equal(t, buf.String(), "✗ bad\\x1b[2J\n")
}
