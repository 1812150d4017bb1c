package http_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpclient "blitztest/internal/http"
	"blitztest/internal/model"
	"go.followtheprocess.codes/test"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// echo records the last request it saw and replies with a fixed JSON body.
type echo struct {
	method string
	query  string
	header http.Header
	body   string
}

func (e *echo) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		e.method = r.Method
		e.query = r.URL.RawQuery
		e.header = r.Header.Clone()
		e.body = string(data)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"ok":true}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSend(t *testing.T) {
	e := &echo{}
	srv := e.server(t)

	req := model.NewRequest("r1")
	req.Method = "POST"
	req.URL = srv.URL + "/users"
	req.Headers = []model.Header{
		{Key: "X-Trace", Value: "abc", Enabled: true},
		{Key: "X-Off", Value: "1", Enabled: false},
	}
	req.Params = []model.QueryParam{{Key: "page", Value: "2", Enabled: true}}
	req.BodyType = model.BodyJSON
	req.Body = `{"name":"x"}`
	req.AuthType = model.AuthBearer
	req.AuthToken = "tok"

	client := httpclient.NewClient()
	resp, err := client.Send(context.Background(), req)
	test.Ok(t, err)

	test.Equal(t, resp.StatusCode, http.StatusCreated)
	test.Equal(t, resp.Status, "201 Created")
	test.Equal(t, resp.Body, `{"ok":true}`)
	test.Equal(t, resp.SizeBytes, int64(11))
	test.Equal(t, resp.Headers["Content-Type"], "application/json")

	test.Equal(t, e.method, "POST")
	test.Equal(t, e.query, "page=2")
	test.Equal(t, e.body, `{"name":"x"}`)
	test.Equal(t, e.header.Get("X-Trace"), "abc")
	test.Equal(t, e.header.Get("X-Off"), "")
	test.Equal(t, e.header.Get("Authorization"), "Bearer tok")
	test.Equal(t, e.header.Get("Content-Type"), "application/json")
}

func TestSendNoBodyWhenTypeNone(t *testing.T) {
	e := &echo{}
	srv := e.server(t)

	req := model.NewRequest("r1")
	req.Method = "PUT"
	req.URL = srv.URL
	req.BodyType = model.BodyNone
	req.Body = "ignored"

	_, err := httpclient.NewClient().Send(context.Background(), req)
	test.Ok(t, err)
	test.Equal(t, e.body, "")
	test.Equal(t, e.header.Get("Content-Type"), "")
}

func TestSendTruncates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, strings.Repeat("x", 100))
	}))
	defer srv.Close()

	req := model.NewRequest("r1")
	req.URL = srv.URL

	resp, err := httpclient.NewClient(httpclient.WithMaxResponseSize(10)).Send(context.Background(), req)
	test.Ok(t, err)
	test.Equal(t, len(resp.Body), 10)
	test.Equal(t, resp.SizeBytes, int64(10))
}

func TestSendTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	req := model.NewRequest("r1")
	req.URL = srv.URL

	client := httpclient.NewClient(httpclient.WithTimeout(50 * time.Millisecond))
	_, err := client.Send(context.Background(), req)
	test.True(t, errors.Is(err, httpclient.ErrTimeout), test.Context("expected a timeout error"))
}

func TestSendContextDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	req := model.NewRequest("r1")
	req.URL = srv.URL

	_, err := httpclient.NewClient().Send(ctx, req)
	test.True(t, errors.Is(err, httpclient.ErrTimeout))
}

func TestSendRejectsBadURLs(t *testing.T) {
	tests := []struct {
		name    string // Name of the test case
		url     string // Request URL
		blocked bool   // Whether ErrBlockedHost is expected
	}{
		{name: "empty", url: "", blocked: false},
		{name: "scheme", url: "ftp://a.b/file", blocked: false},
		{name: "no host", url: "http://", blocked: false},
		{name: "aws metadata", url: "http://169.254.169.254/latest/meta-data", blocked: true},
		{name: "gcp metadata", url: "http://metadata.google.internal/computeMetadata", blocked: true},
	}

	client := httpclient.NewClient()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := model.NewRequest("r1")
			req.URL = tt.url

			_, err := client.Send(context.Background(), req)
			test.Err(t, err)
			test.Equal(t, errors.Is(err, httpclient.ErrBlockedHost), tt.blocked)
		})
	}
}
