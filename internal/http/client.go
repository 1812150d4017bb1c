// Package http sends canonical requests over the network.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"blitztest/internal/model"

	"github.com/charmbracelet/log"
)

const (
	// MaxResponseSize limits response body to 50MB to prevent memory exhaustion
	MaxResponseSize = 50 * 1024 * 1024

	// DefaultTimeout bounds a single request
	DefaultTimeout = 30 * time.Second
)

var (
	// ErrTimeout is returned when a request does not complete within the timeout.
	ErrTimeout = errors.New("request timeout")

	// ErrBlockedHost is returned for hosts that are never contacted, such as
	// cloud metadata endpoints.
	ErrBlockedHost = errors.New("blocked host")
)

// Client wraps the standard http.Client with additional functionality
type Client struct {
	client          *http.Client
	logger          *log.Logger
	maxResponseSize int64
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.client.Timeout = timeout
		}
	}
}

// WithMaxResponseSize caps how many bytes of a response body are kept.
func WithMaxResponseSize(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxResponseSize = n
		}
	}
}

// WithLogger sets the logger used for security and truncation warnings.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a new HTTP client
func NewClient(options ...Option) *Client {
	c := &Client{
		client:          &http.Client{Timeout: DefaultTimeout},
		logger:          log.New(io.Discard),
		maxResponseSize: MaxResponseSize,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Send dispatches req: enabled headers and params, bearer auth, a JSON
// content type for JSON bodies and the body unless its type is none.
func (c *Client) Send(ctx context.Context, req model.Request) (*model.Response, error) {
	target := req.FullURL()

	// Validate URL and check for SSRF risks
	if err := c.validateURL(target); err != nil {
		return nil, err
	}

	if strings.HasPrefix(strings.ToLower(target), "http://") {
		c.logger.Warn("Using insecure HTTP connection, data will be transmitted unencrypted", "url", target)
	}

	var bodyReader io.Reader
	if req.HasBody() {
		bodyReader = strings.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, model.NormalizeMethod(req.Method), target, bodyReader)
	if err != nil {
		return nil, err
	}

	for _, h := range req.WireHeaders() {
		httpReq.Header.Set(h.Key, h.Value)
	}

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w after %s: %s %s", ErrTimeout, c.client.Timeout, httpReq.Method, target)
		}
		return nil, err
	}
	defer resp.Body.Close()

	// Read response body with size limit to prevent memory exhaustion
	limitedReader := io.LimitReader(resp.Body, c.maxResponseSize+1)
	respBody, err := io.ReadAll(limitedReader)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w reading response body: %s", ErrTimeout, target)
		}
		return nil, err
	}

	duration := time.Since(start)

	if int64(len(respBody)) > c.maxResponseSize {
		respBody = respBody[:c.maxResponseSize]
		c.logger.Warn("Response body truncated", "limit", c.maxResponseSize)
	}

	respHeaders := make(map[string]string)
	for key, values := range resp.Header {
		if len(values) > 0 {
			respHeaders[key] = values[0]
		}
	}

	return &model.Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Headers:    respHeaders,
		Body:       string(respBody),
		DurationMs: duration.Milliseconds(),
		SizeBytes:  int64(len(respBody)),
	}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// validateURL checks the URL for potential SSRF vulnerabilities
func (c *Client) validateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("invalid URL: request has no URL")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %q (only http and https are allowed)", parsed.Scheme)
	}

	hostname := parsed.Hostname()
	if hostname == "" {
		return fmt.Errorf("URL must have a hostname")
	}

	// Block cloud metadata endpoints (common SSRF targets)
	if isCloudMetadataEndpoint(hostname) {
		return fmt.Errorf("%w: cloud metadata endpoint %s", ErrBlockedHost, hostname)
	}

	lowerHost := strings.ToLower(hostname)
	if lowerHost == "localhost" || lowerHost == "127.0.0.1" || lowerHost == "::1" {
		c.logger.Warn("Making request to localhost/loopback address", "host", hostname)
	} else if isPrivateOrReservedHost(hostname) {
		c.logger.Warn("Making request to private/internal IP address", "host", hostname)
	}

	return nil
}

// isPrivateOrReservedHost checks if the hostname is a private or reserved IP
func isPrivateOrReservedHost(hostname string) bool {
	ip := net.ParseIP(hostname)
	if ip == nil {
		return false
	}
	return ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified() || ip.IsLoopback()
}

// isCloudMetadataEndpoint checks if the hostname is a cloud metadata service
func isCloudMetadataEndpoint(hostname string) bool {
	metadataHosts := map[string]bool{
		"169.254.169.254":          true, // AWS, GCP, Azure metadata
		"metadata.google.internal": true, // GCP metadata
		"metadata.goog":            true, // GCP metadata alternative
		"100.100.100.200":          true, // Alibaba Cloud metadata
		"169.254.170.2":            true, // AWS ECS task metadata
	}

	return metadataHosts[strings.ToLower(hostname)]
}
