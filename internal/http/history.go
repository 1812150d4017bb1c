package http

import (
	"strings"
	"time"

	"blitztest/internal/model"
)

// Redacted replaces the value of a sensitive header.
const Redacted = "[REDACTED]"

// sensitiveHeaders is a list of headers that should be redacted before storing in history
var sensitiveHeaders = map[string]bool{
	// Standard authentication headers
	"authorization":       true,
	"proxy-authorization": true,
	"www-authenticate":    true,

	// Session and token headers
	"cookie":       true,
	"set-cookie":   true,
	"x-api-key":    true,
	"api-key":      true,
	"x-auth-token": true,
	"x-csrf-token": true,
	"x-xsrf-token": true,

	// AWS credentials
	"x-amz-security-token": true,
	"x-amz-credential":     true,
	"x-amz-signature":      true,

	// GCP credentials
	"x-goog-authenticated-user-email": true,
	"x-goog-authenticated-user-id":    true,
	"x-goog-iap-jwt-assertion":        true,

	// Azure credentials
	"x-ms-client-principal":    true,
	"x-ms-client-principal-id": true,
	"x-ms-token-aad-id-token":  true,

	// Other common auth headers
	"x-access-token":  true,
	"x-refresh-token": true,
	"x-session-token": true,
	"x-secret-key":    true,
	"x-private-key":   true,
}

// IsSensitiveHeader reports whether a header's value must not be persisted.
func IsSensitiveHeader(key string) bool {
	return sensitiveHeaders[strings.ToLower(key)]
}

// RedactHeaders returns a copy of headers with sensitive values redacted
func RedactHeaders(headers map[string]string) map[string]string {
	if headers == nil {
		return nil
	}

	filtered := make(map[string]string, len(headers))
	for k, v := range headers {
		if IsSensitiveHeader(k) {
			filtered[k] = Redacted
		} else {
			filtered[k] = v
		}
	}
	return filtered
}

// NewHistoryEntry records a send of req. resp may be nil when the send failed.
// Sensitive request and response headers are redacted.
func NewHistoryEntry(id string, req model.Request, resp *model.Response, at time.Time) model.HistoryEntry {
	headers := make(map[string]string)
	for _, h := range req.WireHeaders() {
		headers[h.Key] = h.Value
	}

	entry := model.HistoryEntry{
		ID:        id,
		RequestID: req.ID,
		Timestamp: at,
		Method:    model.NormalizeMethod(req.Method),
		URL:       req.FullURL(),
		Headers:   RedactHeaders(headers),
	}
	if req.HasBody() {
		entry.Body = req.Body
	}

	if resp != nil {
		entry.Response = &model.Response{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Headers:    RedactHeaders(resp.Headers),
			Body:       resp.Body,
			DurationMs: resp.DurationMs,
			SizeBytes:  resp.SizeBytes,
		}
	}
	return entry
}

// sensitiveBodyPatterns contains patterns that suggest sensitive data in request bodies
var sensitiveBodyPatterns = []string{
	"password", "passwd", "pwd",
	"secret", "token", "api_key", "apikey",
	"private_key", "privatekey",
	"credit_card", "creditcard", "card_number",
	"ssn", "social_security",
	"access_token", "refresh_token",
	"client_secret", "auth",
}

// LooksSensitive reports whether a body might contain credentials or personal data.
func LooksSensitive(body string) bool {
	if body == "" {
		return false
	}

	lower := strings.ToLower(body)
	for _, pattern := range sensitiveBodyPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
