package model

import (
	"time"
)

// Response represents an HTTP response
type Response struct {
	StatusCode int               `json:"status_code"`
	Status     string            `json:"status"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
	DurationMs int64             `json:"duration_ms"`
	SizeBytes  int64             `json:"size_bytes"`
}

// HistoryEntry is a sent request together with what came back
type HistoryEntry struct {
	ID        string            `json:"id"`
	RequestID string            `json:"request_id"`
	Timestamp time.Time         `json:"timestamp"`
	Method    string            `json:"method"`
	URL       string            `json:"url"`
	Headers   map[string]string `json:"headers"`
	Body      string            `json:"body"`
	Response  *Response         `json:"response,omitempty"`
}

// History represents the request history storage
type History struct {
	Entries []HistoryEntry `json:"entries"`
}
