package importer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"blitztest/internal/model"
)

var errNotArray = errors.New("must be an array")

// DecodeNative decodes the native bundle schema. Both fields are optional and
// may be null; when present anything other than an array is a FormatError.
// Entries are taken verbatim: ids are not checked for collisions and missing
// fields are not defaulted.
func DecodeNative(data []byte) (model.Bundle, error) {
	raw, err := decodeObject("json", data)
	if err != nil {
		return model.Bundle{}, err
	}

	var bundle model.Bundle
	if err := decodeArray(raw, "requests", &bundle.Requests); err != nil {
		return model.Bundle{}, err
	}
	if err := decodeArray(raw, "collections", &bundle.Collections); err != nil {
		return model.Bundle{}, err
	}
	return bundle, nil
}

func decodeArray(raw map[string]json.RawMessage, key string, dst any) error {
	value, ok := raw[key]
	if !ok {
		return nil
	}
	value = bytes.TrimSpace(value)
	if bytes.Equal(value, []byte("null")) {
		return nil
	}
	if len(value) == 0 || value[0] != '[' {
		return &FormatError{Format: "json", Err: fmt.Errorf("%s %w", key, errNotArray)}
	}
	if err := json.Unmarshal(value, dst); err != nil {
		return &FormatError{Format: "json", Err: fmt.Errorf("%s: %w", key, err)}
	}
	return nil
}

// decodeObject decodes data as a JSON object keyed by field name. Valid JSON
// that is not an object fails with ErrNotObject.
func decodeObject(format string, data []byte) (map[string]json.RawMessage, error) {
	if !json.Valid(data) {
		var probe any
		return nil, &FormatError{Format: format, Err: json.Unmarshal(data, &probe)}
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &FormatError{Format: format, Err: ErrNotObject}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, &FormatError{Format: format, Err: err}
	}
	return raw, nil
}
