package store_test

import (
	"encoding/json"
	"testing"

	"go.followtheprocess.codes/test"
)

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	test.Ok(t, err)
	return data
}
