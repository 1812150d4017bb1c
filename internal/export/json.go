package export

import (
	"encoding/json"
	"io"

	"blitztest/internal/model"
)

// JSONExporter is an [Exporter] that writes the native import schema.
type JSONExporter struct{}

// Export implements [Exporter] for [JSONExporter] and exports the given bundle
// as a complete JSON document.
func (j JSONExporter) Export(w io.Writer, bundle model.Bundle) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(normalize(bundle))
}

// normalize keeps empty lists encoded as lists rather than null.
func normalize(bundle model.Bundle) model.Bundle {
	if bundle.Requests == nil {
		bundle.Requests = []model.Request{}
	}
	if bundle.Collections == nil {
		bundle.Collections = []model.Collection{}
	}
	return bundle
}
