package export

import (
	"io"

	"blitztest/internal/model"
	"go.yaml.in/yaml/v4"
)

const yamlIndent = 2

// YAMLExporter is an [Exporter] that transforms a bundle into a YAML document.
type YAMLExporter struct{}

// Export implements [Exporter] for [YAMLExporter] and exports the given bundle as
// a complete YAML document.
func (y YAMLExporter) Export(w io.Writer, bundle model.Bundle) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(yamlIndent)

	return encoder.Encode(normalize(bundle))
}
