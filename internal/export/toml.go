package export

import (
	"io"

	"blitztest/internal/model"
	"github.com/BurntSushi/toml"
)

// TOMLExporter is an [Exporter] that transforms a bundle into a TOML document.
type TOMLExporter struct{}

// Export implements [Exporter] for [TOMLExporter] and exports the given bundle
// as a complete TOML document.
func (t TOMLExporter) Export(w io.Writer, bundle model.Bundle) error {
	encoder := toml.NewEncoder(w)
	encoder.Indent = ""

	return encoder.Encode(normalize(bundle))
}
