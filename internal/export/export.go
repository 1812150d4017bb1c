// Package export writes a native bundle of requests and collections in one of
// several document formats.
//
// Only the JSON form can be imported back.
package export

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"blitztest/internal/model"
)

// Exporter is the interface defining a mechanism for exporting a bundle into
// an external format.
type Exporter interface {
	// Export exports the [model.Bundle] into an external format, written to w.
	Export(w io.Writer, bundle model.Bundle) error
}

// exporters maps a format name to its exporter.
var exporters = map[string]Exporter{
	"json": JSONExporter{},
	"yaml": YAMLExporter{},
	"yml":  YAMLExporter{},
	"toml": TOMLExporter{},
}

// Formats returns the accepted format names, sorted.
func Formats() []string {
	names := make([]string, 0, len(exporters))
	for name := range exporters {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ForName returns the exporter for a format name, case insensitively.
func ForName(name string) (Exporter, error) {
	exporter, ok := exporters[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unsupported export format %q (expected one of %s)", name, strings.Join(Formats(), ", "))
	}
	return exporter, nil
}
