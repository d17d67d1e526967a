package export

import (
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLExporter exports reports in YAML format
type YAMLExporter struct{}

// Export exports a report to YAML format
func (e *YAMLExporter) Export(report *Report, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()

	return enc.Encode(report)
}

// Extension returns the file extension for this format
func (e *YAMLExporter) Extension() string {
	return "yaml"
}
