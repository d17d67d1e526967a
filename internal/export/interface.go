package export

import (
	"fmt"
	"io"
	"os"

	"github.com/iksnae/deepfake-detect/internal"
)

// Exporter defines the interface for all report formats
type Exporter interface {
	Export(report *Report, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: json, jsonl, md, yaml)", format)
	}
}

// WriteFile exports report to path, replacing any existing file
func WriteFile(report *Report, format, path string) error {
	exporter, err := NewExporter(format)
	if err != nil {
		return &internal.ExportError{Format: format, Path: path, Err: err}
	}

	f, err := os.Create(path)
	if err != nil {
		return &internal.ExportError{Format: format, Path: path, Err: err}
	}

	if err := exporter.Export(report, f); err != nil {
		_ = f.Close()
		return &internal.ExportError{Format: format, Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &internal.ExportError{Format: format, Path: path, Err: err}
	}

	internal.LogDebug("Exported %s report %s to %s", format, report.ID, path)
	return nil
}
