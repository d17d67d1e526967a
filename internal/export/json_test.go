package export

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/iksnae/deepfake-detect/internal"
)

func TestJSONExporter_Export(t *testing.T) {
	verdict := internal.CreateTestVerdict(internal.LabelReal, 0.91)
	aggregate := internal.CreateTestAggregate(3)

	tests := []struct {
		name       string
		report     *Report
		wantFrames int
	}{
		{
			name:   "empty report",
			report: NewReport(internal.ModalityImage, ""),
		},
		{
			name: "image verdict",
			report: &Report{
				ID:       "r1",
				Modality: internal.ModalityImage,
				Source:   "face.jpg",
				Verdict:  &verdict,
			},
		},
		{
			name: "video aggregate",
			report: &Report{
				ID:        "r2",
				Modality:  internal.ModalityVideo,
				Aggregate: &aggregate,
			},
			wantFrames: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exporter := &JSONExporter{}

			if err := exporter.Export(tt.report, &buf); err != nil {
				t.Fatalf("JSONExporter.Export() error = %v", err)
			}

			var decoded Report
			if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
				t.Fatalf("Export produced invalid JSON: %v", err)
			}
			if decoded.ID != tt.report.ID {
				t.Errorf("ID = %q, want %q", decoded.ID, tt.report.ID)
			}
			if tt.wantFrames > 0 {
				if decoded.Aggregate == nil || decoded.Aggregate.FramesAnalyzed != tt.wantFrames {
					t.Errorf("Aggregate = %+v, want %d frames", decoded.Aggregate, tt.wantFrames)
				}
			}
		})
	}
}

func TestJSONExporter_Extension(t *testing.T) {
	exporter := &JSONExporter{}
	if got := exporter.Extension(); got != "json" {
		t.Errorf("JSONExporter.Extension() = %v, want json", got)
	}
}
