package export

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"

	"github.com/iksnae/deepfake-detect/internal"
)

func TestJSONLExporter_Export(t *testing.T) {
	verdict := internal.CreateTestVerdict(internal.LabelFake, 0.87)
	aggregate := internal.CreateTestAggregate(4)
	history := internal.CreateTestHistory(2)

	tests := []struct {
		name      string
		report    *Report
		wantKinds []string
	}{
		{
			name:      "empty report",
			report:    NewReport(internal.ModalityImage, ""),
			wantKinds: nil,
		},
		{
			name:      "image verdict",
			report:    &Report{ID: "r1", Modality: internal.ModalityImage, Verdict: &verdict},
			wantKinds: []string{"verdict"},
		},
		{
			name:      "video frames",
			report:    &Report{ID: "r2", Modality: internal.ModalityVideo, Aggregate: &aggregate},
			wantKinds: []string{"overall", "frame", "frame", "frame", "frame"},
		},
		{
			name:      "webcam history",
			report:    &Report{ID: "r3", Modality: internal.ModalityWebcam, Verdict: &verdict, History: history.Entries()},
			wantKinds: []string{"verdict", "capture", "capture"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exporter := &JSONLExporter{}
			if err := exporter.Export(tt.report, &buf); err != nil {
				t.Fatalf("JSONLExporter.Export() error = %v", err)
			}

			var kinds []string
			scanner := bufio.NewScanner(&buf)
			for scanner.Scan() {
				var rec map[string]interface{}
				if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
					t.Fatalf("invalid JSON line %q: %v", scanner.Text(), err)
				}
				if rec["report_id"] != tt.report.ID {
					t.Errorf("report_id = %v, want %s", rec["report_id"], tt.report.ID)
				}
				kinds = append(kinds, rec["kind"].(string))
			}

			if len(kinds) != len(tt.wantKinds) {
				t.Fatalf("got %d lines %v, want %v", len(kinds), kinds, tt.wantKinds)
			}
			for i := range kinds {
				if kinds[i] != tt.wantKinds[i] {
					t.Errorf("line %d kind = %s, want %s", i, kinds[i], tt.wantKinds[i])
				}
			}
		})
	}
}

func TestJSONLExporter_FrameIndices(t *testing.T) {
	aggregate := internal.CreateTestAggregate(3)
	report := &Report{ID: "r", Modality: internal.ModalityVideo, Aggregate: &aggregate}

	var buf bytes.Buffer
	if err := (&JSONLExporter{}).Export(report, &buf); err != nil {
		t.Fatal(err)
	}

	scanner := bufio.NewScanner(&buf)
	scanner.Scan() // overall
	for want := 0; scanner.Scan(); want++ {
		var rec struct {
			Frame *int `json:"frame"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatal(err)
		}
		if rec.Frame == nil || *rec.Frame != want {
			t.Errorf("frame = %v, want %d", rec.Frame, want)
		}
	}
}

func TestJSONLExporter_Extension(t *testing.T) {
	exporter := &JSONLExporter{}
	if got := exporter.Extension(); got != "jsonl" {
		t.Errorf("JSONLExporter.Extension() = %v, want jsonl", got)
	}
}
