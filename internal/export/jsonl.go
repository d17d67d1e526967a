package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// JSONLExporter exports one line per verdict: the overall or single
// verdict, then each video frame or history entry
type JSONLExporter struct{}

type jsonlRecord struct {
	ReportID   string     `json:"report_id"`
	Modality   string     `json:"modality"`
	Kind       string     `json:"kind"` // "verdict", "overall", "frame", "capture"
	Label      string     `json:"label"`
	Confidence float64    `json:"confidence"`
	IsFake     bool       `json:"is_fake"`
	Frame      *int       `json:"frame,omitempty"`
	CaptureID  uint64     `json:"capture_id,omitempty"`
	CapturedAt *time.Time `json:"captured_at,omitempty"`
}

// Export exports a report to JSONL format
func (e *JSONLExporter) Export(report *Report, w io.Writer) error {
	enc := json.NewEncoder(w)
	base := jsonlRecord{ReportID: report.ID, Modality: string(report.Modality)}

	write := func(rec jsonlRecord) error {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to encode %s record: %w", rec.Kind, err)
		}
		return nil
	}

	if report.Verdict != nil {
		rec := base
		rec.Kind = "verdict"
		rec.Label, rec.Confidence, rec.IsFake = string(report.Verdict.Label), report.Verdict.Confidence, report.Verdict.IsFake
		if err := write(rec); err != nil {
			return err
		}
	}

	if agg := report.Aggregate; agg != nil {
		rec := base
		rec.Kind = "overall"
		rec.Label, rec.Confidence, rec.IsFake = string(agg.Overall.Label), agg.Overall.Confidence, agg.Overall.IsFake
		if err := write(rec); err != nil {
			return err
		}
		for _, f := range agg.Frames {
			rec := base
			rec.Kind = "frame"
			rec.Label, rec.Confidence, rec.IsFake = string(f.Label), f.Confidence, f.IsFake
			rec.Frame = f.FrameIndex
			if err := write(rec); err != nil {
				return err
			}
		}
	}

	for _, entry := range report.History {
		capturedAt := entry.CapturedAt
		rec := base
		rec.Kind = "capture"
		rec.Label, rec.Confidence, rec.IsFake = string(entry.Verdict.Label), entry.Verdict.Confidence, entry.Verdict.IsFake
		rec.CaptureID = entry.ID
		rec.CapturedAt = &capturedAt
		if err := write(rec); err != nil {
			return err
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
