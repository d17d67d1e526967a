package export

import (
	"time"

	"github.com/google/uuid"
	"github.com/iksnae/deepfake-detect/internal"
)

// Report is the exportable outcome of one command run. It is written once
// and never read back.
type Report struct {
	ID          string                    `json:"id" yaml:"id"`
	Modality    internal.Modality         `json:"modality" yaml:"modality"`
	GeneratedAt time.Time                 `json:"generated_at" yaml:"generated_at"`
	Source      string                    `json:"source,omitempty" yaml:"source,omitempty"`
	SizeBytes   int64                     `json:"size_bytes,omitempty" yaml:"size_bytes,omitempty"`
	Verdict     *internal.Verdict         `json:"verdict,omitempty" yaml:"verdict,omitempty"`
	Aggregate   *internal.AggregateResult `json:"aggregate,omitempty" yaml:"aggregate,omitempty"`
	History     []internal.HistoryEntry   `json:"history,omitempty" yaml:"history,omitempty"`
	Stats       *internal.CaptureStats    `json:"stats,omitempty" yaml:"stats,omitempty"`
	Error       string                    `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewReport creates an empty report with a fresh ID
func NewReport(modality internal.Modality, source string) *Report {
	return &Report{
		ID:          uuid.New().String(),
		Modality:    modality,
		GeneratedAt: time.Now().UTC(),
		Source:      source,
	}
}

// FromSnapshot builds a report for an image or video session
func FromSnapshot(modality internal.Modality, snap internal.Snapshot) *Report {
	source := ""
	var size int64
	if snap.Asset != nil {
		source = snap.Asset.OriginalName
		size = snap.Asset.SizeBytes
	}
	r := NewReport(modality, source)
	r.SizeBytes = size
	r.Verdict = snap.Result.Verdict
	r.Aggregate = snap.Result.Aggregate
	if snap.Err != nil {
		r.Error = snap.Message()
	}
	return r
}

// FromWebcam builds a report from a live-capture session
func FromWebcam(device string, snap internal.WebcamSnapshot) *Report {
	r := NewReport(internal.ModalityWebcam, device)
	r.Verdict = snap.Current
	r.History = snap.History
	stats := snap.Stats
	r.Stats = &stats
	if snap.Err != nil {
		r.Error = internal.UserMessage(snap.Err)
	}
	return r
}
