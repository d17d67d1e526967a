package internal

import "fmt"

// Modality identifies which kind of submission a session handles
type Modality string

const (
	ModalityImage  Modality = "image"
	ModalityVideo  Modality = "video"
	ModalityWebcam Modality = "webcam"
)

// Label is the authenticity class returned by the backend
type Label string

const (
	LabelReal Label = "Real"
	LabelFake Label = "Fake"
)

// Verdict is a single normalized classification.
// IsFake always equals Label == LabelFake and Confidence is within [0,1].
type Verdict struct {
	Label      Label   `json:"label" yaml:"label"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	IsFake     bool    `json:"is_fake" yaml:"is_fake"`
	FrameIndex *int    `json:"frame_index,omitempty" yaml:"frame_index,omitempty"`
}

// NewVerdict builds a verdict with IsFake derived from the label
func NewVerdict(label Label, confidence float64) Verdict {
	return Verdict{
		Label:      label,
		Confidence: confidence,
		IsFake:     label == LabelFake,
	}
}

// WithFrame returns a copy of v tagged with a 0-based frame index
func (v Verdict) WithFrame(index int) Verdict {
	idx := index
	v.FrameIndex = &idx
	return v
}

// Percent renders the confidence as a percentage with one decimal
func (v Verdict) Percent() string {
	return fmt.Sprintf("%.1f%%", v.Confidence*100)
}

// FrameLabel returns the 1-based display name of a frame verdict
func (v Verdict) FrameLabel() string {
	if v.FrameIndex == nil {
		return ""
	}
	return fmt.Sprintf("Frame %d", *v.FrameIndex+1)
}

// AggregateResult is a video-level verdict plus its per-frame verdicts.
// FramesAnalyzed always equals len(Frames).
type AggregateResult struct {
	Overall        Verdict   `json:"overall" yaml:"overall"`
	Frames         []Verdict `json:"frames" yaml:"frames"`
	FramesAnalyzed int       `json:"frames_analyzed" yaml:"frames_analyzed"`
}

// FakeFrames counts frames labelled Fake
func (a AggregateResult) FakeFrames() int {
	n := 0
	for _, f := range a.Frames {
		if f.IsFake {
			n++
		}
	}
	return n
}

// Result holds the normalized outcome of one submission: a Verdict for
// images and camera frames, an AggregateResult for videos.
type Result struct {
	Verdict   *Verdict         `json:"verdict,omitempty" yaml:"verdict,omitempty"`
	Aggregate *AggregateResult `json:"aggregate,omitempty" yaml:"aggregate,omitempty"`
}

// Tier is a coarse confidence bucket used for display
type Tier string

const (
	TierHigh   Tier = "High"
	TierMedium Tier = "Medium"
	TierLow    Tier = "Low"
)

// ConfidenceTier buckets a confidence: above 0.8 is High, above 0.6 Medium
func ConfidenceTier(confidence float64) Tier {
	switch {
	case confidence > 0.8:
		return TierHigh
	case confidence > 0.6:
		return TierMedium
	default:
		return TierLow
	}
}

// FormatSize renders a byte count in MB with two decimals
func FormatSize(bytes int64) string {
	return fmt.Sprintf("%.2f MB", float64(bytes)/1024/1024)
}
