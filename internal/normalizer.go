package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// rawPrediction is the /api/predict and /api/predict_base64 response body
type rawPrediction struct {
	Prediction *string  `json:"prediction"`
	Confidence *float64 `json:"confidence"`
}

type rawFramePrediction struct {
	Frame      *int     `json:"frame"`
	Prediction *string  `json:"prediction"`
	Confidence *float64 `json:"confidence"`
}

// rawVideoPrediction is the /api/extract_frames response body
type rawVideoPrediction struct {
	OverallPrediction   *string              `json:"overall_prediction"`
	OverallConfidence   *float64             `json:"overall_confidence"`
	TotalFramesAnalyzed *int                 `json:"total_frames_analyzed"`
	FramePredictions    []rawFramePrediction `json:"frame_predictions"`
}

// Normalizer converts backend response bodies into Verdicts and
// AggregateResults. It holds no state; the same body always normalizes to
// the same value.
type Normalizer struct{}

// NewNormalizer creates a new Normalizer
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize dispatches on modality: images and webcam frames produce a
// Verdict, videos an AggregateResult.
func (n *Normalizer) Normalize(modality Modality, body []byte) (Result, error) {
	switch modality {
	case ModalityImage, ModalityWebcam:
		v, err := n.NormalizePrediction(body)
		if err != nil {
			return Result{}, err
		}
		return Result{Verdict: &v}, nil
	case ModalityVideo:
		agg, err := n.NormalizeVideo(body)
		if err != nil {
			return Result{}, err
		}
		return Result{Aggregate: &agg}, nil
	default:
		return Result{}, malformed("unknown modality %q", modality)
	}
}

// NormalizePrediction maps a single-verdict response
func (n *Normalizer) NormalizePrediction(body []byte) (Verdict, error) {
	var raw rawPrediction
	if err := json.Unmarshal(body, &raw); err != nil {
		return Verdict{}, &ClassifyError{
			Kind:    KindMalformedResponse,
			Op:      "normalize",
			Message: "Unexpected response from server",
			Err:     err,
		}
	}
	return n.verdict(raw.Prediction, raw.Confidence, "prediction", "confidence")
}

// NormalizeVideo maps a multi-frame aggregate response. The overall
// confidence is taken as reported; frames keep the backend's indices and
// order.
func (n *Normalizer) NormalizeVideo(body []byte) (AggregateResult, error) {
	var raw rawVideoPrediction
	if err := json.Unmarshal(body, &raw); err != nil {
		return AggregateResult{}, &ClassifyError{
			Kind:    KindMalformedResponse,
			Op:      "normalize",
			Message: "Unexpected response from server",
			Err:     err,
		}
	}

	overall, err := n.verdict(raw.OverallPrediction, raw.OverallConfidence, "overall_prediction", "overall_confidence")
	if err != nil {
		return AggregateResult{}, err
	}

	frames := make([]Verdict, 0, len(raw.FramePredictions))
	for i, fp := range raw.FramePredictions {
		if fp.Frame == nil {
			return AggregateResult{}, malformed("frame_predictions[%d] is missing frame", i)
		}
		if *fp.Frame < 0 {
			return AggregateResult{}, malformed("frame_predictions[%d] has negative frame %d", i, *fp.Frame)
		}
		v, err := n.verdict(fp.Prediction, fp.Confidence,
			fmt.Sprintf("frame_predictions[%d].prediction", i),
			fmt.Sprintf("frame_predictions[%d].confidence", i))
		if err != nil {
			return AggregateResult{}, err
		}
		frames = append(frames, v.WithFrame(*fp.Frame))
	}

	if raw.TotalFramesAnalyzed != nil && *raw.TotalFramesAnalyzed != len(frames) {
		LogWarn("Backend reported %d frames analyzed but returned %d frame predictions", *raw.TotalFramesAnalyzed, len(frames))
	}

	return AggregateResult{
		Overall:        overall,
		Frames:         frames,
		FramesAnalyzed: len(frames),
	}, nil
}

func (n *Normalizer) verdict(prediction *string, confidence *float64, labelField, confField string) (Verdict, error) {
	if prediction == nil {
		return Verdict{}, malformed("missing %s", labelField)
	}
	label, ok := parseLabel(*prediction)
	if !ok {
		return Verdict{}, malformed("%s %q is not Real or Fake", labelField, *prediction)
	}
	if confidence == nil {
		return Verdict{}, malformed("missing %s", confField)
	}
	if *confidence < 0 || *confidence > 1 {
		return Verdict{}, malformed("%s %v is outside [0,1]", confField, *confidence)
	}
	return NewVerdict(label, *confidence), nil
}

// parseLabel accepts the two known labels, ignoring case and surrounding space
func parseLabel(s string) (Label, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "real":
		return LabelReal, true
	case "fake":
		return LabelFake, true
	default:
		return "", false
	}
}

func malformed(format string, args ...interface{}) *ClassifyError {
	detail := fmt.Sprintf(format, args...)
	return &ClassifyError{
		Kind:    KindMalformedResponse,
		Op:      "normalize",
		Message: "Unexpected response from server: " + detail,
		Err:     errors.New(detail),
	}
}
