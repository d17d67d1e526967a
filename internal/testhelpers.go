package internal

import (
	"time"
)

// CreateTestVerdict creates a verdict with IsFake derived from label
func CreateTestVerdict(label Label, confidence float64) Verdict {
	return NewVerdict(label, confidence)
}

// CreateTestAggregate creates an aggregate of n frames alternating Fake and
// Real, starting with Fake
func CreateTestAggregate(n int) AggregateResult {
	frames := make([]Verdict, 0, n)
	for i := 0; i < n; i++ {
		label := LabelFake
		if i%2 == 1 {
			label = LabelReal
		}
		frames = append(frames, NewVerdict(label, 0.5+float64(i%5)/10).WithFrame(i))
	}
	return AggregateResult{
		Overall:        NewVerdict(LabelFake, 0.72),
		Frames:         frames,
		FramesAnalyzed: len(frames),
	}
}

// CreateTestHistory creates a history with n entries captured one second
// apart, the newest labelled Fake
func CreateTestHistory(n int) *History {
	h := NewHistory(HistoryCapacity)
	base := time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC)
	for i := 0; i < n; i++ {
		label := LabelReal
		if i == n-1 {
			label = LabelFake
		}
		h.Push(base.Add(time.Duration(i)*time.Second), NewVerdict(label, 0.9), "data:image/jpeg;base64,AA==")
	}
	return h
}
