package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

const (
	PathPredict       = "/api/predict"
	PathPredictBase64 = "/api/predict_base64"
	PathExtractFrames = "/api/extract_frames"
)

// Default response bodies served by a new FakeBackend
const (
	RealPredictionBody = `{"prediction":"Real","confidence":0.91}`
	FakePredictionBody = `{"prediction":"Fake","confidence":0.87}`
	VideoBody          = `{"overall_prediction":"Fake","overall_confidence":0.74,"total_frames_analyzed":3,` +
		`"frame_predictions":[{"frame":0,"prediction":"Fake","confidence":0.8},` +
		`{"frame":1,"prediction":"Real","confidence":0.55},{"frame":2,"prediction":"Fake","confidence":0.88}]}`
)

// Response is a canned reply for one endpoint
type Response struct {
	Status int
	Body   string
	Delay  time.Duration
}

// RecordedRequest captures what the client sent
type RecordedRequest struct {
	Path            string
	ContentType     string
	FileName        string
	FileContentType string
	FileSize        int64
	Image           string // JSON "image" field for inline requests
}

// FakeBackend is an httptest server speaking the classification API
type FakeBackend struct {
	*httptest.Server

	mu        sync.Mutex
	responses map[string]Response
	hits      map[string]int
	requests  []RecordedRequest
	gate      chan struct{}
}

// NewFakeBackend starts a backend answering every endpoint successfully.
// It is closed when the test ends.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()
	f := &FakeBackend{
		responses: map[string]Response{
			PathPredict:       {Status: http.StatusOK, Body: RealPredictionBody},
			PathPredictBase64: {Status: http.StatusOK, Body: RealPredictionBody},
			PathExtractFrames: {Status: http.StatusOK, Body: VideoBody},
		},
		hits: make(map[string]int),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(func() {
		f.Release()
		f.Server.Close()
	})
	return f
}

// SetResponse replaces the reply for path
func (f *FakeBackend) SetResponse(path string, resp Response) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if resp.Status == 0 {
		resp.Status = http.StatusOK
	}
	f.responses[path] = resp
}

// Hold makes every request wait until Release is called
func (f *FakeBackend) Hold() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gate == nil {
		f.gate = make(chan struct{})
	}
}

// Release lets held requests through
func (f *FakeBackend) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gate != nil {
		close(f.gate)
		f.gate = nil
	}
}

// Hits returns how many requests reached path
func (f *FakeBackend) Hits(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

// TotalHits returns how many requests reached any path
func (f *FakeBackend) TotalHits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.hits {
		total += n
	}
	return total
}

// Requests returns the recorded requests in arrival order
func (f *FakeBackend) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedRequest(nil), f.requests...)
}

// WaitForHits polls until path has seen n requests or the timeout passes
func (f *FakeBackend) WaitForHits(path string, n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if f.Hits(path) >= n {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return f.Hits(path) >= n
}

func (f *FakeBackend) handle(w http.ResponseWriter, r *http.Request) {
	rec := RecordedRequest{Path: r.URL.Path, ContentType: r.Header.Get("Content-Type")}

	switch r.URL.Path {
	case PathPredict, PathExtractFrames:
		if file, header, err := r.FormFile("file"); err == nil {
			rec.FileName = header.Filename
			rec.FileContentType = header.Header.Get("Content-Type")
			rec.FileSize, _ = io.Copy(io.Discard, file)
			_ = file.Close()
		}
	case PathPredictBase64:
		var payload struct {
			Image string `json:"image"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err == nil {
			rec.Image = payload.Image
		}
	}

	f.mu.Lock()
	f.hits[r.URL.Path]++
	f.requests = append(f.requests, rec)
	resp, ok := f.responses[r.URL.Path]
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}
	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-r.Context().Done():
			return
		}
	}

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	_, _ = io.WriteString(w, resp.Body)
}
