package internal

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/iksnae/deepfake-detect/testutil"
)

func stageTestImage(t *testing.T) *MediaAsset {
	t.Helper()
	path := testutil.WriteFile(t, t.TempDir(), "face.jpg", testutil.JPEGFrame(7))
	asset, err := NewStager(NewPreviewRegistry()).Stage(ModalityImage, []string{path})
	if err != nil {
		t.Fatalf("Stage() error = %v", err)
	}
	return asset
}

func stageTestVideo(t *testing.T, size int64) *MediaAsset {
	t.Helper()
	path := testutil.WriteSizedFile(t, t.TempDir(), "clip.mp4", size, []byte("ftypmp42"))
	asset, err := NewStager(NewPreviewRegistry()).Stage(ModalityVideo, []string{path})
	if err != nil {
		t.Fatalf("Stage() error = %v", err)
	}
	return asset
}

func TestNewClient(t *testing.T) {
	c := NewClient("http://localhost:5000/", 0)
	if c.BaseURL() != "http://localhost:5000" {
		t.Errorf("BaseURL() = %q, trailing slash should be trimmed", c.BaseURL())
	}
	if c.Timeout() != DefaultTimeout {
		t.Errorf("Timeout() = %v, want %v", c.Timeout(), DefaultTimeout)
	}
}

func TestClient_ClassifyImage(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	client := NewClient(backend.URL, 5*time.Second)
	asset := stageTestImage(t)

	v, err := client.ClassifyImage(context.Background(), asset)
	if err != nil {
		t.Fatalf("ClassifyImage() error = %v", err)
	}
	if v.Label != LabelReal || v.Confidence != 0.91 || v.IsFake {
		t.Errorf("ClassifyImage() = %+v", v)
	}

	reqs := backend.Requests()
	if len(reqs) != 1 {
		t.Fatalf("backend saw %d requests, want 1", len(reqs))
	}
	req := reqs[0]
	if req.Path != testutil.PathPredict || !strings.HasPrefix(req.ContentType, "multipart/form-data") {
		t.Errorf("request = %+v", req)
	}
	if req.FileName != "face.jpg" || req.FileContentType != "image/jpeg" || req.FileSize != asset.SizeBytes {
		t.Errorf("file part = %q %q %d", req.FileName, req.FileContentType, req.FileSize)
	}
}

func TestClient_ClassifyImage_Invalid(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	client := NewClient(backend.URL, time.Second)

	tests := []struct {
		name  string
		asset *MediaAsset
	}{
		{"nil asset", nil},
		{"video asset", &MediaAsset{Kind: KindVideo, Path: "clip.mp4"}},
		{"empty image", &MediaAsset{Kind: KindImage}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.ClassifyImage(context.Background(), tt.asset)
			if !IsKind(err, KindInvalid) {
				t.Errorf("ClassifyImage() error = %v, want Invalid", err)
			}
		})
	}
	if backend.TotalHits() != 0 {
		t.Errorf("invalid input reached the backend %d times", backend.TotalHits())
	}
}

func TestClient_ClassifyImageInline(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	backend.SetResponse(testutil.PathPredictBase64, testutil.Response{Body: testutil.FakePredictionBody})
	client := NewClient(backend.URL, 5*time.Second)

	uri := EncodeDataURI("image/jpeg", testutil.JPEGFrame(3))
	v, err := client.ClassifyImageInline(context.Background(), uri)
	if err != nil {
		t.Fatalf("ClassifyImageInline() error = %v", err)
	}
	if v.Label != LabelFake || !v.IsFake {
		t.Errorf("ClassifyImageInline() = %+v", v)
	}

	reqs := backend.Requests()
	if len(reqs) != 1 || reqs[0].Image != uri || reqs[0].ContentType != "application/json" {
		t.Errorf("requests = %+v", reqs)
	}
}

func TestClient_ClassifyImageInline_Invalid(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	client := NewClient(backend.URL, time.Second)

	for _, uri := range []string{"", "not-a-uri", "data:image/jpeg;base64,%%%"} {
		if _, err := client.ClassifyImageInline(context.Background(), uri); !IsKind(err, KindInvalid) {
			t.Errorf("ClassifyImageInline(%q) error = %v, want Invalid", uri, err)
		}
	}
	if backend.TotalHits() != 0 {
		t.Errorf("invalid input reached the backend %d times", backend.TotalHits())
	}
}

func TestClient_ClassifyVideo(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	client := NewClient(backend.URL, 10*time.Second)
	asset := stageTestVideo(t, 3*1024*1024)

	agg, err := client.ClassifyVideo(context.Background(), asset)
	if err != nil {
		t.Fatalf("ClassifyVideo() error = %v", err)
	}
	if agg.Overall.Label != LabelFake || agg.Overall.Confidence != 0.74 {
		t.Errorf("Overall = %+v", agg.Overall)
	}
	if agg.FramesAnalyzed != 3 || len(agg.Frames) != 3 {
		t.Errorf("FramesAnalyzed = %d", agg.FramesAnalyzed)
	}

	reqs := backend.Requests()
	if len(reqs) != 1 || reqs[0].Path != testutil.PathExtractFrames {
		t.Fatalf("requests = %+v", reqs)
	}
	if reqs[0].FileSize != asset.SizeBytes || reqs[0].FileContentType != "video/mp4" {
		t.Errorf("uploaded %d bytes as %q, want %d as video/mp4", reqs[0].FileSize, reqs[0].FileContentType, asset.SizeBytes)
	}
}

func TestClient_ClassifyVideo_MissingFile(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	client := NewClient(backend.URL, time.Second)

	_, err := client.ClassifyVideo(context.Background(), &MediaAsset{Kind: KindVideo, Path: "/no/such/clip.mp4"})
	if !IsKind(err, KindInvalid) {
		t.Errorf("ClassifyVideo() error = %v, want Invalid", err)
	}
}

func TestClient_ServerRejected(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{"error field", http.StatusBadRequest, `{"error":"No face detected"}`, "No face detected"},
		{"message field", http.StatusInternalServerError, `{"message":"Model not loaded"}`, "Model not loaded"},
		{"error wins over message", http.StatusBadRequest, `{"error":"first","message":"second"}`, "first"},
		{"no fields", http.StatusServiceUnavailable, `{}`, "Server error occurred"},
		{"html body", http.StatusBadGateway, `<html>bad gateway</html>`, "Server error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := testutil.NewFakeBackend(t)
			backend.SetResponse(testutil.PathPredict, testutil.Response{Status: tt.status, Body: tt.body})
			client := NewClient(backend.URL, 5*time.Second)

			_, err := client.ClassifyImage(context.Background(), stageTestImage(t))
			var ce *ClassifyError
			if !errors.As(err, &ce) || ce.Kind != KindServerRejected {
				t.Fatalf("ClassifyImage() error = %v, want ServerRejected", err)
			}
			if ce.Message != tt.wantMessage || ce.Status != tt.status {
				t.Errorf("Message/Status = %q/%d, want %q/%d", ce.Message, ce.Status, tt.wantMessage, tt.status)
			}
			if backend.Hits(testutil.PathPredict) != 1 {
				t.Errorf("backend hits = %d, want exactly one attempt", backend.Hits(testutil.PathPredict))
			}
		})
	}
}

func TestClient_Unreachable(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	url := backend.URL
	backend.Close()

	client := NewClient(url, time.Second)
	_, err := client.ClassifyImage(context.Background(), stageTestImage(t))
	if !IsKind(err, KindUnreachable) {
		t.Fatalf("ClassifyImage() error = %v, want Unreachable", err)
	}
	if UserMessage(err) != msgUnreachable {
		t.Errorf("UserMessage() = %q, want %q", UserMessage(err), msgUnreachable)
	}
}

func TestClient_Timeout(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	backend.SetResponse(testutil.PathPredict, testutil.Response{Body: testutil.RealPredictionBody, Delay: 2 * time.Second})
	client := NewClient(backend.URL, 100*time.Millisecond)

	start := time.Now()
	_, err := client.ClassifyImage(context.Background(), stageTestImage(t))
	if !IsKind(err, KindUnreachable) {
		t.Fatalf("ClassifyImage() error = %v, want Unreachable", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("timeout took %v, want about 100ms", elapsed)
	}
	if !strings.Contains(UserMessage(err), "did not respond") {
		t.Errorf("UserMessage() = %q, want a timeout message", UserMessage(err))
	}
}

func TestClient_MalformedSuccessBody(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	backend.SetResponse(testutil.PathPredict, testutil.Response{Body: `{"prediction":"Real","confidence":3}`})
	client := NewClient(backend.URL, 5*time.Second)

	_, err := client.ClassifyImage(context.Background(), stageTestImage(t))
	if !IsKind(err, KindMalformedResponse) {
		t.Errorf("ClassifyImage() error = %v, want MalformedResponse", err)
	}
}

func TestServerMessage(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"error":"bad file"}`, "bad file"},
		{`{"message":"try later"}`, "try later"},
		{`{"error":""}`, msgServerError},
		{``, msgServerError},
	}
	for _, tt := range tests {
		if got := serverMessage([]byte(tt.body)); got != tt.want {
			t.Errorf("serverMessage(%q) = %q, want %q", tt.body, got, tt.want)
		}
	}
}

func TestClient_Ping(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	client := NewClient(backend.URL, time.Second)

	status, err := client.Ping(context.Background())
	if err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if status != http.StatusNotFound {
		t.Errorf("Ping() status = %d, want 404 from the fake backend root", status)
	}

	backend.Close()
	if _, err := client.Ping(context.Background()); !IsKind(err, KindUnreachable) {
		t.Errorf("Ping() after close error = %v, want Unreachable", err)
	}
}
