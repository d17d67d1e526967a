package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iksnae/deepfake-detect/internal"
	"github.com/iksnae/deepfake-detect/internal/export"
	"github.com/iksnae/deepfake-detect/testutil"
)

func frameDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for i := 0; i < 3; i++ {
		testutil.WriteFile(t, dir, string(rune('a'+i))+".jpg", testutil.JPEGFrame(i))
	}
	return dir
}

func TestWebcamCommand_ManualCapture(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	dir := frameDir(t)

	stdout, _, err := executeCommand(t, "c\nq\n", "webcam", "--api-url", backend.URL, "--frames-dir", dir)
	if err != nil {
		t.Fatalf("webcam error = %v", err)
	}
	for _, want := range []string{"Camera started", "dir:" + dir, "Real", "91.0%", "Captures: 1 accepted, 0 dropped"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}

	reqs := backend.Requests()
	if len(reqs) != 1 || reqs[0].Path != testutil.PathPredictBase64 {
		t.Fatalf("requests = %+v, want one inline classification", reqs)
	}
	if !strings.HasPrefix(reqs[0].Image, "data:image/jpeg;base64,") {
		t.Errorf("inline image = %.40q, want a JPEG data URI", reqs[0].Image)
	}
}

func TestWebcamCommand_Controls(t *testing.T) {
	backend := testutil.NewFakeBackend(t)

	stdout, _, err := executeCommand(t, "+\n+\n-\nh\nx\nz\n", "webcam", "--api-url", backend.URL, "--frames-dir", frameDir(t), "--rate", "4.5")
	if err != nil {
		t.Fatalf("webcam error = %v", err)
	}
	for _, want := range []string{
		"Capture rate: 5.0 Hz",
		"Capture rate: 4.5 Hz",
		"No captures yet",
		"History cleared",
		`Unknown key "z"`,
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
	if backend.TotalHits() != 0 {
		t.Errorf("no capture was requested, backend hit %d times", backend.TotalHits())
	}
}

func TestWebcamCommand_ToggleAuto(t *testing.T) {
	backend := testutil.NewFakeBackend(t)

	stdout, _, err := executeCommand(t, "a\na\nq\n", "webcam", "--api-url", backend.URL, "--frames-dir", frameDir(t))
	if err != nil {
		t.Fatalf("webcam error = %v", err)
	}
	if !strings.Contains(stdout, "Automatic capture on (1.0 Hz)") || !strings.Contains(stdout, "Automatic capture off") {
		t.Errorf("output should show auto toggling:\n%s", stdout)
	}
}

func TestWebcamCommand_CaptureError(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	backend.SetResponse(testutil.PathPredictBase64, testutil.Response{Status: 500, Body: `{"error":"model crashed"}`})

	stdout, _, err := executeCommand(t, "c\nq\n", "webcam", "--api-url", backend.URL, "--frames-dir", frameDir(t))
	if err != nil {
		t.Fatalf("a failed capture should not fail the command: %v", err)
	}
	if !strings.Contains(stdout, "model crashed") {
		t.Errorf("output should show the capture error:\n%s", stdout)
	}
}

func TestWebcamCommand_Headless(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	out := filepath.Join(t.TempDir(), "captures.json")

	_, _, err := executeCommand(t, "", "webcam", "--api-url", backend.URL, "--frames-dir", frameDir(t),
		"--auto", "--rate", "5", "--duration", "700ms", "--out", out)
	if err != nil {
		t.Fatalf("webcam error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	var report export.Report
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("invalid report: %v", err)
	}
	if report.Modality != internal.ModalityWebcam {
		t.Errorf("Modality = %q, want webcam", report.Modality)
	}
	if len(report.History) == 0 || len(report.History) > internal.HistoryCapacity {
		t.Errorf("len(History) = %d, want 1..%d", len(report.History), internal.HistoryCapacity)
	}
	if report.Stats == nil || report.Stats.Accepted == 0 {
		t.Errorf("Stats = %+v, want accepted captures", report.Stats)
	}
	if got := backend.Hits(testutil.PathPredictBase64); uint64(got) != report.Stats.Accepted {
		t.Errorf("backend hits = %d, accepted = %d", got, report.Stats.Accepted)
	}
}

func TestWebcamCommand_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{"duration without auto", []string{"--duration", "1s"}, "--duration requires --auto"},
		{"empty frames dir", []string{"--frames-dir", "EMPTY"}, "failed to start camera"},
		{"positional args", []string{"extra"}, "unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := testutil.NewFakeBackend(t)
			args := []string{"webcam", "--api-url", backend.URL}
			for _, a := range tt.args {
				if a == "EMPTY" {
					a = t.TempDir()
				}
				args = append(args, a)
			}
			_, _, err := executeCommand(t, "q\n", args...)
			if err == nil || !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Execute() error = %v, want message containing %q", err, tt.wantMsg)
			}
		})
	}
}

func TestHandleControl_Quit(t *testing.T) {
	for _, line := range []string{"q", "quit"} {
		if handleControl(line, nil, &livePrinter{}) {
			t.Errorf("handleControl(%q) = true, want false", line)
		}
	}
}
