package internal

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestSetLogLevel(t *testing.T) {
	originalLevel := logLevel
	defer func() { logLevel = originalLevel }()

	SetLogLevel(LogLevelDebug)
	if logLevel != LogLevelDebug {
		t.Errorf("SetLogLevel() logLevel = %v, want LogLevelDebug", logLevel)
	}

	SetLogLevel(LogLevelError)
	if logLevel != LogLevelError {
		t.Errorf("SetLogLevel() logLevel = %v, want LogLevelError", logLevel)
	}
}

func TestSetVerbose(t *testing.T) {
	originalLevel := logLevel
	defer func() { logLevel = originalLevel }()

	SetVerbose(true)
	if logLevel != LogLevelDebug {
		t.Errorf("SetVerbose(true) logLevel = %v, want LogLevelDebug", logLevel)
	}

	SetVerbose(false)
	if logLevel != LogLevelInfo {
		t.Errorf("SetVerbose(false) logLevel = %v, want LogLevelInfo", logLevel)
	}
}

func TestLogLevelFiltering(t *testing.T) {
	originalLevel := logLevel
	var buf bytes.Buffer
	SetLogOutput(&buf)
	defer func() {
		logLevel = originalLevel
		SetLogOutput(os.Stderr)
	}()

	SetLogLevel(LogLevelWarn)
	LogDebug("hidden debug")
	LogInfo("hidden info")
	LogWarn("visible warning")
	LogError("visible error")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("messages below the level should be dropped, got: %q", out)
	}
	if !strings.Contains(out, "[WARN] visible warning") {
		t.Errorf("warning should be logged, got: %q", out)
	}
	if !strings.Contains(out, "[ERROR] visible error") {
		t.Errorf("error should be logged, got: %q", out)
	}
}

func TestLogLevels(t *testing.T) {
	if LogLevelError >= LogLevelWarn {
		t.Error("LogLevelError should be less than LogLevelWarn")
	}
	if LogLevelWarn >= LogLevelInfo {
		t.Error("LogLevelWarn should be less than LogLevelInfo")
	}
	if LogLevelInfo >= LogLevelDebug {
		t.Error("LogLevelInfo should be less than LogLevelDebug")
	}
}
