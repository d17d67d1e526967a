package cmd

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iksnae/deepfake-detect/internal"
	"github.com/iksnae/deepfake-detect/testutil"
)

func TestRootCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
		wantOut string
	}{
		{
			name:    "version flag",
			args:    []string{"--version"},
			wantOut: "dev (commit: unknown",
		},
		{
			name:    "help flag",
			args:    []string{"--help"},
			wantOut: "deepfake-detect image photo.jpg",
		},
		{
			name:    "unknown command",
			args:    []string{"nonexistent-command"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := executeCommand(t, "", tt.args...)
			if (err != nil) != tt.wantErr {
				t.Errorf("rootCmd.Execute() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantOut != "" && !strings.Contains(stdout, tt.wantOut) {
				t.Errorf("output = %q, want it to contain %q", stdout, tt.wantOut)
			}
		})
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	want := map[string]bool{"image": false, "video": false, "webcam": false, "healthcheck": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("%s command not registered", name)
		}
	}
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	_, _, err := executeCommand(t, "", "healthcheck", "--api-url", backend.URL, "--timeout", "3s")
	if err != nil {
		t.Fatalf("healthcheck error = %v", err)
	}

	cfg, err := loadConfig(healthcheckCmd)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.APIURL != backend.URL {
		t.Errorf("APIURL = %q, want %q", cfg.APIURL, backend.URL)
	}
	if cfg.Timeout != 3*time.Second {
		t.Errorf("Timeout = %v, want 3s", cfg.Timeout)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"invalid api url", []string{"healthcheck", "--api-url", "ftp://example.com"}},
		{"missing config file", []string{"healthcheck", "--config", filepath.Join(t.TempDir(), "missing.yaml")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeCommand(t, "", tt.args...)
			var cfgErr *internal.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("Execute() error = %v, want *ConfigError", err)
			}
		})
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	path := testutil.WriteFile(t, t.TempDir(), "config.yaml", []byte("api_url: "+backend.URL+"\ntimeout: 5s\n"))

	stdout, _, err := executeCommand(t, "", "healthcheck", "--config", path, "-v")
	if err != nil {
		t.Fatalf("healthcheck error = %v", err)
	}
	if !strings.Contains(stdout, "Backend: "+backend.URL) {
		t.Errorf("output should show the backend from the config file, got %q", stdout)
	}
}
