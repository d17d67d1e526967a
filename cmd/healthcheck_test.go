package cmd

import (
	"strings"
	"testing"

	"github.com/iksnae/deepfake-detect/testutil"
)

func TestHealthcheckCommand(t *testing.T) {
	stdout, _, err := executeCommand(t, "", "healthcheck", "--help")
	if err != nil {
		t.Fatalf("healthcheck command failed: %v", err)
	}
	if !strings.Contains(stdout, "Detection backend reachability") {
		t.Errorf("healthcheck --help output = %q", stdout)
	}
}

func TestHealthcheckVerboseFlag(t *testing.T) {
	if healthcheckCmd.Flag("verbose") == nil {
		t.Error("healthcheck command should have --verbose flag")
	}
	if healthcheckCmd.Flags().ShorthandLookup("v") == nil {
		t.Error("healthcheck command should have -v flag")
	}
}

func TestHealthcheck_BackendReachable(t *testing.T) {
	backend := testutil.NewFakeBackend(t)

	stdout, _, err := executeCommand(t, "", "healthcheck", "--api-url", backend.URL, "-v")
	if err != nil {
		t.Fatalf("healthcheck error = %v\n%s", err, stdout)
	}
	for _, want := range []string{"Configuration valid", "Backend reachable", "answered 404", "Health check passed"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
}

func TestHealthcheck_BackendUnreachable(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	url := backend.URL
	backend.Close()

	stdout, _, err := executeCommand(t, "", "healthcheck", "--api-url", url, "--timeout", "2s")
	if err == nil {
		t.Fatal("healthcheck should fail when the backend is down")
	}
	if !strings.Contains(stdout, "Backend unreachable") {
		t.Errorf("output missing unreachable step:\n%s", stdout)
	}
	if !strings.Contains(stdout, "Health check failed") {
		t.Errorf("output missing failed summary:\n%s", stdout)
	}
}
