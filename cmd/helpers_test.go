package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// executeCommand runs rootCmd with args and stdin in an isolated home
// directory, starting from default flag values.
func executeCommand(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{"DEEPFAKE_API_URL", "DEEPFAKE_TIMEOUT", "DEEPFAKE_RATE", "DEEPFAKE_CAMERA_DEVICE", "DEEPFAKE_CAMERA_FORMAT"} {
		t.Setenv(key, "")
	}
	resetFlags(rootCmd)

	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

// resetFlags restores every flag of c and its subcommands to its default
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}
