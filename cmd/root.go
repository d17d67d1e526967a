package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/iksnae/deepfake-detect/internal"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	apiURL     string
	timeout    time.Duration
	version    string = "dev"
	commit     string = "unknown"
	date       string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "deepfake-detect",
	Short: "Check images, videos and camera frames for deepfakes",
	Long: `A command-line client for a deepfake classification service.

Submit a still image, a video file, or live camera frames to the detection
backend and get a Real/Fake verdict with a confidence score.

Features:
  • Image and video analysis with per-frame results
  • Live camera capture, manual or automatic at 0.5-5 Hz
  • Rolling history of the last 10 camera verdicts
  • Reports in JSON, JSONL, Markdown or YAML

Quick Start:
  deepfake-detect image photo.jpg              # Classify an image
  deepfake-detect video clip.mp4 --frames 5    # Classify a video
  deepfake-detect webcam --auto --rate 2       # Live camera analysis
  deepfake-detect healthcheck                  # Check backend and ffmpeg

Settings are read from ~/.deepfake-detect.yaml and DEEPFAKE_* variables.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
		internal.SetLogOutput(cmd.ErrOrStderr())
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.deepfake-detect.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Detection backend base URL (overrides config)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Request timeout (overrides config)")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// loadConfig resolves settings for a command run. An explicit --config file
// must exist; the default one is optional.
func loadConfig(cmd *cobra.Command) (*internal.Config, error) {
	path, required := configPath, true
	if path == "" {
		path, required = internal.DefaultConfigPath(), false
	}

	cfg, err := internal.LoadConfig(path, required)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.APIURL = apiURL
	}
	if flags.Changed("timeout") {
		cfg.Timeout = timeout
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	internal.LogDebug("Using backend %s (timeout %v)", cfg.APIURL, cfg.Timeout)
	return cfg, nil
}

// newClient builds the backend client for cfg
func newClient(cfg *internal.Config) *internal.Client {
	return internal.NewClient(cfg.APIURL, cfg.Timeout)
}
