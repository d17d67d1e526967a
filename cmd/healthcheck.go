package cmd

import (
	"fmt"

	"github.com/iksnae/deepfake-detect/internal"
	"github.com/spf13/cobra"
)

var (
	healthcheckVerbose bool
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that the detection backend and camera tooling are usable",
	Long: `Check the health of deepfake-detect by verifying:
  • Configuration file, environment and flags
  • Detection backend reachability
  • ffmpeg availability for camera capture

This command is useful for debugging connection problems before analyzing media.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, sectionStyle.Render("🔍 Deepfake Detect Health Check"))
		fmt.Fprintln(out)

		// Step 1: Configuration
		fmt.Fprintln(out, infoStyle.Render("Step 1: Loading configuration..."))
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Invalid configuration:"), err)
			return fmt.Errorf("configuration check failed: %w", err)
		}
		fmt.Fprintln(out, successStyle.Render("✅ Configuration valid"))
		if healthcheckVerbose {
			fmt.Fprintf(out, "   Backend: %s\n", cfg.APIURL)
			fmt.Fprintf(out, "   Timeout: %v\n", cfg.Timeout)
			fmt.Fprintf(out, "   Capture rate: %.1f Hz\n", cfg.Rate)
			fmt.Fprintf(out, "   Camera: %s (%s)\n", cfg.Camera.Device, cfg.Camera.Format)
		}
		fmt.Fprintln(out)

		// Step 2: Backend
		fmt.Fprintln(out, infoStyle.Render("Step 2: Contacting detection backend..."))
		status, err := newClient(cfg).Ping(cmd.Context())
		backendOK := err == nil
		if backendOK {
			fmt.Fprintln(out, successStyle.Render("✅ Backend reachable"))
			if healthcheckVerbose {
				fmt.Fprintf(out, "   GET %s/ answered %d\n", cfg.APIURL, status)
			}
		} else {
			fmt.Fprintln(out, errorStyle.Render("❌ Backend unreachable:"), internal.UserMessage(err))
			if healthcheckVerbose {
				fmt.Fprintf(out, "   URL: %s\n", cfg.APIURL)
				fmt.Fprintln(out, "   Start the backend or set --api-url / DEEPFAKE_API_URL")
			}
		}
		fmt.Fprintln(out)

		// Step 3: ffmpeg
		fmt.Fprintln(out, infoStyle.Render("Step 3: Checking ffmpeg for camera capture..."))
		if err := internal.CheckFFmpeg(); err != nil {
			fmt.Fprintln(out, warningStyle.Render("⚠️  ffmpeg not available"))
			if healthcheckVerbose {
				fmt.Fprintf(out, "   %v\n", err)
				fmt.Fprintln(out, "   The webcam command needs ffmpeg unless --frames-dir is used")
			}
		} else {
			fmt.Fprintln(out, successStyle.Render("✅ ffmpeg found"))
		}
		fmt.Fprintln(out)

		// Summary
		fmt.Fprintln(out, sectionStyle.Render("📊 Summary"))
		fmt.Fprintln(out)
		if !backendOK {
			fmt.Fprintln(out, errorStyle.Render("❌ Health check failed: backend unreachable"))
			return fmt.Errorf("backend unreachable at %s", cfg.APIURL)
		}
		fmt.Fprintln(out, successStyle.Render("✅ Health check passed: ready to analyze media"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVarP(&healthcheckVerbose, "verbose", "v", false, "Show detailed information")
}
