package cmd

import (
	"github.com/iksnae/deepfake-detect/internal"
	"github.com/spf13/cobra"
)

var videoFrames int

// videoCmd represents the video command
var videoCmd = &cobra.Command{
	Use:   "video <file>",
	Short: "Classify a video from sampled frames",
	Long: `Upload one video to the detection backend. The backend samples frames,
classifies each one and returns an overall verdict.

Accepted types: MP4, AVI, MOV, WMV, FLV, WebM, MKV, up to 100 MB.`,
	Example: `  deepfake-detect video interview.mp4
  deepfake-detect video interview.mp4 --frames 5 --format jsonl`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalysis(cmd, internal.ModalityVideo, args, videoFrames)
	},
}

func init() {
	rootCmd.AddCommand(videoCmd)
	addReportFlags(videoCmd)
	videoCmd.Flags().IntVar(&retries, "retries", 0, "Resubmit this many times when the backend is unreachable or rejects the request")
	videoCmd.Flags().IntVar(&videoFrames, "frames", 0, "Show at most this many per-frame results (0 shows all)")
}
