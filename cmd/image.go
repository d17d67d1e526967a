package cmd

import (
	"github.com/iksnae/deepfake-detect/internal"
	"github.com/spf13/cobra"
)

// imageCmd represents the image command
var imageCmd = &cobra.Command{
	Use:   "image <file>",
	Short: "Classify a single image",
	Long: `Upload one image to the detection backend and print the verdict.

Accepted types: JPEG, PNG, GIF, BMP, WebP, up to 10 MB.
Only one file can be analyzed at a time.`,
	Example: `  deepfake-detect image portrait.jpg
  deepfake-detect image portrait.jpg --out report.md`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalysis(cmd, internal.ModalityImage, args, 0)
	},
}

func init() {
	rootCmd.AddCommand(imageCmd)
	addReportFlags(imageCmd)
	imageCmd.Flags().IntVar(&retries, "retries", 0, "Resubmit this many times when the backend is unreachable or rejects the request")
}
