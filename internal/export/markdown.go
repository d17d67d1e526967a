package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iksnae/deepfake-detect/internal"
)

// MarkdownExporter exports reports in Markdown format
type MarkdownExporter struct{}

// Export exports a report to Markdown format
func (e *MarkdownExporter) Export(report *Report, w io.Writer) error {
	// Header
	_, _ = fmt.Fprintf(w, "# Deepfake Detection Report\n\n")
	_, _ = fmt.Fprintf(w, "**Report:** %s  \n", report.ID)
	_, _ = fmt.Fprintf(w, "**Modality:** %s  \n", report.Modality)
	_, _ = fmt.Fprintf(w, "**Generated:** %s  \n", report.GeneratedAt.Format(time.RFC3339))
	if report.Source != "" {
		_, _ = fmt.Fprintf(w, "**Source:** %s  \n", escapeMarkdown(report.Source))
	}
	if report.SizeBytes > 0 {
		_, _ = fmt.Fprintf(w, "**Size:** %s  \n", internal.FormatSize(report.SizeBytes))
	}
	_, _ = fmt.Fprintf(w, "\n")

	if report.Error != "" {
		_, _ = fmt.Fprintf(w, "## Error\n\n%s\n\n", escapeMarkdown(report.Error))
	}

	if v := report.Verdict; v != nil {
		_, _ = fmt.Fprintf(w, "## Verdict\n\n")
		writeVerdict(w, *v)
	}

	if agg := report.Aggregate; agg != nil {
		_, _ = fmt.Fprintf(w, "## Overall\n\n")
		writeVerdict(w, agg.Overall)
		_, _ = fmt.Fprintf(w, "**Frames analyzed:** %d (%d fake)\n\n", agg.FramesAnalyzed, agg.FakeFrames())

		if len(agg.Frames) > 0 {
			_, _ = fmt.Fprintf(w, "## Frames\n\n")
			_, _ = fmt.Fprintf(w, "| Frame | Label | Confidence |\n|---|---|---|\n")
			for _, f := range agg.Frames {
				_, _ = fmt.Fprintf(w, "| %s | %s | %s |\n", f.FrameLabel(), f.Label, f.Percent())
			}
			_, _ = fmt.Fprintf(w, "\n")
		}
	}

	if len(report.History) > 0 {
		_, _ = fmt.Fprintf(w, "## Capture History\n\n")
		_, _ = fmt.Fprintf(w, "| # | Captured | Label | Confidence |\n|---|---|---|---|\n")
		for _, entry := range report.History {
			_, _ = fmt.Fprintf(w, "| %d | %s | %s | %s |\n",
				entry.ID, entry.CapturedAt.Format("15:04:05"), entry.Verdict.Label, entry.Verdict.Percent())
		}
		_, _ = fmt.Fprintf(w, "\n")
	}

	if s := report.Stats; s != nil {
		_, _ = fmt.Fprintf(w, "**Captures:** %d accepted, %d dropped\n", s.Accepted, s.Dropped)
	}

	return nil
}

func writeVerdict(w io.Writer, v internal.Verdict) {
	_, _ = fmt.Fprintf(w, "**%s** with %s confidence (%s)\n\n", v.Label, v.Percent(), internal.ConfidenceTier(v.Confidence))
}

// escapeMarkdown escapes markdown emphasis and table syntax in free text
func escapeMarkdown(text string) string {
	text = strings.ReplaceAll(text, "**", "\\*\\*")
	text = strings.ReplaceAll(text, "__", "\\_\\_")
	return strings.ReplaceAll(text, "|", "\\|")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
