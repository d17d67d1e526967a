package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/deepfake-detect/internal"
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// labelStyle colours a verdict label: red for Fake, green for Real
func labelStyle(v internal.Verdict) lipgloss.Style {
	if v.IsFake {
		return errorStyle
	}
	return successStyle
}

func tierStyle(t internal.Tier) lipgloss.Style {
	switch t {
	case internal.TierHigh:
		return successStyle
	case internal.TierMedium:
		return warningStyle
	default:
		return dimStyle
	}
}

// formatVerdict renders "Fake  87.0% (High)"
func formatVerdict(v internal.Verdict) string {
	tier := internal.ConfidenceTier(v.Confidence)
	return fmt.Sprintf("%s  %s %s",
		labelStyle(v).Render(string(v.Label)),
		v.Percent(),
		tierStyle(tier).Render("("+string(tier)+")"))
}

func renderAsset(w io.Writer, asset *internal.MediaAsset) {
	if asset == nil {
		return
	}
	fmt.Fprintf(w, "%s %s (%s, %s)\n",
		infoStyle.Render("File:"), asset.OriginalName, asset.MIMEType, internal.FormatSize(asset.SizeBytes))
}

func renderVerdict(w io.Writer, v internal.Verdict) {
	fmt.Fprintln(w, sectionStyle.Render("Result"))
	fmt.Fprintf(w, "  Verdict:    %s\n", formatVerdict(v))
	if v.IsFake {
		fmt.Fprintln(w, "  "+errorStyle.Render("This media is likely manipulated."))
	} else {
		fmt.Fprintln(w, "  "+successStyle.Render("This media appears authentic."))
	}
}

// renderAggregate prints the overall verdict and up to limit frames.
// limit <= 0 shows every frame.
func renderAggregate(w io.Writer, a internal.AggregateResult, limit int) {
	fmt.Fprintln(w, sectionStyle.Render("Result"))
	fmt.Fprintf(w, "  Overall:    %s\n", formatVerdict(a.Overall))
	fmt.Fprintf(w, "  Frames:     %d analyzed, %d fake\n", a.FramesAnalyzed, a.FakeFrames())

	if len(a.Frames) == 0 {
		return
	}
	shown := a.Frames
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	fmt.Fprintln(w)
	for _, f := range shown {
		fmt.Fprintf(w, "  %-10s %s\n", f.FrameLabel(), formatVerdict(f))
	}
	if hidden := len(a.Frames) - len(shown); hidden > 0 {
		fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("  ... and %d more frames", hidden)))
	}
}

func renderHistory(w io.Writer, entries []internal.HistoryEntry) {
	fmt.Fprintln(w, sectionStyle.Render(fmt.Sprintf("History (%d)", len(entries))))
	if len(entries) == 0 {
		fmt.Fprintln(w, dimStyle.Render("  No captures yet"))
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "  %s  %s\n", e.CapturedAt.Local().Format("15:04:05"), formatVerdict(e.Verdict))
	}
}

// renderCapture prints one live-capture line
func renderCapture(w io.Writer, snap internal.WebcamSnapshot) {
	if snap.Err != nil {
		fmt.Fprintf(w, "%s %s\n", errorStyle.Render("✗"), internal.UserMessage(snap.Err))
		return
	}
	if snap.Current == nil {
		return
	}
	fmt.Fprintf(w, "%s %s\n", dimStyle.Render(fmt.Sprintf("[%d]", snap.Stats.Accepted)), formatVerdict(*snap.Current))
}
