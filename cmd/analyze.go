package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/iksnae/deepfake-detect/internal"
	"github.com/iksnae/deepfake-detect/internal/export"
	"github.com/spf13/cobra"
)

var (
	reportFormat string
	reportOut    string
	retries      int
)

func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&reportFormat, "format", "f", "", "Report format: json, jsonl, md, yaml (printed to stdout unless --out is set)")
	cmd.Flags().StringVarP(&reportOut, "out", "o", "", "Write the report to this file (format from --format or the file extension)")
}

// reportTarget resolves the export format. An empty format means no report
// was requested.
func reportTarget() (format string, err error) {
	format = reportFormat
	if format == "" && reportOut != "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(reportOut)), ".")
		if format == "" {
			format = "json"
		}
	}
	if format == "" {
		return "", nil
	}
	if _, err := export.NewExporter(format); err != nil {
		return "", err
	}
	return format, nil
}

// writeReport exports report to --out, or to w when only --format is set
func writeReport(w io.Writer, format string, report *export.Report) error {
	if format == "" {
		return nil
	}
	if reportOut != "" {
		if err := export.WriteFile(report, format, reportOut); err != nil {
			return err
		}
		internal.PrintSuccess(w, fmt.Sprintf("Report written to %s", reportOut))
		return nil
	}
	exporter, err := export.NewExporter(format)
	if err != nil {
		return err
	}
	return exporter.Export(report, w)
}

// retryable reports whether a failed attempt may succeed if resubmitted
func retryable(err error) bool {
	return internal.IsKind(err, internal.KindUnreachable) || internal.IsKind(err, internal.KindServerRejected)
}

// runAnalysis stages one file, submits it and renders the outcome. frames
// limits the per-frame listing of a video result.
func runAnalysis(cmd *cobra.Command, modality internal.Modality, args []string, frames int) error {
	format, err := reportTarget()
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	stager := internal.NewStager(internal.NewPreviewRegistry())
	session, err := internal.NewSession(modality, newClient(cfg), stager)
	if err != nil {
		return err
	}
	defer session.Close()

	// A report on stdout must stay machine-readable
	out := cmd.OutOrStdout()
	human := out
	if format != "" && reportOut == "" {
		human = cmd.ErrOrStderr()
	}

	if err := session.Stage(args); err != nil {
		return fmt.Errorf("cannot analyze: %s", internal.UserMessage(err))
	}
	staged := session.Snapshot().Asset
	renderAsset(human, staged)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	message := fmt.Sprintf("Analyzing %s...", staged.OriginalName)
	err = submit(ctx, session, message)
	for attempt := 1; err != nil && attempt <= retries && retryable(err) && ctx.Err() == nil; attempt++ {
		internal.PrintWarning(human, fmt.Sprintf("%s (retry %d/%d)", internal.UserMessage(err), attempt, retries))
		if rerr := session.Retry(); rerr != nil {
			return rerr
		}
		err = submit(ctx, session, message)
	}

	snap := session.Snapshot()
	report := export.FromSnapshot(modality, snap)

	if snap.State == internal.StateFailed {
		internal.PrintError(human, snap.Message())
		if werr := writeReport(out, format, report); werr != nil {
			internal.LogWarn("Failed to write report: %v", werr)
		}
		return fmt.Errorf("analysis failed: %s", snap.Message())
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("analysis cancelled")
		}
		return err
	}

	fmt.Fprintln(human)
	switch {
	case snap.Result.Aggregate != nil:
		renderAggregate(human, *snap.Result.Aggregate, frames)
	case snap.Result.Verdict != nil:
		renderVerdict(human, *snap.Result.Verdict)
	}

	return writeReport(out, format, report)
}

func submit(ctx context.Context, session *internal.Session, message string) error {
	return internal.ShowProgress(ctx, message, func() error {
		return session.Submit(ctx)
	})
}
