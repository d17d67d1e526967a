package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	progressStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	elapsedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// ShowProgress runs fn while a spinner with the elapsed time is drawn on
// stderr. Without a terminal the message is logged and fn runs plainly.
func ShowProgress(ctx context.Context, message string, fn func() error) error {
	if !isTerminal(os.Stderr) {
		LogInfo(message)
		return fn()
	}
	return showSpinner(ctx, os.Stderr, message, fn)
}

func showSpinner(ctx context.Context, w io.Writer, message string, fn func() error) error {
	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	start := time.Now()
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case err := <-done:
			mark := successStyle.Render("✓")
			if err != nil {
				mark = errorStyle.Render("✗")
			}
			fmt.Fprintf(w, "\r%s %s %s\n", mark, message, elapsedStyle.Render(formatElapsed(time.Since(start))))
			return err
		case <-ctx.Done():
			fmt.Fprintf(w, "\r%s %s\n", warningStyle.Render("⚠"), message)
			return ctx.Err()
		case <-ticker.C:
			frame := spinnerFrames[i%len(spinnerFrames)]
			fmt.Fprintf(w, "\r%s %s %s", progressStyle.Render(frame), message, elapsedStyle.Render(formatElapsed(time.Since(start))))
		}
	}
}

func formatElapsed(d time.Duration) string {
	return fmt.Sprintf("(%.1fs)", d.Seconds())
}

// isTerminal checks if the writer is a terminal
func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		stat, err := f.Stat()
		if err != nil {
			return false
		}
		return (stat.Mode() & os.ModeCharDevice) != 0
	}
	return false
}

// PrintSuccess prints a success message
func PrintSuccess(w io.Writer, message string) {
	if isTerminal(w) {
		fmt.Fprintf(w, "%s %s\n", successStyle.Render("✓"), message)
	} else {
		fmt.Fprintln(w, message)
	}
}

// PrintError prints an error message
func PrintError(w io.Writer, message string) {
	if isTerminal(w) {
		fmt.Fprintf(w, "%s %s\n", errorStyle.Render("✗"), message)
	} else {
		fmt.Fprintf(w, "ERROR: %s\n", message)
	}
}

// PrintInfo prints an info message
func PrintInfo(w io.Writer, message string) {
	if isTerminal(w) {
		fmt.Fprintf(w, "%s %s\n", progressStyle.Render("ℹ"), message)
	} else {
		fmt.Fprintln(w, message)
	}
}

// PrintWarning prints a warning message
func PrintWarning(w io.Writer, message string) {
	if isTerminal(w) {
		fmt.Fprintf(w, "%s %s\n", warningStyle.Render("⚠"), message)
	} else {
		fmt.Fprintf(w, "WARNING: %s\n", message)
	}
}
