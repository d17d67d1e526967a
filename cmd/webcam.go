package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/iksnae/deepfake-detect/internal"
	"github.com/iksnae/deepfake-detect/internal/export"
	"github.com/spf13/cobra"
)

var (
	cameraDevice string
	cameraFormat string
	framesDir    string
	webcamRate   float64
	webcamAuto   bool
	duration     time.Duration
)

const rateStep = 0.5

// webcamCmd represents the webcam command
var webcamCmd = &cobra.Command{
	Use:   "webcam",
	Short: "Classify live camera frames",
	Long: `Stream from a camera and classify captured frames.

Frames are grabbed with ffmpeg (v4l2 on Linux, avfoundation on macOS,
dshow on Windows), or read in turn from a folder of JPEG/PNG files with
--frames-dir. Captures run one at a time: a capture requested while the
previous one is still being classified is dropped.

Interactive keys (type a letter, then Enter):
  c  capture one frame
  a  toggle automatic capture
  +  raise the capture rate by 0.5 Hz
  -  lower the capture rate by 0.5 Hz
  h  show the last 10 results
  x  clear the history
  q  quit

With --duration the command runs headless in automatic mode and exits
when the time is up.`,
	Example: `  deepfake-detect webcam
  deepfake-detect webcam --auto --rate 2
  deepfake-detect webcam --frames-dir ./frames --auto --duration 30s --out captures.md`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := reportTarget()
		if err != nil {
			return err
		}
		if duration > 0 && !webcamAuto {
			return fmt.Errorf("--duration requires --auto")
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		rate := cfg.Rate
		if cmd.Flags().Changed("rate") {
			rate = internal.ClampRate(webcamRate)
			if rate != webcamRate {
				internal.LogWarn("Capture rate %.2f Hz is out of range, using %.1f Hz", webcamRate, rate)
			}
		}

		source := frameSource(cfg)
		stager := internal.NewStager(internal.NewPreviewRegistry())
		session := internal.NewWebcamSession(newClient(cfg), stager, source, rate)
		defer session.Close()

		out := cmd.OutOrStdout()
		human := out
		if format != "" && reportOut == "" {
			human = cmd.ErrOrStderr()
		}
		printer := &livePrinter{w: human}
		session.OnChange(printer.onChange)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		if err := session.Start(ctx); err != nil {
			return fmt.Errorf("failed to start camera: %w", err)
		}
		printer.println(successStyle.Render("Camera started:") + " " + source.Device())

		if webcamAuto {
			if err := session.SetAuto(true); err != nil {
				return err
			}
			printer.println(fmt.Sprintf("Automatic capture at %.1f Hz", session.Rate()))
		}

		if duration > 0 {
			select {
			case <-time.After(duration):
			case <-ctx.Done():
			}
		} else {
			printer.println(dimStyle.Render("Keys: c capture, a auto, +/- rate, h history, x clear, q quit"))
			runControls(ctx, cmd.InOrStdin(), session, printer)
		}

		// Let the capture in flight finish so its result is shown and exported
		_ = session.SetAuto(false)
		session.Wait()

		snap := session.Snapshot()
		stats := snap.Stats
		printer.println(fmt.Sprintf("Captures: %d accepted, %d dropped", stats.Accepted, stats.Dropped))
		session.Stop()

		return writeReport(out, format, export.FromWebcam(source.Device(), snap))
	},
}

func init() {
	rootCmd.AddCommand(webcamCmd)
	addReportFlags(webcamCmd)
	webcamCmd.Flags().StringVar(&cameraDevice, "device", "", "Camera device (default from config, e.g. /dev/video0)")
	webcamCmd.Flags().StringVar(&cameraFormat, "input-format", "", "ffmpeg input format: v4l2, avfoundation, dshow")
	webcamCmd.Flags().StringVar(&framesDir, "frames-dir", "", "Read frames from JPEG/PNG files in this folder instead of a camera")
	webcamCmd.Flags().Float64Var(&webcamRate, "rate", internal.DefaultCaptureRate, "Automatic capture rate in Hz (0.5-5)")
	webcamCmd.Flags().BoolVar(&webcamAuto, "auto", false, "Start with automatic capture on")
	webcamCmd.Flags().DurationVar(&duration, "duration", 0, "Run automatic capture for this long, then exit")
}

func frameSource(cfg *internal.Config) internal.FrameSource {
	if framesDir != "" {
		return internal.NewDirectorySource(framesDir)
	}
	device, format := cfg.Camera.Device, cfg.Camera.Format
	if cameraDevice != "" {
		device = cameraDevice
	}
	if cameraFormat != "" {
		format = cameraFormat
	}
	return internal.NewFFmpegCamera(device, format)
}

// runControls reads single-letter commands until q, end of input or ctx is done
func runControls(ctx context.Context, in io.Reader, session *internal.WebcamSession, p *livePrinter) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimSpace(scanner.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if !handleControl(line, session, p) {
				return
			}
		}
	}
}

// handleControl applies one command and reports whether to keep going
func handleControl(line string, session *internal.WebcamSession, p *livePrinter) bool {
	switch line {
	case "":
	case "q", "quit":
		return false
	case "c":
		accepted, err := session.Capture()
		switch {
		case err != nil:
			p.println(errorStyle.Render("✗") + " " + internal.UserMessage(err))
		case !accepted:
			p.println(dimStyle.Render("Capture dropped: analysis in progress"))
		}
	case "a":
		on := !session.Auto()
		if err := session.SetAuto(on); err != nil {
			p.println(errorStyle.Render("✗") + " " + internal.UserMessage(err))
			break
		}
		if on {
			p.println(fmt.Sprintf("Automatic capture on (%.1f Hz)", session.Rate()))
		} else {
			p.println("Automatic capture off")
		}
	case "+", "-":
		rate := session.Rate() + rateStep
		if line == "-" {
			rate = session.Rate() - rateStep
		}
		p.println(fmt.Sprintf("Capture rate: %.1f Hz", session.SetRate(rate)))
	case "h":
		p.do(func(w io.Writer) { renderHistory(w, session.History()) })
	case "x":
		session.ClearHistory()
		p.println("History cleared")
	default:
		p.println(warningStyle.Render("Unknown key") + fmt.Sprintf(" %q ", line) + dimStyle.Render("(c, a, +, -, h, x, q)"))
	}
	return true
}

// livePrinter serializes output from the control loop and capture goroutines
type livePrinter struct {
	mu      sync.Mutex
	w       io.Writer
	lastID  uint64
	lastErr error
}

func (p *livePrinter) println(s string) {
	p.do(func(w io.Writer) { fmt.Fprintln(w, s) })
}

func (p *livePrinter) do(fn func(w io.Writer)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p.w)
}

// onChange prints each capture outcome once
func (p *livePrinter) onChange(snap internal.WebcamSnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if snap.Analyzing || !snap.Streaming {
		return
	}
	if snap.Err != nil {
		if snap.Err != p.lastErr {
			p.lastErr = snap.Err
			renderCapture(p.w, snap)
		}
		return
	}
	if snap.Current != nil && len(snap.History) > 0 && snap.History[0].ID != p.lastID {
		p.lastID = snap.History[0].ID
		renderCapture(p.w, snap)
	}
}
