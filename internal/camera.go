package internal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

// FrameSource produces still frames for the live-capture modality
type FrameSource interface {
	// Device identifies the underlying device for exclusive locking
	Device() string
	Open(ctx context.Context) error
	Grab(ctx context.Context) ([]byte, error)
	Close() error
}

var (
	cameraMu    sync.Mutex
	cameraLocks = make(map[string]struct{})
)

// AcquireCamera takes the process-wide lock for device
func AcquireCamera(device string) error {
	cameraMu.Lock()
	defer cameraMu.Unlock()
	if _, held := cameraLocks[device]; held {
		return &CameraError{Device: device, Op: "open", Err: ErrCameraBusy}
	}
	cameraLocks[device] = struct{}{}
	return nil
}

// ReleaseCamera frees the lock for device. Releasing an unheld device is a no-op.
func ReleaseCamera(device string) {
	cameraMu.Lock()
	defer cameraMu.Unlock()
	delete(cameraLocks, device)
}

// CheckFFmpeg verifies that ffmpeg is installed and accessible
func CheckFFmpeg() error {
	cmd := exec.Command("ffmpeg", "-version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg is not installed or not in PATH: %w", err)
	}
	return nil
}

// DefaultCameraFormat returns the ffmpeg capture input format for the host OS
func DefaultCameraFormat() string {
	switch runtime.GOOS {
	case "darwin":
		return "avfoundation"
	case "windows":
		return "dshow"
	default:
		return "v4l2"
	}
}

// DefaultCameraDevice returns the conventional first camera for the host OS
func DefaultCameraDevice() string {
	switch runtime.GOOS {
	case "darwin":
		return "0"
	case "windows":
		return "Integrated Camera"
	default:
		return "/dev/video0"
	}
}

// FFmpegCamera grabs single JPEG stills from a capture device by running
// ffmpeg once per frame.
type FFmpegCamera struct {
	device string
	format string
	size   string

	mu     sync.Mutex
	opened bool
}

// NewFFmpegCamera creates a camera for device using the given ffmpeg input
// format. Empty values fall back to the host defaults.
func NewFFmpegCamera(device, format string) *FFmpegCamera {
	if device == "" {
		device = DefaultCameraDevice()
	}
	if format == "" {
		format = DefaultCameraFormat()
	}
	return &FFmpegCamera{device: device, format: format, size: "640x480"}
}

func (c *FFmpegCamera) Device() string {
	return c.device
}

// Open checks that ffmpeg is usable. The device itself is opened per grab.
func (c *FFmpegCamera) Open(ctx context.Context) error {
	if err := CheckFFmpeg(); err != nil {
		return &CameraError{Device: c.device, Op: "open", Err: err}
	}
	c.mu.Lock()
	c.opened = true
	c.mu.Unlock()
	return nil
}

// Grab captures one frame as JPEG
func (c *FFmpegCamera) Grab(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	opened := c.opened
	c.mu.Unlock()
	if !opened {
		return nil, &CameraError{Device: c.device, Op: "grab", Err: ErrCameraStopped}
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", c.args()...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return nil, &CameraError{Device: c.device, Op: "grab", Err: err}
	}
	if stdout.Len() == 0 {
		return nil, &CameraError{Device: c.device, Op: "grab", Err: errors.New("ffmpeg produced no frame")}
	}
	return stdout.Bytes(), nil
}

func (c *FFmpegCamera) args() []string {
	input := c.device
	if c.format == "dshow" {
		input = "video=" + c.device
	}
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", c.format,
		"-video_size", c.size,
		"-i", input,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-",
	}
}

func (c *FFmpegCamera) Close() error {
	c.mu.Lock()
	c.opened = false
	c.mu.Unlock()
	return nil
}

// DirectorySource cycles through the JPEG and PNG files of a directory in
// name order. It stands in for a camera in headless runs.
type DirectorySource struct {
	dir string

	mu    sync.Mutex
	files []string
	next  int
}

// NewDirectorySource creates a source over dir
func NewDirectorySource(dir string) *DirectorySource {
	return &DirectorySource{dir: dir}
}

func (d *DirectorySource) Device() string {
	return "dir:" + d.dir
}

// Open lists the frames in the directory
func (d *DirectorySource) Open(ctx context.Context) error {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return &CameraError{Device: d.Device(), Op: "open", Err: err}
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			files = append(files, filepath.Join(d.dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return &CameraError{Device: d.Device(), Op: "open", Err: errors.New("no JPEG or PNG frames found")}
	}

	d.mu.Lock()
	d.files = files
	d.next = 0
	d.mu.Unlock()
	return nil
}

// Grab returns the next frame, wrapping around at the end
func (d *DirectorySource) Grab(ctx context.Context) ([]byte, error) {
	d.mu.Lock()
	if len(d.files) == 0 {
		d.mu.Unlock()
		return nil, &CameraError{Device: d.Device(), Op: "grab", Err: ErrCameraStopped}
	}
	path := d.files[d.next]
	d.next = (d.next + 1) % len(d.files)
	d.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &CameraError{Device: d.Device(), Op: "grab", Err: err}
	}
	return data, nil
}

func (d *DirectorySource) Close() error {
	d.mu.Lock()
	d.files = nil
	d.next = 0
	d.mu.Unlock()
	return nil
}
