package internal

import (
	"context"
	"sync"
	"time"
)

// WebcamSnapshot is an immutable view of a live-capture session
type WebcamSnapshot struct {
	Streaming bool
	Auto      bool
	RateHz    float64
	Analyzing bool
	Current   *Verdict
	Err       error
	History   []HistoryEntry
	Stats     CaptureStats
}

// WebcamSession ties a frame source, the capture loop and the history
// together. Analyzing is transient per capture; the current result is a
// single slot overwritten by every completed classification.
type WebcamSession struct {
	classifier Classifier
	stager     *Stager
	source     FrameSource
	loop       *CaptureLoop
	history    *History

	mu        sync.Mutex
	ctx       context.Context
	streaming bool
	analyzing bool
	gen       uint64 // bumped on Stop; results from older generations are discarded
	current   *Verdict
	lastErr   error
	closed    bool
	onChange  func(WebcamSnapshot)
}

// NewWebcamSession creates a stopped session capturing from source at rateHz
func NewWebcamSession(classifier Classifier, stager *Stager, source FrameSource, rateHz float64) *WebcamSession {
	w := &WebcamSession{
		classifier: classifier,
		stager:     stager,
		source:     source,
		history:    NewHistory(HistoryCapacity),
		ctx:        context.Background(),
	}
	w.loop = NewCaptureLoop(rateHz, w.captureOnce)
	return w
}

// OnChange registers fn to receive a snapshot after every capture result
// and lifecycle change. fn is called without the session lock held and may
// run on a capture goroutine.
func (w *WebcamSession) OnChange(fn func(WebcamSnapshot)) {
	w.mu.Lock()
	w.onChange = fn
	w.mu.Unlock()
}

// Start acquires the camera exclusively and begins streaming. ctx bounds
// every capture made while streaming.
func (w *WebcamSession) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrSessionClosed
	}
	if w.streaming {
		return nil
	}

	device := w.source.Device()
	if err := AcquireCamera(device); err != nil {
		return err
	}
	if err := w.source.Open(ctx); err != nil {
		ReleaseCamera(device)
		return err
	}

	w.ctx = ctx
	w.streaming = true
	w.lastErr = nil
	LogInfo("Camera %s started", device)
	return nil
}

// Stop disables automatic capture, releases the camera and clears the
// current result. A capture already dispatched may complete; its result is
// discarded. History is kept until ClearHistory or Close.
func (w *WebcamSession) Stop() {
	w.mu.Lock()
	if !w.streaming {
		w.mu.Unlock()
		return
	}
	w.streaming = false
	w.analyzing = false
	w.current = nil
	w.gen++
	w.mu.Unlock()

	// The timer callback takes w.mu, so it must be stopped unlocked.
	w.loop.StopAuto()

	device := w.source.Device()
	if err := w.source.Close(); err != nil {
		LogWarn("Failed to close camera %s: %v", device, err)
	}
	ReleaseCamera(device)
	LogInfo("Camera %s stopped", device)

	w.emit()
}

// Capture requests one manual capture. It reports false without error when
// the attempt was dropped because a classification is in flight.
func (w *WebcamSession) Capture() (bool, error) {
	if !w.Streaming() {
		return false, ErrCameraStopped
	}
	return w.loop.Trigger(), nil
}

// SetAuto switches automatic capture on or off
func (w *WebcamSession) SetAuto(on bool) error {
	if !on {
		w.loop.StopAuto()
		w.emit()
		return nil
	}
	if !w.Streaming() {
		return ErrCameraStopped
	}
	if w.loop.StartAuto() {
		LogInfo("Automatic capture at %.1f Hz", w.loop.Rate())
	}
	w.emit()
	return nil
}

// SetRate changes the automatic capture rate, clamped to [0.5, 5] Hz
func (w *WebcamSession) SetRate(hz float64) float64 {
	rate := w.loop.SetRate(hz)
	w.emit()
	return rate
}

// Rate returns the automatic capture rate
func (w *WebcamSession) Rate() float64 {
	return w.loop.Rate()
}

// Auto reports whether automatic capture is on
func (w *WebcamSession) Auto() bool {
	return w.loop.Auto()
}

// Streaming reports whether the camera is held
func (w *WebcamSession) Streaming() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.streaming
}

// CurrentResult returns the most recent verdict, or nil
func (w *WebcamSession) CurrentResult() *Verdict {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current == nil {
		return nil
	}
	v := *w.current
	return &v
}

// LastError returns the error of the most recent capture, or nil
func (w *WebcamSession) LastError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// History returns the rolling history, newest first
func (w *WebcamSession) History() []HistoryEntry {
	return w.history.Entries()
}

// ClearHistory empties the history and the current result
func (w *WebcamSession) ClearHistory() {
	w.mu.Lock()
	w.history.Clear()
	w.current = nil
	w.mu.Unlock()
	w.emit()
}

// Stats returns accepted and dropped capture counts
func (w *WebcamSession) Stats() CaptureStats {
	return w.loop.Stats()
}

// Wait blocks until no capture is in flight
func (w *WebcamSession) Wait() {
	w.loop.Wait()
}

// Snapshot returns the current view of the session
func (w *WebcamSession) Snapshot() WebcamSnapshot {
	w.mu.Lock()
	snap := WebcamSnapshot{
		Streaming: w.streaming,
		Analyzing: w.analyzing,
		Err:       w.lastErr,
	}
	if w.current != nil {
		v := *w.current
		snap.Current = &v
	}
	w.mu.Unlock()

	snap.Auto = w.loop.Auto()
	snap.RateHz = w.loop.Rate()
	snap.History = w.history.Entries()
	snap.Stats = w.loop.Stats()
	return snap
}

// Close stops the camera and drops all session state
func (w *WebcamSession) Close() {
	w.Stop()
	w.mu.Lock()
	w.closed = true
	w.onChange = nil
	w.current = nil
	w.lastErr = nil
	w.mu.Unlock()
	w.history.Clear()
}

// captureOnce is the capture loop's work function: grab, stage, classify,
// apply. It runs on its own goroutine, at most one at a time.
func (w *WebcamSession) captureOnce() {
	w.mu.Lock()
	if !w.streaming {
		w.mu.Unlock()
		return
	}
	gen := w.gen
	ctx := w.ctx
	w.analyzing = true
	w.mu.Unlock()
	w.emit()

	capturedAt := time.Now()
	var (
		verdict Verdict
		asset   *MediaAsset
	)
	frame, err := w.source.Grab(ctx)
	if err == nil {
		asset, err = w.stager.StageCameraFrame(frame)
	}
	if err == nil {
		verdict, err = w.classifier.ClassifyImageInline(ctx, asset.DisplayURI)
	}

	w.mu.Lock()
	if gen != w.gen {
		w.mu.Unlock()
		LogDebug("Discarding capture result: camera was stopped")
		return
	}
	w.analyzing = false
	if err != nil {
		w.lastErr = err
		w.mu.Unlock()
		LogWarn("Capture failed: %v", err)
		w.emit()
		return
	}
	w.current = &verdict
	w.lastErr = nil
	entry := w.history.Push(capturedAt, verdict, asset.DisplayURI)
	w.mu.Unlock()

	LogDebug("Capture %d: %s %s", entry.ID, verdict.Label, verdict.Percent())
	w.emit()
}

func (w *WebcamSession) emit() {
	w.mu.Lock()
	fn := w.onChange
	w.mu.Unlock()
	if fn != nil {
		fn(w.Snapshot())
	}
}
