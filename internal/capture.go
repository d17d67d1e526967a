package internal

import (
	"sync"
	"time"
)

const (
	MinCaptureRate     = 0.5
	MaxCaptureRate     = 5.0
	DefaultCaptureRate = 1.0
)

// RepeatingTask calls fn once per interval on a single goroutine. The
// interval is re-read before every wait, so changes apply from the next
// cycle. Start and Stop are symmetric; once Stop returns, fn will not be
// called again until the next Start.
type RepeatingTask struct {
	interval func() time.Duration
	fn       func()

	mu     sync.Mutex
	stopCh chan struct{}
	done   chan struct{}
}

// NewRepeatingTask creates a stopped task
func NewRepeatingTask(interval func() time.Duration, fn func()) *RepeatingTask {
	return &RepeatingTask{interval: interval, fn: fn}
}

// Start launches the timer goroutine. It returns false if already running.
func (t *RepeatingTask) Start() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopCh != nil {
		return false
	}
	t.stopCh = make(chan struct{})
	t.done = make(chan struct{})
	go t.run(t.stopCh, t.done)
	return true
}

// Stop halts the task and waits for the goroutine to exit, including any
// fn call in progress. It must not be called from inside fn.
func (t *RepeatingTask) Stop() {
	t.mu.Lock()
	if t.stopCh == nil {
		t.mu.Unlock()
		return
	}
	close(t.stopCh)
	done := t.done
	t.stopCh = nil
	t.done = nil
	t.mu.Unlock()

	<-done
}

// Running reports whether the task is started
func (t *RepeatingTask) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopCh != nil
}

func (t *RepeatingTask) run(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		timer := time.NewTimer(t.interval())
		select {
		case <-stopCh:
			timer.Stop()
			return
		case <-timer.C:
		}

		// Stop may have raced with the timer firing.
		select {
		case <-stopCh:
			return
		default:
		}
		t.fn()
	}
}

// CaptureLoop drives capture-and-classify attempts for one webcam session.
// At most one attempt is in flight; attempts that arrive meanwhile are
// dropped, never queued.
type CaptureLoop struct {
	work func()

	mu       sync.Mutex
	rateHz   float64
	inFlight bool
	accepted uint64
	dropped  uint64
	wg       sync.WaitGroup

	task *RepeatingTask
}

// NewCaptureLoop creates a loop that runs work for every accepted attempt.
// work runs on its own goroutine and should block until its result has been
// applied.
func NewCaptureLoop(rateHz float64, work func()) *CaptureLoop {
	l := &CaptureLoop{
		work:   work,
		rateHz: ClampRate(rateHz),
	}
	l.task = NewRepeatingTask(l.Interval, func() { l.Trigger() })
	return l
}

// ClampRate limits a capture rate to [MinCaptureRate, MaxCaptureRate]
func ClampRate(hz float64) float64 {
	switch {
	case hz < MinCaptureRate:
		return MinCaptureRate
	case hz > MaxCaptureRate:
		return MaxCaptureRate
	default:
		return hz
	}
}

// Trigger starts a capture attempt unless one is already in flight. It reports
// whether the attempt was accepted.
func (l *CaptureLoop) Trigger() bool {
	l.mu.Lock()
	if l.inFlight {
		l.dropped++
		l.mu.Unlock()
		LogDebug("Capture dropped: previous classification still in flight")
		return false
	}
	l.inFlight = true
	l.accepted++
	l.wg.Add(1)
	l.mu.Unlock()

	go func() {
		defer func() {
			l.mu.Lock()
			l.inFlight = false
			l.mu.Unlock()
			l.wg.Done()
		}()
		l.work()
	}()
	return true
}

// Wait blocks until no attempt is in flight
func (l *CaptureLoop) Wait() {
	l.wg.Wait()
}

// InFlight reports whether an attempt is running
func (l *CaptureLoop) InFlight() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inFlight
}

// SetRate changes the automatic capture rate; it is clamped to the
// supported range and takes effect on the next cycle.
func (l *CaptureLoop) SetRate(hz float64) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rateHz = ClampRate(hz)
	return l.rateHz
}

// Rate returns the automatic capture rate in Hz
func (l *CaptureLoop) Rate() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rateHz
}

// Interval returns the period between automatic attempts
func (l *CaptureLoop) Interval() time.Duration {
	return time.Duration(float64(time.Second) / l.Rate())
}

// StartAuto enables automatic capture. Returns false if already enabled.
func (l *CaptureLoop) StartAuto() bool {
	return l.task.Start()
}

// StopAuto disables automatic capture; no automatic attempt starts after
// it returns. An attempt already in flight is not interrupted.
func (l *CaptureLoop) StopAuto() {
	l.task.Stop()
}

// Auto reports whether automatic capture is enabled
func (l *CaptureLoop) Auto() bool {
	return l.task.Running()
}

// CaptureStats counts accepted and dropped attempts
type CaptureStats struct {
	Accepted uint64 `json:"accepted" yaml:"accepted"`
	Dropped  uint64 `json:"dropped" yaml:"dropped"`
}

// Stats returns attempt counters
func (l *CaptureLoop) Stats() CaptureStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return CaptureStats{Accepted: l.accepted, Dropped: l.dropped}
}
