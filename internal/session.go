package internal

import (
	"context"
	"fmt"
	"sync"
)

// State is the position of a session in its submission lifecycle
type State int

const (
	StateIdle State = iota
	StateStaged
	StateAnalyzing
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStaged:
		return "staged"
	case StateAnalyzing:
		return "analyzing"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Classifier is the backend surface the sessions depend on. *Client
// implements it.
type Classifier interface {
	ClassifyImage(ctx context.Context, asset *MediaAsset) (Verdict, error)
	ClassifyImageInline(ctx context.Context, encodedImage string) (Verdict, error)
	ClassifyVideo(ctx context.Context, asset *MediaAsset) (AggregateResult, error)
}

// Snapshot is an immutable view of a session
type Snapshot struct {
	State  State
	Asset  *MediaAsset
	Result Result
	Err    error
}

// Message returns the user-facing error text of a failed session
func (s Snapshot) Message() string {
	return UserMessage(s.Err)
}

// Session is the image or video submission state machine:
// Idle -> Staged -> Analyzing -> Succeeded | Failed, back to Idle on
// Clear, and Staged -> Idle on Remove. One asset is held at a time and its
// preview is released before a replacement is created.
type Session struct {
	modality   Modality
	classifier Classifier
	stager     *Stager

	mu       sync.Mutex
	state    State
	asset    *MediaAsset
	result   Result
	err      error
	gen      uint64 // bumped whenever an in-flight result must be discarded
	closed   bool
	onChange func(Snapshot)
}

// NewSession creates an idle session for the image or video modality
func NewSession(modality Modality, classifier Classifier, stager *Stager) (*Session, error) {
	if modality != ModalityImage && modality != ModalityVideo {
		return nil, fmt.Errorf("session modality must be %s or %s, got %q", ModalityImage, ModalityVideo, modality)
	}
	return &Session{
		modality:   modality,
		classifier: classifier,
		stager:     stager,
	}, nil
}

// Modality returns the session's modality
func (s *Session) Modality() Modality {
	return s.modality
}

// OnChange registers fn to receive a snapshot after every transition.
// fn is called without the session lock held.
func (s *Session) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Stage validates paths and makes the file the session's asset. A
// validation failure leaves the session unchanged. Staging over an existing
// asset releases its preview first.
func (s *Session) Stage(paths []string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.state == StateAnalyzing {
		s.mu.Unlock()
		return ErrSessionBusy
	}

	candidate, err := s.stager.Validate(s.modality, paths)
	if err != nil {
		s.mu.Unlock()
		LogWarn("Rejected %s selection: %v", s.modality, err)
		return err
	}

	s.releaseLocked()
	s.state = StateIdle

	asset, err := s.stager.Load(candidate)
	if err != nil {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.emit(snap)
		return err
	}

	s.asset = asset
	s.state = StateStaged
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.emit(snap)
	return nil
}

// Submit classifies the staged asset and blocks until the result is
// applied. It is allowed from Staged and Failed. The classification error,
// if any, is both returned and recorded in the Failed state.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return ErrSessionClosed
	case s.state == StateAnalyzing:
		s.mu.Unlock()
		return ErrSessionBusy
	case s.asset == nil || (s.state != StateStaged && s.state != StateFailed):
		s.mu.Unlock()
		return ErrNothingStaged
	}

	s.state = StateAnalyzing
	s.result = Result{}
	s.err = nil
	gen := s.gen
	asset := s.asset
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.emit(snap)

	LogInfo("Submitting %s %s (%s)", s.modality, asset.OriginalName, FormatSize(asset.SizeBytes))
	result, err := s.classify(ctx, asset)

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		LogDebug("Discarding %s result: session was cleared", s.modality)
		return err
	}
	if err != nil {
		s.state = StateFailed
		s.err = err
		LogWarn("%s classification failed: %v", s.modality, err)
	} else {
		s.state = StateSucceeded
		s.result = result
	}
	snap = s.snapshotLocked()
	s.mu.Unlock()

	s.emit(snap)
	return err
}

func (s *Session) classify(ctx context.Context, asset *MediaAsset) (Result, error) {
	if s.modality == ModalityVideo {
		agg, err := s.classifier.ClassifyVideo(ctx, asset)
		if err != nil {
			return Result{}, err
		}
		return Result{Aggregate: &agg}, nil
	}
	v, err := s.classifier.ClassifyImage(ctx, asset)
	if err != nil {
		return Result{}, err
	}
	return Result{Verdict: &v}, nil
}

// Remove drops a staged, not yet submitted asset
func (s *Session) Remove() error {
	s.mu.Lock()
	if s.state != StateStaged {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot remove while %s", ErrInvalidState, state)
	}
	s.releaseLocked()
	s.state = StateIdle
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.emit(snap)
	return nil
}

// Clear returns the session to Idle from any state, releasing the asset.
// A result still in flight is discarded when it arrives.
func (s *Session) Clear() {
	s.mu.Lock()
	s.clearLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.emit(snap)
}

// Retry leaves a finished session. From Failed it returns to Staged when the
// asset is still held, so the same file can be resubmitted; otherwise, and
// from Succeeded, it returns to Idle.
func (s *Session) Retry() error {
	s.mu.Lock()
	switch s.state {
	case StateFailed:
		if s.asset != nil {
			s.state = StateStaged
			s.err = nil
		} else {
			s.clearLocked()
		}
	case StateSucceeded:
		s.clearLocked()
	default:
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot retry while %s", ErrInvalidState, state)
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.emit(snap)
	return nil
}

// Snapshot returns the current state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Close tears the session down. Further calls fail with ErrSessionClosed.
func (s *Session) Close() {
	s.mu.Lock()
	s.clearLocked()
	s.closed = true
	s.onChange = nil
	s.mu.Unlock()
}

func (s *Session) clearLocked() {
	s.releaseLocked()
	s.gen++
	s.state = StateIdle
	s.result = Result{}
	s.err = nil
}

func (s *Session) releaseLocked() {
	s.stager.Release(s.asset)
	s.asset = nil
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		State:  s.state,
		Asset:  s.asset,
		Result: s.result,
		Err:    s.err,
	}
}

func (s *Session) emit(snap Snapshot) {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}
