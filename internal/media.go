package internal

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// MediaKind identifies what a staged asset holds
type MediaKind string

const (
	KindImage       MediaKind = "image"
	KindVideo       MediaKind = "video"
	KindCameraFrame MediaKind = "camera_frame"
)

// MediaAsset is a staged submission. Images and camera frames carry their
// bytes; videos stay on disk and are streamed at submission time.
type MediaAsset struct {
	Kind         MediaKind
	Data         []byte
	Path         string
	MIMEType     string
	DisplayURI   string
	SizeBytes    int64
	OriginalName string // empty for camera frames
}

// IntakeRule is the accepted extension set and size ceiling for a modality
type IntakeRule struct {
	Extensions []string
	MaxBytes   int64
}

var (
	ImageRule = IntakeRule{
		Extensions: []string{".jpeg", ".jpg", ".png", ".gif", ".bmp", ".webp"},
		MaxBytes:   10 * 1024 * 1024,
	}
	VideoRule = IntakeRule{
		Extensions: []string{".mp4", ".avi", ".mov", ".wmv", ".flv", ".webm", ".mkv"},
		MaxBytes:   100 * 1024 * 1024,
	}
)

var mimeTypes = map[string]string{
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".mp4":  "video/mp4",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
}

// RuleFor returns the intake rule for a file-based modality
func RuleFor(modality Modality) (IntakeRule, error) {
	switch modality {
	case ModalityImage:
		return ImageRule, nil
	case ModalityVideo:
		return VideoRule, nil
	default:
		return IntakeRule{}, fmt.Errorf("modality %q does not accept files", modality)
	}
}

func (r IntakeRule) accepts(ext string) bool {
	for _, e := range r.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Candidate is a file that passed validation but has no preview yet
type Candidate struct {
	Modality Modality
	Path     string
	Name     string
	Size     int64
	MIMEType string
}

// Stager validates user-supplied media and produces staged assets
type Stager struct {
	previews *PreviewRegistry
}

// NewStager creates a Stager that allocates video previews from previews
func NewStager(previews *PreviewRegistry) *Stager {
	return &Stager{previews: previews}
}

// Validate checks a selection against the modality's rule without reading
// file contents or creating a preview.
func (s *Stager) Validate(modality Modality, paths []string) (*Candidate, error) {
	rule, err := RuleFor(modality)
	if err != nil {
		return nil, &ValidationError{Reason: ReasonUnsupported, Detail: err.Error()}
	}

	switch {
	case len(paths) == 0:
		return nil, &ValidationError{Reason: ReasonUnsupported, Detail: "no file selected"}
	case len(paths) > 1:
		return nil, &ValidationError{
			Reason: ReasonTooManyFiles,
			Detail: fmt.Sprintf("%d files selected, only one is accepted", len(paths)),
		}
	}

	path := paths[0]
	name := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(path))
	if !rule.accepts(ext) {
		return nil, &ValidationError{
			Reason: ReasonUnsupported,
			Name:   name,
			Detail: fmt.Sprintf("unsupported %s type (accepted: %s)", modality, strings.Join(rule.Extensions, ", ")),
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &ValidationError{Reason: ReasonUnsupported, Name: name, Detail: err.Error()}
	}
	if info.IsDir() {
		return nil, &ValidationError{Reason: ReasonUnsupported, Name: name, Detail: "is a directory"}
	}
	if info.Size() > rule.MaxBytes {
		return nil, &ValidationError{
			Reason: ReasonTooLarge,
			Name:   name,
			Detail: fmt.Sprintf("file is %s, limit is %s", FormatSize(info.Size()), FormatSize(rule.MaxBytes)),
		}
	}

	return &Candidate{
		Modality: modality,
		Path:     path,
		Name:     name,
		Size:     info.Size(),
		MIMEType: mimeTypes[ext],
	}, nil
}

// Load creates the staged asset and its preview for a validated candidate.
// Images are read and inlined as a data URI; videos get an object URL that
// the owner must Release.
func (s *Stager) Load(c *Candidate) (*MediaAsset, error) {
	asset := &MediaAsset{
		Path:         c.Path,
		MIMEType:     c.MIMEType,
		SizeBytes:    c.Size,
		OriginalName: c.Name,
	}

	switch c.Modality {
	case ModalityImage:
		data, err := os.ReadFile(c.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", c.Name, err)
		}
		asset.Kind = KindImage
		asset.Data = data
		asset.SizeBytes = int64(len(data))
		asset.DisplayURI = EncodeDataURI(c.MIMEType, data)
	case ModalityVideo:
		asset.Kind = KindVideo
		asset.DisplayURI = s.previews.CreateObjectURL(c.Path)
	default:
		return nil, fmt.Errorf("modality %q does not accept files", c.Modality)
	}

	LogDebug("Staged %s %s (%s)", asset.Kind, asset.OriginalName, FormatSize(asset.SizeBytes))
	return asset, nil
}

// Stage validates and loads in one step
func (s *Stager) Stage(modality Modality, paths []string) (*MediaAsset, error) {
	c, err := s.Validate(modality, paths)
	if err != nil {
		return nil, err
	}
	return s.Load(c)
}

// StageCameraFrame wraps a captured still. Camera frames skip file
// validation and carry their payload inline.
func (s *Stager) StageCameraFrame(frame []byte) (*MediaAsset, error) {
	if len(frame) == 0 {
		return nil, &ValidationError{Reason: ReasonUnsupported, Detail: "empty camera frame"}
	}
	mimeType := http.DetectContentType(frame)
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = "image/jpeg"
	}
	return &MediaAsset{
		Kind:       KindCameraFrame,
		Data:       frame,
		MIMEType:   mimeType,
		DisplayURI: EncodeDataURI(mimeType, frame),
		SizeBytes:  int64(len(frame)),
	}, nil
}

// Release frees the asset's preview handle, if it holds one. Safe to call
// with nil or more than once.
func (s *Stager) Release(asset *MediaAsset) {
	if asset == nil || !IsObjectURL(asset.DisplayURI) {
		return
	}
	s.previews.Revoke(asset.DisplayURI)
}
