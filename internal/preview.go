package internal

import (
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const objectURLScheme = "blob:"

// PreviewRegistry hands out revocable object references for staged videos.
// Every handle it creates must be revoked exactly once; Live reports the
// handles still held so leaks are observable.
type PreviewRegistry struct {
	mu      sync.Mutex
	handles map[string]string // handle -> source path
}

// NewPreviewRegistry creates an empty registry
func NewPreviewRegistry() *PreviewRegistry {
	return &PreviewRegistry{handles: make(map[string]string)}
}

// CreateObjectURL registers path and returns a new blob: handle for it
func (r *PreviewRegistry) CreateObjectURL(path string) string {
	handle := objectURLScheme + uuid.New().String()

	r.mu.Lock()
	r.handles[handle] = path
	r.mu.Unlock()

	LogDebug("Created preview %s for %s", handle, path)
	return handle
}

// Resolve returns the path behind a live handle
func (r *PreviewRegistry) Resolve(handle string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	path, ok := r.handles[handle]
	return path, ok
}

// Revoke releases a handle. Revoking an unknown or already revoked handle
// is a no-op and returns false.
func (r *PreviewRegistry) Revoke(handle string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handles[handle]; !ok {
		return false
	}
	delete(r.handles, handle)
	LogDebug("Revoked preview %s", handle)
	return true
}

// Live returns the number of handles not yet revoked
func (r *PreviewRegistry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// IsObjectURL reports whether uri is a registry handle rather than inline data
func IsObjectURL(uri string) bool {
	return strings.HasPrefix(uri, objectURLScheme)
}

// EncodeDataURI renders data as a base64 data URI
func EncodeDataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI splits a base64 data URI into its MIME type and payload
func DecodeDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("data URI has no payload")
	}
	mimeType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("data URI is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("invalid base64 payload: %w", err)
	}
	if len(data) == 0 {
		return "", nil, fmt.Errorf("data URI payload is empty")
	}
	return mimeType, data, nil
}
