package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"os"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds every backend call
	DefaultTimeout = 30 * time.Second

	pathPredict       = "/api/predict"
	pathPredictBase64 = "/api/predict_base64"
	pathExtractFrames = "/api/extract_frames"

	maxResponseBytes = 16 << 20

	msgUnreachable = "Unable to connect to the server. Please check your connection."
	msgServerError = "Server error occurred"
)

// Client talks to the classification backend. Every call makes exactly one
// attempt; callers decide whether to try again.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	normalizer *Normalizer
}

// NewClient creates a client for baseURL with a shared per-call timeout
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		normalizer: NewNormalizer(),
	}
}

// BaseURL returns the backend base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Timeout returns the per-call timeout
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// ClassifyImage submits a staged image (or camera frame) as multipart field "file"
func (c *Client) ClassifyImage(ctx context.Context, asset *MediaAsset) (Verdict, error) {
	const op = "classify-image"
	if asset == nil || (asset.Kind != KindImage && asset.Kind != KindCameraFrame) {
		return Verdict{}, invalid(op, "no image staged", nil)
	}

	data := asset.Data
	if len(data) == 0 && asset.Path != "" {
		var err error
		if data, err = os.ReadFile(asset.Path); err != nil {
			return Verdict{}, invalid(op, "failed to read image", err)
		}
	}
	if len(data) == 0 {
		return Verdict{}, invalid(op, "image is empty", nil)
	}

	name := asset.OriginalName
	if name == "" {
		name = "frame.jpg"
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := createFilePart(writer, name, asset.MIMEType)
	if err != nil {
		return Verdict{}, invalid(op, "failed to build request", err)
	}
	if _, err := part.Write(data); err != nil {
		return Verdict{}, invalid(op, "failed to build request", err)
	}
	if err := writer.Close(); err != nil {
		return Verdict{}, invalid(op, "failed to build request", err)
	}

	respBody, err := c.post(ctx, op, pathPredict, writer.FormDataContentType(), body)
	if err != nil {
		return Verdict{}, err
	}
	return c.normalizer.NormalizePrediction(respBody)
}

// ClassifyImageInline submits an inline data-URI image as JSON. The capture
// loop uses it so frames never round-trip through a file.
func (c *Client) ClassifyImageInline(ctx context.Context, encodedImage string) (Verdict, error) {
	const op = "classify-image-inline"
	if _, _, err := DecodeDataURI(encodedImage); err != nil {
		return Verdict{}, invalid(op, "invalid inline image", err)
	}

	payload, err := json.Marshal(map[string]string{"image": encodedImage})
	if err != nil {
		return Verdict{}, invalid(op, "failed to build request", err)
	}

	respBody, err := c.post(ctx, op, pathPredictBase64, "application/json", bytes.NewReader(payload))
	if err != nil {
		return Verdict{}, err
	}
	return c.normalizer.NormalizePrediction(respBody)
}

// ClassifyVideo streams a staged video as multipart field "file". Frame
// sampling happens server-side.
func (c *Client) ClassifyVideo(ctx context.Context, asset *MediaAsset) (AggregateResult, error) {
	const op = "classify-video"
	if asset == nil || asset.Kind != KindVideo || asset.Path == "" {
		return AggregateResult{}, invalid(op, "no video staged", nil)
	}

	file, err := os.Open(asset.Path)
	if err != nil {
		return AggregateResult{}, invalid(op, "failed to open video", err)
	}

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	go func() {
		defer file.Close()
		part, err := createFilePart(writer, asset.OriginalName, asset.MIMEType)
		if err == nil {
			_, err = io.Copy(part, file)
		}
		if err == nil {
			err = writer.Close()
		}
		pw.CloseWithError(err)
	}()

	respBody, err := c.post(ctx, op, pathExtractFrames, writer.FormDataContentType(), pr)
	// Unblocks the writer goroutine if the request ended before the body was drained.
	pr.Close()
	if err != nil {
		return AggregateResult{}, err
	}
	return c.normalizer.NormalizeVideo(respBody)
}

// Ping checks that the backend answers HTTP at all. Any status code counts
// as reachable; only transport failures are errors.
func (c *Client) Ping(ctx context.Context) (int, error) {
	const op = "ping"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return 0, invalid(op, "failed to build request", err)
	}

	LogDebug("Making GET request to /")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, c.unreachable(op, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
	return resp.StatusCode, nil
}

// post sends one request and returns the body of a 2xx response
func (c *Client) post(ctx context.Context, op, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, invalid(op, "failed to build request", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	LogDebug("Making POST request to %s", path)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		LogWarn("%s: request to %s failed: %v", op, path, err)
		return nil, c.unreachable(op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		LogWarn("%s: reading response from %s failed: %v", op, path, err)
		return nil, c.unreachable(op, err)
	}

	LogDebug("%s %s -> %d in %v", http.MethodPost, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := serverMessage(respBody)
		LogWarn("%s: server returned status %d: %s", op, resp.StatusCode, msg)
		return nil, &ClassifyError{
			Kind:    KindServerRejected,
			Op:      op,
			Status:  resp.StatusCode,
			Message: msg,
			Err:     fmt.Errorf("status %d", resp.StatusCode),
		}
	}

	return respBody, nil
}

func (c *Client) unreachable(op string, err error) *ClassifyError {
	msg := msgUnreachable
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		msg = fmt.Sprintf("The server did not respond within %v. Please try again.", c.timeout)
	}
	return &ClassifyError{Kind: KindUnreachable, Op: op, Message: msg, Err: err}
}

// serverMessage extracts the backend's error or message field, falling back
// to a generic message
func serverMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return msgServerError
}

func invalid(op, msg string, err error) *ClassifyError {
	if err == nil {
		err = errors.New(msg)
	}
	return &ClassifyError{Kind: KindInvalid, Op: op, Message: msg, Err: err}
}

// createFilePart writes a "file" form part carrying the media's own content type
func createFilePart(w *multipart.Writer, filename, contentType string) (io.Writer, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     "file",
		"filename": filename,
	}))
	h.Set("Content-Type", contentType)
	return w.CreatePart(h)
}
