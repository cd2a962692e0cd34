// Package verifier probes candidate URLs and decides whether they point at playable media.
package verifier

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.trai.ch/redirector/internal/core/domain"
	"go.trai.ch/redirector/internal/core/ports"
)

const (
	// DefaultTimeout bounds each probe request.
	DefaultTimeout = 3 * time.Second

	// peekSize is the number of bytes fetched to sniff a manifest.
	peekSize = 8 * 1024
)

type verdict int

const (
	undecided verdict = iota
	accept
	reject
)

// Verifier implements ports.StreamVerifier over HTTP.
type Verifier struct {
	client  *http.Client
	logger  ports.Logger
	timeout time.Duration
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithClient sets the HTTP client used for probes.
func WithClient(c *http.Client) Option {
	return func(v *Verifier) {
		v.client = c
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(v *Verifier) {
		if d > 0 {
			v.timeout = d
		}
	}
}

// New creates a Verifier.
func New(logger ports.Logger, opts ...Option) *Verifier {
	v := &Verifier{
		client:  http.DefaultClient,
		logger:  logger,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify returns true only when rawURL serves media or a manifest that leads to media.
func (v *Verifier) Verify(ctx context.Context, rawURL, userAgent string, maxDepth int) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.Warn(fmt.Sprintf("verifier recovered from panic for %s: %v", rawURL, r))
			ok = false
		}
	}()

	if userAgent == "" {
		userAgent = domain.DefaultUserAgent
	}
	ok = v.verify(ctx, rawURL, userAgent, maxDepth)
	if !ok {
		v.logger.Debug("verification rejected " + rawURL)
	}
	return ok
}

func (v *Verifier) verify(ctx context.Context, rawURL, userAgent string, depth int) bool {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}

	switch v.head(ctx, u, userAgent) {
	case accept:
		return true
	case reject:
		return false
	case undecided:
	}

	body, ok := v.peek(ctx, u, userAgent)
	if !ok {
		return false
	}

	switch sniff(body) {
	case kindHLS:
		return v.verifyHLS(ctx, u, body, userAgent, depth)
	case kindDASH:
		return isDASH(body)
	default:
		return false
	}
}

func (v *Verifier) head(ctx context.Context, u *url.URL, userAgent string) verdict {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	req, err := v.newRequest(ctx, http.MethodHead, u, userAgent)
	if err != nil {
		return reject
	}
	resp, err := v.client.Do(req)
	if err != nil {
		v.logger.Debug("probe HEAD failed: " + err.Error())
		return reject
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, peekSize))
	_ = resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return reject
	}
	return classifyContentType(resp.Header.Get("Content-Type"))
}

func (v *Verifier) peek(ctx context.Context, u *url.URL, userAgent string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	req, err := v.newRequest(ctx, http.MethodGet, u, userAgent)
	if err != nil {
		return nil, false
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=0-%d", peekSize-1))

	resp, err := v.client.Do(req)
	if err != nil {
		v.logger.Debug("probe GET failed: " + err.Error())
		return nil, false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, peekSize))
	if err != nil && len(body) == 0 {
		return nil, false
	}
	return body, true
}

func (v *Verifier) newRequest(ctx context.Context, method string, u *url.URL, userAgent string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, u.String(), http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Encoding", "identity")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	return req, nil
}

// manifestTypes are playlist media types. Their bodies must be inspected even
// though some of them share the audio/ and video/ prefixes.
var manifestTypes = map[string]bool{
	"application/vnd.apple.mpegurl": true,
	"application/x-mpegurl":         true,
	"audio/mpegurl":                 true,
	"audio/x-mpegurl":               true,
	"application/dash+xml":          true,
	"video/vnd.mpeg.dash.mpd":       true,
}

func classifyContentType(header string) verdict {
	if header == "" {
		return undecided
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		mediaType = strings.TrimSpace(strings.SplitN(header, ";", 2)[0])
	}
	mediaType = strings.ToLower(mediaType)

	switch {
	case manifestTypes[mediaType]:
		return undecided
	case strings.HasPrefix(mediaType, "video/"), strings.HasPrefix(mediaType, "audio/"):
		return accept
	case mediaType == "application/octet-stream", mediaType == "binary/octet-stream", mediaType == "application/mp4":
		return accept
	case mediaType == "text/html", mediaType == "application/xhtml+xml":
		return reject
	default:
		return undecided
	}
}

type kind int

const (
	kindUnknown kind = iota
	kindHTML
	kindHLS
	kindDASH
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func sniff(body []byte) kind {
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(body, utf8BOM))
	lower := bytes.ToLower(trimmed)

	switch {
	case bytes.HasPrefix(lower, []byte("<!doctype html")), bytes.Contains(lower, []byte("<html")):
		return kindHTML
	case bytes.HasPrefix(trimmed, []byte("#EXTM3U")):
		return kindHLS
	case bytes.Contains(trimmed, []byte("<MPD")):
		return kindDASH
	default:
		return kindUnknown
	}
}
