// Package tiers implements the resolution backends raced and chained by the orchestrator.
package tiers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.trai.ch/redirector/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	resolvePath = "/api/stream/resolve"

	// maxResponseSize caps the proxy response body.
	maxResponseSize = 1 << 20
)

// proxyResponse is the body returned by the remote resolver.
type proxyResponse struct {
	Status    string `json:"status"`
	StreamURL string `json:"stream_url"`
	URL       string `json:"url"`
}

// Proxy asks the remote resolver service for a stream URL. It serves both the
// first tier and the last-resort tier.
type Proxy struct {
	tier      domain.Tier
	base      string
	userAgent string
	client    *http.Client
}

// NewProxy creates a Proxy serving tier against the service at base.
func NewProxy(tier domain.Tier, base, userAgent string, client *http.Client) *Proxy {
	if client == nil {
		client = http.DefaultClient
	}
	return &Proxy{
		tier:      tier,
		base:      strings.TrimRight(base, "/"),
		userAgent: userAgent,
		client:    client,
	}
}

// Tier returns the tier this resolver serves.
func (p *Proxy) Tier() domain.Tier {
	return p.tier
}

// Resolve queries the remote resolver.
func (p *Proxy) Resolve(ctx context.Context, req *domain.ResolutionRequest, timeout time.Duration) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	endpoint := p.endpoint(req)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return "", zerr.Wrap(err, domain.ErrProxyRequestFailed.Error())
	}
	// The API always sees the configured agent. The caller's agent is only
	// used to verify candidates; the player hint covers legacy clients.
	if p.userAgent != "" {
		httpReq.Header.Set("User-Agent", p.userAgent)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrProxyRequestFailed.Error()), "tier", p.tier.String())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", zerr.With(zerr.Wrap(domain.ErrProxyBadStatus, resp.Status), "status", resp.StatusCode)
	}

	var body proxyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&body); err != nil {
		return "", zerr.Wrap(err, domain.ErrProxyParseFailed.Error())
	}
	if strings.EqualFold(body.Status, "failed") {
		return "", domain.ErrProxyReportedFailure
	}

	candidate := body.StreamURL
	if candidate == "" {
		candidate = body.URL
	}
	return acceptCandidate(candidate)
}

func (p *Proxy) endpoint(req *domain.ResolutionRequest) string {
	var b strings.Builder
	b.WriteString(p.base)
	b.WriteString(resolvePath)
	b.WriteString("?url=")
	b.WriteString(url.QueryEscape(req.TargetURL))
	b.WriteString("&video_type=")
	b.WriteString(videoType(req.FormatSelector()))
	b.WriteString("&player=")
	b.WriteString(string(req.Profile.ProxyPlayer()))
	return b.String()
}

// videoType maps the caller's format selector onto the remote resolver's stream kind.
func videoType(format string) string {
	audio := strings.Contains(format, "bestaudio")
	video := strings.Contains(format, "bestvideo")
	switch {
	case audio && !video:
		return "a"
	case video && !audio:
		return "v"
	default:
		return "va"
	}
}

// acceptCandidate returns c when it looks like an http(s) URL.
func acceptCandidate(c string) (string, error) {
	c = strings.TrimSpace(c)
	if strings.HasPrefix(c, "http://") || strings.HasPrefix(c, "https://") {
		return c, nil
	}
	return "", domain.ErrNoCandidate
}
