package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.trai.ch/redirector/internal/core/domain"
	"go.trai.ch/redirector/internal/ui/output"
	"go.trai.ch/redirector/internal/ui/style"
	"go.trai.ch/zerr"
)

const (
	toolCheckTimeout = 5 * time.Second
	pingTimeout      = 2 * time.Second
	pingPath         = "/api/status/ping"
)

// Check is the health of one component.
type Check struct {
	Name     string
	Healthy  bool
	Disabled bool
	Detail   string
}

// Health checks the resolver tools and the remote resolver, writes one line
// per component to w and returns domain.ErrUnhealthy if any enabled component
// failed.
func (a *App) Health(ctx context.Context, w io.Writer) error {
	cfg, done := a.prepare()
	defer done()

	checks := []Check{
		a.checkTool(ctx, cfg, domain.TierModern, domain.ModernToolName),
		a.checkTool(ctx, cfg, domain.TierNative, domain.NativeToolName),
		a.checkRemote(ctx, cfg),
	}

	s := style.New(output.NewRenderer(w))
	unhealthy := 0
	for _, c := range checks {
		var line string
		switch {
		case c.Disabled:
			line = s.Muted.Render(style.Circle+" "+c.Name) + " " + s.Muted.Render("disabled")
		default:
			line = s.Status(c.Healthy, c.Name) + " " + s.Muted.Render(c.Detail)
			if !c.Healthy {
				unhealthy++
			}
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	if unhealthy > 0 {
		return zerr.With(zerr.Wrap(domain.ErrUnhealthy, "health check"), "count", unhealthy)
	}
	return nil
}

func (a *App) checkTool(ctx context.Context, cfg domain.Config, tier domain.Tier, name string) Check {
	c := Check{Name: name}
	if !cfg.TierEnabled(tier) {
		c.Disabled = true
		return c
	}

	result := a.runner.Run(ctx, domain.ProcessRequest{
		Name:        "health-" + tier.String(),
		Path:        domain.ToolPath(cfg.BaseDir, name),
		Args:        []string{"--version"},
		ScratchRoot: domain.ScratchPath(cfg.BaseDir),
		Timeout:     toolCheckTimeout,
	})
	switch {
	case result.Err != nil:
		c.Detail = result.Err.Error()
	case result.ExitCode != 0:
		c.Detail = fmt.Sprintf("exit code %d", result.ExitCode)
	default:
		c.Healthy = true
		c.Detail = result.LastLine
	}
	a.logger.Info(fmt.Sprintf("health %s healthy=%t %s", name, c.Healthy, c.Detail))
	return c
}

func (a *App) checkRemote(ctx context.Context, cfg domain.Config) Check {
	c := Check{Name: "remote resolver"}
	if !cfg.EnableProxy {
		c.Disabled = true
		return c
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	endpoint := strings.TrimRight(cfg.RemoteBase, "/") + pingPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		c.Detail = err.Error()
		return c
	}
	req.Header.Set("User-Agent", cfg.CustomUserAgent)

	start := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		c.Detail = err.Error()
		a.logger.Warn("health ping failed: " + err.Error())
		return c
	}
	defer func() { _ = resp.Body.Close() }()

	c.Healthy = resp.StatusCode >= 200 && resp.StatusCode < 300
	c.Detail = fmt.Sprintf("%s %s in %s", endpoint, resp.Status, time.Since(start).Round(time.Millisecond))
	a.logger.Info(fmt.Sprintf("health ping healthy=%t %s", c.Healthy, c.Detail))
	return c
}
