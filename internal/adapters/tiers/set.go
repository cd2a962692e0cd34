package tiers

import (
	"net/http"

	"go.trai.ch/redirector/internal/core/domain"
	"go.trai.ch/redirector/internal/core/ports"
)

// NewSet builds every resolver enabled by cfg, keyed by tier.
func NewSet(cfg domain.Config, runner ports.ProcessRunner, client *http.Client) map[domain.Tier]ports.TierResolver {
	set := make(map[domain.Tier]ports.TierResolver, int(domain.MaxTier))
	if cfg.TierEnabled(domain.TierProxy) {
		set[domain.TierProxy] = NewProxy(domain.TierProxy, cfg.RemoteBase, cfg.CustomUserAgent, client)
		set[domain.TierLastResort] = NewProxy(domain.TierLastResort, cfg.RemoteBase, cfg.CustomUserAgent, client)
	}
	if cfg.TierEnabled(domain.TierModern) {
		set[domain.TierModern] = NewModern(cfg, runner)
	}
	if cfg.TierEnabled(domain.TierNative) {
		set[domain.TierNative] = NewNative(cfg, runner)
	}
	return set
}
