package policy

import (
	"strings"
	"time"

	"go.trai.ch/redirector/internal/core/domain"
)

// Plan is the tier selection for one request.
type Plan struct {
	// Floor is the lowest tier the request may use.
	Floor domain.Tier
	// Forced is the tier demanded by rapid-retry detection, if any.
	Forced domain.Tier
	// Fallback is set when global fallback mode raised the floor.
	Fallback bool
	// CircuitOpen lists the tiers disabled by the host's circuit.
	CircuitOpen []domain.Tier

	enabled [domain.MaxTier + 1]bool
}

// Eligible reports whether tier t may run.
func (p Plan) Eligible(t domain.Tier) bool {
	return t.Valid() && t >= p.Floor && p.enabled[t]
}

// UseCache reports whether the history cache may answer the request.
// The cache is skipped whenever escalation is forced.
func (p Plan) UseCache() bool {
	return p.Floor <= domain.TierProxy
}

// Racing returns the eligible tiers of the racing phase.
func (p Plan) Racing() []domain.Tier {
	return p.filter(domain.TierProxy, domain.TierModern)
}

// Tiers returns every eligible tier in attempt order.
func (p Plan) Tiers() []domain.Tier {
	return p.filter(domain.TierProxy, domain.TierModern, domain.TierNative, domain.TierLastResort)
}

func (p Plan) filter(tiers ...domain.Tier) []domain.Tier {
	out := make([]domain.Tier, 0, len(tiers))
	for _, t := range tiers {
		if p.Eligible(t) {
			out = append(out, t)
		}
	}
	return out
}

// String renders the plan for the log.
func (p Plan) String() string {
	names := make([]string, 0, domain.MaxTier)
	for _, t := range p.Tiers() {
		names = append(names, t.String())
	}
	return "floor=" + p.Floor.String() + " tiers=[" + strings.Join(names, ",") + "]"
}

// SelectTiers computes the plan for req from the configuration and state.
// Expired state entries are dropped from st as a side effect.
func SelectTiers(
	cfg domain.Config,
	req *domain.ResolutionRequest,
	st *domain.State,
	now time.Time,
	detector RapidRetryDetector,
) Plan {
	plan := Plan{Floor: domain.TierProxy}

	if st.FallbackActive(now) {
		plan.Fallback = true
		plan.Floor = max(plan.Floor, domain.TierNative)
	}

	circuit, open := st.Circuit(req.Host(), now)
	if open && circuit.Has(domain.TierProxy) && circuit.Has(domain.TierModern) {
		plan.Floor = max(plan.Floor, domain.TierNative)
	}

	if forced := detector.Detect(req.TargetURL, now, st); forced != domain.TierNone {
		plan.Forced = forced
		plan.Floor = max(plan.Floor, forced)
	}

	for t := domain.TierProxy; t <= domain.MaxTier; t++ {
		plan.enabled[t] = cfg.TierEnabled(t)
	}

	if open {
		withCircuit := plan
		for _, t := range circuit.FailedTiers {
			if t.Valid() {
				withCircuit.enabled[t] = false
			}
		}
		// A fully open circuit would leave the request nothing to try; the
		// circuit is ignored then so the host can recover.
		if len(withCircuit.Tiers()) > 0 {
			withCircuit.CircuitOpen = append([]domain.Tier(nil), circuit.FailedTiers...)
			plan = withCircuit
		}
	}

	return plan
}
