// Package orchestrator runs the tiered resolution of a media URL.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.trai.ch/redirector/internal/core/domain"
	"go.trai.ch/redirector/internal/core/ports"
	"go.trai.ch/redirector/internal/engine/policy"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// raceWorkers is the size of the racing pool.
const raceWorkers = 2

// Outcome classifies how a tier attempt concluded.
type Outcome string

const (
	// OutcomeVerified means the candidate passed verification.
	OutcomeVerified Outcome = "verified"
	// OutcomeRejected means a candidate was produced but failed verification.
	OutcomeRejected Outcome = "rejected"
	// OutcomeEmpty means the tier ran and produced no candidate.
	OutcomeEmpty Outcome = "empty"
	// OutcomeAbandoned means the attempt was cancelled before it concluded.
	OutcomeAbandoned Outcome = "abandoned"
)

// attempt is the result of one tier attempt.
type attempt struct {
	tier    domain.Tier
	url     string
	outcome Outcome
	err     error
}

// Orchestrator resolves requests by racing, chaining and verifying tiers.
type Orchestrator struct {
	cfg       domain.Config
	store     ports.StateStore
	verifier  ports.StreamVerifier
	resolvers map[domain.Tier]ports.TierResolver
	tracer    ports.Tracer
	logger    ports.Logger
	detector  policy.RapidRetryDetector
	now       func() time.Time

	// mu serialises Load-mutate-Save cycles on the state document.
	mu sync.Mutex

	inflightMu sync.Mutex
	inflight   []*errgroup.Group
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock replaces the wall clock used for state bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// New creates an Orchestrator.
func New(
	cfg domain.Config,
	store ports.StateStore,
	verifier ports.StreamVerifier,
	resolvers map[domain.Tier]ports.TierResolver,
	tracer ports.Tracer,
	logger ports.Logger,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		cfg:       cfg,
		store:     store,
		verifier:  verifier,
		resolvers: resolvers,
		tracer:    tracer,
		logger:    logger,
		detector:  policy.RapidRetryDetector{Window: cfg.FailureRetryWindow},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Resolve returns a verified stream URL for req, or domain.ErrAllTiersFailed.
func (o *Orchestrator) Resolve(ctx context.Context, req *domain.ResolutionRequest) (domain.TierResult, error) {
	ctx, span := o.tracer.Start(ctx, "resolve")
	defer span.End()
	span.SetAttribute("target", req.TargetURL)
	span.SetAttribute("legacy", req.Profile.Legacy)

	var plan policy.Plan
	o.mutate(func(st *domain.State) {
		now := o.now()
		plan = policy.SelectTiers(o.cfg, req, st, now, o.detector)
		st.MarkAttempt(req.TargetURL, plan.Floor, now, o.cfg.FailureRetryWindow)
	})
	o.logger.Info(fmt.Sprintf("resolving %s %s", req.TargetURL, plan))
	span.SetAttribute("floor", plan.Floor)

	if plan.UseCache() {
		if res, ok := o.fromCache(ctx, req); ok {
			span.SetAttribute("tier", res.Tier)
			span.SetAttribute("cached", true)
			return res, nil
		}
	}

	outcomes := make(map[domain.Tier]Outcome, domain.MaxTier)

	if a, ok := o.race(ctx, req, plan, outcomes); ok {
		return o.succeed(span, req, a), nil
	}

	for _, step := range []struct {
		tier    domain.Tier
		timeout time.Duration
	}{
		{domain.TierNative, o.cfg.NativeTimeout},
		{domain.TierLastResort, o.cfg.LastResortTimeout},
	} {
		if !plan.Eligible(step.tier) {
			continue
		}
		a := o.attempt(ctx, req, step.tier, step.timeout)
		outcomes[a.tier] = a.outcome
		if a.outcome == OutcomeVerified {
			return o.succeed(span, req, a), nil
		}
	}

	o.exhaust(ctx, req, outcomes)
	span.RecordError(domain.ErrAllTiersFailed)
	return domain.TierResult{}, domain.ErrAllTiersFailed
}

// Drain waits for abandoned race tasks so their process trees are reaped.
// It gives up after the configured drain timeout or when ctx is done.
func (o *Orchestrator) Drain(ctx context.Context) {
	o.inflightMu.Lock()
	groups := o.inflight
	o.inflight = nil
	o.inflightMu.Unlock()

	if len(groups) == 0 {
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, g := range groups {
			_ = g.Wait()
		}
	}()

	timer := time.NewTimer(o.cfg.DrainTimeout)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		o.logger.Warn("abandoned tier tasks still running after drain timeout")
	case <-ctx.Done():
	}
}

func (o *Orchestrator) fromCache(ctx context.Context, req *domain.ResolutionRequest) (domain.TierResult, bool) {
	ctx, span := o.tracer.Start(ctx, "cache")
	defer span.End()

	entry, ok := o.store.Load().CachedResult(req.TargetURL, o.now(), o.cfg.CacheTTL)
	if !ok {
		span.SetAttribute("outcome", "miss")
		return domain.TierResult{}, false
	}

	vctx, cancel := context.WithTimeout(ctx, o.cfg.CacheVerifyTimeout)
	defer cancel()

	if o.verifier.Verify(vctx, entry.ResolvedURL, req.UserAgent, o.cfg.VerifyMaxDepth) {
		span.SetAttribute("outcome", string(OutcomeVerified))
		o.mutate(func(st *domain.State) {
			st.RecordSuccess(req.TargetURL, entry.ResolvedURL, entry.Tier, o.now(), o.cfg.FailureRetryWindow)
		})
		o.logger.Info("cache hit for " + req.TargetURL)
		return domain.TierResult{Tier: entry.Tier, URL: entry.ResolvedURL, Cached: true}, true
	}

	span.SetAttribute("outcome", string(OutcomeRejected))
	o.logger.Warn("cached url failed verification, purging " + req.TargetURL)
	o.mutate(func(st *domain.State) {
		st.PurgeHistory(req.TargetURL)
	})
	return domain.TierResult{}, false
}

// race runs the eligible racing tiers concurrently. Tier one gets a head start:
// a verified tier-two result that arrives first is held until the head start
// expires or tier one concludes.
func (o *Orchestrator) race(
	ctx context.Context,
	req *domain.ResolutionRequest,
	plan policy.Plan,
	outcomes map[domain.Tier]Outcome,
) (attempt, bool) {
	tiers := plan.Racing()
	if len(tiers) == 0 {
		return attempt{}, false
	}

	raceCtx, cancel := context.WithTimeout(ctx, o.cfg.RaceTimeout)
	defer cancel()

	results := make(chan attempt, len(tiers))
	g := new(errgroup.Group)
	g.SetLimit(raceWorkers)
	o.track(g)

	for _, tier := range tiers {
		timeout := o.cfg.RaceTimeout
		if tier == domain.TierProxy {
			timeout = o.cfg.ResolutionTimeout
		}
		g.Go(func() error {
			results <- o.attempt(raceCtx, req, tier, timeout)
			return nil
		})
	}

	var headStart <-chan time.Time
	if len(tiers) > 1 && tiers[0] == domain.TierProxy {
		timer := time.NewTimer(o.cfg.HeadStart)
		defer timer.Stop()
		headStart = timer.C
	}

	var held *attempt
	for remaining := len(tiers); remaining > 0; {
		select {
		case a := <-results:
			remaining--
			outcomes[a.tier] = a.outcome
			if a.tier == domain.TierProxy {
				headStart = nil
			}
			if a.outcome == OutcomeVerified {
				if headStart == nil {
					return a, true
				}
				held = &a
				continue
			}
			if held != nil && headStart == nil {
				return *held, true
			}
		case <-headStart:
			headStart = nil
			if held != nil {
				return *held, true
			}
		case <-raceCtx.Done():
			if held != nil {
				return *held, true
			}
			o.logger.Warn("race timed out, abandoning outstanding tiers")
			return attempt{}, false
		}
	}

	if held != nil {
		return *held, true
	}
	return attempt{}, false
}

func (o *Orchestrator) track(g *errgroup.Group) {
	o.inflightMu.Lock()
	defer o.inflightMu.Unlock()
	o.inflight = append(o.inflight, g)
}

// attempt resolves one tier and verifies its candidate. Rejections are
// recorded immediately.
func (o *Orchestrator) attempt(
	ctx context.Context,
	req *domain.ResolutionRequest,
	tier domain.Tier,
	timeout time.Duration,
) (a attempt) {
	ctx, span := o.tracer.Start(ctx, "tier."+tier.String())
	defer span.End()
	span.SetAttribute("tier", tier)

	a = attempt{tier: tier}
	defer func() {
		if r := recover(); r != nil {
			a = attempt{
				tier:    tier,
				outcome: OutcomeEmpty,
				err:     zerr.With(zerr.Wrap(domain.ErrTierPanicked, fmt.Sprint(r)), "tier", tier.String()),
			}
		}
		span.SetAttribute("outcome", string(a.outcome))
		if a.err != nil {
			span.RecordError(a.err)
		}
	}()

	resolver, ok := o.resolvers[tier]
	if !ok {
		a.outcome = OutcomeEmpty
		a.err = zerr.Wrap(domain.ErrNoCandidate, "no resolver for "+tier.String())
		return a
	}

	candidate, err := resolver.Resolve(ctx, req, timeout)
	if err != nil {
		a.err = err
		a.outcome = OutcomeEmpty
		if ctx.Err() != nil {
			a.outcome = OutcomeAbandoned
		}
		o.logger.Warn(fmt.Sprintf("tier %s produced no candidate: %v", tier, err))
		return a
	}
	a.url = candidate
	span.SetAttribute("candidate", candidate)

	vctx, cancel := context.WithTimeout(ctx, o.cfg.VerifyTimeout)
	defer cancel()
	if o.verifier.Verify(vctx, candidate, req.UserAgent, o.cfg.VerifyMaxDepth) {
		a.outcome = OutcomeVerified
		return a
	}

	if ctx.Err() != nil {
		a.outcome = OutcomeAbandoned
		return a
	}

	a.outcome = OutcomeRejected
	a.err = zerr.With(zerr.Wrap(domain.ErrVerificationFailed, tier.String()), "url", candidate)
	o.logger.Warn(fmt.Sprintf("tier %s candidate failed verification: %s", tier, candidate))
	o.mutate(func(st *domain.State) {
		st.RecordFailure(req.TargetURL, req.Host(), tier, o.now(), o.cfg.DomainRecoveryWindow, o.cfg.FailureMemory)
	})
	return a
}

func (o *Orchestrator) succeed(span ports.Span, req *domain.ResolutionRequest, a attempt) domain.TierResult {
	o.mutate(func(st *domain.State) {
		st.RecordSuccess(req.TargetURL, a.url, a.tier, o.now(), o.cfg.FailureRetryWindow)
	})
	span.SetAttribute("tier", a.tier)
	o.logger.Info(fmt.Sprintf("tier %s won for %s", a.tier, req.TargetURL))
	return domain.TierResult{Tier: a.tier, URL: a.url}
}

// exhaust records every tier that ran and came back empty, then counts the
// exhaustion towards global fallback. Rejections were recorded as they happened.
func (o *Orchestrator) exhaust(ctx context.Context, req *domain.ResolutionRequest, outcomes map[domain.Tier]Outcome) {
	o.logger.Warn("all tiers failed for " + req.TargetURL)
	o.mutate(func(st *domain.State) {
		now := o.now()
		for tier := domain.TierProxy; tier <= domain.MaxTier; tier++ {
			if outcomes[tier] == OutcomeEmpty {
				st.RecordFailure(req.TargetURL, req.Host(), tier, now, o.cfg.DomainRecoveryWindow, o.cfg.FailureMemory)
			}
		}
		if ctx.Err() == nil {
			st.RecordExhaustion(now, o.cfg.FallbackThreshold, o.cfg.FallbackWindow)
		}
	})
}

// mutate applies fn to a freshly loaded state document and saves it.
func (o *Orchestrator) mutate(fn func(*domain.State)) {
	o.mu.Lock()
	defer o.mu.Unlock()

	st := o.store.Load()
	fn(st)
	if err := o.store.Save(st); err != nil {
		o.logger.Error(zerr.Wrap(err, "failed to save resolution state"))
	}
}
