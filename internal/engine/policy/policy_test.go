package policy_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/redirector/internal/core/domain"
	"go.trai.ch/redirector/internal/engine/policy"
)

const (
	target = "https://video.example/x"
	host   = "video.example"
	window = 15 * time.Second
)

var epochBase = time.Unix(1_700_000_000, 0)

func newRequest(t *testing.T, url string) *domain.ResolutionRequest {
	t.Helper()
	req, err := domain.NewResolutionRequest([]string{url}, domain.ClientProfile{}, "")
	require.NoError(t, err)
	return req
}

func TestRapidRetryDetector_Detect(t *testing.T) {
	t.Parallel()

	detector := policy.RapidRetryDetector{Window: window}

	t.Run("no record", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, domain.TierNone, detector.Detect(target, epochBase, domain.NewState()))
	})

	t.Run("fresh record escalates", func(t *testing.T) {
		t.Parallel()
		st := domain.NewState()
		st.MarkAttempt(target, domain.TierProxy, epochBase, window)
		assert.Equal(t, domain.TierModern, detector.Detect(target, epochBase.Add(time.Second), st))
	})

	t.Run("escalation caps at last resort", func(t *testing.T) {
		t.Parallel()
		st := domain.NewState()
		st.MarkAttempt(target, domain.TierLastResort, epochBase, window)
		assert.Equal(t, domain.TierLastResort, detector.Detect(target, epochBase.Add(time.Second), st))
	})

	t.Run("remembered failure starts at recorded tier", func(t *testing.T) {
		t.Parallel()
		st := domain.NewState()
		st.RecordFailure(target, host, domain.TierNative, epochBase, 15*time.Minute, 5*time.Minute)
		assert.Equal(t, domain.TierNative, detector.Detect(target, epochBase.Add(time.Minute), st))
	})

	t.Run("expired record", func(t *testing.T) {
		t.Parallel()
		st := domain.NewState()
		st.RecordFailure(target, host, domain.TierNative, epochBase, 15*time.Minute, 5*time.Minute)
		assert.Equal(t, domain.TierNone, detector.Detect(target, epochBase.Add(6*time.Minute), st))
		assert.NotContains(t, st.FailedURLs, target, "expired entry is dropped on read")
	})
}

func TestRapidRetryDetector_EscalationIdempotence(t *testing.T) {
	t.Parallel()

	detector := policy.RapidRetryDetector{Window: window}

	for _, tier := range []domain.Tier{domain.TierProxy, domain.TierModern, domain.TierNative} {
		st := domain.NewState()
		st.MarkAttempt(target, domain.TierProxy, epochBase, window)
		st.RecordSuccess(target, "https://cdn.example/x.mp4", tier, epochBase, window)

		assert.Equal(t, tier.Next(), detector.Detect(target, epochBase.Add(window-time.Second), st),
			"repeat inside the window escalates past %s", tier)
		assert.Equal(t, domain.TierNone, detector.Detect(target, epochBase.Add(window+time.Second), st),
			"repeat after the window starts over after %s", tier)
	}
}

func TestSelectTiers(t *testing.T) {
	t.Parallel()

	all := []domain.Tier{domain.TierProxy, domain.TierModern, domain.TierNative, domain.TierLastResort}

	tests := []struct {
		name       string
		setup      func(st *domain.State, cfg *domain.Config)
		at         time.Time
		floor      domain.Tier
		tiers      []domain.Tier
		racing     []domain.Tier
		useCache   bool
		fallback   bool
		circuitLen int
	}{
		{
			name:     "fresh state",
			at:       epochBase,
			floor:    domain.TierProxy,
			tiers:    all,
			racing:   []domain.Tier{domain.TierProxy, domain.TierModern},
			useCache: true,
		},
		{
			name: "global fallback",
			setup: func(st *domain.State, _ *domain.Config) {
				for range 3 {
					st.RecordExhaustion(epochBase, 3, 10*time.Minute)
				}
			},
			at:       epochBase.Add(time.Minute),
			floor:    domain.TierNative,
			tiers:    []domain.Tier{domain.TierNative, domain.TierLastResort},
			racing:   []domain.Tier{},
			fallback: true,
		},
		{
			name: "global fallback expired",
			setup: func(st *domain.State, _ *domain.Config) {
				for range 3 {
					st.RecordExhaustion(epochBase, 3, 10*time.Minute)
				}
			},
			at:       epochBase.Add(11 * time.Minute),
			floor:    domain.TierProxy,
			tiers:    all,
			racing:   []domain.Tier{domain.TierProxy, domain.TierModern},
			useCache: true,
		},
		{
			name: "circuit skips tiers one and two",
			setup: func(st *domain.State, _ *domain.Config) {
				st.RecordFailure("https://video.example/other", host, domain.TierProxy, epochBase, 15*time.Minute, 5*time.Minute)
				st.RecordFailure("https://video.example/other", host, domain.TierModern, epochBase, 15*time.Minute, 5*time.Minute)
			},
			at:         epochBase.Add(time.Minute),
			floor:      domain.TierNative,
			tiers:      []domain.Tier{domain.TierNative, domain.TierLastResort},
			racing:     []domain.Tier{},
			circuitLen: 2,
		},
		{
			name: "circuit recovers after expiry",
			setup: func(st *domain.State, _ *domain.Config) {
				st.RecordFailure("https://video.example/other", host, domain.TierProxy, epochBase, 15*time.Minute, 5*time.Minute)
				st.RecordFailure("https://video.example/other", host, domain.TierModern, epochBase, 15*time.Minute, 5*time.Minute)
			},
			at:       epochBase.Add(16 * time.Minute),
			floor:    domain.TierProxy,
			tiers:    all,
			racing:   []domain.Tier{domain.TierProxy, domain.TierModern},
			useCache: true,
		},
		{
			name: "single failed tier is disabled without raising the floor",
			setup: func(st *domain.State, _ *domain.Config) {
				st.RecordFailure("https://video.example/other", host, domain.TierProxy, epochBase, 15*time.Minute, 5*time.Minute)
			},
			at:         epochBase.Add(time.Minute),
			floor:      domain.TierProxy,
			tiers:      []domain.Tier{domain.TierModern, domain.TierNative, domain.TierLastResort},
			racing:     []domain.Tier{domain.TierModern},
			useCache:   true,
			circuitLen: 1,
		},
		{
			name: "fully open circuit is bypassed",
			setup: func(st *domain.State, _ *domain.Config) {
				for _, tier := range all {
					st.RecordFailure("https://video.example/other", host, tier, epochBase, 15*time.Minute, 5*time.Minute)
				}
			},
			at:     epochBase.Add(time.Minute),
			floor:  domain.TierNative,
			tiers:  []domain.Tier{domain.TierNative, domain.TierLastResort},
			racing: []domain.Tier{},
		},
		{
			name: "rapid retry forces the next tier",
			setup: func(st *domain.State, _ *domain.Config) {
				st.RecordSuccess(target, "https://cdn.example/x.mp4", domain.TierProxy, epochBase, window)
			},
			at:     epochBase.Add(5 * time.Second),
			floor:  domain.TierModern,
			tiers:  []domain.Tier{domain.TierModern, domain.TierNative, domain.TierLastResort},
			racing: []domain.Tier{domain.TierModern},
		},
		{
			name: "config switches",
			setup: func(_ *domain.State, cfg *domain.Config) {
				cfg.EnableProxy = false
				cfg.EnableNative = false
			},
			at:       epochBase,
			floor:    domain.TierProxy,
			tiers:    []domain.Tier{domain.TierModern},
			racing:   []domain.Tier{domain.TierModern},
			useCache: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			st := domain.NewState()
			cfg := domain.DefaultConfig(t.TempDir())
			if tt.setup != nil {
				tt.setup(st, &cfg)
			}

			plan := policy.SelectTiers(cfg, newRequest(t, target), st, tt.at, policy.RapidRetryDetector{Window: window})

			assert.Equal(t, tt.floor, plan.Floor)
			assert.Equal(t, tt.tiers, plan.Tiers())
			assert.Equal(t, tt.racing, plan.Racing())
			assert.Equal(t, tt.useCache, plan.UseCache())
			assert.Equal(t, tt.fallback, plan.Fallback)
			assert.Len(t, plan.CircuitOpen, tt.circuitLen)
		})
	}
}

func TestSelectTiers_CircuitIsPerHost(t *testing.T) {
	t.Parallel()

	st := domain.NewState()
	st.RecordFailure("https://video.example/a", host, domain.TierProxy, epochBase, 15*time.Minute, 5*time.Minute)
	st.RecordFailure("https://video.example/a", host, domain.TierModern, epochBase, 15*time.Minute, 5*time.Minute)

	plan := policy.SelectTiers(domain.DefaultConfig(t.TempDir()), newRequest(t, "https://other.example/y"), st,
		epochBase.Add(time.Minute), policy.RapidRetryDetector{Window: window})
	assert.Equal(t, domain.TierProxy, plan.Floor)
	assert.True(t, plan.Eligible(domain.TierProxy))
}

func TestPlan_String(t *testing.T) {
	t.Parallel()

	plan := policy.SelectTiers(domain.DefaultConfig(t.TempDir()), newRequest(t, target), domain.NewState(),
		epochBase, policy.RapidRetryDetector{Window: window})
	assert.Equal(t, "floor=proxy tiers=[proxy,modern,native,last-resort]", plan.String())
}
