// Package policy decides which resolution tiers a request may use.
package policy

import (
	"time"

	"go.trai.ch/redirector/internal/core/domain"
)

// RapidRetryDetector treats a repeat request for the same URL inside Window as
// a signal that the previous answer did not play, and escalates past the tier
// that produced it.
type RapidRetryDetector struct {
	Window time.Duration
}

// Detect returns the tier the request is forced to start at, or domain.TierNone.
func (d RapidRetryDetector) Detect(target string, now time.Time, st *domain.State) domain.Tier {
	entry, ok := st.URLFailure(target, now)
	if !ok || !entry.Tier.Valid() {
		return domain.TierNone
	}
	if now.Before(entry.LastRequestTime.Time().Add(d.Window)) {
		return entry.Tier.Next()
	}
	return entry.Tier
}
