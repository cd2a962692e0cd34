package domain

import "strconv"

// Tier identifies a resolution backend. Ordinals are fixed and persisted.
type Tier int

const (
	// TierNone means no tier, or no forced floor.
	TierNone Tier = iota
	// TierProxy resolves through the remote resolver service.
	TierProxy
	// TierModern runs the modern resolver tool.
	TierModern
	// TierNative runs the original resolver tool shipped with the host.
	TierNative
	// TierLastResort retries the remote resolver with a longer timeout.
	TierLastResort
)

// MaxTier is the highest tier ordinal.
const MaxTier = TierLastResort

// String returns the short name of the tier.
func (t Tier) String() string {
	switch t {
	case TierNone:
		return "none"
	case TierProxy:
		return "proxy"
	case TierModern:
		return "modern"
	case TierNative:
		return "native"
	case TierLastResort:
		return "last-resort"
	default:
		return "tier-" + strconv.Itoa(int(t))
	}
}

// Valid reports whether t is one of the four resolution tiers.
func (t Tier) Valid() bool {
	return t >= TierProxy && t <= MaxTier
}

// Next returns the tier after t, capped at MaxTier.
func (t Tier) Next() Tier {
	if t >= MaxTier {
		return MaxTier
	}
	return t + 1
}

// TierResult is a stream URL that passed verification.
type TierResult struct {
	Tier   Tier
	URL    string
	Cached bool
}
