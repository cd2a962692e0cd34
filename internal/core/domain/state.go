package domain

import (
	"encoding/json"
	"math"
	"slices"
	"time"
)

// HistoryLimit is the maximum number of history entries kept in the state document.
const HistoryLimit = 3

// Epoch is a wall-clock instant stored as fractional Unix seconds.
type Epoch float64

// EpochOf converts t to an Epoch.
func EpochOf(t time.Time) Epoch {
	return Epoch(float64(t.UnixNano()) / float64(time.Second))
}

// Time converts e back to a time.Time.
func (e Epoch) Time() time.Time {
	sec, frac := math.Modf(float64(e))
	return time.Unix(int64(sec), int64(frac*float64(time.Second)))
}

// Add returns e shifted by d.
func (e Epoch) Add(d time.Duration) Epoch {
	return e + Epoch(d.Seconds())
}

// HistoryEntry is a verified resolution kept for reuse.
// It is encoded as the array [target, resolved, tier, timestamp].
type HistoryEntry struct {
	TargetURL   string
	ResolvedURL string
	Tier        Tier
	Timestamp   Epoch
}

// MarshalJSON encodes the entry as a four-element array.
func (h HistoryEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{h.TargetURL, h.ResolvedURL, int(h.Tier), float64(h.Timestamp)})
}

// UnmarshalJSON decodes the four-element array form.
func (h *HistoryEntry) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) < 4 {
		return ErrStateUnmarshalFailed
	}
	if err := json.Unmarshal(raw[0], &h.TargetURL); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[1], &h.ResolvedURL); err != nil {
		return err
	}
	var tier float64
	if err := json.Unmarshal(raw[2], &tier); err != nil {
		return err
	}
	h.Tier = Tier(tier)
	var ts float64
	if err := json.Unmarshal(raw[3], &ts); err != nil {
		return err
	}
	h.Timestamp = Epoch(ts)
	return nil
}

// DomainCircuit records which tiers recently failed for a host.
type DomainCircuit struct {
	FailedTiers []Tier `json:"failed_tiers"`
	Expiry      Epoch  `json:"expiry"`
}

// Has reports whether t is in the failed set.
func (c DomainCircuit) Has(t Tier) bool {
	return slices.Contains(c.FailedTiers, t)
}

// URLFailure tracks escalation for a single target URL.
type URLFailure struct {
	Tier            Tier  `json:"tier"`
	LastRequestTime Epoch `json:"last_request_time"`
	Expiry          Epoch `json:"expiry"`
}

// State is the persistent resolution document shared by all invocations.
// Accessors drop expired entries as they read them.
type State struct {
	History           []HistoryEntry           `json:"history"`
	DomainBlacklist   map[string]DomainCircuit `json:"domain_blacklist"`
	FailedURLs        map[string]URLFailure    `json:"failed_urls"`
	ForceFallback     bool                     `json:"force_fallback"`
	FallbackUntil     Epoch                    `json:"fallback_until"`
	ConsecutiveErrors int                      `json:"consecutive_errors"`
	ActivePlayer      PlayerHint               `json:"active_player,omitempty"`

	// extra keeps fields written by other tools so a save does not drop them.
	extra map[string]json.RawMessage
}

// NewState returns an empty state document.
func NewState() *State {
	return &State{
		History:         []HistoryEntry{},
		DomainBlacklist: map[string]DomainCircuit{},
		FailedURLs:      map[string]URLFailure{},
	}
}

type stateAlias State

var stateKeys = []string{
	"history", "domain_blacklist", "failed_urls", "force_fallback",
	"fallback_until", "consecutive_errors", "active_player",
}

// UnmarshalJSON decodes the document and keeps unknown fields.
func (s *State) UnmarshalJSON(data []byte) error {
	var alias stateAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, k := range stateKeys {
		delete(all, k)
	}
	*s = State(alias)
	if len(all) > 0 {
		s.extra = all
	}
	s.normalize()
	return nil
}

// MarshalJSON encodes the document including preserved unknown fields.
func (s *State) MarshalJSON() ([]byte, error) {
	s.normalize()
	known, err := json.Marshal((*stateAlias)(s))
	if err != nil {
		return nil, err
	}
	if len(s.extra) == 0 {
		return known, nil
	}
	merged := make(map[string]json.RawMessage, len(s.extra)+len(stateKeys))
	for k, v := range s.extra {
		merged[k] = v
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

func (s *State) normalize() {
	if s.History == nil {
		s.History = []HistoryEntry{}
	}
	if s.DomainBlacklist == nil {
		s.DomainBlacklist = map[string]DomainCircuit{}
	}
	if s.FailedURLs == nil {
		s.FailedURLs = map[string]URLFailure{}
	}
}

// CachedResult returns the unexpired history entry for target.
func (s *State) CachedResult(target string, now time.Time, ttl time.Duration) (HistoryEntry, bool) {
	s.PruneHistory(now, ttl)
	for _, h := range s.History {
		if h.TargetURL == target {
			return h, true
		}
	}
	return HistoryEntry{}, false
}

// PruneHistory drops history entries older than ttl.
func (s *State) PruneHistory(now time.Time, ttl time.Duration) {
	cutoff := EpochOf(now.Add(-ttl))
	s.History = slices.DeleteFunc(s.History, func(h HistoryEntry) bool {
		return h.Timestamp < cutoff
	})
}

// PurgeHistory removes every history entry for target.
func (s *State) PurgeHistory(target string) {
	s.History = slices.DeleteFunc(s.History, func(h HistoryEntry) bool {
		return h.TargetURL == target
	})
}

// Circuit returns the unexpired circuit for host.
func (s *State) Circuit(host string, now time.Time) (DomainCircuit, bool) {
	c, ok := s.DomainBlacklist[host]
	if !ok {
		return DomainCircuit{}, false
	}
	if c.Expiry <= EpochOf(now) {
		delete(s.DomainBlacklist, host)
		return DomainCircuit{}, false
	}
	return c, true
}

// URLFailure returns the unexpired escalation entry for target.
func (s *State) URLFailure(target string, now time.Time) (URLFailure, bool) {
	f, ok := s.FailedURLs[target]
	if !ok {
		return URLFailure{}, false
	}
	if f.Expiry <= EpochOf(now) {
		delete(s.FailedURLs, target)
		return URLFailure{}, false
	}
	return f, true
}

// FallbackActive reports whether global fallback mode is in force.
func (s *State) FallbackActive(now time.Time) bool {
	if !s.ForceFallback {
		return false
	}
	if s.FallbackUntil <= EpochOf(now) {
		s.ForceFallback = false
		s.FallbackUntil = 0
		return false
	}
	return true
}

// MarkAttempt records the start of an attempt for target at the given floor tier.
func (s *State) MarkAttempt(target string, floor Tier, now time.Time, retryWindow time.Duration) {
	at := EpochOf(now)
	entry, ok := s.URLFailure(target, now)
	if !ok {
		entry = URLFailure{}
	}
	entry.Tier = max(entry.Tier, floor, TierProxy)
	entry.LastRequestTime = at
	entry.Expiry = max(entry.Expiry, at.Add(retryWindow))
	s.FailedURLs[target] = entry
}

// RecordSuccess stores a verified resolution. The URL entry is reset so that it
// only marks the tier just returned, for rapid-retry detection.
func (s *State) RecordSuccess(target, resolved string, tier Tier, now time.Time, retryWindow time.Duration) {
	last := EpochOf(now)
	if f, ok := s.FailedURLs[target]; ok && f.LastRequestTime > 0 && f.LastRequestTime <= last {
		last = f.LastRequestTime
	}
	s.FailedURLs[target] = URLFailure{
		Tier:            tier,
		LastRequestTime: last,
		Expiry:          last.Add(retryWindow),
	}
	s.ForceFallback = false
	s.FallbackUntil = 0
	s.ConsecutiveErrors = 0

	s.PurgeHistory(target)
	s.History = slices.Insert(s.History, 0, HistoryEntry{
		TargetURL:   target,
		ResolvedURL: resolved,
		Tier:        tier,
		Timestamp:   EpochOf(now),
	})
	if len(s.History) > HistoryLimit {
		s.History = s.History[:HistoryLimit]
	}
}

// RecordFailure marks tier as failed for host and advances the URL's escalation tier.
func (s *State) RecordFailure(target, host string, tier Tier, now time.Time, recovery, memory time.Duration) {
	at := EpochOf(now)
	if host != "" {
		c, _ := s.Circuit(host, now)
		if !c.Has(tier) {
			c.FailedTiers = append(c.FailedTiers, tier)
			slices.Sort(c.FailedTiers)
		}
		c.Expiry = at.Add(recovery)
		s.DomainBlacklist[host] = c
	}

	f, ok := s.URLFailure(target, now)
	if !ok {
		f = URLFailure{LastRequestTime: at}
	}
	f.Tier = max(f.Tier, tier)
	f.Expiry = max(f.Expiry, at.Add(memory))
	s.FailedURLs[target] = f
}

// RecordExhaustion counts a resolution where every tier failed and enables
// global fallback once threshold consecutive failures are reached.
func (s *State) RecordExhaustion(now time.Time, threshold int, window time.Duration) {
	s.ConsecutiveErrors++
	if threshold > 0 && s.ConsecutiveErrors >= threshold {
		s.ForceFallback = true
		s.FallbackUntil = EpochOf(now).Add(window)
	}
}

// SetActivePlayer records the session player hint.
func (s *State) SetActivePlayer(hint PlayerHint) {
	s.ActivePlayer = hint
}
