package domain

import "time"

const (
	// DefaultUserAgent is the browser user agent sent when none is configured.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// DefaultRemoteBase is the production remote resolver.
	DefaultRemoteBase = "https://whyknot.dev"

	// TestRemoteBase is the staging remote resolver selected by use_test_version.
	TestRemoteBase = "https://test.whyknot.dev"
)

// LogFormat selects the log file encoding.
type LogFormat string

const (
	// LogFormatPretty writes human-readable lines.
	LogFormatPretty LogFormat = "pretty"
	// LogFormatJSON writes one JSON object per line.
	LogFormatJSON LogFormat = "json"
)

// Config holds every tunable of a resolution.
type Config struct {
	BaseDir string

	PreferredMaxHeight int
	CustomUserAgent    string
	RemoteBase         string

	EnableProxy  bool
	EnableModern bool
	EnableNative bool

	ResolutionTimeout  time.Duration
	HeadStart          time.Duration
	RaceTimeout        time.Duration
	NativeTimeout      time.Duration
	LastResortTimeout  time.Duration
	VerifyTimeout      time.Duration
	CacheVerifyTimeout time.Duration
	DrainTimeout       time.Duration
	VerifyMaxDepth     int

	FailureRetryWindow   time.Duration
	CacheTTL             time.Duration
	DomainRecoveryWindow time.Duration
	FailureMemory        time.Duration
	FallbackWindow       time.Duration
	FallbackThreshold    int

	DebugMode bool
	LogFormat LogFormat
}

// DefaultConfig returns the configuration used when no file overrides it.
func DefaultConfig(baseDir string) Config {
	return Config{
		BaseDir:              baseDir,
		PreferredMaxHeight:   1080,
		CustomUserAgent:      DefaultUserAgent,
		RemoteBase:           DefaultRemoteBase,
		EnableProxy:          true,
		EnableModern:         true,
		EnableNative:         true,
		ResolutionTimeout:    5 * time.Second,
		HeadStart:            2 * time.Second,
		RaceTimeout:          20 * time.Second,
		NativeTimeout:        15 * time.Second,
		LastResortTimeout:    20 * time.Second,
		VerifyTimeout:        3 * time.Second,
		CacheVerifyTimeout:   2 * time.Second,
		DrainTimeout:         3 * time.Second,
		VerifyMaxDepth:       2,
		FailureRetryWindow:   15 * time.Second,
		CacheTTL:             time.Hour,
		DomainRecoveryWindow: 15 * time.Minute,
		FailureMemory:        5 * time.Minute,
		FallbackWindow:       10 * time.Minute,
		FallbackThreshold:    3,
		LogFormat:            LogFormatPretty,
	}
}

// TierEnabled reports whether the configuration allows tier t.
// The last-resort tier follows the proxy switch.
func (c Config) TierEnabled(t Tier) bool {
	switch t {
	case TierProxy, TierLastResort:
		return c.EnableProxy
	case TierModern:
		return c.EnableModern
	case TierNative:
		return c.EnableNative
	default:
		return false
	}
}
