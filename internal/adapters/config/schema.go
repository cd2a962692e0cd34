package config

// FileConfig is the on-disk configuration. Pointer fields distinguish a
// missing key from a zero value. Durations are in seconds.
type FileConfig struct {
	PreferredMaxHeight *int    `yaml:"preferred_max_height"`
	CustomUserAgent    *string `yaml:"custom_user_agent"`
	RemoteBase         *string `yaml:"remote_base"`
	UseTestVersion     *bool   `yaml:"use_test_version"`

	EnableTier1Proxy  *bool `yaml:"enable_tier1_proxy"`
	EnableTier2Modern *bool `yaml:"enable_tier2_modern"`
	EnableTier3Native *bool `yaml:"enable_tier3_native"`

	ResolutionTimeout  *float64 `yaml:"resolution_timeout"`
	HeadStart          *float64 `yaml:"head_start"`
	RaceTimeout        *float64 `yaml:"race_timeout"`
	NativeTimeout      *float64 `yaml:"native_timeout"`
	LastResortTimeout  *float64 `yaml:"last_resort_timeout"`
	VerifyTimeout      *float64 `yaml:"verify_timeout"`
	CacheVerifyTimeout *float64 `yaml:"cache_verify_timeout"`
	DrainTimeout       *float64 `yaml:"drain_timeout"`
	VerifyMaxDepth     *int     `yaml:"verify_max_depth"`

	FailureRetryWindow   *float64 `yaml:"failure_retry_window"`
	CacheTTL             *float64 `yaml:"cache_ttl"`
	DomainRecoveryWindow *float64 `yaml:"domain_recovery_window"`
	FailureMemory        *float64 `yaml:"failure_memory"`
	FallbackWindow       *float64 `yaml:"fallback_window"`
	FallbackThreshold    *int     `yaml:"fallback_threshold"`

	DebugMode *bool   `yaml:"debug_mode"`
	LogFormat *string `yaml:"log_format"`
}
