// Package config loads the resolver configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.trai.ch/redirector/internal/core/domain"
	"go.trai.ch/redirector/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ConfigLoader using a YAML or JSON file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// candidateFiles are searched in order; the first existing file wins.
var candidateFiles = []string{domain.ConfigFileName, domain.LegacyConfigFileName}

// Load reads the configuration from baseDir. A missing file yields the
// defaults. On a read or parse error the defaults are returned with the error.
func (l *Loader) Load(baseDir string) (domain.Config, error) {
	cfg := domain.DefaultConfig(baseDir)

	configPath, ok := findConfiguration(baseDir)
	if !ok {
		return cfg, nil
	}

	var file FileConfig
	if err := readAndUnmarshalYAML(configPath, &file); err != nil {
		return cfg, zerr.With(err, "path", configPath)
	}

	l.apply(&cfg, &file)
	return cfg, nil
}

func findConfiguration(baseDir string) (string, bool) {
	for _, name := range candidateFiles {
		p := filepath.Join(baseDir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}

//nolint:cyclop,gocyclo // flat list of optional overrides
func (l *Loader) apply(cfg *domain.Config, f *FileConfig) {
	if f.PreferredMaxHeight != nil && *f.PreferredMaxHeight > 0 {
		cfg.PreferredMaxHeight = *f.PreferredMaxHeight
	}
	if f.CustomUserAgent != nil && strings.TrimSpace(*f.CustomUserAgent) != "" {
		cfg.CustomUserAgent = strings.TrimSpace(*f.CustomUserAgent)
	}
	if f.UseTestVersion != nil && *f.UseTestVersion {
		cfg.RemoteBase = domain.TestRemoteBase
	}
	if f.RemoteBase != nil && strings.TrimSpace(*f.RemoteBase) != "" {
		cfg.RemoteBase = strings.TrimRight(strings.TrimSpace(*f.RemoteBase), "/")
	}

	setBool(&cfg.EnableProxy, f.EnableTier1Proxy)
	setBool(&cfg.EnableModern, f.EnableTier2Modern)
	setBool(&cfg.EnableNative, f.EnableTier3Native)
	setBool(&cfg.DebugMode, f.DebugMode)

	setSeconds(&cfg.ResolutionTimeout, f.ResolutionTimeout)
	setSeconds(&cfg.HeadStart, f.HeadStart)
	setSeconds(&cfg.RaceTimeout, f.RaceTimeout)
	setSeconds(&cfg.NativeTimeout, f.NativeTimeout)
	setSeconds(&cfg.LastResortTimeout, f.LastResortTimeout)
	setSeconds(&cfg.VerifyTimeout, f.VerifyTimeout)
	setSeconds(&cfg.CacheVerifyTimeout, f.CacheVerifyTimeout)
	setSeconds(&cfg.DrainTimeout, f.DrainTimeout)
	setSeconds(&cfg.FailureRetryWindow, f.FailureRetryWindow)
	setSeconds(&cfg.CacheTTL, f.CacheTTL)
	setSeconds(&cfg.DomainRecoveryWindow, f.DomainRecoveryWindow)
	setSeconds(&cfg.FailureMemory, f.FailureMemory)
	setSeconds(&cfg.FallbackWindow, f.FallbackWindow)

	if f.VerifyMaxDepth != nil && *f.VerifyMaxDepth >= 0 {
		cfg.VerifyMaxDepth = *f.VerifyMaxDepth
	}
	if f.FallbackThreshold != nil && *f.FallbackThreshold >= 0 {
		cfg.FallbackThreshold = *f.FallbackThreshold
	}

	if f.LogFormat != nil {
		switch format := domain.LogFormat(strings.ToLower(*f.LogFormat)); format {
		case domain.LogFormatJSON, domain.LogFormatPretty:
			cfg.LogFormat = format
		default:
			l.Logger.Warn(fmt.Sprintf("unknown log_format %q, using %s", *f.LogFormat, cfg.LogFormat))
		}
	}

	if cfg.HeadStart > cfg.RaceTimeout {
		cfg.HeadStart = cfg.RaceTimeout
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setSeconds(dst *time.Duration, v *float64) {
	if v != nil && *v > 0 {
		*dst = time.Duration(*v * float64(time.Second))
	}
}

// readAndUnmarshalYAML reads a YAML file and unmarshals it into the target struct.
func readAndUnmarshalYAML[T any](configPath string, target *T) error {
	// #nosec G304 -- configPath is built from the base directory
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	if parseErr := yaml.Unmarshal(configFile, target); parseErr != nil {
		return zerr.Wrap(parseErr, domain.ErrConfigParseFailed.Error())
	}

	return nil
}

// ResolveBaseDir returns the directory holding config, state and tools:
// $REDIRECTOR_HOME when set, else the directory of the running executable.
func ResolveBaseDir() (string, error) {
	if home := strings.TrimSpace(os.Getenv(domain.HomeEnvVar)); home != "" {
		return filepath.Abs(home)
	}

	exe, err := os.Executable()
	if err != nil {
		return "", zerr.Wrap(err, "failed to locate executable")
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", zerr.Wrap(err, "failed to resolve executable path")
	}
	return filepath.Dir(exe), nil
}
