package domain

import (
	"net/url"
	"regexp"
	"strings"

	"go.trai.ch/zerr"
)

// PlayerHint names the playback engine the host session is using.
type PlayerHint string

const (
	// PlayerUnknown means no hint is available.
	PlayerUnknown PlayerHint = "unknown"
	// PlayerAVPro is the modern playback engine that handles adaptive streams.
	PlayerAVPro PlayerHint = "avpro"
	// PlayerUnity is the legacy engine that needs progressive MP4.
	PlayerUnity PlayerHint = "unity"
)

// ParsePlayerHint converts a raw string into a PlayerHint.
func ParsePlayerHint(raw string) (PlayerHint, error) {
	switch h := PlayerHint(strings.ToLower(strings.TrimSpace(raw))); h {
	case PlayerAVPro, PlayerUnity, PlayerUnknown:
		return h, nil
	case "":
		return PlayerUnknown, nil
	default:
		return "", zerr.With(zerr.Wrap(ErrInvalidPlayerHint, "parse player hint"), "hint", raw)
	}
}

// ClientProfile describes the requesting client. It is computed once per request.
type ClientProfile struct {
	Legacy bool
	Player PlayerHint
}

// ProxyPlayer returns the player parameter sent to the remote resolver.
func (p ClientProfile) ProxyPlayer() PlayerHint {
	if p.Legacy {
		return PlayerUnity
	}
	return PlayerAVPro
}

var targetURLPattern = regexp.MustCompile(`https?://[^\s<>"+]+|www\.[^\s<>"+]+`)

// ExtractTargetURL returns the first media URL found in args.
func ExtractTargetURL(args []string) (string, bool) {
	for _, arg := range args {
		if strings.HasPrefix(arg, "-") {
			continue
		}
		if m := targetURLPattern.FindString(arg); m != "" {
			if strings.HasPrefix(m, "www.") {
				m = "https://" + m
			}
			return m, true
		}
	}
	return "", false
}

// ResolutionRequest is the immutable input of one resolution.
type ResolutionRequest struct {
	TargetURL string
	RawArgs   []string
	Profile   ClientProfile
	UserAgent string
}

// NewResolutionRequest builds a request from the caller arguments.
func NewResolutionRequest(args []string, profile ClientProfile, userAgent string) (*ResolutionRequest, error) {
	target, ok := ExtractTargetURL(args)
	if !ok {
		return nil, ErrNoTargetURL
	}
	raw := make([]string, len(args))
	copy(raw, args)
	return &ResolutionRequest{
		TargetURL: target,
		RawArgs:   raw,
		Profile:   profile,
		UserAgent: userAgent,
	}, nil
}

// Host returns the lower-cased host of the target URL without port.
func (r *ResolutionRequest) Host() string {
	u, err := url.Parse(r.TargetURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// FormatSelector returns the value of the -f/--format argument, if any.
func (r *ResolutionRequest) FormatSelector() string {
	return ArgValue(r.RawArgs, "-f", "--format")
}

// ArgValue returns the value following the first of names in args.
// The --name=value form is accepted for long names.
func ArgValue(args []string, names ...string) string {
	for i, arg := range args {
		for _, name := range names {
			if arg == name && i+1 < len(args) {
				return args[i+1]
			}
			if strings.HasPrefix(name, "--") && strings.HasPrefix(arg, name+"=") {
				return strings.TrimPrefix(arg, name+"=")
			}
		}
	}
	return ""
}
