// Package detector derives the client profile of a resolution request from
// its arguments and the session hint.
package detector

import (
	"regexp"
	"strings"

	"go.trai.ch/redirector/internal/core/domain"
)

// legacyAgentMarker identifies the legacy player's HTTP user agent.
const legacyAgentMarker = "unityplayer"

// protocolExclusion matches format filters that rule out segmented protocols,
// which only the legacy player asks for.
var protocolExclusion = regexp.MustCompile(`protocol\s*(!\*?=|\^=)\s*(m3u8|dash|http)`)

// UserAgent returns the user agent the caller asked for, falling back to configured.
// Both --user-agent and a User-Agent --add-header are honoured.
func UserAgent(args []string, configured string) string {
	if ua := domain.ArgValue(args, "--user-agent"); ua != "" {
		return ua
	}
	for i, arg := range args {
		var header string
		switch {
		case arg == "--add-header" && i+1 < len(args):
			header = args[i+1]
		case strings.HasPrefix(arg, "--add-header="):
			header = strings.TrimPrefix(arg, "--add-header=")
		default:
			continue
		}
		name, value, ok := strings.Cut(header, ":")
		if ok && strings.EqualFold(strings.TrimSpace(name), "User-Agent") {
			return strings.TrimSpace(value)
		}
	}
	return configured
}

// DetectProfile computes the client profile once per request. The client is
// legacy when the session hint says so, when its user agent is the legacy
// player's, or when its format filters exclude segmented protocols.
func DetectProfile(args []string, userAgent string, hint domain.PlayerHint) domain.ClientProfile {
	legacy := hint == domain.PlayerUnity ||
		strings.Contains(strings.ToLower(userAgent), legacyAgentMarker) ||
		hasProtocolExclusion(args)

	player := hint
	if player == "" || player == domain.PlayerUnknown {
		player = domain.PlayerUnknown
		if legacy {
			player = domain.PlayerUnity
		}
	}
	return domain.ClientProfile{Legacy: legacy, Player: player}
}

func hasProtocolExclusion(args []string) bool {
	format := domain.ArgValue(args, "-f", "--format")
	return format != "" && protocolExclusion.MatchString(format)
}
