package verifier

import (
	"bufio"
	"bytes"
	"context"
	"net/url"
	"strings"
)

const (
	tagStreamInf      = "#EXT-X-STREAM-INF"
	tagSegment        = "#EXTINF"
	tagTargetDuration = "#EXT-X-TARGETDURATION"
)

// verifyHLS accepts a media playlist outright and follows the first variant of
// a master playlist while depth allows.
func (v *Verifier) verifyHLS(ctx context.Context, base *url.URL, body []byte, userAgent string, depth int) bool {
	if !bytes.Contains(body, []byte(tagStreamInf)) {
		return bytes.Contains(body, []byte(tagSegment)) || bytes.Contains(body, []byte(tagTargetDuration))
	}
	if depth <= 0 {
		return false
	}

	variant, ok := firstVariant(body)
	if !ok {
		return false
	}
	ref, err := url.Parse(variant)
	if err != nil {
		return false
	}
	return v.verify(ctx, base.ResolveReference(ref).String(), userAgent, depth-1)
}

// firstVariant returns the first URI line that follows an EXT-X-STREAM-INF tag.
func firstVariant(body []byte) (string, bool) {
	scanner := bufio.NewScanner(bytes.NewReader(body))
	pending := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if strings.HasPrefix(line, tagStreamInf) {
				pending = true
			}
			continue
		}
		if pending {
			return line, true
		}
	}
	return "", false
}
