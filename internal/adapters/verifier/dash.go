package verifier

import (
	"bytes"
	"encoding/xml"
)

// isDASH reports whether body is an MPD document whose root element contains
// a Period. The body may be truncated after the Period start tag.
func isDASH(body []byte) bool {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.Strict = false

	rootSeen := false
	for {
		tok, err := dec.Token()
		if err != nil {
			return false
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if !rootSeen {
			if start.Name.Local != "MPD" {
				return false
			}
			rootSeen = true
			continue
		}
		if start.Name.Local == "Period" {
			return true
		}
	}
}
