package pool

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// decodeAudioBase64 accepts audio payloads encoded either as bare base64
// or as a data URI (`data:audio/wav;base64,...`), tolerates embedded
// whitespace and newlines from naive client-side chunking, and returns
// the decoded bytes.
func decodeAudioBase64(s string) ([]byte, error) {
	s = stripDataURIPrefix(s)
	s = stripWhitespace(s)
	if s == "" {
		return nil, fmt.Errorf("empty audio payload")
	}

	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	// Some clients omit padding; fall back to the unpadded variant before
	// giving up.
	if b, err := base64.RawStdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return nil, fmt.Errorf("invalid base64 audio payload")
}

// stripDataURIPrefix removes a leading "data:<mime>;base64," prefix if
// present, leaving the raw base64 text.
func stripDataURIPrefix(s string) string {
	if !strings.HasPrefix(s, "data:") {
		return s
	}
	if idx := strings.Index(s, ","); idx != -1 {
		return s[idx+1:]
	}
	return s
}

// stripWhitespace removes spaces, tabs and newlines that some encoders
// insert when line-wrapping base64 output.
func stripWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
