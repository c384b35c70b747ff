package pool

import (
	"encoding/json"
	"strings"
)

// inferenceResponse mirrors the loosely-specified shape whisper-server
// emits: some builds use "text", older ones "transcript", and segments are
// optional entirely.
type inferenceResponse struct {
	Text       string         `json:"text"`
	Transcript string         `json:"transcript"`
	Segments   []inferenceSeg `json:"segments"`
}

type inferenceSeg struct {
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	Text       string   `json:"text"`
	Confidence *float64 `json:"confidence"`
	Speaker    *string  `json:"speaker"`
}

// decodeInferenceResponse tolerantly parses a child server's /inference
// response body, falling back field by field rather than failing outright
// when an optional field is absent.
func decodeInferenceResponse(body []byte) (*TranscriptionResult, error) {
	var raw inferenceResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}

	text := raw.Text
	if text == "" {
		text = raw.Transcript
	}

	segments := make([]Segment, 0, len(raw.Segments))
	for _, s := range raw.Segments {
		end := s.End
		if end == 0 {
			end = s.Start
		}
		segments = append(segments, Segment{
			Start:      s.Start,
			End:        end,
			Text:       strings.TrimSpace(s.Text),
			Confidence: s.Confidence,
			Speaker:    s.Speaker,
		})
	}

	var duration float64
	if n := len(segments); n > 0 {
		duration = segments[n-1].End
	}

	confidence := 0.0
	if len(segments) > 0 {
		confidence = 1.0
	}

	return &TranscriptionResult{
		Text:       text,
		Segments:   segments,
		Duration:   duration,
		Confidence: confidence,
		Provider:   "whisper-server",
		Metadata:   map[string]string{},
	}, nil
}
