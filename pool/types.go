package pool

// TranscribeRequest carries the inputs of a single transcription call
// through the proxy path.
type TranscribeRequest struct {
	// AudioBase64 is the audio payload, base64-encoded, optionally wrapped
	// in a data URI. It is decoded and validated inside Transcribe.
	AudioBase64 string
	// Language is an optional BCP-47-ish language hint forwarded to the
	// child server unchanged. Defaults to "en" if empty.
	Language string
	// Timestamps mirrors transcribe()'s signature; the decode path always
	// returns segments when the child sends them, so this has no effect
	// on the result today. Carried through for interface parity.
	Timestamps bool
	// Metadata is caller-supplied and merged into the result's Metadata
	// alongside worker_id/worker_url.
	Metadata map[string]string
}

// Segment is a single timed span of transcribed text, matching the shape
// the whisper-server child process emits.
type Segment struct {
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	Text       string   `json:"text"`
	Confidence *float64 `json:"confidence"`
	Speaker    *string  `json:"speaker"`
}

// TranscriptionResult is the normalized response shape returned to callers
// of the proxy path, independent of the exact fields the child process
// happened to emit.
type TranscriptionResult struct {
	Text       string            `json:"text"`
	Language   string            `json:"language"`
	Segments   []Segment         `json:"segments"`
	Duration   float64           `json:"duration"`
	Confidence float64           `json:"confidence"`
	Provider   string            `json:"provider"`
	Metadata   map[string]string `json:"metadata"`
}
