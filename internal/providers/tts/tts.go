package tts

import "context"

type Result struct {
	Audio    []byte
	MimeType string

	// EstimatedDurationSeconds is derived from the text length; synthesis
	// APIs do not report playback duration.
	EstimatedDurationSeconds int
}

// SpeechSynthesizer is the speech-synthesis upstream. One call synthesizes
// one question; timeouts and retries belong to the caller.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voice string) (*Result, error)
	Close() error
}
