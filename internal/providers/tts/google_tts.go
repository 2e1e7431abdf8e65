package tts

import (
	"context"
	"strings"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	ttspb "cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
)

type GoogleTTS struct {
	c *texttospeech.Client

	LanguageCode string
	SpeakingRate float64
}

func NewGoogleTTS(ctx context.Context, languageCode string) (*GoogleTTS, error) {
	c, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	if languageCode == "" {
		languageCode = "en-US"
	}
	return &GoogleTTS{
		c:            c,
		LanguageCode: languageCode,
		SpeakingRate: 1.0,
	}, nil
}

func (g *GoogleTTS) Close() error { return g.c.Close() }

// voice example: "en-US-Neural2-D". Empty lets the API pick a default for
// the configured language.
func (g *GoogleTTS) Synthesize(ctx context.Context, text, voice string) (*Result, error) {
	req := &ttspb.SynthesizeSpeechRequest{
		Input: &ttspb.SynthesisInput{
			InputSource: &ttspb.SynthesisInput_Text{Text: text},
		},
		Voice: &ttspb.VoiceSelectionParams{
			LanguageCode: g.LanguageCode,
			Name:         voice,
		},
		AudioConfig: &ttspb.AudioConfig{
			AudioEncoding: ttspb.AudioEncoding_MP3,
			SpeakingRate:  g.SpeakingRate,
		},
	}

	resp, err := g.c.SynthesizeSpeech(ctx, req)
	if err != nil {
		return nil, err
	}

	return &Result{
		Audio:                    resp.AudioContent,
		MimeType:                 "audio/mpeg",
		EstimatedDurationSeconds: EstimateDurationSeconds(text),
	}, nil
}

// EstimateDurationSeconds approximates spoken length at ~150 words per
// minute, floored at one second.
func EstimateDurationSeconds(text string) int {
	const wordsPerMinute = 150.0

	words := len(strings.Fields(text))
	secs := int(float64(words) / wordsPerMinute * 60.0)
	if secs < 1 {
		secs = 1
	}
	return secs
}
