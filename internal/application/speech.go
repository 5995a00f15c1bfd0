package application

import (
	"context"
	"fmt"
)

type SpeechToText interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// NoopSTT is a no-op speech-to-text client for text-only sources.
// It returns an error if called with actual audio data.
type NoopSTT struct{}

func (n *NoopSTT) Transcribe(ctx context.Context, audio []byte) (string, error) {
	return "", fmt.Errorf("speech-to-text not configured: set openai.api_key to enable audio transcription")
}

// Speaker plays a synthesized utterance. Implementations must always
// return promptly: a missing or failing synthesis engine is logged and
// reported as success, so the conversation loop can chain its next
// listening session off Speak unconditionally.
type Speaker interface {
	Speak(ctx context.Context, text string) error
	Name() string
}
