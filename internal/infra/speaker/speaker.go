package speaker

import (
	"context"
	"log/slog"
	"sync"
)

// Synthesizer turns text into raw PCM audio (16-bit LE, mono).
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Player plays raw PCM audio at the given sample rate.
type Player interface {
	Play(ctx context.Context, pcm []byte, sampleRate int) error
}

// TTSSpeaker synthesizes and plays utterances. Speak never reports
// synthesis or playback failures to the caller: they are logged and
// swallowed so the conversation loop, which chains every listening
// session off the end of an utterance, cannot deadlock on a silent
// platform.
type TTSSpeaker struct {
	synth      Synthesizer
	player     Player
	sampleRate int
	logger     *slog.Logger
	mu         sync.Mutex
}

func NewTTSSpeaker(synth Synthesizer, player Player, sampleRate int, logger *slog.Logger) *TTSSpeaker {
	return &TTSSpeaker{
		synth:      synth,
		player:     player,
		sampleRate: sampleRate,
		logger:     logger,
	}
}

func (s *TTSSpeaker) Name() string {
	return "tts"
}

func (s *TTSSpeaker) Speak(ctx context.Context, text string) error {
	// Serialize utterances; a new Speak waits for the previous
	// playback rather than overlapping it.
	s.mu.Lock()
	defer s.mu.Unlock()

	audio, err := s.synth.Synthesize(ctx, text)
	if err != nil {
		s.logger.Warn("speech synthesis failed, continuing silently", "error", err)
		return nil
	}

	if err := s.player.Play(ctx, audio, s.sampleRate); err != nil {
		s.logger.Warn("audio playback failed, continuing silently", "error", err)
	}
	return nil
}

// ConsoleSpeaker logs utterances instead of playing them. It is the
// default speaker when no synthesis engine is configured.
type ConsoleSpeaker struct {
	logger *slog.Logger
}

func NewConsoleSpeaker(logger *slog.Logger) *ConsoleSpeaker {
	return &ConsoleSpeaker{logger: logger}
}

func (s *ConsoleSpeaker) Name() string {
	return "console"
}

func (s *ConsoleSpeaker) Speak(_ context.Context, text string) error {
	s.logger.Info("speaking", "text", text)
	return nil
}
