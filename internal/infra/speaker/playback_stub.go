//go:build !portaudio
// +build !portaudio

package speaker

import (
	"context"
	"fmt"
)

// PortAudioPlayer stub when portaudio is not available
type PortAudioPlayer struct{}

func NewPortAudioPlayer() *PortAudioPlayer {
	return &PortAudioPlayer{}
}

func (p *PortAudioPlayer) Play(_ context.Context, _ []byte, _ int) error {
	return fmt.Errorf("audio playback not available: rebuild with -tags portaudio")
}
