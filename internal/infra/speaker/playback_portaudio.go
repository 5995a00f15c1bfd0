//go:build portaudio
// +build portaudio

package speaker

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// PortAudioPlayer plays PCM audio through the default output device.
// Each Play opens its own stream; Initialize/Terminate are refcounted
// by portaudio so this coexists with the microphone source.
type PortAudioPlayer struct{}

func NewPortAudioPlayer() *PortAudioPlayer {
	return &PortAudioPlayer{}
}

func (p *PortAudioPlayer) Play(ctx context.Context, pcm []byte, sampleRate int) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}
	defer portaudio.Terminate()

	const framesPerBuffer = 1024
	buffer := make([]int16, framesPerBuffer)

	stream, err := portaudio.OpenDefaultStream(0, 1, float64(sampleRate), framesPerBuffer, buffer)
	if err != nil {
		return fmt.Errorf("opening output stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("starting output stream: %w", err)
	}
	defer stream.Stop()

	samples := bytesToSamples(pcm)
	for offset := 0; offset < len(samples); offset += framesPerBuffer {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n := copy(buffer, samples[offset:])
		for i := n; i < framesPerBuffer; i++ {
			buffer[i] = 0
		}
		if err := stream.Write(); err != nil {
			return fmt.Errorf("writing to stream: %w", err)
		}
	}

	return nil
}

func bytesToSamples(pcm []byte) []int16 {
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return samples
}
