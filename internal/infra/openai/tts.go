package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"erp-assistant/internal/infra"
)

// TTSSampleRate is the sample rate of the raw PCM audio the speech
// endpoint returns in pcm format: 24kHz, 16-bit, mono.
const TTSSampleRate = 24000

// TTSClient synthesizes speech via the OpenAI audio/speech endpoint.
type TTSClient struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	model      string
	voice      string
}

func NewTTSClient(apiKey, model, voice string) *TTSClient {
	return NewTTSClientWithURL(apiKey, model, voice, "https://api.openai.com/v1")
}

func NewTTSClientWithURL(apiKey, model, voice, baseURL string) *TTSClient {
	if model == "" {
		model = "tts-1"
	}
	if voice == "" {
		voice = "alloy"
	}
	return &TTSClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		model:      model,
		voice:      voice,
	}
}

type speechRequest struct {
	Model          string `json:"model"`
	Voice          string `json:"voice"`
	Input          string `json:"input"`
	ResponseFormat string `json:"response_format"`
}

// Synthesize returns raw PCM audio (TTSSampleRate, 16-bit LE, mono)
// for the given text.
func (c *TTSClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	var audio []byte

	retryErr := infra.WithRetry(ctx, infra.DefaultRetryConfig(), func() error {
		payload, err := json.Marshal(speechRequest{
			Model:          c.model,
			Voice:          c.voice,
			Input:          text,
			ResponseFormat: "pcm",
		})
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/speech", bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			if infra.IsRetryableHTTPStatus(resp.StatusCode) {
				return fmt.Errorf("speech API error %d: %s (retryable)", resp.StatusCode, string(respBody))
			}
			return fmt.Errorf("speech API error %d: %s", resp.StatusCode, string(respBody))
		}

		audio, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading audio: %w", err)
		}
		return nil
	})

	if retryErr != nil {
		return nil, retryErr
	}

	return audio, nil
}
