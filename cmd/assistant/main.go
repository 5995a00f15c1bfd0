package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"erp-assistant/config"
	"erp-assistant/internal/application"
	"erp-assistant/internal/infra/audio"
	"erp-assistant/internal/infra/erp"
	"erp-assistant/internal/infra/openai"
	"erp-assistant/internal/infra/pushover"
	"erp-assistant/internal/infra/speaker"
	"erp-assistant/internal/infra/statusapi"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// Optional .env so ${VAR} references in the config resolve in dev.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	audioSource := createAudioSource(cfg.Audio, logger)
	stt := createSTT(cfg.OpenAI)
	spk := createSpeaker(cfg.OpenAI, logger)

	products := erp.NewClient(cfg.ERP.BaseURL, createTokenSource(cfg.ERP), logger)

	var notifier application.Notifier
	if cfg.Pushover.Enabled {
		notifier = pushover.NewClient(cfg.Pushover.Token, cfg.Pushover.UserKey)
	} else {
		notifier = &application.NoopNotifier{}
	}

	assistant := application.NewAssistant(
		audioSource,
		stt,
		spk,
		products,
		notifier,
		createTiming(cfg.Conversation, logger),
		logger,
	)

	if cfg.Status.Enabled {
		statusServer := statusapi.NewServer(cfg.Status.Addr, assistant, logger)
		if err := statusServer.Start(ctx); err != nil {
			logger.Error("starting status server", "error", err)
			os.Exit(1)
		}
		defer statusServer.Stop()
	}

	logger.Info("starting ERP voice assistant",
		"audio_source", cfg.Audio.Source,
		"speaker", spk.Name(),
		"erp", cfg.ERP.BaseURL,
	)

	if err := assistant.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("assistant error", "error", err)
		os.Exit(1)
	}
}

func createAudioSource(cfg config.AudioConfig, logger *slog.Logger) application.AudioSource {
	switch cfg.Source {
	case "http":
		return audio.NewHTTPSource(cfg.HTTPAddr, cfg.AuthToken, logger)
	case "file":
		return audio.NewFileSource(cfg.FileDir, logger)
	case "microphone":
		return audio.NewMicrophoneSource(cfg.SampleRate, logger)
	default:
		logger.Warn("unknown audio source, using http", "source", cfg.Source)
		return audio.NewHTTPSource(cfg.HTTPAddr, cfg.AuthToken, logger)
	}
}

func createSTT(cfg config.OpenAIConfig) application.SpeechToText {
	if cfg.APIKey == "" {
		return &application.NoopSTT{}
	}
	return openai.NewWhisperClient(cfg.APIKey, cfg.Language)
}

func createSpeaker(cfg config.OpenAIConfig, logger *slog.Logger) application.Speaker {
	if cfg.APIKey == "" {
		return speaker.NewConsoleSpeaker(logger)
	}
	synth := openai.NewTTSClient(cfg.APIKey, cfg.TTSModel, cfg.TTSVoice)
	return speaker.NewTTSSpeaker(synth, speaker.NewPortAudioPlayer(), openai.TTSSampleRate, logger)
}

func createTokenSource(cfg config.ERPConfig) erp.TokenSource {
	if cfg.TokenFile != "" {
		return erp.NewFileTokenSource(cfg.TokenFile)
	}
	return erp.StaticTokenSource(cfg.Token)
}

func createTiming(cfg config.ConversationConfig, logger *slog.Logger) application.Timing {
	timing := application.DefaultTiming()

	if d, err := time.ParseDuration(cfg.PostSpeechDelay); err != nil {
		logger.Warn("invalid post_speech_delay, using default", "value", cfg.PostSpeechDelay, "error", err)
	} else {
		timing.PostSpeechDelay = d
	}

	if d, err := time.ParseDuration(cfg.RefreshDelay); err != nil {
		logger.Warn("invalid refresh_delay, using default", "value", cfg.RefreshDelay, "error", err)
	} else {
		timing.RefreshDelay = d
	}

	return timing
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
