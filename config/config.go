package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Audio        AudioConfig        `yaml:"audio"`
	OpenAI       OpenAIConfig       `yaml:"openai"`
	ERP          ERPConfig          `yaml:"erp"`
	Conversation ConversationConfig `yaml:"conversation"`
	Status       StatusConfig       `yaml:"status"`
	Pushover     PushoverConfig     `yaml:"pushover"`
	Log          LogConfig          `yaml:"log"`
}

type AudioConfig struct {
	Source     string `yaml:"source"`
	HTTPAddr   string `yaml:"http_addr"`
	FileDir    string `yaml:"file_dir"`
	SampleRate int    `yaml:"sample_rate"`
	AuthToken  string `yaml:"auth_token"`
}

type OpenAIConfig struct {
	APIKey   string `yaml:"api_key"`
	Language string `yaml:"language"`
	TTSModel string `yaml:"tts_model"`
	TTSVoice string `yaml:"tts_voice"`
}

type ERPConfig struct {
	BaseURL   string `yaml:"base_url"`
	Token     string `yaml:"token"`
	TokenFile string `yaml:"token_file"`
}

type ConversationConfig struct {
	PostSpeechDelay string `yaml:"post_speech_delay"`
	RefreshDelay    string `yaml:"refresh_delay"`
}

type StatusConfig struct {
	Addr    string `yaml:"addr"`
	Enabled bool   `yaml:"enabled"`
}

type PushoverConfig struct {
	Token   string `yaml:"token"`
	UserKey string `yaml:"user_key"`
	Enabled bool   `yaml:"enabled"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Audio.Source == "" {
		c.Audio.Source = "http"
	}
	if c.Audio.HTTPAddr == "" {
		c.Audio.HTTPAddr = ":8080"
	}
	if c.Audio.FileDir == "" {
		c.Audio.FileDir = "./audio"
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
	if c.OpenAI.Language == "" {
		c.OpenAI.Language = "en"
	}
	if c.OpenAI.TTSModel == "" {
		c.OpenAI.TTSModel = "tts-1"
	}
	if c.OpenAI.TTSVoice == "" {
		c.OpenAI.TTSVoice = "alloy"
	}
	if c.ERP.BaseURL == "" {
		c.ERP.BaseURL = "http://localhost:3000"
	}
	if c.Conversation.PostSpeechDelay == "" {
		c.Conversation.PostSpeechDelay = "800ms"
	}
	if c.Conversation.RefreshDelay == "" {
		c.Conversation.RefreshDelay = "2s"
	}
	if c.Status.Addr == "" {
		c.Status.Addr = ":8081"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}
