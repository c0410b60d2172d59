package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/foxseedlab/kissandost/internal/config"
	"github.com/joho/godotenv"
)

type envConfig struct {
	Env             string `env:"ENV" envDefault:"production"`
	DefaultLanguage string `env:"DEFAULT_LANGUAGE" envDefault:"English"`
	DefaultTheme    string `env:"DEFAULT_THEME" envDefault:"dark"`

	GeminiAPIKey       string `env:"GEMINI_API_KEY"`
	GeminiAdvisorModel string `env:"GEMINI_ADVISOR_MODEL" envDefault:"gemini-2.5-flash-preview-09-2025"`
	GeminiTTSModel     string `env:"GEMINI_TTS_MODEL" envDefault:"gemini-2.5-flash-preview-tts"`
	GeminiTTSVoice     string `env:"GEMINI_TTS_VOICE" envDefault:"Kore"`

	StoreBackend  string `env:"STORE_BACKEND" envDefault:"memory"`
	DatabaseURL   string `env:"DATABASE_URL"`
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	SpeechRecognizer           string `env:"SPEECH_RECOGNIZER" envDefault:"none"`
	GoogleCloudProjectID       string `env:"GOOGLE_CLOUD_PROJECT_ID"`
	GoogleCloudCredentialsJSON string `env:"GOOGLE_CLOUD_CREDENTIALS_JSON"`
	GoogleCloudSpeechLocation  string `env:"GOOGLE_CLOUD_SPEECH_LOCATION" envDefault:"global"`
	GoogleCloudSpeechModel     string `env:"GOOGLE_CLOUD_SPEECH_MODEL" envDefault:"long"`

	MicrophoneCommand     string `env:"MICROPHONE_COMMAND" envDefault:"arecord"`
	AudioPlayerCommand    string `env:"AUDIO_PLAYER_COMMAND" envDefault:"aplay"`
	AudioOutputSampleRate int    `env:"AUDIO_OUTPUT_SAMPLE_RATE" envDefault:"48000"`
	LocalTTSCommand       string `env:"LOCAL_TTS_COMMAND" envDefault:"espeak-ng"`
	SpeechCacheEnabled    bool   `env:"SPEECH_CACHE_ENABLED" envDefault:"true"`

	NotificationTTL        time.Duration `env:"NOTIFICATION_TTL" envDefault:"5s"`
	NotificationWebhookURL string        `env:"NOTIFICATION_WEBHOOK_URL"`
}

// Load reads an optional .env file, then the process environment.
func Load() (*internalconfig.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                        raw.Env,
		DefaultLanguage:            raw.DefaultLanguage,
		DefaultTheme:               raw.DefaultTheme,
		GeminiAPIKey:               raw.GeminiAPIKey,
		GeminiAdvisorModel:         raw.GeminiAdvisorModel,
		GeminiTTSModel:             raw.GeminiTTSModel,
		GeminiTTSVoice:             raw.GeminiTTSVoice,
		StoreBackend:               raw.StoreBackend,
		DatabaseURL:                raw.DatabaseURL,
		RedisAddr:                  raw.RedisAddr,
		RedisPassword:              raw.RedisPassword,
		RedisDB:                    raw.RedisDB,
		SpeechRecognizer:           raw.SpeechRecognizer,
		GoogleCloudProjectID:       raw.GoogleCloudProjectID,
		GoogleCloudCredentialsJSON: raw.GoogleCloudCredentialsJSON,
		GoogleCloudSpeechLocation:  raw.GoogleCloudSpeechLocation,
		GoogleCloudSpeechModel:     raw.GoogleCloudSpeechModel,
		MicrophoneCommand:          raw.MicrophoneCommand,
		AudioPlayerCommand:         raw.AudioPlayerCommand,
		AudioOutputSampleRate:      raw.AudioOutputSampleRate,
		LocalTTSCommand:            raw.LocalTTSCommand,
		SpeechCacheEnabled:         raw.SpeechCacheEnabled,
		NotificationTTL:            raw.NotificationTTL,
		NotificationWebhookURL:     raw.NotificationWebhookURL,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
