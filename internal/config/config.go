package config

import (
	"fmt"
	"time"

	"github.com/foxseedlab/kissandost/internal/language"
)

const (
	StoreBackendMemory   = "memory"
	StoreBackendPostgres = "postgres"
	StoreBackendRedis    = "redis"

	SpeechRecognizerCloud = "cloud"
	SpeechRecognizerNone  = "none"

	ThemeLight = "light"
	ThemeDark  = "dark"
)

type Config struct {
	Env             string
	DefaultLanguage string
	DefaultTheme    string

	GeminiAPIKey       string
	GeminiAdvisorModel string
	GeminiTTSModel     string
	GeminiTTSVoice     string

	StoreBackend  string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SpeechRecognizer           string
	GoogleCloudProjectID       string
	GoogleCloudCredentialsJSON string
	GoogleCloudSpeechLocation  string
	GoogleCloudSpeechModel     string

	MicrophoneCommand     string
	AudioPlayerCommand    string
	AudioOutputSampleRate int
	LocalTTSCommand       string
	SpeechCacheEnabled    bool

	NotificationTTL        time.Duration
	NotificationWebhookURL string
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	if _, ok := language.Parse(c.DefaultLanguage); !ok {
		return fmt.Errorf("DEFAULT_LANGUAGE is unknown: %q", c.DefaultLanguage)
	}
	if c.DefaultTheme != ThemeLight && c.DefaultTheme != ThemeDark {
		return fmt.Errorf("DEFAULT_THEME must be %q or %q, got %q", ThemeLight, ThemeDark, c.DefaultTheme)
	}
	switch c.StoreBackend {
	case StoreBackendMemory:
	case StoreBackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=%s", StoreBackendPostgres)
		}
	case StoreBackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when STORE_BACKEND=%s", StoreBackendRedis)
		}
	default:
		return fmt.Errorf("STORE_BACKEND is unknown: %q", c.StoreBackend)
	}
	switch c.SpeechRecognizer {
	case SpeechRecognizerNone:
	case SpeechRecognizerCloud:
		if c.GoogleCloudProjectID == "" {
			return fmt.Errorf("GOOGLE_CLOUD_PROJECT_ID is required when SPEECH_RECOGNIZER=%s", SpeechRecognizerCloud)
		}
		if c.GoogleCloudCredentialsJSON == "" {
			return fmt.Errorf("GOOGLE_CLOUD_CREDENTIALS_JSON is required when SPEECH_RECOGNIZER=%s", SpeechRecognizerCloud)
		}
	default:
		return fmt.Errorf("SPEECH_RECOGNIZER is unknown: %q", c.SpeechRecognizer)
	}
	if c.AudioOutputSampleRate <= 0 {
		return fmt.Errorf("AUDIO_OUTPUT_SAMPLE_RATE must be positive, got %d", c.AudioOutputSampleRate)
	}
	if c.NotificationTTL <= 0 {
		return fmt.Errorf("NOTIFICATION_TTL must be positive, got %s", c.NotificationTTL)
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "DEFAULT_LANGUAGE", value: c.DefaultLanguage},
		{name: "DEFAULT_THEME", value: c.DefaultTheme},
		{name: "GEMINI_ADVISOR_MODEL", value: c.GeminiAdvisorModel},
		{name: "GEMINI_TTS_MODEL", value: c.GeminiTTSModel},
		{name: "STORE_BACKEND", value: c.StoreBackend},
		{name: "SPEECH_RECOGNIZER", value: c.SpeechRecognizer},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
