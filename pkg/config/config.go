package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig
	Audio         AudioConfig
	Transcription TranscriptionConfig
	Judge         JudgeConfig
	Questions     QuestionsConfig
	Cache         CacheConfig
	RateLimit     RateLimitConfig
	Logging       LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type AudioConfig struct {
	TargetSampleRate int
	MinDurationMS    int
	MaxBytes         int
}

type TranscriptionConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Language    string
	TimeoutSec  int
	MaxAttempts int
}

type JudgeConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	TimeoutSec  int
}

type QuestionsConfig struct {
	Path string
}

type CacheConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTLSec   int
}

type RateLimitConfig struct {
	MaxRequestsPerMinute int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/speech-eval")

	viper.SetEnvPrefix("SPEECH_EVAL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 5000)
	viper.SetDefault("server.readTimeout", 60)
	viper.SetDefault("server.writeTimeout", 60)
	viper.SetDefault("server.bodyLimit", 26214400)

	viper.SetDefault("audio.targetSampleRate", 16000)
	viper.SetDefault("audio.minDurationMS", 300)
	viper.SetDefault("audio.maxBytes", 20971520)

	viper.SetDefault("transcription.baseURL", "https://api.deepgram.com/v1/listen")
	viper.SetDefault("transcription.model", "nova-2")
	viper.SetDefault("transcription.language", "en-US")
	viper.SetDefault("transcription.timeoutSec", 30)
	viper.SetDefault("transcription.maxAttempts", 3)

	viper.SetDefault("judge.model", "gpt-3.5-turbo")
	viper.SetDefault("judge.temperature", 0.4)
	viper.SetDefault("judge.maxTokens", 800)
	viper.SetDefault("judge.timeoutSec", 30)

	viper.SetDefault("questions.path", "./config/questions.yaml")

	viper.SetDefault("cache.enabled", false)
	viper.SetDefault("cache.host", "localhost")
	viper.SetDefault("cache.port", 6379)
	viper.SetDefault("cache.db", 0)
	viper.SetDefault("cache.ttlSec", 600)

	viper.SetDefault("ratelimit.maxRequestsPerMinute", 30)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
