package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

type DBConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

type AuthConfig struct {
	AccessSecret string
}

// ScoringConfig holds the handshake score policy knobs. The score is a
// weighted composite; weights are normalized when the score is computed.
type ScoringConfig struct {
	RatingWeight     float64
	CompletionWeight float64
	ResponseWeight   float64
	// ResponseCeilingHours is the average response latency at which the
	// response component bottoms out at zero.
	ResponseCeilingHours float64
}

type RealtimeConfig struct {
	TypingTTL time.Duration
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Scoring     ScoringConfig
	Realtime    RealtimeConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host:           v.GetString("HTTP_HOST"),
			Port:           v.GetInt("HTTP_PORT"),
			AllowedOrigins: v.GetStringSlice("HTTP_ALLOWED_ORIGINS"),
		},
		DB: DBConfig{
			DSN:          v.GetString("DB_DSN"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Scoring: ScoringConfig{
			RatingWeight:         v.GetFloat64("SCORE_RATING_WEIGHT"),
			CompletionWeight:     v.GetFloat64("SCORE_COMPLETION_WEIGHT"),
			ResponseWeight:       v.GetFloat64("SCORE_RESPONSE_WEIGHT"),
			ResponseCeilingHours: v.GetFloat64("SCORE_RESPONSE_CEILING_HOURS"),
		},
		Realtime: RealtimeConfig{
			TypingTTL: v.GetDuration("REALTIME_TYPING_TTL"),
		},
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if cfg.Scoring.RatingWeight == 0 && cfg.Scoring.CompletionWeight == 0 && cfg.Scoring.ResponseWeight == 0 {
		cfg.Scoring.RatingWeight = 0.5
		cfg.Scoring.CompletionWeight = 0.3
		cfg.Scoring.ResponseWeight = 0.2
	}
	if cfg.Scoring.ResponseCeilingHours == 0 {
		cfg.Scoring.ResponseCeilingHours = 48
	}
	if cfg.Realtime.TypingTTL == 0 {
		cfg.Realtime.TypingTTL = 3 * time.Second
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.Scoring.RatingWeight < 0 || cfg.Scoring.CompletionWeight < 0 || cfg.Scoring.ResponseWeight < 0 {
		return fmt.Errorf("score weights must not be negative")
	}
	return nil
}
