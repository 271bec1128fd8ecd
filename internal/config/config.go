// Package config loads and validates Word Arena's runtime configuration
// from the environment, with sane defaults for local development.
package config

import (
	"fmt"
	"time"
)

// Config is the complete, validated runtime configuration for the server.
type Config struct {
	Server   ServerConfig
	CORS     CORSConfig
	Rate     RateConfig
	Queue    QueueConfig
	Game     GameConfig
	Security SecurityConfig
	Words    WordsConfig
	Stats    StatsConfig
	Auth     AuthConfig
	Logging  LoggingConfig
	Sentry   SentryConfig
}

type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
}

// RateConfig holds the per-connection token-bucket limits from spec.md §4.2
// plus the HTTP-side API limiter.
type RateConfig struct {
	SubmitGuessPerMinute int
	JoinQueuePerMinute   int
	HeartbeatPerMinute   int
	APIRequestsPerMinute int
	MaxConnectionsPerIP  int
}

// QueueConfig mirrors the MatchmakingQueue configuration.
type QueueConfig struct {
	MinPlayers           int
	MaxPlayers           int
	VoteFraction         float64
	FullCountdownSeconds int
	IdleQueueTimeout     time.Duration
}

// GameConfig mirrors the GameRoom configuration.
type GameConfig struct {
	PointThreshold            int
	WordLengths               []int
	RoundCountdownSeconds     int
	GuessingDeadlineSeconds   int
	IndividualDeadlineSeconds int
	PauseTimeoutSeconds       int
	MaxGameDurationSeconds    int
}

type SecurityConfig struct {
	MaxMessageSize         int
	ConnectionTimeout      time.Duration
	HeartbeatWindowSeconds int
	AuthTimeoutSeconds     int
}

// WordsConfig points at an on-disk word-list directory; when Dir is empty
// the embedded default lists are used.
type WordsConfig struct {
	Dir string
}

type StatsConfig struct {
	DatabaseURL string
}

type AuthConfig struct {
	DevAuthMode   bool
	JWTSigningKey string
	JWTIssuer     string
}

type LoggingConfig struct {
	Level       string
	Service     string
	Environment string
	AddSource   bool
}

type SentryConfig struct {
	DSN              string
	Environment      string
	Release          string
	TracesSampleRate float64
	Debug            bool
}

// Load reads the environment into a Config, applying defaults, and
// validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnvString("HOST", "0.0.0.0"),
			Port:            getEnvString("PORT", "8080"),
			ReadTimeout:     getEnvDuration("READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvStringSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			AllowedMethods: getEnvStringSlice("ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"}),
		},
		Rate: RateConfig{
			SubmitGuessPerMinute: getEnvInt("RATE_SUBMIT_GUESS_PER_MINUTE", 10),
			JoinQueuePerMinute:   getEnvInt("RATE_JOIN_QUEUE_PER_MINUTE", 5),
			HeartbeatPerMinute:   getEnvInt("RATE_HEARTBEAT_PER_MINUTE", 2),
			APIRequestsPerMinute: getEnvInt("RATE_API_REQUESTS_PER_MINUTE", 120),
			MaxConnectionsPerIP:  getEnvInt("RATE_MAX_CONNECTIONS_PER_IP", 10),
		},
		Queue: QueueConfig{
			MinPlayers:           getEnvInt("QUEUE_MIN_PLAYERS", 2),
			MaxPlayers:           getEnvInt("QUEUE_MAX_PLAYERS", 16),
			VoteFraction:         getEnvFloat64("QUEUE_VOTE_FRACTION", 0.60),
			FullCountdownSeconds: getEnvInt("QUEUE_FULL_COUNTDOWN_SECONDS", 15),
			IdleQueueTimeout:     getEnvDuration("QUEUE_IDLE_TIMEOUT", 2*time.Minute),
		},
		Game: GameConfig{
			PointThreshold:            getEnvInt("GAME_POINT_THRESHOLD", 25),
			WordLengths:               getEnvIntSlice("GAME_WORD_LENGTHS", []int{5, 6, 7}),
			RoundCountdownSeconds:     getEnvInt("GAME_ROUND_COUNTDOWN_SECONDS", 5),
			GuessingDeadlineSeconds:   getEnvInt("GAME_GUESSING_DEADLINE_SECONDS", 45),
			IndividualDeadlineSeconds: getEnvInt("GAME_INDIVIDUAL_DEADLINE_SECONDS", 20),
			PauseTimeoutSeconds:       getEnvInt("GAME_PAUSE_TIMEOUT_SECONDS", 300),
			MaxGameDurationSeconds:    getEnvInt("GAME_MAX_DURATION_SECONDS", 7200),
		},
		Security: SecurityConfig{
			MaxMessageSize:         getEnvInt("SECURITY_MAX_MESSAGE_SIZE", 4096),
			ConnectionTimeout:      getEnvDuration("SECURITY_CONNECTION_TIMEOUT", 30*time.Second),
			HeartbeatWindowSeconds: getEnvInt("SECURITY_HEARTBEAT_WINDOW_SECONDS", 90),
			AuthTimeoutSeconds:     getEnvInt("SECURITY_AUTH_TIMEOUT_SECONDS", 10),
		},
		Words: WordsConfig{
			Dir: getEnvString("WORDS_DIR", ""),
		},
		Stats: StatsConfig{
			DatabaseURL: getEnvString("DATABASE_URL", ""),
		},
		Auth: AuthConfig{
			DevAuthMode:   getEnvBool("DEV_AUTH_MODE", false),
			JWTSigningKey: getEnvString("JWT_SIGNING_KEY", ""),
			JWTIssuer:     getEnvString("JWT_ISSUER", "word-arena"),
		},
		Logging: LoggingConfig{
			Level:       getEnvString("LOG_LEVEL", "info"),
			Service:     getEnvString("LOG_SERVICE", "word-arena"),
			Environment: getEnvString("ENVIRONMENT", "development"),
			AddSource:   getEnvBool("LOG_ADD_SOURCE", false),
		},
		Sentry: SentryConfig{
			DSN:              getEnvString("SENTRY_DSN", ""),
			Environment:      getEnvString("SENTRY_ENVIRONMENT", getEnvString("ENVIRONMENT", "development")),
			Release:          getEnvString("SENTRY_RELEASE", "dev"),
			TracesSampleRate: getEnvFloat64("SENTRY_TRACES_SAMPLE_RATE", 0.0),
			Debug:            getEnvBool("SENTRY_DEBUG", false),
		},
	}

	if !cfg.Auth.DevAuthMode && cfg.Auth.JWTSigningKey == "" {
		return nil, fmt.Errorf("invalid configuration: JWT_SIGNING_KEY is required unless DEV_AUTH_MODE=true")
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
