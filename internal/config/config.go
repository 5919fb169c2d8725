// Package config provides environment configuration for the API server.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// NATS settings (collaborator event sink; optional)
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// Redis settings (chat history archive; optional)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT settings
	JWTSecret     string
	JWTExpiration time.Duration

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool

	// Matcher tuning. These are product constants, not invariants; keep
	// them adjustable without a code change.
	Match MatchTuning

	// Reveal timings for the staged assistant animations.
	Reveal RevealTuning
}

// MatchTuning holds the room matcher scoring constants.
type MatchTuning struct {
	GoodFitSlack    int // capacity may exceed attendees by this many seats
	CapacityBase    int // score for an exact-capacity good fit
	SeatPenalty     int // per extra seat inside the good-fit window
	FallbackBase    int // base for rooms outside the good-fit window
	FeatureWeight   int // per matched required feature
	AllFeatureBonus int // bonus when every required feature matched
	FirstFloorBonus int // bonus for ground-floor rooms
}

// RevealTuning holds the animation timings for the reveal protocols.
type RevealTuning struct {
	TypingDots    time.Duration // indeterminate indicator before typing
	PerCharacter  time.Duration // typing reveal, per character
	TypingHold    time.Duration // hold after the last character
	WidgetBuffer  time.Duration // safety buffer before widgets show
	ThinkingFirst time.Duration // delay before the first thinking line
	ThinkingStep  time.Duration // delay between subsequent thinking lines
	ReplyDelay    time.Duration // delay before a non-booking canned reply
	SyncGrace     time.Duration // grace window before a booking reads synced
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),

		// NATS
		NATSURL:      getEnv("NATS_URL", ""),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		// Redis
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		// JWT
		JWTSecret:     getEnv("JWT_SECRET", "development-secret-change-in-production"),
		JWTExpiration: getDurationEnv("JWT_EXPIRATION", 15*time.Minute),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),

		Match: MatchTuning{
			GoodFitSlack:    getIntEnv("MATCH_GOOD_FIT_SLACK", 3),
			CapacityBase:    getIntEnv("MATCH_CAPACITY_BASE", 100),
			SeatPenalty:     getIntEnv("MATCH_SEAT_PENALTY", 5),
			FallbackBase:    getIntEnv("MATCH_FALLBACK_BASE", 50),
			FeatureWeight:   getIntEnv("MATCH_FEATURE_WEIGHT", 10),
			AllFeatureBonus: getIntEnv("MATCH_ALL_FEATURE_BONUS", 20),
			FirstFloorBonus: getIntEnv("MATCH_FIRST_FLOOR_BONUS", 5),
		},

		Reveal: RevealTuning{
			TypingDots:    getDurationEnv("REVEAL_TYPING_DOTS", 2000*time.Millisecond),
			PerCharacter:  getDurationEnv("REVEAL_PER_CHARACTER", 20*time.Millisecond),
			TypingHold:    getDurationEnv("REVEAL_TYPING_HOLD", 100*time.Millisecond),
			WidgetBuffer:  getDurationEnv("REVEAL_WIDGET_BUFFER", 250*time.Millisecond),
			ThinkingFirst: getDurationEnv("REVEAL_THINKING_FIRST", 500*time.Millisecond),
			ThinkingStep:  getDurationEnv("REVEAL_THINKING_STEP", 1000*time.Millisecond),
			ReplyDelay:    getDurationEnv("REVEAL_REPLY_DELAY", 600*time.Millisecond),
			SyncGrace:     getDurationEnv("BOOKING_SYNC_GRACE", 1500*time.Millisecond),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
