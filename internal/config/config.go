package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Welcome videos rotated for new members when WELCOME_VIDEO_IDS is unset.
var defaultWelcomeVideoIDs = []string{
	"BAACAgUAAxkBAAIBxWkOFRIw0g1B_7xuSA4cyUE3ShSlAAJKGwAC_MFxVIx6wUDn1qKBNgQ",
	"BAACAgUAAxkBAAIByGkOFV746X7wbcPRCZTVy4iqtaC7AAKmIQACGV5QVJYHM5LZKdVANgQ",
}

// Stable Horde's anonymous key; generation stays disabled while it is in use.
const AnonymousStableHordeKey = "0000000000"

// leaseSendBudgetSeconds covers one trivia fetch with its fallback plus one
// poll send, which run between two lease renewals.
const leaseSendBudgetSeconds = 30

type Config struct {
	// Telegram
	BotToken   string
	WebhookURL string
	Port       string

	// Database
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	// Security
	LeaseSecret string
	OwnerID     int64

	// Application
	AppEnv   string
	LogLevel string

	// Media
	StartPhotoID     string
	AboutPhotoID     string
	WelcomeVideoIDs  []string
	PexelsAPIKey     string
	StableHordeKey   string
	TriviaAPIURL     string
	WordAPIURL       string
	PexelsAPIURL     string
	StableHordeURL   string
	CommandRateLimit int

	// Quiz broadcast
	QuizCooldownSeconds     int
	QuizOpenPeriodSeconds   int
	QuizLockTTLSeconds      int
	BroadcastMinDelaySecond int
	BroadcastMaxDelaySecond int
	OwnerBroadcastRate      int

	// Word Hustle
	HustleTimeoutSeconds int

	// Spam protection
	SpamMessageLimit      int
	SpamTimeWindowSeconds int
	SpamBlockSeconds      int
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		BotToken:   getEnv("TELEGRAM_BOT_TOKEN", getEnv("BOT_TOKEN", "")),
		WebhookURL: strings.TrimRight(getEnv("WEBHOOK_URL", getEnv("RENDER_EXTERNAL_URL", "")), "/"),
		Port:       getEnv("PORT", "8000"),

		LeaseSecret: getEnv("JWT_SECRET_KEY", ""),

		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StartPhotoID:     getEnv("START_PHOTO_ID", ""),
		AboutPhotoID:     getEnv("ABOUT_PHOTO_ID", ""),
		WelcomeVideoIDs:  getEnvList("WELCOME_VIDEO_IDS", defaultWelcomeVideoIDs),
		PexelsAPIKey:     getEnv("PEXELS_API_KEY", ""),
		StableHordeKey:   getEnv("STABLE_HORDE_API_KEY", AnonymousStableHordeKey),
		TriviaAPIURL:     getEnv("TRIVIA_API_URL", "https://opentdb.com/api.php?amount=1&type=multiple"),
		WordAPIURL:       getEnv("WORD_API_URL", "https://random-word-api.herokuapp.com/word?number=1&lang=en"),
		PexelsAPIURL:     getEnv("PEXELS_API_URL", "https://api.pexels.com/v1/search"),
		StableHordeURL:   getEnv("STABLE_HORDE_API_URL", "https://stablehorde.net/api/v2"),
		CommandRateLimit: getEnvInt("COMMAND_RATE_LIMIT", 3),

		QuizCooldownSeconds:     getEnvInt("QUIZ_COOLDOWN_SECONDS", 600),
		QuizOpenPeriodSeconds:   getEnvInt("QUIZ_OPEN_PERIOD_SECONDS", 600),
		QuizLockTTLSeconds:      getEnvInt("QUIZ_LOCK_TTL_SECONDS", 180),
		BroadcastMinDelaySecond: getEnvInt("BROADCAST_MIN_DELAY_SECONDS", 5),
		BroadcastMaxDelaySecond: getEnvInt("BROADCAST_MAX_DELAY_SECONDS", 15),
		OwnerBroadcastRate:      getEnvInt("OWNER_BROADCAST_RATE", 5),

		HustleTimeoutSeconds: getEnvInt("HUSTLE_TIMEOUT_SECONDS", 90),

		SpamMessageLimit:      getEnvInt("SPAM_MESSAGE_LIMIT", 5),
		SpamTimeWindowSeconds: getEnvInt("SPAM_TIME_WINDOW_SECONDS", 5),
		SpamBlockSeconds:      getEnvInt("SPAM_BLOCK_SECONDS", 1200),
	}

	loadDatabase(cfg)

	ownerStr := getEnv("OWNER_ID", "")
	if ownerStr != "" {
		id, err := strconv.ParseInt(ownerStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid OWNER_ID: %w", err)
		}
		cfg.OwnerID = id
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadDatabase(cfg *Config) {
	cfg.DatabaseURL = getEnv("DATABASE_URL", "")
	cfg.DBHost = getEnv("DB_HOST", "localhost")
	cfg.DBPort = getEnv("DB_PORT", "5432")
	cfg.DBUser = getEnv("DB_USER", "quizbot")
	cfg.DBPassword = getEnv("DB_PASSWORD", "")
	cfg.DBName = getEnv("DB_NAME", "quizbot_db")
	cfg.DBSSLMode = getEnv("DB_SSLMODE", "disable")
}

// LoadDatabaseConfig reads only the database settings, for tools that never
// talk to the chat platform.
func LoadDatabaseConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
	loadDatabase(cfg)

	if cfg.DatabaseURL == "" && cfg.DBPassword == "" {
		return nil, fmt.Errorf("DATABASE_URL or DB_PASSWORD is required")
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if c.DatabaseURL == "" && c.DBPassword == "" {
		return fmt.Errorf("DATABASE_URL or DB_PASSWORD is required")
	}
	if c.LeaseSecret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if len(c.LeaseSecret) < 32 {
		return fmt.Errorf("JWT_SECRET_KEY must be at least 32 characters")
	}
	if minTTL := 2*c.BroadcastMaxDelaySecond + leaseSendBudgetSeconds; c.QuizLockTTLSeconds < minTTL {
		return fmt.Errorf("QUIZ_LOCK_TTL_SECONDS must be at least %d (2 x BROADCAST_MAX_DELAY_SECONDS + %d)", minTTL, leaseSendBudgetSeconds)
	}
	if c.BroadcastMinDelaySecond > c.BroadcastMaxDelaySecond {
		return fmt.Errorf("BROADCAST_MIN_DELAY_SECONDS must not exceed BROADCAST_MAX_DELAY_SECONDS")
	}
	if c.SpamMessageLimit < 1 {
		return fmt.Errorf("SPAM_MESSAGE_LIMIT must be positive")
	}
	return nil
}

func (c *Config) ValidateProductionSecurity() error {
	if c.AppEnv != "production" {
		return nil
	}

	if c.DatabaseURL == "" && c.DBSSLMode != "require" {
		return fmt.Errorf("DB_SSLMODE must be 'require' in production")
	}
	if c.LeaseSecret == "your_jwt_secret_minimum_32_chars_here_change_this" {
		return fmt.Errorf("JWT_SECRET_KEY must be changed from default in production")
	}
	if c.OwnerID == 0 {
		return fmt.Errorf("OWNER_ID must be set in production")
	}

	return nil
}

// GetDSN prefers DATABASE_URL, which the postgres driver accepts as-is.
func (c *Config) GetDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) IsOwner(userID int64) bool {
	return c.OwnerID != 0 && c.OwnerID == userID
}

func (c *Config) UseWebhook() bool {
	return c.WebhookURL != ""
}

func (c *Config) ImageGenerationEnabled() bool {
	return c.StableHordeKey != "" && c.StableHordeKey != AnonymousStableHordeKey
}

func (c *Config) QuizCooldown() time.Duration {
	return time.Duration(c.QuizCooldownSeconds) * time.Second
}

func (c *Config) QuizOpenPeriod() time.Duration {
	return time.Duration(c.QuizOpenPeriodSeconds) * time.Second
}

func (c *Config) QuizLockTTL() time.Duration {
	return time.Duration(c.QuizLockTTLSeconds) * time.Second
}

func (c *Config) BroadcastDelayRange() (time.Duration, time.Duration) {
	return time.Duration(c.BroadcastMinDelaySecond) * time.Second,
		time.Duration(c.BroadcastMaxDelaySecond) * time.Second
}

func (c *Config) HustleTimeout() time.Duration {
	return time.Duration(c.HustleTimeoutSeconds) * time.Second
}

func (c *Config) SpamTimeWindow() time.Duration {
	return time.Duration(c.SpamTimeWindowSeconds) * time.Second
}

func (c *Config) SpamBlockDuration() time.Duration {
	return time.Duration(c.SpamBlockSeconds) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
