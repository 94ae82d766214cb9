package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"github.com/sellersaathi/copilot-api/pkg/global"
)

// Config holds everything the API reads from the environment.
type Config struct {
	Port      string
	Env       string
	Timezone  string
	Log       LogConfig
	HTTP      HTTPConfig
	Text      ProviderConfig
	Vision    ProviderConfig
	Festivals FestivalConfig
	Mongo     MongoConfig
	Redis     RedisConfig
}

type LogConfig struct {
	Level  string
	Format string
	// Requests turns on one log line per handled HTTP request.
	Requests bool
}

type HTTPConfig struct {
	CORSOrigins []string
	// APIKeyHash is a bcrypt hash; when set every /api route except health
	// requires a matching X-API-Key header.
	APIKeyHash         string
	RateLimitCapacity  int
	RateLimitWindow    time.Duration
	MaxUploadSizeBytes int64
}

type ProviderConfig struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

type FestivalConfig struct {
	Sources   []string
	File      string
	HTTPURL   string
	ICSURL    string
	InlineMax int
}

type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

var defaultOrigins = []string{
	"http://localhost",
	"http://localhost:3000",
	"http://localhost:5173",
	"http://127.0.0.1:5173",
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if c.HTTP.RateLimitCapacity <= 0 {
		return fmt.Errorf("RATE_LIMIT_CAPACITY must be positive, got %d", c.HTTP.RateLimitCapacity)
	}
	if c.HTTP.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.HTTP.RateLimitWindow)
	}
	return nil
}

// FromEnv builds a Config from the current environment with defaults.
func FromEnv() *Config {
	timeout := global.GetDurationEnv("PROVIDER_TIMEOUT", 60*time.Second)

	return &Config{
		Port:     global.GetEnvOrDefault("PORT", "10000"),
		Env:      global.GetEnvOrDefault("ENV", "development"),
		Timezone: global.GetEnvOrDefault("TIMEZONE", "Asia/Kolkata"),
		Log: LogConfig{
			Level:    global.GetEnvOrDefault("LOG_LEVEL", "info"),
			Format:   global.GetEnvOrDefault("LOG_FORMAT", "console"),
			Requests: global.GetBoolEnv("LOG_REQUESTS", true),
		},
		HTTP: HTTPConfig{
			CORSOrigins:        global.GetListEnv("CORS_ORIGINS", defaultOrigins),
			APIKeyHash:         global.GetEnvOrDefault("API_KEY_HASH", ""),
			RateLimitCapacity:  global.GetIntEnv("RATE_LIMIT_CAPACITY", 30),
			RateLimitWindow:    global.GetDurationEnv("RATE_LIMIT_WINDOW", time.Minute),
			MaxUploadSizeBytes: int64(global.GetIntEnv("MAX_UPLOAD_MB", 10)) << 20,
		},
		Text: ProviderConfig{
			Provider:    global.GetEnvOrDefault("TEXT_PROVIDER", "openai"),
			APIKey:      firstNonEmpty(global.GetEnvOrDefault("OPENAI_API_KEY", ""), global.GetEnvOrDefault("GROQ_API_KEY", "")),
			BaseURL:     global.GetEnvOrDefault("OPENAI_BASE_URL", ""),
			Model:       global.GetEnvOrDefault("TEXT_MODEL", "gpt-4o-mini"),
			Temperature: global.GetFloatEnv("TEXT_TEMPERATURE", 0.7),
			MaxTokens:   global.GetIntEnv("TEXT_MAX_TOKENS", 2048),
			Timeout:     timeout,
		},
		Vision: ProviderConfig{
			Provider:    global.GetEnvOrDefault("VISION_PROVIDER", "gemini"),
			APIKey:      global.GetEnvOrDefault("GOOGLE_API_KEY", ""),
			Model:       global.GetEnvOrDefault("VISION_MODEL", "gemini-1.5-flash"),
			Temperature: global.GetFloatEnv("VISION_TEMPERATURE", 0.4),
			MaxTokens:   global.GetIntEnv("VISION_MAX_TOKENS", 2048),
			Timeout:     timeout,
		},
		Festivals: FestivalConfig{
			Sources:   global.GetListEnv("FESTIVAL_SOURCES", []string{"file"}),
			File:      global.GetEnvOrDefault("FESTIVAL_FILE", ""),
			HTTPURL:   global.GetEnvOrDefault("FESTIVAL_HTTP_URL", ""),
			ICSURL:    global.GetEnvOrDefault("FESTIVAL_ICS_URL", ""),
			InlineMax: global.GetIntEnv("FESTIVAL_INLINE_MAX", 15),
		},
		Mongo: MongoConfig{
			URI:        global.GetEnvOrDefault("MONGODB_URI", ""),
			Database:   global.GetEnvOrDefault("MONGODB_DATABASE", "seller_copilot"),
			Collection: global.GetEnvOrDefault("MONGODB_FESTIVAL_COLLECTION", "festivals"),
		},
		Redis: RedisConfig{
			Address:  global.GetEnvOrDefault("REDIS_ADDRESS", ""),
			Password: global.GetEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       global.GetIntEnv("REDIS_DB", 0),
		},
	}
}

// IsProduction reports whether gin should run in release mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Location resolves Timezone, falling back to UTC for unknown zones.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
