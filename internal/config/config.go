package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration for the application
type Config struct {
	Environment    string
	LogLevel       string
	Server         ServerConfig
	Database       DatabaseConfig
	Redis          RedisConfig
	Auth           AuthConfig
	Admin          AdminConfig
	Coins          CoinsConfig
	Recommendation RecommendationConfig
	Wishes         WishConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port                    int
	ReadTimeoutSeconds      int
	WriteTimeoutSeconds     int
	IdleTimeoutSeconds      int
	GracefulShutdownSeconds int
	AllowedOrigins          []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AuthConfig holds Firebase and development auth settings
type AuthConfig struct {
	FirebaseProjectID       string
	FirebaseServiceAccount  string
	FirebaseCredentialsFile string
	SkipAuth                bool
	JWTSecret               string
}

// AdminConfig maps admin roles to whitelisted emails
type AdminConfig struct {
	SuperAdmins     []string
	ContentAdmins   []string
	UserAdmins      []string
	AnalyticsAdmins []string
}

// CoinsConfig holds the coin economy plan
type CoinsConfig struct {
	RequiredCoins         int
	CoinsPerReward        int
	DefaultUnlockDuration int
	RewardCooldownSeconds int
	SignatureSecret       string
}

// RecommendationConfig holds recommendation cache and sizing settings
type RecommendationConfig struct {
	UserCacheTTLSeconds    int
	DefaultCacheTTLSeconds int
	DefaultLimit           int
	MaxLimit               int
}

// WishConfig holds shared wish settings
type WishConfig struct {
	PublicBaseURL string
}

// defaultSecret signs development tokens and unlock claims
const defaultSecret = "eventwish-coins-secret-key"

// Load loads configuration from environment variables
func Load() (*Config, error) {
	jwtSecret := getEnv("JWT_SECRET", defaultSecret)

	cfg := &Config{
		Environment: getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", ""),
		Server: ServerConfig{
			Port:                    getEnvAsInt("SERVER_PORT", 3007),
			ReadTimeoutSeconds:      getEnvAsInt("SERVER_READ_TIMEOUT", 10),
			WriteTimeoutSeconds:     getEnvAsInt("SERVER_WRITE_TIMEOUT", 10),
			IdleTimeoutSeconds:      getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
			GracefulShutdownSeconds: getEnvAsInt("SERVER_SHUTDOWN_TIMEOUT", 30),
			AllowedOrigins:          getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "eventwish"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
			FirebaseServiceAccount:  getEnv("FIREBASE_SERVICE_ACCOUNT", ""),
			FirebaseCredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
			SkipAuth:                getEnvAsBool("SKIP_AUTH", false),
			JWTSecret:               jwtSecret,
		},
		Admin: AdminConfig{
			SuperAdmins:     getEnvAsList("ADMIN_SUPER_EMAILS", []string{"admin@eventwish.com"}),
			ContentAdmins:   getEnvAsList("ADMIN_CONTENT_EMAILS", []string{"content@eventwish.com"}),
			UserAdmins:      getEnvAsList("ADMIN_USER_EMAILS", nil),
			AnalyticsAdmins: getEnvAsList("ADMIN_ANALYTICS_EMAILS", nil),
		},
		Coins: CoinsConfig{
			RequiredCoins:         getEnvAsInt("COINS_REQUIRED", 100),
			CoinsPerReward:        getEnvAsInt("COINS_PER_REWARD", 10),
			DefaultUnlockDuration: getEnvAsInt("COINS_UNLOCK_DAYS", 30),
			RewardCooldownSeconds: getEnvAsInt("COINS_REWARD_COOLDOWN", 30),
			SignatureSecret:       getEnv("COINS_SIGNATURE_SECRET", jwtSecret),
		},
		Recommendation: RecommendationConfig{
			UserCacheTTLSeconds:    getEnvAsInt("RECOMMEND_USER_CACHE_TTL", 30*60),
			DefaultCacheTTLSeconds: getEnvAsInt("RECOMMEND_DEFAULT_CACHE_TTL", 60*60),
			DefaultLimit:           getEnvAsInt("RECOMMEND_DEFAULT_LIMIT", 10),
			MaxLimit:               getEnvAsInt("RECOMMEND_MAX_LIMIT", 50),
		},
		Wishes: WishConfig{
			PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "https://eventwish2.onrender.com"), "/"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that must never run
func (c *Config) Validate() error {
	if c.IsProduction() && c.Auth.SkipAuth {
		return errors.New("SKIP_AUTH cannot be enabled in production")
	}
	if c.IsProduction() && (c.Auth.JWTSecret == defaultSecret || c.Coins.SignatureSecret == defaultSecret) {
		return errors.New("JWT_SECRET and COINS_SIGNATURE_SECRET must be set in production")
	}
	if c.Coins.RequiredCoins <= 0 || c.Coins.CoinsPerReward <= 0 {
		return errors.New("coin plan values must be positive")
	}
	if c.Recommendation.DefaultLimit <= 0 || c.Recommendation.MaxLimit < c.Recommendation.DefaultLimit {
		return errors.New("recommendation limits are inconsistent")
	}
	return nil
}

// IsProduction reports whether the app runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Helper functions for reading environment variables
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
