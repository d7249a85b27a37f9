package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string
	AppMode string

	DBDriver   string
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	JWTSecret      string
	JWTExpiryHours int

	RedisEnabled  bool
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// RealtimeDriver is "local" for a single instance or "redis" to fan out
	// through Redis pub/sub across instances.
	RealtimeDriver string

	OTPDevMode    bool
	OTPTTLMinutes int

	S3Region     string
	S3Bucket     string
	S3AccessKey  string
	S3SecretKey  string
	S3Endpoint   string
	S3PublicBase string

	CORSAllowedOrigins []string

	EventStickyCancelled bool
	WSRestrictRooms      bool

	RateLimitOTPPerMin      int
	RateLimitMessagesPerMin int
}

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		AppPort:                 getEnv("APP_PORT", "8080"),
		AppMode:                 getEnv("APP_MODE", "debug"),
		DBDriver:                getEnv("DB_DRIVER", "postgres"),
		DBHost:                  getEnv("DB_HOST", "localhost"),
		DBUser:                  getEnv("DB_USER", "postgres"),
		DBPassword:              getEnv("DB_PASSWORD", "postgres"),
		DBName:                  getEnv("DB_NAME", "hangoutz"),
		DBPort:                  getEnv("DB_PORT", "5432"),
		JWTSecret:               getEnv("JWT_SECRET", "change-me"),
		JWTExpiryHours:          getEnvAsInt("JWT_EXPIRY_HOURS", 720),
		RedisEnabled:            getEnvAsBool("REDIS_ENABLED", true),
		RedisHost:               getEnv("REDIS_HOST", "localhost"),
		RedisPort:               getEnv("REDIS_PORT", "6379"),
		RedisPassword:           getEnv("REDIS_PASSWORD", ""),
		RedisDB:                 getEnvAsInt("REDIS_DB", 0),
		RealtimeDriver:          getEnv("REALTIME_DRIVER", "local"),
		OTPDevMode:              getEnvAsBool("OTP_DEV_MODE", true),
		OTPTTLMinutes:           getEnvAsInt("OTP_TTL_MINUTES", 5),
		S3Region:                getEnv("S3_REGION", ""),
		S3Bucket:                getEnv("S3_BUCKET", ""),
		S3AccessKey:             getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:             getEnv("S3_SECRET_KEY", ""),
		S3Endpoint:              getEnv("S3_ENDPOINT", ""),
		S3PublicBase:            getEnv("S3_PUBLIC_BASE", ""),
		CORSAllowedOrigins:      getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		EventStickyCancelled:    getEnvAsBool("EVENT_STICKY_CANCELLED", false),
		WSRestrictRooms:         getEnvAsBool("WS_RESTRICT_ROOMS", true),
		RateLimitOTPPerMin:      getEnvAsInt("RATE_LIMIT_OTP_PER_MIN", 5),
		RateLimitMessagesPerMin: getEnvAsInt("RATE_LIMIT_MESSAGES_PER_MIN", 60),
	}
}

// UploadsEnabled reports whether enough S3 settings are present to build a client.
func (c *Config) UploadsEnabled() bool {
	return c.S3Region != "" && c.S3Bucket != ""
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return fallback
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
