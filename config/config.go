package config

import (
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string
	AppMode string
	LogMode string

	StoreDriver string
	DBHost      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBPort      string
	DBMaxConns  int

	JWTSecret       string
	JWTBase64Secret string

	RedisEnabled    bool
	RedisHost       string
	RedisPort       string
	RedisPassword   string
	RedisDB         int
	ProfileCacheTTL time.Duration

	WSPath           string
	WSSendBuffer     int
	WSMaxMessageSize int64
	WSPersistTimeout time.Duration
	WSAllowedOrigins []string

	// MemoryProfiles seeds STORE_DRIVER=memory with "login:id" pairs.
	MemoryProfiles []string
}

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		AppPort:          getEnv("APP_PORT", "8080"),
		AppMode:          getEnv("APP_MODE", "debug"),
		LogMode:          getEnv("LOG_MODE", "development"),
		StoreDriver:      getEnv("STORE_DRIVER", StoreDriverPostgres),
		DBHost:           getEnv("DB_HOST", "localhost"),
		DBUser:           getEnv("DB_USER", "postgres"),
		DBPassword:       getEnv("DB_PASSWORD", "postgres"),
		DBName:           getEnv("DB_NAME", "freelance"),
		DBPort:           getEnv("DB_PORT", "5432"),
		DBMaxConns:       getEnvAsInt("DB_MAX_CONNS", 20),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTBase64Secret:  getEnv("JWT_BASE64_SECRET", ""),
		RedisEnabled:     getEnvAsBool("REDIS_ENABLED", false),
		RedisHost:        getEnv("REDIS_HOST", "localhost"),
		RedisPort:        getEnv("REDIS_PORT", "6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvAsInt("REDIS_DB", 0),
		ProfileCacheTTL:  getEnvAsDuration("PROFILE_CACHE_TTL", 5*time.Minute),
		WSPath:           getEnv("WS_PATH", "/api/ws/chat"),
		WSSendBuffer:     getEnvAsInt("WS_SEND_BUFFER", 256),
		WSMaxMessageSize: int64(getEnvAsInt("WS_MAX_MESSAGE_SIZE", 64*1024)),
		WSPersistTimeout: getEnvAsDuration("WS_PERSIST_TIMEOUT", 5*time.Second),
		WSAllowedOrigins: getEnvAsList("WS_ALLOWED_ORIGINS"),
		MemoryProfiles:   getEnvAsList("MEMORY_PROFILES"),
	}
}

// DatabaseURL builds the pgx connection string. Credentials are escaped.
func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=disable&pool_max_conns=%d", c.DBMaxConns),
	}
	return u.String()
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

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string) []string {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return nil
	}
	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}
