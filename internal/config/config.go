package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Config holds everything the service reads from the environment at startup.
type Config struct {
	Port string

	DBDriver       string
	DBHost         string
	DBPort         string
	DBName         string
	DBUser         string
	DBPassword     string
	ConnectRetries int
	MaxOpenConns   int

	RedisAddr string
	CacheTTL  time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	LogLevel string
}

// Load reads the configuration. Every setting has a default, so Load never fails;
// malformed numbers and durations fall back to their defaults.
func Load() Config {
	return Config{
		Port: getEnv("8080", "PORT"),

		DBDriver:       getEnv("postgres", "DB_DRIVER"),
		DBHost:         getEnv("localhost", "DB_HOST", "POSTGRES_HOST"),
		DBPort:         getEnv("5431", "DB_PORT", "POSTGRES_PORT"),
		DBName:         getEnv("app", "DB_NAME", "POSTGRES_DB"),
		DBUser:         getEnv("app", "DB_USER", "POSTGRES_USER"),
		DBPassword:     getEnv("secret", "DB_PASSWORD", "POSTGRES_PASSWORD"),
		ConnectRetries: getEnvInt(10, "DB_CONNECT_RETRIES"),
		MaxOpenConns:   getEnvInt(25, "DB_MAX_OPEN_CONNS"),

		RedisAddr: os.Getenv("REDIS_ADDR"),
		CacheTTL:  getEnvDuration(time.Minute, "CACHE_TTL"),

		KafkaBrokers: getKafkaBrokerURLs(),
		KafkaTopic:   getEnv("classifieds-events", "KAFKA_TOPIC"),

		LogLevel: getEnv("info", "LOG_LEVEL"),
	}
}

// DSN composes the connection string for the configured driver.
func (c Config) DSN() (string, error) {
	switch c.DBDriver {
	case "postgres":
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.DBUser, c.DBPassword),
			Host:     net.JoinHostPort(c.DBHost, c.DBPort),
			Path:     "/" + c.DBName,
			RawQuery: "sslmode=disable",
		}
		return u.String(), nil
	case "mysql":
		mc := mysql.NewConfig()
		mc.User = c.DBUser
		mc.Passwd = c.DBPassword
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(c.DBHost, c.DBPort)
		mc.DBName = c.DBName
		mc.ParseTime = true
		mc.ClientFoundRows = true // UPDATE reports matched rows, not changed rows
		// DATETIME carries no zone; pin the session to UTC to match the driver's Loc.
		mc.Params = map[string]string{"time_zone": "'+00:00'"}
		return mc.FormatDSN(), nil
	case "sqlite3":
		return c.DBName, nil
	default:
		return "", fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
}

// getEnv returns the first non-empty variable among keys, or def.
func getEnv(def string, keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

func getEnvInt(def int, key string) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func getEnvDuration(def time.Duration, key string) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
