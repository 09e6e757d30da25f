package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Provider selects the market data source: krx or postgres
	Provider string

	// ScreenConfigPath points to the screen rules YAML (empty = built-in defaults)
	ScreenConfigPath string

	// Database (postgres provider only)
	Database DatabaseConfig

	// Redis (snapshot cache, KRX rate limit)
	Redis RedisConfig

	// External sources
	KRX   KRXConfig
	Naver NaverConfig

	// Engine
	Engine EngineConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool

	// Scheduler
	ScheduleCron    string
	ScheduleMarkets []string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool

	// Namespace prefixes every key so several deployments can share one Redis
	Namespace string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// KRXConfig holds data.krx.co.kr configuration
type KRXConfig struct {
	BaseURL    string
	RatePerSec float64 // 초당 요청 수
	ProgramBld string  // 종목별 프로그램 매매 화면 ID
}

// NaverConfig holds Naver Finance configuration
type NaverConfig struct {
	BaseURL string
}

// EngineConfig holds screening engine tuning
type EngineConfig struct {
	SnapshotCacheTTL     time.Duration
	FetchConcurrency     int
	CalendarLookbackDays int
	ProxyTicker          string // 영업일 판정용 기준 종목 (삼성전자)
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Provider:         getEnv("PROVIDER", "krx"),
		ScreenConfigPath: getEnv("SCREEN_CONFIG", ""),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),

			Namespace: getEnv("REDIS_NAMESPACE", "flowscan"),
		},

		KRX: KRXConfig{
			BaseURL:    getEnv("KRX_BASE_URL", "http://data.krx.co.kr"),
			RatePerSec: getEnvAsFloat("KRX_RATE_PER_SEC", 2),
			ProgramBld: getEnv("KRX_PROGRAM_BLD", "dbms/MDC/STAT/standard/MDCSTAT02601"),
		},

		Naver: NaverConfig{
			BaseURL: getEnv("NAVER_BASE_URL", "https://finance.naver.com"),
		},

		Engine: EngineConfig{
			SnapshotCacheTTL:     getEnvAsDuration("SNAPSHOT_CACHE_TTL", "1h"),
			FetchConcurrency:     getEnvAsInt("FETCH_CONCURRENCY", 4),
			CalendarLookbackDays: getEnvAsInt("CALENDAR_LOOKBACK_DAYS", 30),
			ProxyTicker:          getEnv("CALENDAR_PROXY_TICKER", "005930"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),

		// 장 마감 후 (15:30 KST) 데이터 확정 이후
		ScheduleCron:    getEnv("SCHEDULE_CRON", "0 40 16 * * MON-FRI"),
		ScheduleMarkets: []string{"KOSPI", "KOSDAQ"},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Provider {
	case "krx":
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when PROVIDER=postgres")
		}
	default:
		return fmt.Errorf("PROVIDER must be one of: krx, postgres")
	}

	if c.Engine.FetchConcurrency < 1 {
		return fmt.Errorf("FETCH_CONCURRENCY must be >= 1")
	}
	if c.Engine.CalendarLookbackDays < 7 {
		return fmt.Errorf("CALENDAR_LOOKBACK_DAYS must be >= 7")
	}
	if c.KRX.RatePerSec <= 0 {
		return fmt.Errorf("KRX_RATE_PER_SEC must be > 0")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
