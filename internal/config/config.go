package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

// Config представляет конфигурацию приложения
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Ranking   RankingConfig
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port         string
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
	// AllowedOrigins для CORS; пустой список разрешает только localhost
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MigrationsPath string `mapstructure:"migrations_path"`
}

// RedisConfig содержит настройки Redis.
// Mode: single, sentinel или cluster.
type RedisConfig struct {
	Mode            string   `mapstructure:"mode"`
	Addrs           []string `mapstructure:"addrs"`
	Addr            string   `mapstructure:"addr"`
	Password        string   `mapstructure:"password"`
	DB              int      `mapstructure:"db"`
	MasterName      string   `mapstructure:"master_name"`
	MaxRetries      int      `mapstructure:"max_retries"`
	MinRetryBackoff int      `mapstructure:"min_retry_backoff"` // мс
	MaxRetryBackoff int      `mapstructure:"max_retry_backoff"` // мс
}

// JWTConfig содержит общий с сервисом аутентификации секрет
type JWTConfig struct {
	Secret        string `mapstructure:"secret"`
	ExpirationHrs int    `mapstructure:"expiration_hrs"`
}

// RankingConfig задает параметры рейтинга и античита
type RankingConfig struct {
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
	DuplicateWindow time.Duration `mapstructure:"duplicate_window"`
	RecalcWorkers   int           `mapstructure:"recalc_workers"`
}

// RateLimitConfig ограничивает частоту отчетов о нарушениях и публичных чтений
type RateLimitConfig struct {
	ViolationReports int           `mapstructure:"violation_reports"`
	PublicReads      int           `mapstructure:"public_reads"`
	Window           time.Duration `mapstructure:"window"`
}

// LogConfig задает уровень и формат логов
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// PostgresConnectionString возвращает строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// PostgresURL возвращает DSN в формате URL (нужен golang-migrate и lib/pq)
func (d *DatabaseConfig) PostgresURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.read_timeout", 10)
	vip.SetDefault("server.write_timeout", 30)

	vip.SetDefault("database.port", "5432")
	vip.SetDefault("database.sslmode", "disable")
	vip.SetDefault("database.migrations_path", "file://migrations")

	vip.SetDefault("redis.mode", "single")
	vip.SetDefault("redis.addr", "localhost:6379")
	vip.SetDefault("redis.max_retries", 3)
	vip.SetDefault("redis.min_retry_backoff", 8)
	vip.SetDefault("redis.max_retry_backoff", 512)

	vip.SetDefault("jwt.expiration_hrs", 24)

	vip.SetDefault("ranking.cache_ttl", 60*time.Second)
	vip.SetDefault("ranking.duplicate_window", 15*time.Second)
	vip.SetDefault("ranking.recalc_workers", 4)

	vip.SetDefault("rate_limit.violation_reports", 30)
	vip.SetDefault("rate_limit.public_reads", 120)
	vip.SetDefault("rate_limit.window", time.Minute)

	vip.SetDefault("log.level", "info")
}

// Load загружает конфигурацию из файла (если задан) и переменных окружения.
// Переменные окружения имеют приоритет над файлом.
func Load(configPath string) (*Config, error) {
	vip := viper.New()
	setDefaults(vip)

	// Явная привязка переменных окружения, AutomaticEnv не видит вложенные ключи при Unmarshal
	vip.BindEnv("server.port", "SERVER_PORT")
	vip.BindEnv("server.allowed_origins", "SERVER_ALLOWED_ORIGINS")

	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")
	vip.BindEnv("database.migrations_path", "DATABASE_MIGRATIONS_PATH")

	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	vip.BindEnv("jwt.secret", "JWT_SECRET")
	vip.BindEnv("jwt.expiration_hrs", "JWT_EXPIRATION_HRS")

	vip.BindEnv("ranking.cache_ttl", "RANKING_CACHE_TTL")
	vip.BindEnv("ranking.duplicate_window", "RANKING_DUPLICATE_WINDOW")
	vip.BindEnv("ranking.recalc_workers", "RANKING_RECALC_WORKERS")

	vip.BindEnv("rate_limit.violation_reports", "RATE_LIMIT_VIOLATION_REPORTS")
	vip.BindEnv("rate_limit.public_reads", "RATE_LIMIT_PUBLIC_READS")
	vip.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")

	vip.BindEnv("log.level", "LOG_LEVEL")
	vip.BindEnv("log.development", "LOG_DEVELOPMENT")

	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
			}
			// Файла нет: работаем на переменных окружения и умолчаниях
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
		return fmt.Errorf("database configuration (host, dbname, user) is incomplete (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required (check JWT_SECRET env var)")
	}
	switch c.Redis.Mode {
	case "single", "sentinel", "cluster":
	default:
		return fmt.Errorf("unsupported redis mode %q", c.Redis.Mode)
	}
	if c.Ranking.CacheTTL <= 0 {
		return fmt.Errorf("ranking.cache_ttl must be positive")
	}
	if c.Ranking.DuplicateWindow <= 0 {
		return fmt.Errorf("ranking.duplicate_window must be positive")
	}
	if c.Ranking.RecalcWorkers < 1 {
		return fmt.Errorf("ranking.recalc_workers must be at least 1")
	}
	return nil
}
