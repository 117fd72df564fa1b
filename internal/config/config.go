package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	Redis    RedisConfig    `yaml:"redis"`
	S3       S3Config       `yaml:"s3"`
	Firebase FirebaseConfig `yaml:"firebase"`
	Push     PushConfig     `yaml:"push"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	Mode            string        `yaml:"mode"`
	LogLevel        string        `yaml:"log_level"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     string        `yaml:"cors_origins"`
}

type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Name            string        `yaml:"name"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	MigrateOnStart  bool          `yaml:"migrate_on_start"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

type JWTConfig struct {
	Secret      string `yaml:"secret"`
	ExpiryHours int    `yaml:"expiry_hours"`
}

// RedisConfig is optional. An empty Addr disables caching and pub/sub.
type RedisConfig struct {
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	UnreadTTL time.Duration `yaml:"unread_ttl"`
}

// S3Config is optional. An empty Bucket disables file uploads.
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// FirebaseConfig is optional. An empty CredentialsFile disables push sends.
type FirebaseConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
}

type PushConfig struct {
	TokenMaxAgeDays int           `yaml:"token_max_age_days"`
	ReminderWindow  time.Duration `yaml:"reminder_window"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			Mode:            "release",
			LogLevel:        "info",
			ShutdownTimeout: 5 * time.Second,
			CORSOrigins:     "*",
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            "5432",
			User:            "buildbid",
			Password:        "buildbid",
			Name:            "buildbid",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			MigrateOnStart:  true,
		},
		JWT: JWTConfig{
			Secret:      "supersecretkey",
			ExpiryHours: 24,
		},
		Redis: RedisConfig{
			UnreadTTL: 5 * time.Minute,
		},
		Push: PushConfig{
			TokenMaxAgeDays: 30,
			ReminderWindow:  48 * time.Hour,
		},
	}
}

// Load reads .env, then the YAML file at CONFIG_PATH (configs/config.yaml by default), then
// applies environment overrides. A missing YAML file is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	return LoadFile(getEnv("CONFIG_PATH", "configs/config.yaml"))
}

func LoadFile(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	cfg.Server.Port = getEnv("SERVER_PORT", cfg.Server.Port)
	cfg.Server.Mode = getEnv("GIN_MODE", cfg.Server.Mode)
	cfg.Server.LogLevel = getEnv("LOG_LEVEL", cfg.Server.LogLevel)
	cfg.Server.ShutdownTimeout = getDuration("SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)
	cfg.Server.CORSOrigins = getEnv("CORS_ORIGINS", cfg.Server.CORSOrigins)

	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnv("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Name = getEnv("DB_NAME", cfg.Database.Name)
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", cfg.Database.SSLMode)
	cfg.Database.MaxOpenConns = getInt("DB_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)
	cfg.Database.MaxIdleConns = getInt("DB_MAX_IDLE_CONNS", cfg.Database.MaxIdleConns)
	cfg.Database.MigrateOnStart = getBool("DB_MIGRATE_ON_START", cfg.Database.MigrateOnStart)

	cfg.JWT.Secret = getEnv("JWT_SECRET", cfg.JWT.Secret)
	cfg.JWT.ExpiryHours = getInt("JWT_EXPIRY_HOURS", cfg.JWT.ExpiryHours)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.UnreadTTL = getDuration("REDIS_UNREAD_TTL", cfg.Redis.UnreadTTL)

	cfg.S3.Bucket = getEnv("S3_BUCKET", cfg.S3.Bucket)
	cfg.S3.Region = getEnv("S3_REGION", cfg.S3.Region)
	cfg.S3.Endpoint = getEnv("S3_ENDPOINT", cfg.S3.Endpoint)
	cfg.S3.AccessKey = getEnv("S3_ACCESS_KEY", cfg.S3.AccessKey)
	cfg.S3.SecretKey = getEnv("S3_SECRET_KEY", cfg.S3.SecretKey)

	cfg.Firebase.CredentialsFile = getEnv("GOOGLE_APPLICATION_CREDENTIALS", cfg.Firebase.CredentialsFile)

	cfg.Push.TokenMaxAgeDays = getInt("PUSH_TOKEN_MAX_AGE_DAYS", cfg.Push.TokenMaxAgeDays)
	cfg.Push.ReminderWindow = getDuration("DEADLINE_REMINDER_WINDOW", cfg.Push.ReminderWindow)

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return fmt.Errorf("jwt secret must not be empty")
	}
	if c.JWT.ExpiryHours <= 0 {
		return fmt.Errorf("jwt expiry hours must be positive, got %d", c.JWT.ExpiryHours)
	}
	if c.Push.TokenMaxAgeDays <= 0 {
		return fmt.Errorf("push token max age must be positive, got %d", c.Push.TokenMaxAgeDays)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return defaultVal
}

func getBool(key string, defaultVal bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return v
	}
	return defaultVal
}
