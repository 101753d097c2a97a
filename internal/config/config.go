package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Env string
	}

	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	DB struct {
		Driver   string
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
		MatchTTL time.Duration
	}

	Mongo struct {
		URI      string
		Database string
	}

	Messages struct {
		Store string
	}

	HTTP struct {
		Host string
		Port string
	}

	GRPC struct {
		Host string
		Port string
	}

	Auth struct {
		Secret       string
		Issuer       string
		AccessExpiry time.Duration
		Cookie       string
	}

	Candidates struct {
		PerSide    int
		DailyQuota int
	}

	Jobs struct {
		QuotaResetInterval time.Duration
		SkipRetention      time.Duration
		PurgeInterval      time.Duration
		HealthInterval     time.Duration
	}

	Media struct {
		Bucket    string
		Region    string
		Prefix    string
		URLExpiry time.Duration
	}
}

// New builds the config from .env, an optional config.yaml and the environment.
// Environment variables win over the file; unset keys fall back to defaults.
func New() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig()
	v.AutomaticEnv()
	setDefaults(v)

	return load(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "dev")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("LOG_COMPONENT", "matchmaker")
	v.SetDefault("LOG_SOURCE", "false")

	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_USER", "root")
	v.SetDefault("DB_PASSWORD", "root")
	v.SetDefault("DB_NAME", "matchmaker")

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("MATCH_CACHE_TTL", 10*time.Minute)

	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "matchmaker")
	v.SetDefault("MESSAGE_STORE", "mongo")

	v.SetDefault("HTTP_HOST", "0.0.0.0")
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("GRPC_HOST", "127.0.0.1")
	v.SetDefault("GRPC_PORT", "50051")

	v.SetDefault("JWT_SECRET", "dev-secret")
	v.SetDefault("JWT_ISSUER", "matchmaker")
	v.SetDefault("JWT_ACCESS_EXPIRY", 24*time.Hour)
	v.SetDefault("AUTH_COOKIE", "mir")

	v.SetDefault("CANDIDATES_PER_SIDE", 3)
	v.SetDefault("CANDIDATES_DAILY_QUOTA", 3)

	v.SetDefault("JOBS_QUOTA_RESET_INTERVAL", 24*time.Hour)
	v.SetDefault("JOBS_SKIP_RETENTION", 7*24*time.Hour)
	v.SetDefault("JOBS_PURGE_INTERVAL", time.Hour)
	v.SetDefault("JOBS_HEALTH_INTERVAL", 15*time.Second)

	v.SetDefault("MEDIA_PREFIX", "chat-media/")
	v.SetDefault("MEDIA_URL_EXPIRY", 5*time.Minute)
}

func load(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.App.Env = strings.ToLower(v.GetString("APP_ENV"))

	// Logger
	cfg.Log.Level = v.GetString("LOG_LEVEL")
	cfg.Log.Format = v.GetString("LOG_FORMAT")
	cfg.Log.Component = v.GetString("LOG_COMPONENT")
	cfg.Log.Source = isTruthy(v.GetString("LOG_SOURCE"))

	// Database
	cfg.DB.Driver = strings.ToLower(v.GetString("DB_DRIVER"))
	cfg.DB.Host = v.GetString("DB_HOST")
	cfg.DB.Port = v.GetString("DB_PORT")
	cfg.DB.User = v.GetString("DB_USER")
	cfg.DB.Password = v.GetString("DB_PASSWORD")
	cfg.DB.Name = v.GetString("DB_NAME")
	cfg.DB.DSN = strings.TrimSpace(v.GetString("DB_DSN"))
	if cfg.DB.DSN == "" {
		cfg.DB.DSN = buildDSN(cfg)
	}

	// Redis
	cfg.Redis.Addr = v.GetString("REDIS_ADDR")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	cfg.Redis.DB = v.GetInt("REDIS_DB")
	cfg.Redis.MatchTTL = v.GetDuration("MATCH_CACHE_TTL")

	// Messages
	cfg.Mongo.URI = v.GetString("MONGO_URI")
	cfg.Mongo.Database = v.GetString("MONGO_DATABASE")
	cfg.Messages.Store = strings.ToLower(v.GetString("MESSAGE_STORE"))

	// Listeners
	cfg.HTTP.Host = v.GetString("HTTP_HOST")
	cfg.HTTP.Port = v.GetString("HTTP_PORT")
	cfg.GRPC.Host = v.GetString("GRPC_HOST")
	cfg.GRPC.Port = v.GetString("GRPC_PORT")

	// Auth
	cfg.Auth.Secret = v.GetString("JWT_SECRET")
	cfg.Auth.Issuer = v.GetString("JWT_ISSUER")
	cfg.Auth.AccessExpiry = v.GetDuration("JWT_ACCESS_EXPIRY")
	cfg.Auth.Cookie = v.GetString("AUTH_COOKIE")

	// Candidates
	cfg.Candidates.PerSide = positive(v.GetInt("CANDIDATES_PER_SIDE"), 3)
	cfg.Candidates.DailyQuota = positive(v.GetInt("CANDIDATES_DAILY_QUOTA"), 3)

	// Jobs
	cfg.Jobs.QuotaResetInterval = v.GetDuration("JOBS_QUOTA_RESET_INTERVAL")
	cfg.Jobs.SkipRetention = v.GetDuration("JOBS_SKIP_RETENTION")
	cfg.Jobs.PurgeInterval = v.GetDuration("JOBS_PURGE_INTERVAL")
	cfg.Jobs.HealthInterval = v.GetDuration("JOBS_HEALTH_INTERVAL")

	// Media
	cfg.Media.Bucket = v.GetString("S3_BUCKET_NAME")
	cfg.Media.Region = v.GetString("AWS_REGION")
	cfg.Media.Prefix = v.GetString("MEDIA_PREFIX")
	cfg.Media.URLExpiry = v.GetDuration("MEDIA_URL_EXPIRY")

	return cfg
}

// buildDSN assembles a driver specific DSN from the discrete DB settings.
func buildDSN(cfg *Config) string {
	switch cfg.DB.Driver {
	case "postgres":
		port := cfg.DB.Port
		if port == "" {
			port = "5432"
		}
		return fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			cfg.DB.Host, port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name,
		)
	case "sqlite":
		return fmt.Sprintf("file:%s.db?_busy_timeout=5000", cfg.DB.Name)
	default:
		port := cfg.DB.Port
		if port == "" {
			port = "3306"
		}
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, port, cfg.DB.Name,
		)
	}
}

func positive(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
