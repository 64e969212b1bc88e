package config

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Log       LogConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
	Printer   PrinterConfig
	POS       POSConfig
	Worker    WorkerConfig
	Archive   ArchiveConfig
}

type AppConfig struct {
	Name            string
	Env             string
	Port            string
	Debug           bool
	ShutdownTimeout time.Duration
}

type LogConfig struct {
	Level string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	Timezone string
	Migrate  bool
}

type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int
}

// RedisConfig is optional. An empty URL disables the event queue.
type RedisConfig struct {
	URL string
}

type PrinterConfig struct {
	Type         string // none, usb or network
	DevicePath   string
	Address      string
	DialTimeout  time.Duration
	WriteTimeout time.Duration
}

type POSConfig struct {
	Timezone          string
	DailyCloseAt      string
	DailyCloseEnabled bool
	ReceiptWidth      int
}

type WorkerConfig struct {
	Count       int
	MaxAttempts int
	BaseBackoff time.Duration
}

// ArchiveConfig points at S3-compatible storage for Z report PDFs. An empty
// bucket disables archiving.
type ArchiveConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Prefix    string
}

func Load() *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg(".env file not found, using environment variables")
	}

	viper.SetDefault("APP_NAME", "fixdesk-api")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_DEBUG", true)
	viper.SetDefault("APP_SHUTDOWN_TIMEOUT_SECONDS", 15)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_NAME", "fixdesk")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_TIMEZONE", "UTC")
	viper.SetDefault("DB_AUTO_MIGRATE", true)
	viper.SetDefault("JWT_SECRET", "change-this-secret-in-production")
	viper.SetDefault("JWT_ISSUER", "fixdesk-api")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("CORS_ALLOWED_HEADERS", []string{})
	viper.SetDefault("RATE_LIMIT_REQUESTS", 100)
	viper.SetDefault("RATE_LIMIT_DURATION", 60)
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("PRINTER_TYPE", "none")
	viper.SetDefault("PRINTER_DEVICE_PATH", "/dev/usb/lp0")
	viper.SetDefault("PRINTER_ADDRESS", "")
	viper.SetDefault("PRINTER_DIAL_TIMEOUT_SECONDS", 3)
	viper.SetDefault("PRINTER_WRITE_TIMEOUT_SECONDS", 5)
	viper.SetDefault("POS_TIMEZONE", "UTC")
	viper.SetDefault("POS_DAILY_CLOSE_AT", "23:55")
	viper.SetDefault("POS_DAILY_CLOSE_ENABLED", true)
	viper.SetDefault("POS_RECEIPT_WIDTH", 32)
	viper.SetDefault("WORKER_COUNT", 2)
	viper.SetDefault("WORKER_MAX_ATTEMPTS", 5)
	viper.SetDefault("WORKER_BASE_BACKOFF_SECONDS", 2)
	viper.SetDefault("ARCHIVE_REGION", "auto")
	viper.SetDefault("ARCHIVE_PREFIX", "z-reports")

	return &Config{
		App: AppConfig{
			Name:            viper.GetString("APP_NAME"),
			Env:             viper.GetString("APP_ENV"),
			Port:            viper.GetString("APP_PORT"),
			Debug:           viper.GetBool("APP_DEBUG"),
			ShutdownTimeout: seconds("APP_SHUTDOWN_TIMEOUT_SECONDS"),
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			SSLMode:  viper.GetString("DB_SSL_MODE"),
			Timezone: viper.GetString("DB_TIMEZONE"),
			Migrate:  viper.GetBool("DB_AUTO_MIGRATE"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("JWT_SECRET"),
			Issuer: viper.GetString("JWT_ISSUER"),
		},
		CORS: CORSConfig{
			AllowedOrigins: viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods: viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders: viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: viper.GetInt("RATE_LIMIT_DURATION"),
		},
		Redis: RedisConfig{
			URL: viper.GetString("REDIS_URL"),
		},
		Printer: PrinterConfig{
			Type:         viper.GetString("PRINTER_TYPE"),
			DevicePath:   viper.GetString("PRINTER_DEVICE_PATH"),
			Address:      viper.GetString("PRINTER_ADDRESS"),
			DialTimeout:  seconds("PRINTER_DIAL_TIMEOUT_SECONDS"),
			WriteTimeout: seconds("PRINTER_WRITE_TIMEOUT_SECONDS"),
		},
		POS: POSConfig{
			Timezone:          viper.GetString("POS_TIMEZONE"),
			DailyCloseAt:      viper.GetString("POS_DAILY_CLOSE_AT"),
			DailyCloseEnabled: viper.GetBool("POS_DAILY_CLOSE_ENABLED"),
			ReceiptWidth:      viper.GetInt("POS_RECEIPT_WIDTH"),
		},
		Worker: WorkerConfig{
			Count:       viper.GetInt("WORKER_COUNT"),
			MaxAttempts: viper.GetInt("WORKER_MAX_ATTEMPTS"),
			BaseBackoff: seconds("WORKER_BASE_BACKOFF_SECONDS"),
		},
		Archive: ArchiveConfig{
			Endpoint:  viper.GetString("ARCHIVE_ENDPOINT"),
			Region:    viper.GetString("ARCHIVE_REGION"),
			Bucket:    viper.GetString("ARCHIVE_BUCKET"),
			AccessKey: viper.GetString("ARCHIVE_ACCESS_KEY"),
			SecretKey: viper.GetString("ARCHIVE_SECRET_KEY"),
			Prefix:    viper.GetString("ARCHIVE_PREFIX"),
		},
	}
}

func seconds(key string) time.Duration {
	return time.Duration(viper.GetInt(key)) * time.Second
}

func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.Timezone
}
