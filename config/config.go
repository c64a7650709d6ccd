package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Log      LogConfig
	Queue    QueueConfig
	Business BusinessConfig
	Events   EventsConfig
	Receipt  ReceiptConfig
	Metrics  MetricsConfig
}

type AppConfig struct {
	Port            string
	Env             string
	ShutdownTimeout time.Duration
	AllowedOrigins  []string // empty allows any origin
}

type DBConfig struct {
	Driver       string // postgres | memory
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	TimeZone     string
	MaxIdleConns int
	MaxOpenConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret       string
	AccessExpiry time.Duration
}

type LogConfig struct {
	Level          string
	FilePath       string
	FileMaxSizeMB  int
	FileMaxBackups int
	FileMaxAgeDays int
}

type QueueConfig struct {
	AllowConsultationOverlap bool
	TokenAllocator           string // database | redis | memory
}

type BusinessConfig struct {
	TokenResetTime           string
	Timezone                 string
	EmergencyProtocolEnabled bool
}

type EventsConfig struct {
	Broker       string // local | redis | kafka
	RedisChannel string
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string
	BufferSize   int
}

type ReceiptConfig struct {
	ArchiveBucket   string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

type MetricsConfig struct {
	Enabled bool
}

// IsDevelopment reports whether the app runs with APP_ENV=development
func (c AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

func setDefaults() {
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_ENV", "production")
	viper.SetDefault("APP_SHUTDOWN_TIMEOUT", "30s")
	viper.SetDefault("APP_ALLOWED_ORIGINS", "")

	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_TIMEZONE", "UTC")
	viper.SetDefault("DB_MAX_IDLE_CONNS", 10)
	viper.SetDefault("DB_MAX_OPEN_CONNS", 100)

	viper.SetDefault("REDIS_ENABLED", false)
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")

	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FILE_MAX_SIZE_MB", 100)
	viper.SetDefault("LOG_FILE_MAX_BACKUPS", 5)
	viper.SetDefault("LOG_FILE_MAX_AGE_DAYS", 30)

	viper.SetDefault("QUEUE_ALLOW_CONSULTATION_OVERLAP", false)
	viper.SetDefault("TOKEN_ALLOCATOR", "database")

	viper.SetDefault("TOKEN_RESET_TIME", "00:00")
	viper.SetDefault("BUSINESS_TIMEZONE", "UTC")
	viper.SetDefault("EMERGENCY_PROTOCOL_ENABLED", true)

	viper.SetDefault("EVENT_BROKER", "local")
	viper.SetDefault("EVENT_REDIS_CHANNEL", "frontdesk:events")
	viper.SetDefault("EVENT_KAFKA_TOPIC", "frontdesk-events")
	viper.SetDefault("EVENT_KAFKA_GROUP_ID", "frontdesk")
	viper.SetDefault("EVENT_BUFFER_SIZE", 1024)

	viper.SetDefault("AWS_REGION", "us-east-1")

	viper.SetDefault("METRICS_ENABLED", true)
}

// LoadConfig reads .env when present and lets the environment override it
func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	accessExpiry, err := time.ParseDuration(viper.GetString("JWT_ACCESS_EXPIRY"))
	if err != nil {
		accessExpiry = 15 * time.Minute
	}

	shutdownTimeout, err := time.ParseDuration(viper.GetString("APP_SHUTDOWN_TIMEOUT"))
	if err != nil {
		shutdownTimeout = 30 * time.Second
	}

	config := &Config{
		App: AppConfig{
			Port:            viper.GetString("APP_PORT"),
			Env:             viper.GetString("APP_ENV"),
			AllowedOrigins:  splitList(viper.GetString("APP_ALLOWED_ORIGINS")),
			ShutdownTimeout: shutdownTimeout,
		},
		DB: DBConfig{
			Driver:       viper.GetString("DB_DRIVER"),
			Host:         viper.GetString("DB_HOST"),
			Port:         viper.GetString("DB_PORT"),
			User:         viper.GetString("DB_USER"),
			Password:     viper.GetString("DB_PASSWORD"),
			Name:         viper.GetString("DB_NAME"),
			SSLMode:      viper.GetString("DB_SSLMODE"),
			TimeZone:     viper.GetString("DB_TIMEZONE"),
			MaxIdleConns: viper.GetInt("DB_MAX_IDLE_CONNS"),
			MaxOpenConns: viper.GetInt("DB_MAX_OPEN_CONNS"),
		},
		Redis: RedisConfig{
			Enabled:  viper.GetBool("REDIS_ENABLED"),
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:       viper.GetString("JWT_SECRET"),
			AccessExpiry: accessExpiry,
		},
		Log: LogConfig{
			Level:          viper.GetString("LOG_LEVEL"),
			FilePath:       viper.GetString("LOG_FILE_PATH"),
			FileMaxSizeMB:  viper.GetInt("LOG_FILE_MAX_SIZE_MB"),
			FileMaxBackups: viper.GetInt("LOG_FILE_MAX_BACKUPS"),
			FileMaxAgeDays: viper.GetInt("LOG_FILE_MAX_AGE_DAYS"),
		},
		Queue: QueueConfig{
			AllowConsultationOverlap: viper.GetBool("QUEUE_ALLOW_CONSULTATION_OVERLAP"),
			TokenAllocator:           viper.GetString("TOKEN_ALLOCATOR"),
		},
		Business: BusinessConfig{
			TokenResetTime:           viper.GetString("TOKEN_RESET_TIME"),
			Timezone:                 viper.GetString("BUSINESS_TIMEZONE"),
			EmergencyProtocolEnabled: viper.GetBool("EMERGENCY_PROTOCOL_ENABLED"),
		},
		Events: EventsConfig{
			Broker:       viper.GetString("EVENT_BROKER"),
			RedisChannel: viper.GetString("EVENT_REDIS_CHANNEL"),
			KafkaBrokers: splitList(viper.GetString("EVENT_KAFKA_BROKERS")),
			KafkaTopic:   viper.GetString("EVENT_KAFKA_TOPIC"),
			KafkaGroupID: viper.GetString("EVENT_KAFKA_GROUP_ID"),
			BufferSize:   viper.GetInt("EVENT_BUFFER_SIZE"),
		},
		Receipt: ReceiptConfig{
			ArchiveBucket:   viper.GetString("RECEIPT_ARCHIVE_BUCKET"),
			Region:          viper.GetString("AWS_REGION"),
			Endpoint:        viper.GetString("AWS_ENDPOINT_URL"),
			AccessKeyID:     viper.GetString("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: viper.GetString("AWS_SECRET_ACCESS_KEY"),
		},
		Metrics: MetricsConfig{
			Enabled: viper.GetBool("METRICS_ENABLED"),
		},
	}

	return config, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
