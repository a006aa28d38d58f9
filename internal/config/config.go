package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"logLevel"`
	Server      struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"server"`
	NATS struct {
		URL    string             `mapstructure:"url"`
		Intake ConsumerNatsConfig `mapstructure:"intake"`
	} `mapstructure:"nats"`
	Database struct {
		PostgresDSN         string `mapstructure:"postgresDSN"`
		PostgresAutoMigrate bool   `mapstructure:"postgresAutoMigrate"`
	} `mapstructure:"database"`
	Blob struct {
		Bucket         string `mapstructure:"bucket"`
		Region         string `mapstructure:"region"`
		Endpoint       string `mapstructure:"endpoint"`       // Optional custom endpoint (minio, localstack)
		ForcePathStyle bool   `mapstructure:"forcePathStyle"` // Required for most S3-compatible stores
	} `mapstructure:"blob"`
	Export struct {
		DefaultTTL time.Duration `mapstructure:"defaultTTL"` // Applied when the request carries no TTL
		MaxTTL     time.Duration `mapstructure:"maxTTL"`     // Hard cap on requested TTLs
	} `mapstructure:"export"`
	Sync struct {
		SourceDSN    string           `mapstructure:"sourceDSN"`
		TargetDSN    string           `mapstructure:"targetDSN"`
		SourceBucket string           `mapstructure:"sourceBucket"`
		TargetBucket string           `mapstructure:"targetBucket"`
		ReportPrefix string           `mapstructure:"reportPrefix"` // Target-bucket prefix for run reports
		Deadline     time.Duration    `mapstructure:"deadline"`     // Per-run deadline, zero means none
		FileCopy     WorkerPoolConfig `mapstructure:"fileCopy"`
	} `mapstructure:"sync"`
	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
		Port    int  `mapstructure:"port"`
	} `mapstructure:"metrics"`
}

// WorkerPoolConfig holds configuration for a bounded worker pool
type WorkerPoolConfig struct {
	PoolSize   int           `mapstructure:"poolSize"`   // Number of workers
	QueueSize  int           `mapstructure:"queueSize"`  // Task queue buffer size
	MaxBlock   time.Duration `mapstructure:"maxBlock"`   // Max time to block when submitting if queue full
	ExpiryTime time.Duration `mapstructure:"expiryTime"` // Idle worker expiry time
}

// ConsumerNatsConfig holds configuration specific to a NATS consumer
type ConsumerNatsConfig struct {
	MaxAge       int64         `mapstructure:"maxAge"` // max age of messages in days
	Stream       string        `mapstructure:"stream"`
	Consumer     string        `mapstructure:"consumer"` // durable name
	QueueGroup   string        `mapstructure:"group"`
	SubjectList  []string      `mapstructure:"subjectList"`
	MaxDeliver   int           `mapstructure:"maxDeliver"`   // Max delivery attempts
	NakBaseDelay time.Duration `mapstructure:"nakBaseDelay"` // Base delay for exponential backoff NAK
	NakMaxDelay  time.Duration `mapstructure:"nakMaxDelay"`  // Maximum delay for exponential backoff NAK
}

// LoadConfig reads configuration from file or environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("environment", "development")
	v.SetDefault("logLevel", "info")
	v.SetDefault("server.port", 8080)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 2112)

	// Intake consumer defaults
	v.SetDefault("nats.intake.stream", "webhook_events")
	v.SetDefault("nats.intake.consumer", "expediente_intake")
	v.SetDefault("nats.intake.group", "expediente_intake_group")
	v.SetDefault("nats.intake.subjectList", []string{"v1.webhook.messages", "v1.webhook.media"})
	v.SetDefault("nats.intake.maxAge", int64(30))
	v.SetDefault("nats.intake.maxDeliver", 5)
	v.SetDefault("nats.intake.nakBaseDelay", 2*time.Second)
	v.SetDefault("nats.intake.nakMaxDelay", 30*time.Second)

	// Export defaults
	v.SetDefault("export.defaultTTL", time.Hour)
	v.SetDefault("export.maxTTL", 7*24*time.Hour)

	// Sync defaults
	v.SetDefault("sync.reportPrefix", "reports")
	v.SetDefault("sync.fileCopy.poolSize", 8)
	v.SetDefault("sync.fileCopy.queueSize", 1024)
	v.SetDefault("sync.fileCopy.maxBlock", time.Second)
	v.SetDefault("sync.fileCopy.expiryTime", time.Minute)

	// Config file settings
	v.SetConfigName("default")
	v.SetConfigType("yaml")

	// Add lookup paths
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath("$HOME/.expediente-docs-service")
	v.AddConfigPath("/etc/expediente-docs-service")

	if err := v.ReadInConfig(); err != nil {
		// It's ok if config file is not found, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Override with environment variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Map environment variables to config fields
	bindEnvs(v, Config{})

	// Read directly from ENV for critical values
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		v.Set("database.postgresDSN", dsn)
	}
	if lgLevel := os.Getenv("LOG_LEVEL"); lgLevel != "" {
		v.Set("logLevel", lgLevel)
	}
	if url := os.Getenv("NATS_URL"); url != "" {
		v.Set("nats.url", url)
	}
	if bucket := os.Getenv("S3_BUCKET"); bucket != "" {
		v.Set("blob.bucket", bucket)
	}
	if region := os.Getenv("AWS_REGION"); region != "" {
		v.Set("blob.region", region)
	}
	if dsn := os.Getenv("SYNC_SOURCE_DSN"); dsn != "" {
		v.Set("sync.sourceDSN", dsn)
	}
	if dsn := os.Getenv("SYNC_TARGET_DSN"); dsn != "" {
		v.Set("sync.targetDSN", dsn)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	return &config, nil
}

// bindEnvs recursively binds environment variables to config struct fields
func bindEnvs(v *viper.Viper, cfg interface{}, parts ...string) {
	ifv := reflect.ValueOf(cfg)
	ift := reflect.TypeOf(cfg)
	for i := 0; i < ift.NumField(); i++ {
		fieldVal := ifv.Field(i)
		fieldType := ift.Field(i)

		tag := fieldType.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}

		path := append(parts, tag)
		key := strings.Join(path, ".")

		if fieldType.Type.Kind() == reflect.Struct {
			bindEnvs(v, fieldVal.Interface(), path...)
			continue
		}

		_ = v.BindEnv(key)
	}
}
