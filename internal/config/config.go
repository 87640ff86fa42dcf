// Package config loads settings from .env, an optional config file and
// HOUSEPRICE_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const EnvPrefix = "HOUSEPRICE"

type (
	Config struct {
		Env       string          `mapstructure:"env"`
		Log       LogConfig       `mapstructure:"log"`
		HTTP      HTTPConfig      `mapstructure:"http"`
		Session   SessionConfig   `mapstructure:"session"`
		Model     ModelConfig     `mapstructure:"model"`
		Currency  CurrencyConfig  `mapstructure:"currency"`
		Locations LocationsConfig `mapstructure:"locations"`
		Users     UsersConfig     `mapstructure:"users"`
		Postgres  PostgresConfig  `mapstructure:"postgres"`
		Minio     MinioConfig     `mapstructure:"minio"`
		Kafka     KafkaConfig     `mapstructure:"kafka"`
		Audit     AuditConfig     `mapstructure:"audit"`
	}

	LogConfig struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	}

	HTTPConfig struct {
		Address string        `mapstructure:"address"`
		Timeout time.Duration `mapstructure:"timeout"`
	}

	SessionConfig struct {
		Secret string        `mapstructure:"secret"`
		MaxAge time.Duration `mapstructure:"max_age"`
		Secure bool          `mapstructure:"secure"`
	}

	ModelConfig struct {
		Source      string `mapstructure:"source"`
		Format      string `mapstructure:"format"`
		Path        string `mapstructure:"path"`
		Bucket      string `mapstructure:"bucket"`
		Key         string `mapstructure:"key"`
		ONNXLibrary string `mapstructure:"onnx_library"`
		InputName   string `mapstructure:"input_name"`
		OutputName  string `mapstructure:"output_name"`
	}

	CurrencyConfig struct {
		Rate   float64 `mapstructure:"rate"`
		Symbol string  `mapstructure:"symbol"`
	}

	LocationsConfig struct {
		File string `mapstructure:"file"`
	}

	UsersConfig struct {
		Backend string `mapstructure:"backend"`
		File    string `mapstructure:"file"`
	}

	PostgresConfig struct {
		DSN         string `mapstructure:"dsn"`
		MaxPoolSize int    `mapstructure:"max_pool_size"`
	}

	MinioConfig struct {
		Endpoint  string `mapstructure:"endpoint"`
		AccessKey string `mapstructure:"access_key"`
		SecretKey string `mapstructure:"secret_key"`
		UseSSL    bool   `mapstructure:"use_ssl"`
	}

	KafkaConfig struct {
		Brokers []string `mapstructure:"brokers"`
		Topic   string   `mapstructure:"topic"`
		GroupID string   `mapstructure:"group_id"`
	}

	AuditConfig struct {
		Bucket string `mapstructure:"bucket"`
	}
)

const insecureSecret = "change-me-in-production"

// SetDefaults registers every key so environment variables can override
// values that never appear in a config file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("env", "local")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "")
	v.SetDefault("http.address", ":8080")
	v.SetDefault("http.timeout", 10*time.Second)
	v.SetDefault("session.secret", insecureSecret)
	v.SetDefault("session.max_age", 7*24*time.Hour)
	v.SetDefault("session.secure", false)
	v.SetDefault("model.source", "file")
	v.SetDefault("model.format", "linear")
	v.SetDefault("model.path", "model.json")
	v.SetDefault("model.bucket", "")
	v.SetDefault("model.key", "")
	v.SetDefault("model.onnx_library", "")
	v.SetDefault("model.input_name", "float_input")
	v.SetDefault("model.output_name", "variable")
	v.SetDefault("currency.rate", 88.0)
	v.SetDefault("currency.symbol", "₹")
	v.SetDefault("locations.file", "")
	v.SetDefault("users.backend", "file")
	v.SetDefault("users.file", "users.json")
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.max_pool_size", 4)
	v.SetDefault("minio.endpoint", "")
	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "predictions")
	v.SetDefault("kafka.group_id", "houseprice-audit")
	v.SetDefault("audit.bucket", "")
}

// LoadEnv loads a .env file from the working directory if there is one.
func LoadEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("could not read .env file")
	}
}

// New returns a viper instance with defaults and environment binding applied.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file and decodes the result.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home + "/.config/houseprice")
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Kafka.Brokers = splitList(cfg.Kafka.Brokers)
	return &cfg, nil
}

// splitList accepts brokers either as a YAML list or a comma separated
// environment variable.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate checks settings that every command depends on.
func (c *Config) Validate() error {
	var errs []error
	switch c.Model.Source {
	case "file":
		if c.Model.Path == "" {
			errs = append(errs, errors.New("model.path is required for the file source"))
		}
	case "s3":
		if c.Model.Bucket == "" || c.Model.Key == "" {
			errs = append(errs, errors.New("model.bucket and model.key are required for the s3 source"))
		}
	default:
		errs = append(errs, fmt.Errorf("model.source must be file or s3, got %q", c.Model.Source))
	}
	switch c.Model.Format {
	case "linear", "onnx":
	default:
		errs = append(errs, fmt.Errorf("model.format must be linear or onnx, got %q", c.Model.Format))
	}
	switch c.Users.Backend {
	case "file":
		if c.Users.File == "" {
			errs = append(errs, errors.New("users.file is required for the file backend"))
		}
	case "postgres":
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("postgres.dsn is required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("users.backend must be file or postgres, got %q", c.Users.Backend))
	}
	if c.Currency.Rate <= 0 {
		errs = append(errs, errors.New("currency.rate must be positive"))
	}
	if c.Env == "prod" && c.Session.Secret == insecureSecret {
		errs = append(errs, errors.New("session.secret must be set in prod"))
	}
	return errors.Join(errs...)
}

// MinioEnabled reports whether object storage is configured.
func (c *Config) MinioEnabled() bool {
	return c.Minio.Endpoint != ""
}

// KafkaEnabled reports whether prediction events should be published.
func (c *Config) KafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0 && c.Kafka.Topic != ""
}
