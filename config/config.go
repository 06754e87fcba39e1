package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is used when no -config flag is given.
const DefaultConfigPath = "config/config.yml"

type Config struct {
	QuoteDump QuoteDumpConfig `yaml:"quotedump"`
	Decoder   DecoderConfig   `yaml:"decoder"`
	Output    OutputConfig    `yaml:"output"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type QuoteDumpConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type DecoderConfig struct {
	SortByAcceptTime bool   `yaml:"sort_by_accept_time"`
	AcceptBase       string `yaml:"accept_base"`
}

type OutputConfig struct {
	Format  string        `yaml:"format"`
	Path    string        `yaml:"path"`
	Parquet ParquetConfig `yaml:"parquet"`
}

type ParquetConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	Compression string `yaml:"compression"`
}

type StorageConfig struct {
	S3    S3Config    `yaml:"s3"`
	Kafka KafkaConfig `yaml:"kafka"`
}

type S3Config struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	Prefix          string `yaml:"prefix"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type KafkaConfig struct {
	Enabled           bool     `yaml:"enabled"`
	Brokers           []string `yaml:"brokers"`
	Topic             string   `yaml:"topic"`
	MessagesPerSecond float64  `yaml:"messages_per_second"`
	Burst             int      `yaml:"burst"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

type MetricsConfig struct {
	CloudWatch bool   `yaml:"cloudwatch"`
	Namespace  string `yaml:"namespace"`
	Region     string `yaml:"region"`
}

// Output formats.
const (
	FormatPlain = "plain"
	FormatCSV   = "csv"
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		QuoteDump: QuoteDumpConfig{
			Name:    "quotedump",
			Version: "1.0.0",
		},
		Decoder: DecoderConfig{
			AcceptBase: "fixed",
		},
		Output: OutputConfig{
			Format: FormatPlain,
			Parquet: ParquetConfig{
				Compression: "snappy",
			},
		},
		Storage: StorageConfig{
			Kafka: KafkaConfig{
				Burst: 1,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Namespace: "QuoteDump",
		},
	}
}

// LoadConfig reads path over DefaultConfig. A missing file leaves the
// defaults in place; any other read or parse error is returned.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func applyEnvOverrides(config *Config) {
	if config.Storage.S3.Enabled {
		if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
			config.Storage.S3.AccessKeyID = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
			config.Storage.S3.SecretAccessKey = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_REGION"); v != "" {
			config.Storage.S3.Region = strings.TrimSpace(v)
		}
		if v := os.Getenv("S3_BUCKET"); v != "" {
			config.Storage.S3.Bucket = strings.TrimSpace(v)
		}
	}
	config.Storage.S3.Bucket = strings.TrimSpace(config.Storage.S3.Bucket)

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		var brokers []string
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
		config.Storage.Kafka.Brokers = brokers
	}
}

func validateConfig(cfg *Config) error {
	if cfg.QuoteDump.Name == "" {
		return fmt.Errorf("quotedump.name is required")
	}

	if cfg.QuoteDump.Version == "" {
		return fmt.Errorf("quotedump.version is required")
	}

	switch cfg.Decoder.AcceptBase {
	case "", "fixed", "capture":
	default:
		return fmt.Errorf("decoder.accept_base '%s' must be fixed or capture", cfg.Decoder.AcceptBase)
	}

	switch cfg.Output.Format {
	case FormatPlain, FormatCSV:
	default:
		return fmt.Errorf("output.format '%s' must be %s or %s", cfg.Output.Format, FormatPlain, FormatCSV)
	}

	switch cfg.Output.Parquet.Compression {
	case "", "snappy", "gzip", "uncompressed":
	default:
		return fmt.Errorf("output.parquet.compression '%s' is not supported", cfg.Output.Parquet.Compression)
	}

	if cfg.Storage.S3.Enabled {
		if !cfg.Output.Parquet.Enabled {
			return fmt.Errorf("storage.s3 requires output.parquet.enabled")
		}
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when S3 is enabled")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("storage.s3.region is required when S3 is enabled")
		}
		if !isValidS3Bucket(cfg.Storage.S3.Bucket) {
			return fmt.Errorf("storage.s3.bucket '%s' is invalid", cfg.Storage.S3.Bucket)
		}
	}

	if cfg.Storage.Kafka.Enabled {
		if len(cfg.Storage.Kafka.Brokers) == 0 {
			return fmt.Errorf("storage.kafka.brokers is required when Kafka is enabled")
		}
		if cfg.Storage.Kafka.Topic == "" {
			return fmt.Errorf("storage.kafka.topic is required when Kafka is enabled")
		}
		if cfg.Storage.Kafka.MessagesPerSecond < 0 {
			return fmt.Errorf("storage.kafka.messages_per_second must not be negative")
		}
	}

	return nil
}

var s3BucketRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

func isValidS3Bucket(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	if strings.Contains(name, "..") || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return false
	}
	return s3BucketRegexp.MatchString(name)
}
