package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeTempConfig writes content to a config file in a temporary directory
// and returns its path.
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeTempConfig(t, `quotedump:
  name: "TestApp"
  version: "1.0"
decoder:
  sort_by_accept_time: true
  accept_base: capture
output:
  format: csv
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.QuoteDump.Name != "TestApp" {
		t.Errorf("unexpected name: %s", cfg.QuoteDump.Name)
	}
	if !cfg.Decoder.SortByAcceptTime || cfg.Decoder.AcceptBase != "capture" {
		t.Errorf("unexpected decoder config: %+v", cfg.Decoder)
	}
	if cfg.Output.Format != FormatCSV {
		t.Errorf("unexpected format: %s", cfg.Output.Format)
	}
	// untouched sections keep their defaults
	if cfg.Logging.Output != "stderr" || cfg.Output.Parquet.Compression != "snappy" {
		t.Errorf("defaults lost: %+v %+v", cfg.Logging, cfg.Output.Parquet)
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	want := DefaultConfig()
	if cfg.QuoteDump != want.QuoteDump || cfg.Output.Format != FormatPlain {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"format":      "output:\n  format: xml\n",
		"accept_base": "decoder:\n  accept_base: local\n",
		"compression": "output:\n  parquet:\n    compression: lz4\n",
		"s3_without_parquet": `storage:
  s3:
    enabled: true
    bucket: quotes
    region: ap-northeast-2
`,
		"kafka_without_topic": `storage:
  kafka:
    enabled: true
    brokers: ["localhost:9092"]
`,
		"empty_name": "quotedump:\n  name: \"\"\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadConfig(writeTempConfig(t, content)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadConfigParseError(t *testing.T) {
	if _, err := LoadConfig(writeTempConfig(t, "quotedump: [unterminated\n")); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("S3_BUCKET", " env-bucket ")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")
	path := writeTempConfig(t, `output:
  parquet:
    enabled: true
storage:
  s3:
    enabled: true
    bucket: file-bucket
    region: ap-northeast-2
  kafka:
    enabled: true
    topic: quotes
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Storage.S3.Bucket != "env-bucket" {
		t.Errorf("bucket = %q", cfg.Storage.S3.Bucket)
	}
	if strings.Join(cfg.Storage.Kafka.Brokers, ",") != "a:9092,b:9092" {
		t.Errorf("brokers = %v", cfg.Storage.Kafka.Brokers)
	}
}

func TestIsValidS3Bucket(t *testing.T) {
	cases := []struct {
		name  string
		valid bool
	}{
		{"valid-bucket", true},
		{"Invalid", false},
		{"ab", false},
		{"my..bucket", false},
	}
	for _, c := range cases {
		if got := isValidS3Bucket(c.name); got != c.valid {
			t.Errorf("isValidS3Bucket(%q) = %v, want %v", c.name, got, c.valid)
		}
	}
}

func TestAppEnvironmentAliases(t *testing.T) {
	t.Setenv("APP_ENV", " PROD ")
	if got := AppEnvironment(); got != environmentProduction {
		t.Errorf("AppEnvironment() = %q", got)
	}
	t.Setenv("APP_ENV", "")
	if got := AppEnvironment(); got != environmentDevelopment {
		t.Errorf("AppEnvironment() = %q", got)
	}
}

func TestResolvePathKeepsExplicitPath(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	if got := ResolvePath("custom.yml"); got != "custom.yml" {
		t.Errorf("ResolvePath changed explicit path: %q", got)
	}
	// no production file exists relative to the test directory
	if got := ResolvePath(""); got != DefaultConfigPath {
		t.Errorf("ResolvePath(\"\") = %q", got)
	}
}
