// Package config loads application configuration from an optional YAML file
// and environment variables.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage and credential backends.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	CredentialFile = "file"
	CredentialDB   = "db"
)

// Config holds the application configuration.
type Config struct {
	ListenAddr string

	DBDriver    string
	DBPath      string
	DatabaseDSN string

	CredentialBackend string
	CredentialFile    string

	BackupDir     string
	AttachmentDir string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string

	GitHubToken  string
	GitHubRepo   string
	GitHubBranch string

	PDFFont    string
	WeekStart  string
	SessionKey []byte // nil means a random key per process
	SessionTTL time.Duration
}

// HasGitHubBackup reports whether entries should also be pushed to GitHub.
func (c *Config) HasGitHubBackup() bool {
	return c.GitHubToken != "" && c.GitHubRepo != ""
}

// HasS3 reports whether attachments live in S3 instead of AttachmentDir.
func (c *Config) HasS3() bool {
	return c.S3Bucket != ""
}

// fileConfig mirrors Config for the YAML overlay. Durations and keys stay
// strings so both sources share one parser.
type fileConfig struct {
	ListenAddr        string `yaml:"listen_addr"`
	DBDriver          string `yaml:"db_driver"`
	DBPath            string `yaml:"db_path"`
	DatabaseDSN       string `yaml:"database_dsn"`
	CredentialBackend string `yaml:"credential_backend"`
	CredentialFile    string `yaml:"credential_file"`
	BackupDir         string `yaml:"backup_dir"`
	AttachmentDir     string `yaml:"attachment_dir"`
	S3Bucket          string `yaml:"s3_bucket"`
	S3Region          string `yaml:"s3_region"`
	S3Endpoint        string `yaml:"s3_endpoint"`
	S3AccessKey       string `yaml:"s3_access_key"`
	S3SecretKey       string `yaml:"s3_secret_key"`
	GitHubToken       string `yaml:"github_token"`
	GitHubRepo        string `yaml:"github_repo"`
	GitHubBranch      string `yaml:"github_branch"`
	PDFFont           string `yaml:"pdf_font"`
	WeekStart         string `yaml:"week_start"`
	SessionKey        string `yaml:"session_key"`
	SessionTTL        string `yaml:"session_ttl"`
}

func defaults() fileConfig {
	return fileConfig{
		ListenAddr:        "127.0.0.1:8080",
		DBDriver:          DriverSQLite,
		DBPath:            "mydiary.db",
		CredentialBackend: CredentialFile,
		CredentialFile:    "config/password.txt",
		BackupDir:         "diary",
		AttachmentDir:     "attachments",
		GitHubBranch:      "main",
		WeekStart:         "monday",
		SessionTTL:        "12h",
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// MYDIARY_CONFIG (if set), then MYDIARY_* environment variables. Later
// sources win. All settings are optional.
func Load() (*Config, error) {
	raw := defaults()

	if path, ok := os.LookupEnv("MYDIARY_CONFIG"); ok && path != "" {
		if err := overlayFile(&raw, path); err != nil {
			return nil, err
		}
	}
	overlayEnv(&raw)

	return build(raw)
}

func overlayFile(raw *fileConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("MYDIARY_CONFIG: read %s: %w", path, err)
	}

	// Keys missing from the file keep their current value.
	if err := yaml.Unmarshal(data, raw); err != nil {
		return fmt.Errorf("MYDIARY_CONFIG: parse %s: %w", path, err)
	}
	return nil
}

func overlayEnv(raw *fileConfig) {
	for _, f := range raw.fields() {
		if v, ok := os.LookupEnv("MYDIARY_" + f.env); ok {
			*f.ptr = v
		}
	}
}

type field struct {
	env string
	ptr *string
}

// fields lists every setting with its environment variable suffix.
func (c *fileConfig) fields() []field {
	return []field{
		{"LISTEN_ADDR", &c.ListenAddr},
		{"DB_DRIVER", &c.DBDriver},
		{"DB_PATH", &c.DBPath},
		{"DATABASE_DSN", &c.DatabaseDSN},
		{"CREDENTIAL_BACKEND", &c.CredentialBackend},
		{"CREDENTIAL_FILE", &c.CredentialFile},
		{"BACKUP_DIR", &c.BackupDir},
		{"ATTACHMENT_DIR", &c.AttachmentDir},
		{"S3_BUCKET", &c.S3Bucket},
		{"S3_REGION", &c.S3Region},
		{"S3_ENDPOINT", &c.S3Endpoint},
		{"S3_ACCESS_KEY", &c.S3AccessKey},
		{"S3_SECRET_KEY", &c.S3SecretKey},
		{"GITHUB_TOKEN", &c.GitHubToken},
		{"GITHUB_REPO", &c.GitHubRepo},
		{"GITHUB_BRANCH", &c.GitHubBranch},
		{"PDF_FONT", &c.PDFFont},
		{"WEEK_START", &c.WeekStart},
		{"SESSION_KEY", &c.SessionKey},
		{"SESSION_TTL", &c.SessionTTL},
	}
}

func build(raw fileConfig) (*Config, error) {
	cfg := &Config{
		ListenAddr:        raw.ListenAddr,
		DBDriver:          strings.ToLower(strings.TrimSpace(raw.DBDriver)),
		DBPath:            raw.DBPath,
		DatabaseDSN:       raw.DatabaseDSN,
		CredentialBackend: strings.ToLower(strings.TrimSpace(raw.CredentialBackend)),
		CredentialFile:    raw.CredentialFile,
		BackupDir:         raw.BackupDir,
		AttachmentDir:     raw.AttachmentDir,
		S3Bucket:          raw.S3Bucket,
		S3Region:          raw.S3Region,
		S3Endpoint:        raw.S3Endpoint,
		S3AccessKey:       raw.S3AccessKey,
		S3SecretKey:       raw.S3SecretKey,
		GitHubToken:       raw.GitHubToken,
		GitHubRepo:        raw.GitHubRepo,
		GitHubBranch:      raw.GitHubBranch,
		PDFFont:           raw.PDFFont,
		WeekStart:         strings.ToLower(strings.TrimSpace(raw.WeekStart)),
	}

	switch cfg.DBDriver {
	case DriverSQLite:
	case DriverPostgres:
		if cfg.DatabaseDSN == "" {
			return nil, fmt.Errorf("MYDIARY_DATABASE_DSN is required when MYDIARY_DB_DRIVER is %q", DriverPostgres)
		}
	default:
		return nil, fmt.Errorf("MYDIARY_DB_DRIVER must be %q or %q, got %q", DriverSQLite, DriverPostgres, raw.DBDriver)
	}

	switch cfg.CredentialBackend {
	case CredentialFile, CredentialDB:
	default:
		return nil, fmt.Errorf("MYDIARY_CREDENTIAL_BACKEND must be %q or %q, got %q", CredentialFile, CredentialDB, raw.CredentialBackend)
	}

	ttl, err := time.ParseDuration(raw.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("MYDIARY_SESSION_TTL has invalid duration %q: %w", raw.SessionTTL, err)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("MYDIARY_SESSION_TTL must be positive, got %s", ttl)
	}
	cfg.SessionTTL = ttl

	// The session key must be 64 hex characters (32 bytes).
	if raw.SessionKey != "" {
		key, err := hex.DecodeString(raw.SessionKey)
		if err != nil {
			return nil, fmt.Errorf("MYDIARY_SESSION_KEY is not valid hex: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("MYDIARY_SESSION_KEY must decode to 32 bytes, got %d", len(key))
		}
		cfg.SessionKey = key
	}

	return cfg, nil
}
