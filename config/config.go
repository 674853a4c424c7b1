package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type HTTPConfig struct {
	Addr           string        `yaml:"addr"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	ShutdownGrace  time.Duration `yaml:"shutdown_grace"`
}

type DatabaseConfig struct {
	// Driver is one of firestore, mongo or memory.
	Driver          string `yaml:"driver"`
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
	MongoURI        string `yaml:"mongo_uri"`
	MongoDatabase   string `yaml:"mongo_database"`
}

type StorageConfig struct {
	// Driver is one of s3, gcs or memory.
	Driver        string `yaml:"driver"`
	Region        string `yaml:"region"`
	Bucket        string `yaml:"bucket"`
	Endpoint      string `yaml:"endpoint"`
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
	PublicBaseURL string `yaml:"public_base_url"`
	Folder        string `yaml:"folder"`
}

type AuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret"`
	TokenTTL       time.Duration `yaml:"token_ttl"`
	GoogleClientID string        `yaml:"google_client_id"`
	APIKey         string        `yaml:"api_key"`
}

type UploadConfig struct {
	MaxCount     int   `yaml:"max_count"`
	MaxSizeBytes int64 `yaml:"max_size_bytes"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
	// TrustProxy keys clients on X-Forwarded-For. Leave off unless a proxy
	// in front of the server rewrites that header.
	TrustProxy bool `yaml:"trust_proxy"`
}

type Config struct {
	Env       string          `yaml:"env"`
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	Auth      AuthConfig      `yaml:"auth"`
	Uploads   UploadConfig    `yaml:"uploads"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

func Default() *Config {
	return &Config{
		Env: "development",
		HTTP: HTTPConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   30 * time.Second,
			ShutdownGrace:  15 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:        "firestore",
			MongoDatabase: "recipeshare",
		},
		Storage: StorageConfig{
			Driver: "s3",
			Region: "us-east-1",
			Folder: "recipes",
		},
		Auth: AuthConfig{
			TokenTTL: 7 * 24 * time.Hour,
		},
		Uploads: UploadConfig{
			MaxCount:     5,
			MaxSizeBytes: 5 << 20,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 1,
			Burst:             5,
		},
	}
}

// Load reads defaults, then the YAML file at path (if any), then environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("APP_ENV", &c.Env)
	if v, ok := lookup("PORT"); ok && strings.TrimSpace(v) != "" {
		c.HTTP.Addr = ":" + strings.TrimPrefix(strings.TrimSpace(v), ":")
	}
	if v, ok := lookup("CORS_ORIGINS"); ok && strings.TrimSpace(v) != "" {
		c.HTTP.AllowedOrigins = splitList(v)
	}

	str("DB_DRIVER", &c.Database.Driver)
	str("FIRESTORE_PROJECT_ID", &c.Database.ProjectID)
	str("GOOGLE_APPLICATION_CREDENTIALS", &c.Database.CredentialsFile)
	str("MONGODB_URI", &c.Database.MongoURI)
	str("MONGODB_DATABASE", &c.Database.MongoDatabase)

	str("STORAGE_DRIVER", &c.Storage.Driver)
	str("S3_REGION", &c.Storage.Region)
	str("S3_BUCKET", &c.Storage.Bucket)
	str("GCS_BUCKET", &c.Storage.Bucket)
	str("S3_ENDPOINT", &c.Storage.Endpoint)
	str("S3_ACCESS_KEY", &c.Storage.AccessKey)
	str("S3_SECRET_KEY", &c.Storage.SecretKey)
	str("STORAGE_PUBLIC_URL", &c.Storage.PublicBaseURL)
	str("STORAGE_FOLDER", &c.Storage.Folder)

	str("JWT_SECRET", &c.Auth.JWTSecret)
	str("GOOGLE_CLIENT_ID", &c.Auth.GoogleClientID)
	str("API_KEY", &c.Auth.APIKey)
	if v, ok := lookup("JWT_TTL"); ok && strings.TrimSpace(v) != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("JWT_TTL: %w", err)
		}
		c.Auth.TokenTTL = d
	}

	if v, ok := lookup("RATE_LIMIT_TRUST_PROXY"); ok && strings.TrimSpace(v) != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_TRUST_PROXY: %w", err)
		}
		c.RateLimit.TrustProxy = b
	}

	if v, ok := lookup("MAX_UPLOAD_COUNT"); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("MAX_UPLOAD_COUNT: %w", err)
		}
		c.Uploads.MaxCount = n
	}
	if v, ok := lookup("MAX_UPLOAD_SIZE"); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_UPLOAD_SIZE: %w", err)
		}
		c.Uploads.MaxSizeBytes = n
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case "firestore":
		if c.Database.ProjectID == "" {
			errs = append(errs, errors.New("database.project_id is required for firestore"))
		}
	case "mongo":
		if c.Database.MongoURI == "" {
			errs = append(errs, errors.New("database.mongo_uri is required for mongo"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.Database.Driver))
	}
	switch c.Storage.Driver {
	case "s3", "gcs":
		if c.Storage.Bucket == "" {
			errs = append(errs, fmt.Errorf("storage.bucket is required for %s", c.Storage.Driver))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if c.Uploads.MaxCount <= 0 {
		errs = append(errs, errors.New("uploads.max_count must be positive"))
	}
	if c.Uploads.MaxSizeBytes <= 0 {
		errs = append(errs, errors.New("uploads.max_size_bytes must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) Production() bool {
	return strings.EqualFold(c.Env, "production") || strings.EqualFold(c.Env, "prod")
}
