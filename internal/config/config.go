package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"event-gallery/internal/services"
	"event-gallery/internal/utils"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator"
	"gopkg.in/yaml.v3"
)

const (
	ResizeModeWidth = "width"
	ResizeModeFit   = "fit"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Database struct {
	Driver     string `yaml:"driver" env:"DB_DRIVER" validate:"oneof=postgres sqlite"`
	URL        string `yaml:"url" env:"DATABASE_URL"`
	Host       string `yaml:"host" env:"DB_HOST"`
	Port       string `yaml:"port" env:"DB_PORT"`
	User       string `yaml:"user" env:"DB_USER"`
	Password   string `yaml:"-" env:"DB_PASSWORD"`
	Name       string `yaml:"name" env:"DB_DATABASE"`
	SQLitePath string `yaml:"sqlitePath" env:"SQLITE_PATH"`
}

type Storage struct {
	Endpoint  string `yaml:"endpoint" env:"MINIO_ENDPOINT" validate:"required"`
	AccessKey string `yaml:"-" env:"MINIO_ACCESS_KEY" validate:"required"`
	SecretKey string `yaml:"-" env:"MINIO_SECRET_KEY" validate:"required"`
	Bucket    string `yaml:"bucket" env:"MINIO_BUCKET" validate:"required"`
	UseSSL    bool   `yaml:"useSSL" env:"MINIO_USE_SSL"`
	PublicURL string `yaml:"publicURL" env:"MINIO_PUBLIC_URL"`
	Prefix    string `yaml:"prefix" env:"MINIO_PREFIX"`
}

type Moderation struct {
	Enabled         bool   `yaml:"enabled" env:"MODERATION_ENABLED"`
	CredentialsFile string `yaml:"credentialsFile" env:"GOOGLE_APPLICATION_CREDENTIALS"`
}

type Upload struct {
	MaxBatchFiles    int    `yaml:"maxBatchFiles" env:"MAX_BATCH_FILES" validate:"min=1,max=20"`
	MaxFileSizeBytes int    `yaml:"maxFileSizeBytes" env:"MAX_FILE_SIZE_BYTES" validate:"min=1"`
	ResizeMode       string `yaml:"resizeMode" env:"RESIZE_MODE" validate:"oneof=width fit"`
	MaxWidth         int    `yaml:"maxWidth" env:"RESIZE_MAX_WIDTH" validate:"min=1"`
	FitWidth         int    `yaml:"fitWidth" env:"RESIZE_FIT_WIDTH" validate:"min=1"`
	FitHeight        int    `yaml:"fitHeight" env:"RESIZE_FIT_HEIGHT" validate:"min=1"`
	JPEGQuality      int    `yaml:"jpegQuality" env:"JPEG_QUALITY" validate:"min=1,max=100"`
	DedupMode        string `yaml:"dedupMode" env:"DEDUP_MODE" validate:"oneof=off filename content"`
}

type Auth struct {
	AdminPassword string        `yaml:"-" env:"ADMIN_PASSWORD" validate:"required"`
	JWTSecret     string        `yaml:"-" env:"JWT_SECRET" validate:"required"`
	TokenTTL      time.Duration `yaml:"tokenTTL" env:"TOKEN_TTL"`
	SessionTTL    time.Duration `yaml:"sessionTTL" env:"SESSION_TTL"`
	RedisURL      string        `yaml:"redisURL" env:"REDIS_URL"`
}

type Config struct {
	Port            string        `yaml:"port" env:"PORT" validate:"required"`
	Environment     string        `yaml:"environment" env:"APP_ENV"`
	PublicDir       string        `yaml:"publicDir" env:"PUBLIC_DIR"`
	UpstreamTimeout time.Duration `yaml:"upstreamTimeout" env:"UPSTREAM_TIMEOUT"`

	Database   Database   `yaml:"database"`
	Storage    Storage    `yaml:"storage"`
	Moderation Moderation `yaml:"moderation"`
	Upload     Upload     `yaml:"upload"`
	Auth       Auth       `yaml:"auth"`
}

// Default returns the configuration used when neither a config file nor the
// environment override a value.
func Default() Config {
	return Config{
		Port:            "3001",
		Environment:     "development",
		PublicDir:       "public",
		UpstreamTimeout: 30 * time.Second,
		Database: Database{
			Driver:     DriverPostgres,
			Port:       "5432",
			SQLitePath: "gallery.db",
		},
		Storage: Storage{
			Bucket: "gallery",
		},
		Moderation: Moderation{
			Enabled: true,
		},
		Upload: Upload{
			MaxBatchFiles:    10,
			MaxFileSizeBytes: 5 * 1024 * 1024,
			ResizeMode:       ResizeModeWidth,
			MaxWidth:         800,
			FitWidth:         1200,
			FitHeight:        675,
			JPEGQuality:      80,
			DedupMode:        services.DedupContent,
		},
		Auth: Auth{
			TokenTTL:   12 * time.Hour,
			SessionTTL: 24 * time.Hour,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file named by
// CONFIG_PATH, a dotenv file (ENV_FILE, default .env) and finally the process
// environment.
func Load() (*Config, error) {
	cfg := Default()

	if err := utils.LoadEnv(utils.GetEnv("ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	if path := utils.GetEnv("CONFIG_PATH", ""); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks field constraints and the cross-field rules that tags can't
// express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Database.Driver == DriverPostgres && c.Database.URL == "" && c.Database.Host == "" {
		return fmt.Errorf("invalid configuration: DATABASE_URL or DB_HOST is required for postgres")
	}
	if c.Moderation.Enabled && c.Moderation.CredentialsFile == "" {
		return fmt.Errorf("invalid configuration: GOOGLE_APPLICATION_CREDENTIALS is required when moderation is enabled")
	}
	return nil
}

// IsProduction reports whether database connections must use TLS.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// PostgresURL returns DATABASE_URL, or a URL assembled from the discrete
// DB_* settings.
func (d Database) PostgresURL() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   d.Host + ":" + d.Port,
		Path:   "/" + d.Name,
	}
	return u.String()
}
