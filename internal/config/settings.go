package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultHTTPPort is the port of the batch invocation surface.
const DefaultHTTPPort = "8013"

// Settings holds process configuration read from the environment.
// Provider, orchestrator and policy tuning lives in the YAML file at ConfigPath.
type Settings struct {
	Env        string
	ConfigPath string
	LogLevel   string
	Timezone   string

	Server   ServerSettings
	Database DatabaseSettings
	Storage  StorageSettings
	Redis    RedisSettings
	Temporal TemporalSettings
}

// ServerSettings configures the HTTP surface.
type ServerSettings struct {
	Host string
	Port string
}

// Addr returns host:port for net/http.
func (s ServerSettings) Addr() string {
	return s.Host + ":" + s.Port
}

// DatabaseSettings selects the status store dialect.
type DatabaseSettings struct {
	Driver     string // sqlite or postgres
	SQLitePath string
	DSN        string
}

// StorageSettings selects the object store backend.
type StorageSettings struct {
	Backend  string // minio, s3 or memory
	Bucket   string
	MaxBytes int64
	Timeout  time.Duration

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool

	S3Region       string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool
}

// RedisSettings enables the shared quota gate when Addr is set.
type RedisSettings struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Enabled reports whether a Redis address is configured.
func (r RedisSettings) Enabled() bool {
	return r.Addr != ""
}

// TemporalSettings configures the scheduled batch worker.
type TemporalSettings struct {
	HostPort  string
	Namespace string
	TaskQueue string
}

// LoadSettings reads Settings from the environment with defaults.
func LoadSettings() *Settings {
	return &Settings{
		Env:        GetEnv("APP_ENV", "development"),
		ConfigPath: GetEnv("ASR_CONFIG", "config/asr.yaml"),
		LogLevel:   GetEnv("LOG_LEVEL", "info"),
		Timezone:   GetEnv("ASR_TIMEZONE", DefaultTimezone),
		Server: ServerSettings{
			Host: GetEnv("SERVER_HOST", "0.0.0.0"),
			Port: GetEnv("SERVER_PORT", DefaultHTTPPort),
		},
		Database: DatabaseSettings{
			Driver:     GetEnv("DB_DRIVER", "sqlite"),
			SQLitePath: GetEnv("SQLITE_PATH", "data/asr.db"),
			DSN:        GetEnv("DATABASE_URL", postgresDSNFromParts()),
		},
		Storage: StorageSettings{
			Backend:        GetEnv("STORAGE_BACKEND", "minio"),
			Bucket:         GetEnv("STORAGE_BUCKET", GetEnv("MINIO_BUCKET", "watchme-audio")),
			MaxBytes:       int64(GetEnvInt("STORAGE_MAX_BYTES", DefaultMaxAudioBytes)),
			Timeout:        GetEnvDuration("STORAGE_TIMEOUT", DefaultFetchTimeout),
			MinioEndpoint:  GetEnv("MINIO_ENDPOINT", "localhost:9000"),
			MinioAccessKey: GetEnv("MINIO_ACCESS_KEY", "minioadmin"),
			MinioSecretKey: GetEnv("MINIO_SECRET_KEY", "minioadmin"),
			MinioUseSSL:    GetEnvBool("MINIO_USE_SSL", false),
			S3Region:       GetEnv("AWS_REGION", "ap-northeast-1"),
			S3Endpoint:     GetEnv("S3_ENDPOINT", ""),
			S3AccessKey:    GetEnv("AWS_ACCESS_KEY_ID", ""),
			S3SecretKey:    GetEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3UsePathStyle: GetEnvBool("S3_USE_PATH_STYLE", false),
		},
		Redis: RedisSettings{
			Addr:     GetEnv("REDIS_ADDR", ""),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetEnvInt("REDIS_DB", 0),
			Prefix:   GetEnv("REDIS_PREFIX", "asr:quota"),
		},
		Temporal: TemporalSettings{
			HostPort:  GetEnv("TEMPORAL_HOST", "localhost:7233"),
			Namespace: GetEnv("TEMPORAL_NAMESPACE", "default"),
			TaskQueue: GetEnv("TEMPORAL_TASK_QUEUE", "asr-batch"),
		},
	}
}

// Validate checks the enumerated settings.
func (s *Settings) Validate() error {
	switch s.Database.Driver {
	case "sqlite":
		if s.Database.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite driver")
		}
	case "postgres":
		if s.Database.DSN == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want sqlite or postgres)", s.Database.Driver)
	}

	switch s.Storage.Backend {
	case "minio":
		if s.Storage.MinioEndpoint == "" {
			return fmt.Errorf("MINIO_ENDPOINT is required for the minio backend")
		}
	case "s3":
		if s.Storage.S3Region == "" {
			return fmt.Errorf("AWS_REGION is required for the s3 backend")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q (want minio, s3 or memory)", s.Storage.Backend)
	}
	if s.Storage.Backend != "memory" && s.Storage.Bucket == "" {
		return fmt.Errorf("STORAGE_BUCKET is required")
	}
	if s.Storage.MaxBytes <= 0 {
		return fmt.Errorf("STORAGE_MAX_BYTES must be positive")
	}
	if err := ValidateTimeout(s.Storage.Timeout, "storage"); err != nil {
		return err
	}

	if err := ValidatePort(s.Server.Port, "server"); err != nil {
		return err
	}
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return fmt.Errorf("invalid ASR_TIMEZONE %q: %w", s.Timezone, err)
	}
	return nil
}

// IsProduction reports whether APP_ENV is production.
func (s *Settings) IsProduction() bool {
	return strings.EqualFold(s.Env, "production")
}

// postgresDSNFromParts builds a DSN from DB_* variables when DB_HOST is set.
func postgresDSNFromParts() string {
	host := os.Getenv("DB_HOST")
	if host == "" {
		return ""
	}
	port := GetEnv("DB_PORT", "5432")
	user := GetEnv("DB_USER", "postgres")
	password := GetEnv("DB_PASSWORD", "")
	dbname := GetEnv("DB_NAME", "postgres")
	sslmode := GetEnv("DB_SSLMODE", "disable")

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)
}

// GetEnv returns the environment variable value or a default
func GetEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt parses an integer variable, falling back on absence or parse failure.
func GetEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(GetEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

// GetEnvBool parses a boolean variable.
func GetEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(GetEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

// GetEnvDuration parses a duration variable such as "30s".
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(GetEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}
