package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsDefaults(t *testing.T) {
	for _, key := range []string{"DB_DRIVER", "STORAGE_BACKEND", "SERVER_PORT", "MINIO_ENDPOINT", "REDIS_ADDR", "DB_HOST", "DATABASE_URL", "ASR_TIMEZONE"} {
		t.Setenv(key, "")
	}

	s := LoadSettings()
	assert.Equal(t, "sqlite", s.Database.Driver)
	assert.Equal(t, "minio", s.Storage.Backend)
	assert.Equal(t, "localhost:9000", s.Storage.MinioEndpoint)
	assert.Equal(t, "minioadmin", s.Storage.MinioAccessKey)
	assert.Equal(t, int64(DefaultMaxAudioBytes), s.Storage.MaxBytes)
	assert.Equal(t, DefaultFetchTimeout, s.Storage.Timeout)
	assert.Equal(t, "0.0.0.0:8013", s.Server.Addr())
	assert.Equal(t, DefaultTimezone, s.Timezone)
	assert.False(t, s.Redis.Enabled())
	assert.Empty(t, s.Database.DSN)
	require.NoError(t, s.Validate())
}

func TestLoadSettingsFromEnvironment(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("STORAGE_BACKEND", "s3")
	t.Setenv("STORAGE_BUCKET", "audio")
	t.Setenv("STORAGE_TIMEOUT", "15s")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("MINIO_USE_SSL", "true")

	s := LoadSettings()
	assert.Equal(t, "host=db.internal port=5432 user=postgres password=secret dbname=postgres sslmode=disable", s.Database.DSN)
	assert.Equal(t, "s3", s.Storage.Backend)
	assert.Equal(t, "audio", s.Storage.Bucket)
	assert.Equal(t, 15*time.Second, s.Storage.Timeout)
	assert.True(t, s.Storage.MinioUseSSL)
	assert.True(t, s.Redis.Enabled())
	require.NoError(t, s.Validate())
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"unknown driver", func(s *Settings) { s.Database.Driver = "mysql" }},
		{"postgres without dsn", func(s *Settings) { s.Database.Driver = "postgres"; s.Database.DSN = "" }},
		{"unknown backend", func(s *Settings) { s.Storage.Backend = "gcs" }},
		{"missing bucket", func(s *Settings) { s.Storage.Bucket = "" }},
		{"bad port", func(s *Settings) { s.Server.Port = "http" }},
		{"bad timezone", func(s *Settings) { s.Timezone = "Mars/Olympus" }},
		{"zero timeout", func(s *Settings) { s.Storage.Timeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Settings{
				Timezone: DefaultTimezone,
				Server:   ServerSettings{Host: "localhost", Port: "8013"},
				Database: DatabaseSettings{Driver: "sqlite", SQLitePath: "asr.db"},
				Storage: StorageSettings{
					Backend: "minio", Bucket: "b", MinioEndpoint: "localhost:9000",
					MaxBytes: 1, Timeout: time.Second,
				},
			}
			require.NoError(t, s.Validate())
			tt.mutate(s)
			assert.Error(t, s.Validate())
		})
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("ASR_TEST_INT", "42")
	t.Setenv("ASR_TEST_BAD_INT", "many")
	t.Setenv("ASR_TEST_BOOL", "1")
	t.Setenv("ASR_TEST_DURATION", "250ms")

	assert.Equal(t, 42, GetEnvInt("ASR_TEST_INT", 1))
	assert.Equal(t, 1, GetEnvInt("ASR_TEST_BAD_INT", 1))
	assert.True(t, GetEnvBool("ASR_TEST_BOOL", false))
	assert.Equal(t, 250*time.Millisecond, GetEnvDuration("ASR_TEST_DURATION", time.Second))
	assert.Equal(t, "fallback", GetEnv("ASR_TEST_MISSING", "fallback"))
}

func TestCredentialStatus(t *testing.T) {
	for _, names := range ProviderCredentialEnv {
		for _, name := range names {
			t.Setenv(name, "")
		}
	}
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("GOOGLE_API_KEY", "AIza-test")

	status := CredentialStatus()
	assert.True(t, status["groq"])
	assert.True(t, status["gemini"])
	assert.False(t, status["azure"])
	assert.Equal(t, []string{"gemini", "groq"}, ConfiguredProviders())
}

func TestValidationHelpers(t *testing.T) {
	assert.NoError(t, ValidateClock("09:00", "window_end"))
	assert.Error(t, ValidateClock("9am", "window_end"))
	assert.NoError(t, ValidatePort("8013", "server"))
	assert.Error(t, ValidatePort("70000", "server"))
	assert.Error(t, ValidateAttempts(0, "fetch"))
	assert.NoError(t, ValidateProviderConfig(time.Minute, 2, 2000, "groq"))
	assert.Error(t, ValidateProviderConfig(time.Minute, -1, 2000, "groq"))
	assert.Error(t, ValidateURL("api.groq.com", "groq"))
}

func TestGetProjectRoot(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module x\n"), 0644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	got, err := GetProjectRoot()
	require.NoError(t, err)
	want, _ := filepath.EvalSymlinks(root)
	gotEval, _ := filepath.EvalSymlinks(got)
	assert.Equal(t, want, gotEval)
}
