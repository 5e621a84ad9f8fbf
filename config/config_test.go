package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateEnv clears variables that would leak from the outer environment
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CI", "ENV", "DB_DSN", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME",
		"DB_SSL_MODE", "JWT_SECRET", "JWT_TTL", "REDIS_URL", "REDIS_PASSWORD", "RECIPES_LIMIT",
		"PAGE_SIZE", "S3_BUCKET_NAME", "RATE_LIMIT_MAX", "RATE_LIMIT_WINDOW",
		"CORS_ORIGINS", "MIGRATIONS_DIR", "MEDIA_DIR", "MEDIA_URL",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("SECRETS_DIR", t.TempDir())
}

func TestLoadConfig(t *testing.T) {
	isolateEnv(t)
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_USER", "foodgram")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "foodgram_test")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("REDIS_URL", "redis://localhost:6379/1")
	t.Setenv("RECIPES_LIMIT", "5")
	t.Setenv("JWT_TTL", "2h")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "db", cfg.DBHost)
	assert.Equal(t, "5433", cfg.DBPort)
	assert.Equal(t, "foodgram", cfg.DBUser)
	assert.Equal(t, "secret", cfg.DBPassword)
	assert.Equal(t, "foodgram_test", cfg.DBName)
	assert.Equal(t, "test-secret", cfg.JWTSecret)
	assert.Equal(t, "redis://localhost:6379/1", cfg.RedisURL)
	assert.Equal(t, 5, cfg.RecipesLimit)
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Contains(t, cfg.DatabaseDSN(), "dbname=foodgram_test")
}

func TestLoadConfigWithDefaults(t *testing.T) {
	isolateEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, Development, cfg.Env)
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "5432", cfg.DBPort)
	assert.Equal(t, "postgres", cfg.DBUser)
	assert.Equal(t, "disable", cfg.DBSSLMode)
	assert.Equal(t, defaultDevJWTSecret, cfg.JWTSecret)
	assert.Equal(t, 3, cfg.RecipesLimit)
	assert.Equal(t, 6, cfg.PageSize)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
}

func TestLoadConfigReadsDockerSecrets(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	t.Setenv("SECRETS_DIR", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jwt_secret"), []byte("from-file\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "db_password"), []byte("pw"), 0o600))

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, "pw", cfg.DBPassword)
}

func TestLoadConfigProductionRequiresSecrets(t *testing.T) {
	isolateEnv(t)
	t.Setenv("ENV", "production")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "DB_DSN or DB_PASSWORD")
}

func TestLoadConfigRejectsMalformedNumbers(t *testing.T) {
	isolateEnv(t)
	t.Setenv("RECIPES_LIMIT", "three")

	_, err := LoadConfig()
	require.Error(t, err)

	var verr ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, "RECIPES_LIMIT", verr.Field)
}

func TestGetEnvironment(t *testing.T) {
	t.Setenv("CI", "")
	t.Setenv("ENV", "prod")
	assert.Equal(t, Production, GetEnvironment())
	assert.Equal(t, "production", GetEnvironment().LogMode())

	t.Setenv("ENV", "")
	assert.Equal(t, Development, GetEnvironment())

	t.Setenv("CI", "true")
	assert.Equal(t, CI, GetEnvironment())
}

func TestCORSOriginsList(t *testing.T) {
	isolateEnv(t)
	t.Setenv("CORS_ORIGINS", "https://foodgram.example, ,http://localhost:3000")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://foodgram.example", "http://localhost:3000"}, cfg.CORSOrigins)
	assert.Equal(t, "migrations", cfg.MigrationsDir)
}
