package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv_OverlaysSetVariables(t *testing.T) {
	t.Setenv("DATABASE_DSN", "postgres://env")
	t.Setenv("ACCESS_TOKEN_TTL", "90s")
	t.Setenv("AUTH_ALLOW_LIST", "/public/**,/healthz")
	t.Setenv("BCRYPT_COST", "6")

	c := &Config{}
	c.LoadDefaults()
	require.NoError(t, parseEnv(c))

	assert.Equal(t, "postgres://env", c.DatabaseDSN)
	assert.Equal(t, 90*time.Second, c.AccessTokenValidityDuration)
	assert.Equal(t, []string{"/public/**", "/healthz"}, c.AllowList)
	assert.Equal(t, 6, c.BcryptCost)
	assert.Equal(t, ":8080", c.HTTPAddr, "unset variables keep defaults")
}

func TestParseEnv_DotenvFile(t *testing.T) {
	// godotenv writes into the process environment; register cleanup first
	t.Setenv("GOOGLE_CLIENT_ID", "")
	require.NoError(t, os.Unsetenv("GOOGLE_CLIENT_ID"))

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("GOOGLE_CLIENT_ID=client-123.apps.googleusercontent.com\n"), 0o600))

	c := &Config{}
	require.NoError(t, parseEnv(c, filepath.Join(dir, "missing.env"), path))

	assert.Equal(t, "client-123.apps.googleusercontent.com", c.GoogleClientID)
}

func TestParseEnv_BadValue(t *testing.T) {
	t.Setenv("BCRYPT_COST", "lots")

	c := &Config{}
	err := parseEnv(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env")
}
