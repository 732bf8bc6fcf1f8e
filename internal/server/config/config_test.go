package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetArgs(t *testing.T, args ...string) {
	t.Helper()
	orig := os.Args
	os.Args = append([]string{"testbin"}, args...)
	t.Cleanup(func() { os.Args = orig })
}

func TestLoadConfig_Defaults(t *testing.T) {
	resetArgs(t)

	cfg := LoadConfig()

	assert.Equal(t, ":8080", cfg.EndpointAddr)
	assert.Equal(t, 15*time.Minute, cfg.TokenValidityDuration)
	assert.Equal(t, 6, cfg.PasswordMinLength)
	assert.Equal(t, 64, cfg.PasswordMaxLength)
	assert.Equal(t, 20, cfg.DefaultPageSize)
	assert.False(t, cfg.SignupRequiresConfirmation)
}

func TestLoadConfig_FlagsOverrideDefaults(t *testing.T) {
	resetArgs(t, "-a", ":9090", "-t", "30", "-n", "8", "-z", "50")

	cfg := LoadConfig()

	assert.Equal(t, ":9090", cfg.EndpointAddr)
	assert.Equal(t, 30*time.Minute, cfg.TokenValidityDuration)
	assert.Equal(t, 8, cfg.PasswordMinLength)
	assert.Equal(t, 50, cfg.DefaultPageSize)
}

func TestLoadConfig_EnvOverridesDefaults(t *testing.T) {
	resetArgs(t)
	t.Setenv("IDENTITY_ADDR", ":7070")
	t.Setenv("IDENTITY_PASSWORD_MAX_LENGTH", "100")
	t.Setenv("IDENTITY_SIGNUP_REQUIRES_CONFIRMATION", "true")

	cfg := LoadConfig()

	assert.Equal(t, ":7070", cfg.EndpointAddr)
	assert.Equal(t, 100, cfg.PasswordMaxLength)
	assert.True(t, cfg.SignupRequiresConfirmation)
}

func TestLoadConfig_FlagsWinOverEnv(t *testing.T) {
	resetArgs(t, "-a", ":1111")
	t.Setenv("IDENTITY_ADDR", ":2222")

	cfg := LoadConfig()

	assert.Equal(t, ":1111", cfg.EndpointAddr)
}

func writeJSONConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "conf.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseJson_OverlaysPresentFieldsOnly(t *testing.T) {
	path := writeJSONConfig(t, `{
		"endpoint_addr": ":6060",
		"token_validity_duration": "45m",
		"default_page_size": 10
	}`)
	resetArgs(t, "-c", path)

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	assert.Equal(t, ":6060", cfg.EndpointAddr)
	assert.Equal(t, 45*time.Minute, cfg.TokenValidityDuration)
	assert.Equal(t, 10, cfg.DefaultPageSize)
	// Absent fields keep their defaults.
	assert.Equal(t, 6, cfg.PasswordMinLength)
	assert.Equal(t, "secretKey", cfg.SecretKey)
}

func TestParseJson_NoFileFlagIsNoop(t *testing.T) {
	resetArgs(t)

	cfg := &Config{}
	cfg.LoadDefaults()
	before := *cfg
	parseJson(cfg)

	assert.Equal(t, before, *cfg)
}

func TestParseJson_InvalidJSONPanics(t *testing.T) {
	path := writeJSONConfig(t, `{not json`)
	resetArgs(t, "-c", path)

	cfg := &Config{}
	cfg.LoadDefaults()
	assert.Panics(t, func() { parseJson(cfg) })
}
