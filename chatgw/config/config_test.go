package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func requiredVars() map[string]string {
	return map[string]string{
		EnvAPIKey:      "XYZ",
		EnvOllamaHost:  "http://x:1234/",
		EnvOllamaModel: "mistral",
		EnvAPIURL:      "http://127.0.0.1:8000/api",
	}
}

func TestLoad_RequiredAndDefaults(t *testing.T) {
	cfg, err := load(env(requiredVars()), "", false)
	require.NoError(t, err)

	assert.Equal(t, "XYZ", cfg.APIKey)
	assert.Equal(t, "http://x:1234", cfg.OllamaHost)
	assert.Equal(t, "mistral", cfg.OllamaModel)
	assert.Equal(t, "http://127.0.0.1:8000/api", cfg.APIURL)

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, ":8000", cfg.Addr())
	assert.Equal(t, 5*time.Second, cfg.PingTimeout)
	assert.Equal(t, 60*time.Second, cfg.ChatTimeout)
	assert.Equal(t, 0.2, cfg.DefaultTemperature)
	assert.Zero(t, cfg.RateLimitRPS)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoad_MissingRequired(t *testing.T) {
	vars := requiredVars()
	delete(vars, EnvAPIKey)
	vars[EnvOllamaModel] = "   "

	_, err := load(env(vars), "", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingRequired)

	var missing *MissingEnvError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{EnvAPIKey, EnvOllamaModel}, missing.Names)
	assert.Contains(t, err.Error(), "APP_API_KEY")
}

func TestLoad_EnvOverrides(t *testing.T) {
	vars := requiredVars()
	vars["PORT"] = "9090"
	vars["OLLAMA_CHAT_TIMEOUT"] = "120"
	vars["OLLAMA_PING_TIMEOUT"] = "1500ms"
	vars["DEFAULT_TEMPERATURE"] = "0.7"
	vars["RATE_LIMIT_RPS"] = "2.5"
	vars["RATE_LIMIT_BURST"] = "10"
	vars["CORS_ALLOWED_ORIGINS"] = "http://a.test, http://b.test,"

	cfg, err := load(env(vars), "", false)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 120*time.Second, cfg.ChatTimeout)
	assert.Equal(t, 1500*time.Millisecond, cfg.PingTimeout)
	assert.Equal(t, 0.7, cfg.DefaultTemperature)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.Equal(t, 10, cfg.RateLimitBurst)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"temperature not a number", "DEFAULT_TEMPERATURE", "warm"},
		{"temperature out of range", "DEFAULT_TEMPERATURE", "1.5"},
		{"bad timeout", "OLLAMA_CHAT_TIMEOUT", "soon"},
		{"zero timeout", "OLLAMA_PING_TIMEOUT", "0"},
		{"negative rps", "RATE_LIMIT_RPS", "-1"},
		{"host without scheme", EnvOllamaHost, "localhost:11434"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vars := requiredVars()
			vars[tt.key] = tt.val
			_, err := load(env(vars), "", false)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidValue)
		})
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatgw.yaml")
	content := `
port: "7000"
log_dir: /tmp/chatgw-logs
default_temperature: 0.4
cors_allowed_origins: ["http://ui.local"]
ollama:
  ping_timeout: 2s
  chat_timeout: 90s
rate_limit:
  rps: 1
  burst: 3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	vars := requiredVars()
	vars["PORT"] = "7001"

	cfg, err := load(env(vars), path, true)
	require.NoError(t, err)
	assert.Equal(t, "7001", cfg.Port, "environment wins over file")
	assert.Equal(t, "/tmp/chatgw-logs", cfg.LogDir)
	assert.Equal(t, 0.4, cfg.DefaultTemperature)
	assert.Equal(t, []string{"http://ui.local"}, cfg.CORSOrigins)
	assert.Equal(t, 2*time.Second, cfg.PingTimeout)
	assert.Equal(t, 90*time.Second, cfg.ChatTimeout)
	assert.Equal(t, 1.0, cfg.RateLimitRPS)
	assert.Equal(t, 3, cfg.RateLimitBurst)
}

func TestLoad_YAMLFileErrors(t *testing.T) {
	t.Run("explicit file must exist", func(t *testing.T) {
		_, err := load(env(requiredVars()), filepath.Join(t.TempDir(), "nope.yaml"), true)
		require.Error(t, err)
	})

	t.Run("default file may be absent", func(t *testing.T) {
		_, err := load(env(requiredVars()), filepath.Join(t.TempDir(), "nope.yaml"), false)
		require.NoError(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("port: [unclosed"), 0o600))
		_, err := load(env(requiredVars()), path, true)
		assert.ErrorIs(t, err, ErrInvalidValue)
	})
}

func TestLoadConfig_FromProcessEnv(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	for k, v := range requiredVars() {
		t.Setenv(k, v)
	}
	t.Setenv(EnvConfigFile, "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "mistral", cfg.OllamaModel)
}
