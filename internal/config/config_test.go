package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func newFlags(t *testing.T, args ...string) (*Options, *pflag.FlagSet) {
	t.Helper()
	o := Default()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o.RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return o, fs
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestResolve_Defaults(t *testing.T) {
	o, fs := newFlags(t)
	require.NoError(t, o.Resolve(fs, envMap(nil)))

	assert.Equal(t, "http://localhost:8000/api", o.BaseURL)
	assert.Equal(t, StoreFile, o.TokenStore)
	assert.Equal(t, DefaultTokenPath(StoreFile), o.TokenPath)
	assert.Equal(t, 5*time.Second, o.PollInterval)
	assert.Equal(t, 3*time.Second, o.ToastDuration)
	assert.Equal(t, 10*time.Second, o.RequestTimeout)
	assert.Equal(t, "warn", o.LogLevel)
}

func TestResolve_ConfigFiles(t *testing.T) {
	jsonPath := writeFile(t, "mycraft.json", `{
		"api_url": "https://json.example/api",
		"token_store": "sqlite",
		"poll_interval": "2s"
	}`)
	yamlPath := writeFile(t, "mycraft.yaml", `
api_url: https://yaml.example/api
token_store: memory
request_timeout: 30s
log_level: debug
`)

	tests := []struct {
		name  string
		path  string
		check func(t *testing.T, o *Options)
	}{
		{"json", jsonPath, func(t *testing.T, o *Options) {
			assert.Equal(t, "https://json.example/api", o.BaseURL)
			assert.Equal(t, StoreSQLite, o.TokenStore)
			assert.Equal(t, DefaultTokenPath(StoreSQLite), o.TokenPath)
			assert.Equal(t, 2*time.Second, o.PollInterval)
		}},
		{"yaml", yamlPath, func(t *testing.T, o *Options) {
			assert.Equal(t, "https://yaml.example/api", o.BaseURL)
			assert.Equal(t, StoreMemory, o.TokenStore)
			assert.Equal(t, 30*time.Second, o.RequestTimeout)
			assert.Equal(t, "debug", o.LogLevel)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, fs := newFlags(t, "--config", tt.path)
			require.NoError(t, o.Resolve(fs, envMap(nil)))
			tt.check(t, o)
		})
	}
}

func TestResolve_ConfigFromEnv(t *testing.T) {
	path := writeFile(t, "c.json", `{"api_url": "https://env-file.example/api"}`)
	o, fs := newFlags(t)
	require.NoError(t, o.Resolve(fs, envMap(map[string]string{"CONFIG": path})))
	assert.Equal(t, "https://env-file.example/api", o.BaseURL)
	assert.Equal(t, path, o.Config)
}

func TestResolve_Precedence(t *testing.T) {
	path := writeFile(t, "c.json", `{"api_url": "https://file.example/api", "log_level": "error", "poll_interval": "7s"}`)
	env := envMap(map[string]string{
		"MYCRAFT_API_URL":       "https://env.example/api",
		"MYCRAFT_POLL_INTERVAL": "9s",
		"MYCRAFT_TOKEN_STORE":   "memory",
	})

	o, fs := newFlags(t, "-c", path, "--api-url", "https://flag.example/api")
	require.NoError(t, o.Resolve(fs, env))

	assert.Equal(t, "https://flag.example/api", o.BaseURL, "flag beats env and file")
	assert.Equal(t, 9*time.Second, o.PollInterval, "env beats file")
	assert.Equal(t, "error", o.LogLevel, "file beats default")
	assert.Equal(t, StoreMemory, o.TokenStore)
}

func TestResolve_UnsetFlagDoesNotMaskEnv(t *testing.T) {
	o, fs := newFlags(t, "--log-level", "info")
	require.NoError(t, o.Resolve(fs, envMap(map[string]string{"MYCRAFT_TOKEN_PATH": "/tmp/t.json"})))
	assert.Equal(t, "/tmp/t.json", o.TokenPath)
	assert.Equal(t, "info", o.LogLevel)
}

func TestResolve_Errors(t *testing.T) {
	badJSON := writeFile(t, "bad.json", `{`)
	badDuration := writeFile(t, "bad.yaml", "poll_interval: soon\n")

	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{"missing file", []string{"-c", filepath.Join(t.TempDir(), "none.json")}, nil},
		{"malformed json", []string{"-c", badJSON}, nil},
		{"bad file duration", []string{"-c", badDuration}, nil},
		{"bad env duration", nil, map[string]string{"MYCRAFT_POLL_INTERVAL": "often"}},
		{"bad store", []string{"--token-store", "cloud"}, nil},
		{"bad url", []string{"--api-url", "localhost:8000"}, nil},
		{"zero interval", []string{"--poll-interval", "0s"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, fs := newFlags(t, tt.args...)
			assert.Error(t, o.Resolve(fs, envMap(tt.env)))
		})
	}
}

func TestResolve_NilFlagSet(t *testing.T) {
	o := Default()
	require.NoError(t, o.Resolve(nil, envMap(map[string]string{"MYCRAFT_API_URL": "https://x.example/api"})))
	assert.Equal(t, "https://x.example/api", o.BaseURL)
}

func TestLoadDotEnv(t *testing.T) {
	const key = "MYCRAFT_DOTENV_TEST_URL"
	t.Cleanup(func() { os.Unsetenv(key) })

	path := writeFile(t, ".env", key+"=https://dotenv.example/api\n")
	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")))
	assert.Equal(t, "https://dotenv.example/api", os.Getenv(key))
}

func TestDefaultTokenPath(t *testing.T) {
	assert.Equal(t, "token.json", filepath.Base(DefaultTokenPath(StoreFile)))
	assert.Equal(t, "mycraft.db", filepath.Base(DefaultTokenPath(StoreSQLite)))
	assert.Empty(t, DefaultTokenPath(StoreMemory))
}
