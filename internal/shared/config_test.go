package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joho/godotenv"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./ytmigrate.db" {
			t.Errorf("expected database path ./ytmigrate.db, got %s", config.Database.Path)
		}
		if config.Credentials.YouTube.ProxyURL != "http://127.0.0.1:8080" {
			t.Errorf("expected youtube proxy URL http://127.0.0.1:8080, got %s", config.Credentials.YouTube.ProxyURL)
		}
		if config.Sync.CheckpointPath != "transfer_state.json" {
			t.Errorf("expected checkpoint path transfer_state.json, got %s", config.Sync.CheckpointPath)
		}
		if config.Sync.MaxCandidates != 5 {
			t.Errorf("expected 5 candidates, got %d", config.Sync.MaxCandidates)
		}
		if config.Sync.AcceptableFuzz != 0.34 {
			t.Errorf("expected fuzz 0.34, got %v", config.Sync.AcceptableFuzz)
		}
		if config.Sync.Batch.Size != 50 {
			t.Errorf("expected batch size 50, got %d", config.Sync.Batch.Size)
		}
		if config.Sync.Retry.Attempts != 4 {
			t.Errorf("expected 4 attempts, got %d", config.Sync.Retry.Attempts)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}
		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		testConfig := `[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"
refresh_token = "test_refresh"

[sync]
include = ["Road Trip"]
max_candidates = 3

[sync.batch]
size = 25
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Credentials.Spotify.ClientID != "test_client_id" {
			t.Errorf("expected spotify client_id test_client_id, got %s", config.Credentials.Spotify.ClientID)
		}
		if len(config.Sync.Include) != 1 || config.Sync.Include[0] != "Road Trip" {
			t.Errorf("unexpected include list %v", config.Sync.Include)
		}
		if config.Sync.MaxCandidates != 3 {
			t.Errorf("expected 3 candidates, got %d", config.Sync.MaxCandidates)
		}
		if config.Sync.Batch.Size != 25 {
			t.Errorf("expected batch size 25, got %d", config.Sync.Batch.Size)
		}
		if config.Sync.Batch.PauseMS != 200 {
			t.Errorf("unset keys should keep defaults, got pause %d", config.Sync.Batch.PauseMS)
		}
	})

	t.Run("LoadConfig invalid toml", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[sync\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		authFile := filepath.Join(t.TempDir(), "browser.json")
		if err := os.WriteFile(authFile, []byte("{}"), 0600); err != nil {
			t.Fatalf("failed to write auth file: %v", err)
		}

		valid := func() *Config {
			c := DefaultConfig()
			c.Credentials.Spotify = SpotifyConfig{ClientID: "id", ClientSecret: "secret", RefreshToken: "refresh"}
			c.Credentials.YouTube.AuthFile = authFile
			return c
		}

		if err := valid().Validate(); err != nil {
			t.Errorf("expected valid config, got %v", err)
		}

		tests := []struct {
			name   string
			mutate func(*Config)
			want   error
		}{
			{"missing client id", func(c *Config) { c.Credentials.Spotify.ClientID = "" }, ErrMissingCredentials},
			{"missing refresh token", func(c *Config) { c.Credentials.Spotify.RefreshToken = "" }, ErrMissingCredentials},
			{"missing proxy", func(c *Config) { c.Credentials.YouTube.ProxyURL = "" }, ErrMissingCredentials},
			{"missing auth file", func(c *Config) { c.Credentials.YouTube.AuthFile = "" }, ErrMissingCredentials},
			{"unreadable auth file", func(c *Config) { c.Credentials.YouTube.AuthFile = authFile + ".missing" }, ErrInvalidCredentials},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				c := valid()
				tt.mutate(c)
				if err := c.Validate(); !errors.Is(err, tt.want) {
					t.Errorf("Validate() = %v, want %v", err, tt.want)
				}
			})
		}
	})

	t.Run("Millis", func(t *testing.T) {
		if got := Millis(200); got != 200*time.Millisecond {
			t.Errorf("Millis(200) = %v", got)
		}
		if got := Millis(-5); got != 0 {
			t.Errorf("Millis(-5) = %v, want 0", got)
		}
	})
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("SPOTIFY_CLIENT_ID", "env-id")
	t.Setenv("YTMUSIC_AUTH_FILE", "/tmp/browser.json")
	t.Setenv("INCLUDE_PLAYLISTS", " Road Trip , ,Chill ")
	t.Setenv("EXCLUDE_PLAYLISTS", "")
	t.Setenv("YTMIGRATE_LOG_LEVEL", "debug")

	c := DefaultConfig()
	c.Credentials.Spotify.ClientSecret = "from-file"
	c.Sync.Exclude = []string{"Old"}
	c.ApplyEnv()

	if c.Credentials.Spotify.ClientID != "env-id" {
		t.Errorf("client id = %q, want env-id", c.Credentials.Spotify.ClientID)
	}
	if c.Credentials.Spotify.ClientSecret != "from-file" {
		t.Errorf("unset env var should not clear file value, got %q", c.Credentials.Spotify.ClientSecret)
	}
	if c.Credentials.YouTube.AuthFile != "/tmp/browser.json" {
		t.Errorf("auth file = %q", c.Credentials.YouTube.AuthFile)
	}
	if len(c.Sync.Include) != 2 || c.Sync.Include[0] != "Road Trip" || c.Sync.Include[1] != "Chill" {
		t.Errorf("include = %v", c.Sync.Include)
	}
	if len(c.Sync.Exclude) != 0 {
		t.Errorf("an empty EXCLUDE_PLAYLISTS should clear the list, got %v", c.Sync.Exclude)
	}
	if c.Log.Level != "debug" {
		t.Errorf("log level = %q", c.Log.Level)
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("YTMIGRATE_TEST_VALUE=from-dotenv\n"), 0644); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("YTMIGRATE_TEST_VALUE") })

	if err := LoadEnv(filepath.Join(dir, "missing.env"), envPath); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}
	if got := os.Getenv("YTMIGRATE_TEST_VALUE"); got != "from-dotenv" {
		t.Errorf("YTMIGRATE_TEST_VALUE = %q, want from-dotenv", got)
	}

	if err := LoadEnv(filepath.Join(dir, "nope.env")); err != nil {
		t.Errorf("missing files should be ignored, got %v", err)
	}
}

func TestSaveEnvValue(t *testing.T) {
	t.Run("creates the file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")

		if err := SaveEnvValue(path, "SPOTIFY_REFRESH_TOKEN", "rt-1"); err != nil {
			t.Fatalf("SaveEnvValue() error = %v", err)
		}
		values, err := godotenv.Read(path)
		if err != nil {
			t.Fatalf("failed to read env file: %v", err)
		}
		if values["SPOTIFY_REFRESH_TOKEN"] != "rt-1" {
			t.Errorf("unexpected values %v", values)
		}
	})

	t.Run("keeps other entries and replaces the key", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(path, []byte("SPOTIFY_CLIENT_ID=abc\nSPOTIFY_REFRESH_TOKEN=old\n"), 0600); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}

		if err := SaveEnvValue(path, "SPOTIFY_REFRESH_TOKEN", "new"); err != nil {
			t.Fatalf("SaveEnvValue() error = %v", err)
		}
		values, err := godotenv.Read(path)
		if err != nil {
			t.Fatalf("failed to read env file: %v", err)
		}
		if values["SPOTIFY_CLIENT_ID"] != "abc" || values["SPOTIFY_REFRESH_TOKEN"] != "new" {
			t.Errorf("unexpected values %v", values)
		}
	})
}
