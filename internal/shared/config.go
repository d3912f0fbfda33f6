package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Sync        SyncConfig        `toml:"sync"`
	Database    DatabaseConfig    `toml:"database"`
	Metrics     MetricsConfig     `toml:"metrics"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	YouTube YouTubeConfig `toml:"youtube"`
}

// SpotifyConfig contains Spotify API credentials.
//
// Acquiring the refresh token happens outside of ytmigrate.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RefreshToken string `toml:"refresh_token"`
}

// YouTubeConfig contains the YouTube Music proxy location and the ytmusicapi auth file it should use.
type YouTubeConfig struct {
	ProxyURL string `toml:"proxy_url"`
	AuthFile string `toml:"auth_file"`
}

// SyncConfig contains the knobs for a migration run.
type SyncConfig struct {
	Include        []string    `toml:"include"`
	Exclude        []string    `toml:"exclude"`
	CheckpointPath string      `toml:"checkpoint_path"`
	FailuresPath   string      `toml:"failures_path"`
	MaxCandidates  int         `toml:"max_candidates"`
	AcceptableFuzz float64     `toml:"acceptable_fuzz"`
	Batch          BatchConfig `toml:"batch"`
	Retry          RetryConfig `toml:"retry"`
}

// BatchConfig controls how resolved tracks are pushed to the target playlist.
type BatchConfig struct {
	Size             int `toml:"size"`
	PauseMS          int `toml:"pause_ms"`
	RetryPauseMS     int `toml:"retry_pause_ms"`
	SingletonPauseMS int `toml:"singleton_pause_ms"`
}

// RetryConfig controls the backoff applied around catalog searches.
type RetryConfig struct {
	Attempts    int `toml:"attempts"`
	BaseDelayMS int `toml:"base_delay_ms"`
	MaxDelayMS  int `toml:"max_delay_ms"`
}

// DatabaseConfig contains the match audit database settings. An empty path disables the audit log.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// MetricsConfig points at a node_exporter textfile. An empty path disables the export.
type MetricsConfig struct {
	Textfile string `toml:"textfile"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that both catalogs are configured well enough to start a run.
func (c *Config) Validate() error {
	sp := c.Credentials.Spotify
	if sp.ClientID == "" || sp.ClientSecret == "" {
		return fmt.Errorf("%w: spotify client_id and client_secret must be set", ErrMissingCredentials)
	}
	if sp.RefreshToken == "" {
		return fmt.Errorf("%w: spotify refresh_token must be set", ErrMissingCredentials)
	}

	yt := c.Credentials.YouTube
	if yt.ProxyURL == "" {
		return fmt.Errorf("%w: youtube proxy_url must be set", ErrMissingCredentials)
	}
	if yt.AuthFile == "" {
		return fmt.Errorf("%w: youtube auth_file must be set", ErrMissingCredentials)
	}
	if _, err := os.Stat(yt.AuthFile); err != nil {
		return fmt.Errorf("%w: youtube auth_file %s: %v", ErrInvalidCredentials, yt.AuthFile, err)
	}

	return nil
}

// Map returns the Spotify credentials in the shape expected by services.NewSpotifyService.
func (s SpotifyConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     s.ClientID,
		"client_secret": s.ClientSecret,
		"refresh_token": s.RefreshToken,
	}
}

// Millis converts a millisecond count from the config file into a [time.Duration].
func Millis(ms int) time.Duration {
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}
