package shared

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnv reads .env style files into the process environment. Missing files are not an error.
//
// With no paths, ".env" in the working directory is used.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	existing := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// SaveEnvValue sets key in the .env file at path, keeping its other entries. The file is created if needed.
func SaveEnvValue(path, key, value string) error {
	values := map[string]string{}
	if _, err := os.Stat(path); err == nil {
		existing, err := godotenv.Read(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		values = existing
	}

	values[key] = value
	if err := godotenv.Write(values, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return os.Chmod(path, 0600)
}

// ApplyEnv overlays environment variables on top of values read from the config file.
func (c *Config) ApplyEnv() {
	setString(&c.Credentials.Spotify.ClientID, "SPOTIFY_CLIENT_ID")
	setString(&c.Credentials.Spotify.ClientSecret, "SPOTIFY_CLIENT_SECRET")
	setString(&c.Credentials.Spotify.RefreshToken, "SPOTIFY_REFRESH_TOKEN")
	setString(&c.Credentials.YouTube.ProxyURL, "YTMUSIC_PROXY_URL")
	setString(&c.Credentials.YouTube.AuthFile, "YTMUSIC_AUTH_FILE")
	setString(&c.Sync.CheckpointPath, "YTMIGRATE_CHECKPOINT")
	setString(&c.Log.Level, "YTMIGRATE_LOG_LEVEL")

	if v, ok := os.LookupEnv("INCLUDE_PLAYLISTS"); ok {
		c.Sync.Include = SplitList(v)
	}
	if v, ok := os.LookupEnv("EXCLUDE_PLAYLISTS"); ok {
		c.Sync.Exclude = SplitList(v)
	}
}

// SplitList splits a comma-separated list, trimming entries and dropping empty ones.
func SplitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
