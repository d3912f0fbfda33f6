// package services defines the catalog interfaces the sync engine consumes
//
// Spotify (source), YouTube Music via proxy (target)
package services

import (
	"context"
	"encoding/json"

	"github.com/desertthunder/ytmigrate/internal/models"
	"golang.org/x/oauth2"
)

// Service is implemented by every catalog client.
type Service interface {
	// Authenticate prepares the client from a credentials map.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// Name returns the name of the service (e.g., "Spotify", "YouTube Music")
	Name() string
}

// SourceCatalog is the library being migrated from. Listing methods page through the whole collection.
type SourceCatalog interface {
	Service

	// CurrentUser returns the account the client is authenticated as.
	CurrentUser(ctx context.Context) (*models.User, error)

	// ListPlaylists returns every playlist followed or owned by the user.
	ListPlaylists(ctx context.Context) ([]models.PlaylistDescriptor, error)

	// ListLikedTracks returns the user's saved tracks.
	ListLikedTracks(ctx context.Context) ([]models.SourceTrack, error)

	// ListPlaylistTracks returns the tracks of one playlist.
	ListPlaylistTracks(ctx context.Context, playlistID string) ([]models.SourceTrack, error)
}

// OAuthService is implemented by catalogs that can run an authorization code flow.
type OAuthService interface {
	// OAuthConfig returns the client configuration with redirectURL as the callback.
	OAuthConfig(redirectURL string) *oauth2.Config
}

// TargetCatalog is the library being migrated to.
type TargetCatalog interface {
	Service

	// Search returns at most limit ranked results for query.
	Search(ctx context.Context, query string, limit int) ([]models.Candidate, error)

	// ListOwnedPlaylists returns the playlists in the user's library.
	ListOwnedPlaylists(ctx context.Context) ([]models.OwnedPlaylist, error)

	// CreatePlaylist creates a playlist and returns its id.
	CreatePlaylist(ctx context.Context, title, description, privacy string) (string, error)

	// AddItems appends video ids to a playlist and returns the catalog's raw response.
	AddItems(ctx context.Context, playlistID string, ids []string) (json.RawMessage, error)

	// PlaylistItems returns the video ids currently in a playlist.
	PlaylistItems(ctx context.Context, playlistID string) ([]string, error)
}

const (
	PrivacyPrivate = "PRIVATE"
	PrivacyPublic  = "PUBLIC"
)
