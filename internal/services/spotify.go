// Spotify Web API implementation of [SourceCatalog]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/desertthunder/ytmigrate/internal/models"
	"github.com/desertthunder/ytmigrate/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	spotifyPlaylistPage = 50
	spotifyTrackPage    = 100
)

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifyTrack represents a Spotify track. ID is null for local files.
type SpotifyTrack struct {
	ID         *string         `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      *SpotifyAlbum   `json:"album"`
	DurationMS int             `json:"duration_ms"`
	IsLocal    bool            `json:"is_local"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyTrackItem is an entry of a saved-tracks or playlist-items page. Track is null for removed content.
type SpotifyTrackItem struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Tracks      struct {
		Total int `json:"total"`
	} `json:"tracks"`
}

// spotifyPage is the paging envelope shared by every list endpoint.
type spotifyPage[T any] struct {
	Items []T     `json:"items"`
	Total int     `json:"total"`
	Next  *string `json:"next"`
}

// SpotifyService implements [SourceCatalog] for the Spotify Web API.
//
// Requests go through an [oauth2] client built from a refresh token, so access tokens are renewed transparently.
type SpotifyService struct {
	config         *oauth2.Config
	token          *oauth2.Token
	httpClient     *http.Client
	baseURL        string
	credentials    map[string]string
	onTokenRefresh func(*oauth2.Token)
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 client credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID := credentials["client_id"]
	if clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}
	clientSecret := credentials["client_secret"]
	if clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes: []string{
			"playlist-read-private",
			"playlist-read-collaborative",
			"user-library-read",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:      config,
		baseURL:     spotifyBaseURL,
		credentials: credentials,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// OAuthConfig returns a copy of the client configuration pointing at redirectURL.
func (s *SpotifyService) OAuthConfig(redirectURL string) *oauth2.Config {
	cfg := *s.config
	cfg.Scopes = append([]string(nil), s.config.Scopes...)
	cfg.RedirectURL = redirectURL
	return &cfg
}

// SetTokenRefreshCallback registers fn to be called whenever a new access token is obtained.
// Spotify may rotate the refresh token at the same time.
func (s *SpotifyService) SetTokenRefreshCallback(fn func(*oauth2.Token)) {
	s.onTokenRefresh = fn
}

// Authenticate builds the HTTP client from a "refresh_token" (renewed as needed) or a fixed "access_token".
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	switch {
	case credentials["refresh_token"] != "":
		s.token = &oauth2.Token{RefreshToken: credentials["refresh_token"]}
	case credentials["access_token"] != "":
		s.token = &oauth2.Token{AccessToken: credentials["access_token"], TokenType: "Bearer"}
	default:
		return fmt.Errorf("%w: missing refresh_token or access_token", shared.ErrMissingCredentials)
	}

	source := &refreshableTokenSource{source: s.config.TokenSource(ctx, s.token), callback: s.onTokenRefresh}
	s.httpClient = oauth2.NewClient(ctx, source)
	return nil
}

// refreshableTokenSource reports every token that differs from the last one it handed out.
type refreshableTokenSource struct {
	source   oauth2.TokenSource
	callback func(*oauth2.Token)

	mu   sync.Mutex
	last string
}

func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := r.source.Token()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	changed := token.AccessToken != r.last
	r.last = token.AccessToken
	r.mu.Unlock()

	if changed && r.callback != nil {
		r.callback(token)
	}
	return token, nil
}

// doRequest performs an authenticated GET. endpoint is either a path below the API root or an absolute "next" URL.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, result any) error {
	if s.httpClient == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	apiURL := endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		apiURL = s.baseURL + endpoint
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return fmt.Errorf("%w: spotify token refresh: %v", shared.ErrAuthFailed, retrieveErr)
		}
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: spotify returned 401 for %s", shared.ErrTokenExpired, req.URL.Path)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, req.URL.Path)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: spotify status %d for %s", shared.ErrAPIRequest, resp.StatusCode, req.URL.Path)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// paginate follows "next" links from endpoint, handing each page's items to fn.
func paginate[T any](ctx context.Context, s *SpotifyService, endpoint string, fn func([]T)) error {
	next := endpoint
	for next != "" {
		var page spotifyPage[T]
		if err := s.doRequest(ctx, next, &page); err != nil {
			return err
		}
		fn(page.Items)

		next = ""
		if page.Next != nil {
			next = *page.Next
		}
	}
	return nil
}

// CurrentUser retrieves the authenticated user's profile.
func (s *SpotifyService) CurrentUser(ctx context.Context) (*models.User, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, "/me", &user); err != nil {
		return nil, err
	}
	return &models.User{ID: user.ID, DisplayName: user.DisplayName}, nil
}

// ListPlaylists retrieves all playlists of the authenticated user.
func (s *SpotifyService) ListPlaylists(ctx context.Context) ([]models.PlaylistDescriptor, error) {
	playlists := []models.PlaylistDescriptor{}
	err := paginate(ctx, s, fmt.Sprintf("/me/playlists?limit=%d", spotifyPlaylistPage), func(items []SpotifySimplePlaylist) {
		for _, p := range items {
			playlists = append(playlists, models.PlaylistDescriptor{
				ID:          p.ID,
				Name:        p.Name,
				Description: p.Description,
				TrackCount:  p.Tracks.Total,
			})
		}
	})
	if err != nil {
		return nil, err
	}
	return playlists, nil
}

// ListLikedTracks retrieves the user's saved tracks.
func (s *SpotifyService) ListLikedTracks(ctx context.Context) ([]models.SourceTrack, error) {
	return s.listTracks(ctx, fmt.Sprintf("/me/tracks?limit=%d", spotifyPlaylistPage))
}

// ListPlaylistTracks retrieves the tracks of a playlist. Episodes are excluded.
func (s *SpotifyService) ListPlaylistTracks(ctx context.Context, playlistID string) ([]models.SourceTrack, error) {
	q := url.Values{}
	q.Set("limit", fmt.Sprint(spotifyTrackPage))
	q.Set("additional_types", "track")
	return s.listTracks(ctx, fmt.Sprintf("/playlists/%s/tracks?%s", url.PathEscape(playlistID), q.Encode()))
}

// listTracks converts every page of items, skipping removed content and local files.
func (s *SpotifyService) listTracks(ctx context.Context, endpoint string) ([]models.SourceTrack, error) {
	tracks := []models.SourceTrack{}
	err := paginate(ctx, s, endpoint, func(items []SpotifyTrackItem) {
		for _, it := range items {
			if t, ok := it.Track.toSource(); ok {
				tracks = append(tracks, t)
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return tracks, nil
}

func (t *SpotifyTrack) toSource() (models.SourceTrack, bool) {
	if t == nil || t.IsLocal || t.ID == nil || *t.ID == "" {
		return models.SourceTrack{}, false
	}

	src := models.SourceTrack{
		ID:         *t.ID,
		Name:       t.Name,
		Artists:    make([]string, 0, len(t.Artists)),
		DurationMS: t.DurationMS,
	}
	for _, a := range t.Artists {
		src.Artists = append(src.Artists, a.Name)
	}
	if t.Album != nil {
		src.Album = t.Album.Name
	}
	return src, true
}
