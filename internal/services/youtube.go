// YouTube Music [TargetCatalog] implementation
//
// Communicates with the FastAPI proxy server (music/) running on port 8080.
// The proxy wraps the ytmusicapi Python library for YouTube Music operations.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/ytmigrate/internal/models"
	"github.com/desertthunder/ytmigrate/internal/shared"
)

const (
	defaultYTBaseURL = "http://127.0.0.1:8080"

	// ytmusicapi defaults to 25 library playlists; ask for enough to find existing ones
	ytLibraryLimit = 100
	// large enough to read a playlist in one call
	ytPlaylistLimit = 10000
)

// YouTubeArtist represents an artist in YouTube Music responses.
type YouTubeArtist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// YouTubeSearchResult is one entry of a ytmusicapi search response.
type YouTubeSearchResult struct {
	ResultType string          `json:"resultType"`
	Title      string          `json:"title"`
	Artists    []YouTubeArtist `json:"artists"`
	Duration   string          `json:"duration"`
	VideoID    string          `json:"videoId"`
	SetVideoID string          `json:"setVideoId"`
}

// YouTubeTrack represents a track in a playlist response.
type YouTubeTrack struct {
	VideoID    string          `json:"videoId"`
	SetVideoID string          `json:"setVideoId"`
	Title      string          `json:"title"`
	Artists    []YouTubeArtist `json:"artists"`
	Duration   string          `json:"duration"`
}

// YouTubeLibraryPlaylist is an entry of the user's library playlists.
type YouTubeLibraryPlaylist struct {
	PlaylistID string  `json:"playlistId"`
	Title      string  `json:"title"`
	Count      flexInt `json:"count"`
}

// YouTubePlaylist represents a playlist with its tracks.
type YouTubePlaylist struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Privacy    string         `json:"privacy"`
	TrackCount flexInt        `json:"trackCount"`
	Tracks     []YouTubeTrack `json:"tracks"`
}

// flexInt accepts counts sent either as numbers or as strings like "1,024".
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexInt(n)
	return nil
}

// YouTubeService implements [TargetCatalog] against the ytmusicapi proxy.
type YouTubeService struct {
	baseURL    string
	authFile   string
	httpClient *http.Client
}

// NewYouTubeService creates a new YouTube Music service instance.
func NewYouTubeService(baseURL string) *YouTubeService {
	if baseURL == "" {
		baseURL = defaultYTBaseURL
	}

	return &YouTubeService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube Music"
}

// Authenticate stores the authentication file path for subsequent requests.
//
// Expects credentials["auth_file"] to contain the path to browser.json or oauth.json.
func (y *YouTubeService) Authenticate(_ context.Context, credentials map[string]string) error {
	authFile := credentials["auth_file"]
	if authFile == "" {
		return fmt.Errorf("%w: missing auth_file", shared.ErrMissingCredentials)
	}

	y.authFile = authFile
	return nil
}

// doRequest sends body as JSON and returns the raw response body of a 2xx reply.
func (y *YouTubeService) doRequest(ctx context.Context, method, endpoint string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, y.baseURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if y.authFile != "" {
		req.Header.Set("X-Auth-File", y.authFile)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		var opErr *net.OpError
		if errors.As(err, &opErr) {
			return nil, fmt.Errorf("%w: youtube music proxy at %s: %v", shared.ErrServiceUnavailable, y.baseURL, err)
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, proxyError(resp.StatusCode, data)
	}
	return data, nil
}

// proxyError maps a non-2xx proxy reply to a sentinel, keeping FastAPI's "detail" message when present.
func proxyError(status int, body []byte) error {
	var errResp struct {
		Detail string `json:"detail"`
	}
	detail := fmt.Sprintf("status %d", status)
	if json.Unmarshal(body, &errResp) == nil && errResp.Detail != "" {
		detail = fmt.Sprintf("status %d: %s", status, errResp.Detail)
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: youtube music %s", shared.ErrNotAuthenticated, detail)
	case http.StatusNotFound:
		return fmt.Errorf("%w: youtube music %s", shared.ErrPlaylistNotFound, detail)
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: youtube music %s", shared.ErrServiceUnavailable, detail)
	default:
		return fmt.Errorf("%w: youtube music %s", shared.ErrAPIRequest, detail)
	}
}

func (y *YouTubeService) getJSON(ctx context.Context, endpoint string, result any) error {
	data, err := y.doRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Search queries songs and videos alike. Calls GET /api/search?q={query}&limit={limit} on the proxy.
func (y *YouTubeService) Search(ctx context.Context, query string, limit int) ([]models.Candidate, error) {
	q := url.Values{}
	q.Set("q", query)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var results []YouTubeSearchResult
	if err := y.getJSON(ctx, "/api/search?"+q.Encode(), &results); err != nil {
		return nil, err
	}

	candidates := make([]models.Candidate, len(results))
	for i, r := range results {
		candidates[i] = models.Candidate{
			Title:      r.Title,
			Artists:    artistNames(r.Artists),
			Duration:   r.Duration,
			ResultType: r.ResultType,
			VideoID:    r.VideoID,
			SetVideoID: r.SetVideoID,
		}
	}
	return candidates, nil
}

// ListOwnedPlaylists calls GET /api/library/playlists on the proxy.
func (y *YouTubeService) ListOwnedPlaylists(ctx context.Context) ([]models.OwnedPlaylist, error) {
	var lib []YouTubeLibraryPlaylist
	if err := y.getJSON(ctx, fmt.Sprintf("/api/library/playlists?limit=%d", ytLibraryLimit), &lib); err != nil {
		return nil, err
	}

	playlists := make([]models.OwnedPlaylist, 0, len(lib))
	for _, p := range lib {
		if p.PlaylistID == "" {
			continue
		}
		playlists = append(playlists, models.OwnedPlaylist{ID: p.PlaylistID, Title: p.Title, Count: int(p.Count)})
	}
	return playlists, nil
}

// CreatePlaylist calls POST /api/playlists on the proxy and returns the new playlist id.
func (y *YouTubeService) CreatePlaylist(ctx context.Context, title, description, privacy string) (string, error) {
	if privacy == "" {
		privacy = PrivacyPrivate
	}
	body := map[string]string{
		"title":          title,
		"description":    description,
		"privacy_status": privacy,
	}

	data, err := y.doRequest(ctx, http.MethodPost, "/api/playlists", body)
	if err != nil {
		return "", err
	}

	var created struct {
		PlaylistID string `json:"playlist_id"`
	}
	if err := json.Unmarshal(data, &created); err != nil {
		return "", fmt.Errorf("failed to decode create response: %w", err)
	}
	if created.PlaylistID == "" {
		return "", fmt.Errorf("%w: create playlist returned no id", shared.ErrAPIRequest)
	}
	return created.PlaylistID, nil
}

// AddItems calls POST /api/playlists/{id}/items on the proxy.
//
// The ytmusicapi response is returned untouched for the batch parser to classify.
func (y *YouTubeService) AddItems(ctx context.Context, playlistID string, ids []string) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("/api/playlists/%s/items", url.PathEscape(playlistID))
	data, err := y.doRequest(ctx, http.MethodPost, endpoint, map[string]any{"video_ids": ids})
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

// Playlist calls GET /api/playlists/{id} on the proxy.
func (y *YouTubeService) Playlist(ctx context.Context, playlistID string) (*YouTubePlaylist, error) {
	var pl YouTubePlaylist
	endpoint := fmt.Sprintf("/api/playlists/%s?limit=%d", url.PathEscape(playlistID), ytPlaylistLimit)
	if err := y.getJSON(ctx, endpoint, &pl); err != nil {
		return nil, err
	}
	return &pl, nil
}

// PlaylistItems returns the video ids of a playlist in order.
func (y *YouTubeService) PlaylistItems(ctx context.Context, playlistID string) ([]string, error) {
	pl, err := y.Playlist(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(pl.Tracks))
	for _, t := range pl.Tracks {
		if t.VideoID != "" {
			ids = append(ids, t.VideoID)
		}
	}
	return ids, nil
}

func artistNames(artists []YouTubeArtist) []string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		names = append(names, a.Name)
	}
	return names
}
