// package testing contains shared testing utilities
package testing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/desertthunder/ytmigrate/internal/models"
)

// FakeSource is a test double for services.SourceCatalog backed by in-memory playlists.
type FakeSource struct {
	User      models.User
	Playlists []models.PlaylistDescriptor
	Tracks    map[string][]models.SourceTrack // by playlist id
	Liked     []models.SourceTrack

	ListErr   error
	TracksErr error

	PlaylistCalls int
	TrackCalls    map[string]int
	LikedCalls    int
}

func (f *FakeSource) Name() string { return "fake-spotify" }

func (f *FakeSource) Authenticate(ctx context.Context, credentials map[string]string) error {
	return nil
}

func (f *FakeSource) CurrentUser(ctx context.Context) (*models.User, error) {
	u := f.User
	if u.ID == "" {
		u = models.User{ID: "user-1", DisplayName: "Test User"}
	}
	return &u, nil
}

func (f *FakeSource) ListPlaylists(ctx context.Context) ([]models.PlaylistDescriptor, error) {
	f.PlaylistCalls++
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return append([]models.PlaylistDescriptor(nil), f.Playlists...), nil
}

func (f *FakeSource) ListLikedTracks(ctx context.Context) ([]models.SourceTrack, error) {
	f.LikedCalls++
	if f.TracksErr != nil {
		return nil, f.TracksErr
	}
	return append([]models.SourceTrack(nil), f.Liked...), nil
}

func (f *FakeSource) ListPlaylistTracks(ctx context.Context, playlistID string) ([]models.SourceTrack, error) {
	if f.TrackCalls == nil {
		f.TrackCalls = map[string]int{}
	}
	f.TrackCalls[playlistID]++
	if f.TracksErr != nil {
		return nil, f.TracksErr
	}
	return append([]models.SourceTrack(nil), f.Tracks[playlistID]...), nil
}

// FakeTarget is a test double for services.TargetCatalog.
//
// Added ids are appended to Items unless listed in Reject, in which case the response
// carries a per-item failure with the mapped status.
type FakeTarget struct {
	Results map[string][]models.Candidate // by search query
	Owned   []models.OwnedPlaylist
	Items   map[string][]string // by playlist id
	Reject  map[string]string   // video id -> status

	SearchErr error
	CreateErr error
	ItemsErr  error

	SearchCalls int
	CreateCalls int
	AddCalls    int
	ItemsCalls  int
	Created     []string // titles passed to CreatePlaylist
	Privacy     []string
}

func (f *FakeTarget) Name() string { return "fake-ytmusic" }

func (f *FakeTarget) Authenticate(ctx context.Context, credentials map[string]string) error {
	return nil
}

func (f *FakeTarget) Search(ctx context.Context, query string, limit int) ([]models.Candidate, error) {
	f.SearchCalls++
	if f.SearchErr != nil {
		return nil, f.SearchErr
	}
	results := f.Results[query]
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (f *FakeTarget) ListOwnedPlaylists(ctx context.Context) ([]models.OwnedPlaylist, error) {
	return append([]models.OwnedPlaylist(nil), f.Owned...), nil
}

func (f *FakeTarget) CreatePlaylist(ctx context.Context, title, description, privacy string) (string, error) {
	f.CreateCalls++
	if f.CreateErr != nil {
		return "", f.CreateErr
	}
	id := fmt.Sprintf("PL-%d", len(f.Owned)+1)
	f.Owned = append(f.Owned, models.OwnedPlaylist{ID: id, Title: title})
	f.Created = append(f.Created, title)
	f.Privacy = append(f.Privacy, privacy)
	return id, nil
}

func (f *FakeTarget) AddItems(ctx context.Context, playlistID string, ids []string) (json.RawMessage, error) {
	f.AddCalls++
	if f.Items == nil {
		f.Items = map[string][]string{}
	}

	if len(f.Reject) == 0 {
		f.Items[playlistID] = append(f.Items[playlistID], ids...)
		return json.RawMessage(`{"status":"STATUS_SUCCEEDED"}`), nil
	}

	results := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		if status, bad := f.Reject[id]; bad {
			results = append(results, map[string]any{"status": status})
			continue
		}
		f.Items[playlistID] = append(f.Items[playlistID], id)
		results = append(results, map[string]any{"status": "STATUS_SUCCEEDED"})
	}
	return json.Marshal(map[string]any{"playlistEditResults": results})
}

func (f *FakeTarget) PlaylistItems(ctx context.Context, playlistID string) ([]string, error) {
	f.ItemsCalls++
	if f.ItemsErr != nil {
		return nil, f.ItemsErr
	}
	return append([]string(nil), f.Items[playlistID]...), nil
}

// Song builds a "song" search result with a one-artist credit.
func Song(videoID, title, artist, duration string) models.Candidate {
	return models.Candidate{Title: title, Artists: []string{artist}, Duration: duration, ResultType: "song", VideoID: videoID}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
