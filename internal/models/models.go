package models

import (
	"strings"
	"time"
)

// LikedSongsID is the reserved identity of the synthetic Liked Songs playlist.
// Spotify playlist ids are base62 and can never collide with it.
const LikedSongsID = "__LIKED_SONGS__"

const (
	LikedSongsName        = "Liked Songs"
	LikedSongsDescription = "Imported from Spotify Liked Songs"
)

// User is the account a catalog client is authenticated as.
type User struct {
	ID          string
	DisplayName string
}

// SourceTrack is a track as fetched from the source catalog. DurationMS is 0 when unknown.
type SourceTrack struct {
	ID         string
	Name       string
	Artists    []string
	Album      string
	DurationMS int
}

// ArtistLine joins the artist names the way both catalogs display them.
func (t SourceTrack) ArtistLine() string {
	return strings.Join(t.Artists, ", ")
}

// Candidate is one entry of a target catalog search response.
//
// Duration uses the catalog's "m:ss" display form and may be empty.
type Candidate struct {
	Title      string
	Artists    []string
	Duration   string
	ResultType string
	VideoID    string
	SetVideoID string
}

// ArtistLine joins the candidate's artist names with ", ".
func (c Candidate) ArtistLine() string {
	return strings.Join(c.Artists, ", ")
}

// PlayableID returns the id used to add the candidate to a playlist, falling back to SetVideoID.
func (c Candidate) PlayableID() string {
	if c.VideoID != "" {
		return c.VideoID
	}
	return c.SetVideoID
}

// Decision is the cached resolution of a source track. The zero value means no match.
type Decision struct {
	VideoID string
}

// NoMatch is the decision recorded when no candidate clears the acceptance threshold.
var NoMatch = Decision{}

// Matched reports whether the decision carries a video id.
func (d Decision) Matched() bool {
	return d.VideoID != ""
}

// PlaylistDescriptor describes a source playlist. Liked marks the synthetic Liked Songs collection.
type PlaylistDescriptor struct {
	ID          string
	Name        string
	Description string
	TrackCount  int
	Liked       bool
}

// LikedSongs returns the descriptor of the synthetic Liked Songs playlist.
func LikedSongs(trackCount int) PlaylistDescriptor {
	return PlaylistDescriptor{
		ID:          LikedSongsID,
		Name:        LikedSongsName,
		Description: LikedSongsDescription,
		TrackCount:  trackCount,
		Liked:       true,
	}
}

// OwnedPlaylist is a playlist in the target library.
type OwnedPlaylist struct {
	ID    string
	Title string
	Count int
}

// ItemFailure is an id that was not confirmed as added, with the reason reported for it.
type ItemFailure struct {
	VideoID string
	Reason  string
}

// BatchOutcome summarizes a mutation run against one playlist.
type BatchOutcome struct {
	Attempted int
	Added     int
	Failed    []ItemFailure
}

// Model defines the base interface for audit log entities.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the data access operations for an audit entity.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}
