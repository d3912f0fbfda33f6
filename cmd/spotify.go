package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/desertthunder/ytmigrate/internal/models"
	"github.com/desertthunder/ytmigrate/internal/ui"
	"github.com/urfave/cli/v3"
)

// SpotifyPlaylists lists the source playlists, Liked Songs included, as a sync would select them.
func (r *Runner) SpotifyPlaylists(ctx context.Context, cmd *cli.Command) error {
	if err := r.authSpotify(ctx); err != nil {
		return err
	}

	r.logger.Debug("fetching Spotify playlists")
	playlists, err := r.spotify.ListPlaylists(ctx)
	if err != nil {
		return fmt.Errorf("failed to list playlists: %w", err)
	}
	playlists = append(playlists, models.LikedSongs(0))

	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	rows := make([][]string, 0, len(playlists))
	for _, p := range playlists {
		count := strconv.Itoa(p.TrackCount)
		if p.Liked {
			count = "-"
		}
		rows = append(rows, []string{p.Name, p.ID, count})
	}

	r.writePlainHeader(fmt.Sprintf("Spotify playlists (%d)", len(playlists)))
	r.writePlain("%s\n", ui.Table([]string{"Name", "ID", "Tracks"}, rows))
	return nil
}

// SpotifyTracks lists the tracks of one playlist, or of Liked Songs when --id is omitted.
func (r *Runner) SpotifyTracks(ctx context.Context, cmd *cli.Command) error {
	if err := r.authSpotify(ctx); err != nil {
		return err
	}

	id := cmd.String("id")
	var (
		tracks []models.SourceTrack
		err    error
	)
	if id == "" || id == models.LikedSongsID {
		tracks, err = r.spotify.ListLikedTracks(ctx)
	} else {
		tracks, err = r.spotify.ListPlaylistTracks(ctx, id)
	}
	if err != nil {
		return fmt.Errorf("failed to list tracks: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, true)
	}

	rows := make([][]string, 0, len(tracks))
	for _, t := range tracks {
		rows = append(rows, []string{t.Name, t.ArtistLine(), t.Album, formatDuration(t.DurationMS), t.ID})
	}
	r.writePlain("%s\n", ui.Table([]string{"Title", "Artists", "Album", "Length", "ID"}, rows))
	r.writePlain("%d track(s)\n", len(tracks))
	return nil
}

// formatDuration renders milliseconds in the "m:ss" form the target catalog displays.
func formatDuration(ms int) string {
	if ms <= 0 {
		return "-"
	}
	s := ms / 1000
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
