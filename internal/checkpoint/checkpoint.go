package checkpoint

import (
	"sort"

	"github.com/desertthunder/ytmigrate/internal/models"
)

// Checkpoint is the in-memory state of a run bound to its store.
//
// Record methods never overwrite an existing entry and flush the whole state to
// the store before returning. It is not safe for concurrent use.
type Checkpoint struct {
	store Store
	state *State
}

// Stats counts the entries of a checkpoint.
type Stats struct {
	Playlists int
	Tracks    int
	Matched   int
	NoMatch   int
}

// Open loads the state from store.
func Open(store Store) (*Checkpoint, error) {
	st, err := store.Load()
	if err != nil {
		return nil, err
	}
	return &Checkpoint{store: store, state: st}, nil
}

// Playlist returns the target playlist mapped to a source playlist.
func (c *Checkpoint) Playlist(sourceID string) (string, bool) {
	id, ok := c.state.PlaylistMap[sourceID]
	return id, ok
}

// RecordPlaylist maps a source playlist to its target and flushes.
// An existing mapping is kept and returned unchanged.
func (c *Checkpoint) RecordPlaylist(sourceID, targetID string) (string, error) {
	if existing, ok := c.state.PlaylistMap[sourceID]; ok {
		return existing, nil
	}
	c.state.PlaylistMap[sourceID] = targetID
	if err := c.store.Save(c.state); err != nil {
		delete(c.state.PlaylistMap, sourceID)
		return "", err
	}
	return targetID, nil
}

// Track returns the cached decision for a source track.
func (c *Checkpoint) Track(sourceID string) (models.Decision, bool) {
	v, ok := c.state.TrackMap[sourceID]
	if !ok {
		return models.NoMatch, false
	}
	if v == nil {
		return models.NoMatch, true
	}
	return models.Decision{VideoID: *v}, true
}

// RecordTrack caches a decision, including no match, and flushes.
// An existing decision is kept and returned unchanged.
func (c *Checkpoint) RecordTrack(sourceID string, d models.Decision) (models.Decision, error) {
	if existing, ok := c.Track(sourceID); ok {
		return existing, nil
	}

	var v *string
	if d.Matched() {
		id := d.VideoID
		v = &id
	}
	c.state.TrackMap[sourceID] = v
	if err := c.store.Save(c.state); err != nil {
		delete(c.state.TrackMap, sourceID)
		return models.NoMatch, err
	}
	return d, nil
}

// Forget removes a cached track decision so the next run searches for it again.
// It reports whether an entry was removed.
func (c *Checkpoint) Forget(sourceID string) (bool, error) {
	prev, ok := c.state.TrackMap[sourceID]
	if !ok {
		return false, nil
	}
	delete(c.state.TrackMap, sourceID)
	if err := c.store.Save(c.state); err != nil {
		c.state.TrackMap[sourceID] = prev
		return false, err
	}
	return true, nil
}

// Unmatched lists the source track ids cached as no match, sorted.
func (c *Checkpoint) Unmatched() []string {
	ids := []string{}
	for id, v := range c.state.TrackMap {
		if v == nil {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Stats summarizes the checkpoint.
func (c *Checkpoint) Stats() Stats {
	s := Stats{Playlists: len(c.state.PlaylistMap), Tracks: len(c.state.TrackMap)}
	for _, v := range c.state.TrackMap {
		if v == nil {
			s.NoMatch++
		} else {
			s.Matched++
		}
	}
	return s
}
