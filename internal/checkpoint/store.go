// Package checkpoint persists playlist and track resolution decisions between runs.
//
// The on-disk form is a JSON object:
//
//	{"playlist_map": {"<spotify playlist>": "<ytm playlist>"},
//	 "track_map":    {"<spotify track>": "<video id>" | null}}
//
// A null track entry is a cached no-match decision.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/desertthunder/ytmigrate/internal/shared"
)

// State is the full checkpoint content.
type State struct {
	PlaylistMap map[string]string  `json:"playlist_map"`
	TrackMap    map[string]*string `json:"track_map"`
}

// NewState returns a state with empty, non-nil maps.
func NewState() *State {
	return &State{PlaylistMap: map[string]string{}, TrackMap: map[string]*string{}}
}

// Store loads and saves a [State].
type Store interface {
	Load() (*State, error)
	Save(*State) error
}

// FileStore keeps the state in a single JSON file.
//
// Save writes "<Path>.tmp", syncs it and renames it over Path, so an interrupted
// save leaves the previous file intact. Load never reads the temporary file.
type FileStore struct {
	Path string
}

// NewFileStore returns a store for path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (s *FileStore) tmpPath() string {
	return s.Path + ".tmp"
}

// Load reads the checkpoint. A missing file yields an empty state.
func (s *FileStore) Load() (*State, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", shared.ErrCheckpoint, s.Path, err)
	}

	st := NewState()
	if err := json.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", shared.ErrCheckpoint, s.Path, err)
	}
	if st.PlaylistMap == nil {
		st.PlaylistMap = map[string]string{}
	}
	if st.TrackMap == nil {
		st.TrackMap = map[string]*string{}
	}
	return st, nil
}

// Save atomically replaces the checkpoint file with st.
func (s *FileStore) Save(st *State) error {
	data, err := shared.MarshalJSON(st, true)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", shared.ErrCheckpoint, err)
	}

	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrCheckpoint, err)
		}
	}

	tmp := s.tmpPath()
	if err := writeSynced(tmp, data); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: write %s: %v", shared.ErrCheckpoint, tmp, err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: replace %s: %v", shared.ErrCheckpoint, s.Path, err)
	}
	return nil
}

func writeSynced(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
