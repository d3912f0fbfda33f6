// Package models defines the domain entities passed between the ytmigrate components.
//
// The package contains two categories of types:
//
// 1. Catalog values: lightweight structs describing data fetched from either catalog
//   - [SourceTrack] : a Spotify track (id, name, artists, album, duration)
//   - [Candidate] : one YouTube Music search result
//   - [PlaylistDescriptor] : a Spotify playlist, or the synthetic Liked Songs collection
//   - [OwnedPlaylist] : a YouTube Music playlist owned by the account
//   - [Decision] : the resolved video id for a source track, or no match
//   - [BatchOutcome] : the result of pushing ids into a target playlist
//
// 2. Audit entities: rows of the SQLite match audit log
//   - [SyncRun] : one invocation of the sync command
//   - [MatchRecord] : a fresh match decision together with its score breakdown
//
// Audit entities implement [Model]; [Repository] is the persistence contract used by the repositories package.
package models
