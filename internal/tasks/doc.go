// Package tasks runs a Spotify → YouTube Music migration with real-time progress reporting.
//
// # Sync
//
// [Engine.Sync] lists the user's Spotify playlists, appends the Liked Songs pseudo-playlist
// (always under [models.LikedSongsID]) and applies [FilterPlaylists]. Each selected playlist
// then moves through four steps, one playlist at a time:
//
//  1. Ensure target: reuse the checkpointed mapping, or find a YT Music playlist with the same
//     normalized title, or create a private one ([Engine.EnsurePlaylist]). The mapping is saved at once.
//  2. Resolve: tracks with a checkpointed decision are never searched again. Other tracks are
//     searched once (with retries) and the decision, including "no match", is saved at once.
//     A search that exhausts its retries aborts the whole run.
//  3. Mutate: resolved ids already on the target playlist are skipped, the rest go to the
//     batch mutator, and the playlist is read again to confirm its size.
//  4. Report: outcome lines, failure CSV rows, metrics and audit rows. Failures here never stop the run.
//
// A rerun over an unchanged library therefore issues no searches and no mutation calls.
//
// # Progress Reporting
//
// Updates are sent with select/default so a slow consumer never blocks the run.
package tasks
