// Package services implements the catalog clients used by a migration run.
//
// # Catalog Interfaces
//
// [SourceCatalog] is the library being migrated from and [TargetCatalog] the one being migrated to.
// The sync engine only sees these interfaces, so tests run against in-memory fakes.
//
// # Spotify Implementation
//
// [SpotifyService] uses an [oauth2] client built from a refresh token; access tokens are renewed automatically.
// Every list endpoint is paginated by following the "next" URL. Local files and removed tracks are skipped.
//
// # YouTube Music Implementation
//
// [YouTubeService] communicates with the FastAPI proxy server (music/) wrapping ytmusicapi.
// The auth_file path (browser.json or oauth.json) is sent via the X-Auth-File header on each request.
// Add-items responses are passed through untouched; classifying them is the batch package's job.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : Authenticate() not called, or the proxy rejected the auth file
//   - [shared.ErrAuthFailed] : the Spotify refresh token was rejected
//   - [shared.ErrTokenExpired] : Spotify answered 401
//   - [shared.ErrAPIRequest] : HTTP request failed
//   - [shared.ErrPlaylistNotFound] : Playlist ID not found
//   - [shared.ErrServiceUnavailable] : the proxy is not reachable
package services
