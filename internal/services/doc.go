// Package services implements the Spotify catalog facade.
//
// # Spotify Implementation
//
// [SpotifyService] asks a [TokenProvider] for a bearer token before every request,
// so expiry and refresh stay with the token manager. Responses are decoded with
// the zmb3/spotify types and mapped onto [Track].
//
// Two operations are exposed:
//   - Search: GET /search?limit=&type=track&q=artist:<a> track:<t>, with colons left unescaped
//   - ReplacePlaylist: PUT /playlists/{id}/tracks with {"uris": [...]}, expecting 201
//
// # Caching
//
// An optional [TrackCache] is consulted before each search. Empty results are cached
// too, so repeated misses do not reach the API.
//
// # Error Handling
//
// Any status other than the expected one becomes a [*shared.APIError] carrying the
// status code, reason and body. Nothing is retried.
package services
