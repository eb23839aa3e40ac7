// Package tasks resolves track queries against the catalog and replaces playlists with the results.
//
// # Core Operations
//
//  1. [PlaylistEngine.Resolve] : search many "Artist - Title" queries concurrently
//     - Obtains the access token once before any worker starts
//     - Fans queries out over a worker pool behind a shared rate limiter
//     - Returns one [Resolution] per query in input order, including misses
//
//  2. [PlaylistEngine.Run] : resolve queries, then replace the playlist with every match
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
