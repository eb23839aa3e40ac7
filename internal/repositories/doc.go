// Package repositories implements SQLite persistence for cached catalog searches.
//
// [SearchCache] stores the ordered tracks each search returned, keyed by a normalized
// query key, and separately records searches that matched nothing. Entries older than
// the configured TTL are treated as absent and removed by [SearchCache.Prune].
//
// The schema lives in internal/shared/sql and is applied by [shared.RunMigrations].
package repositories
