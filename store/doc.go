// Package store holds the usage counters the enrich client keeps for every
// request it sends. Counters are bucketed by a [Window] so callers can see
// how much of a per-minute (or hourly, daily, monthly) quota they consumed.
//
// Implementations:
//
//   - [MemoryStore]: process-local counters, lost on restart.
//   - [SQLiteStore]: counters persisted in a SQLite file.
//   - [TieredStore]: memory in front of any persistent [Store].
//   - redis.RedisStore (subpackage redis): counters shared between processes.
package store
