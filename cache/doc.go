// Package cache memoizes policy backend responses.
//
// A cache.Model wraps any model.Model and keys every request by a hash of the
// cache seed, the wrapped model's Info and the canonical JSON form of the
// request. Identical requests under the same seed are answered from the
// Store without calling the backend; a nil seed disables caching entirely.
//
// Three stores are provided:
//
//	MemoryStore  process local map, useful for tests and short lived programs
//	SQLiteStore  disk backed table (modernc.org/sqlite, no cgo)
//	RedisStore   shared cache in Redis (go-redis/v9)
package cache
