// Package session archives finished conversations. A Store keeps the result of
// every session (its closed transcript, terminal state and summary) so
// callers can look a conversation up by id after the run.
//
// Add additional backends (Redis, SQL, etc.) without changing any calling
// code; only the wiring layer decides which implementation to instantiate.
package session
