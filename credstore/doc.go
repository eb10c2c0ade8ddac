// Package credstore provides durable CredentialStore implementations:
// a Bun/SQLite store for persistence across application restarts and an
// in-memory store for tests and throwaway processes. Both share the same
// lazy-expiry policy: an expired credential is purged the first time it
// is read, not on a timer.
package credstore
