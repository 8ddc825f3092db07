// Package session owns conversation state keyed by external identity.
//
// InMemoryStore keeps one core.Session per identity behind a per-identity lock.
// The lock is a buffered-channel semaphore so that waiting for it honours
// context cancellation. All mutation goes through WithSession; eviction of idle
// sessions takes the same lock, so a session that is mid-turn is never evicted.
// Janitor runs the eviction sweep periodically.
package session
