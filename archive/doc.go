// Package archive keeps a durable transcript of committed turns: the user's
// message, the bot's reply and the agent that answered, per identity.
//
// The archive is fed by the engine's on_turn_committed callback (see
// NewCallback) and is never consulted by the turn loop itself. Two
// implementations are provided: InMemoryStore for tests and the offline demo,
// and SQLiteStore backed by modernc.org/sqlite.
package archive
