// Package session houses concrete implementations of the core.SessionStore.
// The interface itself (and the Session struct) live in the core package to
// centralize domain contracts. Keeping only implementations here prevents
// higher level packages (agents, engine) from depending on concrete storage.
//
// Two backends are provided: InMemoryStore for tests and ephemeral demo
// servers, and SQLiteStore for durable single-node deployments. Add further
// backends (Redis, Postgres, Firestore, etc.) without changing any calling
// code – only the wiring layer needs to decide which implementation to
// instantiate.
package session
