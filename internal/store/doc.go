// Package store persists session history in SQLite.
//
// The active-session registry itself lives in memory inside the session
// manager; this store is the durable bookkeeping behind it, recording every
// session from creation through its terminal state so the CLI and API can
// answer "what happened" after the fact.
package store
