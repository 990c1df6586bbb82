// Package session drives the capture-to-encode lifecycle.
//
// A Manager owns the active-session registry and admits new sessions; each
// session runs one Controller goroutine that walks the linear state machine
// (acquire surface, ready media, capture, stop, encode) and is the only
// component allowed to declare the session done or failed. All stop
// triggers, natural end, connectivity loss, and external requests, converge
// on a single finalize routine guarded by one compare-and-swap flag, so
// partially written capture files are always finalized identically.
package session
