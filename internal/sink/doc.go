// Package sink persists an ordered stream of capture chunks to a single
// append-only artifact file.
//
// A single writer goroutine consumes an ordered request queue, so disk order
// always matches arrival order even when the producer delivers chunks from a
// reentrant callback context. Accept acknowledges a chunk only after its
// bytes are written; Close drains outstanding writes and syncs the file.
package sink
