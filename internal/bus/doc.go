// Package bus fans session-scoped status events out to observers.
//
// Delivery is best effort and never blocks Publish: a subscriber whose
// buffer is full is dropped from the subscriber set rather than retried.
// Subscriptions may filter on a session identifier; filtered subscribers
// never observe another session's events.
package bus
