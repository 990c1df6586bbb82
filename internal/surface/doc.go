// Package surface defines the capture surface contract and the websocket
// adapter that speaks to an external capture agent.
//
// The controller treats a surface as a lazy, finite, non-restartable chunk
// sequence: Start readies the media, Chunks yields ordered fragments until
// the surface signals end-of-stream or loses connectivity, Probe reports
// playback position and health without blocking on the peer, and Stop is
// idempotent and safe after capture already ended.
package surface
