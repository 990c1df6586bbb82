// Package encode supervises the external transcoder that turns a raw
// capture artifact into the final output file.
//
// The supervisor derives a deadline from input size under a fixed
// throughput assumption (a heuristic, not a measured media duration),
// forcibly terminates the encoder when the deadline passes, and surfaces
// structured failures carrying the encoder's diagnostic output. Progress is
// parsed from the encoder's time=HH:MM:SS.ms stderr markers.
package encode
