// Package preflight verifies environment readiness before sessions run:
// directory permissions, staging free space, and the transcoder binary.
package preflight
