// Package api defines the wire types shared by the daemon's HTTP surface
// and the CLI client, plus the client itself.
package api
