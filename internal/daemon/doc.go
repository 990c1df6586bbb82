// Package daemon hosts the long-running reeler service: it enforces
// single-instance execution, owns the session manager's lifecycle, and
// serves the HTTP and websocket API.
package daemon
