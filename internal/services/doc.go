// Package services defines the error taxonomy shared by the session
// controller and its collaborators.
//
// Failures are tagged with one of the exported sentinel markers so the
// controller can classify them: reject-before-acquire (invalid input),
// fatal-abort (surface acquisition, persistence, encode), or stop-trigger
// (capture interrupted). Use Wrap when returning errors from component code
// so the marker, component name, and operation stay attached through the
// call chain.
package services
