// Package notifications delivers push notifications for session milestones
// via ntfy. When no topic is configured a no-op implementation is returned
// so callers never branch on notification availability.
package notifications
