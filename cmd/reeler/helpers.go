package main

import (
	"fmt"
	"strings"
	"time"
)

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func formatProgress(percent float64) string {
	return fmt.Sprintf("%3.0f%%", percent)
}

func formatState(state string) string {
	return strings.ReplaceAll(state, "_", " ")
}

func formatAge(created time.Time) string {
	if created.IsZero() {
		return "-"
	}
	age := time.Since(created).Round(time.Second)
	if age < 0 {
		age = 0
	}
	return age.String()
}
