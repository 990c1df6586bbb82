package config

import (
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCapture(); err != nil {
		return err
	}
	if err := c.validateEncode(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateCapture() error {
	parsed, err := url.Parse(c.Capture.AgentURL)
	if err != nil || (parsed.Scheme != "ws" && parsed.Scheme != "wss") {
		return fmt.Errorf("capture.agent_url must be a ws:// or wss:// URL, got %q", c.Capture.AgentURL)
	}
	switch c.Capture.Strategy {
	case "direct_stream", "tab_capture":
	default:
		return fmt.Errorf("capture.strategy must be direct_stream or tab_capture, got %q", c.Capture.Strategy)
	}
	if c.Capture.MinPlaybackRate > c.Capture.MaxPlaybackRate {
		return fmt.Errorf("capture.min_playback_rate %.2f exceeds max_playback_rate %.2f",
			c.Capture.MinPlaybackRate, c.Capture.MaxPlaybackRate)
	}
	return nil
}

func (c *Config) validateEncode() error {
	if c.Encode.Quality < 0 || c.Encode.Quality > 51 {
		return fmt.Errorf("encode.quality must be within [0, 51], got %d", c.Encode.Quality)
	}
	return nil
}
