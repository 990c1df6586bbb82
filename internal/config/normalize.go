package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCapture()
	c.normalizeEncode()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		c.Paths.StagingDir = defaultStagingDir
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.OutputBaseURL = strings.TrimRight(strings.TrimSpace(c.Paths.OutputBaseURL), "/")
	return nil
}

func (c *Config) normalizeCapture() {
	c.Capture.AgentURL = strings.TrimSpace(c.Capture.AgentURL)
	if c.Capture.AgentURL == "" {
		c.Capture.AgentURL = defaultAgentURL
	}
	c.Capture.Strategy = strings.ToLower(strings.TrimSpace(c.Capture.Strategy))
	if c.Capture.Strategy == "" {
		c.Capture.Strategy = defaultStrategy
	}
	if c.Capture.MonitorInterval <= 0 {
		c.Capture.MonitorInterval = defaultMonitorInterval
	}
	if c.Capture.ReadyTimeout <= 0 {
		c.Capture.ReadyTimeout = defaultReadyTimeout
	}
	if c.Capture.MinPlaybackRate <= 0 {
		c.Capture.MinPlaybackRate = defaultMinPlaybackRate
	}
	if c.Capture.MaxPlaybackRate <= 0 {
		c.Capture.MaxPlaybackRate = defaultMaxPlaybackRate
	}
	if c.Capture.MinFreeGiB < 0 {
		c.Capture.MinFreeGiB = 0
	}
}

func (c *Config) normalizeEncode() {
	c.Encode.FFmpegBinary = strings.TrimSpace(c.Encode.FFmpegBinary)
	if c.Encode.FFmpegBinary == "" {
		c.Encode.FFmpegBinary = defaultFFmpegBinary
	}
	c.Encode.VideoCodec = strings.TrimSpace(c.Encode.VideoCodec)
	if c.Encode.VideoCodec == "" {
		c.Encode.VideoCodec = defaultVideoCodec
	}
	c.Encode.AudioCodec = strings.TrimSpace(c.Encode.AudioCodec)
	if c.Encode.AudioCodec == "" {
		c.Encode.AudioCodec = defaultAudioCodec
	}
	if c.Encode.Quality <= 0 {
		c.Encode.Quality = defaultQuality
	}
	if c.Encode.BaseTimeout <= 0 {
		c.Encode.BaseTimeout = defaultEncodeBaseTimeout
	}
	if c.Encode.AssumedThroughputKiB <= 0 {
		c.Encode.AssumedThroughputKiB = defaultAssumedThroughputKiB
	}
	if c.Encode.ProcessingMultiplier <= 0 {
		c.Encode.ProcessingMultiplier = defaultProcessingMultiplier
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
