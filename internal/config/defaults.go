package config

const (
	defaultStagingDir = "~/.local/share/reeler/staging"
	defaultOutputDir  = "~/.local/share/reeler/output"
	defaultLogDir     = "~/.local/share/reeler/logs"
	defaultAPIBind    = "127.0.0.1:7319"

	defaultAgentURL        = "ws://127.0.0.1:7320/capture"
	defaultStrategy        = "direct_stream"
	defaultMonitorInterval = 5
	defaultReadyTimeout    = 45
	defaultMinPlaybackRate = 0.5
	defaultMaxPlaybackRate = 2.0
	defaultMinFreeGiB      = 2

	defaultFFmpegBinary         = "ffmpeg"
	defaultVideoCodec           = "libx264"
	defaultAudioCodec           = "aac"
	defaultQuality              = 23
	defaultEncodeBaseTimeout    = 120
	defaultAssumedThroughputKiB = 256
	defaultProcessingMultiplier = 1.5

	defaultNtfyRequestTimeout = 10

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			OutputDir:  defaultOutputDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		Capture: Capture{
			AgentURL:        defaultAgentURL,
			Strategy:        defaultStrategy,
			MonitorInterval: defaultMonitorInterval,
			ReadyTimeout:    defaultReadyTimeout,
			MinPlaybackRate: defaultMinPlaybackRate,
			MaxPlaybackRate: defaultMaxPlaybackRate,
			MinFreeGiB:      defaultMinFreeGiB,
		},
		Encode: Encode{
			FFmpegBinary:         defaultFFmpegBinary,
			VideoCodec:           defaultVideoCodec,
			AudioCodec:           defaultAudioCodec,
			Quality:              defaultQuality,
			BaseTimeout:          defaultEncodeBaseTimeout,
			AssumedThroughputKiB: defaultAssumedThroughputKiB,
			ProcessingMultiplier: defaultProcessingMultiplier,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
