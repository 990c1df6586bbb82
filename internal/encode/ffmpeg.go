package encode

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"reeler/internal/config"
	"reeler/internal/services"
)

var commandContext = exec.CommandContext

const diagnosticTailLines = 30

// Options tune one encode invocation.
type Options struct {
	// MediaDuration, when known from the capture monitor, lets the
	// supervisor report percentage progress. Zero means unknown.
	MediaDuration float64
	Progress      func(ProgressUpdate)
}

// Client defines transcoder behaviour so tests can substitute fakes.
type Client interface {
	Encode(ctx context.Context, inputPath, outputPath string, opts Options) error
}

// FFmpeg supervises ffmpeg subprocess invocations.
type FFmpeg struct {
	binary     string
	videoCodec string
	audioCodec string
	quality    int

	baseTimeout     time.Duration
	throughputBytes int64
	multiplier      float64
}

// NewFFmpeg constructs a supervisor from config.
func NewFFmpeg(cfg *config.Config) *FFmpeg {
	return &FFmpeg{
		binary:          cfg.Encode.FFmpegBinary,
		videoCodec:      cfg.Encode.VideoCodec,
		audioCodec:      cfg.Encode.AudioCodec,
		quality:         cfg.Encode.Quality,
		baseTimeout:     cfg.EncodeBaseTimeout(),
		throughputBytes: int64(cfg.Encode.AssumedThroughputKiB) * 1024,
		multiplier:      cfg.Encode.ProcessingMultiplier,
	}
}

// Deadline computes the encode timeout for an input of the given size:
// max(baseTimeout, estimatedDuration * multiplier), where the duration
// estimate assumes a fixed capture throughput. The estimate is deliberately
// imprecise; it only bounds how generous the timeout is.
func (f *FFmpeg) Deadline(inputSize int64) time.Duration {
	estimated := time.Duration(float64(inputSize) / float64(f.throughputBytes) * f.multiplier * float64(time.Second))
	if estimated < f.baseTimeout {
		return f.baseTimeout
	}
	return estimated
}

// Encode runs the transcoder against inputPath and writes outputPath.
// On deadline the process is killed and the error carries the timeout
// marker; non-zero exits carry the failed marker plus a diagnostic tail.
func (f *FFmpeg) Encode(ctx context.Context, inputPath, outputPath string, opts Options) error {
	if strings.TrimSpace(inputPath) == "" {
		return services.Wrap(services.ErrEncodeFailed, "encode", "run", "input path required", nil)
	}
	if strings.TrimSpace(outputPath) == "" {
		return services.Wrap(services.ErrEncodeFailed, "encode", "run", "output path required", nil)
	}

	info, err := os.Stat(inputPath)
	if err != nil {
		return services.Wrap(services.ErrEncodeFailed, "encode", "stat input", inputPath, err)
	}
	deadline := f.Deadline(info.Size())

	runCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	cmd := commandContext(runCtx, f.binary, f.args(inputPath, outputPath)...) //nolint:gosec
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return services.Wrap(services.ErrEncodeFailed, "encode", "stderr pipe", "", err)
	}
	if err := cmd.Start(); err != nil {
		return services.Wrap(services.ErrEncodeFailed, "encode", "start transcoder", f.binary, err)
	}

	tail := make([]string, 0, diagnosticTailLines)
	scanner := bufio.NewScanner(stderr)
	scanner.Split(scanStatusLines)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if len(tail) == diagnosticTailLines {
			tail = tail[1:]
		}
		tail = append(tail, line)

		if seconds, ok := parseTimeMarker(line); ok && opts.Progress != nil {
			percent := -1.0
			if opts.MediaDuration > 0 {
				percent = seconds / opts.MediaDuration * 100
				if percent > 100 {
					percent = 100
				}
			}
			opts.Progress(ProgressUpdate{Seconds: seconds, Percent: percent})
		}
	}

	waitErr := cmd.Wait()
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return services.Wrap(services.ErrEncodeTimeout, "encode", "run",
			fmt.Sprintf("transcoder exceeded deadline %s", deadline), nil)
	}
	if waitErr != nil {
		detail := strings.Join(tail, "; ")
		if detail == "" {
			detail = waitErr.Error()
		}
		return services.Wrap(services.ErrEncodeFailed, "encode", "run", detail, waitErr)
	}

	out, err := os.Stat(outputPath)
	if err != nil {
		return services.Wrap(services.ErrEncodeFailed, "encode", "verify output", outputPath, err)
	}
	if out.Size() == 0 {
		return services.Wrap(services.ErrEncodeFailed, "encode", "verify output", "transcoder produced empty file", nil)
	}
	return nil
}

func (f *FFmpeg) args(inputPath, outputPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", inputPath,
		"-c:v", f.videoCodec,
		"-c:a", f.audioCodec,
		"-crf", strconv.Itoa(f.quality),
		"-movflags", "+faststart",
		outputPath,
	}
}

var _ Client = (*FFmpeg)(nil)
