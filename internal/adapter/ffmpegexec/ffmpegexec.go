// Package ffmpegexec locates and runs the ffmpeg binary from the runtime
// image. Its single job here is muxing the separate DASH audio stream of a
// hosted video into the downloaded file.
package ffmpegexec

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/redgrab/redgrab/internal/common"
)

const envBinary = "REDGRAB_FFMPEG"

// Locate resolves the ffmpeg binary: explicit path first, the environment
// override second, PATH lookup last.
func Locate(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("%w: %s", common.ErrFFmpegNotFoundError, explicit)
		}

		return explicit, nil
	}

	if env := os.Getenv(envBinary); env != "" {
		if _, err := os.Stat(env); err != nil {
			return "", fmt.Errorf("%w: %s", common.ErrFFmpegNotFoundError, env)
		}

		return env, nil
	}

	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return "", fmt.Errorf("%w: not in PATH", common.ErrFFmpegNotFoundError)
	}

	return path, nil
}

type Runner struct {
	binary string
	log    *slog.Logger
}

func NewRunner(binary string, log *slog.Logger) *Runner {
	return &Runner{
		binary: binary,
		log:    log.With(slog.String("item", "FFmpeg")),
	}
}

// Mux copies the video and audio streams into outPath without re-encoding.
func (r *Runner) Mux(ctx context.Context, videoPath, audioPath, outPath string) error {
	args := []string{
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-c:v", "copy",
		"-c:a", "copy",
		"-map", "0:v:0",
		"-map", "1:a:0",
		outPath,
	}

	r.log.Debug("Run ffmpeg", slog.Any("args", args))

	cmd := exec.CommandContext(ctx, r.binary, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("cannot mux %s: %w: %s", outPath, err, string(out))
	}

	return nil
}

// MuxReplace muxes audioPath into videoPath in place. The audio file is
// consumed, whatever the outcome: a failed mux leaves the video-only file.
func (r *Runner) MuxReplace(ctx context.Context, videoPath, audioPath string) error {
	defer os.Remove(audioPath)

	tmpPath := videoPath + ".mux.mp4"

	if err := r.Mux(ctx, videoPath, audioPath, tmpPath); err != nil {
		os.Remove(tmpPath)

		return err
	}

	if err := os.Rename(tmpPath, videoPath); err != nil {
		os.Remove(tmpPath)

		return fmt.Errorf("cannot replace %s: %w", videoPath, err)
	}

	r.log.Info("Muxed audio", slog.String("path", videoPath))

	return nil
}
