package ffmpegexec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redgrab/redgrab/internal/common"
)

func writeFakeBinary(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755))

	return path
}

func TestLocateExplicit(t *testing.T) {
	bin := writeFakeBinary(t, t.TempDir(), "ffmpeg")

	path, err := Locate(bin)
	require.NoError(t, err)
	assert.Equal(t, bin, path)
}

func TestLocateExplicitMissing(t *testing.T) {
	_, err := Locate(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, common.ErrFFmpegNotFoundError)
}

func TestLocateEnvOverride(t *testing.T) {
	bin := writeFakeBinary(t, t.TempDir(), "ffmpeg-custom")
	t.Setenv("REDGRAB_FFMPEG", bin)

	path, err := Locate("")
	require.NoError(t, err)
	assert.Equal(t, bin, path)
}

func TestLocateFromPath(t *testing.T) {
	dir := t.TempDir()
	bin := writeFakeBinary(t, dir, "ffmpeg")

	t.Setenv("REDGRAB_FFMPEG", "")
	t.Setenv("PATH", dir)

	path, err := Locate("")
	require.NoError(t, err)
	assert.Equal(t, bin, path)
}

func TestLocateNowhere(t *testing.T) {
	t.Setenv("REDGRAB_FFMPEG", "")
	t.Setenv("PATH", t.TempDir())

	_, err := Locate("")
	assert.ErrorIs(t, err, common.ErrFFmpegNotFoundError)
}
