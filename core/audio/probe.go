package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"strconv"

	"melodex/apperr"
)

// Prober extracts playback metadata from raw audio bytes.
type Prober interface {
	// Duration returns the audio duration in seconds. Failure to parse the
	// bytes surfaces as InvalidAudio.
	Duration(ctx context.Context, data []byte, mimeType string) (float64, error)
}

// FFprobe implements Prober by shelling out to ffprobe.
type FFprobe struct {
	path string
}

// NewFFprobe creates a Prober using the given ffprobe binary.
func NewFFprobe(path string) *FFprobe {
	return &FFprobe{path: path}
}

// ffprobeOutput is the subset of ffprobe JSON output we consume.
type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Duration writes the bytes to a temp file and probes it. ffprobe needs a
// seekable input for several container formats, so stdin piping is not an
// option here.
func (p *FFprobe) Duration(ctx context.Context, data []byte, mimeType string) (float64, error) {
	tmp, err := os.CreateTemp("", "probe-*")
	if err != nil {
		return 0, apperr.Wrap(apperr.KindInvalidAudio, "could not stage audio for probing", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return 0, apperr.Wrap(apperr.KindInvalidAudio, "could not stage audio for probing", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, apperr.Wrap(apperr.KindInvalidAudio, "could not stage audio for probing", err)
	}

	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		tmp.Name(),
	}

	cmd := exec.CommandContext(ctx, p.path, args...)
	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, apperr.Wrap(apperr.KindInvalidAudio, "could not read audio duration", err)
	}

	var probeData ffprobeOutput
	if err := json.Unmarshal(out.Bytes(), &probeData); err != nil {
		return 0, apperr.Wrap(apperr.KindInvalidAudio, "could not read audio duration", err)
	}
	if probeData.Format.Duration == "" {
		return 0, apperr.New(apperr.KindInvalidAudio, "no duration found in audio file")
	}

	duration, err := strconv.ParseFloat(probeData.Format.Duration, 64)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindInvalidAudio, "could not read audio duration", err)
	}
	return duration, nil
}
