package media

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// sampleRate is the base rate the pitch shift is computed against.
const sampleRate = 48000

// BuildAudioFilter produces the ffmpeg -af expression for a pitch shift of
// semitoneShift semitones and a tempo factor of playbackSpeed.
func BuildAudioFilter(semitoneShift int, playbackSpeed float64) string {
	hz := float64(sampleRate) * math.Pow(2, float64(semitoneShift)/12)
	return fmt.Sprintf("asetrate=%d,aresample=%d,atempo=%s",
		int(hz), sampleRate, formatSpeed(playbackSpeed))
}

// OutputPath derives the transcoded file name: name_<shift>_x<speed><ext>,
// next to the input.
func OutputPath(filePath string, semitoneShift int, playbackSpeed float64) string {
	dir := filepath.Dir(filePath)
	ext := filepath.Ext(filePath)
	name := strings.TrimSuffix(filepath.Base(filePath), ext)
	out := fmt.Sprintf("%s_%d_x%s%s", name, semitoneShift, formatSpeed(playbackSpeed), ext)
	return filepath.Join(dir, out)
}

// PitchAndTempoSuffix is appended to the track title so shifted variants
// stay distinguishable.
func PitchAndTempoSuffix(semitoneShift int, playbackSpeed float64) string {
	return fmt.Sprintf("(%+d, x%s)", semitoneShift, formatSpeed(playbackSpeed))
}

func formatSpeed(speed float64) string {
	return strconv.FormatFloat(speed, 'f', -1, 64)
}

// ModifyPitchAndTempo runs ffmpeg over the input file and returns the path
// of the produced file. Slow and external; the caller owns the timeout.
func (s *Service) ModifyPitchAndTempo(ctx context.Context, filePath string, semitoneShift int, playbackSpeed float64) (string, error) {
	outPath := OutputPath(filePath, semitoneShift, playbackSpeed)
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y", "-i", filePath,
		"-af", BuildAudioFilter(semitoneShift, playbackSpeed),
		outPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("ffmpeg: %w: %s", err, out)
	}
	log.Info().Str("module", "media").Str("file", outPath).Int("shift", semitoneShift).Float64("speed", playbackSpeed).Msg("transcoded")
	return outPath, nil
}

func (s *Service) audioLengthSeconds(ctx context.Context, filePath string) (int, error) {
	out, err := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		filePath,
	).Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe parse: %w", err)
	}
	return int(seconds), nil
}
