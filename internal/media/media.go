// Package media wraps the out-of-scope collaborators: a resolver for video
// metadata (yt-dlp plus the YouTube search API), an audio downloader and an
// ffmpeg-based pitch/tempo transcoder. The coordinator never depends on any
// of this; it is reachable only through the HTTP surface.
package media

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"songroom/internal/config"
)

var (
	ErrNoResult = errors.New("no video found for query")
	ErrTooLong  = errors.New("video too long")
)

type VideoData struct {
	ID           string `json:"id"`
	Author       string `json:"author"`
	Title        string `json:"title"`
	Length       int    `json:"length"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// Request describes one download job. URL may be a direct locator or a
// search query; a query resolves to the first search result.
type Request struct {
	URL           string  `json:"url"`
	SemitoneShift int     `json:"semitoneShift"`
	PlaybackSpeed float64 `json:"playbackSpeed"`
}

type Result struct {
	FileName  string    `json:"fileName"`
	VideoData VideoData `json:"videoData"`
}

type Service struct {
	cfg    *config.Config
	client *http.Client
}

func NewService(cfg *config.Config) *Service {
	return &Service{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// SaveToDisk resolves, downloads and optionally reshapes one track, and
// returns the produced file name with its metadata. External process
// failures surface as wrapped internal errors; nothing here mutates
// coordinator state.
func (s *Service) SaveToDisk(ctx context.Context, req Request) (Result, error) {
	url := req.URL
	if !IsValidHTTPURL(url) {
		found, err := s.searchFirstURL(ctx, url)
		if err != nil {
			return Result{}, fmt.Errorf("search: %w", err)
		}
		if found == "" {
			return Result{}, fmt.Errorf("%w: %s", ErrNoResult, url)
		}
		url = found
	}

	data, err := s.probe(ctx, url)
	if err != nil {
		return Result{}, err
	}
	if max := s.cfg.MaxVideoMinutes * 60; max > 0 && data.Length > max {
		return Result{}, fmt.Errorf("%w: %ds > %ds", ErrTooLong, data.Length, max)
	}

	if err := os.MkdirAll(s.cfg.MediaDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("media dir: %w", err)
	}
	filePath, err := s.download(ctx, url, data.ID)
	if err != nil {
		return Result{}, err
	}

	shift, speed := req.SemitoneShift, req.PlaybackSpeed
	if speed == 0 {
		speed = 1
	}
	if shift != 0 || speed != 1 {
		outPath, err := s.ModifyPitchAndTempo(ctx, filePath, shift, speed)
		if err != nil {
			return Result{}, err
		}
		filePath = outPath
		data.Title = data.Title + " " + PitchAndTempoSuffix(shift, speed)
		if length, err := s.audioLengthSeconds(ctx, outPath); err == nil {
			data.Length = length
		} else {
			log.Warn().Err(err).Str("module", "media").Str("file", outPath).Msg("probe output length")
		}
	}

	log.Info().Str("module", "media").Str("file", filePath).Str("video", data.ID).Msg("saved to disk")
	return Result{FileName: filepath.Base(filePath), VideoData: data}, nil
}
