package media

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os/exec"
	"time"

	"github.com/rs/zerolog/log"
)

// IsValidHTTPURL reports whether raw parses as an absolute http(s) URL.
// Anything else is treated as a search query.
func IsValidHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// probe fetches video metadata without downloading anything.
func (s *Service) probe(ctx context.Context, videoURL string) (VideoData, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, "yt-dlp", "--dump-json", "--no-download", videoURL).Output()
	if err != nil {
		return VideoData{}, fmt.Errorf("yt-dlp probe: %w", err)
	}
	var info struct {
		ID        string  `json:"id"`
		Title     string  `json:"title"`
		Uploader  string  `json:"uploader"`
		Duration  float64 `json:"duration"`
		Thumbnail string  `json:"thumbnail"`
	}
	if err := json.Unmarshal(out, &info); err != nil {
		return VideoData{}, fmt.Errorf("yt-dlp probe parse: %w", err)
	}
	return VideoData{
		ID:           info.ID,
		Author:       info.Uploader,
		Title:        info.Title,
		Length:       int(info.Duration),
		ThumbnailURL: info.Thumbnail,
	}, nil
}

// download extracts the audio track into the media dir as
// <id>-<unixms>.mp3.
func (s *Service) download(ctx context.Context, videoURL, id string) (string, error) {
	name := fmt.Sprintf("%s-%d.mp3", id, time.Now().UnixMilli())
	outPath := fmt.Sprintf("%s/%s", s.cfg.MediaDir, name)
	cmd := exec.CommandContext(ctx, "yt-dlp",
		"-x", "--audio-format", "mp3",
		"-o", outPath,
		videoURL,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("yt-dlp download: %w: %s", err, out)
	}
	log.Info().Str("module", "media").Str("file", outPath).Msg("downloaded audio")
	return outPath, nil
}

// searchFirstURL resolves a free-text query to the first matching video URL
// via the YouTube search API. An empty return with nil error means no hit.
func (s *Service) searchFirstURL(ctx context.Context, query string) (string, error) {
	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("maxResults", "1")
	q.Set("q", query)
	q.Set("type", "video")
	q.Set("key", s.cfg.YouTubeAPIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://www.googleapis.com/youtube/v3/search?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search api status %d", resp.StatusCode)
	}

	var body struct {
		Items []struct {
			ID struct {
				VideoID string `json:"videoId"`
			} `json:"id"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if len(body.Items) == 0 || body.Items[0].ID.VideoID == "" {
		return "", nil
	}
	return "https://youtu.be/" + body.Items[0].ID.VideoID, nil
}
