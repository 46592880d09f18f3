package youtube

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"melodex/apperr"
	"melodex/logger"
)

// Video describes a search result candidate.
type Video struct {
	URL       string  `json:"url"`
	Title     string  `json:"title"`
	Duration  float64 `json:"duration"`
	Thumbnail string  `json:"thumbnail"`
	Uploader  string  `json:"uploader"`
}

// Metadata describes a single video resolved from a URL.
type Metadata struct {
	Title     string
	Uploader  string
	Duration  float64
	Thumbnail string
}

// Source is the video platform boundary. No availability or stability is
// guaranteed; callers receive errors from the apperr taxonomy only.
type Source interface {
	Search(ctx context.Context, query string, limit int) ([]Video, error)
	FetchMetadata(ctx context.Context, url string) (*Metadata, error)
	// DownloadAudio starts an audio extraction writing to outputPattern on
	// local disk and returns without waiting for completion. There is no
	// completion callback; callers watch the filesystem.
	DownloadAudio(url, outputPattern string) error
}

// Client implements Source by shelling out to yt-dlp.
type Client struct {
	binPath string
}

// NewClient creates a Source using the given yt-dlp binary.
func NewClient(binPath string) *Client {
	return &Client{binPath: binPath}
}

// searchEntry is the subset of yt-dlp flat-playlist JSON we consume.
type searchEntry struct {
	Type       string  `json:"_type"`
	URL        string  `json:"url"`
	Title      string  `json:"title"`
	Duration   float64 `json:"duration"`
	Uploader   string  `json:"uploader"`
	Thumbnails []struct {
		URL string `json:"url"`
	} `json:"thumbnails"`
}

// Search runs a text search and returns candidates in the platform's
// relevance order.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Video, error) {
	args := []string{
		fmt.Sprintf("ytsearch%d:%s", limit, query),
		"--dump-json",
		"--flat-playlist",
		"--no-warnings",
	}

	cmd := exec.CommandContext(ctx, c.binPath, args...)
	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		logger.Error("video source search failed",
			logger.String("query", query),
			logger.String("stderr", stderr.String()),
			logger.ErrorField(err))
		return nil, apperr.Wrap(apperr.KindInternal, "video source search failed", err)
	}

	// yt-dlp emits one JSON object per line.
	videos := make([]Video, 0, limit)
	scanner := bufio.NewScanner(&out)
	scanner.Buffer(make([]byte, 0, 1024*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var entry searchEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			logger.Warn("skipping unparsable search entry", logger.ErrorField(err))
			continue
		}
		video := Video{
			URL:      entry.URL,
			Title:    entry.Title,
			Duration: entry.Duration,
			Uploader: entry.Uploader,
		}
		if len(entry.Thumbnails) > 0 {
			video.Thumbnail = entry.Thumbnails[len(entry.Thumbnails)-1].URL
		}
		videos = append(videos, video)
	}
	if err := scanner.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "video source search failed", err)
	}

	return videos, nil
}

// metadataEntry is the subset of yt-dlp single-video JSON we consume.
type metadataEntry struct {
	Title     string  `json:"title"`
	Uploader  string  `json:"uploader"`
	Duration  float64 `json:"duration"`
	Thumbnail string  `json:"thumbnail"`
}

// FetchMetadata resolves title, uploader, duration and thumbnail for a URL.
func (c *Client) FetchMetadata(ctx context.Context, url string) (*Metadata, error) {
	args := []string{
		url,
		"--dump-json",
		"--no-playlist",
		"--skip-download",
		"--no-warnings",
	}

	cmd := exec.CommandContext(ctx, c.binPath, args...)
	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		logger.Error("video metadata fetch failed",
			logger.String("url", url),
			logger.String("stderr", stderr.String()),
			logger.ErrorField(err))
		return nil, apperr.Wrap(apperr.KindInternal, "could not fetch video metadata", err)
	}

	var entry metadataEntry
	if err := json.Unmarshal(out.Bytes(), &entry); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "could not fetch video metadata", err)
	}
	if entry.Title == "" {
		return nil, apperr.New(apperr.KindInternal, "video metadata is missing a title")
	}

	return &Metadata{
		Title:     entry.Title,
		Uploader:  entry.Uploader,
		Duration:  entry.Duration,
		Thumbnail: entry.Thumbnail,
	}, nil
}

// DownloadAudio starts a best-audio extraction into outputPattern and
// returns immediately. The pattern should contain yt-dlp's %(ext)s
// placeholder; the produced extension depends on the source format.
func (c *Client) DownloadAudio(url, outputPattern string) error {
	args := []string{
		url,
		"--extract-audio",
		"--no-playlist",
		"--no-warnings",
		"--output", outputPattern,
	}

	cmd := exec.Command(c.binPath, args...)
	if err := cmd.Start(); err != nil {
		return apperr.Wrap(apperr.KindInternal, "could not start audio extraction", err)
	}

	// Reap the process in the background so it does not zombie; failures are
	// observed by the caller's filesystem wait, not here.
	go func() {
		if err := cmd.Wait(); err != nil {
			logger.Warn("audio extraction process exited with error",
				logger.String("url", url),
				logger.ErrorField(err))
		}
	}()

	return nil
}
