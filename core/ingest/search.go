package ingest

import (
	"context"
)

// Candidate is a video considered for import, with the estimated size of its
// audio-only download.
type Candidate struct {
	URL            string  `json:"url"`
	Title          string  `json:"title"`
	Duration       float64 `json:"duration"`
	Thumbnail      string  `json:"thumbnail"`
	Uploader       string  `json:"uploader"`
	EstimatedBytes int64   `json:"estimatedBytes"`
}

// SearchCandidates searches the video source and filters the results down to
// importable candidates: non-video entries are dropped, the audio size is
// estimated from duration at the configured constant bitrate, oversized
// candidates are dropped, and the list is capped. The source's relevance
// order is preserved; there is no re-ranking.
func (s *Service) SearchCandidates(ctx context.Context, query string) ([]Candidate, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, query); ok {
			return cached, nil
		}
	}

	videos, err := s.source.Search(ctx, query, s.cfg.SearchResultLimit)
	if err != nil {
		return nil, err
	}

	maxBytes := int64(s.cfg.MaxEstimatedSizeMB) * 1024 * 1024
	candidates := make([]Candidate, 0, s.cfg.SearchResultLimit)
	for _, video := range videos {
		// Channels and playlists come back without a duration; only actual
		// videos are importable.
		if video.Duration <= 0 {
			continue
		}
		estimated := int64(video.Duration * float64(s.cfg.EstimateBitrateKbps) * 1000 / 8)
		if estimated > maxBytes {
			continue
		}
		candidates = append(candidates, Candidate{
			URL:            video.URL,
			Title:          video.Title,
			Duration:       video.Duration,
			Thumbnail:      video.Thumbnail,
			Uploader:       video.Uploader,
			EstimatedBytes: estimated,
		})
		if len(candidates) == s.cfg.SearchResultLimit {
			break
		}
	}

	if s.cache != nil {
		s.cache.Set(ctx, query, candidates)
	}
	return candidates, nil
}
