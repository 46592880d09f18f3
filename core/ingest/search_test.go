package ingest

import (
	"context"
	"testing"

	"melodex/core/youtube"
)

type memorySearchCache struct {
	entries map[string][]Candidate
	sets    int
}

func newMemorySearchCache() *memorySearchCache {
	return &memorySearchCache{entries: make(map[string][]Candidate)}
}

func (c *memorySearchCache) Get(_ context.Context, query string) ([]Candidate, bool) {
	candidates, ok := c.entries[query]
	return candidates, ok
}

func (c *memorySearchCache) Set(_ context.Context, query string, candidates []Candidate) {
	c.sets++
	c.entries[query] = candidates
}

func TestSearchCandidatesFiltersAndOrders(t *testing.T) {
	p := newPipeline(t)
	// Limit 3, max 10MB at 128kbps: anything longer than 655s estimates over
	// the cap.
	p.source.videos = []youtube.Video{
		{URL: "u1", Title: "first", Duration: 100},
		{URL: "u2", Title: "a channel", Duration: 0}, // not a video
		{URL: "u3", Title: "too long", Duration: 3600},
		{URL: "u4", Title: "second", Duration: 200},
		{URL: "u5", Title: "third", Duration: 300},
		{URL: "u6", Title: "overflow", Duration: 50},
	}

	candidates, err := p.svc.SearchCandidates(context.Background(), "test query")
	if err != nil {
		t.Fatalf("SearchCandidates: %v", err)
	}
	if len(candidates) != 3 {
		t.Fatalf("len = %d, want 3", len(candidates))
	}
	// Source relevance order is preserved, no re-ranking.
	for i, want := range []string{"first", "second", "third"} {
		if candidates[i].Title != want {
			t.Errorf("candidates[%d].Title = %q, want %q", i, candidates[i].Title, want)
		}
	}
	// 100s at 128kbps estimates to 1.6MB.
	if candidates[0].EstimatedBytes != 1600000 {
		t.Errorf("EstimatedBytes = %d, want 1600000", candidates[0].EstimatedBytes)
	}
}

func TestSearchCandidatesCacheHitSkipsSource(t *testing.T) {
	p := newPipeline(t)
	cache := newMemorySearchCache()
	p.svc.cache = cache
	p.source.videos = []youtube.Video{{URL: "u1", Title: "only", Duration: 60}}

	first, err := p.svc.SearchCandidates(context.Background(), "q")
	if err != nil {
		t.Fatalf("first search: %v", err)
	}
	second, err := p.svc.SearchCandidates(context.Background(), "q")
	if err != nil {
		t.Fatalf("second search: %v", err)
	}

	if p.source.searchCalls != 1 {
		t.Errorf("source called %d times, want 1", p.source.searchCalls)
	}
	if cache.sets != 1 {
		t.Errorf("cache set %d times, want 1", cache.sets)
	}
	if len(first) != 1 || len(second) != 1 || first[0].URL != second[0].URL {
		t.Errorf("cached result differs: %v vs %v", first, second)
	}
}

func TestSearchCandidatesEmptyResult(t *testing.T) {
	p := newPipeline(t)
	p.source.videos = nil

	candidates, err := p.svc.SearchCandidates(context.Background(), "nothing")
	if err != nil {
		t.Fatalf("SearchCandidates: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("len = %d, want 0", len(candidates))
	}
}
