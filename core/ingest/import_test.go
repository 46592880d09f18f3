package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"melodex/apperr"
	"melodex/core/youtube"
	"melodex/model"
)

type fakeSource struct {
	videos       []youtube.Video
	searchErr    error
	searchCalls  int
	meta         *youtube.Metadata
	metaErr      error
	downloadFunc func(url, outputPattern string) error
	downloads    []string
}

func (f *fakeSource) Search(_ context.Context, _ string, _ int) ([]youtube.Video, error) {
	f.searchCalls++
	return f.videos, f.searchErr
}

func (f *fakeSource) FetchMetadata(_ context.Context, _ string) (*youtube.Metadata, error) {
	return f.meta, f.metaErr
}

func (f *fakeSource) DownloadAudio(url, outputPattern string) error {
	f.downloads = append(f.downloads, url)
	if f.downloadFunc != nil {
		return f.downloadFunc(url, outputPattern)
	}
	return nil
}

// writeExtractedFile simulates the extraction tool completing: it replaces
// the %(ext)s placeholder and writes a non-empty file.
func writeExtractedFile(t *testing.T, outputPattern, ext string) {
	t.Helper()
	path := strings.Replace(outputPattern, "%(ext)s", ext, 1)
	if err := os.WriteFile(path, []byte("extracted-audio"), 0644); err != nil {
		t.Fatalf("write extracted file: %v", err)
	}
}

func TestImportFromURLSuccess(t *testing.T) {
	p := newPipeline(t)
	p.source.meta = &youtube.Metadata{
		Title:     "Imported Song",
		Uploader:  "Some Channel",
		Duration:  240,
		Thumbnail: "https://img.example.com/cover.jpg",
	}
	p.source.downloadFunc = func(_, outputPattern string) error {
		writeExtractedFile(t, outputPattern, "m4a")
		return nil
	}

	owner := primitive.NewObjectID()
	song, err := p.svc.ImportFromURL(context.Background(), "https://video.example.com/watch?v=abc", owner)
	if err != nil {
		t.Fatalf("ImportFromURL: %v", err)
	}
	if song.Title != "Imported Song" {
		t.Errorf("title = %q", song.Title)
	}
	if song.Artist != "Some Channel" {
		t.Errorf("artist = %q", song.Artist)
	}
	if song.PosterImage != "https://img.example.com/cover.jpg" {
		t.Errorf("poster = %q", song.PosterImage)
	}
	if song.URL != "http://storage.local/audios/Imported_Song.m4a" {
		t.Errorf("url = %q", song.URL)
	}
	if _, ok := p.blob.objects["Imported_Song.m4a"]; !ok {
		t.Error("blob not stored")
	}

	// Temp files must be cleaned up on success too.
	matches, _ := filepath.Glob(filepath.Join(p.svc.cfg.ImportTempDir, "*"))
	if len(matches) != 0 {
		t.Errorf("temp files left behind: %v", matches)
	}
}

func TestImportFromURLMissingUploaderFallsBack(t *testing.T) {
	p := newPipeline(t)
	p.source.meta = &youtube.Metadata{Title: "No Uploader", Duration: 100}
	p.source.downloadFunc = func(_, outputPattern string) error {
		writeExtractedFile(t, outputPattern, "mp3")
		return nil
	}

	song, err := p.svc.ImportFromURL(context.Background(), "https://video.example.com/x", primitive.NilObjectID)
	if err != nil {
		t.Fatalf("ImportFromURL: %v", err)
	}
	if song.Artist != "Unknown Artist" {
		t.Errorf("artist = %q, want Unknown Artist", song.Artist)
	}
	if song.PosterImage != model.DefaultPosterImage {
		t.Errorf("poster = %q, want default", song.PosterImage)
	}
}

// A missing import category is a deployment problem and must surface before
// any download starts.
func TestImportFromURLMissingCategoryFailsBeforeDownload(t *testing.T) {
	p := newPipeline(t)
	p.svc.categories = &fakeCategoryStore{category: nil}
	p.source.meta = &youtube.Metadata{Title: "Anything", Duration: 100}

	_, err := p.svc.ImportFromURL(context.Background(), "https://video.example.com/x", primitive.NilObjectID)
	if !apperr.IsKind(err, apperr.KindConfigurationError) {
		t.Fatalf("err = %v, want ConfigurationError", err)
	}
	if len(p.source.downloads) != 0 {
		t.Error("download must not start when the import category is missing")
	}
}

func TestImportFromURLDuplicateTitleBeforeDownload(t *testing.T) {
	p := newPipeline(t)
	if _, err := p.svc.CreateFromUpload(context.Background(), validUpload(primitive.NilObjectID)); err != nil {
		t.Fatalf("seed song: %v", err)
	}
	p.source.meta = &youtube.Metadata{Title: "Test Song", Duration: 100}

	_, err := p.svc.ImportFromURL(context.Background(), "https://video.example.com/x", primitive.NilObjectID)
	if !apperr.IsKind(err, apperr.KindDuplicateTitle) {
		t.Fatalf("err = %v, want DuplicateTitle", err)
	}
	if len(p.source.downloads) != 0 {
		t.Error("download must not start for a duplicate title")
	}
}

// When extraction never produces a file the wait gives up after the
// configured timeout and nothing is left on disk.
func TestImportFromURLExtractionTimeout(t *testing.T) {
	p := newPipeline(t)
	p.source.meta = &youtube.Metadata{Title: "Never Arrives", Duration: 100}

	_, err := p.svc.ImportFromURL(context.Background(), "https://video.example.com/x", primitive.NilObjectID)
	if !apperr.IsKind(err, apperr.KindExtractionTimeout) {
		t.Fatalf("err = %v, want ExtractionTimeout", err)
	}
	if len(p.blob.objects) != 0 {
		t.Error("nothing should reach the blob store on timeout")
	}
}

func TestImportManyPartialFailure(t *testing.T) {
	p := newPipeline(t)
	calls := 0
	p.source.meta = &youtube.Metadata{Title: "Batch Song", Duration: 100}
	p.source.downloadFunc = func(_, outputPattern string) error {
		calls++
		if calls == 1 {
			writeExtractedFile(t, outputPattern, "m4a")
		}
		// Second call writes nothing, so that import times out.
		return nil
	}

	songs, failures := p.svc.ImportMany(context.Background(),
		[]string{"https://video.example.com/a", "https://video.example.com/b"}, primitive.NilObjectID)
	if len(songs) != 1 {
		t.Fatalf("imported = %d, want 1", len(songs))
	}
	if len(failures) != 1 {
		t.Fatalf("failures = %v, want one entry", failures)
	}
	ferr, ok := failures["https://video.example.com/b"]
	if !ok {
		t.Fatalf("missing failure for second url: %v", failures)
	}
	// Second import of the same title fails fast as a duplicate, before any
	// download runs.
	if !apperr.IsKind(ferr, apperr.KindDuplicateTitle) {
		t.Errorf("second failure = %v, want DuplicateTitle", ferr)
	}
}

func TestWaitForFileFindsExisting(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "track.mp3"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	path, err := waitForFile(context.Background(), dir, "track", audioExtensions, time.Millisecond, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("waitForFile: %v", err)
	}
	if filepath.Base(path) != "track.mp3" {
		t.Errorf("path = %q", path)
	}
}

func TestWaitForFileIgnoresEmptyFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "track.mp3"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	_, err := waitForFile(context.Background(), dir, "track", audioExtensions, time.Millisecond, 50*time.Millisecond)
	if !apperr.IsKind(err, apperr.KindExtractionTimeout) {
		t.Fatalf("err = %v, want ExtractionTimeout", err)
	}
}
