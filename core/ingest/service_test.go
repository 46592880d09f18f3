package ingest

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"melodex/apperr"
	"melodex/config"
	"melodex/model"
)

// --- fakes ---

type fakeSongStore struct {
	mu        sync.Mutex
	byTitle   map[string]*model.Song
	byID      map[primitive.ObjectID]*model.Song
	insertErr error
	removed   []primitive.ObjectID
}

func newFakeSongStore() *fakeSongStore {
	return &fakeSongStore{
		byTitle: make(map[string]*model.Song),
		byID:    make(map[primitive.ObjectID]*model.Song),
	}
}

func (f *fakeSongStore) FindByID(_ context.Context, id primitive.ObjectID) (*model.Song, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id], nil
}

func (f *fakeSongStore) FindByTitle(_ context.Context, title string) (*model.Song, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byTitle[title], nil
}

func (f *fakeSongStore) Insert(_ context.Context, song *model.Song) (*model.Song, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	if _, dup := f.byTitle[song.Title]; dup {
		return nil, apperr.New(apperr.KindDuplicateTitle, "a song with that title already exists")
	}
	stored := *song
	stored.ID = primitive.NewObjectID()
	f.byTitle[stored.Title] = &stored
	f.byID[stored.ID] = &stored
	return &stored, nil
}

func (f *fakeSongStore) Update(_ context.Context, id primitive.ObjectID, patch *model.SongPatch) (*model.Song, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	song, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	updated := *song
	patch.ApplyTo(&updated)
	delete(f.byTitle, song.Title)
	f.byID[id] = &updated
	f.byTitle[updated.Title] = &updated
	return &updated, nil
}

func (f *fakeSongStore) Remove(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if song, ok := f.byID[id]; ok {
		delete(f.byTitle, song.Title)
		delete(f.byID, id)
	}
	f.removed = append(f.removed, id)
	return nil
}

type fakeUserStore struct {
	appendErr error
	appended  []primitive.ObjectID
}

func (f *fakeUserStore) AppendCreatedSong(_ context.Context, _, songID primitive.ObjectID) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, songID)
	return nil
}

type fakeCategoryStore struct {
	category *model.Category
}

func (f *fakeCategoryStore) FindByName(_ context.Context, _ string) (*model.Category, error) {
	return f.category, nil
}

type fakeBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	deleted []string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string][]byte)}
}

func (f *fakeBlobStore) Put(_ context.Context, key string, data []byte, _ string, overwrite bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return "", f.putErr
	}
	if _, exists := f.objects[key]; exists && !overwrite {
		return "", apperr.Newf(apperr.KindStorageConflict, "an object named %q already exists", key)
	}
	f.objects[key] = data
	return key, nil
}

func (f *fakeBlobStore) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.objects, key)
		f.deleted = append(f.deleted, key)
	}
	return nil
}

func (f *fakeBlobStore) Exists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok, nil
}

func (f *fakeBlobStore) Open(_ context.Context, _ string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

type fakeProber struct {
	duration float64
	err      error
}

func (f *fakeProber) Duration(_ context.Context, _ []byte, _ string) (float64, error) {
	return f.duration, f.err
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		PublicStorageBaseURL: "http://storage.local/audios",
		ImportCategoryName:   "YouTube",
		ImportTempDir:        t.TempDir(),
		PollInterval:         5 * time.Millisecond,
		ImportTimeout:        300 * time.Millisecond,
		SearchResultLimit:    3,
		MaxEstimatedSizeMB:   10,
		EstimateBitrateKbps:  128,
	}
}

type pipelineFixture struct {
	songs  *fakeSongStore
	users  *fakeUserStore
	blob   *fakeBlobStore
	source *fakeSource
	svc    *Service
}

func newPipeline(t *testing.T) *pipelineFixture {
	songs := newFakeSongStore()
	users := &fakeUserStore{}
	blob := newFakeBlobStore()
	source := &fakeSource{}
	categories := &fakeCategoryStore{category: &model.Category{ID: primitive.NewObjectID(), Name: "YouTube"}}
	svc := NewService(songs, users, categories, blob, source, &fakeProber{duration: 180}, nil, testConfig(t))
	return &pipelineFixture{songs: songs, users: users, blob: blob, source: source, svc: svc}
}

func validUpload(owner primitive.ObjectID) UploadInput {
	return UploadInput{
		Title:     "Test Song",
		Artist:    "Test Artist",
		Category:  []primitive.ObjectID{primitive.NewObjectID()},
		FileBytes: []byte("audio-bytes"),
		FileName:  "upload.mp3",
		MimeType:  "audio/mpeg",
		OwnerID:   owner,
	}
}

// --- tests ---

func TestCreateFromUploadSuccess(t *testing.T) {
	p := newPipeline(t)
	owner := primitive.NewObjectID()

	song, err := p.svc.CreateFromUpload(context.Background(), validUpload(owner))
	if err != nil {
		t.Fatalf("CreateFromUpload: %v", err)
	}
	if song.ID.IsZero() {
		t.Error("expected a persisted id")
	}
	if song.Duration != 180 {
		t.Errorf("duration = %v, want 180", song.Duration)
	}
	if song.URL != "http://storage.local/audios/Test_Song.mp3" {
		t.Errorf("unexpected url %q", song.URL)
	}
	if song.PosterImage != model.DefaultPosterImage {
		t.Errorf("expected default poster, got %q", song.PosterImage)
	}
	if _, ok := p.blob.objects["Test_Song.mp3"]; !ok {
		t.Error("blob was not stored")
	}
	if len(p.users.appended) != 1 || p.users.appended[0] != song.ID {
		t.Errorf("owner attribution = %v, want [%s]", p.users.appended, song.ID.Hex())
	}
}

func TestCreateFromUploadDuplicateTitle(t *testing.T) {
	p := newPipeline(t)
	if _, err := p.svc.CreateFromUpload(context.Background(), validUpload(primitive.NewObjectID())); err != nil {
		t.Fatalf("first create: %v", err)
	}

	in := validUpload(primitive.NewObjectID())
	in.FileName = "other.mp3"
	_, err := p.svc.CreateFromUpload(context.Background(), in)
	if !apperr.IsKind(err, apperr.KindDuplicateTitle) {
		t.Fatalf("err = %v, want DuplicateTitle", err)
	}
}

func TestCreateFromUploadInvalidAudioLeavesNoBlob(t *testing.T) {
	p := newPipeline(t)
	p.svc.prober = &fakeProber{err: apperr.New(apperr.KindInvalidAudio, "not an audio file")}

	_, err := p.svc.CreateFromUpload(context.Background(), validUpload(primitive.NewObjectID()))
	if !apperr.IsKind(err, apperr.KindInvalidAudio) {
		t.Fatalf("err = %v, want InvalidAudio", err)
	}
	if len(p.blob.objects) != 0 {
		t.Error("no blob should be written for invalid audio")
	}
}

func TestCreateFromUploadValidationBeforeUpload(t *testing.T) {
	p := newPipeline(t)
	in := validUpload(primitive.NewObjectID())
	in.Category = nil

	_, err := p.svc.CreateFromUpload(context.Background(), in)
	if !apperr.IsKind(err, apperr.KindValidationFailed) {
		t.Fatalf("err = %v, want ValidationFailed", err)
	}
	if len(p.blob.objects) != 0 {
		t.Error("validation failures must not reach the blob store")
	}
}

// A catalog insert failure after the blob upload must delete the blob again.
func TestCreateFromUploadInsertFailureCompensatesBlob(t *testing.T) {
	p := newPipeline(t)
	p.songs.insertErr = apperr.New(apperr.KindInternal, "write failed")

	_, err := p.svc.CreateFromUpload(context.Background(), validUpload(primitive.NewObjectID()))
	if !apperr.IsKind(err, apperr.KindInternal) {
		t.Fatalf("err = %v, want InternalError", err)
	}
	if len(p.blob.objects) != 0 {
		t.Errorf("orphaned blob left behind: %v", p.blob.objects)
	}
	if len(p.blob.deleted) != 1 {
		t.Errorf("expected exactly one compensating delete, got %v", p.blob.deleted)
	}
}

// An insert-time duplicate (the race the pre-check cannot close) compensates
// exactly like any other insert failure and surfaces as DuplicateTitle.
func TestCreateFromUploadInsertRaceDuplicate(t *testing.T) {
	p := newPipeline(t)
	p.songs.insertErr = apperr.New(apperr.KindDuplicateTitle, "a song with that title already exists")

	_, err := p.svc.CreateFromUpload(context.Background(), validUpload(primitive.NewObjectID()))
	if !apperr.IsKind(err, apperr.KindDuplicateTitle) {
		t.Fatalf("err = %v, want DuplicateTitle", err)
	}
	if len(p.blob.objects) != 0 {
		t.Error("blob must be compensated on an insert-time duplicate")
	}
}

// An owner-reference failure unwinds both the record and the blob, in that
// order, and reports ReferenceUpdateFailed.
func TestCreateFromUploadReferenceFailureFullUnwind(t *testing.T) {
	p := newPipeline(t)
	p.users.appendErr = errors.New("user store down")

	_, err := p.svc.CreateFromUpload(context.Background(), validUpload(primitive.NewObjectID()))
	if !apperr.IsKind(err, apperr.KindReferenceUpdateFailed) {
		t.Fatalf("err = %v, want ReferenceUpdateFailed", err)
	}
	if len(p.blob.objects) != 0 {
		t.Error("blob must be removed after reference failure")
	}
	if len(p.songs.byID) != 0 {
		t.Error("song record must be removed after reference failure")
	}
	if len(p.songs.removed) != 1 {
		t.Errorf("expected one record removal, got %d", len(p.songs.removed))
	}
}

func TestCreateFromUploadUnattributedSkipsOwner(t *testing.T) {
	p := newPipeline(t)

	_, err := p.svc.CreateFromUpload(context.Background(), validUpload(primitive.NilObjectID))
	if err != nil {
		t.Fatalf("CreateFromUpload: %v", err)
	}
	if len(p.users.appended) != 0 {
		t.Error("zero owner must not touch the user store")
	}
}

func TestCreateFromUploadMissingExtension(t *testing.T) {
	p := newPipeline(t)
	in := validUpload(primitive.NewObjectID())
	in.FileName = "noextension"

	_, err := p.svc.CreateFromUpload(context.Background(), in)
	if !apperr.IsKind(err, apperr.KindValidationFailed) {
		t.Fatalf("err = %v, want ValidationFailed", err)
	}
}

func TestUpdateNotFound(t *testing.T) {
	p := newPipeline(t)
	_, err := p.svc.Update(context.Background(), primitive.NewObjectID(), UpdateInput{})
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want NotFound", err)
	}
}

func TestUpdateRenameToExistingTitle(t *testing.T) {
	p := newPipeline(t)
	first, err := p.svc.CreateFromUpload(context.Background(), validUpload(primitive.NilObjectID))
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second := validUpload(primitive.NilObjectID)
	second.Title = "Other Song"
	second.FileName = "other.mp3"
	if _, err := p.svc.CreateFromUpload(context.Background(), second); err != nil {
		t.Fatalf("create second: %v", err)
	}

	newTitle := "Other Song"
	_, err = p.svc.Update(context.Background(), first.ID, UpdateInput{Title: &newTitle})
	if !apperr.IsKind(err, apperr.KindDuplicateTitle) {
		t.Fatalf("err = %v, want DuplicateTitle", err)
	}
}

func TestUpdateWithNewFileReprobesDuration(t *testing.T) {
	p := newPipeline(t)
	song, err := p.svc.CreateFromUpload(context.Background(), validUpload(primitive.NilObjectID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	p.svc.prober = &fakeProber{duration: 95}
	updated, err := p.svc.Update(context.Background(), song.ID, UpdateInput{
		FileBytes: []byte("new-bytes"),
		FileName:  "replacement.mp3",
		MimeType:  "audio/mpeg",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Duration != 95 {
		t.Errorf("duration = %v, want 95", updated.Duration)
	}
	if got := p.blob.objects["Test_Song.mp3"]; string(got) != "new-bytes" {
		t.Errorf("blob not overwritten, got %q", got)
	}
}

func TestDeleteRemovesBlobAndRecord(t *testing.T) {
	p := newPipeline(t)
	song, err := p.svc.CreateFromUpload(context.Background(), validUpload(primitive.NilObjectID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := p.svc.Delete(context.Background(), song.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(p.blob.objects) != 0 {
		t.Error("blob should be deleted with the song")
	}
	if len(p.songs.byID) != 0 {
		t.Error("record should be deleted")
	}
}

func TestDeleteNotFound(t *testing.T) {
	p := newPipeline(t)
	err := p.svc.Delete(context.Background(), primitive.NewObjectID())
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want NotFound", err)
	}
}
