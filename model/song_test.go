package model

import (
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"melodex/apperr"
)

func validSong() *Song {
	return &Song{
		Title:    "A Song",
		Artist:   "An Artist",
		URL:      "https://storage.local/audios/a_song.mp3",
		Duration: 120,
		Category: []primitive.ObjectID{primitive.NewObjectID()},
	}
}

func TestSongValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Song)
		wantOK bool
	}{
		{"valid", func(s *Song) {}, true},
		{"empty title", func(s *Song) { s.Title = "" }, false},
		{"title too long", func(s *Song) { s.Title = strings.Repeat("x", 101) }, false},
		{"title at limit", func(s *Song) { s.Title = strings.Repeat("x", 100) }, true},
		{"empty artist", func(s *Song) { s.Artist = "" }, false},
		{"url without extension", func(s *Song) { s.URL = "https://storage.local/audios/a_song" }, false},
		{"url wrong extension", func(s *Song) { s.URL = "https://storage.local/a.txt" }, false},
		{"url uppercase extension", func(s *Song) { s.URL = "https://storage.local/a.MP3" }, true},
		{"url not http", func(s *Song) { s.URL = "ftp://storage.local/a.mp3" }, false},
		{"negative duration", func(s *Song) { s.Duration = -1 }, false},
		{"zero duration", func(s *Song) { s.Duration = 0 }, true},
		{"bad poster", func(s *Song) { s.PosterImage = "https://img.local/poster.bmp" }, false},
		{"good poster", func(s *Song) { s.PosterImage = "https://img.local/poster.webp" }, true},
		{"no categories", func(s *Song) { s.Category = nil }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			song := validSong()
			tt.mutate(song)
			err := song.Validate()
			if tt.wantOK && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.wantOK {
				if err == nil {
					t.Fatal("Validate() = nil, want error")
				}
				if !apperr.IsKind(err, apperr.KindValidationFailed) {
					t.Errorf("kind = %v, want ValidationFailed", apperr.KindOf(err))
				}
			}
		})
	}
}

func TestIsValidPosterURL(t *testing.T) {
	if !IsValidPosterURL("https://img.local/a.jpg") {
		t.Error("jpg should be valid")
	}
	if IsValidPosterURL("https://img.local/a.svg") {
		t.Error("svg should be invalid")
	}
	if IsValidPosterURL("") {
		t.Error("empty should be invalid")
	}
}
