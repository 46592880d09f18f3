package catalog

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"melodex/apperr"
	"melodex/model"
	"melodex/repository"
)

// MembershipAction selects how a playlist's song list is mutated.
type MembershipAction string

const (
	ActionAdd    MembershipAction = "add"
	ActionRemove MembershipAction = "remove"
)

// Service is the thin catalog query/update layer for playlists.
type Service struct {
	playlists repository.PlaylistRepository
	songs     repository.SongRepository
}

// NewService wires the catalog service.
func NewService(playlists repository.PlaylistRepository, songs repository.SongRepository) *Service {
	return &Service{playlists: playlists, songs: songs}
}

// Create makes a new, empty playlist with a globally unique name.
func (s *Service) Create(ctx context.Context, name string, owner primitive.ObjectID) (*model.Playlist, error) {
	playlist := &model.Playlist{Name: name, OwnerUserID: owner}
	if err := playlist.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.playlists.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Newf(apperr.KindDuplicateEntry, "a playlist named %q already exists", name)
	}

	return s.playlists.Insert(ctx, playlist)
}

// UpdateMembership adds or removes a single song reference. Adding an
// existing member fails with AlreadyMember, removing an absent one with
// NotMember; anything other than add/remove is InvalidAction. The check and
// the write are not atomic together; the document-level update is the only
// guard, which matches the catalog store's guarantees.
func (s *Service) UpdateMembership(ctx context.Context, playlistID, songID primitive.ObjectID, action MembershipAction) (*model.Playlist, error) {
	playlist, err := s.playlists.FindByID(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if playlist == nil {
		return nil, apperr.New(apperr.KindNotFound, "playlist not found")
	}

	switch action {
	case ActionAdd:
		if playlist.Contains(songID) {
			return nil, apperr.New(apperr.KindAlreadyMember, "song is already in the playlist")
		}
		return s.playlists.AddSong(ctx, playlistID, songID)
	case ActionRemove:
		if !playlist.Contains(songID) {
			return nil, apperr.New(apperr.KindNotMember, "song is not in the playlist")
		}
		return s.playlists.RemoveSong(ctx, playlistID, songID)
	default:
		return nil, apperr.Newf(apperr.KindInvalidAction, "unknown action %q, use add or remove", action)
	}
}

// GetWithSongs loads a playlist and its songs in playlist order. Dangling
// song references are tolerated and simply skipped.
func (s *Service) GetWithSongs(ctx context.Context, playlistID primitive.ObjectID) (*model.Playlist, []*model.Song, error) {
	playlist, err := s.playlists.FindByID(ctx, playlistID)
	if err != nil {
		return nil, nil, err
	}
	if playlist == nil {
		return nil, nil, apperr.New(apperr.KindNotFound, "playlist not found")
	}

	songs, err := s.songs.FindByIDs(ctx, playlist.Songs)
	if err != nil {
		return nil, nil, err
	}
	return playlist, songs, nil
}

// ListByOwner pages through a user's playlists, deriving each cover from the
// first member song that has one.
func (s *Service) ListByOwner(ctx context.Context, owner primitive.ObjectID, opts repository.PageOptions) (*repository.Page[*model.Playlist], error) {
	page, err := s.playlists.ByOwner(ctx, owner, opts)
	if err != nil {
		return nil, err
	}

	for _, playlist := range page.Data {
		songs, err := s.songs.FindByIDs(ctx, playlist.Songs)
		if err != nil {
			return nil, err
		}
		for _, song := range songs {
			if song.PosterImage != "" {
				playlist.PosterImage = song.PosterImage
				break
			}
		}
	}
	return page, nil
}

// Rename changes a playlist's name, keeping names globally unique.
func (s *Service) Rename(ctx context.Context, playlistID primitive.ObjectID, name string) (*model.Playlist, error) {
	if l := len(name); l < 1 || l > 100 {
		return nil, apperr.New(apperr.KindValidationFailed, "name must be 1-100 characters")
	}

	existing, err := s.playlists.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.ID != playlistID {
		return nil, apperr.Newf(apperr.KindDuplicateEntry, "a playlist named %q already exists", name)
	}

	updated, err := s.playlists.Rename(ctx, playlistID, name)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperr.New(apperr.KindNotFound, "playlist not found")
	}
	return updated, nil
}

// Delete removes a playlist. Songs themselves are untouched.
func (s *Service) Delete(ctx context.Context, playlistID primitive.ObjectID) error {
	playlist, err := s.playlists.FindByID(ctx, playlistID)
	if err != nil {
		return err
	}
	if playlist == nil {
		return apperr.New(apperr.KindNotFound, "playlist not found")
	}
	return s.playlists.Remove(ctx, playlistID)
}
