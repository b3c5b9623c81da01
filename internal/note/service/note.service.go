package service

import (
	"github.com/oklog/ulid/v2"

	"livenotes/internal/note/gate"
	"livenotes/internal/note/model"
	"livenotes/internal/note/repository"
	"livenotes/internal/note/store"
	"livenotes/pkg/logger"
	"livenotes/socket"
)

// NoteService coordinates note mutations: admission through the gate,
// version-checked application through the store, and fan-out through the hub.
type NoteService struct {
	Repo  *repository.NoteRepository
	Store *store.VersionStore
	Gate  *gate.Gate
	Hub   *socket.Hub
}

func NewNoteService(repo *repository.NoteRepository, st *store.VersionStore, g *gate.Gate, hub *socket.Hub) *NoteService {
	return &NoteService{Repo: repo, Store: st, Gate: g, Hub: hub}
}

// CreateNote creates a note at version 1 for username and announces it to all
// of the user's connections, the creator included.
func (s *NoteService) CreateNote(username, name, content string) (model.Note, error) {
	exists, err := s.Repo.UserExists(username)
	if err != nil {
		return model.Note{}, err
	}
	if !exists {
		return model.Note{}, model.ErrNotFound
	}

	n := model.Note{
		ID:      ulid.Make().String(),
		Name:    name,
		Content: content,
		Owner:   username,
		Version: 1,
	}
	if err := s.Repo.CreateNote(n); err != nil {
		return model.Note{}, err
	}
	s.Store.Prime(n)

	s.Hub.Publish(username, socket.NewNoteType, n)
	logger.Sugar.Infof("Note %s created by user %s", n.ID, username)
	return n, nil
}

// ListNotes returns the user's full note set. A user with no notes gets an
// empty list, not an error.
func (s *NoteService) ListNotes(username string) ([]model.Note, error) {
	exists, err := s.Repo.UserExists(username)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, model.ErrNotFound
	}
	return s.Repo.NotesByOwner(username)
}

// HandleEdit applies a realtime textChange submission. At most one edit per
// note is evaluated at a time; an overlapping attempt returns model.ErrBusy
// and is dropped by the caller. An accepted edit is broadcast to every
// connection of the owning user.
func (s *NoteService) HandleEdit(username, noteID, newText string, baseVersion int) (model.Note, error) {
	if !s.Gate.TryAcquire(noteID) {
		return model.Note{}, model.ErrBusy
	}
	defer s.Gate.Release(noteID)

	updated, err := s.apply(username, noteID, newText, baseVersion)
	if err != nil {
		return model.Note{}, err
	}

	s.Hub.Publish(username, socket.UpdateNoteType, socket.UpdatePayload{
		NoteID:  updated.ID,
		Text:    updated.Content,
		Version: updated.Version,
	})
	return updated, nil
}

// UpdateNote is the request-response update path. It honors the same
// ownership and version rules as HandleEdit but does not broadcast.
func (s *NoteService) UpdateNote(username, noteID, content string, baseVersion int) (model.Note, error) {
	return s.apply(username, noteID, content, baseVersion)
}

func (s *NoteService) apply(username, noteID, content string, baseVersion int) (model.Note, error) {
	current, err := s.Store.Get(noteID)
	if err != nil {
		return model.Note{}, err
	}
	if current.Owner != username {
		return model.Note{}, model.ErrUnauthorized
	}
	return s.Store.Apply(noteID, content, baseVersion)
}
