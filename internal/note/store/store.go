// Package store holds the authoritative text and version of every note and
// performs optimistic-concurrency checks for mutations.
package store

import (
	"sync"

	"livenotes/internal/note/model"
	"livenotes/pkg/logger"
)

// Persister is the durable backing store. An accepted mutation is written
// through it before the in-memory state advances.
type Persister interface {
	FindNoteByID(id string) (model.Note, error)
	SaveNote(id, content string, version int) error
}

type entry struct {
	mu     sync.Mutex
	note   model.Note
	loaded bool
}

// VersionStore caches note state in memory and serializes mutations per note
// id. Because every accepted write persists before the cache advances, the
// cache never runs ahead of the database.
type VersionStore struct {
	mu      sync.Mutex
	entries map[string]*entry
	db      Persister
}

func New(db Persister) *VersionStore {
	return &VersionStore{
		entries: make(map[string]*entry),
		db:      db,
	}
}

func (s *VersionStore) entryFor(id string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		e = &entry{}
		s.entries[id] = e
	}
	return e
}

// load fills the entry from the persister. Caller holds e.mu.
func (s *VersionStore) load(id string, e *entry) error {
	if e.loaded {
		return nil
	}
	n, err := s.db.FindNoteByID(id)
	if err != nil {
		return err
	}
	e.note = n
	e.loaded = true
	return nil
}

// Get returns the current state of a note, reading through to the persister
// on a cache miss.
func (s *VersionStore) Get(id string) (model.Note, error) {
	e := s.entryFor(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := s.load(id, e); err != nil {
		return model.Note{}, err
	}
	return e.note, nil
}

// Apply attempts the mutation {id, newText, baseVersion}. The version check
// and the write are one atomic step with respect to concurrent callers for
// the same id: no two callers can both succeed against the same base version.
// On a stale base version it returns *model.ConflictError with the current
// state. If the durable write fails, the in-memory version is not advanced,
// so the whole attempt is safe to retry.
func (s *VersionStore) Apply(id, newText string, baseVersion int) (model.Note, error) {
	e := s.entryFor(id)
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := s.load(id, e); err != nil {
		return model.Note{}, err
	}

	if !decide(baseVersion, e.note.Version) {
		return model.Note{}, &model.ConflictError{Content: e.note.Content, Version: e.note.Version}
	}

	next := e.note
	next.Content = newText
	next.Version++

	if err := s.db.SaveNote(id, next.Content, next.Version); err != nil {
		logger.Sugar.Errorf("Persist failed for note %s at version %d: %v", id, next.Version, err)
		return model.Note{}, err
	}

	e.note = next
	return next, nil
}

// Prime seeds the cache with a freshly created note so the first edit does
// not have to read it back.
func (s *VersionStore) Prime(n model.Note) {
	e := s.entryFor(n.ID)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.note = n
	e.loaded = true
}

// decide is the conflict check: accept only an exact base-version match.
// Any staleness, even by one increment, is a conflict.
func decide(baseVersion, currentVersion int) bool {
	return baseVersion == currentVersion
}
