package model

import (
	"errors"
	"fmt"
)

// Note is a named, versioned text body owned by exactly one user.
// Content and Version only ever change together, under exclusive application.
type Note struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Content string `json:"note"`
	Owner   string `json:"user"`
	Version int    `json:"version"`
}

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type CreateNoteRequest struct {
	Name    string `json:"name"`
	Content string `json:"note"`
}

type UpdateNoteRequest struct {
	Content string `json:"note"`
	Version int    `json:"version"`
}

type NoteResponse struct {
	Note Note `json:"note"`
}

type NotesResponse struct {
	Notes []Note `json:"notes"`
}

// ConflictResponse carries the authoritative state back to a stale writer.
type ConflictResponse struct {
	Message string `json:"message"`
	Content string `json:"note"`
	Version int    `json:"version"`
}

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	// ErrBusy means another mutation for the same note is in flight.
	ErrBusy = errors.New("note busy")
)

// ConflictError is returned when an edit's base version is stale. It carries
// the current content and version so the submitter can reconcile.
type ConflictError struct {
	Content string
	Version int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("version conflict: current version is %d", e.Version)
}
