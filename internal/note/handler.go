package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"livenotes/internal/note/model"
	"livenotes/internal/note/service"
	"livenotes/middleware"
	"livenotes/pkg/logger"
)

type NoteHandler struct {
	Service *service.NoteService
}

func NewNoteHandler(service *service.NoteService) *NoteHandler {
	return &NoteHandler{Service: service}
}

func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	username := r.Context().Value(middleware.UsernameKey).(string)

	var req model.CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "Note name is required", http.StatusBadRequest)
		return
	}

	note, err := h.Service.CreateNote(username, req.Name, req.Content)
	if errors.Is(err, model.ErrNotFound) {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to create note: %v", err)
		http.Error(w, "Failed to create note", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(model.NoteResponse{Note: note})
}

func (h *NoteHandler) GetNotes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	username := r.Context().Value(middleware.UsernameKey).(string)

	notes, err := h.Service.ListNotes(username)
	if errors.Is(err, model.ErrNotFound) {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to list notes: %v", err)
		http.Error(w, "Failed to fetch notes", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(model.NotesResponse{Notes: notes})
}

// UpdateNote applies a version-checked update over the request-response path.
// A stale version gets 409 with the authoritative content and version.
func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	noteID := r.URL.Query().Get("noteId")
	if noteID == "" {
		http.Error(w, "Missing noteId parameter", http.StatusBadRequest)
		return
	}

	username := r.Context().Value(middleware.UsernameKey).(string)

	var req model.UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	note, err := h.Service.UpdateNote(username, noteID, req.Content, req.Version)
	var conflict *model.ConflictError
	switch {
	case err == nil:
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(model.NoteResponse{Note: note})
	case errors.As(err, &conflict):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(model.ConflictResponse{
			Message: "Version conflict",
			Content: conflict.Content,
			Version: conflict.Version,
		})
	case errors.Is(err, model.ErrUnauthorized):
		http.Error(w, "Unauthorized", http.StatusForbidden)
	case errors.Is(err, model.ErrNotFound):
		http.Error(w, "Note not found", http.StatusNotFound)
	default:
		logger.Sugar.Errorf("Handler: Failed to update note %s: %v", noteID, err)
		http.Error(w, "Failed to update note", http.StatusInternalServerError)
	}
}
