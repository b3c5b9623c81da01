package router

import (
	"net/http"

	"livenotes/config"
	"livenotes/internal/auth"
	noteHandler "livenotes/internal/note"
	"livenotes/internal/note/gate"
	"livenotes/internal/note/repository"
	"livenotes/internal/note/service"
	"livenotes/internal/note/store"
	"livenotes/middleware"
	"livenotes/socket"
)

// Setup wires the repositories, services and handlers onto one mux. It also
// hands the note service to the hub so websocket edits flow through the same
// coordinator as the REST surface.
func Setup(repo *repository.NoteRepository, hub *socket.Hub, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()
	requireAuth := middleware.Auth(cfg.JWT.Secret)

	// WebSocket
	wsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username := r.Context().Value(middleware.UsernameKey).(string)
		socket.ServeWs(hub, w, r, username)
	})
	mux.Handle("/ws", requireAuth(wsHandler))

	// Services
	noteService := service.NewNoteService(repo, store.New(repo), gate.New(), hub)
	hub.Sync = noteService

	authService := auth.NewAuthService(repo, cfg.JWT.Secret, cfg.JWT.TokenTTL)
	authHandler := auth.NewAuthHandler(authService)
	notes := noteHandler.NewNoteHandler(noteService)

	// REST API
	mux.Handle("/register", http.HandlerFunc(authHandler.Register))
	mux.Handle("/login", http.HandlerFunc(authHandler.Login))
	mux.Handle("/note", requireAuth(http.HandlerFunc(notes.CreateNote)))
	mux.Handle("/notes", requireAuth(http.HandlerFunc(notes.GetNotes)))
	mux.Handle("/note/update", requireAuth(http.HandlerFunc(notes.UpdateNote)))

	return middleware.CORSMiddleware(mux)
}
