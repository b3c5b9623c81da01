package main

import (
	"net/http"

	"livenotes/config"
	"livenotes/config/database"
	"livenotes/internal/note/repository"
	"livenotes/pkg/logger"
	"livenotes/router"
	"livenotes/socket"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Debug)
	defer logger.Sync()

	db := database.Connect(cfg.Database)
	defer db.Close()

	repo := repository.NewNoteRepository(db)

	// The hub manages every user's live connections and fans events out to
	// them. Its loop runs on its own goroutine so it never blocks serving.
	hub := socket.NewHub(repo)
	go hub.Run()

	handler := router.Setup(repo, hub, cfg)

	logger.Sugar.Infof("Backend listening on :%s", cfg.Server.Port)
	if err := http.ListenAndServe(":"+cfg.Server.Port, handler); err != nil {
		logger.Sugar.Fatalf("Server stopped: %v", err)
	}
}
