package repository

import (
	"database/sql"

	"livenotes/internal/note/model"
	"livenotes/pkg/logger"
)

type NoteRepository struct {
	DB *sql.DB
}

func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{DB: db}
}

func (r *NoteRepository) CreateUser(username, passwordHash string) error {
	_, err := r.DB.Exec(`INSERT INTO users (username, password) VALUES ($1, $2)`, username, passwordHash)
	if err != nil {
		logger.Sugar.Errorf("Failed to create user %s: %v", username, err)
	}
	return err
}

func (r *NoteRepository) UserExists(username string) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		logger.Sugar.Errorf("Failed to check user %s: %v", username, err)
	}
	return exists, err
}

// GetUserPassword returns the stored bcrypt hash, or model.ErrNotFound for an
// unknown username.
func (r *NoteRepository) GetUserPassword(username string) (string, error) {
	var hash string
	err := r.DB.QueryRow(`SELECT password FROM users WHERE username = $1`, username).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", model.ErrNotFound
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to get password for user %s: %v", username, err)
		return "", err
	}
	return hash, nil
}

func (r *NoteRepository) CreateNote(n model.Note) error {
	_, err := r.DB.Exec(`INSERT INTO notes (id, name, content, owner, version) VALUES ($1, $2, $3, $4, $5)`,
		n.ID, n.Name, n.Content, n.Owner, n.Version)
	if err != nil {
		logger.Sugar.Errorf("Failed to create note %s: %v", n.ID, err)
	}
	return err
}

func (r *NoteRepository) FindNoteByID(id string) (model.Note, error) {
	var n model.Note
	err := r.DB.QueryRow(`SELECT id, name, content, owner, version FROM notes WHERE id = $1`, id).
		Scan(&n.ID, &n.Name, &n.Content, &n.Owner, &n.Version)
	if err == sql.ErrNoRows {
		return model.Note{}, model.ErrNotFound
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to find note %s: %v", id, err)
		return model.Note{}, err
	}
	return n, nil
}

func (r *NoteRepository) NotesByOwner(username string) ([]model.Note, error) {
	rows, err := r.DB.Query(`SELECT id, name, content, owner, version FROM notes WHERE owner = $1 ORDER BY id`, username)
	if err != nil {
		logger.Sugar.Errorf("Failed to get notes for user %s: %v", username, err)
		return nil, err
	}
	defer rows.Close()

	notes := []model.Note{}
	for rows.Next() {
		var n model.Note
		if err := rows.Scan(&n.ID, &n.Name, &n.Content, &n.Owner, &n.Version); err != nil {
			continue
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// SaveNote is the durable write behind an accepted mutation. The version store
// calls it before advancing its in-memory state.
func (r *NoteRepository) SaveNote(id, content string, version int) error {
	res, err := r.DB.Exec(`UPDATE notes SET content = $1, version = $2 WHERE id = $3`, content, version, id)
	if err != nil {
		logger.Sugar.Errorf("Failed to save note %s: %v", id, err)
		return err
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return model.ErrNotFound
	}
	return err
}
