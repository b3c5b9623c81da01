package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"livenotes/internal/note/model"
	"livenotes/internal/note/repository"
	"livenotes/pkg/logger"
)

var (
	ErrUserExists         = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const bcryptCost = 10

// AuthService issues and backs tokens for registered users. Usernames are
// case-normalized to lowercase at every entry point.
type AuthService struct {
	Repo     *repository.NoteRepository
	Secret   string
	TokenTTL time.Duration
}

func NewAuthService(repo *repository.NoteRepository, secret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{Repo: repo, Secret: secret, TokenTTL: tokenTTL}
}

// Register creates a user and returns a signed token for them.
func (s *AuthService) Register(username, password string) (string, error) {
	username = strings.ToLower(username)

	exists, err := s.Repo.UserExists(username)
	if err != nil {
		return "", err
	}
	if exists {
		return "", ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	if err := s.Repo.CreateUser(username, string(hash)); err != nil {
		return "", err
	}

	logger.Sugar.Infof("Registered user %s", username)
	return s.IssueToken(username)
}

// Login verifies the password and returns a signed token.
func (s *AuthService) Login(username, password string) (string, error) {
	username = strings.ToLower(username)

	hash, err := s.Repo.GetUserPassword(username)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}
	return s.IssueToken(username)
}

// IssueToken signs an HS256 token carrying the username claim.
func (s *AuthService) IssueToken(username string) (string, error) {
	claims := jwt.MapClaims{
		"username": username,
		"exp":      time.Now().Add(s.TokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.Secret))
}
