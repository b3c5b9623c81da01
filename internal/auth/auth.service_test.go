package auth

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"livenotes/internal/note/repository"
)

const testSecret = "test-secret"

func newTestService(t *testing.T) (*AuthService, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAuthService(repository.NewNoteRepository(db), testSecret, time.Hour), mock
}

func parseUsername(t *testing.T, tokenString string) string {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)
	claims := token.Claims.(jwt.MapClaims)
	return claims["username"].(string)
}

func TestRegisterIssuesTokenAndLowercasesUsername(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users (username, password) VALUES ($1, $2)`)).
		WithArgs("alice", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	token, err := svc.Register("Alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "alice", parseUsername(t, token))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterExistingUsername(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := svc.Register("alice", "s3cret")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestLogin(t *testing.T) {
	svc, mock := newTestService(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcryptCost)
	require.NoError(t, err)
	mock.ExpectQuery(`SELECT password FROM users WHERE username = \$1`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"password"}).AddRow(string(hash)))

	token, err := svc.Login("ALICE", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "alice", parseUsername(t, token))
}

func TestLoginWrongPassword(t *testing.T) {
	svc, mock := newTestService(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcryptCost)
	require.NoError(t, err)
	mock.ExpectQuery(`SELECT password FROM users WHERE username = \$1`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"password"}).AddRow(string(hash)))

	_, err = svc.Login("alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownUser(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(`SELECT password FROM users WHERE username = \$1`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"password"}))

	_, err := svc.Login("ghost", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
