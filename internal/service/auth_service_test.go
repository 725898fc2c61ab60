package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/akademika-dev/letter-office-api/internal/dto"
	"github.com/akademika-dev/letter-office-api/internal/models"
	appErrors "github.com/akademika-dev/letter-office-api/pkg/errors"
)

type userStoreStub struct {
	users      map[string]*models.User
	lastLogins []string
}

func newUserStoreStub() *userStoreStub {
	return &userStoreStub{users: make(map[string]*models.User)}
}

func (s *userStoreStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *userStoreStub) GetByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := s.users[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *userStoreStub) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	s.lastLogins = append(s.lastLogins, id)
	return nil
}

func seedUser(t *testing.T, store *userStoreStub, password string, active bool) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		ID:           "user-1",
		Email:        "admin@univ.ac.id",
		PasswordHash: string(hash),
		FullName:     "Administrator",
		Role:         models.RoleAdmin,
		Active:       active,
	}
	store.users[user.ID] = user
	return user
}

func TestAuthServiceLoginIssuesValidToken(t *testing.T) {
	store := newUserStoreStub()
	seedUser(t, store, "rahasia", true)
	svc := NewAuthService(store, "test-secret", time.Hour, nil)

	res, err := svc.Login(context.Background(), dto.LoginRequest{
		Email:    "Admin@univ.ac.id",
		Password: "rahasia",
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	require.Equal(t, []string{"user-1"}, store.lastLogins)

	claims, err := svc.ValidateToken(res.Token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, models.RoleAdmin, claims.Role)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	store := newUserStoreStub()
	seedUser(t, store, "rahasia", true)
	svc := NewAuthService(store, "test-secret", time.Hour, nil)

	_, err := svc.Login(context.Background(), dto.LoginRequest{
		Email:    "admin@univ.ac.id",
		Password: "salah",
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	svc := NewAuthService(newUserStoreStub(), "test-secret", time.Hour, nil)

	_, err := svc.Login(context.Background(), dto.LoginRequest{
		Email:    "ghost@univ.ac.id",
		Password: "rahasia",
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	store := newUserStoreStub()
	seedUser(t, store, "rahasia", false)
	svc := NewAuthService(store, "test-secret", time.Hour, nil)

	_, err := svc.Login(context.Background(), dto.LoginRequest{
		Email:    "admin@univ.ac.id",
		Password: "rahasia",
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenRejectsTampering(t *testing.T) {
	store := newUserStoreStub()
	seedUser(t, store, "rahasia", true)
	svc := NewAuthService(store, "test-secret", time.Hour, nil)

	res, err := svc.Login(context.Background(), dto.LoginRequest{
		Email:    "admin@univ.ac.id",
		Password: "rahasia",
	})
	require.NoError(t, err)

	other := NewAuthService(store, "different-secret", time.Hour, nil)
	_, err = other.ValidateToken(res.Token)
	require.Error(t, err)
}
