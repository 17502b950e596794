package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/shelf-inventory/internal/application/auth"
	"github.com/jhoicas/shelf-inventory/internal/application/dto"
	"github.com/jhoicas/shelf-inventory/internal/domain"
	"github.com/jhoicas/shelf-inventory/internal/domain/entity"
	"github.com/jhoicas/shelf-inventory/internal/infrastructure/memory"
	"github.com/jhoicas/shelf-inventory/internal/infrastructure/security"
	"github.com/jhoicas/shelf-inventory/pkg/jwt"
)

func seededUseCase(t *testing.T, cfg auth.JWTConfig) (*auth.AdminUseCase, *memory.AdminRepo) {
	t.Helper()
	hash, err := security.HashWith("correct horse", 1024, 8, 1)
	require.NoError(t, err)
	admins := memory.New().Admins()
	admins.Seed(entity.Admin{ID: "admin-1", Username: "root", DisplayName: "Root", PasswordHash: hash, CreatedAt: time.Now()})
	return auth.NewAdminUseCase(admins, security.ScryptVerifier{}, cfg, zerolog.Nop()), admins
}

func TestLogin_IssuesTokenAndRecordsLogin(t *testing.T) {
	uc, admins := seededUseCase(t, auth.JWTConfig{Secret: "s", ExpMinutes: 30, Issuer: "shelf"})
	ctx := context.Background()

	out, err := uc.Login(ctx, dto.LoginRequest{Username: "root", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, "root", out.Admin.Username)
	assert.Equal(t, 1800, out.ExpiresIn)
	require.NotNil(t, out.Admin.LastLoginAt)

	claims, err := jwt.Parse("s", out.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.AdminID)

	stored, err := admins.GetByUsername(ctx, "root")
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLoginAt)
}

func TestLogin_WithoutSecretReturnsProfileOnly(t *testing.T) {
	uc, _ := seededUseCase(t, auth.JWTConfig{})

	out, err := uc.Login(context.Background(), dto.LoginRequest{Username: "root", Password: "correct horse"})
	require.NoError(t, err)
	assert.Empty(t, out.Token)
	assert.Equal(t, "Root", out.Admin.DisplayName)
}

func TestLogin_RejectsBadCredentials(t *testing.T) {
	uc, _ := seededUseCase(t, auth.JWTConfig{Secret: "s"})
	ctx := context.Background()

	_, err := uc.Login(ctx, dto.LoginRequest{Username: "root", Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = uc.Login(ctx, dto.LoginRequest{Username: "nobody", Password: "correct horse"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = uc.Login(ctx, dto.LoginRequest{Username: "", Password: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExistsAndProfile(t *testing.T) {
	uc, _ := seededUseCase(t, auth.JWTConfig{})
	ctx := context.Background()

	found, err := uc.Exists(ctx, "root")
	require.NoError(t, err)
	assert.True(t, found.Exists)
	missing, err := uc.Exists(ctx, "nobody")
	require.NoError(t, err)
	assert.False(t, missing.Exists)
	_, err = uc.Exists(ctx, "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	profile, err := uc.Profile(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, "admin-1", profile.ID)
	assert.Equal(t, "Root", profile.DisplayName)
	_, err = uc.Profile(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
