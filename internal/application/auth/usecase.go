package auth

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/shelf-inventory/internal/application/dto"
	"github.com/jhoicas/shelf-inventory/internal/domain"
	"github.com/jhoicas/shelf-inventory/internal/domain/entity"
	"github.com/jhoicas/shelf-inventory/internal/domain/repository"
	"github.com/jhoicas/shelf-inventory/pkg/jwt"
)

// JWTConfig configura la emisión de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// CredentialVerifier valida una contraseña contra un hash guardado.
type CredentialVerifier interface {
	Verify(encoded, password string) (bool, error)
}

// AdminUseCase autentica a los operadores del back office.
type AdminUseCase struct {
	repo     repository.AdminRepository
	verifier CredentialVerifier
	jwtCfg   JWTConfig
	log      zerolog.Logger
	now      func() time.Time
}

// NewAdminUseCase construye el caso de uso.
func NewAdminUseCase(repo repository.AdminRepository, verifier CredentialVerifier, jwtCfg JWTConfig, log zerolog.Logger) *AdminUseCase {
	return &AdminUseCase{
		repo:     repo,
		verifier: verifier,
		jwtCfg:   jwtCfg,
		log:      log.With().Str("component", "admin_auth").Logger(),
		now:      time.Now,
	}
}

// Login valida usuario/contraseña, registra la hora de ingreso y emite un token si hay
// secret configurado. Usuario desconocido y contraseña errónea dan ambos ErrUnauthorized.
func (uc *AdminUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, domain.Reject(domain.ErrInvalidInput, "username and password are required")
	}
	admin, err := uc.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, invalidCredentials()
	}
	ok, err := uc.verifier.Verify(admin.PasswordHash, in.Password)
	if err != nil {
		uc.log.Error().Err(err).Str("username", username).Msg("verify stored password hash")
		return nil, invalidCredentials()
	}
	if !ok {
		return nil, invalidCredentials()
	}

	at := uc.now().UTC()
	if err := uc.repo.TouchLogin(ctx, admin.ID, at); err != nil {
		uc.log.Warn().Err(err).Str("admin_id", admin.ID).Msg("record login time")
	} else {
		admin.LastLoginAt = &at
	}

	out := &dto.LoginResponse{Admin: toAdminProfile(admin)}
	if uc.jwtCfg.Secret != "" {
		token, err := jwt.Generate(uc.jwtCfg.Secret, admin.ID, admin.Username, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
		if err != nil {
			return nil, err
		}
		out.Token = token
		out.ExpiresIn = uc.jwtCfg.ExpMinutes * 60
	}
	return out, nil
}

// Exists indica si hay un admin registrado con ese username.
func (uc *AdminUseCase) Exists(ctx context.Context, username string) (*dto.AdminExistsResponse, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, domain.Reject(domain.ErrInvalidInput, "username is required")
	}
	admin, err := uc.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return &dto.AdminExistsResponse{Username: username, Exists: admin != nil}, nil
}

// Profile devuelve la vista pública del admin con ese username. El hash de la contraseña
// nunca sale de este paquete.
func (uc *AdminUseCase) Profile(ctx context.Context, username string) (*dto.AdminProfileDTO, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, domain.Reject(domain.ErrInvalidInput, "username is required")
	}
	admin, err := uc.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, domain.Reject(domain.ErrNotFound, "admin "+username+" not found")
	}
	profile := toAdminProfile(admin)
	return &profile, nil
}

func invalidCredentials() error {
	return domain.Reject(domain.ErrUnauthorized, "invalid username or password")
}

func toAdminProfile(a *entity.Admin) dto.AdminProfileDTO {
	return dto.AdminProfileDTO{
		ID:          a.ID,
		Username:    a.Username,
		DisplayName: a.DisplayName,
		LastLoginAt: a.LastLoginAt,
	}
}
