package dto

import "time"

// LoginRequest cuerpo de POST /api/admin/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required,max=200"`
}

// AdminProfileDTO es la vista pública de un admin.
type AdminProfileDTO struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	DisplayName string     `json:"display_name"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// LoginResponse se devuelve en un login exitoso.
type LoginResponse struct {
	Admin     AdminProfileDTO `json:"admin"`
	Token     string          `json:"token"`
	ExpiresIn int             `json:"expires_in"` // segundos
}

// AdminExistsResponse responde GET /api/admin/check/{username}.
type AdminExistsResponse struct {
	Username string `json:"username"`
	Exists   bool   `json:"exists"`
}
