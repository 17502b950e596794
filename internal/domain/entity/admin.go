package entity

import "time"

// Admin es un operador habilitado para ingresar al back office.
type Admin struct {
	ID           string
	Username     string
	DisplayName  string
	PasswordHash string // scrypt:N:r:p$salt$hex
	LastLoginAt  *time.Time
	CreatedAt    time.Time
}
