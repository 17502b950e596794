// Package security verifica contraseñas de admin guardadas como hashes scrypt.
package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// Formato del hash: scrypt:N:r:p$salt$hexdigest. La sal se usa como sus bytes UTF-8.
const (
	scheme    = "scrypt"
	keyLength = 64
)

// Parámetros de costo por defecto de Hash.
const (
	DefaultN = 32768
	DefaultR = 8
	DefaultP = 1
)

// ErrMalformedHash se devuelve cuando un hash guardado no se puede interpretar.
var ErrMalformedHash = errors.New("security: hash de contraseña malformado")

// ScryptVerifier valida contraseñas contra hashes scrypt.
type ScryptVerifier struct{}

// Verify indica si password coincide con encoded.
func (ScryptVerifier) Verify(encoded, password string) (bool, error) {
	params, salt, digest, err := parse(encoded)
	if err != nil {
		return false, err
	}
	want, err := hex.DecodeString(digest)
	if err != nil {
		return false, ErrMalformedHash
	}
	got, err := scrypt.Key([]byte(password), []byte(salt), params[0], params[1], params[2], len(want))
	if err != nil {
		return false, fmt.Errorf("security: derivando clave: %w", err)
	}
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// Hash codifica password con una sal aleatoria nueva y el costo por defecto.
func Hash(password string) (string, error) {
	return HashWith(password, DefaultN, DefaultR, DefaultP)
}

// HashWith codifica password con parámetros de costo explícitos.
func HashWith(password string, n, r, p int) (string, error) {
	raw := make([]byte, 8)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	salt := hex.EncodeToString(raw)
	key, err := scrypt.Key([]byte(password), []byte(salt), n, r, p, keyLength)
	if err != nil {
		return "", fmt.Errorf("security: derivando clave: %w", err)
	}
	return fmt.Sprintf("%s:%d:%d:%d$%s$%s", scheme, n, r, p, salt, hex.EncodeToString(key)), nil
}

func parse(encoded string) (params [3]int, salt, digest string, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
		return params, "", "", ErrMalformedHash
	}
	head := strings.Split(parts[0], ":")
	if len(head) != 4 || head[0] != scheme {
		return params, "", "", ErrMalformedHash
	}
	for i, s := range head[1:] {
		v, convErr := strconv.Atoi(s)
		if convErr != nil || v <= 0 {
			return params, "", "", ErrMalformedHash
		}
		params[i] = v
	}
	return params, parts[1], parts[2], nil
}
