package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/shelf-inventory/internal/application/auth"
	"github.com/jhoicas/shelf-inventory/internal/application/dto"
)

// AuthHandler atiende el login y las consultas de administradores.
type AuthHandler struct {
	uc *auth.AdminUseCase
}

// NewAuthHandler construye el handler.
func NewAuthHandler(uc *auth.AdminUseCase) *AuthHandler {
	return &AuthHandler{uc: uc}
}

// Login godoc
// @Summary      Admin login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "username, password"
// @Success      200   {object}  dto.LoginResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /api/admin/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in dto.LoginRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Login(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Check godoc
// @Summary      Check whether an admin username exists
// @Tags         auth
// @Produce      json
// @Param        username  path  string  true  "admin username"
// @Success      200  {object}  dto.AdminExistsResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/admin/check/{username} [get]
func (h *AuthHandler) Check(c *fiber.Ctx) error {
	out, err := h.uc.Exists(c.UserContext(), c.Params("username"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Profile godoc
// @Summary      Admin profile by username
// @Tags         auth
// @Produce      json
// @Param        username  path  string  true  "admin username"
// @Success      200  {object}  dto.AdminProfileDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/admin/{username} [get]
func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	out, err := h.uc.Profile(c.UserContext(), c.Params("username"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
