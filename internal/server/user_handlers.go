package server

import (
	"cozystay/internal/models"
	"cozystay/internal/service"
	"cozystay/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// UpdateMe handles PUT /api/auth/me
func (s *Server) UpdateMe(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if req.Username != "" {
		if err := validation.ValidateUsername(req.Username); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(err.Error()))
		}
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:   currentUserID(c),
		Username: req.Username,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

// SetUserRole handles PUT /api/users/:id/role. Managers only.
func (s *Server) SetUserRole(c *fiber.Ctx) error {
	manager, err := s.userService.IsManager(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	if !manager {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Only managers can change roles"))
	}

	targetID, idErr := s.parseID(c, "id")
	if idErr != nil {
		return nil
	}

	var req struct {
		Role models.UserRole `json:"role"`
	}
	if bodyErr := c.BodyParser(&req); bodyErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, svcErr := s.userService.SetRole(c.UserContext(), targetID, req.Role)
	if svcErr != nil {
		return respondServiceError(c, svcErr)
	}
	return c.JSON(fiber.Map{"user": user})
}
