package server

import (
	"github.com/gofiber/fiber/v2"
)

// FavouriteListing handles POST /api/listings/:id/favourite
func (s *Server) FavouriteListing(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if svcErr := s.listingService.FavouriteListing(c.UserContext(), currentUserID(c), id); svcErr != nil {
		return respondServiceError(c, svcErr)
	}
	return c.JSON(fiber.Map{"favourited": true})
}

// UnfavouriteListing handles DELETE /api/listings/:id/favourite
func (s *Server) UnfavouriteListing(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if svcErr := s.listingService.UnfavouriteListing(c.UserContext(), currentUserID(c), id); svcErr != nil {
		return respondServiceError(c, svcErr)
	}
	return c.JSON(fiber.Map{"favourited": false})
}
