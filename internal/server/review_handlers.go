package server

import (
	"cozystay/internal/models"
	"cozystay/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateReview handles POST /api/listings/:id/reviews
func (s *Server) CreateReview(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if bodyErr := c.BodyParser(&req); bodyErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	review, svcErr := s.listingService.AddReview(c.UserContext(), service.AddReviewInput{
		UserID:    currentUserID(c),
		ListingID: id,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if svcErr != nil {
		return respondServiceError(c, svcErr)
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}
