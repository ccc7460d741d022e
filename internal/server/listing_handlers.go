package server

import (
	"strings"

	"cozystay/internal/models"
	"cozystay/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetListings handles GET /api/listings
func (s *Server) GetListings(c *fiber.Ctx) error {
	userID, _ := s.optionalUserID(c)
	pagination := parsePagination(c, 20)

	listings, err := s.listingService.ListListings(c.UserContext(), service.ListListingsInput{
		Query:         c.Query("q"),
		Tags:          splitTags(c.Query("tags")),
		Limit:         pagination.Limit,
		Offset:        pagination.Offset,
		CurrentUserID: userID,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(listings)
}

// GetListing handles GET /api/listings/:id
func (s *Server) GetListing(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	userID, _ := s.optionalUserID(c)
	listing, svcErr := s.listingService.GetListing(c.UserContext(), id, userID)
	if svcErr != nil {
		return respondServiceError(c, svcErr)
	}
	return c.JSON(listing)
}

// GetMyHotels handles GET /api/listings/my-hotels
func (s *Server) GetMyHotels(c *fiber.Ctx) error {
	pagination := parsePagination(c, 20)
	listings, err := s.listingService.GetMyListings(c.UserContext(), currentUserID(c), pagination.Limit, pagination.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(listings)
}

// GetFavourites handles GET /api/listings/favourites
func (s *Server) GetFavourites(c *fiber.Ctx) error {
	listings, err := s.listingService.GetFavourites(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"favourites": listings})
}

// CreateListing handles POST /api/listings/create (multipart)
func (s *Server) CreateListing(c *fiber.Ctx) error {
	upload, err := s.parseListingUpload(c)
	if err != nil {
		return nil
	}

	listing, svcErr := s.listingService.CreateListing(c.UserContext(), service.CreateListingInput{
		OwnerID:   currentUserID(c),
		Title:     upload.Title,
		Location:  upload.Location,
		Country:   upload.Country,
		Price:     upload.Price,
		MainImage: upload.MainImage,
		Images:    upload.Images,
	})
	if svcErr != nil {
		return respondServiceError(c, svcErr)
	}
	return c.Status(fiber.StatusCreated).JSON(listing)
}

// UpdateListing handles PUT /api/listings/:id
func (s *Server) UpdateListing(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Title    string   `json:"title"`
		Location string   `json:"location"`
		Country  string   `json:"country"`
		Price    *float64 `json:"price"`
	}
	if bodyErr := c.BodyParser(&req); bodyErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	listing, svcErr := s.listingService.UpdateListing(c.UserContext(), service.UpdateListingInput{
		UserID:    currentUserID(c),
		ListingID: id,
		Title:     req.Title,
		Location:  req.Location,
		Country:   req.Country,
		Price:     req.Price,
	})
	if svcErr != nil {
		return respondServiceError(c, svcErr)
	}
	return c.JSON(listing)
}

// DeleteListing handles DELETE /api/listings/:id
func (s *Server) DeleteListing(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if svcErr := s.listingService.DeleteListing(c.UserContext(), id, currentUserID(c)); svcErr != nil {
		return respondServiceError(c, svcErr)
	}
	return c.JSON(fiber.Map{"message": "Listing deleted"})
}

// splitTags parses the comma-separated tags query parameter.
func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}
