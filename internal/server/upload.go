package server

import (
	"io"
	"mime/multipart"

	"cozystay/internal/middleware"
	"cozystay/internal/models"
	"cozystay/internal/service"

	"github.com/gofiber/fiber/v2"
)

const (
	// maxUploadSize is the per-file limit for listing images.
	maxUploadSize = 10 << 20 // 10MB

	// maxRequestBodySize bounds the whole multipart request: one main image,
	// four gallery images and the form fields.
	maxRequestBodySize = 64 << 20

	mainImageField = "mainImage"
	imagesField    = "images"
)

// Upload error bodies are part of the public API contract and are emitted
// verbatim, without the usual error envelope.
const (
	errFileTooLarge    = "File size too large. Max limit is 10MB per file."
	errUnexpectedFiles = "Unexpected file field or too many files."
)

// listingUpload is the parsed multipart payload of a create-listing request.
type listingUpload struct {
	Title     string
	Location  string
	Country   string
	Price     float64
	MainImage *service.ImageUpload
	Images    []service.ImageUpload
}

// parseListingUpload reads the multipart form of POST /api/listings/create.
// On failure it writes the contract error body and returns errResponseWritten.
func (s *Server) parseListingUpload(c *fiber.Ctx) (*listingUpload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		middleware.UploadRejections.WithLabelValues("malformed").Inc()
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Upload Error: " + err.Error(),
		})
		return nil, errResponseWritten
	}

	for field := range form.File {
		if field != mainImageField && field != imagesField {
			middleware.UploadRejections.WithLabelValues("unexpected_field").Inc()
			_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": errUnexpectedFiles,
			})
			return nil, errResponseWritten
		}
	}

	mainFiles := form.File[mainImageField]
	galleryFiles := form.File[imagesField]

	if len(mainFiles) > 1 || len(galleryFiles) > models.MaxListingImages {
		middleware.UploadRejections.WithLabelValues("too_many_files").Inc()
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": errUnexpectedFiles,
		})
		return nil, errResponseWritten
	}

	upload := &listingUpload{
		Title:    formValue(form, "title"),
		Location: formValue(form, "location"),
		Country:  formValue(form, "country"),
	}
	if price := formValue(form, "price"); price != "" {
		parsed, parseErr := parsePrice(price)
		if parseErr != nil {
			_ = models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid price"))
			return nil, errResponseWritten
		}
		upload.Price = parsed
	}

	if len(mainFiles) == 1 {
		img, readErr := s.readUploadedFile(c, mainFiles[0])
		if readErr != nil {
			return nil, readErr
		}
		upload.MainImage = img
	}

	for _, header := range galleryFiles {
		img, readErr := s.readUploadedFile(c, header)
		if readErr != nil {
			return nil, readErr
		}
		upload.Images = append(upload.Images, *img)
	}

	return upload, nil
}

// readUploadedFile enforces the per-file size limit and reads the content.
func (s *Server) readUploadedFile(c *fiber.Ctx, header *multipart.FileHeader) (*service.ImageUpload, error) {
	if header.Size > maxUploadSize {
		middleware.UploadRejections.WithLabelValues("too_large").Inc()
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": errFileTooLarge,
		})
		return nil, errResponseWritten
	}

	src, err := header.Open()
	if err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Upload Error: " + err.Error(),
		})
		return nil, errResponseWritten
	}
	defer func() { _ = src.Close() }()

	// LimitReader guards against a lying Content-Length in the part header.
	content, err := io.ReadAll(io.LimitReader(src, maxUploadSize+1))
	if err != nil {
		_ = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unknown Error: " + err.Error(),
		})
		return nil, errResponseWritten
	}
	if len(content) > maxUploadSize {
		middleware.UploadRejections.WithLabelValues("too_large").Inc()
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": errFileTooLarge,
		})
		return nil, errResponseWritten
	}

	return &service.ImageUpload{
		Filename: header.Filename,
		Content:  content,
	}, nil
}

func formValue(form *multipart.Form, key string) string {
	values := form.Value[key]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
