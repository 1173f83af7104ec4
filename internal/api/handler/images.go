package handler

import (
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

const (
	maxImageSize = 10 * 1024 * 1024 // 10MB
)

var validImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// extractAndValidateImage reads the single image of a verification request.
func extractAndValidateImage(c *fiber.Ctx) ([]byte, error) {
	file, err := c.FormFile("image")
	if err != nil {
		return nil, domain.ErrValidationFailed.WithMessage("image is required").WithError(err)
	}
	return readImage(file)
}

// extractAndValidateImages reads the captures of an enrollment request in
// upload order.
func extractAndValidateImages(c *fiber.Ctx) ([][]byte, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, domain.ErrValidationFailed.WithMessage("images are required").WithError(err)
	}

	files := form.File["images"]
	if len(files) < domain.MinEnrollCaptures {
		return nil, domain.ErrInsufficientCaptures
	}
	if len(files) > domain.MaxEnrollCaptures {
		return nil, domain.ErrTooManyCaptures
	}

	images := make([][]byte, 0, len(files))
	for i, file := range files {
		img, err := readImage(file)
		if err != nil {
			return nil, domain.ErrInvalidImage.
				WithMessage(fmt.Sprintf("Invalid image in capture %d", i+1)).
				WithError(&domain.CaptureError{Index: i, Reason: err.Error()})
		}
		images = append(images, img)
	}
	return images, nil
}

func readImage(file *multipart.FileHeader) ([]byte, error) {
	if file.Size == 0 || file.Size > maxImageSize {
		return nil, domain.ErrInvalidImage
	}

	if !validImageTypes[file.Header.Get("Content-Type")] {
		return nil, domain.ErrInvalidImage
	}

	f, err := file.Open()
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	defer func() {
		_ = f.Close()
	}()

	imageBytes, err := io.ReadAll(f)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	return imageBytes, nil
}
