package handler

import (
	"errors"
	"net/http"

	"hangoutz/internal/services"
	"hangoutz/internal/transport/httpdto"
	hangoutz_errors "hangoutz/pkg/errors"

	"github.com/gin-gonic/gin"
)

// multipartOverhead leaves room for form boundaries and headers on top of
// the file payload limit.
const multipartOverhead = 1 << 20

type UploadHandler struct {
	service *services.UploadService
}

func NewUploadHandler(service *services.UploadService) *UploadHandler {
	return &UploadHandler{service: service}
}

// UploadImage accepts a single file in the "image" form field.
func (h *UploadHandler) UploadImage(c *gin.Context) {
	requester, ok := currentUser(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, services.MaxUploadSize+multipartOverhead)
	fh, err := c.FormFile("image")
	if err != nil {
		respondError(c, formError(err, "No file uploaded"))
		return
	}

	file, err := h.service.SaveImage(c.Request.Context(), requester.ID, fh)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(file))
}

// UploadImages accepts up to MaxUploadFiles files in the "images" field.
func (h *UploadHandler) UploadImages(c *gin.Context) {
	requester, ok := currentUser(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, services.MaxUploadSize*services.MaxUploadFiles+multipartOverhead)
	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, formError(err, "No files uploaded"))
		return
	}

	files, err := h.service.SaveImages(c.Request.Context(), requester.ID, form.File["images"])
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(files))
}

func (h *UploadHandler) Delete(c *gin.Context) {
	requester, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), requester.ID, c.Param("filename")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewMessageResponse("File deleted successfully"))
}

func formError(err error, missing string) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return hangoutz_errors.New(hangoutz_errors.ErrTooLarge, "File too large. Maximum size is 10MB")
	}
	return hangoutz_errors.Validation(missing)
}
