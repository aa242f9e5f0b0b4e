package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bytetech/academy-backend/internal/storage"
)

// MediaHandler streams stored course media back to authenticated users.
type MediaHandler struct {
	Media storage.Store
}

func NewMediaHandler(media storage.Store) *MediaHandler {
	return &MediaHandler{Media: media}
}

// Stream returns the file bytes with the MIME type the store reports.
func (h *MediaHandler) Stream(c echo.Context) error {
	name := c.Param("name")
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file name required"})
	}

	b, contentType, err := h.Media.Get(c.Request().Context(), name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "file not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "read file failed"})
	}
	return c.Blob(http.StatusOK, contentType, b)
}
