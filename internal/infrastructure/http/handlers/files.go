package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mejarc/agent-onboarding/internal/infrastructure/storage"
)

// FilesHandler handles GET /files/:id, serving uploaded documents back from
// the GridFS bucket under the same URLs the document store hands out.
type FilesHandler struct {
	store *storage.GridFSStore
}

func NewFilesHandler(store *storage.GridFSStore) *FilesHandler {
	return &FilesHandler{store: store}
}

func (h *FilesHandler) Get(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentType, "application/octet-stream")

	if _, err := h.store.Download(c.Request().Context(), c.Param("id"), c.Response()); err != nil {
		if c.Response().Committed {
			// Failure mid-stream; headers are already flushed.
			return nil
		}
		// Invalid or unknown ids both read as a missing file to the caller.
		return echo.NewHTTPError(http.StatusNotFound, "file not found")
	}
	return nil
}
