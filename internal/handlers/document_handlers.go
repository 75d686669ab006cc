package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"perizinan/internal/common"
	"perizinan/internal/middleware"
	"perizinan/internal/services"
)

const maxDocumentSize = 10 << 20 // 10 MiB

type DocumentHandler struct {
	documents services.DocumentService
}

func NewDocumentHandler(documents services.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

func (h *DocumentHandler) Upload(c echo.Context) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	licenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	if fileHeader.Size > maxDocumentSize {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file exceeds the 10 MiB limit")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read file")
	}
	defer file.Close()

	document, err := h.documents.Upload(c.Request().Context(), actor, licenseID,
		fileHeader.Filename, fileHeader.Header.Get("Content-Type"), fileHeader.Size, file)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusCreated, document)
}

func (h *DocumentHandler) Download(c echo.Context) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return err
	}
	url, err := h.documents.GetDownloadURL(c.Request().Context(), actor, id)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"url": url})
}

func (h *DocumentHandler) ListByLicense(c echo.Context) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	licenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	documents, err := h.documents.ListByLicense(c.Request().Context(), actor, licenseID)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"documents": documents})
}

func (h *DocumentHandler) Delete(c echo.Context) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return err
	}
	if err := h.documents.Delete(c.Request().Context(), actor, id); err != nil {
		return common.SendError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
