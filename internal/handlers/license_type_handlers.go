package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"perizinan/internal/common"
	"perizinan/internal/middleware"
	"perizinan/internal/services"
)

type LicenseTypeHandler struct {
	licenseTypes services.LicenseTypeService
}

func NewLicenseTypeHandler(licenseTypes services.LicenseTypeService) *LicenseTypeHandler {
	return &LicenseTypeHandler{licenseTypes: licenseTypes}
}

func (h *LicenseTypeHandler) Create(c echo.Context) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	input := new(services.CreateLicenseTypeInput)
	if err := c.Bind(input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	licenseType, err := h.licenseTypes.Create(c.Request().Context(), actor, input)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusCreated, licenseType)
}

func (h *LicenseTypeHandler) Get(c echo.Context) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return err
	}
	licenseType, err := h.licenseTypes.Get(c.Request().Context(), actor, id)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, licenseType)
}

func (h *LicenseTypeHandler) Update(c echo.Context) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return err
	}
	input := new(services.UpdateLicenseTypeInput)
	if err := c.Bind(input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	licenseType, err := h.licenseTypes.Update(c.Request().Context(), actor, id, input)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, licenseType)
}

func (h *LicenseTypeHandler) List(c echo.Context) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	licenseTypes, err := h.licenseTypes.List(c.Request().Context(), actor, limit, offset)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"license_types": licenseTypes})
}
