package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"perizinan/internal/common"
	"perizinan/internal/middleware"
	"perizinan/internal/models"
	"perizinan/internal/services"
)

type LicenseHandler struct {
	licenses services.LicenseService
}

func NewLicenseHandler(licenses services.LicenseService) *LicenseHandler {
	return &LicenseHandler{licenses: licenses}
}

type commentRequest struct {
	Comment *string `json:"comment"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

type listLicensesResponse struct {
	Licenses []*models.License `json:"licenses"`
	Total    int               `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

func (h *LicenseHandler) Create(c echo.Context) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	input := new(services.CreateLicenseInput)
	if err := c.Bind(input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	license, err := h.licenses.Create(c.Request().Context(), actor, input)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusCreated, license)
}

func (h *LicenseHandler) Get(c echo.Context) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return err
	}
	license, err := h.licenses.Get(c.Request().Context(), actor, id)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, license)
}

func (h *LicenseHandler) Update(c echo.Context) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return err
	}
	input := new(services.UpdateLicenseInput)
	if err := c.Bind(input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	license, err := h.licenses.Update(c.Request().Context(), actor, id, input)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, license)
}

func (h *LicenseHandler) Delete(c echo.Context) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return err
	}
	if err := h.licenses.Delete(c.Request().Context(), actor, id); err != nil {
		return common.SendError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *LicenseHandler) List(c echo.Context) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	filter := parseLicenseFilter(c)
	licenses, total, err := h.licenses.List(c.Request().Context(), actor, filter)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, &listLicensesResponse{
		Licenses: licenses,
		Total:    total,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	})
}

// MyLicenses lists the caller's own applications regardless of role.
func (h *LicenseHandler) MyLicenses(c echo.Context) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	filter := parseLicenseFilter(c)
	applicantID := actor.UserID
	filter.ApplicantID = &applicantID

	licenses, total, err := h.licenses.List(c.Request().Context(), actor, filter)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, &listLicensesResponse{
		Licenses: licenses,
		Total:    total,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	})
}

func (h *LicenseHandler) Submit(c echo.Context) error {
	return h.withComment(c, h.licenses.Submit)
}

func (h *LicenseHandler) BeginReview(c echo.Context) error {
	return h.withComment(c, h.licenses.BeginReview)
}

func (h *LicenseHandler) RequestRevision(c echo.Context) error {
	return h.withComment(c, h.licenses.RequestRevision)
}

func (h *LicenseHandler) Revoke(c echo.Context) error {
	return h.withComment(c, h.licenses.Revoke)
}

func (h *LicenseHandler) Approve(c echo.Context) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return err
	}
	input := new(services.ApproveLicenseInput)
	if err := c.Bind(input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	license, err := h.licenses.Approve(c.Request().Context(), actor, id, input)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, license)
}

func (h *LicenseHandler) Reject(c echo.Context) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return err
	}
	req := new(rejectRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	license, err := h.licenses.Reject(c.Request().Context(), actor, id, req.Reason)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, license)
}

func (h *LicenseHandler) History(c echo.Context) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	entries, err := h.licenses.History(c.Request().Context(), actor, id, limit, offset)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"history": entries})
}

func (h *LicenseHandler) withComment(c echo.Context, op func(ctx context.Context, actor common.Identity, id uuid.UUID, comment *string) (*models.License, error)) error {
	actor, id, err := actorAndID(c)
	if err != nil {
		return err
	}
	req := new(commentRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	license, err := op(c.Request().Context(), actor, id, req.Comment)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, license)
}

func actorAndID(c echo.Context) (common.Identity, uuid.UUID, error) {
	actor, ok := middleware.Actor(c)
	if !ok {
		return common.Identity{}, uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return common.Identity{}, uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return actor, id, nil
}

func parseLicenseFilter(c echo.Context) *models.LicenseSearchFilter {
	filter := &models.LicenseSearchFilter{
		Query:     c.QueryParam("q"),
		SortBy:    c.QueryParam("sort_by"),
		SortOrder: c.QueryParam("sort_order"),
	}
	if status := c.QueryParam("status"); status != "" {
		filter.Status = &status
	}
	if raw := c.QueryParam("license_type_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			filter.LicenseTypeID = &id
		}
	}
	if raw := c.QueryParam("applicant_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			filter.ApplicantID = &id
		}
	}
	filter.Limit, _ = strconv.Atoi(c.QueryParam("limit"))
	filter.Offset, _ = strconv.Atoi(c.QueryParam("offset"))
	return filter
}
