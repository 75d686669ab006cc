package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"perizinan/internal/caching"
	"perizinan/internal/repositories"
)

type HealthHandler struct {
	db    repositories.DB
	cache caching.CacheService
}

func NewHealthHandler(db repositories.DB, cache caching.CacheService) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

func (h *HealthHandler) Health(c echo.Context) error {
	ctx := c.Request().Context()
	status := http.StatusOK
	checks := map[string]string{"database": "ok", "cache": "ok"}

	var one int
	if err := h.db.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		checks["database"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if err := h.cache.Ping(ctx); err != nil {
		checks["cache"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, map[string]interface{}{"status": http.StatusText(status), "checks": checks})
}
