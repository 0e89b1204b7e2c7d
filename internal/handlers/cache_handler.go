package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/damacus/drivescope/internal/cache"
)

// CacheHandler exposes cache administration.
type CacheHandler struct {
	cache *cache.Cache
}

func NewCacheHandler(c *cache.Cache) *CacheHandler {
	return &CacheHandler{cache: c}
}

// Stats returns cache statistics.
func (h *CacheHandler) Stats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.cache.Stats())
}

// Clear empties the cache, or just the expired rows with expired=true.
func (h *CacheHandler) Clear(c echo.Context) error {
	if c.QueryParam("expired") == "true" {
		removed := h.cache.ClearExpired()
		return c.JSON(http.StatusOK, echo.Map{"cleared": removed, "expired_only": true})
	}
	h.cache.ClearAll()
	return c.JSON(http.StatusOK, echo.Map{"cleared": "all"})
}

// Optimize clears expired rows and compacts the database.
func (h *CacheHandler) Optimize(c echo.Context) error {
	h.cache.Optimize()
	return c.JSON(http.StatusOK, h.cache.Stats())
}
