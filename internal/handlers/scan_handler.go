package handlers

import (
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/mordilloSan/go-logger/logger"

	"github.com/damacus/drivescope/internal/aggregator"
	"github.com/damacus/drivescope/internal/explorer"
)

// ScanHandler triggers scans. One scan runs at a time; a second request
// while one is in flight gets 409.
type ScanHandler struct {
	explorer   *explorer.Explorer
	aggregator *aggregator.Aggregator
	snapshot   *Snapshot
	mu         sync.Mutex
}

func NewScanHandler(e *explorer.Explorer, a *aggregator.Aggregator, snapshot *Snapshot) *ScanHandler {
	return &ScanHandler{explorer: e, aggregator: a, snapshot: snapshot}
}

// Scan runs a scan. Query parameters: force, incremental, and the
// opt-outs cache=false, sizes=false.
func (h *ScanHandler) Scan(c echo.Context) error {
	if !h.mu.TryLock() {
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "a scan is already running",
		})
	}
	defer h.mu.Unlock()

	opts := explorer.ScanOptions{
		UseCache:       c.QueryParam("cache") != "false",
		CalculateSizes: c.QueryParam("sizes") != "false",
		Force:          c.QueryParam("force") == "true",
		Incremental:    c.QueryParam("incremental") == "true",
	}

	structure, err := h.explorer.ScanCompleteDrive(c.Request().Context(), opts, func(percent int, phase string) {
		logger.Debugf("scan progress: %d%% (%s)", percent, phase)
	})
	if err != nil {
		logger.Errorf("scan failed: %v", err)
		return c.JSON(http.StatusBadGateway, echo.Map{
			"error": "scan failed",
		})
	}
	h.snapshot.Set(structure)

	return c.JSON(http.StatusOK, echo.Map{
		"structure":  structure.Stats(),
		"aggregator": h.aggregator.Stats(),
	})
}
