package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/damacus/drivescope/internal/aggregator"
	"github.com/damacus/drivescope/internal/models"
	"github.com/damacus/drivescope/internal/utils"
)

const defaultLargestLimit = 10

// AnalysisHandler serves read-only views over the latest snapshot.
type AnalysisHandler struct {
	snapshot *Snapshot
}

func NewAnalysisHandler(snapshot *Snapshot) *AnalysisHandler {
	return &AnalysisHandler{snapshot: snapshot}
}

func (h *AnalysisHandler) structure(c echo.Context) (*models.Structure, error) {
	s := h.snapshot.Get()
	if s == nil {
		return nil, c.JSON(http.StatusNotFound, echo.Map{
			"error": "no scan available, run POST /api/scan first",
		})
	}
	return s, nil
}

// StructureStats returns the snapshot totals.
func (h *AnalysisHandler) StructureStats(c echo.Context) error {
	s, errResp := h.structure(c)
	if s == nil {
		return errResp
	}
	return c.JSON(http.StatusOK, s.Stats())
}

// Largest returns the biggest folders, or files with files=true.
func (h *AnalysisHandler) Largest(c echo.Context) error {
	s, errResp := h.structure(c)
	if s == nil {
		return errResp
	}

	limit := defaultLargestLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit must be a positive integer"})
		}
		limit = n
	}

	var items []*models.Item
	if c.QueryParam("files") == "true" {
		items = aggregator.LargestFiles(s, limit)
	} else {
		items = aggregator.LargestFolders(s, limit)
	}

	out := make([]echo.Map, 0, len(items))
	for _, item := range items {
		out = append(out, echo.Map{
			"id":         item.ID,
			"name":       item.Name,
			"path":       item.Path,
			"size":       item.DisplaySize(),
			"size_human": utils.FormatFileSize(item.DisplaySize()),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Distribution returns the file size histogram with percentiles.
func (h *AnalysisHandler) Distribution(c echo.Context) error {
	s, errResp := h.structure(c)
	if s == nil {
		return errResp
	}
	return c.JSON(http.StatusOK, aggregator.SizeDistribution(s))
}

// Workspace returns the Workspace document census.
func (h *AnalysisHandler) Workspace(c echo.Context) error {
	s, errResp := h.structure(c)
	if s == nil {
		return errResp
	}
	return c.JSON(http.StatusOK, aggregator.WorkspaceCensus(s))
}

// Types returns the per-type file census.
func (h *AnalysisHandler) Types(c echo.Context) error {
	s, errResp := h.structure(c)
	if s == nil {
		return errResp
	}
	return c.JSON(http.StatusOK, echo.Map{"types": aggregator.FileTypeCensus(s)})
}

// Empty returns the folders with no children.
func (h *AnalysisHandler) Empty(c echo.Context) error {
	s, errResp := h.structure(c)
	if s == nil {
		return errResp
	}

	empty := aggregator.EmptyFolders(s)
	out := make([]echo.Map, 0, len(empty))
	for _, folder := range empty {
		out = append(out, echo.Map{
			"id":   folder.ID,
			"name": folder.Name,
			"path": folder.Path,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"count": len(out), "folders": out})
}
