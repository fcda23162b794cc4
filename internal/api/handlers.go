package api

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"pricegrid/server/config"
	"pricegrid/server/internal/clustering"
	"pricegrid/server/internal/database"
	"pricegrid/server/internal/index"
	"pricegrid/server/internal/models"
	"pricegrid/server/internal/stats"
)

type Handler struct {
	db            *database.Database
	indexManager  *index.Manager
	clusterEngine *clustering.Engine
	cfg           *config.Config
	logger        *logrus.Logger
}

// ViewportRequest carries the map viewport query parameters.
type ViewportRequest struct {
	MinLat float64 `form:"minLat" binding:"required"`
	MaxLat float64 `form:"maxLat" binding:"required"`
	MinLon float64 `form:"minLon" binding:"required"`
	MaxLon float64 `form:"maxLon" binding:"required"`
	Zoom   int     `form:"zoom"`
	Target int     `form:"target"`
	Format string  `form:"format"`
	Mode   string  `form:"mode"`
	Cells  int     `form:"cells"`
}

// FilterRequest carries the attribute predicates shared by the statistics
// endpoints.
type FilterRequest struct {
	County    string `form:"county"`
	MinPrice  int64  `form:"minPrice"`
	MaxPrice  int64  `form:"maxPrice"`
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
}

func NewHandler(db *database.Database, indexManager *index.Manager, cfg *config.Config, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	engine := clustering.NewEngine(
		config.CellSizeForZoom,
		clustering.PriceAggregate(cfg.Clustering.PriceAggregate),
		logger,
	)

	return &Handler{
		db:            db,
		indexManager:  indexManager,
		clusterEngine: engine,
		cfg:           cfg,
		logger:        logger,
	}
}

// recordFilter converts the request predicates, normalizing the county
// against the closed county set.
func (f FilterRequest) recordFilter() (models.RecordFilter, error) {
	filter := models.RecordFilter{
		MinPrice: f.MinPrice,
		MaxPrice: f.MaxPrice,
	}

	if f.County != "" {
		county := config.NormalizeCounty(f.County)
		if county == "" {
			return filter, models.ErrInvalidConfig
		}
		filter.County = county
	}

	if f.StartDate != "" {
		start, err := time.Parse("2006-01-02", f.StartDate)
		if err != nil {
			return filter, models.ErrInvalidConfig
		}
		filter.Start = start
	}
	if f.EndDate != "" {
		end, err := time.Parse("2006-01-02", f.EndDate)
		if err != nil {
			return filter, models.ErrInvalidConfig
		}
		filter.End = end
	}

	return filter, nil
}

// GetMapClusters returns the viewport's records grouped into zoom-appropriate
// clusters and points, optionally as GeoJSON.
func (h *Handler) GetMapClusters(c *gin.Context) {
	var req ViewportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.WithError(err).Error("Failed to parse viewport")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid viewport parameters"})
		return
	}

	viewport := models.Viewport{
		BoundingBox: models.BoundingBox{
			MinLat: req.MinLat,
			MinLon: req.MinLon,
			MaxLat: req.MaxLat,
			MaxLon: req.MaxLon,
		},
		Zoom: req.Zoom,
	}

	target := h.cfg.Clustering.TargetClusterCount
	if req.Target > 0 {
		target = req.Target
	}

	var features []models.MapFeature
	var err error
	switch req.Mode {
	case "", "geographic":
		features, err = h.clusterEngine.Cluster(h.indexManager.Current(), viewport, target)
	case "price":
		features, err = h.clusterEngine.ClusterByPriceBand(h.indexManager.Current(), viewport, target)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cluster mode"})
		return
	}
	if err != nil {
		if errors.Is(err, models.ErrInvalidViewport) || errors.Is(err, models.ErrInvalidConfig) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.WithError(err).Error("Failed to cluster viewport")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cluster viewport"})
		return
	}

	if req.Format == "geojson" {
		c.JSON(http.StatusOK, clustering.ToGeoJSON(features))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"features": features,
		"total":    len(features),
	})
}

// GetMapPoints returns raw record points within a bounding box, capped at a
// maximum point count.
func (h *Handler) GetMapPoints(c *gin.Context) {
	var req ViewportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.WithError(err).Error("Failed to parse viewport")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid viewport parameters"})
		return
	}

	bbox := models.BoundingBox{
		MinLat: req.MinLat,
		MinLon: req.MinLon,
		MaxLat: req.MaxLat,
		MaxLon: req.MaxLon,
	}
	if !bbox.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": models.ErrInvalidViewport.Error()})
		return
	}

	var filterReq FilterRequest
	if err := c.ShouldBindQuery(&filterReq); err != nil {
		h.logger.WithError(err).Error("Failed to parse filters")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filter parameters"})
		return
	}
	filter, err := filterReq.recordFilter()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filter parameters"})
		return
	}

	records, err := h.db.FetchRecords(&bbox, filter)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch records")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch records"})
		return
	}

	maxPoints := 1000
	if req.Target > 0 {
		maxPoints = req.Target
	}

	total := len(records)
	if len(records) > maxPoints {
		records = records[:maxPoints]
	}

	points := make([]models.MapPoint, len(records))
	for i, r := range records {
		points[i] = models.MapPoint{
			ID:        r.ID,
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
			Price:     r.Price,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"points": points,
		"total":  total,
	})
}

// GetMapHeatmap aggregates viewport records into a rectangular grid and
// returns one cell per non-empty rectangle with count, average price and a
// normalized intensity, optionally as GeoJSON polygons.
func (h *Handler) GetMapHeatmap(c *gin.Context) {
	var req ViewportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.WithError(err).Error("Failed to parse viewport")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid viewport parameters"})
		return
	}

	mode := models.HeatmapSales
	switch req.Mode {
	case "", "sales":
	case "price":
		mode = models.HeatmapPrice
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid heatmap mode"})
		return
	}

	gridCells := clustering.DefaultHeatmapCells
	if req.Cells != 0 {
		gridCells = req.Cells
	}

	bbox := models.BoundingBox{
		MinLat: req.MinLat,
		MinLon: req.MinLon,
		MaxLat: req.MaxLat,
		MaxLon: req.MaxLon,
	}

	var filterReq FilterRequest
	if err := c.ShouldBindQuery(&filterReq); err != nil {
		h.logger.WithError(err).Error("Failed to parse filters")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filter parameters"})
		return
	}
	filter, err := filterReq.recordFilter()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filter parameters"})
		return
	}

	if !bbox.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": models.ErrInvalidViewport.Error()})
		return
	}

	records, err := h.db.FetchRecords(&bbox, filter)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch records")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch records"})
		return
	}

	cells, err := clustering.Heatmap(records, bbox, gridCells, mode)
	if err != nil {
		if errors.Is(err, models.ErrInvalidViewport) || errors.Is(err, models.ErrInvalidConfig) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.WithError(err).Error("Failed to compute heatmap")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute heatmap"})
		return
	}

	if req.Format == "geojson" {
		c.JSON(http.StatusOK, clustering.HeatmapToGeoJSON(cells))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cells": cells,
		"total": len(cells),
	})
}

// fetchFiltered is the shared fetch path of the statistics endpoints.
func (h *Handler) fetchFiltered(c *gin.Context) ([]models.PropertyRecord, bool) {
	var filterReq FilterRequest
	if err := c.ShouldBindQuery(&filterReq); err != nil {
		h.logger.WithError(err).Error("Failed to parse filters")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filter parameters"})
		return nil, false
	}

	filter, err := filterReq.recordFilter()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filter parameters"})
		return nil, false
	}

	records, err := h.db.FetchRecords(nil, filter)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch records")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch records"})
		return nil, false
	}

	return records, true
}

// GetPriceTrends returns the aggregate price series bucketed by period.
func (h *Handler) GetPriceTrends(c *gin.Context) {
	granularity := c.DefaultQuery("granularity", h.cfg.Statistics.TrendGranularity)
	switch granularity {
	case "day", "month", "year":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid granularity"})
		return
	}

	records, ok := h.fetchFiltered(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, stats.PriceTrends(records, stats.Granularity(granularity)))
}

// GetCorrelation returns the Pearson correlation between price and floor area.
func (h *Handler) GetCorrelation(c *gin.Context) {
	records, ok := h.fetchFiltered(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, stats.PriceSizeCorrelation(records))
}

// GetCountyComparison returns per-county price aggregates.
func (h *Handler) GetCountyComparison(c *gin.Context) {
	dispersion := c.DefaultQuery("dispersion", h.cfg.Statistics.DispersionMeasure)
	switch dispersion {
	case "stddev", "iqr":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid dispersion measure"})
		return
	}

	records, ok := h.fetchFiltered(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, stats.CountyComparison(records, stats.DispersionMeasure(dispersion)))
}

// GetPriceClusters returns equal-frequency price brackets.
func (h *Handler) GetPriceClusters(c *gin.Context) {
	brackets := h.cfg.Statistics.PriceBracketCount
	if v := c.Query("brackets"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 2 || parsed > 20 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bracket count"})
			return
		}
		brackets = parsed
	}

	records, ok := h.fetchFiltered(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, stats.PriceBrackets(records, brackets))
}

// GetDateRange returns the earliest and latest sale dates in the store.
func (h *Handler) GetDateRange(c *gin.Context) {
	minDate, maxDate, ok, err := h.db.DateRange()
	if err != nil {
		h.logger.WithError(err).Error("Failed to read date range")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read date range"})
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{"empty": true})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"min_date": minDate.Format("2006-01-02"),
		"max_date": maxDate.Format("2006-01-02"),
	})
}

// GetCounties lists the supported counties.
func (h *Handler) GetCounties(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"counties": config.GetCountyNames()})
}

// RebuildIndex triggers an immediate spatial index rebuild.
func (h *Handler) RebuildIndex(c *gin.Context) {
	if err := h.indexManager.Rebuild(); err != nil {
		h.logger.WithError(err).Error("Failed to rebuild index")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to rebuild index"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "Index rebuilt",
		"version": h.indexManager.Version(),
	})
}
