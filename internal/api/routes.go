package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"pricegrid/server/config"
	"pricegrid/server/internal/database"
	"pricegrid/server/internal/index"
)

func SetupRoutes(router *gin.Engine, db *database.Database, indexManager *index.Manager, cfg *config.Config, logger *logrus.Logger) {
	handler := NewHandler(db, indexManager, cfg, logger)

	router.Use(cors.Default())

	api := router.Group("/api")
	{
		api.GET("/map/clusters", handler.GetMapClusters)
		api.GET("/map/points", handler.GetMapPoints)
		api.GET("/map/heatmap", handler.GetMapHeatmap)
		api.GET("/statistics/trends", handler.GetPriceTrends)
		api.GET("/statistics/correlation", handler.GetCorrelation)
		api.GET("/statistics/counties", handler.GetCountyComparison)
		api.GET("/statistics/price-clusters", handler.GetPriceClusters)
		api.GET("/statistics/date-range", handler.GetDateRange)
		api.GET("/counties", handler.GetCounties)
		api.POST("/index/rebuild", handler.RebuildIndex)
	}
}
