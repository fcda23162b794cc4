package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"pricegrid/server/config"
	"pricegrid/server/internal/api"
	"pricegrid/server/internal/database"
	"pricegrid/server/internal/index"
	"pricegrid/server/internal/spatial"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	if cfg.Clustering.GridProfilePath != "" {
		if err := config.LoadGridProfile(cfg.Clustering.GridProfilePath); err != nil {
			logger.WithError(err).Fatal("Failed to load grid profile")
		}
		logger.Infof("Loaded grid profile from %s", cfg.Clustering.GridProfilePath)
	}

	logger.Infof("Using database at: %s", cfg.Database.Path)
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	logger.Info("Running database migrations...")
	if err := db.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	// Build the shared spatial index and keep it fresh in the background
	indexManager := index.NewManager(db, spatial.DefaultCellSize, logger)
	if err := indexManager.Start(cfg.Index.RebuildSchedule); err != nil {
		logger.WithError(err).Fatal("Failed to start index manager")
	}
	defer indexManager.Stop()

	router := gin.Default()
	api.SetupRoutes(router, db, indexManager, cfg, logger)

	logger.Infof("Starting server on port %s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logger.WithError(err).Fatal("Server failed to start")
	}
}
