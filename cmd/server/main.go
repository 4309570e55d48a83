package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"imoveisdf/server/config"
	"imoveisdf/server/internal/agent"
	"imoveisdf/server/internal/api"
	"imoveisdf/server/internal/database"
	"imoveisdf/server/internal/geocoding"
	"imoveisdf/server/internal/matching"
	"imoveisdf/server/internal/whatsapp"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.WithError(err).Fatal("Failed to create database directory")
		}
	}

	db, err := database.NewDatabase(cfg.DatabasePath, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	httpTimeout := time.Duration(cfg.HTTPTimeoutSeconds) * time.Second

	directory := geocoding.NewViaCEP(logger, httpTimeout)
	coords := geocoding.NewNominatim(logger, httpTimeout, time.Duration(cfg.Geocoding.AttemptDelayMS)*time.Millisecond)
	geocoder := geocoding.NewGeocoder(logger, directory, coords, time.Duration(cfg.Geocoding.CacheTTLHours)*time.Hour)

	transport := whatsapp.NewClient(logger, cfg.UltraMsg.BaseURL, cfg.UltraMsg.InstanceID, cfg.UltraMsg.Token, httpTimeout)
	if !transport.Configured() {
		logger.Warn("UltraMsg credentials missing; outbound notifications are disabled")
	}

	dispatcher := whatsapp.NewDispatcher(logger, transport, db, cfg.SiteURL)
	engine := matching.NewEngine(logger)
	agentService := agent.NewService(logger, db, engine, dispatcher, geocoder)

	router := gin.Default()
	router.Use(cors.Default())

	handler := api.NewHandler(logger, agentService, geocoder, db)
	api.SetupRoutes(router, handler)

	logger.Infof("Starting server on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.WithError(err).Fatal("Server failed to start")
	}
}
