package main

import (
	"fmt"
	"os"

	"github.com/handshakehq/handshake-core/internal/auth"
	"github.com/handshakehq/handshake-core/internal/config"
	"github.com/handshakehq/handshake-core/internal/db"
	"github.com/handshakehq/handshake-core/internal/excel"
	httphandler "github.com/handshakehq/handshake-core/internal/http"
	"github.com/handshakehq/handshake-core/internal/http/middleware"
	"github.com/handshakehq/handshake-core/internal/logger"
	"github.com/handshakehq/handshake-core/internal/pdf"
	"github.com/handshakehq/handshake-core/internal/realtime"
	"github.com/handshakehq/handshake-core/internal/repository"
	"github.com/handshakehq/handshake-core/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	jobRepo := repository.NewJobRequestRepository(database)
	offerRepo := repository.NewOfferRepository(database)
	dealRepo := repository.NewDealRepository(database)
	messageRepo := repository.NewMessageRepository(database)
	reviewRepo := repository.NewReviewRepository(database)
	profileRepo := repository.NewProfileRepository(database)
	reportRepo := repository.NewReportRepository(database)

	hub := realtime.NewHub(cfg.Realtime.TypingTTL)

	trustService := service.NewTrustService(profileRepo, cfg.Scoring, log)
	negotiationService := service.NewNegotiationService(jobRepo, offerRepo, dealRepo, messageRepo, trustService, hub, log)
	offerService := service.NewOfferService(jobRepo, offerRepo, dealRepo, messageRepo, hub, log)
	reviewService := service.NewReviewService(jobRepo, dealRepo, reviewRepo, messageRepo, trustService, hub, log)
	dealService := service.NewDealService(dealRepo, profileRepo, excel.NewGenerator(), pdf.NewGenerator())
	reportService := service.NewReportService(reportRepo)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(negotiationService, offerService, dealService, reviewService, trustService, reportService, hub, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment, cfg.HTTP.AllowedOrigins)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting handshake core")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
