// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/rapidaai/scribe/api/recorder-api/config"
	recorder_routers "github.com/rapidaai/scribe/api/recorder-api/router"
	"github.com/rapidaai/scribe/pkg/commons"
	"github.com/rapidaai/scribe/pkg/utils"

	internal_recorder "github.com/rapidaai/scribe/api/recorder-api/internal/audio/recorder"
	internal_capture "github.com/rapidaai/scribe/api/recorder-api/internal/capture"
	internal_cipher "github.com/rapidaai/scribe/api/recorder-api/internal/cipher"
	internal_keystore "github.com/rapidaai/scribe/api/recorder-api/internal/keystore"
	internal_retention "github.com/rapidaai/scribe/api/recorder-api/internal/retention"
	internal_session "github.com/rapidaai/scribe/api/recorder-api/internal/session"
	internal_store "github.com/rapidaai/scribe/api/recorder-api/internal/store"
	internal_sync "github.com/rapidaai/scribe/api/recorder-api/internal/sync"
	internal_transcriber_provider "github.com/rapidaai/scribe/api/recorder-api/internal/transcriber/provider"
	internal_type "github.com/rapidaai/scribe/api/recorder-api/internal/type"
)

const shutdownTimeout = 30 * time.Second

func main() {
	v, err := config.InitConfig()
	if err != nil {
		log.Fatalf("unable to initialize configuration: %v", err)
	}
	cfg, err := config.GetApplicationConfig(v)
	if err != nil {
		log.Fatalf("unable to load configuration: %v", err)
	}

	logger, err := commons.NewApplicationLogger(
		commons.Name(cfg.Name),
		commons.Path(cfg.LogPath),
		commons.Level(cfg.LogLevel),
	)
	if err != nil {
		log.Fatalf("unable to initialize logger: %v", err)
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := internal_store.NewFileStore(logger, cfg.Storage.Path)
	if err != nil {
		logger.Fatalf("unable to open session store: %v", err)
	}
	keys := internal_keystore.NewKeyringStore(logger, cfg.Recording.KeyringService)
	device := internal_capture.NewGatewayDevice(logger)

	streamingFactory := internal_transcriber_provider.NewStreamingFactory(cfg, logger)
	batchFactory, err := internal_transcriber_provider.NewBatchFactory(cfg, logger)
	if err != nil {
		logger.Fatalf("unable to configure transcription: %v", err)
	}

	var syncClient internal_type.SyncClient
	if cfg.Sync.Enabled {
		syncClient, err = internal_sync.NewNoteSyncClient(logger, cfg)
		if err != nil {
			logger.Fatalf("unable to configure sync: %v", err)
		}
	}

	orchestrator := internal_session.NewRecordingOrchestrator(
		rootCtx,
		logger,
		cfg,
		store,
		keys,
		internal_cipher.NewAESGCMCipher(),
		device,
		func() (internal_type.Recorder, error) { return internal_recorder.NewDefaultAudioRecorder(logger) },
		streamingFactory,
		batchFactory,
		syncClient,
	)

	sweeper := internal_retention.NewSweeper(logger, store, orchestrator, cfg.Recording.SweepInterval)
	utils.Go(rootCtx, func() { sweeper.Run(rootCtx) })

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.Default())

	recorder_routers.HealthCheckRoutes(cfg, engine, logger, store)
	recorder_routers.RecordingApiRoutes(cfg, engine, logger, orchestrator, device)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: engine,
	}
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.ListenAndServe()
	}()
	logger.Infow("recorder daemon listening",
		"address", server.Addr,
		"service", cfg.Name,
		"version", cfg.Version,
	)

	select {
	case err := <-serverErrors:
		logger.Fatalf("server failed: %v", err)
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// An in-flight recording goes through the regular stop path so its audio
	// persists before the process exits.
	if err := orchestrator.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("orchestrator shutdown incomplete: %v", err)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown incomplete: %v", err)
	}
	logger.Info("recorder daemon stopped")
}
