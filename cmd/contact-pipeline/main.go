package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go-contact-pipeline/docs"
	"go-contact-pipeline/internal/api"
	"go-contact-pipeline/internal/api/handler"
	"go-contact-pipeline/internal/config"
	"go-contact-pipeline/internal/extract"
	"go-contact-pipeline/internal/load"
	"go-contact-pipeline/internal/pipeline"
	"go-contact-pipeline/internal/store"
	"go-contact-pipeline/pkg/router"
)

// @title Contact Pipeline API
// @version 1.0
// @description Composite ETL and REST integration pipeline service
// @BasePath /
func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("opening store: %v", err)
	}
	defer st.Close()

	orch := pipeline.New(
		extract.NewClient(),
		load.NewSink(st, cfg.LoadConcurrency),
		pipeline.Config{
			ExtractTimeout:     cfg.ExtractTimeout,
			MaxExtractAttempts: cfg.ExtractAttempts,
			RunTimeout:         cfg.RunTimeout,
			MaxBatchSize:       cfg.MaxBatchSize,
			TransformWorkers:   cfg.TransformWorkers,
		},
	)

	r := router.New()
	api.RegisterRoutes(r, handler.New(orch, st))

	errCh := make(chan error, 1)
	go func() {
		errCh <- r.Start(cfg.Addr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server: %v", err)
		}
	case sig := <-stop:
		log.Printf("received %v, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.Stop(ctx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}
}
