package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ErikING-Chile/fast-check/pkg/api"
	"github.com/ErikING-Chile/fast-check/pkg/jobs"
	"github.com/ErikING-Chile/fast-check/pkg/logging"
	"github.com/ErikING-Chile/fast-check/pkg/metrics"
	"github.com/ErikING-Chile/fast-check/pkg/packs"
	"github.com/ErikING-Chile/fast-check/pkg/pipeline"
	"github.com/ErikING-Chile/fast-check/pkg/shutdown"
	"github.com/ErikING-Chile/fast-check/pkg/store"
)

func main() {
	port := flag.String("port", "8090", "API port")
	storeType := flag.String("store", "sqlite", "Store backend: sqlite or memory")
	dbPath := flag.String("db", "fastcheck.db", "SQLite database path")
	dataDir := flag.String("data-dir", "./data", "Working directory for job artifacts and pack indexes")
	packsDir := flag.String("packs-dir", "./packs", "Directory containing knowledge packs")
	workers := flag.Int("workers", 2, "Number of analysis workers")
	enableMetrics := flag.Bool("metrics", true, "Enable Prometheus metrics endpoint")
	metricsPort := flag.String("metrics-port", "9105", "Prometheus metrics port")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	logger, err := logging.NewFileLogger("fastcheckd", logging.ParseLevel(*logLevel), false)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	logger.Info("Starting fast-check job service")
	logger.Info("Configuration", map[string]interface{}{
		"port":    *port,
		"store":   *storeType,
		"workers": *workers,
	})

	dataStore, err := store.NewStore(store.Config{Type: *storeType, Path: *dbPath})
	if err != nil {
		logger.Fatal("Failed to create store", map[string]interface{}{"error": err.Error()})
	}
	if *storeType == "memory" {
		logger.Warn("Using in-memory store, jobs will not survive restarts")
	}

	library := packs.NewLibrary(*packsDir, *dataDir)
	runner := pipeline.New(*dataDir, library)
	controller := jobs.NewController(dataStore, runner, *workers)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	controller.Start(workerCtx)
	logger.Info("Worker pool started", map[string]interface{}{"workers": *workers})

	handler := api.NewHandler(controller, dataStore, library)
	router := mux.NewRouter()
	router.Use(metrics.InstrumentHandler)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:         ":" + *port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	var metricsSrv *http.Server
	if *enableMetrics {
		exporter := metrics.NewExporter(dataStore)
		metricsRouter := mux.NewRouter()
		metricsRouter.Handle("/metrics", exporter).Methods("GET")
		metricsSrv = &http.Server{
			Addr:         ":" + *metricsPort,
			Handler:      metricsRouter,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
		go func() {
			log.Printf("Metrics server listening on :%s", *metricsPort)
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("Metrics server error: %v", err)
			}
		}()
	}

	go func() {
		log.Printf("Job service listening on :%s", *port)
		log.Println("API endpoints:")
		log.Println("  POST   /jobs")
		log.Println("  GET    /jobs")
		log.Println("  GET    /jobs/{id}")
		log.Println("  GET    /jobs/{id}/result")
		log.Println("  PATCH  /jobs/{id}/edits")
		log.Println("  GET    /jobs/{id}/export/{format}")
		log.Println("  POST   /packs/index")
		log.Println("  GET    /health")
		log.Println("  GET    /diagnostics")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	manager := shutdown.New(30 * time.Second)
	manager.Register(shutdown.CloseResource(dataStore, "store"))
	manager.Register(func(ctx context.Context) error {
		stopWorkers()
		controller.Wait()
		logger.Info("Worker pool stopped")
		return nil
	})
	if metricsSrv != nil {
		manager.Register(shutdown.StopHTTPServer(metricsSrv, "metrics"))
	}
	manager.Register(shutdown.StopHTTPServer(srv, "api"))

	manager.Wait()
	manager.Shutdown()
	logger.Close()
}
