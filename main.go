package main

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/gallerypix/pipelinebackend/analysis"
	"github.com/gallerypix/pipelinebackend/config"
	"github.com/gallerypix/pipelinebackend/database"
	"github.com/gallerypix/pipelinebackend/gpu"
	"github.com/gallerypix/pipelinebackend/handlers"
	"github.com/gallerypix/pipelinebackend/media"
	"github.com/gallerypix/pipelinebackend/pipeline"
	"github.com/gallerypix/pipelinebackend/repository"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("FATAL: Failed to create database directory %s: %v", dir, err)
		}
	}

	db, err := database.InitGormDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database: %v", err)
	}
	if err := database.AutoMigrateModels(db); err != nil {
		log.Fatalf("FATAL: Failed to run database migrations: %v", err)
	}

	store, err := media.NewLocalStorage(cfg.MediaStoragePath)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize media store: %v", err)
	}

	engine := analysis.NewEngine(cfg.FaceCascadePath)
	defer engine.Close()

	gpuClient := gpu.NewClient(cfg.GPUBaseURL, cfg.GPUTimeoutSecs)
	if gpuClient.IsConfigured() {
		log.Printf("Using GPU compute service at %s", cfg.GPUBaseURL)
	} else {
		log.Println("No GPU compute service configured; style, retouch and cleanup phases will be skipped")
	}

	galleryRepo := repository.NewGormGalleryRepository(db)
	photoRepo := repository.NewGormPhotoRepository(db)
	jobRepo := repository.NewGormJobRepository(db)
	processingJobRepo := repository.NewGormProcessingJobRepository(db)
	styleProfileRepo := repository.NewGormStyleProfileRepository(db)

	orchestrator := &pipeline.Orchestrator{
		Galleries:      galleryRepo,
		Photos:         photoRepo,
		Jobs:           jobRepo,
		ProcessingJobs: processingJobRepo,
		StyleProfiles:  styleProfileRepo,
		Store:          store,
		Bucket:         cfg.StorageBucket,
		Analyzer:       engine,
		GPU:            gpuClient,
		Composition:    media.NewAdjuster(),
		Output:         media.NewProcessor(),
	}

	log.Printf("Initializing pipeline runner pool (Workers: %d, Queue Size: %d)...",
		cfg.NumPipelineWorkers, cfg.PipelineQueueSize)
	runner := pipeline.NewRunner(orchestrator, cfg.PipelineQueueSize, cfg.NumPipelineWorkers)
	defer runner.Stop()

	log.Printf("Using database: %s", cfg.DatabasePath)
	log.Printf("Storing media in: %s (bucket: %s)", cfg.MediaStoragePath, cfg.StorageBucket)

	r := chi.NewRouter()

	corsOptions := cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	corsHandler := cors.New(corsOptions)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsHandler.Handler)

	processHandler := &handlers.ProcessHandler{
		Galleries:      galleryRepo,
		Photos:         photoRepo,
		ProcessingJobs: processingJobRepo,
		Runner:         runner,
	}

	photoHandler := &handlers.PhotoHandler{Photos: photoRepo}

	r.Route("/api", func(r chi.Router) {
		r.Route("/process", func(r chi.Router) {
			r.Post("/gallery", processHandler.StartProcessing)
			r.Get("/status/{job_id}", processHandler.GetStatus)
		})
		r.Get("/galleries/{gallery_id}/photos", photoHandler.ListGalleryPhotos)
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	log.Printf("Starting server on %s", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, r); err != nil {
		log.Fatalf("FATAL: Server failed: %v", err)
	}
}
