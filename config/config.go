package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
)

const (
	DefaultStorageBucket   = "photos"
	DefaultFaceCascadeFile = "./models/haarcascade_frontalface_default.xml"
)

const (
	defaultGPUTimeoutSecs    = 60
	defaultListenAddr        = ":8080"
	defaultPipelineWorkers   = 2
	defaultPipelineQueueSize = 50
	defaultAllowedOrigin     = "http://localhost:5173"
)

type Config struct {
	// database path
	DatabasePath string

	// object storage configuration
	MediaStoragePath string // root directory backing the local object store
	StorageBucket    string // bucket originals and processed outputs live under

	// remote GPU compute service; empty base URL disables all GPU phases
	GPUBaseURL     string
	GPUTimeoutSecs int

	// haar cascade used by the analysis engine's face detector
	FaceCascadePath string

	// HTTP server
	ListenAddr    string
	AllowedOrigin string

	// pipeline runner pool
	NumPipelineWorkers int
	PipelineQueueSize  int
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func LoadConfig() (Config, error) {
	dbPath := getEnvOrDefault("DATABASE_PATH", "galleries.db")

	mediaStorage := getEnvOrDefault("MEDIA_STORAGE_PATH", filepath.Join(".", "media_storage"))
	absMediaStorage, err := filepath.Abs(mediaStorage)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for media storage '%s': %w", mediaStorage, err)
	}

	cfg := Config{
		DatabasePath:     dbPath,
		MediaStoragePath: absMediaStorage,
		StorageBucket:    getEnvOrDefault("STORAGE_BUCKET", DefaultStorageBucket),
		GPUBaseURL:       getEnvOrDefault("GPU_BASE_URL", ""),
		GPUTimeoutSecs:   getEnvIntOrDefault("GPU_TIMEOUT_SECS", defaultGPUTimeoutSecs),
		FaceCascadePath:  getEnvOrDefault("FACE_CASCADE_PATH", DefaultFaceCascadeFile),

		ListenAddr:    getEnvOrDefault("LISTEN_ADDR", defaultListenAddr),
		AllowedOrigin: getEnvOrDefault("ALLOWED_ORIGIN", defaultAllowedOrigin),

		NumPipelineWorkers: getEnvIntOrDefault("NUM_PIPELINE_WORKERS", defaultPipelineWorkers),
		PipelineQueueSize:  getEnvIntOrDefault("PIPELINE_QUEUE_SIZE", defaultPipelineQueueSize),
	}

	return cfg, nil
}
