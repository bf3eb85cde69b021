package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ml-training/cmd"
	"ml-training/internal/api"
	"ml-training/internal/config"
	"ml-training/internal/core"
	"ml-training/internal/database"
	"ml-training/internal/messaging"
	"ml-training/internal/metadata"
	"ml-training/internal/storage"
	"ml-training/internal/training"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func newMetadataClient(ctx context.Context, cfg config.Config) (metadata.DynamoAPI, error) {
	if cfg.MetadataBackend == config.MetadataBackendMemory {
		slog.Warn("using in-memory metadata store, model records will not survive a restart")
		return metadata.NewInMemoryDynamo(), nil
	}

	return metadata.NewDynamoClient(ctx, metadata.DynamoConfig{
		Region:          cfg.AWSRegion,
		Endpoint:        cfg.AWSEndpointURL,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	})
}

func newObjectStore(ctx context.Context, cfg config.Config) (storage.ObjectStore, error) {
	if cfg.ArtifactS3Bucket == "" {
		return storage.NewLocalObjectStore(cfg.ArtifactDir)
	}

	endpoint := cfg.S3EndpointURL
	if endpoint == "" {
		endpoint = cfg.AWSEndpointURL
	}

	return storage.NewS3ObjectStore(ctx, storage.S3ClientConfig{
		Endpoint:        endpoint,
		Region:          cfg.AWSRegion,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	}, cfg.ArtifactS3Bucket, cfg.ArtifactDir)
}

func main() {
	log.Println("Starting API Server...")

	cmd.LoadEnvFile()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	if err := cmd.ConfigureLogging(cfg.LogLevel, cfg.LogFormat); err != nil {
		log.Fatalf("error configuring logging: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, pool, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	source := database.NewSource(db)
	seeded, err := source.EnsureSchemaAndSeed(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize training data: %v", err)
	}
	slog.Info("training data ready", "seeded", seeded)

	dynamo, err := newMetadataClient(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create metadata client: %v", err)
	}

	records := metadata.NewStore(dynamo, cfg.ModelTable, cfg.PredictionTable)
	if err := records.EnsureTables(ctx); err != nil {
		log.Fatalf("Failed to initialize metadata tables: %v", err)
	}

	objects, err := newObjectStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create artifact store: %v", err)
	}

	var publisher messaging.Publisher
	var localQueue *messaging.InMemoryQueue
	if cfg.RabbitMQURL != "" {
		rabbit, err := messaging.NewRabbitMQPublisher(cfg.RabbitMQURL)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer rabbit.Close()
		publisher = rabbit
	} else {
		slog.Info("RABBITMQ_URL not set, model trained events stay in process")
		localQueue = messaging.NewInMemoryQueue()
		publisher = localQueue
	}

	service := training.NewService(source, core.NewTrainer(), objects, records, publisher)

	if localQueue != nil {
		processor := training.NewEventProcessor(service, localQueue)
		go processor.Start()
		defer processor.Stop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	apiHandler := api.NewBackendService(service)

	apiHandler.AddRoutes(r)

	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: r,
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	log.Printf("API server listening on port %s", cfg.APIPort)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %s: %v\n", cfg.APIPort, err)
	}

	log.Println("Server stopped.")
}
