package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/your-org/presence/internal/api"
	"github.com/your-org/presence/internal/api/ws"
	"github.com/your-org/presence/internal/config"
	"github.com/your-org/presence/internal/faces"
	"github.com/your-org/presence/internal/models"
	"github.com/your-org/presence/internal/observability"
	"github.com/your-org/presence/internal/ocr"
	"github.com/your-org/presence/internal/queue"
	"github.com/your-org/presence/internal/storage"
	"github.com/your-org/presence/internal/verify"
	"github.com/your-org/presence/pkg/dto"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("starting presence API service", "port", cfg.Server.Port)

	// Connect to Postgres
	if err := storage.RunMigrations(context.Background(), cfg.Database); err != nil {
		slog.Error("run migrations", "error", err)
		os.Exit(1)
	}
	db, err := storage.NewPostgresStore(cfg.Database, cfg.Verify.RecordWriteAttempts)
	if err != nil {
		slog.Error("connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Connect to MinIO
	minioStore, err := storage.NewMinIOStore(cfg.MinIO)
	if err != nil {
		slog.Error("connect to minio", "error", err)
		os.Exit(1)
	}
	if err := minioStore.EnsureBucket(context.Background()); err != nil {
		slog.Warn("ensure minio bucket", "error", err)
	}

	// Connect to NATS
	producer, err := queue.NewProducer(cfg.NATS.URL)
	if err != nil {
		slog.Error("connect to nats", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	if err := producer.EnsureStream(context.Background()); err != nil {
		slog.Warn("ensure nats stream", "error", err)
	}

	// AWS collaborator clients
	awsCfg, err := loadAWSConfig(cfg.AWS)
	if err != nil {
		slog.Error("load aws config", "error", err)
		os.Exit(1)
	}
	extractor := ocr.NewTextractExtractor(awsCfg, minioStore)
	comparator := faces.NewRekognitionComparator(awsCfg, minioStore, cfg.Verify.FaceMatchThreshold)

	policy, err := verify.ParsePolicy(cfg.Verify.Policy)
	if err != nil {
		slog.Error("parse verification policy", "error", err)
		os.Exit(1)
	}
	matchMode, err := verify.ParseNameMatchMode(cfg.Verify.NameMatchMode)
	if err != nil {
		slog.Error("parse name match mode", "error", err)
		os.Exit(1)
	}

	svc := verify.NewService(minioStore, extractor, comparator, db, producer, verify.Options{
		NamesImageKey:      cfg.Verify.NamesImageKey,
		FacesImageKey:      cfg.Verify.FacesImageKey,
		FaceMatchThreshold: cfg.Verify.FaceMatchThreshold,
		Policy:             policy,
		NameMatchMode:      matchMode,
	})

	// WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Broadcast recorded verdicts to connected clients
	consumer, err := queue.NewConsumer(cfg.NATS.URL)
	if err != nil {
		slog.Error("create verification consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = consumer.ConsumeVerifications(ctx, "api-feed", func(ctx context.Context, msg jetstream.Msg) error {
		var evt models.VerificationEvent
		if err := json.Unmarshal(msg.Data(), &evt); err != nil {
			return err
		}

		hub.BroadcastEvent(&dto.WSEvent{
			Type: "verification_recorded",
			Data: dto.VerifyLogEntry{
				Email:         evt.Email,
				Date:          evt.Date,
				Name:          evt.Name,
				NameMatch:     evt.NameMatch,
				FaceMatch:     evt.FaceMatch,
				Participation: evt.Participation,
				Timestamp:     evt.Timestamp.Format(time.RFC3339),
			},
		})
		return nil
	})
	if err != nil {
		slog.Warn("start verification consumer", "error", err)
	}

	// Setup router
	router := api.NewRouter(api.RouterConfig{
		Verifier: svc,
		Records:  db,
		DB:       db,
		MinIO:    minioStore,
		NATS:     producer,
		Hub:      hub,
	})

	// Start HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("API server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down API server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("API server stopped")
}

// loadAWSConfig builds the shared client config for Textract and Rekognition.
// Static credentials from the config file win; otherwise the default chain
// (environment, shared profile, instance role) applies.
func loadAWSConfig(cfg config.AWSConfig) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	return awsconfig.LoadDefaultConfig(context.Background(), opts...)
}
