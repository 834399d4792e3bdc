package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"user-backend/internal/config"
	"user-backend/internal/db"
	docsqlite "user-backend/internal/docstore/sqlite"
	apphttp "user-backend/internal/http"
	idsqlite "user-backend/internal/identity/sqlite"
	"user-backend/internal/service"
	"user-backend/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		logger.Fatalf("auth jwt secret is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer database.Close()

	store := docsqlite.NewStore(database)
	if err := store.Init(ctx); err != nil {
		logger.Fatalf("init document store: %v", err)
	}

	provider := idsqlite.NewProvider(database, idsqlite.Config{
		Issuer:   cfg.Auth.Issuer,
		Secret:   cfg.Auth.JWTSecret,
		TokenTTL: time.Duration(cfg.Auth.TokenTTLMinutes) * time.Minute,
	})
	if err := provider.Init(ctx); err != nil {
		logger.Fatalf("init identity provider: %v", err)
	}

	userService := service.NewUserService(store, provider)
	commentService := service.NewCommentService(store)

	avatarStorage := buildStorage(ctx, cfg, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(
		userService,
		commentService,
		avatarStorage,
		cfg.Storage.Bucket,
		cfg.Storage.KeyPrefix,
	)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) storage.Service {
	if cfg.Storage.Bucket == "" {
		logger.Warn("storage bucket not set, avatar uploads disabled")
		return nil
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		logger.Warnf("load aws config: %v, avatar uploads disabled", err)
		return nil
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client)
}
