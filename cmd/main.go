package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	httpctx "github.com/dtroode/filedepot-server/internal/api/http/context"
	"github.com/dtroode/filedepot-server/internal/api/http/handler"
	"github.com/dtroode/filedepot-server/internal/api/http/middleware"
	"github.com/dtroode/filedepot-server/internal/api/http/router"
	httpServer "github.com/dtroode/filedepot-server/internal/api/http/server"
	"github.com/dtroode/filedepot-server/internal/config"
	"github.com/dtroode/filedepot-server/internal/logger"
	"github.com/dtroode/filedepot-server/internal/model"
	"github.com/dtroode/filedepot-server/internal/repository/postgres"
	"github.com/dtroode/filedepot-server/internal/server"
	"github.com/dtroode/filedepot-server/internal/service"
	storage "github.com/dtroode/filedepot-server/internal/storage/minio"
	"github.com/dtroode/filedepot-server/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	if cfg.JWT.Secret == config.InsecureJWTSecret {
		logger.Warn("running with the default JWT secret, set JWT_SECRET in production")
	}

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	fileRepo := postgres.NewFileRepository(db)
	activityRepo := postgres.NewActivityRepository(db)
	tokenManager := token.NewJWT(cfg.JWT.Secret)
	ctxMgr := httpctx.NewManager()

	minioClient, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
	})
	if err != nil {
		logger.Fatal("failed to create minio client", "error", err)
	}
	storageClient, err := storage.NewClient(ctx, minioClient, cfg.Storage.Bucket, cfg.Storage.Endpoint, cfg.Storage.UseSSL)
	if err != nil {
		logger.Fatal("failed to initialize storage client", "error", err)
	}

	recorder := service.NewRecorder(activityRepo, logger)
	authService := service.NewAuth(userRepo, tokenManager, recorder, logger)
	fileService := service.NewFile(fileRepo, userRepo, storageClient, recorder, logger, cfg.Upload.MaxFileSize, cfg.Upload.AllowedTypes)
	adminService := service.NewAdmin(userRepo, fileRepo, activityRepo, fileService, recorder, logger)

	srv := registerHTTPServer(logger, db, authService, fileService, adminService, tokenManager, userRepo, ctxMgr, cfg)

	var sl model.SecurityLayer

	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address())
		err := s.Start(sl)
		if err != nil {
			logger.Error("failed to start server", "error", err)
		}
	}(srv)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", srv.Address())
	}

	recorder.Wait()

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}

func registerHTTPServer(
	logger *logger.Logger,
	db *postgres.Connection,
	authService *service.Auth,
	fileService *service.File,
	adminService *service.Admin,
	tokenManager model.TokenManager,
	userRepo model.UserStore,
	ctxMgr model.ContextManager,
	cfg *config.Config,
) *httpServer.HTTPServer {
	healthHandler := handler.NewHealth(db, logger)
	authHandler := handler.NewAuth(authService, ctxMgr, logger)
	fileHandler := handler.NewFile(fileService, ctxMgr, logger, cfg.Upload.MaxFileSize)
	adminHandler := handler.NewAdmin(adminService, ctxMgr, logger)

	authenticate := middleware.NewAuthenticate(tokenManager, userRepo, ctxMgr, logger)
	logging := middleware.NewLogging(logger)

	r := router.New(healthHandler, authHandler, fileHandler, adminHandler, authenticate, logging)

	return httpServer.NewHTTPServer(r.Handler(), fmt.Sprintf(":%s", cfg.HTTP.Port), logger)
}
