package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/cors"

	"recipeshare_backend/auth"
	"recipeshare_backend/config"
	"recipeshare_backend/handlers"
	"recipeshare_backend/logger"
	"recipeshare_backend/metrics"
	"recipeshare_backend/middleware"
	"recipeshare_backend/storage"
	"recipeshare_backend/store"
	"recipeshare_backend/store/firestoredb"
	"recipeshare_backend/store/memstore"
	"recipeshare_backend/store/mongodb"
)

func openStore(ctx context.Context, cfg config.DatabaseConfig) (store.Store, error) {
	switch cfg.Driver {
	case "firestore":
		s, err := firestoredb.New(ctx, cfg.ProjectID, cfg.CredentialsFile)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "mongo":
		s, err := mongodb.New(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory":
		return memstore.New(), nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}

func corsHandler(cfg config.HTTPConfig, h http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"Content-Type", "Authorization", middleware.APIKeyHeader, middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
	}).Handler(h)
}

func serve(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Env)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	st, err := openStore(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Database.Driver, err)
	}
	defer st.Close()

	objects, closeObjects, err := storage.Open(ctx, cfg.Storage, cfg.Database.CredentialsFile)
	if err != nil {
		return fmt.Errorf("open %s object store: %w", cfg.Storage.Driver, err)
	}
	defer closeObjects()

	if cfg.Production() && (cfg.Database.Driver == "memory" || cfg.Storage.Driver == "memory") {
		log.Warn("in-memory backends lose all data on restart", "db", cfg.Database.Driver, "storage", cfg.Storage.Driver)
	}

	m := metrics.New()
	uploader := storage.NewUploader(objects, cfg.Storage.Folder, cfg.Uploads.MaxCount, cfg.Uploads.MaxSizeBytes)
	uploader.OnUpload = m.Uploaded

	var google auth.GoogleVerifier
	if cfg.Auth.GoogleClientID != "" {
		if google, err = auth.NewGoogleVerifier(ctx, cfg.Auth.GoogleClientID); err != nil {
			return fmt.Errorf("google verifier: %w", err)
		}
	} else {
		log.Info("google sign-in disabled")
	}
	if cfg.Auth.APIKey == "" {
		log.Warn("no api key configured; external import and image proxy are closed")
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, log)
	limiter.TrustProxy = cfg.RateLimit.TrustProxy

	api := handlers.New(handlers.Deps{
		Store:    st,
		Auth:     auth.NewService(st, auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), google, log),
		Uploader: uploader,
		Log:      log,
		Metrics:  m,
		APIKey:   cfg.Auth.APIKey,
		Limiter:  limiter,
	})

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           corsHandler(cfg.HTTP, api.Routes()),
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "addr", srv.Addr, "env", cfg.Env, "db", cfg.Database.Driver, "storage", cfg.Storage.Driver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", srv.Addr, err)
	case <-ctx.Done():
	}

	log.Info("shutting down", "grace", cfg.HTTP.ShutdownGrace)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
