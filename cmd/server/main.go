package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"piringsehat/internal/app"
	"piringsehat/internal/auth"
	"piringsehat/internal/config"
	"piringsehat/internal/idtoken"
	"piringsehat/internal/server"
	"piringsehat/internal/util"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	leeway, err := config.ParseLeeway(cfg.IdentityLeeway)
	if err != nil {
		log.Fatalf("failed to parse identity leeway: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	appCore, err := app.New(app.Config{
		DatabaseURL:    cfg.DatabaseURL,
		MinioEndpoint:  cfg.MinioEndpoint,
		MinioAccessKey: cfg.MinioAccessKey,
		MinioSecretKey: cfg.MinioSecretKey,
		MinioBucket:    cfg.MinioBucket,
		MinioUseSSL:    cfg.MinioUseSSL,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	verifier, err := idtoken.NewVerifier(idtoken.Config{
		JWKSURL:  cfg.IdentityJWKSURL,
		Issuer:   cfg.IdentityIssuer,
		Audience: cfg.IdentityAudience,
		Leeway:   leeway,
	})
	if err != nil {
		log.Fatalf("failed to init token verifier: %v", err)
	}

	trustedProxies, err := util.NewTrustedProxies(cfg.TrustedProxyCIDRs)
	if err != nil {
		log.Fatalf("failed to parse trusted proxy CIDRs: %v", err)
	}

	httpServer, err := server.New(server.Config{
		App:                          appCore,
		Gate:                         auth.NewGate(verifier, appCore.Store()),
		RedisAddr:                    cfg.RedisAddr,
		RedisPassword:                cfg.RedisPassword,
		SyncRateLimitPerMinute:       cfg.SyncRateLimitPerMinute,
		FoodCreateRateLimitPerMinute: cfg.FoodCreateRateLimitPerMinute,
		MaxUploadBytes:               cfg.MaxUploadBytes,
		AllowedImageExtensions:       cfg.AllowedImageExtensions,
		TrustedProxies:               trustedProxies,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
