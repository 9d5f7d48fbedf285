package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Elysion-Sphere/GestCare/internal/animation"
	"github.com/Elysion-Sphere/GestCare/internal/config"
	httpapi "github.com/Elysion-Sphere/GestCare/internal/http"
	"github.com/Elysion-Sphere/GestCare/internal/service"
	"github.com/Elysion-Sphere/GestCare/internal/store"
	"github.com/Elysion-Sphere/GestCare/internal/telemetry"
)

func main() {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		return
	}

	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:     cfg.OTelEnabled,
		ServiceName: cfg.OTelServiceName,
	})
	if err != nil {
		slog.Error("setup telemetry", "error", err)
		return
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			slog.Error("shutdown telemetry", "error", err)
		}
	}()

	st := store.New()
	if cfg.SeedDemoData {
		st.Seed()
		slog.Info("demo data seeded",
			"hospitals", st.Hospitals.Len(),
			"documents", st.Documents.Len(),
		)
	}

	svc := service.New(
		st,
		service.WithAuthConfig(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAccessTokenTTL),
	)
	bootstrapEmail := strings.TrimSpace(cfg.BootstrapUserEmail)
	bootstrapPassword := strings.TrimSpace(cfg.BootstrapUserPassword)
	if bootstrapEmail != "" || bootstrapPassword != "" {
		if bootstrapEmail == "" || bootstrapPassword == "" {
			slog.Error("bootstrap user requires both AUTH_BOOTSTRAP_EMAIL and AUTH_BOOTSTRAP_PASSWORD")
			return
		}
		if err := svc.EnsureUser(ctx, bootstrapEmail, bootstrapPassword); err != nil {
			slog.Error("ensure bootstrap user", "error", err)
			return
		}
		slog.Info("bootstrap user ensured", "email", bootstrapEmail)
	}

	var banner *animation.Banner
	if cfg.BannerEnabled {
		banner = animation.NewBanner(
			cfg.BannerFrameInterval,
			time.Now().UnixNano(),
			float64(cfg.BannerWidth),
			float64(cfg.BannerHeight),
		)
		banner.Start(ctx)
		defer banner.Stop()
	}

	router := httpapi.NewRouter(svc, banner, cfg.OTelServiceName)

	slog.Info("api listening", "port", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		slog.Error("run api", "error", err)
	}
}
