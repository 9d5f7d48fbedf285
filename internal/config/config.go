package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port                  string        `env:"PORT" envDefault:"8080"`
	OTelEnabled           bool          `env:"OTEL_ENABLED" envDefault:"true"`
	OTelServiceName       string        `env:"OTEL_SERVICE_NAME" envDefault:"gestcare-api"`
	JWTSecret             string        `env:"JWT_SECRET,required"`
	JWTIssuer             string        `env:"JWT_ISSUER" envDefault:"gestcare-api"`
	JWTAccessTokenTTL     time.Duration `env:"JWT_ACCESS_TOKEN_TTL" envDefault:"15m"`
	BootstrapUserEmail    string        `env:"AUTH_BOOTSTRAP_EMAIL"`
	BootstrapUserPassword string        `env:"AUTH_BOOTSTRAP_PASSWORD"`
	SeedDemoData          bool          `env:"SEED_DEMO_DATA" envDefault:"true"`
	BannerEnabled         bool          `env:"BANNER_ENABLED" envDefault:"true"`
	BannerFrameInterval   time.Duration `env:"BANNER_FRAME_INTERVAL" envDefault:"16ms"`
	BannerWidth           int           `env:"BANNER_WIDTH" envDefault:"1280"`
	BannerHeight          int           `env:"BANNER_HEIGHT" envDefault:"240"`
}

func Load() (Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
