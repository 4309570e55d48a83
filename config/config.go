package config

import "github.com/caarlos0/env/v6"

type Config struct {
	// HTTP server
	Port         string `env:"PORT" envDefault:"5250"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"database/imoveis.db"`

	// Public site base URL, used for property and opt-out links in messages
	SiteURL string `env:"SITE_URL" envDefault:"https://imoveisdf.com.br"`

	// UltraMsg WhatsApp gateway credentials
	UltraMsg struct {
		InstanceID string `env:"ULTRAMSG_INSTANCE_ID"`
		Token      string `env:"ULTRAMSG_TOKEN"`
		BaseURL    string `env:"ULTRAMSG_BASE_URL" envDefault:"https://api.ultramsg.com"`
	}

	// Geocoding chain tuning
	Geocoding struct {
		// Delay between Nominatim attempts in milliseconds (rate-limit courtesy)
		AttemptDelayMS int `env:"GEOCODE_DELAY_MS" envDefault:"1000"`

		// Cache entry lifetime in hours
		CacheTTLHours int `env:"GEOCODE_CACHE_TTL_HOURS" envDefault:"24"`
	}

	// Timeout applied to every external HTTP call (directory, geocoding,
	// messaging), in seconds
	HTTPTimeoutSeconds int `env:"HTTP_TIMEOUT_SECONDS" envDefault:"10"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
