package playback

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config contains the playback module configuration.
type Config struct {
	// LavalinkAddress is the host:port of the Lavalink node.
	LavalinkAddress string `env:"LAVALINK_ADDRESS,notEmpty"`

	// LavalinkPassword is the password for the Lavalink node.
	LavalinkPassword string `env:"LAVALINK_PASSWORD,notEmpty"`

	// PlexURL is the base URL of the Plex Media Server.
	PlexURL string `env:"PLEX_URL,notEmpty"`

	// PlexToken is the Plex access token.
	PlexToken string `env:"PLEX_TOKEN,notEmpty"`

	// IdleTimeout is how long a session may sit idle before it is torn down.
	IdleTimeout time.Duration `env:"PLAYBACK_IDLE_TIMEOUT" envDefault:"10m"`

	// CooldownWindow is the per-user cooldown between control activations.
	CooldownWindow time.Duration `env:"PLAYBACK_COOLDOWN" envDefault:"2s"`
}

// LoadConfig loads the playback configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse playback config: %w", err)
	}

	return cfg, nil
}
