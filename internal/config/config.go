package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/playperu/territorio/internal/territorio"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/territorio.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	SPADir   string     `env:"SPA_DIR" envDefault:"../web/dist"`
	// RedisURL enables cross-instance event fanout when set.
	RedisURL string `env:"REDIS_URL"`

	MapCenterLat float64 `env:"MAP_CENTER_LAT" envDefault:"20.6767"`
	MapCenterLng float64 `env:"MAP_CENTER_LNG" envDefault:"-103.3475"`
	MapZoom      float64 `env:"MAP_ZOOM" envDefault:"15"`

	PlayerOrder  []string          `env:"PLAYER_ORDER" envDefault:"USER_A,USER_B"`
	PlayerNames  map[string]string `env:"PLAYER_NAMES" envDefault:"USER_A:JaliscoRider,USER_B:TapatioSpeed"`
	OwnerPalette map[string]string `env:"OWNER_PALETTE" envDefault:"USER_A:#06b6d4,USER_B:#ec4899"`

	SameOwnerHoles bool          `env:"SAME_OWNER_HOLES" envDefault:"false"`
	PersistTimeout time.Duration `env:"PERSIST_TIMEOUT" envDefault:"5s"`
}

// Load reads .env.local and .env when present, then the environment. Values
// already set in the environment win.
func Load() (*Config, error) {
	for _, f := range []string{".env.local", ".env"} {
		_ = godotenv.Load(f)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if len(cfg.PlayerOrder) == 0 {
		return nil, errors.New("PLAYER_ORDER must name at least one player")
	}
	return &cfg, nil
}

// Center returns the initial map center.
func (c *Config) Center() territorio.Coordinate {
	return territorio.Coordinate{Lat: c.MapCenterLat, Lng: c.MapCenterLng}
}

// Players builds the ordered player list. Players without a configured name
// use their id and players without a palette entry are gray.
func (c *Config) Players() []territorio.Player {
	players := make([]territorio.Player, 0, len(c.PlayerOrder))
	for _, id := range c.PlayerOrder {
		name := c.PlayerNames[id]
		if name == "" {
			name = id
		}
		color := c.OwnerPalette[id]
		if color == "" {
			color = "#888888"
		}
		players = append(players, territorio.Player{
			ID:        id,
			Name:      name,
			Color:     color,
			FillColor: color,
		})
	}
	return players
}
