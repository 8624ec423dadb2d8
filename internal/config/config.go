package config

import (
	"os"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	"github.com/gravitas-games/stowage/internal/craft"
	"github.com/gravitas-games/stowage/internal/storage"
)

// Config holds all server configuration
type Config struct {
	Server     ServerConfig          `yaml:"server"`
	JWT        JWTConfig             `yaml:"jwt"`
	Redis      RedisConfig           `yaml:"redis"`
	Session    SessionConfig         `yaml:"session"`
	Log        LogConfig             `yaml:"log"`
	Storage    StorageConfig         `yaml:"storage"`
	Items      []storage.ItemDetails `yaml:"items"`
	Recipes    []craft.Recipe        `yaml:"recipes"`
	Containers []ContainerConfig     `yaml:"containers"`
}

// ServerConfig holds server-specific settings
type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TickRate int    `yaml:"tick_rate"` // Hz
}

// JWTConfig holds JWT authentication settings
type JWTConfig struct {
	Issuer              string `yaml:"issuer"`
	PublicKeyURL        string `yaml:"public_key_url"`
	PublicKeyRefreshHrs int    `yaml:"public_key_refresh_hours"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Address         string `yaml:"address"`
	Password        string `yaml:"password"`
	DB              int    `yaml:"db"`
	BlacklistPrefix string `yaml:"blacklist_prefix"`
	SlotLockPrefix  string `yaml:"slot_lock_prefix"`
}

// SessionConfig holds game session settings
type SessionConfig struct {
	MaxPlayers int `yaml:"max_players"`
}

// LogConfig selects logrus level and formatter
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// StorageConfig holds engine tuning
type StorageConfig struct {
	TileSize        int             `yaml:"tile_size"`
	DefaultCapacity int             `yaml:"default_capacity"`
	DefaultStackMax int             `yaml:"default_stack_max"`
	InventorySlots  int             `yaml:"inventory_slots"`
	SlotLock        bool            `yaml:"slot_lock"`
	StartingItems   []storage.Stack `yaml:"starting_items"` // given to each player on join
}

// ContainerConfig seeds one container into the session catalog
type ContainerConfig struct {
	ID        string          `yaml:"id"`
	Name      string          `yaml:"name"`
	Kind      string          `yaml:"kind"` // placed, attached or carried
	Location  string          `yaml:"location"`
	Structure string          `yaml:"structure"`
	Holder    string          `yaml:"holder"`
	X         int             `yaml:"x"`
	Y         int             `yaml:"y"`
	Capacity  int             `yaml:"capacity"`
	Options   storage.Options `yaml:"options"`
	Stacks    []storage.Stack `yaml:"stacks"`
}

// ResolveLocation turns the flat YAML fields into a tagged location
func (c ContainerConfig) ResolveLocation() (storage.Location, error) {
	switch c.Kind {
	case "", "placed":
		return storage.PlacedAt(c.Location, c.X, c.Y), nil
	case "attached":
		return storage.AttachedTo(c.Structure, c.Location, c.X, c.Y), nil
	case "carried":
		if c.Holder == "" {
			return storage.Location{}, oops.Errorf("container %q: carried container needs a holder", c.ID)
		}
		return storage.CarriedBy(storage.OwnerID(c.Holder)), nil
	default:
		return storage.Location{}, oops.Errorf("container %q: unknown kind %q", c.ID, c.Kind)
	}
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Wrapf(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse decodes YAML configuration and applies defaults
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, oops.Wrapf(err, "failed to parse config file")
	}

	// Set defaults if not provided
	if cfg.Server.TickRate == 0 {
		cfg.Server.TickRate = 20
	}
	if cfg.JWT.PublicKeyRefreshHrs == 0 {
		cfg.JWT.PublicKeyRefreshHrs = 24
	}
	if cfg.Session.MaxPlayers == 0 {
		cfg.Session.MaxPlayers = 100
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Storage.TileSize == 0 {
		cfg.Storage.TileSize = 64
	}
	if cfg.Storage.DefaultCapacity == 0 {
		cfg.Storage.DefaultCapacity = storage.DefaultCapacity
	}
	if cfg.Storage.DefaultStackMax == 0 {
		cfg.Storage.DefaultStackMax = storage.DefaultStackMax
	}
	if cfg.Storage.InventorySlots == 0 {
		cfg.Storage.InventorySlots = 36
	}

	for _, c := range cfg.Containers {
		if _, err := c.ResolveLocation(); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}
