// Package config loads server.yaml, the same way the teacher's main.go
// decodes its own config file straight into a struct with gopkg.in/yaml.v3,
// then applies a handful of inline defaults for anything left zero.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymodder/classicserver/internal/textcolour"
)

// Config holds everything the server needs at startup. Field names follow
// the teacher's ListenPort/ProtocolID/MaxPlayers style, generalized from a
// one-port proxy to a many-client game server.
type Config struct {
	ListenPort int    `yaml:"listen_port"`
	ServerName string `yaml:"server_name"`
	Motd       string `yaml:"motd"`
	MaxPlayers int    `yaml:"max_players"`
	Public     bool   `yaml:"public"`

	OnlineMode bool   `yaml:"online_mode"`
	DebugSalt  string `yaml:"debug_salt"` // fixed salt for deterministic tests; empty means random

	WorldName string `yaml:"world_name"`
	WorldDir  string `yaml:"world_dir"`
	MapWidth  int    `yaml:"map_width"`
	MapDepth  int    `yaml:"map_depth"`
	MapHeight int    `yaml:"map_height"`
	Generator string `yaml:"generator"`
	Seed      int64  `yaml:"seed"`

	HeartbeatURL      string `yaml:"heartbeat_url"`
	HeartbeatDisabled bool   `yaml:"heartbeat_disabled"`

	OpsFile       string `yaml:"ops_file"`
	BansFile      string `yaml:"bans_file"`
	BannedIPsFile string `yaml:"banned_ips_file"`

	WhitelistEnabled bool   `yaml:"whitelist_enabled"`
	WhitelistFile    string `yaml:"whitelist_file"`

	CustomColours []textcolour.Custom `yaml:"custom_colours"`

	NoColour bool `yaml:"-"` // set from -C, never persisted
}

// applyDefaults mirrors main.go's inline "if cfg.ProtocolID == 0" checks.
func (c *Config) applyDefaults() {
	if c.ListenPort == 0 {
		c.ListenPort = 25565
	}
	if c.MaxPlayers == 0 {
		c.MaxPlayers = 20
	}
	if c.ServerName == "" {
		c.ServerName = "a classicserver server"
	}
	if c.Motd == "" {
		c.Motd = "welcome!"
	}
	if c.WorldName == "" {
		c.WorldName = "main"
	}
	if c.WorldDir == "" {
		c.WorldDir = "."
	}
	if c.MapWidth == 0 {
		c.MapWidth = 256
	}
	if c.MapDepth == 0 {
		c.MapDepth = 64
	}
	if c.MapHeight == 0 {
		c.MapHeight = 256
	}
	if c.Generator == "" {
		c.Generator = "classic"
	}
	if c.HeartbeatURL == "" {
		c.HeartbeatURL = "https://www.classicube.net/server/heartbeat/"
	}
}

// Load decodes path the same way main.go opens and decodes server.yaml,
// applying defaults to anything the file left at its zero value.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	var c Config
	if err := yaml.NewDecoder(f).Decode(&c); err != nil {
		return nil, fmt.Errorf("config: invalid %s: %w", path, err)
	}
	c.applyDefaults()
	return &c, nil
}

// Default returns an all-defaults configuration, used when no -c path is
// given.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}
