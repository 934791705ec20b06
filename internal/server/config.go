package server

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/Zereker/skyroute/internal/service"
	"github.com/Zereker/skyroute/internal/store"
	"github.com/Zereker/skyroute/pkg/graph"
	"github.com/Zereker/skyroute/pkg/log"
	"github.com/Zereker/skyroute/pkg/mq"
	"github.com/Zereker/skyroute/pkg/redis"
	"github.com/Zereker/skyroute/pkg/relation"
)

// Config holds all configuration values
type Config struct {
	Server   ServerConfig            `toml:"server"`
	Log      log.Config              `toml:"log"`
	Store    store.Config            `toml:"store"`
	Search   service.SearchConfig    `toml:"search"`
	Neo4j    graph.Neo4jConfig       `toml:"neo4j"`
	Postgres relation.PostgresConfig `toml:"postgres"`
	Redis    redis.Config            `toml:"redis"`
	Kafka    mq.KafkaConfig          `toml:"kafka"`
}

// ServerConfig contains server configuration
type ServerConfig struct {
	Mode string `toml:"mode"` // http, mcp, or both
	Port int    `toml:"port"`
}

// Validate checks server configuration
func (s *ServerConfig) Validate() error {
	if s.Mode == "" {
		s.Mode = "http" // default mode
	}
	switch s.Mode {
	case "http", "mcp", "both":
		// valid
	default:
		return fmt.Errorf("invalid mode: %s, must be http, mcp, or both", s.Mode)
	}
	if s.Mode != "mcp" && (s.Port <= 0 || s.Port > 65535) {
		return fmt.Errorf("port is required and must be between 1 and 65535")
	}
	return nil
}

// Validate checks all configuration fields
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	// stdout carries the MCP protocol
	if c.Server.Mode != "http" && (c.Log.Console == "" || c.Log.Console == "stdout") {
		c.Log.Console = "stderr"
	}

	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}

	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}

	if err := c.Search.Validate(); err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if err := c.Neo4j.Validate(); err != nil {
		return fmt.Errorf("neo4j: %w", err)
	}

	if err := c.Postgres.Validate(); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}

	if err := c.Redis.Validate(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	if err := c.Kafka.Validate(); err != nil {
		return fmt.Errorf("kafka: %w", err)
	}

	switch {
	case c.Store.Backend == store.BackendNeo4j && !c.Neo4j.Enabled:
		return fmt.Errorf("store: backend neo4j requires [neo4j] enabled = true")
	case c.Store.Backend == store.BackendPostgres && !c.Postgres.Enabled:
		return fmt.Errorf("store: backend postgres requires [postgres] enabled = true")
	}

	return nil
}

// LoadConfig reads and parses the configuration file
func LoadConfig(filename string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(filename)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}
