package service

import (
	"fmt"
	"time"

	"github.com/Zereker/skyroute/internal/route"
)

// SearchConfig tunes route search.
type SearchConfig struct {
	DefaultMaxHops int    `toml:"default_max_hops"`
	MaxHopsLimit   int    `toml:"max_hops_limit"`
	MaxPaths       int    `toml:"max_paths"` // negative disables the frontier cap
	CacheTTL       string `toml:"cache_ttl"` // empty disables result caching
}

// DefaultSearchConfig returns the settings used when a field is left empty.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		DefaultMaxHops: 3,
		MaxHopsLimit:   4,
		MaxPaths:       route.DefaultMaxPaths,
	}
}

// Validate fills defaults and checks search configuration.
func (c *SearchConfig) Validate() error {
	def := DefaultSearchConfig()
	if c.DefaultMaxHops == 0 {
		c.DefaultMaxHops = def.DefaultMaxHops
	}
	if c.MaxHopsLimit == 0 {
		c.MaxHopsLimit = def.MaxHopsLimit
	}
	if c.MaxPaths == 0 {
		c.MaxPaths = def.MaxPaths
	}

	if c.DefaultMaxHops < 1 {
		return fmt.Errorf("default_max_hops must be positive")
	}
	if c.MaxHopsLimit < c.DefaultMaxHops {
		return fmt.Errorf("max_hops_limit must be at least default_max_hops (%d)", c.DefaultMaxHops)
	}
	if _, err := c.TTL(); err != nil {
		return err
	}
	return nil
}

// TTL parses CacheTTL. Zero means caching is disabled.
func (c *SearchConfig) TTL() (time.Duration, error) {
	if c.CacheTTL == "" {
		return 0, nil
	}
	ttl, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return 0, fmt.Errorf("cache_ttl is invalid: %w", err)
	}
	if ttl < 0 {
		return 0, fmt.Errorf("cache_ttl must not be negative")
	}
	return ttl, nil
}
