package nav

import "time"

const (
	defaultConnectivityRadius = 10.0
	defaultObstacleRadius     = 1.0
	defaultRebuildInterval    = 1000 * time.Millisecond
)

// Config holds the tunables of a navigable area. Zero fields take defaults.
type Config struct {
	// ConnectivityRadius is the exclusive upper bound on edge length.
	ConnectivityRadius float64
	// ObstacleRadius is the blocking radius of every obstacle point.
	ObstacleRadius float64
	// SnapRadius bounds how far a query point may be from the node it maps to.
	// Defaults to ConnectivityRadius.
	SnapRadius float64
	// RebuildInterval is the minimum time between two adjacency rebuilds.
	RebuildInterval time.Duration
	// MaxSearchIterations caps A* expansions. Zero means run to completion.
	MaxSearchIterations int
}

func DefaultConfig() Config {
	return Config{
		ConnectivityRadius: defaultConnectivityRadius,
		ObstacleRadius:     defaultObstacleRadius,
		SnapRadius:         defaultConnectivityRadius,
		RebuildInterval:    defaultRebuildInterval,
	}
}

func (c Config) withDefaults() Config {
	if c.ConnectivityRadius <= 0 {
		c.ConnectivityRadius = defaultConnectivityRadius
	}
	if c.ObstacleRadius <= 0 {
		c.ObstacleRadius = defaultObstacleRadius
	}
	if c.SnapRadius <= 0 {
		c.SnapRadius = c.ConnectivityRadius
	}
	if c.RebuildInterval <= 0 {
		c.RebuildInterval = defaultRebuildInterval
	}
	if c.MaxSearchIterations < 0 {
		c.MaxSearchIterations = 0
	}
	return c
}
