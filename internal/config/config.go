// Package config handles shatter configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/shatter/internal/logger"
)

// ErrInvalid is returned by Validate for out-of-range settings.
var ErrInvalid = errors.New("invalid config")

// Auto-cluster mode names accepted in the autocluster section.
const (
	ModeProximity   = "proximity"
	ModeBoundingBox = "bounding_box"
	ModeDistance    = "distance"
)

// Config holds all settings.
type Config struct {
	Logging     LoggingConfig     `yaml:"logging"`
	Proximity   ProximityConfig   `yaml:"proximity"`
	AutoCluster AutoClusterConfig `yaml:"autocluster"`

	// RandomSeed seeds anchor jitter when AutoCluster.Jitter is set.
	RandomSeed int64 `yaml:"random_seed"`
	// DebugVisualization logs breaking regions at info level.
	DebugVisualization bool `yaml:"debug_visualization"`
}

// ProximityConfig holds proximity graph tolerances and scan settings.
type ProximityConfig struct {
	VertexTolerance    float32 `yaml:"vertex_tolerance"`
	NormalTolerance    float32 `yaml:"normal_tolerance"`
	AreaTolerance      float32 `yaml:"area_tolerance"`
	Workers            int     `yaml:"workers"` // 0 means GOMAXPROCS
	OctreeMaxDepth     int     `yaml:"octree_max_depth"`
	OctreeLeafCapacity int     `yaml:"octree_leaf_capacity"`
}

// AutoClusterConfig holds defaults for auto-cluster runs.
type AutoClusterConfig struct {
	Mode            string  `yaml:"mode"`
	SiteCount       int     `yaml:"site_count"`
	BoundsExpansion float32 `yaml:"bounds_expansion"` // fraction of box size
	Jitter          bool    `yaml:"jitter"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Proximity: ProximityConfig{
			VertexTolerance:    1e-2,
			NormalTolerance:    1e-1,
			AreaTolerance:      1e-4,
			Workers:            0,
			OctreeMaxDepth:     8,
			OctreeLeafCapacity: 16,
		},
		AutoCluster: AutoClusterConfig{
			Mode:            ModeBoundingBox,
			SiteCount:       10,
			BoundsExpansion: 0.1,
		},
	}
}

// Validate reports the first out-of-range setting.
func (c *Config) Validate() error {
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging.level: %v", ErrInvalid, err)
	}

	p := c.Proximity
	switch {
	case p.VertexTolerance <= 0:
		return fmt.Errorf("%w: proximity.vertex_tolerance must be positive", ErrInvalid)
	case p.NormalTolerance <= 0 || p.NormalTolerance >= 1:
		return fmt.Errorf("%w: proximity.normal_tolerance must be in (0, 1)", ErrInvalid)
	case p.AreaTolerance < 0:
		return fmt.Errorf("%w: proximity.area_tolerance must not be negative", ErrInvalid)
	case p.Workers < 0:
		return fmt.Errorf("%w: proximity.workers must not be negative", ErrInvalid)
	case p.OctreeMaxDepth < 1:
		return fmt.Errorf("%w: proximity.octree_max_depth must be at least 1", ErrInvalid)
	case p.OctreeLeafCapacity < 1:
		return fmt.Errorf("%w: proximity.octree_leaf_capacity must be at least 1", ErrInvalid)
	}

	a := c.AutoCluster
	switch a.Mode {
	case ModeProximity, ModeBoundingBox, ModeDistance:
	default:
		return fmt.Errorf("%w: autocluster.mode %q", ErrInvalid, a.Mode)
	}
	if a.SiteCount < 1 {
		return fmt.Errorf("%w: autocluster.site_count must be at least 1", ErrInvalid)
	}
	if a.BoundsExpansion < 0 {
		return fmt.Errorf("%w: autocluster.bounds_expansion must not be negative", ErrInvalid)
	}
	return nil
}
