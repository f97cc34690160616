// Package config handles knitmesh configuration loading and management.
package config

import (
	"fmt"
	"math"
	"time"

	"github.com/chazu/knitmesh/pkg/pattern"
)

// Mesher names.
const (
	MesherSweep = "sweep"
	MesherSolid = "solid"
)

// Config holds all settings.
type Config struct {
	Render  RenderConfig  `yaml:"render"`
	Engine  EngineConfig  `yaml:"engine"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// RenderConfig holds the defaults applied to patterns that do not set their
// own scalars, plus assembler settings.
type RenderConfig struct {
	YarnWidth  float64 `yaml:"yarn_width"`
	Gauge      float64 `yaml:"gauge"`
	StitchRes  int     `yaml:"stitch_res"`
	RadialRes  int     `yaml:"radial_res"`
	Workers    int     `yaml:"workers"`
	FailFast   bool    `yaml:"fail_fast"`
	Mesher     string  `yaml:"mesher"`      // "sweep" or "solid"
	SolidCells int     `yaml:"solid_cells"` // marching cubes resolution for the solid mesher
}

// EngineConfig holds DSL evaluation settings.
type EngineConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// OutputConfig holds mesh output settings.
type OutputConfig struct {
	Path   string `yaml:"path"` // empty writes to stdout
	Pretty bool   `yaml:"pretty"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Render: RenderConfig{
			YarnWidth:  pattern.DefaultYarnWidth,
			Gauge:      pattern.DefaultGauge,
			StitchRes:  pattern.DefaultStitchRes,
			RadialRes:  pattern.DefaultRadialRes,
			Workers:    1,
			FailFast:   false,
			Mesher:     MesherSweep,
			SolidCells: 64,
		},
		Engine: EngineConfig{
			Timeout: 5 * time.Second,
		},
		Output: OutputConfig{
			Path: "",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks the render settings.
func (c *Config) Validate() error {
	r := c.Render
	if !(r.Gauge > 0) || math.IsInf(r.Gauge, 0) {
		return fmt.Errorf("render.gauge %g must be positive and finite", r.Gauge)
	}
	if !(r.YarnWidth > 0 && r.YarnWidth <= r.Gauge/6) {
		return fmt.Errorf("render.yarn_width: %w: %g not in (0, %g]", pattern.ErrInvalidWidth, r.YarnWidth, r.Gauge/6)
	}
	if r.StitchRes < 2 {
		return fmt.Errorf("render.stitch_res %d must be at least 2", r.StitchRes)
	}
	if r.RadialRes < 3 {
		return fmt.Errorf("render.radial_res %d must be at least 3", r.RadialRes)
	}
	if r.Workers < 1 {
		return fmt.Errorf("render.workers %d must be at least 1", r.Workers)
	}
	switch r.Mesher {
	case MesherSweep, MesherSolid:
	default:
		return fmt.Errorf("render.mesher %q must be %q or %q", r.Mesher, MesherSweep, MesherSolid)
	}
	if c.Engine.Timeout <= 0 {
		return fmt.Errorf("engine.timeout %v must be positive", c.Engine.Timeout)
	}
	return nil
}

// Apply fills the scalars of p that are unset with the render defaults.
func (r RenderConfig) Apply(p *pattern.Pattern) {
	if p.YarnWidth == 0 {
		p.YarnWidth = r.YarnWidth
	}
	if p.Gauge == 0 {
		p.Gauge = r.Gauge
	}
	if p.StitchRes == 0 {
		p.StitchRes = r.StitchRes
	}
	if p.RadialRes == 0 {
		p.RadialRes = r.RadialRes
	}
}
