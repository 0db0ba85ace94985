// Package config provides configuration loading and management for whiskertrace.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"whiskertrace/internal/models"
	"whiskertrace/pkg/alignment"
	"whiskertrace/pkg/masktoline"
	"whiskertrace/pkg/overlay"
	"whiskertrace/pkg/pathorder"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	Processing struct {
		// NumWorkers is how many frames are processed concurrently
		NumWorkers int `yaml:"numWorkers"`

		// Verbose enables progress output
		Verbose bool `yaml:"verbose"`
	} `yaml:"processing"`

	Media struct {
		// ProcessRadius is the Gaussian blur radius of processed frames
		ProcessRadius float64 `yaml:"processRadius"`

		// MaskThreshold binarizes mask images; pixels at or above it are foreground
		MaskThreshold int `yaml:"maskThreshold"`
	} `yaml:"media"`

	// Ordering controls pixel-to-polyline reconstruction
	Ordering struct {
		Subsample    int     `yaml:"subsample"`
		GapTolerance float64 `yaml:"gapTolerance"`
		Strategy     string  `yaml:"strategy"`

		// ReferenceX, ReferenceY locate the whisker base; lines start near it
		ReferenceX float64 `yaml:"referenceX"`
		ReferenceY float64 `yaml:"referenceY"`
	} `yaml:"ordering"`

	Alignment struct {
		Width              int    `yaml:"width"`
		PerpendicularRange int    `yaml:"perpendicularRange"`
		UseProcessedData   bool   `yaml:"useProcessedData"`
		Approach           string `yaml:"approach"`
		OutputMode         string `yaml:"outputMode"`
	} `yaml:"alignment"`

	MaskToLine struct {
		Method            string  `yaml:"method"`
		PolynomialOrder   int     `yaml:"polynomialOrder"`
		ErrorThreshold    float64 `yaml:"errorThreshold"`
		RemoveOutliers    bool    `yaml:"removeOutliers"`
		SmoothLine        bool    `yaml:"smoothLine"`
		OutputResolution  float64 `yaml:"outputResolution"`
		SimplifyTolerance float64 `yaml:"simplifyTolerance"`
	} `yaml:"maskToLine"`

	Overlay struct {
		Scale       int `yaml:"scale"`
		PointRadius int `yaml:"pointRadius"`
	} `yaml:"overlay"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Processing.NumWorkers = runtime.NumCPU()
	cfg.Processing.Verbose = true

	cfg.Media.ProcessRadius = 1.5
	cfg.Media.MaskThreshold = 128

	cfg.Ordering.Subsample = 1
	cfg.Ordering.Strategy = pathorder.StrategyAuto.String()

	cfg.Alignment.Width = 20
	cfg.Alignment.PerpendicularRange = 50
	cfg.Alignment.Approach = models.PeakWidthHalfMax.String()
	cfg.Alignment.OutputMode = models.AlignedVertices.String()

	cfg.MaskToLine.Method = masktoline.Skeletonize.String()
	cfg.MaskToLine.PolynomialOrder = 3
	cfg.MaskToLine.ErrorThreshold = 5
	cfg.MaskToLine.RemoveOutliers = true
	cfg.MaskToLine.OutputResolution = 5

	o := overlay.DefaultOptions()
	cfg.Overlay.Scale = o.Scale
	cfg.Overlay.PointRadius = o.PointRadius

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}
	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}

// Validate reports every out-of-range or unknown setting.
func (c *Config) Validate() error {
	var errs []error
	if c.Processing.NumWorkers < 0 {
		errs = append(errs, fmt.Errorf("processing.numWorkers must be >= 0, got %d", c.Processing.NumWorkers))
	}
	if c.Media.ProcessRadius < 0 {
		errs = append(errs, fmt.Errorf("media.processRadius must be >= 0, got %g", c.Media.ProcessRadius))
	}
	if c.Media.MaskThreshold < 0 || c.Media.MaskThreshold > 255 {
		errs = append(errs, fmt.Errorf("media.maskThreshold must be in [0, 255], got %d", c.Media.MaskThreshold))
	}
	if c.Ordering.GapTolerance < 0 {
		errs = append(errs, fmt.Errorf("ordering.gapTolerance must be >= 0, got %g", c.Ordering.GapTolerance))
	}
	if _, ok := pathorder.ParseStrategy(c.Ordering.Strategy); !ok {
		errs = append(errs, fmt.Errorf("ordering.strategy: unknown value %q", c.Ordering.Strategy))
	}
	if c.Alignment.Width < 0 || c.Alignment.PerpendicularRange < 0 {
		errs = append(errs, fmt.Errorf("alignment width and perpendicularRange must be >= 0"))
	}
	if _, ok := parseApproach(c.Alignment.Approach); !ok {
		errs = append(errs, fmt.Errorf("alignment.approach: unknown value %q", c.Alignment.Approach))
	}
	if _, ok := parseOutputMode(c.Alignment.OutputMode); !ok {
		errs = append(errs, fmt.Errorf("alignment.outputMode: unknown value %q", c.Alignment.OutputMode))
	}
	if _, ok := masktoline.ParseMethod(c.MaskToLine.Method); !ok {
		errs = append(errs, fmt.Errorf("maskToLine.method: unknown value %q", c.MaskToLine.Method))
	}
	if c.MaskToLine.PolynomialOrder < 0 {
		errs = append(errs, fmt.Errorf("maskToLine.polynomialOrder must be >= 0, got %d", c.MaskToLine.PolynomialOrder))
	}
	if c.MaskToLine.OutputResolution <= 0 {
		errs = append(errs, fmt.Errorf("maskToLine.outputResolution must be > 0, got %g", c.MaskToLine.OutputResolution))
	}
	return errors.Join(errs...)
}

// OrderingOptions converts the ordering section.
func (c *Config) OrderingOptions() pathorder.Options {
	s, _ := pathorder.ParseStrategy(c.Ordering.Strategy)
	return pathorder.Options{
		Subsample:    c.Ordering.Subsample,
		GapTolerance: c.Ordering.GapTolerance,
		Strategy:     s,
	}
}

// Reference returns the configured whisker base point.
func (c *Config) Reference() models.Point {
	return models.Point{X: c.Ordering.ReferenceX, Y: c.Ordering.ReferenceY}
}

// AlignmentParams converts the alignment section.
func (c *Config) AlignmentParams() alignment.Params {
	approach, _ := parseApproach(c.Alignment.Approach)
	mode, _ := parseOutputMode(c.Alignment.OutputMode)
	return alignment.Params{
		Width:            c.Alignment.Width,
		Range:            c.Alignment.PerpendicularRange,
		UseProcessedData: c.Alignment.UseProcessedData,
		Approach:         approach,
		OutputMode:       mode,
		NumWorkers:       c.Processing.NumWorkers,
	}
}

// MaskToLineParams converts the maskToLine and ordering sections.
func (c *Config) MaskToLineParams() masktoline.Params {
	method, _ := masktoline.ParseMethod(c.MaskToLine.Method)
	return masktoline.Params{
		Method:            method,
		Reference:         c.Reference(),
		Ordering:          c.OrderingOptions(),
		PolynomialOrder:   c.MaskToLine.PolynomialOrder,
		ErrorThreshold:    c.MaskToLine.ErrorThreshold,
		RemoveOutliers:    c.MaskToLine.RemoveOutliers,
		SmoothLine:        c.MaskToLine.SmoothLine,
		OutputResolution:  c.MaskToLine.OutputResolution,
		SimplifyTolerance: c.MaskToLine.SimplifyTolerance,
		NumWorkers:        c.Processing.NumWorkers,
	}
}

// OverlayOptions converts the overlay section.
func (c *Config) OverlayOptions() overlay.Options {
	return overlay.Options{Scale: c.Overlay.Scale, PointRadius: c.Overlay.PointRadius}
}

func parseApproach(name string) (models.FWHMApproach, bool) {
	switch name {
	case "", models.PeakWidthHalfMax.String():
		return models.PeakWidthHalfMax, true
	default:
		return models.PeakWidthHalfMax, false
	}
}

func parseOutputMode(name string) (models.AlignmentOutputMode, bool) {
	switch name {
	case "", models.AlignedVertices.String():
		return models.AlignedVertices, true
	case models.ProfileExtents.String():
		return models.ProfileExtents, true
	default:
		return models.AlignedVertices, false
	}
}
