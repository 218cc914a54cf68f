// Package config holds the simulation parameters of blinkforge.
// It supports loading from YAML files and environment variables, and
// validates a configuration before any simulation work starts.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/mrsinham/blinkforge/internal/sampling"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// DefaultMinAcceptance is the smallest in-bounds probability accepted for a
// truncated distribution: rejection sampling then needs 10^4 draws per value
// on average at worst.
const DefaultMinAcceptance = 1e-4

// Config contains all simulation parameters.
type Config struct {
	// Frames is the number of simulated camera frames.
	Frames int `yaml:"frames"`

	// BlinksPerFrame is the mean number of blink events per frame.
	BlinksPerFrame float64 `yaml:"blinks_per_frame"`

	// Field is the imaged area, in nanometers.
	Field Field `yaml:"field"`

	// Particle is the disk fluorophores are placed in.
	Particle Particle `yaml:"particle"`

	// Distributions of the measured quantities.
	Sigma         Distribution `yaml:"sigma"`
	Intensity     Distribution `yaml:"intensity"`
	Offset        Distribution `yaml:"offset"`
	BackgroundStd Distribution `yaml:"background_std"`
	ChiSquared    Distribution `yaml:"chi2"`
	Uncertainty   Distribution `yaml:"uncertainty"`

	// MinAcceptance is the smallest in-bounds probability mass accepted for
	// any truncated distribution.
	MinAcceptance float64 `yaml:"min_acceptance"`

	// Seed for reproducibility (0 = derived from the output path).
	Seed int64 `yaml:"seed"`

	// Workers is the number of generation goroutines (0 = CPU cores).
	Workers int `yaml:"workers"`
}

// Field is the imaged area.
type Field struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Particle is the disk-shaped vesicle model.
type Particle struct {
	CenterX float64 `yaml:"center_x"`
	CenterY float64 `yaml:"center_y"`
	Radius  float64 `yaml:"radius"`
}

// Disk returns the particle as a sampling region.
func (p Particle) Disk() sampling.Disk {
	return sampling.Disk{CenterX: p.CenterX, CenterY: p.CenterY, Radius: p.Radius}
}

// Distribution describes how one measured quantity is drawn.
//
// For the normal family, Mean and StdDev are the location and spread of the
// untruncated law. For the lognormal family they are its arithmetic moments
// in the quantity's own units, unless LogSigma is set: LogMu and LogSigma
// then give the location and shape of the logarithm directly. Variance, when
// set, replaces StdDev with its square root on load.
type Distribution struct {
	Family   sampling.Family `yaml:"family"`
	Mean     float64         `yaml:"mean"`
	StdDev   float64         `yaml:"stddev"`
	Variance float64         `yaml:"variance,omitempty"`
	LogMu    float64         `yaml:"log_mu,omitempty"`
	LogSigma float64         `yaml:"log_sigma,omitempty"`
	Min      float64         `yaml:"min"`
	Max      float64         `yaml:"max"`
}

// logSpace reports whether d is parameterized by LogMu and LogSigma.
func (d Distribution) logSpace() bool {
	return d.LogMu != 0 || d.LogSigma != 0
}

// Sampler builds the truncated sampler for d.
func (d Distribution) Sampler() (sampling.Sampler, error) {
	if d.logSpace() {
		if d.Family != sampling.LogNormal {
			return nil, fmt.Errorf("log_mu and log_sigma only apply to the %s family", sampling.LogNormal)
		}
		return sampling.NewLogNormal(d.LogMu, d.LogSigma, d.Min, d.Max)
	}
	return sampling.New(d.Family, d.Mean, d.StdDev, d.Min, d.Max)
}

// Parameters describes the location and spread d is configured with.
func (d Distribution) Parameters() string {
	if d.logSpace() {
		return fmt.Sprintf("log_mu=%g log_sigma=%g", d.LogMu, d.LogSigma)
	}
	return fmt.Sprintf("mean=%g stddev=%g", d.Mean, d.StdDev)
}

// resolve folds Variance into StdDev.
func (d *Distribution) resolve() {
	if d.Variance != 0 {
		d.StdDev = math.Sqrt(d.Variance)
		d.Variance = 0
	}
	if d.Family == "" {
		d.Family = sampling.Normal
	} else if f, err := sampling.ParseFamily(string(d.Family)); err == nil {
		d.Family = f
	}
}

func normalFromVariance(mean, variance, min, max float64) Distribution {
	return Distribution{Family: sampling.Normal, Mean: mean, StdDev: math.Sqrt(variance), Min: min, Max: max}
}

// Default returns the parameters calibrated on a Gag virus-like particle
// imaged with STORM (about 820 localisations in a ~150 nm particle at 55%
// degree of labelling).
func Default() *Config {
	return &Config{
		Frames:         20000,
		BlinksPerFrame: 0.041,
		Field:          Field{Width: 2500, Height: 2500},
		Particle:       Particle{CenterX: 1250, CenterY: 1250, Radius: 75},
		Sigma:          normalFromVariance(110, 565, 50, 155),
		Intensity: Distribution{
			Family: sampling.LogNormal,
			Mean:   660,
			StdDev: 450,
			Min:    250,
			Max:    2740,
		},
		Offset:        normalFromVariance(470, 1330, 410, 630),
		BackgroundStd: normalFromVariance(30, 16, 20, 50),
		ChiSquared:    normalFromVariance(100, 400, 50, 200),
		Uncertainty:   normalFromVariance(20, 25, 10, 30),
		MinAcceptance: DefaultMinAcceptance,
	}
}

// LoadFromFile loads configuration from a YAML file. Unset keys keep their
// default values; environment overrides are applied last.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	ApplyEnvOverrides(cfg)
	return cfg, nil
}

// Parse decodes YAML over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return cfg, nil
}

// Encode returns cfg as YAML.
func Encode(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

// Save writes cfg as YAML.
func Save(cfg *Config, path string) error {
	data, err := Encode(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Normalize resolves variances into standard deviations and fills the
// default family and acceptance threshold.
func (c *Config) Normalize() {
	for _, q := range c.quantities() {
		q.dist.resolve()
	}
	if c.MinAcceptance == 0 {
		c.MinAcceptance = DefaultMinAcceptance
	}
}

// Quantity names a measured field and its distribution.
type Quantity struct {
	Name string
	dist *Distribution
}

// Distribution returns the quantity's distribution.
func (q Quantity) Distribution() Distribution {
	return *q.dist
}

func (c *Config) quantities() []Quantity {
	return []Quantity{
		{"sigma", &c.Sigma},
		{"intensity", &c.Intensity},
		{"offset", &c.Offset},
		{"background_std", &c.BackgroundStd},
		{"chi2", &c.ChiSquared},
		{"uncertainty", &c.Uncertainty},
	}
}

// Quantities returns the measured quantities in column order.
func (c *Config) Quantities() []Quantity {
	return c.quantities()
}

// ExpectedBlinks returns floor(Frames * BlinksPerFrame). The small epsilon
// absorbs representation error, e.g. 20000 * 0.041.
func (c *Config) ExpectedBlinks() int {
	if c.Frames <= 0 || c.BlinksPerFrame <= 0 {
		return 0
	}
	return int(math.Floor(float64(c.Frames)*c.BlinksPerFrame + 1e-9))
}

// Validate checks that the configuration is valid. All failures are
// reported together, each wrapping ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.Frames <= 0 {
		fail("frames must be > 0, got %d", c.Frames)
	}
	if c.BlinksPerFrame < 0 || math.IsNaN(c.BlinksPerFrame) {
		fail("blinks_per_frame must be >= 0, got %g", c.BlinksPerFrame)
	}
	if c.BlinksPerFrame > 1 {
		fail("blinks_per_frame must be <= 1 (at most one blink per frame), got %g", c.BlinksPerFrame)
	}
	if c.Frames > 0 && c.BlinksPerFrame > 0 && c.ExpectedBlinks() == 0 {
		fail("blinks_per_frame %g over %d frames schedules no blink", c.BlinksPerFrame, c.Frames)
	}

	if c.Field.Width <= 0 || c.Field.Height <= 0 {
		fail("field dimensions must be > 0, got %gx%g", c.Field.Width, c.Field.Height)
	}
	p := c.Particle
	if !(p.Radius > 0) {
		fail("particle radius must be > 0, got %g", p.Radius)
	} else if c.Field.Width > 0 && c.Field.Height > 0 {
		if p.CenterX-p.Radius < 0 || p.CenterX+p.Radius > c.Field.Width ||
			p.CenterY-p.Radius < 0 || p.CenterY+p.Radius > c.Field.Height {
			fail("particle (center %g,%g radius %g) does not fit in the %gx%g field",
				p.CenterX, p.CenterY, p.Radius, c.Field.Width, c.Field.Height)
		}
	}

	if !(c.MinAcceptance > 0 && c.MinAcceptance <= 1) {
		fail("min_acceptance must be in (0, 1], got %g", c.MinAcceptance)
	}

	for _, q := range c.quantities() {
		s, err := q.dist.Sampler()
		if err != nil {
			fail("%s: %v", q.Name, err)
			continue
		}
		if mass := s.Mass(); !(mass >= c.MinAcceptance) {
			fail("%s: only %.3g of the probability mass lies in [%g, %g] (need >= %g); sampling would not terminate",
				q.Name, mass, q.dist.Min, q.dist.Max, c.MinAcceptance)
		}
	}

	if c.Workers < 0 {
		fail("workers must be >= 0, got %d", c.Workers)
	}

	return errors.Join(errs...)
}

// ApplyEnvOverrides applies BLINKFORGE_* environment variables.
func ApplyEnvOverrides(c *Config) {
	if v := os.Getenv("BLINKFORGE_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = n
		}
	}
	if v := os.Getenv("BLINKFORGE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
	if v := os.Getenv("BLINKFORGE_FRAMES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Frames = n
		}
	}
	if v := os.Getenv("BLINKFORGE_BLINKS_PER_FRAME"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.BlinksPerFrame = f
		}
	}
}
