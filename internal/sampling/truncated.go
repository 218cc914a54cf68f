// Package sampling draws bounded random values for the blink simulation:
// truncated normal and truncated log-normal measurements, and area-uniform
// positions inside a disk.
//
// Every draw takes the caller's random source. Nothing in this package holds
// mutable state, so samplers can be shared freely between goroutines as long
// as each goroutine brings its own source.
package sampling

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"
)

// Family identifies the distribution a measured quantity is drawn from.
type Family string

const (
	Normal    Family = "normal"
	LogNormal Family = "lognormal"
)

// AllFamilies returns all supported distribution families
func AllFamilies() []Family {
	return []Family{Normal, LogNormal}
}

// ParseFamily parses a family name (case-insensitive)
func ParseFamily(s string) (Family, error) {
	switch Family(strings.ToLower(strings.TrimSpace(s))) {
	case Normal:
		return Normal, nil
	case LogNormal, "log-normal":
		return LogNormal, nil
	default:
		return "", fmt.Errorf("unknown distribution family %q, valid families: %v", s, AllFamilies())
	}
}

// Sampler draws values restricted to an inclusive interval.
type Sampler interface {
	// Draw redraws until a value falls inside the bounds. There is no attempt
	// cap; Mass tells how many attempts to expect.
	Draw(src rand.Source) float64
	// Mass is the probability that a single untruncated draw is in bounds.
	Mass() float64
	// Bounds returns the inclusive interval.
	Bounds() (min, max float64)
}

// TruncatedNormal is N(Mu, Sigma) restricted to [Min, Max].
type TruncatedNormal struct {
	Mu    float64
	Sigma float64
	Min   float64
	Max   float64
}

// Draw implements Sampler.
func (t TruncatedNormal) Draw(src rand.Source) float64 {
	d := distuv.Normal{Mu: t.Mu, Sigma: t.Sigma, Src: src}
	for {
		v := d.Rand()
		if v >= t.Min && v <= t.Max {
			return v
		}
	}
}

// Mass implements Sampler.
func (t TruncatedNormal) Mass() float64 {
	d := distuv.Normal{Mu: t.Mu, Sigma: t.Sigma}
	return d.CDF(t.Max) - d.CDF(t.Min)
}

// Bounds implements Sampler.
func (t TruncatedNormal) Bounds() (float64, float64) {
	return t.Min, t.Max
}

// TruncatedLogNormal is exp(N(Mu, Sigma)) restricted to [Min, Max]. Mu and
// Sigma are the log-space location and shape.
type TruncatedLogNormal struct {
	Mu    float64
	Sigma float64
	Min   float64
	Max   float64
}

// Draw implements Sampler.
func (t TruncatedLogNormal) Draw(src rand.Source) float64 {
	d := distuv.LogNormal{Mu: t.Mu, Sigma: t.Sigma, Src: src}
	for {
		v := d.Rand()
		if v >= t.Min && v <= t.Max {
			return v
		}
	}
}

// Mass implements Sampler.
func (t TruncatedLogNormal) Mass() float64 {
	d := distuv.LogNormal{Mu: t.Mu, Sigma: t.Sigma}
	lo := 0.0
	if t.Min > 0 {
		lo = d.CDF(t.Min)
	}
	if t.Max <= 0 {
		return 0
	}
	return d.CDF(t.Max) - lo
}

// Bounds implements Sampler.
func (t TruncatedLogNormal) Bounds() (float64, float64) {
	return t.Min, t.Max
}

// LogNormalFromMoments converts the arithmetic mean and standard deviation of
// a log-normal variable into the location and shape of its logarithm.
func LogNormalFromMoments(mean, stddev float64) (mu, sigma float64) {
	s2 := math.Log1p((stddev * stddev) / (mean * mean))
	return math.Log(mean) - s2/2, math.Sqrt(s2)
}

// New builds the sampler for a family. For LogNormal, mean and stddev are the
// arithmetic moments in the quantity's own units.
func New(family Family, mean, stddev, min, max float64) (Sampler, error) {
	if min >= max {
		return nil, fmt.Errorf("min (%g) must be < max (%g)", min, max)
	}
	if !(stddev > 0) || math.IsInf(stddev, 0) {
		return nil, fmt.Errorf("stddev must be > 0, got %g", stddev)
	}

	switch family {
	case Normal:
		return TruncatedNormal{Mu: mean, Sigma: stddev, Min: min, Max: max}, nil
	case LogNormal:
		if !(mean > 0) {
			return nil, fmt.Errorf("lognormal mean must be > 0, got %g", mean)
		}
		mu, sigma := LogNormalFromMoments(mean, stddev)
		return NewLogNormal(mu, sigma, min, max)
	default:
		return nil, fmt.Errorf("unknown distribution family %q, valid families: %v", family, AllFamilies())
	}
}

// NewLogNormal builds a truncated log-normal sampler from the log-space
// location mu and shape sigma.
func NewLogNormal(mu, sigma, min, max float64) (Sampler, error) {
	if min >= max {
		return nil, fmt.Errorf("min (%g) must be < max (%g)", min, max)
	}
	if math.IsNaN(mu) || math.IsInf(mu, 0) {
		return nil, fmt.Errorf("lognormal log_mu must be finite, got %g", mu)
	}
	if !(sigma > 0) || math.IsInf(sigma, 0) {
		return nil, fmt.Errorf("lognormal log_sigma must be > 0, got %g", sigma)
	}
	if min < 0 {
		return nil, fmt.Errorf("lognormal min must be >= 0, got %g", min)
	}
	return TruncatedLogNormal{Mu: mu, Sigma: sigma, Min: min, Max: max}, nil
}
