package blink

import (
	"fmt"
	"math/rand/v2"

	"github.com/mrsinham/blinkforge/internal/config"
	"github.com/mrsinham/blinkforge/internal/sampling"
)

// Generator builds fully parameterized events. It is read-only after
// construction and may be shared by concurrent workers, each bringing its
// own random generator.
type Generator struct {
	disk          sampling.Disk
	sigma         sampling.Sampler
	intensity     sampling.Sampler
	offset        sampling.Sampler
	backgroundStd sampling.Sampler
	chiSquared    sampling.Sampler
	uncertainty   sampling.Sampler
}

// NewGenerator builds the samplers described by cfg.
func NewGenerator(cfg *config.Config) (*Generator, error) {
	g := &Generator{disk: cfg.Particle.Disk()}

	targets := []*sampling.Sampler{
		&g.sigma, &g.intensity, &g.offset, &g.backgroundStd, &g.chiSquared, &g.uncertainty,
	}
	for i, q := range cfg.Quantities() {
		s, err := q.Distribution().Sampler()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", q.Name, err)
		}
		*targets[i] = s
	}
	return g, nil
}

// Generate returns the event for (id, frame). Each quantity is drawn
// independently of the others.
func (g *Generator) Generate(id, frame int, rng *rand.Rand) Event {
	x, y := g.disk.Sample(rng)
	return Event{
		ID:            id,
		Frame:         frame,
		X:             x,
		Y:             y,
		Sigma:         g.sigma.Draw(rng),
		Intensity:     g.intensity.Draw(rng),
		Offset:        g.offset.Draw(rng),
		BackgroundStd: g.backgroundStd.Draw(rng),
		ChiSquared:    g.chiSquared.Draw(rng),
		Uncertainty:   g.uncertainty.Draw(rng),
	}
}

// Disk returns the region positions are drawn from.
func (g *Generator) Disk() sampling.Disk {
	return g.disk
}
