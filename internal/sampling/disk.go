package sampling

import (
	"math"
	"math/rand/v2"
)

// Disk is the circular region fluorophores are placed in.
type Disk struct {
	CenterX float64
	CenterY float64
	Radius  float64
}

// Sample returns a point uniformly distributed over the disk area.
//
// The radial fraction is sqrt(U): the area inside radius r grows with r²,
// so a uniform r would over-populate the centre.
func (d Disk) Sample(rng *rand.Rand) (x, y float64) {
	theta := 2 * math.Pi * rng.Float64()
	r := d.Radius * math.Sqrt(rng.Float64())
	return d.CenterX + r*math.Cos(theta), d.CenterY + r*math.Sin(theta)
}

// Contains reports whether (x, y) lies inside the disk, tolerating rounding
// at the rim.
func (d Disk) Contains(x, y float64) bool {
	dx, dy := x-d.CenterX, y-d.CenterY
	r2 := d.Radius * d.Radius
	return dx*dx+dy*dy <= r2*(1+1e-12)
}

// RingCounts bins points into n concentric rings of equal area. For an
// area-uniform sampler the counts are multinomial with equal probabilities.
// Points outside the disk are ignored.
func (d Disk) RingCounts(xs, ys []float64, n int) []int {
	counts := make([]int, n)
	if n <= 0 {
		return counts
	}
	r2 := d.Radius * d.Radius
	for i := range xs {
		dx, dy := xs[i]-d.CenterX, ys[i]-d.CenterY
		frac := (dx*dx + dy*dy) / r2
		if frac > 1+1e-12 {
			continue
		}
		ring := int(frac * float64(n))
		if ring >= n {
			ring = n - 1
		}
		counts[ring]++
	}
	return counts
}

// ChiSquare returns Pearson's statistic of counts against a uniform
// expectation. With n rings it follows a chi-square law with n-1 degrees of
// freedom when the counts are uniform.
func ChiSquare(counts []int) float64 {
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 || len(counts) == 0 {
		return 0
	}
	expected := float64(total) / float64(len(counts))
	stat := 0.0
	for _, c := range counts {
		diff := float64(c) - expected
		stat += diff * diff / expected
	}
	return stat
}
