package main

import "math/rand/v2"

// ReturnSampler draws annual returns. Every call consumes exactly one draw, so the
// sequence a run consumes depends only on the portfolio/trial/year nesting.
type ReturnSampler interface {
	Normal(mean, std float64) float64
}

// GaussianSampler draws normally distributed returns from its own seeded stream
type GaussianSampler struct {
	rng *rand.Rand
}

// NewGaussianSampler creates a sampler whose draws are fully determined by seed
func NewGaussianSampler(seed uint64) *GaussianSampler {
	return &GaussianSampler{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Normal returns mean + std*z for a standard normal z.
// With std == 0 the draw is still consumed and the result is exactly mean.
func (s *GaussianSampler) Normal(mean, std float64) float64 {
	z := s.rng.NormFloat64()
	if std == 0 {
		return mean
	}
	return mean + std*z
}
