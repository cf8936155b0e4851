package dice

import "go.uber.org/zap"

// Weighted draws an index from weights.
//
// The draw sums all weights into total, takes r uniformly in [0, total), then
// subtracts each weight in order and returns the first index where r drops to
// <= 0. Index 0 is returned when floating-point drift prevents a hit.
//
// Precondition: len(weights) > 0; every weight >= 0.
// Postcondition: 0 <= result < len(weights).
func Weighted(weights []float64, src Source) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	r := src.Float64() * total
	for i, w := range weights {
		r -= w
		if r <= 0 {
			return i
		}
	}
	return 0
}

// Roller wraps a Source and logger so every placement draw is auditable.
// All draws are logged at debug level with their label and outcome.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that draws from src and logs to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Intn draws uniformly from [0, n) and logs the outcome under label.
//
// Precondition: n > 0.
func (r *Roller) Intn(label string, n int) int {
	v := r.src.Intn(n)
	r.logger.Debug("uniform draw",
		zap.String("label", label),
		zap.Int("n", n),
		zap.Int("result", v),
	)
	return v
}

// Chance reports whether a draw in [0, 1) falls below p.
func (r *Roller) Chance(label string, p float64) bool {
	v := r.src.Float64()
	hit := v < p
	r.logger.Debug("chance draw",
		zap.String("label", label),
		zap.Float64("p", p),
		zap.Bool("hit", hit),
	)
	return hit
}

// Weighted performs a Weighted draw and logs the chosen index under label.
//
// Precondition: len(weights) > 0.
func (r *Roller) Weighted(label string, weights []float64) int {
	i := Weighted(weights, r.src)
	r.logger.Debug("weighted draw",
		zap.String("label", label),
		zap.Int("options", len(weights)),
		zap.Int("result", i),
	)
	return i
}
