package simulate

import (
	"math/rand"
	"time"
)

// for deterministic testing
type Clock interface {
	Now() time.Time
}

// for deterministic values
type Rand interface {
	Float64() float64
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

type RealRand struct{ *rand.Rand }

func (r RealRand) Float64() float64 { return r.Rand.Float64() }

// Stepper is the pluggable perturbation strategy: it yields the signed price
// delta for one instrument on one tick.
type Stepper interface {
	Step(symbol string, current float64, elapsed time.Duration) float64
}

// StepperFunc adapts a plain function to Stepper.
type StepperFunc func(symbol string, current float64, elapsed time.Duration) float64

func (f StepperFunc) Step(symbol string, current float64, elapsed time.Duration) float64 {
	return f(symbol, current, elapsed)
}

// RandomWalk draws a zero-mean perturbation with amplitude scaled by the
// volatility factor and by elapsed time since the last tick, so slow tick
// intervals move prices proportionally more.
type RandomWalk struct {
	Volatility float64
	Rand       Rand
}

func (w RandomWalk) Step(_ string, _ float64, elapsed time.Duration) float64 {
	scale := elapsed.Seconds()
	if scale <= 0 || scale > 60 {
		scale = 1
	}
	return (w.Rand.Float64()*2 - 1) * w.Volatility * scale
}
