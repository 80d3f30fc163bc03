package tuning

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"
)

// Default hyper-parameters of the Nadam optimizer.
const (
	DefaultH            = 1e-3
	DefaultLearningRate = 1e-3
	DefaultEpsilon      = 1e-8
	DefaultMu           = 0.99
	DefaultNu           = 0.999
	DefaultAnnealExp    = 4e-3
)

// CostFunc evaluates the cost of a feature vector against a sample of
// training examples. Lower is better.
type CostFunc[S any] func(features []float64, sample []S) float64

// Delta is one component of an update step, used in status reporting.
type Delta struct {
	Index int
	Value float64
}

// Status is the per-epoch observability record.
type Status struct {
	Epoch    int
	Cost     float64 // cost of the current features over the full training set
	Top      []Delta // the five largest absolute update components
	Deltas   []float64
	Features []float64
}

// Config parameterizes an Optimizer. Zero-valued hyper-parameters select
// the defaults; a zero SampleSize uses the full training set each epoch
// and a zero Seed seeds the sampler from the wall clock.
type Config[S any] struct {
	// Features is the starting feature vector. It is copied.
	Features []float64

	// Min and Max are the per-dimension box constraints. Each interval
	// must be at least 2|h| wide.
	Min []float64
	Max []float64

	// Cost evaluates a candidate vector against a sample.
	Cost CostFunc[S]

	// Data is the cached training set.
	Data []S

	H            float64 // finite difference step
	LearningRate float64
	Epsilon      float64
	Mu           float64 // first moment decay
	Nu           float64 // second moment decay
	AnnealExp    float64 // momentum annealing exponent

	// MaxEpoch caps the epoch count; 0 means no cap.
	MaxEpoch int

	// SampleSize draws a mini-batch with replacement each epoch.
	SampleSize int

	// Seed makes sampling deterministic for tests.
	Seed int64

	Logger  *zap.Logger
	OnEpoch func(Status)
}

// Optimizer runs Nadam gradient descent with centered-difference
// gradients over an arbitrary cost. It is driven from a single goroutine
// and is cancellable between epochs.
type Optimizer[S any] struct {
	features []float64
	min, max []float64
	cost     CostFunc[S]
	data     []S

	h, learningRate, epsilon float64
	mu, nu, annealExp        float64
	maxEpoch, sampleSize     int

	m, n []float64 // first and second moment accumulators
	pi   float64   // running product of the annealed momentum schedule

	rng     *rand.Rand
	logger  *zap.Logger
	onEpoch func(Status)
}

// NewOptimizer validates the config and builds an optimizer.
func NewOptimizer[S any](cfg Config[S]) (*Optimizer[S], error) {
	d := len(cfg.Features)
	if d == 0 {
		return nil, fmt.Errorf("%w: empty feature vector", ErrInvalidArgument)
	}
	if len(cfg.Min) != d || len(cfg.Max) != d {
		return nil, fmt.Errorf("%w: constraint vectors must match the %d features", ErrInvalidArgument, d)
	}
	if cfg.Cost == nil {
		return nil, fmt.Errorf("%w: nil cost function", ErrInvalidArgument)
	}
	if len(cfg.Data) == 0 {
		return nil, fmt.Errorf("%w: empty training set", ErrInvalidArgument)
	}
	if cfg.SampleSize < 0 {
		return nil, fmt.Errorf("%w: sample size %d", ErrInvalidArgument, cfg.SampleSize)
	}

	h := cfg.H
	if h == 0 {
		h = DefaultH
	}
	lr := cfg.LearningRate
	if lr == 0 {
		lr = DefaultLearningRate
	}
	eps := cfg.Epsilon
	if eps == 0 {
		eps = DefaultEpsilon
	}
	mu := cfg.Mu
	if mu == 0 {
		mu = DefaultMu
	}
	nu := cfg.Nu
	if nu == 0 {
		nu = DefaultNu
	}
	anneal := cfg.AnnealExp
	if anneal == 0 {
		anneal = DefaultAnnealExp
	}

	if mu < 0 || mu > 1 {
		return nil, fmt.Errorf("%w: mu %g outside [0, 1]", ErrInvalidArgument, mu)
	}
	if nu < 0 || nu > 1 {
		return nil, fmt.Errorf("%w: nu %g outside [0, 1]", ErrInvalidArgument, nu)
	}
	for i := 0; i < d; i++ {
		if cfg.Max[i]-cfg.Min[i] < 2*math.Abs(h) {
			return nil, fmt.Errorf("%w: interval [%g, %g] of feature %d narrower than 2|h|",
				ErrInvalidArgument, cfg.Min[i], cfg.Max[i], i)
		}
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	features := make([]float64, d)
	copy(features, cfg.Features)
	clipVector(features, cfg.Min, cfg.Max)

	return &Optimizer[S]{
		features:     features,
		min:          append([]float64(nil), cfg.Min...),
		max:          append([]float64(nil), cfg.Max...),
		cost:         cfg.Cost,
		data:         cfg.Data,
		h:            h,
		learningRate: lr,
		epsilon:      eps,
		mu:           mu,
		nu:           nu,
		annealExp:    anneal,
		maxEpoch:     cfg.MaxEpoch,
		sampleSize:   cfg.SampleSize,
		m:            make([]float64, d),
		n:            make([]float64, d),
		pi:           1,
		rng:          rand.New(rand.NewSource(seed)),
		logger:       logger,
		onEpoch:      cfg.OnEpoch,
	}, nil
}

// Features returns a copy of the current feature vector.
func (o *Optimizer[S]) Features() []float64 {
	return append([]float64(nil), o.features...)
}

// Run descends until the raw gradient vanishes, the epoch cap is hit or
// the context is cancelled between epochs. It returns the final feature
// vector.
func (o *Optimizer[S]) Run(ctx context.Context) ([]float64, error) {
	for epoch := 1; ; epoch++ {
		if err := ctx.Err(); err != nil {
			return o.Features(), err
		}

		batch := o.sample()
		grad := o.gradient(batch)

		if allZero(grad) {
			o.logger.Info("gradient vanished", zap.Int("epoch", epoch))
			return o.Features(), nil
		}

		deltas := o.step(epoch, grad)
		o.report(epoch, deltas)

		if o.maxEpoch > 0 && epoch >= o.maxEpoch {
			return o.Features(), nil
		}
	}
}

// sample returns the epoch's training batch: the full set, or SampleSize
// examples drawn uniformly with replacement.
func (o *Optimizer[S]) sample() []S {
	if o.sampleSize == 0 {
		return o.data
	}
	batch := make([]S, o.sampleSize)
	for i := range batch {
		batch[i] = o.data[o.rng.Intn(len(o.data))]
	}
	return batch
}

// gradient estimates the cost gradient by centered finite differences,
// falling back to a one-sided difference at the box boundary.
func (o *Optimizer[S]) gradient(batch []S) []float64 {
	grad := make([]float64, len(o.features))
	probe := make([]float64, len(o.features))
	copy(probe, o.features)

	for i := range o.features {
		v := o.features[i]
		switch {
		case v+o.h > o.max[i]:
			// Left-sided difference at the upper boundary.
			base := o.cost(probe, batch)
			probe[i] = v - o.h
			grad[i] = (base - o.cost(probe, batch)) / o.h
		case v < o.min[i]+o.h:
			// Right-sided difference at the lower boundary.
			base := o.cost(probe, batch)
			probe[i] = v + o.h
			grad[i] = (o.cost(probe, batch) - base) / o.h
		default:
			probe[i] = v + o.h
			plus := o.cost(probe, batch)
			probe[i] = v - o.h
			minus := o.cost(probe, batch)
			grad[i] = (plus - minus) / (2 * o.h)
		}
		probe[i] = v
	}
	return grad
}

// step applies one Nadam update (Dozat's formulation with bias
// correction) and returns the applied deltas.
func (o *Optimizer[S]) step(epoch int, grad []float64) []float64 {
	t := float64(epoch)

	muT := o.mu * (1 - 0.5*math.Pow(0.96, t*o.annealExp))
	muT1 := o.mu * (1 - 0.5*math.Pow(0.96, (t+1)*o.annealExp))

	piT := o.pi * muT
	piT1 := piT * muT1
	o.pi = piT

	deltas := make([]float64, len(grad))
	for i, g := range grad {
		o.m[i] = o.mu*o.m[i] + (1-o.mu)*g
		mHat := o.m[i] / (1 - piT1)
		gHat := g / (1 - piT)

		o.n[i] = o.nu*o.n[i] + (1-o.nu)*g*g
		nHat := o.n[i] / (1 - math.Pow(o.nu, t))

		mBar := (1-muT)*gHat + muT1*mHat
		delta := o.learningRate * mBar / (math.Sqrt(nHat) + o.epsilon)

		o.features[i] = clip(o.features[i]-delta, o.min[i], o.max[i])
		deltas[i] = delta
	}
	return deltas
}

// report emits the epoch status record. The full-set cost is only
// computed when a callback is listening.
func (o *Optimizer[S]) report(epoch int, deltas []float64) {
	o.logger.Debug("epoch complete", zap.Int("epoch", epoch))

	if o.onEpoch == nil {
		return
	}

	top := make([]Delta, len(deltas))
	for i, d := range deltas {
		top[i] = Delta{Index: i, Value: d}
	}
	sort.Slice(top, func(a, b int) bool {
		return math.Abs(top[a].Value) > math.Abs(top[b].Value)
	})
	if len(top) > 5 {
		top = top[:5]
	}

	o.onEpoch(Status{
		Epoch:    epoch,
		Cost:     o.cost(o.features, o.data),
		Top:      top,
		Deltas:   append([]float64(nil), deltas...),
		Features: o.Features(),
	})
}

func allZero(vec []float64) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clipVector(vec, lo, hi []float64) {
	for i := range vec {
		vec[i] = clip(vec[i], lo[i], hi[i])
	}
}
