package tuning

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quadraticCost is (x-3)^2 + (y+2)^2, independent of the sample.
func quadraticCost(features []float64, _ []int) float64 {
	dx := features[0] - 3
	dy := features[1] + 2
	return dx*dx + dy*dy
}

func quadraticConfig() Config[int] {
	return Config[int]{
		Features: []float64{0, 0},
		Min:      []float64{-10, -10},
		Max:      []float64{10, 10},
		Cost:     quadraticCost,
		Data:     []int{0}, // the cost ignores the sample
		MaxEpoch: 20000,
		Seed:     1,
	}
}

func TestNewOptimizerValidation(t *testing.T) {
	base := quadraticConfig()

	cfg := base
	cfg.Features = nil
	_, err := NewOptimizer(cfg)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	cfg = base
	cfg.Min = []float64{0}
	_, err = NewOptimizer(cfg)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	cfg = base
	cfg.Cost = nil
	_, err = NewOptimizer(cfg)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	cfg = base
	cfg.Data = nil
	_, err = NewOptimizer(cfg)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	cfg = base
	cfg.Mu = 1.5
	_, err = NewOptimizer(cfg)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	cfg = base
	cfg.Nu = -0.1
	_, err = NewOptimizer(cfg)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	cfg = base
	cfg.SampleSize = -1
	_, err = NewOptimizer(cfg)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	cfg = base
	cfg.Min = []float64{0, 0}
	cfg.Max = []float64{1e-4, 10} // narrower than 2|h|
	_, err = NewOptimizer(cfg)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestQuadraticConvergence(t *testing.T) {
	opt, err := NewOptimizer(quadraticConfig())
	require.NoError(t, err)

	start := quadraticCost([]float64{0, 0}, nil)

	final, err := opt.Run(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 3, final[0], 0.1, "x should converge to 3")
	assert.InDelta(t, -2, final[1], 0.1, "y should converge to -2")
	assert.Less(t, quadraticCost(final, nil), start)
}

func TestDescentStaysInBounds(t *testing.T) {
	cfg := quadraticConfig()
	// The optimum lies outside the box: descent must pin to the edge
	// without ever leaving it.
	cfg.Min = []float64{-1, -1}
	cfg.Max = []float64{1, 1}
	cfg.MaxEpoch = 3000

	bounds := func(s Status) {
		for i, v := range s.Features {
			if v < cfg.Min[i] || v > cfg.Max[i] {
				t.Fatalf("epoch %d: feature %d = %g escaped [%g, %g]",
					s.Epoch, i, v, cfg.Min[i], cfg.Max[i])
			}
		}
	}
	cfg.OnEpoch = bounds

	opt, err := NewOptimizer(cfg)
	require.NoError(t, err)

	final, err := opt.Run(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 1, final[0], 0.05, "x pinned to the upper bound")
	assert.InDelta(t, -1, final[1], 0.05, "y pinned to the lower bound")
}

func TestZeroGradientTerminates(t *testing.T) {
	cfg := quadraticConfig()
	cfg.Cost = func([]float64, []int) float64 { return 42 } // flat cost
	cfg.MaxEpoch = 0                                        // would loop forever without the gradient check

	opt, err := NewOptimizer(cfg)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := opt.Run(context.Background())
		assert.NoError(t, err)
	}()
	<-done
}

func TestCancellationBetweenEpochs(t *testing.T) {
	cfg := quadraticConfig()
	cfg.MaxEpoch = 0 // rely on cancellation

	ctx, cancel := context.WithCancel(context.Background())
	epochs := 0
	cfg.OnEpoch = func(Status) {
		epochs++
		if epochs == 10 {
			cancel()
		}
	}

	opt, err := NewOptimizer(cfg)
	require.NoError(t, err)

	_, err = opt.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.GreaterOrEqual(t, epochs, 10)
	assert.Less(t, epochs, 20, "should stop promptly after cancellation")
}

func TestMiniBatchSampling(t *testing.T) {
	// Cost averages the sampled values; with replacement the batch mean
	// fluctuates around the data mean.
	data := make([]int, 100)
	for i := range data {
		data[i] = i
	}

	cfg := Config[int]{
		Features:   []float64{5},
		Min:        []float64{0},
		Max:        []float64{10},
		Data:       data,
		MaxEpoch:   50,
		SampleSize: 16,
		Seed:       7,
		Cost: func(features []float64, sample []int) float64 {
			assert.Len(t, sample, 16)
			mean := 0.0
			for _, v := range sample {
				mean += float64(v)
			}
			mean /= float64(len(sample))
			d := features[0] - mean/10
			return d * d
		},
	}

	opt, err := NewOptimizer(cfg)
	require.NoError(t, err)

	_, err = opt.Run(context.Background())
	require.NoError(t, err)
}

func TestDeterministicWithSeed(t *testing.T) {
	run := func() []float64 {
		cfg := quadraticConfig()
		cfg.MaxEpoch = 500
		cfg.SampleSize = 0
		opt, err := NewOptimizer(cfg)
		require.NoError(t, err)
		out, err := opt.Run(context.Background())
		require.NoError(t, err)
		return out
	}

	assert.Equal(t, run(), run())
}

func TestStatusReporting(t *testing.T) {
	cfg := quadraticConfig()
	cfg.MaxEpoch = 5

	var statuses []Status
	cfg.OnEpoch = func(s Status) { statuses = append(statuses, s) }

	opt, err := NewOptimizer(cfg)
	require.NoError(t, err)
	_, err = opt.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, statuses, 5)
	for i, s := range statuses {
		assert.Equal(t, i+1, s.Epoch)
		assert.Len(t, s.Deltas, 2)
		assert.Len(t, s.Features, 2)
		assert.LessOrEqual(t, len(s.Top), 5)
		assert.GreaterOrEqual(t, s.Cost, 0.0)
	}
}
