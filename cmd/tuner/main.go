// Command tuner fits the evaluator's weight set against a cached set of
// training positions with Nadam gradient descent.
//
// Usage:
//
//	tuner -data positions.epd -out tuned.txt [-config tuner.toml]
//
// The training file holds one "FEN;result" line per position, the result
// being the game outcome from white's point of view (1, 0.5 or 0). Parsed
// positions are cached in a BadgerDB store so later runs skip the parse.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/BurntSushi/toml"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/hailam/chesstuner/internal/engine"
	"github.com/hailam/chesstuner/internal/storage"
	"github.com/hailam/chesstuner/internal/tuning"
)

// config is the TOML-configurable part of a tuning run.
type config struct {
	// DataDir overrides the training cache location.
	DataDir string `toml:"data_dir"`

	// Epochs caps the run; 0 descends until the gradient vanishes.
	Epochs int `toml:"epochs"`

	// SampleSize draws a mini-batch per epoch; 0 uses the full set.
	SampleSize int `toml:"sample_size"`

	// H is the finite-difference probe step. Integer centipawn weights
	// need at least 1.
	H float64 `toml:"h"`

	LearningRate float64 `toml:"learning_rate"`
	SigmoidScale float64 `toml:"sigmoid_scale"`

	// Seed fixes the mini-batch sampler for reproducible runs.
	Seed int64 `toml:"seed"`

	// EvalCacheMB and PawnCacheMB size the evaluator's caches.
	EvalCacheMB int `toml:"eval_cache_mb"`
	PawnCacheMB int `toml:"pawn_cache_mb"`

	// StartParams optionally seeds the weights from a parameter file.
	StartParams string `toml:"start_params"`
}

func defaultConfig() config {
	return config{
		Epochs:      5000,
		H:           1,
		EvalCacheMB: 16,
		PawnCacheMB: 4,
	}
}

func main() {
	var (
		configPath = flag.String("config", "", "TOML config file")
		dataPath   = flag.String("data", "", "training data file (FEN;result lines)")
		outPath    = flag.String("out", "tuned.txt", "output parameter file")
		verbose    = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	if *dataPath == "" {
		log.Fatal("missing -data: a training data file is required")
	}

	cfg := defaultConfig()
	if *configPath != "" {
		if _, err := toml.DecodeFile(*configPath, &cfg); err != nil {
			log.Fatalf("reading config: %v", err)
		}
	}

	logger := newLogger(*verbose)
	defer logger.Sync()

	if err := run(cfg, *dataPath, *outPath, logger); err != nil {
		logger.Fatal("tuning failed", zap.Error(err))
	}
}

func newLogger(verbose bool) *zap.Logger {
	zcfg := zap.NewProductionConfig()
	if verbose {
		zcfg = zap.NewDevelopmentConfig()
	}
	logger, err := zcfg.Build()
	if err != nil {
		log.Fatalf("building logger: %v", err)
	}
	return logger
}

func run(cfg config, dataPath, outPath string, logger *zap.Logger) error {
	// Cancel between epochs on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbDir := cfg.DataDir
	if dbDir == "" {
		var err error
		if dbDir, err = storage.DefaultDatabaseDir(); err != nil {
			return err
		}
	}

	store, err := storage.Open(dbDir, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	examples, err := store.CacheTrainingData(dataPath)
	if err != nil {
		return err
	}
	logger.Info("training data ready", zap.Int("examples", len(examples)))

	eval, err := engine.NewEvaluator(engine.Config{
		EvalCacheBytes: cfg.EvalCacheMB << 20,
		PawnCacheBytes: cfg.PawnCacheMB << 20,
	})
	if err != nil {
		return err
	}

	params, err := tuning.NewEvalParams(eval.Weights(), logger)
	if err != nil {
		return err
	}
	if cfg.StartParams != "" {
		if _, err := params.Load(cfg.StartParams); err != nil {
			return err
		}
		logger.Info("seeded weights", zap.String("from", cfg.StartParams))
	}

	bar := progressbar.NewOptions(cfg.Epochs,
		progressbar.OptionSetDescription("tuning"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
	)

	// The optimizer only sees the tunable subset of the registry; anchor
	// fields with a zero bit limit (the pawn value) stay fixed.
	opt, err := tuning.NewOptimizer(tuning.Config[storage.Example]{
		Features:     params.TunableValues(),
		Min:          make([]float64, params.TunableLen()),
		Max:          params.TunableMaxValues(),
		Cost:         tuning.TexelCost(eval, params, cfg.SigmoidScale),
		Data:         examples,
		H:            cfg.H,
		LearningRate: cfg.LearningRate,
		MaxEpoch:     cfg.Epochs,
		SampleSize:   cfg.SampleSize,
		Seed:         cfg.Seed,
		Logger:       logger,
		OnEpoch: func(s tuning.Status) {
			bar.Add(1)
			logger.Debug("epoch",
				zap.Int("t", s.Epoch),
				zap.Float64("cost", s.Cost),
				zap.Any("top", s.Top))
		},
	})
	if err != nil {
		return err
	}

	final, err := opt.Run(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			return err
		}
		logger.Warn("interrupted, saving current weights")
	}

	params.SetTunableValues(final)
	if err := params.Save(outPath); err != nil {
		return err
	}
	logger.Info("parameters written", zap.String("path", outPath))
	return nil
}
