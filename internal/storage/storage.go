// Package storage provides the persistent training-data cache backing the
// parameter tuner. Text files of positions and game results are parsed
// once and kept in a BadgerDB store; subsequent runs load the cached
// records without touching the source file again.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/chesstuner/internal/board"
)

// ErrTrainingData wraps failures to read or parse a training data file.
var ErrTrainingData = errors.New("storage: training data error")

// Key prefixes
const (
	keyExample  = "ex:"
	keyIngested = "file:"
)

// Example is one training position with its game outcome from white's
// point of view: 1 win, 0.5 draw, 0 loss.
type Example struct {
	FEN    string
	Result float64

	// Pos is the parsed position, rebuilt on load and never persisted.
	Pos *board.Position
}

// record is the persisted form of an example.
type record struct {
	FEN    string  `json:"fen"`
	Result float64 `json:"result"`
}

// Store wraps BadgerDB for training data persistence.
type Store struct {
	db     *badger.DB
	logger *zap.Logger
}

// Open opens or creates a store in the given directory.
func Open(dir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Badger's own logging is too chatty here

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// CacheTrainingData parses a training file of "FEN;result" lines,
// persists the records and returns them. A file already ingested (by
// content hash) is served from the store without re-parsing. Lines that
// fail to parse are logged and skipped.
func (s *Store) CacheTrainingData(path string) ([]Example, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTrainingData, err)
	}

	fileKey := fmt.Sprintf("%s%016x", keyIngested, xxhash.Sum64(content))
	ingested, err := s.hasKey(fileKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTrainingData, err)
	}
	if ingested {
		s.logger.Info("training file already cached", zap.String("path", path))
		return s.Examples()
	}

	examples, err := s.parseLines(strings.Split(string(content), "\n"))
	if err != nil {
		return nil, err
	}
	if len(examples) == 0 {
		return nil, fmt.Errorf("%w: no usable examples in %s", ErrTrainingData, path)
	}

	if err := s.persist(fileKey, examples); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTrainingData, err)
	}

	s.logger.Info("training file cached",
		zap.String("path", path), zap.Int("examples", len(examples)))
	return examples, nil
}

// parseLines validates the training lines across worker goroutines, one
// chunk per CPU, preserving input order.
func (s *Store) parseLines(lines []string) ([]Example, error) {
	workers := runtime.NumCPU()
	if workers > len(lines) {
		workers = len(lines)
	}
	if workers < 1 {
		workers = 1
	}

	chunks := make([][]Example, workers)
	chunkSize := (len(lines) + workers - 1) / workers

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		lo := w * chunkSize
		hi := lo + chunkSize
		if hi > len(lines) {
			hi = len(lines)
		}
		if lo >= hi {
			continue
		}

		g.Go(func() error {
			out := make([]Example, 0, hi-lo)
			for _, line := range lines[lo:hi] {
				ex, ok := parseLine(line)
				if !ok {
					if strings.TrimSpace(line) != "" {
						s.logger.Warn("skipping bad training line", zap.String("line", line))
					}
					continue
				}
				out = append(out, ex)
			}
			chunks[w] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTrainingData, err)
	}

	var examples []Example
	for _, c := range chunks {
		examples = append(examples, c...)
	}
	return examples, nil
}

// parseLine parses one "FEN;result" line.
func parseLine(line string) (Example, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Example{}, false
	}

	sep := strings.LastIndex(line, ";")
	if sep < 0 {
		return Example{}, false
	}

	fen := strings.TrimSpace(line[:sep])
	result, err := strconv.ParseFloat(strings.TrimSpace(line[sep+1:]), 64)
	if err != nil || result < 0 || result > 1 {
		return Example{}, false
	}

	pos, err := board.ParseFEN(fen)
	if err != nil {
		return Example{}, false
	}
	if err := pos.Validate(); err != nil {
		return Example{}, false
	}

	return Example{FEN: fen, Result: result, Pos: pos}, true
}

// persist writes the examples and the file marker in one batch.
func (s *Store) persist(fileKey string, examples []Example) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, ex := range examples {
		data, err := json.Marshal(record{FEN: ex.FEN, Result: ex.Result})
		if err != nil {
			return err
		}
		key := fmt.Sprintf("%s%016x", keyExample, xxhash.Sum64String(ex.FEN))
		if err := wb.Set([]byte(key), data); err != nil {
			return err
		}
	}
	if err := wb.Set([]byte(fileKey), []byte("done")); err != nil {
		return err
	}

	return wb.Flush()
}

// Examples returns every cached training example. Records that no longer
// parse are logged and skipped.
func (s *Store) Examples() ([]Example, error) {
	var examples []Example

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyExample)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec record
				if err := json.Unmarshal(val, &rec); err != nil {
					s.logger.Warn("skipping corrupt record", zap.Error(err))
					return nil
				}
				pos, err := board.ParseFEN(rec.FEN)
				if err != nil {
					s.logger.Warn("skipping unparseable cached FEN",
						zap.String("fen", rec.FEN), zap.Error(err))
					return nil
				}
				examples = append(examples, Example{FEN: rec.FEN, Result: rec.Result, Pos: pos})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTrainingData, err)
	}

	return examples, nil
}

// Len returns the number of cached examples.
func (s *Store) Len() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyExample)
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTrainingData, err)
	}
	return count, nil
}

// hasKey reports whether a key exists.
func (s *Store) hasKey(key string) (bool, error) {
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, err
}
