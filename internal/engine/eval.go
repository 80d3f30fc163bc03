package engine

import (
	"fmt"

	"github.com/hailam/chesstuner/internal/board"
	"github.com/hailam/chesstuner/internal/cache"
)

// Score limits and the draw score returned for dead positions.
const (
	ScoreInfinity             = 30000
	InsufficientMaterialScore = 0
)

const (
	// totalPhaseWeight is the summed phase weight of a full non-pawn,
	// non-king army: 4 minors, 2 rooks and a queen per side.
	totalPhaseWeight = 24

	// maxPhase is the phase score of a bare-kings endgame.
	maxPhase = 256

	// insufficientMaterialPhase is the phase above which the dead draw
	// detection is worth running: at most two phase points of material
	// remain, such as two minor pieces.
	insufficientMaterialPhase = 234
)

const (
	evalEntryBytes = 16
	pawnEntryBytes = 16

	// DefaultEvalCacheBytes and DefaultPawnCacheBytes size the two
	// caches when the config leaves them zero.
	DefaultEvalCacheBytes = 16 << 20
	DefaultPawnCacheBytes = 4 << 20
)

// Config parameterizes an Evaluator.
type Config struct {
	// Weights is the evaluation term set; nil selects DefaultWeights.
	Weights *Weights

	// EvalCacheBytes and PawnCacheBytes are approximate byte budgets
	// for the two caches; zero selects the defaults.
	EvalCacheBytes int
	PawnCacheBytes int
}

// Evaluator scores positions. It owns a full-evaluation cache keyed by
// the position hash and a pawn structure cache keyed by the pawn-only
// hash; both are safe for concurrent use, so one Evaluator may be shared
// across search threads.
type Evaluator struct {
	weights   *Weights
	evalCache *cache.Table[EvalEntry]
	pawnCache *cache.Table[PawnEntry]
}

// NewEvaluator builds an evaluator from the config.
func NewEvaluator(cfg Config) (*Evaluator, error) {
	w := cfg.Weights
	if w == nil {
		w = DefaultWeights()
	}
	evalBytes := cfg.EvalCacheBytes
	if evalBytes == 0 {
		evalBytes = DefaultEvalCacheBytes
	}
	pawnBytes := cfg.PawnCacheBytes
	if pawnBytes == 0 {
		pawnBytes = DefaultPawnCacheBytes
	}

	evalCache, err := cache.New[EvalEntry](evalBytes, evalEntryBytes)
	if err != nil {
		return nil, fmt.Errorf("evaluation cache: %w", err)
	}
	pawnCache, err := cache.New[PawnEntry](pawnBytes, pawnEntryBytes)
	if err != nil {
		return nil, fmt.Errorf("pawn cache: %w", err)
	}

	return &Evaluator{
		weights:   w,
		evalCache: evalCache,
		pawnCache: pawnCache,
	}, nil
}

// Weights returns the evaluator's weight set. The tuning layer mutates it
// between evaluations; it must not be written concurrently with Score.
func (e *Evaluator) Weights() *Weights {
	return e.weights
}

// ClearCaches empties both caches. Required after the weight set changes,
// since cached scores embed the old weights.
func (e *Evaluator) ClearCaches() {
	e.evalCache.Clear()
	e.pawnCache.Clear()
}

// Phase returns the game phase of the position in [0, 256]: 0 with full
// material, 256 with none of the phase-bearing pieces left.
func Phase(pos *board.Position) int {
	weight := 0
	for c := board.White; c <= board.Black; c++ {
		for pt := board.Knight; pt <= board.Queen; pt++ {
			weight += pos.Pieces[c][pt].PopCount() * pt.PhaseWeight()
		}
	}
	if weight > totalPhaseWeight {
		weight = totalPhaseWeight
	}
	return (totalPhaseWeight - weight) * maxPhase / totalPhaseWeight
}

// InsufficientMaterial reports whether neither side can deliver mate:
// bare kings, a lone minor, or bishops all standing on the same square
// color.
func InsufficientMaterial(pos *board.Position) bool {
	if pos.Pieces[board.White][board.Pawn]|pos.Pieces[board.Black][board.Pawn] != 0 ||
		pos.Pieces[board.White][board.Rook]|pos.Pieces[board.Black][board.Rook] != 0 ||
		pos.Pieces[board.White][board.Queen]|pos.Pieces[board.Black][board.Queen] != 0 {
		return false
	}

	knights := pos.Pieces[board.White][board.Knight] | pos.Pieces[board.Black][board.Knight]
	bishops := pos.Pieces[board.White][board.Bishop] | pos.Pieces[board.Black][board.Bishop]

	if bishops == 0 {
		// K vs K, or KN vs K.
		return knights.PopCount() <= 1
	}
	if knights != 0 {
		return false
	}

	// Only bishops remain: dead when they all share a square color.
	return bishops&board.LightSquares == bishops || bishops&board.DarkSquares == bishops
}

// Score returns the centipawn evaluation of the position from the side to
// move's point of view. Scores clearly outside [alpha-margin, beta+margin]
// are returned lazily, without the tropism extensions and uncached. The
// generation tags cache entries so stale epochs lose replacement fights.
func (e *Evaluator) Score(pos *board.Position, alpha, beta int, generation uint8) int {
	if entry, ok := e.evalCache.Lookup(pos.Hash); ok {
		if entry.Generation != generation {
			e.evalCache.Update(pos.Hash, func(en *EvalEntry) {
				en.Generation = generation
			})
		}
		return int(entry.Score)
	}

	w := e.weights
	phase := Phase(pos)

	if phase >= insufficientMaterialPhase && InsufficientMaterial(pos) {
		return InsufficientMaterialScore
	}

	// Non-pawn material; pawn material lives in the pawn structure term.
	material := 0
	for pt := board.Knight; pt <= board.Queen; pt++ {
		diff := pos.Pieces[board.White][pt].PopCount() - pos.Pieces[board.Black][pt].PopCount()
		material += diff * w.pieceValue(pt)
	}

	// Pawn and king structure, cached by the pawn-only key.
	pawnScore := 0
	if entry, ok := e.pawnCache.Lookup(pos.PawnKey); ok {
		pawnScore = int(entry.Score)
	} else {
		pawnScore = pawnKingScore(pos, w)
		e.pawnCache.Insert(PawnEntry{
			Hash:       pos.PawnKey,
			Score:      int16(pawnScore),
			Generation: generation,
		})
	}

	// The pawn material share grows toward 1.5x at full endgame.
	pawnMaterial := (pos.Pieces[board.White][board.Pawn].PopCount() -
		pos.Pieces[board.Black][board.Pawn].PopCount()) * int(w.PawnValue)
	pawnScore += pawnMaterial * phase / (2 * maxPhase)

	// Tapered piece-square score over the offset board.
	opening, endgame := 0, 0
	for bb := pos.AllOccupied; bb != 0; {
		sq := bb.PopLSB()
		piece := pos.Board[sq]
		opening += int(pstOpening[piece][sq])
		endgame += int(pstEndgame[piece][sq])
	}
	pst := (opening*(maxPhase-phase) + endgame*phase) / maxPhase

	score := material + pawnScore + pst
	if pos.SideToMove == board.Black {
		score = -score
	}

	// Lazy cutoff: a score far outside the window will not change the
	// search decision, so skip the extensions and leave it uncached.
	margin := int(w.LazyMargin)
	if score < alpha-margin || score > beta+margin {
		return score
	}

	ext := e.extensions(pos)
	if pos.SideToMove == board.Black {
		ext = -ext
	}
	score += ext

	e.evalCache.Insert(EvalEntry{
		Hash:       pos.Hash,
		Score:      int16(score),
		Bound:      BoundExact,
		Generation: generation,
	})
	return score
}

// extensions computes the slower terms skipped under the lazy margin,
// from white's point of view: piece-king tropism and stopped pawns.
func (e *Evaluator) extensions(pos *board.Position) int {
	score := 0

	// Piece-king tropism: officers far from the enemy king score worse.
	whiteKing := pos.KingSquare[board.White]
	blackKing := pos.KingSquare[board.Black]
	for pt := board.Knight; pt <= board.Queen; pt++ {
		for bb := pos.Pieces[board.White][pt]; bb != 0; {
			score -= board.ChebyshevDistance(bb.PopLSB(), blackKing)
		}
		for bb := pos.Pieces[board.Black][pt]; bb != 0; {
			score += board.ChebyshevDistance(bb.PopLSB(), whiteKing)
		}
	}

	// Stopped pawns: a pawn whose stop square holds an enemy piece.
	stopped := int(e.weights.StoppedPawn)
	whitePawns := pos.Pieces[board.White][board.Pawn]
	blackPawns := pos.Pieces[board.Black][board.Pawn]
	blackPieces := pos.Occupied[board.Black] &^ blackPawns
	whitePieces := pos.Occupied[board.White] &^ whitePawns

	score -= (whitePawns.North() & blackPieces).PopCount() * stopped
	score += (blackPawns.South() & whitePieces).PopCount() * stopped

	return score
}
