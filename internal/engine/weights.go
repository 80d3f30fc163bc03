// Package engine implements the static position evaluator: material,
// tapered piece-square tables, a cached pawn and king structure score,
// tropism extensions and static exchange evaluation.
package engine

import "github.com/hailam/chesstuner/internal/board"

// Weights holds the tunable scalar terms of the evaluation. All values
// are non-negative; the sign of each term is fixed by the evaluator.
// The tuning layer binds these fields to its parameter registry.
type Weights struct {
	// Piece values in centipawns
	PawnValue   int16
	KnightValue int16
	BishopValue int16
	RookValue   int16
	QueenValue  int16

	// Pawn structure
	DefendedPawn int16 // friendly pawn defended by another friendly pawn
	BlockedPawn1 int16 // pawn directly behind a same-color pawn
	BlockedPawn2 int16 // two ranks back
	BlockedPawn3 int16 // three ranks back
	IsolatedPawn int16
	PassedPawn   int16

	// King shelter
	ShieldRank2   int16 // shield pawn on the rank in front of the king
	ShieldRank3   int16 // shield pawn one rank further
	ShieldAdjFile int16 // pawn on the adjacent file of the flank
	StormNear     int16 // enemy pawn storming on ranks 3-4 of the flank
	StormFar      int16 // enemy pawn storming on ranks 5-6 of the flank

	// King zone
	ZoneFriendlyPawn   int16 // friendly pawn inside the king zone
	ZoneEnemyAttack    int16 // enemy pawn attack into the king zone
	ZoneFriendlyAttack int16 // friendly pawn attack into the king zone

	// Extensions
	StoppedPawn int16 // pawn blocked by an enemy piece

	// Lazy evaluation margin around the alpha-beta window
	LazyMargin int16
}

// DefaultWeights returns the hand-tuned baseline weight set.
func DefaultWeights() *Weights {
	return &Weights{
		PawnValue:   100,
		KnightValue: 320,
		BishopValue: 330,
		RookValue:   500,
		QueenValue:  900,

		DefendedPawn: 15,
		BlockedPawn1: 25,
		BlockedPawn2: 10,
		BlockedPawn3: 5,
		IsolatedPawn: 5,
		PassedPawn:   35,

		ShieldRank2:   15,
		ShieldRank3:   5,
		ShieldAdjFile: 10,
		StormNear:     15,
		StormFar:      10,

		ZoneFriendlyPawn:   5,
		ZoneEnemyAttack:    15,
		ZoneFriendlyAttack: 10,

		StoppedPawn: 5,

		LazyMargin: 151,
	}
}

// pieceValue returns the material value of a piece type in centipawns.
// Kings carry no material value.
func (w *Weights) pieceValue(pt board.PieceType) int {
	switch pt {
	case board.Pawn:
		return int(w.PawnValue)
	case board.Knight:
		return int(w.KnightValue)
	case board.Bishop:
		return int(w.BishopValue)
	case board.Rook:
		return int(w.RookValue)
	case board.Queen:
		return int(w.QueenValue)
	default:
		return 0
	}
}
