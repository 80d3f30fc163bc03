package tuning

import (
	"math"

	"go.uber.org/zap"

	"github.com/hailam/chesstuner/internal/engine"
)

// NewEvalParams builds the parameter registry over an evaluation weight
// set. The pawn value anchors the centipawn scale and is excluded from
// tuning with a zero bit limit.
func NewEvalParams(w *engine.Weights, logger *zap.Logger) (*Params, error) {
	i16 := func(field *int16) (func() float64, func(float64)) {
		return func() float64 { return float64(*field) },
			func(v float64) { *field = int16(math.Round(v)) }
	}

	bind := func(name string, bitLimit int, field *int16) Param {
		get, set := i16(field)
		return Param{Name: name, Kind: KindUint16, BitLimit: bitLimit, Get: get, Set: set}
	}

	fields := []Param{
		bind("PawnValue", 0, &w.PawnValue), // scale anchor, not tuned
		bind("KnightValue", 11, &w.KnightValue),
		bind("BishopValue", 11, &w.BishopValue),
		bind("RookValue", 11, &w.RookValue),
		bind("QueenValue", 11, &w.QueenValue),

		bind("DefendedPawn", 6, &w.DefendedPawn),
		bind("BlockedPawn1", 6, &w.BlockedPawn1),
		bind("BlockedPawn2", 6, &w.BlockedPawn2),
		bind("BlockedPawn3", 6, &w.BlockedPawn3),
		bind("IsolatedPawn", 6, &w.IsolatedPawn),
		bind("PassedPawn", 7, &w.PassedPawn),

		bind("ShieldRank2", 6, &w.ShieldRank2),
		bind("ShieldRank3", 6, &w.ShieldRank3),
		bind("ShieldAdjFile", 6, &w.ShieldAdjFile),
		bind("StormNear", 6, &w.StormNear),
		bind("StormFar", 6, &w.StormFar),

		bind("ZoneFriendlyPawn", 6, &w.ZoneFriendlyPawn),
		bind("ZoneEnemyAttack", 6, &w.ZoneEnemyAttack),
		bind("ZoneFriendlyAttack", 6, &w.ZoneFriendlyAttack),

		bind("StoppedPawn", 6, &w.StoppedPawn),
		bind("LazyMargin", 9, &w.LazyMargin),
	}

	return NewParams(fields, logger)
}
