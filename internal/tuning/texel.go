package tuning

import (
	"math"

	"github.com/hailam/chesstuner/internal/board"
	"github.com/hailam/chesstuner/internal/engine"
	"github.com/hailam/chesstuner/internal/storage"
)

// DefaultSigmoidScale is the K constant of the texel sigmoid, mapping
// centipawn scores to expected game results.
const DefaultSigmoidScale = 1.13

// TexelCost builds the classical texel tuning cost over cached training
// examples: the mean squared difference between each game's result and
// the sigmoid of the evaluator's static score under the candidate
// weights. The params registry must be bound to the evaluator's weight
// set; the candidate vector covers the registry's tunable subset (fixed
// anchor fields such as the pawn value are never perturbed), and every
// call writes it through the registry and drops the evaluator's caches,
// since cached scores embed the previous weights.
func TexelCost(eval *engine.Evaluator, params *Params, scale float64) CostFunc[storage.Example] {
	if scale == 0 {
		scale = DefaultSigmoidScale
	}

	return func(features []float64, sample []storage.Example) float64 {
		params.SetTunableValues(features)
		eval.ClearCaches()

		total := 0.0
		for i := range sample {
			pos := sample[i].Pos

			score := eval.Score(pos, -engine.ScoreInfinity, engine.ScoreInfinity, 0)
			// The evaluator scores from the side to move; the stored
			// result is from white's point of view.
			if pos.SideToMove == board.Black {
				score = -score
			}

			predicted := sigmoid(float64(score), scale)
			diff := sample[i].Result - predicted
			total += diff * diff
		}
		return total / float64(len(sample))
	}
}

// sigmoid maps a centipawn score to an expected result in (0, 1).
func sigmoid(score, k float64) float64 {
	return 1 / (1 + math.Pow(10, -k*score/400))
}
