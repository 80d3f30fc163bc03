package engine

import (
	"github.com/hailam/chesstuner/internal/board"
	"github.com/hailam/chesstuner/internal/container"
)

// SEE statically evaluates the exchange sequence a capture starts on its
// target square, in centipawns from the moving side's point of view.
// Both sides swing in their least valuable attacker; either side may
// stand pat instead of recapturing at a loss. Attackers are recomputed
// against the shrinking occupancy so sliders revealed behind a capturer
// join the exchange.
func (e *Evaluator) SEE(pos *board.Position, m board.Move) int {
	w := e.weights
	from, to := m.From(), m.To()

	attacker := pos.PieceAt(from)
	if attacker == board.NoPiece {
		return 0
	}

	occupied := pos.AllOccupied.Clear(from)

	// Value captured by the move itself.
	var firstGain int
	if m.IsEnPassant() {
		firstGain = int(w.PawnValue)
		capSq := to - 8
		if attacker.Color() == board.Black {
			capSq = to + 8
		}
		occupied = occupied.Clear(capSq)
	} else {
		victim := pos.PieceAt(to)
		if victim == board.NoPiece && !m.IsPromotion() {
			return 0 // not a capture
		}
		if victim != board.NoPiece {
			firstGain = w.pieceValue(victim.Type())
		}
	}

	// The piece now standing on the target square. A promotion trades
	// the pawn for the promoted piece up front.
	attackerValue := w.pieceValue(attacker.Type())
	if m.IsPromotion() {
		promoValue := w.pieceValue(m.Promotion())
		firstGain += promoValue - int(w.PawnValue)
		attackerValue = promoValue
	}

	var gains container.IntStack
	gains.Push(firstGain)
	lastGain := firstGain
	side := attacker.Color().Other()

	for {
		// Speculative gain for side if it captures the piece on the
		// target square now.
		speculative := attackerValue - lastGain
		if maxInt(-lastGain, speculative) < 0 {
			break // stand pat: continuing cannot help either side
		}

		attackerSq, attackerType := leastValuableAttacker(pos, to, side, occupied)
		if attackerSq == board.NoSquare {
			break
		}

		// Masking with the occupancy drops pieces that already left their
		// squares earlier in the exchange.
		if attackerType == board.King &&
			pos.AttackersByColor(to, side.Other(), occupied.Clear(attackerSq))&occupied != 0 {
			// Recapturing with the king would move into check.
			break
		}

		gains.Push(speculative)
		lastGain = speculative
		occupied = occupied.Clear(attackerSq)
		attackerValue = w.pieceValue(attackerType)
		side = side.Other()
	}

	// Fold the gain chain back: at each level the side to move picks the
	// better of standing pat and the opponent's best continuation.
	result, _ := gains.Pop()
	for {
		g, ok := gains.Pop()
		if !ok {
			break
		}
		result = -maxInt(-g, result)
	}
	return result
}

// leastValuableAttacker finds the cheapest piece of the given color
// attacking a square under the given occupancy.
func leastValuableAttacker(pos *board.Position, target board.Square, side board.Color, occupied board.Bitboard) (board.Square, board.PieceType) {
	if att := pos.Pieces[side][board.Pawn] & board.PawnAttacks(target, side.Other()) & occupied; att != 0 {
		return att.LSB(), board.Pawn
	}
	if att := pos.Pieces[side][board.Knight] & board.KnightAttacks(target) & occupied; att != 0 {
		return att.LSB(), board.Knight
	}

	bishopRays := board.BishopAttacks(target, occupied)
	if att := pos.Pieces[side][board.Bishop] & bishopRays & occupied; att != 0 {
		return att.LSB(), board.Bishop
	}

	rookRays := board.RookAttacks(target, occupied)
	if att := pos.Pieces[side][board.Rook] & rookRays & occupied; att != 0 {
		return att.LSB(), board.Rook
	}

	if att := pos.Pieces[side][board.Queen] & (bishopRays | rookRays) & occupied; att != 0 {
		return att.LSB(), board.Queen
	}
	if att := pos.Pieces[side][board.King] & board.KingAttacks(target) & occupied; att != 0 {
		return att.LSB(), board.King
	}

	return board.NoSquare, board.NoPieceType
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
