package engine

import (
	"github.com/hailam/chesstuner/internal/bitutil"
	"github.com/hailam/chesstuner/internal/board"
	"github.com/hailam/chesstuner/internal/container"
)

// pawnKingScore computes the pawn and king structure score from white's
// point of view. The result depends only on pawn placement and the two
// king squares and is cached under the pawn-only hash key.
//
// The base pawn material is included untapered; the evaluator adds the
// endgame scaling on top since the game phase is not part of the pawn key.
func pawnKingScore(pos *board.Position, w *Weights) int {
	score := 0

	whitePawns := pos.Pieces[board.White][board.Pawn]
	blackPawns := pos.Pieces[board.Black][board.Pawn]

	// Base pawn material.
	score += (whitePawns.PopCount() - blackPawns.PopCount()) * int(w.PawnValue)

	// Defended pawns via bit-parallel capture masks: a white pawn is
	// defended when it sits on a square attacked by another white pawn.
	whiteAttacks := whitePawns.NorthEast() | whitePawns.NorthWest()
	blackAttacks := blackPawns.SouthEast() | blackPawns.SouthWest()
	score += (whitePawns & whiteAttacks).PopCount() * int(w.DefendedPawn)
	score -= (blackPawns & blackAttacks).PopCount() * int(w.DefendedPawn)

	// Blocked pawns: a pawn with a same-color pawn one, two or three
	// ranks directly ahead, by shifted AND of the pawn bitboard.
	score -= (whitePawns & whitePawns.South()).PopCount() * int(w.BlockedPawn1)
	score -= (whitePawns & whitePawns.South().South()).PopCount() * int(w.BlockedPawn2)
	score -= (whitePawns & whitePawns.South().South().South()).PopCount() * int(w.BlockedPawn3)
	score += (blackPawns & blackPawns.North()).PopCount() * int(w.BlockedPawn1)
	score += (blackPawns & blackPawns.North().North()).PopCount() * int(w.BlockedPawn2)
	score += (blackPawns & blackPawns.North().North().North()).PopCount() * int(w.BlockedPawn3)

	// Isolated and passed pawns need a per-pawn walk; collect the squares
	// once and run both checks off the queue.
	score += enumeratePawns(whitePawns, blackPawns, board.White, w)
	score -= enumeratePawns(blackPawns, whitePawns, board.Black, w)

	// King shelter and king zone.
	score += kingShelter(pos, board.White, w)
	score -= kingShelter(pos, board.Black, w)
	score += kingZone(pos, board.White, w)
	score -= kingZone(pos, board.Black, w)

	// King-pawn tropism: a king far from its own pawns is a liability.
	score -= pawnTropism(pos.KingSquare[board.White], whitePawns)
	score += pawnTropism(pos.KingSquare[board.Black], blackPawns)

	return score
}

// enumeratePawns returns the isolated and passed pawn terms for one side,
// positive meaning good for that side.
func enumeratePawns(own, enemy board.Bitboard, c board.Color, w *Weights) int {
	var squares container.IntQueue
	for _, idx := range bitutil.Serialize(uint64(own)) {
		squares.Add(idx)
	}

	score := 0
	squares.Reset()
	for squares.HasNext() {
		v, _ := squares.Next()
		sq := board.Square(v)
		file := sq.File()

		adjacent := board.Bitboard(0)
		if file > 0 {
			adjacent |= board.FileMask[file-1]
		}
		if file < 7 {
			adjacent |= board.FileMask[file+1]
		}

		// Isolated: no other friendly pawn on this or an adjacent file.
		others := own &^ board.SquareBB(sq)
		if others&(adjacent|board.FileMask[file]) == 0 {
			score -= int(w.IsolatedPawn)
		}

		// Passed: no enemy pawn in the front span of this file or the
		// two adjacent files.
		var front board.Bitboard
		if c == board.White {
			front = board.SquareBB(sq).NorthFill() &^ board.SquareBB(sq)
		} else {
			front = board.SquareBB(sq).SouthFill() &^ board.SquareBB(sq)
		}
		span := front & (adjacent | board.FileMask[file])
		if enemy&span == 0 {
			score += int(w.PassedPawn)
		}
	}
	return score
}

// shelterFiles returns the flank files of the king, or ok=false when the
// king stands on the central files and has no sheltering flank.
func shelterFiles(kingFile int) (files board.Bitboard, adjacent int, ok bool) {
	switch {
	case kingFile >= 5: // kingside: g- and h-file shield, f-file adjacent
		return board.FileG | board.FileH, 5, true
	case kingFile <= 2: // queenside: a- to c-file shield, d-file adjacent
		return board.FileA | board.FileB | board.FileC, 3, true
	default:
		return 0, 0, false
	}
}

// kingShelter scores the pawn shield in front of a castled king and the
// enemy pawn storm bearing down on the same flank. Positive is good for
// the given side.
func kingShelter(pos *board.Position, c board.Color, w *Weights) int {
	files, adjFile, ok := shelterFiles(pos.KingSquare[c].File())
	if !ok {
		return 0
	}

	own := pos.Pieces[c][board.Pawn]
	enemy := pos.Pieces[c.Other()][board.Pawn]

	// Rank masks from the shielding side's point of view.
	var shieldNear, shieldFar, stormNear, stormFar board.Bitboard
	if c == board.White {
		shieldNear = board.Rank2
		shieldFar = board.Rank3
		stormNear = board.Rank3 | board.Rank4
		stormFar = board.Rank5 | board.Rank6
	} else {
		shieldNear = board.Rank7
		shieldFar = board.Rank6
		stormNear = board.Rank6 | board.Rank5
		stormFar = board.Rank4 | board.Rank3
	}

	score := 0
	score += (own & files & shieldNear).PopCount() * int(w.ShieldRank2)
	score += (own & files & shieldFar).PopCount() * int(w.ShieldRank3)
	if own&board.FileMask[adjFile]&(shieldNear|shieldFar) != 0 {
		score += int(w.ShieldAdjFile)
	}

	flank := files | board.FileMask[adjFile]
	score -= (enemy & flank & stormNear).PopCount() * int(w.StormNear)
	score -= (enemy & flank & stormFar).PopCount() * int(w.StormFar)

	return score
}

// kingZone scores the king's move-target squares: friendly pawns standing
// in the zone, enemy pawn attacks into it and friendly pawn attacks
// covering it. Positive is good for the given side.
func kingZone(pos *board.Position, c board.Color, w *Weights) int {
	zone := board.KingAttacks(pos.KingSquare[c])

	own := pos.Pieces[c][board.Pawn]
	enemy := pos.Pieces[c.Other()][board.Pawn]

	var ownAttacks, enemyAttacks board.Bitboard
	if c == board.White {
		ownAttacks = own.NorthEast() | own.NorthWest()
		enemyAttacks = enemy.SouthEast() | enemy.SouthWest()
	} else {
		ownAttacks = own.SouthEast() | own.SouthWest()
		enemyAttacks = enemy.NorthEast() | enemy.NorthWest()
	}

	score := 0
	score += (zone & own).PopCount() * int(w.ZoneFriendlyPawn)
	score -= (zone & enemyAttacks).PopCount() * int(w.ZoneEnemyAttack)
	score += (zone & ownAttacks).PopCount() * int(w.ZoneFriendlyAttack)
	return score
}

// pawnTropism sums the Manhattan distance from the king to each of its
// own pawns.
func pawnTropism(king board.Square, pawns board.Bitboard) int {
	var squares container.IntQueue
	for _, idx := range bitutil.Serialize(uint64(pawns)) {
		squares.Add(idx)
	}

	total := 0
	squares.Reset()
	for squares.HasNext() {
		v, _ := squares.Next()
		total += board.ManhattanDistance(king, board.Square(v))
	}
	return total
}
