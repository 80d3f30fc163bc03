package engine

import "github.com/hailam/chesstuner/internal/board"

// Piece-square tables. The base constants below are written the way a
// board diagram reads: the first row is rank 8, the last row rank 1, from
// white's point of view. Indexed by square they therefore score BLACK
// pieces after negation; the white tables are re-derived at init by
// mirroring the black tables vertically and negating. Pawn, knight and
// king have separate opening and endgame variants; bishop and queen use a
// single table for both phases.

var pawnOpeningBase = [64]int16{
	0, 0, 0, 0, 0, 0, 0, 0,
	50, 50, 50, 50, 50, 50, 50, 50,
	10, 10, 20, 30, 30, 20, 10, 10,
	5, 5, 10, 25, 25, 10, 5, 5,
	0, 0, 0, 20, 20, 0, 0, 0,
	5, -5, -10, 0, 0, -10, -5, 5,
	5, 10, 10, -20, -20, 10, 10, 5,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var pawnEndgameBase = [64]int16{
	0, 0, 0, 0, 0, 0, 0, 0,
	80, 80, 80, 80, 80, 80, 80, 80,
	50, 50, 50, 50, 50, 50, 50, 50,
	30, 30, 30, 30, 30, 30, 30, 30,
	15, 15, 15, 15, 15, 15, 15, 15,
	5, 5, 5, 5, 5, 5, 5, 5,
	5, 5, 5, 5, 5, 5, 5, 5,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var knightOpeningBase = [64]int16{
	-50, -40, -30, -30, -30, -30, -40, -50,
	-40, -20, 0, 0, 0, 0, -20, -40,
	-30, 0, 10, 15, 15, 10, 0, -30,
	-30, 5, 15, 20, 20, 15, 5, -30,
	-30, 0, 15, 20, 20, 15, 0, -30,
	-30, 5, 10, 15, 15, 10, 5, -30,
	-40, -20, 0, 5, 5, 0, -20, -40,
	-50, -40, -30, -30, -30, -30, -40, -50,
}

var knightEndgameBase = [64]int16{
	-40, -30, -20, -20, -20, -20, -30, -40,
	-30, -10, 0, 0, 0, 0, -10, -30,
	-20, 0, 10, 10, 10, 10, 0, -20,
	-20, 0, 10, 15, 15, 10, 0, -20,
	-20, 0, 10, 15, 15, 10, 0, -20,
	-20, 0, 10, 10, 10, 10, 0, -20,
	-30, -10, 0, 0, 0, 0, -10, -30,
	-40, -30, -20, -20, -20, -20, -30, -40,
}

var bishopBase = [64]int16{
	-20, -10, -10, -10, -10, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 10, 10, 5, 0, -10,
	-10, 5, 5, 10, 10, 5, 5, -10,
	-10, 0, 10, 10, 10, 10, 0, -10,
	-10, 10, 10, 10, 10, 10, 10, -10,
	-10, 5, 0, 0, 0, 0, 5, -10,
	-20, -10, -10, -10, -10, -10, -10, -20,
}

var rookOpeningBase = [64]int16{
	0, 0, 0, 0, 0, 0, 0, 0,
	5, 10, 10, 10, 10, 10, 10, 5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	0, 0, 0, 5, 5, 0, 0, 0,
}

var rookEndgameBase = [64]int16{
	5, 5, 5, 5, 5, 5, 5, 5,
	10, 10, 10, 10, 10, 10, 10, 10,
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var queenBase = [64]int16{
	-20, -10, -10, -5, -5, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 5, 5, 5, 0, -10,
	-5, 0, 5, 5, 5, 5, 0, -5,
	0, 0, 5, 5, 5, 5, 0, -5,
	-10, 5, 5, 5, 5, 5, 0, -10,
	-10, 0, 5, 0, 0, 0, 0, -10,
	-20, -10, -10, -5, -5, -10, -10, -20,
}

var kingOpeningBase = [64]int16{
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-20, -30, -30, -40, -40, -30, -30, -20,
	-10, -20, -20, -20, -20, -20, -20, -10,
	20, 20, 0, 0, 0, 0, 20, 20,
	20, 30, 10, 0, 0, 10, 30, 20,
}

var kingEndgameBase = [64]int16{
	-50, -40, -30, -20, -20, -30, -40, -50,
	-30, -20, -10, 0, 0, -10, -20, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -30, 0, 0, 0, 0, -30, -30,
	-50, -30, -30, -30, -30, -30, -30, -50,
}

// pstOpening and pstEndgame map a Piece to its 64-entry table. White
// entries are positive on good squares, black entries are their mirrored
// negation.
var (
	pstOpening [12][64]int16
	pstEndgame [12][64]int16
)

func init() {
	initPST()
}

// negate derives a black-side table from a base diagram: indexed by
// square, the diagram already reads from black's side of the board.
func negate(base [64]int16) [64]int16 {
	var out [64]int16
	for sq := range base {
		out[sq] = -base[sq]
	}
	return out
}

// mirrorNegate derives the white-side table from a black-side one.
func mirrorNegate(black [64]int16) [64]int16 {
	var out [64]int16
	for sq := board.A1; sq <= board.H8; sq++ {
		out[sq] = -black[sq.Mirror()]
	}
	return out
}

func initPST() {
	type tables struct {
		pt               board.PieceType
		opening, endgame [64]int16
	}
	sets := []tables{
		{board.Pawn, pawnOpeningBase, pawnEndgameBase},
		{board.Knight, knightOpeningBase, knightEndgameBase},
		{board.Bishop, bishopBase, bishopBase},
		{board.Rook, rookOpeningBase, rookEndgameBase},
		{board.Queen, queenBase, queenBase},
		{board.King, kingOpeningBase, kingEndgameBase},
	}

	for _, s := range sets {
		blackOp := negate(s.opening)
		blackEg := negate(s.endgame)

		white := board.NewPiece(s.pt, board.White)
		black := board.NewPiece(s.pt, board.Black)

		pstOpening[black] = blackOp
		pstEndgame[black] = blackEg
		pstOpening[white] = mirrorNegate(blackOp)
		pstEndgame[white] = mirrorNegate(blackEg)
	}
}

// PSTOpening returns the opening table value for a piece on a square.
func PSTOpening(p board.Piece, sq board.Square) int16 {
	return pstOpening[p][sq]
}

// PSTEndgame returns the endgame table value for a piece on a square.
func PSTEndgame(p board.Piece, sq board.Square) int16 {
	return pstEndgame[p][sq]
}
