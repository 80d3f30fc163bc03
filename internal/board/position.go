package board

import "fmt"

// CastlingRights represents the available castling options.
type CastlingRights uint8

const (
	WhiteKingSideCastle  CastlingRights = 1 << iota // K
	WhiteQueenSideCastle                            // Q
	BlackKingSideCastle                             // k
	BlackQueenSideCastle                            // q
	NoCastling           CastlingRights = 0
	AllCastling          CastlingRights = WhiteKingSideCastle | WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle
)

// String returns the FEN castling rights string.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	s := ""
	if cr&WhiteKingSideCastle != 0 {
		s += "K"
	}
	if cr&WhiteQueenSideCastle != 0 {
		s += "Q"
	}
	if cr&BlackKingSideCastle != 0 {
		s += "k"
	}
	if cr&BlackQueenSideCastle != 0 {
		s += "q"
	}
	return s
}

// Position is the immutable snapshot the evaluator scores. The twelve
// piece bitboards partition AllOccupied and the offset board agrees with
// them; Validate checks both.
type Position struct {
	// Piece bitboards: [Color][PieceType]
	Pieces [2][6]Bitboard

	// Occupancy bitboards (cached for efficiency)
	Occupied    [2]Bitboard // All pieces of each color
	AllOccupied Bitboard    // All pieces on the board

	// Offset board: the piece on each square, NoPiece if empty
	Board [64]Piece

	// Game state
	SideToMove     Color
	CastlingRights CastlingRights
	EnPassant      Square // Target square for en passant, NoSquare if none
	HalfMoveClock  int
	FullMoveNumber int

	// Zobrist hash of the full position
	Hash uint64

	// Pawn hash key covering pawn placement only
	PawnKey uint64

	// King positions (cached)
	KingSquare [2]Square
}

// NewPosition creates the starting position.
func NewPosition() *Position {
	pos, _ := ParseFEN(StartFEN)
	return pos
}

// Copy creates a deep copy of the position.
func (p *Position) Copy() *Position {
	newPos := *p
	return &newPos
}

// PieceAt returns the piece at the given square, or NoPiece if empty.
func (p *Position) PieceAt(sq Square) Piece {
	return p.Board[sq]
}

// IsEmpty returns true if the square is empty.
func (p *Position) IsEmpty(sq Square) bool {
	return p.Board[sq] == NoPiece
}

// setPiece places a piece on a square (does not update hash).
func (p *Position) setPiece(piece Piece, sq Square) {
	if piece == NoPiece {
		return
	}
	c := piece.Color()
	pt := piece.Type()
	bb := SquareBB(sq)

	p.Pieces[c][pt] |= bb
	p.Occupied[c] |= bb
	p.AllOccupied |= bb
	p.Board[sq] = piece

	if pt == King {
		p.KingSquare[c] = sq
	}
}

// updateOccupied recalculates occupancy bitboards from piece bitboards.
func (p *Position) updateOccupied() {
	p.Occupied[White] = Empty
	p.Occupied[Black] = Empty

	for pt := Pawn; pt <= King; pt++ {
		p.Occupied[White] |= p.Pieces[White][pt]
		p.Occupied[Black] |= p.Pieces[Black][pt]
	}

	p.AllOccupied = p.Occupied[White] | p.Occupied[Black]
}

// findKings locates and caches the king positions.
func (p *Position) findKings() {
	p.KingSquare[White] = p.Pieces[White][King].LSB()
	p.KingSquare[Black] = p.Pieces[Black][King].LSB()
}

// String returns a visual representation of the position.
func (p *Position) String() string {
	s := "\n"
	for rank := 7; rank >= 0; rank-- {
		s += fmt.Sprintf("%d  ", rank+1)
		for file := 0; file < 8; file++ {
			sq := NewSquare(file, rank)
			piece := p.Board[sq]
			if piece == NoPiece {
				s += ". "
			} else {
				s += piece.String() + " "
			}
		}
		s += "\n"
	}
	s += "\n   a b c d e f g h\n\n"
	s += fmt.Sprintf("Side to move: %s\n", p.SideToMove)
	s += fmt.Sprintf("Hash: %016x\n", p.Hash)
	return s
}

// Clear resets the position to an empty board.
func (p *Position) Clear() {
	*p = Position{
		EnPassant:      NoSquare,
		FullMoveNumber: 1,
	}
	for sq := range p.Board {
		p.Board[sq] = NoPiece
	}
	p.KingSquare[White] = NoSquare
	p.KingSquare[Black] = NoSquare
}

// Validate checks the snapshot invariants: one king per side, no pawns on
// the back ranks, bitboards partitioning the occupancy and the offset
// board agreeing with the bitboards.
func (p *Position) Validate() error {
	if p.Pieces[White][King].PopCount() != 1 {
		return fmt.Errorf("white must have exactly one king")
	}
	if p.Pieces[Black][King].PopCount() != 1 {
		return fmt.Errorf("black must have exactly one king")
	}

	if (p.Pieces[White][Pawn]|p.Pieces[Black][Pawn])&(Rank1|Rank8) != 0 {
		return fmt.Errorf("pawns cannot be on rank 1 or 8")
	}

	// The twelve bitboards must partition AllOccupied.
	var all Bitboard
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			bb := p.Pieces[c][pt]
			if all&bb != 0 {
				return fmt.Errorf("piece bitboards overlap on %v", (all & bb).Squares())
			}
			all |= bb
		}
	}
	if all != p.AllOccupied {
		return fmt.Errorf("piece bitboards do not partition the occupancy")
	}

	// The offset board must agree with the bitboards.
	for sq := A1; sq <= H8; sq++ {
		piece := p.Board[sq]
		if piece == NoPiece {
			if p.AllOccupied.IsSet(sq) {
				return fmt.Errorf("offset board empty on occupied square %s", sq)
			}
			continue
		}
		if !p.Pieces[piece.Color()][piece.Type()].IsSet(sq) {
			return fmt.Errorf("offset board disagrees with bitboards on %s", sq)
		}
	}

	return nil
}

// ColorFlip returns the position with colors swapped and the board
// mirrored vertically. The side to move is swapped as well, so a symmetric
// evaluation gives the flipped position the negated score from white's
// point of view and the same score from the side to move's.
func (p *Position) ColorFlip() *Position {
	flipped := &Position{
		SideToMove:     p.SideToMove.Other(),
		HalfMoveClock:  p.HalfMoveClock,
		FullMoveNumber: p.FullMoveNumber,
		EnPassant:      NoSquare,
	}
	for sq := range flipped.Board {
		flipped.Board[sq] = NoPiece
	}

	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			bb := p.Pieces[c][pt].FlipVertical()
			flipped.Pieces[c.Other()][pt] = bb
			for bb != 0 {
				flipped.Board[bb.PopLSB()] = NewPiece(pt, c.Other())
			}
		}
	}

	if p.EnPassant != NoSquare {
		flipped.EnPassant = p.EnPassant.Mirror()
	}

	if p.CastlingRights&WhiteKingSideCastle != 0 {
		flipped.CastlingRights |= BlackKingSideCastle
	}
	if p.CastlingRights&WhiteQueenSideCastle != 0 {
		flipped.CastlingRights |= BlackQueenSideCastle
	}
	if p.CastlingRights&BlackKingSideCastle != 0 {
		flipped.CastlingRights |= WhiteKingSideCastle
	}
	if p.CastlingRights&BlackQueenSideCastle != 0 {
		flipped.CastlingRights |= WhiteQueenSideCastle
	}

	flipped.updateOccupied()
	flipped.findKings()
	flipped.Hash = flipped.ComputeHash()
	flipped.PawnKey = flipped.ComputePawnKey()

	return flipped
}
