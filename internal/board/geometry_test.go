package board

import "testing"

func TestDistanceTables(t *testing.T) {
	// Spot checks.
	cases := []struct {
		a, b       Square
		man, cheb  int
	}{
		{A1, A1, 0, 0},
		{A1, H8, 14, 7},
		{A1, H1, 7, 7},
		{E4, E5, 1, 1},
		{E4, D5, 2, 1},
		{B2, G7, 10, 5},
	}
	for _, c := range cases {
		if got := ManhattanDistance(c.a, c.b); got != c.man {
			t.Errorf("Manhattan(%s, %s) = %d, want %d", c.a, c.b, got, c.man)
		}
		if got := ChebyshevDistance(c.a, c.b); got != c.cheb {
			t.Errorf("Chebyshev(%s, %s) = %d, want %d", c.a, c.b, got, c.cheb)
		}
	}
}

func TestDistanceInvariants(t *testing.T) {
	for a := A1; a <= H8; a++ {
		for b := A1; b <= H8; b++ {
			man := ManhattanDistance(a, b)
			cheb := ChebyshevDistance(a, b)

			if man < cheb {
				t.Fatalf("Manhattan(%s, %s) = %d < Chebyshev %d", a, b, man, cheb)
			}
			if man != ManhattanDistance(b, a) {
				t.Fatalf("Manhattan not symmetric for %s, %s", a, b)
			}
			if cheb != ChebyshevDistance(b, a) {
				t.Fatalf("Chebyshev not symmetric for %s, %s", a, b)
			}
		}
	}
}

func TestDiagonals(t *testing.T) {
	cases := []struct {
		sq       Square
		diag     int
		antiDiag int
	}{
		{H1, 0, 7},
		{A1, 7, 0},
		{A8, 14, 7},
		{H8, 7, 14},
		{E4, 6, 7},
	}
	for _, c := range cases {
		if got := c.sq.Diagonal(); got != c.diag {
			t.Errorf("%s.Diagonal() = %d, want %d", c.sq, got, c.diag)
		}
		if got := c.sq.AntiDiagonal(); got != c.antiDiag {
			t.Errorf("%s.AntiDiagonal() = %d, want %d", c.sq, got, c.antiDiag)
		}
	}

	// All 15 diagonal ordinals occur, none out of range.
	var seen [15]bool
	for sq := A1; sq <= H8; sq++ {
		d := sq.Diagonal()
		if d < 0 || d > 14 {
			t.Fatalf("%s.Diagonal() = %d out of range", sq, d)
		}
		seen[d] = true
	}
	for d, ok := range seen {
		if !ok {
			t.Errorf("diagonal ordinal %d never produced", d)
		}
	}
}
