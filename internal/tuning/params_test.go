package tuning

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/chesstuner/internal/engine"
)

// testRegistry builds a small registry over plain variables.
func testRegistry(t *testing.T) (*Params, *uint64, *uint64, *bool) {
	t.Helper()

	a := uint64(100)
	b := uint64(35)
	flag := true

	params, err := NewParams([]Param{
		{
			Name: "Alpha", Kind: KindUint16, BitLimit: 10,
			Get: func() float64 { return float64(a) },
			Set: func(v float64) { a = uint64(v) },
		},
		{
			Name: "Beta", Kind: KindUint8, BitLimit: 6,
			Get: func() float64 { return float64(b) },
			Set: func(v float64) { b = uint64(v) },
		},
		{
			Name: "Gamma", Kind: KindBool, BitLimit: 0, // excluded from tuning
			Get: func() float64 {
				if flag {
					return 1
				}
				return 0
			},
			Set: func(v float64) { flag = v != 0 },
		},
	}, nil)
	require.NoError(t, err)
	return params, &a, &b, &flag
}

func TestNewParamsValidation(t *testing.T) {
	get := func() float64 { return 0 }
	set := func(float64) {}

	_, err := NewParams(nil, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewParams([]Param{{Name: "", Kind: KindUint8, Get: get, Set: set}}, nil)
	assert.ErrorIs(t, err, ErrFormat)

	_, err = NewParams([]Param{
		{Name: "X", Kind: KindUint8, Get: get, Set: set},
		{Name: "X", Kind: KindUint8, Get: get, Set: set},
	}, nil)
	assert.ErrorIs(t, err, ErrFormat)

	_, err = NewParams([]Param{{Name: "X", Kind: KindUint8, BitLimit: 9, Get: get, Set: set}}, nil)
	assert.ErrorIs(t, err, ErrFormat, "bit limit wider than the native type")

	_, err = NewParams([]Param{{Name: "X", Kind: KindUint8, Get: get}}, nil)
	assert.ErrorIs(t, err, ErrFormat, "missing setter")
}

func TestValuesAndMaxValues(t *testing.T) {
	params, _, _, _ := testRegistry(t)

	assert.Equal(t, []float64{100, 35, 1}, params.Values())

	max := params.MaxValues()
	assert.Equal(t, float64(1023), max[0]) // 10-bit limit
	assert.Equal(t, float64(63), max[1])   // 6-bit limit
	assert.Equal(t, float64(1), max[2])    // bool
}

func TestSetValuesClamping(t *testing.T) {
	params, a, b, flag := testRegistry(t)

	params.SetValues([]float64{5000, -3, 0})
	assert.Equal(t, uint64(1023), *a, "clamped to the bit-limit maximum")
	assert.Equal(t, uint64(0), *b, "clamped to zero")
	assert.False(t, *flag)

	// A short vector leaves the tail untouched.
	params.SetValues([]float64{42})
	assert.Equal(t, uint64(42), *a)
	assert.Equal(t, uint64(0), *b)

	// Extra components are ignored.
	params.SetValues([]float64{1, 2, 1, 99, 98})
	assert.Equal(t, uint64(1), *a)
	assert.Equal(t, uint64(2), *b)
	assert.True(t, *flag)
}

func TestTunableSubset(t *testing.T) {
	params, a, b, flag := testRegistry(t)

	// Gamma (bit limit 0) is excluded from the tunable view.
	assert.Equal(t, 2, params.TunableLen())
	assert.Equal(t, []string{"Alpha", "Beta"}, params.TunableNames())
	assert.Equal(t, []float64{100, 35}, params.TunableValues())
	assert.Equal(t, []float64{1023, 63}, params.TunableMaxValues())

	// Writing through the tunable view clamps like SetValues and leaves
	// the fixed field untouched.
	params.SetTunableValues([]float64{5000, -3})
	assert.Equal(t, uint64(1023), *a)
	assert.Equal(t, uint64(0), *b)
	assert.True(t, *flag, "the fixed field must not move")

	// A short vector leaves the tunable tail untouched.
	params.SetTunableValues([]float64{7})
	assert.Equal(t, uint64(7), *a)
	assert.Equal(t, uint64(0), *b)

	// Extra components are ignored.
	params.SetTunableValues([]float64{1, 2, 99})
	assert.Equal(t, uint64(1), *a)
	assert.Equal(t, uint64(2), *b)
	assert.True(t, *flag)
}

func TestGrayCodeRoundTrip(t *testing.T) {
	params, a, b, flag := testRegistry(t)

	before := params.Values()
	s := params.GrayCodeString()

	// 10 bits for Alpha + 6 for Beta; Gamma is skipped.
	require.Len(t, s, 16)

	// Scramble, then restore through the bit string.
	*a, *b, *flag = 7, 7, false
	require.NoError(t, params.SetGrayCode(s))

	after := params.Values()
	assert.Equal(t, before[0], after[0])
	assert.Equal(t, before[1], after[1])
	// Gamma was never encoded, so it keeps the scrambled value.
	assert.Equal(t, float64(0), after[2])
}

func TestSetGrayCodeErrors(t *testing.T) {
	params, _, _, _ := testRegistry(t)

	assert.ErrorIs(t, params.SetGrayCode("101"), ErrFormat, "short string")
	assert.ErrorIs(t, params.SetGrayCode(params.GrayCodeString()+"0"), ErrFormat, "trailing bits")

	bad := "2" + params.GrayCodeString()[1:]
	assert.ErrorIs(t, params.SetGrayCode(bad), ErrFormat, "non-binary digit")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	params, a, b, flag := testRegistry(t)
	path := filepath.Join(t.TempDir(), "params.txt")

	require.NoError(t, params.Save(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "[Alpha] = 100")
	assert.Contains(t, string(content), "[Gamma] = true")
	assert.Contains(t, string(content), "#EoF!")

	*a, *b, *flag = 1, 1, false
	set, err := params.Load(path)
	require.NoError(t, err)
	assert.True(t, set)

	assert.Equal(t, uint64(100), *a)
	assert.Equal(t, uint64(35), *b)
	assert.True(t, *flag)
}

func TestLoadSkipsBadLines(t *testing.T) {
	params, a, b, _ := testRegistry(t)
	path := filepath.Join(t.TempDir(), "params.txt")

	content := "" +
		"not a parameter line\n" +
		"[Unknown] = 5\n" +
		"[Alpha] = notanumber\n" +
		"[Alpha] = 321\n" +
		"#EoF!\n" +
		"[Beta] = 9\n" // after the terminator, never read
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	set, err := params.Load(path)
	require.NoError(t, err)
	assert.True(t, set, "Alpha was set despite the bad lines")
	assert.Equal(t, uint64(321), *a)
	assert.Equal(t, uint64(35), *b, "lines after the terminator are ignored")
}

func TestLoadMissingFile(t *testing.T) {
	params, _, _, _ := testRegistry(t)

	_, err := params.Load(filepath.Join(t.TempDir(), "absent.txt"))
	assert.Error(t, err)
}

func TestEvalParamsBinding(t *testing.T) {
	w := engine.DefaultWeights()
	params, err := NewEvalParams(w, nil)
	require.NoError(t, err)

	values := params.Values()
	assert.Equal(t, float64(100), values[0], "pawn value leads the registry")

	// Writing through the registry mutates the weight set.
	idx := -1
	for i, name := range params.Names() {
		if name == "KnightValue" {
			idx = i
		}
	}
	require.GreaterOrEqual(t, idx, 0)

	values[idx] = 345
	params.SetValues(values)
	assert.Equal(t, int16(345), w.KnightValue)

	// The pawn anchor is absent from the gray-code string.
	w.PawnValue = 100
	s := params.GrayCodeString()
	w.PawnValue = 77
	assert.Equal(t, s, params.GrayCodeString(), "pawn value must not affect the encoding")

	// It is also absent from the tunable view the optimizer runs over.
	assert.NotContains(t, params.TunableNames(), "PawnValue")
	assert.Equal(t, params.Len()-1, params.TunableLen())
}
