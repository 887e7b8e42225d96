package decay

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bigInt(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	require.True(t, ok, "bad integer literal %q", s)
	return v
}

func TestLinear(t *testing.T) {
	const start = 1_700_000_000
	window := Window{
		Start:       start,
		End:         start + 1000,
		StartAmount: bigInt(t, "1000000000000000000"),
		EndAmount:   bigInt(t, "900000000000000000"),
	}

	tests := []struct {
		name string
		now  uint64
		want string
	}{
		{"before start", start - 50, "1000000000000000000"},
		{"at start", start, "1000000000000000000"},
		{"midway", start + 500, "950000000000000000"},
		{"at end", start + 1000, "900000000000000000"},
		{"after end", start + 5000, "900000000000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Linear(window, tt.now).String())
		})
	}
}

func TestLinear_ZeroLengthWindow(t *testing.T) {
	window := Window{Start: 100, End: 100, StartAmount: big.NewInt(10), EndAmount: big.NewInt(20)}

	assert.Equal(t, int64(10), Linear(window, 99).Int64())
	assert.Equal(t, int64(20), Linear(window, 100).Int64())
	assert.Equal(t, int64(20), Linear(window, 101).Int64())
}

func TestLinear_TruncatesDelta(t *testing.T) {
	up := Window{Start: 0, End: 3, StartAmount: big.NewInt(0), EndAmount: big.NewInt(10)}
	assert.Equal(t, int64(3), Linear(up, 1).Int64())

	down := Window{Start: 0, End: 3, StartAmount: big.NewInt(10), EndAmount: big.NewInt(0)}
	assert.Equal(t, int64(7), Linear(down, 1).Int64())
}

func TestLinear_DecreasingRoundsTowardStart(t *testing.T) {
	start, _ := new(big.Int).SetString("1000000000000000000", 10)
	window := Window{Start: 0, End: 7, StartAmount: start, EndAmount: big.NewInt(0)}

	// Flooring the signed delta would land one wei lower.
	signed := new(big.Int).Mul(new(big.Int).Neg(start), big.NewInt(3))
	floored := new(big.Int).Add(start, new(big.Int).Div(signed, big.NewInt(7)))
	assert.Equal(t, "571428571428571428", floored.String())

	got := Linear(window, 3)
	assert.Equal(t, "571428571428571429", got.String())
	assert.Equal(t, int64(1), new(big.Int).Sub(got, floored).Int64())
}

func TestLinear_Monotonic(t *testing.T) {
	increasing := Window{Start: 10, End: 110, StartAmount: big.NewInt(1_000), EndAmount: big.NewInt(7_777)}
	decreasing := Window{Start: 10, End: 110, StartAmount: big.NewInt(7_777), EndAmount: big.NewInt(1_000)}

	prevUp := Linear(increasing, 0)
	prevDown := Linear(decreasing, 0)
	for now := uint64(1); now <= 120; now++ {
		up := Linear(increasing, now)
		down := Linear(decreasing, now)
		assert.LessOrEqual(t, prevUp.Cmp(up), 0, "increasing window went down at %d", now)
		assert.GreaterOrEqual(t, prevDown.Cmp(down), 0, "decreasing window went up at %d", now)
		prevUp, prevDown = up, down
	}
}

func TestLinear_Uint256Range(t *testing.T) {
	maxUint256 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	window := Window{Start: 0, End: 2, StartAmount: big.NewInt(0), EndAmount: maxUint256}

	want := new(big.Int).Rsh(maxUint256, 1)
	assert.Equal(t, want.String(), Linear(window, 1).String())
}

func TestLinear_ReturnsFreshValue(t *testing.T) {
	window := Window{Start: 10, End: 20, StartAmount: big.NewInt(5), EndAmount: big.NewInt(1)}

	got := Linear(window, 0)
	got.SetInt64(999)

	assert.Equal(t, int64(5), window.StartAmount.Int64())
}

func TestCurveAt(t *testing.T) {
	curve := Curve{
		RelativeBlocks:  []uint64{10, 20, 40},
		RelativeAmounts: []*big.Int{big.NewInt(-100), big.NewInt(-150), big.NewInt(50)},
	}
	base := big.NewInt(1_000)

	tests := []struct {
		name string
		now  uint64
		want int64
	}{
		{"before base", 90, 1_000},
		{"at base", 100, 1_000},
		{"first segment", 105, 950},
		{"first knot", 110, 900},
		{"second segment", 115, 875},
		{"third segment rising", 130, 950},
		{"last knot", 140, 1_050},
		{"after last knot", 500, 1_050},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CurveAt(curve, base, 100, tt.now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Int64())
		})
	}
}

func TestCurveAt_EmptyCurve(t *testing.T) {
	got, err := CurveAt(Curve{}, big.NewInt(42), 10, 1_000)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.Int64())
}

func TestCurveAt_NegativeResultAllowed(t *testing.T) {
	curve := Curve{RelativeBlocks: []uint64{1}, RelativeAmounts: []*big.Int{big.NewInt(-20)}}

	got, err := CurveAt(curve, big.NewInt(10), 0, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(-10), got.Int64())
}

func TestCurveValidate(t *testing.T) {
	tests := []struct {
		name    string
		curve   Curve
		wantErr bool
	}{
		{
			name:  "valid",
			curve: Curve{RelativeBlocks: []uint64{1, 2}, RelativeAmounts: []*big.Int{big.NewInt(1), big.NewInt(2)}},
		},
		{
			name:    "length mismatch",
			curve:   Curve{RelativeBlocks: []uint64{1, 2}, RelativeAmounts: []*big.Int{big.NewInt(1)}},
			wantErr: true,
		},
		{
			name:    "not ascending",
			curve:   Curve{RelativeBlocks: []uint64{2, 2}, RelativeAmounts: []*big.Int{big.NewInt(1), big.NewInt(2)}},
			wantErr: true,
		},
		{
			name:    "offset overflows uint16",
			curve:   Curve{RelativeBlocks: []uint64{MaxRelativeBlock + 1}, RelativeAmounts: []*big.Int{big.NewInt(1)}},
			wantErr: true,
		},
		{
			name:    "nil amount",
			curve:   Curve{RelativeBlocks: []uint64{1}, RelativeAmounts: []*big.Int{nil}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.curve.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCurve)
				return
			}
			assert.NoError(t, err)
		})
	}
}
