package pricing

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCompute(t *testing.T) {
	t.Parallel()

	calc, err := NewCalculator(DefaultTaxRate)
	require.NoError(t, err)

	tests := []struct {
		name  string
		lines []Line
		want  Totals
	}{
		{
			name: "empty cart",
			want: Totals{Subtotal: d("0"), DiscountTotal: d("0"), Tax: d("0"), Total: d("0")},
		},
		{
			name:  "single line no discount",
			lines: []Line{{Price: d("100"), Quantity: 2}},
			want:  Totals{Subtotal: d("200"), DiscountTotal: d("0"), Tax: d("28"), Total: d("228")},
		},
		{
			name: "discounts are per unit",
			lines: []Line{
				{Price: d("10.50"), Quantity: 3, Discount: d("0.50")},
				{Price: d("4.99"), Quantity: 1},
			},
			want: Totals{Subtotal: d("36.49"), DiscountTotal: d("1.50"), Tax: d("4.8986"), Total: d("39.8886")},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := calc.Compute(tt.lines)
			require.NoError(t, err)
			assert.True(t, tt.want.Subtotal.Equal(got.Subtotal), "subtotal %s", got.Subtotal)
			assert.True(t, tt.want.DiscountTotal.Equal(got.DiscountTotal), "discount %s", got.DiscountTotal)
			assert.True(t, tt.want.Tax.Equal(got.Tax), "tax %s", got.Tax)
			assert.True(t, tt.want.Total.Equal(got.Total), "total %s", got.Total)
		})
	}
}

func TestComputeRejectsInvalidLines(t *testing.T) {
	t.Parallel()

	calc, err := NewCalculator(DefaultTaxRate)
	require.NoError(t, err)

	bad := []Line{
		{Price: d("1"), Quantity: 0},
		{Price: d("1"), Quantity: -1},
		{Price: d("-1"), Quantity: 1},
		{Price: d("1"), Quantity: 1, Discount: d("-0.01")},
		{Price: d("1"), Quantity: 1, Discount: d("1.01")},
	}
	for _, l := range bad {
		_, err := calc.Compute([]Line{l})
		assert.ErrorIs(t, err, ErrInvalidLine)
	}
}

func TestNegativeRateRejected(t *testing.T) {
	t.Parallel()
	_, err := NewCalculator(d("-0.01"))
	require.Error(t, err)
}

func TestIdentitiesHoldForRandomCarts(t *testing.T) {
	t.Parallel()

	calc, err := NewCalculator(DefaultTaxRate)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		n := rng.Intn(6)
		lines := make([]Line, 0, n)
		for j := 0; j < n; j++ {
			price := decimal.New(int64(rng.Intn(100000)), -2)
			disc := decimal.New(int64(rng.Intn(int(price.Mul(decimal.NewFromInt(100)).IntPart())+1)), -2)
			lines = append(lines, Line{Price: price, Quantity: 1 + rng.Intn(20), Discount: disc})
		}

		tot, err := calc.Compute(lines)
		require.NoError(t, err)

		net := tot.Subtotal.Sub(tot.DiscountTotal)
		require.True(t, tot.Tax.Equal(net.Mul(DefaultTaxRate)))
		require.True(t, tot.Total.Equal(net.Add(tot.Tax)))
		require.False(t, tot.Total.IsNegative())

		r := tot.Round(2)
		require.True(t, r.Total.Equal(r.Subtotal.Sub(r.DiscountTotal).Add(r.Tax)))
		require.True(t, r.Tax.Equal(r.Tax.Truncate(2)))
		require.True(t, r.Tax.Sub(tot.Tax).Abs().LessThanOrEqual(d("0.005")))
	}
}

func TestRoundHalfAwayFromZero(t *testing.T) {
	t.Parallel()

	tot := Totals{Subtotal: d("10.005"), DiscountTotal: d("0"), Tax: d("1.4007"), Total: d("11.4057")}
	r := tot.Round(2)
	assert.Equal(t, "10.01", r.Subtotal.StringFixed(2))
	assert.Equal(t, "1.40", r.Tax.StringFixed(2))
	assert.Equal(t, "11.41", r.Total.StringFixed(2))
}

func TestLineTotal(t *testing.T) {
	t.Parallel()
	got := LineTotal(Line{Price: d("2.50"), Quantity: 4, Discount: d("0.25")})
	assert.True(t, d("9").Equal(got))
}
