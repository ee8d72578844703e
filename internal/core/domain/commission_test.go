package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommission(t *testing.T) {
	tests := []struct {
		name string
		fare int64
		rate string
		want int64
	}{
		{"ten percent", 100_000, "0.10", 10_000},
		{"floor rounding", 12_345, "0.10", 1_234},
		{"fractional rate floors", 999, "0.155", 154},
		{"zero rate", 50_000, "0", 0},
		{"full rate", 50_000, "1", 50_000},
		{"zero fare", 0, "0.2", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Commission(tt.fare, decimal.RequireFromString(tt.rate))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, tt.fare-got, int64(0))
		})
	}
}

func TestCommission_Rejects(t *testing.T) {
	_, err := Commission(-1, decimal.RequireFromString("0.1"))
	assert.ErrorIs(t, err, ErrNegativeFare)

	_, err = Commission(100, decimal.RequireFromString("1.01"))
	assert.ErrorIs(t, err, ErrRateOutOfRange)

	_, err = Commission(100, decimal.RequireFromString("-0.01"))
	assert.ErrorIs(t, err, ErrRateOutOfRange)
}

func TestParseRate(t *testing.T) {
	rate, err := ParseRate("0.15")
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.15")))

	_, err = ParseRate("ten percent")
	assert.ErrorIs(t, err, ErrInvalidRateInput)

	_, err = ParseRate("2")
	assert.ErrorIs(t, err, ErrRateOutOfRange)
}

func TestDriver_EffectiveCommissionRate(t *testing.T) {
	fallback := decimal.RequireFromString("0.10")

	d := &Driver{}
	assert.True(t, d.EffectiveCommissionRate(fallback).Equal(fallback))

	d.CommissionRate = decimal.NewNullDecimal(decimal.RequireFromString("0.2"))
	assert.True(t, d.EffectiveCommissionRate(fallback).Equal(decimal.RequireFromString("0.2")))
}
