package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrice(t *testing.T) {
	tests := []struct {
		name     string
		weightKg float64
		rate     int64
		want     int64
	}{
		{name: "whole kilos", weightKg: 5, rate: 3000, want: 15000},
		{name: "fractional weight", weightKg: 4.5, rate: 3000, want: 13500},
		{name: "rounds half up", weightKg: 2.505, rate: 100, want: 251},
		{name: "rounds down below half", weightKg: 2.504, rate: 100, want: 250},
		{name: "small weight", weightKg: 0.333, rate: 1000, want: 333},
		{name: "zero weight", weightKg: 0, rate: 3000, want: 0},
		{name: "negative weight", weightKg: -1, rate: 3000, want: 0},
		{name: "zero rate", weightKg: 5, rate: 0, want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Price(tc.weightKg, tc.rate))
		})
	}
}

func TestEstimate(t *testing.T) {
	items := []LineItem{
		{WeightKg: 5, RatePerKgPaise: 3000},
		{WeightKg: 2, RatePerKgPaise: 1500},
	}
	require.Equal(t, int64(18000), Estimate(items))
	require.Equal(t, int64(0), Estimate(nil))
}

func TestFormatINR(t *testing.T) {
	require.Equal(t, "₹150.00", FormatINR(15000))
	require.Equal(t, "₹135.00", FormatINR(13500))
	require.Equal(t, "₹0.05", FormatINR(5))
	require.Equal(t, "-₹1.25", FormatINR(-125))
}
