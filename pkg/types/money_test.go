package types

import (
	"math"
	"testing"
)

func TestRoundToUnit(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		unit  float64
		want  float64
	}{
		{name: "cent rounding down", value: 1.234, unit: 0.01, want: 1.23},
		{name: "cent rounding up", value: 1.236, unit: 0.01, want: 1.24},
		{name: "five cent unit", value: 1.12, unit: 0.05, want: 1.10},
		{name: "whole unit", value: 7.5, unit: 1, want: 8},
		{name: "zero unit passes through", value: 1.2345, unit: 0, want: 1.2345},
		{name: "negative unit passes through", value: 1.2345, unit: -0.01, want: 1.2345},
		{name: "negative value", value: -1.235, unit: 0.01, want: -1.23},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundToUnit(tt.value, tt.unit)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("RoundToUnit(%v, %v) = %v, want %v", tt.value, tt.unit, got, tt.want)
			}
		})
	}
}

func TestRoundDecimals(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		decimals int
		want     float64
	}{
		{name: "two decimals", value: 1.005, decimals: 2, want: 1.0}, // float64 1.005 sits just below the midpoint
		{name: "two decimals up", value: 1.006, decimals: 2, want: 1.01},
		{name: "zero decimals", value: 1.5, decimals: 0, want: 2},
		{name: "negative decimals pass through", value: 1.234, decimals: -1, want: 1.234},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundDecimals(tt.value, tt.decimals)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("RoundDecimals(%v, %d) = %v, want %v", tt.value, tt.decimals, got, tt.want)
			}
		})
	}
}

func TestCurrencyDecimals(t *testing.T) {
	tests := []struct {
		rounding float64
		want     int
	}{
		{rounding: 0.01, want: 2},
		{rounding: 0.001, want: 3},
		{rounding: 1, want: 0},
		{rounding: 0.05, want: 2},
		{rounding: 0, want: 0},
	}

	for _, tt := range tests {
		if got := CurrencyDecimals(tt.rounding); got != tt.want {
			t.Errorf("CurrencyDecimals(%v) = %d, want %d", tt.rounding, got, tt.want)
		}
	}
}
