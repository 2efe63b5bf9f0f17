package calculator

import (
	"math"
	"testing"
)

func TestUnitPrice(t *testing.T) {
	tests := []struct {
		minor int64
		want  float64
	}{
		{2500, 25.0},
		{1999, 19.99},
		{0, 0},
		{5, 0.05},
	}
	for _, tt := range tests {
		if got := UnitPrice(tt.minor); math.Abs(got-tt.want) > 0.0001 {
			t.Errorf("UnitPrice(%d) = %v, want %v", tt.minor, got, tt.want)
		}
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{59.97, 59.97},
		{0.1 + 0.2, 0.3},
		{1.234, 1.23},
		{1.236, 1.24},
		{100, 100},
	}
	for _, tt := range tests {
		if got := Round2(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name         string
		lines        []Line
		wantQuantity int
		wantPrice    float64
	}{
		{
			name:         "empty set",
			lines:        nil,
			wantQuantity: 0,
			wantPrice:    0,
		},
		{
			name: "two rows at 25.00",
			lines: []Line{
				{Quantity: 3, LineTotal: LineTotal(3, 25)},
				{Quantity: 1, LineTotal: LineTotal(1, 25)},
			},
			wantQuantity: 4,
			wantPrice:    100,
		},
		{
			name: "float drift is rounded away",
			lines: []Line{
				{Quantity: 1, LineTotal: LineTotal(1, 19.99)},
				{Quantity: 1, LineTotal: LineTotal(1, 19.99)},
				{Quantity: 1, LineTotal: LineTotal(1, 19.99)},
			},
			wantQuantity: 3,
			wantPrice:    59.97,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Summarize(tt.lines)
			if s.TotalQuantity != tt.wantQuantity {
				t.Errorf("TotalQuantity = %d, want %d", s.TotalQuantity, tt.wantQuantity)
			}
			if math.Abs(s.TotalPrice-tt.wantPrice) > 0.001 {
				t.Errorf("TotalPrice = %v, want %v", s.TotalPrice, tt.wantPrice)
			}
			if s.Lines != len(tt.lines) {
				t.Errorf("Lines = %d, want %d", s.Lines, len(tt.lines))
			}
		})
	}
}
