package calculator

import "math"

// Line is the part of a recipient row the aggregate needs.
type Line struct {
	Quantity  int
	LineTotal float64
}

// Summary is the aggregate over a set of lines.
type Summary struct {
	TotalQuantity int
	TotalPrice    float64 // Rounded to 2 decimals
	Lines         int
}

// UnitPrice converts a price in minor currency units (cents) to the decimal
// unit price used for line totals.
func UnitPrice(minorUnits int64) float64 {
	return float64(minorUnits) / 100
}

// LineTotal computes quantity × unitPrice.
// It is not rounded; only the aggregate is.
func LineTotal(quantity int, unitPrice float64) float64 {
	return float64(quantity) * unitPrice
}

// Round2 rounds v to 2 decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Summarize sums quantities and line totals in order and rounds the summed
// price to 2 places.
func Summarize(lines []Line) Summary {
	var s Summary
	var sum float64
	for _, l := range lines {
		s.TotalQuantity += l.Quantity
		sum += l.LineTotal
	}
	s.TotalPrice = Round2(sum)
	s.Lines = len(lines)
	return s
}
