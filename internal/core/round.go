package core

import "github.com/shopspring/decimal"

// Round rounds v half away from zero to places decimal places.
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
