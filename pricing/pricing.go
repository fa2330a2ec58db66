// Package pricing computes stay cost totals from user-supplied figures.
package pricing

import (
	"fmt"
	"math"

	"bnbtrack/models"
)

// Total returns the full cost of a stay: daily cost times the number of
// nights plus a one-off miscellaneous cost. Inputs are validated up front so
// a bad figure never reaches the store.
func Total(dailyCost, miscCost float64, nights int) (float64, error) {
	if nights < 1 {
		return 0, fmt.Errorf("%w: nights must be at least 1, got %d", models.ErrInvalidCost, nights)
	}
	if !validAmount(dailyCost) {
		return 0, fmt.Errorf("%w: daily cost %v", models.ErrInvalidCost, dailyCost)
	}
	if !validAmount(miscCost) {
		return 0, fmt.Errorf("%w: misc cost %v", models.ErrInvalidCost, miscCost)
	}
	return dailyCost*float64(nights) + miscCost, nil
}

func validAmount(v float64) bool {
	return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
