package pricing

import (
	"errors"
	"math"
	"testing"

	"bnbtrack/models"
)

func TestTotal(t *testing.T) {
	tests := []struct {
		name    string
		daily   float64
		misc    float64
		nights  int
		want    float64
		wantErr bool
	}{
		{"four nights with cleaning fee", 100, 50, 4, 450, false},
		{"single night", 89.50, 0, 1, 89.50, false},
		{"free stay", 0, 0, 3, 0, false},
		{"misc only", 0, 25, 2, 25, false},
		{"negative daily", -1, 0, 2, 0, true},
		{"negative misc", 10, -5, 2, 0, true},
		{"zero nights", 100, 0, 0, 0, true},
		{"negative nights", 100, 0, -3, 0, true},
		{"nan daily", math.NaN(), 0, 2, 0, true},
		{"inf misc", 10, math.Inf(1), 2, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Total(tt.daily, tt.misc, tt.nights)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got total %v", got)
				}
				if !errors.Is(err, models.ErrInvalidCost) {
					t.Fatalf("expected ErrInvalidCost, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Total() = %v, want %v", got, tt.want)
			}
		})
	}
}
