package backtest

import (
	"testing"
)

func TestAveragePrice(t *testing.T) {
	tests := []struct {
		name      string
		prevPrice float64
		prevPos   int64
		currPrice float64
		currPos   int64
		wantAvg   float64
		wantSqOff bool
	}{
		{
			name:      "first fill from flat",
			prevPrice: 0, prevPos: 0, currPrice: 105, currPos: 1,
			wantAvg: 105, wantSqOff: false,
		},
		{
			name:      "extend long",
			prevPrice: 105, prevPos: 2, currPrice: 95, currPos: 3,
			wantAvg: 99, wantSqOff: false,
		},
		{
			name:      "extend short",
			prevPrice: 50, prevPos: -4, currPrice: 60, currPos: -6,
			wantAvg: 56, wantSqOff: false,
		},
		{
			name:      "full close resets price",
			prevPrice: 105, prevPos: 1, currPrice: 95, currPos: -1,
			wantAvg: 0, wantSqOff: true,
		},
		{
			name:      "partial close keeps price",
			prevPrice: 50, prevPos: 10, currPrice: 55, currPos: -4,
			wantAvg: 50, wantSqOff: true,
		},
		{
			name:      "flip takes fill price",
			prevPrice: 100, prevPos: 2, currPrice: 110, currPos: -5,
			wantAvg: 110, wantSqOff: true,
		},
		{
			name:      "short partial close keeps price",
			prevPrice: 80, prevPos: -10, currPrice: 70, currPos: 3,
			wantAvg: 80, wantSqOff: true,
		},
		{
			name:      "weighted average exact",
			prevPrice: 100, prevPos: 1, currPrice: 102, currPos: 1,
			wantAvg: 101, wantSqOff: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			avg, sqOff := averagePrice(tt.prevPrice, tt.prevPos, tt.currPrice, tt.currPos)
			if avg != tt.wantAvg {
				t.Errorf("avg = %v, want %v", avg, tt.wantAvg)
			}
			if sqOff != tt.wantSqOff {
				t.Errorf("squareOff = %v, want %v", sqOff, tt.wantSqOff)
			}
		})
	}
}
