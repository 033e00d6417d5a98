package backtest

// averagePrice computes the new weighted average position price after a
// signed fill and reports whether some of the open position was squared
// off (the fill had the opposite sign).
//
// Cases:
//   - flat before the fill: average is the fill price
//   - same side (flat counts as long): volume-weighted average of both
//   - opposite side, fully closed: average resets to 0
//   - opposite side, partial close: average unchanged
//   - opposite side, flipped: average is the fill price
func averagePrice(prevPrice float64, prevPos int64, currPrice float64, currPos int64) (float64, bool) {
	if prevPos == 0 {
		return currPrice, false
	}
	if (prevPos < 0 && currPos < 0) || (prevPos >= 0 && currPos >= 0) {
		avg := (float64(prevPos)*prevPrice + float64(currPos)*currPrice) / float64(prevPos+currPos)
		return avg, false
	}
	switch {
	case prevPos+currPos == 0:
		return 0, true
	case abs64(prevPos) > abs64(currPos):
		return prevPrice, true
	default:
		return currPrice, true
	}
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
