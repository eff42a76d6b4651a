// Package normalize rescales metric columns to the unit interval.
package normalize

// MinMax rescales col to [0,1] using (v-min)/(max-min) over the whole column.
// A column with no spread (empty, single value, all equal) maps to all zeros.
func MinMax(col []float64) []float64 {
	out := make([]float64, len(col))
	if len(col) == 0 {
		return out
	}

	lo, hi := col[0], col[0]
	for _, v := range col[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	// Zero variance: leave every output at 0 rather than dividing by zero.
	if hi == lo {
		return out
	}

	span := hi - lo
	for i, v := range col {
		out[i] = clamp01((v - lo) / span)
	}
	return out
}

// clamp01 guards against rounding pushing a value a hair outside [0,1].
func clamp01(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}
