package app

// MovingAverage smooths values with a centred window of the given width.
// The output has the same length as the input; samples beyond either end
// count as zeros, so the first and last window/2 points are pulled towards 0.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}

	for i := range values {
		lo := i - window/2
		hi := lo + window - 1

		var sum float64
		for j := max(lo, 0); j <= min(hi, len(values)-1); j++ {
			sum += values[j]
		}
		out[i] = sum / float64(window)
	}
	return out
}

// trimTail drops the last n points
func trimTail(values []float64, n int) []float64 {
	if n >= len(values) {
		return values[:0]
	}
	return values[:len(values)-n]
}
