package detect

import "gonum.org/v1/gonum/floats"

// Valleys returns, for every peak, the position of the lowest sample between
// it and the next peak. The last peak's interval runs to the end of x. On
// ties the earliest minimum is used.
func Valleys(x []float64, peaks []int) []int {
	valleys := make([]int, len(peaks))
	for i, p := range peaks {
		end := len(x)
		if i+1 < len(peaks) {
			end = peaks[i+1]
		}
		valleys[i] = p + floats.MinIdx(x[p:end])
	}
	return valleys
}
