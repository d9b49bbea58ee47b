// Package volume turns processed flow into volume: cumulative integration,
// the drift baseline anchored at breath onsets and the per-breath tidal
// volume read off the corrected trace.
package volume

// Integrate returns the running sum of x divided by fs, so raw[k] is the
// volume moved from the first sample through sample k.
func Integrate(x []float64, fs float64) []float64 {
	raw := make([]float64, len(x))
	var sum float64
	for k, v := range x {
		sum += v
		raw[k] = sum / fs
	}
	return raw
}
