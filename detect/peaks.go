// Package detect locates breath structure in a smoothed flow window: flow
// peaks, the valleys between them and the inflection that marks the onset
// of each breath.
package detect

import (
	"tidalflow/tree"
)

// PeakOptions holds the criteria a local maximum must meet to be accepted.
// Distance and Width are in samples.
type PeakOptions struct {
	Height     float64
	Distance   float64
	Prominence float64
	Width      float64
}

// DefaultPeakOptions returns the breath peak criteria for a sampling rate
// of fs Hz.
func DefaultPeakOptions(fs float64) PeakOptions {
	return PeakOptions{
		Height:     0.05,
		Distance:   1.5 * fs,
		Prominence: 0.05,
		Width:      0.3 * fs,
	}
}

// Peaks are accepted peak positions with their properties, in increasing
// position order.
type Peaks struct {
	Indices     []int
	Prominences []float64
	LeftBases   []int
	RightBases  []int
	Widths      []float64
}

func (p *Peaks) Len() int {
	return len(p.Indices)
}

func (p *Peaks) keep(mask []bool) {
	n := 0
	for i, ok := range mask {
		if !ok {
			continue
		}
		p.Indices[n] = p.Indices[i]
		if p.Prominences != nil {
			p.Prominences[n] = p.Prominences[i]
			p.LeftBases[n] = p.LeftBases[i]
			p.RightBases[n] = p.RightBases[i]
		}
		if p.Widths != nil {
			p.Widths[n] = p.Widths[i]
		}
		n++
	}
	p.Indices = p.Indices[:n]
	if p.Prominences != nil {
		p.Prominences = p.Prominences[:n]
		p.LeftBases = p.LeftBases[:n]
		p.RightBases = p.RightBases[:n]
	}
	if p.Widths != nil {
		p.Widths = p.Widths[:n]
	}
}

// FindPeaks returns the local maxima of x that satisfy every criterion in
// opts. Criteria are applied in order: height, distance, prominence, width.
// Within the minimum distance the higher peak wins; equal heights keep the
// earlier peak.
func FindPeaks(x []float64, opts PeakOptions) *Peaks {
	peaks := &Peaks{Indices: localMaxima(x)}

	mask := make([]bool, peaks.Len())
	for i, p := range peaks.Indices {
		mask[i] = x[p] >= opts.Height
	}
	peaks.keep(mask)

	if opts.Distance > 1 && peaks.Len() > 1 {
		peaks.keep(selectByDistance(x, peaks.Indices, opts.Distance))
	}

	peaks.Prominences, peaks.LeftBases, peaks.RightBases = prominences(x, peaks.Indices)
	mask = mask[:peaks.Len()]
	for i, prom := range peaks.Prominences {
		mask[i] = prom >= opts.Prominence
	}
	peaks.keep(mask)

	peaks.Widths = widths(x, peaks, 0.5)
	mask = mask[:peaks.Len()]
	for i, width := range peaks.Widths {
		mask[i] = width >= opts.Width
	}
	peaks.keep(mask)

	return peaks
}

// localMaxima finds samples strictly greater than their neighbours. Flat
// tops report their middle sample (rounded down).
func localMaxima(x []float64) []int {
	maxima := make([]int, 0)
	iMax := len(x) - 1
	for i := 1; i < iMax; i++ {
		if x[i-1] >= x[i] {
			continue
		}
		iAhead := i + 1
		for iAhead < iMax && x[iAhead] == x[i] {
			iAhead++
		}
		if x[iAhead] < x[i] {
			maxima = append(maxima, (i+iAhead-1)/2)
			i = iAhead
		}
	}
	return maxima
}

func selectByDistance(x []float64, peaks []int, distance float64) []bool {
	heights := make([]float64, len(peaks))
	order := make([]int, len(peaks))
	for i, p := range peaks {
		heights[i] = x[p]
		order[i] = i
	}

	keep := make([]bool, len(peaks))
	for i := range keep {
		keep[i] = true
	}
	for _, j := range tree.RankByPriority(order, heights) {
		if !keep[j] {
			continue
		}
		for k := j - 1; k >= 0 && float64(peaks[j]-peaks[k]) < distance; k-- {
			keep[k] = false
		}
		for k := j + 1; k < len(peaks) && float64(peaks[k]-peaks[j]) < distance; k++ {
			keep[k] = false
		}
	}
	return keep
}

// prominences measures how far each peak rises above the higher of the two
// lowest points found before reaching a higher sample (or the signal edge)
// on either side.
func prominences(x []float64, peaks []int) ([]float64, []int, []int) {
	proms := make([]float64, len(peaks))
	leftBases := make([]int, len(peaks))
	rightBases := make([]int, len(peaks))

	for n, p := range peaks {
		leftMin, leftBase := x[p], p
		for i := p; i >= 0 && x[i] <= x[p]; i-- {
			if x[i] < leftMin {
				leftMin, leftBase = x[i], i
			}
		}

		rightMin, rightBase := x[p], p
		for i := p; i < len(x) && x[i] <= x[p]; i++ {
			if x[i] < rightMin {
				rightMin, rightBase = x[i], i
			}
		}

		proms[n] = x[p] - max(leftMin, rightMin)
		leftBases[n] = leftBase
		rightBases[n] = rightBase
	}
	return proms, leftBases, rightBases
}

// widths measures each peak at relHeight of its prominence below the top,
// interpolating linearly between the samples either side of the crossing.
func widths(x []float64, peaks *Peaks, relHeight float64) []float64 {
	out := make([]float64, peaks.Len())
	for n, p := range peaks.Indices {
		height := x[p] - peaks.Prominences[n]*relHeight

		i := p
		for peaks.LeftBases[n] < i && height < x[i] {
			i--
		}
		left := float64(i)
		if x[i] < height {
			left += (height - x[i]) / (x[i+1] - x[i])
		}

		i = p
		for i < peaks.RightBases[n] && height < x[i] {
			i++
		}
		right := float64(i)
		if x[i] < height {
			right -= (height - x[i]) / (x[i-1] - x[i])
		}

		out[n] = right - left
	}
	return out
}
