package stats

// SamplingStatistics tracks arrival statistics of an ingested flow stream:
// inter-sample intervals, flow magnitudes and rejected samples.
type SamplingStatistics struct {
	FirstTime     float64
	LastTime      float64
	NumValues     uint64
	NumRejected   uint64
	IntervalStats *Welford
	ValueStats    *Welford
}

func NewSamplingStatistics() *SamplingStatistics {
	return &SamplingStatistics{
		IntervalStats: NewWelford(),
		ValueStats:    NewWelford(),
	}
}

func (stream *SamplingStatistics) Append(t, value float64) {
	if stream.NumValues == 0 {
		stream.FirstTime = t
	} else {
		stream.IntervalStats.Update(t - stream.LastTime)
	}
	stream.ValueStats.Update(value)
	stream.NumValues++
	stream.LastTime = t
}

func (stream *SamplingStatistics) Reject() {
	stream.NumRejected++
}

// SampleRate is the mean arrival rate in Hz, zero before two samples.
func (stream *SamplingStatistics) SampleRate() float64 {
	mean := stream.IntervalStats.GetMean()
	if stream.IntervalStats.Count() == 0 || mean <= 0 {
		return 0
	}
	return 1 / mean
}

// Jitter is the coefficient of variation of the inter-sample interval.
func (stream *SamplingStatistics) Jitter() float64 {
	return stream.IntervalStats.GetCV()
}

func (stream *SamplingStatistics) Duration() float64 {
	return stream.LastTime - stream.FirstTime
}

func (stream *SamplingStatistics) Reset() {
	stream.FirstTime, stream.LastTime = 0, 0
	stream.NumValues, stream.NumRejected = 0, 0
	stream.IntervalStats.Reset()
	stream.ValueStats.Reset()
}
