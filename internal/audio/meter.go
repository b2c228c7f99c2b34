package audio

import (
	"math"
	"math/cmplx"
	"sync"

	"github.com/mjibson/go-dsp/fft"
)

const meterWindow = 1024

// Levels is a snapshot of the output meter: overall level plus three
// frequency bands, each normalized to [0, 1].
type Levels struct {
	RMS  float64
	Peak float64
	Bass float64
	Mid  float64
	High float64
}

// Meter keeps a sliding window of output samples and derives banded levels
// from an FFT of the window, with slow automatic gain control so quiet
// scenes still move the display.
type Meter struct {
	mu     sync.Mutex
	ring   []float64
	head   int
	filled int

	maxLevel         float64
	bass, mid, highS float64
}

func NewMeter() *Meter {
	return &Meter{ring: make([]float64, meterWindow), maxLevel: 0.1}
}

// Push appends a block of output samples to the window.
func (m *Meter) Push(block []float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range block {
		m.ring[m.head] = v
		m.head = (m.head + 1) % len(m.ring)
	}
	m.filled += len(block)
	if m.filled > len(m.ring) {
		m.filled = len(m.ring)
	}
}

// Levels computes the current meter reading.
func (m *Meter) Levels() Levels {
	m.mu.Lock()
	defer m.mu.Unlock()

	window := make([]float64, len(m.ring))
	for i := range window {
		window[i] = m.ring[(m.head+i)%len(m.ring)]
	}

	var sumSq, peak float64
	for _, v := range window {
		sumSq += v * v
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	rms := math.Sqrt(sumSq / float64(len(window)))

	hann := make([]float64, len(window))
	for i, v := range window {
		w := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(len(window)-1)))
		hann[i] = v * w
	}
	spectrum := fft.FFTReal(hann)

	var bassSum, midSum, highSum float64
	for i := 0; i < len(spectrum)/2; i++ {
		mag := cmplx.Abs(spectrum[i])
		switch {
		case i < 5:
			bassSum += mag
		case i < 46:
			midSum += mag
		case i < 460:
			highSum += mag
		}
	}

	level := math.Max(bassSum/100.0, math.Max(midSum/500.0, highSum/1000.0))
	if level > m.maxLevel {
		m.maxLevel = level
	} else {
		m.maxLevel *= 0.999
	}
	gain := 1.0
	if m.maxLevel > 0.001 {
		gain = 1.0 / m.maxLevel
	}
	if gain > 50.0 {
		gain = 50.0
	}

	m.bass = m.bass*0.9 + math.Min(bassSum/100.0*gain, 1.0)*0.1
	m.mid = m.mid*0.9 + math.Min(midSum/500.0*gain, 1.0)*0.1
	m.highS = m.highS*0.9 + math.Min(highSum/1000.0*gain, 1.0)*0.1

	return Levels{RMS: rms, Peak: peak, Bass: m.bass, Mid: m.mid, High: m.highS}
}
