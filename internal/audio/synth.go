package audio

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

const (
	SampleRate = 44100
	BufferSize = 512

	attackSec = 0.01
	voiceGain = 0.9
)

type voice struct {
	freq  float64
	start uint64 // sample index
	end   uint64
	phase float64
}

// Synth is a sample-clocked additive sine synth behind portaudio. Tones are
// scheduled against the stream's own sample counter, so timing does not
// depend on callback jitter.
type Synth struct {
	mu     sync.Mutex
	stream *portaudio.Stream
	voices []*voice
	clock  uint64
	master float64
	meter  *Meter
	block  []float64
}

// NewSynth opens and starts the default output stream.
func NewSynth() (*Synth, error) {
	s := &Synth{master: 0.8, meter: NewMeter(), block: make([]float64, BufferSize)}
	portaudio.Initialize()
	stream, err := portaudio.OpenDefaultStream(0, 1, SampleRate, BufferSize, s.process)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("open audio stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("start audio stream: %w", err)
	}
	s.stream = stream
	return s, nil
}

// ScheduleTone queues a sine tone to start after startIn. Implements Sink.
func (s *Synth) ScheduleTone(freq, durSec float64, startIn time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := s.clock + uint64(startIn.Seconds()*SampleRate)
	end := start + uint64(durSec*SampleRate)
	if end <= start {
		return
	}
	s.voices = append(s.voices, &voice{freq: freq, start: start, end: end})
}

// SetMaster sets the master volume, clamped to [0, 1].
func (s *Synth) SetMaster(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.master = math.Max(0, math.Min(1, v))
}

// Master returns the current master volume.
func (s *Synth) Master() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.master
}

// Meter exposes the output level meter.
func (s *Synth) Meter() *Meter {
	return s.meter
}

// Silence drops every pending and sounding voice.
func (s *Synth) Silence() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voices = s.voices[:0]
}

// Close stops the stream and tears down portaudio.
func (s *Synth) Close() {
	if s.stream != nil {
		s.stream.Stop()
		s.stream.Close()
	}
	portaudio.Terminate()
}

func (s *Synth) process(out []float32) {
	s.mu.Lock()
	attack := uint64(attackSec * SampleRate)
	block := s.block[:0]
	for i := range out {
		var sum float64
		for _, v := range s.voices {
			if s.clock < v.start || s.clock >= v.end {
				continue
			}
			sum += math.Sin(v.phase) * envelope(v, s.clock, attack)
			v.phase += 2 * math.Pi * v.freq / SampleRate
		}
		sample := sum * s.master
		out[i] = float32(sample)
		block = append(block, sample)
		s.clock++
	}

	live := s.voices[:0]
	for _, v := range s.voices {
		if s.clock < v.end {
			live = append(live, v)
		}
	}
	s.voices = live
	s.mu.Unlock()

	s.meter.Push(block)
}

// envelope ramps to full gain over the attack, then decays linearly to zero
// at the voice's end.
func envelope(v *voice, clock, attack uint64) float64 {
	pos := clock - v.start
	if pos < attack {
		return voiceGain * float64(pos) / float64(attack)
	}
	span := v.end - v.start
	if span <= attack {
		return voiceGain
	}
	return voiceGain * float64(v.end-clock) / float64(span-attack)
}
