package audio

import (
	"sort"
	"sync"
	"time"
)

const (
	// DefaultLookaheadMs is how far ahead of the playhead tones are handed
	// to the sink.
	DefaultLookaheadMs = 200
	// DefaultPollInterval is the suggested cadence for calling Poll.
	DefaultPollInterval = 50 * time.Millisecond
)

// Sink consumes scheduled tones. startIn is the delay from now until the
// tone should sound.
type Sink interface {
	ScheduleTone(freq, durSec float64, startIn time.Duration)
}

// Scheduler walks a tone list against the scene's virtual playhead. It owns
// a cursor into the sorted list; tones behind the cursor never sound again,
// which is what makes seeking silent.
type Scheduler struct {
	mu          sync.Mutex
	tones       []Tone
	next        int
	sink        Sink
	lookaheadMs float64
}

func NewScheduler(tones []Tone, sink Sink, lookaheadMs float64) *Scheduler {
	if lookaheadMs <= 0 {
		lookaheadMs = DefaultLookaheadMs
	}
	return &Scheduler{tones: tones, sink: sink, lookaheadMs: lookaheadMs}
}

// Poll hands every tone due within the look-ahead window to the sink.
// elapsedMs is the current virtual playhead position.
func (s *Scheduler) Poll(elapsedMs float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.next < len(s.tones) && s.tones[s.next].WhenMs <= elapsedMs+s.lookaheadMs {
		t := s.tones[s.next]
		s.next++
		delay := time.Duration((t.WhenMs - elapsedMs) * float64(time.Millisecond))
		if delay < 0 {
			delay = 0
		}
		s.sink.ScheduleTone(t.Freq, t.DurSec, delay)
	}
}

// SeekTo repositions the cursor without sounding anything. Tones at or
// before elapsedMs are skipped for good; later tones play on resume.
func (s *Scheduler) SeekTo(elapsedMs float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next = sort.Search(len(s.tones), func(i int) bool {
		return s.tones[i].WhenMs > elapsedMs
	})
}

// Reset rewinds the cursor to the start of the tone list.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next = 0
}

// Done reports whether every tone has been handed off.
func (s *Scheduler) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next >= len(s.tones)
}
