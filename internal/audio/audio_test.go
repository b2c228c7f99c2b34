package audio

import (
	"math"
	"testing"
	"time"

	"github.com/shapesound/shapesound/internal/scene"
)

func buildScene(t *testing.T, script string) *scene.Scene {
	t.Helper()
	sc, err := scene.Build(script)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return sc
}

func TestExpandTonesSound(t *testing.T) {
	sc := buildScene(t, "sound 440 0.25\nsound 880 1\n")
	tones := ExpandTones(sc)
	if len(tones) != 2 {
		t.Fatalf("tones = %d, want 2", len(tones))
	}
	if tones[0].Freq != 440 || tones[0].DurSec != 0.25 || tones[0].WhenMs != 0 {
		t.Errorf("first tone = %+v", tones[0])
	}
	if tones[1].WhenMs != 250 {
		t.Errorf("second tone at %v, want 250", tones[1].WhenMs)
	}
}

func TestExpandTonesNoteDuration(t *testing.T) {
	sc := buildScene(t, "tempo 120\nplay A4\n")
	tones := ExpandTones(sc)
	if len(tones) != 1 {
		t.Fatalf("tones = %d, want 1", len(tones))
	}
	if tones[0].Freq != 440 {
		t.Errorf("A4 freq = %v, want 440", tones[0].Freq)
	}
	// beat at 120bpm is 500ms; notes ring for 90% of it
	if math.Abs(tones[0].DurSec-0.45) > 1e-9 {
		t.Errorf("note duration = %v, want 0.45", tones[0].DurSec)
	}
}

func TestExpandTonesSequenceSpacing(t *testing.T) {
	sc := buildScene(t, "tempo 120\nsequence { C3 E3 G3 }\n")
	tones := ExpandTones(sc)
	if len(tones) != 3 {
		t.Fatalf("tones = %d, want 3", len(tones))
	}
	wantTimes := []float64{0, 500, 1000}
	wantFreqs := []float64{130.81, 164.81, 196.00}
	for i, tn := range tones {
		if tn.WhenMs != wantTimes[i] {
			t.Errorf("tone %d at %v, want %v", i, tn.WhenMs, wantTimes[i])
		}
		if tn.Freq != wantFreqs[i] {
			t.Errorf("tone %d freq %v, want %v", i, tn.Freq, wantFreqs[i])
		}
	}
}

func TestExpandTonesSorted(t *testing.T) {
	sc := buildScene(t, "sequence { C3 C3 C3 }\nsound 100 0.1\n")
	tones := ExpandTones(sc)
	for i := 1; i < len(tones); i++ {
		if tones[i].WhenMs < tones[i-1].WhenMs {
			t.Fatalf("tones out of order at %d: %v", i, tones)
		}
	}
}

type fakeSink struct {
	calls []struct {
		freq, dur float64
		delay     time.Duration
	}
}

func (f *fakeSink) ScheduleTone(freq, durSec float64, startIn time.Duration) {
	f.calls = append(f.calls, struct {
		freq, dur float64
		delay     time.Duration
	}{freq, durSec, startIn})
}

func TestSchedulerLookahead(t *testing.T) {
	tones := []Tone{
		{WhenMs: 0, Freq: 100, DurSec: 0.1},
		{WhenMs: 150, Freq: 200, DurSec: 0.1},
		{WhenMs: 1000, Freq: 300, DurSec: 0.1},
	}
	sink := &fakeSink{}
	s := NewScheduler(tones, sink, 200)

	s.Poll(0)
	if len(sink.calls) != 2 {
		t.Fatalf("calls after first poll = %d, want 2 (within 200ms window)", len(sink.calls))
	}
	if sink.calls[0].delay != 0 {
		t.Errorf("due tone delay = %v, want 0", sink.calls[0].delay)
	}
	if sink.calls[1].delay != 150*time.Millisecond {
		t.Errorf("future tone delay = %v, want 150ms", sink.calls[1].delay)
	}

	// nothing new until the playhead approaches the third tone
	s.Poll(500)
	if len(sink.calls) != 2 {
		t.Fatalf("calls = %d, tone at 1000 should still be pending", len(sink.calls))
	}
	s.Poll(810)
	if len(sink.calls) != 3 {
		t.Fatalf("calls = %d, want 3", len(sink.calls))
	}
	if !s.Done() {
		t.Error("scheduler should be done")
	}
}

func TestSchedulerNeverReplays(t *testing.T) {
	sink := &fakeSink{}
	s := NewScheduler([]Tone{{WhenMs: 0, Freq: 100, DurSec: 0.1}}, sink, 200)
	s.Poll(0)
	s.Poll(0)
	s.Poll(50)
	if len(sink.calls) != 1 {
		t.Errorf("calls = %d, a tone must fire once", len(sink.calls))
	}
}

func TestSchedulerSeekIsSilent(t *testing.T) {
	tones := []Tone{
		{WhenMs: 0, Freq: 100, DurSec: 0.1},
		{WhenMs: 500, Freq: 200, DurSec: 0.1},
		{WhenMs: 2000, Freq: 300, DurSec: 0.1},
	}
	sink := &fakeSink{}
	s := NewScheduler(tones, sink, 200)

	s.SeekTo(600)
	if len(sink.calls) != 0 {
		t.Fatal("seek must not schedule audio")
	}
	s.Poll(1900)
	if len(sink.calls) != 1 || sink.calls[0].freq != 300 {
		t.Fatalf("after seek only the future tone should play: %+v", sink.calls)
	}
}

func TestSchedulerReset(t *testing.T) {
	sink := &fakeSink{}
	s := NewScheduler([]Tone{{WhenMs: 0, Freq: 100, DurSec: 0.1}}, sink, 200)
	s.Poll(0)
	s.Reset()
	s.Poll(0)
	if len(sink.calls) != 2 {
		t.Errorf("calls after reset = %d, want 2", len(sink.calls))
	}
}

func TestMeterBands(t *testing.T) {
	m := NewMeter()
	// 100Hz sine lands in the lowest FFT bins at 44.1kHz/1024
	block := make([]float64, meterWindow)
	for i := range block {
		block[i] = 0.5 * math.Sin(2*math.Pi*100*float64(i)/SampleRate)
	}
	m.Push(block)

	var lv Levels
	for i := 0; i < 20; i++ {
		lv = m.Levels()
	}
	if lv.Bass <= lv.High {
		t.Errorf("bass %v should dominate high %v for a 100Hz tone", lv.Bass, lv.High)
	}
	if math.Abs(lv.RMS-0.5/math.Sqrt2) > 0.05 {
		t.Errorf("rms = %v, want about %v", lv.RMS, 0.5/math.Sqrt2)
	}
	if math.Abs(lv.Peak-0.5) > 0.01 {
		t.Errorf("peak = %v, want about 0.5", lv.Peak)
	}
}

func TestMeterSilence(t *testing.T) {
	m := NewMeter()
	lv := m.Levels()
	if lv.RMS != 0 || lv.Peak != 0 {
		t.Errorf("silent meter should read zero: %+v", lv)
	}
}

func TestEnvelopeShape(t *testing.T) {
	attack := uint64(attackSec * SampleRate)
	v := &voice{start: 0, end: SampleRate} // one second tone
	if got := envelope(v, 0, attack); got != 0 {
		t.Errorf("envelope at start = %v, want 0", got)
	}
	if got := envelope(v, attack, attack); math.Abs(got-voiceGain) > 1e-9 {
		t.Errorf("envelope after attack = %v, want %v", got, voiceGain)
	}
	mid := envelope(v, SampleRate/2, attack)
	if mid <= 0 || mid >= voiceGain {
		t.Errorf("mid envelope = %v, want inside (0, %v)", mid, voiceGain)
	}
	tail := envelope(v, v.end-1, attack)
	if tail > 0.001 {
		t.Errorf("envelope near end = %v, want near 0", tail)
	}
}
