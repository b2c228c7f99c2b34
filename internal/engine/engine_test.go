package engine

import (
	"math"
	"testing"
	"time"

	"github.com/shapesound/shapesound/internal/render"
	"github.com/shapesound/shapesound/internal/scene"
)

// testClock is a controllable wall clock.
type testClock struct {
	t time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Unix(1000, 0)}
}

func (c *testClock) now() time.Time {
	return c.t
}

func (c *testClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

type fakeSink struct {
	calls []float64 // scheduled frequencies
}

func (f *fakeSink) ScheduleTone(freq, durSec float64, startIn time.Duration) {
	f.calls = append(f.calls, freq)
}

func newEngine(t *testing.T, script string, clk *testClock, sink *fakeSink) *Engine {
	t.Helper()
	opts := []Option{WithNow(clk.now)}
	if sink != nil {
		opts = append(opts, WithSink(sink))
	}
	e, err := New(script, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestPauseResumeContinuity(t *testing.T) {
	clk := newTestClock()
	e := newEngine(t, "delay 20000\n", clk, nil)

	clk.advance(time.Second)
	if got := e.ElapsedMs(); got != 1000 {
		t.Fatalf("elapsed = %v, want 1000", got)
	}
	e.Pause()
	clk.advance(5 * time.Second)
	if got := e.ElapsedMs(); got != 1000 {
		t.Fatalf("elapsed while paused = %v, want 1000", got)
	}
	e.Resume()
	clk.advance(500 * time.Millisecond)
	if got := e.ElapsedMs(); got != 1500 {
		t.Fatalf("elapsed after resume = %v, want 1500", got)
	}
}

func TestTickAppliesBackgroundEvents(t *testing.T) {
	clk := newTestClock()
	e := newEngine(t, "background #111\ndelay 1000\nbackground #222\n", clk, nil)

	ops := e.Tick()
	if ops[0].Color != "#111" {
		t.Errorf("background at t=0 = %q, want #111", ops[0].Color)
	}
	clk.advance(1500 * time.Millisecond)
	ops = e.Tick()
	if ops[0].Color != "#222" {
		t.Errorf("background at t=1.5s = %q, want #222", ops[0].Color)
	}
}

func TestTickClampsDt(t *testing.T) {
	clk := newTestClock()
	e := newEngine(t, "physics on\ngravity 0 100\nsprite turtle id=t x=100 y=100 scale=1\nsetvel t 0 0\n", clk, nil)

	clk.advance(10 * time.Second)
	e.Tick()
	ent := e.Scene().Entities["t"]
	// a 10s stall steps physics by at most 50ms
	if math.Abs(ent.VY-5) > 1e-9 {
		t.Errorf("vy = %v, want 5 (gravity over one clamped step)", ent.VY)
	}
}

func TestSpriteAnimationWriteBack(t *testing.T) {
	clk := newTestClock()
	e := newEngine(t, "sprite turtle id=t x=0 y=0 scale=1\nanimate sprite t 0 0 1 -> 100 200 3 duration 2s\n", clk, nil)

	e.Tick() // pops the animation event at t=0
	clk.advance(time.Second)
	e.Tick()
	ent := e.Scene().Entities["t"]
	if math.Abs(ent.X-50) > 1e-6 || math.Abs(ent.Y-100) > 1e-6 {
		t.Errorf("entity at (%v,%v), want (50,100)", ent.X, ent.Y)
	}
	if math.Abs(ent.Scale-2) > 1e-6 {
		t.Errorf("scale = %v, want 2", ent.Scale)
	}

	clk.advance(2 * time.Second)
	e.Tick()
	if ent.X != 100 || ent.Scale != 3 {
		t.Errorf("final state (%v, scale %v), want (100, scale 3)", ent.X, ent.Scale)
	}
	clk.advance(100 * time.Millisecond)
	e.Tick()
	if len(e.anims) != 0 {
		t.Error("finished animation should be dropped")
	}
}

func TestShapeAnimationOverlay(t *testing.T) {
	clk := newTestClock()
	e := newEngine(t, "animate circle 0 0 10 -> 100 0 30 duration 2s fromColor #000000 toColor #ffffff\n", clk, nil)

	e.Tick()
	clk.advance(time.Second)
	ops := e.Tick()

	var ov *render.Op
	for i := range ops {
		if ops[i].Kind == render.OpCircle {
			ov = &ops[i]
		}
	}
	if ov == nil {
		t.Fatal("no overlay circle")
	}
	if math.Abs(ov.X-50) > 1e-6 || math.Abs(ov.R-20) > 1e-6 {
		t.Errorf("overlay at x=%v r=%v, want x=50 r=20", ov.X, ov.R)
	}
	if ov.Color != "#808080" {
		t.Errorf("overlay color = %q, want #808080", ov.Color)
	}
	// overlays never create retained drawables
	if len(e.Scene().Drawables) != 0 {
		t.Error("shape animation must not add retained shapes")
	}
}

func TestTickSchedulesAudio(t *testing.T) {
	clk := newTestClock()
	sink := &fakeSink{}
	e := newEngine(t, "sound 440 0.1\ndelay 5000\nsound 880 0.1\n", clk, sink)

	e.Tick()
	if len(sink.calls) != 1 || sink.calls[0] != 440 {
		t.Fatalf("calls = %v, want the due tone only", sink.calls)
	}
	clk.advance(5 * time.Second)
	e.Tick()
	if len(sink.calls) != 2 || sink.calls[1] != 880 {
		t.Fatalf("calls = %v, want both tones", sink.calls)
	}
}

func TestPausedTickSchedulesNothing(t *testing.T) {
	clk := newTestClock()
	sink := &fakeSink{}
	e := newEngine(t, "sound 440 0.1\n", clk, sink)
	e.Pause()
	e.Tick()
	if len(sink.calls) != 0 {
		t.Errorf("paused tick scheduled %v", sink.calls)
	}
}

func TestSeekIsSilentAndPauses(t *testing.T) {
	clk := newTestClock()
	sink := &fakeSink{}
	e := newEngine(t, "sound 440 0.1\ndelay 1000\nsound 880 0.1\n", clk, sink)

	if err := e.SeekMs(1500); err != nil {
		t.Fatalf("SeekMs: %v", err)
	}
	if len(sink.calls) != 0 {
		t.Errorf("seek scheduled audio: %v", sink.calls)
	}
	if !e.Paused() {
		t.Error("seek should leave the engine paused")
	}
	if got := e.ElapsedMs(); got != 1500 {
		t.Errorf("elapsed after seek = %v, want 1500", got)
	}

	// ticking while paused still schedules nothing
	e.Tick()
	if len(sink.calls) != 0 {
		t.Errorf("post-seek paused tick scheduled %v", sink.calls)
	}
}

func TestSeekRebuildsState(t *testing.T) {
	clk := newTestClock()
	e := newEngine(t, "physics on\ngravity 0 100\nsprite turtle id=t x=100 y=100 scale=1\nsetvel t 50 0\ndelay 20000\n", clk, nil)

	// let physics run the entity away from its start
	for i := 0; i < 10; i++ {
		clk.advance(50 * time.Millisecond)
		e.Tick()
	}
	moved := e.Scene().Entities["t"].X
	if moved == 100 {
		t.Fatal("entity should have moved")
	}

	if err := e.SeekMs(0); err != nil {
		t.Fatalf("SeekMs: %v", err)
	}
	if got := e.Scene().Entities["t"].X; got != 100 {
		t.Errorf("x after seek to 0 = %v, want rebuilt 100", got)
	}
}

func TestSeekIdempotent(t *testing.T) {
	clk := newTestClock()
	script := "seed 42\nblob 200 300 50 18 18 id=b1\nbackground #111\ndelay 2000\nbackground #222\nanimate circle 0 0 5 -> 100 100 25 duration 4s\n"
	e := newEngine(t, script, clk, nil)

	if err := e.SeekMs(3000); err != nil {
		t.Fatalf("SeekMs: %v", err)
	}
	first := e.Tick()
	if err := e.SeekMs(3000); err != nil {
		t.Fatalf("SeekMs: %v", err)
	}
	second := e.Tick()

	if len(first) != len(second) {
		t.Fatalf("op counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("op %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestSeekClamps(t *testing.T) {
	clk := newTestClock()
	e := newEngine(t, "delay 5000\n", clk, nil)
	if err := e.SeekMs(-100); err != nil {
		t.Fatal(err)
	}
	if got := e.ElapsedMs(); got != 0 {
		t.Errorf("elapsed = %v, want clamp to 0", got)
	}
	if err := e.SeekMs(1e9); err != nil {
		t.Fatal(err)
	}
	if got := e.ElapsedMs(); got != e.DurationMs() {
		t.Errorf("elapsed = %v, want clamp to duration %v", got, e.DurationMs())
	}
}

func TestSeekRestoresBackground(t *testing.T) {
	clk := newTestClock()
	e := newEngine(t, "background #aaa\ndelay 1000\nbackground #bbb\ndelay 1000\nbackground #ccc\n", clk, nil)

	if err := e.SeekMs(1500); err != nil {
		t.Fatal(err)
	}
	ops := e.Tick()
	if ops[0].Color != "#bbb" {
		t.Errorf("background at 1.5s = %q, want #bbb (last event at or before)", ops[0].Color)
	}
}

func TestSeekMidAnimationContinues(t *testing.T) {
	clk := newTestClock()
	e := newEngine(t, "sprite turtle id=t x=0 y=0 scale=1\nanimate sprite t 0 0 1 -> 100 0 1 duration 2s\n", clk, nil)

	if err := e.SeekMs(1000); err != nil {
		t.Fatal(err)
	}
	if got := e.Scene().Entities["t"].X; math.Abs(got-50) > 1e-6 {
		t.Errorf("x after mid-anim seek = %v, want 50", got)
	}
	if len(e.anims) != 1 {
		t.Fatalf("running anims after seek = %d, want 1", len(e.anims))
	}

	// resume and finish the animation
	e.Resume()
	clk.advance(1100 * time.Millisecond)
	e.Tick()
	if got := e.Scene().Entities["t"].X; got != 100 {
		t.Errorf("x after finishing = %v, want 100", got)
	}
}

func TestLoadReplacesScene(t *testing.T) {
	clk := newTestClock()
	e := newEngine(t, "circle 0 0 5\n", clk, nil)
	clk.advance(3 * time.Second)
	if err := e.Load("rect 0 0 10 10\n"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := e.ElapsedMs(); got != 0 {
		t.Errorf("elapsed after load = %v, want rewound 0", got)
	}
	if len(e.Scene().Drawables) != 1 || e.Scene().Drawables[0].Kind != scene.ShapeRect {
		t.Error("scene should be the newly loaded one")
	}
}

func TestRenderAtDeterministic(t *testing.T) {
	script := "seed 7\nblob 200 300 50 18 18 id=b1\nbackground #111\ndelay 1000\nbackground #222\n"
	a, _, err := RenderAt(script, 1500)
	if err != nil {
		t.Fatalf("RenderAt: %v", err)
	}
	b, _, err := RenderAt(script, 1500)
	if err != nil {
		t.Fatalf("RenderAt: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("op counts differ")
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("op %d differs", i)
		}
	}
	if a[0].Color != "#222" {
		t.Errorf("background = %q, want #222", a[0].Color)
	}
}

func TestRenderAtSamplesAnimation(t *testing.T) {
	script := "sprite turtle id=t x=0 y=0 scale=1\nanimate sprite t 0 0 1 -> 200 0 1 duration 4s\n"
	ops, sc, err := RenderAt(script, 2000)
	if err != nil {
		t.Fatalf("RenderAt: %v", err)
	}
	if got := sc.Entities["t"].X; math.Abs(got-100) > 1e-6 {
		t.Errorf("entity x = %v, want 100", got)
	}
	var turtle *render.Op
	for i := range ops {
		if ops[i].Kind == render.OpTurtle {
			turtle = &ops[i]
		}
	}
	if turtle == nil || math.Abs(turtle.X-100) > 1e-6 {
		t.Errorf("turtle op = %+v, want x 100", turtle)
	}
}

func TestRenderAtBadScript(t *testing.T) {
	if _, _, err := RenderAt("bogus\n", 0); err == nil {
		t.Fatal("want error for bad script")
	}
}

func TestWithMinDuration(t *testing.T) {
	clk := newTestClock()
	e, err := New("circle 10 10 5\n", WithNow(clk.now), WithMinDuration(3000))
	if err != nil {
		t.Fatal(err)
	}
	if got := e.DurationMs(); got != 3000 {
		t.Fatalf("duration = %v, want 3000", got)
	}

	// the floor survives a seek rebuild
	if err := e.SeekMs(2000); err != nil {
		t.Fatal(err)
	}
	if got := e.DurationMs(); got != 3000 {
		t.Errorf("duration after seek = %v, want 3000", got)
	}
}

func TestSetTempo(t *testing.T) {
	clk := newTestClock()
	e := newEngine(t, "tempo 100\n", clk, nil)

	e.SetTempo(120)
	if got := e.Scene().TempoBPM; got != 120 {
		t.Errorf("tempo = %v, want 120", got)
	}
	e.SetTempo(0)
	if got := e.Scene().TempoBPM; got != 120 {
		t.Errorf("tempo after invalid set = %v, want 120", got)
	}
}

func TestSetSeed(t *testing.T) {
	clk := newTestClock()
	e := newEngine(t, "seed 7\n", clk, nil)

	e.SetSeed(42)
	sc := e.Scene()
	if sc.Seed != 42 {
		t.Fatalf("seed = %d, want 42", sc.Seed)
	}
	a := sc.RNG.Float64()
	sc.RNG.Reseed(42)
	if b := sc.RNG.Float64(); a != b {
		t.Errorf("reseeded stream diverged: %v vs %v", a, b)
	}
}
