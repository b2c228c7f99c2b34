// Package engine owns scene playback: the virtual clock, the event
// scheduler, running animations, and the per-frame pipeline that feeds the
// renderer and the audio scheduler.
package engine

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/shapesound/shapesound/internal/audio"
	"github.com/shapesound/shapesound/internal/physics"
	"github.com/shapesound/shapesound/internal/render"
	"github.com/shapesound/shapesound/internal/scene"
)

// maxFrameDt clamps per-frame simulation steps so a stalled UI cannot
// catapult physics.
const maxFrameDt = 0.05

// volumeSink is the optional master-volume surface of a sink.
type volumeSink interface {
	SetMaster(v float64)
}

type runningAnim struct {
	anim    *scene.Anim
	startMs float64
}

// Engine drives one loaded scene. All methods are safe for concurrent use;
// UI layers call Tick from their frame loop and the control methods from
// input handlers.
type Engine struct {
	mu     sync.Mutex
	source string
	sc     *scene.Scene
	clock  *Clock
	now    func() time.Time

	pending    []scene.Event
	anims      []runningAnim
	currentBG  string
	noisePhase float64
	lastMs     float64

	sink  audio.Sink
	sched *audio.Scheduler

	lookaheadMs   float64
	minDurationMs float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithNow injects the wall clock. Tests freeze time with this.
func WithNow(fn func() time.Time) Option {
	return func(e *Engine) { e.now = fn }
}

// WithSink attaches an audio sink. Without one the engine runs silent.
func WithSink(s audio.Sink) Option {
	return func(e *Engine) { e.sink = s }
}

// WithLookahead overrides the audio look-ahead window in milliseconds.
func WithLookahead(ms float64) Option {
	return func(e *Engine) { e.lookaheadMs = ms }
}

// WithMinDuration overrides the scene length floor in milliseconds.
func WithMinDuration(ms float64) Option {
	return func(e *Engine) { e.minDurationMs = ms }
}

// New builds the script and starts playback at time zero.
func New(script string, opts ...Option) (*Engine, error) {
	e := &Engine{
		source:        script,
		now:           time.Now,
		lookaheadMs:   audio.DefaultLookaheadMs,
		minDurationMs: scene.DefaultMinDurationMs,
	}
	for _, opt := range opts {
		opt(e)
	}
	sc, err := e.build(script)
	if err != nil {
		return nil, err
	}
	e.install(sc)
	return e, nil
}

func (e *Engine) build(script string) (*scene.Scene, error) {
	return scene.BuildWithMinDuration(script, e.minDurationMs)
}

// install wires a freshly built scene into the engine and rewinds playback.
func (e *Engine) install(sc *scene.Scene) {
	e.sc = sc
	e.pending = sortedEvents(sc)
	e.anims = nil
	e.currentBG = sc.Background
	e.noisePhase = 0
	e.lastMs = 0
	e.clock = NewClock(e.now())
	if e.sink != nil {
		e.sched = audio.NewScheduler(audio.ExpandTones(sc), e.sink, e.lookaheadMs)
	}
}

func sortedEvents(sc *scene.Scene) []scene.Event {
	evs := sc.EventsCopy()
	sort.SliceStable(evs, func(i, j int) bool { return evs[i].TimeMs < evs[j].TimeMs })
	return evs
}

// Load replaces the running scene with a newly built script.
func (e *Engine) Load(script string) error {
	sc, err := e.build(script)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.source = script
	e.install(sc)
	return nil
}

// Scene returns the live scene. Callers must not mutate it concurrently
// with Tick.
func (e *Engine) Scene() *scene.Scene {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sc
}

// ElapsedMs returns the playhead position.
func (e *Engine) ElapsedMs() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return float64(e.clock.Elapsed(e.now())) / float64(time.Millisecond)
}

// DurationMs returns the scene length.
func (e *Engine) DurationMs() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sc.DurationMs
}

// Paused reports whether the playhead is frozen.
func (e *Engine) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clock.Paused()
}

// Pause freezes playback.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clock.Pause(e.now())
}

// Resume continues playback from the frozen position. The audio anchor is
// re-derived from the virtual playhead, so tones stay aligned after any
// number of pauses.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clock.Resume(e.now())
}

// TogglePause flips between paused and playing.
func (e *Engine) TogglePause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.now()
	if e.clock.Paused() {
		e.clock.Resume(now)
	} else {
		e.clock.Pause(now)
	}
}

// Idle reports that nothing remains to happen: no pending events, no
// running animations, and no live entities to keep simulating.
func (e *Engine) Idle() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending) == 0 && len(e.anims) == 0 && len(e.sc.Entities) == 0
}

// SetMasterVolume forwards to the sink when it supports volume.
func (e *Engine) SetMasterVolume(v float64) {
	if vs, ok := e.sink.(volumeSink); ok {
		vs.SetMaster(v)
	}
}

// SetTempo changes the beat length for subsequently built state. Tones
// already expanded keep their original timing until the next Load or seek.
func (e *Engine) SetTempo(bpm float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if bpm > 0 {
		e.sc.TempoBPM = bpm
	}
}

// SetSeed reseeds the scene RNG for subsequent random draws.
func (e *Engine) SetSeed(seed uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sc.Seed = seed
	e.sc.RNG.Reseed(seed)
}

// SetPhysics toggles the physics step.
func (e *Engine) SetPhysics(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sc.Physics.Enabled = on
}

// SetGravity sets the global acceleration in px/s^2.
func (e *Engine) SetGravity(gx, gy float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sc.Physics.GravityX, e.sc.Physics.GravityY = gx, gy
}

// SetDamping sets the per-step velocity multiplier.
func (e *Engine) SetDamping(d float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sc.Physics.Damping = d
}

// SetBounds selects edge handling for physics entities.
func (e *Engine) SetBounds(mode scene.BoundsMode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sc.Physics.Bounds = mode
}

// SetVel replaces an entity's velocity and marks it physics-driven.
func (e *Engine) SetVel(id string, vx, vy float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ent, ok := e.sc.Entities[id]; ok {
		ent.Physics = true
		ent.VX, ent.VY = vx, vy
	}
}

// Impulse adds to an entity's velocity and marks it physics-driven.
func (e *Engine) Impulse(id string, vx, vy float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ent, ok := e.sc.Entities[id]; ok {
		ent.Physics = true
		ent.VX += vx
		ent.VY += vy
	}
}

// Tick advances the simulation to the current wall time and returns the
// frame's display list. The step order is fixed: physics and frame
// stepping, due events, behaviors, animation write-back, then frame
// assembly; the audio scheduler polls last.
func (e *Engine) Tick() []render.Op {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	elapsedMs := float64(e.clock.Elapsed(now)) / float64(time.Millisecond)
	dtSec := (elapsedMs - e.lastMs) / 1000
	if dtSec < 0 {
		dtSec = 0
	}
	if dtSec > maxFrameDt {
		dtSec = maxFrameDt
	}
	e.lastMs = elapsedMs
	tSec := elapsedMs / 1000

	physics.Step(e.sc, dtSec)
	physics.AdvanceFrames(e.sc, dtSec)

	for len(e.pending) > 0 && e.pending[0].TimeMs <= elapsedMs {
		ev := e.pending[0]
		e.pending = e.pending[1:]
		switch ev.Kind {
		case scene.EventBackground:
			e.currentBG = ev.Color
		case scene.EventAnimate:
			e.anims = append(e.anims, runningAnim{anim: ev.Anim, startMs: elapsedMs})
		}
	}

	physics.ApplyBehaviors(e.sc, tSec, dtSec)

	if e.sc.BGNoise != nil {
		e.noisePhase += dtSec * e.sc.BGNoise.Speed
	}

	overlays := e.advanceAnims(elapsedMs)

	ops := render.BuildFrame(e.sc, render.FrameOpts{
		TSec:       tSec,
		Background: e.currentBG,
		NoisePhase: e.noisePhase,
		Live:       true,
		Overlays:   overlays,
	})

	if e.sched != nil && !e.clock.Paused() {
		e.sched.Poll(elapsedMs)
	}
	return ops
}

// advanceAnims samples every running animation at the current playhead,
// writes sprite animations back to their entities, and returns overlay
// shapes for in-flight shape animations. Finished animations are dropped.
func (e *Engine) advanceAnims(elapsedMs float64) []render.Overlay {
	var overlays []render.Overlay
	live := e.anims[:0]
	for _, ra := range e.anims {
		a := ra.anim
		raw := 1.0
		if a.DurationMs > 0 {
			raw = math.Min((elapsedMs-ra.startMs)/a.DurationMs, 1)
		}
		t := a.Ease.Apply(raw)

		if a.Sprite {
			if ent, ok := e.sc.Entities[a.TargetID]; ok {
				ent.X = lerp(a.From[0], a.To[0], t)
				ent.Y = lerp(a.From[1], a.To[1], t)
				ent.Scale = lerp(a.From[2], a.To[2], t)
			} else {
				continue // target gone, drop the animation
			}
		} else {
			var color string
			if a.FromColor != "" && a.ToColor != "" {
				color = render.LerpHex(a.FromColor, a.ToColor, t)
			}
			overlays = append(overlays, render.Overlay{
				Shape: a.Shape,
				X:     lerp(a.From[0], a.To[0], t),
				Y:     lerp(a.From[1], a.To[1], t),
				Size:  lerp(a.From[2], a.To[2], t),
				Color: color,
			})
		}
		if raw < 1 {
			live = append(live, ra)
		}
	}
	e.anims = live
	return overlays
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
