package engine

import (
	"math"
	"time"

	"github.com/shapesound/shapesound/internal/render"
	"github.com/shapesound/shapesound/internal/scene"
)

// silencer is the optional voice-drop surface of a sink, used when seeking.
type silencer interface {
	Silence()
}

// SeekFrac moves the playhead to a fraction of the scene duration.
func (e *Engine) SeekFrac(f float64) error {
	return e.SeekMs(f * e.DurationMs())
}

// SeekMs moves the playhead to an absolute time. The scene is rebuilt from
// source and every event up to the target is re-applied, so seeking is pure:
// the same target always yields the same state. No audio is produced; the
// engine is left paused.
func (e *Engine) SeekMs(ms float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	sc, err := e.build(e.source)
	if err != nil {
		return err
	}
	ms = math.Max(0, math.Min(ms, sc.DurationMs))

	e.sc = sc
	e.currentBG = sc.Background
	e.anims = nil

	evs := sortedEvents(sc)
	idx := len(evs)
	for i, ev := range evs {
		if ev.TimeMs > ms {
			idx = i
			break
		}
		switch ev.Kind {
		case scene.EventBackground:
			e.currentBG = ev.Color
		case scene.EventAnimate:
			e.applySeekAnim(ev, ms)
		}
	}
	e.pending = evs[idx:]

	if e.sc.BGNoise != nil {
		e.noisePhase = ms / 1000 * e.sc.BGNoise.Speed
	} else {
		e.noisePhase = 0
	}
	e.lastMs = ms
	e.clock.Seek(time.Duration(ms * float64(time.Millisecond)))

	if e.sched != nil {
		e.sched.SeekTo(ms)
	}
	if s, ok := e.sink.(silencer); ok {
		s.Silence()
	}
	return nil
}

// applySeekAnim replays one animation event against the seek target. Sprite
// animations write their sampled state to the entity, completed or not;
// still-running animations keep going after the seek.
func (e *Engine) applySeekAnim(ev scene.Event, ms float64) {
	a := ev.Anim
	raw := 1.0
	if a.DurationMs > 0 {
		raw = math.Min((ms-ev.TimeMs)/a.DurationMs, 1)
	}
	if a.Sprite {
		if ent, ok := e.sc.Entities[a.TargetID]; ok {
			t := a.Ease.Apply(raw)
			ent.X = lerp(a.From[0], a.To[0], t)
			ent.Y = lerp(a.From[1], a.To[1], t)
			ent.Scale = lerp(a.From[2], a.To[2], t)
		}
	}
	if raw < 1 {
		e.anims = append(e.anims, runningAnim{anim: a, startMs: ev.TimeMs})
	}
}

// RenderAt builds a still frame of a script at an arbitrary time without an
// engine. Rebuild-and-replay keeps it deterministic; no audio is involved.
func RenderAt(script string, atMs float64) ([]render.Op, *scene.Scene, error) {
	sc, err := scene.Build(script)
	if err != nil {
		return nil, nil, err
	}
	atMs = math.Max(0, math.Min(atMs, sc.DurationMs))

	bg := sc.Background
	var overlays []render.Overlay
	evs := sortedEvents(sc)
	for _, ev := range evs {
		if ev.TimeMs > atMs {
			break
		}
		switch ev.Kind {
		case scene.EventBackground:
			bg = ev.Color
		case scene.EventAnimate:
			a := ev.Anim
			raw := 1.0
			if a.DurationMs > 0 {
				raw = math.Min((atMs-ev.TimeMs)/a.DurationMs, 1)
			}
			t := a.Ease.Apply(raw)
			if a.Sprite {
				if ent, ok := sc.Entities[a.TargetID]; ok {
					ent.X = lerp(a.From[0], a.To[0], t)
					ent.Y = lerp(a.From[1], a.To[1], t)
					ent.Scale = lerp(a.From[2], a.To[2], t)
				}
			} else if raw < 1 {
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
		}
	}

	ops := render.BuildFrame(sc, render.FrameOpts{
		TSec:       atMs / 1000,
		Background: bg,
		Overlays:   overlays,
	})
	return ops, sc, nil
}
