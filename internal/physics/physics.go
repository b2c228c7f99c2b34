// Package physics advances entity motion: gravity integration, velocity
// damping, canvas-bounds reflection, vector fields, and the declarative
// behaviors (field-follow and orbit) that ride on top of it.
package physics

import (
	"math"

	"github.com/shapesound/shapesound/internal/scene"
)

// Step integrates one physics step of dtSec seconds over every
// physics-driven entity. No-op while scene physics is disabled.
func Step(sc *scene.Scene, dtSec float64) {
	if !sc.Physics.Enabled {
		return
	}
	w := float64(sc.Width)
	h := float64(sc.Height)
	for _, e := range sc.Entities {
		if !e.Physics {
			continue
		}
		ax := e.AX + sc.Physics.GravityX
		ay := e.AY + sc.Physics.GravityY

		e.VX += ax * dtSec
		e.VY += ay * dtSec

		e.VX *= sc.Physics.Damping
		e.VY *= sc.Physics.Damping

		e.X += e.VX * dtSec
		e.Y += e.VY * dtSec

		if sc.Physics.Bounds == scene.BoundsCanvas {
			pad := 10 * scaleOr1(e.Scale)
			if e.X < pad {
				e.X, e.VX = pad, -e.VX
			}
			if e.Y < pad {
				e.Y, e.VY = pad, -e.VY
			}
			if e.X > w-pad {
				e.X, e.VX = w-pad, -e.VX
			}
			if e.Y > h-pad {
				e.Y, e.VY = h-pad, -e.VY
			}
		}
	}
}

func scaleOr1(s float64) float64 {
	if s == 0 {
		return 1
	}
	return s
}

// FieldVelocity samples a vector field at (x, y) and scene time t seconds.
// A nil field reads as still air.
func FieldVelocity(f *scene.Field, x, y, t float64) (vx, vy float64) {
	if f == nil {
		return 0, 0
	}
	switch f.Kind {
	case scene.FieldNoise:
		ang := math.Sin(x*f.Scale+t*f.Speed)*1.7 +
			math.Cos(y*f.Scale-t*f.Speed*1.3)*1.3
		return math.Cos(ang) * f.Strength, math.Sin(ang) * f.Strength
	case scene.FieldAttractor:
		dx := f.X - x
		dy := f.Y - y
		d := math.Hypot(dx, dy) + 1e-3
		k := f.Strength / math.Pow(d, 1+f.Falloff)
		return dx * k, dy * k
	}
	return 0, 0
}

// ApplyBehaviors runs one behavior step for every drawable and entity that
// carries one. tSec is scene time, dtSec the frame delta.
func ApplyBehaviors(sc *scene.Scene, tSec, dtSec float64) {
	for _, d := range sc.Drawables {
		if d.Behavior != nil {
			applyBehavior(sc, d.Behavior, &d.X, &d.Y, tSec, dtSec)
		}
	}
	for _, e := range sc.Entities {
		if e.Behavior != nil {
			applyBehavior(sc, e.Behavior, &e.X, &e.Y, tSec, dtSec)
		}
	}
}

func applyBehavior(sc *scene.Scene, b *scene.Behavior, x, y *float64, tSec, dtSec float64) {
	switch b.Mode {
	case scene.BehaviorField:
		vx, vy := FieldVelocity(sc.Fields[b.FieldID], *x, *y, tSec)
		mix := clamp01(b.Mix)
		*x += vx * mix * dtSec
		*y += vy * mix * dtSec
	case scene.BehaviorOrbit:
		b.Theta += b.Speed * dtSec
		*x = b.CX + math.Cos(b.Theta)*b.Radius
		*y = b.CY + math.Sin(b.Theta)*b.Radius
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// WiggleOffset is the paint-time positional offset at scene time tSec.
// Wiggle never touches the stored position.
func WiggleOffset(w *scene.Wiggle, tSec float64) (ox, oy float64) {
	if w == nil {
		return 0, 0
	}
	freq := w.Freq
	if freq == 0 {
		freq = 1
	}
	ox = math.Sin(tSec*2*math.Pi*freq) * w.AmpX
	oy = math.Cos(tSec*2*math.Pi*freq) * w.AmpY
	return ox, oy
}

// AdvanceFrames steps spritesheet frame counters for playing entities.
// Entity fps wins over the sheet's declared fps; entities bound to an
// undeclared sheet stay on frame zero.
func AdvanceFrames(sc *scene.Scene, dtSec float64) {
	for _, e := range sc.Entities {
		if e.Kind != scene.EntitySheet || !e.Playing {
			continue
		}
		decl, ok := sc.SheetDecl(e.Key)
		if !ok {
			continue
		}
		fps := e.FPS
		if fps == 0 {
			fps = decl.FPS
		}
		if fps == 0 {
			fps = 8
		}
		e.Frame += fps * dtSec
	}
}
