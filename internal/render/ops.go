// Package render turns a scene into frames. Frame construction is split in
// two: BuildFrame produces a flat display list of resolved draw ops, and the
// Painter rasterizes a display list onto a CPU canvas. Keeping the list pure
// makes paint order and the one-paint-per-shape rule testable without pixels.
package render

import (
	"github.com/shapesound/shapesound/internal/physics"
	"github.com/shapesound/shapesound/internal/scene"
)

// OpKind tags a display-list operation.
type OpKind int

const (
	OpFill OpKind = iota
	OpNoise
	OpCircle
	OpRect
	OpLine
	OpStar
	OpPoly
	OpBlob
	OpTurtle
	OpImage
	OpSheet
)

// Op is one resolved draw operation. Geometry is final: wiggle offsets and
// entity positions are already folded in. Fields are read per Kind.
type Op struct {
	Kind OpKind

	ID  string
	Key string

	X, Y   float64
	X2, Y2 float64
	R      float64
	W, H   float64

	ROuter, RInner float64
	Points, Sides  int
	RotDeg         float64
	LineWidth      float64

	Jitter float64
	T      float64 // blob local time, or noise phase

	Color  string
	Color2 string
	Scale  float64

	FlipX, FlipY bool
	Frame        int

	Animated bool
}

// Overlay is an in-flight shape animation sampled at the current frame.
// Overlays paint above everything and never touch retained state.
type Overlay struct {
	Shape scene.ShapeKind
	X, Y  float64
	Size  float64
	Color string
}

// FrameOpts carries the per-frame inputs that live outside the scene.
type FrameOpts struct {
	TSec       float64
	Background string // current background; empty means the scene default
	NoisePhase float64
	Live       bool // animated frame; still renders skip wiggle and cell noise
	Overlays   []Overlay
}

// BuildFrame assembles the display list for one frame: background first,
// retained shapes in z order, then entities in z order, then animation
// overlays. Shapes mirrored by a live entity are skipped here and painted
// exactly once through the entity.
func BuildFrame(sc *scene.Scene, o FrameOpts) []Op {
	ops := make([]Op, 0, 1+len(sc.Drawables)+len(sc.Entities)+len(o.Overlays))

	if n := sc.BGNoise; n != nil {
		ops = append(ops, Op{
			Kind: OpNoise, Color: n.Color1, Color2: n.Color2,
			Scale: n.Scale, T: o.NoisePhase, Animated: o.Live,
		})
	} else {
		bg := o.Background
		if bg == "" {
			bg = sc.Background
		}
		ops = append(ops, Op{Kind: OpFill, Color: bg})
	}

	for _, d := range sc.SortedDrawables() {
		if mirrored(sc, d) {
			continue
		}
		var ox, oy float64
		if o.Live {
			ox, oy = physics.WiggleOffset(d.Wiggle, o.TSec)
		}
		ops = append(ops, drawableOp(d, d.X+ox, d.Y+oy, o.TSec))
	}

	for _, e := range sc.SortedEntities() {
		var ox, oy float64
		if o.Live {
			ox, oy = physics.WiggleOffset(e.Wiggle, o.TSec)
		}
		op, ok := entityOp(sc, e, e.X+ox, e.Y+oy, o.TSec)
		if ok {
			ops = append(ops, op)
		}
	}

	for _, ov := range o.Overlays {
		ops = append(ops, overlayOp(ov))
	}
	return ops
}

func mirrored(sc *scene.Scene, d *scene.Drawable) bool {
	if d.ID == "" {
		return false
	}
	e, ok := sc.Entities[d.ID]
	return ok && e.Kind == scene.EntityShape
}

func drawableOp(d *scene.Drawable, x, y, tSec float64) Op {
	op := Op{ID: d.ID, X: x, Y: y, Color: d.Color}
	switch d.Kind {
	case scene.ShapeCircle:
		op.Kind = OpCircle
		op.R = d.R
	case scene.ShapeRect:
		op.Kind = OpRect
		op.W, op.H = d.W, d.H
	case scene.ShapeLine:
		op.Kind = OpLine
		op.X2, op.Y2 = d.X2+x-d.X, d.Y2+y-d.Y
		op.LineWidth = d.Width
		if op.LineWidth == 0 {
			op.LineWidth = 1
		}
	case scene.ShapeStar:
		op.Kind = OpStar
		op.ROuter, op.RInner = d.ROuter, d.RInner
		op.Points = d.Points
		op.RotDeg = d.Rot
	case scene.ShapePoly:
		op.Kind = OpPoly
		op.R = d.R
		op.Sides = d.Sides
		op.RotDeg = d.Rot
	case scene.ShapeBlob:
		op.Kind = OpBlob
		op.R = d.R
		op.Points = d.Points
		op.Jitter = d.Jitter
		if op.Jitter == 0 {
			op.Jitter = d.R * 0.25
		}
		op.T = d.Phase + tSec*d.Speed
	}
	return op
}

func entityOp(sc *scene.Scene, e *scene.Entity, x, y, tSec float64) (Op, bool) {
	switch e.Kind {
	case scene.EntityTurtle:
		return Op{Kind: OpTurtle, ID: e.ID, X: x, Y: y, Scale: scaleOr1(e.Scale), Color: e.Color}, true
	case scene.EntityShape:
		ref := sc.DrawableAt(e.Shape)
		if ref == nil {
			return Op{}, false
		}
		// Geometry stays on the drawable; only position follows the entity.
		return drawableOp(ref, x, y, tSec), true
	case scene.EntityImage:
		return Op{
			Kind: OpImage, ID: e.ID, Key: e.Key, X: x, Y: y,
			Scale: scaleOr1(e.Scale), RotDeg: e.Rot, FlipX: e.FlipX, FlipY: e.FlipY,
		}, true
	case scene.EntitySheet:
		return Op{
			Kind: OpSheet, ID: e.ID, Key: e.Key, X: x, Y: y,
			Scale: scaleOr1(e.Scale), RotDeg: e.Rot, FlipX: e.FlipX, FlipY: e.FlipY,
			Frame: int(e.Frame),
		}, true
	}
	return Op{}, false
}

func overlayOp(ov Overlay) Op {
	switch ov.Shape {
	case scene.ShapeRect:
		return Op{Kind: OpRect, X: ov.X, Y: ov.Y, W: ov.Size, H: ov.Size, Color: colorOr(ov.Color, "#00FFFF")}
	default:
		return Op{Kind: OpCircle, X: ov.X, Y: ov.Y, R: ov.Size, Color: colorOr(ov.Color, "#FF00FF")}
	}
}

func colorOr(c, def string) string {
	if c == "" {
		return def
	}
	return c
}

func scaleOr1(s float64) float64 {
	if s == 0 {
		return 1
	}
	return s
}
