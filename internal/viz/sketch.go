package viz

import (
	"math"

	"github.com/shapesound/shapesound/internal/render"
)

// Sketch projects a display list onto a braille canvas sized cols by rows
// character cells and returns it as a string. Shapes become outlines; image
// and sheet ops become placeholder boxes sized like the painter's fallback.
func Sketch(ops []render.Op, sceneW, sceneH, cols, rows int) string {
	c := NewCanvas(cols, rows)
	if sceneW <= 0 || sceneH <= 0 {
		return c.String()
	}
	kx := float64(c.PixelWidth()) / float64(sceneW)
	ky := float64(c.PixelHeight()) / float64(sceneH)

	for _, op := range ops {
		sketchOp(c, op, kx, ky)
	}
	return c.String()
}

func sketchOp(c *Canvas, op render.Op, kx, ky float64) {
	switch op.Kind {
	case render.OpFill, render.OpNoise:
		// Backgrounds carry no outline.
	case render.OpCircle:
		c.DrawCircle(op.X*kx, op.Y*ky, op.R*math.Min(kx, ky))
	case render.OpRect:
		c.DrawRect(op.X*kx, op.Y*ky, op.W*kx, op.H*ky)
	case render.OpLine:
		c.DrawLine(int(op.X*kx), int(op.Y*ky), int(op.X2*kx), int(op.Y2*ky))
	case render.OpStar:
		c.DrawPolygon(scalePts(starPts(op), kx, ky))
	case render.OpPoly:
		c.DrawPolygon(scalePts(polyPts(op), kx, ky))
	case render.OpBlob:
		c.DrawPolygon(scalePts(blobPts(op), kx, ky))
	case render.OpTurtle:
		s := op.Scale
		if s == 0 {
			s = 1
		}
		c.DrawCircle(op.X*kx, op.Y*ky, 40*s*math.Min(kx, ky))
	case render.OpImage, render.OpSheet:
		s := op.Scale
		if s == 0 {
			s = 1
		}
		w := 60 * s
		c.DrawRect((op.X-w/2)*kx, (op.Y-w/2)*ky, w*kx, w*ky)
	}
}

func starPts(op render.Op) [][2]float64 {
	rot := op.RotDeg * math.Pi / 180
	pts := make([][2]float64, 0, op.Points*2)
	for i := 0; i < op.Points*2; i++ {
		r := op.ROuter
		if i%2 == 1 {
			r = op.RInner
		}
		a := rot + float64(i)*math.Pi/float64(op.Points)
		pts = append(pts, [2]float64{op.X + math.Cos(a)*r, op.Y + math.Sin(a)*r})
	}
	return pts
}

func polyPts(op render.Op) [][2]float64 {
	rot := op.RotDeg * math.Pi / 180
	pts := make([][2]float64, 0, op.Sides)
	for i := 0; i < op.Sides; i++ {
		a := rot + float64(i)*2*math.Pi/float64(op.Sides)
		pts = append(pts, [2]float64{op.X + math.Cos(a)*op.R, op.Y + math.Sin(a)*op.R})
	}
	return pts
}

func blobPts(op render.Op) [][2]float64 {
	n := op.Points
	if n <= 0 {
		n = 18
	}
	pts := make([][2]float64, 0, n)
	for i := 0; i < n; i++ {
		a := float64(i) / float64(n) * 2 * math.Pi
		j := math.Sin(a*3+op.T)*0.5 + math.Sin(a*5-op.T*1.3)*0.5
		rr := op.R + j*op.Jitter
		pts = append(pts, [2]float64{op.X + math.Cos(a)*rr, op.Y + math.Sin(a)*rr})
	}
	return pts
}

func scalePts(pts [][2]float64, kx, ky float64) [][2]float64 {
	for i := range pts {
		pts[i][0] *= kx
		pts[i][1] *= ky
	}
	return pts
}
