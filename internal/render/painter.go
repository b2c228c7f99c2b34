package render

import (
	"image"
	"io"
	"math"
	"strings"

	"github.com/gogpu/gg"

	"github.com/shapesound/shapesound/internal/asset"
)

// Painter rasterizes display lists onto a CPU canvas. One painter owns one
// canvas and is reused frame to frame.
type Painter struct {
	dc     *gg.Context
	assets *asset.Store
}

// NewPainter creates a painter with a w by h canvas. The asset store may be
// nil; image ops then fall back to placeholders.
func NewPainter(w, h int, store *asset.Store) *Painter {
	return &Painter{dc: gg.NewContext(w, h), assets: store}
}

// Paint draws one display list, replacing the previous frame.
func (p *Painter) Paint(ops []Op) error {
	for _, op := range ops {
		if err := p.paintOp(op); err != nil {
			return err
		}
	}
	return nil
}

// Image returns the current frame.
func (p *Painter) Image() image.Image {
	return p.dc.Image()
}

// EncodePNG writes the current frame as PNG.
func (p *Painter) EncodePNG(w io.Writer) error {
	return p.dc.EncodePNG(w)
}

// SavePNG writes the current frame to a file.
func (p *Painter) SavePNG(path string) error {
	return p.dc.SavePNG(path)
}

func (p *Painter) paintOp(op Op) error {
	switch op.Kind {
	case OpFill:
		p.dc.SetHexColor(op.Color)
		p.dc.Clear()
		return nil
	case OpNoise:
		return p.paintNoise(op)
	case OpCircle:
		p.dc.SetHexColor(op.Color)
		p.dc.DrawCircle(op.X, op.Y, op.R)
		return p.dc.Fill()
	case OpRect:
		p.dc.SetHexColor(op.Color)
		p.dc.DrawRectangle(op.X, op.Y, op.W, op.H)
		return p.dc.Fill()
	case OpLine:
		p.dc.SetHexColor(op.Color)
		p.dc.SetLineWidth(op.LineWidth)
		p.dc.DrawLine(op.X, op.Y, op.X2, op.Y2)
		return p.dc.Stroke()
	case OpStar:
		return p.paintStar(op)
	case OpPoly:
		return p.paintPoly(op)
	case OpBlob:
		return p.paintBlob(op)
	case OpTurtle:
		return p.paintTurtle(op.X, op.Y, op.Scale, op.Color)
	case OpImage:
		return p.paintImage(op)
	case OpSheet:
		return p.paintSheet(op)
	}
	return nil
}

func (p *Painter) paintNoise(op Op) error {
	w := float64(p.dc.Width())
	h := float64(p.dc.Height())

	gx, gy := w, h
	if op.Animated {
		gx = w * (0.6 + 0.4*math.Sin(op.T*0.7))
		gy = h * (0.6 + 0.4*math.Cos(op.T*0.9))
	}
	grad := gg.NewLinearGradientBrush(0, 0, gx, gy)
	grad.AddColorStop(0, gg.Hex(op.Color))
	grad.AddColorStop(1, gg.Hex(op.Color2))
	p.dc.SetFillBrush(grad)
	p.dc.DrawRectangle(0, 0, w, h)
	if err := p.dc.Fill(); err != nil {
		return err
	}
	if !op.Animated {
		return nil
	}

	cells := int(60 * op.Scale)
	if cells <= 0 {
		return nil
	}
	cw := w / float64(cells)
	ch := h / float64(cells)
	for i := 0; i < cells; i++ {
		for j := 0; j < cells; j++ {
			n := 0.5 + 0.5*math.Sin((float64(i)*1.7+float64(j)*2.3)*0.35+op.T*2.0)
			p.dc.SetRGBA(1, 1, 1, 0.06*n)
			p.dc.DrawRectangle(float64(i)*cw, float64(j)*ch, cw, ch)
			if err := p.dc.Fill(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Painter) paintStar(op Op) error {
	rot := op.RotDeg * math.Pi / 180
	for i := 0; i < op.Points*2; i++ {
		r := op.ROuter
		if i%2 == 1 {
			r = op.RInner
		}
		a := rot + float64(i)*math.Pi/float64(op.Points)
		x := op.X + math.Cos(a)*r
		y := op.Y + math.Sin(a)*r
		if i == 0 {
			p.dc.MoveTo(x, y)
		} else {
			p.dc.LineTo(x, y)
		}
	}
	p.dc.ClosePath()
	p.dc.SetHexColor(op.Color)
	return p.dc.Fill()
}

func (p *Painter) paintPoly(op Op) error {
	rot := op.RotDeg * math.Pi / 180
	for i := 0; i < op.Sides; i++ {
		a := rot + float64(i)*2*math.Pi/float64(op.Sides)
		x := op.X + math.Cos(a)*op.R
		y := op.Y + math.Sin(a)*op.R
		if i == 0 {
			p.dc.MoveTo(x, y)
		} else {
			p.dc.LineTo(x, y)
		}
	}
	p.dc.ClosePath()
	p.dc.SetHexColor(op.Color)
	return p.dc.Fill()
}

func (p *Painter) paintBlob(op Op) error {
	n := op.Points
	if n <= 0 {
		n = 18
	}
	for i := 0; i < n; i++ {
		a := float64(i) / float64(n) * 2 * math.Pi
		j := math.Sin(a*3+op.T)*0.5 + math.Sin(a*5-op.T*1.3)*0.5
		rr := op.R + j*op.Jitter
		x := op.X + math.Cos(a)*rr
		y := op.Y + math.Sin(a)*rr
		if i == 0 {
			p.dc.MoveTo(x, y)
		} else {
			p.dc.LineTo(x, y)
		}
	}
	p.dc.ClosePath()
	p.dc.SetHexColor(op.Color)
	return p.dc.Fill()
}

// paintTurtle builds the procedural turtle from primitives: shell, belly,
// head, eye, four legs, and a tail.
func (p *Painter) paintTurtle(x, y, s float64, shell string) error {
	if shell == "" {
		shell = "#228B22"
	}
	p.dc.SetHexColor(shell)
	p.dc.DrawCircle(x, y, 40*s)
	if err := p.dc.Fill(); err != nil {
		return err
	}

	p.dc.SetHexColor("#654321")
	p.dc.DrawEllipse(x, y+5*s, 28*s, 20*s)
	if err := p.dc.Fill(); err != nil {
		return err
	}

	p.dc.SetHexColor(shell)
	p.dc.DrawRectangle(x+32*s, y-12*s, 18*s, 18*s)
	if err := p.dc.Fill(); err != nil {
		return err
	}

	p.dc.SetHexColor("#000000")
	p.dc.DrawCircle(x+46*s, y-4*s, 2.5*s)
	if err := p.dc.Fill(); err != nil {
		return err
	}

	p.dc.SetHexColor(shell)
	for _, leg := range [][2]float64{{-36, -40}, {20, -40}, {-36, 22}, {20, 22}} {
		p.dc.DrawRectangle(x+leg[0]*s, y+leg[1]*s, 14*s, 18*s)
		if err := p.dc.Fill(); err != nil {
			return err
		}
	}

	p.dc.MoveTo(x-42*s, y+6*s)
	p.dc.LineTo(x-56*s, y)
	p.dc.LineTo(x-42*s, y-6*s)
	p.dc.ClosePath()
	return p.dc.Fill()
}

func (p *Painter) paintImage(op Op) error {
	var img *gg.ImageBuf
	if p.assets != nil {
		img, _ = p.assets.Image(op.Key)
	}
	if img == nil {
		return p.paintFallback(op)
	}
	w := float64(img.Width()) * op.Scale
	h := float64(img.Height()) * op.Scale
	p.dc.Push()
	p.transformAt(op)
	p.dc.DrawImageEx(img, gg.DrawImageOptions{
		X: -w / 2, Y: -h / 2, DstWidth: w, DstHeight: h,
	})
	p.dc.Pop()
	return nil
}

func (p *Painter) paintSheet(op Op) error {
	var sh asset.Sheet
	ok := false
	if p.assets != nil {
		sh, ok = p.assets.Sheet(op.Key)
	}
	if !ok || sh.Img == nil || sh.Frames <= 0 {
		return p.paintFallback(op)
	}
	frame := op.Frame % sh.Frames
	if frame < 0 {
		frame += sh.Frames
	}
	perRow := sh.Img.Width() / sh.FrameW
	if perRow < 1 {
		perRow = 1
	}
	sx := (frame % perRow) * sh.FrameW
	sy := (frame / perRow) * sh.FrameH
	src := image.Rect(sx, sy, sx+sh.FrameW, sy+sh.FrameH)

	w := float64(sh.FrameW) * op.Scale
	h := float64(sh.FrameH) * op.Scale
	p.dc.Push()
	p.transformAt(op)
	p.dc.DrawImageEx(sh.Img, gg.DrawImageOptions{
		X: -w / 2, Y: -h / 2, DstWidth: w, DstHeight: h, SrcRect: &src,
	})
	p.dc.Pop()
	return nil
}

func (p *Painter) transformAt(op Op) {
	p.dc.Translate(op.X, op.Y)
	if op.RotDeg != 0 {
		p.dc.Rotate(op.RotDeg * math.Pi / 180)
	}
	sx, sy := 1.0, 1.0
	if op.FlipX {
		sx = -1
	}
	if op.FlipY {
		sy = -1
	}
	if sx != 1 || sy != 1 {
		p.dc.Scale(sx, sy)
	}
}

// paintFallback stands in for a missing asset: anything turtle-ish gets the
// procedural turtle, everything else a framed placeholder box.
func (p *Painter) paintFallback(op Op) error {
	if strings.Contains(strings.ToLower(op.Key), "turtle") ||
		strings.Contains(strings.ToLower(op.ID), "turtle") {
		return p.paintTurtle(op.X, op.Y, op.Scale, "")
	}
	w := 60 * op.Scale
	h := 60 * op.Scale
	p.dc.SetHexColor("#5559ff")
	p.dc.DrawRectangle(op.X-w/2, op.Y-h/2, w, h)
	if err := p.dc.Fill(); err != nil {
		return err
	}
	p.dc.SetHexColor("#111")
	p.dc.DrawRectangle(op.X-w/2+6, op.Y-h/2+6, w-12, h-12)
	return p.dc.Fill()
}
