// Package gui is the windowed scene player. Frames rasterize on the CPU and
// upload to a single streaming texture each tick.
package gui

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/shapesound/shapesound/internal/asset"
	"github.com/shapesound/shapesound/internal/engine"
	"github.com/shapesound/shapesound/internal/render"
)

var (
	colText    = rl.NewColor(220, 220, 220, 255)
	colTextDim = rl.NewColor(120, 120, 120, 255)
	colPaused  = rl.NewColor(255, 216, 74, 255)
	colError   = rl.NewColor(255, 96, 96, 255)
)

const (
	hudPad     = 12
	seekStepMs = 1000
	targetFPS  = 60
)

// App owns the window, the rasterizer, and the streaming texture.
type App struct {
	eng     *engine.Engine
	painter *render.Painter
	tex     rl.Texture2D
	pixels  []color.RGBA
	buf     *image.RGBA
	name    string
	width   int
	height  int
	painted bool
	seekErr string
}

// NewApp opens the window sized to the scene canvas. Call Close when done.
func NewApp(eng *engine.Engine, store *asset.Store, name string) *App {
	sc := eng.Scene()
	w, h := sc.Width, sc.Height

	rl.InitWindow(int32(w), int32(h+40), "shapesound")
	rl.SetTargetFPS(targetFPS)
	rl.SetExitKey(0)

	a := &App{
		eng:     eng,
		painter: render.NewPainter(w, h, store),
		pixels:  make([]color.RGBA, w*h),
		buf:     image.NewRGBA(image.Rect(0, 0, w, h)),
		name:    name,
		width:   w,
		height:  h,
	}

	img := rl.GenImageColor(w, h, rl.Black)
	a.tex = rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	return a
}

func (a *App) Close() {
	rl.UnloadTexture(a.tex)
	rl.CloseWindow()
}

// RunLoop blocks until the window closes or Q is pressed.
func (a *App) RunLoop() {
	for !rl.WindowShouldClose() {
		if a.update() {
			return
		}
		a.draw()
	}
}

// update advances one tick and returns true on quit.
func (a *App) update() bool {
	if rl.IsKeyPressed(rl.KeyQ) || rl.IsKeyPressed(rl.KeyEscape) {
		return true
	}
	if rl.IsKeyPressed(rl.KeySpace) || rl.IsKeyPressed(rl.KeyP) {
		a.eng.TogglePause()
	}
	if rl.IsKeyPressed(rl.KeyLeft) {
		a.seekTo(a.eng.ElapsedMs() - seekStepMs)
	}
	if rl.IsKeyPressed(rl.KeyRight) {
		a.seekTo(a.eng.ElapsedMs() + seekStepMs)
	}
	if rl.IsKeyPressed(rl.KeyR) {
		a.seekTo(0)
	}

	// a static scene paints once, then only the HUD redraws
	if a.painted && a.eng.Idle() {
		return false
	}

	ops := a.eng.Tick()
	if err := a.painter.Paint(ops); err != nil {
		return false
	}
	a.uploadFrame()
	a.painted = true
	return false
}

// seekTo scrubs to an absolute time and resumes playback. A failed rebuild
// lands in the HUD rather than being dropped.
func (a *App) seekTo(ms float64) {
	if err := a.eng.SeekMs(ms); err != nil {
		a.seekErr = err.Error()
		return
	}
	a.seekErr = ""
	a.eng.Resume()
}

// uploadFrame copies the rasterized frame into the streaming texture.
func (a *App) uploadFrame() {
	draw.Draw(a.buf, a.buf.Bounds(), a.painter.Image(), image.Point{}, draw.Src)
	for i := range a.pixels {
		a.pixels[i] = color.RGBA{
			R: a.buf.Pix[i*4],
			G: a.buf.Pix[i*4+1],
			B: a.buf.Pix[i*4+2],
			A: a.buf.Pix[i*4+3],
		}
	}
	rl.UpdateTexture(a.tex, a.pixels)
}

func (a *App) draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)
	rl.DrawTexture(a.tex, 0, 0, rl.White)
	a.drawHUD()
	rl.EndDrawing()
}

func (a *App) drawHUD() {
	y := int32(a.height + hudPad)

	status := "playing"
	col := colText
	if a.eng.Paused() {
		status = "paused"
		col = colPaused
	}
	label := fmt.Sprintf("%s  %s  %.1fs / %.1fs",
		a.name, status, a.eng.ElapsedMs()/1000, a.eng.DurationMs()/1000)
	rl.DrawText(label, hudPad, y, 16, col)

	if a.seekErr != "" {
		rl.DrawText("seek failed: "+a.seekErr, hudPad, y+18, 10, colError)
	}

	hint := "[SPACE] PAUSE  [LEFT/RIGHT] SEEK  [R] RESTART  [Q] QUIT"
	hw := rl.MeasureText(hint, 10)
	rl.DrawText(hint, int32(a.width)-hw-hudPad, y+4, 10, colTextDim)
}

// Run plays a scene in a window and blocks until it closes.
func Run(eng *engine.Engine, store *asset.Store, name string) {
	app := NewApp(eng, store, name)
	defer app.Close()
	app.RunLoop()
}
