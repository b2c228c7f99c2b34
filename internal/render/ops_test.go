package render

import (
	"testing"

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

func kinds(ops []Op) []OpKind {
	out := make([]OpKind, len(ops))
	for i, op := range ops {
		out[i] = op.Kind
	}
	return out
}

func TestBuildFrameBackgroundFirst(t *testing.T) {
	sc := buildScene(t, "background #123456\ncircle 10 10 5\n")
	ops := BuildFrame(sc, FrameOpts{})
	if ops[0].Kind != OpFill {
		t.Fatalf("first op = %v, want fill", ops[0].Kind)
	}
	if ops[0].Color != "#123456" {
		t.Errorf("background color = %q", ops[0].Color)
	}
}

func TestBuildFrameBackgroundOverride(t *testing.T) {
	sc := buildScene(t, "background #111\n")
	ops := BuildFrame(sc, FrameOpts{Background: "#abc"})
	if ops[0].Color != "#abc" {
		t.Errorf("override background = %q, want #abc", ops[0].Color)
	}
}

func TestBuildFrameNoiseBackground(t *testing.T) {
	sc := buildScene(t, "backgroundnoise 1.2 0.15 color #0a0f1a #162035\n")
	ops := BuildFrame(sc, FrameOpts{NoisePhase: 2.5, Live: true})
	if ops[0].Kind != OpNoise {
		t.Fatalf("first op = %v, want noise", ops[0].Kind)
	}
	if ops[0].T != 2.5 || !ops[0].Animated {
		t.Errorf("noise op = %+v", ops[0])
	}
	still := BuildFrame(sc, FrameOpts{})
	if still[0].Animated {
		t.Error("still frame should not animate the noise")
	}
}

func TestBuildFrameMirroredShapePaintedOnce(t *testing.T) {
	sc := buildScene(t, "circle 100 100 20 id=c1\ncircle 50 50 10\n")
	ops := BuildFrame(sc, FrameOpts{})

	circles := 0
	for _, op := range ops {
		if op.Kind == OpCircle {
			circles++
		}
	}
	// two circles total: the anonymous one directly, the mirrored one
	// through its entity
	if circles != 2 {
		t.Fatalf("circle ops = %d, want 2 (got %v)", circles, kinds(ops))
	}
}

func TestBuildFrameMirroredUsesEntityPosition(t *testing.T) {
	sc := buildScene(t, "circle 100 100 20 id=c1\n")
	sc.Entities["c1"].X = 400
	sc.Entities["c1"].Y = 250

	ops := BuildFrame(sc, FrameOpts{})
	var got *Op
	for i := range ops {
		if ops[i].Kind == OpCircle {
			got = &ops[i]
		}
	}
	if got == nil {
		t.Fatal("no circle op")
	}
	if got.X != 400 || got.Y != 250 {
		t.Errorf("mirrored circle at (%v,%v), want entity position (400,250)", got.X, got.Y)
	}
	if got.R != 20 {
		t.Errorf("mirrored circle r = %v, geometry should stay on the drawable", got.R)
	}
}

func TestBuildFrameZOrder(t *testing.T) {
	sc := buildScene(t, "circle 0 0 1 z=5\nrect 0 0 2 2 z=1\nstar 0 0 5 2 4 z=3\n")
	ops := BuildFrame(sc, FrameOpts{})
	got := kinds(ops[1:])
	want := []OpKind{OpRect, OpStar, OpCircle}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("paint order = %v, want %v", got, want)
		}
	}
}

func TestBuildFrameEntitiesAfterDrawables(t *testing.T) {
	sc := buildScene(t, "sprite turtle x=10 y=10 scale=1\ncircle 0 0 5\n")
	ops := BuildFrame(sc, FrameOpts{})
	if ops[1].Kind != OpCircle || ops[2].Kind != OpTurtle {
		t.Errorf("order = %v, want circle then turtle", kinds(ops))
	}
}

func TestBuildFrameWiggleOnlyWhenLive(t *testing.T) {
	sc := buildScene(t, "circle 100 100 10 \nwiggle nothing 1 1 1\n")
	sc.Drawables[0].Wiggle = &scene.Wiggle{AmpX: 0, AmpY: 6, Freq: 1}

	still := BuildFrame(sc, FrameOpts{TSec: 0})
	if still[1].Y != 100 {
		t.Errorf("still frame y = %v, wiggle should not apply", still[1].Y)
	}
	live := BuildFrame(sc, FrameOpts{TSec: 0, Live: true})
	// cos(0) = 1, so the y offset is the full amplitude
	if live[1].Y != 106 {
		t.Errorf("live frame y = %v, want 106", live[1].Y)
	}
}

func TestBuildFrameBlobTime(t *testing.T) {
	sc := buildScene(t, "blob 100 100 30 12 8 speed 0.5\n")
	phase := sc.Drawables[0].Phase
	ops := BuildFrame(sc, FrameOpts{TSec: 4})
	if ops[1].Kind != OpBlob {
		t.Fatalf("op = %v, want blob", ops[1].Kind)
	}
	if ops[1].T != phase+2 {
		t.Errorf("blob t = %v, want phase %v + 2", ops[1].T, phase)
	}
}

func TestBuildFrameBlobJitterDefault(t *testing.T) {
	sc := buildScene(t, "blob 100 100 40 12 0\n")
	ops := BuildFrame(sc, FrameOpts{})
	if ops[1].Jitter != 10 {
		t.Errorf("jitter = %v, want r/4 = 10", ops[1].Jitter)
	}
}

func TestBuildFrameSheetEntity(t *testing.T) {
	sc := buildScene(t, `asset spritesheet run "s.png" frame 32x32 frames 4`+"\n"+
		"spriteimg r from spritesheet run at 60 80 scale 2\n")
	sc.Entities["r"].Frame = 2.7
	ops := BuildFrame(sc, FrameOpts{})
	op := ops[1]
	if op.Kind != OpSheet || op.Key != "run" {
		t.Fatalf("op = %+v", op)
	}
	if op.Frame != 2 {
		t.Errorf("frame = %d, want floor(2.7) = 2", op.Frame)
	}
	if op.Scale != 2 || op.X != 60 {
		t.Errorf("sheet op geometry wrong: %+v", op)
	}
}

func TestBuildFrameOverlaysLast(t *testing.T) {
	sc := buildScene(t, "circle 0 0 5\n")
	ops := BuildFrame(sc, FrameOpts{Overlays: []Overlay{
		{Shape: scene.ShapeCircle, X: 10, Y: 20, Size: 30},
		{Shape: scene.ShapeRect, X: 1, Y: 2, Size: 5, Color: "#333"},
	}})
	n := len(ops)
	if ops[n-2].Kind != OpCircle || ops[n-2].Color != "#FF00FF" {
		t.Errorf("circle overlay = %+v, want magenta default", ops[n-2])
	}
	if ops[n-1].Kind != OpRect || ops[n-1].Color != "#333" || ops[n-1].W != 5 {
		t.Errorf("rect overlay = %+v", ops[n-1])
	}
}

func TestLerpHex(t *testing.T) {
	cases := []struct {
		from, to string
		t        float64
		want     string
	}{
		{"#000000", "#ffffff", 0, "#000000"},
		{"#000000", "#ffffff", 1, "#ffffff"},
		{"#000000", "#ffffff", 0.5, "#808080"},
		{"#f00", "#00f", 0, "#ff0000"},
	}
	for _, c := range cases {
		if got := LerpHex(c.from, c.to, c.t); got != c.want {
			t.Errorf("LerpHex(%q,%q,%v) = %q, want %q", c.from, c.to, c.t, got, c.want)
		}
	}
}

func TestParseHexFallsBackToWhite(t *testing.T) {
	c := ParseHex("not-a-color")
	if c.R != 1 || c.G != 1 || c.B != 1 {
		t.Errorf("bad hex should read as white, got %+v", c)
	}
}
