package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/shapesound/shapesound/internal/engine"
)

func TestFormatTime(t *testing.T) {
	cases := []struct {
		ms   float64
		want string
	}{
		{0, "0:00"},
		{1500, "0:01"},
		{59999, "0:59"},
		{60000, "1:00"},
		{125000, "2:05"},
	}
	for _, tc := range cases {
		if got := formatTime(tc.ms); got != tc.want {
			t.Errorf("formatTime(%v) = %q, want %q", tc.ms, got, tc.want)
		}
	}
}

func TestClamp01(t *testing.T) {
	if clamp01(-0.5) != 0 || clamp01(1.5) != 1 || clamp01(0.3) != 0.3 {
		t.Error("clamp01 out of range")
	}
}

func TestViewRenders(t *testing.T) {
	eng, err := engine.New("canvas 800 600\ncircle 400 300 50\n")
	if err != nil {
		t.Fatal(err)
	}
	m := NewPlayer(eng, Options{Name: "demo", FrameRate: 30})
	m.ops = eng.Tick()

	view := m.View()
	if !strings.Contains(view, "demo") {
		t.Error("view missing scene name")
	}
	if !strings.Contains(view, "0:10") {
		t.Error("view missing duration")
	}
	if !strings.Contains(view, "q quit") {
		t.Error("view missing key help")
	}
}

func TestIdleStopsTicking(t *testing.T) {
	eng, err := engine.New("circle 10 10 5\n")
	if err != nil {
		t.Fatal(err)
	}
	m := NewPlayer(eng, Options{})

	// a scene with no entities, animations, or pending events goes idle
	// after the first frame and stops scheduling ticks
	next, cmd := m.Update(tickMsg(time.Time{}))
	if cmd != nil {
		t.Fatal("idle scene should stop the frame loop")
	}
	mm := next.(model)
	if !mm.idle {
		t.Fatal("model should be marked idle")
	}

	// transport keys restart the loop
	next, cmd = mm.Update(tea.KeyMsg{Type: tea.KeyRight})
	if cmd == nil {
		t.Fatal("seek should restart the frame loop")
	}
	if next.(model).idle {
		t.Error("seek should clear the idle flag")
	}
}

func TestSeekErrorShown(t *testing.T) {
	eng, err := engine.New("circle 10 10 5\n")
	if err != nil {
		t.Fatal(err)
	}
	m := NewPlayer(eng, Options{Name: "demo"})
	m.ops = eng.Tick()

	m.seekTo(500)
	if m.seekErr != "" {
		t.Fatalf("seekErr after valid seek = %q", m.seekErr)
	}

	m.seekErr = `line 2: unknown command "frobnicate"`
	view := m.View()
	if !strings.Contains(view, "seek failed") || !strings.Contains(view, "frobnicate") {
		t.Error("view should surface the seek error")
	}
}

func TestVolumeKeys(t *testing.T) {
	eng, err := engine.New("circle 10 10 5\n")
	if err != nil {
		t.Fatal(err)
	}
	m := NewPlayer(eng, Options{})
	if m.volume != 0.8 {
		t.Fatalf("default volume = %v", m.volume)
	}
	m.volume = 1.0
	m.volume = clamp01(m.volume + 0.05)
	if m.volume != 1.0 {
		t.Error("volume should cap at 1")
	}
}
