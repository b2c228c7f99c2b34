package export

import (
	"os"

	"github.com/shapesound/shapesound/internal/scene"
)

// TimelineEvent is one scheduled event in exportable form.
type TimelineEvent struct {
	TimeMs float64  `json:"time_ms"`
	Kind   string   `json:"kind"`
	Color  string   `json:"color,omitempty"`
	Entity string   `json:"entity,omitempty"`
	Freq   float64  `json:"freq,omitempty"`
	DurSec float64  `json:"dur_sec,omitempty"`
	Note   string   `json:"note,omitempty"`
	Notes  []string `json:"notes,omitempty"`
}

// TimelineData is the JSON shape of a scene's schedule.
type TimelineData struct {
	Width      int             `json:"width"`
	Height     int             `json:"height"`
	Seed       uint32          `json:"seed"`
	TempoBPM   float64         `json:"tempo_bpm"`
	DurationMs float64         `json:"duration_ms"`
	Drawables  int             `json:"drawables"`
	Entities   int             `json:"entities"`
	Events     []TimelineEvent `json:"events"`
	Warnings   []string        `json:"warnings,omitempty"`
}

var eventKindNames = map[scene.EventKind]string{
	scene.EventBackground: "background",
	scene.EventDraw:       "draw",
	scene.EventSprite:     "sprite",
	scene.EventTone:       "tone",
	scene.EventNote:       "note",
	scene.EventSequence:   "sequence",
	scene.EventAnimate:    "animate",
}

// Timeline flattens a scene's schedule for inspection tools.
func Timeline(sc *scene.Scene) TimelineData {
	data := TimelineData{
		Width: sc.Width, Height: sc.Height,
		Seed: sc.Seed, TempoBPM: sc.TempoBPM,
		DurationMs: sc.DurationMs,
		Drawables:  len(sc.Drawables),
		Entities:   len(sc.Entities),
		Warnings:   sc.Warnings,
	}
	for _, ev := range sc.Events {
		data.Events = append(data.Events, TimelineEvent{
			TimeMs: ev.TimeMs,
			Kind:   eventKindNames[ev.Kind],
			Color:  ev.Color,
			Entity: ev.EntityID,
			Freq:   ev.Freq,
			DurSec: ev.DurSec,
			Note:   ev.Note,
			Notes:  ev.Notes,
		})
	}
	return data
}

// TimelineJSON writes a scene's schedule to a file.
func TimelineJSON(path string, sc *scene.Scene) error {
	return writeJSON(path, Timeline(sc))
}

// TimelineJSONStdout writes a scene's schedule to standard output.
func TimelineJSONStdout(sc *scene.Scene) error {
	data := Timeline(sc)
	return encodeJSON(os.Stdout, data)
}
