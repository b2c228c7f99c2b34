// Package audio turns a scene's sound events into scheduled tones and plays
// them through a small additive synth. Scheduling is look-ahead based: the
// full tone list is expanded up front and a poll loop hands tones to the
// sink slightly before they are due, so playback stays glitch-free at any
// frame rate.
package audio

import (
	"sort"

	"github.com/shapesound/shapesound/internal/scene"
)

// noteSustain is the fraction of a beat a note rings for.
const noteSustain = 0.9

// Tone is one fully resolved audio event on the scene timeline.
type Tone struct {
	WhenMs float64
	Freq   float64
	DurSec float64
}

// ExpandTones flattens every tone, note, and sequence event into a sorted
// tone list. Sequences spread their notes one beat apart from the event time.
func ExpandTones(sc *scene.Scene) []Tone {
	beat := sc.BeatMs()
	var out []Tone
	for _, ev := range sc.Events {
		switch ev.Kind {
		case scene.EventTone:
			out = append(out, Tone{WhenMs: ev.TimeMs, Freq: ev.Freq, DurSec: ev.DurSec})
		case scene.EventNote:
			if f, ok := scene.NoteFreq(ev.Note); ok {
				out = append(out, Tone{WhenMs: ev.TimeMs, Freq: f, DurSec: beat * noteSustain / 1000})
			}
		case scene.EventSequence:
			for i, n := range ev.Notes {
				if f, ok := scene.NoteFreq(n); ok {
					out = append(out, Tone{
						WhenMs: ev.TimeMs + float64(i)*beat,
						Freq:   f,
						DurSec: beat * noteSustain / 1000,
					})
				}
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].WhenMs < out[j].WhenMs })
	return out
}
