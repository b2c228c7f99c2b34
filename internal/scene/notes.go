package scene

// noteFreqs maps note names to frequencies in Hz (equal temperament, A4=440).
var noteFreqs = map[string]float64{
	"C3": 130.81, "D3": 146.83, "E3": 164.81, "F3": 174.61, "G3": 196.00, "A3": 220.00, "B3": 246.94,
	"C4": 261.63, "D4": 293.66, "E4": 329.63, "F4": 349.23,
	"G4": 392.00, "A4": 440.00, "B4": 493.88,
	"C5": 523.25, "D5": 587.33, "E5": 659.25,
	"F5": 698.46, "G5": 783.99, "A5": 880.00, "B5": 987.77,
}

// NoteFreq returns the frequency of a note name, or false if unknown.
func NoteFreq(name string) (float64, bool) {
	f, ok := noteFreqs[name]
	return f, ok
}
