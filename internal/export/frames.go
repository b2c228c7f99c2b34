// Package export renders scenes to PNG frame sequences and JSON timeline
// dumps on disk.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shapesound/shapesound/internal/asset"
	"github.com/shapesound/shapesound/internal/engine"
	"github.com/shapesound/shapesound/internal/render"
	"github.com/shapesound/shapesound/internal/scene"
)

// Exporter writes frame sequences under a base directory, one run directory
// per export with a metadata sidecar.
type Exporter struct {
	baseDir string
}

func New(baseDir string) *Exporter {
	return &Exporter{baseDir: baseDir}
}

func (e *Exporter) Init() error {
	return os.MkdirAll(e.baseDir, 0755)
}

// Metadata describes one exported frame sequence.
type Metadata struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Timestamp  time.Time `json:"timestamp"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Seed       uint32    `json:"seed"`
	TempoBPM   float64   `json:"tempo_bpm"`
	DurationMs float64   `json:"duration_ms"`
	FrameRate  int       `json:"frame_rate"`
	Frames     int       `json:"frames"`
	Warnings   []string  `json:"warnings,omitempty"`
}

// SaveFrames renders the script at the given frame rate into a fresh run
// directory and returns the run id. Frames render concurrently; each one is
// an independent still, so ordering never matters.
func (e *Exporter) SaveFrames(ctx context.Context, name, script string, fps int, store *asset.Store) (string, error) {
	sc, err := scene.Build(script)
	if err != nil {
		return "", err
	}
	if fps <= 0 {
		return "", fmt.Errorf("frame rate must be positive, got %d", fps)
	}

	runID := fmt.Sprintf("%s_%d", name, time.Now().Unix())
	runDir := filepath.Join(e.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	frames := int(sc.DurationMs/1000*float64(fps)) + 1

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := 0; i < frames; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			atMs := float64(i) * 1000 / float64(fps)
			ops, fsc, err := engine.RenderAt(script, atMs)
			if err != nil {
				return err
			}
			p := render.NewPainter(fsc.Width, fsc.Height, store)
			if err := p.Paint(ops); err != nil {
				return fmt.Errorf("frame %d: %w", i, err)
			}
			return p.SavePNG(filepath.Join(runDir, fmt.Sprintf("frame_%05d.png", i)))
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	meta := Metadata{
		ID: runID, Name: name, Timestamp: time.Now(),
		Width: sc.Width, Height: sc.Height,
		Seed: sc.Seed, TempoBPM: sc.TempoBPM,
		DurationMs: sc.DurationMs, FrameRate: fps, Frames: frames,
		Warnings: sc.Warnings,
	}
	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return encodeJSON(f, v)
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
