// Package asset resolves image and spritesheet declarations into decoded
// pixel buffers. Loading is concurrent and failure-tolerant: an asset that
// cannot be fetched is recorded and the renderer falls back to a placeholder.
package asset

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gogpu/gg"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/shapesound/shapesound/internal/scene"
)

// maxDim caps decoded image dimensions; larger sources are downscaled.
const maxDim = 2048

const fetchTimeout = 15 * time.Second

// Sheet is a decoded spritesheet with its frame grid.
type Sheet struct {
	Img    *gg.ImageBuf
	FrameW int
	FrameH int
	Frames int
	FPS    float64
}

// Store holds decoded assets keyed by declaration key. Safe for concurrent
// use; the loader writes while the render loop reads.
type Store struct {
	mu     sync.RWMutex
	images map[string]*gg.ImageBuf
	sheets map[string]Sheet
	errs   map[string]error
}

func NewStore() *Store {
	return &Store{
		images: map[string]*gg.ImageBuf{},
		sheets: map[string]Sheet{},
		errs:   map[string]error{},
	}
}

// Image returns a decoded standalone image.
func (s *Store) Image(key string) (*gg.ImageBuf, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.images[key]
	return img, ok
}

// Sheet returns a decoded spritesheet.
func (s *Store) Sheet(key string) (Sheet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sh, ok := s.sheets[key]
	return sh, ok
}

// AddImage registers a decoded image directly. Used by tests and by callers
// that synthesize frames.
func (s *Store) AddImage(key string, img *gg.ImageBuf) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[key] = img
}

// AddSheet registers a decoded sheet directly.
func (s *Store) AddSheet(key string, sh Sheet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheets[key] = sh
}

// Errors returns per-key load failures observed so far.
func (s *Store) Errors() map[string]error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]error, len(s.errs))
	for k, v := range s.errs {
		out[k] = v
	}
	return out
}

// Load fetches and decodes every declaration concurrently and blocks until
// all are settled. Individual failures are recorded, not returned; the only
// error out of Load is context cancellation.
func (s *Store) Load(ctx context.Context, decls []scene.AssetDecl) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, d := range decls {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := fetch(ctx, d.Src)
			if err != nil {
				s.mu.Lock()
				s.errs[d.Key] = err
				s.mu.Unlock()
				return nil
			}
			buf := gg.ImageBufFromImage(img)
			s.mu.Lock()
			switch d.Kind {
			case scene.AssetImage:
				s.images[d.Key] = buf
			case scene.AssetSheet:
				s.sheets[d.Key] = Sheet{
					Img: buf, FrameW: d.FrameW, FrameH: d.FrameH,
					Frames: d.Frames, FPS: d.FPS,
				}
			}
			s.mu.Unlock()
			return nil
		})
	}
	return g.Wait()
}

func fetch(ctx context.Context, src string) (image.Image, error) {
	switch {
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return fetchHTTP(ctx, src)
	case strings.HasPrefix(src, "file:"):
		return fetchFile(strings.TrimPrefix(src, "file:"))
	default:
		return fetchFile(src)
	}
}

func fetchHTTP(ctx context.Context, url string) (image.Image, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	return clampSize(img), nil
}

func fetchFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return clampSize(img), nil
}

// clampSize downscales oversized sources, preserving aspect ratio.
func clampSize(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}
	scale := float64(maxDim) / float64(w)
	if h > w {
		scale = float64(maxDim) / float64(h)
	}
	dw := int(float64(w) * scale)
	dh := int(float64(h) * scale)
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
