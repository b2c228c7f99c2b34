package scene

import "sort"

// ShapeKind identifies a retained drawable's geometry.
type ShapeKind int

const (
	ShapeCircle ShapeKind = iota
	ShapeRect
	ShapeLine
	ShapeStar
	ShapePoly
	ShapeBlob
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeCircle:
		return "circle"
	case ShapeRect:
		return "rect"
	case ShapeLine:
		return "line"
	case ShapeStar:
		return "star"
	case ShapePoly:
		return "poly"
	case ShapeBlob:
		return "blob"
	}
	return "unknown"
}

// Wiggle is a sinusoidal positional offset applied at paint time only.
type Wiggle struct {
	AmpX float64
	AmpY float64
	Freq float64
}

// BehaviorMode selects the per-frame positional update rule.
type BehaviorMode int

const (
	BehaviorField BehaviorMode = iota
	BehaviorOrbit
)

// Behavior is a declarative per-frame update attached to a drawable or entity.
type Behavior struct {
	Mode    BehaviorMode
	FieldID string
	Mix     float64

	CX     float64
	CY     float64
	Radius float64
	Speed  float64
	Theta  float64
}

// Drawable is a persistent shape retained across frames. Geometry fields are
// interpreted per Kind; unused fields stay zero.
type Drawable struct {
	Kind ShapeKind
	ID   string
	Z    int
	Seq  int

	X, Y  float64
	R     float64
	W, H  float64
	X2    float64
	Y2    float64
	Width float64

	ROuter float64
	RInner float64
	Points int
	Sides  int

	Jitter float64
	Speed  float64
	Phase  float64
	Rot    float64

	Color    string
	Wiggle   *Wiggle
	Behavior *Behavior
}

// EntityKind is the closed set of live entity variants.
type EntityKind int

const (
	EntityTurtle EntityKind = iota
	EntityImage
	EntitySheet
	EntityShape
)

// Entity is a named, mutable, positioned live object. EntityShape entities
// hold an index into the scene's drawable arena; position and scale live on
// the entity while canonical geometry stays on the drawable.
type Entity struct {
	ID   string
	Kind EntityKind
	Z    int
	Seq  int

	X, Y  float64
	Scale float64
	Rot   float64
	FlipX bool
	FlipY bool

	Color string
	Key   string

	Frame   float64
	Playing bool
	FPS     float64

	VX, VY  float64
	AX, AY  float64
	Physics bool

	Wiggle   *Wiggle
	Behavior *Behavior

	Shape int
}

// FieldKind distinguishes vector-field flavors.
type FieldKind int

const (
	FieldNoise FieldKind = iota
	FieldAttractor
)

// Field is a named function from (position, time) to a velocity vector.
// Fields are immutable after creation; behaviors only read them.
type Field struct {
	ID       string
	Kind     FieldKind
	Scale    float64
	Speed    float64
	Strength float64
	X        float64
	Y        float64
	Falloff  float64
}

// BoundsMode controls entity collision with the canvas edges.
type BoundsMode int

const (
	BoundsNone BoundsMode = iota
	BoundsCanvas
)

// Physics holds the scene-global physics parameters.
type Physics struct {
	Enabled  bool
	GravityX float64
	GravityY float64
	Damping  float64
	Bounds   BoundsMode
}

// BGNoise describes the animated procedural background.
type BGNoise struct {
	Scale  float64
	Speed  float64
	Color1 string
	Color2 string
}

// EaseKind selects the easing transform for animations.
type EaseKind int

const (
	EaseLinear EaseKind = iota
	EaseIn
	EaseOut
	EaseInOut
)

// Apply maps normalized progress through the easing curve.
// Boundary conditions hold exactly: Apply(0) == 0 and Apply(1) == 1.
func (e EaseKind) Apply(t float64) float64 {
	switch e {
	case EaseIn:
		return t * t
	case EaseOut:
		return t * (2 - t)
	case EaseInOut:
		if t < 0.5 {
			return 2 * t * t
		}
		return -1 + (4-2*t)*t
	default:
		return t
	}
}

func (e EaseKind) String() string {
	switch e {
	case EaseIn:
		return "in"
	case EaseOut:
		return "out"
	case EaseInOut:
		return "in-out"
	}
	return "linear"
}

// ParseEase maps an ease name to its kind; unknown names fall back to linear,
// matching the scripting language's forgiving ease argument.
func ParseEase(s string) EaseKind {
	switch s {
	case "in":
		return EaseIn
	case "out":
		return EaseOut
	case "in-out":
		return EaseInOut
	default:
		return EaseLinear
	}
}

// Anim is the immutable description of a tween, carried by an animation event.
// Sprite animations target an entity by id; shape animations draw interpolated
// geometry on top of the scene without touching any retained drawable.
type Anim struct {
	Sprite     bool
	Shape      ShapeKind
	TargetID   string
	From       [3]float64
	To         [3]float64
	DurationMs float64
	Ease       EaseKind
	FromColor  string
	ToColor    string
}

// EventKind tags a scheduled event.
type EventKind int

const (
	EventBackground EventKind = iota
	EventDraw
	EventSprite
	EventTone
	EventNote
	EventSequence
	EventAnimate
)

// Event is a time-stamped instruction produced by the build pass. Events are
// immutable once created; the scheduler consumes a working copy while the
// scene retains the full list for scrubbing.
type Event struct {
	Kind   EventKind
	TimeMs float64

	Color    string
	Drawable int
	EntityID string
	Freq     float64
	DurSec   float64
	Note     string
	Notes    []string
	Anim     *Anim
}

// AssetKind distinguishes declared asset flavors.
type AssetKind int

const (
	AssetImage AssetKind = iota
	AssetSheet
)

// AssetDecl is an asset declaration collected during the build; the loader
// resolves declarations asynchronously.
type AssetDecl struct {
	Kind   AssetKind
	Key    string
	Src    string
	FrameW int
	FrameH int
	Frames int
	FPS    float64
}

// Scene is the full product of one build pass. All mutable collections are
// owned by a single engine; a rebuild swaps the whole struct atomically.
type Scene struct {
	Width  int
	Height int

	Seed       uint32
	TempoBPM   float64
	Background string
	BGNoise    *BGNoise

	Drawables []*Drawable
	Entities  map[string]*Entity
	Fields    map[string]*Field
	Assets    []AssetDecl
	Events    []Event
	Physics   Physics

	DurationMs float64
	Warnings   []string

	RNG *RNG
}

// BeatMs returns the length of one beat at the scene tempo.
func (s *Scene) BeatMs() float64 {
	return 60000.0 / s.TempoBPM
}

// Drawable returns the arena entry behind a handle.
func (s *Scene) DrawableAt(idx int) *Drawable {
	if idx < 0 || idx >= len(s.Drawables) {
		return nil
	}
	return s.Drawables[idx]
}

// SortedEntities returns entities in paint order: ascending z, ties broken by
// creation order.
func (s *Scene) SortedEntities() []*Entity {
	out := make([]*Entity, 0, len(s.Entities))
	for _, e := range s.Entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Z != out[j].Z {
			return out[i].Z < out[j].Z
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

// SortedDrawables returns retained drawables in paint order.
func (s *Scene) SortedDrawables() []*Drawable {
	out := make([]*Drawable, len(s.Drawables))
	copy(out, s.Drawables)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Z != out[j].Z {
			return out[i].Z < out[j].Z
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

// EventsCopy returns a fresh working copy of the event list for the scheduler
// to drain, leaving the scene's own list untouched for scrubbing.
func (s *Scene) EventsCopy() []Event {
	out := make([]Event, len(s.Events))
	copy(out, s.Events)
	return out
}

// SheetDecl returns the spritesheet declaration for a key.
func (s *Scene) SheetDecl(key string) (AssetDecl, bool) {
	for _, a := range s.Assets {
		if a.Kind == AssetSheet && a.Key == key {
			return a, true
		}
	}
	return AssetDecl{}, false
}

// Lookup finds the behavior/wiggle target with the given id: an entity first,
// then a retained drawable.
func (s *Scene) Lookup(id string) (ent *Entity, dr *Drawable) {
	if e, ok := s.Entities[id]; ok {
		return e, nil
	}
	for _, d := range s.Drawables {
		if d.ID == id {
			return nil, d
		}
	}
	return nil, nil
}
