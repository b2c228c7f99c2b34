package scene

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	defaultWidth      = 800
	defaultHeight     = 600
	defaultTempoBPM   = 100
	defaultBackground = "#000000"

	// DefaultMinDurationMs floors the scene length so empty or trivial
	// scripts still have a seekable range.
	DefaultMinDurationMs = 10000
)

var turtleGreens = []string{"#228B22", "#2E8B57", "#006400"}

// ParseError reports a fatal build failure with its 1-based source line.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Build interprets a scene script in a single pass and returns the complete
// scene, or a ParseError. The build is all-or-nothing: any unknown verb or
// malformed argument fails the whole script.
func Build(script string) (*Scene, error) {
	return BuildWithMinDuration(script, DefaultMinDurationMs)
}

// BuildWithMinDuration is Build with an explicit duration floor.
func BuildWithMinDuration(script string, minMs float64) (*Scene, error) {
	b := &builder{
		sc: &Scene{
			Width:      defaultWidth,
			Height:     defaultHeight,
			Seed:       DefaultSeed,
			TempoBPM:   defaultTempoBPM,
			Background: defaultBackground,
			Entities:   map[string]*Entity{},
			Fields:     map[string]*Field{},
			Physics:    Physics{Damping: 1.0},
			RNG:        NewRNG(DefaultSeed),
		},
	}

	for i, raw := range strings.Split(script, "\n") {
		lineNo := i + 1
		line := stripComment(raw)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := b.execLine(line, lineNo); err != nil {
			if pe, ok := err.(*ParseError); ok {
				return nil, pe
			}
			return nil, &ParseError{Line: lineNo, Msg: err.Error()}
		}
	}
	if b.inSeq {
		return nil, &ParseError{Line: b.seqLine, Msg: "sequence block not closed"}
	}

	b.sc.DurationMs = math.Max(math.Max(b.cur, b.maxEnd), minMs)
	return b.sc, nil
}

type builder struct {
	sc     *Scene
	cur    float64 // virtual time cursor, ms
	seq    int     // insertion counter for paint-order ties
	maxEnd float64 // furthest animation end seen

	inSeq    bool
	seqNotes []string
	seqLine  int
}

// stripComment removes a trailing // comment. The marker must start the line
// or follow whitespace so that URLs inside asset sources survive.
func stripComment(line string) string {
	for i := 0; i+1 < len(line); i++ {
		if line[i] == '/' && line[i+1] == '/' {
			if i == 0 || line[i-1] == ' ' || line[i-1] == '\t' {
				return line[:i]
			}
		}
	}
	return line
}

func (b *builder) warnf(format string, args ...any) {
	b.sc.Warnings = append(b.sc.Warnings, fmt.Sprintf(format, args...))
}

func (b *builder) push(ev Event) {
	ev.TimeMs = b.cur
	b.sc.Events = append(b.sc.Events, ev)
}

func (b *builder) nextSeq() int {
	s := b.seq
	b.seq++
	return s
}

func (b *builder) execLine(line string, lineNo int) error {
	if b.inSeq {
		return b.seqTokens(strings.Fields(line), lineNo)
	}

	parts := tokenize(line)
	if len(parts) == 0 {
		// quote-only lines tokenize to nothing
		return fmt.Errorf("empty command")
	}
	verb := parts[0]

	switch verb {
	case "sequence":
		if len(parts) < 2 || parts[1] != "{" {
			return fmt.Errorf("sequence expects '{'")
		}
		b.inSeq = true
		b.seqNotes = nil
		b.seqLine = lineNo
		return b.seqTokens(parts[2:], lineNo)
	case "}":
		return fmt.Errorf("unexpected '}' outside sequence block")
	case "canvas":
		return b.cmdCanvas(parts)
	case "seed":
		return b.cmdSeed(parts)
	case "tempo":
		return b.cmdTempo(parts)
	case "background":
		return b.cmdBackground(parts)
	case "backgroundnoise":
		return b.cmdBackgroundNoise(parts)
	case "circle", "rect", "line", "star", "poly", "blob":
		return b.cmdShape(verb, parts)
	case "sprite":
		return b.cmdSprite(parts)
	case "asset":
		return b.cmdAsset(parts, line)
	case "spriteimg":
		return b.cmdSpriteImg(parts)
	case "playframes", "stopframes", "setfps":
		return b.cmdFrames(verb, parts)
	case "physics":
		return b.cmdPhysics(parts)
	case "gravity":
		return b.cmdGravity(parts)
	case "damping":
		return b.cmdDamping(parts)
	case "bounds":
		return b.cmdBounds(parts)
	case "setvel", "impulse":
		return b.cmdVelocity(verb, parts)
	case "wiggle", "drift":
		return b.cmdWiggle(parts)
	case "field":
		return b.cmdField(parts)
	case "behavior":
		return b.cmdBehavior(parts)
	case "sound":
		return b.cmdSound(parts)
	case "play":
		return b.cmdPlay(parts)
	case "delay":
		return b.cmdDelay(parts)
	case "animate":
		return b.cmdAnimate(parts)
	case "path":
		return b.cmdPath(parts)
	default:
		return fmt.Errorf("unknown command: %s", verb)
	}
}

// seqTokens consumes note names inside a sequence block. A '}' token closes
// the block and schedules the collected notes as one event.
func (b *builder) seqTokens(toks []string, lineNo int) error {
	for _, tok := range toks {
		if tok == "}" {
			b.push(Event{Kind: EventSequence, Notes: b.seqNotes})
			b.cur += float64(len(b.seqNotes)) * b.sc.BeatMs()
			b.inSeq = false
			b.seqNotes = nil
			return nil
		}
		if _, ok := NoteFreq(tok); !ok {
			return &ParseError{Line: lineNo, Msg: fmt.Sprintf("unknown note: %s", tok)}
		}
		b.seqNotes = append(b.seqNotes, tok)
	}
	b.inSeq = true
	return nil
}

func (b *builder) cmdCanvas(parts []string) error {
	w, err := argInt(parts, 1, "canvas width")
	if err != nil {
		return err
	}
	h, err := argInt(parts, 2, "canvas height")
	if err != nil {
		return err
	}
	if w <= 0 || h <= 0 {
		return fmt.Errorf("canvas size must be positive")
	}
	b.sc.Width, b.sc.Height = w, h
	return nil
}

func (b *builder) cmdSeed(parts []string) error {
	n, err := argInt(parts, 1, "seed")
	if err != nil {
		return err
	}
	b.sc.Seed = uint32(n)
	b.sc.RNG.Reseed(uint32(n))
	return nil
}

func (b *builder) cmdTempo(parts []string) error {
	bpm, err := argInt(parts, 1, "tempo")
	if err != nil {
		return err
	}
	if bpm <= 0 {
		return fmt.Errorf("tempo must be a positive number")
	}
	b.sc.TempoBPM = float64(bpm)
	return nil
}

func (b *builder) cmdBackground(parts []string) error {
	if len(parts) < 2 {
		return fmt.Errorf("background expects a color")
	}
	b.sc.Background = parts[1]
	b.push(Event{Kind: EventBackground, Color: parts[1]})
	return nil
}

func (b *builder) cmdBackgroundNoise(parts []string) error {
	scale := floatOr(parts, 1, 1.2)
	speed := floatOr(parts, 2, 0.15)
	n := &BGNoise{Scale: scale, Speed: speed, Color1: "#0a0f1a", Color2: "#162035"}
	if i := indexOf(parts, "color"); i != -1 {
		if i+1 < len(parts) {
			n.Color1 = parts[i+1]
		}
		if i+2 < len(parts) {
			n.Color2 = parts[i+2]
		}
	}
	b.sc.BGNoise = n
	return nil
}

func (b *builder) cmdShape(verb string, parts []string) error {
	id, _ := argVal(parts, "id")
	z := intVal(parts, "z", 0)
	color, _ := argVal(parts, "color")

	d := &Drawable{ID: id, Z: z, Seq: b.nextSeq(), Color: color}

	var err error
	switch verb {
	case "circle":
		d.Kind = ShapeCircle
		if d.X, d.Y, err = argXY(parts, 1); err != nil {
			return err
		}
		if d.R, err = argFloat(parts, 3, "circle radius"); err != nil {
			return err
		}
		if d.Color == "" {
			d.Color = "#FFF"
		}
	case "rect":
		d.Kind = ShapeRect
		if d.X, d.Y, err = argXY(parts, 1); err != nil {
			return err
		}
		if d.W, err = argFloat(parts, 3, "rect width"); err != nil {
			return err
		}
		if d.H, err = argFloat(parts, 4, "rect height"); err != nil {
			return err
		}
		if d.Color == "" {
			d.Color = "#FFF"
		}
	case "line":
		d.Kind = ShapeLine
		if d.X, d.Y, err = argXY(parts, 1); err != nil {
			return err
		}
		if d.X2, err = argFloat(parts, 3, "line x2"); err != nil {
			return err
		}
		if d.Y2, err = argFloat(parts, 4, "line y2"); err != nil {
			return err
		}
		d.Width = floatVal(parts, "width", 1)
		if d.Color == "" {
			d.Color = "#FFF"
		}
	case "star":
		d.Kind = ShapeStar
		if d.X, d.Y, err = argXY(parts, 1); err != nil {
			return err
		}
		if d.ROuter, err = argFloat(parts, 3, "star outer radius"); err != nil {
			return err
		}
		if d.RInner, err = argFloat(parts, 4, "star inner radius"); err != nil {
			return err
		}
		pts, err := argInt(parts, 5, "star points")
		if err != nil {
			return err
		}
		d.Points = pts
		d.Rot = floatVal(parts, "rot", 0)
		if d.Color == "" {
			d.Color = "#ffd84a"
		}
	case "poly":
		d.Kind = ShapePoly
		if d.X, d.Y, err = argXY(parts, 1); err != nil {
			return err
		}
		if d.R, err = argFloat(parts, 3, "poly radius"); err != nil {
			return err
		}
		sides, err := argInt(parts, 4, "poly sides")
		if err != nil {
			return err
		}
		d.Sides = sides
		d.Rot = floatVal(parts, "rot", 0)
		if d.Color == "" {
			d.Color = "#a0c"
		}
	case "blob":
		d.Kind = ShapeBlob
		if d.X, d.Y, err = argXY(parts, 1); err != nil {
			return err
		}
		if d.R, err = argFloat(parts, 3, "blob radius"); err != nil {
			return err
		}
		pts, err := argInt(parts, 4, "blob points")
		if err != nil {
			return err
		}
		d.Points = pts
		if d.Jitter, err = argFloat(parts, 5, "blob jitter"); err != nil {
			return err
		}
		d.Speed = floatVal(parts, "speed", 0.4)
		d.Phase = b.sc.RNG.Range(0, 2*math.Pi)
		if d.Color == "" {
			d.Color = "#77ffaa"
		}
	}

	idx := len(b.sc.Drawables)
	b.sc.Drawables = append(b.sc.Drawables, d)
	b.push(Event{Kind: EventDraw, Drawable: idx})

	// A shape with a stable id is mirrored as a generative-shape entity so
	// animate/wiggle/behavior commands can target it. The entity holds a
	// handle into the drawable arena; the renderer paints it exactly once,
	// through the entity.
	if id != "" && d.Kind != ShapeLine {
		b.sc.Entities[id] = &Entity{
			ID: id, Kind: EntityShape, Z: z, Seq: b.nextSeq(),
			X: d.X, Y: d.Y, Scale: 1, Shape: idx,
		}
	}
	return nil
}

func (b *builder) cmdSprite(parts []string) error {
	if len(parts) < 2 {
		return fmt.Errorf("sprite expects a kind")
	}
	if parts[1] != "turtle" {
		return fmt.Errorf("unknown sprite: %s", parts[1])
	}
	x := floatVal(parts, "x", 100)
	y := floatVal(parts, "y", 520)
	scale := floatVal(parts, "scale", 1)
	id, ok := argVal(parts, "id")
	if !ok {
		id = "turtle"
	}
	color, _ := argVal(parts, "color")
	if color == "" {
		// Seeded shell variant so the choice is reproducible.
		color = turtleGreens[b.sc.RNG.Intn(len(turtleGreens))]
	}
	b.sc.Entities[id] = &Entity{
		ID: id, Kind: EntityTurtle, Z: intVal(parts, "z", 0), Seq: b.nextSeq(),
		X: x, Y: y, Scale: scale, Color: color, Shape: -1,
	}
	b.push(Event{Kind: EventSprite, EntityID: id})
	return nil
}

func (b *builder) cmdAsset(parts []string, line string) error {
	if len(parts) < 2 {
		return fmt.Errorf("asset expects a kind")
	}
	src, ok := extractQuoted(line)
	switch parts[1] {
	case "image":
		if len(parts) < 3 {
			return fmt.Errorf("asset image expects a key")
		}
		if !ok {
			return fmt.Errorf(`asset image missing "src"`)
		}
		b.sc.Assets = append(b.sc.Assets, AssetDecl{Kind: AssetImage, Key: parts[2], Src: src})
	case "spritesheet":
		if len(parts) < 3 {
			return fmt.Errorf("asset spritesheet expects a key")
		}
		if !ok {
			return fmt.Errorf(`asset spritesheet missing "src"`)
		}
		key := parts[2]
		if len(parts) > 3 && !strings.HasPrefix(parts[3], `"`) && parts[3] != src &&
			parts[3] != "frame" && parts[3] != "frames" && parts[3] != "fps" {
			key += "_" + parts[3]
		}
		fi := indexOf(parts, "frame")
		ni := indexOf(parts, "frames")
		if fi == -1 || ni == -1 || fi+1 >= len(parts) || ni+1 >= len(parts) {
			return fmt.Errorf("spritesheet requires frame WxH and frames N")
		}
		fw, fh, err := parseFrameSize(parts[fi+1])
		if err != nil {
			return err
		}
		frames, err := strconv.Atoi(parts[ni+1])
		if err != nil {
			return fmt.Errorf("frames expects an integer, got %q", parts[ni+1])
		}
		fps := floatVal(parts, "fps", 8)
		b.sc.Assets = append(b.sc.Assets, AssetDecl{
			Kind: AssetSheet, Key: key, Src: src,
			FrameW: fw, FrameH: fh, Frames: frames, FPS: fps,
		})
	default:
		return fmt.Errorf("unknown asset kind: %s", parts[1])
	}
	return nil
}

func (b *builder) cmdSpriteImg(parts []string) error {
	if len(parts) < 2 {
		return fmt.Errorf("spriteimg requires an id")
	}
	id := parts[1]
	fi := indexOf(parts, "from")
	ai := indexOf(parts, "at")
	if fi == -1 || ai == -1 || fi+2 >= len(parts) || ai+2 >= len(parts) {
		return fmt.Errorf("spriteimg missing 'from' or 'at'")
	}
	kind := parts[fi+1]
	key := parts[fi+2]
	x, err := parseFloatTok(parts[ai+1], "spriteimg x")
	if err != nil {
		return err
	}
	y, err := parseFloatTok(parts[ai+2], "spriteimg y")
	if err != nil {
		return err
	}
	e := &Entity{
		ID: id, Z: intVal(parts, "z", 0), Seq: b.nextSeq(),
		X: x, Y: y, Scale: floatVal(parts, "scale", 1), Key: key, Shape: -1,
	}
	switch kind {
	case "image":
		e.Kind = EntityImage
	case "spritesheet":
		e.Kind = EntitySheet
	default:
		return fmt.Errorf("spriteimg 'from' must be 'image' or 'spritesheet'")
	}
	b.sc.Entities[id] = e
	b.push(Event{Kind: EventSprite, EntityID: id})
	return nil
}

func (b *builder) cmdFrames(verb string, parts []string) error {
	if len(parts) < 2 {
		return fmt.Errorf("%s expects an id", verb)
	}
	e, ok := b.sc.Entities[parts[1]]
	if !ok {
		b.warnf("%s: no sprite with id %q", verb, parts[1])
		return nil
	}
	switch verb {
	case "playframes":
		e.Playing = true
	case "stopframes":
		e.Playing = false
	case "setfps":
		fps, err := argFloat(parts, 2, "setfps rate")
		if err != nil {
			return err
		}
		e.FPS = fps
	}
	return nil
}

func (b *builder) cmdPhysics(parts []string) error {
	if len(parts) < 2 || (parts[1] != "on" && parts[1] != "off") {
		return fmt.Errorf("physics expects on or off")
	}
	b.sc.Physics.Enabled = parts[1] == "on"
	return nil
}

func (b *builder) cmdGravity(parts []string) error {
	gx, err := argFloat(parts, 1, "gravity x")
	if err != nil {
		return err
	}
	gy, err := argFloat(parts, 2, "gravity y")
	if err != nil {
		return err
	}
	b.sc.Physics.GravityX, b.sc.Physics.GravityY = gx, gy
	return nil
}

func (b *builder) cmdDamping(parts []string) error {
	d, err := argFloat(parts, 1, "damping")
	if err != nil {
		return err
	}
	b.sc.Physics.Damping = d
	return nil
}

func (b *builder) cmdBounds(parts []string) error {
	if len(parts) < 2 {
		return fmt.Errorf("bounds expects none or canvas")
	}
	switch parts[1] {
	case "none":
		b.sc.Physics.Bounds = BoundsNone
	case "canvas":
		b.sc.Physics.Bounds = BoundsCanvas
	default:
		return fmt.Errorf("bounds expects none or canvas, got %q", parts[1])
	}
	return nil
}

func (b *builder) cmdVelocity(verb string, parts []string) error {
	if len(parts) < 4 {
		return fmt.Errorf("%s expects: %s <id> <vx> <vy>", verb, verb)
	}
	vx, err := argFloat(parts, 2, verb+" vx")
	if err != nil {
		return err
	}
	vy, err := argFloat(parts, 3, verb+" vy")
	if err != nil {
		return err
	}
	e, ok := b.sc.Entities[parts[1]]
	if !ok {
		b.warnf("%s: no sprite with id %q", verb, parts[1])
		return nil
	}
	e.Physics = true
	if verb == "setvel" {
		e.VX, e.VY = vx, vy
	} else {
		e.VX += vx
		e.VY += vy
	}
	return nil
}

func (b *builder) cmdWiggle(parts []string) error {
	if len(parts) < 4 {
		return fmt.Errorf("wiggle expects: wiggle <id> ampX ampY freq  or  wiggle <id> amp freq")
	}
	id := parts[1]
	vals := make([]float64, 0, 3)
	for _, tok := range parts[2:] {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return fmt.Errorf("wiggle expects numeric arguments, got %q", tok)
		}
		vals = append(vals, v)
	}
	var w Wiggle
	switch len(vals) {
	case 3:
		w = Wiggle{AmpX: vals[0], AmpY: vals[1], Freq: vals[2]}
	case 2:
		w = Wiggle{AmpX: vals[0], AmpY: vals[0], Freq: vals[1]}
	default:
		return fmt.Errorf("wiggle expects: wiggle <id> ampX ampY freq  or  wiggle <id> amp freq")
	}
	ent, dr := b.sc.Lookup(id)
	switch {
	case ent != nil:
		ent.Wiggle = &w
	case dr != nil:
		dr.Wiggle = &w
	default:
		b.warnf("wiggle: no sprite or shape with id %q", id)
	}
	return nil
}

func (b *builder) cmdField(parts []string) error {
	if len(parts) < 2 {
		return fmt.Errorf("field expects a type")
	}
	id, ok := argVal(parts, "id")
	if !ok {
		id = fmt.Sprintf("f%d", len(b.sc.Fields)+1)
	}
	switch parts[1] {
	case "noise":
		b.sc.Fields[id] = &Field{
			ID: id, Kind: FieldNoise,
			Scale:    floatVal(parts, "scale", 0.005),
			Speed:    floatVal(parts, "speed", 0.25),
			Strength: floatVal(parts, "strength", 40),
		}
	case "attractor":
		b.sc.Fields[id] = &Field{
			ID: id, Kind: FieldAttractor,
			X:        floatVal(parts, "x", 400),
			Y:        floatVal(parts, "y", 300),
			Strength: floatVal(parts, "strength", 60),
			Falloff:  floatVal(parts, "falloff", 0.8),
		}
	default:
		return fmt.Errorf("unknown field type: %s", parts[1])
	}
	return nil
}

func (b *builder) cmdBehavior(parts []string) error {
	if len(parts) < 3 {
		return fmt.Errorf("behavior expects: behavior <id> use <field> | behavior <id> orbit <cx> <cy> <r>")
	}
	id := parts[1]
	ent, dr := b.sc.Lookup(id)
	if ent == nil && dr == nil {
		b.warnf("behavior: no sprite or shape with id %q", id)
		return nil
	}

	var bh *Behavior
	if ui := indexOf(parts, "use"); ui != -1 {
		if ui+1 >= len(parts) {
			return fmt.Errorf("behavior use expects a field id")
		}
		bh = &Behavior{
			Mode:    BehaviorField,
			FieldID: parts[ui+1],
			Mix:     floatVal(parts, "mix", 1.0),
		}
	} else if parts[2] == "orbit" {
		if len(parts) < 6 {
			return fmt.Errorf("behavior orbit expects: orbit <cx> <cy> <radius> [speed]")
		}
		cx, err := argFloat(parts, 3, "orbit cx")
		if err != nil {
			return err
		}
		cy, err := argFloat(parts, 4, "orbit cy")
		if err != nil {
			return err
		}
		radius, err := argFloat(parts, 5, "orbit radius")
		if err != nil {
			return err
		}
		bh = &Behavior{
			Mode: BehaviorOrbit, CX: cx, CY: cy, Radius: radius,
			Speed: floatOr(parts, 6, 0.6),
			Theta: b.sc.RNG.Range(0, 2*math.Pi),
		}
	} else {
		return fmt.Errorf("behavior expects 'use' or 'orbit'")
	}

	if ent != nil {
		ent.Behavior = bh
	} else {
		dr.Behavior = bh
	}
	return nil
}

func (b *builder) cmdSound(parts []string) error {
	freq, err := argFloat(parts, 1, "sound frequency")
	if err != nil {
		return fmt.Errorf("sound expects: sound FREQ SECONDS")
	}
	durSec, err := argFloat(parts, 2, "sound duration")
	if err != nil {
		return fmt.Errorf("sound expects: sound FREQ SECONDS")
	}
	b.push(Event{Kind: EventTone, Freq: freq, DurSec: durSec})
	b.cur += durSec * 1000
	return nil
}

func (b *builder) cmdPlay(parts []string) error {
	if len(parts) < 2 {
		return fmt.Errorf("play expects a note name")
	}
	note := parts[1]
	if _, ok := NoteFreq(note); !ok {
		return fmt.Errorf("unknown note: %s", note)
	}
	b.push(Event{Kind: EventNote, Note: note})
	b.cur += b.sc.BeatMs()
	return nil
}

func (b *builder) cmdDelay(parts []string) error {
	ms, err := argInt(parts, 1, "delay")
	if err != nil {
		return fmt.Errorf("delay expects milliseconds")
	}
	if ms < 0 {
		return fmt.Errorf("delay expects milliseconds")
	}
	b.cur += float64(ms)
	return nil
}

func (b *builder) cmdAnimate(parts []string) error {
	if len(parts) < 2 {
		return fmt.Errorf("animate expects a target")
	}
	arrow := indexOf(parts, "->")
	if arrow == -1 {
		return fmt.Errorf("animate missing '->'")
	}

	anim := &Anim{Ease: EaseLinear}
	var vecStart int
	switch parts[1] {
	case "sprite":
		if len(parts) < 3 {
			return fmt.Errorf("animate sprite expects an id")
		}
		anim.Sprite = true
		anim.TargetID = parts[2]
		vecStart = 3
		if _, ok := b.sc.Entities[anim.TargetID]; !ok {
			b.warnf("animate: no sprite with id %q", anim.TargetID)
		}
	case "circle":
		anim.Shape = ShapeCircle
		vecStart = 2
	case "rect":
		anim.Shape = ShapeRect
		vecStart = 2
	default:
		return fmt.Errorf("animate expects circle, rect, or sprite")
	}

	from, err := parseVec3(parts, vecStart, arrow)
	if err != nil {
		return err
	}
	to, err := parseVec3(parts, arrow+1, arrow+4)
	if err != nil {
		return err
	}
	anim.From, anim.To = from, to

	dur, err := parseDuration(parts)
	if err != nil {
		return err
	}
	anim.DurationMs = dur

	if v, ok := argVal(parts, "ease"); ok {
		anim.Ease = ParseEase(v)
	}
	if !anim.Sprite {
		anim.FromColor, _ = argVal(parts, "fromColor")
		anim.ToColor, _ = argVal(parts, "toColor")
	}

	b.push(Event{Kind: EventAnimate, Anim: anim})
	b.maxEnd = math.Max(b.maxEnd, b.cur+dur)
	b.cur += dur
	return nil
}

func (b *builder) cmdPath(parts []string) error {
	if len(parts) < 5 {
		return fmt.Errorf("path expects: path <id> (x1,y1) -> (x2,y2) duration Ns")
	}
	id := parts[1]
	arrow := indexOf(parts, "->")
	if arrow == -1 {
		return fmt.Errorf("path missing '->'")
	}
	x1, y1, err := parsePoint(parts[2])
	if err != nil {
		return err
	}
	if arrow+1 >= len(parts) {
		return fmt.Errorf("path missing destination point")
	}
	x2, y2, err := parsePoint(parts[arrow+1])
	if err != nil {
		return err
	}
	dur, err := parseDuration(parts)
	if err != nil {
		return fmt.Errorf("path missing duration")
	}

	scale := 1.0
	if e, ok := b.sc.Entities[id]; ok {
		scale = e.Scale
	} else {
		b.warnf("path: no sprite with id %q", id)
	}
	anim := &Anim{
		Sprite:     true,
		TargetID:   id,
		From:       [3]float64{x1, y1, scale},
		To:         [3]float64{x2, y2, scale},
		DurationMs: dur,
	}
	if v, ok := argVal(parts, "ease"); ok {
		anim.Ease = ParseEase(v)
	}
	b.push(Event{Kind: EventAnimate, Anim: anim})
	b.maxEnd = math.Max(b.maxEnd, b.cur+dur)
	b.cur += dur
	return nil
}

// --- token helpers ---

// tokenize splits on whitespace, keeping double-quoted spans as one token
// (quotes stripped).
func tokenize(line string) []string {
	var out []string
	var cur strings.Builder
	inQuote := false
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
		case (r == ' ' || r == '\t') && !inQuote:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

// extractQuoted returns the first double-quoted span of the raw line.
func extractQuoted(line string) (string, bool) {
	i := strings.IndexByte(line, '"')
	if i == -1 {
		return "", false
	}
	j := strings.IndexByte(line[i+1:], '"')
	if j == -1 {
		return "", false
	}
	return line[i+1 : i+1+j], true
}

// argVal looks up a named argument given either as `key value` or `key=value`.
func argVal(parts []string, key string) (string, bool) {
	for i, tok := range parts {
		if tok == key && i+1 < len(parts) {
			return parts[i+1], true
		}
		if v, ok := strings.CutPrefix(tok, key+"="); ok {
			return v, true
		}
	}
	return "", false
}

func floatVal(parts []string, key string, def float64) float64 {
	if v, ok := argVal(parts, key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func intVal(parts []string, key string, def int) int {
	if v, ok := argVal(parts, key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func indexOf(parts []string, tok string) int {
	for i, p := range parts {
		if p == tok {
			return i
		}
	}
	return -1
}

func argFloat(parts []string, idx int, what string) (float64, error) {
	if idx >= len(parts) {
		return 0, fmt.Errorf("missing %s", what)
	}
	return parseFloatTok(parts[idx], what)
}

func parseFloatTok(tok, what string) (float64, error) {
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, fmt.Errorf("%s expects a number, got %q", what, tok)
	}
	return f, nil
}

func argInt(parts []string, idx int, what string) (int, error) {
	if idx >= len(parts) {
		return 0, fmt.Errorf("missing %s", what)
	}
	n, err := strconv.Atoi(parts[idx])
	if err != nil {
		return 0, fmt.Errorf("%s expects an integer, got %q", what, parts[idx])
	}
	return n, nil
}

func argXY(parts []string, idx int) (float64, float64, error) {
	x, err := argFloat(parts, idx, "x coordinate")
	if err != nil {
		return 0, 0, err
	}
	y, err := argFloat(parts, idx+1, "y coordinate")
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func floatOr(parts []string, idx int, def float64) float64 {
	if idx >= len(parts) {
		return def
	}
	if f, err := strconv.ParseFloat(parts[idx], 64); err == nil {
		return f
	}
	return def
}

func parseVec3(parts []string, start, end int) ([3]float64, error) {
	var v [3]float64
	if end-start != 3 || end > len(parts) {
		return v, fmt.Errorf("animate expects three values on each side of '->'")
	}
	for i := range 3 {
		f, err := strconv.ParseFloat(parts[start+i], 64)
		if err != nil {
			return v, fmt.Errorf("animate expects numeric values, got %q", parts[start+i])
		}
		v[i] = f
	}
	return v, nil
}

// parseDuration finds `duration <N>s` and returns milliseconds.
func parseDuration(parts []string) (float64, error) {
	v, ok := argVal(parts, "duration")
	if !ok {
		return 0, fmt.Errorf("animate missing duration")
	}
	sec, err := strconv.ParseFloat(strings.TrimSuffix(v, "s"), 64)
	if err != nil {
		return 0, fmt.Errorf("duration expects a number of seconds, got %q", v)
	}
	return sec * 1000, nil
}

// parsePoint parses "(x,y)".
func parsePoint(tok string) (float64, float64, error) {
	s := strings.Trim(tok, "()")
	xy := strings.Split(s, ",")
	if len(xy) != 2 {
		return 0, 0, fmt.Errorf("expected (x,y), got %q", tok)
	}
	x, err := strconv.ParseFloat(xy[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("expected (x,y), got %q", tok)
	}
	y, err := strconv.ParseFloat(xy[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("expected (x,y), got %q", tok)
	}
	return x, y, nil
}

func parseFrameSize(tok string) (int, int, error) {
	wh := strings.Split(tok, "x")
	if len(wh) != 2 {
		return 0, 0, fmt.Errorf("frame expects WxH, got %q", tok)
	}
	w, err := strconv.Atoi(wh[0])
	if err != nil {
		return 0, 0, fmt.Errorf("frame expects WxH, got %q", tok)
	}
	h, err := strconv.Atoi(wh[1])
	if err != nil {
		return 0, 0, fmt.Errorf("frame expects WxH, got %q", tok)
	}
	return w, h, nil
}
