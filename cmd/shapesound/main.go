package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/shapesound/shapesound/internal/asset"
	"github.com/shapesound/shapesound/internal/audio"
	"github.com/shapesound/shapesound/internal/config"
	"github.com/shapesound/shapesound/internal/engine"
	"github.com/shapesound/shapesound/internal/export"
	"github.com/shapesound/shapesound/internal/gui"
	"github.com/shapesound/shapesound/internal/render"
	"github.com/shapesound/shapesound/internal/scene"
	"github.com/shapesound/shapesound/internal/tui"
)

var (
	configFile string
	preset     string
	outDir     string
	outFile    string
	atMs       float64
	atFrac     float64
	frameRate  int
	volume     float64
	mute       bool
	noAudio    bool
	graphOut   bool
	jsonOut    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "shapesound",
		Short: "scene description language for animated, sounding sketches",
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")

	playCmd := &cobra.Command{
		Use:   "play [script]",
		Short: "play a scene in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  playScene,
	}
	playCmd.Flags().IntVar(&frameRate, "fps", 0, "frame rate (overrides config)")
	playCmd.Flags().Float64Var(&volume, "volume", -1, "master volume 0..1 (overrides config)")
	playCmd.Flags().BoolVar(&mute, "mute", false, "start muted")
	playCmd.Flags().BoolVar(&noAudio, "no-audio", false, "disable audio output")

	guiCmd := &cobra.Command{
		Use:   "gui [script]",
		Short: "play a scene in a window",
		Args:  cobra.ExactArgs(1),
		RunE:  guiScene,
	}
	guiCmd.Flags().BoolVar(&noAudio, "no-audio", false, "disable audio output")

	checkCmd := &cobra.Command{
		Use:   "check [script]",
		Short: "parse a script and report problems",
		Args:  cobra.ExactArgs(1),
		RunE:  checkScene,
	}

	renderCmd := &cobra.Command{
		Use:   "render [script]",
		Short: "render a single frame to PNG",
		Args:  cobra.ExactArgs(1),
		RunE:  renderStill,
	}
	renderCmd.Flags().Float64Var(&atMs, "at", 0, "playhead time in milliseconds")
	renderCmd.Flags().Float64Var(&atFrac, "frac", -1, "playhead as a 0..1 fraction of the duration (overrides --at)")
	renderCmd.Flags().StringVar(&outFile, "out", "frame.png", "output file")

	framesCmd := &cobra.Command{
		Use:   "frames [script]",
		Short: "export the scene as a PNG frame sequence",
		Args:  cobra.ExactArgs(1),
		RunE:  exportFrames,
	}
	framesCmd.Flags().IntVar(&frameRate, "fps", 0, "frame rate (overrides config)")
	framesCmd.Flags().StringVar(&outDir, "out", "", "output directory (overrides config)")

	inspectCmd := &cobra.Command{
		Use:   "inspect [script]",
		Short: "show the scene timeline",
		Args:  cobra.ExactArgs(1),
		RunE:  inspectScene,
	}
	inspectCmd.Flags().BoolVar(&jsonOut, "json", false, "emit the timeline as JSON")
	inspectCmd.Flags().StringVar(&outFile, "out", "", "write JSON to a file (implies --json)")
	inspectCmd.Flags().BoolVar(&graphOut, "graph", false, "plot scheduled tone frequencies over time")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list configuration presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tFPS\tVOLUME\tMUTE")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%d\t%.2f\t%v\n", name, p.FrameRate, p.MasterVolume, p.Mute)
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(playCmd, guiCmd, checkCmd, renderCmd, framesCmd, inspectCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if preset != "" {
		cfg := config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", preset)
		}
		return cfg, nil
	}
	if configFile != "" {
		return config.Load(configFile)
	}
	return config.DefaultConfig(), nil
}

func readScript(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func sceneName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// loadAssets resolves every declared asset and reports failures on stderr.
// A missing asset never blocks playback; the painter draws placeholders.
func loadAssets(ctx context.Context, sc *scene.Scene) *asset.Store {
	if len(sc.Assets) == 0 {
		return nil
	}
	store := asset.NewStore()
	if err := store.Load(ctx, sc.Assets); err != nil {
		fmt.Fprintf(os.Stderr, "asset loading interrupted: %v\n", err)
	}
	for key, err := range store.Errors() {
		fmt.Fprintf(os.Stderr, "asset %s: %v\n", key, err)
	}
	return store
}

// openSynth starts audio output, or returns nil when unavailable or disabled.
func openSynth(cfg *config.Config) *audio.Synth {
	if noAudio || cfg.Mute {
		return nil
	}
	synth, err := audio.NewSynth()
	if err != nil {
		fmt.Fprintf(os.Stderr, "audio unavailable, playing silent: %v\n", err)
		return nil
	}
	return synth
}

func playScene(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	script, err := readScript(args[0])
	if err != nil {
		return err
	}

	synth := openSynth(cfg)
	engOpts := []engine.Option{engine.WithMinDuration(cfg.MinSceneSec * 1000)}
	if synth != nil {
		defer synth.Close()
		engOpts = append(engOpts, engine.WithSink(synth), engine.WithLookahead(cfg.Audio.LookaheadMs))
	}

	eng, err := engine.New(script, engOpts...)
	if err != nil {
		return err
	}

	// Asset pixels never reach the terminal preview, but loading surfaces
	// broken declarations before playback starts.
	loadAssets(cmd.Context(), eng.Scene())

	vol := cfg.MasterVolume
	if volume >= 0 {
		vol = volume
	}
	if synth != nil {
		synth.SetMaster(vol)
	}

	fps := cfg.FrameRate
	if frameRate > 0 {
		fps = frameRate
	}

	opts := tui.Options{
		Name:      sceneName(args[0]),
		FrameRate: fps,
		Volume:    vol,
	}
	if synth != nil && !mute {
		meter := synth.Meter()
		opts.Levels = meter.Levels
	}
	return tui.RunPlayer(eng, opts)
}

func guiScene(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	script, err := readScript(args[0])
	if err != nil {
		return err
	}

	synth := openSynth(cfg)
	engOpts := []engine.Option{engine.WithMinDuration(cfg.MinSceneSec * 1000)}
	if synth != nil {
		defer synth.Close()
		engOpts = append(engOpts, engine.WithSink(synth), engine.WithLookahead(cfg.Audio.LookaheadMs))
	}

	eng, err := engine.New(script, engOpts...)
	if err != nil {
		return err
	}
	if synth != nil {
		synth.SetMaster(cfg.MasterVolume)
	}

	store := loadAssets(cmd.Context(), eng.Scene())
	gui.Run(eng, store, sceneName(args[0]))
	return nil
}

func checkScene(cmd *cobra.Command, args []string) error {
	script, err := readScript(args[0])
	if err != nil {
		return err
	}
	sc, err := scene.Build(script)
	if err != nil {
		return err
	}

	fmt.Printf("canvas: %dx%d\n", sc.Width, sc.Height)
	fmt.Printf("seed: %d\n", sc.Seed)
	fmt.Printf("tempo: %.0f bpm\n", sc.TempoBPM)
	fmt.Printf("duration: %.1fs\n", sc.DurationMs/1000)
	fmt.Printf("shapes: %d  entities: %d  events: %d\n",
		len(sc.Drawables), len(sc.Entities), len(sc.Events))
	if len(sc.Assets) > 0 {
		fmt.Printf("assets: %d\n", len(sc.Assets))
	}
	for _, w := range sc.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	return nil
}

func renderStill(cmd *cobra.Command, args []string) error {
	script, err := readScript(args[0])
	if err != nil {
		return err
	}

	target := atMs
	if atFrac >= 0 {
		sc, err := scene.Build(script)
		if err != nil {
			return err
		}
		target = atFrac * sc.DurationMs
	}

	ops, sc, err := engine.RenderAt(script, target)
	if err != nil {
		return err
	}

	store := loadAssets(cmd.Context(), sc)
	p := render.NewPainter(sc.Width, sc.Height, store)
	if err := p.Paint(ops); err != nil {
		return err
	}
	if err := p.SavePNG(outFile); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%dx%d at %.2fs)\n", outFile, sc.Width, sc.Height, target/1000)
	return nil
}

func exportFrames(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	script, err := readScript(args[0])
	if err != nil {
		return err
	}

	dir := cfg.Export.OutDir
	if outDir != "" {
		dir = outDir
	}
	fps := cfg.Export.FrameRate
	if frameRate > 0 {
		fps = frameRate
	}

	sc, err := scene.Build(script)
	if err != nil {
		return err
	}
	store := loadAssets(cmd.Context(), sc)

	exp := export.New(dir)
	if err := exp.Init(); err != nil {
		return err
	}
	runID, err := exp.SaveFrames(cmd.Context(), sceneName(args[0]), script, fps, store)
	if err != nil {
		return err
	}
	frames := int(sc.DurationMs/1000*float64(fps)) + 1
	fmt.Printf("wrote %d frames to %s\n", frames, filepath.Join(dir, runID))
	return nil
}

func inspectScene(cmd *cobra.Command, args []string) error {
	script, err := readScript(args[0])
	if err != nil {
		return err
	}
	sc, err := scene.Build(script)
	if err != nil {
		return err
	}

	if graphOut {
		printToneGraph(sc)
		return nil
	}
	if outFile != "" {
		if err := export.TimelineJSON(outFile, sc); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", outFile)
		return nil
	}
	if jsonOut {
		return export.TimelineJSONStdout(sc)
	}
	return printTimelineTable(sc)
}

func printTimelineTable(sc *scene.Scene) error {
	data := export.Timeline(sc)

	fmt.Printf("canvas %dx%d  seed %d  tempo %.0f bpm  duration %.1fs\n\n",
		data.Width, data.Height, data.Seed, data.TempoBPM, data.DurationMs/1000)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tKIND\tDETAIL")
	for _, ev := range data.Events {
		detail := ""
		switch {
		case ev.Note != "":
			detail = ev.Note
		case len(ev.Notes) > 0:
			detail = strings.Join(ev.Notes, " ")
		case ev.Freq > 0:
			detail = fmt.Sprintf("%.1fHz %.2fs", ev.Freq, ev.DurSec)
		case ev.Color != "":
			detail = ev.Color
		case ev.Entity != "":
			detail = ev.Entity
		}
		fmt.Fprintf(w, "%.2fs\t%s\t%s\n", ev.TimeMs/1000, ev.Kind, detail)
	}
	return w.Flush()
}

// printToneGraph plots scheduled tone frequencies against time, one bucket
// per quarter second; silent buckets read zero.
func printToneGraph(sc *scene.Scene) {
	tones := audio.ExpandTones(sc)
	if len(tones) == 0 {
		fmt.Println("no scheduled audio")
		return
	}

	const bucketMs = 250
	buckets := int(sc.DurationMs/bucketMs) + 1
	data := make([]float64, buckets)
	for _, tn := range tones {
		i := int(tn.WhenMs / bucketMs)
		if i >= buckets {
			i = buckets - 1
		}
		if tn.Freq > data[i] {
			data[i] = tn.Freq
		}
	}

	graph := asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("tone frequency (Hz) over time, %d tones", len(tones))),
	)
	fmt.Println(graph)
}
