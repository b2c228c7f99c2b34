package config

// Presets are named playback profiles selectable from the command line.
var Presets = map[string]*Config{
	"preview": {
		FrameRate:    30,
		MasterVolume: DefaultMasterVolume,
		Audio: AudioConfig{
			SampleRate:  DefaultSampleRate,
			LookaheadMs: DefaultLookaheadMs,
			PollMs:      DefaultPollMs,
		},
		Export:      ExportConfig{OutDir: "frames", FrameRate: 15},
		MinSceneSec: DefaultMinSceneSec,
	},
	"smooth": {
		FrameRate:    60,
		MasterVolume: DefaultMasterVolume,
		Audio: AudioConfig{
			SampleRate:  DefaultSampleRate,
			LookaheadMs: DefaultLookaheadMs,
			PollMs:      DefaultPollMs,
		},
		Export:      ExportConfig{OutDir: "frames", FrameRate: 60},
		MinSceneSec: DefaultMinSceneSec,
	},
	"silent": {
		FrameRate:    60,
		MasterVolume: 0,
		Mute:         true,
		Audio: AudioConfig{
			SampleRate:  DefaultSampleRate,
			LookaheadMs: DefaultLookaheadMs,
			PollMs:      DefaultPollMs,
		},
		Export:      ExportConfig{OutDir: "frames", FrameRate: 30},
		MinSceneSec: DefaultMinSceneSec,
	},
}

// GetPreset returns a named preset, or nil if unknown.
func GetPreset(name string) *Config {
	return Presets[name]
}

// ListPresets returns the available preset names.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
