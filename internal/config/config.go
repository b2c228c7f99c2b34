package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultFrameRate    = 60
	DefaultSampleRate   = 44100
	DefaultLookaheadMs  = 200
	DefaultPollMs       = 50
	DefaultMasterVolume = 0.8
	DefaultMinSceneSec  = 10.0
)

// Config holds player and renderer settings. Scene content always comes
// from the script; this only tunes how it is played back and exported.
type Config struct {
	FrameRate    int     `yaml:"frame_rate"`
	MasterVolume float64 `yaml:"master_volume"`
	Mute         bool    `yaml:"mute"`

	Audio  AudioConfig  `yaml:"audio"`
	Export ExportConfig `yaml:"export"`

	MinSceneSec float64 `yaml:"min_scene_sec"`
}

type AudioConfig struct {
	SampleRate  int     `yaml:"sample_rate"`
	LookaheadMs float64 `yaml:"lookahead_ms"`
	PollMs      int     `yaml:"poll_ms"`
}

type ExportConfig struct {
	OutDir    string `yaml:"out_dir"`
	FrameRate int    `yaml:"frame_rate"`
}

func DefaultConfig() *Config {
	return &Config{
		FrameRate:    DefaultFrameRate,
		MasterVolume: DefaultMasterVolume,
		Audio: AudioConfig{
			SampleRate:  DefaultSampleRate,
			LookaheadMs: DefaultLookaheadMs,
			PollMs:      DefaultPollMs,
		},
		Export: ExportConfig{
			OutDir:    "frames",
			FrameRate: 30,
		},
		MinSceneSec: DefaultMinSceneSec,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects settings the player cannot run with.
func (c *Config) Validate() error {
	if c.FrameRate <= 0 {
		return fmt.Errorf("frame_rate must be positive, got %d", c.FrameRate)
	}
	if c.MasterVolume < 0 || c.MasterVolume > 1 {
		return fmt.Errorf("master_volume must be in [0,1], got %v", c.MasterVolume)
	}
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be positive, got %d", c.Audio.SampleRate)
	}
	if c.Audio.LookaheadMs <= 0 {
		return fmt.Errorf("audio.lookahead_ms must be positive, got %v", c.Audio.LookaheadMs)
	}
	if c.Export.FrameRate <= 0 {
		return fmt.Errorf("export.frame_rate must be positive, got %d", c.Export.FrameRate)
	}
	return nil
}
