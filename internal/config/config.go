package config

import (
	"fmt"
	"runtime"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "LOOKALIKE"

type Config struct {
	LogLevel string  `mapstructure:"log_level"`
	Data     string  `mapstructure:"data"`
	Input    string  `mapstructure:"input"`
	Output   string  `mapstructure:"output"`
	Exclude  string  `mapstructure:"exclude"`
	Workers  int     `mapstructure:"workers"`
	FFmpeg   string  `mapstructure:"ffmpeg"`
	FFprobe  string  `mapstructure:"ffprobe"`
	FPS      float64 `mapstructure:"fps"`
	NoCache  bool    `mapstructure:"no_cache"`
	Save     bool    `mapstructure:"save"`
	Sequence bool    `mapstructure:"sequence"`
	List     bool    `mapstructure:"list"`
	Remove   string  `mapstructure:"remove"`
	Yes      bool    `mapstructure:"yes"`
}

// CommonFlags registers the flags shared by all commands.
func CommonFlags(fs *pflag.FlagSet) {
	fs.String("log_level", "INFO", "Log level {INFO|DEBUG|WARNING|ERROR}")
	fs.StringP("data", "d", "data", "Data directory")
	fs.IntP("workers", "w", runtime.NumCPU(), "Number of decoding workers")
}

// Load binds fs into v, enables environment overrides and decodes the result.
func Load(v *viper.Viper, fs *pflag.FlagSet) (*Config, error) {
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("binding flags: %w", err)
	}
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &cfg, nil
}

// Get parses the command line into the global viper instance.
func Get() *Config {
	pflag.Parse()
	cfg, err := Load(viper.GetViper(), pflag.CommandLine)
	if err != nil {
		logrus.Fatalf("Error loading config: %v", err)
	}
	logrus.Debugf("Got config: %+v", *cfg)
	return cfg
}
