package main

import (
	"context"
	"image"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pomo-mondreganto/lookalike/internal/config"
	"github.com/pomo-mondreganto/lookalike/internal/frames"
	"github.com/pomo-mondreganto/lookalike/internal/imghash"
	"github.com/pomo-mondreganto/lookalike/internal/keyframe"
	"github.com/pomo-mondreganto/lookalike/internal/logging"
	"github.com/pomo-mondreganto/lookalike/internal/progress"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

func main() {
	logging.Init()
	cfg := setupConfig()
	setLogLevel(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	checkInput(cfg)
	checkOutputDir(cfg.Output)
	cmp := createComparator()

	src, total, fps := openSource(ctx, cfg)
	logrus.Infof("Found %d frames to process", total)
	bar := progress.New(total, "Locating key frames (stage 1 of 2)")
	indices, err := keyframe.Extract(cmp, &cancellableSource{ctx, src}, keyframe.WithObserver(bar.Observe))
	bar.Finish()
	closeSource(src)
	if err != nil {
		logrus.Fatalf("Error locating key frames: %v", err)
	}
	logrus.Infof("Located %d key frames", len(indices))

	dir := filepath.Join(cfg.Output, frames.RunDirName(time.Now()))
	if err := os.Mkdir(dir, 0755); err != nil {
		logrus.Fatalf("Error creating directory: %v", err)
	}

	src, _, _ = openSource(ctx, cfg)
	bar = progress.New(len(indices), "Extracting key frames (stage 2 of 2)")
	err = frames.SaveKeyFrames(
		&cancellableSource{ctx, src},
		indices,
		dir,
		func(index int) string { return frames.Timestamp(index, fps) },
		bar.Report,
	)
	bar.Finish()
	closeSource(src)
	if err != nil {
		logrus.Fatalf("Error extracting key frames: %v", err)
	}
	logrus.Infof("Saved %d key frames to %s", len(indices), dir)
}

func setupConfig() *config.Config {
	config.CommonFlags(pflag.CommandLine)
	pflag.StringP("input", "i", "", "Input video file, or image directory with --sequence")
	pflag.StringP("output", "o", ".", "Existing directory to create the key frames directory in")
	pflag.Bool("sequence", false, "Treat input as a directory of consecutive frames")
	pflag.Float64("fps", 0, "Frame rate used for file names, probed from the video when 0")
	pflag.String("ffmpeg", "ffmpeg", "Path to ffmpeg binary")
	pflag.String("ffprobe", "ffprobe", "Path to ffprobe binary")
	return config.Get()
}

func setLogLevel(cfg *config.Config) {
	if err := logging.SetLevel(cfg.LogLevel); err != nil {
		logrus.Errorf("Error setting log level: %v", err)
		pflag.PrintDefaults()
		os.Exit(1)
	}
}

func checkInput(cfg *config.Config) {
	info, err := os.Stat(cfg.Input)
	if err != nil {
		logrus.Fatalf("Input '%s' does not exist: %v", cfg.Input, err)
	}
	if cfg.Sequence != info.IsDir() {
		if cfg.Sequence {
			logrus.Fatalf("Input '%s' is not a directory", cfg.Input)
		}
		logrus.Fatalf("Input '%s' is a directory, pass --sequence to read it as frames", cfg.Input)
	}
}

func checkOutputDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		logrus.Fatalf("Directory '%s' does not exist", path)
	}
}

func createComparator() *imghash.Comparator {
	cmp, err := imghash.NewComparator()
	if err != nil {
		logrus.Fatalf("Error creating comparator: %v", err)
	}
	return cmp
}

// openSource returns the stream, its frame count and the frame rate used for
// naming.
func openSource(ctx context.Context, cfg *config.Config) (frames.Source, int, float64) {
	if cfg.Sequence {
		seq, err := frames.OpenSequence(cfg.Input)
		if err != nil {
			logrus.Fatalf("Error opening sequence: %v", err)
		}
		return seq, seq.Len(), cfg.FPS
	}
	v, err := frames.OpenVideo(ctx, cfg.FFmpeg, cfg.FFprobe, cfg.Input)
	if err != nil {
		logrus.Fatalf("Error opening video: %v", err)
	}
	fps := cfg.FPS
	if fps <= 0 {
		fps = v.Info().FPS
	}
	return v, v.Info().Frames, fps
}

func closeSource(src frames.Source) {
	if err := src.Close(); err != nil {
		logrus.Warnf("Error closing source: %v", err)
	}
}

// cancellableSource stops the stream once ctx is done.
type cancellableSource struct {
	ctx context.Context
	frames.Source
}

func (s *cancellableSource) Next() (image.Image, error) {
	if err := s.ctx.Err(); err != nil {
		return nil, err
	}
	return s.Source.Next()
}
