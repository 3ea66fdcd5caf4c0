package frames

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Info describes the first video stream of a container. Width and Height
// are the stored dimensions, Rotation is the display rotation in degrees
// (0, 90, 180 or 270) that the decoder is told to ignore.
type Info struct {
	Width    int
	Height   int
	FPS      float64
	Frames   int
	Rotation int
}

type probeOutput struct {
	Streams []struct {
		Width         int    `json:"width"`
		Height        int    `json:"height"`
		AvgFrameRate  string `json:"avg_frame_rate"`
		RFrameRate    string `json:"r_frame_rate"`
		NbFrames      string `json:"nb_frames"`
		NbReadPackets string `json:"nb_read_packets"`
		Tags          struct {
			Rotate string `json:"rotate"`
		} `json:"tags"`
		SideDataList []struct {
			Rotation float64 `json:"rotation"`
		} `json:"side_data_list"`
	} `json:"streams"`
}

// Probe asks ffprobe for the geometry, rate and length of the video at path.
func Probe(ctx context.Context, ffprobe, path string) (*Info, error) {
	cmd := exec.CommandContext(ctx, ffprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-count_packets",
		"-show_entries", "stream=width,height,avg_frame_rate,r_frame_rate,nb_frames,nb_read_packets:stream_tags=rotate:stream_side_data=rotation",
		"-of", "json",
		path,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("running ffprobe: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return parseProbe(out)
}

func parseProbe(data []byte) (*Info, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parsing ffprobe output: %w", err)
	}
	if len(out.Streams) == 0 {
		return nil, fmt.Errorf("%w: no video stream", ErrNoFrames)
	}
	s := out.Streams[0]
	info := Info{Width: s.Width, Height: s.Height}

	info.FPS = parseRate(s.AvgFrameRate)
	if info.FPS == 0 {
		info.FPS = parseRate(s.RFrameRate)
	}
	if n, err := strconv.Atoi(s.NbFrames); err == nil {
		info.Frames = n
	} else if n, err := strconv.Atoi(s.NbReadPackets); err == nil {
		info.Frames = n
	}

	if r, err := strconv.Atoi(s.Tags.Rotate); err == nil {
		info.Rotation = normalizeRotation(r)
	}
	for _, sd := range s.SideDataList {
		if sd.Rotation != 0 {
			info.Rotation = normalizeRotation(int(math.Round(sd.Rotation)))
		}
	}

	if info.Frames <= 0 {
		return nil, ErrNoFrames
	}
	if info.Width <= 0 || info.Height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", info.Width, info.Height)
	}
	return &info, nil
}

func normalizeRotation(deg int) int {
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return deg
}

// parseRate converts an ffprobe rational such as "30000/1001". Unknown
// rates yield 0.
func parseRate(s string) float64 {
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

// OpenVideo probes path and starts decoding it to raw RGBA frames.
func OpenVideo(ctx context.Context, ffmpeg, ffprobe, path string) (*Video, error) {
	info, err := Probe(ctx, ffprobe, path)
	if err != nil {
		return nil, fmt.Errorf("probing video: %w", err)
	}

	// Frames are read with the stored geometry ffprobe reports.
	cmd := exec.CommandContext(ctx, ffmpeg,
		"-v", "error",
		"-noautorotate",
		"-i", path,
		"-map", "0:v:0",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("piping ffmpeg output: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting ffmpeg: %w", err)
	}
	if info.Rotation != 0 {
		logrus.Infof("Video %s is displayed rotated by %d degrees, frames keep the stored orientation", path, info.Rotation)
	}
	logrus.Debugf("Decoding %s: %+v", path, *info)
	return &Video{
		info:   *info,
		cmd:    cmd,
		reader: newRawReader(stdout, info.Width, info.Height),
	}, nil
}

// Video streams the frames of one video file through ffmpeg.
type Video struct {
	info   Info
	cmd    *exec.Cmd
	reader *rawReader
	closed bool
}

func (v *Video) Info() Info {
	return v.info
}

func (v *Video) Next() (image.Image, error) {
	img, err := v.reader.next()
	if errors.Is(err, io.EOF) && v.reader.frames < v.info.Frames {
		logrus.Warnf("Stream ended after frame %d of %d", v.reader.frames, v.info.Frames)
	}
	return img, err
}

// Close stops ffmpeg. Decoding errors are reported only when the whole
// stream was consumed.
func (v *Video) Close() error {
	if v.closed {
		return nil
	}
	v.closed = true
	if !v.reader.eof {
		_ = v.cmd.Process.Kill()
		_ = v.cmd.Wait()
		return nil
	}
	if err := v.cmd.Wait(); err != nil {
		return fmt.Errorf("waiting for ffmpeg: %w", err)
	}
	return nil
}

// rawReader cuts a rawvideo rgba byte stream into frames.
type rawReader struct {
	r      io.Reader
	width  int
	height int
	frames int
	eof    bool
}

func newRawReader(r io.Reader, width, height int) *rawReader {
	return &rawReader{r: r, width: width, height: height}
}

func (r *rawReader) next() (image.Image, error) {
	if r.eof {
		return nil, io.EOF
	}
	img := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	_, err := io.ReadFull(r.r, img.Pix)
	switch {
	case err == nil:
		r.frames++
		return img, nil
	case errors.Is(err, io.EOF):
		r.eof = true
		return nil, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		r.eof = true
		logrus.Warnf("Dropping truncated frame %d", r.frames)
		return nil, io.EOF
	default:
		return nil, fmt.Errorf("reading raw frame: %w", err)
	}
}
