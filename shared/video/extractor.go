package video

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"video2doc/shared/screenshot"
)

// Metadata holds the intrinsic properties read from a video without a full
// decode.
type Metadata struct {
	Duration float64
	Width    int
	Height   int
}

// Target is one frame to extract: a timestamp plus an optional crop region
// in 0-1000 relative units.
type Target struct {
	Seconds float64
	Crop    *screenshot.Crop
}

// Frame is one extracted image paired with the target that produced it.
type Frame struct {
	Target Target
	Data   []byte
}

// FailurePolicy controls what happens when a single frame fails to decode
// mid-batch.
type FailurePolicy string

const (
	// FailAbort stops the batch on the first decode failure.
	FailAbort FailurePolicy = "abort"
	// FailSkip logs the failure and continues with the remaining targets.
	FailSkip FailurePolicy = "skip"
)

// Extractor produces single frames from video files by driving ffmpeg.
type Extractor struct {
	ffmpegPath  string
	ffprobePath string
	policy      FailurePolicy
}

func NewExtractor(policy FailurePolicy) *Extractor {
	if policy == "" {
		policy = FailAbort
	}
	return &Extractor{
		ffmpegPath:  "ffmpeg",
		ffprobePath: "ffprobe",
		policy:      policy,
	}
}

// Available reports whether the ffmpeg binaries can be found on PATH.
func (e *Extractor) Available() bool {
	if _, err := exec.LookPath(e.ffmpegPath); err != nil {
		return false
	}
	_, err := exec.LookPath(e.ffprobePath)
	return err == nil
}

type probeOutput struct {
	Streams []struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe reads duration and pixel dimensions through ffprobe, without
// decoding the stream.
func (e *Extractor) Probe(ctx context.Context, path string) (*Metadata, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("video file not accessible at %q: %w", path, err)
	}

	cmd := exec.CommandContext(ctx, e.ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-show_entries", "format=duration",
		"-of", "json",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed for %q: %w", path, err)
	}

	var probed probeOutput
	if err := json.Unmarshal(out, &probed); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	if len(probed.Streams) == 0 {
		return nil, fmt.Errorf("no video stream found in %q", path)
	}

	duration, _ := strconv.ParseFloat(probed.Format.Duration, 64)
	return &Metadata{
		Duration: duration,
		Width:    probed.Streams[0].Width,
		Height:   probed.Streams[0].Height,
	}, nil
}

// PixelCrop converts a 0-1000 relative crop box to absolute pixels against
// the probed frame dimensions, clamped so the origin stays inside the frame,
// the box is at least 1x1, and the box never extends past the frame edge.
// Degenerate or out-of-range boxes from a misbehaving model therefore never
// break extraction.
func PixelCrop(c screenshot.Crop, width, height int) (x, y, w, h int) {
	x = int(math.Round(float64(c.XMin) / 1000 * float64(width)))
	y = int(math.Round(float64(c.YMin) / 1000 * float64(height)))
	w = int(math.Round(float64(c.XMax-c.XMin) / 1000 * float64(width)))
	h = int(math.Round(float64(c.YMax-c.YMin) / 1000 * float64(height)))

	x = clamp(x, 0, width-1)
	y = clamp(y, 0, height-1)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if x+w > width {
		w = width - x
	}
	if y+h > height {
		h = height - y
	}
	return x, y, w, h
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ExtractFrames seeks to each target timestamp and decodes exactly one
// frame, optionally cropped. Frames come back in target order. Progress is
// reported synchronously after each completed frame as (completed/total)*100.
// A decode failure either aborts the batch or skips the target, depending on
// the extractor's failure policy.
func (e *Extractor) ExtractFrames(ctx context.Context, path string, targets []Target, onProgress func(percent float64)) ([]Frame, error) {
	if len(targets) == 0 {
		return nil, nil
	}

	var meta *Metadata
	for _, t := range targets {
		if t.Crop != nil {
			m, err := e.Probe(ctx, path)
			if err != nil {
				return nil, fmt.Errorf("failed to probe video for crop conversion: %w", err)
			}
			meta = m
			break
		}
	}

	workDir, err := os.MkdirTemp("", "video2doc-frames")
	if err != nil {
		return nil, fmt.Errorf("failed to create frame work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	frames := make([]Frame, 0, len(targets))
	total := len(targets)

	for i, target := range targets {
		outPath := filepath.Join(workDir, fmt.Sprintf("frame_%d.jpg", i))

		// -ss before -i seeks instead of decoding up to the timestamp.
		args := []string{
			"-ss", strconv.FormatFloat(target.Seconds, 'f', -1, 64),
			"-i", path,
			"-frames:v", "1",
			"-q:v", "2",
		}
		if target.Crop != nil {
			x, y, w, h := PixelCrop(*target.Crop, meta.Width, meta.Height)
			args = append(args, "-vf", fmt.Sprintf("crop=%d:%d:%d:%d", w, h, x, y))
		}
		args = append(args, "-y", outPath)

		cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
		output, err := cmd.CombinedOutput()
		if err == nil {
			var data []byte
			data, err = os.ReadFile(outPath)
			if err == nil {
				frames = append(frames, Frame{Target: target, Data: data})
			}
		} else {
			err = fmt.Errorf("ffmpeg failed: %v\nOutput: %s", err, string(output))
		}

		if err != nil {
			if e.policy == FailAbort {
				return nil, fmt.Errorf("frame extraction failed at %.2fs: %w", target.Seconds, err)
			}
			log.Printf("Warning: skipping frame at %.2fs: %v", target.Seconds, err)
		}

		if onProgress != nil {
			onProgress(float64(i+1) / float64(total) * 100)
		}
	}

	return frames, nil
}
