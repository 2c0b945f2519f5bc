package video

import (
	"path/filepath"
	"strings"
	"testing"

	"video2doc/shared/screenshot"
)

func TestPixelCrop(t *testing.T) {
	tests := []struct {
		name       string
		crop       screenshot.Crop
		width      int
		height     int
		x, y, w, h int
	}{
		{
			name:  "Standard HD box",
			crop:  screenshot.Crop{YMin: 100, XMin: 200, YMax: 500, XMax: 600},
			width: 1920, height: 1080,
			x: 384, y: 108, w: 768, h: 432,
		},
		{
			name:  "Full frame",
			crop:  screenshot.Crop{YMin: 0, XMin: 0, YMax: 1000, XMax: 1000},
			width: 1280, height: 720,
			x: 0, y: 0, w: 1280, h: 720,
		},
		{
			name:  "Degenerate zero-size box",
			crop:  screenshot.Crop{YMin: 500, XMin: 500, YMax: 500, XMax: 500},
			width: 1920, height: 1080,
			x: 960, y: 540, w: 1, h: 1,
		},
		{
			name:  "Out of range box clamps to frame",
			crop:  screenshot.Crop{YMin: 900, XMin: 900, YMax: 2000, XMax: 2000},
			width: 1000, height: 1000,
			x: 900, y: 900, w: 100, h: 100,
		},
		{
			name:  "Inverted box still yields minimum size",
			crop:  screenshot.Crop{YMin: 800, XMin: 800, YMax: 100, XMax: 100},
			width: 1000, height: 1000,
			x: 800, y: 800, w: 1, h: 1,
		},
		{
			name:  "Origin past right edge",
			crop:  screenshot.Crop{YMin: 0, XMin: 1500, YMax: 100, XMax: 1600},
			width: 640, height: 480,
			x: 639, y: 0, w: 1, h: 48,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, w, h := PixelCrop(tt.crop, tt.width, tt.height)
			if x != tt.x || y != tt.y || w != tt.w || h != tt.h {
				t.Errorf("PixelCrop(%+v, %d, %d) = (%d,%d,%d,%d), want (%d,%d,%d,%d)",
					tt.crop, tt.width, tt.height, x, y, w, h, tt.x, tt.y, tt.w, tt.h)
			}
		})
	}
}

func TestPixelCropStaysInsideFrame(t *testing.T) {
	boxes := []screenshot.Crop{
		{YMin: 0, XMin: 0, YMax: 1, XMax: 1},
		{YMin: 999, XMin: 999, YMax: 1000, XMax: 1000},
		{YMin: 0, XMin: 0, YMax: 5000, XMax: 5000},
		{YMin: 3000, XMin: 3000, YMax: 3001, XMax: 3001},
	}
	for _, c := range boxes {
		x, y, w, h := PixelCrop(c, 1920, 1080)
		if x < 0 || y < 0 || w < 1 || h < 1 || x+w > 1920 || y+h > 1080 {
			t.Errorf("PixelCrop(%+v) produced out-of-frame box (%d,%d,%d,%d)", c, x, y, w, h)
		}
	}
}

func TestNewExtractorDefaultsPolicy(t *testing.T) {
	e := NewExtractor("")
	if e.policy != FailAbort {
		t.Errorf("default policy = %s, want %s", e.policy, FailAbort)
	}
}

func TestExtractFramesFailurePolicy(t *testing.T) {
	// An ffmpeg path that cannot exist makes every frame fail, exercising
	// the policy switch without needing real media.
	targets := []Target{{Seconds: 1}, {Seconds: 2}}

	t.Run("AbortStopsOnFirstFailure", func(t *testing.T) {
		e := &Extractor{
			ffmpegPath:  filepath.Join(t.TempDir(), "ffmpeg"),
			ffprobePath: "ffprobe",
			policy:      FailAbort,
		}

		var reports []float64
		frames, err := e.ExtractFrames(t.Context(), "missing.mp4", targets, func(pct float64) {
			reports = append(reports, pct)
		})
		if err == nil {
			t.Fatal("expected abort policy to surface the decode failure")
		}
		if !strings.Contains(err.Error(), "frame extraction failed at 1.00s") {
			t.Errorf("error should name the failing timestamp, got %v", err)
		}
		if len(frames) != 0 {
			t.Errorf("expected no frames after abort, got %d", len(frames))
		}
		if len(reports) != 0 {
			t.Errorf("no progress expected before the aborting frame, got %v", reports)
		}
	})

	t.Run("SkipContinuesThroughFailures", func(t *testing.T) {
		e := &Extractor{
			ffmpegPath:  filepath.Join(t.TempDir(), "ffmpeg"),
			ffprobePath: "ffprobe",
			policy:      FailSkip,
		}

		var reports []float64
		frames, err := e.ExtractFrames(t.Context(), "missing.mp4", targets, func(pct float64) {
			reports = append(reports, pct)
		})
		if err != nil {
			t.Fatalf("skip policy must not fail the batch: %v", err)
		}
		if len(frames) != 0 {
			t.Errorf("expected no frames from a dead binary, got %d", len(frames))
		}
		if len(reports) != 2 || reports[0] != 50 || reports[1] != 100 {
			t.Errorf("progress should cover every target, got %v", reports)
		}
	})
}

func TestExtractFramesEmptyTargets(t *testing.T) {
	e := NewExtractor(FailAbort)
	frames, err := e.ExtractFrames(t.Context(), "does-not-matter.mp4", nil, nil)
	if err != nil {
		t.Fatalf("ExtractFrames with no targets returned error: %v", err)
	}
	if len(frames) != 0 {
		t.Errorf("expected no frames, got %d", len(frames))
	}
}
