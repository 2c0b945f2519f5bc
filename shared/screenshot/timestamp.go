package screenshot

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// DefaultFPS is the frame rate assumed when deriving frame indices for
// screenshot filenames. It is a naming aid, not the real stream rate.
const DefaultFPS = 30

// ParseTimestamp converts a timestamp string to seconds. Both the "MM:SS"
// (optionally "MM:SS.fff") form and a bare decimal second count are accepted.
// Values are passed through without bounds checking; callers are trusted to
// supply well-formed model output.
func ParseTimestamp(text string) (float64, error) {
	if strings.Contains(text, ":") {
		parts := strings.SplitN(text, ":", 2)
		minutes, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp %q: %w", text, err)
		}
		seconds, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp %q: %w", text, err)
		}
		return minutes*60 + seconds, nil
	}

	seconds, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q: %w", text, err)
	}
	return seconds, nil
}

// FilenameToken renders seconds as a fixed-width HHMMSSFF token, with the
// frame index computed from the fractional part at the given frame rate.
// The encoding is lossy: two timestamps within the same fps-quantized
// instant collide, which is acceptable for a display name.
func FilenameToken(seconds float64, fps int) string {
	if fps <= 0 {
		fps = DefaultFPS
	}

	total := int(math.Floor(seconds))
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	frame := int(math.Floor((seconds-float64(total))*float64(fps))) % fps

	return fmt.Sprintf("%02d%02d%02d%02d", hours, minutes, secs, frame)
}

var (
	whitespaceChars = regexp.MustCompile(`\s`)
	forbiddenChars  = regexp.MustCompile(`[/\\:*?"<>|]`)
)

// SanitizeFilename replaces whitespace and filesystem-reserved characters
// with underscores.
func SanitizeFilename(name string) string {
	name = whitespaceChars.ReplaceAllString(name, "_")
	return forbiddenChars.ReplaceAllString(name, "_")
}

// RemoveFileExtension strips the text after the last dot. Names without a
// dot, and hidden-file names whose only dot is the first character, are
// returned unchanged.
func RemoveFileExtension(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx <= 0 {
		return name
	}
	return name[:idx]
}

// Filename builds the deterministic screenshot filename for a frame of the
// given video at the given timestamp.
func Filename(videoName string, seconds float64, fps int) string {
	base := SanitizeFilename(RemoveFileExtension(videoName))
	return fmt.Sprintf("%s_%s.jpg", base, FilenameToken(seconds, fps))
}
