package screenshot

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Crop is a bounding box in 0-1000 units relative to the video frame.
// Malformed boxes are carried through unchanged; the frame extractor clamps
// them against the real pixel dimensions.
type Crop struct {
	YMin int `json:"ymin"`
	XMin int `json:"xmin"`
	YMax int `json:"ymax"`
	XMax int `json:"xmax"`
}

// Placeholder is one parsed screenshot marker occurrence. The exact matched
// substring is preserved so the later replacement can key on the original
// text rather than a reconstruction.
type Placeholder struct {
	Placeholder  string
	TimestampStr string
	Seconds      float64
	Crop         *Crop
}

// ImageRef pairs an extracted image's timestamp with its filename for
// placeholder substitution.
type ImageRef struct {
	Seconds  float64
	Filename string
}

// MatchTolerance is the maximum distance, in seconds, between a placeholder
// timestamp and an extracted frame for the two to be considered the same
// moment. The comparison is strict (absolute difference < 0.5).
const MatchTolerance = 0.5

const timestampPattern = `\d{1,2}:\d{2}(?:\.\d+)?|\d+(?:\.\d+)?`

var (
	// [Screenshot: 01:23s] or [Screenshot: 01:23s | ymin,xmin,ymax,xmax],
	// case-insensitive, timestamp as MM:SS(.fff) or bare decimal.
	placeholderRegexp = regexp.MustCompile(
		`(?i)\[Screenshot:\s*(` + timestampPattern + `)\s*s?(?:\s*\|\s*(\d+,\d+,\d+,\d+))?\]`)

	// Plain form only, used when rewriting per-video documents before a merge.
	plainRegexp = regexp.MustCompile(
		`(?i)\[Screenshot:\s*(` + timestampPattern + `)\s*s?\]`)
)

// ParsePlaceholders scans markdown for all screenshot markers in
// left-to-right order.
func ParsePlaceholders(markdown string) []Placeholder {
	var placeholders []Placeholder
	for _, m := range placeholderRegexp.FindAllStringSubmatch(markdown, -1) {
		seconds, err := ParseTimestamp(m[1])
		if err != nil {
			continue
		}
		placeholders = append(placeholders, Placeholder{
			Placeholder:  m[0],
			TimestampStr: m[1],
			Seconds:      seconds,
			Crop:         parseCrop(m[2]),
		})
	}
	return placeholders
}

func parseCrop(coords string) *Crop {
	if coords == "" {
		return nil
	}
	parts := strings.Split(coords, ",")
	if len(parts) != 4 {
		return nil
	}
	values := make([]int, 4)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil
		}
		values[i] = v
	}
	return &Crop{YMin: values[0], XMin: values[1], YMax: values[2], XMax: values[3]}
}

// ReplaceInMarkdown substitutes screenshot placeholders with image links.
// Placeholders are processed in descending timestamp order before
// substitution so that a placeholder whose matched text is a substring of
// another is never corrupted by a prior replacement. Each placeholder takes
// the first image within MatchTolerance of its timestamp; placeholders with
// no match are left untouched. The ordinal in the link text is the
// placeholder's 1-based position in the descending-sorted sequence.
func ReplaceInMarkdown(markdown string, images []ImageRef) string {
	result := markdown

	sorted := ParsePlaceholders(markdown)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Seconds > sorted[j].Seconds
	})

	for i, ph := range sorted {
		for _, img := range images {
			if math.Abs(img.Seconds-ph.Seconds) < MatchTolerance {
				link := fmt.Sprintf("![Screenshot %d](./images/%s)", i+1, img.Filename)
				result = strings.Replace(result, ph.Placeholder, link, 1)
				break
			}
		}
	}

	return result
}

// TagWithFilename rewrites every plain placeholder in a per-video document
// to the filename-tagged form [Screenshot: <file> | <ts>] so screenshot
// provenance survives the multi-video merge step. Crop-augmented markers are
// left alone; the tagged form carries no coordinates.
func TagWithFilename(markdown, filename string) string {
	return plainRegexp.ReplaceAllStringFunc(markdown, func(match string) string {
		sub := plainRegexp.FindStringSubmatch(match)
		return "[Screenshot: " + filename + " | " + sub[1] + "]"
	})
}

func taggedRegexp(filename string) *regexp.Regexp {
	return regexp.MustCompile(
		`(?i)\[Screenshot:\s*` + regexp.QuoteMeta(filename) + `\s*\|\s*(` + timestampPattern + `)\s*\]`)
}

// ParseTagged scans markdown for markers tagged with the given filename, in
// left-to-right order.
func ParseTagged(markdown, filename string) []Placeholder {
	var placeholders []Placeholder
	for _, m := range taggedRegexp(filename).FindAllStringSubmatch(markdown, -1) {
		seconds, err := ParseTimestamp(m[1])
		if err != nil {
			continue
		}
		placeholders = append(placeholders, Placeholder{
			Placeholder:  m[0],
			TimestampStr: m[1],
			Seconds:      seconds,
		})
	}
	return placeholders
}

// ReplaceTagged substitutes the markers tagged with the given filename,
// with the same ordering, tolerance, and ordinal semantics as
// ReplaceInMarkdown. Markers tagged with other filenames are untouched.
func ReplaceTagged(markdown, filename string, images []ImageRef) string {
	result := markdown

	sorted := ParseTagged(markdown, filename)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Seconds > sorted[j].Seconds
	})

	for i, ph := range sorted {
		for _, img := range images {
			if math.Abs(img.Seconds-ph.Seconds) < MatchTolerance {
				link := fmt.Sprintf("![Screenshot %d](./images/%s)", i+1, img.Filename)
				result = strings.Replace(result, ph.Placeholder, link, 1)
				break
			}
		}
	}

	return result
}
