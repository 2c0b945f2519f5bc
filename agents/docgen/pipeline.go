package docgen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"video2doc/internal/models"
	"video2doc/shared/gemini"
	"video2doc/shared/screenshot"
	"video2doc/shared/video"
)

// Configuration failures are detected before any remote call and terminate
// the run immediately.
var (
	ErrNoVideoSource     = errors.New("no video source provided")
	ErrMissingCredential = errors.New("no generation credential configured")
)

// Observer receives progress updates and log entries for one run. Progress
// never decreases within a run; logs only append. The pipeline owns the
// observer exclusively for the run's duration and calls it synchronously.
type Observer interface {
	Progress(percent float64, status string)
	Log(entry models.LogEntry)
}

// NopObserver discards everything.
type NopObserver struct{}

func (NopObserver) Progress(percent float64, status string) {}
func (NopObserver) Log(entry models.LogEntry)               {}

// FrameExtractor is the local frame-production dependency of the pipeline.
type FrameExtractor interface {
	ExtractFrames(ctx context.Context, path string, targets []video.Target, onProgress func(percent float64)) ([]video.Frame, error)
}

// Request describes one generation run.
type Request struct {
	Sources            []models.VideoSource
	Prompt             string
	Model              string
	ExtractScreenshots bool
	Frequency          screenshot.Frequency
	CropRegions        bool
	FPS                int
}

// Pipeline drives a run end to end: per-video upload, per-video generation,
// an optional merge pass for multi-video inputs, placeholder-driven frame
// extraction, and Markdown reconciliation. Phases execute strictly
// sequentially; there is no overlap between upload, generation, and
// extraction.
type Pipeline struct {
	generator gemini.Generator
	extractor FrameExtractor
	observer  Observer

	maxProgress float64
}

func NewPipeline(generator gemini.Generator, extractor FrameExtractor, observer Observer) *Pipeline {
	if observer == nil {
		observer = NopObserver{}
	}
	return &Pipeline{
		generator: generator,
		extractor: extractor,
		observer:  observer,
	}
}

// Progress band layout across one run. Uploads take the first half, split
// evenly per video; extraction takes 70-90 the same way.
const (
	uploadBandEnd     = 50.0
	generateBandEnd   = 65.0
	mergeBandEnd      = 70.0
	extractionBandEnd = 90.0
)

const multiVideoPromptFormat = "This is video %d of %d. Summarize this video thoroughly in Markdown so the summaries can later be merged into a single document. Keep every screenshot reference."

const mergeInstruction = "Combine the following partial documents into one cohesive Markdown document. " +
	"Preserve every screenshot marker of the form [Screenshot: <filename> | <timestamp>] exactly as written, without reformatting or dropping any."

// Run executes the pipeline for one request. On failure the error is logged,
// the visible status switches to Failed, and everything produced so far is
// left in place for inspection; there is no rollback and no retry.
func (p *Pipeline) Run(ctx context.Context, req *Request) (*models.GeneratedDocument, error) {
	p.maxProgress = 0

	if len(req.Sources) == 0 {
		return nil, p.fail(ErrNoVideoSource)
	}
	if p.generator == nil {
		return nil, p.fail(ErrMissingCredential)
	}

	n := len(req.Sources)
	p.progress(0, "Starting")
	p.logf(models.LogInfo, "Starting run with %d video(s)", n)

	// Crop regions are only honored for single-video runs: the
	// filename-tagged marker form carries no coordinates, so a merge pass
	// would silently drop them.
	cropEnabled := req.CropRegions && n == 1

	var extraInstruction string
	if req.ExtractScreenshots {
		extraInstruction = screenshot.PromptInstruction(req.Frequency, cropEnabled)
	}

	intermediates := make([]string, 0, n)
	for i, src := range req.Sources {
		ref, err := p.uploadSource(ctx, i, n, src)
		if err != nil {
			return nil, p.fail(err)
		}

		p.progress(uploadBandEnd+float64(i)/float64(n)*(generateBandEnd-uploadBandEnd),
			fmt.Sprintf("Generating document %d/%d...", i+1, n))
		p.logf(models.LogInfo, "Sending generation request for %s to %s", src.Name, req.Model)

		prompt := req.Prompt
		if n > 1 {
			prompt = fmt.Sprintf(multiVideoPromptFormat, i+1, n)
		}

		text, err := p.generator.Generate(ctx, req.Model, prompt, ref, src.MIMEType, extraInstruction)
		if err != nil {
			return nil, p.fail(fmt.Errorf("generation failed for %s: %w", src.Name, err))
		}
		p.logf(models.LogSuccess, "Generated intermediate document for %s (%d chars)", src.Name, len(text))

		if n > 1 {
			text = screenshot.TagWithFilename(text, src.Name)
		}
		intermediates = append(intermediates, text)
	}

	working := intermediates[0]
	if n > 1 {
		p.progress(generateBandEnd, "Merging documents...")
		merged, err := p.mergeDocuments(ctx, req, intermediates)
		if err != nil {
			return nil, p.fail(err)
		}
		working = merged
		p.logf(models.LogSuccess, "Merged %d intermediate documents", n)
	}
	p.progress(mergeBandEnd, "Generation complete")

	var images []models.ExtractedImage
	if req.ExtractScreenshots {
		var err error
		working, images, err = p.extractAndReconcile(ctx, req, working)
		if err != nil {
			return nil, p.fail(err)
		}
	}
	p.progress(extractionBandEnd, "Assembling document...")

	referenced := referencedImages(working, images)
	p.progress(100, "Done")
	p.logf(models.LogSuccess, "Run complete: %d chars of Markdown, %d screenshot(s)", len(working), len(referenced))

	return &models.GeneratedDocument{
		Markdown: working,
		Images:   referenced,
	}, nil
}

// uploadSource ships a file source to the backend, or passes a YouTube URL
// through untouched. Each video owns a 1/N slice of the upload band.
func (p *Pipeline) uploadSource(ctx context.Context, i, n int, src models.VideoSource) (string, error) {
	slice := uploadBandEnd / float64(n)
	base := float64(i) * slice
	status := fmt.Sprintf("Uploading video %d/%d...", i+1, n)

	if src.Type == models.SourceYouTube {
		p.logf(models.LogInfo, "YouTube source %s: skipping upload, passing URL to the model", src.Name)
		p.progress(base+slice, status)
		return src.URL, nil
	}

	p.progress(base, status)

	f, err := os.Open(src.Path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", src.Path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", src.Path, err)
	}
	p.logf(models.LogInfo, "Uploading %s (%.2f MB)", src.Name, float64(info.Size())/1024/1024)

	ref, err := p.generator.Upload(ctx, f, info.Size(), src.MIMEType, func(up gemini.UploadProgress) {
		if up.Total > 0 {
			p.progress(base+float64(up.Sent)/float64(up.Total)*slice, status)
		}
	})
	if err != nil {
		return "", fmt.Errorf("upload failed for %s: %w", src.Name, err)
	}
	p.logf(models.LogSuccess, "Upload complete for %s", src.Name)

	return ref, nil
}

// mergeDocuments runs the single text-only merge generation over all
// intermediate documents.
func (p *Pipeline) mergeDocuments(ctx context.Context, req *Request, intermediates []string) (string, error) {
	var b strings.Builder
	b.WriteString(mergeInstruction)
	b.WriteString("\n\nOriginal request:\n")
	b.WriteString(req.Prompt)
	for i, doc := range intermediates {
		fmt.Fprintf(&b, "\n\n--- Document %d: %s ---\n\n", i+1, req.Sources[i].Name)
		b.WriteString(doc)
	}

	merged, err := p.generator.Generate(ctx, req.Model, b.String(), "", "", "")
	if err != nil {
		return "", fmt.Errorf("merge generation failed: %w", err)
	}
	return merged, nil
}

// extractAndReconcile walks the original videos in order, extracts the
// frames their placeholders call for, and swaps the placeholders for image
// links. Other videos' markers stay intact until their turn. A placeholder
// with no extracted frame within tolerance is deliberately left as-is.
func (p *Pipeline) extractAndReconcile(ctx context.Context, req *Request, working string) (string, []models.ExtractedImage, error) {
	n := len(req.Sources)
	p.progress(mergeBandEnd, "Extracting screenshots...")

	var images []models.ExtractedImage
	for vi, src := range req.Sources {
		slice := (extractionBandEnd - mergeBandEnd) / float64(n)
		base := mergeBandEnd + float64(vi)*slice
		status := fmt.Sprintf("Extracting screenshots %d/%d...", vi+1, n)

		if src.Type == models.SourceYouTube {
			p.logf(models.LogInfo, "YouTube source %s: no local frames available, leaving markers in place", src.Name)
			p.progress(base+slice, status)
			continue
		}

		var placeholders []screenshot.Placeholder
		if n == 1 {
			placeholders = screenshot.ParsePlaceholders(working)
		} else {
			placeholders = screenshot.ParseTagged(working, src.Name)
		}
		if len(placeholders) == 0 {
			p.logf(models.LogInfo, "No screenshot markers for %s", src.Name)
			p.progress(base+slice, status)
			continue
		}
		p.logf(models.LogInfo, "Extracting %d frame(s) from %s", len(placeholders), src.Name)

		targets := make([]video.Target, len(placeholders))
		for i, ph := range placeholders {
			targets[i] = video.Target{Seconds: ph.Seconds, Crop: ph.Crop}
		}

		frames, err := p.extractor.ExtractFrames(ctx, src.Path, targets, func(pct float64) {
			p.progress(base+pct/100*slice, status)
		})
		if err != nil {
			return "", images, fmt.Errorf("frame extraction failed for %s: %w", src.Name, err)
		}

		refs := make([]screenshot.ImageRef, 0, len(frames))
		for _, fr := range frames {
			filename := screenshot.Filename(src.Name, fr.Target.Seconds, req.FPS)
			refs = append(refs, screenshot.ImageRef{Seconds: fr.Target.Seconds, Filename: filename})
			images = append(images, models.ExtractedImage{
				Data:     fr.Data,
				Filename: filename,
				Seconds:  fr.Target.Seconds,
			})
		}

		if n == 1 {
			working = screenshot.ReplaceInMarkdown(working, refs)
		} else {
			working = screenshot.ReplaceTagged(working, src.Name, refs)
		}
		p.logf(models.LogSuccess, "Extracted %d frame(s) from %s", len(frames), src.Name)
	}

	return working, images, nil
}

// referencedImages keeps only images whose filename ended up referenced in
// the document, deduplicated by filename. A frame whose placeholder missed
// the match tolerance is dropped here.
func referencedImages(markdown string, images []models.ExtractedImage) []models.ExtractedImage {
	var kept []models.ExtractedImage
	seen := make(map[string]bool)
	for _, img := range images {
		if seen[img.Filename] {
			continue
		}
		if strings.Contains(markdown, "./images/"+img.Filename) {
			seen[img.Filename] = true
			kept = append(kept, img)
		}
	}
	return kept
}

// progress pushes a monotonically non-decreasing percentage with a status
// phrase.
func (p *Pipeline) progress(percent float64, status string) {
	if percent < p.maxProgress {
		percent = p.maxProgress
	}
	p.maxProgress = percent
	p.observer.Progress(percent, status)
}

func (p *Pipeline) logf(logType models.LogType, format string, args ...any) {
	p.observer.Log(models.LogEntry{
		Timestamp: time.Now(),
		Message:   fmt.Sprintf(format, args...),
		Type:      logType,
	})
}

// fail records the error as a log entry and flips the visible status to
// Failed. Partial results already handed to the observer stay available.
func (p *Pipeline) fail(err error) error {
	p.logf(models.LogError, "%s", err.Error())
	p.observer.Progress(p.maxProgress, "Failed")
	return err
}
