package docgen

import (
	"context"
	"fmt"
	"log"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"video2doc/internal/models"
	"video2doc/shared/archive"
	"video2doc/shared/config"
	"video2doc/shared/email"
	"video2doc/shared/gemini"
	"video2doc/shared/scheduler"
	"video2doc/shared/screenshot"
	"video2doc/shared/storage"
	"video2doc/shared/video"
)

// videoExtensions are the inbox file types picked up by a watch-mode scan.
var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
	".avi":  true,
}

// Agent implements the scheduler.Agent interface: it scans the inbox
// directory for new videos and turns each one into a packaged document.
type Agent struct {
	config      *config.Config
	generator   gemini.Generator
	extractor   *video.Extractor
	tracker     *storage.ProcessedTracker
	emailSender *email.Sender
}

func NewAgent(cfg *config.Config) *Agent {
	return &Agent{
		config: cfg,
	}
}

func (a *Agent) Name() string {
	return "Video Document Generator"
}

func (a *Agent) Initialize() error {
	log.Printf("Initializing %s...", a.Name())

	if a.generator == nil {
		client, err := gemini.NewClient(context.Background(), a.config.AI.GeminiAPIKey,
			time.Duration(a.config.AI.UploadTimeoutMinutes)*time.Minute)
		if err != nil {
			return fmt.Errorf("failed to create Gemini client: %w", err)
		}
		a.generator = client
		log.Println("Gemini client initialized")
	}

	if a.extractor == nil {
		a.extractor = video.NewExtractor(video.FailurePolicy(a.config.Screenshots.FailurePolicy))
		if !a.extractor.Available() {
			log.Println("Warning: ffmpeg/ffprobe not found on PATH; screenshot extraction will fail")
		}
	}

	if a.tracker == nil {
		// Remember processed videos for 30 days to avoid regenerating
		// documents for files that linger in the inbox.
		tracker, err := storage.NewProcessedTracker("data", 30*24*time.Hour)
		if err != nil {
			return fmt.Errorf("failed to create processed tracker: %w", err)
		}
		a.tracker = tracker
		log.Printf("Processed tracker initialized (%d videos tracked)", tracker.Count())
	}

	if a.emailSender == nil && a.config.Email.Enabled() {
		a.emailSender = email.NewSender(&a.config.Email)
		log.Println("Email sender initialized")
	}

	return nil
}

// RunMetrics summarizes one inbox scan.
type RunMetrics struct {
	Found     int
	Processed int
	Skipped   int
	Failed    int
}

func (m RunMetrics) GetSummary() string {
	return fmt.Sprintf("found %d videos, generated %d documents, failed %d", m.Found, m.Processed, m.Failed)
}

// RunOnce scans the inbox once, processing every new video sequentially.
func (a *Agent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	startTime := time.Now()

	sources, keys, skipped, err := a.scanInbox()
	if err != nil {
		return fmt.Errorf("failed to scan inbox %s: %w", a.config.Watch.InboxDir, err)
	}

	metrics := RunMetrics{Found: len(sources) + skipped, Skipped: skipped}
	if len(sources) == 0 {
		log.Println("No new videos found")
		if events != nil && events.OnSuccess != nil {
			events.OnSuccess(metrics, time.Since(startTime))
		}
		return nil
	}

	log.Printf("Found %d new video(s) in %s", len(sources), a.config.Watch.InboxDir)

	if err := os.MkdirAll(a.config.Output.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	report := &models.RunReport{Date: time.Now()}
	for i, src := range sources {
		log.Printf("Processing video %d/%d: %s", i+1, len(sources), src.Name)

		summary, err := a.processVideo(ctx, src)
		if err != nil {
			log.Printf("Warning: failed to process %s: %v", src.Name, err)
			metrics.Failed++
			report.Failed++
			if metrics.Failed > len(sources)/2 {
				return fmt.Errorf("too many generation failures (%d/%d), stopping", metrics.Failed, i+1)
			}
			continue
		}

		metrics.Processed++
		report.Documents = append(report.Documents, *summary)
		if err := a.tracker.MarkProcessed(keys[i]); err != nil {
			log.Printf("Warning: failed to mark %s as processed: %v", src.Name, err)
		}
	}

	if a.emailSender != nil {
		if err := a.emailSender.SendRunReport(report); err != nil {
			log.Printf("Warning: failed to send run report email: %v", err)
			if events != nil && events.OnPartialFailure != nil {
				events.OnPartialFailure(err, time.Since(startTime))
			}
		}
	}

	if events != nil && events.OnSuccess != nil {
		events.OnSuccess(metrics, time.Since(startTime))
	}
	log.Printf("Scan complete: %s", metrics.GetSummary())
	return nil
}

func (a *Agent) processVideo(ctx context.Context, src models.VideoSource) (*models.DocumentSummary, error) {
	pipeline := NewPipeline(a.generator, a.extractor, &logObserver{})

	doc, err := pipeline.Run(ctx, &Request{
		Sources:            []models.VideoSource{src},
		Prompt:             a.config.Watch.Prompt,
		Model:              a.config.AI.Model,
		ExtractScreenshots: true,
		Frequency:          screenshot.Frequency(a.config.Screenshots.Frequency),
		CropRegions:        a.config.Screenshots.CropRegions,
		FPS:                a.config.Screenshots.FPS,
	})
	if err != nil {
		return nil, err
	}

	zipName := screenshot.SanitizeFilename(screenshot.RemoveFileExtension(src.Name)) + ".zip"
	zipPath := filepath.Join(a.config.Output.Dir, zipName)
	if err := archive.WriteFile(zipPath, a.config.Output.DocumentName, doc); err != nil {
		return nil, fmt.Errorf("failed to write archive: %w", err)
	}

	return &models.DocumentSummary{
		Video:   src.Name,
		Archive: zipPath,
		Images:  len(doc.Images),
	}, nil
}

// scanInbox lists new, untracked video files in the inbox directory, along
// with the number of already-tracked files it skipped.
func (a *Agent) scanInbox() ([]models.VideoSource, []string, int, error) {
	entries, err := os.ReadDir(a.config.Watch.InboxDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, 0, nil
		}
		return nil, nil, 0, err
	}

	var sources []models.VideoSource
	var keys []string
	var skipped int
	for _, entry := range entries {
		if entry.IsDir() || !videoExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}

		path := filepath.Join(a.config.Watch.InboxDir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			log.Printf("Warning: failed to stat %s: %v", path, err)
			continue
		}

		key := storage.Key(path, info)
		if a.tracker != nil && a.tracker.IsProcessed(key) {
			skipped++
			continue
		}

		sources = append(sources, models.VideoSource{
			Type:     models.SourceFile,
			Path:     path,
			Name:     entry.Name(),
			MIMEType: VideoMIMEType(entry.Name()),
		})
		keys = append(keys, key)
	}

	return sources, keys, skipped, nil
}

// VideoMIMEType resolves a MIME type from the file extension, defaulting to
// video/mp4 for anything unrecognized.
func VideoMIMEType(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); strings.HasPrefix(t, "video/") {
		return t
	}
	return "video/mp4"
}

// logObserver forwards pipeline progress and logs to the process log.
type logObserver struct {
	lastPercent float64
}

func (o *logObserver) Progress(percent float64, status string) {
	// Avoid spamming the log with per-byte upload updates.
	if percent-o.lastPercent >= 5 || percent == 0 || percent == 100 {
		o.lastPercent = percent
		log.Printf("[%3.0f%%] %s", percent, status)
	}
}

func (o *logObserver) Log(entry models.LogEntry) {
	switch entry.Type {
	case models.LogError:
		log.Printf("Error: %s", entry.Message)
	default:
		log.Println(entry.Message)
	}
}
