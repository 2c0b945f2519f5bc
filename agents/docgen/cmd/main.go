package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"video2doc/agents/docgen"
	"video2doc/internal/models"
	"video2doc/shared/archive"
	"video2doc/shared/config"
	"video2doc/shared/gemini"
	"video2doc/shared/scheduler"
	"video2doc/shared/screenshot"
	"video2doc/shared/video"
	"video2doc/shared/youtube"
)

var genFlags struct {
	prompt      string
	model       string
	screenshots bool
	frequency   string
	crop        bool
	outputDir   string
	docName     string
}

var rootCmd = &cobra.Command{
	Use:   "video2doc [videos or YouTube URLs]",
	Short: "Generate a Markdown document, with screenshots, from one or more videos.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		return generate(cmd.Context(), cfg, args)
	},
}

var serveOnce bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Watch the inbox directory and process new videos on a schedule.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		agent := docgen.NewAgent(cfg)
		s := scheduler.New(cfg, agent)

		if serveOnce {
			if err := agent.Initialize(); err != nil {
				return fmt.Errorf("failed to initialize agent: %w", err)
			}
			return s.RunOnce(cmd.Context())
		}
		return s.Start(cmd.Context())
	},
}

func generate(ctx context.Context, cfg *config.Config, args []string) error {
	sources, err := resolveSources(ctx, cfg, args)
	if err != nil {
		return err
	}

	model := genFlags.model
	if model == "" {
		model = cfg.AI.Model
	}
	frequency := genFlags.frequency
	if frequency == "" {
		frequency = cfg.Screenshots.Frequency
	}
	outputDir := genFlags.outputDir
	if outputDir == "" {
		outputDir = cfg.Output.Dir
	}
	docName := genFlags.docName
	if docName == "" {
		docName = cfg.Output.DocumentName
	}

	generator, err := gemini.NewClient(ctx, cfg.AI.GeminiAPIKey,
		time.Duration(cfg.AI.UploadTimeoutMinutes)*time.Minute)
	if err != nil {
		return err
	}

	extractor := video.NewExtractor(video.FailurePolicy(cfg.Screenshots.FailurePolicy))
	if genFlags.screenshots && !extractor.Available() {
		log.Println("Warning: ffmpeg/ffprobe not found on PATH; screenshot extraction will fail")
	}

	obs := newBarObserver()
	pipeline := docgen.NewPipeline(generator, extractor, obs)

	doc, err := pipeline.Run(ctx, &docgen.Request{
		Sources:            sources,
		Prompt:             genFlags.prompt,
		Model:              model,
		ExtractScreenshots: genFlags.screenshots,
		Frequency:          screenshot.Frequency(frequency),
		CropRegions:        genFlags.crop || cfg.Screenshots.CropRegions,
		FPS:                cfg.Screenshots.FPS,
	})
	obs.finish()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	zipName := screenshot.SanitizeFilename(screenshot.RemoveFileExtension(sources[0].Name)) + ".zip"
	zipPath := filepath.Join(outputDir, zipName)
	if err := archive.WriteFile(zipPath, docName, doc); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}

	fmt.Printf("Wrote %s (%d screenshot(s))\n", zipPath, len(doc.Images))
	return nil
}

// resolveSources classifies each argument as a YouTube URL or a local file.
// With a YouTube API key configured, URLs get their real titles as names;
// without one the video ID is used instead.
func resolveSources(ctx context.Context, cfg *config.Config, args []string) ([]models.VideoSource, error) {
	var ytClient *youtube.Client
	if cfg.YouTube.APIKey != "" {
		client, err := youtube.NewClient(ctx, cfg.YouTube.APIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create YouTube client: %w", err)
		}
		ytClient = client
	}

	var sources []models.VideoSource
	for _, arg := range args {
		if youtube.IsValidURL(arg) {
			id, err := youtube.ExtractVideoID(arg)
			if err != nil {
				return nil, err
			}
			name := id
			if ytClient != nil {
				meta, err := ytClient.VideoMetadata(ctx, arg)
				if err != nil {
					log.Printf("Warning: failed to look up YouTube metadata for %s: %v", id, err)
				} else {
					name = meta.Title
				}
			}
			sources = append(sources, models.VideoSource{
				Type: models.SourceYouTube,
				URL:  arg,
				Name: name,
			})
			continue
		}

		if _, err := os.Stat(arg); err != nil {
			return nil, fmt.Errorf("not a YouTube URL and not a readable file: %s: %w", arg, err)
		}
		sources = append(sources, models.VideoSource{
			Type:     models.SourceFile,
			Path:     arg,
			Name:     filepath.Base(arg),
			MIMEType: docgen.VideoMIMEType(arg),
		})
	}
	return sources, nil
}

// barObserver renders pipeline progress as a terminal progress bar and
// prints log entries above it.
type barObserver struct {
	bar *progressbar.ProgressBar
}

func newBarObserver() *barObserver {
	return &barObserver{
		bar: progressbar.NewOptions(100,
			progressbar.OptionSetDescription("Starting"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionClearOnFinish(),
		),
	}
}

func (o *barObserver) Progress(percent float64, status string) {
	o.bar.Describe(status)
	_ = o.bar.Set(int(percent))
}

func (o *barObserver) Log(entry models.LogEntry) {
	switch entry.Type {
	case models.LogError:
		fmt.Fprintf(os.Stderr, "\nError: %s\n", entry.Message)
	case models.LogSuccess:
		o.bar.Clear()
		fmt.Println(entry.Message)
	}
}

func (o *barObserver) finish() {
	_ = o.bar.Finish()
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootCmd.AddCommand(serveCmd)
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&genFlags.prompt, "prompt", "p", "Summarize this video as a structured Markdown document.", "Prompt describing the document to generate")
	rootCmd.Flags().StringVarP(&genFlags.model, "model", "m", "", "Gemini model to use (defaults to the configured model)")
	rootCmd.Flags().BoolVar(&genFlags.screenshots, "screenshots", true, "Extract screenshots referenced by the generated document")
	rootCmd.Flags().StringVar(&genFlags.frequency, "frequency", "", "Screenshot frequency: minimal, moderate, or detailed")
	rootCmd.Flags().BoolVar(&genFlags.crop, "crop", false, "Ask the model for cropped screenshot regions (single video only)")
	rootCmd.Flags().StringVarP(&genFlags.outputDir, "output", "o", "", "Directory for the generated archive")
	rootCmd.Flags().StringVar(&genFlags.docName, "doc-name", "", "Name of the Markdown file inside the archive")

	serveCmd.Flags().BoolVar(&serveOnce, "once", false, "Run a single inbox scan and exit")
}
