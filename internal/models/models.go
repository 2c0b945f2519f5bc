package models

import "time"

type SourceType string

const (
	SourceFile    SourceType = "file"
	SourceYouTube SourceType = "youtube"
)

// VideoSource is one input video for a generation run. File sources carry a
// local path; YouTube sources carry the watch URL, which is handed to the
// model directly without an upload step.
type VideoSource struct {
	Type     SourceType `json:"type"`
	Path     string     `json:"path,omitempty"`
	URL      string     `json:"url,omitempty"`
	Name     string     `json:"name"`
	MIMEType string     `json:"mime_type,omitempty"`
}

// ExtractedImage is one screenshot produced during a run. The filename is
// derived deterministically from the source name and timestamp, so repeated
// runs over the same video produce stable names.
type ExtractedImage struct {
	Data     []byte  `json:"-"`
	Filename string  `json:"filename"`
	Seconds  float64 `json:"seconds"`
}

// GeneratedDocument is the final output of a run: the Markdown text plus the
// set of images whose filenames are referenced inside it.
type GeneratedDocument struct {
	Markdown string           `json:"markdown"`
	Images   []ExtractedImage `json:"images"`
}

type LogType string

const (
	LogInfo    LogType = "info"
	LogError   LogType = "error"
	LogSuccess LogType = "success"
)

type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Type      LogType   `json:"type"`
}

// DocumentSummary describes one processed video in a watch-mode run report.
type DocumentSummary struct {
	Video   string `json:"video"`
	Archive string `json:"archive"`
	Images  int    `json:"images"`
}

// RunReport is the payload for the optional email notification after a
// watch-mode scan.
type RunReport struct {
	Date      time.Time         `json:"date"`
	Documents []DocumentSummary `json:"documents"`
	Failed    int               `json:"failed"`
}
