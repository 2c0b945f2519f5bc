package youtube

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// Metadata is the subset of video information the pipeline cares about.
type Metadata struct {
	ID              string
	Title           string
	ChannelTitle    string
	DurationSeconds int
}

// IsValidURL reports whether the string looks like a YouTube video URL.
func IsValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	switch host {
	case "www.youtube.com", "youtube.com", "m.youtube.com", "youtu.be":
		return true
	}
	return false
}

// ExtractVideoID pulls the video ID out of a watch URL or a youtu.be short
// link.
func ExtractVideoID(raw string) (string, error) {
	if strings.Contains(raw, "youtu.be/") {
		parts := strings.Split(raw, "/")
		id := parts[len(parts)-1]
		if i := strings.IndexAny(id, "?&"); i >= 0 {
			id = id[:i]
		}
		if id != "" {
			return id, nil
		}
		return "", fmt.Errorf("could not extract video ID from %q", raw)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if strings.Contains(u.Host, "youtube.com") {
		if v := u.Query().Get("v"); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("could not extract video ID from %q", raw)
}

// Client looks up public video metadata through the YouTube Data API. Only
// an API key is needed; no user authorization is involved.
type Client struct {
	service *youtube.Service
}

func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("YouTube API key is required")
	}

	service, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &Client{service: service}, nil
}

// VideoMetadata fetches title, channel, and duration for a video URL.
func (c *Client) VideoMetadata(ctx context.Context, videoURL string) (*Metadata, error) {
	id, err := ExtractVideoID(videoURL)
	if err != nil {
		return nil, err
	}

	resp, err := c.service.Videos.List([]string{"snippet", "contentDetails"}).
		Id(id).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch metadata for video %s: %w", id, err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("video %s not found", id)
	}

	item := resp.Items[0]
	return &Metadata{
		ID:              id,
		Title:           item.Snippet.Title,
		ChannelTitle:    item.Snippet.ChannelTitle,
		DurationSeconds: parseDurationSeconds(item.ContentDetails.Duration),
	}, nil
}

var iso8601Duration = regexp.MustCompile(`PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)

// parseDurationSeconds converts an ISO 8601 duration (e.g. "PT1M30S",
// "PT2H15M30S") to seconds.
func parseDurationSeconds(duration string) int {
	if duration == "" {
		return 0
	}

	matches := iso8601Duration.FindStringSubmatch(duration)
	if len(matches) == 0 {
		return 0
	}

	var total int
	if matches[1] != "" {
		if hours, err := strconv.Atoi(matches[1]); err == nil {
			total += hours * 3600
		}
	}
	if matches[2] != "" {
		if minutes, err := strconv.Atoi(matches[2]); err == nil {
			total += minutes * 60
		}
	}
	if matches[3] != "" {
		if seconds, err := strconv.Atoi(matches[3]); err == nil {
			total += seconds
		}
	}
	return total
}
