package youtube

import "testing"

func TestIsValidURL(t *testing.T) {
	tests := []struct {
		name  string
		url   string
		valid bool
	}{
		{name: "Standard watch URL", url: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", valid: true},
		{name: "Bare domain", url: "https://youtube.com/watch?v=abc123", valid: true},
		{name: "Mobile", url: "https://m.youtube.com/watch?v=abc123", valid: true},
		{name: "Short link", url: "https://youtu.be/dQw4w9WgXcQ", valid: true},
		{name: "Other site", url: "https://vimeo.com/12345", valid: false},
		{name: "Lookalike domain", url: "https://notyoutube.com/watch?v=abc", valid: false},
		{name: "Garbage", url: "://not-a-url", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidURL(tt.url); got != tt.valid {
				t.Errorf("IsValidURL(%q) = %v, want %v", tt.url, got, tt.valid)
			}
		})
	}
}

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		id      string
		wantErr bool
	}{
		{name: "Watch URL", url: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", id: "dQw4w9WgXcQ"},
		{name: "Short link", url: "https://youtu.be/dQw4w9WgXcQ", id: "dQw4w9WgXcQ"},
		{name: "Short link with params", url: "https://youtu.be/dQw4w9WgXcQ?t=42", id: "dQw4w9WgXcQ"},
		{name: "Watch URL with extra params", url: "https://www.youtube.com/watch?v=abc123&list=PL1", id: "abc123"},
		{name: "No video parameter", url: "https://www.youtube.com/feed/subscriptions", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractVideoID(tt.url)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ExtractVideoID(%q) expected error, got %q", tt.url, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractVideoID(%q) returned error: %v", tt.url, err)
			}
			if got != tt.id {
				t.Errorf("ExtractVideoID(%q) = %q, want %q", tt.url, got, tt.id)
			}
		})
	}
}

func TestParseDurationSeconds(t *testing.T) {
	tests := []struct {
		name     string
		duration string
		expected int
	}{
		{name: "Minutes and seconds", duration: "PT1M30S", expected: 90},
		{name: "Seconds only", duration: "PT45S", expected: 45},
		{name: "Hours minutes seconds", duration: "PT2H15M30S", expected: 8130},
		{name: "Empty", duration: "", expected: 0},
		{name: "Unparseable", duration: "whatever", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseDurationSeconds(tt.duration); got != tt.expected {
				t.Errorf("parseDurationSeconds(%q) = %d, want %d", tt.duration, got, tt.expected)
			}
		})
	}
}
