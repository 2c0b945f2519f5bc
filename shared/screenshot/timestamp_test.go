package screenshot

import "testing"

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
	}{
		{name: "MM:SS", input: "01:23", expected: 83},
		{name: "Zero minutes", input: "00:14", expected: 14},
		{name: "Ten minutes", input: "10:00", expected: 600},
		{name: "MM:SS with fraction", input: "01:23.5", expected: 83.5},
		{name: "Fraction with two digits", input: "00:14.25", expected: 14.25},
		{name: "Bare decimal", input: "83.5", expected: 83.5},
		{name: "Bare integer", input: "14", expected: 14},
		{name: "Large bare decimal", input: "120.75", expected: 120.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			if err != nil {
				t.Fatalf("ParseTimestamp(%q) returned error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseTimestampInvalid(t *testing.T) {
	for _, input := range []string{"", "abc", "1:xx"} {
		if _, err := ParseTimestamp(input); err == nil {
			t.Errorf("ParseTimestamp(%q) expected error, got nil", input)
		}
	}
}

func TestFilenameToken(t *testing.T) {
	tests := []struct {
		name     string
		seconds  float64
		fps      int
		expected string
	}{
		{name: "Hour minute second frame", seconds: 3723.133, fps: 30, expected: "01020303"},
		{name: "Whole seconds", seconds: 83, fps: 30, expected: "00012300"},
		{name: "Zero", seconds: 0, fps: 30, expected: "00000000"},
		{name: "Half second at 30fps", seconds: 10.5, fps: 30, expected: "00001015"},
		{name: "Defaulted fps", seconds: 10.5, fps: 0, expected: "00001015"},
		{name: "Other frame rate", seconds: 10.5, fps: 24, expected: "00001012"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FilenameToken(tt.seconds, tt.fps); got != tt.expected {
				t.Errorf("FilenameToken(%v, %d) = %s, want %s", tt.seconds, tt.fps, got, tt.expected)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Slashes and colon", input: "my/video file:2024", expected: "my_video_file_2024"},
		{name: "Windows reserved", input: `a\b*c?d"e<f>g|h`, expected: "a_b_c_d_e_f_g_h"},
		{name: "Tabs and newlines", input: "a\tb\nc", expected: "a_b_c"},
		{name: "Already clean", input: "clean-name.mp4", expected: "clean-name.mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.input); got != tt.expected {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRemoveFileExtension(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Multiple dots", input: "my.video.file.mp4", expected: "my.video.file"},
		{name: "No extension", input: "noextension", expected: "noextension"},
		{name: "Hidden file", input: ".gitignore", expected: ".gitignore"},
		{name: "Simple", input: "demo.mov", expected: "demo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RemoveFileExtension(tt.input); got != tt.expected {
				t.Errorf("RemoveFileExtension(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFilename(t *testing.T) {
	got := Filename("my demo.mp4", 83, 30)
	want := "my_demo_00012300.jpg"
	if got != want {
		t.Errorf("Filename() = %q, want %q", got, want)
	}
}
