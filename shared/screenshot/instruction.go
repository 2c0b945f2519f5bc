package screenshot

// Frequency selects how often the model is asked to emit screenshot markers.
type Frequency string

const (
	FrequencyMinimal  Frequency = "minimal"
	FrequencyModerate Frequency = "moderate"
	FrequencyDetailed Frequency = "detailed"
)

type frequencyText struct {
	what  string
	usage string
}

var frequencyTexts = map[Frequency]frequencyText{
	FrequencyMinimal: {
		what:  " the most critical visual elements",
		usage: "Use these references sparingly for only the most important moments.",
	},
	FrequencyModerate: {
		what:  " visual elements or important points in the document",
		usage: "Use these references to mark key moments that would benefit from visual representation.",
	},
	FrequencyDetailed: {
		what:  " visual elements, UI components, or detailed explanations",
		usage: "Use these references frequently to provide comprehensive visual documentation.",
	},
}

const plainFormatInstruction = `please include screenshot references using this exact format: [Screenshot: XX:XXs] where XX:XX is the timestamp in MM:SS format.`

const cropFormatInstruction = `please include screenshot references using this exact format: [Screenshot: XX:XXs | ymin,xmin,ymax,xmax].
        - XX:XX is the timestamp in MM:SS format.
        - ymin,xmin,ymax,xmax are the bounding box coordinates in 0-1000 scale (relative to the video frame).
        - ymin is top, xmin is left, ymax is bottom, xmax is right.
        - If you want to capture the whole screen, omit the coordinates: [Screenshot: XX:XXs].
        - Example: [Screenshot: 01:23s | 100,200,500,600] to crop a specific region.`

// PromptInstruction builds the instruction fragment appended to the user
// prompt. It demands the exact marker syntax the placeholder parser expects;
// with cropEnabled it instead demands the crop-augmented syntax and explains
// the 0-1000 relative coordinate convention.
func PromptInstruction(frequency Frequency, cropEnabled bool) string {
	text, ok := frequencyTexts[frequency]
	if !ok {
		text = frequencyTexts[FrequencyModerate]
	}

	format := plainFormatInstruction
	if cropEnabled {
		format = cropFormatInstruction
	}

	return "\n\nIMPORTANT: When describing" + text.what + ", " + format + " " + text.usage
}
