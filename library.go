package vitrine

// ItemType tags how a library artifact was produced.
type ItemType string

const (
	ItemGenerated ItemType = "generated"
	ItemEdited    ItemType = "edited"
	ItemUploaded  ItemType = "uploaded"
)

// LibraryItem is one artifact in the user's media library.
type LibraryItem struct {
	ID        string   `json:"id"`
	URL       string   `json:"url"`
	Type      ItemType `json:"type"`
	Timestamp int64    `json:"timestamp"` // unix milliseconds
	Prompt    string   `json:"prompt,omitempty"`
	Title     string   `json:"title,omitempty"`
}

// AnalysisResult is the structured description returned by image analysis.
type AnalysisResult struct {
	Description string   `json:"description"`
	Objects     []string `json:"objects"`
	Mood        string   `json:"mood"`
	Lighting    string   `json:"lighting"`
	Colors      []string `json:"colors"`
}

// DetectedPoint is a labelled point, [y, x] normalised to 0-1000.
type DetectedPoint struct {
	Point [2]int `json:"point"`
	Label string `json:"label"`
}
