package domain

// GiftSuggestion is one recommendation as returned by the suggestion
// pipeline after post-processing: Confidence is always within [0,1] and
// Price is nil whenever the generator's price was non-positive or above the
// requested budget.
type GiftSuggestion struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Confidence  float64  `json:"confidence"`
	Reasoning   string   `json:"reasoning,omitempty"`
	Category    string   `json:"category,omitempty"`
	AgeGroup    string   `json:"ageGroup,omitempty"`
	Source      string   `json:"source,omitempty"`
}

// SuggestionRequest is the structured input to the suggestion pipeline.
type SuggestionRequest struct {
	SessionID string
	AgeGroup  string
	Interests []string
	Budget    float64
	Force     bool
}

// Response source tags exposed to API consumers.
const (
	SourceCache = "cache"
	SourceFresh = "fresh"
)
