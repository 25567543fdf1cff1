package prompt

import (
	"fmt"
	"strings"
)

type SuggestionPromptData struct {
	AgeGroup  string
	Interests []string
	Budget    float64
}

// GiftSuggestionPrompt builds the gift generation prompt. The model is
// instructed to return a bare JSON array so the response can be
// unmarshaled directly.
func GiftSuggestionPrompt(data SuggestionPromptData) string {
	interests := strings.Join(data.Interests, ", ")
	budget := formatBudget(data.Budget)

	return fmt.Sprintf(`You are an expert gift recommendation system. Your task is to suggest 5 thoughtful and specific gifts for a %s who loves %s with a budget under $%s.

Consider these factors:
1. Age appropriateness for %s
2. Alignment with interests: %s
3. Budget constraint: $%s
4. Gift practicality and usefulness
5. Current trends and popularity

Format your response as a JSON array with each gift having these exact properties:
{
  "title": "specific product name",
  "description": "brief explanation why it's suitable",
  "price": numerical price under %s,
  "confidence": number between 0 and 1 indicating match with interests,
  "reasoning": "detailed explanation of why this matches their interests",
  "category": "product category",
  "ageGroup": "%s",
  "source": "AI recommendation"
}

Ensure:
- All prices are under $%s
- Confidence scores reflect how well the gift matches interests
- Each suggestion is unique and specific
- Descriptions are concise but informative
- Categories are consistent and meaningful

Return ONLY the JSON array with exactly 5 items, no additional text.`,
		data.AgeGroup, interests, budget,
		data.AgeGroup,
		interests,
		budget,
		budget,
		data.AgeGroup,
		budget,
	)
}

func formatBudget(budget float64) string {
	s := fmt.Sprintf("%.2f", budget)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}
