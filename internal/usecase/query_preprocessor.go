package usecase

import (
	"log"
	"regexp"
	"strings"
)

const maxQueryLength = 100

// QueryPreprocessor turns a free-form food name into a FoodData Central search query
type QueryPreprocessor struct {
	enableDebugLogging bool
}

var (
	// "150 g", "2 cups", "1.5 tbsp", "12 fl oz", "500ml", "1 gallon"
	quantityPattern = regexp.MustCompile(`(?i)\b\d+(?:[.,]\d+)?\s*(?:fl\s*oz|oz|ounces?|ml|l|liters?|litres?|g|grams?|kg|lbs?|pounds?|gal|gallons?|qt|quarts?|pints?|cups?|tbsp|tsp|tablespoons?|teaspoons?|slices?|pieces?|servings?)\b`)
	// "6 pack", "pack of 6", "24 ct"
	packPattern = regexp.MustCompile(`(?i)\b\d+[-\s]*(?:pack|pk|count|ct)\b|\bpack\s+of\s+\d+\b`)
	// characters the FoodData Central proxy rejects or that add nothing to a search
	querySpecialChars = regexp.MustCompile(`[#%+@!^*()=\[\]{}<>|\\~"` + "`" + `]`)
	strayNumbers      = regexp.MustCompile(`\b\d+(?:[.,]\d+)?\b`)
	multiSpacePattern = regexp.MustCompile(`\s+`)
	orphanPunctuation = regexp.MustCompile(`\s+[,;:\-]+(\s+|$)|^[\s,;:\-]+|[\s,;:\-]+$`)
)

// queryNoiseWords add nothing to a nutrient lookup
var queryNoiseWords = map[string]bool{
	"homemade": true, "leftover": true, "leftovers": true, "portion": true,
	"serving": true, "small": true, "medium": true, "large": true,
	"big": true, "mini": true, "jumbo": true, "some": true,
	"half": true, "quarter": true, "approx": true, "about": true,
	"premium": true, "value": true, "family": true, "size": true,
	"package": true, "box": true, "bag": true, "bottle": true,
	"can": true, "jar": true, "tub": true, "carton": true,
}

// NewQueryPreprocessor creates a new query preprocessor
func NewQueryPreprocessor(enableDebugLogging bool) *QueryPreprocessor {
	return &QueryPreprocessor{enableDebugLogging: enableDebugLogging}
}

// PreprocessQuery strips quantities, packaging and noise words and prepends the
// brand when the name does not already carry it.
func (p *QueryPreprocessor) PreprocessQuery(name, brand string) string {
	if strings.TrimSpace(name) == "" {
		return ""
	}

	cleaned := strings.ReplaceAll(name, "&", " and ")
	cleaned = quantityPattern.ReplaceAllString(cleaned, " ")
	cleaned = packPattern.ReplaceAllString(cleaned, " ")
	cleaned = querySpecialChars.ReplaceAllString(cleaned, " ")
	cleaned = strayNumbers.ReplaceAllString(cleaned, " ")
	cleaned = removeNoiseWords(cleaned)
	cleaned = multiSpacePattern.ReplaceAllString(cleaned, " ")
	cleaned = orphanPunctuation.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(multiSpacePattern.ReplaceAllString(cleaned, " "))

	brand = strings.TrimSpace(brand)
	if brand != "" && !strings.Contains(strings.ToLower(cleaned), strings.ToLower(brand)) {
		cleaned = strings.TrimSpace(brand + " " + cleaned)
	}

	if len(cleaned) > maxQueryLength {
		cleaned = cleaned[:maxQueryLength]
		if lastSpace := strings.LastIndex(cleaned, " "); lastSpace > maxQueryLength/2 {
			cleaned = cleaned[:lastSpace]
		}
	}

	if p.enableDebugLogging {
		log.Printf("[PREPROCESS] %q -> %q", name, cleaned)
	}
	return cleaned
}

func removeNoiseWords(s string) string {
	words := strings.Fields(s)
	kept := words[:0]
	for _, word := range words {
		if !queryNoiseWords[strings.ToLower(strings.Trim(word, ",.;:-'"))] {
			kept = append(kept, word)
		}
	}
	return strings.Join(kept, " ")
}

// NormalizeQuery lower-cases and collapses a query for use in cache keys
func NormalizeQuery(s string) string {
	s = strings.ToLower(s)
	s = punctuationRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(multiSpacePattern.ReplaceAllString(s, " "))
}
