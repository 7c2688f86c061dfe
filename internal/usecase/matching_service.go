package usecase

import (
	"context"
	"log"
	"regexp"
	"strings"

	"github.com/macrolens/mealtracker/internal/domain"
)

var punctuationRegex = regexp.MustCompile(`[^\w\s]`)

// Token weights for query coverage
const (
	weightFood        = 3.0 // core food terms (milk, chicken, rice)
	weightDescriptive = 2.0 // preparation and variety (raw, whole, grilled)
	weightDefault     = 1.0
	fuzzyWeightFactor = 0.8 // fuzzy matches count 80% of an exact match
)

// Score bonuses, added to the 0-100 token score and capped at 100
const (
	brandMatchBonus     = 15.0
	substringMatchBonus = 10.0
)

// dataTypeBonus prefers generic reference foods over branded labels when the
// user is not asking for a brand.
var dataTypeBonus = map[string]float64{
	"Foundation":     5,
	"SR Legacy":      4,
	"Survey (FNDDS)": 3,
}

var foodTerms = map[string]bool{
	"chicken": true, "beef": true, "pork": true, "fish": true, "salmon": true,
	"turkey": true, "lamb": true, "shrimp": true, "tuna": true, "egg": true,
	"milk": true, "cheese": true, "yogurt": true, "butter": true, "cream": true,
	"bread": true, "rice": true, "pasta": true, "oat": true, "flour": true,
	"noodle": true, "tortilla": true, "bean": true, "lentil": true, "tofu": true,
	"apple": true, "banana": true, "orange": true, "tomato": true, "potato": true,
	"onion": true, "carrot": true, "broccoli": true, "spinach": true, "avocado": true,
	"berry": true, "strawberry": true, "blueberry": true, "grape": true, "pepper": true,
	"juice": true, "coffee": true, "tea": true, "beer": true, "wine": true,
	"chocolate": true, "cookie": true, "cake": true, "nut": true, "almond": true,
	"peanut": true, "oil": true, "sugar": true, "honey": true, "soup": true,
}

var descriptiveTerms = map[string]bool{
	"whole": true, "skim": true, "nonfat": true, "lowfat": true, "reduced": true,
	"fat": true, "raw": true, "cooked": true, "boiled": true, "fried": true,
	"grilled": true, "baked": true, "roasted": true, "steamed": true, "dried": true,
	"frozen": true, "canned": true, "fresh": true, "plain": true, "sweetened": true,
	"unsweetened": true, "salted": true, "unsalted": true, "white": true, "brown": true,
	"greek": true, "lean": true, "skinless": true, "boneless": true, "instant": true,
}

var matchStopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"of": true, "in": true, "on": true, "with": true, "without": true,
	"for": true, "by": true, "from": true, "to": true, "ns": true,
	"as": true, "nfs": true, "type": true, "added": true, "include": true,
}

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	MinConfidenceThreshold float64
	EnableFuzzyMatching    bool
	FuzzyEditDistance      int
	EnableDebugLogging     bool
}

// MatchingService scores FoodData Central results against a requested food name
type MatchingService struct {
	minConfidenceThreshold float64
	enableFuzzyMatching    bool
	fuzzyEditDistance      int
	enableDebugLogging     bool
}

// NewMatchingService creates a new matching service with the given configuration
func NewMatchingService(config MatchConfig) *MatchingService {
	threshold := config.MinConfidenceThreshold
	if threshold <= 0 {
		threshold = 40.0
	}

	fuzzyDist := config.FuzzyEditDistance
	if fuzzyDist <= 0 {
		fuzzyDist = 1
	}

	return &MatchingService{
		minConfidenceThreshold: threshold,
		enableFuzzyMatching:    config.EnableFuzzyMatching,
		fuzzyEditDistance:      fuzzyDist,
		enableDebugLogging:     config.EnableDebugLogging,
	}
}

// FindBestMatch returns the highest scoring food. When that score is below the
// threshold the match is still returned together with ErrLowConfidence.
func (s *MatchingService) FindBestMatch(
	ctx context.Context,
	request *domain.SearchRequest,
	foods []domain.FDCFood,
) (*domain.MatchResult, error) {
	if request == nil || strings.TrimSpace(request.ProductName) == "" {
		return nil, domain.ErrInvalidRequest
	}
	if len(foods) == 0 {
		return nil, domain.ErrProductNotFound
	}

	var best *domain.MatchResult
	highest := -1.0
	for _, food := range foods {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		score, matched := s.calculateMatchScore(request.ProductName, request.Brand, food)
		if s.enableDebugLogging {
			log.Printf("[MATCH] %q | %s | score %.1f | matched %v", food.Description, food.DataType, score, matched)
		}
		if score > highest {
			highest = score
			best = &domain.MatchResult{
				FdcID:         food.FdcID,
				Description:   food.Description,
				MatchScore:    score,
				MatchedTokens: matched,
			}
		}
	}

	if best.MatchScore < s.minConfidenceThreshold {
		return best, domain.ErrLowConfidence
	}
	return best, nil
}

// calculateMatchScore combines weighted query coverage (60%), description
// coverage (20%) and Jaccard similarity (20%) into 0-100, then applies bonuses.
func (s *MatchingService) calculateMatchScore(query, brand string, food domain.FDCFood) (float64, []string) {
	queryTokens := tokenize(query)
	descTokens := tokenize(food.Description)
	if len(queryTokens) == 0 || len(descTokens) == 0 {
		return 0, nil
	}

	descSet := toSet(descTokens)
	querySet := toSet(queryTokens)

	var matchedWeight, totalWeight float64
	var matched []string
	exact := 0
	for _, token := range queryTokens {
		w := tokenWeight(token)
		totalWeight += w
		if descSet[token] {
			matchedWeight += w
			matched = append(matched, token)
			exact++
			continue
		}
		if s.enableFuzzyMatching {
			if other, ok := s.fuzzyFind(token, descTokens); ok {
				matchedWeight += w * fuzzyWeightFactor
				matched = append(matched, other)
			}
		}
	}

	descMatched := 0
	for _, token := range descTokens {
		if querySet[token] {
			descMatched++
		}
	}

	queryCoverage := matchedWeight / totalWeight
	descCoverage := float64(descMatched) / float64(len(descTokens))
	jaccard := float64(exact) / float64(unionSize(querySet, descSet))

	score := (queryCoverage*0.60 + descCoverage*0.20 + jaccard*0.20) * 100

	descLower := strings.ToLower(food.Description)
	if brand != "" {
		brandLower := strings.ToLower(brand)
		if strings.Contains(descLower, brandLower) || strings.Contains(strings.ToLower(food.BrandOwner), brandLower) {
			score += brandMatchBonus
		}
	} else {
		score += dataTypeBonus[food.DataType]
	}

	queryLower := strings.Join(queryTokens, " ")
	if len(queryLower) > 3 && strings.Contains(strings.Join(descTokens, " "), queryLower) {
		score += substringMatchBonus
	}

	if score > 100 {
		score = 100
	}
	return score, matched
}

func (s *MatchingService) fuzzyFind(token string, candidates []string) (string, bool) {
	for _, c := range candidates {
		if fuzzyTokenMatch(token, c, s.fuzzyEditDistance) {
			return c, true
		}
	}
	return "", false
}

func tokenWeight(token string) float64 {
	switch {
	case foodTerms[token]:
		return weightFood
	case descriptiveTerms[token]:
		return weightDescriptive
	default:
		return weightDefault
	}
}

// tokenize lower-cases, strips punctuation, drops stop words, numbers and
// single characters, and reduces simple plurals.
func tokenize(s string) []string {
	words := strings.Fields(punctuationRegex.ReplaceAllString(strings.ToLower(s), " "))

	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if len(word) <= 1 || matchStopWords[word] || isNumeric(word) {
			continue
		}
		tokens = append(tokens, singular(word))
	}
	return tokens
}

// singular strips a plural suffix: berries -> berry, tomatoes -> tomato, oats -> oat
func singular(word string) string {
	switch {
	case len(word) > 4 && strings.HasSuffix(word, "ies"):
		return word[:len(word)-3] + "y"
	case len(word) > 4 && strings.HasSuffix(word, "oes"):
		return word[:len(word)-2]
	case len(word) > 3 && strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss") && !strings.HasSuffix(word, "us"):
		return word[:len(word)-1]
	}
	return word
}

func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

func toSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

func unionSize(a, b map[string]bool) int {
	n := len(a)
	for t := range b {
		if !a[t] {
			n++
		}
	}
	return n
}

// fuzzyTokenMatch reports whether two tokens of at least 4 characters are
// within threshold edits of each other.
func fuzzyTokenMatch(token1, token2 string, threshold int) bool {
	if token1 == token2 {
		return true
	}
	if len(token1) < 4 || len(token2) < 4 {
		return false
	}
	lenDiff := len(token1) - len(token2)
	if lenDiff < 0 {
		lenDiff = -lenDiff
	}
	if lenDiff > threshold {
		return false
	}
	return levenshteinDistance(token1, token2) <= threshold
}

func levenshteinDistance(s1, s2 string) int {
	r1, r2 := []rune(s1), []rune(s2)
	if len(r1) == 0 {
		return len(r2)
	}
	if len(r2) == 0 {
		return len(r1)
	}

	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(r2)]
}
