package matching

import (
	"fmt"
	"strings"

	"github.com/Markcrest-dev/EcoSwap-sub000/internal/domain"
)

// Weights are the points awarded by each scoring rule.
type Weights struct {
	Category         int
	TitleToken       int
	DescriptionToken int
	Tag              int
	Condition        int
}

var DefaultWeights = Weights{
	Category:         50,
	TitleToken:       10,
	DescriptionToken: 5,
	Tag:              15,
	Condition:        10,
}

// Result is a match score and the rules that produced it, in rule order.
type Result struct {
	Score   int      `json:"score"`
	Reasons []string `json:"reasons"`
}

// Scorer ranks one item against one request. It holds no state besides
// its configuration, so a value can be shared freely.
type Scorer struct {
	Weights Weights
	// StrictTokens requires whole-token equality instead of substring
	// containment in either direction.
	StrictTokens bool
}

func NewScorer(strict bool) Scorer {
	return Scorer{Weights: DefaultWeights, StrictTokens: strict}
}

func (s Scorer) Score(item domain.Item, req domain.Request) Result {
	res := Result{Reasons: []string{}}

	if item.Category == req.Category {
		res.Score += s.Weights.Category
		res.Reasons = append(res.Reasons, fmt.Sprintf("Same category: %s", req.Category))
	}

	reqTokens := tokenize(req.Title + " " + req.Description)

	if hits := s.overlap(tokenize(item.Title), reqTokens); len(hits) > 0 {
		res.Score += s.Weights.TitleToken * len(hits)
		res.Reasons = append(res.Reasons, "Title matches: "+strings.Join(hits, ", "))
	}

	if hits := s.overlap(tokenize(item.Description), reqTokens); len(hits) > 0 {
		res.Score += s.Weights.DescriptionToken * len(hits)
		res.Reasons = append(res.Reasons, "Description matches: "+strings.Join(hits, ", "))
	}

	title := strings.ToLower(item.Title)
	desc := strings.ToLower(item.Description)
	for _, tag := range req.Tags {
		tag = strings.ToLower(tag)
		if tag == "" {
			continue
		}
		if strings.Contains(title, tag) || strings.Contains(desc, tag) {
			res.Score += s.Weights.Tag
			res.Reasons = append(res.Reasons, "Tag match: "+tag)
		}
	}

	if req.Condition == domain.ConditionAny || (req.Condition != "" && req.Condition == item.Condition) {
		res.Score += s.Weights.Condition
		res.Reasons = append(res.Reasons, fmt.Sprintf("Condition: %s", req.Condition))
	}

	return res
}

// overlap returns the distinct item tokens that match any request token.
func (s Scorer) overlap(itemTokens, reqTokens []string) []string {
	var hits []string
	seen := make(map[string]struct{}, len(itemTokens))
	for _, it := range itemTokens {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		for _, rt := range reqTokens {
			if s.tokensMatch(it, rt) {
				hits = append(hits, it)
				break
			}
		}
	}
	return hits
}

func (s Scorer) tokensMatch(a, b string) bool {
	if s.StrictTokens {
		return a == b
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}
