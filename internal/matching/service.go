package matching

import (
	"sort"
	"strings"

	"github.com/Markcrest-dev/EcoSwap-sub000/internal/domain"
)

// SortOrder is the secondary key applied to equally scored request matches.
type SortOrder string

const (
	SortRelevance SortOrder = "relevance"
	SortUrgency   SortOrder = "urgency"
	SortNewest    SortOrder = "newest"
)

// ParseSortOrder maps a caller-supplied name to a SortOrder. An empty
// name means relevance.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortRelevance:
		return SortRelevance, nil
	case SortUrgency, "urgency-desc":
		return SortUrgency, nil
	case SortNewest, "newest-request-first":
		return SortNewest, nil
	}
	return "", domain.NewValidationError("sort", "must be one of relevance, urgency, newest")
}

type ItemMatch struct {
	Item    domain.Item `json:"item"`
	Score   int         `json:"score"`
	Reasons []string    `json:"reasons"`
}

type RequestMatch struct {
	Item    domain.Item    `json:"item"`
	Request domain.Request `json:"request"`
	Score   int            `json:"score"`
	Reasons []string       `json:"reasons"`
}

// Service ranks candidate items and requests with a Scorer.
type Service struct {
	scorer Scorer
}

func NewService(scorer Scorer) *Service {
	return &Service{scorer: scorer}
}

// FindItemsForRequest returns the items that score above zero for req,
// best first. Items owned by the requester are skipped and ties keep the
// candidates' order.
func (s *Service) FindItemsForRequest(req domain.Request, candidates []domain.Item) []ItemMatch {
	matches := make([]ItemMatch, 0, len(candidates))
	for _, item := range candidates {
		if item.OwnerID == req.RequesterID {
			continue
		}
		res := s.scorer.Score(item, req)
		if res.Score == 0 {
			continue
		}
		matches = append(matches, ItemMatch{Item: item, Score: res.Score, Reasons: res.Reasons})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// FindMatchesForUserItems pairs every user item with every active request
// it could satisfy, best first, breaking score ties by order.
func (s *Service) FindMatchesForUserItems(userItems []domain.Item, requests []domain.Request, order SortOrder) []RequestMatch {
	matches := make([]RequestMatch, 0)
	for _, item := range userItems {
		for _, req := range requests {
			if req.Status != domain.RequestActive || req.RequesterID == item.OwnerID {
				continue
			}
			res := s.scorer.Score(item, req)
			if res.Score == 0 {
				continue
			}
			matches = append(matches, RequestMatch{
				Item:    item,
				Request: req.Clone(),
				Score:   res.Score,
				Reasons: res.Reasons,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		switch order {
		case SortUrgency:
			return a.Request.Urgency.Rank() > b.Request.Urgency.Rank()
		case SortNewest:
			return a.Request.CreatedAt.After(b.Request.CreatedAt)
		}
		return false
	})
	return matches
}
