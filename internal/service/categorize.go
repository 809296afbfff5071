package service

import (
	"regexp"
	"strings"

	"github.com/spec-kit/network-ticketing/internal/domain"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s]`)

// AutoCategorize picks an issue category for a free-text description by
// keyword scoring: +2 per token appearing verbatim in the category's
// name+description text, +0.5 per (token, pool-token) pair where either
// contains the other. Tokens of length <= 2 are discarded. The best category
// wins only with score >= 1; ties keep the first category in stored order.
// Returns nil when no category qualifies.
//
// This is a deliberately simple heuristic, not NLP; the weights and the
// acceptance threshold are part of the behavioral contract.
func AutoCategorize(description string, categories []domain.IssueCategory) *domain.IssueCategory {
	if len(strings.TrimSpace(description)) < 4 {
		return nil
	}
	norm := nonAlphanumeric.ReplaceAllString(strings.ToLower(description), " ")
	tokens := strings.Fields(norm)

	var best *domain.IssueCategory
	bestScore := 0.0
	for i := range categories {
		category := &categories[i]
		pool := strings.ToLower(category.Name + " " + category.Description)
		poolTokens := strings.Fields(pool)

		score := 0.0
		for _, token := range tokens {
			if len(token) <= 2 {
				continue
			}
			if strings.Contains(pool, token) {
				score += 2
			}
			for _, poolToken := range poolTokens {
				if strings.Contains(poolToken, token) || strings.Contains(token, poolToken) {
					score += 0.5
				}
			}
		}
		if score > bestScore {
			bestScore = score
			best = category
		}
	}
	if bestScore >= 1 {
		return best
	}
	return nil
}
