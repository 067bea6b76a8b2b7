package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/2024luvyavarliani-boop/Upcyclee/internal/material"
)

const categorySuggestionPrompt = `Based on this description: "%s", categorize it into one of: %s.`

const fallbackReason = "Unable to determine."

// FallbackClassification is returned whenever classification fails.
func FallbackClassification() ClassificationResult {
	return ClassificationResult{
		Category: string(material.CategoryOther),
		Reason:   fallbackReason,
	}
}

// IsFallbackClassification reports whether r is the fallback value.
func IsFallbackClassification(r ClassificationResult) bool {
	return r == FallbackClassification()
}

func buildCategoryPrompt(description string) string {
	return fmt.Sprintf(categorySuggestionPrompt, description, strings.Join(material.CategoryLabels(), ", "))
}

// SuggestCategory classifies a material description into one of the known
// categories. At most one model call is made and errors never escape.
func (s *Service) SuggestCategory(ctx context.Context, description string) ClassificationResult {
	result, err := s.classify(ctx, description)
	if err != nil {
		s.handleFailure(ctx, "suggest_category", err)
		return FallbackClassification()
	}
	return result
}

func (s *Service) classify(ctx context.Context, description string) (ClassificationResult, error) {
	key := s.analysisKey(description)
	var result ClassificationResult
	if s.cacheGet(cacheKindClassification, key, &result) {
		return result, nil
	}

	if err := s.generate(ctx, buildCategoryPrompt(description), classificationSchema, &result); err != nil {
		return ClassificationResult{}, err
	}

	s.cacheSet(cacheKindClassification, key, result)
	return result, nil
}
