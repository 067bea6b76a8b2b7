package llm

import "context"

// ClassificationResult is a suggested category for a material description.
// Category is normally one of material.Categories but the model may return
// free text, which callers should display as-is.
type ClassificationResult struct {
	Category string `json:"category"`
	Reason   string `json:"reason"`
}

// ImpactEstimate is an estimated environmental impact for upcycling a material.
type ImpactEstimate struct {
	CO2Saved        float64 `json:"co2Saved"`        // kg of CO2
	ImpactStatement string  `json:"impactStatement"` // One sentence for display
}

// Usage contains token usage and cost information.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
	CostUSD      float64
}

// Classifier suggests a category for a free-text material description.
type Classifier interface {
	// SuggestCategory never fails; on any error it returns the fallback classification.
	SuggestCategory(ctx context.Context, description string) ClassificationResult
}

// ImpactEstimator estimates the CO2 saved by upcycling a material.
type ImpactEstimator interface {
	// GetImpactEstimation never fails; on any error it returns an estimate
	// computed from weightKg alone.
	GetImpactEstimation(ctx context.Context, materialName, category string, weightKg float64) ImpactEstimate
}

// Advisor combines both model-backed operations.
type Advisor interface {
	Classifier
	ImpactEstimator
}
