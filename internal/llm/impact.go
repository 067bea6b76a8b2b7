package llm

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const impactEstimationPrompt = `Estimate the environmental impact of upcycling %skg of %s (%s). Provide a numeric value for CO2 saved in kg and a short impact statement.`

// FallbackCO2PerKg is the kg of CO2 assumed saved per kg of material when
// no model estimate is available.
const FallbackCO2PerKg = 1.5

// FormatWeight renders a weight the way it appears in prompts and fallback
// statements, matching JavaScript number-to-string: shortest decimal form
// ("10", "2.5") for magnitudes in [1e-6, 1e21), otherwise exponent form
// without padding ("1e+21", "1e-7").
func FormatWeight(weightKg float64) string {
	switch {
	case math.IsNaN(weightKg):
		return "NaN"
	case math.IsInf(weightKg, 1):
		return "Infinity"
	case math.IsInf(weightKg, -1):
		return "-Infinity"
	case weightKg == 0:
		return "0"
	}

	if abs := math.Abs(weightKg); abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(weightKg, 'f', -1, 64)
	}

	// strconv pads the exponent to two digits ("1e-07")
	mantissa, exp, _ := strings.Cut(strconv.FormatFloat(weightKg, 'e', -1, 64), "e")
	return mantissa + "e" + exp[:1] + strings.TrimLeft(exp[1:], "0")
}

// FallbackImpact computes an estimate from the weight alone.
// Weights are not clamped.
func FallbackImpact(weightKg float64) ImpactEstimate {
	return ImpactEstimate{
		CO2Saved:        weightKg * FallbackCO2PerKg,
		ImpactStatement: fmt.Sprintf("You're saving %skg of materials from the landfill!", FormatWeight(weightKg)),
	}
}

func buildImpactPrompt(materialName, category string, weightKg float64) string {
	return fmt.Sprintf(impactEstimationPrompt, FormatWeight(weightKg), materialName, category)
}

// GetImpactEstimation estimates CO2 saved by upcycling weightKg of a material.
// At most one model call is made and errors never escape.
func (s *Service) GetImpactEstimation(ctx context.Context, materialName, category string, weightKg float64) ImpactEstimate {
	estimate, err := s.estimate(ctx, materialName, category, weightKg)
	if err != nil {
		s.handleFailure(ctx, "impact_estimation", err)
		return FallbackImpact(weightKg)
	}
	return estimate
}

func (s *Service) estimate(ctx context.Context, materialName, category string, weightKg float64) (ImpactEstimate, error) {
	key := s.analysisKey(materialName, category, FormatWeight(weightKg))
	var estimate ImpactEstimate
	if s.cacheGet(cacheKindImpact, key, &estimate) {
		return estimate, nil
	}

	prompt := buildImpactPrompt(materialName, category, weightKg)
	if err := s.generate(ctx, prompt, impactSchema, &estimate); err != nil {
		return ImpactEstimate{}, err
	}

	s.cacheSet(cacheKindImpact, key, estimate)
	return estimate, nil
}
