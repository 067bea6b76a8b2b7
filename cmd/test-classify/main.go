package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/2024luvyavarliani-boop/Upcyclee/internal/llm"
	"github.com/2024luvyavarliani-boop/Upcyclee/internal/marketplace"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Rate limit delay between items (Gemini free tier: 10 req/min, two calls per item)
const rateLimitDelay = 13 * time.Second

// Runs the classifier and impact estimator over the seeded catalog and
// compares the suggested category with the one the item was listed under.
func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if os.Getenv("GEMINI_API_KEY") == "" {
		fmt.Println("Make sure GEMINI_API_KEY is set")
		os.Exit(1)
	}

	ctx := context.Background()
	factory := llm.NewGeminiFactory(llm.EnvKeySource("GEMINI_API_KEY"), llm.WithModel(os.Getenv("GEMINI_MODEL")))
	svc := llm.NewService(factory, llm.WithKeyReselector(llm.KeyReselectorFunc(func(ctx context.Context, cause error) {
		fmt.Printf("❌ API key rejected: %v\n", cause)
		os.Exit(1)
	})))

	items := marketplace.SeedItems()

	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("CLASSIFY TEST (%s)\n", factory.ModelName())
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	matched := 0
	for i, item := range items {
		fmt.Printf("─── Item %d ───────────────────────────────────────────────────────────────────\n", i+1)
		fmt.Printf("Name: %s\n", item.Name)
		fmt.Printf("Description: %s\n\n", truncate(item.Description, 80))

		result := svc.SuggestCategory(ctx, item.Description)
		switch {
		case llm.IsFallbackClassification(result):
			fmt.Printf("⚠️  Fallback: %s\n", result.Reason)
		case result.Category == string(item.Category):
			matched++
			fmt.Printf("✅ %s - %s\n", result.Category, result.Reason)
		default:
			fmt.Printf("❌ %s (listed as %s) - %s\n", result.Category, item.Category, result.Reason)
		}

		impact := svc.GetImpactEstimation(ctx, item.Name, result.Category, item.WeightKg)
		fmt.Printf("🌱 %s kg CO₂ for %s kg: %s\n", llm.FormatWeight(impact.CO2Saved), llm.FormatWeight(item.WeightKg), impact.ImpactStatement)
		fmt.Println()

		// Rate limit delay (skip after last item)
		if i < len(items)-1 {
			fmt.Printf("⏳ Waiting %v for rate limit...\n\n", rateLimitDelay)
			time.Sleep(rateLimitDelay)
		}
	}

	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("TEST COMPLETE: %d/%d categories matched\n", matched, len(items))
	fmt.Println(strings.Repeat("=", 80))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
