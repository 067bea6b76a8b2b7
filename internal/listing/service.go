package listing

import (
	"context"

	"github.com/2024luvyavarliani-boop/Upcyclee/internal/llm"
	"github.com/2024luvyavarliani-boop/Upcyclee/internal/material"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Catalog receives published items.
type Catalog interface {
	Add(item material.Item)
}

// DraftService runs the AI-assisted analysis of a draft and publishes it.
type DraftService struct {
	advisor llm.Advisor
	catalog Catalog
	newID   func() string
}

// NewDraftService creates a DraftService. catalog may be nil if Publish is not used.
func NewDraftService(advisor llm.Advisor, catalog Catalog) *DraftService {
	return &DraftService{
		advisor: advisor,
		catalog: catalog,
		newID:   func() string { return uuid.New().String() },
	}
}

// Analyze classifies the draft description and then estimates its impact
// using the category just obtained. The two calls run one after the other.
// A draft without a description is returned unchanged.
func (s *DraftService) Analyze(ctx context.Context, draft Draft) Draft {
	if draft.Description == "" {
		return draft
	}

	suggestion := s.advisor.SuggestCategory(ctx, draft.Description)
	draft.Category = suggestion.Category
	draft.Reason = suggestion.Reason

	impact := s.advisor.GetImpactEstimation(ctx, draft.estimatorName(), suggestion.Category, draft.estimatorWeight())
	draft.Impact = &impact

	log.Info().
		Str("name", draft.Name).
		Str("category", draft.Category).
		Float64("co2Saved", impact.CO2Saved).
		Bool("fallback", llm.IsFallbackClassification(suggestion)).
		Msg("draft analyzed")

	return draft
}

// Build turns a draft into a catalog item, filling in defaults.
func (s *DraftService) Build(draft Draft, donorName string) material.Item {
	category := material.Category(draft.Category)
	if category == "" {
		category = material.CategoryMetal
	}

	location := DefaultLocation
	location.Address = draft.Address
	if location.Address == "" {
		location.Address = DefaultAddress
	}

	if donorName == "" {
		donorName = DefaultDonorName
	}

	imageURL := draft.ImageURL
	if imageURL == "" {
		imageURL = DefaultImageURL
	}

	return material.Item{
		ID:          s.newID(),
		Name:        draft.Name,
		Category:    category,
		Description: draft.Description,
		Quantity:    draft.Quantity,
		Location:    location,
		WeightKg:    draft.WeightKg,
		ImageURL:    imageURL,
		DonorName:   donorName,
		PostedAt:    JustPosted,
	}
}

// Publish builds the item and prepends it to the catalog.
func (s *DraftService) Publish(draft Draft, donorName string) material.Item {
	item := s.Build(draft, donorName)
	if s.catalog != nil {
		s.catalog.Add(item)
	}
	log.Info().Str("id", item.ID).Str("name", item.Name).Str("category", string(item.Category)).Msg("material published")
	return item
}
