package listing

import (
	"github.com/2024luvyavarliani-boop/Upcyclee/internal/llm"
	"github.com/2024luvyavarliani-boop/Upcyclee/internal/material"
)

// DefaultMaterialName is sent to the estimator when the draft has no name yet.
const DefaultMaterialName = "Material"

// DefaultAnalysisWeightKg is sent to the estimator when the draft weight is zero.
const DefaultAnalysisWeightKg = 5

const (
	DefaultAddress   = "Campus Central"
	DefaultDonorName = "Current User"
	DefaultImageURL  = "https://images.unsplash.com/photo-1532996122724-e3c354a0b15b?auto=format&fit=crop&q=80&w=600"
	JustPosted       = "Just now"
)

// DefaultLocation is where published items are pinned. Only the address is
// taken from the draft.
var DefaultLocation = material.Location{Lat: 40.7128, Lng: -74.0060}

// Draft is a listing being filled in before it is published.
type Draft struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Quantity    string              `json:"quantity"`
	WeightKg    float64             `json:"weightKg"`
	Address     string              `json:"address"`
	ImageURL    string              `json:"imageUrl"`
	Category    string              `json:"category"`
	Reason      string              `json:"reason,omitempty"`
	Impact      *llm.ImpactEstimate `json:"impact,omitempty"`
}

// NewDraft returns an empty draft with the default image.
func NewDraft() Draft {
	return Draft{ImageURL: DefaultImageURL}
}

// Analyzed reports whether the draft has been through an AI analysis.
func (d Draft) Analyzed() bool {
	return d.Impact != nil
}

func (d Draft) estimatorName() string {
	if d.Name == "" {
		return DefaultMaterialName
	}
	return d.Name
}

func (d Draft) estimatorWeight() float64 {
	if d.WeightKg == 0 {
		return DefaultAnalysisWeightKg
	}
	return d.WeightKg
}
