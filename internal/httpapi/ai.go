package httpapi

import (
	"net/http"

	"github.com/2024luvyavarliani-boop/Upcyclee/internal/listing"
)

type categoryRequest struct {
	Description string `json:"description"`
}

type impactRequest struct {
	MaterialName string  `json:"materialName"`
	Category     string  `json:"category"`
	WeightKg     float64 `json:"weightKg"`
}

// SuggestCategory always answers 200: failures come back as the fallback result.
func (s *Server) SuggestCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result := s.advisor.SuggestCategory(r.Context(), req.Description)
	writeJSON(w, http.StatusOK, NewSuccessResponse(result))
}

func (s *Server) EstimateImpact(w http.ResponseWriter, r *http.Request) {
	var req impactRequest
	if !decodeBody(w, r, &req) {
		return
	}

	estimate := s.advisor.GetImpactEstimation(r.Context(), req.MaterialName, req.Category, req.WeightKg)
	writeJSON(w, http.StatusOK, NewSuccessResponse(estimate))
}

// AnalyzeDraft runs classification then estimation on the posted draft and
// returns the updated draft.
func (s *Server) AnalyzeDraft(w http.ResponseWriter, r *http.Request) {
	var draft listing.Draft
	if !decodeBody(w, r, &draft) {
		return
	}

	writeJSON(w, http.StatusOK, NewSuccessResponse(s.drafts.Analyze(r.Context(), draft)))
}
