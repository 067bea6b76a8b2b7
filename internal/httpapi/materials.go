package httpapi

import (
	"errors"
	"net/http"

	"github.com/2024luvyavarliani-boop/Upcyclee/internal/listing"
	"github.com/2024luvyavarliani-boop/Upcyclee/internal/marketplace"
	"github.com/2024luvyavarliani-boop/Upcyclee/internal/material"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// PublishRequest is a draft plus the name shown as its donor.
type PublishRequest struct {
	listing.Draft
	DonorName string `json:"donorName"`
}

func (req PublishRequest) Validate() map[string]string {
	errs := make(map[string]string)
	if req.Name == "" {
		errs["name"] = "Material name is required"
	}
	if req.WeightKg < 0 {
		errs["weightKg"] = "Weight cannot be negative"
	}
	return errs
}

func (s *Server) ListMaterials(w http.ResponseWriter, r *http.Request) {
	filter := marketplace.Filter{
		Query:    r.URL.Query().Get("q"),
		Category: material.Category(r.URL.Query().Get("category")),
	}
	writeJSON(w, http.StatusOK, NewSuccessResponse(s.catalog.List(filter)))
}

func (s *Server) ListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, NewSuccessResponse(material.CategoryLabels()))
}

func (s *Server) GetMaterial(w http.ResponseWriter, r *http.Request) {
	item, err := s.catalog.Get(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, marketplace.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, NewErrorResponse("Material not found"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, NewErrorResponse("Failed to get material"))
		return
	}
	writeJSON(w, http.StatusOK, NewSuccessResponse(item))
}

func (s *Server) PublishMaterial(w http.ResponseWriter, r *http.Request) {
	var req PublishRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, NewValidationErrorResponse(errs))
		return
	}

	item := s.drafts.Publish(req.Draft, req.DonorName)
	writeJSON(w, http.StatusCreated, NewSuccessResponse(item))
}

func (s *Server) ClaimMaterial(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	item, err := s.catalog.Claim(id)
	if err != nil {
		if errors.Is(err, marketplace.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, NewErrorResponse("Material not found"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, NewErrorResponse("Failed to claim material"))
		return
	}

	log.Info().Str("id", item.ID).Str("name", item.Name).Msg("material claimed over http")
	writeJSON(w, http.StatusOK, NewSuccessResponse(item))
}

func (s *Server) GetStats(w http.ResponseWriter, r *http.Request) {
	activeUsers := 0
	if s.users != nil {
		n, err := s.users.CountUsers()
		if err != nil {
			log.Warn().Err(err).Msg("failed to count users")
		} else {
			activeUsers = n
		}
	}
	writeJSON(w, http.StatusOK, NewSuccessResponse(s.catalog.Stats(activeUsers)))
}
