package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/autoservice-booking/internal/catalog"
)

type CategoryRequest struct {
	Name string `json:"name"`
}

type OfferingRequest struct {
	CategoryID uuid.UUID `json:"categoryId"`
	Title      string    `json:"title"`
	PriceCents int64     `json:"priceCents"`
}

func (r OfferingRequest) input() catalog.OfferingInput {
	return catalog.OfferingInput{CategoryID: r.CategoryID, Title: r.Title, PriceCents: r.PriceCents}
}

type OfferingResponse struct {
	ID         uuid.UUID `json:"id"`
	CategoryID uuid.UUID `json:"categoryId"`
	Title      string    `json:"title"`
	PriceCents int64     `json:"priceCents"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type CategoryResponse struct {
	ID       uuid.UUID          `json:"id"`
	Name     string             `json:"name"`
	Services []OfferingResponse `json:"services"`
}

type CatalogResponse struct {
	Categories []CategoryResponse `json:"categories"`
}

func toOfferingResponse(o catalog.Offering) OfferingResponse {
	return OfferingResponse{ID: o.ID, CategoryID: o.CategoryID, Title: o.Title, PriceCents: o.PriceCents, UpdatedAt: o.UpdatedAt}
}

func toCategoryResponse(c catalog.Category) CategoryResponse {
	resp := CategoryResponse{ID: c.ID, Name: c.Name, Services: make([]OfferingResponse, 0, len(c.Offerings))}
	for _, o := range c.Offerings {
		resp.Services = append(resp.Services, toOfferingResponse(o))
	}
	return resp
}

// listCatalog feeds the booking form's category and service pickers.
func (h *handlers) listCatalog(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := CatalogResponse{Categories: make([]CategoryResponse, 0, len(categories))}
	for _, c := range categories {
		resp.Categories = append(resp.Categories, toCategoryResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) createCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	c, err := h.catalog.CreateCategory(r.Context(), catalog.CategoryInput{Name: req.Name})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryResponse(*c))
}

func (h *handlers) renameCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "invalid_category_id")
	if !ok {
		return
	}

	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	c, err := h.catalog.RenameCategory(r.Context(), id, catalog.CategoryInput{Name: req.Name})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponse(*c))
}

func (h *handlers) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "invalid_category_id")
	if !ok {
		return
	}

	if err := h.catalog.DeleteCategory(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) createOffering(w http.ResponseWriter, r *http.Request) {
	var req OfferingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	o, err := h.catalog.CreateOffering(r.Context(), req.input())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOfferingResponse(*o))
}

func (h *handlers) updateOffering(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "invalid_service_id")
	if !ok {
		return
	}

	var req OfferingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	o, err := h.catalog.UpdateOffering(r.Context(), id, req.input())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOfferingResponse(*o))
}

func (h *handlers) deleteOffering(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "invalid_service_id")
	if !ok {
		return
	}

	if err := h.catalog.DeleteOffering(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
