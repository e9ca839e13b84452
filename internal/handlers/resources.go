package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/farman-pharma/apiserver/internal/services"
)

const formFieldMetadata = "metadata"

// ResourceHandler provides HTTP handlers for resources and rendered blogs.
type ResourceHandler struct {
	resourceService *services.ResourceService
}

func NewResourceHandler(resourceService *services.ResourceService) *ResourceHandler {
	return &ResourceHandler{resourceService: resourceService}
}

// ResourceRouter registers resource routes. Every route requires a session;
// role/permission enforcement happens in the service through the policy.
func ResourceRouter(r chi.Router, resourceService *services.ResourceService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewResourceHandler(resourceService)

	r.Use(authMiddleware)
	r.Get("/", handler.ListResources)
	r.Post("/", handler.CreateResource)
	r.Route("/{resourceID}", func(r chi.Router) {
		r.Get("/", handler.GetResource)
		r.Put("/", handler.UpdateResource)
		r.Delete("/", handler.DeleteResource)
	})
}

// BlogRouter registers the public blog lookup route.
func BlogRouter(r chi.Router, resourceService *services.ResourceService) {
	handler := NewResourceHandler(resourceService)
	r.Get("/{slug}", handler.GetBlog)
}

func (h *ResourceHandler) ListResources(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	resources, err := h.resourceService.List(r.Context(), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resources)
}

func (h *ResourceHandler) GetResource(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(chi.URLParam(r, "resourceID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resource, err := h.resourceService.Get(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resource)
}

func (h *ResourceHandler) GetBlog(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimSpace(chi.URLParam(r, "slug"))
	if slug == "" {
		writeError(w, http.StatusBadRequest, "invalid blog slug")
		return
	}

	resource, err := h.resourceService.GetBlogBySlug(r.Context(), slug)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resource)
}

func (h *ResourceHandler) CreateResource(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	input, file, err := parseResourcePayload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resource, err := h.resourceService.Create(r.Context(), actor, input, file)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resource)
}

func (h *ResourceHandler) UpdateResource(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(chi.URLParam(r, "resourceID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	input, file, err := parseResourcePayload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resource, err := h.resourceService.Update(r.Context(), actor, id, input, file)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resource)
}

func (h *ResourceHandler) DeleteResource(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(chi.URLParam(r, "resourceID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.resourceService.Delete(r.Context(), actor, id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResourceUpsertRequest is the JSON payload for file-less resource writes
// (blog posts, metadata-only updates).
type ResourceUpsertRequest struct {
	Title       string            `json:"title"`
	Type        string            `json:"type"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata"`
}

// parseResourcePayload accepts either JSON (blogs, metadata-only updates) or
// multipart (file-bearing types) based on the request content type.
func parseResourcePayload(r *http.Request) (services.ResourceInput, *services.UploadFile, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/json") {
		var req ResourceUpsertRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return services.ResourceInput{}, nil, errors.New("invalid request body")
		}
		return services.ResourceInput{
			Title:       strings.TrimSpace(req.Title),
			Type:        strings.TrimSpace(req.Type),
			Description: strings.TrimSpace(req.Description),
			Metadata:    req.Metadata,
		}, nil, nil
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return services.ResourceInput{}, nil, errors.New("invalid multipart form")
	}

	input := services.ResourceInput{
		Title:       strings.TrimSpace(r.FormValue(formFieldTitle)),
		Type:        strings.TrimSpace(r.FormValue(formFieldType)),
		Description: strings.TrimSpace(r.FormValue(formFieldDescription)),
	}
	if raw := strings.TrimSpace(r.FormValue(formFieldMetadata)); raw != "" {
		if err := json.Unmarshal([]byte(raw), &input.Metadata); err != nil {
			return services.ResourceInput{}, nil, errors.New("invalid metadata")
		}
	}

	file, err := parseUploadFile(r.MultipartForm, formFieldFile)
	if err != nil {
		return services.ResourceInput{}, nil, err
	}
	return input, file, nil
}
