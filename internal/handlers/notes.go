package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/farman-pharma/apiserver/internal/services"
)

const (
	formFieldTitle       = "title"
	formFieldDescription = "description"
	formFieldType        = "type"
	formFieldDate        = "date"
	formFieldSubject     = "subject"
	formFieldFile        = "file"
)

// NoteHandler provides HTTP handlers for notes.
type NoteHandler struct {
	noteService *services.NoteService
}

func NewNoteHandler(noteService *services.NoteService) *NoteHandler {
	return &NoteHandler{noteService: noteService}
}

// NoteRouter registers note routes. Reads are public; mutations sit behind
// the auth middleware and the policy check inside the service.
func NoteRouter(r chi.Router, noteService *services.NoteService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewNoteHandler(noteService)

	r.Get("/", handler.ListNotes)
	r.With(authMiddleware).Post("/", handler.CreateNote)
	r.Route("/{noteID}", func(r chi.Router) {
		r.Get("/", handler.GetNote)
		r.With(authMiddleware).Put("/", handler.UpdateNote)
		r.With(authMiddleware).Patch("/", handler.UpdateNote)
		r.With(authMiddleware).Delete("/", handler.DeleteNote)
	})
}

func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.noteService.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list notes")
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "noteID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	note, err := h.noteService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	input, file, err := parseNoteForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	note, err := h.noteService.Create(r.Context(), actor, input, file)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(chi.URLParam(r, "noteID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	input, file, err := parseNoteForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	note, err := h.noteService.Update(r.Context(), actor, id, input, file)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(chi.URLParam(r, "noteID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.noteService.Delete(r.Context(), actor, id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseNoteForm(r *http.Request) (services.NoteInput, *services.UploadFile, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return services.NoteInput{}, nil, errors.New("invalid multipart form")
	}

	input := services.NoteInput{
		Title:       strings.TrimSpace(r.FormValue(formFieldTitle)),
		Description: strings.TrimSpace(r.FormValue(formFieldDescription)),
		Type:        strings.TrimSpace(r.FormValue(formFieldType)),
		Subject:     strings.TrimSpace(r.FormValue(formFieldSubject)),
	}

	if raw := strings.TrimSpace(r.FormValue(formFieldDate)); raw != "" {
		date, err := parseDate(raw)
		if err != nil {
			return services.NoteInput{}, nil, errors.New("invalid date")
		}
		input.Date = date
	}

	file, err := parseUploadFile(r.MultipartForm, formFieldFile)
	if err != nil {
		return services.NoteInput{}, nil, err
	}
	return input, file, nil
}

func parseDate(raw string) (time.Time, error) {
	if date, err := time.Parse(time.RFC3339, raw); err == nil {
		return date, nil
	}
	return time.Parse("2006-01-02", raw)
}
