package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/farman-pharma/apiserver/internal/authz"
	"github.com/farman-pharma/apiserver/internal/services"
	"github.com/farman-pharma/apiserver/internal/store"
)

type contextKey string

const contextActorKey contextKey = "actor"

const (
	maxMultipartMemory = 32 << 20
	maxUploadBytes     = 128 << 20
)

// actorFromContext returns the claims the auth middleware resolved for this
// request.
func actorFromContext(ctx context.Context) (authz.Actor, bool) {
	actor, ok := ctx.Value(contextActorKey).(authz.Actor)
	return actor, ok
}

func withActor(ctx context.Context, actor authz.Actor) context.Context {
	return context.WithValue(ctx, contextActorKey, actor)
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// ErrorResponse is a simple error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeServiceError maps the service failure taxonomy onto status codes.
// The distinctions are part of the API contract: the admin UI branches on
// them, so they must never collapse into one generic error.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, services.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, services.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrDuplicate):
		writeError(w, http.StatusConflict, "duplicate")
	case errors.Is(err, services.ErrUpstream):
		writeError(w, http.StatusBadGateway, "upstream failure")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func parseIDParam(raw string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id < 1 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// parseUploadFile extracts the named file from a parsed multipart form.
// Returns nil when the field is absent.
func parseUploadFile(form *multipart.Form, field string) (*services.UploadFile, error) {
	if form == nil {
		return nil, nil
	}
	files := form.File[field]
	if len(files) == 0 {
		return nil, nil
	}
	if len(files) > 1 {
		return nil, errors.New("only one file is allowed")
	}

	header := files[0]
	file, err := header.Open()
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	data, err := readFileLimited(file, maxUploadBytes)
	_ = file.Close()
	if err != nil {
		return nil, err
	}

	return &services.UploadFile{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}
