package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/farman-pharma/apiserver/internal/captcha"
	"github.com/farman-pharma/apiserver/internal/services"
	"github.com/farman-pharma/apiserver/types"
)

// ContactHandler accepts contact-form submissions.
type ContactHandler struct {
	contactService *services.ContactService
	verifier       *captcha.Verifier
}

func NewContactHandler(contactService *services.ContactService, verifier *captcha.Verifier) *ContactHandler {
	return &ContactHandler{contactService: contactService, verifier: verifier}
}

// ContactRouter registers the contact route. Rate limiting is applied by the
// server when mounting this router.
func ContactRouter(r chi.Router, contactService *services.ContactService, verifier *captcha.Verifier) {
	handler := NewContactHandler(contactService, verifier)
	r.Post("/", handler.Submit)
}

// ContactRequest is the contact-form payload. CaptchaToken carries the
// challenge response when bot mitigation is enabled.
type ContactRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Mobile       string `json:"mobile"`
	Message      string `json:"message"`
	CaptchaToken string `json:"captcha_token"`
}

func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.verifier.Verify(r.Context(), req.CaptchaToken, r.RemoteAddr); err != nil {
		if errors.Is(err, captcha.ErrChallengeFailed) {
			writeError(w, http.StatusBadRequest, "captcha verification failed")
			return
		}
		writeError(w, http.StatusBadGateway, "captcha service unavailable")
		return
	}

	err := h.contactService.Submit(r.Context(), types.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Mobile:  req.Mobile,
		Message: req.Message,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"message": "message received"})
}
