package handler

import (
	"net/http"

	"github.com/operas/contact-relay/internal/email"
	"github.com/operas/contact-relay/internal/middleware"
	"github.com/operas/contact-relay/internal/model"
)

// maxContactBodyBytes caps the request body; larger bodies fail to decode
const maxContactBodyBytes = 1 << 20

// Contact handles POST /contact
// Validates the submission and relays it as an email to the configured recipient.
func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	log := h.log.WithRequestID(middleware.GetRequestID(r.Context()))

	if r.Body == nil {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	defer r.Body.Close()

	sub, err := model.DecodeContactSubmission(http.MaxBytesReader(w, r.Body, maxContactBodyBytes))
	if err != nil {
		log.Debug().Err(err).Msg("invalid contact submission")
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	result := h.contactSvc.Submit(r.Context(), *sub)
	switch result.Kind {
	case email.KindSent:
		log.Info().Str("email", sub.Email).Msg("email sent successfully")
		writeStatus(w, http.StatusOK, "Email sent successfully")
	case email.KindConfigMissing:
		log.Error().Msg("SMTP credentials not configured")
		writeError(w, http.StatusInternalServerError, "SMTP configuration missing")
	default:
		// the cause stays in the logs; callers get one generic failure
		log.Error().
			Err(result.Err).
			Str("kind", result.Kind.String()).
			Str("email", sub.Email).
			Msg("failed to send email")
		writeError(w, http.StatusInternalServerError, "Email sending failed")
	}
}
