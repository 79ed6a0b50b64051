package handler

import (
	"encoding/json"
	"net/http"

	"github.com/operas/contact-relay/internal/logger"
	"github.com/operas/contact-relay/internal/service"
)

// Handler holds all HTTP handlers
type Handler struct {
	log        *logger.Logger
	contactSvc *service.ContactService
}

// New creates a new Handler instance
func New(log *logger.Logger, contactSvc *service.ContactService) *Handler {
	return &Handler{
		log:        log,
		contactSvc: contactSvc,
	}
}

// JSON helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeStatus(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"status": message})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
