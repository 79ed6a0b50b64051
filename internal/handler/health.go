package handler

import (
	"net/http"
)

// Health reports that the process is serving. It does not check the relay.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, http.StatusOK, "healthy")
}
