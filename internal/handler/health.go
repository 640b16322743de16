package handler

import (
	"net/http"

	"dataexplorer/internal/httputil"
)

// HandleHealth reports liveness.
// GET /health
func HandleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
