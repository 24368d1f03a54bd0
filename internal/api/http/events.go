package http

import (
	"net/http"
	"strconv"

	"github.com/coursekit/coursekit-server/internal/syncx"
)

// GET /events?limit=  (admin) — newest audit events first.
func RecentEventsHandler(events *syncx.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		out, err := events.Recent(r.Context(), limit)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}
