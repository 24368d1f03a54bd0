package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/coursekit/coursekit-server/internal/apperr"
	"github.com/coursekit/coursekit-server/internal/content"
	"github.com/coursekit/coursekit-server/internal/syncx"
)

// PUT /items/{itemID}/position
func RepositionItemHandler(ord *content.Ordering) http.HandlerFunc {
	type req struct {
		Type     content.ItemType `json:"type" validate:"required,oneof=LESSON QUIZ"`
		NewOrder int              `json:"new_order" validate:"required,gte=1"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in req
		if err := decodeValid(r, &in); err != nil {
			writeErr(w, err)
			return
		}
		err := ord.RepositionItem(r.Context(), chi.URLParam(r, "itemID"), in.Type, in.NewOrder, principal(r))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "repositioned"})
	}
}

// POST /items/orders — bulk verbatim order assignment, per-entry results.
func BulkOrdersHandler(ord *content.Ordering) http.HandlerFunc {
	type req struct {
		Orders map[string]int `json:"orders" validate:"required,min=1"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in req
		if err := decodeValid(r, &in); err != nil {
			writeErr(w, err)
			return
		}
		for id, v := range in.Orders {
			if v < 1 {
				writeErr(w, apperr.BadRequest("order %d for item %s is not a positive integer", v, id))
				return
			}
		}
		results := ord.ApplyBulkOrders(r.Context(), in.Orders, principal(r))
		writeJSON(w, http.StatusOK, map[string]any{"results": results})
	}
}

// POST /courses/{courseID}/rebuild-order — admin/owner re-interleave.
func RebuildOrderHandler(svc *content.Service, events *syncx.EventRepo, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		c, err := svc.Store().GetCourse(r.Context(), courseID)
		if err != nil {
			writeErr(w, err)
			return
		}
		p := principal(r)
		if !content.OwnerOrAdmin(p, c) {
			writeErr(w, apperr.Forbidden("user %s may not reorder course %s", p.ID, courseID))
			return
		}
		if err := svc.Ordering().RebuildInterleaved(r.Context(), courseID); err != nil {
			writeErr(w, err)
			return
		}
		if err := events.Append(r.Context(), syncx.EventReordered, courseID, map[string]string{"by": p.ID}); err != nil {
			log.Warn("event append failed", zap.Error(err))
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "rebuilt"})
	}
}
