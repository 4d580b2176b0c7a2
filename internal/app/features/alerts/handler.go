// internal/app/features/alerts/handler.go
package alerts

import (
	"context"
	"net/http"
	"strconv"

	alertstore "github.com/dalemusser/fleethub/internal/app/store/alerts"
	"github.com/dalemusser/fleethub/internal/app/system/gates"
	"github.com/dalemusser/fleethub/internal/app/system/httpjson"
	"github.com/dalemusser/fleethub/internal/app/system/timeouts"
	"github.com/dalemusser/fleethub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const defaultListLimit = 50

type Handler struct {
	Alerts *alertstore.Store
	Gate   *gates.Gate
	Log    *zap.Logger
}

// HandleList serves GET /api/alerts, scoped to the signed-in user.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	res := h.Gate.RequireSignedIn(w, r)
	if !res.OK {
		return
	}

	limit := int64(defaultListLimit)
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.ParseInt(q, 10, 64); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	list, err := h.Alerts.ListForUser(ctx, res.UserID, res.OrgID, limit)
	if err != nil {
		h.Log.Error("alert list failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	if list == nil {
		list = []models.Alert{}
	}
	httpjson.Write(w, http.StatusOK, list)
}

// HandleMarkRead serves PUT /api/alerts/{id}/read. One-way and idempotent.
func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	res := h.Gate.RequireSignedIn(w, r)
	if !res.OK {
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.NotFound(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	defer cancel()

	exists, err := h.Alerts.Exists(ctx, id, res.UserID)
	if err != nil {
		h.Log.Error("alert lookup failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	if !exists {
		httpjson.NotFound(w)
		return
	}

	if err := h.Alerts.MarkRead(ctx, id, res.UserID); err != nil {
		h.Log.Error("alert mark-read failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]bool{"ok": true})
}
