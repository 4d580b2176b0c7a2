// internal/app/features/notifications/handler.go
package notifications

import (
	"context"
	"net/http"
	"strconv"

	notificationstore "github.com/dalemusser/fleethub/internal/app/store/notifications"
	"github.com/dalemusser/fleethub/internal/app/system/gates"
	"github.com/dalemusser/fleethub/internal/app/system/httpjson"
	"github.com/dalemusser/fleethub/internal/app/system/notify"
	"github.com/dalemusser/fleethub/internal/app/system/timeouts"
	"github.com/dalemusser/fleethub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const defaultListLimit = 50

type Handler struct {
	Notifs  *notificationstore.Store
	Emitter *notify.Emitter
	Gate    *gates.Gate
	Log     *zap.Logger
}

// HandleList serves GET /api/notifications. Results are always scoped to the
// signed-in user; there is no way to read another user's inbox.
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

	list, err := h.Notifs.ListForUser(ctx, res.UserID, res.OrgID, limit)
	if err != nil {
		h.Log.Error("notification list failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	if list == nil {
		list = []models.Notification{}
	}
	httpjson.Write(w, http.StatusOK, list)
}

// HandleUnreadCount serves GET /api/notifications/unread-count.
func (h *Handler) HandleUnreadCount(w http.ResponseWriter, r *http.Request) {
	res := h.Gate.RequireSignedIn(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	defer cancel()

	count := h.Emitter.UnreadCount(ctx, res.UserID, res.OrgID)
	httpjson.Write(w, http.StatusOK, map[string]int64{"count": count})
}

// HandleMarkRead serves PUT /api/notifications/{id}/read. Marking an already
// read notification succeeds without effect; the transition is one-way.
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

	// Ownership check first so a foreign id yields 404, not silent success.
	exists, err := h.Notifs.Exists(ctx, id, res.UserID)
	if err != nil {
		h.Log.Error("notification lookup failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	if !exists {
		httpjson.NotFound(w)
		return
	}

	if err := h.Notifs.MarkRead(ctx, id, res.UserID); err != nil {
		h.Log.Error("notification mark-read failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]bool{"ok": true})
}

// HandleMarkAllRead serves PUT /api/notifications/read-all.
func (h *Handler) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	res := h.Gate.RequireSignedIn(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	updated, err := h.Notifs.MarkAllRead(ctx, res.UserID, res.OrgID)
	if err != nil {
		h.Log.Error("notification mark-all-read failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]int64{"updated": updated})
}
