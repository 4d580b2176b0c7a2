// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/dalemusser/fleethub/internal/app/system/auditlog"
	"github.com/dalemusser/fleethub/internal/app/system/auth"
	"github.com/dalemusser/fleethub/internal/app/system/authz"
	"github.com/dalemusser/fleethub/internal/app/system/httpjson"
	"go.uber.org/zap"
)

type Handler struct {
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Log        *zap.Logger
}

// HandleLogout clears the session. Safe to call when already signed out.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if _, _, userID, ok := authz.UserCtx(r); ok {
		orgID := authz.UserOrgID(r)
		if orgID.IsZero() {
			h.AuditLog.Logout(r.Context(), r, userID, nil)
		} else {
			h.AuditLog.Logout(r.Context(), r, userID, &orgID)
		}
	}
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Error("logout: session clear failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]bool{"ok": true})
}
