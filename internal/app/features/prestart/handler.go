// internal/app/features/prestart/handler.go
package prestart

import (
	"context"
	"net/http"
	"strconv"

	machinestore "github.com/dalemusser/fleethub/internal/app/store/machines"
	prestartstore "github.com/dalemusser/fleethub/internal/app/store/prestarts"
	"github.com/dalemusser/fleethub/internal/app/system/alerting"
	"github.com/dalemusser/fleethub/internal/app/system/authz"
	"github.com/dalemusser/fleethub/internal/app/system/gates"
	"github.com/dalemusser/fleethub/internal/app/system/httpjson"
	"github.com/dalemusser/fleethub/internal/app/system/normalize"
	"github.com/dalemusser/fleethub/internal/app/system/timeouts"
	"github.com/dalemusser/fleethub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	PreStarts *prestartstore.Store
	Machines  *machinestore.Store
	Evaluator *alerting.Evaluator
	Gate      *gates.Gate
	Log       *zap.Logger
}

type itemRequest struct {
	Key    string `json:"key"`
	Passed bool   `json:"passed"`
	Note   string `json:"note"`
}

type submitRequest struct {
	MachineID        string        `json:"machine_id"`
	OperatorName     string        `json:"operator_name"`
	Status           string        `json:"status"`
	Items            []itemRequest `json:"items"`
	CurrentHours     *float64      `json:"current_hours"`
	NextServiceHours *float64      `json:"next_service_hours"`
}

// HandleSubmit serves POST /api/prestart-checks (prestart:submit).
//
// Submission always evaluates the pre-start review rule; if the check also
// carries operating hours, the machine's hours are updated and the service
// reminder re-evaluated opportunistically. Both resulting alerts (either may
// be nil) are returned with the stored check.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	res := h.Gate.Require(w, r, authz.PermPreStartSubmit)
	if !res.OK {
		return
	}

	var req submitRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "malformed request body")
		return
	}
	machineID, err := primitive.ObjectIDFromHex(req.MachineID)
	if err != nil {
		httpjson.FieldError(w, "machine_id", "invalid machine id")
		return
	}
	operator := normalize.Name(req.OperatorName)
	if operator == "" {
		httpjson.FieldError(w, "operator_name", "operator name is required")
		return
	}
	if req.Status != "" && req.Status != models.PreStartOK && req.Status != models.PreStartNeedsReview {
		httpjson.FieldError(w, "status", "status must be ok or needs_review")
		return
	}
	if len(req.Items) == 0 {
		httpjson.FieldError(w, "items", "at least one checklist item is required")
		return
	}
	for _, it := range req.Items {
		if it.Key == "" {
			httpjson.FieldError(w, "items", "every checklist item needs a key")
			return
		}
	}
	if req.CurrentHours != nil && *req.CurrentHours < 0 {
		httpjson.FieldError(w, "current_hours", "hours cannot be negative")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long)
	defer cancel()

	// The machine must exist in the caller's organization.
	if _, err := h.Machines.GetForOrg(ctx, machineID, res.OrgID); err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.NotFound(w)
			return
		}
		h.Log.Error("machine load failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	items := make([]models.ChecklistItem, 0, len(req.Items))
	allPassed := true
	for _, it := range req.Items {
		items = append(items, models.ChecklistItem{Key: it.Key, Passed: it.Passed, Note: it.Note})
		if !it.Passed {
			allPassed = false
		}
	}
	st := req.Status
	if st == "" {
		if allPassed {
			st = models.PreStartOK
		} else {
			st = models.PreStartNeedsReview
		}
	}

	check := models.PreStartCheck{
		MachineID:        machineID,
		OrganizationID:   res.OrgID,
		UserID:           &res.UserID,
		OperatorName:     operator,
		Status:           st,
		Items:            items,
		CurrentHours:     req.CurrentHours,
		NextServiceHours: req.NextServiceHours,
	}

	created, err := h.PreStarts.Create(ctx, check)
	if err != nil {
		h.Log.Error("prestart create failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	reviewAlert := h.Evaluator.EvaluatePreStart(ctx, &created)

	var reminderAlert *models.Alert
	if req.CurrentHours != nil {
		if err := h.Machines.SetHours(ctx, machineID, res.OrgID, *req.CurrentHours); err != nil {
			h.Log.Error("machine hours update failed", zap.Error(err))
		} else {
			if req.NextServiceHours != nil && *req.NextServiceHours >= 0 {
				if err := h.Machines.SetNextServiceHours(ctx, machineID, res.OrgID, *req.NextServiceHours); err != nil {
					h.Log.Error("machine next-service update failed", zap.Error(err))
				}
			}
			if machine, mErr := h.Machines.GetForOrg(ctx, machineID, res.OrgID); mErr == nil {
				reminderAlert = h.Evaluator.EvaluateServiceReminder(ctx, machine)
			}
		}
	}

	httpjson.Write(w, http.StatusCreated, map[string]any{
		"check":          created,
		"review_alert":   reviewAlert,
		"reminder_alert": reminderAlert,
	})
}

// HandleListForMachine serves GET /api/prestart-checks?machine_id=…&limit=…
// (prestart:view).
func (h *Handler) HandleListForMachine(w http.ResponseWriter, r *http.Request) {
	res := h.Gate.Require(w, r, authz.PermPreStartView)
	if !res.OK {
		return
	}
	machineID, err := primitive.ObjectIDFromHex(r.URL.Query().Get("machine_id"))
	if err != nil {
		httpjson.FieldError(w, "machine_id", "invalid machine id")
		return
	}
	limit := int64(50)
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, pErr := strconv.ParseInt(q, 10, 64); pErr == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	list, err := h.PreStarts.ListForMachine(ctx, machineID, res.OrgID, limit)
	if err != nil {
		h.Log.Error("prestart list failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	if list == nil {
		list = []models.PreStartCheck{}
	}
	httpjson.Write(w, http.StatusOK, list)
}

// HandleGet serves GET /api/prestart-checks/{id} (prestart:view).
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	res := h.Gate.Require(w, r, authz.PermPreStartView)
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

	check, err := h.PreStarts.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		httpjson.NotFound(w)
		return
	}
	if err != nil {
		h.Log.Error("prestart load failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	// Tenant scoping: a check from another organization does not exist here.
	if check.OrganizationID != res.OrgID {
		httpjson.NotFound(w)
		return
	}
	httpjson.Write(w, http.StatusOK, check)
}
