// internal/app/features/machines/handler.go
package machines

import (
	"context"
	"net/http"

	"github.com/dalemusser/fleethub/internal/app/store/audit"
	machinestore "github.com/dalemusser/fleethub/internal/app/store/machines"
	"github.com/dalemusser/fleethub/internal/app/system/alerting"
	"github.com/dalemusser/fleethub/internal/app/system/auditlog"
	"github.com/dalemusser/fleethub/internal/app/system/authz"
	"github.com/dalemusser/fleethub/internal/app/system/gates"
	"github.com/dalemusser/fleethub/internal/app/system/httpjson"
	"github.com/dalemusser/fleethub/internal/app/system/normalize"
	"github.com/dalemusser/fleethub/internal/app/system/status"
	"github.com/dalemusser/fleethub/internal/app/system/timeouts"
	"github.com/dalemusser/fleethub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Machines  *machinestore.Store
	Evaluator *alerting.Evaluator
	Gate      *gates.Gate
	AuditLog  *auditlog.Logger
	Log       *zap.Logger
}

type machineRequest struct {
	Name             string   `json:"name"`
	Make             string   `json:"make"`
	Model            string   `json:"model"`
	SerialNumber     string   `json:"serial_number"`
	Status           string   `json:"status"`
	CurrentHours     *float64 `json:"current_hours"`
	NextServiceHours *float64 `json:"next_service_hours"`
	CredentialID     string   `json:"credential_id"`
	UserID           string   `json:"user_id"`
}

// HandleCreate serves POST /api/machines (machine:create).
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	res := h.Gate.Require(w, r, authz.PermMachineCreate)
	if !res.OK {
		return
	}

	var req machineRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "malformed request body")
		return
	}
	name := normalize.Name(req.Name)
	if name == "" {
		httpjson.FieldError(w, "name", "machine name is required")
		return
	}
	if req.Status != "" && req.Status != status.Active && req.Status != status.Disabled {
		httpjson.FieldError(w, "status", "status must be active or disabled")
		return
	}
	if req.CurrentHours != nil && *req.CurrentHours < 0 {
		httpjson.FieldError(w, "current_hours", "hours cannot be negative")
		return
	}
	if req.NextServiceHours != nil && *req.NextServiceHours < 0 {
		httpjson.FieldError(w, "next_service_hours", "hours cannot be negative")
		return
	}

	m := models.Machine{
		OrganizationID:   res.OrgID,
		Name:             name,
		Make:             req.Make,
		Model:            req.Model,
		SerialNumber:     req.SerialNumber,
		Status:           req.Status,
		CurrentHours:     req.CurrentHours,
		NextServiceHours: req.NextServiceHours,
	}
	if req.CredentialID != "" {
		oid, err := primitive.ObjectIDFromHex(req.CredentialID)
		if err != nil {
			httpjson.FieldError(w, "credential_id", "invalid id")
			return
		}
		m.CredentialID = &oid
	}
	if req.UserID != "" {
		oid, err := primitive.ObjectIDFromHex(req.UserID)
		if err != nil {
			httpjson.FieldError(w, "user_id", "invalid id")
			return
		}
		m.UserID = &oid
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	created, err := h.Machines.Create(ctx, m)
	if err != nil {
		h.Log.Error("machine create failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventMachineCreated, res.UserID, &res.OrgID, map[string]string{
		"machine_id": created.ID.Hex(),
		"name":       created.Name,
	})
	httpjson.Write(w, http.StatusCreated, created)
}

// HandleList serves GET /api/machines (machine:view).
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	res := h.Gate.Require(w, r, authz.PermMachineView)
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	list, err := h.Machines.ListByOrg(ctx, res.OrgID)
	if err != nil {
		h.Log.Error("machine list failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	if list == nil {
		list = []models.Machine{}
	}
	httpjson.Write(w, http.StatusOK, list)
}

// HandleGet serves GET /api/machines/{id} (machine:view). Machines from other
// organizations are indistinguishable from missing ones.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	res := h.Gate.Require(w, r, authz.PermMachineView)
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

	m, err := h.Machines.GetForOrg(ctx, id, res.OrgID)
	if err == mongo.ErrNoDocuments {
		httpjson.NotFound(w)
		return
	}
	if err != nil {
		h.Log.Error("machine load failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusOK, m)
}

// HandleUpdate serves PUT /api/machines/{id} (machine:edit).
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	res := h.Gate.Require(w, r, authz.PermMachineEdit)
	if !res.OK {
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.NotFound(w)
		return
	}

	var req machineRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Status != "" && req.Status != status.Active && req.Status != status.Disabled {
		httpjson.FieldError(w, "status", "status must be active or disabled")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	existing, err := h.Machines.GetForOrg(ctx, id, res.OrgID)
	if err == mongo.ErrNoDocuments {
		httpjson.NotFound(w)
		return
	}
	if err != nil {
		h.Log.Error("machine load failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	upd := models.Machine{
		Name:         normalize.Name(req.Name),
		Make:         req.Make,
		Model:        req.Model,
		SerialNumber: req.SerialNumber,
		Status:       req.Status,
	}
	if req.CredentialID != "" {
		oid, err := primitive.ObjectIDFromHex(req.CredentialID)
		if err != nil {
			httpjson.FieldError(w, "credential_id", "invalid id")
			return
		}
		upd.CredentialID = &oid
	}
	if req.UserID != "" {
		oid, err := primitive.ObjectIDFromHex(req.UserID)
		if err != nil {
			httpjson.FieldError(w, "user_id", "invalid id")
			return
		}
		upd.UserID = &oid
	}

	if err := h.Machines.Update(ctx, existing.ID, res.OrgID, upd); err != nil {
		h.Log.Error("machine update failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventMachineUpdated, res.UserID, &res.OrgID, map[string]string{
		"machine_id": existing.ID.Hex(),
	})

	updated, err := h.Machines.GetForOrg(ctx, existing.ID, res.OrgID)
	if err != nil {
		h.Log.Error("machine reload failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusOK, updated)
}

type hoursRequest struct {
	CurrentHours     *float64 `json:"current_hours"`
	NextServiceHours *float64 `json:"next_service_hours"`
}

// HandleSetHours serves PUT /api/machines/{id}/hours (machine:edit). Updating
// hours re-evaluates the service reminder opportunistically; any alert it
// raises is returned alongside the machine.
func (h *Handler) HandleSetHours(w http.ResponseWriter, r *http.Request) {
	res := h.Gate.Require(w, r, authz.PermMachineEdit)
	if !res.OK {
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.NotFound(w)
		return
	}

	var req hoursRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.CurrentHours == nil {
		httpjson.FieldError(w, "current_hours", "current_hours is required")
		return
	}
	if *req.CurrentHours < 0 {
		httpjson.FieldError(w, "current_hours", "hours cannot be negative")
		return
	}
	if req.NextServiceHours != nil && *req.NextServiceHours < 0 {
		httpjson.FieldError(w, "next_service_hours", "hours cannot be negative")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	if _, err := h.Machines.GetForOrg(ctx, id, res.OrgID); err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.NotFound(w)
			return
		}
		h.Log.Error("machine load failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	if err := h.Machines.SetHours(ctx, id, res.OrgID, *req.CurrentHours); err != nil {
		h.Log.Error("machine hours update failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	if req.NextServiceHours != nil {
		if err := h.Machines.SetNextServiceHours(ctx, id, res.OrgID, *req.NextServiceHours); err != nil {
			h.Log.Error("machine next-service update failed", zap.Error(err))
			httpjson.Internal(w)
			return
		}
	}

	machine, err := h.Machines.GetForOrg(ctx, id, res.OrgID)
	if err != nil {
		h.Log.Error("machine reload failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	alert := h.Evaluator.EvaluateServiceReminder(ctx, machine)

	httpjson.Write(w, http.StatusOK, map[string]any{
		"machine": machine,
		"alert":   alert,
	})
}

// HandleDelete serves DELETE /api/machines/{id} (machine:delete).
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	res := h.Gate.Require(w, r, authz.PermMachineDelete)
	if !res.OK {
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.NotFound(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	deleted, err := h.Machines.Delete(ctx, id, res.OrgID)
	if err != nil {
		h.Log.Error("machine delete failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	if deleted == 0 {
		httpjson.NotFound(w)
		return
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventMachineDeleted, res.UserID, &res.OrgID, map[string]string{
		"machine_id": id.Hex(),
	})
	httpjson.Write(w, http.StatusOK, map[string]bool{"ok": true})
}
