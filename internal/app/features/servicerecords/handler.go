// internal/app/features/servicerecords/handler.go
package servicerecords

import (
	"context"
	"net/http"

	machinestore "github.com/dalemusser/fleethub/internal/app/store/machines"
	servicerecordstore "github.com/dalemusser/fleethub/internal/app/store/servicerecords"
	"github.com/dalemusser/fleethub/internal/app/system/authz"
	"github.com/dalemusser/fleethub/internal/app/system/csvutil"
	"github.com/dalemusser/fleethub/internal/app/system/gates"
	"github.com/dalemusser/fleethub/internal/app/system/httpjson"
	"github.com/dalemusser/fleethub/internal/app/system/normalize"
	"github.com/dalemusser/fleethub/internal/app/system/timeouts"
	"github.com/dalemusser/fleethub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Records  *servicerecordstore.Store
	Machines *machinestore.Store
	Gate     *gates.Gate
	Log      *zap.Logger
}

type createRequest struct {
	MachineID        string   `json:"machine_id"`
	PerformedBy      string   `json:"performed_by"`
	Description      string   `json:"description"`
	HoursAtService   *float64 `json:"hours_at_service"`
	NextServiceHours *float64 `json:"next_service_hours"`
	Parts            []string `json:"parts"`
}

// HandleCreate serves POST /api/service-records (service:record). Filing a
// record advances the machine's next-service-due hours, which resets the
// service reminder cycle.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	res := h.Gate.Require(w, r, authz.PermServiceRecord)
	if !res.OK {
		return
	}

	var req createRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "malformed request body")
		return
	}
	machineID, err := primitive.ObjectIDFromHex(req.MachineID)
	if err != nil {
		httpjson.FieldError(w, "machine_id", "invalid machine id")
		return
	}
	performedBy := normalize.Name(req.PerformedBy)
	if performedBy == "" {
		httpjson.FieldError(w, "performed_by", "performed_by is required")
		return
	}
	if req.HoursAtService == nil || *req.HoursAtService < 0 {
		httpjson.FieldError(w, "hours_at_service", "hours_at_service must be zero or positive")
		return
	}
	if req.NextServiceHours == nil || *req.NextServiceHours <= *req.HoursAtService {
		httpjson.FieldError(w, "next_service_hours", "next_service_hours must be after hours_at_service")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	if _, err := h.Machines.GetForOrg(ctx, machineID, res.OrgID); err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.NotFound(w)
			return
		}
		h.Log.Error("machine load failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	created, err := h.Records.Create(ctx, models.ServiceRecord{
		MachineID:        machineID,
		OrganizationID:   res.OrgID,
		UserID:           &res.UserID,
		PerformedBy:      performedBy,
		Description:      req.Description,
		HoursAtService:   *req.HoursAtService,
		NextServiceHours: *req.NextServiceHours,
		Parts:            req.Parts,
	})
	if err != nil {
		h.Log.Error("service record create failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	// Advance the machine's service window. The record is the source of truth
	// if this write fails, so a failure is logged but not fatal.
	if err := h.Machines.SetHours(ctx, machineID, res.OrgID, *req.HoursAtService); err != nil {
		h.Log.Error("machine hours update failed", zap.Error(err))
	}
	if err := h.Machines.SetNextServiceHours(ctx, machineID, res.OrgID, *req.NextServiceHours); err != nil {
		h.Log.Error("machine next-service update failed", zap.Error(err))
	}

	httpjson.Write(w, http.StatusCreated, created)
}

// HandleListForMachine serves GET /api/service-records?machine_id=…
// (service:view).
func (h *Handler) HandleListForMachine(w http.ResponseWriter, r *http.Request) {
	res := h.Gate.Require(w, r, authz.PermServiceView)
	if !res.OK {
		return
	}
	machineID, err := primitive.ObjectIDFromHex(r.URL.Query().Get("machine_id"))
	if err != nil {
		httpjson.FieldError(w, "machine_id", "invalid machine id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	list, err := h.Records.ListForMachine(ctx, machineID, res.OrgID)
	if err != nil {
		h.Log.Error("service record list failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	if list == nil {
		list = []models.ServiceRecord{}
	}
	httpjson.Write(w, http.StatusOK, list)
}

// HandleExport serves GET /api/service-records/export?machine_id=…
// (service:view): the machine's full service history as a CSV download.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	res := h.Gate.Require(w, r, authz.PermServiceView)
	if !res.OK {
		return
	}
	machineID, err := primitive.ObjectIDFromHex(r.URL.Query().Get("machine_id"))
	if err != nil {
		httpjson.FieldError(w, "machine_id", "invalid machine id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	machine, err := h.Machines.GetForOrg(ctx, machineID, res.OrgID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.NotFound(w)
			return
		}
		h.Log.Error("machine load failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	list, err := h.Records.ListForMachine(ctx, machineID, res.OrgID)
	if err != nil {
		h.Log.Error("service record list failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	if len(list) > csvutil.MaxExportRows {
		list = list[:csvutil.MaxExportRows]
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		`attachment; filename="service-records-`+machine.ID.Hex()+`.csv"`)
	if err := csvutil.WriteServiceRecords(w, list); err != nil {
		h.Log.Error("service record export failed", zap.Error(err))
	}
}
