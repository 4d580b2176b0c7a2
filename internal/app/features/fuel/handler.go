// internal/app/features/fuel/handler.go
package fuel

import (
	"context"
	"net/http"
	"strconv"

	fuelstore "github.com/dalemusser/fleethub/internal/app/store/fuel"
	machinestore "github.com/dalemusser/fleethub/internal/app/store/machines"
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
	Fuel     *fuelstore.Store
	Machines *machinestore.Store
	Gate     *gates.Gate
	Log      *zap.Logger
}

type createRequest struct {
	Kind         string   `json:"kind"`
	Amount       *float64 `json:"amount"`
	MachineID    string   `json:"machine_id"`
	OperatorName string   `json:"operator_name"`
	Note         string   `json:"note"`
}

// HandleCreate serves POST /api/fuel (fuel:record). Deliveries need no
// machine; dispenses may name the machine that was fueled.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	res := h.Gate.Require(w, r, authz.PermFuelRecord)
	if !res.OK {
		return
	}

	var req createRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Kind != models.FuelDelivery && req.Kind != models.FuelDispense {
		httpjson.FieldError(w, "kind", "kind must be delivery or dispense")
		return
	}
	if req.Amount == nil || *req.Amount <= 0 {
		httpjson.FieldError(w, "amount", "amount must be positive")
		return
	}
	operator := normalize.Name(req.OperatorName)
	if operator == "" {
		httpjson.FieldError(w, "operator_name", "operator name is required")
		return
	}

	entry := models.FuelEntry{
		OrganizationID: res.OrgID,
		UserID:         &res.UserID,
		Kind:           req.Kind,
		Amount:         *req.Amount,
		OperatorName:   operator,
		Note:           req.Note,
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	if req.MachineID != "" {
		machineID, err := primitive.ObjectIDFromHex(req.MachineID)
		if err != nil {
			httpjson.FieldError(w, "machine_id", "invalid machine id")
			return
		}
		if _, err := h.Machines.GetForOrg(ctx, machineID, res.OrgID); err != nil {
			if err == mongo.ErrNoDocuments {
				httpjson.NotFound(w)
				return
			}
			h.Log.Error("machine load failed", zap.Error(err))
			httpjson.Internal(w)
			return
		}
		entry.MachineID = &machineID
	}

	created, err := h.Fuel.Create(ctx, entry)
	if err != nil {
		h.Log.Error("fuel entry create failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusCreated, created)
}

// HandleList serves GET /api/fuel (fuel:view).
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	res := h.Gate.Require(w, r, authz.PermFuelView)
	if !res.OK {
		return
	}

	limit := int64(100)
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.ParseInt(q, 10, 64); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	list, err := h.Fuel.ListByOrg(ctx, res.OrgID, limit)
	if err != nil {
		h.Log.Error("fuel list failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	if list == nil {
		list = []models.FuelEntry{}
	}
	httpjson.Write(w, http.StatusOK, list)
}

// HandleTankLevel serves GET /api/fuel/tank (fuel:view): the organization's
// current diesel tank level.
func (h *Handler) HandleTankLevel(w http.ResponseWriter, r *http.Request) {
	res := h.Gate.Require(w, r, authz.PermFuelView)
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	level, err := h.Fuel.TankLevel(ctx, res.OrgID)
	if err != nil {
		h.Log.Error("tank level aggregation failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]float64{"level": level})
}

// HandleExport serves GET /api/fuel/export (fuel:view): the organization's
// fuel ledger as a CSV download, newest entries first.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	res := h.Gate.Require(w, r, authz.PermFuelView)
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	list, err := h.Fuel.ListByOrg(ctx, res.OrgID, csvutil.MaxExportRows)
	if err != nil {
		h.Log.Error("fuel list failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="fuel-ledger.csv"`)
	if err := csvutil.WriteFuelEntries(w, list); err != nil {
		h.Log.Error("fuel export failed", zap.Error(err))
	}
}
