// README: Fleet admin handlers for drivers and vehicles.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleet/internal/modules/fleet"
	"fleet/internal/types"
)

type FleetHandler struct {
	store fleet.Store
}

func NewFleetHandler(store fleet.Store) *FleetHandler {
	return &FleetHandler{store: store}
}

type createDriverReq struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IsAgent bool   `json:"is_agent"`
}

func (h *FleetHandler) CreateDriver(c *gin.Context) {
	var req createDriverReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(c, http.StatusBadRequest, "missing id or name")
		return
	}
	d := &fleet.Driver{ID: types.ID(req.ID), Name: req.Name, IsAgent: req.IsAgent}
	if err := h.store.CreateDriver(c.Request.Context(), d); err != nil {
		writeFleetError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{"driver_id": d.ID})
}

func (h *FleetHandler) ListDrivers(c *gin.Context) {
	drivers, err := h.store.ListDrivers(c.Request.Context())
	if err != nil {
		writeFleetError(c, err)
		return
	}
	out := make([]gin.H, 0, len(drivers))
	for _, d := range drivers {
		out = append(out, gin.H{"driver_id": d.ID, "name": d.Name, "is_agent": d.IsAgent})
	}
	writeJSON(c, http.StatusOK, gin.H{"drivers": out})
}

type createVehicleReq struct {
	ID       string `json:"id"`
	Plate    string `json:"plate"`
	Capacity int    `json:"capacity"`
}

func (h *FleetHandler) CreateVehicle(c *gin.Context) {
	var req createVehicleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ID == "" || req.Capacity <= 0 {
		writeError(c, http.StatusBadRequest, "missing id or capacity")
		return
	}
	v := &fleet.Vehicle{
		ID:       types.ID(req.ID),
		Plate:    req.Plate,
		Capacity: req.Capacity,
		Status:   fleet.VehicleAvailable,
	}
	if err := h.store.CreateVehicle(c.Request.Context(), v); err != nil {
		writeFleetError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{"vehicle_id": v.ID})
}

func (h *FleetHandler) ListVehicles(c *gin.Context) {
	vehicles, err := h.store.ListVehicles(c.Request.Context())
	if err != nil {
		writeFleetError(c, err)
		return
	}
	out := make([]gin.H, 0, len(vehicles))
	for _, v := range vehicles {
		out = append(out, gin.H{"vehicle_id": v.ID, "plate": v.Plate, "capacity": v.Capacity, "status": v.Status})
	}
	writeJSON(c, http.StatusOK, gin.H{"vehicles": out})
}

type vehicleStatusReq struct {
	Status string `json:"status"`
}

func (h *FleetHandler) SetVehicleStatus(c *gin.Context) {
	var req vehicleStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	status := fleet.VehicleStatus(req.Status)
	switch status {
	case fleet.VehicleAvailable, fleet.VehicleInUse, fleet.VehicleMaintenance:
	default:
		writeError(c, http.StatusBadRequest, "invalid status")
		return
	}
	if err := h.store.SetVehicleStatus(c.Request.Context(), types.ID(c.Param("id")), status); err != nil {
		writeFleetError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": status})
}
