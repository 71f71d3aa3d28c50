// README: Trip request handlers: create, review, allocation.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fleet/internal/modules/dispatch"
	"fleet/internal/modules/trip"
	"fleet/internal/types"
)

type TripHandler struct {
	trips *trip.Service
	alloc *dispatch.Allocator
}

func NewTripHandler(trips *trip.Service, alloc *dispatch.Allocator) *TripHandler {
	return &TripHandler{trips: trips, alloc: alloc}
}

type createTripReq struct {
	RequesterID string  `json:"requester_id"`
	Start       string  `json:"start"`
	End         string  `json:"end"`
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	Passengers  int     `json:"passengers"`
	VehicleID   *string `json:"vehicle_id"`
}

func (h *TripHandler) Create(c *gin.Context) {
	var req createTripReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	start, ok := parseInstant(req.Start)
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid start")
		return
	}
	end, ok := parseInstant(req.End)
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid end")
		return
	}
	cmd := trip.CreateCommand{
		RequesterID: types.ID(req.RequesterID),
		Window:      types.Window{Start: start, End: end},
		Origin:      req.Origin,
		Destination: req.Destination,
		Passengers:  req.Passengers,
	}
	if req.VehicleID != nil {
		id := types.ID(*req.VehicleID)
		cmd.VehicleID = &id
	}
	id, err := h.trips.Create(c.Request.Context(), cmd)
	if err != nil {
		writeTripError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{"trip_request_id": id, "status": trip.StatusPending})
}

func (h *TripHandler) Get(c *gin.Context) {
	r, err := h.trips.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeTripError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, tripResponse(r))
}

type approveReq struct {
	ActorID            string  `json:"actor_id"`
	PreferredVehicleID *string `json:"preferred_vehicle_id"`
}

// Approve allocates first and only then flips the review status, so a
// request never ends up approved without a driver and vehicle.
func (h *TripHandler) Approve(c *gin.Context) {
	var req approveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	id := types.ID(c.Param("id"))
	r, err := h.trips.Get(c.Request.Context(), id)
	if err != nil {
		writeTripError(c, err)
		return
	}
	if r.Status != trip.StatusPending {
		writeTripError(c, trip.ErrInvalidState)
		return
	}

	cmd := dispatch.AllocateCommand{
		TripRequestID: id,
		Passengers:    r.Passengers,
		ActorID:       types.ID(req.ActorID),
	}
	if req.PreferredVehicleID != nil {
		v := types.ID(*req.PreferredVehicleID)
		cmd.PreferredVehicleID = &v
	} else if r.VehicleID != nil {
		cmd.PreferredVehicleID = r.VehicleID
	}
	a, err := h.alloc.Allocate(c.Request.Context(), cmd)
	if err != nil {
		writeDispatchError(c, err)
		return
	}
	if err := h.trips.Approve(c.Request.Context(), id); err != nil {
		writeTripError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{
		"trip_request_id": a.TripRequestID,
		"dispatch_id":     a.DispatchID,
		"driver_id":       a.DriverID,
		"vehicle_id":      a.VehicleID,
		"status":          trip.StatusApproved,
	})
}

type rejectReq struct {
	Reason string `json:"reason"`
}

func (h *TripHandler) Reject(c *gin.Context) {
	var req rejectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.trips.Reject(c.Request.Context(), types.ID(c.Param("id")), req.Reason); err != nil {
		writeTripError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": trip.StatusRejected})
}

func tripResponse(r *trip.Request) gin.H {
	out := gin.H{
		"trip_request_id": r.ID,
		"requester_id":    r.RequesterID,
		"start":           r.Window.Start.Format(time.RFC3339),
		"end":             r.Window.End.Format(time.RFC3339),
		"origin":          r.Origin,
		"destination":     r.Destination,
		"passengers":      r.Passengers,
		"status":          r.Status,
	}
	if r.DriverID != nil {
		out["driver_id"] = *r.DriverID
	}
	if r.VehicleID != nil {
		out["vehicle_id"] = *r.VehicleID
	}
	if r.EstimatedKm > 0 {
		out["estimated_km"] = r.EstimatedKm
		out["estimated_minutes"] = int(r.EstimatedDur.Minutes())
	}
	if r.RejectReason != nil {
		out["reject_reason"] = *r.RejectReason
	}
	return out
}
