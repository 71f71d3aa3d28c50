// README: Dispatch handlers: execution, carpool merging, availability queries.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"fleet/internal/modules/dispatch"
	"fleet/internal/types"
)

type DispatchHandler struct {
	store   dispatch.Store
	alloc   *dispatch.Allocator
	merger  *dispatch.Merger
	checker *dispatch.Checker
}

func NewDispatchHandler(store dispatch.Store, alloc *dispatch.Allocator, merger *dispatch.Merger, checker *dispatch.Checker) *DispatchHandler {
	return &DispatchHandler{store: store, alloc: alloc, merger: merger, checker: checker}
}

func (h *DispatchHandler) Get(c *gin.Context) {
	d, err := h.store.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDispatchError(c, err)
		return
	}
	out := gin.H{
		"dispatch_id":     d.ID,
		"trip_request_id": d.TripRequestID,
		"status":          d.Status,
		"start":           d.Window.Start.Format(time.RFC3339),
		"end":             d.Window.End.Format(time.RFC3339),
	}
	if d.DriverID != nil {
		out["driver_id"] = *d.DriverID
	}
	if d.VehicleID != nil {
		out["vehicle_id"] = *d.VehicleID
	}
	if d.OdometerStart != nil {
		out["odometer_start"] = *d.OdometerStart
	}
	if d.OdometerEnd != nil {
		out["odometer_end"] = *d.OdometerEnd
	}
	writeJSON(c, http.StatusOK, out)
}

type odometerReq struct {
	Odometer int    `json:"odometer"`
	ActorID  string `json:"actor_id"`
}

func (h *DispatchHandler) Start(c *gin.Context) {
	var req odometerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	err := h.alloc.StartTrip(c.Request.Context(), dispatch.StartCommand{
		DispatchID: types.ID(c.Param("id")),
		Odometer:   req.Odometer,
		ActorID:    types.ID(req.ActorID),
	})
	if err != nil {
		writeDispatchError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": dispatch.StatusEnroute})
}

func (h *DispatchHandler) Finish(c *gin.Context) {
	var req odometerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	err := h.alloc.FinishTrip(c.Request.Context(), dispatch.FinishCommand{
		DispatchID: types.ID(c.Param("id")),
		Odometer:   req.Odometer,
		ActorID:    types.ID(req.ActorID),
	})
	if err != nil {
		writeDispatchError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": dispatch.StatusCompleted})
}

type mergeReq struct {
	ChildID string `json:"child_id"`
	ActorID string `json:"actor_id"`
}

func (h *DispatchHandler) Merge(c *gin.Context) {
	var req mergeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	remaining, err := h.merger.Merge(c.Request.Context(), dispatch.MergeCommand{
		ParentID: types.ID(c.Param("id")),
		ChildID:  types.ID(req.ChildID),
		ActorID:  types.ID(req.ActorID),
	})
	if err != nil {
		writeDispatchError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"remaining_seats": remaining})
}

func (h *DispatchHandler) Unmerge(c *gin.Context) {
	var req mergeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	err := h.merger.Unmerge(c.Request.Context(), dispatch.MergeCommand{
		ParentID: types.ID(c.Param("id")),
		ChildID:  types.ID(req.ChildID),
		ActorID:  types.ID(req.ActorID),
	})
	if err != nil {
		writeDispatchError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "unmerged"})
}

func (h *DispatchHandler) MergeCandidates(c *gin.Context) {
	candidates, err := h.merger.AvailableToMerge(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDispatchError(c, err)
		return
	}
	out := make([]gin.H, 0, len(candidates))
	for _, cand := range candidates {
		out = append(out, gin.H{
			"dispatch_id":     cand.DispatchID,
			"trip_request_id": cand.TripRequestID,
			"passengers":      cand.Passengers,
			"remaining_after": cand.RemainingAfter,
		})
	}
	writeJSON(c, http.StatusOK, gin.H{"candidates": out})
}

func (h *DispatchHandler) AvailableDrivers(c *gin.Context) {
	win, ok := windowQuery(c)
	if !ok {
		return
	}
	drivers, err := h.checker.AvailableDrivers(c.Request.Context(), win)
	if err != nil {
		writeDispatchError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"drivers": drivers})
}

func (h *DispatchHandler) AvailableVehicles(c *gin.Context) {
	win, ok := windowQuery(c)
	if !ok {
		return
	}
	minCapacity := 0
	if s := c.Query("passengers"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(c, http.StatusBadRequest, "invalid passengers")
			return
		}
		minCapacity = n
	}
	vehicles, err := h.checker.AvailableVehicles(c.Request.Context(), win, minCapacity)
	if err != nil {
		writeDispatchError(c, err)
		return
	}
	out := make([]gin.H, 0, len(vehicles))
	for _, v := range vehicles {
		out = append(out, gin.H{"vehicle_id": v.ID, "plate": v.Plate, "capacity": v.Capacity})
	}
	writeJSON(c, http.StatusOK, gin.H{"vehicles": out})
}

func windowQuery(c *gin.Context) (types.Window, bool) {
	start, ok := parseInstant(c.Query("start"))
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid start")
		return types.Window{}, false
	}
	end, ok := parseInstant(c.Query("end"))
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid end")
		return types.Window{}, false
	}
	win := types.Window{Start: start, End: end}
	if !win.Valid() {
		writeError(c, http.StatusBadRequest, "invalid window")
		return types.Window{}, false
	}
	return win, true
}
