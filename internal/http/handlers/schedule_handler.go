// README: Duty roster handlers: slot resolution, overrides, line reassignment.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleet/internal/modules/schedule"
	"fleet/internal/types"
)

type ScheduleHandler struct {
	schedule *schedule.Service
}

func NewScheduleHandler(svc *schedule.Service) *ScheduleHandler {
	return &ScheduleHandler{schedule: svc}
}

// Resolve answers "who drives line L on shift S of date D", with
// delegation already applied.
func (h *ScheduleHandler) Resolve(c *gin.Context) {
	date, ok := parseDate(c.Query("date"))
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid date")
		return
	}
	shift := c.Query("shift")
	line := c.Query("line")
	if shift == "" || line == "" {
		writeError(c, http.StatusBadRequest, "missing shift or line")
		return
	}
	driverID, err := h.schedule.DriverForSlot(c.Request.Context(), date, shift, line)
	if err != nil {
		writeScheduleError(c, err)
		return
	}
	if driverID == nil {
		writeJSON(c, http.StatusOK, gin.H{"driver_id": nil})
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"driver_id": *driverID})
}

type setSlotReq struct {
	Date     string  `json:"date"`
	Shift    string  `json:"shift"`
	Line     string  `json:"line"`
	DriverID *string `json:"driver_id"`
}

func (h *ScheduleHandler) SetSlot(c *gin.Context) {
	var req setSlotReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	date, ok := parseDate(req.Date)
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid date")
		return
	}
	cmd := schedule.SetSlotCommand{Date: date, Shift: req.Shift, Line: req.Line}
	if req.DriverID != nil {
		id := types.ID(*req.DriverID)
		cmd.DriverID = &id
	}
	if err := h.schedule.SetSlotDriver(c.Request.Context(), cmd); err != nil {
		writeScheduleError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "ok"})
}

type reassignReq struct {
	DriverID string `json:"driver_id"`
	From     string `json:"from"`
}

func (h *ScheduleHandler) ReassignLine(c *gin.Context) {
	var req reassignReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	from, ok := parseDate(req.From)
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid from date")
		return
	}
	err := h.schedule.ReassignLine(c.Request.Context(), schedule.ReassignCommand{
		Line:     c.Param("line"),
		DriverID: types.ID(req.DriverID),
		From:     from,
	})
	if err != nil {
		writeScheduleError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "ok"})
}
