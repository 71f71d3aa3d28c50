// README: Leave delegation handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleet/internal/modules/delegation"
	"fleet/internal/types"
)

type DelegationHandler struct {
	deleg *delegation.Service
}

func NewDelegationHandler(svc *delegation.Service) *DelegationHandler {
	return &DelegationHandler{deleg: svc}
}

type createDelegationReq struct {
	PrincipalID string `json:"principal_id"`
	AgentID     string `json:"agent_id"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Reason      string `json:"reason"`
}

func (h *DelegationHandler) Create(c *gin.Context) {
	var req createDelegationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	start, ok := parseDate(req.Start)
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid start date")
		return
	}
	end, ok := parseDate(req.End)
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid end date")
		return
	}
	id, err := h.deleg.Create(c.Request.Context(), delegation.CreateCommand{
		PrincipalID: types.ID(req.PrincipalID),
		AgentID:     types.ID(req.AgentID),
		Start:       start,
		End:         end,
		Reason:      req.Reason,
	})
	if err != nil {
		writeDelegationError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{"delegation_id": id})
}

// Effective resolves who actually drives for a nominal driver on a date.
func (h *DelegationHandler) Effective(c *gin.Context) {
	driverID := c.Query("driver_id")
	if driverID == "" {
		writeError(c, http.StatusBadRequest, "missing driver_id")
		return
	}
	date, ok := parseDate(c.Query("date"))
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid date")
		return
	}
	effective, err := h.deleg.EffectiveDriver(c.Request.Context(), types.ID(driverID), date)
	if err != nil {
		writeDelegationError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"driver_id": effective})
}
