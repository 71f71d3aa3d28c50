// README: Vehicle position handlers.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fleet/internal/modules/location"
	"fleet/internal/types"
)

type LocationHandler struct {
	location *location.Service
}

func NewLocationHandler(svc *location.Service) *LocationHandler {
	return &LocationHandler{location: svc}
}

type updateLocationReq struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (h *LocationHandler) Update(c *gin.Context) {
	var req updateLocationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	err := h.location.Update(c.Request.Context(), location.Update{
		VehicleID: types.ID(c.Param("id")),
		Position:  types.Point{Lat: req.Lat, Lng: req.Lng},
	})
	if err != nil {
		writeLocationError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "ok"})
}

func (h *LocationHandler) Get(c *gin.Context) {
	pos, ok, err := h.location.Position(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeLocationError(c, err)
		return
	}
	if !ok {
		writeError(c, http.StatusNotFound, "no recent position")
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"lat": pos.Lat, "lng": pos.Lng})
}

func (h *LocationHandler) Nearby(c *gin.Context) {
	lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
	lng, err2 := strconv.ParseFloat(c.Query("lng"), 64)
	radius, err3 := strconv.ParseFloat(c.Query("radius_km"), 64)
	if err1 != nil || err2 != nil || err3 != nil {
		writeError(c, http.StatusBadRequest, "invalid coordinates")
		return
	}
	ids, err := h.location.Nearby(c.Request.Context(), types.Point{Lat: lat, Lng: lng}, radius)
	if err != nil {
		writeLocationError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"vehicles": ids})
}
