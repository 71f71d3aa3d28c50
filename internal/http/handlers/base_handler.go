// README: Base handler utilities (JSON helpers, error-to-status mapping).
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fleet/internal/modules/delegation"
	"fleet/internal/modules/dispatch"
	"fleet/internal/modules/fleet"
	"fleet/internal/modules/location"
	"fleet/internal/modules/schedule"
	"fleet/internal/modules/trip"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeTripError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, trip.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, trip.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, trip.ErrInvalidState), errors.Is(err, trip.ErrConflict):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeDispatchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, dispatch.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, dispatch.ErrNotFound), errors.Is(err, trip.ErrNotFound), errors.Is(err, fleet.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, dispatch.ErrConflict), errors.Is(err, dispatch.ErrInvalidState), errors.Is(err, dispatch.ErrIntegrity):
		writeError(c, http.StatusConflict, err.Error())
	// Business refusals carry enough detail to act on; 422 keeps them
	// apart from malformed input.
	case errors.Is(err, dispatch.ErrVehicleUnavailable),
		errors.Is(err, dispatch.ErrNoDriverAvailable),
		errors.Is(err, dispatch.ErrCapacityExceeded),
		errors.Is(err, dispatch.ErrParentNotAssigned):
		writeError(c, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeScheduleError(c *gin.Context, err error) {
	if errors.Is(err, schedule.ErrBadRequest) {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	writeError(c, http.StatusInternalServerError, "internal error")
}

func writeDelegationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, delegation.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, delegation.ErrIntegrity):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeFleetError(c *gin.Context, err error) {
	if errors.Is(err, fleet.ErrNotFound) {
		writeError(c, http.StatusNotFound, err.Error())
		return
	}
	writeError(c, http.StatusInternalServerError, "internal error")
}

func writeLocationError(c *gin.Context, err error) {
	if errors.Is(err, location.ErrBadRequest) {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	writeError(c, http.StatusInternalServerError, "internal error")
}

const dateLayout = "2006-01-02"

func parseDate(s string) (time.Time, bool) {
	t, err := time.Parse(dateLayout, s)
	return t, err == nil
}

func parseInstant(s string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, s)
	return t, err == nil
}
