// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleet/internal/http/handlers"
	"fleet/internal/http/middleware"
	"fleet/internal/modules/delegation"
	"fleet/internal/modules/dispatch"
	"fleet/internal/modules/fleet"
	"fleet/internal/modules/location"
	"fleet/internal/modules/schedule"
	"fleet/internal/modules/trip"
)

type RouterDeps struct {
	Trips         *trip.Service
	Allocator     *dispatch.Allocator
	Merger        *dispatch.Merger
	Checker       *dispatch.Checker
	DispatchStore dispatch.Store
	Schedule      *schedule.Service
	Delegations   *delegation.Service
	Fleet         fleet.Store
	Location      *location.Service
}

func NewRouter(deps RouterDeps) http.Handler {
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.Logging())

	api := r.Group("/api")

	tripH := handlers.NewTripHandler(deps.Trips, deps.Allocator)
	api.POST("/trips", tripH.Create)
	api.GET("/trips/:id", tripH.Get)
	api.POST("/trips/:id/approve", tripH.Approve)
	api.POST("/trips/:id/reject", tripH.Reject)

	dispatchH := handlers.NewDispatchHandler(deps.DispatchStore, deps.Allocator, deps.Merger, deps.Checker)
	api.GET("/dispatches/:id", dispatchH.Get)
	api.POST("/dispatches/:id/start", dispatchH.Start)
	api.POST("/dispatches/:id/finish", dispatchH.Finish)
	api.POST("/dispatches/:id/merge", dispatchH.Merge)
	api.POST("/dispatches/:id/unmerge", dispatchH.Unmerge)
	api.GET("/dispatches/:id/candidates", dispatchH.MergeCandidates)
	api.GET("/availability/drivers", dispatchH.AvailableDrivers)
	api.GET("/availability/vehicles", dispatchH.AvailableVehicles)

	scheduleH := handlers.NewScheduleHandler(deps.Schedule)
	api.GET("/schedule/resolve", scheduleH.Resolve)
	api.PUT("/schedule/slots", scheduleH.SetSlot)
	api.POST("/schedule/lines/:line/reassign", scheduleH.ReassignLine)

	delegationH := handlers.NewDelegationHandler(deps.Delegations)
	api.POST("/delegations", delegationH.Create)
	api.GET("/delegations/effective", delegationH.Effective)

	fleetH := handlers.NewFleetHandler(deps.Fleet)
	api.POST("/drivers", fleetH.CreateDriver)
	api.GET("/drivers", fleetH.ListDrivers)
	api.POST("/vehicles", fleetH.CreateVehicle)
	api.GET("/vehicles", fleetH.ListVehicles)
	api.PUT("/vehicles/:id/status", fleetH.SetVehicleStatus)

	if deps.Location != nil {
		locationH := handlers.NewLocationHandler(deps.Location)
		api.PUT("/vehicles/:id/location", locationH.Update)
		api.GET("/vehicles/:id/location", locationH.Get)
		api.GET("/vehicles/nearby", locationH.Nearby)
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
