// README: Entry point; loads config, wires services, starts the HTTP server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"fleet/internal/config"
	httptransport "fleet/internal/http"
	"fleet/internal/infra"
	"fleet/internal/maps"
	"fleet/internal/modules/delegation"
	"fleet/internal/modules/dispatch"
	"fleet/internal/modules/fleet"
	"fleet/internal/modules/location"
	"fleet/internal/modules/schedule"
	"fleet/internal/modules/trip"
	"fleet/internal/notify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)

	var estimator trip.Estimator
	if cfg.Maps.APIKey != "" {
		routeSvc, err := maps.NewRouteService(cfg.Maps.APIKey)
		if err != nil {
			log.Fatalf("maps init: %v", err)
		}
		estimator = routeSvc
	}

	fleetStore := fleet.NewPGStore(dbPool)

	tripStore := trip.NewPGStore(dbPool)
	tripSvc := trip.NewService(tripStore, estimator)

	delegationStore := delegation.NewPGStore(dbPool)
	delegationSvc := delegation.NewService(delegationStore)

	scheduleStore := schedule.NewPGStore(dbPool)
	scheduleSvc := schedule.NewService(scheduleStore, delegationSvc)

	dispatchStore := dispatch.NewPGStore(dbPool)
	checker := dispatch.NewChecker(dispatchStore, tripStore, fleetStore, scheduleStore, delegationSvc)
	notifier := notify.NewPublisher(redisClient, cfg.Notify.Channel)
	allocator := dispatch.NewAllocator(dispatchStore, tripStore, checker, notifier)
	merger := dispatch.NewMerger(dispatchStore, tripStore, fleetStore)

	locationStore := location.NewStore(redisClient)
	locationSvc := location.NewService(locationStore)

	handler := httptransport.NewRouter(httptransport.RouterDeps{
		Trips:         tripSvc,
		Allocator:     allocator,
		Merger:        merger,
		Checker:       checker,
		DispatchStore: dispatchStore,
		Schedule:      scheduleSvc,
		Delegations:   delegationSvc,
		Fleet:         fleetStore,
		Location:      locationSvc,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	log.Printf("listening on %s", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
