// README: End-to-end API flow over the full router wiring.
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	httptransport "fleet/internal/http"
	"fleet/internal/modules/delegation"
	"fleet/internal/modules/dispatch"
	"fleet/internal/modules/schedule"
	"fleet/internal/modules/trip"
	"fleet/internal/store/memory"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mem := memory.New()
	tripSvc := trip.NewService(mem.Trips(), nil)
	delegationSvc := delegation.NewService(mem.Delegations())
	scheduleSvc := schedule.NewService(mem.Schedule(), delegationSvc)
	checker := dispatch.NewChecker(mem.Dispatches(), mem.Trips(), mem.Fleet(), mem.Schedule(), delegationSvc)
	allocator := dispatch.NewAllocator(mem.Dispatches(), mem.Trips(), checker, nil)
	merger := dispatch.NewMerger(mem.Dispatches(), mem.Trips(), mem.Fleet())

	handler := httptransport.NewRouter(httptransport.RouterDeps{
		Trips:         tripSvc,
		Allocator:     allocator,
		Merger:        merger,
		Checker:       checker,
		DispatchStore: mem.Dispatches(),
		Schedule:      scheduleSvc,
		Delegations:   delegationSvc,
		Fleet:         mem.Fleet(),
	})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) (int, map[string]any) {
	t.Helper()
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		buf = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	out := map[string]any{}
	if len(raw) > 0 && json.Valid(raw) {
		_ = json.Unmarshal(raw, &out)
	}
	return resp.StatusCode, out
}

func TestRequestApproveDispatchFlow(t *testing.T) {
	srv := newServer(t)

	// Fleet and roster setup.
	status, _ := doJSON(t, http.MethodPost, srv.URL+"/api/drivers", map[string]any{"id": "D1", "name": "Hsu"})
	if status != http.StatusCreated {
		t.Fatalf("create driver: %d", status)
	}
	status, _ = doJSON(t, http.MethodPost, srv.URL+"/api/vehicles", map[string]any{"id": "V4", "plate": "ABC-1234", "capacity": 4})
	if status != http.StatusCreated {
		t.Fatalf("create vehicle: %d", status)
	}
	status, _ = doJSON(t, http.MethodPut, srv.URL+"/api/schedule/slots", map[string]any{
		"date": "2025-06-03", "shift": "day", "line": "L1", "driver_id": "D1",
	})
	if status != http.StatusOK {
		t.Fatalf("set slot: %d", status)
	}

	// Employee files a request.
	status, body := doJSON(t, http.MethodPost, srv.URL+"/api/trips", map[string]any{
		"requester_id": "u1",
		"start":        "2025-06-03T09:00:00Z",
		"end":          "2025-06-03T12:00:00Z",
		"origin":       "HQ",
		"destination":  "Plant 2",
		"passengers":   2,
	})
	if status != http.StatusCreated {
		t.Fatalf("create trip: %d %v", status, body)
	}
	tripID, _ := body["trip_request_id"].(string)
	if tripID == "" {
		t.Fatalf("missing trip_request_id in %v", body)
	}

	// Admin approves; allocation happens in the same call.
	status, body = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/trips/%s/approve", srv.URL, tripID), map[string]any{"actor_id": "admin"})
	if status != http.StatusOK {
		t.Fatalf("approve: %d %v", status, body)
	}
	if body["driver_id"] != "D1" || body["vehicle_id"] != "V4" {
		t.Fatalf("unexpected assignment: %v", body)
	}
	dispatchID, _ := body["dispatch_id"].(string)
	if dispatchID == "" {
		t.Fatalf("missing dispatch_id in %v", body)
	}

	// Overlapping second request finds no vehicle.
	status, body = doJSON(t, http.MethodPost, srv.URL+"/api/trips", map[string]any{
		"requester_id": "u2",
		"start":        "2025-06-03T10:00:00Z",
		"end":          "2025-06-03T13:00:00Z",
		"passengers":   2,
	})
	if status != http.StatusCreated {
		t.Fatalf("create second trip: %d", status)
	}
	otherID, _ := body["trip_request_id"].(string)
	status, body = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/trips/%s/approve", srv.URL, otherID), map[string]any{"actor_id": "admin"})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("overlapping approve: %d %v", status, body)
	}

	// The driver runs the trip.
	status, _ = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/dispatches/%s/start", srv.URL, dispatchID), map[string]any{"odometer": 48210, "actor_id": "D1"})
	if status != http.StatusOK {
		t.Fatalf("start: %d", status)
	}
	status, _ = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/dispatches/%s/finish", srv.URL, dispatchID), map[string]any{"odometer": 48262, "actor_id": "D1"})
	if status != http.StatusOK {
		t.Fatalf("finish: %d", status)
	}

	status, body = doJSON(t, http.MethodGet, srv.URL+"/api/trips/"+tripID, nil)
	if status != http.StatusOK {
		t.Fatalf("get trip: %d", status)
	}
	if body["status"] != string(trip.StatusCompleted) {
		t.Fatalf("trip status = %v, want completed", body["status"])
	}
}

func TestHealth(t *testing.T) {
	srv := newServer(t)
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health: %d", resp.StatusCode)
	}
}
