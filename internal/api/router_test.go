package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tour-playback-service/internal/adapters/solver"
	"tour-playback-service/internal/api/dto"
	"tour-playback-service/internal/domain"
	"tour-playback-service/internal/engine"
	"tour-playback-service/internal/render"
	"tour-playback-service/internal/services"
)

const triangleCSV = "City,A,B,C\nA,0,1,1\nB,1,0,1\nC,1,1,0\n"

type instantClock struct{}

func (instantClock) Sleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

type testServer struct {
	handler http.Handler
	mock    *solver.MockSolver
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	mock := solver.NewMockSolver(&domain.SolveResult{
		Cities:      []string{"A", "B", "C"},
		Tour:        domain.Tour{0, 1, 2},
		Cost:        3,
		Demand:      map[int]float64{0: 100, 1: 110, 2: 120},
		TotalSupply: 330,
	}, nil)

	sched, err := engine.NewScheduler(engine.Config{StepsPerEdge: 2}, instantClock{})
	require.NoError(t, err)
	ctrl, err := services.NewRunController(services.ControllerDeps{
		Scheduler: sched,
		Solver:    mock,
		Rand:      rand.New(rand.NewSource(3)),
	})
	require.NoError(t, err)
	t.Cleanup(ctrl.Close)

	comp, err := render.NewCompositor()
	require.NoError(t, err)
	t.Cleanup(comp.Close)

	aco, err := solver.NewACOSolver(solver.ACOConfig{
		Ants: 3, Iterations: 5, Alpha: 1, Beta: 2, Rho: 0.5, Q: 1, Seed: 7, Workers: 2,
	})
	require.NoError(t, err)

	return &testServer{
		handler: NewRouter(RouterDeps{
			Ctrl:        ctrl,
			Frames:      services.NewFrameService(comp, nil),
			Solver:      aco,
			CORSOrigins: []string{"*"},
		}),
		mock: mock,
	}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func loadBody(t *testing.T, csv string) string {
	t.Helper()
	b, err := json.Marshal(dto.LoadLocationsRequest{CSVData: csv})
	require.NoError(t, err)
	return string(b)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]any](t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = s.do(t, http.MethodPost, "/health", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodGet, rec.Header().Get("Allow"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestLoadLocations(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/locations", loadBody(t, triangleCSV))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decode[dto.RunViewResponse](t, rec)
	assert.Equal(t, "idle", view.Phase)
	require.Len(t, view.Locations, 3)
	assert.Equal(t, "B", view.Locations[1].Name)

	rec = s.do(t, http.MethodGet, "/locations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[dto.ListLocationsResponse](t, rec)
	assert.Len(t, list.Locations, 3)
	assert.Empty(t, list.Datasets)
}

func TestLoadLocationsRejectsBadInput(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "no source", body: `{}`, want: http.StatusBadRequest},
		{name: "both sources", body: `{"csv_data":"x","dataset":"y"}`, want: http.StatusBadRequest},
		{name: "unknown field", body: `{"csv":"x"}`, want: http.StatusBadRequest},
		{name: "header only", body: loadBody(t, "City,A\n"), want: http.StatusBadRequest},
		{name: "unknown dataset", body: `{"dataset":"atlantis"}`, want: http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/locations", tc.body)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}
}

func TestStartRun(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/locations", loadBody(t, triangleCSV)).Code)

	rec := s.do(t, http.MethodPost, "/runs", `{"supply_weight":0.2}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	view := decode[dto.RunViewResponse](t, rec)
	assert.Equal(t, "animating", view.Phase)
	assert.NotEmpty(t, view.RunID)
	assert.Equal(t, []int{0, 1, 2}, view.Tour)

	calls := s.mock.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, 0.2, calls[0].SupplyWeight)
	assert.Equal(t, 0.1, calls[0].StressFactor)

	require.Eventually(t, func() bool {
		cur := decode[dto.RunViewResponse](t, s.do(t, http.MethodGet, "/runs/current", ""))
		return cur.Phase == "idle" && len(cur.Trail) == 3
	}, 2*time.Second, 5*time.Millisecond)
}

func TestStartRunSolverError(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/locations", loadBody(t, triangleCSV)).Code)
	s.mock.Err = &domain.SolverError{Message: "Infeasible parameters"}

	rec := s.do(t, http.MethodPost, "/runs", "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Infeasible parameters", decode[map[string]string](t, rec)["error"])

	cur := decode[dto.RunViewResponse](t, s.do(t, http.MethodGet, "/runs/current", ""))
	assert.Equal(t, "idle", cur.Phase)
	assert.Equal(t, "Infeasible parameters", cur.LastError)
}

func TestStartRunWithoutLocations(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/runs/update", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFrame(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/locations", loadBody(t, triangleCSV)).Code)

	rec := s.do(t, http.MethodGet, "/runs/current/frame.png", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 800, img.Bounds().Dx())

	rec = s.do(t, http.MethodGet, "/runs/current/frame.png?width=160", "")
	require.Equal(t, http.StatusOK, rec.Code)
	img, err = png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 160, img.Bounds().Dx())
	assert.Equal(t, 120, img.Bounds().Dy())

	rec = s.do(t, http.MethodGet, "/runs/current/frame.png?width=wide", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryWithoutArchive(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/runs/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[dto.RunHistoryResponse](t, rec).Runs)

	rec = s.do(t, http.MethodGet, "/runs/history?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPISolve(t *testing.T) {
	s := newTestServer(t)

	body, err := json.Marshal(map[string]any{
		"csv_data":    triangleCSV,
		"weather_map": map[string]int{"0": 1, "1": 4},
	})
	require.NoError(t, err)

	rec := s.do(t, http.MethodPost, "/api/solve", string(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[dto.SolveResponse](t, rec)
	assert.True(t, res.Success)
	assert.Equal(t, []string{"A", "B", "C"}, res.Cities)
	assert.ElementsMatch(t, []int{0, 1, 2}, res.BestPath)
	assert.Len(t, res.CityDemand, 3)
	assert.Len(t, res.Iterations, 5)
	assert.Equal(t, 0.1, res.SupplyWeight)
}

func TestAPISolveErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "missing csv", body: `{}`, want: "No CSV data provided"},
		{name: "bad json", body: `{`, want: "invalid json body"},
		{name: "bad weather key", body: `{"csv_data":"City,A\nA,0","weather_map":{"x":1}}`, want: `weather_map key "x" is not a location index`},
		{name: "negative weight", body: `{"csv_data":"City,A\nA,0","supply_weight":-1}`, want: "supply_weight and stress_factor must be non-negative"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/solve", tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			res := decode[dto.SolveErrorResponse](t, rec)
			assert.False(t, res.Success)
			assert.Equal(t, tc.want, res.Error)
		})
	}
}

func TestStreamSendsViews(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.handler)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/runs/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var first dto.RunViewResponse
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "idle", first.Phase)
	assert.Empty(t, first.Locations)

	resp, err := http.Post(srv.URL+"/locations", "application/json", strings.NewReader(loadBody(t, triangleCSV)))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for {
		var next dto.RunViewResponse
		require.NoError(t, conn.ReadJSON(&next))
		if len(next.Locations) == 3 {
			break
		}
	}
}
