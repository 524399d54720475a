package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/yourorg/lp-yield-calc/internal/guard"
	"github.com/yourorg/lp-yield-calc/internal/model"
	"github.com/yourorg/lp-yield-calc/internal/validation"
)

// newTestServer builds a server without Prometheus registration so
// multiple tests can construct servers in one process.
func newTestServer(enableGuard bool) *Server {
	s := &Server{
		config: ServerConfig{
			EnableValidation: true,
			EnableGuard:      enableGuard,
		},
		params:         model.DefaultPoolParams(),
		validationOpts: validation.DefaultOptions(),
		rateLimit:      rate.NewLimiter(rate.Inf, 1),
	}
	if enableGuard {
		s.guard = guard.New(guard.DefaultThresholds())
	}
	return s
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) CalcResponse {
	t.Helper()

	var resp CalcResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHandleCalculate(t *testing.T) {
	s := newTestServer(false)

	rec := postJSON(t, s.handleCalculate, "/", CalcRequest{
		ID: "req-1",
		Data: CalcData{
			TotalPoolSize:  147000,
			DailyVolume:    100000,
			PercentInRange: 100,
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "req-1", resp.ID)

	breakdown, ok := resp.Data["breakdown"].(map[string]interface{})
	require.True(t, ok)
	assert.InDelta(t, 99960, breakdown["our_total_position"].(float64), 1e-6)
	assert.InDelta(t, 600, breakdown["daily_fees"].(float64), 1e-6)
	assert.InDelta(t, 0.68, breakdown["our_share"].(float64), 1e-9)
	assert.InDelta(t, 68.0, resp.Data["sharePct"].(float64), 1e-6)
}

func TestHandleCalculate_ValidationError(t *testing.T) {
	s := newTestServer(false)

	rec := postJSON(t, s.handleCalculate, "/", CalcRequest{
		Data: CalcData{
			TotalPoolSize:  147000,
			DailyVolume:    100000,
			PercentInRange: 150, // out of domain
		},
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "error", resp.Status)
	assert.Contains(t, resp.Error, "percentInRange")
}

func TestHandleCalculate_ParamOverrides(t *testing.T) {
	s := newTestServer(false)

	feeTier := 0.003
	lpShare := 0.5
	rec := postJSON(t, s.handleCalculate, "/", CalcRequest{
		Data: CalcData{
			TotalPoolSize:  200000,
			DailyVolume:    100000,
			PercentInRange: 100,
			FeeTier:        &feeTier,
			LPPoolShare:    &lpShare,
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)

	breakdown := resp.Data["breakdown"].(map[string]interface{})
	assert.InDelta(t, 100000, breakdown["our_total_position"].(float64), 1e-6)
	assert.InDelta(t, 300, breakdown["daily_fees"].(float64), 1e-6)
}

func TestHandleCalculate_FeeTierPreset(t *testing.T) {
	s := newTestServer(false)

	rec := postJSON(t, s.handleCalculate, "/", CalcRequest{
		Data: CalcData{
			TotalPoolSize:  147000,
			DailyVolume:    100000,
			PercentInRange: 100,
			FeeTierPreset:  "standard",
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)

	breakdown := resp.Data["breakdown"].(map[string]interface{})
	assert.InDelta(t, 300, breakdown["daily_fees"].(float64), 1e-6)
}

func TestHandleCalculate_UnknownPreset(t *testing.T) {
	s := newTestServer(false)

	rec := postJSON(t, s.handleCalculate, "/", CalcRequest{
		Data: CalcData{
			TotalPoolSize:  147000,
			DailyVolume:    100000,
			PercentInRange: 100,
			FeeTierPreset:  "bogus",
		},
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCalculate_MethodNotAllowed(t *testing.T) {
	s := newTestServer(false)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.handleCalculate(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleSweep_InRangeDefaults(t *testing.T) {
	s := newTestServer(false)

	rec := postJSON(t, s.handleSweep, "/sweep", SweepRequest{
		Data: SweepData{
			Axis:          "inRange",
			TotalPoolSize: 147000,
			DailyVolume:   100000,
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)

	points, ok := resp.Data["points"].([]interface{})
	require.True(t, ok)
	assert.Len(t, points, 21, "default in-range grid is 0-100 step 5")

	first := points[0].(map[string]interface{})
	last := points[len(points)-1].(map[string]interface{})
	assert.Equal(t, 0.0, first["value"].(float64))
	assert.Equal(t, 100.0, last["value"].(float64))
}

func TestHandleSweep_VolumeDefaults(t *testing.T) {
	s := newTestServer(false)

	rec := postJSON(t, s.handleSweep, "/sweep", SweepRequest{
		Data: SweepData{
			Axis:           "volume",
			TotalPoolSize:  147000,
			PercentInRange: 100,
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)

	points := resp.Data["points"].([]interface{})
	assert.Len(t, points, 6)

	first := points[0].(map[string]interface{})
	assert.Equal(t, 25000.0, first["value"].(float64))
}

func TestHandleSweep_CustomValues(t *testing.T) {
	s := newTestServer(false)

	rec := postJSON(t, s.handleSweep, "/sweep", SweepRequest{
		Data: SweepData{
			Axis:          "inRange",
			TotalPoolSize: 147000,
			DailyVolume:   100000,
			Values:        []float64{0, 50, 100},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)

	points := resp.Data["points"].([]interface{})
	assert.Len(t, points, 3)
}

func TestHandleSweep_RejectsOutOfDomainValues(t *testing.T) {
	s := newTestServer(false)

	rec := postJSON(t, s.handleSweep, "/sweep", SweepRequest{
		Data: SweepData{
			Axis:          "inRange",
			TotalPoolSize: 147000,
			DailyVolume:   100000,
			Values:        []float64{-50, 1e9},
		},
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "error", resp.Status)
	assert.Contains(t, resp.Error, "percentInRange")
}

func TestHandleSweep_VolumeValuesValidated(t *testing.T) {
	s := newTestServer(false)

	rec := postJSON(t, s.handleSweep, "/sweep", SweepRequest{
		Data: SweepData{
			Axis:           "volume",
			TotalPoolSize:  147000,
			PercentInRange: 100,
			Values:         []float64{50000, -1},
		},
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Contains(t, resp.Error, "dailyVolume")
}

func TestHandleSweep_DropInvalidValues(t *testing.T) {
	s := newTestServer(false)

	rec := postJSON(t, s.handleSweep, "/sweep", SweepRequest{
		Data: SweepData{
			Axis:          "inRange",
			TotalPoolSize: 147000,
			DailyVolume:   100000,
			Values:        []float64{-50, 25, 1e9, 50},
			DropInvalid:   true,
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)

	points := resp.Data["points"].([]interface{})
	require.Len(t, points, 2)
	assert.Equal(t, 25.0, points[0].(map[string]interface{})["value"].(float64))
	assert.Equal(t, 50.0, points[1].(map[string]interface{})["value"].(float64))
}

func TestHandleSweep_Parallel(t *testing.T) {
	s := newTestServer(false)

	rec := postJSON(t, s.handleSweep, "/sweep?parallel=1", SweepRequest{
		Data: SweepData{
			Axis:          "inRange",
			TotalPoolSize: 147000,
			DailyVolume:   100000,
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)

	points := resp.Data["points"].([]interface{})
	require.Len(t, points, 21)

	last := points[len(points)-1].(map[string]interface{})
	assert.Equal(t, 100.0, last["value"].(float64))
	breakdown := last["breakdown"].(map[string]interface{})
	assert.InDelta(t, 148920, breakdown["our_annual_yield"].(float64), 1e-6)
}

func TestHandleSweep_UnknownAxis(t *testing.T) {
	s := newTestServer(false)

	rec := postJSON(t, s.handleSweep, "/sweep", SweepRequest{
		Data: SweepData{
			Axis:          "sideways",
			TotalPoolSize: 147000,
		},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCalculate_GuardRejectsImplausible(t *testing.T) {
	s := newTestServer(true)
	// A single implausible request should already be rejected
	s.guard = guard.New(guard.Thresholds{MaxVolumeToTVL: 100.0, TripLimit: 1})

	rec := postJSON(t, s.handleCalculate, "/", CalcRequest{
		Data: CalcData{
			TotalPoolSize:  100,
			DailyVolume:    1e9,
			PercentInRange: 100,
		},
	})

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(false)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.handleHealth(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "OK", body["status"])
}

func TestHandleGuard(t *testing.T) {
	s := newTestServer(true)

	req := httptest.NewRequest(http.MethodGet, "/guard", nil)
	rec := httptest.NewRecorder()
	s.handleGuard(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "closed", body["state"])
}

func TestHandleGuard_Disabled(t *testing.T) {
	s := newTestServer(false)

	req := httptest.NewRequest(http.MethodGet, "/guard", nil)
	rec := httptest.NewRecorder()
	s.handleGuard(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
