// Package main is the entry point for the LP Yield Calculator service, a small
// JSON-over-HTTP adapter around the pool fee-yield formula and its
// sensitivity sweeps.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourorg/lp-yield-calc/internal/config"
	"github.com/yourorg/lp-yield-calc/internal/export"
	"github.com/yourorg/lp-yield-calc/internal/guard"
	"github.com/yourorg/lp-yield-calc/internal/model"
	"github.com/yourorg/lp-yield-calc/internal/otel"
	"github.com/yourorg/lp-yield-calc/internal/security"
	"github.com/yourorg/lp-yield-calc/internal/sweep"
	"github.com/yourorg/lp-yield-calc/internal/types"
	"github.com/yourorg/lp-yield-calc/internal/validation"
	"github.com/yourorg/lp-yield-calc/internal/yield"
)

// startTime records when the service was initialized for uptime reporting
var startTime = time.Now()

// ServerConfig holds the runtime switches for the HTTP server
type ServerConfig struct {
	// HTTP port to listen on
	Port string

	// Whether to validate inputs before computing
	EnableValidation bool

	// Whether to enable the sanity guard on served reports
	EnableGuard bool

	// Whether to enable Prometheus metrics
	EnableMetrics bool
}

// Server represents the calculator service instance
type Server struct {
	// Runtime switches
	config ServerConfig

	// Application configuration from the environment
	appConfig config.Config

	// Default pool parameters applied when requests do not override them
	params model.PoolParams

	// HTTP server instance
	server *http.Server

	// Sanity guard over served reports
	guard *guard.Guard

	// Metrics registry
	metrics *serverMetrics

	// Input validation options
	validationOpts validation.Options

	// Optional report pipeline
	exporter  *export.Exporter
	signer    *security.ReportSigner
	rateLimit *rate.Limiter
}

// serverMetrics holds Prometheus metrics for the server
type serverMetrics struct {
	requestCounter   *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	validationErrors prometheus.Counter
	guardState       prometheus.Gauge
	lastAPR          prometheus.Gauge
	lastAnnualYield  prometheus.Gauge
	sweepPoints      prometheus.Histogram
}

// registerMetrics sets up Prometheus metrics collection
func registerMetrics() *serverMetrics {
	m := &serverMetrics{
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lpyield_requests_total",
				Help: "Total number of requests processed",
			},
			[]string{"status", "endpoint"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lpyield_request_duration_seconds",
				Help:    "Request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		validationErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "lpyield_validation_errors_total",
				Help: "Total number of rejected requests",
			},
		),
		guardState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "lpyield_guard_state",
				Help: "Sanity guard state (0=closed, 1=open, 2=half-open)",
			},
		),
		lastAPR: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "lpyield_last_apr",
				Help: "APR of the most recently served breakdown",
			},
		),
		lastAnnualYield: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "lpyield_last_annual_yield",
				Help: "Annual yield of the most recently served breakdown",
			},
		),
		sweepPoints: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "lpyield_sweep_points",
				Help:    "Number of points per sweep request",
				Buckets: []float64{5, 10, 21, 50, 100, 500},
			},
		),
	}

	// Register all metrics
	prometheus.MustRegister(
		m.requestCounter,
		m.requestDuration,
		m.validationErrors,
		m.guardState,
		m.lastAPR,
		m.lastAnnualYield,
		m.sweepPoints,
	)

	return m
}

// main is the entry point for the application
func main() {
	// Configure logging
	setupLogging()

	// Load configuration
	appCfg := config.Load()
	srvCfg := loadServerConfig()

	// Initialize tracing (no-op without an endpoint)
	shutdownTracer := otel.InitTracer(appCfg)
	defer shutdownTracer()

	// Create and start server
	server := NewServer(srvCfg, appCfg)
	server.Start()
}

// setupLogging configures the logging for the application
func setupLogging() {
	logFormat := strings.ToLower(os.Getenv("LOG_FORMAT"))
	logLevel := strings.ToLower(os.Getenv("LOG_LEVEL"))

	// Set log formatter based on environment
	switch logFormat {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	// Set log level based on environment
	switch logLevel {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "info":
		logrus.SetLevel(logrus.InfoLevel)
	case "warn", "warning":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}

	logrus.Info("Logging configured")
}

// loadServerConfig loads the runtime switches from environment variables
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:             getEnvOrDefault("PORT", "8080"),
		EnableValidation: getEnvBool("ENABLE_VALIDATION", true),
		EnableGuard:      getEnvBool("ENABLE_SANITY_GUARD", true),
		EnableMetrics:    getEnvBool("ENABLE_METRICS", true),
	}
}

// NewServer creates a new server instance with the configured pipeline
func NewServer(srvCfg ServerConfig, appCfg config.Config) *Server {
	// Validation bounds come from the application config
	validationOpts := validation.DefaultOptions()
	validationOpts.MaxPoolSize = appCfg.MaxPoolSize
	validationOpts.MaxDailyVolume = appCfg.MaxDailyVolume

	server := &Server{
		config:         srvCfg,
		appConfig:      appCfg,
		params:         appCfg.PoolParams(),
		validationOpts: validationOpts,
	}

	// Create sanity guard if enabled
	if srvCfg.EnableGuard {
		server.guard = guard.New(guard.Thresholds{
			MaxAPR:         appCfg.MaxAPR,
			MaxVolumeToTVL: appCfg.MaxVolumeToTVL,
			TripLimit:      appCfg.GuardTripLimit,
		}).WithResetDelay(appCfg.GuardResetDelay).
			WithTripCallback(func(reason string, b model.Breakdown) {
				logrus.Warnf("Sanity guard tripped: %s", reason)
			})
	}

	// Initialize metrics if enabled
	if srvCfg.EnableMetrics {
		server.metrics = registerMetrics()
	}

	// Rate limiter protects the compute path from request floods
	requestsPerSecond := getEnvFloat("RATE_LIMIT_RPS", 50.0)
	burstSize := getEnvInt("RATE_LIMIT_BURST", 100)
	server.rateLimit = rate.NewLimiter(rate.Limit(requestsPerSecond), burstSize)

	// Initialize report exporter if a webhook is configured
	if appCfg.ExportWebhookURL != "" {
		exporter, err := export.New(export.Config{
			Enabled:        true,
			BatchSize:      appCfg.ExportBatchSize,
			ExportInterval: appCfg.ExportInterval,
			WebhookURL:     appCfg.ExportWebhookURL,
			WebhookAPIKey:  appCfg.ExportWebhookAPIKey,
		})
		if err != nil {
			logrus.Warnf("Failed to initialize report exporter: %v", err)
		} else {
			server.exporter = exporter
			logrus.Info("Report exporter initialized")
		}
	}

	// Initialize report signing if enabled
	if appCfg.SigningEnabled {
		signer, err := security.NewReportSigner(security.SignerOptions{
			Enabled:           true,
			SignatureValidity: appCfg.SignatureValidity,
		})
		if err != nil {
			logrus.Warnf("Failed to initialize report signer: %v", err)
		} else {
			server.signer = signer
			logrus.Info("Report signer initialized")
		}
	}

	logrus.WithFields(logrus.Fields{
		"port":          srvCfg.Port,
		"fee_tier":      server.params.FeeTier,
		"lp_pool_share": server.params.LPPoolShare,
		"validation":    srvCfg.EnableValidation,
		"sanity_guard":  srvCfg.EnableGuard,
		"metrics":       srvCfg.EnableMetrics,
	}).Info("Server initialized")

	return server
}

// Start begins the HTTP server and sets up graceful shutdown
func (s *Server) Start() {
	// Create a new router
	mux := http.NewServeMux()

	// Register API endpoints
	mux.HandleFunc("/", s.handleCalculate)      // Single formula evaluation
	mux.HandleFunc("/sweep", s.handleSweep)     // Sensitivity sweeps
	mux.HandleFunc("/health", s.handleHealth)   // Health check endpoint
	mux.HandleFunc("/metrics", s.handleMetrics) // Prometheus metrics endpoint
	mux.HandleFunc("/status", s.handleStatus)   // Service status endpoint
	mux.HandleFunc("/guard", s.handleGuard)     // Sanity guard status/control

	// Configure server with timeouts
	s.server = &http.Server{
		Addr:         ":" + s.config.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start the server in a goroutine
	go func() {
		logrus.Infof("Server starting on port %s", s.config.Port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Error starting server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Server shutting down...")

	if s.exporter != nil {
		s.exporter.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server shutdown failed: %v", err)
	}

	logrus.Info("Server stopped")
}

// handleHealth is a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":    "OK",
		"version":   "1.0.0",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleMetrics exposes Prometheus metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if !s.config.EnableMetrics {
		http.Error(w, "Metrics disabled", http.StatusServiceUnavailable)
		return
	}

	promhttp.Handler().ServeHTTP(w, r)
}

// handleStatus provides detailed service status information
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":  "operational",
		"uptime":  time.Since(startTime).String(),
		"version": "1.0.0",
		"configuration": map[string]interface{}{
			"fee_tier":      s.params.FeeTier,
			"lp_pool_share": s.params.LPPoolShare,
			"validation":    s.config.EnableValidation,
			"sanity_guard":  s.config.EnableGuard,
		},
	}

	// Add guard state if enabled
	if s.config.EnableGuard && s.guard != nil {
		status["guard_state"] = s.guard.GetState().String()
	}

	if s.exporter != nil {
		status["export"] = s.exporter.Status()
	}

	if s.signer != nil {
		status["signing_public_key"] = s.signer.PublicKey()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

// handleGuard allows viewing and controlling the sanity guard
func (s *Server) handleGuard(w http.ResponseWriter, r *http.Request) {
	if !s.config.EnableGuard || s.guard == nil {
		http.Error(w, "Sanity guard not enabled", http.StatusServiceUnavailable)
		return
	}

	response := map[string]interface{}{
		"state": s.guard.GetState().String(),
	}

	if reason := s.guard.LastTripReason(); reason != "" {
		response["last_trip_reason"] = reason
	}

	// Allow reset operation via POST
	if r.Method == http.MethodPost {
		action := r.URL.Query().Get("action")
		if action == "reset" {
			s.guard.Reset()
			response["message"] = "Sanity guard reset"
			response["state"] = s.guard.GetState().String()
		}
	}

	if lastGood, at := s.guard.LastGood(); lastGood != nil {
		response["last_good_breakdown"] = lastGood
		response["last_good_timestamp"] = at.Format(time.RFC3339)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// CalcRequest is the request envelope for formula evaluation
type CalcRequest struct {
	ID   string   `json:"id"`
	Data CalcData `json:"data"`
}

// CalcData carries the formula inputs and optional parameter overrides
type CalcData struct {
	TotalPoolSize  float64 `json:"totalPoolSize"`
	DailyVolume    float64 `json:"dailyVolume"`
	PercentInRange float64 `json:"percentInRange"`

	// Optional overrides of the configured pool parameters
	FeeTier       *float64 `json:"feeTier,omitempty"`
	FeeTierPreset string   `json:"feeTierPreset,omitempty"`
	LPPoolShare   *float64 `json:"lpPoolShare,omitempty"`
}

// SweepRequest is the request envelope for sensitivity sweeps
type SweepRequest struct {
	ID   string    `json:"id"`
	Data SweepData `json:"data"`
}

// SweepData selects the sweep axis and its fixed inputs
type SweepData struct {
	// Axis is "inRange" or "volume"
	Axis string `json:"axis"`

	TotalPoolSize  float64 `json:"totalPoolSize"`
	DailyVolume    float64 `json:"dailyVolume"`
	PercentInRange float64 `json:"percentInRange"`

	// Values overrides the default swept values when non-empty
	Values []float64 `json:"values,omitempty"`

	// DropInvalid silently skips out-of-domain swept values instead of
	// rejecting the whole request
	DropInvalid bool `json:"dropInvalid,omitempty"`

	FeeTier       *float64 `json:"feeTier,omitempty"`
	FeeTierPreset string   `json:"feeTierPreset,omitempty"`
	LPPoolShare   *float64 `json:"lpPoolShare,omitempty"`
}

// CalcResponse is the response envelope shared by both endpoints
type CalcResponse struct {
	ID         string                 `json:"id,omitempty"`
	StatusCode int                    `json:"statusCode"`
	Status     string                 `json:"status"`
	Data       map[string]interface{} `json:"data"`
	Error      string                 `json:"error,omitempty"`
}

// resolveParams applies request-level overrides to the configured pool parameters
func (s *Server) resolveParams(feeTier *float64, preset string, lpShare *float64) (model.PoolParams, error) {
	params := s.params

	if preset != "" {
		tierRate, ok := types.FeeTier(strings.ToLower(preset)).Rate()
		if !ok {
			return params, fmt.Errorf("unknown fee tier preset: %q", preset)
		}
		params.FeeTier = tierRate
	}
	if feeTier != nil {
		params.FeeTier = *feeTier
	}
	if lpShare != nil {
		params.LPPoolShare = *lpShare
	}

	if s.config.EnableValidation {
		if err := validation.CheckParams(params, s.validationOpts); err != nil {
			return params, err
		}
	}

	return params, nil
}

// handleCalculate evaluates the yield formula for one input tuple
func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	// Only accept POST requests on the root endpoint
	if r.Method != http.MethodPost || r.URL.Path != "/" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !s.rateLimit.Allow() {
		s.errorResponse(w, "calculate", http.StatusTooManyRequests, "Rate limit exceeded")
		return
	}

	var request CalcRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.errorResponse(w, "calculate", http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, span := otel.Tracer().Start(r.Context(), "calculate")
	defer span.End()

	params, err := s.resolveParams(request.Data.FeeTier, request.Data.FeeTierPreset, request.Data.LPPoolShare)
	if err != nil {
		otel.RecordError(ctx, err)
		s.countValidationError()
		s.errorResponse(w, "calculate", http.StatusBadRequest, err.Error())
		return
	}

	inputs := model.Inputs{
		TotalPoolSize:  request.Data.TotalPoolSize,
		DailyVolume:    request.Data.DailyVolume,
		PercentInRange: request.Data.PercentInRange,
	}

	if s.config.EnableValidation {
		if err := validation.CheckInputs(inputs, s.validationOpts); err != nil {
			otel.RecordError(ctx, err)
			s.countValidationError()
			s.errorResponse(w, "calculate", http.StatusBadRequest, err.Error())
			return
		}
	}

	breakdown := yield.Compute(params, inputs)

	// Apply sanity guard check if enabled
	if s.config.EnableGuard && s.guard != nil {
		if err := s.guard.Check(inputs, breakdown); err != nil {
			otel.RecordError(ctx, err)
			s.updateGuardMetric()
			s.errorResponse(w, "calculate", http.StatusServiceUnavailable, err.Error())
			return
		}
		s.updateGuardMetric()
	}

	// Track served values in Prometheus
	if s.metrics != nil {
		s.metrics.lastAPR.Set(breakdown.OurAPR)
		s.metrics.lastAnnualYield.Set(breakdown.OurAnnualYield)
	}

	// Hand the report to the export pipeline
	if s.exporter != nil {
		s.exporter.Add(export.Report{
			Inputs:    inputs,
			Params:    params,
			Breakdown: breakdown,
			ServedAt:  time.Now().Unix(),
		})
	}

	response := CalcResponse{
		ID:         request.ID,
		StatusCode: http.StatusOK,
		Status:     "success",
		Data: map[string]interface{}{
			"breakdown": breakdown,
			"sharePct":  breakdown.SharePct(),
			"params":    params,
			"meta": map[string]interface{}{
				"latencyMs": time.Since(start).Milliseconds(),
				"timestamp": time.Now().Unix(),
			},
		},
	}

	if s.metrics != nil {
		s.metrics.requestDuration.WithLabelValues("calculate").Observe(time.Since(start).Seconds())
		s.metrics.requestCounter.WithLabelValues("success", "calculate").Inc()
	}

	s.writeResponse(w, http.StatusOK, response)
}

// sweepBatch expands one swept axis into full per-point inputs, holding
// the other fields fixed.
func sweepBatch(axis string, base model.Inputs, values []float64) []model.Inputs {
	batch := make([]model.Inputs, len(values))
	for i, v := range values {
		in := base
		if axis == "volume" {
			in.DailyVolume = v
		} else {
			in.PercentInRange = v
		}
		batch[i] = in
	}
	return batch
}

// sweepValues recovers the swept axis values from a batch of inputs.
func sweepValues(axis string, batch []model.Inputs) []float64 {
	values := make([]float64, len(batch))
	for i, in := range batch {
		if axis == "volume" {
			values[i] = in.DailyVolume
		} else {
			values[i] = in.PercentInRange
		}
	}
	return values
}

// handleSweep drives repeated formula evaluation over one input axis
func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !s.rateLimit.Allow() {
		s.errorResponse(w, "sweep", http.StatusTooManyRequests, "Rate limit exceeded")
		return
	}

	var request SweepRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.errorResponse(w, "sweep", http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, span := otel.Tracer().Start(r.Context(), "sweep")
	defer span.End()

	params, err := s.resolveParams(request.Data.FeeTier, request.Data.FeeTierPreset, request.Data.LPPoolShare)
	if err != nil {
		otel.RecordError(ctx, err)
		s.countValidationError()
		s.errorResponse(w, "sweep", http.StatusBadRequest, err.Error())
		return
	}

	inputs := model.Inputs{
		TotalPoolSize:  request.Data.TotalPoolSize,
		DailyVolume:    request.Data.DailyVolume,
		PercentInRange: request.Data.PercentInRange,
	}

	if s.config.EnableValidation {
		if err := validation.CheckInputs(inputs, s.validationOpts); err != nil {
			otel.RecordError(ctx, err)
			s.countValidationError()
			s.errorResponse(w, "sweep", http.StatusBadRequest, err.Error())
			return
		}
	}

	axis := request.Data.Axis
	var values []float64
	switch axis {
	case "volume":
		values = request.Data.Values
		if len(values) == 0 {
			values = sweep.DefaultVolumes()
		}
	case "inRange", "":
		values = request.Data.Values
		if len(values) == 0 {
			values = sweep.DefaultInRangePercents()
		}
	default:
		s.errorResponse(w, "sweep", http.StatusBadRequest, fmt.Sprintf("unknown sweep axis: %q", request.Data.Axis))
		return
	}

	// Swept values go through the same domain checks as the fixed inputs
	if s.config.EnableValidation {
		batch := sweepBatch(axis, inputs, values)
		if request.Data.DropInvalid {
			batch = validation.FilterInputs(batch, s.validationOpts)
			values = sweepValues(axis, batch)
		} else {
			for _, in := range batch {
				if err := validation.CheckInputs(in, s.validationOpts); err != nil {
					otel.RecordError(ctx, err)
					s.countValidationError()
					s.errorResponse(w, "sweep", http.StatusBadRequest, err.Error())
					return
				}
			}
		}
	}

	var points []sweep.Point
	if axis == "volume" {
		points = sweep.OverVolume(params, inputs.TotalPoolSize, inputs.PercentInRange, values)
	} else if r.URL.Query().Get("parallel") == "1" {
		points = sweep.OverInRangeParallel(ctx, params, inputs.TotalPoolSize, inputs.DailyVolume, values)
	} else {
		points = sweep.OverInRange(params, inputs.TotalPoolSize, inputs.DailyVolume, values)
	}

	if s.metrics != nil {
		s.metrics.sweepPoints.Observe(float64(len(points)))
		s.metrics.requestDuration.WithLabelValues("sweep").Observe(time.Since(start).Seconds())
		s.metrics.requestCounter.WithLabelValues("success", "sweep").Inc()
	}

	response := CalcResponse{
		ID:         request.ID,
		StatusCode: http.StatusOK,
		Status:     "success",
		Data: map[string]interface{}{
			"axis":   request.Data.Axis,
			"points": points,
			"params": params,
			"meta": map[string]interface{}{
				"latencyMs":  time.Since(start).Milliseconds(),
				"pointCount": len(points),
				"timestamp":  time.Now().Unix(),
			},
		},
	}

	s.writeResponse(w, http.StatusOK, response)
}

// writeResponse sends a response, signing it first when signing is enabled
func (s *Server) writeResponse(w http.ResponseWriter, statusCode int, response CalcResponse) {
	var payload interface{} = response

	if s.signer != nil {
		wrapped, err := s.signer.Wrap(response)
		if err != nil {
			logrus.Warnf("Failed to sign response: %v", err)
		} else {
			payload = wrapped
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// errorResponse returns a formatted error response
func (s *Server) errorResponse(w http.ResponseWriter, endpoint string, statusCode int, errorMsg string) {
	logrus.Warn(errorMsg)

	// Track errors in metrics
	if s.metrics != nil {
		s.metrics.requestCounter.WithLabelValues("error", endpoint).Inc()
	}

	response := CalcResponse{
		StatusCode: statusCode,
		Status:     "error",
		Error:      errorMsg,
		Data:       map[string]interface{}{"error": errorMsg},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

// countValidationError increments the validation error counter
func (s *Server) countValidationError() {
	if s.metrics != nil {
		s.metrics.validationErrors.Inc()
	}
}

// updateGuardMetric publishes the current guard state
func (s *Server) updateGuardMetric() {
	if s.metrics != nil && s.guard != nil {
		s.metrics.guardState.Set(float64(s.guard.GetState()))
	}
}
