// Package export ships computed yield reports to an external webhook.
// Export is best-effort: a dead webhook never affects request handling.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"github.com/yourorg/lp-yield-calc/internal/model"
)

// Report is one served computation, as exported to the webhook.
type Report struct {
	Inputs    model.Inputs     `json:"inputs"`
	Params    model.PoolParams `json:"params"`
	Breakdown model.Breakdown  `json:"breakdown"`
	ServedAt  int64            `json:"served_at"`
}

// Config holds configuration for report exporting
type Config struct {
	Enabled        bool   `json:"enabled"`
	BatchSize      int    `json:"batch_size"`
	ExportInterval string `json:"export_interval"`

	WebhookURL    string `json:"webhook_url"`
	WebhookAPIKey string `json:"webhook_api_key,omitempty"`
}

// Exporter batches served reports and flushes them to the webhook,
// either when the batch fills or on a fixed interval.
type Exporter struct {
	config         Config
	client         *retryablehttp.Client
	mutex          sync.RWMutex
	batch          []Report
	lastExport     time.Time
	exportInterval time.Duration
	exportContext  context.Context
	exportCancel   context.CancelFunc
}

// New creates a new report exporter. A disabled config returns an
// exporter whose methods are all no-ops.
func New(config Config) (*Exporter, error) {
	if !config.Enabled {
		return &Exporter{config: config}, nil
	}

	if config.WebhookURL == "" {
		return nil, fmt.Errorf("export enabled but webhook URL not configured")
	}

	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}

	exportInterval, err := time.ParseDuration(config.ExportInterval)
	if err != nil {
		exportInterval = 1 * time.Minute // Default
	}

	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 3 * time.Second
	client.HTTPClient.Timeout = 10 * time.Second
	client.Logger = nil

	e := &Exporter{
		config:         config,
		client:         client,
		batch:          make([]Report, 0, config.BatchSize),
		exportInterval: exportInterval,
	}

	e.exportContext, e.exportCancel = context.WithCancel(context.Background())
	go e.periodicExport()

	logrus.Info("Report exporter initialized")
	return e, nil
}

// Add appends a served report to the batch for export
func (e *Exporter) Add(r Report) {
	if !e.config.Enabled {
		return
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.batch = append(e.batch, r)

	// If we've reached batch size, export immediately
	if len(e.batch) >= e.config.BatchSize {
		go e.flush()
	}
}

// periodicExport runs a background task to periodically flush the batch
func (e *Exporter) periodicExport() {
	ticker := time.NewTicker(e.exportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.flush()
		case <-e.exportContext.Done():
			return
		}
	}
}

// flush sends the current batch to the webhook and resets it
func (e *Exporter) flush() {
	e.mutex.Lock()

	if len(e.batch) == 0 {
		e.mutex.Unlock()
		return
	}

	// Copy the batch and reset for new reports
	reports := make([]Report, len(e.batch))
	copy(reports, e.batch)
	e.batch = make([]Report, 0, e.config.BatchSize)
	e.lastExport = time.Now()

	e.mutex.Unlock()

	if err := e.postToWebhook(reports); err != nil {
		// Best effort: the batch is dropped, not retried forever
		logrus.Warnf("Failed to export %d reports to webhook: %v", len(reports), err)
		return
	}

	logrus.Debugf("Exported %d reports to webhook", len(reports))
}

// postToWebhook delivers one batch of reports
func (e *Exporter) postToWebhook(reports []Report) error {
	payload := struct {
		Reports    []Report `json:"reports"`
		ExportTime string   `json:"export_time"`
		Count      int      `json:"count"`
	}{
		Reports:    reports,
		ExportTime: time.Now().UTC().Format(time.RFC3339),
		Count:      len(reports),
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal reports: %w", err)
	}

	req, err := retryablehttp.NewRequest("POST", e.config.WebhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if e.config.WebhookAPIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.config.WebhookAPIKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned error status: %d", resp.StatusCode)
	}

	return nil
}

// Stop cleanly stops the exporter, flushing any remaining reports
func (e *Exporter) Stop() {
	if e.exportCancel != nil {
		e.exportCancel()
	}

	e.flush()
}

// Status returns the current status of the exporter
func (e *Exporter) Status() map[string]interface{} {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	status := map[string]interface{}{
		"enabled":         e.config.Enabled,
		"batch_size":      e.config.BatchSize,
		"export_interval": e.exportInterval.String(),
		"current_batch":   len(e.batch),
	}

	if !e.lastExport.IsZero() {
		status["last_export"] = e.lastExport.Format(time.RFC3339)
		status["next_export_in"] = (e.exportInterval - time.Since(e.lastExport)).String()
	}

	return status
}
