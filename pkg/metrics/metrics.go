// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-trustvault.
//
// go-trustvault is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package metrics provides Prometheus instrumentation for trustvault
// operations: operation counters and latency histograms per component,
// plus HTTP request metrics for the broker API surface.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all trustvault metrics
	Namespace = "trustvault"

	// Label names
	LabelOperation  = "operation"
	LabelComponent  = "component"
	LabelStatus     = "status"
	LabelMethod     = "method"
	LabelStatusCode = "status_code"

	// Status values
	StatusSuccess = "success"
	StatusError   = "error"

	// Component names
	ComponentVault    = "vault"
	ComponentAudit    = "audit"
	ComponentApproval = "approval"
	ComponentBroker   = "broker"

	// Operation names
	OpInit     = "init"
	OpStore    = "store"
	OpRetrieve = "retrieve"
	OpAppend   = "append"
	OpQuery    = "query"
	OpCreate   = "create"
	OpList     = "list"
	OpApply    = "apply"
	OpCheck    = "check"
	OpRequest  = "request"
	OpApprove  = "approve"
	OpCollect  = "collect"
)

var (
	// OperationsTotal tracks the total number of trustvault operations
	// by operation, component and status.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_total",
			Help:      "Total number of trustvault operations by operation, component, and status",
		},
		[]string{LabelOperation, LabelComponent, LabelStatus},
	)

	// OperationDuration tracks the duration of trustvault operations in
	// seconds. Buckets cover sub-millisecond map lookups up to the
	// memory-hard key derivation during vault initialization.
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of trustvault operations in seconds",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{LabelOperation, LabelComponent},
	)

	// HTTPRequestsTotal tracks broker API requests by method and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by method and status code",
		},
		[]string{LabelMethod, LabelStatusCode},
	)

	// HTTPRequestDuration tracks broker API request latency in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{LabelMethod},
	)

	// enabled controls whether metrics are recorded (default: true)
	enabled atomic.Bool
)

func init() {
	enabled.Store(true)
}

// Enable turns on metrics recording.
func Enable() {
	enabled.Store(true)
}

// Disable turns off metrics recording.
func Disable() {
	enabled.Store(false)
}

// IsEnabled returns whether metrics recording is active.
func IsEnabled() bool {
	return enabled.Load()
}

// RecordOperation records one component operation with its outcome and
// duration.
func RecordOperation(operation, component string, err error, duration time.Duration) {
	if !IsEnabled() {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	OperationsTotal.WithLabelValues(operation, component, status).Inc()
	OperationDuration.WithLabelValues(operation, component).Observe(duration.Seconds())
}

// RecordHTTPRequest records one HTTP request.
func RecordHTTPRequest(method, statusCode string, duration float64) {
	if !IsEnabled() {
		return
	}
	HTTPRequestsTotal.WithLabelValues(method, statusCode).Inc()
	HTTPRequestDuration.WithLabelValues(method).Observe(duration)
}
