package dashboard

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/fieldline/callpilot/internal/observability/metrics"
	"github.com/fieldline/callpilot/internal/records"
	"github.com/fieldline/callpilot/pkg/logging"
)

// RecordSource lists recent call records, newest first.
type RecordSource interface {
	Recent(ctx context.Context, limit int) ([]records.CallRecord, error)
}

// LatencySnapshot summarizes the webhook latency histogram for the
// dashboard UI.
type LatencySnapshot struct {
	Total   int64           `json:"total"`
	P90Ms   float64         `json:"p90_ms"`
	P95Ms   float64         `json:"p95_ms"`
	Buckets []LatencyBucket `json:"buckets"`
}

type LatencyBucket struct {
	LeSeconds float64 `json:"le_seconds"`
	Count     int64   `json:"count"`
}

type callsResponse struct {
	Calls          []records.CallRecord `json:"calls"`
	WebhookLatency LatencySnapshot      `json:"webhook_latency"`
}

// Handler serves the owner dashboard API.
type Handler struct {
	source       RecordSource
	gatherer     prometheus.Gatherer
	defaultLimit int
	logger       *logging.Logger
}

func NewHandler(source RecordSource, gatherer prometheus.Gatherer, defaultLimit int, logger *logging.Logger) *Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if defaultLimit <= 0 {
		defaultLimit = 50
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		source:       source,
		gatherer:     gatherer,
		defaultLimit: defaultLimit,
		logger:       logger,
	}
}

// GetCalls returns recent call records plus a webhook latency snapshot.
// GET /api/dashboard/calls?limit=N
func (h *Handler) GetCalls(w http.ResponseWriter, r *http.Request) {
	if h.source == nil {
		http.Error(w, `{"error":"dashboard disabled (store not configured)"}`, http.StatusServiceUnavailable)
		return
	}

	limit := h.defaultLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			http.Error(w, `{"error":"invalid limit; must be 1-500"}`, http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	calls, err := h.source.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("dashboard: list recent calls failed", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	if calls == nil {
		calls = []records.CallRecord{}
	}

	resp := callsResponse{
		Calls:          calls,
		WebhookLatency: snapshotWebhookLatency(h.gatherer),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// snapshotWebhookLatency aggregates the webhook latency histogram across
// label sets and derives p90/p95 by linear interpolation within buckets.
func snapshotWebhookLatency(gatherer prometheus.Gatherer) LatencySnapshot {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mfs, err := gatherer.Gather()
	if err != nil {
		return LatencySnapshot{}
	}

	var family *dto.MetricFamily
	for _, mf := range mfs {
		if mf != nil && mf.GetName() == metrics.WebhookLatencyName {
			family = mf
			break
		}
	}
	if family == nil {
		return LatencySnapshot{}
	}

	cumulativeByUpper := map[float64]uint64{}
	var sampleCount uint64
	for _, metric := range family.Metric {
		if metric == nil {
			continue
		}
		hist := metric.GetHistogram()
		if hist == nil {
			continue
		}
		sampleCount += hist.GetSampleCount()
		for _, b := range hist.Bucket {
			if b == nil {
				continue
			}
			cumulativeByUpper[b.GetUpperBound()] += b.GetCumulativeCount()
		}
	}
	if sampleCount == 0 || len(cumulativeByUpper) == 0 {
		return LatencySnapshot{}
	}

	uppers := make([]float64, 0, len(cumulativeByUpper))
	for upper := range cumulativeByUpper {
		uppers = append(uppers, upper)
	}
	sort.Float64s(uppers)

	buckets := make([]LatencyBucket, 0, len(uppers))
	var prev uint64
	for _, upper := range uppers {
		cum := cumulativeByUpper[upper]
		count := int64(cum)
		if cum >= prev {
			count = int64(cum - prev)
		}
		prev = cum
		if math.IsInf(upper, 1) {
			continue
		}
		buckets = append(buckets, LatencyBucket{LeSeconds: upper, Count: count})
	}

	return LatencySnapshot{
		Total:   int64(sampleCount),
		P90Ms:   histogramQuantile(0.90, sampleCount, uppers, cumulativeByUpper) * 1000.0,
		P95Ms:   histogramQuantile(0.95, sampleCount, uppers, cumulativeByUpper) * 1000.0,
		Buckets: buckets,
	}
}

func histogramQuantile(q float64, total uint64, uppers []float64, cumulativeByUpper map[float64]uint64) float64 {
	if total == 0 || q <= 0 {
		return 0
	}
	if q >= 1 {
		for i := len(uppers) - 1; i >= 0; i-- {
			if !math.IsInf(uppers[i], 1) {
				return uppers[i]
			}
		}
		return 0
	}

	target := q * float64(total)
	var prevUpper, prevCum float64

	for _, upper := range uppers {
		cum := float64(cumulativeByUpper[upper])
		if cum < target {
			prevUpper = upper
			prevCum = cum
			continue
		}
		bucketCount := cum - prevCum
		if bucketCount <= 0 || upper == prevUpper {
			return upper
		}
		if math.IsInf(upper, 1) {
			return prevUpper
		}
		fraction := (target - prevCum) / bucketCount
		if fraction < 0 {
			fraction = 0
		}
		if fraction > 1 {
			fraction = 1
		}
		return prevUpper + fraction*(upper-prevUpper)
	}
	return uppers[len(uppers)-1]
}
