package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	ingestStartedTotal   atomic.Uint64
	ingestCompletedTotal atomic.Uint64
	ingestFailed         = newLabeledCounter()
	eventPublishFailed   atomic.Uint64

	eventsReceived atomic.Uint64
	eventsVerified atomic.Uint64
	eventsFailed   atomic.Uint64
	eventsDropped  = newLabeledCounter()

	ingestDuration = newHistogram([]float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000})
)

// IncIngestStarted increments the started counter.
func IncIngestStarted() {
	ingestStartedTotal.Add(1)
}

// IncIngestCompleted increments the completed counter.
func IncIngestCompleted() {
	ingestCompletedTotal.Add(1)
}

// IncIngestFailed increments the failure counter for the given error kind.
func IncIngestFailed(kind string) {
	ingestFailed.Inc(kind)
}

// IncEventPublishFailed counts ingestion events that could not be published.
func IncEventPublishFailed() {
	eventPublishFailed.Add(1)
}

// IncEventsReceived counts ingestion events taken off the queue.
func IncEventsReceived() {
	eventsReceived.Add(1)
}

// IncEventsVerified counts events whose stored document checked out.
func IncEventsVerified() {
	eventsVerified.Add(1)
}

// IncEventsFailed counts events left on the queue for retry.
func IncEventsFailed() {
	eventsFailed.Add(1)
}

// IncEventsDropped counts events deleted without verification, by reason.
func IncEventsDropped(reason string) {
	eventsDropped.Inc(reason)
}

// ObserveIngestDuration records how long one ingestion took.
func ObserveIngestDuration(d time.Duration) {
	ms := float64(d) / float64(time.Millisecond)
	if ms < 0 {
		ms = 0
	}
	ingestDuration.Observe(ms)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "ingest_started_total", "Total ingestions started", ingestStartedTotal.Load())
	writeCounter(&buf, "ingest_completed_total", "Total ingestions stored", ingestCompletedTotal.Load())
	writeLabeledCounter(&buf, "ingest_failed_total", "Total ingestions failed by kind", "kind", ingestFailed.Snapshot())
	writeCounter(&buf, "ingest_event_publish_failed_total", "Ingestion events not published", eventPublishFailed.Load())
	writeCounter(&buf, "events_received_total", "Ingestion events received", eventsReceived.Load())
	writeCounter(&buf, "events_verified_total", "Ingestion events verified", eventsVerified.Load())
	writeCounter(&buf, "events_failed_total", "Ingestion events left for retry", eventsFailed.Load())
	writeLabeledCounter(&buf, "events_dropped_total", "Ingestion events dropped by reason", "reason", eventsDropped.Snapshot())
	writeHistogram(&buf, "ingest_duration_ms", "Ingestion duration in milliseconds", ingestDuration.Snapshot())
	return buf.String()
}

type labeledCounter struct {
	mu     sync.Mutex
	values map[string]uint64
}

func newLabeledCounter() *labeledCounter {
	return &labeledCounter{values: make(map[string]uint64)}
}

func (c *labeledCounter) Inc(label string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[label]++
}

func (c *labeledCounter) Snapshot() map[string]uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]uint64, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe counts value in the first bucket that holds it; Render accumulates.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeLabeledCounter(buf *bytes.Buffer, name, help, label string, values map[string]uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(buf, "%s{%s=%q} %d\n", name, label, k, values[k])
	}
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
