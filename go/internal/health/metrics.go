package health

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// PrometheusExporter renders a HealthChecker in the Prometheus text format.
type PrometheusExporter struct {
	checker HealthChecker
}

func NewPrometheusExporter(checker HealthChecker) *PrometheusExporter {
	return &PrometheusExporter{checker: checker}
}

func (e *PrometheusExporter) Export(ctx context.Context) string {
	status := e.checker.Check(ctx)

	var b strings.Builder
	writeMetric(&b, "braillechain_healthy", "gauge", "Whether the client is healthy", boolValue(status.Healthy))
	writeMetric(&b, "braillechain_poller_running", "gauge", "Whether the poll loop is running", boolValue(status.PollerRunning))
	writeMetric(&b, "braillechain_polls_total", "counter", "Successful polls of the keyboard service", status.Polls)
	writeMetric(&b, "braillechain_poll_failures_total", "counter", "Failed polls of the keyboard service", status.PollFailures)
	writeMetric(&b, "braillechain_poll_consecutive_failures", "gauge", "Failed polls since the last success", status.ConsecutiveFailures)
	writeMetric(&b, "braillechain_display_connections", "gauge", "Connected display clients", status.DisplayConnections)
	if status.NATSConfigured {
		writeMetric(&b, "braillechain_nats_connected", "gauge", "Whether NATS is connected", boolValue(status.NATSConnected))
	}
	return b.String()
}

func (e *PrometheusExporter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	if _, err := w.Write([]byte(e.Export(r.Context()))); err != nil {
		log.Error().Err(err).Msg("failed to write metrics")
	}
}

func writeMetric(b *strings.Builder, name, kind, help string, value any) {
	fmt.Fprintf(b, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
}

func boolValue(v bool) int {
	if v {
		return 1
	}
	return 0
}
