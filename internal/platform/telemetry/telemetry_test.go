package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pearguacamole/VroomVault/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func Test_TracedClient_PropagatesTraceContext(t *testing.T) {
	// given
	exporter := tracetest.NewInMemoryExporter()
	tp := install(exporter, "catalog-cli")
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	var traceparent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceparent = r.Header.Get("traceparent")
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	client := catalog.NewHTTPClient(catalog.TransportConfig{Timeout: time.Second, Tracing: true})

	// when
	resp, err := client.Get(srv.URL + "/cars")
	require.NoError(t, err)
	resp.Body.Close()
	require.NoError(t, tp.ForceFlush(context.Background()))

	// then
	assert.NotEmpty(t, traceparent)
	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "catalog-cli", serviceName(spans[0]))
}

func Test_NewTracerProvider(t *testing.T) {
	// when
	tp, err := NewTracerProvider(context.Background(), "catalog-cli", Exporter{
		Endpoint: "127.0.0.1:4318",
		Insecure: true,
		Timeout:  time.Second,
	})

	// then
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = tp.Shutdown(ctx)
}

func serviceName(span tracetest.SpanStub) string {
	for _, attr := range span.Resource.Attributes() {
		if attr.Key == "service.name" {
			return attr.Value.AsString()
		}
	}
	return ""
}
