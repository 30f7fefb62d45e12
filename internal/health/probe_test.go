package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func descFor(srv *httptest.Server) ServiceDescriptor {
	return ServiceDescriptor{
		Name:        "test-service",
		DisplayName: "Test Service",
		Addr:        strings.TrimPrefix(srv.URL, "http://"),
	}
}

func TestProbeHealthyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"degraded","details":{"reason":"hub unreachable"}}`))
	}))
	defer srv.Close()

	outcome := NewProber(2 * time.Second).Probe(context.Background(), descFor(srv))

	assert.Equal(t, StatusDegraded, outcome.Status)
	assert.Equal(t, "test-service", outcome.Service)
	require.NotNil(t, outcome.LatencyMS)
	assert.GreaterOrEqual(t, *outcome.LatencyMS, 0.0)
	assert.Equal(t, "hub unreachable", outcome.Details["reason"])
}

func TestProbeMalformedBodyIsUnknown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	}))
	defer srv.Close()

	outcome := NewProber(2 * time.Second).Probe(context.Background(), descFor(srv))

	// A 2xx counts as a reply even when the body is garbage.
	assert.Equal(t, StatusUnknown, outcome.Status)
	assert.NotNil(t, outcome.LatencyMS)
	assert.NotNil(t, outcome.Details)
}

func TestProbeEmptyStatusIsUnknown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"details":{}}`))
	}))
	defer srv.Close()

	outcome := NewProber(2 * time.Second).Probe(context.Background(), descFor(srv))
	assert.Equal(t, StatusUnknown, outcome.Status)
}

func TestProbeNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	outcome := NewProber(2 * time.Second).Probe(context.Background(), descFor(srv))

	assert.Equal(t, StatusError, outcome.Status)
	require.NotNil(t, outcome.LatencyMS)
	assert.Equal(t, "HTTP 500", outcome.Details["error"])
	assert.Equal(t, "Test Service", outcome.Details["name"])
}

func TestProbeTimeoutReportsCeiling(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	timeout := 100 * time.Millisecond
	outcome := NewProber(timeout).Probe(context.Background(), descFor(srv))

	assert.Equal(t, StatusTimeout, outcome.Status)
	require.NotNil(t, outcome.LatencyMS)
	assert.Equal(t, float64(timeout.Milliseconds()), *outcome.LatencyMS)
	assert.Equal(t, "Request timeout", outcome.Details["error"])
}

func TestProbeConnectionRefusedIsOffline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	desc := descFor(srv)
	srv.Close() // nothing listening anymore

	outcome := NewProber(2 * time.Second).Probe(context.Background(), desc)

	assert.Equal(t, StatusOffline, outcome.Status)
	assert.Nil(t, outcome.LatencyMS)
	assert.NotEmpty(t, outcome.Details["error"])
}

func TestProbeDefaultTimeout(t *testing.T) {
	p := NewProber(0)
	assert.Equal(t, DefaultProbeTimeout, p.timeout)
}
