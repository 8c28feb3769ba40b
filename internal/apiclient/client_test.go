package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldfishcenter/landings/internal/contract"
	"github.com/worldfishcenter/landings/schema"
)

// fakeAPI is a minimal stand-in for the landings API.
type fakeAPI struct {
	health      string
	healthCode  int
	cpueBody    string
	cpueCode    int
	cpueFails   int32 // number of leading 503s on /cpue
	cpueDelay   time.Duration
	cpueCalls   atomic.Int32
	healthCalls atomic.Int32
	lastSites   atomic.Value
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		f.healthCalls.Add(1)
		code := f.healthCode
		if code == 0 {
			code = http.StatusOK
		}
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(schema.HealthResponse{Status: f.health})
	})
	mux.HandleFunc("/api/cpue", func(w http.ResponseWriter, r *http.Request) {
		n := f.cpueCalls.Add(1)
		f.lastSites.Store(r.URL.Query().Get("landingSites"))
		if f.cpueDelay > 0 {
			select {
			case <-time.After(f.cpueDelay):
			case <-r.Context().Done():
				return
			}
		}
		if n <= f.cpueFails {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"message":"database offline"}`))
			return
		}
		if f.cpueCode != 0 {
			w.WriteHeader(f.cpueCode)
		}
		_, _ = w.Write([]byte(f.cpueBody))
	})
	return mux
}

func newTestClient(t *testing.T, api *fakeAPI, cfg Config) *Client {
	t.Helper()
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)
	cfg.BaseURL = srv.URL + "/api/"
	if cfg.Backoff == 0 {
		cfg.Backoff = time.Millisecond
	}
	return New(cfg, nil)
}

const twoRows = `[
  {"_id":"1","landing_site":"nungwi","month_date":"2023-01-01T00:00:00.000Z","cpue":2.5,"catch":100},
  {"_id":"2","landing_site":"wete","month_date":"2023-01-01T00:00:00.000Z","cpue":1.5,"catch":null}
]`

func TestHealth(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		code    int
		wantErr error
	}{
		{"ok", "ok", 0, nil},
		{"degraded", "degraded", 0, contract.ErrConnectivity},
		{"not found", "ok", http.StatusNotFound, contract.ErrConnectivity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, &fakeAPI{health: tt.status, healthCode: tt.code}, Config{})
			err := c.Health(context.Background())
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFetchCPUEFiltersSites(t *testing.T) {
	api := &fakeAPI{health: "ok", cpueBody: twoRows}
	c := newTestClient(t, api, Config{})

	rows, err := c.FetchCPUE(context.Background(), []string{"wete", "atlantis", "nungwi"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, `["wete","nungwi"]`, api.lastSites.Load())
}

func TestFetchCPUENoValidSitesSkipsRequest(t *testing.T) {
	api := &fakeAPI{health: "ok", cpueBody: twoRows}
	c := newTestClient(t, api, Config{})

	rows, err := c.FetchCPUE(context.Background(), []string{"atlantis"})
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, int32(0), api.cpueCalls.Load())
}

func TestFetchCPUERejectsNonArray(t *testing.T) {
	for _, body := range []string{`{"rows":[]}`, `null`, `not json`} {
		api := &fakeAPI{health: "ok", cpueBody: body}
		c := newTestClient(t, api, Config{MaxAttempts: 3})

		_, err := c.FetchCPUE(context.Background(), []string{"nungwi"})
		assert.ErrorIs(t, err, contract.ErrFormat, body)
		assert.Equal(t, int32(1), api.cpueCalls.Load(), "format errors are not retried")
	}
}

func TestFetchCPUERetriesServerErrors(t *testing.T) {
	api := &fakeAPI{health: "ok", cpueBody: twoRows, cpueFails: 2}
	c := newTestClient(t, api, Config{MaxAttempts: 3})

	rows, err := c.FetchCPUE(context.Background(), []string{"nungwi"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, int32(3), api.cpueCalls.Load())
}

func TestFetchCPUEGivesUpAfterMaxAttempts(t *testing.T) {
	api := &fakeAPI{health: "ok", cpueBody: twoRows, cpueFails: 10}
	c := newTestClient(t, api, Config{MaxAttempts: 2})

	_, err := c.FetchCPUE(context.Background(), []string{"nungwi"})
	require.Error(t, err)
	assert.ErrorIs(t, err, contract.ErrConnectivity)
	assert.Contains(t, err.Error(), "database offline")
	assert.Equal(t, int32(2), api.cpueCalls.Load())
	assert.Equal(t, "service unavailable", contract.UserMessage(err))
}

func TestFetchCPUEClientErrorNotRetried(t *testing.T) {
	api := &fakeAPI{health: "ok", cpueBody: `{"message":"Invalid landing sites format"}`, cpueCode: http.StatusBadRequest}
	c := newTestClient(t, api, Config{MaxAttempts: 3})

	_, err := c.FetchCPUE(context.Background(), []string{"nungwi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid landing sites format")
	assert.Equal(t, int32(1), api.cpueCalls.Load())
}

func TestFetchCPUETimeout(t *testing.T) {
	api := &fakeAPI{health: "ok", cpueBody: twoRows, cpueDelay: 200 * time.Millisecond}
	c := newTestClient(t, api, Config{Timeout: 20 * time.Millisecond, MaxAttempts: 2})

	_, err := c.FetchCPUE(context.Background(), []string{"nungwi"})
	require.Error(t, err)
	assert.ErrorIs(t, err, contract.ErrTimeout)
	assert.Equal(t, int32(2), api.cpueCalls.Load(), "timeouts are retried")
	assert.Equal(t, "request timed out", contract.UserMessage(err))
}

func TestFetchCPUECancelledContext(t *testing.T) {
	api := &fakeAPI{health: "ok", cpueBody: twoRows}
	c := newTestClient(t, api, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.FetchCPUE(ctx, []string{"nungwi"})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRecords(t *testing.T) {
	api := &fakeAPI{health: "ok", cpueBody: twoRows}
	c := newTestClient(t, api, Config{Sites: []string{"nungwi", "wete"}})

	records, err := c.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 4)

	byKey := map[string]schema.MetricRecord{}
	for _, r := range records {
		byKey[r.LandingSite+"/"+string(r.Metric)] = r
	}
	assert.InDelta(t, 2.5, *byKey["nungwi/median_cpue"].Value, 1e-9)
	assert.Equal(t, 1, byKey["nungwi/median_cpue"].SampleCount)
	assert.InDelta(t, 100.0, *byKey["nungwi/catch"].Value, 1e-9)
	assert.Nil(t, byKey["wete/catch"].Value)
	assert.Equal(t, 0, byKey["wete/catch"].SampleCount)
}

func TestRecordsHealthFailureShortCircuits(t *testing.T) {
	api := &fakeAPI{health: "down", cpueBody: twoRows}
	c := newTestClient(t, api, Config{})

	_, err := c.Records(context.Background())
	assert.ErrorIs(t, err, contract.ErrConnectivity)
	assert.Equal(t, int32(0), api.cpueCalls.Load())
}

func TestSupports(t *testing.T) {
	c := New(Config{BaseURL: "http://localhost"}, nil)
	assert.NoError(t, c.Supports(schema.MedianCPUE))
	assert.NoError(t, c.Supports(schema.Catch))

	err := c.Supports(schema.MedianRPUE)
	assert.ErrorIs(t, err, contract.ErrNotImplemented)
	assert.Equal(t, "revenue data not yet implemented", contract.UserMessage(err))
	assert.Equal(t, schema.APISource, c.Kind())
}

func TestNewDefaults(t *testing.T) {
	c := New(Config{BaseURL: "http://localhost/api/"}, nil)
	assert.Equal(t, "http://localhost/api", c.cfg.BaseURL)
	assert.Equal(t, "http://localhost/api", c.Location())
	assert.Equal(t, contract.DefaultAPITimeout, c.cfg.Timeout)
	assert.Equal(t, contract.DefaultAPIAttempts, c.cfg.MaxAttempts)
	assert.Equal(t, schema.LandingSites, c.cfg.Sites)
}
