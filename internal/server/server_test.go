// Integration tests for the HTTP collection server
package server

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nainya/ndstore/internal/metrics"
	"github.com/nainya/ndstore/pkg/collection"
	"github.com/nainya/ndstore/pkg/storage"
)

type fixture struct {
	srv     *httptest.Server
	metrics *metrics.Metrics
	reg     *prometheus.Registry
}

func setupTestServer(t *testing.T, store storage.Store) *fixture {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	coll := collection.New(collection.Options{
		Hashes:   map[string]collection.KeyFunc{"byPainter": collection.ByDimension("painter")},
		Update:   collection.Update{Indexes: true},
		Storage:  store,
		Observer: m,
	})
	srv := httptest.NewServer(NewServer(coll, nil).Handler(m, reg))
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, metrics: m, reg: reg}
}

func (f *fixture) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(bytes.TrimSpace(data)) > 0 && data[0] == '{' {
		require.NoError(t, json.Unmarshal(data, &out))
	}
	return resp.StatusCode, out
}

const paintings = `[
	{"painter": "Monet", "title": "Impression", "year": 1872},
	{"painter": "Manet", "title": "Olympia", "year": 1863},
	{"painter": "Monet", "title": "Water Lilies", "year": 1906}
]`

func TestInsertAndList(t *testing.T) {
	f := setupTestServer(t, nil)

	status, body := f.do(t, http.MethodPost, "/records", paintings)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(3), body["inserted"])

	status, body = f.do(t, http.MethodPost, "/records", `{"painter": "Degas"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(4), body["total"])

	status, body = f.do(t, http.MethodGet, "/records", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(4), body["count"])
	assert.Len(t, body["records"], 4)

	status, _ = f.do(t, http.MethodPost, "/records", `{not json`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestQuery(t *testing.T) {
	f := setupTestServer(t, nil)
	f.do(t, http.MethodPost, "/records", paintings)

	status, body := f.do(t, http.MethodPost, "/query", `{
		"conditions": [
			{"dimension": "painter", "operator": "==", "value": "Monet"},
			{"dimension": "year", "operator": "<", "value": 1900, "join": "and"}
		]
	}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["count"])

	status, body = f.do(t, http.MethodPost, "/query", `{
		"conditions": [
			{"dimension": "year", "operator": ">", "value": 1860},
			{"dimension": "painter", "operator": "==", "value": "Manet", "join": "not"}
		],
		"sort_by": ["year"],
		"limit": -1
	}`)
	require.Equal(t, http.StatusOK, status)
	records := body["records"].([]any)
	require.Len(t, records, 1)
	assert.Equal(t, "Water Lilies", records[0].(map[string]any)["title"])

	status, body = f.do(t, http.MethodPost, "/query", `{"conditions": [{"dimension": "year", "operator": "~", "value": 1}]}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid operator", body["kind"])

	status, _ = f.do(t, http.MethodPost, "/query", `{"conditions": []}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestStatsGroupsAndHashes(t *testing.T) {
	f := setupTestServer(t, nil)
	f.do(t, http.MethodPost, "/records", paintings)

	status, body := f.do(t, http.MethodGet, "/stats/year", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(3), body["count"])
	assert.Equal(t, float64(1863), body["min"])
	assert.Equal(t, float64(1906), body["max"])

	_, body = f.do(t, http.MethodGet, "/stats/missing", "")
	assert.Nil(t, body["min"])
	assert.Equal(t, float64(0), body["sum"])

	resp, err := http.Get(f.srv.URL + "/groups/painter")
	require.NoError(t, err)
	defer resp.Body.Close()
	var groups []GroupResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&groups))
	require.Len(t, groups, 2)
	assert.Equal(t, GroupResponse{Value: "Monet", Count: 2}, groups[0])

	status, body = f.do(t, http.MethodGet, "/hashes/byPainter", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"Monet": float64(2), "Manet": float64(1)}, body["buckets"])

	status, _ = f.do(t, http.MethodGet, "/hashes/nope", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSaveLoad(t *testing.T) {
	store := storage.NewMemory()
	f := setupTestServer(t, store)
	f.do(t, http.MethodPost, "/records", paintings)

	status, _ := f.do(t, http.MethodPost, "/save/art", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, store.Len())

	status, body := f.do(t, http.MethodDelete, "/records", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(3), body["removed"])

	status, body = f.do(t, http.MethodPost, "/load/art", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(3), body["loaded"])

	status, _ = f.do(t, http.MethodPost, "/load/missing", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSaveWithoutStorage(t *testing.T) {
	f := setupTestServer(t, nil)
	status, body := f.do(t, http.MethodPost, "/save/art", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "missing collaborator", body["kind"])
}

func TestObservabilityEndpoints(t *testing.T) {
	f := setupTestServer(t, nil)

	status, body := f.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])

	status, _ = f.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, status)

	status, body = f.do(t, http.MethodGet, "/info", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), body["records"])

	resp, err := http.Get(f.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	text, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(text), "ndstore_http_requests_total")

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.HTTPRequestsTotal.WithLabelValues("GET /health", "200")))
}
