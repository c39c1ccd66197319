package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gojson "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/plover"
	"github.com/hupe1980/plover/auth"
	"github.com/hupe1980/plover/blobstore"
	"github.com/hupe1980/plover/ontology"
	"github.com/hupe1980/plover/resource"
	"github.com/hupe1980/plover/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testKey = "secret-key"

type testServer struct {
	*Server
	db       *plover.DB
	registry *prometheus.Registry
}

func newTestServer(t *testing.T, opts ...plover.Option) *testServer {
	t.Helper()
	ctx := context.Background()

	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "kg.json", []byte(testutil.Graph)))
	require.NoError(t, store.Put(ctx, "biolink.yaml", []byte(testutil.Hierarchy)))

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	sources, err := plover.NewSources(store, "kg.json")
	require.NoError(t, err)
	opts = append([]plover.Option{
		plover.WithOntology(&ontology.BlobFetcher{Store: store, Name: "biolink.yaml"}, 0),
		plover.WithMetricsCollector(metrics),
	}, opts...)
	db, err := plover.Open(ctx, sources, opts...)
	require.NoError(t, err)

	s := New(db, Options{
		Auth:     auth.NewStaticKeys(testKey),
		Metrics:  metrics,
		Gatherer: reg,
		Version:  "test",
	})
	t.Cleanup(func() {
		s.Close()
		_ = db.Close()
	})
	return &testServer{Server: s, db: db, registry: reg}
}

func (s *testServer) do(t *testing.T, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, gojson.Unmarshal(w.Body.Bytes(), v))
}

const interactsBody = `{
	"message": {
		"query_graph": {
			"nodes": {
				"n0": {"ids": "CHEBI:1"},
				"n1": {"categories": ["biolink:Protein"]}
			},
			"edges": {
				"e0": {"subject": "n0", "object": "n1", "predicates": ["biolink:interacts_with"]}
			}
		}
	}
}`

func TestQuery(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/query", interactsBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(headerRequestID))

	var resp struct {
		Nodes map[string][]string `json:"nodes"`
		Edges map[string][]string `json:"edges"`
	}
	decodeBody(t, w, &resp)
	assert.Equal(t, []string{"CHEBI:1"}, resp.Nodes["n0"])
	assert.Equal(t, []string{"UniProtKB:P1", "UniProtKB:P2"}, resp.Nodes["n1"])
	assert.Equal(t, []string{"e1", "e2"}, resp.Edges["e0"])
}

func TestQuery_RequestID(t *testing.T) {
	s := newTestServer(t)
	id := "0b9c3f0e-4b7e-4b8a-9a3c-2f6d3c1e5a10"

	w := s.do(t, http.MethodPost, "/query", interactsBody, headerRequestID, id)
	assert.Equal(t, id, w.Header().Get(headerRequestID))

	w = s.do(t, http.MethodPost, "/query", interactsBody, headerRequestID, "not-a-uuid")
	assert.NotEqual(t, "not-a-uuid", w.Header().Get(headerRequestID))
}

func TestQuery_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"not json", `{`, http.StatusBadRequest},
		{"no nodes", `{"nodes": {}}`, http.StatusBadRequest},
		{"two edges", `{
			"nodes": {"a": {"ids": ["CHEBI:1"]}, "b": {}, "c": {}},
			"edges": {"x": {"subject": "a", "object": "b"}, "y": {"subject": "a", "object": "c"}}
		}`, http.StatusBadRequest},
		{"unknown qnode", `{
			"nodes": {"a": {"ids": ["CHEBI:1"]}},
			"edges": {"x": {"subject": "a", "object": "zzz"}}
		}`, http.StatusBadRequest},
	}

	s := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/query", tt.body)
			assert.Equal(t, tt.status, w.Code)

			var body errorBody
			decodeBody(t, w, &body)
			assert.NotEmpty(t, body.Error)
			assert.NotEmpty(t, body.RequestID)
		})
	}
}

func TestQuery_TooManyEdges(t *testing.T) {
	s := newTestServer(t, plover.WithEdgeCutoff(1))

	w := s.do(t, http.MethodPost, "/query", interactsBody)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestQuery_BodyTooLarge(t *testing.T) {
	s := newTestServer(t)
	s.opts.MaxBodyBytes = 16

	w := s.do(t, http.MethodPost, "/query", interactsBody)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestQuery_Unavailable(t *testing.T) {
	rc := resource.NewController(resource.Config{QueriesPerSec: 0.001, QueryBurst: 1})
	s := newTestServer(t, plover.WithResourceController(rc))

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/query", interactsBody).Code)
	assert.Equal(t, http.StatusServiceUnavailable, s.do(t, http.MethodPost, "/query", interactsBody).Code)
}

func TestGetEdges(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/get_edges", `{"pairs": [["CHEBI:1", "UniProtKB:P1"], ["CHEBI:1", "HP:1"]]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Pairs map[string][]string `json:"pairs_to_edge_ids"`
		KG    struct {
			Nodes map[string]any `json:"nodes"`
			Edges map[string]any `json:"edges"`
		} `json:"knowledge_graph"`
	}
	decodeBody(t, w, &resp)
	assert.Equal(t, []string{"e1"}, resp.Pairs["CHEBI:1--UniProtKB:P1"])
	assert.Empty(t, resp.Pairs["CHEBI:1--HP:1"])
	assert.Len(t, resp.KG.Edges, 1)
	assert.Len(t, resp.KG.Nodes, 2)

	w = s.do(t, http.MethodPost, "/get_edges", `{"pairs": [["CHEBI:1"]]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetNeighbors(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/get_neighbors", `{"node_ids": ["MONDO:2", "FAKE:1"]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string][]string
	decodeBody(t, w, &resp)
	assert.Equal(t, []string{"CHEBI:1", "MONDO:1", "MONDO:3"}, resp["MONDO:2"])
	assert.Empty(t, resp["FAKE:1"])

	w = s.do(t, http.MethodPost, "/get_neighbors", `{"node_ids": []}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/healthcheck", "")
	require.Equal(t, http.StatusOK, w.Code)
	var health map[string]any
	decodeBody(t, w, &health)
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, true, health["ready"])

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/readyz", "").Code)

	require.NoError(t, s.db.Close())
	assert.Equal(t, http.StatusServiceUnavailable, s.do(t, http.MethodGet, "/readyz", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, s.do(t, http.MethodPost, "/query", interactsBody).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/healthcheck", "").Code)
}

func TestMeta(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/meta", "")
	require.Equal(t, http.StatusOK, w.Code)

	var meta struct {
		Version string       `json:"version"`
		Stats   plover.Stats `json:"stats"`
	}
	decodeBody(t, w, &meta)
	assert.Equal(t, "test", meta.Version)
	assert.Equal(t, uint64(1), meta.Stats.Generation)
	assert.Equal(t, 8, meta.Stats.Graph.Edges)
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/query", interactsBody)

	w := s.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `plover_queries_total{kind="query",outcome="ok"} 1`)
	assert.Contains(t, body, "plover_snapshot_generation 1")
	assert.Contains(t, body, `plover_http_requests_total{method="POST",route="/query",status="200"} 1`)
}

func TestRebuild(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/rebuild?wait=true", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/rebuild?wait=true", "", "Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/rebuild?wait=true", "", "Authorization", "Bearer "+testKey)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var stats plover.Stats
	decodeBody(t, w, &stats)
	assert.Equal(t, uint64(2), stats.Generation)

	w = s.do(t, http.MethodPost, "/rebuild", "", "Authorization", "Bearer "+testKey)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Eventually(t, func() bool {
		st, err := s.db.Stats()
		return err == nil && st.Generation == 3 && !s.rebuilding.Load()
	}, 5*time.Second, 10*time.Millisecond)
}

func TestRebuild_Conflict(t *testing.T) {
	s := newTestServer(t)
	s.rebuilding.Store(true)

	w := s.do(t, http.MethodPost, "/rebuild", "", "Authorization", "Bearer "+testKey)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc", "abc"},
		{"bearer  abc ", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodPost, "/rebuild", nil)
		c.Request.Header.Set("Authorization", tt.header)
		assert.Equal(t, tt.want, bearerToken(c), tt.header)
	}
}
