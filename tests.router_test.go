package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

// TestSetupBookRoutes ensures all expected book endpoints are implemented.
func TestSetupBookRoutes(t *testing.T) {
	testCases := []struct {
		name        string
		request     *http.Request
		implemented bool
	}{
		{
			"index endpoint",
			httptest.NewRequest(http.MethodGet, "/", nil),
			true,
		},
		{
			"status endpoint",
			httptest.NewRequest(http.MethodGet, "/status", nil),
			true,
		},
		{
			"create book endpoint",
			httptest.NewRequest(http.MethodPost, "/api/books", nil),
			true,
		},
		{
			"fetch all books endpoint",
			httptest.NewRequest(http.MethodGet, "/api/books", nil),
			true,
		},
		{
			"fetch all books endpoint with slash",
			httptest.NewRequest(http.MethodGet, "/api/books/", nil),
			true,
		},
		{
			"delete book endpoint",
			httptest.NewRequest(http.MethodDelete, "/api/books", nil),
			true,
		},
		{
			"fetch single book endpoint",
			httptest.NewRequest(http.MethodGet, "/api/books/1", nil),
			false,
		},
		{
			"invalid api endpoint",
			httptest.NewRequest(http.MethodGet, "/api", nil),
			false,
		},
		{
			"invalid books endpoint",
			httptest.NewRequest(http.MethodGet, "/books", nil),
			false,
		},
	}

	api := newTestAPIHandler(nil, NewMemoryBookStorage(), nil)
	router := httprouter.New()
	m := &MiddlewareMap{public: (&Middlewares{}).Chain, ops: (&Middlewares{}).Chain}
	api.SetupBookRoutes(router, m)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, tc.request)
			if tc.implemented {
				assert.NotEqual(t, 404, w.Code)
			} else {
				assert.Equal(t, 404, w.Code)
			}
		})
	}
}

// TestSetupOpsRoutes ensures all expected operations endpoints are implemented.
func TestSetupOpsRoutes(t *testing.T) {
	testCases := []struct {
		name        string
		profiler    bool
		request     *http.Request
		implemented bool
	}{
		{
			"fetch configs endpoint",
			false,
			httptest.NewRequest(http.MethodGet, "/ops/configs", nil),
			true,
		},
		{
			"fetch stats endpoint",
			false,
			httptest.NewRequest(http.MethodGet, "/ops/stats", nil),
			true,
		},
		{
			"maintenance mode endpoint",
			false,
			httptest.NewRequest(http.MethodGet, "/ops/maintenance", nil),
			true,
		},
		{
			"expvar endpoint",
			false,
			httptest.NewRequest(http.MethodGet, "/ops/debug/vars", nil),
			true,
		},
		{
			"gc endpoint",
			false,
			httptest.NewRequest(http.MethodGet, "/ops/debug/gc", nil),
			true,
		},
		{
			"invalid ops endpoint",
			false,
			httptest.NewRequest(http.MethodGet, "/ops", nil),
			false,
		},
		{
			"unknown ops endpoint",
			false,
			httptest.NewRequest(http.MethodGet, "/ops/unknown", nil),
			false,
		},
		{
			"disabled profiler endpoint",
			false,
			httptest.NewRequest(http.MethodGet, "/ops/debug/pprof/", nil),
			false,
		},
		{
			"enabled profiler endpoint",
			true,
			httptest.NewRequest(http.MethodGet, "/ops/debug/pprof/", nil),
			true,
		},
		{
			"enabled profiler cmdline endpoint",
			true,
			httptest.NewRequest(http.MethodGet, "/ops/debug/pprof/cmdline", nil),
			true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			api := newTestAPIHandler(&Config{ProfilerEndpointsEnable: tc.profiler}, NewMemoryBookStorage(), nil)
			router := httprouter.New()
			m := &MiddlewareMap{public: (&Middlewares{}).Chain, ops: (&Middlewares{}).Chain}
			api.SetupOpsRoutes(router, m)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, tc.request)
			if tc.implemented {
				assert.NotEqual(t, 404, w.Code)
			} else {
				assert.Equal(t, 404, w.Code)
			}
		})
	}
}

// TestSetupRoutes ensures ops endpoints are only exposed when enabled.
func TestSetupRoutes(t *testing.T) {
	testCases := []struct {
		name               string
		OpsEndpointsEnable bool
		request            *http.Request
		implemented        bool
	}{
		{
			"ops disable:fetch configs endpoint",
			false,
			httptest.NewRequest(http.MethodGet, "/ops/configs", nil),
			false,
		},
		{
			"ops enable:fetch configs endpoint",
			true,
			httptest.NewRequest(http.MethodGet, "/ops/configs", nil),
			true,
		},
		{
			"ops disable:books endpoint",
			false,
			httptest.NewRequest(http.MethodGet, "/api/books", nil),
			true,
		},
		{
			"ops disable:swagger endpoint",
			false,
			httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil),
			true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			api := newTestAPIHandler(&Config{OpsEndpointsEnable: tc.OpsEndpointsEnable}, NewMemoryBookStorage(), nil)
			router := newTestRouter(api)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, tc.request)
			if tc.implemented {
				assert.NotEqual(t, 404, w.Code)
			} else {
				assert.Equal(t, 404, w.Code)
			}
		})
	}
}

// TestNotFoundRoute ensures unknown routes receive a json description.
func TestNotFoundRoute(t *testing.T) {
	router := newTestRouter(newTestAPIHandler(nil, NewMemoryBookStorage(), nil))
	req := httptest.NewRequest(http.MethodGet, "/unknown", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/json; charset=UTF-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "r:abc", w.Header().Get("X-Request-ID"))

	var res NotFoundResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "r:abc", res.RequestID)
	assert.Equal(t, "route does not exist", res.Message)
	assert.Equal(t, "GET /unknown", res.Path)
}

// TestPreflightRequest ensures OPTIONS calls are answered with cors headers.
func TestPreflightRequest(t *testing.T) {
	router := newTestRouter(newTestAPIHandler(nil, NewMemoryBookStorage(), nil))
	req := httptest.NewRequest(http.MethodOptions, "/api/books", nil)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodDelete)
}

// TestCanonicalAllowHeader ensures the allowed verbs are advertised in a stable order.
func TestCanonicalAllowHeader(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"DELETE, GET, OPTIONS, POST", "GET, POST, DELETE"},
		{"GET, POST, DELETE, OPTIONS", "GET, POST, DELETE"},
		{"POST,GET", "GET, POST"},
		{"OPTIONS", ""},
		{"", ""},
		{"get, PURGE, delete, GET", "GET, DELETE, PURGE"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, CanonicalAllowHeader(tc.input))
		})
	}
}

// TestFallbackHandlersStatistics ensures unmatched routes and verbs go
// through the middlewares and show up in the statuses statistics.
func TestFallbackHandlersStatistics(t *testing.T) {
	router := newTestRouter(newTestAPIHandler(&Config{OpsEndpointsEnable: true}, newSeededMemoryStorage(t), nil))

	w, _ := callAPI(t, router, http.MethodGet, "/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "r:abc", w.Header().Get("X-Request-ID"))

	w, res := callAPI(t, router, http.MethodPut, "/api/books", `{"id":1}`)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "r:abc", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "r:abc", res["requestid"])
	assert.Equal(t, "GET, POST, DELETE", w.Header().Get("Allow"))

	w, res = callAPI(t, router, http.MethodGet, "/ops/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), res["called"])
	status, ok := res["status"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(1), status["404"])
	assert.Equal(t, float64(1), status["405"])
}

// TestSwaggerDocs ensures the registered api documentation describes the book routes.
func TestSwaggerDocs(t *testing.T) {
	doc, err := swag.ReadDoc()
	require.NoError(t, err)
	var swagger struct {
		Paths map[string]map[string]interface{} `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(doc), &swagger))
	require.Contains(t, swagger.Paths, "/api/books")
	for _, verb := range []string{"get", "post", "delete"} {
		assert.Contains(t, swagger.Paths["/api/books"], verb)
	}
	assert.Contains(t, swagger.Paths["/status"], "get")
}
