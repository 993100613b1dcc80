package main

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpsHandlers(t *testing.T) {
	config := &Config{OpsEndpointsEnable: true, Storage: StorageConfig{Driver: MemoryStorage}, AMQP: AMQPConfig{Password: "secret"}}
	api := newTestAPIHandler(config, newSeededMemoryStorage(t), nil)
	api.stats.version = "v1.0.0"
	router := newTestRouter(api)

	t.Run("configs hide secrets", func(t *testing.T) {
		w, res := callAPI(t, router, http.MethodGet, "/ops/configs", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "r:abc", res["requestid"])
		configs, ok := res["configs"].(map[string]interface{})
		require.True(t, ok)
		storage, ok := configs["Storage"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, MemoryStorage, storage["Driver"])
		assert.NotContains(t, w.Body.String(), "secret")
	})

	t.Run("stats count requests and statuses", func(t *testing.T) {
		callAPI(t, router, http.MethodGet, "/api/books", "")
		callAPI(t, router, http.MethodDelete, "/api/books", `{"id":99}`)
		w, res := callAPI(t, router, http.MethodGet, "/ops/stats", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "v1.0.0", res["app.version"])
		assert.Equal(t, float64(3), res["called"])
		status, ok := res["status"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, float64(2), status["200"])
		assert.Equal(t, float64(1), status["404"])
		assert.Equal(t, "0 mins", res["uptime"])
	})

	t.Run("gc triggers", func(t *testing.T) {
		w, res := callAPI(t, router, http.MethodGet, "/ops/debug/gc", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "go runtime.GC()", res["called"])
		w, res = callAPI(t, router, http.MethodGet, "/ops/debug/fos", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "go debug.FreeOSMemory()", res["called"])
	})

	t.Run("expvar exposes goroutines", func(t *testing.T) {
		w, res := callAPI(t, router, http.MethodGet, "/ops/debug/vars", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, res, "goroutines")
		assert.Contains(t, res, "memstats")
	})
}
