package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/config"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/encoding/json"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges/paper"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges/strategy/twap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRESTEngine(t *testing.T) *Engine {
	t.Helper()
	e := newTestEngine(t, paper.NewDefault(), twap.NewMemoryTracker())
	e.Config.RemoteControl.ListenAddress = config.DefaultListenAddress
	return e
}

func restGet(t *testing.T, e *Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, path, http.NoBody)
	require.NoError(t, err)
	req.Host = config.DefaultListenAddress

	resp := httptest.NewRecorder()
	e.newRouter().ServeHTTP(resp, req)
	return resp
}

func TestInvalidHostRequest(t *testing.T) {
	t.Parallel()
	e := newRESTEngine(t)
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, "/twap", http.NoBody)
	require.NoError(t, err)
	req.Host = "invalidsite.com"

	resp := httptest.NewRecorder()
	e.newRouter().ServeHTTP(resp, req)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestRESTIndex(t *testing.T) {
	t.Parallel()
	resp := restGet(t, newRESTEngine(t), "/")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "/portfolio")
}

func TestRESTTWAPOrders(t *testing.T) {
	t.Parallel()
	e := newRESTEngine(t)
	id, err := e.PlaceTWAPOrder(context.Background(), buyRequest())
	require.NoError(t, err)

	resp := restGet(t, e, "/twap")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "application/json; charset=UTF-8", resp.Header().Get("Content-Type"))
	var orders []map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, id, orders[0]["id"])

	resp = restGet(t, e, "/twap/"+id)
	require.Equal(t, http.StatusOK, resp.Code)
	var o map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &o))
	assert.Equal(t, "completed", o["status"])
	assert.Equal(t, "BTC-USD", o["market"])

	resp = restGet(t, e, "/twap/"+id+"/fills")
	require.Equal(t, http.StatusOK, resp.Code)
	var fills []map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &fills))
	assert.Len(t, fills, 10)

	resp = restGet(t, e, "/twap/"+id+"/stats")
	require.Equal(t, http.StatusOK, resp.Code)
	var stats map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &stats))
	assert.Equal(t, id, stats["twapID"])
	assert.Equal(t, float64(10), stats["numFills"])
}

func TestRESTTWAPOrderNotFound(t *testing.T) {
	t.Parallel()
	resp := restGet(t, newRESTEngine(t), "/twap/missing")
	require.Equal(t, http.StatusNotFound, resp.Code)
	var body RESTfulErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Contains(t, body.Error, twap.ErrOrderNotFound.Error())
}

func TestRESTPortfolio(t *testing.T) {
	t.Parallel()
	resp := restGet(t, newRESTEngine(t), "/portfolio")
	require.Equal(t, http.StatusOK, resp.Code)
	var summary map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &summary))
	assert.Equal(t, "USD", summary["quote"])
	assert.NotEmpty(t, summary["holdings"])
}

func TestRESTPortfolioAccountsError(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, accountsDownExchange{paper.NewDefault()}, twap.NewMemoryTracker())
	e.Config.RemoteControl.ListenAddress = config.DefaultListenAddress
	resp := restGet(t, e, "/portfolio")
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}
