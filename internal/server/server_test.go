package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/BarCut/internal/config"
	"github.com/piwi3910/BarCut/internal/engine"
	"github.com/piwi3910/BarCut/internal/metrics"
	"github.com/piwi3910/BarCut/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const wastePlan = "CUTTING PLAN:\n\n" +
	"Stock 5 m:\n" +
	"Pattern: [2 × 2] | Waste: 1 m\n" +
	"Repeats: 2\n\n" +
	"Total waste: 2 m (20.00% of the used length)"

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	settings := model.DefaultSettings()
	settings.Workers = 2
	cfg := config.ServerConfig{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second, MaxBodyBytes: 4096}
	return New(engine.New(settings), cfg, opts...)
}

func postForm(t *testing.T, h http.Handler, values url.Values) (*httptest.ResponseRecorder, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/process", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body["result"]
}

func TestProcess_Plan(t *testing.T) {
	s := newTestServer(t)
	rec, result := postForm(t, s.Handler(), url.Values{
		"stock_len1":  {"5"},
		"stock_qty1":  {"2"},
		"demand_len1": {"2"},
		"demand_qty1": {"4"},
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, wastePlan, result)
	assert.NotEmpty(t, rec.Header().Get(HeaderXRequestID))
}

func TestProcess_EngineErrorIsResult(t *testing.T) {
	s := newTestServer(t)
	rec, result := postForm(t, s.Handler(), url.Values{
		"stock_len1":  {"5"},
		"stock_qty1":  {"2"},
		"demand_len1": {"2"},
		"demand_qty1": {"5"},
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, engine.MsgInfeasible, result)
}

func TestProcess_TooPreciseLengthIsResult(t *testing.T) {
	s := newTestServer(t)
	rec, result := postForm(t, s.Handler(), url.Values{
		"stock_len1":  {"1"},
		"stock_qty1":  {"1"},
		"demand_len1": {"0.0000001"},
		"demand_qty1": {"1"},
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Lengths may have at most 6 decimal places", result)

	_, result = postForm(t, s.Handler(), url.Values{
		"stock_len1":  {"5"},
		"stock_qty1":  {"2"},
		"demand_len1": {"2"},
		"demand_qty1": {"4"},
	})
	assert.Equal(t, wastePlan, result)
}

func TestProcess_EmptyValue(t *testing.T) {
	s := newTestServer(t)
	rec, result := postForm(t, s.Handler(), url.Values{
		"stock_len1":  {"5"},
		"stock_qty1":  {""},
		"demand_len1": {"2"},
		"demand_qty1": {"4"},
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, MsgFillAllFields, result)
}

func TestProcess_Multipart(t *testing.T) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range map[string]string{
		"stock_len1": "5", "stock_qty1": "2",
		"demand_len1": "2", "demand_qty1": "4",
	} {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/process", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, wastePlan, body["result"])
}

func TestProcess_BodyTooLarge(t *testing.T) {
	s := newTestServer(t)
	rec, result := postForm(t, s.Handler(), url.Values{
		"stock_len1": {strings.Repeat("9", 8192)},
	})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, MsgRequestTooLarge, result)
}

func TestProcess_KeepsRequestID(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/process", nil)
	req.Header.Set(HeaderXRequestID, "abc-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(HeaderXRequestID))
}

func postJSON(t *testing.T, h http.Handler, payload string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/plan", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestPlan_OK(t *testing.T) {
	s := newTestServer(t)
	rec, body := postJSON(t, s.Handler(),
		`{"stock":[{"length":5,"quantity":2}],"demand":[{"length":"2","quantity":4}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, wastePlan, body["text"])
	plan, ok := body["plan"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ip", plan["strategy"])
	assert.Equal(t, "2", plan["total_waste"])
	assert.Len(t, body["offcuts"], 2)
}

func TestPlan_StrategyOverride(t *testing.T) {
	s := newTestServer(t)
	rec, body := postJSON(t, s.Handler(),
		`{"stock":[{"length":6,"quantity":2}],"demand":[{"length":3,"quantity":4}],"strategy":"divisor"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "divisor", body["plan"].(map[string]any)["strategy"])
}

func TestPlan_EngineErrorStatus(t *testing.T) {
	s := newTestServer(t)
	rec, body := postJSON(t, s.Handler(),
		`{"stock":[{"length":5,"quantity":2}],"demand":[{"length":2,"quantity":5}]}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, engine.MsgInfeasible, body["error"])
	assert.Equal(t, "infeasible", body["kind"])

	rec, body = postJSON(t, s.Handler(),
		`{"stock":[{"length":5,"quantity":-1}],"demand":[{"length":2,"quantity":1}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, engine.MsgNegative, body["error"])
}

func TestPlan_BindingError(t *testing.T) {
	s := newTestServer(t)
	rec, body := postJSON(t, s.Handler(),
		`{"stock":[{"length":5,"quantity":2}],"demand":[{"length":2,"quantity":1}],"strategy":"genetic"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "input", body["kind"])

	rec, _ = postJSON(t, s.Handler(), `{"stock":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	s := newTestServer(t, WithMetrics(m, "/metrics"))

	postForm(t, s.Handler(), url.Values{"stock_len1": {"5"}, "stock_qty1": {"2"}, "demand_len1": {"2"}, "demand_qty1": {"4"}})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/process", "200")))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "barcut_http_requests_total")
}

func TestMetricsDisabled(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func slogDiscard() *slog.Logger { return slog.New(slog.DiscardHandler) }

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery(slogDiscard()))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"result":"`+engine.MsgInternal+`"}`, rec.Body.String())
}

func TestServe_GracefulShutdown(t *testing.T) {
	s := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
