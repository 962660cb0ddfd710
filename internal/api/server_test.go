package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Sentinels/internal/model"
	"Sentinels/internal/recorder"
	"Sentinels/internal/scheduler"
)

type stubBackend struct {
	snap     *model.Snapshot
	state    scheduler.State
	analysis atomic.Pointer[model.AnalysisResult]
	err      error
}

func (b *stubBackend) Latest() *model.Snapshot               { return b.snap }
func (b *stubBackend) State() scheduler.State                 { return b.state }
func (b *stubBackend) LatestAnalysis() *model.AnalysisResult { return b.analysis.Load() }
func (b *stubBackend) Analyze(context.Context) (*model.AnalysisResult, error) {
	if b.err != nil {
		return nil, b.err
	}
	res := &model.AnalysisResult{Summary: "sideways", Outlook: model.OutlookNeutral, KeyRisks: []string{}, TopTradeSetups: []model.TradeSetup{}}
	b.analysis.Store(res)
	return res, nil
}

func testSnapshot() *model.Snapshot {
	btc := model.AssetTelemetry{Symbol: "BTC", Price: 96450.2, LongRatio: 60, ShortRatio: 40}
	return &model.Snapshot{
		ID:     "snap-1",
		Source: model.SourcePrimary,
		Assets: []model.AssetTelemetry{btc, {Symbol: "ETH", Price: 3400}},
		Liquidations: map[model.Timeframe]model.LiquidationBucket{
			model.Timeframe1h:  {Total: 100, Long: 60, Short: 40},
			model.Timeframe4h:  {Total: 400, Long: 240, Short: 160},
			model.Timeframe12h: {Total: 1200, Long: 720, Short: 480},
			model.Timeframe24h: {Total: 2400, Long: 1440, Short: 960},
		},
		Opportunities: []model.Opportunity{{Type: model.Bearish, Coin: "ETH", Metric: "Funding", Value: "0.0600%"}},
		BestSignal:    &btc,
	}
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestServer_BeforeFirstCycle(t *testing.T) {
	h := NewServer(":0", &stubBackend{state: scheduler.Fetching}, nil, nil).Handler()

	rec := do(t, h, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","state":"fetching"}`, rec.Body.String())
	assert.Len(t, rec.Header().Get("X-Request-ID"), 8)

	for _, path := range []string{"/api/snapshot", "/api/assets/BTC", "/api/liquidations", "/api/opportunities", "/api/signals/best"} {
		assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, path).Code, path)
	}
	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodGet, "/api/analysis").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodPost, "/api/analysis").Code)
}

func TestServer_Snapshot(t *testing.T) {
	h := NewServer(":0", &stubBackend{snap: testSnapshot()}, nil, nil).Handler()

	rec := do(t, h, http.MethodGet, "/api/snapshot")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var snap model.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "snap-1", snap.ID)
	assert.Len(t, snap.Assets, 2)
}

func TestServer_UnencodableSnapshotIs500(t *testing.T) {
	snap := testSnapshot()
	snap.Assets[0].Volume24h = math.NaN()
	h := NewServer(":0", &stubBackend{snap: snap}, nil, nil).Handler()

	rec := do(t, h, http.MethodGet, "/api/snapshot")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"response encoding failed"}`, rec.Body.String())
}

func TestServer_Asset(t *testing.T) {
	h := NewServer(":0", &stubBackend{snap: testSnapshot()}, nil, nil).Handler()

	rec := do(t, h, http.MethodGet, "/api/assets/btc")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"symbol":"BTC"`)

	rec = do(t, h, http.MethodGet, "/api/assets/DOGE")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown symbol DOGE")
}

func TestServer_Liquidations(t *testing.T) {
	h := NewServer(":0", &stubBackend{snap: testSnapshot()}, nil, nil).Handler()

	rec := do(t, h, http.MethodGet, "/api/liquidations?filter=long")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Filter  string                             `json:"filter"`
		Buckets map[string]model.LiquidationBucket `json:"buckets"`
		Display map[string]float64                 `json:"display"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "LONG", body.Filter)
	assert.Equal(t, 1440.0, body.Display["24h"])
	assert.Equal(t, 2400.0, body.Buckets["24h"].Total)

	rec = do(t, h, http.MethodGet, "/api/liquidations")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"filter":"ALL"`)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/liquidations?filter=both").Code)
}

func TestServer_OpportunitiesAndBest(t *testing.T) {
	b := &stubBackend{snap: testSnapshot()}
	h := NewServer(":0", b, nil, nil).Handler()

	rec := do(t, h, http.MethodGet, "/api/opportunities")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"BEARISH"`)

	rec = do(t, h, http.MethodGet, "/api/signals/best")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"symbol":"BTC"`)

	b.snap.BestSignal = nil
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/signals/best").Code)
}

func TestServer_Analysis(t *testing.T) {
	b := &stubBackend{snap: testSnapshot()}
	h := NewServer(":0", b, nil, nil).Handler()

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodGet, "/api/analysis").Code)

	rec := do(t, h, http.MethodPost, "/api/analysis")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"outlook":"Neutral"`)

	rec = do(t, h, http.MethodGet, "/api/analysis")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sideways")

	b.err = scheduler.ErrAnalysisBusy
	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/api/analysis").Code)
}

type stubRecorder struct {
	recorder.NoopRecorder
	digests []recorder.Digest
	err     error
	limit   int
}

func (r *stubRecorder) Recent(_ context.Context, limit int) ([]recorder.Digest, error) {
	r.limit = limit
	return r.digests, r.err
}

func TestServer_Digests(t *testing.T) {
	rec := &stubRecorder{digests: []recorder.Digest{{ID: 2, SnapshotID: "snap-2", FearGreed: 61}, {ID: 1, SnapshotID: "snap-1", FearGreed: 55}}}
	h := NewServer(":0", &stubBackend{}, nil, nil).WithDigests(rec).Handler()

	resp := do(t, h, http.MethodGet, "/api/digests?limit=2")
	require.Equal(t, http.StatusOK, resp.Code)
	var got []recorder.Digest
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "snap-2", got[0].SnapshotID)
	assert.Equal(t, 2, rec.limit)

	do(t, h, http.MethodGet, "/api/digests")
	assert.Equal(t, 10, rec.limit)
	do(t, h, http.MethodGet, "/api/digests?limit=5000")
	assert.Equal(t, maxDigests, rec.limit)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/digests?limit=-1").Code)

	rec.err = errors.New("disk I/O error")
	assert.Equal(t, http.StatusInternalServerError, do(t, h, http.MethodGet, "/api/digests").Code)
}

func TestServer_DigestsEmptyAndDisabled(t *testing.T) {
	h := NewServer(":0", &stubBackend{}, nil, nil).WithDigests(recorder.NewNoopRecorder()).Handler()
	resp := do(t, h, http.MethodGet, "/api/digests")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `[]`, resp.Body.String())

	h = NewServer(":0", &stubBackend{}, nil, nil).Handler()
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/api/digests").Code)
}

func TestServer_NotFoundAndMethod(t *testing.T) {
	h := NewServer(":0", &stubBackend{}, nil, nil).Handler()
	rec := do(t, h, http.MethodGet, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not found")
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodDelete, "/api/snapshot").Code)
}

func TestServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "sentinels_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Add(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(c))

	rec := do(t, NewServer(":0", &stubBackend{}, nil, reg).Handler(), http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sentinels_test_total 3")
}

func TestServer_WebSocketStream(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(NewServer(":0", &stubBackend{snap: testSnapshot()}, hub, nil).Handler())
	defer srv.Close()
	defer hub.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var first model.Snapshot
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "snap-1", first.ID)

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)
	next := testSnapshot()
	next.ID = "snap-2"
	require.NoError(t, hub.Publish(context.Background(), next))

	var second model.Snapshot
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, "snap-2", second.ID)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 5*time.Millisecond)
}
