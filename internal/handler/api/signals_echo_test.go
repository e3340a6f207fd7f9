package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"SmartSignal/internal/domain/models"
	domrepo "SmartSignal/internal/domain/repository"
	"SmartSignal/internal/service/ratelimit"
	"SmartSignal/internal/services/engine"
	"SmartSignal/internal/usecase"
	xhttp "SmartSignal/pkg/http"
	xlogger "SmartSignal/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testID = "4f1c2a9e-7d3b-4c1a-9e2f-0b6d8a5c3e71"

type fakeSignals struct {
	generated []usecase.GenerateParams
	scanned   []string
	scanMode  models.TradingMode
	filter    models.SignalFilter
	err       error
	records   map[string]*models.SignalRecord
}

func newFakeSignals() *fakeSignals {
	return &fakeSignals{records: map[string]*models.SignalRecord{
		testID: {ID: testID, Symbol: "BTC", Status: models.StatusActive},
	}}
}

func (f *fakeSignals) Generate(_ context.Context, p usecase.GenerateParams) (*models.SignalReport, error) {
	f.generated = append(f.generated, p)
	if f.err != nil {
		return nil, f.err
	}
	r := &models.SignalReport{Signal: models.TradingSignal{Symbol: p.Symbol}, Mode: p.Mode}
	if p.UserID != "" {
		r.RecordID = testID
	}
	return r, nil
}

func (f *fakeSignals) Submit(_ context.Context, p usecase.GenerateParams) (string, error) {
	f.generated = append(f.generated, p)
	if f.err != nil {
		return "", f.err
	}
	return "req-1", nil
}

func (f *fakeSignals) Scan(_ context.Context, symbols []string, mode models.TradingMode) (*models.ScanResult, error) {
	f.scanned, f.scanMode = symbols, mode
	return &models.ScanResult{Reports: []models.SignalReport{}}, f.err
}

func (f *fakeSignals) List(_ context.Context, filter models.SignalFilter) ([]*models.SignalRecord, error) {
	f.filter = filter
	return []*models.SignalRecord{f.records[testID]}, nil
}

func (f *fakeSignals) Get(_ context.Context, id string) (*models.SignalRecord, error) {
	rec, ok := f.records[id]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", id, models.ErrNotFound)
	}
	return rec, nil
}

func (f *fakeSignals) UpdateStatus(ctx context.Context, id, status string) (*models.SignalRecord, error) {
	rec, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rec.Status = models.SignalStatus(status)
	return rec, nil
}

func (f *fakeSignals) Delete(_ context.Context, id string) error {
	if _, ok := f.records[id]; !ok {
		return models.ErrNotFound
	}
	delete(f.records, id)
	return nil
}

func (f *fakeSignals) History(_ context.Context, symbol string, limit int) ([]models.ArchivedSignal, error) {
	return []models.ArchivedSignal{{Symbol: symbol, RiskReward: float64(limit)}}, nil
}

func (f *fakeSignals) RiskReward(action models.Action, entry, stopLoss, tp1 float64) (float64, error) {
	return engine.RiskReward(action, entry, stopLoss, tp1)
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestEcho(svc signalsService, rl *ratelimit.Limiter) *echo.Echo {
	e := echo.New()
	NewSignalsEchoHandler(xlogger.Nop(), svc, rl).RegisterRoutes(e)
	return e
}

func do(t *testing.T, e *echo.Echo, method, target, body string, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestGenerateAppliesDefaultsAndUser(t *testing.T) {
	svc := newFakeSignals()
	e := newTestEcho(svc, nil)

	rec, env := do(t, e, http.MethodPost, "/api/signals", `{"symbol":"BTC"}`, map[string]string{xhttp.HeaderUserID: "alice"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, http.StatusCreated, env.Status)

	require.Len(t, svc.generated, 1)
	got := svc.generated[0]
	assert.Equal(t, "BTC", got.Symbol)
	assert.Equal(t, models.ModeElite, got.Mode)
	assert.Equal(t, domrepo.Interval15m, got.Interval)
	assert.Equal(t, 50, got.Limit)
	assert.Equal(t, "alice", got.UserID)
	assert.Nil(t, got.Seed)

	var report models.SignalReport
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, testID, report.RecordID)
}

func TestGenerateAnonymousWithSeed(t *testing.T) {
	svc := newFakeSignals()
	e := newTestEcho(svc, nil)

	rec, _ := do(t, e, http.MethodPost, "/api/signals", `{"symbol":"ETH","mode":"1","interval":"1h","limit":100,"seed":42}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := svc.generated[0]
	assert.Equal(t, models.ModeQuickPulse, got.Mode)
	assert.Equal(t, domrepo.Interval1h, got.Interval)
	require.NotNil(t, got.Seed)
	assert.Equal(t, int64(42), *got.Seed)
}

func TestGenerateValidation(t *testing.T) {
	e := newTestEcho(newFakeSignals(), nil)

	for _, body := range []string{`{}`, `{"symbol":"BTC","mode":"5"}`, `{"symbol":"BTC","limit":3}`, `{"symbol":"B-T"}`} {
		rec, env := do(t, e, http.MethodPost, "/api/signals", body, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, http.StatusBadRequest, env.Status, body)
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("generate BTC: %w", engine.ErrInsufficientData), http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: symbol required", engine.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("fetch price: %w", context.DeadlineExceeded), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		svc := newFakeSignals()
		svc.err = tc.err
		rec, env := do(t, newTestEcho(svc, nil), http.MethodPost, "/api/signals", `{"symbol":"BTC"}`, nil)
		assert.Equal(t, tc.code, rec.Code, tc.err.Error())
		assert.Equal(t, tc.code, env.Status)
	}
}

func TestSubmitAccepted(t *testing.T) {
	svc := newFakeSignals()
	rec, env := do(t, newTestEcho(svc, nil), http.MethodPost, "/api/signals/async", `{"symbol":"SOL","mode":"2"}`, map[string]string{xhttp.HeaderUserID: "bob"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	var out submitResponse
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, "req-1", out.RequestID)
	assert.Equal(t, "bob", svc.generated[0].UserID)

	svc.err = usecase.ErrAsyncDisabled
	rec, _ = do(t, newTestEcho(svc, nil), http.MethodPost, "/api/signals/async", `{"symbol":"SOL"}`, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestScanSplitsSymbols(t *testing.T) {
	svc := newFakeSignals()
	rec, _ := do(t, newTestEcho(svc, nil), http.MethodGet, "/api/signals/scan?symbols=BTC,%20ETH,,SOL", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"BTC", "ETH", "SOL"}, svc.scanned)
	assert.Equal(t, models.ModeProSignal, svc.scanMode)

	rec, _ = do(t, newTestEcho(svc, nil), http.MethodGet, "/api/signals/scan", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListBuildsFilter(t *testing.T) {
	svc := newFakeSignals()
	e := newTestEcho(svc, nil)

	rec, env := do(t, e, http.MethodGet, "/api/signals?user_id=alice&status=active&symbol=BTC&limit=5&offset=10&since=1714564800", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.SignalFilter{
		UserID: "alice",
		Symbol: "BTC",
		Status: models.StatusActive,
		Since:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Limit:  5,
		Offset: 10,
	}, svc.filter)

	var list xhttp.ListDataResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, int64(1), list.Total)

	rec, _ = do(t, e, http.MethodGet, "/api/signals?since=yesterday", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = do(t, e, http.MethodGet, "/api/signals?status=open", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordRoutes(t *testing.T) {
	svc := newFakeSignals()
	e := newTestEcho(svc, nil)

	rec, _ := do(t, e, http.MethodGet, "/api/signals/"+testID, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, e, http.MethodGet, "/api/signals/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, e, http.MethodGet, "/api/signals/0b6d8a5c-7d3b-4c1a-9e2f-4f1c2a9e3e71", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env := do(t, e, http.MethodPatch, "/api/signals/"+testID+"/status", `{"status":"closed"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.SignalRecord
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, models.StatusClosed, updated.Status)

	rec, _ = do(t, e, http.MethodPatch, "/api/signals/"+testID+"/status", `{"status":"won"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, e, http.MethodDelete, "/api/signals/"+testID, "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec, _ = do(t, e, http.MethodDelete, "/api/signals/"+testID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistory(t *testing.T) {
	rec, env := do(t, newTestEcho(newFakeSignals(), nil), http.MethodGet, "/api/signals/history/BTC?limit=7", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "private, max-age=15", rec.Header().Get(echo.HeaderCacheControl))

	var list struct {
		Rows  []models.ArchivedSignal `json:"rows"`
		Total int64                   `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Rows, 1)
	assert.Equal(t, "BTC", list.Rows[0].Symbol)
	assert.Equal(t, 7.0, list.Rows[0].RiskReward)
}

func TestRiskRewardRoute(t *testing.T) {
	e := newTestEcho(newFakeSignals(), nil)

	rec, env := do(t, e, http.MethodPost, "/api/risk-reward", `{"action":"BuyOnPullback","entry":99,"stop_loss":97,"tp1":103}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var out riskRewardResponse
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.InDelta(t, 2.0, out.RiskReward, 1e-9)

	rec, _ = do(t, e, http.MethodPost, "/api/risk-reward", `{"action":"BuyOnPullback","entry":100,"stop_loss":100,"tp1":110}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, e, http.MethodPost, "/api/risk-reward", `{"action":"Hold","entry":100,"stop_loss":90,"tp1":110}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateRateLimitedPerIP(t *testing.T) {
	e := newTestEcho(newFakeSignals(), ratelimit.New(1, 0.001))

	rec, _ := do(t, e, http.MethodPost, "/api/signals", `{"symbol":"BTC"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, env := do(t, e, http.MethodPost, "/api/signals", `{"symbol":"BTC"}`, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, http.StatusTooManyRequests, env.Status)
	assert.Equal(t, "1000", rec.Header().Get(echo.HeaderRetryAfter))

	rec, _ = do(t, e, http.MethodPost, "/api/signals", `{"symbol":"BTC"}`, map[string]string{echo.HeaderXRealIP: "198.51.100.7"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, e, http.MethodPost, "/api/risk-reward", `{"action":"SellOnRally","entry":100,"stop_loss":105,"tp1":90}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code, "risk-reward is not limited")
}

func TestHealthz(t *testing.T) {
	e := echo.New()
	NewHealthHandler(map[string]HealthCheck{
		"store": func(context.Context) error { return nil },
	}).RegisterRoutes(e)
	rec, _ := do(t, e, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	e = echo.New()
	NewHealthHandler(map[string]HealthCheck{
		"store":   func(context.Context) error { return nil },
		"archive": func(context.Context) error { return errors.New("clickhouse down") },
	}).RegisterRoutes(e)
	rec, env := do(t, e, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body healthResponse
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "clickhouse down", body.Checks["archive"])
	assert.Equal(t, "ok", body.Checks["store"])
}
