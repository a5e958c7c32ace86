package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"financeiro/internal/core"
	"financeiro/internal/export"
	"financeiro/internal/ledger"
	"financeiro/internal/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	store, err := storage.Open(context.Background(), storage.Config{
		Driver:     storage.SQLite,
		SQLitePath: filepath.Join(t.TempDir(), "api.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	opts = append([]Option{WithReadiness(store), WithRateLimit(0)}, opts...)
	return NewServer(":0", ledger.New(store, nil), ledger.NewRegistry(store, nil), opts...)
}

func do(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func createMovement(t *testing.T, srv *Server, date, kind, account, amount, note string) MovementResponse {
	t.Helper()
	rr := do(t, srv, http.MethodPost, "/api/movements", map[string]string{
		"date": date, "kind": kind, "account": account, "amount": amount, "note": note,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[MovementResponse](t, rr)
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.NotEmpty(t, rr.Header().Get(requestIDHeader))
		assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	}
}

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("down") }

func TestReadyReportsUnavailable(t *testing.T) {
	srv := newTestServer(t, WithReadiness(downPinger{}))

	rr := do(t, srv, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestRequestIDIsPropagated(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rr := httptest.NewRecorder()

	srv.Handler.ServeHTTP(rr, req)

	assert.Equal(t, "abc-123", rr.Header().Get(requestIDHeader))
}

func TestMovementLifecycle(t *testing.T) {
	srv := newTestServer(t)

	created := createMovement(t, srv, "10/03/2024", "entrada", "Checking", "500", "salary")
	assert.Positive(t, created.ID)
	assert.Equal(t, "Entrada", created.Kind)
	assert.Equal(t, "500.00", created.Amount)

	rr := do(t, srv, http.MethodGet, "/api/movements/"+itoa(created.ID), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, created, decode[MovementResponse](t, rr))

	rr = do(t, srv, http.MethodPut, "/api/movements/"+itoa(created.ID), map[string]any{
		"date": "11/03/2024", "kind": "Saída", "account": "Savings", "amount": 42.5,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated := decode[MovementResponse](t, rr)
	assert.Equal(t, "Saída", updated.Kind)
	assert.Equal(t, "42.50", updated.Amount)
	assert.Empty(t, updated.Note)

	rr = do(t, srv, http.MethodDelete, "/api/movements/"+itoa(created.ID), nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = do(t, srv, http.MethodGet, "/api/movements/"+itoa(created.ID), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, srv, http.MethodDelete, "/api/movements/"+itoa(created.ID), nil)
	assert.Equal(t, http.StatusNoContent, rr.Code, "deleting a missing id is a no-op")
}

func TestCreateMovementValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name    string
		body    any
		wantErr string
	}{
		{"bad date", map[string]any{"date": "2024-03-10", "kind": "Entrada", "account": "A", "amount": "1"}, core.ErrInvalidDateFormat.Error()},
		{"bad kind", map[string]any{"date": "10/03/2024", "kind": "Transfer", "account": "A", "amount": "1"}, core.ErrInvalidKind.Error()},
		{"blank account", map[string]any{"date": "10/03/2024", "kind": "Entrada", "account": "  ", "amount": "1"}, core.ErrInvalidAccount.Error()},
		{"zero amount", map[string]any{"date": "10/03/2024", "kind": "Entrada", "account": "A", "amount": "0"}, core.ErrInvalidAmount.Error()},
		{"missing account", map[string]any{"date": "10/03/2024", "kind": "Entrada", "amount": "1"}, "invalid request"},
		{"unknown field", map[string]any{"date": "10/03/2024", "kind": "Entrada", "account": "A", "amount": "1", "x": 1}, "invalid JSON body"},
		{"not json", "date=10/03/2024", "invalid JSON body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodPost, "/api/movements", tt.body)
			require.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
			assert.Contains(t, decode[ErrorResponse](t, rr).Error, tt.wantErr)
		})
	}

	rr := do(t, srv, http.MethodGet, "/api/movements", nil)
	assert.Empty(t, decode[[]MovementResponse](t, rr))
}

func TestValidationDetails(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/movements", map[string]any{"amount": "1"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	details := decode[ErrorResponse](t, rr).Details
	assert.Contains(t, details, "Date")
	assert.Contains(t, details, "Kind")
	assert.Contains(t, details, "Account")
}

func TestUpdateAndIDErrors(t *testing.T) {
	srv := newTestServer(t)
	body := map[string]any{"date": "10/03/2024", "kind": "Entrada", "account": "A", "amount": "1"}

	rr := do(t, srv, http.MethodPut, "/api/movements/999", body)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	for _, id := range []string{"abc", "0", "-1"} {
		rr = do(t, srv, http.MethodGet, "/api/movements/"+id, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code, id)
	}
}

func TestListMovementsFilters(t *testing.T) {
	srv := newTestServer(t)
	a := createMovement(t, srv, "05/01/2024", "Entrada", "Checking", "100", "")
	createMovement(t, srv, "20/02/2024", "Saída", "Checking", "30", "")
	c := createMovement(t, srv, "15/01/2024", "Entrada", "Savings", "50", "")

	rr := do(t, srv, http.MethodGet, "/api/movements", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]MovementResponse](t, rr), 3)

	rr = do(t, srv, http.MethodGet, "/api/movements?account=Savings", nil)
	assert.Equal(t, []MovementResponse{c}, decode[[]MovementResponse](t, rr))

	rr = do(t, srv, http.MethodGet, "/api/movements?kind=in&from=01/01/2024&to=31/01/2024", nil)
	assert.Equal(t, []MovementResponse{a, c}, decode[[]MovementResponse](t, rr))

	for _, q := range []string{"?from=01/01/2024", "?from=31/01/2024&to=01/01/2024", "?kind=both", "?from=x&to=y", "?compare=fuzzy"} {
		rr = do(t, srv, http.MethodGet, "/api/movements"+q, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code, q)
	}
}

func TestSummaryAndTotals(t *testing.T) {
	srv := newTestServer(t)
	createMovement(t, srv, "10/03/2024", "Entrada", "Checking", "500.00", "")
	createMovement(t, srv, "11/03/2024", "Saída", "Checking", "120.00", "")

	rr := do(t, srv, http.MethodGet, "/api/summary", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, SummaryResponse{
		Inflow:    "500.00",
		Outflow:   "120.00",
		Balance:   "380.00",
		ByAccount: []BalanceResponse{{Account: "Checking", Balance: "380.00"}},
	}, decode[SummaryResponse](t, rr))

	rr = do(t, srv, http.MethodGet, "/api/totals/saida", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]string{"kind": "Saída", "total": "120.00"}, decode[map[string]string](t, rr))

	rr = do(t, srv, http.MethodGet, "/api/totals/other", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAccounts(t *testing.T) {
	srv := newTestServer(t)

	for _, name := range []string{"Checking", "Conta Poupança", "Checking"} {
		rr := do(t, srv, http.MethodPost, "/api/accounts", map[string]string{"name": name})
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	}

	rr := do(t, srv, http.MethodGet, "/api/accounts", nil)
	assert.Equal(t, []string{"Checking", "Conta Poupança", "Checking"}, decode[[]string](t, rr))

	rr = do(t, srv, http.MethodDelete, "/api/accounts/Checking", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]int64{"removed": 2}, decode[map[string]int64](t, rr))

	rr = do(t, srv, http.MethodDelete, "/api/accounts/Conta%20Poupan%C3%A7a", nil)
	assert.Equal(t, map[string]int64{"removed": 1}, decode[map[string]int64](t, rr))

	rr = do(t, srv, http.MethodGet, "/api/accounts", nil)
	assert.Empty(t, decode[[]string](t, rr))

	rr = do(t, srv, http.MethodPost, "/api/accounts", map[string]string{"name": " "})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestExportCSV(t *testing.T) {
	srv := newTestServer(t)
	createMovement(t, srv, "10/03/2024", "Entrada", "Checking", "500.00", "")
	createMovement(t, srv, "11/03/2024", "Saída", "Savings", "120.00", "rent")

	rr := do(t, srv, http.MethodGet, "/api/export.csv", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "movimentacoes.csv")
	assert.Equal(t,
		"Data,Tipo,Conta,Valor,Observações\n"+
			"10/03/2024,Entrada,Checking,500.00,\n"+
			"11/03/2024,Saída,Savings,120.00,rent\n",
		rr.Body.String())

	rr = do(t, srv, http.MethodGet, "/api/export.csv?account=Savings", nil)
	assert.Equal(t, "Data,Tipo,Conta,Valor,Observações\n11/03/2024,Saída,Savings,120.00,rent\n", rr.Body.String())
}

func TestExportXLSX(t *testing.T) {
	srv := newTestServer(t)
	createMovement(t, srv, "10/03/2024", "Entrada", "Checking", "500.00", "")

	rr := do(t, srv, http.MethodGet, "/api/export.xlsx", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, export.XLSX.ContentType(), rr.Header().Get("Content-Type"))

	f, err := excelize.OpenReader(rr.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, export.Header, rows[0])
}

func TestImport(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/import",
		"Data,Tipo,Conta,Valor,Observações\n10/03/2024,Entrada,Checking,500.00,\n11/03/2024,Saída,Checking,120.00,\n")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, map[string]int{"imported": 2}, decode[map[string]int](t, rr))

	rr = do(t, srv, http.MethodPost, "/api/import",
		"Data,Tipo,Conta,Valor,Observações\n12/03/2024,Entrada,Checking,abc,\n")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decode[ErrorResponse](t, rr).Error, "line 2")

	rr = do(t, srv, http.MethodPost, "/api/import", "wrong,header\n")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, srv, http.MethodGet, "/api/summary", nil)
	assert.Equal(t, "380.00", decode[SummaryResponse](t, rr).Balance)
}

func TestImportTooLarge(t *testing.T) {
	srv := newTestServer(t, WithMaxImportBytes(16))

	rr := do(t, srv, http.MethodPost, "/api/import",
		"Data,Tipo,Conta,Valor,Observações\n10/03/2024,Entrada,Checking,500.00,\n")
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestUnknownRouteAndMethod(t *testing.T) {
	srv := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/nope", nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, srv, http.MethodPatch, "/api/summary", nil).Code)
}

// brokenLedger fails every operation with a storage error.
type brokenLedger struct{}

var errBroken = errors.Join(core.ErrStorage, errors.New("disk I/O error"))

func (brokenLedger) Add(context.Context, string, core.Kind, string, decimal.Decimal, string) (int64, error) {
	return 0, errBroken
}
func (brokenLedger) Update(context.Context, int64, string, core.Kind, string, decimal.Decimal, string) error {
	return errBroken
}
func (brokenLedger) Delete(context.Context, int64) error { return errBroken }
func (brokenLedger) Get(context.Context, int64) (core.Movement, error) {
	return core.Movement{}, errBroken
}
func (brokenLedger) Query(context.Context, core.Filter) ([]core.Movement, error) {
	return nil, errBroken
}
func (brokenLedger) Total(context.Context, core.Kind) (decimal.Decimal, error) {
	return decimal.Zero, errBroken
}
func (brokenLedger) Summary(context.Context) (core.Summary, error) { return core.Summary{}, errBroken }
func (brokenLedger) ExportTo(context.Context, io.Writer, export.Format, core.Filter) error {
	return errBroken
}
func (brokenLedger) Import(context.Context, io.Reader) (int, error) { return 0, errBroken }

type brokenRegistry struct{}

func (brokenRegistry) Add(context.Context, string) (int64, error)    { return 0, errBroken }
func (brokenRegistry) Remove(context.Context, string) (int64, error) { return 0, errBroken }
func (brokenRegistry) List(context.Context) ([]string, error)        { return nil, errBroken }

func TestStorageFailureMapsTo500(t *testing.T) {
	srv := NewServer(":0", brokenLedger{}, brokenRegistry{}, WithRateLimit(0))

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/movements"},
		{http.MethodGet, "/api/movements/1"},
		{http.MethodDelete, "/api/movements/1"},
		{http.MethodGet, "/api/summary"},
		{http.MethodGet, "/api/totals/Entrada"},
		{http.MethodGet, "/api/accounts"},
		{http.MethodGet, "/api/export.csv"},
	} {
		rr := do(t, srv, tc.method, tc.path, nil)
		assert.Equal(t, http.StatusInternalServerError, rr.Code, tc.path)
		resp := decode[ErrorResponse](t, rr)
		assert.Equal(t, "storage failure", resp.Error, tc.path)
		assert.NotContains(t, rr.Body.String(), "disk I/O", "causes are logged, not returned")
	}
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, WithRateLimit(2))
	defer srv.Shutdown(context.Background())

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/healthz", nil).Code)
	}
	rr := do(t, srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
