package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"financeiro/internal/core"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

const maxJSONBytes = 1 << 20

// MovementRequest is the body of POST and PUT /api/movements.
type MovementRequest struct {
	Date    string          `json:"date" validate:"required"`
	Kind    string          `json:"kind" validate:"required"`
	Account string          `json:"account" validate:"required,max=200"`
	Amount  decimal.Decimal `json:"amount"`
	Note    string          `json:"note" validate:"max=1000"`
}

// AccountRequest is the body of POST /api/accounts.
type AccountRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// MovementResponse renders amounts with two decimals.
type MovementResponse struct {
	ID      int64  `json:"id"`
	Date    string `json:"date"`
	Kind    string `json:"kind"`
	Account string `json:"account"`
	Amount  string `json:"amount"`
	Note    string `json:"note,omitempty"`
}

type BalanceResponse struct {
	Account string `json:"account"`
	Balance string `json:"balance"`
}

type SummaryResponse struct {
	Inflow    string            `json:"inflow"`
	Outflow   string            `json:"outflow"`
	Balance   string            `json:"balance"`
	ByAccount []BalanceResponse `json:"by_account"`
}

func toMovementResponse(m core.Movement) MovementResponse {
	return MovementResponse{
		ID:      m.ID,
		Date:    m.Date,
		Kind:    m.Kind.String(),
		Account: m.Account,
		Amount:  core.FormatAmount(m.Amount),
		Note:    m.Note,
	}
}

func toMovementResponses(ms []core.Movement) []MovementResponse {
	out := make([]MovementResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, toMovementResponse(m))
	}
	return out
}

func toSummaryResponse(s core.Summary) SummaryResponse {
	by := make([]BalanceResponse, 0, len(s.ByAccount))
	for _, b := range s.ByAccount {
		by = append(by, BalanceResponse{Account: b.Account, Balance: core.FormatAmount(b.Balance)})
	}
	return SummaryResponse{
		Inflow:    core.FormatAmount(s.Inflow),
		Outflow:   core.FormatAmount(s.Outflow),
		Balance:   core.FormatAmount(s.Balance),
		ByAccount: by,
	}
}

// decodeJSON reads a single JSON object into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return errors.New("invalid JSON body: trailing data")
	}
	return nil
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid movement id %q", chi.URLParam(r, "id"))
	}
	return id, nil
}

// pathParam returns the decoded value of a route parameter. chi matches on
// the escaped path when the request carries one.
func pathParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v
	}
	if unescaped, err := url.PathUnescape(v); err == nil {
		return unescaped
	}
	return v
}

// parseFilter reads account, kind, from, to and compare from the query.
// from and to must be given together. The ledger validates the values.
func parseFilter(q url.Values) (core.Filter, error) {
	f := core.Filter{
		Account: strings.TrimSpace(q.Get("account")),
		Compare: core.DateCompare(strings.TrimSpace(q.Get("compare"))),
	}
	if k := strings.TrimSpace(q.Get("kind")); k != "" {
		f.Kind = core.NormalizeKind(k)
	}

	from, to := strings.TrimSpace(q.Get("from")), strings.TrimSpace(q.Get("to"))
	switch {
	case from != "" && to != "":
		f.Range = &core.DateRange{Start: from, End: to}
	case from != "" || to != "":
		return core.Filter{}, fmt.Errorf("%w: both 'from' and 'to' are required", core.ErrInvalidRange)
	}
	return f, nil
}
