package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rewired-gh/auctionledger/internal/ledger"
	"github.com/rewired-gh/auctionledger/internal/reconcile"
	"github.com/rewired-gh/auctionledger/internal/sheets"
)

type stubSource struct {
	err error
}

func (s stubSource) FetchSnapshot(context.Context) (*sheets.Snapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &sheets.Snapshot{
		Transactions: [][]string{
			{"2024-05-01", "alice", "vase", "1000000", "bob", "오후 3:10"},
			{"2024-05-02", "alice", "bowl", "200000", "carol", "오후 9:05"},
		},
		Members: [][]string{
			{"alice", "Alice Kim", "010", "Seoul", "", "0", "0"},
			{"bob", "Bob Lee", "010", "Busan", "", "0", "0"},
		},
	}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Code    string          `json:"code"`
}

func newTestRouter(src reconcile.Source) *gin.Engine {
	return SetupRouter(RouterDeps{
		Reports: reconcile.New(src, reconcile.DefaultConfig()),
		Ledger:  ledger.New(),
		Mode:    gin.TestMode,
	})
}

func do(t *testing.T, r http.Handler, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: invalid JSON %q", method, path, w.Body.String())
	}
	return w.Code, env
}

func TestSettlementEndpoint(t *testing.T) {
	r := newTestRouter(stubSource{})

	code, env := do(t, r, http.MethodGet, "/api/settlements?date=2024-05-01", "")
	if code != http.StatusOK || !env.Success {
		t.Fatalf("unexpected response %d %+v", code, env)
	}
	var view settlementView
	if err := json.Unmarshal(env.Data, &view); err != nil {
		t.Fatal(err)
	}
	if view.Totals.PayIn != 1050000 || view.Totals.PayOut != 860000 {
		t.Errorf("unexpected totals: %+v", view.Totals)
	}
	if view.Totals.RemainingPayIn != view.Totals.PayIn {
		t.Errorf("nothing is fulfilled yet: %+v", view.Totals)
	}
}

func TestSettlementRequiresWindow(t *testing.T) {
	r := newTestRouter(stubSource{})

	for _, path := range []string{
		"/api/settlements",
		"/api/settlements?date=05-01",
		"/api/settlements?from=2024-05-02&to=2024-05-01",
	} {
		code, env := do(t, r, http.MethodGet, path, "")
		if code != http.StatusBadRequest || env.Code != "ERR_INVALID_WINDOW" {
			t.Errorf("%s: got %d %s", path, code, env.Code)
		}
	}
}

func TestSourceUnavailable(t *testing.T) {
	r := newTestRouter(stubSource{err: fmt.Errorf("%w: timeout", sheets.ErrSourceUnavailable)})

	code, env := do(t, r, http.MethodGet, "/api/vip", "")
	if code != http.StatusBadGateway || env.Code != "ERR_SOURCE_UNAVAILABLE" {
		t.Errorf("got %d %s", code, env.Code)
	}
}

func TestToggleAffectsOnlyItsWindow(t *testing.T) {
	r := newTestRouter(stubSource{})

	code, env := do(t, r, http.MethodPost, "/api/ledger/toggle",
		`{"window_id":"2024-05-01","direction":"collect","participant_id":"bob"}`)
	if code != http.StatusOK {
		t.Fatalf("toggle failed: %d %s", code, env.Code)
	}

	var totals settlementTotals
	_, env = do(t, r, http.MethodGet, "/api/ledger/remaining?date=2024-05-01", "")
	if err := json.Unmarshal(env.Data, &totals); err != nil {
		t.Fatal(err)
	}
	if totals.RemainingPayIn != 0 || totals.RemainingPayOut != 860000 {
		t.Errorf("unexpected remaining for 05-01: %+v", totals)
	}

	_, env = do(t, r, http.MethodGet, "/api/ledger/remaining?from=2024-05-01&to=2024-05-02", "")
	if err := json.Unmarshal(env.Data, &totals); err != nil {
		t.Fatal(err)
	}
	// bob 1,050,000 + carol 210,000, untouched in the range window.
	if totals.RemainingPayIn != 1260000 {
		t.Errorf("range window should not see the 05-01 toggle: %+v", totals)
	}
}

func TestToggleRejectsBadInput(t *testing.T) {
	r := newTestRouter(stubSource{})

	code, env := do(t, r, http.MethodPost, "/api/ledger/toggle",
		`{"window_id":"2024-05-01","direction":"sideways","participant_id":"bob"}`)
	if code != http.StatusBadRequest || env.Code != "ERR_INVALID_DIRECTION" {
		t.Errorf("got %d %s", code, env.Code)
	}

	code, env = do(t, r, http.MethodPost, "/api/ledger/toggle", `{"window_id":"2024-05-01"}`)
	if code != http.StatusBadRequest || env.Code != "ERR_INVALID_BODY" {
		t.Errorf("got %d %s", code, env.Code)
	}
}

func TestStatementEndpoint(t *testing.T) {
	r := newTestRouter(stubSource{})

	code, _ := do(t, r, http.MethodGet, "/api/statements/alice?date=2024-05-01", "")
	if code != http.StatusOK {
		t.Errorf("expected 200, got %d", code)
	}
	code, env := do(t, r, http.MethodGet, "/api/statements/zed?date=2024-05-01", "")
	if code != http.StatusNotFound || env.Code != "ERR_UNKNOWN_PARTICIPANT" {
		t.Errorf("got %d %s", code, env.Code)
	}
}

func TestHoursAndDates(t *testing.T) {
	r := newTestRouter(stubSource{})

	code, env := do(t, r, http.MethodGet, "/api/hours", "")
	if code != http.StatusOK {
		t.Fatalf("hours: %d", code)
	}
	var report reconcile.HoursReport
	if err := json.Unmarshal(env.Data, &report); err != nil {
		t.Fatal(err)
	}
	if len(report.Buckets) != 13 || report.Peak == nil || report.Peak.Hour != 15 {
		t.Errorf("unexpected hours report: %+v", report)
	}

	_, env = do(t, r, http.MethodGet, "/api/dates", "")
	var dates []string
	if err := json.Unmarshal(env.Data, &dates); err != nil {
		t.Fatal(err)
	}
	if len(dates) != 2 || dates[0] != "2024-05-02" {
		t.Errorf("unexpected dates: %v", dates)
	}
}
