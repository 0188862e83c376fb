package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tablelab"
	"github.com/zintix-labs/tablelab/configs"
	"github.com/zintix-labs/tablelab/dto"
	"github.com/zintix-labs/tablelab/errs"
	"github.com/zintix-labs/tablelab/house"
	"github.com/zintix-labs/tablelab/sdk/blackjack"
	"github.com/zintix-labs/tablelab/sdk/core"
	"github.com/zintix-labs/tablelab/server/netsvr"
	"github.com/zintix-labs/tablelab/server/svrcfg"
	"github.com/zintix-labs/tablelab/store/sqlite"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	lab, err := tablelab.NewFromFS(core.Default(), configs.FS, configs.DefaultName)
	if err != nil {
		t.Fatalf("lab: %v", err)
	}
	rt, err := lab.BuildRuntimeWithSeed(2, 7)
	if err != nil {
		t.Fatalf("runtime: %v", err)
	}
	t.Cleanup(rt.Close)
	st, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	hs, err := house.New(st, rt, nil)
	if err != nil {
		t.Fatalf("house: %v", err)
	}
	h, err := NewHandler(&svrcfg.SvrCfg{Lab: lab, House: hs, ReqTimeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	svr := netsvr.NewChiServer("")
	svr.Group("/v1", h.Routes)
	return svr
}

func do(t *testing.T, srv http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != "" {
		rd = bytes.NewReader([]byte(body))
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode %T: %v body=%s", v, err, rec.Body.String())
	}
	return v
}

func registerAccount(t *testing.T, srv http.Handler, email string) dto.AccountView {
	t.Helper()
	rec := do(t, srv, http.MethodPost, "/v1/accounts", `{"email":"`+email+`","name":"ann"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status=%d body=%s", rec.Code, rec.Body.String())
	}
	return decode[dto.AccountView](t, rec)
}

func wantError(t *testing.T, rec *httptest.ResponseRecorder, status int, code errs.Code) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status=%d want %d body=%s", rec.Code, status, rec.Body.String())
	}
	if code == errs.CodeNone {
		return
	}
	body := decode[dto.ErrorResponse](t, rec)
	if body.Code != string(code) {
		t.Fatalf("code=%q want %q", body.Code, code)
	}
}

func TestRegisterAndGetAccount(t *testing.T) {
	srv := newTestServer(t)
	a := registerAccount(t, srv, "Ann@Example.com")
	if a.Email != "ann@example.com" || !a.Balance.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("unexpected account: %+v", a)
	}

	rec := do(t, srv, http.MethodGet, "/v1/accounts/"+a.ID.String(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status=%d", rec.Code)
	}
	got := decode[dto.AccountView](t, rec)
	if got.ID != a.ID {
		t.Fatalf("id mismatch: %s vs %s", got.ID, a.ID)
	}

	wantError(t, do(t, srv, http.MethodPost, "/v1/accounts", `{"email":"ann@example.com","name":"b"}`), http.StatusConflict, errs.CodeConflict)
	wantError(t, do(t, srv, http.MethodPost, "/v1/accounts", `{"email":"nope","name":"b"}`), http.StatusBadRequest, errs.CodeNone)
	wantError(t, do(t, srv, http.MethodPost, "/v1/accounts", `{"email":"c@example.com","name":"c","x":1}`), http.StatusBadRequest, errs.CodeNone)
	wantError(t, do(t, srv, http.MethodGet, "/v1/accounts/not-a-uuid", ""), http.StatusBadRequest, errs.CodeNone)
	wantError(t, do(t, srv, http.MethodGet, "/v1/accounts/00000000-0000-0000-0000-000000000001", ""), http.StatusNotFound, errs.CodeNotFound)
}

func TestSpinFlow(t *testing.T) {
	srv := newTestServer(t)
	a := registerAccount(t, srv, "spin@example.com")
	base := "/v1/accounts/" + a.ID.String()

	rec := do(t, srv, http.MethodPost, base+"/roulette/spin", `{"bet":"red","amount":"10"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("spin status=%d body=%s", rec.Code, rec.Body.String())
	}
	sp := decode[dto.SpinResponse](t, rec)
	if sp.Result < 0 || sp.Result > 36 {
		t.Fatalf("result out of wheel: %d", sp.Result)
	}
	if !sp.Balance.Equal(decimal.NewFromInt(5000).Add(sp.Delta)) {
		t.Fatalf("balance=%s delta=%s", sp.Balance, sp.Delta)
	}
	if sp.Win != sp.Payout.IsPositive() {
		t.Fatalf("win=%v payout=%s", sp.Win, sp.Payout)
	}

	// 數字下注可用 JSON number
	rec = do(t, srv, http.MethodPost, base+"/roulette/spin", `{"bet":17,"amount":1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("numeric bet status=%d body=%s", rec.Code, rec.Body.String())
	}

	wantError(t, do(t, srv, http.MethodPost, base+"/roulette/spin", `{"bet":37,"amount":1}`), http.StatusBadRequest, errs.CodeInvalidBet)
	wantError(t, do(t, srv, http.MethodPost, base+"/roulette/spin", `{"bet":"purple","amount":1}`), http.StatusBadRequest, errs.CodeInvalidBet)
	wantError(t, do(t, srv, http.MethodPost, base+"/roulette/spin", `{"bet":"red","amount":"999999"}`), http.StatusBadRequest, errs.CodeInsufficientFunds)

	rec = do(t, srv, http.MethodGet, base+"/roulette/history?limit=10", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("history status=%d", rec.Code)
	}
	hist := decode[[]dto.SpinView](t, rec)
	if len(hist) != 2 {
		t.Fatalf("history len=%d want 2", len(hist))
	}
	if hist[0].Bet != "17" || hist[1].Bet != "red" {
		t.Fatalf("history must be newest first: %s, %s", hist[0].Bet, hist[1].Bet)
	}

	rec = do(t, srv, http.MethodGet, "/v1/roulette/spins/"+hist[1].ID.String()+"/verify", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("verify status=%d body=%s", rec.Code, rec.Body.String())
	}
	v := decode[dto.VerifyResponse](t, rec)
	if !v.Match || v.Replayed != hist[1].Result || v.StartSnapshot == "" {
		t.Fatalf("replay mismatch: %+v", v)
	}
	wantError(t, do(t, srv, http.MethodGet, base+"/roulette/history?limit=-1", ""), http.StatusBadRequest, errs.CodeNone)
}

func TestSpinMulti(t *testing.T) {
	srv := newTestServer(t)
	a := registerAccount(t, srv, "multi@example.com")
	base := "/v1/accounts/" + a.ID.String()

	rec := do(t, srv, http.MethodPost, base+"/roulette/spin_multi",
		`{"bets":[{"bet":"red","amount":10},{"bet":"black","amount":10},{"bet":0,"amount":5}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("multi status=%d body=%s", rec.Code, rec.Body.String())
	}
	m := decode[dto.MultiSpinResponse](t, rec)
	if len(m.Results) != 3 || !m.TotalStake.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("unexpected multi: %+v", m)
	}
	for _, r := range m.Results {
		if r.Result != m.Result || r.SpinID != m.SpinID {
			t.Fatalf("bets must share one draw: %+v", r)
		}
	}
	if !m.Balance.Equal(decimal.NewFromInt(5000).Add(m.TotalDelta)) {
		t.Fatalf("balance=%s total_delta=%s", m.Balance, m.TotalDelta)
	}

	// 一注不合法整批拒絕，餘額不變
	wantError(t, do(t, srv, http.MethodPost, base+"/roulette/spin_multi",
		`{"bets":[{"bet":"red","amount":10},{"bet":"2to2","amount":10}]}`), http.StatusBadRequest, errs.CodeInvalidBet)
	got := decode[dto.AccountView](t, do(t, srv, http.MethodGet, base, ""))
	if !got.Balance.Equal(m.Balance) {
		t.Fatalf("rejected batch moved balance: %s -> %s", m.Balance, got.Balance)
	}
	wantError(t, do(t, srv, http.MethodPost, base+"/roulette/spin_multi", `{"bets":[]}`), http.StatusBadRequest, errs.CodeNone)

	rec = do(t, srv, http.MethodGet, base+"/ledger", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("ledger status=%d", rec.Code)
	}
	if entries := decode[[]dto.LedgerView](t, rec); len(entries) != 4 {
		t.Fatalf("ledger len=%d want 4", len(entries))
	}
}

func TestBlackjackFlow(t *testing.T) {
	srv := newTestServer(t)
	a := registerAccount(t, srv, "bj@example.com")
	base := "/v1/accounts/" + a.ID.String() + "/blackjack"

	wantError(t, do(t, srv, http.MethodPost, base+"/stand", ""), http.StatusConflict, errs.CodeInvalidRoundState)
	wantError(t, do(t, srv, http.MethodGet, base, ""), http.StatusNotFound, errs.CodeNotFound)

	rec := do(t, srv, http.MethodPost, base+"/start", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("start status=%d body=%s", rec.Code, rec.Body.String())
	}
	rv := decode[dto.RoundView](t, rec)
	if rv.Status != blackjack.InProgress || len(rv.Player) != 2 || len(rv.Dealer) != 2 || rv.DeckLeft != 48 {
		t.Fatalf("unexpected deal: %+v", rv)
	}

	wantError(t, do(t, srv, http.MethodPost, base+"/double", ""), http.StatusBadRequest, errs.CodeNone)

	rec = do(t, srv, http.MethodPost, base+"/stand", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("stand status=%d body=%s", rec.Code, rec.Body.String())
	}
	rv = decode[dto.RoundView](t, rec)
	if rv.Status != blackjack.StatusResolved || rv.Settlement == nil {
		t.Fatalf("stand must resolve: %+v", rv)
	}
	if !rv.Balance.Equal(decimal.NewFromInt(5000).Add(rv.Settlement.Delta)) {
		t.Fatalf("balance=%s delta=%s", rv.Balance, rv.Settlement.Delta)
	}
	if rv.DealerTotal < 17 && rv.DealerTotal <= rv.PlayerTotal {
		t.Fatalf("dealer stopped early: dealer=%d player=%d", rv.DealerTotal, rv.PlayerTotal)
	}

	wantError(t, do(t, srv, http.MethodPost, base+"/hit", ""), http.StatusConflict, errs.CodeInvalidRoundState)

	rec = do(t, srv, http.MethodGet, base, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("current status=%d", rec.Code)
	}
	if cur := decode[dto.RoundView](t, rec); cur.ID != rv.ID || cur.Status != blackjack.StatusResolved {
		t.Fatalf("current round: %+v", cur)
	}
}

func TestSimEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/v1/sim/roulette?bet=red&stake=1&round=2000&seed=42", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("sim status=%d body=%s", rec.Code, rec.Body.String())
	}
	sr := decode[SimResponse](t, rec)
	if sr.Seed != 42 || sr.Stats == nil || sr.Stats.Summary.Rounds != 2000 {
		t.Fatalf("unexpected sim: %+v", sr)
	}

	rec = do(t, srv, http.MethodPost, "/v1/sim/blackjack", `{"stake":1000,"round":500,"workers":2,"seed":1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("bj sim status=%d body=%s", rec.Code, rec.Body.String())
	}
	if br := decode[SimResponse](t, rec); br.Stats.Summary.Rounds != 1000 {
		t.Fatalf("rounds=%d want 1000", br.Stats.Summary.Rounds)
	}

	rec = do(t, srv, http.MethodPost, "/v1/sim/players/roulette", `{"bet":"1to12","stake":1,"round":100,"player":20,"bets":50,"seed":3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("players status=%d body=%s", rec.Code, rec.Body.String())
	}
	if pr := decode[SimPlayersResponse](t, rec); pr.Estimator == nil {
		t.Fatalf("missing estimator")
	}

	wantError(t, do(t, srv, http.MethodGet, "/v1/sim/roulette?stake=1&round=10", ""), http.StatusBadRequest, errs.CodeInvalidBet)
	wantError(t, do(t, srv, http.MethodGet, "/v1/sim/roulette?bet=red&stake=1&round=0", ""), http.StatusBadRequest, errs.CodeNone)
	wantError(t, do(t, srv, http.MethodPost, "/v1/sim/players/poker", `{}`), http.StatusBadRequest, errs.CodeNone)
}

func TestSimByCfg(t *testing.T) {
	srv := newTestServer(t)
	body := `{"game":"blackjack","stake":10,"round":200,"seed":9,
		"cfg":{"table_name":"tight","blackjack":{"payout_unit":10,"dealer_stands_on":17,"sim_hit_below":12}}}`
	rec := do(t, srv, http.MethodPost, "/v1/sim/bycfg", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("bycfg status=%d body=%s", rec.Code, rec.Body.String())
	}
	if sr := decode[SimResponse](t, rec); sr.Stats.Summary.TableName != "tight" {
		t.Fatalf("table name=%q", sr.Stats.Summary.TableName)
	}
	wantError(t, do(t, srv, http.MethodPost, "/v1/sim/bycfg", `{"game":"roulette","bet":"red","stake":1,"round":1,"cfg":"x"}`), http.StatusBadRequest, errs.CodeNone)
}

func TestTable(t *testing.T) {
	srv := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/v1/table", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"pool_size":2`) {
		t.Fatalf("table status=%d body=%s", rec.Code, rec.Body.String())
	}
}
