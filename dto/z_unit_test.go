package dto

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tablelab/errs"
	"github.com/zintix-labs/tablelab/house"
	"github.com/zintix-labs/tablelab/sdk/blackjack"
	"github.com/zintix-labs/tablelab/sdk/roulette"
	"github.com/zintix-labs/tablelab/store"
)

func post(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestDecodeRegister(t *testing.T) {
	req := new(RegisterRequest)
	if err := DecodeJSON(post(`{"email":"a@b.co","name":"Ann"}`), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bad := []string{
		`{"email":"not-an-email","name":"Ann"}`,
		`{"email":"a@b.co"}`,
		`{"email":"a@b.co","name":"Ann","extra":1}`,
		`{"email":`,
	}
	for _, b := range bad {
		err := DecodeJSON(post(b), new(RegisterRequest))
		if err == nil || errs.Level(err) != errs.Warn {
			t.Fatalf("%s: want warn, got %v", b, err)
		}
	}
}

func TestDecodeWagerAcceptsNumberAndString(t *testing.T) {
	cases := map[string]roulette.Bet{
		`{"bet":17,"amount":50}`:       roulette.Number(17),
		`{"bet":"17","amount":50}`:     roulette.Number(17),
		`{"bet":"RED","amount":"50"}`:  roulette.Symbolic(roulette.KindRed),
		`{"bet":"1to12","amount":5.5}`: roulette.Symbolic(roulette.Low),
	}
	for body, want := range cases {
		req := new(WagerRequest)
		if err := DecodeJSON(post(body), req); err != nil {
			t.Fatalf("%s: %v", body, err)
		}
		if req.Bet != want {
			t.Fatalf("%s: bet=%v want %v", body, req.Bet, want)
		}
		if w := req.Wager(); !w.Stake.Equal(req.Amount) {
			t.Fatalf("wager stake mismatch")
		}
	}
}

func TestDecodeWagerRejectsInvalidBet(t *testing.T) {
	bad := []string{
		`{"bet":37,"amount":1}`,
		`{"bet":"green","amount":1}`,
		`{"amount":1}`,
		`{"bet":"red","amount":-1}`,
		`{"bet":"red","amount":0.001}`,
	}
	for _, b := range bad {
		err := DecodeJSON(post(b), new(WagerRequest))
		if !errors.Is(err, errs.ErrInvalidBet) {
			t.Fatalf("%s: want invalid bet, got %v", b, err)
		}
	}
}

func TestDecodeMultiSpin(t *testing.T) {
	req := new(MultiSpinRequest)
	err := DecodeJSON(post(`{"bets":[{"bet":"black","amount":20},{"bet":"1to12","amount":30}]}`), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ws := req.Wagers()
	if len(ws) != 2 || ws[1].Bet != roulette.Symbolic(roulette.Low) || !ws[1].Stake.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("unexpected wagers: %+v", ws)
	}
	if err := DecodeJSON(post(`{"bets":[]}`), new(MultiSpinRequest)); err == nil {
		t.Fatalf("empty batch must fail")
	}
	if err := DecodeJSON(post(`{"bets":[{"bet":"red","amount":1},{"bet":"x","amount":1}]}`), new(MultiSpinRequest)); !errors.Is(err, errs.ErrInvalidBet) {
		t.Fatalf("one bad entry must reject the batch: %v", err)
	}
}

func TestActionRequest(t *testing.T) {
	req := new(ActionRequest)
	if err := DecodeJSON(post(`{"action":"hit"}`), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a, err := req.Parse(); err != nil || a != blackjack.Hit {
		t.Fatalf("parse: %v %v", a, err)
	}
	if err := DecodeJSON(post(`{"action":"double"}`), new(ActionRequest)); err == nil {
		t.Fatalf("unknown action must fail")
	}
}

func TestDecodeSimQuery(t *testing.T) {
	q := url.Values{"bet": {"red"}, "stake": {"10"}, "round": {"1000"}, "workers": {"2"}, "seed": {"7"}}
	req, err := DecodeSimQuery(q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Bet == nil || *req.Bet != roulette.Symbolic(roulette.KindRed) || req.Round != 1000 || *req.Seed != 7 {
		t.Fatalf("unexpected request: %+v", req)
	}
	if _, err := DecodeSimQuery(url.Values{"stake": {"1"}, "round": {"0"}}); err == nil {
		t.Fatalf("round 0 must fail")
	}
	if _, err := DecodeSimQuery(url.Values{"stake": {"x"}}); err == nil {
		t.Fatalf("bad stake must fail")
	}
}

func TestParseLimit(t *testing.T) {
	if n, err := ParseLimit(url.Values{}); err != nil || n != 0 {
		t.Fatalf("empty limit: %d %v", n, err)
	}
	if n, err := ParseLimit(url.Values{"limit": {"20"}}); err != nil || n != 20 {
		t.Fatalf("limit: %d %v", n, err)
	}
	if _, err := ParseLimit(url.Values{"limit": {"-1"}}); err == nil {
		t.Fatalf("negative limit must fail")
	}
}

func TestViews(t *testing.T) {
	rec := store.SpinRecord{ID: uuid.New(), Bet: "red", Result: 3, Won: true, Amount: decimal.NewFromInt(100), Payout: decimal.NewFromInt(200)}
	v := NewSpinResponse(house.SpinResult{Spin: rec, Balance: decimal.NewFromInt(5100)})
	if v.Color != "red" || !v.Win || !v.Balance.Equal(decimal.NewFromInt(5100)) {
		t.Fatalf("unexpected view: %+v", v)
	}
	r, err := blackjack.Deal(blackjack.MustCards("6H", "6S", "9C", "10D"))
	if err != nil {
		t.Fatalf("deal: %v", err)
	}
	rv := NewRoundView(house.RoundResult{Round: r, Status: r.Status()})
	if rv.PlayerTotal != 19 || rv.DealerTotal != 12 || rv.DeckLeft != 0 || rv.Status != blackjack.InProgress {
		t.Fatalf("unexpected round view: %+v", rv)
	}
}
