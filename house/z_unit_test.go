package house

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tablelab"
	"github.com/zintix-labs/tablelab/configs"
	"github.com/zintix-labs/tablelab/errs"
	"github.com/zintix-labs/tablelab/sdk/blackjack"
	"github.com/zintix-labs/tablelab/sdk/core"
	"github.com/zintix-labs/tablelab/sdk/ledger"
	"github.com/zintix-labs/tablelab/sdk/roulette"
	"github.com/zintix-labs/tablelab/store/sqlite"
)

func newTestHouse(t *testing.T) *House {
	t.Helper()
	lab, err := tablelab.NewFromFS(core.Default(), configs.FS, configs.DefaultName)
	if err != nil {
		t.Fatalf("lab: %v", err)
	}
	rt, err := lab.BuildRuntimeWithSeed(2, 20260101)
	if err != nil {
		t.Fatalf("runtime: %v", err)
	}
	t.Cleanup(rt.Close)
	st, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "house.db"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	h, err := New(st, rt, nil)
	if err != nil {
		t.Fatalf("house: %v", err)
	}
	return h
}

func mustBet(t *testing.T, s string) roulette.Bet {
	t.Helper()
	b, err := roulette.ParseBet(s)
	if err != nil {
		t.Fatalf("parse bet %q: %v", s, err)
	}
	return b
}

func register(t *testing.T, h *House, email string) uuid.UUID {
	t.Helper()
	a, err := h.Register(context.Background(), email, "player")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return a.ID
}

func TestRegister(t *testing.T) {
	h := newTestHouse(t)
	ctx := context.Background()
	id := register(t, h, "Amy@Example.com")
	a, err := h.Account(ctx, id)
	if err != nil {
		t.Fatalf("account: %v", err)
	}
	if !a.Balance.Equal(decimal.NewFromInt(5000)) || a.Email != "amy@example.com" {
		t.Fatalf("unexpected account: %+v", a)
	}
	if _, err := h.Register(ctx, "amy@example.com", "dup"); !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("want conflict, got %v", err)
	}
	ls, err := h.Ledger(ctx, id, 0)
	if err != nil || len(ls) != 1 || ls[0].Source != ledger.SourceAdjust {
		t.Fatalf("register ledger: %+v %v", ls, err)
	}
	if _, err := h.Account(ctx, uuid.New()); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestSpinSettlesAndAudits(t *testing.T) {
	h := newTestHouse(t)
	ctx := context.Background()
	id := register(t, h, "bo@example.com")

	res, err := h.Spin(ctx, id, roulette.Wager{Bet: mustBet(t, "red"), Stake: decimal.NewFromInt(100)})
	if err != nil {
		t.Fatalf("spin: %v", err)
	}
	want := decimal.NewFromInt(5000).Add(res.Spin.Delta)
	if !res.Balance.Equal(want) || !res.Spin.BalanceAfter.Equal(want) {
		t.Fatalf("balance=%s after=%s want=%s", res.Balance, res.Spin.BalanceAfter, want)
	}
	if res.Spin.Won != roulette.Wins(mustBet(t, "red"), res.Spin.Result) {
		t.Fatalf("won flag disagrees with catalog for %d", res.Spin.Result)
	}
	a, _ := h.Account(ctx, id)
	if !a.Balance.Equal(want) {
		t.Fatalf("stored balance=%s", a.Balance)
	}

	hist, err := h.History(ctx, id, 10)
	if err != nil || len(hist) != 1 || hist[0].ID != res.Spin.ID {
		t.Fatalf("history: %+v %v", hist, err)
	}
	v, err := h.VerifySpin(ctx, res.Spin.ID)
	if err != nil || !v.Match || v.Replayed.Draw != res.Spin.Result {
		t.Fatalf("verify: %+v %v", v, err)
	}
	if _, err := h.VerifySpin(ctx, uuid.New()); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("verify missing: %v", err)
	}
}

func TestSpinRejectionsWriteNothing(t *testing.T) {
	h := newTestHouse(t)
	ctx := context.Background()
	id := register(t, h, "cy@example.com")

	cases := []struct {
		name string
		w    roulette.Wager
		want error
	}{
		{"over balance", roulette.Wager{Bet: mustBet(t, "black"), Stake: decimal.NewFromInt(5001)}, errs.ErrInsufficientFunds},
		{"unknown bet", roulette.Wager{Bet: roulette.Number(99), Stake: decimal.NewFromInt(1)}, errs.ErrInvalidBet},
		{"negative", roulette.Wager{Bet: mustBet(t, "odd"), Stake: decimal.NewFromInt(-5)}, errs.ErrInvalidBet},
	}
	for _, c := range cases {
		if _, err := h.Spin(ctx, id, c.w); !errors.Is(err, c.want) {
			t.Fatalf("%s: want %v, got %v", c.name, c.want, err)
		}
	}
	_, err := h.SpinMulti(ctx, id, []roulette.Wager{
		{Bet: mustBet(t, "red"), Stake: decimal.NewFromInt(3000)},
		{Bet: mustBet(t, "black"), Stake: decimal.NewFromInt(3000)},
	})
	if !errors.Is(err, errs.ErrInsufficientFunds) {
		t.Fatalf("batch over balance: %v", err)
	}
	if _, err := h.Spin(ctx, uuid.New(), roulette.Wager{Bet: mustBet(t, "red"), Stake: decimal.NewFromInt(1)}); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("unknown account: %v", err)
	}

	a, _ := h.Account(ctx, id)
	hist, _ := h.History(ctx, id, 0)
	if !a.Balance.Equal(decimal.NewFromInt(5000)) || len(hist) != 0 {
		t.Fatalf("rejections must not write: balance=%s history=%d", a.Balance, len(hist))
	}
}

func TestSpinMultiSharesDraw(t *testing.T) {
	h := newTestHouse(t)
	ctx := context.Background()
	id := register(t, h, "di@example.com")

	res, err := h.SpinMulti(ctx, id, []roulette.Wager{
		{Bet: mustBet(t, "red"), Stake: decimal.NewFromInt(10)},
		{Bet: mustBet(t, "black"), Stake: decimal.NewFromInt(10)},
		{Bet: roulette.Number(0), Stake: decimal.NewFromInt(5)},
	})
	if err != nil {
		t.Fatalf("multi: %v", err)
	}
	if len(res.Spins) != 3 || !res.TotalStake.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("unexpected result: %+v", res)
	}
	bal := decimal.NewFromInt(5000)
	for i, s := range res.Spins {
		if s.Result != res.Result || s.SpinID != res.SpinID || s.Seq != i {
			t.Fatalf("spin %d does not share draw: %+v", i, s)
		}
		bal = bal.Add(s.Delta)
		if !s.BalanceAfter.Equal(bal) {
			t.Fatalf("spin %d balance_after=%s want %s", i, s.BalanceAfter, bal)
		}
	}
	if !res.Balance.Equal(bal) || !res.TotalDelta.Equal(bal.Sub(decimal.NewFromInt(5000))) {
		t.Fatalf("balance=%s delta=%s", res.Balance, res.TotalDelta)
	}
	hist, _ := h.History(ctx, id, 0)
	if len(hist) != 3 {
		t.Fatalf("history=%d", len(hist))
	}
	ls, _ := h.Ledger(ctx, id, 0)
	if len(ls) != 4 {
		t.Fatalf("ledger=%d", len(ls))
	}
}

func TestConcurrentSpinsSameAccount(t *testing.T) {
	h := newTestHouse(t)
	ctx := context.Background()
	id := register(t, h, "ed@example.com")

	const n = 16
	even := mustBet(t, "even")
	wg := new(sync.WaitGroup)
	errc := make(chan error, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.Spin(ctx, id, roulette.Wager{Bet: even, Stake: decimal.NewFromInt(10)})
			errc <- err
		}()
	}
	wg.Wait()
	close(errc)
	for err := range errc {
		if err != nil {
			t.Fatalf("spin: %v", err)
		}
	}

	hist, _ := h.History(ctx, id, 100)
	if len(hist) != n {
		t.Fatalf("history=%d", len(hist))
	}
	sum := decimal.NewFromInt(5000)
	for _, s := range hist {
		sum = sum.Add(s.Delta)
	}
	a, _ := h.Account(ctx, id)
	if !a.Balance.Equal(sum) {
		t.Fatalf("lost update: balance=%s want=%s", a.Balance, sum)
	}
	if h.locks.size() != 0 {
		t.Fatalf("account locks leaked: %d", h.locks.size())
	}
}

func TestBlackjackFlow(t *testing.T) {
	h := newTestHouse(t)
	ctx := context.Background()
	id := register(t, h, "fay@example.com")

	if _, err := h.Act(ctx, id, blackjack.Stand); !errors.Is(err, errs.ErrInvalidRoundState) {
		t.Fatalf("act without round: %v", err)
	}
	if _, err := h.Act(ctx, uuid.New(), blackjack.Stand); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("act unknown account: %v", err)
	}

	start, err := h.StartBlackjack(ctx, id)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if start.Status != blackjack.InProgress || len(start.Round.Player) != 2 || len(start.Round.Dealer) != 2 {
		t.Fatalf("unexpected start: %+v", start)
	}

	res, err := h.Act(ctx, id, blackjack.Stand)
	if err != nil {
		t.Fatalf("stand: %v", err)
	}
	if res.Settlement == nil || !res.Round.Done() {
		t.Fatalf("stand must resolve: %+v", res)
	}
	unit := decimal.NewFromInt(1000)
	switch res.Settlement.Outcome {
	case blackjack.PlayerWin:
		if !res.Settlement.Delta.Equal(unit) {
			t.Fatalf("win delta=%s", res.Settlement.Delta)
		}
	case blackjack.Push:
		if !res.Settlement.Delta.IsZero() {
			t.Fatalf("push delta=%s", res.Settlement.Delta)
		}
	default:
		if !res.Settlement.Delta.Equal(unit.Neg()) {
			t.Fatalf("loss delta=%s", res.Settlement.Delta)
		}
	}
	want := decimal.NewFromInt(5000).Add(res.Settlement.Delta)
	if !res.Balance.Equal(want) {
		t.Fatalf("balance=%s want=%s", res.Balance, want)
	}

	if _, err := h.Act(ctx, id, blackjack.Hit); !errors.Is(err, errs.ErrInvalidRoundState) {
		t.Fatalf("act after resolve: %v", err)
	}
	a, _ := h.Account(ctx, id)
	if !a.Balance.Equal(want) {
		t.Fatalf("settled twice: balance=%s", a.Balance)
	}
	rec, err := h.CurrentRound(ctx, id)
	if err != nil || !rec.Settled || rec.Round.ID != start.Round.ID {
		t.Fatalf("stored round: %+v %v", rec, err)
	}

	again, err := h.StartBlackjack(ctx, id)
	if err != nil || again.Round.ID == start.Round.ID {
		t.Fatalf("new round must replace old one: %v", err)
	}
}

func TestBlackjackHitUntilDone(t *testing.T) {
	h := newTestHouse(t)
	ctx := context.Background()
	id := register(t, h, "gus@example.com")
	if _, err := h.StartBlackjack(ctx, id); err != nil {
		t.Fatalf("start: %v", err)
	}
	var res RoundResult
	for i := 0; i < 12; i++ {
		var err error
		res, err = h.Act(ctx, id, blackjack.Hit)
		if err != nil {
			t.Fatalf("hit: %v", err)
		}
		if res.Round.Done() {
			break
		}
	}
	if !res.Round.Done() || res.Status != blackjack.StatusBust || res.Settlement.Outcome != blackjack.PlayerBust {
		t.Fatalf("hitting forever must bust: %+v", res)
	}
	if !res.Balance.Equal(decimal.NewFromInt(4000)) {
		t.Fatalf("bust balance=%s", res.Balance)
	}
}

func TestKeyedMutexSerializes(t *testing.T) {
	k := newKeyedMutex()
	key := uuid.New()
	counter := 0
	wg := new(sync.WaitGroup)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.lock(key)
			counter++
			unlock()
		}()
	}
	wg.Wait()
	if counter != 50 || k.size() != 0 {
		t.Fatalf("counter=%d size=%d", counter, k.size())
	}
}
