// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package house 把桌台（tablelab.Runtime）與帳戶儲存（store.Store）接在一起。
//
// 每個會動到餘額的操作都在單一交易內完成：讀餘額 → 交給桌台驗證並開獎 → 寫稽核紀錄、
// 帳本分錄與新餘額。驗證失敗時不開獎、不寫任何東西。
// 同一個帳戶的操作以帳戶鎖序列化，不同帳戶可以並行。
package house

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tablelab"
	"github.com/zintix-labs/tablelab/corefmt"
	"github.com/zintix-labs/tablelab/errs"
	"github.com/zintix-labs/tablelab/sdk/blackjack"
	"github.com/zintix-labs/tablelab/sdk/ledger"
	"github.com/zintix-labs/tablelab/sdk/roulette"
	"github.com/zintix-labs/tablelab/spec"
	"github.com/zintix-labs/tablelab/store"
)

const refRegister = "register"

// House 帳戶層服務
type House struct {
	st    store.Store
	rt    *tablelab.Runtime
	ts    spec.TableSetting
	log   *slog.Logger
	locks *keyedMutex
	now   func() time.Time
}

// New 建立服務；log 為 nil 時不輸出。
func New(st store.Store, rt *tablelab.Runtime, log *slog.Logger) (*House, error) {
	if st == nil {
		return nil, errs.NewFatal("store is required")
	}
	if rt == nil {
		return nil, errs.NewFatal("runtime is required")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &House{
		st:    st,
		rt:    rt,
		ts:    rt.Setting(),
		log:   log,
		locks: newKeyedMutex(),
		now:   func() time.Time { return time.Now().UTC() },
	}, nil
}

// Setting 目前桌規
func (h *House) Setting() spec.TableSetting { return h.ts }

// Runtime 底層桌台
func (h *House) Runtime() *tablelab.Runtime { return h.rt }

// SpinResult 單注結果
type SpinResult struct {
	Spin    store.SpinRecord `json:"spin"`
	Balance decimal.Decimal  `json:"balance"`
}

// MultiSpinResult 多注結果（共用同一個開獎號碼）
type MultiSpinResult struct {
	SpinID     uuid.UUID          `json:"spin_id"`
	Result     int                `json:"result"`
	Spins      []store.SpinRecord `json:"spins"`
	TotalStake decimal.Decimal    `json:"total_stake"`
	TotalDelta decimal.Decimal    `json:"total_delta"`
	Balance    decimal.Decimal    `json:"balance"`
}

// RoundResult 21 點操作結果；Settlement 只在該次操作讓牌局結束時才有值。
type RoundResult struct {
	Round      blackjack.Round       `json:"round"`
	Status     blackjack.Status      `json:"status"`
	Settlement *blackjack.Settlement `json:"settlement,omitempty"`
	Balance    decimal.Decimal       `json:"balance"`
}

// Verification 以稽核快照重開一次獎的比對結果
type Verification struct {
	Spin     store.SpinRecord    `json:"spin"`
	Replayed roulette.Settlement `json:"replayed"`
	Match    bool                `json:"match"`
}

// Register 開戶並入帳初始餘額。
func (h *House) Register(ctx context.Context, email string, name string) (store.Account, error) {
	now := h.now()
	init := h.ts.InitialBalance()
	a := store.Account{
		ID:        uuid.New(),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Name:      strings.TrimSpace(name),
		Balance:   init,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := h.st.InTx(ctx, func(tx store.Tx) error {
		if err := tx.CreateAccount(ctx, a); err != nil {
			return err
		}
		p := ledger.Apply(decimal.Zero, ledger.Entry{Source: ledger.SourceAdjust, Ref: refRegister, Delta: init})
		return tx.InsertLedger(ctx, h.ledgerRecords(a.ID, now, p)...)
	})
	if err != nil {
		return store.Account{}, err
	}
	h.log.Info("account registered", slog.String("account", a.ID.String()), slog.String("balance", init.String()))
	return a, nil
}

// Account 查詢帳戶
func (h *House) Account(ctx context.Context, id uuid.UUID) (store.Account, error) {
	return h.st.GetAccount(ctx, id)
}

// Spin 單注輪盤
func (h *House) Spin(ctx context.Context, accountID uuid.UUID, w roulette.Wager) (SpinResult, error) {
	unlock := h.locks.lock(accountID)
	defer unlock()

	var res SpinResult
	err := h.st.InTx(ctx, func(tx store.Tx) error {
		acct, err := tx.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}
		w.Bettor = accountID.String()
		out, err := h.rt.Spin(ctx, w, acct.Balance)
		if err != nil {
			return err
		}
		recs, bal, err := h.settleSpins(ctx, tx, acct, out.State, []roulette.Settlement{out.Settlement})
		if err != nil {
			return err
		}
		res = SpinResult{Spin: recs[0], Balance: bal}
		return nil
	})
	if err != nil {
		h.logReject("roulette spin rejected", accountID, err)
		return SpinResult{}, err
	}
	h.log.Info("roulette spin",
		slog.String("account", accountID.String()),
		slog.String("bet", res.Spin.Bet),
		slog.Int("result", res.Spin.Result),
		slog.String("delta", res.Spin.Delta.String()),
	)
	return res, nil
}

// SpinMulti 多注輪盤：整批共用一次開獎，任一注不合法或總額超過餘額即整批拒絕。
func (h *House) SpinMulti(ctx context.Context, accountID uuid.UUID, ws []roulette.Wager) (MultiSpinResult, error) {
	unlock := h.locks.lock(accountID)
	defer unlock()

	var res MultiSpinResult
	err := h.st.InTx(ctx, func(tx store.Tx) error {
		acct, err := tx.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}
		bettor := accountID.String()
		wagers := make([]roulette.Wager, len(ws))
		for i, w := range ws {
			w.Bettor = bettor
			wagers[i] = w
		}
		out, err := h.rt.SpinBatch(ctx, wagers, acct.Balance)
		if err != nil {
			return err
		}
		recs, bal, err := h.settleSpins(ctx, tx, acct, out.State, out.Settlements)
		if err != nil {
			return err
		}
		res = MultiSpinResult{
			SpinID:     recs[0].SpinID,
			Result:     out.Draw,
			Spins:      recs,
			TotalStake: out.TotalStake,
			TotalDelta: out.TotalDelta,
			Balance:    bal,
		}
		return nil
	})
	if err != nil {
		h.logReject("roulette multi spin rejected", accountID, err)
		return MultiSpinResult{}, err
	}
	h.log.Info("roulette multi spin",
		slog.String("account", accountID.String()),
		slog.Int("bets", len(res.Spins)),
		slog.Int("result", res.Result),
		slog.String("delta", res.TotalDelta.String()),
	)
	return res, nil
}

// History 帳戶的輪盤紀錄（新到舊）
func (h *House) History(ctx context.Context, accountID uuid.UUID, limit int) ([]store.SpinRecord, error) {
	if _, err := h.st.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return h.st.ListSpins(ctx, accountID, limit)
}

// Ledger 帳戶的帳本分錄（新到舊）
func (h *House) Ledger(ctx context.Context, accountID uuid.UUID, limit int) ([]store.LedgerRecord, error) {
	if _, err := h.st.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return h.st.ListLedger(ctx, accountID, limit)
}

// VerifySpin 以紀錄中的開獎前快照重開一次，確認號碼與賠付都一致。
func (h *House) VerifySpin(ctx context.Context, spinRecordID uuid.UUID) (Verification, error) {
	rec, err := h.st.GetSpin(ctx, spinRecordID)
	if err != nil {
		return Verification{}, err
	}
	if len(rec.StartSnap) == 0 {
		return Verification{}, errs.Warnf("spin %s has no core snapshot", rec.ID)
	}
	bet, err := roulette.ParseBet(rec.Bet)
	if err != nil {
		return Verification{}, errs.Fatalf("spin %s: stored bet %q is not parsable", rec.ID, rec.Bet)
	}
	w := roulette.Wager{Bettor: rec.AccountID.String(), Bet: bet, Stake: rec.Amount}
	got, err := h.rt.Replay(ctx, corefmt.EncodeBase64URL(rec.StartSnap), w)
	if err != nil {
		return Verification{}, err
	}
	match := got.Draw == rec.Result && got.Won == rec.Won && got.Payout.Equal(rec.Payout)
	if !match {
		h.log.Error("spin replay mismatch",
			slog.String("spin", rec.ID.String()),
			slog.Int("stored", rec.Result),
			slog.Int("replayed", got.Draw),
		)
	}
	return Verification{Spin: rec, Replayed: got, Match: match}, nil
}

// StartBlackjack 開一局新的 21 點，覆蓋帳戶原本的牌局。開局不動餘額。
func (h *House) StartBlackjack(ctx context.Context, accountID uuid.UUID) (RoundResult, error) {
	unlock := h.locks.lock(accountID)
	defer unlock()

	var res RoundResult
	err := h.st.InTx(ctx, func(tx store.Tx) error {
		acct, err := tx.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}
		r, err := h.rt.StartRound(ctx)
		if err != nil {
			return err
		}
		if err := tx.PutRound(ctx, store.RoundRecord{AccountID: accountID, Round: r, UpdatedAt: h.now()}); err != nil {
			return err
		}
		res = RoundResult{Round: r, Status: r.Status(), Balance: acct.Balance}
		return nil
	})
	if err != nil {
		h.logReject("blackjack start rejected", accountID, err)
		return RoundResult{}, err
	}
	h.log.Info("blackjack round started",
		slog.String("account", accountID.String()),
		slog.String("round", res.Round.ID.String()),
		slog.Int("player", res.Round.PlayerScore()),
	)
	return res, nil
}

// Act 對帳戶目前的牌局套用動作；牌局因此結束時以固定單位入帳，且只入帳一次。
func (h *House) Act(ctx context.Context, accountID uuid.UUID, a blackjack.Action) (RoundResult, error) {
	unlock := h.locks.lock(accountID)
	defer unlock()

	var res RoundResult
	err := h.st.InTx(ctx, func(tx store.Tx) error {
		rec, err := tx.GetRound(ctx, accountID)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				if _, aerr := tx.GetAccount(ctx, accountID); aerr != nil {
					return aerr
				}
				return errs.InvalidRoundState("no active round")
			}
			return err
		}
		if rec.Settled || rec.Round.Done() {
			return errs.InvalidRoundState("round %s already resolved", rec.Round.ID)
		}
		next, err := h.rt.Act(ctx, rec.Round, a)
		if err != nil {
			return err
		}
		acct, err := tx.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}
		now := h.now()
		res = RoundResult{Round: next, Status: next.Status(), Balance: acct.Balance}
		rec.Round = next
		rec.UpdatedAt = now
		if next.Done() {
			st, err := next.Settle(h.ts.PayoutUnit())
			if err != nil {
				return err
			}
			bal, ps := ledger.ApplyAll(acct.Balance, ledger.Entry{
				Source: ledger.SourceBlackjack,
				Ref:    next.ID.String(),
				Delta:  st.Delta,
			})
			if err := tx.UpdateBalance(ctx, accountID, bal, now); err != nil {
				return err
			}
			if err := tx.InsertLedger(ctx, h.ledgerRecords(accountID, now, ps...)...); err != nil {
				return err
			}
			rec.Settled = true
			res.Settlement = &st
			res.Balance = bal
		}
		return tx.PutRound(ctx, rec)
	})
	if err != nil {
		h.logReject("blackjack action rejected", accountID, err)
		return RoundResult{}, err
	}
	if res.Settlement != nil {
		h.log.Info("blackjack round settled",
			slog.String("account", accountID.String()),
			slog.String("round", res.Round.ID.String()),
			slog.String("outcome", string(res.Settlement.Outcome)),
			slog.String("delta", res.Settlement.Delta.String()),
		)
	}
	return res, nil
}

// CurrentRound 帳戶目前（或最後一局）的牌局
func (h *House) CurrentRound(ctx context.Context, accountID uuid.UUID) (store.RoundRecord, error) {
	var rec store.RoundRecord
	err := h.st.InTx(ctx, func(tx store.Tx) error {
		var err error
		rec, err = tx.GetRound(ctx, accountID)
		return err
	})
	return rec, err
}

// settleSpins 依序過帳每一注，寫入稽核紀錄、帳本分錄與新餘額。
func (h *House) settleSpins(ctx context.Context, tx store.Tx, acct store.Account, state tablelab.CoreState, ss []roulette.Settlement) ([]store.SpinRecord, decimal.Decimal, error) {
	snap, err := corefmt.DecodeBase64URL(state.Start)
	if err != nil {
		return nil, decimal.Zero, errs.Wrap(err, "decode core snapshot")
	}
	now := h.now()
	spinID := uuid.New()
	entries := make([]ledger.Entry, len(ss))
	for i, s := range ss {
		entries[i] = ledger.Entry{Source: ledger.SourceRoulette, Ref: spinID.String(), Delta: s.Delta}
	}
	bal, ps := ledger.ApplyAll(acct.Balance, entries...)

	recs := make([]store.SpinRecord, len(ss))
	for i, s := range ss {
		recs[i] = store.SpinRecord{
			ID:           uuid.New(),
			SpinID:       spinID,
			AccountID:    acct.ID,
			Seq:          i,
			Bet:          s.Wager.Bet.String(),
			Amount:       s.Wager.Stake,
			Result:       s.Draw,
			Won:          s.Won,
			Payout:       s.Payout,
			Delta:        s.Delta,
			BalanceAfter: ps[i].After,
			StartSnap:    snap,
			CreatedAt:    now,
		}
	}
	if err := tx.InsertSpins(ctx, recs...); err != nil {
		return nil, decimal.Zero, err
	}
	if err := tx.InsertLedger(ctx, h.ledgerRecords(acct.ID, now, ps...)...); err != nil {
		return nil, decimal.Zero, err
	}
	if err := tx.UpdateBalance(ctx, acct.ID, bal, now); err != nil {
		return nil, decimal.Zero, err
	}
	return recs, bal, nil
}

func (h *House) ledgerRecords(accountID uuid.UUID, at time.Time, ps ...ledger.Posting) []store.LedgerRecord {
	out := make([]store.LedgerRecord, len(ps))
	for i, p := range ps {
		out[i] = store.LedgerRecord{ID: uuid.New(), AccountID: accountID, Posting: p, CreatedAt: at}
	}
	return out
}

// logReject Warn 視為請求錯誤只記 debug，其餘記 error。
func (h *House) logReject(msg string, accountID uuid.UUID, err error) {
	if errs.Level(err) == errs.Warn {
		h.log.Debug(msg, slog.String("account", accountID.String()), slog.Any("err", err))
		return
	}
	h.log.Error(msg, slog.String("account", accountID.String()), slog.Any("err", err))
}
