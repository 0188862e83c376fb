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

package recorder

import (
	"fmt"

	"github.com/zintix-labs/tablelab/errs"
	"github.com/zintix-labs/tablelab/stats"
)

// Recorder 局數紀錄員
//
// Recorder 只處理整數的下注/返還，紀錄完成後透過 Done 輸出統計報表。
// 一個 Recorder 同時只能被一個 goroutine 使用；平行模擬時每個 worker 各持一個，最後 Merge。
type Recorder struct {
	TableName string
	Game      string
	Bet       string
	Stake     int64
	InitBets  int64
	Basic     *BasicRecord
	Dist      *DistRecord
	Player    *PlayerRecord
}

// BasicRecord 基本紀錄
type BasicRecord struct {
	Rounds          int
	TotalBet        int64
	TotalReturn     int64
	ReturnMult      float64
	ReturnMultSqSum float64 // 平方和
	Hits            int     // 返還 > 下注
	Pushes          int     // 返還 == 下注
}

// DistRecord 返還倍數落點統計
type DistRecord struct {
	Collect []int
}

// PlayerRecord 玩家資金歷程
type PlayerRecord struct {
	leaveLine   int64
	InitBalance int64
	Balance     int64
	MaxBalance  int64
	MinBalance  int64
	Bust        bool
	Cashout     bool
}

// New 建立紀錄員。initBets 為玩家帶入的注數（0 表示不追蹤玩家資金）。
func New(tableName, game, bet string, stake int64, initBets int64) (*Recorder, error) {
	if stake <= 0 {
		return nil, errs.NewFatal(fmt.Sprintf("stake must > 0, got: %d", stake))
	}
	if initBets < 0 {
		return nil, errs.NewFatal(fmt.Sprintf("init bets must not negative integer, got: %d", initBets))
	}
	r := &Recorder{
		TableName: tableName,
		Game:      game,
		Bet:       bet,
		Stake:     stake,
		InitBets:  initBets,
		Basic:     new(BasicRecord),
		Dist:      &DistRecord{Collect: make([]int, stats.Buckets.Len())},
		Player:    newPlayerRecord(stake, initBets),
	}
	return r, nil
}

// Merge 合併多個平行紀錄員（同桌、同玩法、同下注）。
func Merge(rs []*Recorder) (*Recorder, error) {
	if len(rs) == 0 {
		return nil, errs.NewFatal("merge recorder err : empty")
	}
	r0 := rs[0]
	out, err := New(r0.TableName, r0.Game, r0.Bet, r0.Stake, r0.InitBets)
	if err != nil {
		return nil, err
	}
	for _, v := range rs {
		if v.Game != r0.Game || v.Bet != r0.Bet || v.Stake != r0.Stake {
			return nil, errs.NewFatal("merge recorder err : different game/bet/stake")
		}
		out.Basic.Rounds += v.Basic.Rounds
		out.Basic.TotalBet += v.Basic.TotalBet
		out.Basic.TotalReturn += v.Basic.TotalReturn
		out.Basic.ReturnMult += v.Basic.ReturnMult
		out.Basic.ReturnMultSqSum += v.Basic.ReturnMultSqSum
		out.Basic.Hits += v.Basic.Hits
		out.Basic.Pushes += v.Basic.Pushes
		for i := range v.Dist.Collect {
			out.Dist.Collect[i] += v.Dist.Collect[i]
		}
	}
	return out, nil
}

// Record 紀錄一局：下注 bet、返還 ret（含本金，輸為 0）。
func (r *Recorder) Record(bet, ret int64) {
	b := r.Basic
	b.Rounds++
	b.TotalBet += bet
	b.TotalReturn += ret
	if bet > 0 {
		m := float64(ret) / float64(bet)
		b.ReturnMult += m
		b.ReturnMultSqSum += m * m
	}
	switch {
	case ret > bet:
		b.Hits++
	case ret == bet:
		b.Pushes++
	}
	r.Dist.Collect[stats.Buckets.Index(ret, bet)]++
}

// CanPlay 玩家餘額是否仍足以下注一次
func (r *Recorder) CanPlay() bool {
	return r.Player.Balance >= r.Stake
}

// RecordWithPlayer 在 Record 的基礎上更新玩家餘額，回傳玩家是否離場。
func (r *Recorder) RecordWithPlayer(bet, ret int64) bool {
	if !r.CanPlay() {
		r.Player.Bust = true
		return true
	}
	r.Record(bet, ret)
	p := r.Player
	p.Balance += ret - bet
	p.MaxBalance = max(p.MaxBalance, p.Balance)
	p.MinBalance = min(p.MinBalance, p.Balance)

	leave := false
	if p.Balance < r.Stake {
		p.Bust = true
		leave = true
	}
	if p.Balance >= p.leaveLine {
		p.Cashout = true
		leave = true
	}
	return leave
}

// Done 輸出統計報表（已完成 StatReport.Done）
func (r *Recorder) Done() *stats.StatReport {
	report := &stats.StatReport{
		Summary: &stats.SummaryReport{
			TableName:   r.TableName,
			Game:        r.Game,
			Bet:         r.Bet,
			Stake:       r.Stake,
			TotalBet:    r.Basic.TotalBet,
			TotalReturn: r.Basic.TotalReturn,
			Hits:        r.Basic.Hits,
			Pushes:      r.Basic.Pushes,
			Rounds:      r.Basic.Rounds,
		},
		Mult: &stats.MultReport{
			ReturnMult:      r.Basic.ReturnMult,
			ReturnMultSqSum: r.Basic.ReturnMultSqSum,
		},
		Dist: &stats.DistReport{
			Bucket:  stats.Buckets.Labels(),
			Collect: append([]int(nil), r.Dist.Collect...),
		},
	}
	if r.InitBets > 0 {
		report.Player = &stats.PlayerReport{
			InitBalance: r.Player.InitBalance,
			Balance:     r.Player.Balance,
			MaxBalance:  r.Player.MaxBalance,
			MinBalance:  r.Player.MinBalance,
			Bust:        r.Player.Bust,
			Cashout:     r.Player.Cashout,
		}
	}
	report.Done()
	return report
}

func newPlayerRecord(stake int64, initBets int64) *PlayerRecord {
	b := stake * initBets
	return &PlayerRecord{
		InitBalance: b,
		Balance:     b,
		MaxBalance:  b,
		MinBalance:  b,
		leaveLine:   3 * b, // 離場條件(3倍本金)
	}
}
