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

package tablelab

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/tablelab/errs"
	"github.com/zintix-labs/tablelab/recorder"
	"github.com/zintix-labs/tablelab/sdk/core"
	"github.com/zintix-labs/tablelab/sdk/roulette"
	"github.com/zintix-labs/tablelab/spec"
	"github.com/zintix-labs/tablelab/stats"
)

const capPrepare int = 100

// Game 模擬的玩法
type Game string

const (
	GameRoulette  Game = "roulette"
	GameBlackjack Game = "blackjack"
)

// ParseGame 只接受 roulette / blackjack
func ParseGame(s string) (Game, error) {
	switch g := Game(s); g {
	case GameRoulette, GameBlackjack:
		return g, nil
	}
	return "", errs.Warnf("unknown game %q", s)
}

// Play 模擬時每一局的固定下法。
//
//   - 輪盤：每局以 Stake 押同一個 Bet。
//   - 21 點：每局下注 Stake，玩家點數低於桌規 sim_hit_below 就要牌，否則停牌。
type Play struct {
	Game  Game
	Bet   roulette.Bet
	Stake int64
}

func (p Play) valid() error {
	if p.Stake <= 0 {
		return errs.NewWarn("stake must > 0")
	}
	switch p.Game {
	case GameRoulette:
		if !roulette.IsValid(p.Bet) {
			return errs.InvalidBet("bet=%s", p.Bet)
		}
	case GameBlackjack:
	default:
		return errs.Warnf("unknown game %q", p.Game)
	}
	return nil
}

func (p Play) label(ts *spec.TableSetting) string {
	if p.Game == GameBlackjack {
		return fmt.Sprintf("hit<%d", ts.Blackjack.SimHitBelow)
	}
	return p.Bet.String()
}

// Simulator 用於模擬桌台，可建立多張桌台並平行紀錄統計。
type Simulator struct {
	TableName string
	ts        *spec.TableSetting
	cf        core.PRNGFactory
	initSeed  int64
	seedmaker *seedMaker
	tBuf      []*Table             // 併發執行桌台
	rBuf      []*recorder.Recorder // 併發紀錄員
	sBuf      []*stats.StatReport  // 玩家報表(僅 SimPlayers 需要)
}

func newSimulatorWithSeed(ts *spec.TableSetting, cf core.PRNGFactory, seed int64) *Simulator {
	s := &Simulator{
		TableName: ts.TableName,
		ts:        ts,
		cf:        cf,
		initSeed:  seed,
		seedmaker: newSeedMaker(seed),
		tBuf:      make([]*Table, 1, capPrepare),
		rBuf:      make([]*recorder.Recorder, 0, capPrepare),
		sBuf:      make([]*stats.StatReport, 0, capPrepare),
	}
	s.tBuf[0] = newTableWithSeed(ts, cf, seed)
	return s
}

// SimRoulette 以 workers 張桌台平行，每張跑 rounds 局固定押 bet。
func (s *Simulator) SimRoulette(bet roulette.Bet, stake int64, rounds int, workers int, showpb bool) (*stats.StatReport, time.Duration, error) {
	return s.SimMP(Play{Game: GameRoulette, Bet: bet, Stake: stake}, rounds, workers, showpb)
}

// SimBlackjack 以 workers 張桌台平行，每張跑 rounds 局 21 點。
func (s *Simulator) SimBlackjack(stake int64, rounds int, workers int, showpb bool) (*stats.StatReport, time.Duration, error) {
	return s.SimMP(Play{Game: GameBlackjack, Stake: stake}, rounds, workers, showpb)
}

// Sim 單線模擬器：以一張桌台連續跑指定 rounds 並回傳統計結果與用時
func (s *Simulator) Sim(p Play, rounds int, showpb bool) (*stats.StatReport, time.Duration, error) {
	return s.SimMP(p, rounds, 1, showpb)
}

// SimMP 平行執行多張桌台，總計 rounds*mp 局，合併統計結果後回傳統計結果與用時
func (s *Simulator) SimMP(p Play, rounds int, mp int, showpb bool) (*stats.StatReport, time.Duration, error) {
	defer s.reset()
	if mp <= 0 {
		return nil, 0, errs.NewWarn("workers must > 0")
	}
	if rounds < 1 {
		return nil, 0, errs.NewWarn("round must > 0")
	}
	if err := p.valid(); err != nil {
		return nil, 0, err
	}
	s.prepareTables(mp)
	for len(s.rBuf) < mp {
		r, err := recorder.New(s.TableName, string(p.Game), p.label(s.ts), p.Stake, 0)
		if err != nil {
			return nil, 0, err
		}
		s.rBuf = append(s.rBuf, r)
	}

	fe := new(firstErr)
	wg := new(sync.WaitGroup)
	wg.Add(mp)
	bar := pb.StartNew(rounds * mp)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for i := 0; i < mp; i++ {
		go func(i int) {
			defer wg.Done()
			t := s.tBuf[i]
			rec := s.rBuf[i]
			for r := 0; r < rounds; r++ {
				ret, err := t.playInternal(p)
				if err != nil {
					fe.set(err)
					return
				}
				rec.Record(p.Stake, ret)
				bar.Increment()
			}
		}(i)
	}
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()
	if fe.err != nil {
		return nil, used, fe.err
	}

	merged, err := recorder.Merge(s.rBuf[:mp])
	if err != nil {
		return nil, used, err
	}
	return merged.Done(), used, nil
}

// SimPlayers 模擬多個玩家各自帶入 initBets 注的資金，直到破產、贏到離場線或打滿 rounds 局，
// 產出桌台報表與玩家報表。
func (s *Simulator) SimPlayers(p Play, mp int, players int, initBets int, rounds int, showpb bool) (*stats.StatReport, *stats.EstimatorPlayers, time.Duration, error) {
	defer s.reset()
	if players < 1 || initBets < 1 || rounds < 1 || mp < 1 {
		return nil, nil, 0, errs.NewWarn("invalid param")
	}
	if err := p.valid(); err != nil {
		return nil, nil, 0, err
	}
	s.prepareTables(mp)

	s.sBuf = make([]*stats.StatReport, players)
	for len(s.rBuf) < players {
		r, err := recorder.New(s.TableName, string(p.Game), p.label(s.ts), p.Stake, int64(initBets))
		if err != nil {
			return nil, nil, 0, err
		}
		s.rBuf = append(s.rBuf, r)
	}
	jobs := make(chan *recorder.Recorder, 2048)

	fe := new(firstErr)
	wg := new(sync.WaitGroup)
	wg.Add(mp)
	bar := pb.StartNew(players)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for w := 0; w < mp; w++ {
		go simPlayer(wg, s.tBuf[w], jobs, p, rounds, bar, fe)
	}
	for _, j := range s.rBuf {
		jobs <- j
	}
	close(jobs)
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()
	if fe.err != nil {
		return nil, nil, used, fe.err
	}

	record, err := recorder.Merge(s.rBuf)
	if err != nil {
		return nil, nil, 0, err
	}
	st := record.Done()
	for i, r := range s.rBuf {
		s.sBuf[i] = r.Done()
	}
	est := stats.EstimatorPlayerExp(s.sBuf)
	return st, est, used, nil
}

func simPlayer(wg *sync.WaitGroup, t *Table, jobs chan *recorder.Recorder, p Play, rounds int, bar *pb.ProgressBar, fe *firstErr) {
	defer wg.Done()
	for j := range jobs {
		for range rounds {
			if !j.CanPlay() {
				j.Player.Bust = true
				break
			}
			ret, err := t.playInternal(p)
			if err != nil {
				fe.set(err)
				break
			}
			if j.RecordWithPlayer(p.Stake, ret) {
				break
			}
		}
		bar.Increment()
	}
}

// firstErr 只保留第一個 worker 錯誤；讀取 err 必須在 wg.Wait 之後。
type firstErr struct {
	once sync.Once
	err  error
}

func (f *firstErr) set(err error) {
	f.once.Do(func() { f.err = err })
}

func (s *Simulator) prepareTables(mp int) {
	for len(s.tBuf) < mp {
		s.tBuf = append(s.tBuf, newTableWithSeed(s.ts, s.cf, s.seedmaker.next()))
	}
}

func (s *Simulator) reset() {
	s.rBuf = s.rBuf[:0]
	s.sBuf = s.sBuf[:0]
}

const mask63 = uint64(1<<63) - 1

// seedMaker 派生平行桌台的 seed。
//
// state 走 mod 2^63 的全週期 LCG（不重複），輸出再經可逆的 mix63 打散。
// next 可能被多個 goroutine 同時呼叫（TablePool 補桌），以 CAS 推進。
type seedMaker struct {
	state atomic.Uint64 // always in [0, 2^63)
}

func newSeedMaker(seed int64) *seedMaker {
	s := &seedMaker{}
	s.state.Store(uint64(seed) & mask63)
	return s
}

func (s *seedMaker) next() int64 {
	for {
		old := s.state.Load()
		next := (old*6364136223846793005 + 1442695040888963407) & mask63
		if s.state.CompareAndSwap(old, next) {
			return int64(mix63(next))
		}
	}
}

// mix63：只用可逆的 bit 操作 + 乘奇數（mod 2^63）
func mix63(x uint64) uint64 {
	x &= mask63
	x ^= x >> 30
	x = (x * 0xBF58476D1CE4E5B9) & mask63
	x ^= x >> 27
	x = (x * 0x94D049BB133111EB) & mask63
	x ^= x >> 31
	return x & mask63
}
