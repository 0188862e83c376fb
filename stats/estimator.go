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

package stats

import (
	"fmt"
	"io"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// ============================================================
// ** 結構宣告 **
// ============================================================

// EstimatorPlayers 玩家資金歷程評估
//
// 每位玩家帶著相同的初始資金上桌，直到破產、贏到離場線或打滿局數。
type EstimatorPlayers struct {
	Players     int         `json:"Players"     yaml:"Players"`
	RtpStat     RtpStat     `json:"RtpStat"     yaml:"RtpStat"`
	SessionStat SessionStat `json:"SessionStat" yaml:"SessionStat"`
}

// Rtp 敘事：玩家各自體驗到的 RTP 分位數
type RtpStat struct {
	Median PointStat `json:"Median" yaml:"Median"`
	P10    PointStat `json:"P10"    yaml:"P10"`
	P90    PointStat `json:"P90"    yaml:"P90"`
	Below1 PointStat `json:"Below1" yaml:"Below1"` // RTP < 100% 的玩家比例
}

// PointStat 點估計 回傳 估計值 以及信賴區間
type PointStat struct {
	Hat float64 `json:"Hat" yaml:"Hat"`
	CI  CI      `json:"CI"  yaml:"CI"`
}

// 對應結果敘事
type SessionStat struct {
	Bust    PointStat `json:"Bust"    yaml:"Bust"`    // 破產
	Cashout PointStat `json:"Cashout" yaml:"Cashout"` // 贏滿離場
	Alive   PointStat `json:"Alive"   yaml:"Alive"`   // 活到最後
	Rounds  PointStat `json:"Rounds"  yaml:"Rounds"`  // 每位玩家實際局數（中位數）
}

// ============================================================
// ** 對外 : 玩家資金歷程評估 **
// ============================================================

// EstimatorPlayerExp 由每位玩家的報表彙整出 RTP 分位數與離場結果比例（Clopper-Pearson 95% CI）。
func EstimatorPlayerExp(sts []*StatReport) *EstimatorPlayers {
	n := len(sts)
	out := &EstimatorPlayers{Players: n}
	if n == 0 {
		return out
	}

	rtp := make([]float64, n)
	rounds := make([]float64, n)
	var bustK, cashK, aliveK int
	for i, s := range sts {
		s.Done()
		rtp[i] = s.Rtp()
		rounds[i] = float64(s.Summary.Rounds)
		if s.Player == nil {
			continue
		}
		if s.Player.Bust {
			bustK++
		}
		if s.Player.Cashout {
			cashK++
		}
		if s.Player.Alive {
			aliveK++
		}
	}

	out.RtpStat.Median = quantileStat(rtp, 0.5)
	out.RtpStat.P10 = quantileStat(rtp, 0.10)
	out.RtpStat.P90 = quantileStat(rtp, 0.90)
	below := 0
	for _, v := range rtp {
		if v < 1 {
			below++
		}
	}
	out.RtpStat.Below1.Hat, out.RtpStat.Below1.CI = proportionCICP(below, n, 0.95)

	out.SessionStat.Bust.Hat, out.SessionStat.Bust.CI = proportionCICP(bustK, n, 0.95)
	out.SessionStat.Cashout.Hat, out.SessionStat.Cashout.CI = proportionCICP(cashK, n, 0.95)
	out.SessionStat.Alive.Hat, out.SessionStat.Alive.CI = proportionCICP(aliveK, n, 0.95)
	out.SessionStat.Rounds = quantileStat(rounds, 0.5)
	return out
}

// ============================================================
// ** 內部統計函數 **
// ============================================================

// zScore 雙尾常態分位數，例如 confidence=0.95 -> 1.96
func zScore(confidence float64) float64 {
	return distuv.UnitNormal.Quantile(1 - (1-confidence)/2)
}

// Clopper–Pearson exact CI for binomial proportion (k successes out of n)
func proportionCICP(k int, n int, confidence float64) (pHat float64, ci CI) {
	if n == 0 {
		return 0, CI{0, 1}
	}
	alpha := 1 - confidence
	pHat = float64(k) / float64(n)

	if k == 0 {
		ci.Lo = 0
	} else {
		b := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
		ci.Lo = b.Quantile(alpha / 2)
	}
	if k == n {
		ci.Hi = 1
	} else {
		b := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
		ci.Hi = b.Quantile(1 - alpha/2)
	}
	return
}

func quantileStat(data []float64, q float64) PointStat {
	lo, hi := quantileCI(data, q, 0.95)
	return PointStat{Hat: quantilePoint(data, q), CI: CI{Lo: lo, Hi: hi}}
}

// 想估「第 q 分位」的上下界。做法：把 order statistic 的秩視為二項→Beta 反推 p 範圍，再把 p 轉回樣本索引。
func quantileCI(data []float64, q, confidence float64) (float64, float64) {
	n := len(data)
	if n == 0 {
		return 0, 0
	}
	if n == 1 {
		return data[0], data[0]
	}
	cp := make([]float64, n)
	copy(cp, data)
	sort.Float64s(cp)

	alpha := 1 - confidence
	k := int(q * float64(n))
	if k < 1 {
		k = 1
	} else if k > n-1 {
		k = n - 1
	}

	bLo := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
	bHi := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
	li := int(bLo.Quantile(alpha/2) * float64(n))
	ui := int(bHi.Quantile(1-alpha/2)*float64(n)) - 1
	li = min(max(li, 0), n-1)
	ui = min(max(ui, 0), n-1)
	return cp[li], cp[ui]
}

// quantilePoint returns the empirical quantile point estimate at q.
func quantilePoint(data []float64, q float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}
	cp := make([]float64, n)
	copy(cp, data)
	sort.Float64s(cp)
	// 最近秩法
	idx := min(max(int(q*float64(n)), 0), n-1)
	return cp[idx]
}

// ============================================================
// ** 輸出函數 **
// ============================================================

func (est *EstimatorPlayers) Out(w io.Writer) {
	fmt.Fprintf(w, "=== Players: %d ===\n", est.Players)
	printTable(w, "RTP (Player Experience)", []string{"Median RTP", "P10 RTP", "P90 RTP", "RTP<100% (players)"}, map[string]string{
		"Median RTP":         fmtHatCIpct01(est.RtpStat.Median.Hat, est.RtpStat.Median.CI),
		"P10 RTP":            fmtHatCIpct01(est.RtpStat.P10.Hat, est.RtpStat.P10.CI),
		"P90 RTP":            fmtHatCIpct01(est.RtpStat.P90.Hat, est.RtpStat.P90.CI),
		"RTP<100% (players)": fmtHatCIpct01(est.RtpStat.Below1.Hat, est.RtpStat.Below1.CI),
	})
	fmt.Fprintln(w)
	printTable(w, "Session Outcome", []string{"Bust", "Cashout", "Alive", "Median Rounds"}, map[string]string{
		"Bust":          fmtHatCIpct01(est.SessionStat.Bust.Hat, est.SessionStat.Bust.CI),
		"Cashout":       fmtHatCIpct01(est.SessionStat.Cashout.Hat, est.SessionStat.Cashout.CI),
		"Alive":         fmtHatCIpct01(est.SessionStat.Alive.Hat, est.SessionStat.Alive.CI),
		"Median Rounds": fmt.Sprintf("%.0f [%.0f, %.0f]", est.SessionStat.Rounds.Hat, est.SessionStat.Rounds.CI.Lo, est.SessionStat.Rounds.CI.Hi),
	})
}

func printTable(w io.Writer, title string, keys []string, msg map[string]string) {
	fmt.Fprintln(w, title)
	maxKeyLen := 0
	for _, k := range keys {
		if len(k) > maxKeyLen {
			maxKeyLen = len(k)
		}
	}
	for _, k := range keys {
		fmt.Fprintf(w, "  %-*s : %s\n", maxKeyLen, k, msg[k])
	}
}

func fmtPct01(x float64) string {
	return fmt.Sprintf("%.2f%%", x*100)
}

func fmtHatCIpct01(hat float64, ci CI) string {
	return fmt.Sprintf("%s [%s, %s]", fmtPct01(hat), fmtPct01(ci.Lo), fmtPct01(ci.Hi))
}
