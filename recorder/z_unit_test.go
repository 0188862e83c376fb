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
	"math"
	"testing"
)

func TestRecordAndMerge(t *testing.T) {
	a, err := New("t", "roulette", "red", 10, 0)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	b, _ := New("t", "roulette", "red", 10, 0)
	a.Record(10, 20) // win
	a.Record(10, 0)  // lose
	b.Record(10, 10) // push
	b.Record(10, 0)

	m, err := Merge([]*Recorder{a, b})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	rep := m.Done()
	if rep.Summary.Rounds != 4 || rep.Summary.TotalBet != 40 || rep.Summary.TotalReturn != 30 {
		t.Fatalf("unexpected summary %+v", rep.Summary)
	}
	if rep.Summary.Hits != 1 || rep.Summary.Pushes != 1 {
		t.Fatalf("hits/pushes: %+v", rep.Summary)
	}
	if math.Abs(rep.Summary.RTP-0.75) > 1e-12 {
		t.Fatalf("rtp=%v", rep.Summary.RTP)
	}
	if rep.Dist.Collect[0] != 2 || rep.Dist.Collect[2] != 1 || rep.Dist.Collect[4] != 1 {
		t.Fatalf("dist=%v", rep.Dist.Collect)
	}
	if rep.Player != nil {
		t.Fatalf("player report only with init bets")
	}

	c, _ := New("t", "roulette", "black", 10, 0)
	if _, err := Merge([]*Recorder{a, c}); err == nil {
		t.Fatalf("merge of different bets must fail")
	}
	if _, err := New("t", "roulette", "red", 0, 0); err == nil {
		t.Fatalf("zero stake must fail")
	}
}

func TestRecordWithPlayerBustAndCashout(t *testing.T) {
	r, _ := New("t", "roulette", "red", 10, 2) // 20 in, leave at 60
	if r.RecordWithPlayer(10, 0) {
		t.Fatalf("10 left, can still play")
	}
	if !r.RecordWithPlayer(10, 0) || !r.Player.Bust {
		t.Fatalf("balance 0 must bust")
	}
	if !r.RecordWithPlayer(10, 20) {
		t.Fatalf("bust player cannot play")
	}
	if r.Basic.Rounds != 2 {
		t.Fatalf("rounds after bust must not grow, got %d", r.Basic.Rounds)
	}

	w, _ := New("t", "roulette", "0", 10, 2)
	if !w.RecordWithPlayer(10, 360) || !w.Player.Cashout {
		t.Fatalf("balance 370 over leave line must cash out")
	}
	rep := w.Done()
	if rep.Player == nil || rep.Player.Alive || rep.Player.MaxBalance != 370 {
		t.Fatalf("player report %+v", rep.Player)
	}
}
