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

package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestApplyAllCompoundsInOrder(t *testing.T) {
	start := decimal.NewFromInt(100)
	final, ps := ApplyAll(start,
		Entry{Source: SourceRoulette, Delta: decimal.NewFromInt(20)},
		Entry{Source: SourceRoulette, Delta: decimal.NewFromInt(-30)},
		Entry{Source: SourceRoulette, Delta: decimal.NewFromInt(60)},
	)
	if !final.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("final=%s", final)
	}
	wantBefore := []int64{100, 120, 90}
	for i, p := range ps {
		if !p.Before.Equal(decimal.NewFromInt(wantBefore[i])) {
			t.Fatalf("posting %d before=%s", i, p.Before)
		}
		if !p.After.Equal(p.Before.Add(p.Delta)) {
			t.Fatalf("posting %d inconsistent", i)
		}
	}
	if !Net(ps[0].Entry, ps[1].Entry, ps[2].Entry).Equal(final.Sub(start)) {
		t.Fatalf("net mismatch")
	}
}

func TestApplyAllowsNegative(t *testing.T) {
	p := Apply(decimal.NewFromInt(500), Entry{Source: SourceBlackjack, Delta: decimal.NewFromInt(-1000)})
	if !p.After.Equal(decimal.NewFromInt(-500)) {
		t.Fatalf("after=%s", p.After)
	}
	final, ps := ApplyAll(decimal.NewFromInt(7))
	if !final.Equal(decimal.NewFromInt(7)) || len(ps) != 0 {
		t.Fatalf("empty apply must be identity")
	}
}
