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

package core

import (
	"slices"
	"testing"
)

func TestCoreDeterminism(t *testing.T) {
	c1 := New(Default().New(7))
	c2 := New(Default().New(7))
	for i := 0; i < 5; i++ {
		if c1.Uint64() != c2.Uint64() {
			t.Fatalf("Uint64 mismatch at %d", i)
		}
	}
	if c1.Pocket() != c2.Pocket() {
		t.Fatalf("Pocket mismatch")
	}
}

func TestPocketRange(t *testing.T) {
	c := New(Default().New(3))
	seen := make([]bool, Pockets)
	for i := 0; i < 20000; i++ {
		p := c.Pocket()
		if p < 0 || p >= Pockets {
			t.Fatalf("pocket out of range: %d", p)
		}
		seen[p] = true
	}
	for n, ok := range seen {
		if !ok {
			t.Fatalf("pocket %d never drawn in 20000 spins", n)
		}
	}
}

func TestShuffleKeepsElements(t *testing.T) {
	c := New(Default().New(9))
	src := []int{1, 2, 3, 4, 5, 6, 7, 8}
	c.ShuffleInts(src)
	got := slices.Clone(src)
	slices.Sort(got)
	if !slices.Equal(got, []int{1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Fatalf("shuffle changed elements: %v", src)
	}
}

func TestSnapshotRestoreReplays(t *testing.T) {
	c := New(Default().New(11))
	snap, err := c.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	first := []int{c.Pocket(), c.Pocket(), c.Pocket()}
	if err := c.Restore(snap); err != nil {
		t.Fatalf("restore: %v", err)
	}
	again := []int{c.Pocket(), c.Pocket(), c.Pocket()}
	if !slices.Equal(first, again) {
		t.Fatalf("restore did not replay: %v vs %v", first, again)
	}
}

func TestNewSeedNonNegative(t *testing.T) {
	for i := 0; i < 16; i++ {
		s, err := NewSeed()
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		if s < 0 {
			t.Fatalf("negative seed %d", s)
		}
	}
}

func TestScriptedCycles(t *testing.T) {
	s := NewScripted(3, 12)
	got := []int{s.Pocket(), s.Pocket(), s.Pocket()}
	if !slices.Equal(got, []int{3, 12, 3}) || s.Draws != 3 {
		t.Fatalf("unexpected scripted draws %v (%d)", got, s.Draws)
	}
	if NewScripted().Pocket() != 0 {
		t.Fatalf("empty script should draw 0")
	}
}
