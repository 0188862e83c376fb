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


package v1

import (
	"net/http"

	"github.com/zintix-labs/tablelab/dto"
	"github.com/zintix-labs/tablelab/house"
	"github.com/zintix-labs/tablelab/server/httperr"
	"github.com/zintix-labs/tablelab/server/netsvr"
)

// StartBlackjack POST /v1/accounts/{id}/blackjack/start
func (h *Handler) StartBlackjack(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()

	res, err := h.house.StartBlackjack(ctx, id)
	if err != nil {
		h.fail(w, "start blackjack failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.NewRoundView(res))
}

// Act POST /v1/accounts/{id}/blackjack/{action}，action 為 hit 或 stand。
func (h *Handler) Act(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	req := dto.ActionRequest{Action: netsvr.URLParam(r, "action")}
	if err := dto.Validate(req); err != nil {
		httperr.Errs(w, err)
		return
	}
	a, err := req.Parse()
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()

	res, err := h.house.Act(ctx, id, a)
	if err != nil {
		h.fail(w, "blackjack action failed", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewRoundView(res))
}

// CurrentRound GET /v1/accounts/{id}/blackjack
func (h *Handler) CurrentRound(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()

	a, err := h.house.Account(ctx, id)
	if err != nil {
		h.fail(w, "get account failed", err)
		return
	}
	rec, err := h.house.CurrentRound(ctx, id)
	if err != nil {
		h.fail(w, "get round failed", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewRoundView(house.RoundResult{
		Round:   rec.Round,
		Status:  rec.Round.Status(),
		Balance: a.Balance,
	}))
}
