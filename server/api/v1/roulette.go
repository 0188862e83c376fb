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
	"github.com/zintix-labs/tablelab/server/httperr"
)

// Spin POST /v1/accounts/{id}/roulette/spin
func (h *Handler) Spin(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	req := new(dto.WagerRequest)
	if err := dto.DecodeJSON(r, req); err != nil {
		httperr.Errs(w, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()

	res, err := h.house.Spin(ctx, id, req.Wager())
	if err != nil {
		h.fail(w, "spin failed", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSpinResponse(res))
}

// SpinMulti POST /v1/accounts/{id}/roulette/spin_multi
//
// 整批共用一次開獎；任一注不合法或總注額超過餘額時整批拒絕。
func (h *Handler) SpinMulti(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	req := new(dto.MultiSpinRequest)
	if err := dto.DecodeJSON(r, req); err != nil {
		httperr.Errs(w, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()

	res, err := h.house.SpinMulti(ctx, id, req.Wagers())
	if err != nil {
		h.fail(w, "spin multi failed", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewMultiSpinResponse(res))
}

// History GET /v1/accounts/{id}/roulette/history?limit=
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	limit, err := dto.ParseLimit(r.URL.Query())
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()

	rs, err := h.house.History(ctx, id, limit)
	if err != nil {
		h.fail(w, "list history failed", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSpinViews(rs))
}

// Verify GET /v1/roulette/spins/{spin}/verify
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "spin")
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()

	v, err := h.house.VerifySpin(ctx, id)
	if err != nil {
		h.fail(w, "verify spin failed", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewVerifyResponse(v))
}
