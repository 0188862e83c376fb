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

// Register POST /v1/accounts
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	req := new(dto.RegisterRequest)
	if err := dto.DecodeJSON(r, req); err != nil {
		httperr.Errs(w, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()

	a, err := h.house.Register(ctx, req.Email, req.Name)
	if err != nil {
		h.fail(w, "register failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.NewAccountView(a))
}

// Account GET /v1/accounts/{id}
func (h *Handler) Account(w http.ResponseWriter, r *http.Request) {
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
	writeJSON(w, http.StatusOK, dto.NewAccountView(a))
}

// Ledger GET /v1/accounts/{id}/ledger?limit=
func (h *Handler) Ledger(w http.ResponseWriter, r *http.Request) {
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

	rs, err := h.house.Ledger(ctx, id, limit)
	if err != nil {
		h.fail(w, "list ledger failed", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewLedgerViews(rs))
}
