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
	"encoding/json"
	"net/http"

	"github.com/zintix-labs/tablelab"
	"github.com/zintix-labs/tablelab/dto"
	"github.com/zintix-labs/tablelab/errs"
	"github.com/zintix-labs/tablelab/sdk/core"
	"github.com/zintix-labs/tablelab/sdk/roulette"
	"github.com/zintix-labs/tablelab/server/httperr"
	"github.com/zintix-labs/tablelab/server/netsvr"
	"github.com/zintix-labs/tablelab/spec"
	"github.com/zintix-labs/tablelab/stats"
)

// 桌規 JSON 上限（5MB）
const maxCfgBody = 5 << 20

// SimResponse 模擬結果
type SimResponse struct {
	Seed     int64             `json:"seed"`
	Stats    *stats.StatReport `json:"stats"`
	UsedTime int64             `json:"used_ms"`
}

// SimPlayersResponse 多玩家模擬結果
type SimPlayersResponse struct {
	Seed      int64                   `json:"seed"`
	Stats     *stats.StatReport       `json:"stats"`
	Estimator *stats.EstimatorPlayers `json:"est"`
	UsedTime  int64                   `json:"used_ms"`
}

// SimRoulette GET|POST /v1/sim/roulette
func (h *Handler) SimRoulette(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSim(r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	p, err := playOf(tablelab.GameRoulette, req)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	h.runSim(w, h.lab, p, req)
}

// SimBlackjack GET|POST /v1/sim/blackjack
func (h *Handler) SimBlackjack(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSim(r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	p, err := playOf(tablelab.GameBlackjack, req)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	h.runSim(w, h.lab, p, req)
}

// SimPlayers POST /v1/sim/players/{game}
func (h *Handler) SimPlayers(w http.ResponseWriter, r *http.Request) {
	g, err := tablelab.ParseGame(netsvr.URLParam(r, "game"))
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	req := new(dto.SimPlayersRequest)
	if err := dto.DecodeJSON(r, req); err != nil {
		httperr.Errs(w, err)
		return
	}
	p, err := playOf(g, &req.SimRequest)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	seed, err := seedOf(req.Seed)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	sim := h.lab.NewSimulatorWithSeed(seed)
	st, est, used, err := sim.SimPlayers(p, workersOf(req.Workers), req.Player, req.Bets, req.Round, false)
	if err != nil {
		h.fail(w, "sim players failed", errs.Wrap(err, "simulate err"))
		return
	}
	writeJSON(w, http.StatusOK, SimPlayersResponse{
		Seed:      seed,
		Stats:     st,
		Estimator: est,
		UsedTime:  used.Milliseconds(),
	})
}

// SimByCfg POST /v1/sim/bycfg：以請求帶入的桌規跑模擬，不影響線上桌台。
func (h *Handler) SimByCfg(w http.ResponseWriter, r *http.Request) {
	type simByCfgRequest struct {
		Game string          `json:"game"`
		Cfg  json.RawMessage `json:"cfg"`
		dto.SimRequest
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxCfgBody)
	req := new(simByCfgRequest)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		if e, ok := errs.AsErr(err); ok {
			httperr.Errs(w, e)
			return
		}
		httperr.Errs(w, errs.WrapWarn(err, "json decode failed"))
		return
	}
	if err := dto.Validate(&req.SimRequest); err != nil {
		httperr.Errs(w, err)
		return
	}
	if len(req.Cfg) == 0 {
		httperr.Errs(w, errs.NewWarn("cfg is required"))
		return
	}
	g, err := tablelab.ParseGame(req.Game)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	p, err := playOf(g, &req.SimRequest)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	ts, err := spec.GetTableSettingByJSON(req.Cfg)
	if err != nil {
		httperr.Errs(w, errs.WrapWarn(err, "invalid table setting"))
		return
	}
	lab, err := tablelab.New(core.Default(), ts)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	h.runSim(w, lab, p, &req.SimRequest)
}

// Table GET /v1/table：桌規與桌台池觀測值
func (h *Handler) Table(w http.ResponseWriter, _ *http.Request) {
	type tableResponse struct {
		Setting spec.TableSetting         `json:"setting"`
		Metrics tablelab.TablePoolMetrics `json:"metrics"`
	}
	rt := h.house.Runtime()
	writeJSON(w, http.StatusOK, tableResponse{Setting: rt.Setting(), Metrics: rt.Metrics()})
}

func (h *Handler) runSim(w http.ResponseWriter, lab *tablelab.Lab, p tablelab.Play, req *dto.SimRequest) {
	seed, err := seedOf(req.Seed)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	sim := lab.NewSimulatorWithSeed(seed)
	st, used, err := sim.SimMP(p, req.Round, workersOf(req.Workers), false)
	if err != nil {
		// 尊重模擬器的錯誤分級
		h.fail(w, "simulate failed", errs.Wrap(err, "simulate err"))
		return
	}
	writeJSON(w, http.StatusOK, SimResponse{Seed: seed, Stats: st, UsedTime: used.Milliseconds()})
}

func decodeSim(r *http.Request) (*dto.SimRequest, error) {
	switch r.Method {
	case http.MethodGet:
		return dto.DecodeSimQuery(r.URL.Query())
	case http.MethodPost:
		req := new(dto.SimRequest)
		if err := dto.DecodeJSON(r, req); err != nil {
			return nil, err
		}
		return req, nil
	}
	return nil, errs.NewWarn("method not allowed")
}

func playOf(g tablelab.Game, req *dto.SimRequest) (tablelab.Play, error) {
	p := tablelab.Play{Game: g, Stake: req.Stake}
	if g == tablelab.GameRoulette {
		if req.Bet == nil {
			return tablelab.Play{}, errs.InvalidBet("bet is required")
		}
		if !roulette.IsValid(*req.Bet) {
			return tablelab.Play{}, errs.InvalidBet("bet=%s", req.Bet)
		}
		p.Bet = *req.Bet
	}
	return p, nil
}

func seedOf(s *int64) (int64, error) {
	if s != nil {
		return *s, nil
	}
	seed, err := core.NewSeed()
	if err != nil {
		return 0, errs.Wrap(err, "seed generate failed")
	}
	return seed, nil
}

func workersOf(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
