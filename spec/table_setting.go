package spec

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tablelab/errs"
)

// TableSetting 包含啟動一張桌台所需的所有規則設定。
//
// 金額欄位以整數單位撰寫（設定檔好讀），取用時一律轉成 decimal.Decimal。
type TableSetting struct {
	TableName string           `yaml:"table_name" json:"table_name"`
	Roulette  RouletteSetting  `yaml:"roulette"   json:"roulette"`
	Blackjack BlackjackSetting `yaml:"blackjack"  json:"blackjack"`
	Account   AccountSetting   `yaml:"account"    json:"account"`
}

// RouletteSetting 輪盤桌規
type RouletteSetting struct {
	MinStake int64 `yaml:"min_stake" json:"min_stake"` // 單注最低下注，0 表示不限制
	MaxBatch int   `yaml:"max_batch" json:"max_batch"` // 一次多注的上限
}

// BlackjackSetting 21 點桌規
type BlackjackSetting struct {
	PayoutUnit     int64 `yaml:"payout_unit"      json:"payout_unit"`      // 每局固定輸贏單位
	DealerStandsOn int   `yaml:"dealer_stands_on" json:"dealer_stands_on"` // 莊家停牌點數
	SimHitBelow    int   `yaml:"sim_hit_below"    json:"sim_hit_below"`    // 模擬器的玩家策略：點數低於此值就要牌
}

// AccountSetting 帳戶設定
type AccountSetting struct {
	InitialBalance int64 `yaml:"initial_balance" json:"initial_balance"`
}

const (
	defaultMaxBatch       = 16
	defaultPayoutUnit     = 1000
	defaultDealerStandsOn = 17
	defaultInitialBalance = 5000
)

// init 補上預設值後檢查
func (ts *TableSetting) init() error {
	ts.TableName = strings.TrimSpace(ts.TableName)
	if ts.Roulette.MaxBatch == 0 {
		ts.Roulette.MaxBatch = defaultMaxBatch
	}
	if ts.Blackjack.PayoutUnit == 0 {
		ts.Blackjack.PayoutUnit = defaultPayoutUnit
	}
	if ts.Blackjack.DealerStandsOn == 0 {
		ts.Blackjack.DealerStandsOn = defaultDealerStandsOn
	}
	if ts.Blackjack.SimHitBelow == 0 {
		ts.Blackjack.SimHitBelow = ts.Blackjack.DealerStandsOn
	}
	if ts.Account.InitialBalance == 0 {
		ts.Account.InitialBalance = defaultInitialBalance
	}
	return ts.valid()
}

// valid 執行最基本的設定檔檢查
func (ts *TableSetting) valid() error {
	if ts.TableName == "" {
		return errs.NewFatal("table_name required")
	}
	if ts.Roulette.MinStake < 0 {
		return errs.NewFatal(fmt.Sprintf("table_name: %s err: negative min_stake", ts.TableName))
	}
	if ts.Roulette.MaxBatch < 1 {
		return errs.NewFatal(fmt.Sprintf("table_name: %s err: max_batch must >= 1", ts.TableName))
	}
	if ts.Blackjack.PayoutUnit < 1 {
		return errs.NewFatal(fmt.Sprintf("table_name: %s err: payout_unit must >= 1", ts.TableName))
	}
	if ts.Blackjack.DealerStandsOn < 2 || ts.Blackjack.DealerStandsOn > 21 {
		return errs.NewFatal(fmt.Sprintf("table_name: %s err: dealer_stands_on out of range", ts.TableName))
	}
	if ts.Blackjack.SimHitBelow < 2 || ts.Blackjack.SimHitBelow > 21 {
		return errs.NewFatal(fmt.Sprintf("table_name: %s err: sim_hit_below out of range", ts.TableName))
	}
	if ts.Account.InitialBalance < 0 {
		return errs.NewFatal(fmt.Sprintf("table_name: %s err: negative initial_balance", ts.TableName))
	}
	return nil
}

func (ts *TableSetting) MinStake() decimal.Decimal {
	return decimal.NewFromInt(ts.Roulette.MinStake)
}

func (ts *TableSetting) PayoutUnit() decimal.Decimal {
	return decimal.NewFromInt(ts.Blackjack.PayoutUnit)
}

func (ts *TableSetting) InitialBalance() decimal.Decimal {
	return decimal.NewFromInt(ts.Account.InitialBalance)
}
