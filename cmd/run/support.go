package main

import (
	"flag"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/zintix-labs/tablelab"
	"github.com/zintix-labs/tablelab/configs"
	"github.com/zintix-labs/tablelab/errs"
	"github.com/zintix-labs/tablelab/sdk/core"
	"github.com/zintix-labs/tablelab/sdk/roulette"
	"github.com/zintix-labs/tablelab/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var cfg *config = new(config)

type config struct {
	game      string
	bet       string
	stake     int64
	config    string
	worker    int
	player    int
	bets      int
	rounds    int
	seed      int64
	output    string
	pprofmode string
}

func bindVar() {
	// 綁定 Flag 到本地變數的指標 (&)
	flag.StringVar(&cfg.game, "game", "roulette", "roulette | blackjack")
	flag.StringVar(&cfg.bet, "bet", "red", "roulette bet: 0..36, red, black, even, odd, 1to12, 13to24, 25to36, 2to1")
	flag.Int64Var(&cfg.stake, "stake", 1, "stake per round")
	flag.StringVar(&cfg.config, "config", "", "table setting file (default: embedded default.yaml)")
	flag.IntVar(&cfg.worker, "worker", 1, "number of workers")
	flag.IntVar(&cfg.player, "player", 1, "number of players")
	flag.IntVar(&cfg.bets, "bets", 200, "initial bets")
	flag.IntVar(&cfg.rounds, "rounds", 1000000, "rounds per worker (per player when -player > 1)")
	flag.Int64Var(&cfg.seed, "seed", -1, "int64 seed for random number generator")
	flag.StringVar(&cfg.output, "o", "table", "output: table | json | yaml")
	flag.StringVar(&cfg.pprofmode, "p", "", "pprof: '', cpu, heap, allocs, mutex, block")

	flag.Parse()

	// given seed illeagel -> default seed
	if cfg.seed < 1 {
		seed, err := core.NewSeed()
		if err != nil {
			log.Fatal(err)
		}
		cfg.seed = seed
	}
}

// 這裡解析並分支要執行的模擬器
func executeSimulator() error {
	play, err := cfg.valid() // 基本檢查
	if err != nil {
		return err
	}
	lab, err := loadLab(cfg.config)
	if err != nil {
		return err
	}
	s := lab.NewSimulatorWithSeed(cfg.seed)
	label := string(play.Game)
	if play.Game == tablelab.GameRoulette {
		label += ":" + play.Bet.String()
	}
	// 至此確保可執行
	green := "\033[1;32m"
	reset := "\033[0m"
	p := message.NewPrinter(language.English)
	out := os.Stdout

	if cfg.player == 1 { // 純桌台模擬
		p.Fprintf(os.Stderr, "%s[WORKERS:%d] [TABLE:%s] [PLAY:%s] [STAKE:%d] [ROUNDS:%d] [SEED:%d]%s\n",
			green, cfg.worker, s.TableName, label, cfg.stake, cfg.worker*cfg.rounds, cfg.seed, reset)
		st, used, err := s.SimMP(play, cfg.rounds, cfg.worker, true) // 併發
		if err != nil {
			return err
		}
		return render(out, st, nil, func() { st.StdOut(out, used) })
	}
	// 模擬多玩家體驗
	p.Fprintf(os.Stderr, "%s[WORKERS:%d] [TABLE:%s] [PLAYERS:%d BALANCE:%d PLAY:%s ROUNDS:%d] [SEED:%d]%s\n",
		green, cfg.worker, s.TableName, cfg.player, cfg.bets, label, cfg.rounds, cfg.seed, reset)
	st, est, used, err := s.SimPlayers(play, cfg.worker, cfg.player, cfg.bets, cfg.rounds, true)
	if err != nil {
		return err
	}
	return render(out, st, est, func() {
		st.StdOut(out, used)
		est.Out(out)
	})
}

func render(w io.Writer, st *stats.StatReport, est *stats.EstimatorPlayers, table func()) error {
	f, err := stats.ParseFormat(cfg.output)
	if err != nil {
		return err
	}
	if f == stats.FormatTable {
		table()
		return nil
	}
	if err := st.WriteWith(w, stats.NewStatReportRender(f)); err != nil {
		return err
	}
	if est != nil {
		return stats.NewEstimatorRender(f).Write(w, est)
	}
	return nil
}

func loadLab(path string) (*tablelab.Lab, error) {
	if path == "" {
		return tablelab.NewFromFS(core.Default(), configs.FS, configs.DefaultName)
	}
	return tablelab.NewFromFS(core.Default(), os.DirFS(filepath.Dir(path)), filepath.Base(path))
}

func (cfg *config) valid() (tablelab.Play, error) {
	p := message.NewPrinter(language.English)

	g, err := tablelab.ParseGame(cfg.game)
	if err != nil {
		return tablelab.Play{}, err
	}
	if _, err := stats.ParseFormat(cfg.output); err != nil {
		return tablelab.Play{}, err
	}
	play := tablelab.Play{Game: g, Stake: cfg.stake}
	if g == tablelab.GameRoulette {
		b, err := roulette.ParseBet(cfg.bet)
		if err != nil {
			return tablelab.Play{}, err
		}
		play.Bet = b
	}

	// 工作協程檢查(併發數)
	if cfg.worker < 1 {
		return tablelab.Play{}, errs.NewWarn("value err : workers must > 0")
	}
	if cfg.stake < 1 {
		return tablelab.Play{}, errs.NewWarn("value err : stake must > 0")
	}

	// 玩家數量 > 0
	if cfg.player < 1 {
		return tablelab.Play{}, errs.NewWarn("value err : player must > 0")
	}
	// 玩家數量太多 resize
	if cfg.player > 100000 {
		p.Fprintf(os.Stderr, "too much players: %d resized to 100k players\n", cfg.player)
		cfg.player = 100000
	}

	// 模擬玩家行為的時候，玩家帶入資金不能<1
	if cfg.player > 1 && cfg.bets < 1 {
		return tablelab.Play{}, errs.NewWarn("value err : balance must >= 1")
	}

	if cfg.rounds < 1 {
		return tablelab.Play{}, errs.NewWarn("value err : rounds must > 0")
	}

	// 一個玩家坐 1500 局約一整晚，再多就等同長局數桌台模擬
	if cfg.player > 1 && cfg.rounds > 15000 {
		p.Fprintf(os.Stderr, "too much rounds for each players : %d resized to 15k rounds for each player\n", cfg.rounds)
		cfg.rounds = 15000
	}
	return play, nil
}
