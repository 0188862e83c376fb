package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var lang language.Tag = language.English

// 信賴區間
type CI struct {
	Lo float64 `json:"Lo" yaml:"Lo"`
	Hi float64 `json:"Hi" yaml:"Hi"`
}

// StatReport 桌台模擬統計報告
type StatReport struct {
	Summary *SummaryReport `json:"Summary" yaml:"Summary"`
	Mult    *MultReport    `json:"Mult"    yaml:"Mult"`
	Dist    *DistReport    `json:"Dist"    yaml:"Dist"`
	Player  *PlayerReport  `json:"Player,omitzero" yaml:"Player,omitempty"`
	isDone  bool
}

type SummaryReport struct {
	TableName   string  `json:"TableName"   yaml:"TableName"`
	Game        string  `json:"Game"        yaml:"Game"`
	Bet         string  `json:"Bet"         yaml:"Bet"`
	Stake       int64   `json:"Stake"       yaml:"Stake"`
	TotalBet    int64   `json:"TotalBet"    yaml:"TotalBet"`
	TotalReturn int64   `json:"TotalReturn" yaml:"TotalReturn"`
	RTP         float64 `json:"RTP"         yaml:"RTP"`
	RtpCI       CI      `json:"RtpCI"       yaml:"RtpCI"`
	Std         float64 `json:"Std"         yaml:"Std"`
	Cv          float64 `json:"Cv"          yaml:"Cv"`
	Hits        int     `json:"Hits"        yaml:"Hits"`
	HitRate     float64 `json:"HitRate"     yaml:"HitRate"`
	HitCI       CI      `json:"HitCI"       yaml:"HitCI"`
	Pushes      int     `json:"Pushes"      yaml:"Pushes"`
	PushRate    float64 `json:"PushRate"    yaml:"PushRate"`
	Rounds      int     `json:"Rounds"      yaml:"Rounds"`
}

// MultReport 返還倍數（以單注 stake 為 1）
type MultReport struct {
	ReturnMult      float64 `json:"ReturnMult"      yaml:"ReturnMult"`
	ReturnMultSqSum float64 `json:"ReturnMultSqSum" yaml:"ReturnMultSqSum"` // 平方和
}

// DistReport 返還倍數落點統計
type DistReport struct {
	Bucket  []string  `json:"Bucket"  yaml:"Bucket"`
	Collect []int     `json:"Collect" yaml:"Collect"`
	Dist    []float64 `json:"Dist"    yaml:"Dist"`
}

// PlayerReport 玩家統計
//
// 需使用 RecordWithPlayer 才會統計
type PlayerReport struct {
	InitBalance int64 `json:"InitBalance" yaml:"InitBalance"`
	Balance     int64 `json:"Balance"     yaml:"Balance"`
	MaxBalance  int64 `json:"MaxBalance"  yaml:"MaxBalance"`
	MinBalance  int64 `json:"MinBalance"  yaml:"MinBalance"`
	Bust        bool  `json:"Bust"        yaml:"Bust"`
	Cashout     bool  `json:"Cashout"     yaml:"Cashout"`
	Alive       bool  `json:"Alive"       yaml:"Alive"`
}

// ============================================================
// ** 公開方法 **
// ============================================================

// Done 將累積計數轉換為最終統計結果並鎖定 isDone 標記。
func (s *StatReport) Done() {
	if s.isDone {
		return
	}
	s.Summary.RTP = s.Rtp()
	s.Summary.RtpCI = s.Ci()
	s.Summary.Std = s.Std()
	s.Summary.Cv = s.Cv()
	s.Summary.HitRate, s.Summary.HitCI = proportionCICP(s.Summary.Hits, s.Summary.Rounds, 0.95)
	if s.Summary.Rounds > 0 {
		s.Summary.PushRate = float64(s.Summary.Pushes) / float64(s.Summary.Rounds)
	}
	if s.Dist != nil && s.Summary.Rounds > 0 {
		s.Dist.Dist = make([]float64, len(s.Dist.Collect))
		for i, c := range s.Dist.Collect {
			s.Dist.Dist[i] = float64(c) / float64(s.Summary.Rounds)
		}
	}
	if s.Player != nil {
		s.Player.Alive = !(s.Player.Bust || s.Player.Cashout)
	}
	s.isDone = true
}

// Rtp 回傳整體 RTP（總返還 / 總下注）
func (s *StatReport) Rtp() float64 {
	if s.Summary.Rounds == 0 || s.Summary.TotalBet == 0 {
		return 0
	}
	return float64(s.Summary.TotalReturn) / float64(s.Summary.TotalBet)
}

// Std 回傳單局返還倍數的樣本標準差
func (s *StatReport) Std() float64 {
	if s.Summary.Rounds < 2 {
		return 0
	}
	rounds := float64(s.Summary.Rounds)
	variance := (s.Mult.ReturnMultSqSum - s.Mult.ReturnMult*s.Mult.ReturnMult/rounds) / (rounds - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// Cv 回傳單局返還的變異係數
func (s *StatReport) Cv() float64 {
	rtp := s.Rtp()
	if rtp <= 0 {
		return 0
	}
	return s.Std() / rtp
}

// Ci 回傳(95% Rtp)信賴區間（常態近似）
func (s *StatReport) Ci() CI {
	rtp := s.Rtp()
	se := float64(0)
	if s.Summary.Rounds > 1 {
		se = s.Std() / math.Sqrt(float64(s.Summary.Rounds))
	}
	z := zScore(0.95)
	return CI{Lo: max(rtp-z*se, 0.0), Hi: rtp + z*se}
}

func (s *StatReport) WriteWith(w io.Writer, rep StatReportRender) error {
	s.Done()
	return rep.Write(w, s)
}

// StdOut 以表格輸出到 w
func (s *StatReport) StdOut(w io.Writer, ut time.Duration) {
	s.Done()
	fmt.Fprint(w, formatDuration(ut, s.Summary.Rounds))
	keys, msg := s.fmtBasic()
	fmt.Fprintln(w, fmtTable(s.Summary.TableName+" / "+s.Summary.Game, keys, msg))
}

// ============================================================
// ** 內部方法 **
// ============================================================

func formatDuration(d time.Duration, rounds int) string {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	rps := int(float64(rounds) / sec)
	if sec < 60.0 {
		return p.Sprintf("used: %.2f seconds\nrps : %d rounds/sec\n", sec, rps)
	}
	sc := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		return p.Sprintf("used: %dm %ds\nrps : %d rounds/sec\n", m, sc, rps)
	}
	return p.Sprintf("used: %dh:%dm:%ds\nrps : %d rounds/sec\n", h, m, sc, rps)
}

func (s *StatReport) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	sm := s.Summary
	basic := map[string]string{
		"Game":         sm.Game,
		"Bet":          sm.Bet,
		"Stake":        p.Sprintf("%d", sm.Stake),
		"Total Rounds": p.Sprintf("%d", sm.Rounds),
		"Total RTP":    p.Sprintf("%.2f %%", 100.0*sm.RTP),
		"RTP 95% CI":   p.Sprintf("[%.2f%%,%.2f%%]", 100.0*sm.RtpCI.Lo, 100.0*sm.RtpCI.Hi),
		"Total Bet":    p.Sprintf("%d", sm.TotalBet),
		"Total Return": p.Sprintf("%d", sm.TotalReturn),
		"Hit Rate":     p.Sprintf("%.3f%% [%.3f%%,%.3f%%]", 100.0*sm.HitRate, 100.0*sm.HitCI.Lo, 100.0*sm.HitCI.Hi),
		"Pushes":       p.Sprintf("%d", sm.Pushes),
		"STD":          p.Sprintf("%.3f", sm.Std),
		"CV":           p.Sprintf("%.3f", sm.Cv),
	}
	keys := []string{"Game", "Bet", "Stake", "Total Rounds", "Total RTP", "RTP 95% CI", "Total Bet", "Total Return", "Hit Rate", "Pushes", "STD", "CV"}
	return keys, basic
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	maxKeyLen := 0
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2
	totalInner := maxKeyLen + maxValLen + 1
	if tw := runewidth.StringWidth(title); tw > totalInner {
		maxValLen += tw - totalInner
		totalInner = tw
	}

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", totalInner) + "+\n"

	titleW := runewidth.StringWidth(title)
	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	var sb strings.Builder
	sb.WriteString(top)
	sb.WriteString(p.Sprintf("|%s%s%s|\n", blank(left), title, blank(right)))
	sb.WriteString(divider)
	for _, k := range keys {
		sb.WriteString(p.Sprintf("| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), msg[k], blank(maxValLen-2-runewidth.StringWidth(msg[k]))))
	}
	sb.WriteString(divider)
	return sb.String()
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
