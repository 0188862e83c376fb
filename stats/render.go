package stats

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/zintix-labs/tablelab/errs"
	"gopkg.in/yaml.v3"
)

// Format 報表輸出格式
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat 接受 table / json / yaml（不分大小寫），空字串視為 table。
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	}
	return "", errs.Warnf("unknown output format %q", s)
}

// StatReportRender 定義輸出行為
type StatReportRender interface {
	Write(w io.Writer, r *StatReport) error
}

type EstimatorRender interface {
	Write(w io.Writer, e *EstimatorPlayers) error
}

// Render 以 JSON 或 YAML 輸出任一份報表；StatReport 與 EstimatorPlayers 共用。
type Render[T any] struct {
	Format Format
}

func (r Render[T]) Write(w io.Writer, v *T) error {
	switch r.Format {
	case FormatJSON:
		return json.NewEncoder(w).Encode(v)
	case FormatYAML:
		return forceReadableList(w, v)
	}
	return errs.Warnf("format %q is not a machine format", r.Format)
}

func NewStatReportRender(f Format) StatReportRender { return Render[StatReport]{Format: f} }

func NewEstimatorRender(f Format) EstimatorRender { return Render[EstimatorPlayers]{Format: f} }

// forceReadableList 讓一維陣列以 flow style 輸出：[a, b, c]
func forceReadableList[T any](w io.Writer, t *T) error {
	var node yaml.Node
	if err := node.Encode(t); err != nil {
		return err
	}
	styleReadableSequences(&node)

	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(&node)
}

// 只有最內層的一維 sequence 設成 flow style，外層維持 block。
func styleReadableSequences(n *yaml.Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case yaml.DocumentNode, yaml.MappingNode:
		for _, c := range n.Content {
			styleReadableSequences(c)
		}
	case yaml.SequenceNode:
		leaf := true
		for _, c := range n.Content {
			if c != nil && c.Kind == yaml.SequenceNode {
				leaf = false
			}
			styleReadableSequences(c)
		}
		if leaf {
			n.Style = yaml.FlowStyle
		}
	}
}
