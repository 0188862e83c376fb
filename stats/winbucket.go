package stats

// ReturnBuckets
//
// 依「返還倍數」（返還 / 下注）分桶，用來快速定位單局結果落點。
//
// 請勿修改預設值
//   - 區間: [0,0], (0,1), [1,1], (1,2), [2,3), [3,5), [5,36), [36,+inf)
//   - [1,1] 單獨成桶：和局（push）只退回本金
type ReturnBuckets struct {
	edges []int64
	label []string
}

var Buckets = &ReturnBuckets{
	edges: []int64{2, 3, 5, 36},
	label: []string{"[0,0]", "(0,1)", "[1,1]", "(1,2)", "[2,3)", "[3,5)", "[5,36)", "[36,+inf)"},
}

func (b *ReturnBuckets) Labels() []string {
	return b.label
}

func (b *ReturnBuckets) Len() int {
	return len(b.label)
}

// Index 回傳返還 ret（下注 bet）所屬的桶；只用整數比較，不做除法。
func (b *ReturnBuckets) Index(ret, bet int64) int {
	switch {
	case ret <= 0:
		return 0
	case bet <= 0:
		return len(b.label) - 1
	case ret < bet:
		return 1
	case ret == bet:
		return 2
	}
	idx := 3
	for _, e := range b.edges {
		if ret < e*bet {
			return idx
		}
		idx++
	}
	return idx
}
